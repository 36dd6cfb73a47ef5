package usecase

import (
	"github.com/shopspring/decimal"

	"bookpilot/internal/category"
	"bookpilot/internal/domain"
)

// balanceTolerance: the two sides may differ by at most 0.01 before the
// statement is flagged as unbalanced.
var balanceTolerance = decimal.NewFromFloat(0.01)

// BalanceSheetComposer pulls the terminal bank balance, the year's P&L
// result, the configured share capital and two category-filtered sums into
// a two-sided statement.
type BalanceSheetComposer struct {
	registry     *category.Registry
	shareCapital decimal.Decimal
}

func NewBalanceSheetComposer(registry *category.Registry, shareCapital decimal.Decimal) *BalanceSheetComposer {
	return &BalanceSheetComposer{registry: registry, shareCapital: shareCapital}
}

// Compose builds the statement. An unbalanced sheet is reported, never
// fatal.
func (c *BalanceSheetComposer) Compose(closingBalance, yearResult decimal.Decimal, records []*domain.LedgerRecord) domain.BalanceSheetReport {
	loans := c.sumBucket(records, domain.BucketShareholderLoan)
	provisions := c.sumBucket(records, domain.BucketTaxProvision)

	assets := closingBalance
	liabilities := c.shareCapital.Add(yearResult).Add(loans).Add(provisions)
	diff := assets.Sub(liabilities)

	return domain.BalanceSheetReport{
		BankBalance:      closingBalance,
		TotalAssets:      assets,
		ShareCapital:     c.shareCapital,
		ProfitForYear:    yearResult,
		ShareholderLoans: loans,
		TaxProvisions:    provisions,
		TotalLiabilities: liabilities,
		Difference:       diff,
		Balanced:         diff.Abs().LessThanOrEqual(balanceTolerance),
	}
}

// sumBucket adds up the gross amounts of all records whose category maps to
// the given reporting bucket.
func (c *BalanceSheetComposer) sumBucket(records []*domain.LedgerRecord, bucket string) decimal.Decimal {
	sum := decimal.Zero
	for _, rec := range records {
		rule, _ := c.registry.Classify(rec.Category, rec.Side)
		if rule.Bucket == bucket {
			sum = sum.Add(rec.GrossAmount())
		}
	}
	return sum
}
