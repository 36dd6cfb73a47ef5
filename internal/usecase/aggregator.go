package usecase

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"bookpilot/internal/category"
	"bookpilot/internal/domain"
)

// settledEpsilon: settled amounts this close to zero do not accumulate.
var settledEpsilon = decimal.New(1, -9)

var hundred = decimal.NewFromInt(100)

var seventyPercent = decimal.NewFromFloat(0.7)

// PeriodAggregator buckets settled amounts by effective month on a
// cash-basis: a record contributes in the month its payment date falls in,
// never on its document date. Quarter and year figures are computed sums
// over the month buckets, never separately mutated.
type PeriodAggregator struct {
	registry   *category.Registry
	fiscalYear int
	months     [12]domain.PeriodBucket
	unmapped   map[string]struct{}
}

func NewPeriodAggregator(registry *category.Registry, fiscalYear int) *PeriodAggregator {
	return &PeriodAggregator{
		registry:   registry,
		fiscalYear: fiscalYear,
		unmapped:   make(map[string]struct{}),
	}
}

// Accumulate folds one ledger record into its month bucket. Records
// without a payment date, with a future payment date, outside the fiscal
// year, or with nothing settled are skipped.
func (a *PeriodAggregator) Accumulate(rec *domain.LedgerRecord) {
	if rec.PaymentDate == nil || rec.PaymentDate.After(time.Now()) {
		return
	}
	if rec.PaymentDate.Year() != a.fiscalYear {
		return
	}

	settled := rec.SettledNet()
	if settled.Abs().LessThanOrEqual(settledEpsilon) {
		return
	}
	tax := settled.Mul(rec.VATRatePercent).Div(hundred)

	rule, known := a.registry.Classify(rec.Category, rec.Side)
	if !known && rec.Category != "" {
		a.unmapped[rec.Category] = struct{}{}
	}

	month := int(rec.PaymentDate.Month()) - 1
	bucket := &a.months[month]
	income := rec.Side == domain.SideIncome
	rate := rec.VATRatePercent.Round(0).IntPart()

	switch {
	case rule.Treatment == domain.TreatExemptDomestic:
		if income {
			bucket.ExemptDomesticRevenue = bucket.ExemptDomesticRevenue.Add(settled)
		} else {
			bucket.ExemptDomesticExpense = bucket.ExemptDomesticExpense.Add(settled)
		}
	case rule.Treatment == domain.TreatExemptForeign || rec.VATRatePercent.IsZero():
		if income {
			bucket.ExemptForeignRevenue = bucket.ExemptForeignRevenue.Add(settled)
		} else {
			bucket.ExemptForeignExpense = bucket.ExemptForeignExpense.Add(settled)
		}
	case rule.Treatment == domain.TreatSelfReceipt && rule.Hospitality:
		// Hospitality self-receipt: the full settled amount is an expense,
		// but only 70% of the input VAT is deductible. The full tax lands in
		// the input-VAT slot; VATPayable carves the disallowed part back out.
		bucket.SelfReceiptExpense = bucket.SelfReceiptExpense.Add(settled)
		deductible := tax.Mul(seventyPercent)
		addInputVAT(bucket, rate, tax)
		bucket.NonDeductibleVAT = bucket.NonDeductibleVAT.Add(tax.Sub(deductible))
	default:
		if income {
			bucket.TaxableRevenue = bucket.TaxableRevenue.Add(settled)
			addOutputVAT(bucket, rate, tax)
		} else {
			if rule.Treatment == domain.TreatSelfReceipt {
				bucket.SelfReceiptExpense = bucket.SelfReceiptExpense.Add(settled)
			} else {
				bucket.TaxableExpense = bucket.TaxableExpense.Add(settled)
			}
			addInputVAT(bucket, rate, tax)
		}
	}
}

// Only the 7% and 19% rates accumulate VAT; other rates still accumulate
// the taxable base.
func addOutputVAT(b *domain.PeriodBucket, rate int64, tax decimal.Decimal) {
	switch rate {
	case 7:
		b.OutputVAT7 = b.OutputVAT7.Add(tax)
	case 19:
		b.OutputVAT19 = b.OutputVAT19.Add(tax)
	}
}

func addInputVAT(b *domain.PeriodBucket, rate int64, tax decimal.Decimal) {
	switch rate {
	case 7:
		b.InputVAT7 = b.InputVAT7.Add(tax)
	case 19:
		b.InputVAT19 = b.InputVAT19.Add(tax)
	}
}

// Month returns one month bucket (1-12).
func (a *PeriodAggregator) Month(month int) domain.PeriodBucket {
	return a.months[month-1]
}

// Quarter sums the three months of one quarter (1-4).
func (a *PeriodAggregator) Quarter(quarter int) domain.PeriodBucket {
	var sum domain.PeriodBucket
	for m := (quarter - 1) * 3; m < quarter*3; m++ {
		sum = sum.Add(a.months[m])
	}
	return sum
}

// Year sums all twelve month buckets.
func (a *PeriodAggregator) Year() domain.PeriodBucket {
	var sum domain.PeriodBucket
	for m := 0; m < 12; m++ {
		sum = sum.Add(a.months[m])
	}
	return sum
}

// UnmappedCategories lists the category labels that fell back to a default
// rule during accumulation.
func (a *PeriodAggregator) UnmappedCategories() []string {
	out := make([]string, 0, len(a.unmapped))
	for name := range a.unmapped {
		out = append(out, name)
	}
	return out
}

// VATReport renders months, quarters and the year total.
func (a *PeriodAggregator) VATReport() domain.VATReport {
	report := domain.VATReport{Year: a.fiscalYear}
	for m := 1; m <= 12; m++ {
		report.Months = append(report.Months, periodRow(fmt.Sprintf("%04d-%02d", a.fiscalYear, m), a.Month(m)))
	}
	for q := 1; q <= 4; q++ {
		report.Quarters = append(report.Quarters, periodRow(fmt.Sprintf("Q%d", q), a.Quarter(q)))
	}
	report.Total = periodRow(fmt.Sprintf("%04d", a.fiscalYear), a.Year())
	return report
}

// ProfitLossReport renders the year bucket as a P&L statement.
func (a *PeriodAggregator) ProfitLossReport() domain.ProfitLossReport {
	year := a.Year()
	return domain.ProfitLossReport{
		Year:         a.fiscalYear,
		Buckets:      year,
		TotalIncome:  year.TotalIncome(),
		TotalExpense: year.TotalExpense(),
		Result:       year.Result(),
	}
}

func periodRow(period string, bucket domain.PeriodBucket) domain.PeriodRow {
	return domain.PeriodRow{
		Period:     period,
		Bucket:     bucket,
		VATPayable: bucket.VATPayable(),
		Result:     bucket.Result(),
	}
}
