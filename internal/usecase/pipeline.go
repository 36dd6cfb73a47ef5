package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"bookpilot/internal/category"
	"bookpilot/internal/domain"
)

// cellDateLayout is how dates are written back to the ledger tables.
const cellDateLayout = "02.01.2006"

// Tables names the three logical tables a pass operates on.
type Tables struct {
	Income  string
	Expense string
	Bank    string
}

// Options configures one pipeline instance.
type Options struct {
	FiscalYear     int
	ShareCapital   decimal.Decimal
	DefaultVATRate decimal.Decimal
	OpeningBalance decimal.Decimal
	Tables         Tables
	IncomeLayout   domain.RecordLayout
	ExpenseLayout  domain.RecordLayout
	BankLayout     domain.MovementLayout
	CacheTTL       time.Duration
}

// Pipeline runs one full recomputation pass: snapshot the ledger tables,
// reconcile the bank movements, aggregate by period, compose the reports
// and write the results back in batched writes. Single-threaded and
// synchronous; re-running is always safe.
type Pipeline struct {
	store    LedgerStore
	registry *category.Registry
	matcher  *BankMovementMatcher
	composer *BalanceSheetComposer
	opts     Options
	log      *logrus.Logger

	cached   *domain.RunReport
	cachedAt time.Time
}

func NewPipeline(store LedgerStore, registry *category.Registry, opts Options, log *logrus.Logger) *Pipeline {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	return &Pipeline{
		store:    store,
		registry: registry,
		matcher:  NewBankMovementMatcher(registry, log),
		composer: NewBalanceSheetComposer(registry, opts.ShareCapital),
		opts:     opts,
		log:      log,
	}
}

// CachedReport returns the memoized result of the last pass, or nil when
// none is fresh. Run always recomputes.
func (p *Pipeline) CachedReport() *domain.RunReport {
	if p.cached != nil && time.Since(p.cachedAt) < p.opts.CacheTTL {
		return p.cached
	}
	return nil
}

// Clear drops the memoized report. Must be called when records are mutated
// outside a pass.
func (p *Pipeline) Clear() {
	p.cached = nil
}

// Run executes one full pass. Structural errors (a required table cannot
// be read) abort before any write; everything else is collected into the
// report's warnings.
func (p *Pipeline) Run(ctx context.Context) (*domain.RunReport, error) {
	p.Clear()

	incomeRows, err := p.readTable(ctx, p.opts.Tables.Income)
	if err != nil {
		return nil, err
	}
	expenseRows, err := p.readTable(ctx, p.opts.Tables.Expense)
	if err != nil {
		return nil, err
	}
	bankRows, err := p.readTable(ctx, p.opts.Tables.Bank)
	if err != nil {
		return nil, err
	}

	report := &domain.RunReport{
		Summary:            domain.RunSummary{FiscalYear: p.opts.FiscalYear},
		Warnings:           []domain.Warning{},
		UnmappedCategories: []string{},
		UnmatchedMovements: []domain.BankMovement{},
	}
	now := time.Now()

	incomeRecs := p.buildRecords(incomeRows, domain.SideIncome, p.opts.IncomeLayout, p.opts.Tables.Income, now, report)
	expenseRecs := p.buildRecords(expenseRows, domain.SideExpense, p.opts.ExpenseLayout, p.opts.Tables.Expense, now, report)
	report.Summary.RecordsProcessed = len(incomeRecs) + len(expenseRecs)

	movements := p.buildMovements(bankRows)
	matchable, closing := domain.SplitClosingRow(movements)
	terminal := domain.ComputeRunningBalances(matchable, p.opts.OpeningBalance)
	report.Summary.MovementsProcessed = len(matchable)

	for i := range matchable {
		result := p.matcher.Match(&matchable[i], incomeRecs, expenseRecs)
		switch result.Outcome {
		case MatchFull:
			report.Summary.FullPayments++
		case MatchPartial:
			report.Summary.PartialPayments++
		case MatchUncertain:
			report.Summary.UncertainPayments++
		case MatchNone:
			report.Summary.Unmatched++
			report.UnmatchedMovements = append(report.UnmatchedMovements, matchable[i])
		}
	}

	aggregator := NewPeriodAggregator(p.registry, p.opts.FiscalYear)
	allRecords := append(append([]*domain.LedgerRecord{}, incomeRecs...), expenseRecs...)
	for _, rec := range allRecords {
		aggregator.Accumulate(rec)
	}
	report.VAT = aggregator.VATReport()
	report.ProfitLoss = aggregator.ProfitLossReport()
	report.UnmappedCategories = aggregator.UnmappedCategories()

	report.BalanceSheet = p.composer.Compose(terminal, report.ProfitLoss.Result, allRecords)
	if !report.BalanceSheet.Balanced {
		report.Warnings = append(report.Warnings, domain.Warning{
			Table:   p.opts.Tables.Bank,
			Message: fmt.Sprintf("balance sheet out of balance by %s", report.BalanceSheet.Difference.StringFixed(2)),
		})
	}

	// All outputs are computed; now write back, one batch per table.
	bankRows = p.flushMovements(bankRows, matchable, closing, terminal)
	p.flushRecords(incomeRows, incomeRecs, p.opts.IncomeLayout)
	p.flushRecords(expenseRows, expenseRecs, p.opts.ExpenseLayout)

	if err := p.store.WriteRows(ctx, p.opts.Tables.Bank, 2, bankRows[1:]); err != nil {
		return nil, fmt.Errorf("failed to write back bank table: %w", err)
	}
	if err := p.store.WriteRows(ctx, p.opts.Tables.Income, 2, incomeRows[1:]); err != nil {
		return nil, fmt.Errorf("failed to write back income table: %w", err)
	}
	if err := p.store.WriteRows(ctx, p.opts.Tables.Expense, 2, expenseRows[1:]); err != nil {
		return nil, fmt.Errorf("failed to write back expense table: %w", err)
	}

	p.log.WithFields(logrus.Fields{
		"module":    "pipeline",
		"records":   report.Summary.RecordsProcessed,
		"movements": report.Summary.MovementsProcessed,
		"unmatched": report.Summary.Unmatched,
		"warnings":  len(report.Warnings),
	}).Info("pass completed")

	p.cached = report
	p.cachedAt = time.Now()
	return report, nil
}

func (p *Pipeline) readTable(ctx context.Context, table string) ([][]string, error) {
	rows, err := p.store.ReadRows(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", domain.ErrTableMissing, table, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %q has no header row", domain.ErrTableMissing, table)
	}
	return rows, nil
}

// buildRecords turns data rows into ledger records, skipping blank lines
// and collecting consistency warnings. Row indexes are 1-based and include
// the header row, matching the store's addressing.
func (p *Pipeline) buildRecords(rows [][]string, side domain.RecordSide, layout domain.RecordLayout, table string, now time.Time, report *domain.RunReport) []*domain.LedgerRecord {
	var records []*domain.LedgerRecord
	for i, row := range rows[1:] {
		rowIndex := i + 2
		if domain.CellAt(row, layout.Reference) == "" &&
			domain.CellAt(row, layout.NetAmount) == "" &&
			domain.CellAt(row, layout.Category) == "" {
			continue
		}
		rec := domain.RecordFromRow(row, rowIndex, side, layout, p.opts.DefaultVATRate)
		report.Warnings = append(report.Warnings, rec.Validate(table, now)...)
		records = append(records, &rec)
	}
	return records
}

func (p *Pipeline) buildMovements(rows [][]string) []domain.BankMovement {
	var movements []domain.BankMovement
	for i, row := range rows[1:] {
		rowIndex := i + 2
		if len(row) == 0 {
			continue
		}
		movements = append(movements, domain.MovementFromRow(row, rowIndex, p.opts.BankLayout))
	}
	return movements
}

// flushMovements folds reconciliation output back into the raw bank rows
// and regenerates the synthetic closing row. Returns the rows, grown by
// one when no closing row existed yet.
func (p *Pipeline) flushMovements(rows [][]string, movements []domain.BankMovement, closing *domain.BankMovement, terminal decimal.Decimal) [][]string {
	layout := p.opts.BankLayout
	for _, mv := range movements {
		idx := mv.RowIndex - 1
		if idx < 1 || idx >= len(rows) {
			continue
		}
		row := rows[idx]
		row = domain.SetCellAt(row, layout.Balance, mv.RunningBalance.StringFixed(2))
		row = domain.SetCellAt(row, layout.Category, mv.Category)
		row = domain.SetCellAt(row, layout.Annotation, mv.MatchAnnotation)
		row = domain.SetCellAt(row, layout.DebitAccount, mv.DebitAccount)
		row = domain.SetCellAt(row, layout.CreditAccount, mv.CreditAccount)
		rows[idx] = row
	}

	closingRow := []string{}
	if closing != nil && closing.RowIndex-1 < len(rows) && closing.RowIndex >= 2 {
		closingRow = rows[closing.RowIndex-1]
	}
	closingRow = domain.SetCellAt(closingRow, layout.BookingText, domain.ClosingBalanceText)
	closingRow = domain.SetCellAt(closingRow, layout.Balance, terminal.StringFixed(2))
	if n := len(movements); n > 0 && !movements[n-1].Date.IsZero() {
		closingRow = domain.SetCellAt(closingRow, layout.Date, movements[n-1].Date.Format(cellDateLayout))
	}
	if closing != nil && closing.RowIndex-1 < len(rows) && closing.RowIndex >= 2 {
		rows[closing.RowIndex-1] = closingRow
	} else {
		rows = append(rows, closingRow)
	}
	return rows
}

// flushRecords folds record mutations (credit-note marker, payment date)
// back into the raw rows.
func (p *Pipeline) flushRecords(rows [][]string, records []*domain.LedgerRecord, layout domain.RecordLayout) {
	for _, rec := range records {
		idx := rec.RowIndex - 1
		if idx < 1 || idx >= len(rows) {
			continue
		}
		row := rows[idx]
		row = domain.SetCellAt(row, layout.Reference, rec.ReferenceNumber)
		if rec.PaymentDate != nil {
			row = domain.SetCellAt(row, layout.PaymentDate, rec.PaymentDate.Format(cellDateLayout))
		}
		if !rec.PaidAmount.IsZero() {
			row = domain.SetCellAt(row, layout.PaidAmount, rec.PaidAmount.StringFixed(2))
		}
		if rec.PaymentMethod != "" {
			row = domain.SetCellAt(row, layout.PaymentMethod, rec.PaymentMethod)
		}
		rows[idx] = row
	}
}
