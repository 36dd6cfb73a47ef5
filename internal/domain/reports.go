package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrTableMissing is returned when a required table cannot be read from the
// ledger store. Structural: the pass aborts before any write.
var ErrTableMissing = errors.New("required table missing")

// Warning is a non-fatal finding collected during a pass.
type Warning struct {
	Table   string `json:"table,omitempty"`
	Row     int    `json:"row,omitempty"`
	Message string `json:"message"`
}

// PeriodRow is one reporting period (month, quarter or full year) with its
// accumulators and the figures derived from them.
type PeriodRow struct {
	Period     string          `json:"period"`
	Bucket     PeriodBucket    `json:"bucket"`
	VATPayable decimal.Decimal `json:"vat_payable"`
	Result     decimal.Decimal `json:"result"`
}

// VATReport carries the cash-basis declaration figures of one fiscal year.
type VATReport struct {
	Year     int         `json:"year"`
	Months   []PeriodRow `json:"months"`
	Quarters []PeriodRow `json:"quarters"`
	Total    PeriodRow   `json:"total"`
}

// ProfitLossReport is the management P&L view of the year bucket.
type ProfitLossReport struct {
	Year         int             `json:"year"`
	Buckets      PeriodBucket    `json:"buckets"`
	TotalIncome  decimal.Decimal `json:"total_income"`
	TotalExpense decimal.Decimal `json:"total_expense"`
	Result       decimal.Decimal `json:"result"`
}

// BalanceSheetReport is the two-sided closing statement. Balanced is false
// when the sides differ by more than 0.01; that is a warning, not an abort.
type BalanceSheetReport struct {
	BankBalance      decimal.Decimal `json:"bank_balance"`
	TotalAssets      decimal.Decimal `json:"total_assets"`
	ShareCapital     decimal.Decimal `json:"share_capital"`
	ProfitForYear    decimal.Decimal `json:"profit_for_year"`
	ShareholderLoans decimal.Decimal `json:"shareholder_loans"`
	TaxProvisions    decimal.Decimal `json:"tax_provisions"`
	TotalLiabilities decimal.Decimal `json:"total_liabilities"`
	Difference       decimal.Decimal `json:"difference"`
	Balanced         bool            `json:"balanced"`
}

// RunSummary provides high-level statistics of one reconciliation pass.
type RunSummary struct {
	FiscalYear         int `json:"fiscal_year"`
	RecordsProcessed   int `json:"records_processed"`
	MovementsProcessed int `json:"movements_processed"`
	FullPayments       int `json:"full_payments"`
	PartialPayments    int `json:"partial_payments"`
	UncertainPayments  int `json:"uncertain_payments"`
	Unmatched          int `json:"unmatched"`
}

// RunReport is the top-level result of one full pass: reports plus the
// collected diagnostics. Best-effort complete output with warnings, rather
// than abort on first problem.
type RunReport struct {
	Summary            RunSummary         `json:"summary"`
	VAT                VATReport          `json:"vat"`
	ProfitLoss         ProfitLossReport   `json:"profit_loss"`
	BalanceSheet       BalanceSheetReport `json:"balance_sheet"`
	Warnings           []Warning          `json:"warnings"`
	UnmappedCategories []string           `json:"unmapped_categories"`
	UnmatchedMovements []BankMovement     `json:"unmatched_movements"`
}
