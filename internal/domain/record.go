package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"bookpilot/internal/normalize"
)

// RecordSide tells whether a ledger record represents money coming in or
// going out. Self-receipts live on the expense side.
type RecordSide string

const (
	SideIncome  RecordSide = "income"
	SideExpense RecordSide = "expense"
)

// PaymentStatus is derived from paid amount vs. gross amount, never stored.
type PaymentStatus string

const (
	StatusOpen          PaymentStatus = "OPEN"
	StatusPartiallyPaid PaymentStatus = "PARTIALLY_PAID"
	StatusPaid          PaymentStatus = "PAID"
)

// CreditNoteMarker prefixes the reference number of a record that was
// settled by a reversed-sign bank movement (refund against an invoice).
const CreditNoteMarker = "GS-"

var (
	// hundred is shared by the VAT derivations below.
	hundred = decimal.NewFromInt(100)

	// paymentStatusTolerance is the relative tolerance (0.1%) used when
	// comparing paid amount against gross amount.
	paymentStatusTolerance = decimal.NewFromFloat(0.001)
)

// LedgerRecord is one invoice, expense bill or self-receipt. Amount fields
// hold the values as imported; VAT, gross, remaining net and payment status
// are recomputed on every read.
type LedgerRecord struct {
	RowIndex        int             `json:"row_index"` // 1-based row in the source table
	Side            RecordSide      `json:"side"`
	Date            time.Time       `json:"date"`
	ReferenceNumber string          `json:"reference_number"`
	Category        string          `json:"category"`
	Counterparty    string          `json:"counterparty"`
	NetAmount       decimal.Decimal `json:"net_amount"`
	VATRatePercent  decimal.Decimal `json:"vat_rate_percent"`
	PaidAmount      decimal.Decimal `json:"paid_amount"`
	PaymentDate     *time.Time      `json:"payment_date,omitempty"`
	PaymentMethod   string          `json:"payment_method,omitempty"`
}

// VATAmount returns net * rate/100.
func (r *LedgerRecord) VATAmount() decimal.Decimal {
	return r.NetAmount.Mul(r.VATRatePercent).Div(hundred)
}

// GrossAmount returns net + VAT.
func (r *LedgerRecord) GrossAmount() decimal.Decimal {
	return r.NetAmount.Add(r.VATAmount())
}

// RemainingNet returns the net amount still unsettled, floored at zero.
// The paid amount is a gross figure, so it is deflated by the VAT rate
// before subtracting.
func (r *LedgerRecord) RemainingNet() decimal.Decimal {
	paidNet := r.PaidAmount.Div(decimal.NewFromInt(1).Add(r.VATRatePercent.Div(hundred)))
	remaining := r.NetAmount.Sub(paidNet)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// SettledNet returns the net amount that has actually been paid. Negative
// for reversed credit notes, where the full negative net counts as settled.
func (r *LedgerRecord) SettledNet() decimal.Decimal {
	return r.NetAmount.Sub(r.RemainingNet())
}

// PaymentStatus compares paid against gross within a 0.1% relative tolerance.
func (r *LedgerRecord) PaymentStatus() PaymentStatus {
	if r.PaidAmount.IsZero() {
		return StatusOpen
	}
	gross := r.GrossAmount()
	tol := gross.Abs().Mul(paymentStatusTolerance)
	if r.PaidAmount.Sub(gross).Abs().LessThanOrEqual(tol) {
		return StatusPaid
	}
	return StatusPartiallyPaid
}

// ApplyPayment increments the cumulative paid amount. Payment date and
// method are first-write-wins: reconciliation never overwrites a manually
// entered value.
func (r *LedgerRecord) ApplyPayment(amount decimal.Decimal, date time.Time, method string) {
	r.PaidAmount = r.PaidAmount.Add(amount)
	if r.PaymentDate == nil && !date.IsZero() {
		d := date
		r.PaymentDate = &d
	}
	if r.PaymentMethod == "" {
		r.PaymentMethod = method
	}
}

// SetPaymentDate records the settlement date if none is set yet. Reports
// whether the date was written.
func (r *LedgerRecord) SetPaymentDate(date time.Time) bool {
	if r.PaymentDate != nil || date.IsZero() {
		return false
	}
	d := date
	r.PaymentDate = &d
	return true
}

// MatchKey is the reference number with the credit-note marker stripped.
func (r *LedgerRecord) MatchKey() string {
	return strings.TrimSpace(strings.TrimPrefix(r.ReferenceNumber, CreditNoteMarker))
}

// IsCreditNote reports whether the reference carries the credit-note marker.
func (r *LedgerRecord) IsCreditNote() bool {
	return strings.HasPrefix(r.ReferenceNumber, CreditNoteMarker)
}

// MarkCreditNote prefixes the reference with the credit-note marker.
// Idempotent: a second reconciliation pass must not double-prefix.
func (r *LedgerRecord) MarkCreditNote() {
	if !r.IsCreditNote() {
		r.ReferenceNumber = CreditNoteMarker + r.ReferenceNumber
	}
}

// Validate collects consistency warnings. Violations never abort a pass.
func (r *LedgerRecord) Validate(table string, now time.Time) []Warning {
	var warnings []Warning
	warn := func(msg string) {
		warnings = append(warnings, Warning{Table: table, Row: r.RowIndex, Message: msg})
	}

	switch r.PaymentStatus() {
	case StatusPaid:
		if r.PaymentDate == nil {
			warn("record is fully paid but has no payment date")
		} else {
			if r.PaymentDate.After(now) {
				warn(fmt.Sprintf("payment date %s is in the future", r.PaymentDate.Format("2006-01-02")))
			}
			if !r.Date.IsZero() && r.PaymentDate.Before(r.Date) {
				warn(fmt.Sprintf("payment date %s precedes document date %s",
					r.PaymentDate.Format("2006-01-02"), r.Date.Format("2006-01-02")))
			}
		}
	case StatusOpen:
		if r.PaymentDate != nil {
			warn("open record carries a payment date")
		}
		if r.PaymentMethod != "" {
			warn("open record carries a payment method")
		}
	}
	return warnings
}

// RecordLayout maps named ledger columns to 1-based column positions.
// A zero position means the column is absent from the table.
type RecordLayout struct {
	Date          int `yaml:"date"`
	Reference     int `yaml:"reference"`
	Category      int `yaml:"category"`
	Counterparty  int `yaml:"counterparty"`
	NetAmount     int `yaml:"net_amount"`
	VATRate       int `yaml:"vat_rate"`
	PaidAmount    int `yaml:"paid_amount"`
	PaymentDate   int `yaml:"payment_date"`
	PaymentMethod int `yaml:"payment_method"`
}

// RecordFromRow builds a LedgerRecord from one raw row. Malformed cells
// decay to safe defaults; this never fails. The source row is not mutated.
func RecordFromRow(row []string, rowIndex int, side RecordSide, layout RecordLayout, defaultRate decimal.Decimal) LedgerRecord {
	rec := LedgerRecord{
		RowIndex:        rowIndex,
		Side:            side,
		ReferenceNumber: strings.TrimSpace(CellAt(row, layout.Reference)),
		Category:        strings.TrimSpace(CellAt(row, layout.Category)),
		Counterparty:    strings.TrimSpace(CellAt(row, layout.Counterparty)),
		NetAmount:       normalize.Amount(CellAt(row, layout.NetAmount)),
		VATRatePercent:  normalize.Rate(CellAt(row, layout.VATRate), defaultRate),
		PaidAmount:      normalize.Amount(CellAt(row, layout.PaidAmount)),
		PaymentMethod:   strings.TrimSpace(CellAt(row, layout.PaymentMethod)),
	}
	if d, ok := normalize.Date(CellAt(row, layout.Date)); ok {
		rec.Date = d
	}
	if d, ok := normalize.Date(CellAt(row, layout.PaymentDate)); ok {
		rec.PaymentDate = &d
	}
	return rec
}

// CellAt returns the cell at a 1-based column position, or "" when the row
// is too short or the position is unmapped.
func CellAt(row []string, pos int) string {
	if pos < 1 || pos > len(row) {
		return ""
	}
	return row[pos-1]
}

// SetCellAt writes a cell at a 1-based column position, growing the row as
// needed. Unmapped positions are ignored.
func SetCellAt(row []string, pos int, value string) []string {
	if pos < 1 {
		return row
	}
	for len(row) < pos {
		row = append(row, "")
	}
	row[pos-1] = value
	return row
}
