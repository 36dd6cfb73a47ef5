package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"bookpilot/internal/normalize"
)

// AccountNeedsReview is written to the debit/credit columns of a movement
// that could not be matched or categorized.
const AccountNeedsReview = "PRÜFEN"

// ClosingBalanceText marks the synthetic closing row of a movement sequence.
const ClosingBalanceText = "Endsaldo"

// BankMovement is one line of the bank table. Category, annotation and the
// account pair are reconciliation output, not import data.
type BankMovement struct {
	RowIndex        int             `json:"row_index"`
	Date            time.Time       `json:"date"`
	BookingText     string          `json:"booking_text"`
	Amount          decimal.Decimal `json:"amount"`
	RunningBalance  decimal.Decimal `json:"running_balance"`
	ReferenceText   string          `json:"reference_text"`
	Category        string          `json:"category,omitempty"`
	MatchAnnotation string          `json:"match_annotation,omitempty"`
	DebitAccount    string          `json:"debit_account,omitempty"`
	CreditAccount   string          `json:"credit_account,omitempty"`
}

// IsIncoming reports whether money came in.
func (m *BankMovement) IsIncoming() bool { return m.Amount.IsPositive() }

// AbsAmount returns the unsigned movement amount.
func (m *BankMovement) AbsAmount() decimal.Decimal { return m.Amount.Abs() }

// IsClosingRow reports whether the movement is the synthetic closing
// balance row: no amount, no reference, only a carried balance.
func (m *BankMovement) IsClosingRow() bool {
	return m.Amount.IsZero() && strings.TrimSpace(m.ReferenceText) == "" &&
		(m.BookingText == ClosingBalanceText || strings.TrimSpace(m.BookingText) == "")
}

// MovementLayout maps named bank-table columns to 1-based positions.
type MovementLayout struct {
	Date          int `yaml:"date"`
	BookingText   int `yaml:"booking_text"`
	Amount        int `yaml:"amount"`
	Balance       int `yaml:"balance"`
	Reference     int `yaml:"reference"`
	Category      int `yaml:"category"`
	Annotation    int `yaml:"annotation"`
	DebitAccount  int `yaml:"debit_account"`
	CreditAccount int `yaml:"credit_account"`
}

// MovementFromRow builds a BankMovement from one raw row. Malformed cells
// decay to safe defaults; this never fails.
func MovementFromRow(row []string, rowIndex int, layout MovementLayout) BankMovement {
	mv := BankMovement{
		RowIndex:        rowIndex,
		BookingText:     strings.TrimSpace(CellAt(row, layout.BookingText)),
		Amount:          normalize.Amount(CellAt(row, layout.Amount)),
		ReferenceText:   strings.TrimSpace(CellAt(row, layout.Reference)),
		Category:        strings.TrimSpace(CellAt(row, layout.Category)),
		MatchAnnotation: strings.TrimSpace(CellAt(row, layout.Annotation)),
	}
	if d, ok := normalize.Date(CellAt(row, layout.Date)); ok {
		mv.Date = d
	}
	return mv
}

// ComputeRunningBalances recomputes the strictly sequential running balance
// of every movement: previous balance plus amount, starting from opening.
// Returns the terminal balance.
func ComputeRunningBalances(movements []BankMovement, opening decimal.Decimal) decimal.Decimal {
	balance := opening
	for i := range movements {
		balance = balance.Add(movements[i].Amount)
		movements[i].RunningBalance = balance
	}
	return balance
}

// SplitClosingRow separates a trailing synthetic closing row from the
// matchable movements. The closing row, when present, is excluded from
// matching and regenerated on write-back.
func SplitClosingRow(movements []BankMovement) ([]BankMovement, *BankMovement) {
	if n := len(movements); n > 0 && movements[n-1].IsClosingRow() {
		closing := movements[n-1]
		return movements[:n-1], &closing
	}
	return movements, nil
}
