package usecase

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"bookpilot/internal/category"
	"bookpilot/internal/domain"
	"bookpilot/internal/normalize"
)

// MatchOutcome classifies how a bank movement relates to the record it
// settles.
type MatchOutcome string

const (
	MatchFull      MatchOutcome = "FULL_PAYMENT"
	MatchPartial   MatchOutcome = "PARTIAL_PAYMENT"
	MatchUncertain MatchOutcome = "UNCERTAIN_PAYMENT"
	MatchNone      MatchOutcome = "NO_MATCH"
)

// paymentMethodBank marks settlements recorded by reconciliation.
const paymentMethodBank = "Bank"

var (
	// matchEpsilon absorbs rounding and fee noise around the gross amount.
	matchEpsilon = decimal.NewFromFloat(0.02)

	// partialThreshold: a shortfall above 10% of gross is a partial payment;
	// below it the difference is treated as a cash discount and the payment
	// still counts as full.
	partialThreshold = decimal.NewFromFloat(0.1)
)

// MatchResult summarizes one movement/record pairing.
type MatchResult struct {
	Outcome     MatchOutcome
	Record      *domain.LedgerRecord
	Reversed    bool
	DateUpdated bool
	Annotation  string
}

// BankMovementMatcher links a bank movement to the ledger record it
// settles. Positive movements match income records, negative movements
// expense records; the opposite-sign pool is only consulted when the
// same-sign pool yields nothing, so a direct match always wins.
type BankMovementMatcher struct {
	registry *category.Registry
	log      *logrus.Logger
}

func NewBankMovementMatcher(registry *category.Registry, log *logrus.Logger) *BankMovementMatcher {
	return &BankMovementMatcher{registry: registry, log: log}
}

// Match finds the best record for one movement and applies the
// reconciliation side effects: category, accounts and annotation on the
// movement; payment date (first-write-wins) and credit-note marker on the
// record. Never fails on malformed input.
func (m *BankMovementMatcher) Match(mv *domain.BankMovement, income, expense []*domain.LedgerRecord) MatchResult {
	reference := strings.TrimSpace(mv.ReferenceText)
	if reference == "" {
		// Nothing to match against: category-only account assignment.
		return m.fallback(mv)
	}

	direct, reversed := income, expense
	if !mv.IsIncoming() {
		direct, reversed = expense, income
	}

	rec := findByReference(reference, direct)
	isReversed := false
	if rec == nil {
		// A hit in the opposite-sign pool is a credit note or refund
		// against the original record, not a mismatch.
		rec = findByReference(reference, reversed)
		isReversed = rec != nil
	}
	if rec == nil {
		return m.fallback(mv)
	}

	result := m.classify(mv, rec)
	result.Reversed = isReversed

	if isReversed {
		rec.MarkCreditNote()
		result.Annotation += " (credit note)"
	}
	if result.Outcome == MatchFull || result.Outcome == MatchPartial {
		hadDate := rec.PaymentDate != nil
		if rec.PaidAmount.IsZero() {
			// Record the settlement. First-write-wins: a re-run, or a
			// manually maintained paid amount, is never overwritten.
			amount := mv.AbsAmount()
			if rec.GrossAmount().IsNegative() {
				amount = amount.Neg()
			}
			rec.ApplyPayment(amount, mv.Date, paymentMethodBank)
		} else {
			rec.SetPaymentDate(mv.Date)
		}
		result.DateUpdated = !hadDate && rec.PaymentDate != nil
		// The suffix keys off the stored date, not the write, so a second
		// pass over unchanged data reproduces the same annotation.
		if rec.PaymentDate != nil && rec.PaymentDate.Equal(mv.Date) {
			result.Annotation += " ✓ payment date set"
		}
	}

	mv.Category = rec.Category
	mv.MatchAnnotation = result.Annotation
	rule, known := m.registry.Classify(rec.Category, rec.Side)
	mv.DebitAccount = rule.DebitAccount
	mv.CreditAccount = rule.CreditAccount

	m.log.WithFields(logrus.Fields{
		"module":    "matcher",
		"reference": reference,
		"outcome":   result.Outcome,
		"reversed":  isReversed,
		"mapped":    known,
	}).Debug("movement matched")

	return result
}

// findByReference runs the four matching stages over one candidate pool,
// first hit wins: exact key, normalized key, raw containment in either
// direction, normalized containment.
func findByReference(reference string, pool []*domain.LedgerRecord) *domain.LedgerRecord {
	normRef := normalize.Text(reference)

	for _, rec := range pool {
		if rec.MatchKey() == reference {
			return rec
		}
	}
	if normRef != "" {
		for _, rec := range pool {
			if normalize.Text(rec.MatchKey()) == normRef {
				return rec
			}
		}
	}
	for _, rec := range pool {
		key := rec.MatchKey()
		if key == "" {
			continue
		}
		if strings.Contains(reference, key) || strings.Contains(key, reference) {
			return rec
		}
	}
	if normRef != "" {
		for _, rec := range pool {
			normKey := normalize.Text(rec.MatchKey())
			if normKey == "" {
				continue
			}
			if strings.Contains(normRef, normKey) || strings.Contains(normKey, normRef) {
				return rec
			}
		}
	}
	return nil
}

// classify compares the bank amount against the record's gross and paid
// amounts, all unsigned.
func (m *BankMovementMatcher) classify(mv *domain.BankMovement, rec *domain.LedgerRecord) MatchResult {
	b := mv.AbsAmount()
	g := rec.GrossAmount().Abs()
	p := rec.PaidAmount.Abs()
	diff := b.Sub(g).Abs()

	result := MatchResult{Record: rec}
	switch {
	case diff.LessThanOrEqual(matchEpsilon):
		result.Outcome = MatchFull
		result.Annotation = "full payment"
	case p.IsPositive() && p.Sub(g).Abs().LessThanOrEqual(matchEpsilon):
		// Already fully settled independently of this movement.
		result.Outcome = MatchFull
		result.Annotation = "full payment"
	case b.LessThan(g):
		if g.Sub(b).GreaterThan(g.Mul(partialThreshold)) {
			result.Outcome = MatchPartial
			result.Annotation = "partial payment"
		} else {
			// Shortfall within the 10% threshold: cash discount, still full.
			result.Outcome = MatchFull
			result.Annotation = "full payment"
		}
	default:
		result.Outcome = MatchUncertain
		result.Annotation = fmt.Sprintf("uncertain payment (diff %s)", b.Sub(g).Round(2).StringFixed(2))
	}
	return result
}

// fallback assigns one of the fixed keyword categories, or leaves the
// movement flagged for manual review.
func (m *BankMovementMatcher) fallback(mv *domain.BankMovement) MatchResult {
	folded := normalize.Text(mv.ReferenceText + " " + mv.BookingText)

	var name string
	switch {
	case strings.Contains(folded, "gesellschafter"):
		name = category.ShareholderSettlement
	case strings.Contains(folded, "holding"):
		name = category.HoldingSettlement
	}

	if name != "" {
		rule, _ := m.registry.Classify(name, domain.SideExpense)
		mv.Category = name
		mv.MatchAnnotation = "keyword match"
		mv.DebitAccount = rule.DebitAccount
		mv.CreditAccount = rule.CreditAccount
		return MatchResult{Outcome: MatchNone, Annotation: mv.MatchAnnotation}
	}

	mv.MatchAnnotation = "no match"
	mv.DebitAccount = domain.AccountNeedsReview
	mv.CreditAccount = domain.AccountNeedsReview
	return MatchResult{Outcome: MatchNone, Annotation: mv.MatchAnnotation}
}
