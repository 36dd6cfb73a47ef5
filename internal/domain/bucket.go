package domain

import "github.com/shopspring/decimal"

// PeriodBucket holds the accumulators of one calendar month. Quarter and
// year figures are never stored: they are pure sums of the contained
// months, computed on demand via Add.
type PeriodBucket struct {
	TaxableRevenue        decimal.Decimal `json:"taxable_revenue"`
	ExemptDomesticRevenue decimal.Decimal `json:"exempt_domestic_revenue"`
	ExemptForeignRevenue  decimal.Decimal `json:"exempt_foreign_revenue"`

	TaxableExpense        decimal.Decimal `json:"taxable_expense"`
	ExemptDomesticExpense decimal.Decimal `json:"exempt_domestic_expense"`
	ExemptForeignExpense  decimal.Decimal `json:"exempt_foreign_expense"`
	SelfReceiptExpense    decimal.Decimal `json:"self_receipt_expense"`

	OutputVAT7  decimal.Decimal `json:"output_vat_7"`
	OutputVAT19 decimal.Decimal `json:"output_vat_19"`
	InputVAT7   decimal.Decimal `json:"input_vat_7"`
	InputVAT19  decimal.Decimal `json:"input_vat_19"`

	NonDeductibleVAT decimal.Decimal `json:"non_deductible_vat"`
}

// Add returns the field-wise sum of two buckets.
func (b PeriodBucket) Add(o PeriodBucket) PeriodBucket {
	return PeriodBucket{
		TaxableRevenue:        b.TaxableRevenue.Add(o.TaxableRevenue),
		ExemptDomesticRevenue: b.ExemptDomesticRevenue.Add(o.ExemptDomesticRevenue),
		ExemptForeignRevenue:  b.ExemptForeignRevenue.Add(o.ExemptForeignRevenue),
		TaxableExpense:        b.TaxableExpense.Add(o.TaxableExpense),
		ExemptDomesticExpense: b.ExemptDomesticExpense.Add(o.ExemptDomesticExpense),
		ExemptForeignExpense:  b.ExemptForeignExpense.Add(o.ExemptForeignExpense),
		SelfReceiptExpense:    b.SelfReceiptExpense.Add(o.SelfReceiptExpense),
		OutputVAT7:            b.OutputVAT7.Add(o.OutputVAT7),
		OutputVAT19:           b.OutputVAT19.Add(o.OutputVAT19),
		InputVAT7:             b.InputVAT7.Add(o.InputVAT7),
		InputVAT19:            b.InputVAT19.Add(o.InputVAT19),
		NonDeductibleVAT:      b.NonDeductibleVAT.Add(o.NonDeductibleVAT),
	}
}

// TotalIncome sums all revenue buckets, VAT excluded.
func (b PeriodBucket) TotalIncome() decimal.Decimal {
	return b.TaxableRevenue.Add(b.ExemptDomesticRevenue).Add(b.ExemptForeignRevenue)
}

// TotalExpense sums all expense buckets, VAT excluded.
func (b PeriodBucket) TotalExpense() decimal.Decimal {
	return b.TaxableExpense.
		Add(b.ExemptDomesticExpense).
		Add(b.ExemptForeignExpense).
		Add(b.SelfReceiptExpense)
}

// Result is income minus expense.
func (b PeriodBucket) Result() decimal.Decimal {
	return b.TotalIncome().Sub(b.TotalExpense())
}

// VATPayable is output VAT minus deductible input VAT. The non-deductible
// portion is carved out of the input VAT before deducting.
func (b PeriodBucket) VATPayable() decimal.Decimal {
	output := b.OutputVAT7.Add(b.OutputVAT19)
	deductible := b.InputVAT7.Add(b.InputVAT19).Sub(b.NonDeductibleVAT)
	return output.Sub(deductible)
}

// IsZero reports whether every accumulator is zero.
func (b PeriodBucket) IsZero() bool {
	return b.TaxableRevenue.IsZero() && b.ExemptDomesticRevenue.IsZero() &&
		b.ExemptForeignRevenue.IsZero() && b.TaxableExpense.IsZero() &&
		b.ExemptDomesticExpense.IsZero() && b.ExemptForeignExpense.IsZero() &&
		b.SelfReceiptExpense.IsZero() && b.OutputVAT7.IsZero() &&
		b.OutputVAT19.IsZero() && b.InputVAT7.IsZero() &&
		b.InputVAT19.IsZero() && b.NonDeductibleVAT.IsZero()
}
