package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPeriodBucket_Add(t *testing.T) {
	a := PeriodBucket{TaxableRevenue: d("1000"), OutputVAT19: d("190"), SelfReceiptExpense: d("50")}
	b := PeriodBucket{TaxableRevenue: d("500"), OutputVAT19: d("95"), NonDeductibleVAT: d("5.7")}

	sum := a.Add(b)

	assert.True(t, sum.TaxableRevenue.Equal(d("1500")))
	assert.True(t, sum.OutputVAT19.Equal(d("285")))
	assert.True(t, sum.SelfReceiptExpense.Equal(d("50")))
	assert.True(t, sum.NonDeductibleVAT.Equal(d("5.7")))

	// Add is pure: the operands stay untouched.
	assert.True(t, a.TaxableRevenue.Equal(d("1000")))
	assert.True(t, b.TaxableRevenue.Equal(d("500")))
}

func TestPeriodBucket_Totals(t *testing.T) {
	b := PeriodBucket{
		TaxableRevenue:        d("1000"),
		ExemptDomesticRevenue: d("200"),
		ExemptForeignRevenue:  d("300"),
		TaxableExpense:        d("400"),
		ExemptDomesticExpense: d("100"),
		ExemptForeignExpense:  d("50"),
		SelfReceiptExpense:    d("25"),
	}

	assert.True(t, b.TotalIncome().Equal(d("1500")))
	assert.True(t, b.TotalExpense().Equal(d("575")))
	assert.True(t, b.Result().Equal(d("925")))
}

func TestPeriodBucket_VATPayable(t *testing.T) {
	tests := []struct {
		name     string
		bucket   PeriodBucket
		expected string
	}{
		{
			"output minus input",
			PeriodBucket{OutputVAT19: d("190"), InputVAT19: d("40")},
			"150",
		},
		{
			"both rates combined",
			PeriodBucket{OutputVAT19: d("190"), OutputVAT7: d("7"), InputVAT19: d("19"), InputVAT7: d("3.5")},
			"174.5",
		},
		{
			"non-deductible portion shrinks the deduction",
			PeriodBucket{OutputVAT19: d("190"), InputVAT19: d("19"), NonDeductibleVAT: d("5.7")},
			"176.7",
		},
		{
			"refund position",
			PeriodBucket{InputVAT19: d("95")},
			"-95",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.bucket.VATPayable().Equal(d(tt.expected)),
				"VATPayable = %s, want %s", tt.bucket.VATPayable(), tt.expected)
		})
	}
}

func TestPeriodBucket_IsZero(t *testing.T) {
	assert.True(t, PeriodBucket{}.IsZero())
	assert.False(t, PeriodBucket{NonDeductibleVAT: d("0.01")}.IsZero())
	assert.False(t, PeriodBucket{ExemptForeignExpense: d("1")}.IsZero())
}
