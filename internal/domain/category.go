package domain

// TaxTreatment drives which VAT and aggregation bucket a record's settled
// amount lands in.
type TaxTreatment string

const (
	TreatTaxableStandard TaxTreatment = "taxable_standard"
	TreatTaxableReduced  TaxTreatment = "taxable_reduced"
	TreatExemptDomestic  TaxTreatment = "exempt_domestic"
	TreatExemptForeign   TaxTreatment = "exempt_foreign"
	TreatSelfReceipt     TaxTreatment = "self_receipt"
)

// Reporting buckets referenced outside the registry table itself.
const (
	BucketShareholderLoan = "shareholder_loan"
	BucketTaxProvision    = "tax_provision"
)

// CategoryRule is the immutable mapping behind one category label:
// tax treatment, reporting bucket and the chart-of-accounts pair used when
// booking a matched bank movement. Hospitality flags partial-deductibility
// handling (70% deductible, 30% disallowed input VAT).
type CategoryRule struct {
	Treatment     TaxTreatment `yaml:"treatment" json:"treatment"`
	Bucket        string       `yaml:"bucket" json:"bucket"`
	DebitAccount  string       `yaml:"debit" json:"debit_account"`
	CreditAccount string       `yaml:"credit" json:"credit_account"`
	Hospitality   bool         `yaml:"hospitality,omitempty" json:"hospitality,omitempty"`
}
