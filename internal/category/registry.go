// Package category maps category labels to their tax treatment, reporting
// bucket and chart-of-accounts pair. The per-category branching of the
// bookkeeping rules is a single data-driven lookup: adding a category is a
// data change, not a code change.
package category

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"bookpilot/internal/domain"
)

// Keyword categories assigned to otherwise unmatched bank movements.
const (
	ShareholderSettlement = "Gesellschafterverrechnung"
	HoldingSettlement     = "Verrechnung Holding"
)

// builtin is the default rule table, SKR03-flavoured account codes.
var builtin = map[string]domain.CategoryRule{
	// Income
	"Erlöse 19%":        {Treatment: domain.TreatTaxableStandard, Bucket: "revenue", DebitAccount: "1200", CreditAccount: "8400"},
	"Erlöse 7%":         {Treatment: domain.TreatTaxableReduced, Bucket: "revenue", DebitAccount: "1200", CreditAccount: "8300"},
	"Erlöse steuerfrei": {Treatment: domain.TreatExemptDomestic, Bucket: "revenue", DebitAccount: "1200", CreditAccount: "8120"},
	"Erlöse Ausland":    {Treatment: domain.TreatExemptForeign, Bucket: "revenue", DebitAccount: "1200", CreditAccount: "8125"},
	// Expenses
	"Wareneingang":         {Treatment: domain.TreatTaxableStandard, Bucket: "materials", DebitAccount: "3400", CreditAccount: "1200"},
	"Bürobedarf":           {Treatment: domain.TreatTaxableStandard, Bucket: "office", DebitAccount: "4930", CreditAccount: "1200"},
	"Telekommunikation":    {Treatment: domain.TreatTaxableStandard, Bucket: "office", DebitAccount: "4920", CreditAccount: "1200"},
	"Miete":                {Treatment: domain.TreatExemptDomestic, Bucket: "rent", DebitAccount: "4210", CreditAccount: "1200"},
	"Versicherungen":       {Treatment: domain.TreatExemptDomestic, Bucket: "insurance", DebitAccount: "4360", CreditAccount: "1200"},
	"Leistungen Ausland":   {Treatment: domain.TreatExemptForeign, Bucket: "services", DebitAccount: "3123", CreditAccount: "1200"},
	"Eigenbeleg":           {Treatment: domain.TreatSelfReceipt, Bucket: "self_receipt", DebitAccount: "4900", CreditAccount: "1200"},
	"Eigenbeleg Bewirtung": {Treatment: domain.TreatSelfReceipt, Bucket: "self_receipt", DebitAccount: "4650", CreditAccount: "1200", Hospitality: true},
	"Steuerberatung":       {Treatment: domain.TreatTaxableStandard, Bucket: "advisory", DebitAccount: "4957", CreditAccount: "1200"},
	"Steuerrückstellung":   {Treatment: domain.TreatExemptDomestic, Bucket: domain.BucketTaxProvision, DebitAccount: "4320", CreditAccount: "1200"},
	// Settlement accounts, matched by keyword fallback
	"Gesellschafterdarlehen": {Treatment: domain.TreatExemptDomestic, Bucket: domain.BucketShareholderLoan, DebitAccount: "1200", CreditAccount: "0730"},
	ShareholderSettlement:    {Treatment: domain.TreatExemptDomestic, Bucket: domain.BucketShareholderLoan, DebitAccount: "1370", CreditAccount: "1200"},
	HoldingSettlement:        {Treatment: domain.TreatExemptDomestic, Bucket: "intercompany", DebitAccount: "1590", CreditAccount: "1200"},
}

// Defaults used when a category label has no mapping.
var (
	defaultIncomeRule  = domain.CategoryRule{Treatment: domain.TreatTaxableStandard, Bucket: "revenue", DebitAccount: "1200", CreditAccount: "8400"}
	defaultExpenseRule = domain.CategoryRule{Treatment: domain.TreatTaxableStandard, Bucket: "other", DebitAccount: "4900", CreditAccount: "1200"}
)

// Registry resolves category labels to rules. Pure, stateless lookup;
// construction and overlay loading are the only mutations.
type Registry struct {
	rules map[string]domain.CategoryRule
}

// NewRegistry returns a registry preloaded with the built-in table.
func NewRegistry() *Registry {
	rules := make(map[string]domain.CategoryRule, len(builtin))
	for name, rule := range builtin {
		rules[name] = rule
	}
	return &Registry{rules: rules}
}

// overlayFile is the YAML overlay format: a list of category rules that
// extend or replace built-in entries.
type overlayFile struct {
	Categories []struct {
		Name                string `yaml:"name"`
		domain.CategoryRule `yaml:",inline"`
	} `yaml:"categories"`
}

// LoadOverlay merges category rules from a YAML file into the registry.
func (r *Registry) LoadOverlay(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read category overlay %s: %w", path, err)
	}
	var overlay overlayFile
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("failed to parse category overlay %s: %w", path, err)
	}
	for _, c := range overlay.Categories {
		if strings.TrimSpace(c.Name) == "" {
			continue
		}
		r.rules[c.Name] = c.CategoryRule
	}
	return nil
}

// Classify resolves a category label. Unknown labels resolve to the safe
// default for the record side; known reports whether the label was mapped,
// so the caller can surface a "category unmapped" diagnostic.
func (r *Registry) Classify(name string, side domain.RecordSide) (rule domain.CategoryRule, known bool) {
	if rule, ok := r.rules[strings.TrimSpace(name)]; ok {
		return rule, true
	}
	if side == domain.SideIncome {
		return defaultIncomeRule, false
	}
	return defaultExpenseRule, false
}
