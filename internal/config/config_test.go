package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("BOOKPILOT_FISCAL_YEAR", "2024")
	t.Setenv("BOOKPILOT_WORKBOOK", "ledger.xlsx")

	cfg, err := Load()
	assert.NoError(t, err)

	assert.Equal(t, 2024, cfg.FiscalYear)
	assert.Equal(t, "ledger.xlsx", cfg.Workbook)
	assert.True(t, cfg.ShareCapital.Equal(decimal.NewFromInt(25000)))
	assert.True(t, cfg.DefaultVATRate.Equal(decimal.NewFromInt(19)))
	assert.True(t, cfg.OpeningBalance.IsZero())
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "Einnahmen", cfg.IncomeTable)
	assert.Equal(t, "Ausgaben", cfg.ExpenseTable)
	assert.Equal(t, "Bank", cfg.BankTable)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("BOOKPILOT_FISCAL_YEAR", "2023")
	t.Setenv("BOOKPILOT_SHARE_CAPITAL", "12500")
	t.Setenv("BOOKPILOT_DEFAULT_VAT_RATE", "7")
	t.Setenv("BOOKPILOT_OPENING_BALANCE", "1000.50")
	t.Setenv("BOOKPILOT_DATA_DIR", "/data")
	t.Setenv("BOOKPILOT_LOG_LEVEL", "debug")
	t.Setenv("BOOKPILOT_INCOME_TABLE", "Revenue")

	cfg, err := Load()
	assert.NoError(t, err)

	assert.Equal(t, 2023, cfg.FiscalYear)
	assert.True(t, cfg.ShareCapital.Equal(decimal.NewFromInt(12500)))
	assert.True(t, cfg.DefaultVATRate.Equal(decimal.NewFromInt(7)))
	assert.Equal(t, "1000.5", cfg.OpeningBalance.String())
	assert.Equal(t, "/data", cfg.DataDir)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "Revenue", cfg.IncomeTable)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"fiscal year not a number", "BOOKPILOT_FISCAL_YEAR", "twentytwentyfour"},
		{"share capital not a decimal", "BOOKPILOT_SHARE_CAPITAL", "abc"},
		{"vat rate not a decimal", "BOOKPILOT_DEFAULT_VAT_RATE", "x%"},
		{"opening balance not a decimal", "BOOKPILOT_OPENING_BALANCE", "--"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	assert.NoError(t, os.WriteFile(path, []byte("BOOKPILOT_FISCAL_YEAR=2022\n"), 0o644))

	// godotenv only fills variables absent from the environment.
	t.Setenv("BOOKPILOT_FISCAL_YEAR", "ignored")
	os.Unsetenv("BOOKPILOT_FISCAL_YEAR")

	cfg, err := Load(path)
	assert.NoError(t, err)
	assert.Equal(t, 2022, cfg.FiscalYear)

	_, err = Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"workbook source", Config{FiscalYear: 2024, Workbook: "ledger.xlsx"}, false},
		{"csv source", Config{FiscalYear: 2024, DataDir: "/data"}, false},
		{"missing year", Config{Workbook: "ledger.xlsx"}, true},
		{"missing source", Config{FiscalYear: 2024}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadLayouts(t *testing.T) {
	t.Run("empty path yields defaults", func(t *testing.T) {
		layouts, err := LoadLayouts("")
		assert.NoError(t, err)
		assert.Equal(t, DefaultLayouts(), layouts)
	})

	t.Run("file overrides selected positions", func(t *testing.T) {
		content := `income:
  reference: 1
  net_amount: 2
bank:
  amount: 7
`
		path := filepath.Join(t.TempDir(), "layouts.yaml")
		assert.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		layouts, err := LoadLayouts(path)
		assert.NoError(t, err)
		assert.Equal(t, 1, layouts.Income.Reference)
		assert.Equal(t, 2, layouts.Income.NetAmount)
		assert.Equal(t, 7, layouts.Bank.Amount)
		assert.Equal(t, DefaultLayouts().Expense, layouts.Expense, "untouched tables keep their defaults")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadLayouts(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})
}
