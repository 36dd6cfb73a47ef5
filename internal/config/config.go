// Package config provides configuration for a bookkeeping pass. Values are
// loaded from environment variables and .env files; table column layouts
// come from an optional YAML file.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"bookpilot/internal/domain"
)

// Config represents the application configuration.
type Config struct {
	FiscalYear     int
	ShareCapital   decimal.Decimal
	DefaultVATRate decimal.Decimal
	OpeningBalance decimal.Decimal
	Workbook       string
	DataDir        string
	LogLevel       string
	IncomeTable    string
	ExpenseTable   string
	BankTable      string
}

// Load reads configuration from environment variables, loading a .env file
// first when present. An explicit .env path can be passed.
func Load(envPath ...string) (*Config, error) {
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else {
		_ = godotenv.Load()
	}

	year, err := parseIntEnv("BOOKPILOT_FISCAL_YEAR", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid BOOKPILOT_FISCAL_YEAR: %w", err)
	}

	capital, err := parseDecimalEnv("BOOKPILOT_SHARE_CAPITAL", decimal.NewFromInt(25000))
	if err != nil {
		return nil, fmt.Errorf("invalid BOOKPILOT_SHARE_CAPITAL: %w", err)
	}
	rate, err := parseDecimalEnv("BOOKPILOT_DEFAULT_VAT_RATE", decimal.NewFromInt(19))
	if err != nil {
		return nil, fmt.Errorf("invalid BOOKPILOT_DEFAULT_VAT_RATE: %w", err)
	}
	opening, err := parseDecimalEnv("BOOKPILOT_OPENING_BALANCE", decimal.Zero)
	if err != nil {
		return nil, fmt.Errorf("invalid BOOKPILOT_OPENING_BALANCE: %w", err)
	}

	return &Config{
		FiscalYear:     year,
		ShareCapital:   capital,
		DefaultVATRate: rate,
		OpeningBalance: opening,
		Workbook:       os.Getenv("BOOKPILOT_WORKBOOK"),
		DataDir:        os.Getenv("BOOKPILOT_DATA_DIR"),
		LogLevel:       getEnvOrDefault("BOOKPILOT_LOG_LEVEL", "warn"),
		IncomeTable:    getEnvOrDefault("BOOKPILOT_INCOME_TABLE", "Einnahmen"),
		ExpenseTable:   getEnvOrDefault("BOOKPILOT_EXPENSE_TABLE", "Ausgaben"),
		BankTable:      getEnvOrDefault("BOOKPILOT_BANK_TABLE", "Bank"),
	}, nil
}

// Layouts holds the 1-based column positions of the three tables.
type Layouts struct {
	Income  domain.RecordLayout   `yaml:"income"`
	Expense domain.RecordLayout   `yaml:"expense"`
	Bank    domain.MovementLayout `yaml:"bank"`
}

// DefaultLayouts matches the stock table arrangement.
func DefaultLayouts() Layouts {
	record := domain.RecordLayout{
		Date:          1,
		Reference:     2,
		Category:      3,
		Counterparty:  4,
		NetAmount:     5,
		VATRate:       6,
		PaidAmount:    7,
		PaymentDate:   8,
		PaymentMethod: 9,
	}
	return Layouts{
		Income:  record,
		Expense: record,
		Bank: domain.MovementLayout{
			Date:          1,
			BookingText:   2,
			Amount:        3,
			Balance:       4,
			Reference:     5,
			Category:      6,
			Annotation:    7,
			DebitAccount:  8,
			CreditAccount: 9,
		},
	}
}

// LoadLayouts reads column layouts from a YAML file; an empty path yields
// the defaults.
func LoadLayouts(path string) (Layouts, error) {
	if path == "" {
		return DefaultLayouts(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Layouts{}, fmt.Errorf("failed to read layout file %s: %w", path, err)
	}
	layouts := DefaultLayouts()
	if err := yaml.Unmarshal(data, &layouts); err != nil {
		return Layouts{}, fmt.Errorf("failed to parse layout file %s: %w", path, err)
	}
	return layouts, nil
}

// Validate checks that the config is sufficient for one pass.
func (c *Config) Validate() error {
	var missing []string
	if c.FiscalYear == 0 {
		missing = append(missing, "BOOKPILOT_FISCAL_YEAR")
	}
	if c.Workbook == "" && c.DataDir == "" {
		missing = append(missing, "BOOKPILOT_WORKBOOK or BOOKPILOT_DATA_DIR")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %v", missing)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid integer value for %s: %s", key, value)
	}
	return parsed, nil
}

func parseDecimalEnv(key string, defaultValue decimal.Decimal) (decimal.Decimal, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal value for %s: %s", key, value)
	}
	return parsed, nil
}
