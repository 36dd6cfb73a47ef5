// Package normalize parses the locale-formatted cell values found in
// imported ledger tables: currency amounts with German or English
// separators, VAT rates given as percent or fraction, and dates in native,
// day.month.year or ISO form. Parsing never fails; malformed input decays
// to a safe default.
package normalize

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Amount parses a number or a locale-formatted amount string. All
// characters except digits, comma, period and minus are stripped; the last
// separator before decimal digits is treated as the decimal point, which
// handles both "1.234,56" and "1234.56". Unparseable input yields zero.
func Amount(value any) decimal.Decimal {
	switch v := value.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return v
	case float64:
		return decimal.NewFromFloat(v)
	case float32:
		return decimal.NewFromFloat32(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case int64:
		return decimal.NewFromInt(v)
	case string:
		return amountFromString(v)
	default:
		return amountFromString(fmt.Sprint(value))
	}
}

func amountFromString(s string) decimal.Decimal {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == ',' || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	s = b.String()
	neg := strings.Contains(s, "-")
	s = strings.ReplaceAll(s, "-", "")
	if s == "" {
		return decimal.Zero
	}

	if sep := strings.LastIndexAny(s, ",."); sep >= 0 {
		intPart := strings.NewReplacer(",", "", ".", "").Replace(s[:sep])
		frac := strings.NewReplacer(",", "", ".", "").Replace(s[sep+1:])
		if frac == "" {
			s = intPart
		} else {
			s = intPart + "." + frac
		}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	if neg {
		d = d.Neg()
	}
	return d
}

var one = decimal.NewFromInt(1)

// Rate parses a VAT rate into the 0-100 percent domain. A fractional value
// below 1 is interpreted as a ratio and scaled by 100; strings may carry a
// trailing "%". Unparseable input falls back to the given default rate.
func Rate(value any, fallback decimal.Decimal) decimal.Decimal {
	var d decimal.Decimal
	switch v := value.(type) {
	case nil:
		return fallback
	case decimal.Decimal:
		d = v
	case float64:
		d = decimal.NewFromFloat(v)
	case int:
		d = decimal.NewFromInt(int64(v))
	case int64:
		d = decimal.NewFromInt(v)
	case string:
		s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v), "%"))
		if s == "" {
			return fallback
		}
		parsed, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
		if err != nil {
			return fallback
		}
		d = parsed
	default:
		return fallback
	}
	if d.IsPositive() && d.LessThan(one) {
		d = d.Mul(decimal.NewFromInt(100))
	}
	return d
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2.1.2006",
}

// Date parses a native date value, a day.month.year string or an ISO-like
// string. Invalid input reports ok=false, never an error.
func Date(value any) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v, !v.IsZero()
	case *time.Time:
		if v == nil {
			return time.Time{}, false
		}
		return *v, !v.IsZero()
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}

// Text folds a reference string for fuzzy comparison: lowercased, German
// umlauts expanded to their ASCII digraphs, everything non-alphanumeric
// dropped. Never used for persisted values.
func Text(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == 'ä':
			b.WriteString("ae")
		case r == 'ö':
			b.WriteString("oe")
		case r == 'ü':
			b.WriteString("ue")
		case r == 'ß':
			b.WriteString("ss")
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
		}
	}
	return b.String()
}
