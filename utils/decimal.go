package utils

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseDecimal accepts common user-formatted amount strings like:
// - "20000"
// - "20,000"
// - "MMK 20,000"
// - "Ks -1,234.50"
//
// Keep digits, '.', and a leading '-' only. Monetary input always travels as
// strings, never floats, so sums stay exact.
func ParseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s != "" {
		s = strings.ReplaceAll(s, ",", "")
		s = strings.ReplaceAll(s, "MMK", "")
		s = strings.ReplaceAll(s, "mmk", "")
		s = strings.ReplaceAll(s, "Ks", "")
		s = strings.ReplaceAll(s, "ks", "")
		s = strings.TrimSpace(s)
	}
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = strings.TrimSpace(strings.TrimPrefix(s, "-"))
	}
	var b strings.Builder
	b.Grow(len(s) + 1)
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return decimal.Decimal{}, fmt.Errorf("invalid decimal %q", s)
	}
	if neg {
		cleaned = "-" + cleaned
	}
	return decimal.NewFromString(cleaned)
}

// Amount is the money type of API inputs. It unmarshals plain JSON numbers
// and formatted strings ("20,000", "MMK 20,000") via ParseDecimal, so amounts
// travel as strings end to end and never as floats.
type Amount struct {
	decimal.Decimal
}

func NewAmount(d decimal.Decimal) Amount {
	return Amount{Decimal: d}
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, `"`) {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		d, err := ParseDecimal(raw)
		if err != nil {
			return err
		}
		a.Decimal = d
		return nil
	}
	return a.Decimal.UnmarshalJSON(data)
}
