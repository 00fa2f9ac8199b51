// Package money decodes provider price fields, which arrive either as JSON
// strings ("12.99") or numbers (12.99), into cent-rounded float64 amounts.
package money

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

type NullableDecimal struct {
	Decimal decimal.Decimal
	Valid   bool
}

func (n *NullableDecimal) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		n.Valid = false
		return nil
	}
	trimmed := strings.TrimSpace(string(data))
	if len(trimmed) == 0 {
		n.Valid = false
		return nil
	}
	if trimmed[0] == '"' && trimmed[len(trimmed)-1] == '"' {
		trimmed = strings.TrimSpace(strings.Trim(trimmed, "\""))
	}
	if trimmed == "" {
		n.Valid = false
		return nil
	}
	dec, err := decimal.NewFromString(trimmed)
	if err != nil {
		n.Valid = false
		return err
	}
	n.Decimal = dec
	n.Valid = true
	return nil
}

func (n NullableDecimal) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Decimal.String())
}

// Float returns the amount rounded to cents, or 0 when the value is absent.
func (n NullableDecimal) Float() float64 {
	if !n.Valid {
		return 0
	}
	return n.Decimal.Round(2).InexactFloat64()
}

// Ptr is like Float but keeps absence distinguishable.
func (n NullableDecimal) Ptr() *float64 {
	if !n.Valid {
		return nil
	}
	value := n.Float()
	return &value
}
