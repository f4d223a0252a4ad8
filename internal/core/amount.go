// Package core provides the ledger domain: transactions, their wire
// normalization, validation and aggregation.
package core

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a decimal that decodes from either a JSON number or a JSON
// string. Values that do not parse decode as invalid rather than failing
// the whole payload.
type Amount struct {
	decimal.Decimal
	Valid bool
}

// NewAmount wraps d as a valid amount.
func NewAmount(d decimal.Decimal) Amount {
	return Amount{Decimal: d, Valid: true}
}

// ParseAmount parses a plain decimal string such as "1500" or "-12.5".
func ParseAmount(s string) (Amount, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Amount{}, false
	}
	return NewAmount(d), true
}

// UnmarshalJSON accepts 12.5, "12.5" and null.
func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*a = Amount{}
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	s := string(b)
	if b[0] == '"' {
		unquoted, err := strconv.Unquote(s)
		if err != nil {
			return nil
		}
		s = unquoted
	}
	if parsed, ok := ParseAmount(s); ok {
		*a = parsed
	}
	return nil
}

// MarshalJSON writes a JSON number, or null when invalid.
func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.Valid {
		return []byte("null"), nil
	}
	return []byte(a.Decimal.String()), nil
}

// Status is the settlement flag. Stores send it as "1"/"0", 1/0 or a
// boolean; anything else reads as false.
type Status bool

// NormalizeStatus maps the wire variants of a status to a bool.
func NormalizeStatus(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return val == "1"
	case float64:
		return val == 1
	case int:
		return val == 1
	case int64:
		return val == 1
	case json.Number:
		return val.String() == "1"
	default:
		return false
	}
}

// UnmarshalJSON never fails; unknown shapes read as false.
func (s *Status) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		*s = false
		return nil
	}
	*s = Status(NormalizeStatus(v))
	return nil
}

// MarshalJSON writes 1 or 0.
func (s Status) MarshalJSON() ([]byte, error) {
	if s {
		return []byte("1"), nil
	}
	return []byte("0"), nil
}

// Wire returns the form encoding used by the create endpoint.
func (s Status) Wire() string {
	if s {
		return "1"
	}
	return "0"
}
