// Package format turns wire values into the strings shown in the ledger.
// Everything here is pure.
package format

import (
	"strings"

	"cashflow/internal/core"
)

// Date renders an ISO date as DD/MM/YYYY. Values that are not three
// dash-separated parts are shown as they came unless they parse as another
// known date shape.
func Date(d core.Date) string {
	s := strings.TrimSpace(string(d))
	if s == "" {
		return ""
	}
	parts := strings.Split(s, "-")
	if len(parts) == 3 && parts[0] != "" && parts[1] != "" && parts[2] != "" && len(parts[2]) <= 2 {
		return parts[2] + "/" + parts[1] + "/" + parts[0]
	}
	if t, ok := d.Time(); ok {
		return t.Format("02/01/2006")
	}
	return s
}

// Real renders an amount as Brazilian Real, e.g. "R$ 1.500,00".
// Invalid amounts render as an empty string.
func Real(a core.Amount) string {
	if !a.Valid {
		return ""
	}
	fixed := a.Decimal.StringFixed(2)
	neg := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")

	intPart, frac, _ := strings.Cut(fixed, ".")
	if frac == "" {
		frac = "00"
	}
	out := "R$ " + groupThousands(intPart) + "," + frac
	if neg && strings.Trim(intPart+frac, "0") != "" {
		return "-" + out
	}
	return out
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// Type renders the transaction type label. Anything that is not income
// reads as an outflow.
func Type(t core.Type) string {
	if t == core.Income {
		return "Entrada"
	}
	return "Saída"
}

// TypeClass is the CSS class for the type cell.
func TypeClass(t core.Type) string {
	switch t {
	case core.Income:
		return "cell-income"
	case core.Expense:
		return "cell-expense"
	default:
		return ""
	}
}
