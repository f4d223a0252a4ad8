package sheets

import (
	"fmt"
	"strings"

	"cashflow/internal/core"
)

// Column layout, A through G.
var header = []any{"name", "t_date", "amount", "t_type", "category", "comment", "t_status"}

const (
	colName = iota
	colDate
	colAmount
	colType
	colCategory
	colComment
	colStatus
)

// parsedRow is a transaction plus its 1-based sheet row.
type parsedRow struct {
	Row int
	Tx  core.Transaction
}

// parseRows turns a values matrix read from A1 into transactions. A first
// row whose name cell reads "name" is treated as the header. Blank rows are
// skipped; short rows are padded.
func parseRows(values [][]any) []parsedRow {
	out := make([]parsedRow, 0, len(values))
	for i, raw := range values {
		cols := toStrings(raw)
		if i == 0 && strings.EqualFold(cell(cols, colName), "name") {
			continue
		}
		name := cell(cols, colName)
		if name == "" {
			continue
		}
		amount, _ := core.ParseAmount(normalizeAmount(cell(cols, colAmount)))
		out = append(out, parsedRow{
			Row: i + 1,
			Tx: core.Transaction{
				Name:     name,
				Date:     core.Date(cell(cols, colDate)),
				Amount:   amount,
				Type:     core.Type(cell(cols, colType)),
				Category: cell(cols, colCategory),
				Comment:  cell(cols, colComment),
				Status:   core.Status(core.NormalizeStatus(statusValue(cell(cols, colStatus)))),
			},
		})
	}
	return out
}

// toRow is the inverse of parseRows for one transaction.
func toRow(t core.Transaction) []any {
	return []any{
		t.Name,
		t.Date.String(),
		t.Amount.Decimal.String(),
		string(t.Type),
		t.Category,
		t.Comment,
		t.Status.Wire(),
	}
}

// normalizeAmount accepts "1500", "1500.5" and sheet-localized "1.500,50".
func normalizeAmount(s string) string {
	s = strings.TrimSpace(s)
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	return s
}

// statusValue maps sheet booleans, which the API renders as TRUE/FALSE.
func statusValue(s string) any {
	switch strings.ToUpper(s) {
	case "TRUE":
		return true
	case "FALSE":
		return false
	}
	return s
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func cell(cols []string, idx int) string {
	if idx < 0 || idx >= len(cols) {
		return ""
	}
	return cols[idx]
}

// matchingRows returns the sheet rows holding name, highest first so
// deleting them in order keeps the remaining indexes valid.
func matchingRows(rows []parsedRow, name string) []int {
	var out []int
	for i := len(rows) - 1; i >= 0; i-- {
		if rows[i].Tx.Name == name {
			out = append(out, rows[i].Row)
		}
	}
	return out
}
