package core

import (
	"strings"
	"time"
)

const (
	Income  Type = "income"
	Expense Type = "expense"
)

// DateLayout is the wire and form layout for transaction dates.
const DateLayout = "2006-01-02"

type (
	// Type tells whether money came in or went out. Values outside
	// Income/Expense are kept verbatim.
	Type string

	// Date is a calendar date as the store sends it, normally YYYY-MM-DD.
	Date string

	// Transaction is a single money movement keyed by Name.
	Transaction struct {
		Name     string `json:"name"`
		Date     Date   `json:"t_date"`
		Amount   Amount `json:"amount"`
		Type     Type   `json:"t_type"`
		Category string `json:"category"`
		Comment  string `json:"comment"`
		Status   Status `json:"t_status"`
	}
)

// dateLayouts are the shapes a store is known to send dates in. Python
// backends serializing date objects emit RFC 1123.
var dateLayouts = []string{
	DateLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	time.RFC1123,
}

// Time returns the calendar day at UTC midnight.
func (d Date) Time() (time.Time, bool) {
	s := strings.TrimSpace(string(d))
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, day := t.Date()
			return time.Date(y, m, day, 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// String returns the raw value.
func (d Date) String() string {
	return string(d)
}

// NewDate formats t as an ISO calendar date.
func NewDate(t time.Time) Date {
	return Date(t.Format(DateLayout))
}

// Cutoff returns the first calendar day inside a trailing window of days
// ending at now. now is read in its own location.
func Cutoff(now time.Time, days int) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d-days, 0, 0, 0, 0, time.UTC)
}

// Window keeps the transactions dated on or after cutoff, in input order.
// Transactions without a readable date are left out.
func Window(all []Transaction, cutoff time.Time) []Transaction {
	visible := make([]Transaction, 0, len(all))
	for _, t := range all {
		day, ok := t.Date.Time()
		if !ok || day.Before(cutoff) {
			continue
		}
		visible = append(visible, t)
	}
	return visible
}
