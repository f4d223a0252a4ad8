package http

import (
	"strings"

	"cashflow/internal/viewsync"
)

// sanitizeInput removes potentially dangerous characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}

// createForm maps the create form fields onto viewsync.Form. Values stay raw;
// validation belongs to the create cycle.
func createForm(p *RequestBodyParser) viewsync.Form {
	return viewsync.Form{
		Name:     p.Get("name"),
		Date:     p.Get("t_date"),
		Amount:   p.Get("amount"),
		Type:     p.Get("t_type"),
		Category: p.Get("category"),
		Comment:  p.Get("comment"),
		Status:   p.Bool("t_status"),
	}
}
