package core

import (
	"errors"
	"testing"
)

func TestValidate(t *testing.T) {
	cases := []struct {
		name, date, amount string
		want               error
		wantName           string
		wantAmount         string
	}{
		{"Rent", "2024-01-05", "1500", nil, "Rent", "1500"},
		{"  Rent  ", "2024-01-05", "1500.50", nil, "Rent", "1500.5"},
		{"Sale", "2100-12-31", "-3", nil, "Sale", "-3"},
		{"Sale", "", "0", nil, "Sale", "0"},
		{"", "2024-01-05", "10", ErrEmptyName, "", ""},
		{"   ", "2024-01-05", "10", ErrEmptyName, "", ""},
		{"x", "2024-01-05", "abc", ErrNotANumber, "", ""},
		{"x", "2024-01-05", "", ErrNotANumber, "", ""},
		{"x", "2024-01-05", "1,5", ErrNotANumber, "", ""},
		{"x", "2101-01-01", "10", ErrDateOutOfRange, "", ""},
		{"", "2101-01-01", "abc", ErrEmptyName, "", ""},
		{"x", "2101-01-01", "abc", ErrNotANumber, "", ""},
	}
	for i, tc := range cases {
		got, err := Validate(tc.name, tc.date, tc.amount)
		if tc.want != nil {
			if !errors.Is(err, tc.want) {
				t.Fatalf("case %d: expected %v, got %v", i, tc.want, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("case %d: expected ok, got %v", i, err)
		}
		if got.Name != tc.wantName {
			t.Fatalf("case %d: name %q, want %q", i, got.Name, tc.wantName)
		}
		if got.Amount.String() != tc.wantAmount {
			t.Fatalf("case %d: amount %s, want %s", i, got.Amount, tc.wantAmount)
		}
		if got.Date != Date(tc.date) {
			t.Fatalf("case %d: date %q, want %q", i, got.Date, tc.date)
		}
	}
}

func TestValidatorCustomBound(t *testing.T) {
	v := Validator{MaxDate: "2030-01-01"}
	if _, err := v.Validate("a", "2030-01-02", "1"); !errors.Is(err, ErrDateOutOfRange) {
		t.Fatalf("expected out of range, got %v", err)
	}
	if _, err := v.Validate("a", "2030-01-01", "1"); err != nil {
		t.Fatalf("expected ok on the bound, got %v", err)
	}
}

func TestValidationErrorMessages(t *testing.T) {
	for _, e := range []*ValidationError{ErrEmptyName, ErrNotANumber, ErrDateOutOfRange} {
		if e.Message == "" {
			t.Fatalf("%s has no user message", e.Code)
		}
		var target *ValidationError
		if !errors.As(e, &target) {
			t.Fatalf("%s is not a ValidationError", e.Code)
		}
	}
}
