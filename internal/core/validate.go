package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// MaxDate is the latest date a transaction may carry.
const MaxDate = "2100-12-31"

// ValidationError is a local input problem. It never reaches the network.
type ValidationError struct {
	Code    string
	Message string // shown to the user as-is
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Code
}

var (
	ErrEmptyName      = &ValidationError{Code: "empty_name", Message: "Escreva o nome do lançamento!"}
	ErrNotANumber     = &ValidationError{Code: "not_a_number", Message: "Valor precisa ser número!"}
	ErrDateOutOfRange = &ValidationError{Code: "date_out_of_range", Message: "A data não pode ser após 31/12/2100."}
)

// Candidate holds normalized form values that passed validation.
type Candidate struct {
	Name   string
	Date   Date
	Amount decimal.Decimal
}

// Validator checks raw form values before submission.
type Validator struct {
	// MaxDate is compared lexically against the raw date, which only works
	// because both sides are fixed-width YYYY-MM-DD.
	MaxDate string
}

// NewValidator returns a Validator bounded by MaxDate.
func NewValidator() Validator {
	return Validator{MaxDate: MaxDate}
}

// Validate checks name, amount and date in that order and returns the
// first failure.
func (v Validator) Validate(rawName, rawDate, rawAmount string) (Candidate, error) {
	name := strings.TrimSpace(rawName)
	if name == "" {
		return Candidate{}, ErrEmptyName
	}
	amount, ok := ParseAmount(rawAmount)
	if !ok {
		return Candidate{}, ErrNotANumber
	}
	maxDate := v.MaxDate
	if maxDate == "" {
		maxDate = MaxDate
	}
	if rawDate > maxDate {
		return Candidate{}, ErrDateOutOfRange
	}
	return Candidate{Name: name, Date: Date(rawDate), Amount: amount.Decimal}, nil
}

// Validate runs the default Validator.
func Validate(rawName, rawDate, rawAmount string) (Candidate, error) {
	return NewValidator().Validate(rawName, rawDate, rawAmount)
}
