// Package store defines the ports of the reference transaction store.
// Backends live in subpackages; api serves them over HTTP.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cashflow/internal/core"
)

// ErrNotFound is returned by name-addressed mutations that matched nothing.
var ErrNotFound = errors.New("store: transaction not found")

// Ports for outbound adapters.
type (
	Lister interface {
		// List returns every transaction in insertion order.
		List(ctx context.Context) ([]core.Transaction, error)
	}

	Writer interface {
		// Append stores t. Names are not unique.
		Append(ctx context.Context, t core.Transaction) error
	}

	StatusUpdater interface {
		// SetStatus updates every transaction called name.
		SetStatus(ctx context.Context, name string, status bool) error
	}

	Deleter interface {
		// Delete removes every transaction called name.
		Delete(ctx context.Context, name string) error
	}

	Store interface {
		Lister
		Writer
		StatusUpdater
		Deleter
	}

	// Pinger is implemented by backends that can report readiness.
	Pinger interface {
		Ping(ctx context.Context) error
	}
)

// InputError is a rejected create. Message is user-facing.
type InputError struct {
	Field   string
	Message string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Check validates a transaction before it is written. The message texts
// are shown to end users by the view.
func Check(t core.Transaction) error {
	if strings.TrimSpace(t.Name) == "" {
		return &InputError{Field: "name", Message: "Nome é obrigatório."}
	}
	if _, ok := t.Date.Time(); !ok {
		return &InputError{Field: "t_date", Message: "Data inválida."}
	}
	if !t.Amount.Valid {
		return &InputError{Field: "amount", Message: "Valor inválido."}
	}
	if t.Type != core.Income && t.Type != core.Expense {
		return &InputError{Field: "t_type", Message: "Tipo inválido."}
	}
	return nil
}
