package viewsync

import (
	"time"

	"cashflow/internal/core"
)

// User-facing messages.
const (
	MsgLoadFailed    = "Erro ao carregar transações."
	MsgCreateFailed  = "Erro ao adicionar lançamento."
	MsgCreated       = "Lançamento adicionado!"
	MsgToggleFailed  = "Erro ao atualizar status."
	MsgConfirmDelete = "Você tem certeza?"
	MsgDeleteFailed  = "Erro ao remover lançamento."
	MsgDeleted       = "Removido!"
)

// Config is fixed at construction and never mutated.
type Config struct {
	// WindowDays is the trailing horizon of the table. Totals ignore it.
	// Zero means the default of 90; New rejects negative values.
	WindowDays int
	// MaxDate bounds create dates, compared lexically.
	MaxDate    string
	Categories core.CategoryTable
	// Now and Location decide what "today" is.
	Now      func() time.Time
	Location *time.Location

	ErrorDuration   time.Duration
	SuccessDuration time.Duration
}

// DefaultConfig returns a 90 day window in the local zone.
func DefaultConfig() Config {
	return Config{
		WindowDays:      90,
		MaxDate:         core.MaxDate,
		Categories:      core.DefaultCategories(),
		Now:             time.Now,
		Location:        time.Local,
		ErrorDuration:   8 * time.Second,
		SuccessDuration: 3 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.WindowDays <= 0 {
		c.WindowDays = d.WindowDays
	}
	if c.MaxDate == "" {
		c.MaxDate = d.MaxDate
	}
	if len(c.Categories.Options()) == 0 {
		c.Categories = d.Categories
	}
	if c.Now == nil {
		c.Now = d.Now
	}
	if c.Location == nil {
		c.Location = d.Location
	}
	if c.ErrorDuration <= 0 {
		c.ErrorDuration = d.ErrorDuration
	}
	if c.SuccessDuration <= 0 {
		c.SuccessDuration = d.SuccessDuration
	}
	return c
}
