package viewsync

import (
	"context"
	"time"

	"cashflow/internal/core"
)

// BannerKind distinguishes failure banners from confirmations.
type BannerKind int

const (
	BannerError BannerKind = iota
	BannerSuccess
)

func (k BannerKind) String() string {
	if k == BannerSuccess {
		return "success"
	}
	return "error"
}

// Banner is a transient user-visible message. It dismisses itself after
// Duration.
type Banner struct {
	Kind     BannerKind
	Message  string
	Duration time.Duration
}

// Row is one table line: the transaction plus its display strings.
type Row struct {
	Transaction core.Transaction
	Date        string
	Amount      string
	Type        string
	TypeClass   string
	Category    string
}

// StatCards are the three aggregate cards.
type StatCards struct {
	Totals  core.Totals
	Income  string
	Expense string
	Balance string
}

// FormDefaults is what the create form returns to after a successful
// submit. Text fields are empty and the status box is unchecked.
type FormDefaults struct {
	Date core.Date
	Type core.Type
}

// Form holds raw create-form values as the user typed them.
type Form struct {
	Name     string
	Date     string
	Amount   string
	Type     string
	Category string
	Comment  string
	Status   bool
}

// Renderer realizes the view. Table calls for one refresh arrive together
// and never interleave with another refresh's.
type Renderer interface {
	SetLoading(on bool)
	ClearRows()
	RenderRow(Row)
	SetTableVisible(visible bool)
	UpdateStatCards(StatCards)
	// ShowBanner and ResetForm carry the context of the cycle that caused
	// them so hosts can route them back to the originating user.
	ShowBanner(ctx context.Context, b Banner)
	ResetForm(ctx context.Context, d FormDefaults)
}

// Confirmer is the synchronous yes/no gate in front of deletes.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool {
	return f(ctx, prompt)
}

// Always confirms. Hosts whose UI asked before the request use it.
var Always Confirmer = ConfirmFunc(func(context.Context, string) bool { return true })
