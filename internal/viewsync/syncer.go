// Package viewsync keeps a rendered ledger view in step with the remote
// store. Every mutation goes validate, submit, refetch, rerender; the view
// never edits its own copy of the data.
package viewsync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"cashflow/internal/core"
	"cashflow/internal/format"
	"cashflow/internal/ledger"
	"cashflow/internal/log"
)

// ErrNotConfirmed is returned by OnDelete when the user declines.
var ErrNotConfirmed = errors.New("viewsync: delete not confirmed")

// Phase of the most recent refresh cycle.
type Phase int

const (
	Idle Phase = iota
	Loading
	Rendered
	Failed
)

func (p Phase) String() string {
	switch p {
	case Loading:
		return "loading"
	case Rendered:
		return "rendered"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

// State is a snapshot of the view. It is replaced whole, never patched.
type State struct {
	Phase     Phase
	Visible   []core.Transaction
	All       []core.Transaction
	Totals    core.Totals
	FetchedAt time.Time
}

// TransactionClient is the store boundary.
type TransactionClient interface {
	List(ctx context.Context) ([]core.Transaction, error)
	Create(ctx context.Context, t core.Transaction) error
	UpdateStatus(ctx context.Context, name string, status bool) error
	Delete(ctx context.Context, name string) error
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Syncer) { s.logger = l.WithComponent(log.ComponentViewSync) }
}

// WithStateListener registers fn to run after every state replacement.
func WithStateListener(fn func(State)) Option {
	return func(s *Syncer) { s.listeners = append(s.listeners, fn) }
}

// Syncer is the orchestrator. Cycles may run concurrently; the last
// refresh to finish decides what is shown.
type Syncer struct {
	client    TransactionClient
	renderer  Renderer
	cfg       Config
	validator core.Validator
	logger    *log.Logger
	listeners []func(State)

	mu    sync.RWMutex
	state State

	// renderMu keeps one refresh's renderer calls together.
	renderMu sync.Mutex

	loadMu   sync.Mutex
	inFlight int
}

// New builds a Syncer in the Idle phase.
func New(client TransactionClient, renderer Renderer, cfg Config, opts ...Option) (*Syncer, error) {
	if cfg.WindowDays < 0 {
		return nil, fmt.Errorf("viewsync: window of %d days must not be negative", cfg.WindowDays)
	}
	cfg = cfg.withDefaults()
	s := &Syncer{
		client:    client,
		renderer:  renderer,
		cfg:       cfg,
		validator: core.Validator{MaxDate: cfg.MaxDate},
		logger:    log.Discard(),
		state:     State{Phase: Idle, Visible: []core.Transaction{}, All: []core.Transaction{}},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// State returns the current snapshot.
func (s *Syncer) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Config returns the configuration the Syncer runs with.
func (s *Syncer) Config() Config {
	return s.cfg
}

// Today is the current calendar day in the configured zone.
func (s *Syncer) Today() core.Date {
	return core.NewDate(s.cfg.Now().In(s.cfg.Location))
}

// Refresh fetches the full set, renders the windowed rows in fetch order
// and recomputes totals over everything fetched.
func (s *Syncer) Refresh(ctx context.Context) error {
	s.loading(true)
	defer s.loading(false)

	s.mu.Lock()
	s.state.Phase = Loading
	s.mu.Unlock()

	all, err := s.client.List(ctx)
	now := s.cfg.Now()
	if err != nil {
		s.logger.WarnContext(ctx, "Refresh failed",
			log.FieldOperation, log.OpRefresh,
			log.FieldPhase, Failed.String(),
			log.FieldError, err)
		s.renderMu.Lock()
		s.renderer.ClearRows()
		s.renderer.UpdateStatCards(s.cards(core.Totals{}))
		s.replace(State{Phase: Failed, Visible: []core.Transaction{}, All: []core.Transaction{}, FetchedAt: now})
		s.renderMu.Unlock()
		s.banner(ctx, BannerError, MsgLoadFailed)
		return err
	}

	cutoff := core.Cutoff(now.In(s.cfg.Location), s.cfg.WindowDays)
	visible := core.Window(all, cutoff)
	totals := core.Aggregate(all)

	s.renderMu.Lock()
	s.renderer.ClearRows()
	s.renderer.SetTableVisible(len(all) > 0)
	for _, t := range visible {
		s.renderer.RenderRow(s.row(t))
	}
	s.renderer.UpdateStatCards(s.cards(totals))
	s.replace(State{Phase: Rendered, Visible: visible, All: all, Totals: totals, FetchedAt: now})
	s.renderMu.Unlock()

	s.logger.DebugContext(ctx, "Refreshed",
		log.FieldPhase, Rendered.String(),
		log.FieldCount, len(all),
		log.FieldVisible, len(visible))
	return nil
}

// OnSubmit runs the create cycle for raw form values. Validation failures
// never reach the store.
func (s *Syncer) OnSubmit(ctx context.Context, f Form) error {
	cand, err := s.validator.Validate(f.Name, f.Date, f.Amount)
	if err != nil {
		s.logger.DebugContext(ctx, "Create rejected", log.FieldOperation, log.OpValidate, log.FieldError, err)
		var ve *core.ValidationError
		if errors.As(err, &ve) {
			s.banner(ctx, BannerError, ve.Message)
		}
		return err
	}

	typ := core.Type(f.Type)
	if typ == "" {
		typ = core.Expense
	}
	t := core.Transaction{
		Name:     cand.Name,
		Date:     cand.Date,
		Amount:   core.NewAmount(cand.Amount),
		Type:     typ,
		Category: f.Category,
		Comment:  f.Comment,
		Status:   core.Status(f.Status),
	}

	if err := s.client.Create(ctx, t); err != nil {
		msg := MsgCreateFailed
		var se *ledger.ServerError
		if errors.As(err, &se) && se.Message != "" {
			msg = se.Message
		}
		s.banner(ctx, BannerError, msg)
		return err
	}

	s.renderer.ResetForm(ctx, FormDefaults{Date: s.Today(), Type: core.Expense})
	_ = s.Refresh(ctx)
	s.banner(ctx, BannerSuccess, MsgCreated)
	return nil
}

// OnToggle sets the status of name and refreshes whether or not the store
// accepted it, so the checkbox always ends up showing stored state.
func (s *Syncer) OnToggle(ctx context.Context, name string, checked bool) error {
	err := s.client.UpdateStatus(ctx, name, checked)
	if err != nil {
		s.banner(ctx, BannerError, MsgToggleFailed)
	}
	_ = s.Refresh(ctx)
	return err
}

// OnDelete asks c before deleting name. A declined prompt does nothing at
// all. Otherwise a refresh follows regardless of the outcome.
func (s *Syncer) OnDelete(ctx context.Context, name string, c Confirmer) error {
	if !c.Confirm(ctx, MsgConfirmDelete) {
		return ErrNotConfirmed
	}

	err := s.client.Delete(ctx, name)
	if err != nil {
		s.banner(ctx, BannerError, MsgDeleteFailed)
	}
	_ = s.Refresh(ctx)
	if err == nil {
		s.banner(ctx, BannerSuccess, MsgDeleted)
	}
	return err
}

func (s *Syncer) replace(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	for _, fn := range s.listeners {
		fn(st)
	}
}

func (s *Syncer) loading(on bool) {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	if on {
		s.inFlight++
		if s.inFlight == 1 {
			s.renderer.SetLoading(true)
		}
		return
	}
	s.inFlight--
	if s.inFlight == 0 {
		s.renderer.SetLoading(false)
	}
}

func (s *Syncer) banner(ctx context.Context, kind BannerKind, msg string) {
	d := s.cfg.ErrorDuration
	if kind == BannerSuccess {
		d = s.cfg.SuccessDuration
	}
	s.renderer.ShowBanner(ctx, Banner{Kind: kind, Message: msg, Duration: d})
}

func (s *Syncer) row(t core.Transaction) Row {
	return Row{
		Transaction: t,
		Date:        format.Date(t.Date),
		Amount:      format.Real(t.Amount),
		Type:        format.Type(t.Type),
		TypeClass:   format.TypeClass(t.Type),
		Category:    s.cfg.Categories.Label(t.Category),
	}
}

func (s *Syncer) cards(t core.Totals) StatCards {
	return StatCards{
		Totals:  t,
		Income:  format.Real(core.NewAmount(t.Income)),
		Expense: format.Real(core.NewAmount(t.Expense)),
		Balance: format.Real(core.NewAmount(t.Balance)),
	}
}
