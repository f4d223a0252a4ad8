package http

import (
	"context"
	"sync"

	"cashflow/internal/viewsync"
)

// Page is the server-side view. It realizes viewsync.Renderer by keeping
// presentation state that templates render on demand.
//
// Rows are staged between ClearRows and UpdateStatCards so a reader never
// sees a half-rendered table.
type Page struct {
	mu      sync.RWMutex
	loading bool
	visible bool
	rows    []viewsync.Row
	cards   viewsync.StatCards

	staging []viewsync.Row
	staged  bool

	// broadcast receives banners raised outside a request, e.g. a refresh
	// triggered by a ledger event.
	broadcast func(viewsync.Banner)
}

// PageView is an immutable copy of the page for templates.
type PageView struct {
	Loading bool
	Visible bool
	Rows    []viewsync.Row
	Cards   viewsync.StatCards
}

// NewPage returns an empty page with the table hidden.
func NewPage(broadcast func(viewsync.Banner)) *Page {
	return &Page{rows: []viewsync.Row{}, broadcast: broadcast}
}

// SetLoading marks a refresh in flight. Only partials rendered meanwhile
// (another browser fetching during an event-driven refresh) show it; a
// browser's own requests light the indicator through htmx-request.
func (p *Page) SetLoading(on bool) {
	p.mu.Lock()
	p.loading = on
	p.mu.Unlock()
}

func (p *Page) ClearRows() {
	p.mu.Lock()
	p.staging = []viewsync.Row{}
	p.staged = true
	p.mu.Unlock()
}

func (p *Page) RenderRow(r viewsync.Row) {
	p.mu.Lock()
	if !p.staged {
		p.staging = append([]viewsync.Row{}, p.rows...)
		p.staged = true
	}
	p.staging = append(p.staging, r)
	p.mu.Unlock()
}

func (p *Page) SetTableVisible(visible bool) {
	p.mu.Lock()
	p.visible = visible
	p.mu.Unlock()
}

// UpdateStatCards closes a refresh: staged rows become the table.
func (p *Page) UpdateStatCards(c viewsync.StatCards) {
	p.mu.Lock()
	p.cards = c
	if p.staged {
		p.rows = p.staging
		p.staging = nil
		p.staged = false
	}
	p.mu.Unlock()
}

// ShowBanner routes b to the request that caused it, or to every browser
// when no request is waiting.
func (p *Page) ShowBanner(ctx context.Context, b viewsync.Banner) {
	if o := outcomeFrom(ctx); o != nil {
		o.addBanner(b)
		return
	}
	if p.broadcast != nil {
		p.broadcast(b)
	}
}

func (p *Page) ResetForm(ctx context.Context, d viewsync.FormDefaults) {
	if o := outcomeFrom(ctx); o != nil {
		o.setReset(d)
	}
}

// View snapshots the page.
func (p *Page) View() PageView {
	p.mu.RLock()
	defer p.mu.RUnlock()
	rows := make([]viewsync.Row, len(p.rows))
	copy(rows, p.rows)
	return PageView{
		Loading: p.loading,
		Visible: p.visible,
		Rows:    rows,
		Cards:   p.cards,
	}
}

// outcome collects what one request's cycle wants to tell its browser.
type outcome struct {
	mu      sync.Mutex
	banners []viewsync.Banner
	reset   *viewsync.FormDefaults
}

type outcomeKey struct{}

func withOutcome(ctx context.Context) (context.Context, *outcome) {
	o := &outcome{}
	return context.WithValue(ctx, outcomeKey{}, o), o
}

func outcomeFrom(ctx context.Context) *outcome {
	o, _ := ctx.Value(outcomeKey{}).(*outcome)
	return o
}

func (o *outcome) addBanner(b viewsync.Banner) {
	o.mu.Lock()
	o.banners = append(o.banners, b)
	o.mu.Unlock()
}

func (o *outcome) setReset(d viewsync.FormDefaults) {
	o.mu.Lock()
	o.reset = &d
	o.mu.Unlock()
}

func (o *outcome) snapshot() ([]viewsync.Banner, *viewsync.FormDefaults) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]viewsync.Banner(nil), o.banners...), o.reset
}
