package viewsync

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cashflow/internal/core"
	"cashflow/internal/ledger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	mu sync.Mutex

	rows    []core.Transaction
	listErr error

	createErr error
	statusErr error
	deleteErr error

	lists   int
	created []core.Transaction
	toggled []string
	deleted []string
}

func (f *fakeClient) List(context.Context) ([]core.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]core.Transaction(nil), f.rows...), nil
}

func (f *fakeClient) Create(_ context.Context, t core.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, t)
	f.rows = append(f.rows, t)
	return nil
}

func (f *fakeClient) UpdateStatus(_ context.Context, name string, status bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.toggled = append(f.toggled, name)
	if f.statusErr != nil {
		return f.statusErr
	}
	for i := range f.rows {
		if f.rows[i].Name == name {
			f.rows[i].Status = core.Status(status)
		}
	}
	return nil
}

func (f *fakeClient) Delete(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, name)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	kept := f.rows[:0]
	for _, t := range f.rows {
		if t.Name != name {
			kept = append(kept, t)
		}
	}
	f.rows = kept
	return nil
}

type recorder struct {
	mu       sync.Mutex
	rows     []Row
	visible  *bool
	cards    StatCards
	banners  []Banner
	resets   []FormDefaults
	loading  []bool
	clears   int
	cardSets int
}

func (r *recorder) SetLoading(on bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loading = append(r.loading, on)
}

func (r *recorder) ClearRows() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clears++
	r.rows = nil
}

func (r *recorder) RenderRow(row Row) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, row)
}

func (r *recorder) SetTableVisible(v bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.visible = &v
}

func (r *recorder) UpdateStatCards(c StatCards) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cardSets++
	r.cards = c
}

func (r *recorder) ShowBanner(_ context.Context, b Banner) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.banners = append(r.banners, b)
}

func (r *recorder) ResetForm(_ context.Context, d FormDefaults) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resets = append(r.resets, d)
}

func (r *recorder) lastBanner(t *testing.T) Banner {
	t.Helper()
	require.NotEmpty(t, r.banners)
	return r.banners[len(r.banners)-1]
}

var today = time.Date(2024, 3, 1, 15, 30, 0, 0, time.UTC)

func tx(name string, daysAgo int, amount int64, typ core.Type) core.Transaction {
	return core.Transaction{
		Name:   name,
		Date:   core.NewDate(today.AddDate(0, 0, -daysAgo)),
		Amount: core.NewAmount(decimal.NewFromInt(amount)),
		Type:   typ,
	}
}

func newSyncer(t *testing.T, c *fakeClient, r *recorder) *Syncer {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Now = func() time.Time { return today }
	cfg.Location = time.UTC
	s, err := New(c, r, cfg)
	require.NoError(t, err)
	return s
}

func names(rows []Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Transaction.Name
	}
	return out
}

func TestRefresh_WindowsRowsButNotTotals(t *testing.T) {
	c := &fakeClient{rows: []core.Transaction{
		tx("old", 120, 1000, core.Income),
		tx("edge", 90, 200, core.Expense),
		tx("recent", 1, 50, core.Income),
	}}
	r := &recorder{}
	s := newSyncer(t, c, r)

	require.NoError(t, s.Refresh(context.Background()))

	assert.Equal(t, []string{"edge", "recent"}, names(r.rows))
	require.NotNil(t, r.visible)
	assert.True(t, *r.visible)
	assert.True(t, r.cards.Totals.Income.Equal(decimal.NewFromInt(1050)))
	assert.True(t, r.cards.Totals.Expense.Equal(decimal.NewFromInt(200)))
	assert.True(t, r.cards.Totals.Balance.Equal(decimal.NewFromInt(850)))
	assert.Equal(t, "R$ 1.050,00", r.cards.Income)
	assert.Equal(t, []bool{true, false}, r.loading)

	st := s.State()
	assert.Equal(t, Rendered, st.Phase)
	assert.Len(t, st.All, 3)
	assert.Len(t, st.Visible, 2)
}

func TestRefresh_KeepsFetchOrder(t *testing.T) {
	c := &fakeClient{rows: []core.Transaction{
		tx("b", 3, 1, core.Expense),
		tx("a", 10, 1, core.Expense),
		tx("c", 1, 1, core.Expense),
	}}
	r := &recorder{}
	require.NoError(t, newSyncer(t, c, r).Refresh(context.Background()))
	assert.Equal(t, []string{"b", "a", "c"}, names(r.rows))
}

func TestRefresh_EmptyHidesTable(t *testing.T) {
	r := &recorder{}
	s := newSyncer(t, &fakeClient{}, r)
	require.NoError(t, s.Refresh(context.Background()))

	require.NotNil(t, r.visible)
	assert.False(t, *r.visible)
	assert.Empty(t, r.rows)
	assert.True(t, r.cards.Totals.Balance.IsZero())
	assert.Equal(t, "R$ 0,00", r.cards.Balance)
}

func TestRefresh_FailureZeroesTotals(t *testing.T) {
	c := &fakeClient{rows: []core.Transaction{tx("x", 1, 10, core.Income)}}
	r := &recorder{}
	s := newSyncer(t, c, r)
	require.NoError(t, s.Refresh(context.Background()))
	require.Len(t, r.rows, 1)

	c.listErr = &ledger.NetworkError{Op: "list", Err: errors.New("connection refused")}
	err := s.Refresh(context.Background())
	require.Error(t, err)

	assert.Empty(t, r.rows)
	assert.True(t, r.cards.Totals.Income.IsZero())
	assert.True(t, r.cards.Totals.Balance.IsZero())
	b := r.lastBanner(t)
	assert.Equal(t, BannerError, b.Kind)
	assert.Equal(t, MsgLoadFailed, b.Message)
	assert.Equal(t, 8*time.Second, b.Duration)

	st := s.State()
	assert.Equal(t, Failed, st.Phase)
	assert.Empty(t, st.All)
	assert.Equal(t, []bool{true, false, true, false}, r.loading)
}

func TestOnSubmit_CreatesAndRefreshes(t *testing.T) {
	c := &fakeClient{}
	r := &recorder{}
	s := newSyncer(t, c, r)

	err := s.OnSubmit(context.Background(), Form{
		Name:   "  Rent ",
		Date:   "2024-01-05",
		Amount: "1500",
		Type:   "expense",
	})
	require.NoError(t, err)

	require.Len(t, c.created, 1)
	assert.Equal(t, "Rent", c.created[0].Name)
	assert.Equal(t, []FormDefaults{{Date: "2024-03-01", Type: core.Expense}}, r.resets)

	require.Len(t, r.rows, 1)
	row := r.rows[0]
	assert.Equal(t, "Rent", row.Transaction.Name)
	assert.Equal(t, "R$ 1.500,00", row.Amount)
	assert.Equal(t, "Saída", row.Type)
	assert.Equal(t, "05/01/2024", row.Date)

	b := r.lastBanner(t)
	assert.Equal(t, BannerSuccess, b.Kind)
	assert.Equal(t, MsgCreated, b.Message)
	assert.Equal(t, 3*time.Second, b.Duration)
}

func TestOnSubmit_DefaultsTypeToExpense(t *testing.T) {
	c := &fakeClient{}
	s := newSyncer(t, c, &recorder{})
	require.NoError(t, s.OnSubmit(context.Background(), Form{Name: "x", Date: "2024-02-01", Amount: "1"}))
	require.Len(t, c.created, 1)
	assert.Equal(t, core.Expense, c.created[0].Type)
}

func TestOnSubmit_ValidationNeverCallsStore(t *testing.T) {
	tests := []struct {
		name string
		form Form
		want error
	}{
		{"future date", Form{Name: "Rent", Date: "2101-01-01", Amount: "10"}, core.ErrDateOutOfRange},
		{"blank name", Form{Name: "   ", Date: "2024-01-01", Amount: "10"}, core.ErrEmptyName},
		{"bad amount", Form{Name: "Rent", Date: "2024-01-01", Amount: "abc"}, core.ErrNotANumber},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &fakeClient{}
			r := &recorder{}
			s := newSyncer(t, c, r)

			err := s.OnSubmit(context.Background(), tt.form)
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, c.created)
			assert.Zero(t, c.lists)
			assert.Empty(t, r.resets)
			assert.Equal(t, tt.want.(*core.ValidationError).Message, r.lastBanner(t).Message)
		})
	}
}

func TestOnSubmit_ServerMessageShownVerbatim(t *testing.T) {
	c := &fakeClient{createErr: &ledger.ServerError{Op: "create", Status: 400, Message: "Nome duplicado"}}
	r := &recorder{}
	s := newSyncer(t, c, r)

	err := s.OnSubmit(context.Background(), Form{Name: "Rent", Date: "2024-01-05", Amount: "1"})
	require.Error(t, err)
	assert.Equal(t, "Nome duplicado", r.lastBanner(t).Message)
	assert.Zero(t, c.lists)
	assert.Empty(t, r.resets)
	assert.Equal(t, Idle, s.State().Phase)
}

func TestOnSubmit_NetworkErrorShowsGenericMessage(t *testing.T) {
	c := &fakeClient{createErr: &ledger.NetworkError{Op: "create", Err: errors.New("timeout")}}
	r := &recorder{}
	s := newSyncer(t, c, r)

	require.Error(t, s.OnSubmit(context.Background(), Form{Name: "Rent", Date: "2024-01-05", Amount: "1"}))
	assert.Equal(t, MsgCreateFailed, r.lastBanner(t).Message)
}

func TestOnToggle_RefreshesEvenOnFailure(t *testing.T) {
	c := &fakeClient{rows: []core.Transaction{tx("Rent", 1, 10, core.Expense)}}
	r := &recorder{}
	s := newSyncer(t, c, r)

	require.NoError(t, s.OnToggle(context.Background(), "Rent", true))
	assert.Equal(t, 1, c.lists)
	require.Len(t, r.rows, 1)
	assert.True(t, bool(r.rows[0].Transaction.Status))

	c.statusErr = &ledger.NetworkError{Op: "update_status", Err: errors.New("boom")}
	require.Error(t, s.OnToggle(context.Background(), "Rent", false))
	assert.Equal(t, 2, c.lists)
	assert.Equal(t, MsgToggleFailed, r.lastBanner(t).Message)
	// stored value wins over the click
	assert.True(t, bool(r.rows[0].Transaction.Status))
}

func TestOnDelete_Declined(t *testing.T) {
	c := &fakeClient{rows: []core.Transaction{tx("Rent", 1, 10, core.Expense)}}
	r := &recorder{}
	s := newSyncer(t, c, r)

	var prompt string
	err := s.OnDelete(context.Background(), "Rent", ConfirmFunc(func(_ context.Context, p string) bool {
		prompt = p
		return false
	}))
	assert.ErrorIs(t, err, ErrNotConfirmed)
	assert.Equal(t, MsgConfirmDelete, prompt)
	assert.Empty(t, c.deleted)
	assert.Zero(t, c.lists)
	assert.Empty(t, r.banners)
}

func TestOnDelete_Confirmed(t *testing.T) {
	c := &fakeClient{rows: []core.Transaction{tx("Rent", 1, 10, core.Expense), tx("Sale", 2, 5, core.Income)}}
	r := &recorder{}
	s := newSyncer(t, c, r)

	require.NoError(t, s.OnDelete(context.Background(), "Rent", Always))
	assert.Equal(t, []string{"Rent"}, c.deleted)
	assert.Equal(t, []string{"Sale"}, names(r.rows))
	assert.Equal(t, MsgDeleted, r.lastBanner(t).Message)
}

func TestOnDelete_FailureStillRefreshes(t *testing.T) {
	c := &fakeClient{
		rows:      []core.Transaction{tx("Rent", 1, 10, core.Expense)},
		deleteErr: &ledger.NetworkError{Op: "delete", Err: errors.New("boom")},
	}
	r := &recorder{}
	s := newSyncer(t, c, r)

	require.Error(t, s.OnDelete(context.Background(), "Rent", Always))
	assert.Equal(t, 1, c.lists)
	for _, b := range r.banners {
		assert.NotEqual(t, MsgDeleted, b.Message)
	}
	assert.Equal(t, MsgDeleteFailed, r.banners[0].Message)
}

func TestRow_UnknownCategoryFallsBack(t *testing.T) {
	t1 := tx("Tip", 1, 10, core.Income)
	t1.Category = "misc_x"
	t2 := tx("Wage", 1, 10, core.Expense)
	t2.Category = "salaries"
	r := &recorder{}
	require.NoError(t, newSyncer(t, &fakeClient{rows: []core.Transaction{t1, t2}}, r).Refresh(context.Background()))

	require.Len(t, r.rows, 2)
	assert.Equal(t, "misc_x", r.rows[0].Category)
	assert.Equal(t, "Entrada", r.rows[0].Type)
	assert.Equal(t, "cell-income", r.rows[0].TypeClass)
	assert.Equal(t, "Salários", r.rows[1].Category)
}

func TestStateListener(t *testing.T) {
	var phases []Phase
	cfg := DefaultConfig()
	cfg.Now = func() time.Time { return today }
	s, err := New(&fakeClient{}, &recorder{}, cfg, WithStateListener(func(st State) {
		phases = append(phases, st.Phase)
	}))
	require.NoError(t, err)
	require.NoError(t, s.Refresh(context.Background()))
	assert.Equal(t, []Phase{Rendered}, phases)
}

func TestConcurrentRefreshesDoNotInterleave(t *testing.T) {
	rows := make([]core.Transaction, 20)
	for i := range rows {
		rows[i] = tx("row", 1, 1, core.Income)
	}
	c := &fakeClient{rows: rows}
	r := &recorder{}
	s := newSyncer(t, c, r)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Refresh(context.Background())
		}()
	}
	wg.Wait()

	assert.Len(t, r.rows, 20)
	assert.Equal(t, false, r.loading[len(r.loading)-1])
	assert.Equal(t, Rendered, s.State().Phase)
}

func TestNewWindowDays(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WindowDays = 0
	s, err := New(&fakeClient{}, &recorder{}, cfg)
	require.NoError(t, err)
	assert.Equal(t, 90, s.Config().WindowDays, "zero takes the default window")

	cfg.WindowDays = 7
	s, err = New(&fakeClient{}, &recorder{}, cfg)
	require.NoError(t, err)
	assert.Equal(t, 7, s.Config().WindowDays)

	cfg.WindowDays = -1
	_, err = New(&fakeClient{}, &recorder{}, cfg)
	assert.ErrorContains(t, err, "window")
}
