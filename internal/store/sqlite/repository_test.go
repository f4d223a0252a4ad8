package sqlite

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cashflow/internal/core"
	"cashflow/internal/log"
	"cashflow/internal/store"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "data", "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func one(name string) core.Transaction {
	return core.Transaction{Name: name, Date: "2024-01-05", Amount: core.NewAmount(decimal.NewFromInt(1)), Type: core.Expense}
}

func TestRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	in := core.Transaction{
		Name:     "Rent",
		Date:     "2024-01-05",
		Amount:   core.NewAmount(decimal.RequireFromString("1500.25")),
		Type:     core.Expense,
		Category: "expenses",
		Comment:  "janeiro",
		Status:   true,
	}
	require.NoError(t, repo.Append(ctx, in))
	require.NoError(t, repo.Append(ctx, core.Transaction{Name: "Sale", Date: "2024-01-06", Amount: core.NewAmount(decimal.NewFromInt(20)), Type: core.Income}))

	got, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)

	first := got[0]
	assert.Equal(t, "Rent", first.Name)
	assert.Equal(t, core.Date("2024-01-05"), first.Date)
	assert.Equal(t, "expenses", first.Category)
	assert.Equal(t, "janeiro", first.Comment)
	assert.True(t, bool(first.Status))
	assert.True(t, first.Amount.Decimal.Equal(decimal.RequireFromString("1500.25")), "amount = %s", first.Amount.Decimal)

	assert.Equal(t, "Sale", got[1].Name)
	assert.False(t, bool(got[1].Status))
}

func TestRepository_NameAddressedMutations(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	for _, n := range []string{"dup", "dup", "other"} {
		require.NoError(t, repo.Append(ctx, one(n)))
	}

	require.NoError(t, repo.SetStatus(ctx, "dup", true))
	got, _ := repo.List(ctx)
	require.Len(t, got, 3)
	assert.True(t, bool(got[0].Status))
	assert.True(t, bool(got[1].Status))
	assert.False(t, bool(got[2].Status))

	require.NoError(t, repo.Delete(ctx, "dup"))
	got, _ = repo.List(ctx)
	require.Len(t, got, 1)
	assert.Equal(t, "other", got[0].Name)

	assert.ErrorIs(t, repo.Delete(ctx, "dup"), store.ErrNotFound)
	assert.ErrorIs(t, repo.SetStatus(ctx, "dup", false), store.ErrNotFound)
}

func TestRepository_RejectsInvalid(t *testing.T) {
	repo := newTestRepo(t)
	bad := one("x")
	bad.Type = "transfer"

	var ie *store.InputError
	assert.ErrorAs(t, repo.Append(context.Background(), bad), &ie)
}

func TestRunMigrations_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.db")
	require.NoError(t, RunMigrations(path), "first run")
	require.NoError(t, RunMigrations(path), "second run")
}

func TestRepository_LogsMutations(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Level: slog.LevelDebug, Component: log.ComponentStore, Output: &buf})
	repo, err := NewRepository(filepath.Join(t.TempDir(), "log.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	ctx := context.Background()
	require.NoError(t, repo.Append(ctx, one("Rent")))
	require.NoError(t, repo.SetStatus(ctx, "Rent", true))

	out := buf.String()
	assert.Contains(t, out, "operation=create")
	assert.Contains(t, out, "transaction_name=Rent")
	assert.Contains(t, out, "transaction_type=expense")
	assert.Contains(t, out, "transaction_status=true")
}
