// Package sqlite is the SQLite-backed Store.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"cashflow/internal/core"
	"cashflow/internal/log"
	"cashflow/internal/store"

	_ "modernc.org/sqlite"
)

var _ store.Store = (*Repository)(nil)

type Repository struct {
	db     *sql.DB
	logger *log.Logger
}

// NewRepository opens dbPath, creating its directory, and migrates it.
func NewRepository(dbPath string, logger *log.Logger) (*Repository, error) {
	if logger == nil {
		logger = log.Discard()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite serializes writers anyway; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db, logger: logger.WithComponent(log.ComponentStore)}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

const listSQL = `SELECT name, t_date, amount, t_type, category, comment, t_status
FROM transactions ORDER BY id`

func (r *Repository) List(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, listSQL)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := []core.Transaction{}
	for rows.Next() {
		var (
			t      core.Transaction
			date   string
			amount string
			typ    string
			status int64
		)
		if err := rows.Scan(&t.Name, &date, &amount, &typ, &t.Category, &t.Comment, &status); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Date = core.Date(date)
		t.Amount, _ = core.ParseAmount(amount)
		t.Type = core.Type(typ)
		t.Status = core.Status(status == 1)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

const insertSQL = `INSERT INTO transactions (name, t_date, amount, t_type, category, comment, t_status)
VALUES (?, ?, ?, ?, ?, ?, ?)`

func (r *Repository) Append(ctx context.Context, t core.Transaction) error {
	if err := store.Check(t); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, insertSQL,
		t.Name, t.Date.String(), t.Amount.Decimal.String(), string(t.Type),
		t.Category, t.Comment, statusInt(bool(t.Status)))
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	id, _ := res.LastInsertId()
	fields := log.NewFields().
		WithOperation(log.OpCreate).
		WithTransaction(t.Name, t.Date.String(), t.Amount.Decimal.String(), string(t.Type))
	r.logger.InfoContext(ctx, "Transaction saved", append(fields.ToSlice(), "id", id)...)
	return nil
}

func (r *Repository) SetStatus(ctx context.Context, name string, status bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE transactions SET t_status = ? WHERE name = ?`, statusInt(status), name)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if err := affected(res); err != nil {
		return err
	}
	r.logger.DebugContext(ctx, "Transaction status updated", log.FieldName, name, log.FieldStatus, status)
	return nil
}

func (r *Repository) Delete(ctx context.Context, name string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return affected(res)
}

func affected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func statusInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
