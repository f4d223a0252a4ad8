// Package sheets is a Store backed by one Google Sheets tab.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"cashflow/internal/cache"
	"cashflow/internal/core"
	"cashflow/internal/log"
	"cashflow/internal/store"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

var _ store.Store = (*Client)(nil)

const rowsKey = "rows"

// Config selects the spreadsheet and credentials.
type Config struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountJSON string
	ServiceAccountFile string
	CacheTTL           time.Duration
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logger        *log.Logger

	// rows is a read-through cache of the parsed tab. Every write clears it.
	rows *cache.LRUCache[[]parsedRow]

	// writeMu serializes find-then-mutate sequences.
	writeMu sync.Mutex

	// sheetID is resolved on first delete. Failed lookups are retried.
	sheetIDMu    sync.Mutex
	sheetID      int64
	sheetIDKnown bool
}

// New creates a client authenticated with a service account.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	creds, err := credentials(cfg)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return newClient(svc, cfg, logger), nil
}

func newClient(svc *gsheet.Service, cfg Config, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.Discard()
	}
	return &Client{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     cfg.SheetName,
		logger:        logger.WithComponent(log.ComponentSheets),
		rows:          cache.NewLRUCache[[]parsedRow](1, cfg.CacheTTL),
	}
}

func credentials(cfg Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.ServiceAccountJSON) != "":
		return []byte(cfg.ServiceAccountJSON), nil
	case strings.TrimSpace(cfg.ServiceAccountFile) != "":
		b, err := os.ReadFile(cfg.ServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials")
	}
}

// Cache exposes the row cache so a cache.Manager can sweep it.
func (c *Client) Cache() cache.Cleaner {
	return c.rows
}

func (c *Client) rangeOf(cols string) string {
	return fmt.Sprintf("%s!%s", c.sheetName, cols)
}

func (c *Client) List(ctx context.Context) ([]core.Transaction, error) {
	rows, err := c.readRows(ctx, true)
	if err != nil {
		return nil, err
	}
	out := make([]core.Transaction, len(rows))
	for i, r := range rows {
		out[i] = r.Tx
	}
	return out, nil
}

func (c *Client) readRows(ctx context.Context, useCache bool) ([]parsedRow, error) {
	if useCache {
		if rows, ok := c.rows.Get(rowsKey); ok {
			return rows, nil
		}
	}
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.rangeOf("A:G")).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", c.rangeOf("A:G"), err)
	}
	rows := parseRows(resp.Values)
	c.rows.Set(rowsKey, rows)
	return rows, nil
}

func (c *Client) Append(ctx context.Context, t core.Transaction) error {
	if err := store.Check(t); err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	defer c.rows.Clear()

	vr := &gsheet.ValueRange{Values: [][]any{toRow(t)}}
	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, c.rangeOf("A:G"), vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to %s: %w", c.sheetName, err)
	}
	c.logger.InfoContext(ctx, "Transaction appended", log.FieldName, t.Name)
	return nil
}

func (c *Client) SetStatus(ctx context.Context, name string, status bool) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	defer c.rows.Clear()

	rows, err := c.readRows(ctx, false)
	if err != nil {
		return err
	}
	targets := matchingRows(rows, name)
	if len(targets) == 0 {
		return store.ErrNotFound
	}

	wire := core.Status(status).Wire()
	data := make([]*gsheet.ValueRange, 0, len(targets))
	for _, row := range targets {
		data = append(data, &gsheet.ValueRange{
			Range:  c.rangeOf(fmt.Sprintf("G%d", row)),
			Values: [][]any{{wire}},
		})
	}
	_, err = c.svc.Spreadsheets.Values.BatchUpdate(c.spreadsheetID, &gsheet.BatchUpdateValuesRequest{
		ValueInputOption: "RAW",
		Data:             data,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update status in %s: %w", c.sheetName, err)
	}
	c.logger.InfoContext(ctx, "Transaction status updated",
		log.FieldName, name,
		log.FieldStatus, status,
		log.FieldCount, len(targets))
	return nil
}

func (c *Client) Delete(ctx context.Context, name string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	defer c.rows.Clear()

	rows, err := c.readRows(ctx, false)
	if err != nil {
		return err
	}
	targets := matchingRows(rows, name)
	if len(targets) == 0 {
		return store.ErrNotFound
	}

	sheetID, err := c.lookupSheetID(ctx)
	if err != nil {
		return err
	}
	reqs := make([]*gsheet.Request, 0, len(targets))
	for _, row := range targets {
		reqs = append(reqs, &gsheet.Request{
			DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: &gsheet.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(row - 1),
					EndIndex:   int64(row),
				},
			},
		})
	}
	_, err = c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, &gsheet.BatchUpdateSpreadsheetRequest{Requests: reqs}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("delete rows in %s: %w", c.sheetName, err)
	}
	c.logger.InfoContext(ctx, "Transactions deleted", log.FieldName, name, log.FieldCount, len(targets))
	return nil
}

func (c *Client) lookupSheetID(ctx context.Context) (int64, error) {
	c.sheetIDMu.Lock()
	defer c.sheetIDMu.Unlock()
	if c.sheetIDKnown {
		return c.sheetID, nil
	}

	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == c.sheetName {
			c.sheetID = sh.Properties.SheetId
			c.sheetIDKnown = true
			return c.sheetID, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found", c.sheetName)
}

// Ping reads the header row.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.rangeOf("A1:G1")).Context(ctx).Do()
	return err
}

// EnsureHeader writes the column names into row 1 when it is empty.
func (c *Client) EnsureHeader(ctx context.Context) error {
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.rangeOf("A1:G1")).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
		return nil
	}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, c.rangeOf("A1:G1"),
		&gsheet.ValueRange{Values: [][]any{header}}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	return nil
}
