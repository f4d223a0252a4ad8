// Package ledger is the HTTP client for the remote transaction store.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cashflow/internal/core"
	"cashflow/internal/log"
)

// Store paths.
const (
	PathList   = "/transactions"
	PathCreate = "/transaction"
	PathStatus = "/transaction/status"
	PathDelete = "/transaction"
)

// maxBody caps how much of a response is read.
const maxBody = 8 << 20

// Client talks to the store. Each call is a single request with no retry.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client, e.g. to set a timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger used for failure diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l.WithComponent(log.ComponentLedger) }
}

// NewClient returns a client for the store rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
		logger:  log.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type listResponse struct {
	Transactions []core.Transaction `json:"transactions"`
}

type statusRequest struct {
	Name   string `json:"name"`
	Status int    `json:"t_status"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// List fetches every transaction in store order. Amount and status wire
// variants are normalized while decoding.
func (c *Client) List(ctx context.Context) ([]core.Transaction, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+PathList, nil)
	if err != nil {
		return nil, &NetworkError{Op: log.OpList, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	status, body, err := c.do(req)
	if err != nil {
		return nil, c.fail(ctx, &NetworkError{Op: log.OpList, Err: err})
	}
	if !ok(status) {
		return nil, c.fail(ctx, &NetworkError{Op: log.OpList, Status: status, Err: errors.New(http.StatusText(status))})
	}

	var payload listResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, c.fail(ctx, &NetworkError{Op: log.OpList, Status: status, Err: fmt.Errorf("decode body: %w", err)})
	}
	if payload.Transactions == nil {
		return []core.Transaction{}, nil
	}
	return payload.Transactions, nil
}

// Create submits t as a multipart form. A non-2xx with a {message} body
// comes back as *ServerError; anything else as *NetworkError.
func (c *Client) Create(ctx context.Context, t core.Transaction) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fields := []struct{ key, value string }{
		{"name", t.Name},
		{"t_date", t.Date.String()},
		{"amount", t.Amount.Decimal.String()},
		{"t_type", string(t.Type)},
		{"category", t.Category},
		{"comment", t.Comment},
		{"t_status", t.Status.Wire()},
	}
	for _, f := range fields {
		if err := mw.WriteField(f.key, f.value); err != nil {
			return &NetworkError{Op: log.OpCreate, Err: err}
		}
	}
	if err := mw.Close(); err != nil {
		return &NetworkError{Op: log.OpCreate, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+PathCreate, &buf)
	if err != nil {
		return &NetworkError{Op: log.OpCreate, Err: err}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	status, body, err := c.do(req)
	if err != nil {
		return c.fail(ctx, &NetworkError{Op: log.OpCreate, Err: err})
	}
	if ok(status) {
		return nil
	}

	var msg messageResponse
	if err := json.Unmarshal(body, &msg); err != nil || strings.TrimSpace(msg.Message) == "" {
		return c.fail(ctx, &NetworkError{Op: log.OpCreate, Status: status, Err: errors.New(http.StatusText(status))})
	}
	return c.fail(ctx, &ServerError{Op: log.OpCreate, Status: status, Message: msg.Message})
}

// UpdateStatus sets the settlement flag of every transaction named name.
func (c *Client) UpdateStatus(ctx context.Context, name string, status bool) error {
	payload := statusRequest{Name: name}
	if status {
		payload.Status = 1
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return &NetworkError{Op: log.OpUpdate, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.baseURL+PathStatus, bytes.NewReader(raw))
	if err != nil {
		return &NetworkError{Op: log.OpUpdate, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	code, _, err := c.do(req)
	if err != nil {
		return c.fail(ctx, &NetworkError{Op: log.OpUpdate, Err: err})
	}
	if !ok(code) {
		return c.fail(ctx, &NetworkError{Op: log.OpUpdate, Status: code, Err: errors.New(http.StatusText(code))})
	}
	return nil
}

// Delete removes the transactions named name. Deleting an absent name is
// not a failure, so a 404 counts as success.
func (c *Client) Delete(ctx context.Context, name string) error {
	u := c.baseURL + PathDelete + "?name=" + url.QueryEscape(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, u, nil)
	if err != nil {
		return &NetworkError{Op: log.OpDelete, Err: err}
	}

	code, _, err := c.do(req)
	if err != nil {
		return c.fail(ctx, &NetworkError{Op: log.OpDelete, Err: err})
	}
	if !ok(code) && code != http.StatusNotFound {
		return c.fail(ctx, &NetworkError{Op: log.OpDelete, Status: code, Err: errors.New(http.StatusText(code))})
	}
	return nil
}

func (c *Client) do(req *http.Request) (int, []byte, error) {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read body: %w", err)
	}
	c.logger.DebugContext(req.Context(), "Store request",
		log.FieldMethod, req.Method,
		log.FieldPath, req.URL.Path,
		log.FieldStatusCode, resp.StatusCode,
		log.FieldDuration, time.Since(start).Milliseconds())
	return resp.StatusCode, body, nil
}

func (c *Client) fail(ctx context.Context, err error) error {
	c.logger.WarnContext(ctx, "Store request failed", log.FieldError, err)
	return err
}

func ok(status int) bool {
	return status >= 200 && status < 300
}
