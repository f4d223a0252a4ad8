// Package api serves a store.Store over the ledger HTTP contract:
//
//	GET    /transactions         {"transactions": [...]}
//	POST   /transaction          form fields, 400 {"message"} on bad input
//	PATCH  /transaction/status   {"name", "t_status": 0|1}
//	DELETE /transaction?name=
//
// PATCH and DELETE succeed for names that match nothing.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"cashflow/internal/core"
	"cashflow/internal/log"
	"cashflow/internal/store"
)

// Change operations passed to Notifier.
const (
	OpCreated       = "created"
	OpStatusChanged = "status_changed"
	OpDeleted       = "deleted"
)

const maxFormMemory = 1 << 20

// Notifier hears about successful mutations.
type Notifier interface {
	Notify(ctx context.Context, op, name string)
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, string, string) {}

// Handler is the store API.
type Handler struct {
	store    store.Store
	notifier Notifier
	logger   *log.Logger
	mux      *http.ServeMux
	mutate   func(http.Handler) http.Handler
}

// Option configures a Handler.
type Option func(*Handler)

// WithNotifier sets who hears about mutations.
func WithNotifier(n Notifier) Option {
	return func(h *Handler) { h.notifier = n }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(h *Handler) { h.logger = l.WithComponent(log.ComponentStoreAPI) }
}

// WithMutationMiddleware wraps the three mutating routes, e.g. with a rate
// limiter.
func WithMutationMiddleware(mw func(http.Handler) http.Handler) Option {
	return func(h *Handler) { h.mutate = mw }
}

// New builds the handler and its routes.
func New(s store.Store, opts ...Option) *Handler {
	h := &Handler{
		store:    s,
		notifier: nopNotifier{},
		logger:   log.Discard(),
		mux:      http.NewServeMux(),
		mutate:   func(next http.Handler) http.Handler { return next },
	}
	for _, opt := range opts {
		opt(h)
	}

	h.mux.HandleFunc("GET /transactions", h.handleList)
	h.mux.Handle("POST /transaction", h.mutate(http.HandlerFunc(h.handleCreate)))
	h.mux.Handle("PATCH /transaction/status", h.mutate(http.HandlerFunc(h.handleStatus)))
	h.mux.Handle("DELETE /transaction", h.mutate(http.HandlerFunc(h.handleDelete)))
	h.mux.HandleFunc("GET /healthz", handleHealth)
	h.mux.HandleFunc("GET /readyz", h.handleReady)
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

type listResponse struct {
	Transactions []core.Transaction `json:"transactions"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type statusRequest struct {
	Name   string      `json:"name"`
	Status core.Status `json:"t_status"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	txs, err := h.store.List(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "List failed", log.FieldOperation, log.OpList, log.FieldError, err)
		writeJSON(w, http.StatusInternalServerError, messageResponse{Message: "Erro ao listar lançamentos."})
		return
	}
	if txs == nil {
		txs = []core.Transaction{}
	}
	writeJSON(w, http.StatusOK, listResponse{Transactions: txs})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		if !errors.Is(err, http.ErrNotMultipart) {
			writeJSON(w, http.StatusBadRequest, messageResponse{Message: "Formulário inválido."})
			return
		}
		if err := r.ParseForm(); err != nil {
			writeJSON(w, http.StatusBadRequest, messageResponse{Message: "Formulário inválido."})
			return
		}
	}

	amount, _ := core.ParseAmount(r.FormValue("amount"))
	t := core.Transaction{
		Name:     sanitizeInput(r.FormValue("name")),
		Date:     core.Date(strings.TrimSpace(r.FormValue("t_date"))),
		Amount:   amount,
		Type:     core.Type(strings.TrimSpace(r.FormValue("t_type"))),
		Category: sanitizeInput(r.FormValue("category")),
		Comment:  sanitizeInput(r.FormValue("comment")),
		Status:   core.Status(core.NormalizeStatus(strings.TrimSpace(r.FormValue("t_status")))),
	}

	if err := h.store.Append(r.Context(), t); err != nil {
		var ie *store.InputError
		if errors.As(err, &ie) {
			writeJSON(w, http.StatusBadRequest, messageResponse{Message: ie.Message})
			return
		}
		h.logger.ErrorContext(r.Context(), "Create failed",
			log.FieldOperation, log.OpCreate,
			log.FieldName, t.Name,
			log.FieldError, err)
		writeJSON(w, http.StatusInternalServerError, messageResponse{Message: "Erro ao salvar lançamento."})
		return
	}

	h.notifier.Notify(r.Context(), OpCreated, t.Name)
	writeJSON(w, http.StatusCreated, messageResponse{Message: "Lançamento criado."})
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFormMemory)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "JSON inválido."})
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "Nome é obrigatório."})
		return
	}

	err := h.store.SetStatus(r.Context(), req.Name, bool(req.Status))
	switch {
	case errors.Is(err, store.ErrNotFound):
		h.logger.DebugContext(r.Context(), "Status update matched nothing", log.FieldName, req.Name)
	case err != nil:
		h.logger.ErrorContext(r.Context(), "Status update failed",
			log.FieldOperation, log.OpUpdate,
			log.FieldName, req.Name,
			log.FieldError, err)
		writeJSON(w, http.StatusInternalServerError, messageResponse{Message: "Erro ao atualizar status."})
		return
	default:
		h.notifier.Notify(r.Context(), OpStatusChanged, req.Name)
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Status atualizado."})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if strings.TrimSpace(name) == "" {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "Nome é obrigatório."})
		return
	}

	err := h.store.Delete(r.Context(), name)
	switch {
	case errors.Is(err, store.ErrNotFound):
		h.logger.DebugContext(r.Context(), "Delete matched nothing", log.FieldName, name)
	case err != nil:
		h.logger.ErrorContext(r.Context(), "Delete failed",
			log.FieldOperation, log.OpDelete,
			log.FieldName, name,
			log.FieldError, err)
		writeJSON(w, http.StatusInternalServerError, messageResponse{Message: "Erro ao remover lançamento."})
		return
	default:
		h.notifier.Notify(r.Context(), OpDeleted, name)
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Removido."})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	if p, ok := h.store.(store.Pinger); ok {
		if err := p.Ping(r.Context()); err != nil {
			h.logger.WarnContext(r.Context(), "Store not ready", log.FieldError, err)
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// sanitizeInput trims and drops control characters other than tab and
// newlines.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}
