package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"cashflow/internal/core"
	"cashflow/internal/log"
	"cashflow/internal/viewsync"
)

type indexData struct {
	Page       PageView
	Categories []core.Category
	Today      string
	MaxDate    string
	Banners    []notification
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).String(),
		"clients":   s.hub.Clients(),
	})
}

// handleReady checks that the store answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := map[string]string{"templates": "ok", "store": "ok"}

	if s.ready != nil {
		if err := s.ready(ctx); err != nil {
			s.logger.WarnContext(ctx, "Store not ready", log.FieldError, err)
			checks["store"] = "failed: " + err.Error()
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleIndex runs a refresh and renders the whole page. Banners from that
// refresh are rendered inline.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}

	ctx, o := withOutcome(r.Context())
	_ = s.syncer.Refresh(ctx)
	banners, _ := o.snapshot()

	cfg := s.syncer.Config()
	data := indexData{
		Page:       s.page.View(),
		Categories: cfg.Categories.Options(),
		Today:      s.syncer.Today().String(),
		MaxDate:    cfg.MaxDate,
	}
	for _, b := range banners {
		data.Banners = append(data.Banners, toNotification(b))
	}

	body, err := s.render("index.html", data)
	if err != nil {
		s.logger.ErrorContext(ctx, "Template execution failed", log.FieldOperation, log.OpRender, log.FieldError, err)
		InternalServerError("Erro ao montar a página.").Write(w)
		return
	}
	NewHTMXResponse().BodyHTML(string(body)).Write(w)
}

// handleLedger renders the table and stat cards. Browsers call it after a
// live ledger:refreshed event; refresh=1 fetches first.
func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}

	ctx, o := withOutcome(r.Context())
	if r.URL.Query().Get("refresh") == "1" {
		_ = s.syncer.Refresh(ctx)
	}
	s.respondLedger(ctx, w, o)
}

// handleTransactions is the create (POST) and delete (DELETE) entry point.
func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodPost, http.MethodDelete); resp != nil {
		resp.Write(w)
		return
	}

	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		BadRequestError("Formato de requisição inválido.").Write(w)
		return
	}

	ctx, o := withOutcome(r.Context())

	if r.Method == http.MethodPost {
		_ = s.syncer.OnSubmit(ctx, createForm(parser))
		s.respondLedger(ctx, w, o)
		return
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		name = parser.Get("name")
	}
	if strings.TrimSpace(name) == "" {
		BadRequestError("Nome é obrigatório.").Write(w)
		return
	}

	err := s.syncer.OnDelete(ctx, name, confirmedBy(r, parser))
	if errors.Is(err, viewsync.ErrNotConfirmed) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.respondLedger(ctx, w, o)
}

// handleToggle updates one status checkbox.
func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodPatch); resp != nil {
		resp.Write(w)
		return
	}

	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		BadRequestError("Formato de requisição inválido.").Write(w)
		return
	}
	name := parser.Get("name")
	if name == "" {
		BadRequestError("Nome é obrigatório.").Write(w)
		return
	}

	ctx, o := withOutcome(r.Context())
	_ = s.syncer.OnToggle(ctx, name, parser.Bool("checked"))
	s.respondLedger(ctx, w, o)
}

// respondLedger writes the ledger partial plus whatever the cycle asked the
// browser to do. Cycle failures are reported through banners, so the status
// stays 200 and htmx still swaps the refreshed table in.
func (s *Server) respondLedger(ctx context.Context, w http.ResponseWriter, o *outcome) {
	body, err := s.render("ledger", s.page.View())
	if err != nil {
		s.logger.ErrorContext(ctx, "Template execution failed", log.FieldOperation, log.OpRender, log.FieldError, err)
		InternalServerError("Erro ao montar a página.").Write(w)
		return
	}

	banners, reset := o.snapshot()
	resp := NewHTMXResponse().TriggerBanners(banners)
	if reset != nil {
		resp.TriggerFormReset(*reset)
	}
	resp.BodyHTML(string(body)).Write(w)
}

// confirmedBy reads the answer the page collected before sending the
// delete: hx-confirm asks, then the request carries confirmed=true.
func confirmedBy(r *http.Request, p *RequestBodyParser) viewsync.Confirmer {
	return viewsync.ConfirmFunc(func(ctx context.Context, prompt string) bool {
		v := r.URL.Query().Get("confirmed")
		if v == "" {
			return p.Bool("confirmed")
		}
		switch strings.ToLower(v) {
		case "true", "1", "on", "yes":
			return true
		}
		return false
	})
}
