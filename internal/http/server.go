package http

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"cashflow/internal/log"
	"cashflow/internal/middleware/ratelimit"
	"cashflow/internal/middleware/security"
	"cashflow/internal/middleware/trace"
	"cashflow/internal/viewsync"
	appweb "cashflow/web"
)

// Options configures the web host.
type Options struct {
	Addr   string
	Client viewsync.TransactionClient
	Sync   viewsync.Config
	// RateLimit applies to the three mutation routes.
	RateLimit ratelimit.Config
	// Ready reports whether the store is reachable. Nil means always ready.
	Ready  func(ctx context.Context) error
	Logger *log.Logger
}

type Server struct {
	http.Server
	templates *template.Template
	syncer    *viewsync.Syncer
	page      *Page
	hub       *Hub
	limiter   *ratelimit.Limiter
	tracer    *trace.Middleware
	detector  *security.Detector
	ready     func(ctx context.Context) error
	logger    *log.Logger
	started   time.Time

	shutdownOnce sync.Once
}

// NewServer wires the page, the live hub and a Syncer that renders into the
// page.
func NewServer(opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	tmpl, err := template.New("").ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	hub := NewHub(logger)
	page := NewPage(hub.Notify)
	syncer, err := viewsync.New(opts.Client, page, opts.Sync,
		viewsync.WithLogger(logger),
		viewsync.WithStateListener(hub.StateChanged))
	if err != nil {
		return nil, err
	}

	detector := security.NewDetector(logger)
	s := &Server{
		templates: tmpl,
		syncer:    syncer,
		page:      page,
		hub:       hub,
		limiter:   ratelimit.NewLimiter(opts.RateLimit, logger),
		tracer:    trace.NewMiddleware(logger, detector.ExtractClientIP),
		detector:  detector,
		ready:     opts.Ready,
		logger:    logger,
		started:   time.Now(),
	}

	limited := s.limiter.Middleware(detector.ExtractClientIP, s.rateLimited)

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/ui/ledger", s.handleLedger)
	mux.Handle("/transactions", limited(http.HandlerFunc(s.handleTransactions)))
	mux.Handle("/transactions/status", limited(http.HandlerFunc(s.handleToggle)))
	mux.Handle("/ws", hub)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", security.StaticAssetMiddleware(3600)(static))
	}

	headers := security.NewHeadersMiddleware(security.PageHeadersConfig())
	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           s.tracer.Middleware(detector.Middleware(headers.Middleware(mux))),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Syncer exposes the orchestrator so other triggers (ledger events) can run
// refresh cycles against the same page.
func (s *Server) Syncer() *viewsync.Syncer {
	return s.syncer
}

// Hub returns the live update hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Shutdown closes websocket sessions and the limiter before draining HTTP.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		if cerr := s.hub.Close(); cerr != nil {
			s.logger.Warn("Closing live hub", log.FieldError, cerr)
		}
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func (s *Server) rateLimited(w http.ResponseWriter, r *http.Request) {
	NewHTMXResponse().
		Status(http.StatusTooManyRequests).
		TriggerErrorNotification("Muitas requisições. Tente novamente em instantes.").
		Write(w)
}

// render executes name into a buffer so template errors never leave a
// half-written response.
func (s *Server) render(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
