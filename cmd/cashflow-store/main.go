package main

import (
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"cashflow/internal/amqp"
	"cashflow/internal/cache"
	"cashflow/internal/cli"
	"cashflow/internal/log"
	"cashflow/internal/middleware/ratelimit"
	"cashflow/internal/middleware/security"
	"cashflow/internal/middleware/trace"
	"cashflow/internal/store/api"
	"cashflow/internal/store/backend"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentStore)
	cfg := cli.LoadAndValidateStoreConfig(logger)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	backendCfg, err := backend.FromStoreConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend", log.FieldError, err)
		os.Exit(1)
	}
	caches := cache.NewManager(logger)
	res, err := backend.NewFactory(logger, caches).Create(gctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize store", log.FieldBackend, cfg.DataBackend, log.FieldError, err)
		os.Exit(1)
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Warn("Store cleanup failed", log.FieldError, err)
		}
	}()
	if cfg.CacheCleanupInterval > 0 {
		caches.Start(gctx, cfg.CacheCleanupInterval)
	}

	opts := []api.Option{api.WithLogger(logger)}

	if cfg.AMQPURL != "" {
		events, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, "", logger)
		if err != nil {
			logger.Warn("Ledger events disabled", log.FieldError, err)
		} else {
			defer events.Close()
			opts = append(opts, api.WithNotifier(events))
		}
	}

	detector := security.NewDetector(logger)
	limiter := ratelimit.NewLimiter(ratelimit.DefaultConfig(), logger)
	defer limiter.Stop()
	opts = append(opts, api.WithMutationMiddleware(limiter.Middleware(detector.ExtractClientIP, nil)))

	tracer := trace.NewMiddleware(logger, detector.ExtractClientIP)
	headers := security.NewHeadersMiddleware(security.APIHeadersConfig())
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           tracer.Middleware(detector.Middleware(headers.Middleware(api.New(res.Store, opts...)))),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}

	g.Go(func() error {
		logger.Info("Starting cashflow store",
			log.FieldOperation, log.OpStartup,
			"port", cfg.Port,
			log.FieldBackend, cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := cli.ShutdownContext(30 * time.Second)
		defer shutdownCancel()
		logger.Info("Shutting down store", log.FieldOperation, log.OpShutdown)
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Store error", log.FieldError, err)
		os.Exit(1)
	}
	caches.Wait()
	logger.Info("Store stopped gracefully")
}
