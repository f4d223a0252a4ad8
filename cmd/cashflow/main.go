package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"cashflow/internal/amqp"
	"cashflow/internal/cli"
	apphttp "cashflow/internal/http"
	"cashflow/internal/ledger"
	"cashflow/internal/log"
	"cashflow/internal/middleware/ratelimit"
	"cashflow/internal/viewsync"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	client := ledger.NewClient(cfg.StoreURL,
		ledger.WithHTTPClient(&http.Client{Timeout: cfg.StoreTimeout}),
		ledger.WithLogger(logger))

	syncCfg := viewsync.DefaultConfig()
	syncCfg.WindowDays = cfg.WindowDays

	srv, err := apphttp.NewServer(apphttp.Options{
		Addr:   ":" + cfg.Port,
		Client: client,
		Sync:   syncCfg,
		RateLimit: ratelimit.Config{
			Requests: cfg.RateLimit,
			Window:   cfg.RateLimitWindow,
		},
		Ready: func(ctx context.Context) error {
			_, err := client.List(ctx)
			return err
		},
		Logger: logger,
	})
	if err != nil {
		logger.Error("Failed to build server", log.FieldError, err)
		os.Exit(1)
	}

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting cashflow server",
			log.FieldOperation, log.OpStartup,
			"port", cfg.Port,
			"store_url", cfg.StoreURL,
			"window_days", cfg.WindowDays)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Ledger events are optional: without a broker each browser still sees
	// its own mutations, just not other people's until it reloads.
	if cfg.AMQPURL != "" {
		events, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("Ledger events disabled", log.FieldError, err)
		} else {
			defer events.Close()
			g.Go(func() error {
				err := events.ConsumeLedgerChanged(gctx, func(ctx context.Context, msg *amqp.LedgerChangedMessage) error {
					logger.DebugContext(ctx, "Ledger changed elsewhere",
						log.FieldEvent, msg.Op,
						log.FieldName, msg.Name)
					_ = srv.Syncer().Refresh(ctx)
					return nil
				})
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			})
		}
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := cli.ShutdownContext(30 * time.Second)
		defer shutdownCancel()
		logger.Info("Shutting down server", log.FieldOperation, log.OpShutdown)
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
