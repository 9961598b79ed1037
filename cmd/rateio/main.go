package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"rateio/internal/cache"
	"rateio/internal/cli"
	"rateio/internal/core"
	apphttp "rateio/internal/http"
	"rateio/internal/log"
	"rateio/internal/metrics"
	"rateio/internal/services"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig(nil)

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	be := cli.OpenBackend(startCtx, logger, cfg)
	cancelStart()

	m := metrics.New()

	caches := cache.NewManager()
	summaries := cache.NewLRUCache[core.Summary](cfg.CacheSize, cfg.CacheTTL,
		cache.WithObserver[core.Summary]("summary", m))
	caches.Register(summaries)
	caches.StartCleanup(time.Minute)

	dashboard := services.NewDashboardService(be.Store, be.Store, summaries)
	opts := []services.Option{
		services.WithInvalidator(dashboard),
		services.WithRecorder(m),
	}
	svc := apphttp.Services{
		Participants: services.NewParticipantService(be.Store, opts...),
		Expenses:     services.NewExpenseService(be.Store, be.Publisher, opts...),
		Shopping:     services.NewShoppingService(be.Store, opts...),
		Dashboard:    dashboard,
	}

	srv, err := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + cfg.Port,
		RequestTimeout:     cfg.RequestTimeout,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger,
		Metrics:            m,
		Ready:              be.Store,
	}, svc)
	if err != nil {
		logger.Error("Failed to build HTTP server", log.FieldError, err)
		os.Exit(1)
	}

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = cfg.RequestTimeout + 5*time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	parent, fail := context.WithCancel(context.Background())
	defer fail()

	ctx, done := cli.GracefulShutdown(parent, logger, shutdownTimeout, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		caches.Stop()
		if err := be.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	})

	exitCode := 0
	go func() {
		logger.Info("Starting rateio server",
			"addr", srv.Addr,
			"backend", cfg.DataBackend,
			"sync_enabled", be.Publisher != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", log.FieldError, err)
			exitCode = 1
			fail()
		}
	}()

	cli.WaitForShutdown(ctx, done)
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}
