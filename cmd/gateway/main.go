package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fastservices/gateway/internal/apiclient"
	"github.com/fastservices/gateway/internal/app"
	"github.com/fastservices/gateway/internal/authctx"
	"github.com/fastservices/gateway/internal/backend"
	"github.com/fastservices/gateway/internal/config"
	"github.com/fastservices/gateway/internal/guard"
	httpx "github.com/fastservices/gateway/internal/http"
	"github.com/fastservices/gateway/internal/http/handlers"
	"github.com/fastservices/gateway/internal/observability"
	"github.com/fastservices/gateway/internal/redisclient"
	"github.com/fastservices/gateway/internal/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	cfg := config.Load()
	log := observability.NewLogger(cfg.Env)

	if err := run(cfg, log); err != nil {
		log.Error("gateway stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := observability.InitTracer(ctx, observability.ServiceName, cfg.OTelEndpoint, cfg.OTelEnabled)
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer func() {
		sctx, cancel := config.WithTimeout(5 * time.Second)
		defer cancel()
		_ = shutdownTracer(sctx)
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	tokens := app.Tokens(cfg, log)

	// session store
	var (
		store  session.Store
		checks []handlers.Check
	)
	switch cfg.SessionStore {
	case "redis":
		rc := redisclient.New(redisclient.Config{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		defer rc.Close()
		if err := rc.Ping(ctx); err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
		store = session.NewRedisStore(rc.Raw(), cfg.SessionTTL)
		checks = append(checks, handlers.Check{Name: "redis", Ping: rc.Ping})
	default:
		store = session.NewMemoryStore()
	}

	// backend
	var (
		b      backend.Backend
		client *apiclient.Client
	)
	if cfg.UseMock {
		mb, mockChecks, closeMock, err := app.MockBackend(ctx, cfg, prom, tokens)
		if err != nil {
			return err
		}
		defer closeMock()
		b = mb
		checks = append(checks, mockChecks...)
		log.Info("using mock backend", "directory", cfg.MockDirectory)
	} else {
		client = apiclient.New(apiclient.Config{
			BaseURL:           cfg.APIBaseURL,
			ShowBackendErrors: cfg.ShowBackendErrors,
			CatalogCacheTTL:   cfg.CatalogCacheTTL,
		}, store, apiclient.WithObserver(prom), apiclient.WithLogger(log))
		b = client
		log.Info("using backend api", "base_url", cfg.APIBaseURL)
	}

	manager := authctx.NewManager(store, b, tokens, authctx.ManagerConfig{
		IdleTTL:  cfg.AuthContextIdle,
		Observer: prom,
		Logger:   log,
	})
	if client != nil {
		client.OnUnauthorized(manager.HandleUnauthorized)
	}
	manager.Start(ctx)
	defer manager.Close()

	router := httpx.NewRouter(httpx.Deps{
		Log:     log,
		Config:  cfg,
		Backend: b,
		Auth:    manager,
		Guard:   guard.New(cfg.HydrationGrace).WithObserver(prom),
		Prom:    prom,
		Metrics: reg,
		Checks:  checks,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env, "mock", cfg.UseMock)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("server shutting down")
	sctx, cancel := config.WithTimeout(10 * time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	log.Info("shutdown complete")
	return nil
}
