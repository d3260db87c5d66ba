// Command mockapi serves the mock backend over the backend's REST contract so
// the gateway can run in real mode against it.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fastservices/gateway/internal/app"
	"github.com/fastservices/gateway/internal/config"
	"github.com/fastservices/gateway/internal/http/middlewares"
	"github.com/fastservices/gateway/internal/mockbackend"
	"github.com/fastservices/gateway/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

func main() {
	cfg := config.Load()
	cfg.UseMock = true
	log := observability.NewLogger(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := observability.InitTracer(ctx, "fastservices-mockapi", cfg.OTelEndpoint, cfg.OTelEnabled)
	if err != nil {
		log.Error("init tracer", "err", err)
		os.Exit(1)
	}

	prom := observability.NewProm(prometheus.NewRegistry())

	tokens := app.BackendTokens(cfg)

	b, _, closeMock, err := app.MockBackend(ctx, cfg, prom, tokens)
	if err != nil {
		log.Error("mock backend", "err", err)
		os.Exit(1)
	}

	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), otelgin.Middleware("fastservices-mockapi"), middlewares.RequestID(), middlewares.RequestLogger(log))
	mockbackend.NewServer(b, tokens).Routes(r)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("mock api starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("mock api shutting down")

	sctx, cancel := config.WithTimeout(10 * time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error("graceful shutdown failed", "err", err)
	}
	closeMock()
	_ = shutdownTracer(sctx)
}
