package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"casedesk/internal/cases/handler"
	jwttoken "casedesk/internal/jwt_token"
	"casedesk/internal/platform/config"
	"casedesk/internal/platform/httpserver"
	"casedesk/internal/platform/logger"
	"casedesk/internal/platform/metrics"
	"casedesk/pkg/platform/httputil"
	"casedesk/pkg/platform/middleware/auth"
	"casedesk/pkg/platform/middleware/metadata"
	"casedesk/pkg/platform/middleware/request"
	"casedesk/pkg/platform/middleware/requesttime"
)

// main loads configuration, wires the case service onto its backing
// infrastructure and serves the HTTP API until interrupted.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	app, err := buildApp(ctx, cfg, log, reg)
	if err != nil {
		log.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	tokens := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer)
	httpMetrics := metrics.New(reg)

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(httpMetrics.Middleware)
	r.Get("/healthz", app.health)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	r.Route("/v1", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(30 * time.Second))
		r.Use(auth.RequireActor(tokens, log))
		handler.New(app.service, log).Register(r)
	})

	srv := httpserver.New(cfg.Server, r)
	go func() {
		log.Info("starting casedesk", "addr", cfg.Server.Addr, "env", cfg.Env, "postgres", cfg.UsesPostgres())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	app.Flush(shutdownCtx)
}

func (a *app) health(w http.ResponseWriter, r *http.Request) {
	if err := a.Ping(r.Context()); err != nil {
		httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
		return
	}
	body := map[string]string{"status": "ok"}
	// Resolution falls back to the backing catalog, so a degraded cache is
	// reported without failing the check.
	if a.catalogCache != nil && a.catalogCache.Degraded() {
		body["catalog_cache"] = "degraded"
	}
	httputil.WriteJSON(w, http.StatusOK, body)
}
