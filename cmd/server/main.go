package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/p-n-ai/pai-placement/internal/api"
	"github.com/p-n-ai/pai-placement/internal/placement"
	"github.com/p-n-ai/pai-placement/internal/platform/cache"
	"github.com/p-n-ai/pai-placement/internal/platform/config"
	"github.com/p-n-ai/pai-placement/internal/questionnaire"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(newLogger(os.Stdout, cfg.Log))

	policy, err := placement.LoadPolicy(cfg.PolicyPath)
	if err != nil {
		slog.Error("failed to load scoring policy", "error", err)
		os.Exit(1)
	}

	var catalog *questionnaire.Loader
	if cfg.QuestionnairePath != "" {
		catalog, err = questionnaire.NewLoader(cfg.QuestionnairePath)
		if err != nil {
			slog.Error("failed to load questionnaire", "error", err)
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	apiCfg := api.Config{
		Scorer:  placement.NewScorer(policy),
		Catalog: catalog,
	}

	var ready readinessCheck
	if cfg.Cache.URL != "" {
		perMinute := 0
		if cfg.RateLimited() {
			perMinute = cfg.Cache.RateLimitPerMinute
		}
		c, err := cache.New(ctx, cfg.Cache.URL, perMinute)
		if err != nil {
			slog.Error("failed to connect to cache", "error", err)
			os.Exit(1)
		}
		defer c.Close()

		ready = c.HealthCheck
		if c.Limiter != nil {
			apiCfg.Limiter = c.Limiter
		}
	}

	handler, err := api.NewHandler(apiCfg)
	if err != nil {
		slog.Error("failed to create API handler", "error", err)
		os.Exit(1)
	}

	mux := newMux(handler, ready)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting",
			"addr", srv.Addr,
			"weight", policy.Weight,
			"rate_limited", apiCfg.Limiter != nil,
			"questionnaire", catalog != nil,
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

// readinessCheck reports whether a backing service is reachable.
type readinessCheck func(ctx context.Context) error

// newLogger builds the slog logger described by cfg.
func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// newMux creates the HTTP router with health checks and the API routes.
func newMux(h *api.Handler, ready readinessCheck) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.HandleFunc("GET /readyz", handleReadyz(ready))
	h.Register(mux)
	return mux
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func handleReadyz(ready readinessCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if ready != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ready(ctx); err != nil {
				slog.Warn("readiness check failed", "error", err)
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status":"unavailable"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ready"}`))
	}
}
