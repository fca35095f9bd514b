// Package main is the entrypoint for the transcode console server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/QuangLe1997/media-transcode-sub001/internal/api"
	"github.com/QuangLe1997/media-transcode-sub001/internal/api/handler"
	"github.com/QuangLe1997/media-transcode-sub001/internal/api/response"
	"github.com/QuangLe1997/media-transcode-sub001/internal/bulk"
	"github.com/QuangLe1997/media-transcode-sub001/internal/cache"
	"github.com/QuangLe1997/media-transcode-sub001/internal/config"
	"github.com/QuangLe1997/media-transcode-sub001/internal/poller"
	"github.com/QuangLe1997/media-transcode-sub001/internal/taskstore"
	"github.com/QuangLe1997/media-transcode-sub001/internal/transcoder"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config — fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded", "transcoder", cfg.Transcoder.BaseURL, "env", cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Transcoder client and task store
	client := transcoder.NewHTTPClient(cfg.Transcoder.BaseURL, &http.Client{
		Timeout: cfg.Transcoder.Timeout,
	})
	store := taskstore.New(client)

	// 3. Redis cache — optional; the console runs fine without it
	var redisCache cache.Cache
	if cfg.Redis.URL != "" {
		rc, err := cache.NewRedisCache(cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("create redis cache: %w", err)
		}
		defer rc.Close()

		if err := rc.Ping(ctx); err != nil {
			return fmt.Errorf("ping redis: %w", err)
		}
		redisCache = rc
		slog.Info("redis connected")
	} else {
		slog.Info("redis not configured, detail and result caching disabled")
	}

	// 4. Background poller keeps the snapshot fresh
	p := poller.New(store, cfg.Poll.FetchLimit)
	p.Start(cfg.Poll.Interval, nil)
	defer p.Stop()
	slog.Info("poller started", "interval", cfg.Poll.Interval.String())

	// 5. Bulk executor
	executor := bulk.NewExecutor(client, store)

	// 6. Build router with dependencies
	detailSource := &handler.DetailSource{
		Fetcher: store,
		Cache:   redisCache,
		TTL:     cfg.Redis.DetailTTL,
	}

	deps := api.Dependencies{
		HealthHandler: healthHandler(client, redisCache),

		ListTasksHandler:   handler.NewListTasksHandler(store, cfg.Poll.FetchLimit),
		TaskDetailHandler:  handler.NewTaskDetailHandler(detailSource),
		TaskOutputsHandler: handler.NewTaskOutputsHandler(detailSource),
		TaskResultHandler:  handler.NewTaskResultHandler(client, redisCache, cfg.Redis.ResultTTL),
		DeleteTaskHandler:  handler.NewDeleteTaskHandler(client, store),
		RetryTaskHandler:   handler.NewRetryTaskHandler(client),

		BulkDeleteHandler: handler.NewBulkDeleteHandler(executor),
		BulkRetryHandler:  handler.NewBulkRetryHandler(executor),
	}

	router := api.NewRouter(deps)

	// 7. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// healthHandler checks transcoder and cache connectivity. The transcoder
// check is a cheap single-item list call.
func healthHandler(client transcoder.Client, c cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"transcoder": "ok",
			"cache":      "disabled",
		}

		if _, err := client.ListTasks(r.Context(), nil, 1); err != nil {
			checks["transcoder"] = "degraded"
		}
		if c != nil {
			checks["cache"] = "ok"
			if err := c.Ping(r.Context()); err != nil {
				checks["cache"] = "degraded"
			}
		}

		degraded := checks["transcoder"] != "ok" || checks["cache"] == "degraded"
		if degraded {
			response.Error(w, http.StatusServiceUnavailable, "DEGRADED",
				"One or more services degraded", checks)
			return
		}

		response.JSON(w, map[string]any{
			"status":   "ok",
			"services": checks,
		})
	}
}
