// Package main is the entrypoint for the answerhunter API server.
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

	"github.com/kiranshivaraju/answerhunter/internal/ai"
	"github.com/kiranshivaraju/answerhunter/internal/api"
	"github.com/kiranshivaraju/answerhunter/internal/api/handler"
	"github.com/kiranshivaraju/answerhunter/internal/cache"
	"github.com/kiranshivaraju/answerhunter/internal/config"
	"github.com/kiranshivaraju/answerhunter/internal/evidence"
	"github.com/kiranshivaraju/answerhunter/internal/fetch"
	"github.com/kiranshivaraju/answerhunter/internal/jobs"
	"github.com/kiranshivaraju/answerhunter/internal/search"
	"github.com/kiranshivaraju/answerhunter/internal/store"
	"github.com/kiranshivaraju/answerhunter/internal/verify"
)

const (
	shutdownTimeout  = 30 * time.Second
	redisPingTimeout = 3 * time.Second
)

func main() {
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
	// 1. Load config, fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	config.NewLogger(cfg.Log, os.Stdout)
	slog.Info("config loaded", "ai_provider", cfg.AI.Provider, "env", cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Wire the pipeline and the job manager
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	// Jobs outlive the signal context. Shutdown decides when to cancel them.
	a.manager.Start(context.Background())

	// 3. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      a.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or server error
	var serveErr error
	select {
	case err := <-errCh:
		serveErr = fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	// Graceful shutdown: stop intake first, then let in-flight jobs finish.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown", "error", err)
	}
	if err := a.manager.Shutdown(shutdownCtx); err != nil {
		slog.Warn("job manager shutdown cut short, running jobs marked failed", "error", err)
	}

	if serveErr != nil {
		return serveErr
	}
	slog.Info("server stopped gracefully")
	return nil
}

// app bundles the long-lived components built from a Config.
type app struct {
	manager *jobs.Manager
	handler http.Handler
	cache   cache.Cache
}

func (a *app) close() {
	if err := a.cache.Close(); err != nil {
		slog.Warn("closing cache", "error", err)
	}
}

// newApp builds every component from cfg. The returned manager is not started.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	ca, pinger, err := newCache(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}

	searcher := search.NewCachedProvider(
		search.NewSerperClient(cfg.Search.BaseURL, cfg.Search.APIKey, cfg.Search.Timeout),
		ca, cfg.Search.CacheTTL)
	fetcher := fetch.NewHTTPFetcher(cfg.Fetch.Timeout, cfg.Fetch.UserAgent, cfg.Fetch.MaxContentLength)
	verifier := verify.New(verify.DefaultRules().WithOverrides(
		cfg.Verify.DenyDomains, cfg.Verify.DenyLabels, cfg.Verify.SpamPhrases, cfg.Verify.MinContentLength))
	collector := evidence.NewCollector(searcher, fetcher, verifier, cfg.Fetch.Timeout)

	provider, err := ai.NewProvider(ctx, cfg.AI)
	if err != nil {
		_ = ca.Close()
		return nil, fmt.Errorf("create AI provider: %w", err)
	}
	slog.Info("AI provider initialized", "provider", provider.Name(), "model", provider.Model())

	synth := ai.NewSynthesizer(provider, ai.SynthesizerOptions{
		Timeout:           cfg.AI.InferenceTimeout,
		DraftTemperature:  cfg.AI.DraftTemperature,
		RefineTemperature: cfg.AI.RefineTemperature,
		MaxTokens:         cfg.AI.MaxTokens,
	})

	opts := jobs.DefaultOptions()
	opts.Workers = cfg.Jobs.Workers
	opts.QueueSize = cfg.Jobs.QueueSize
	opts.DefaultNumResults = cfg.Jobs.DefaultNumResults
	opts.MaxNumResults = cfg.Jobs.MaxNumResults
	manager := jobs.NewManager(store.NewMemoryStore(cfg.Jobs.MaxStored), ca, collector, synth, opts)

	router := api.NewRouter(api.Dependencies{
		Service:               manager,
		Cache:                 pinger,
		CredentialsConfigured: cfg.CredentialsConfigured(),
	})

	return &app{manager: manager, handler: router, cache: ca}, nil
}

// newCache returns the Redis cache when one is configured and a no-op cache
// otherwise. An unreachable Redis is kept: cache errors degrade to misses and
// GET /health reports it. The pinger is nil when no cache is configured.
func newCache(ctx context.Context, cfg config.RedisConfig) (cache.Cache, handler.Pinger, error) {
	if cfg.URL == "" {
		slog.Info("no REDIS_URL set, running without a shared cache")
		return cache.NopCache{}, nil, nil
	}

	rc, err := cache.NewRedisCache(cfg.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("create redis cache: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := rc.Ping(pingCtx); err != nil {
		slog.Warn("redis unreachable, continuing with cache misses", "error", err)
	} else {
		slog.Info("redis connected")
	}
	return rc, rc, nil
}
