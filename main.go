package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/sourcegraph/conc"

	"github.com/varsilias/ollama-studio/internal/api"
	"github.com/varsilias/ollama-studio/internal/apperr"
	"github.com/varsilias/ollama-studio/internal/artifact"
	"github.com/varsilias/ollama-studio/internal/buildinfo"
	"github.com/varsilias/ollama-studio/internal/chat"
	"github.com/varsilias/ollama-studio/internal/config"
	"github.com/varsilias/ollama-studio/internal/logging"
	"github.com/varsilias/ollama-studio/internal/middleware"
	"github.com/varsilias/ollama-studio/internal/models"
	"github.com/varsilias/ollama-studio/internal/ollama"
	"github.com/varsilias/ollama-studio/internal/session"
	"github.com/varsilias/ollama-studio/internal/tokens"
	"github.com/varsilias/ollama-studio/internal/ui"
	"github.com/varsilias/ollama-studio/web"
)

func main() {
	cfgPath := flag.String("config", "", "optional YAML config file")
	addr := flag.String("addr", "", "HTTP listen port (overrides ADDR)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	logger := logging.New(cfg.Server.LogLevel, cfg.Server.LogJSON)
	logger.Info("build", "version", buildinfo.Version, "commit", buildinfo.Commit, "built_at", buildinfo.BuiltAt)

	if err := run(cfg, logger); err != nil {
		logger.Error("server error", "err", err)
		if apperr.IsConfiguration(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	oc := ollama.NewClient(cfg.Ollama.BaseURL, cfg.Ollama.APIKey, logger)

	if cfg.Ollama.Wait && cfg.Ollama.Transport != config.TransportEcho {
		logger.Info("waiting for the model service", "timeout", cfg.Ollama.WaitTimeout.String(), "interval", cfg.Ollama.WaitInterval.String())
		ctxWait, cancel := context.WithTimeout(context.Background(), cfg.Ollama.WaitTimeout)
		err := waitForOllama(ctxWait, oc, cfg.Ollama.WaitInterval)
		cancel()
		if err != nil {
			logger.Warn("model service wait timed out; continuing", "err", err.Error())
		} else {
			logger.Info("model service is reachable", "base_url", oc.BaseURL())
		}
	}

	engine, err := newEngine(cfg, oc)
	if err != nil {
		return err
	}
	logger.Info("engine ready", "transport", cfg.Ollama.Transport, "base_url", oc.BaseURL())

	var modelsMgr models.Manager = models.NewStaticManager(cfg.Catalog())
	if cfg.Models.Verify && cfg.Ollama.Transport != config.TransportEcho {
		modelsMgr = models.NewOllamaManager(oc, cfg.Catalog())
	}

	var (
		rdb     *redis.Client
		store   session.Store
		limiter func(http.Handler) http.Handler
	)
	mem := session.NewMemoryStore()
	store = mem
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			logger.Warn("redis not reachable; snapshots and rate limits degrade", "addr", cfg.Redis.Addr, "err", err)
		}
		rs := session.NewRedisStore(rdb, cfg.Sessions.IdleTimeout, logger)
		mem, store = rs.MemoryStore, rs
		if cfg.Redis.RateLimitQPS > 0 {
			limiter = middleware.RateLimit(rdb, cfg.Redis.RateLimitQPS, logger)
		}
	}

	counter := tokens.NewCounter()
	if !counter.Exact() {
		logger.Warn("tokenizer unavailable; using word-based token estimates")
	}
	artifacts := artifact.NewStore(cfg.Sessions.ArtifactTTL)
	chatCtrl := chat.NewController(logger, engine, store, modelsMgr, artifacts, chat.Options{
		Timeout:          cfg.Ollama.RequestTimeout,
		MaxContextTokens: cfg.Sessions.MaxContextTokens,
		Counter:          counter,
	})

	uih, err := ui.New(logger, chatCtrl, artifacts, web.FS)
	if err != nil {
		return fmt.Errorf("ui init: %w", err)
	}
	h := api.NewHandlers(logger, chatCtrl)
	if cfg.Ollama.Transport != config.TransportEcho {
		h.Admin = api.NewAdmin(oc)
	}

	mux := chi.NewRouter()
	mux.Handle("/static/*", http.FileServer(http.FS(web.FS)))
	ui.RegisterRoutes(mux, uih, limiter)
	api.RegisterRoutes(mux, h, limiter)

	var handler http.Handler = mux
	handler = middleware.Recoverer(logger)(handler)
	handler = middleware.AccessLog(logger)(handler)
	handler = middleware.RequestID()(handler)
	handler = middleware.VersionHeader()(handler)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Addr),
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      writeTimeout(cfg.Ollama.RequestTimeout),
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	var wg conc.WaitGroup
	wg.Go(func() {
		logger.Info("console listening", "addr", server.Addr, "transport", cfg.Ollama.Transport)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	})
	wg.Go(func() {
		janitor(ctx, time.Minute, func() {
			if dropped := mem.Prune(cfg.Sessions.IdleTimeout, time.Now()); len(dropped) > 0 {
				logger.Info("idle sessions dropped", "count", len(dropped))
			}
		})
	})
	wg.Go(func() {
		janitor(ctx, time.Minute, func() {
			if n := artifacts.Prune(); n > 0 {
				logger.Debug("expired artifacts dropped", "count", n)
			}
		})
	})

	var serveErr error
	select {
	case serveErr = <-errChan:
		stop()
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "err", err)
	} else {
		logger.Info("server stopped")
	}
	wg.Wait()
	return serveErr
}

func newEngine(cfg *config.Config, oc *ollama.Client) (chat.Engine, error) {
	switch cfg.Ollama.Transport {
	case config.TransportOpenAI:
		return chat.NewOpenAIEngine(cfg.Ollama.BaseURL, cfg.Ollama.APIKey)
	case config.TransportEcho:
		return chat.NewEchoEngine(30 * time.Millisecond), nil
	default:
		return chat.NewOllamaEngine(oc), nil
	}
}

// writeTimeout leaves room for a streamed generation to use its whole
// request timeout. Without a request timeout writes are unbounded.
func writeTimeout(request time.Duration) time.Duration {
	if request <= 0 {
		return 0
	}
	return request + 30*time.Second
}

// janitor runs fn every interval until ctx is done.
func janitor(ctx context.Context, interval time.Duration, fn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}

func waitForOllama(ctx context.Context, oc *ollama.Client, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// do an immediate attempt first
	if err := oc.Ping(ctx); err == nil {
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := oc.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}
