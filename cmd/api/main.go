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

	"golang.org/x/time/rate"

	"github.com/Bahjat/content-insight/backend/internal/analysis"
	"github.com/Bahjat/content-insight/backend/internal/analysis/checks"
	"github.com/Bahjat/content-insight/backend/internal/analyzer"
	"github.com/Bahjat/content-insight/backend/internal/pageinsight"
	"github.com/Bahjat/content-insight/backend/internal/platform/cache"
	"github.com/Bahjat/content-insight/backend/internal/platform/config"
	"github.com/Bahjat/content-insight/backend/internal/platform/logger"
	"github.com/Bahjat/content-insight/backend/internal/platform/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, os.Stdout)

	settings := config.DefaultSettings()
	if cfg.SettingsFile != "" {
		settings, err = config.NewSettingsStore(cfg.SettingsFile).Load()
		if err != nil {
			log.Error("failed to load settings", "path", cfg.SettingsFile, "error", err)
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend := newCacheBackend(ctx, cfg, log)
	if backend != nil {
		defer backend.Close()
	}

	handler, err := newHandler(cfg, settings, backend, log)
	if err != nil {
		log.Error("failed to build handler", "error", err)
		os.Exit(1)
	}

	if err := serve(ctx, cfg, handler, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

// newCacheBackend picks Redis when REDIS_URL is set and reachable, memory
// otherwise. A zero CACHE_TTL disables result caching.
func newCacheBackend(ctx context.Context, cfg config.Config, log *slog.Logger) cache.Backend {
	if cfg.CacheTTL == 0 {
		return nil
	}
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedisCache(ctx, cfg.RedisURL, "content-insight:")
		if err == nil {
			log.Info("analysis cache initialized", "backend", "redis")
			return rc
		}
		log.Warn("redis connection failed, using memory cache", "error", err)
	}
	log.Info("analysis cache initialized", "backend", "memory")
	return cache.NewMemoryCache(cfg.CacheMaxEntries, time.Minute)
}

// newHandler wires the check suite, fetch pipeline and HTTP surface. A nil
// backend disables result caching.
func newHandler(cfg config.Config, settings config.Settings, backend cache.Backend, log *slog.Logger) (http.Handler, error) {
	registry, err := checks.NewRegistry(checks.Config{
		TitleMinLength:       cfg.TitleMinLength,
		TitleMaxLength:       cfg.TitleMaxLength,
		DescriptionMinLength: cfg.DescriptionMinLength,
		DescriptionMaxLength: cfg.DescriptionMaxLength,
		MinWordCount:         cfg.MinWordCount,
	})
	if err != nil {
		return nil, err
	}

	contentAnalyzer := analysis.NewAnalyzer(registry,
		analysis.WithEnablement(settings.Checks),
		analysis.WithLogger(log),
	)
	scorer := analysis.NewScoreEngine(analysis.Thresholds{
		Green:  cfg.ScoreGreenMin,
		Yellow: cfg.ScoreYellowMin,
	})

	clientOpts := []pageinsight.ClientOption{pageinsight.WithPrivateTargets(cfg.AllowPrivateTargets)}
	if cfg.FetchRatePerSecond > 0 {
		burst := max(int(cfg.FetchRatePerSecond), 1)
		clientOpts = append(clientOpts, pageinsight.WithRateLimit(rate.NewLimiter(rate.Limit(cfg.FetchRatePerSecond), burst)))
	}
	fetcher := pageinsight.NewHTTPClient(clientOpts...)

	engineOpts := []pageinsight.EngineOption{
		pageinsight.WithWeights(settings.Weights),
		pageinsight.WithPrivateTargetsAllowed(cfg.AllowPrivateTargets),
	}
	if cfg.LinkCheckEnabled {
		engineOpts = append(engineOpts, pageinsight.WithLinkProber(
			pageinsight.NewLinkChecker(cfg.LinkCheckConcurrency, cfg.AllowPrivateTargets),
		))
	}
	engine := pageinsight.NewEngine(fetcher, contentAnalyzer, scorer, engineOpts...)

	var provider analyzer.PageInsightProvider = engine
	if backend != nil {
		provider = analyzer.NewCachingProvider(engine, backend, cfg.CacheTTL, log)
	}

	batch := pageinsight.NewBatchRunner(provider, cfg.BatchConcurrency, cfg.BatchItemTimeout)
	service := analyzer.NewService(provider, batch, cfg.MaxBatchSize, log)

	mux := http.NewServeMux()
	analyzer.NewTransport(service, log).RegisterRoutes(mux)

	var limiter *rate.Limiter
	if cfg.RateLimitPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitPerSecond), max(cfg.RateLimitBurst, 1))
	}

	log.Info("content insight configured",
		"checks", registry.IDs(),
		"link_check", cfg.LinkCheckEnabled,
		"allow_private_targets", cfg.AllowPrivateTargets,
	)

	return middleware.RequestID(middleware.Logging(log)(middleware.RateLimit(limiter)(mux))), nil
}

// serve runs the HTTP server until ctx is cancelled, then drains in-flight
// requests for at most cfg.ShutdownTimeout.
func serve(ctx context.Context, cfg config.Config, handler http.Handler, log *slog.Logger) error {
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting API server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
