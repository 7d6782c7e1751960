// Command flow-demo serves a small application exercising the framework:
// route params, mounting, trust-proxy derivations, conditional caching, and
// the full middleware stack, with a separate metrics listener.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/flow"
	"github.com/kjstillabower/flow/internal/config"
	"github.com/kjstillabower/flow/middleware/accesslog"
	"github.com/kjstillabower/flow/middleware/cors"
	"github.com/kjstillabower/flow/middleware/inflight"
	"github.com/kjstillabower/flow/middleware/metrics"
	"github.com/kjstillabower/flow/middleware/ratelimit"
	"github.com/kjstillabower/flow/middleware/recovery"
	"github.com/kjstillabower/flow/middleware/requestid"
	"github.com/kjstillabower/flow/middleware/rescache"
	"github.com/kjstillabower/flow/middleware/timeout"
)

func main() {
	logger, err := newLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	app := flow.New()
	app.Logger = logger
	app.SubdomainOffset = cfg.SubdomainOffset
	app.ETag = cfg.ETag()
	trust, err := cfg.TrustPolicy()
	if err != nil {
		logger.Fatal("trust policy", zap.Error(err))
	}
	app.TrustProxy = trust

	mw := metrics.New()
	tracker := &inflight.Tracker{}
	app.Use(requestid.Middleware)
	app.Use(recovery.Middleware(logger))
	app.Use(accesslog.Middleware(logger))
	app.Use(mw.Middleware)
	app.Use(tracker.Middleware)
	app.Use(cors.Default())
	app.Use(timeout.Middleware(cfg.RequestTimeout))

	if cfg.RateLimitRPS > 0 {
		limiter := rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
		app.Use(ratelimit.Middleware(limiter))
		logger.Info("rate limiting enabled", zap.Int("rps", cfg.RateLimitRPS), zap.Int("burst", cfg.RateLimitBurst))
	}

	var memcached *rescache.MemcachedStore
	switch cfg.CacheBackend {
	case "memory":
		app.Use(rescache.Middleware(rescache.NewMemoryStore(), cfg.CacheTTL))
		logger.Info("response cache: memory", zap.Duration("ttl", cfg.CacheTTL))
	case "memcached":
		memcached, err = rescache.NewMemcachedStore(cfg.MemcachedAddrs, cfg.MemcachedTimeout, cfg.MemcachedMaxIdleConns)
		if err != nil {
			logger.Fatal("memcached store", zap.Error(err))
		}
		app.Use(rescache.Middleware(memcached, cfg.CacheTTL))
		logger.Info("response cache: memcached", zap.String("addrs", cfg.MemcachedAddrs))
	}

	registerRoutes(app, memcached)

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      app,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	metricsSrv := &http.Server{
		Addr:    cfg.MetricsAddr,
		Handler: mw.Handler(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server starting", zap.String("addr", cfg.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("metrics listener starting", zap.String("addr", cfg.MetricsAddr))
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("graceful shutdown triggered")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", zap.Error(err))
		}
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown", zap.Error(err))
		}
		logger.Info("waiting for in-flight requests", zap.Int64("count", tracker.Count()))
		drainCtx, drainCancel := context.WithTimeout(context.Background(), cfg.DrainTimeout)
		defer drainCancel()
		if err := tracker.Wait(drainCtx, 100*time.Millisecond); err != nil {
			logger.Warn("in-flight requests not completed", zap.Error(err), zap.Int64("remaining", tracker.Count()))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("serve", zap.Error(err))
	}
	if memcached != nil {
		if err := memcached.Close(); err != nil {
			logger.Error("memcached close", zap.Error(err))
		}
	}
	logger.Info("shutdown complete")
}

func registerRoutes(app *flow.App, memcached *rescache.MemcachedStore) {
	app.Get("/health", func(c *flow.Ctx) {
		status := "healthy"
		if memcached != nil {
			if err := memcached.Ping(); err != nil {
				status = "degraded"
				c.Status(http.StatusServiceUnavailable)
			}
		}
		_ = c.JSON(map[string]string{"status": status})
	})

	app.Get("/greet/:name", func(c *flow.Ctx) {
		_ = c.Send("hello " + c.Param("name"))
	})

	// Echoes every derived request property; handy behind a reverse proxy to
	// verify the trust configuration.
	app.Get("/whoami", func(c *flow.Ctx) {
		_ = c.JSON(map[string]any{
			"ip":         c.IP(),
			"ips":        c.IPs(),
			"protocol":   c.Protocol(),
			"secure":     c.Secure(),
			"hostname":   c.Hostname(),
			"subdomains": c.Subdomains(),
			"path":       c.Path(),
			"query":      c.Query(),
		})
	})

	admin := flow.New()
	admin.Get("/info", func(c *flow.Ctx) {
		_ = c.JSON(map[string]string{
			"path":     c.Path(),
			"base":     c.BaseURL(),
			"original": c.OriginalURL(),
		})
	})
	app.Mount("/admin", admin)
}

func newLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Level = parseLogLevel(os.Getenv("LOG_LEVEL"))
	return cfg.Build()
}

func parseLogLevel(s string) zap.AtomicLevel {
	switch s {
	case "DEBUG", "debug":
		return zap.NewAtomicLevelAt(zap.DebugLevel)
	case "WARN", "warn":
		return zap.NewAtomicLevelAt(zap.WarnLevel)
	case "ERROR", "error":
		return zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		return zap.NewAtomicLevelAt(zap.InfoLevel)
	}
}
