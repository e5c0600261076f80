// cmd/listing-server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"listing-generator/internal/common/camunda"
	"listing-generator/internal/common/config"
	"listing-generator/internal/common/database"
	"listing-generator/internal/common/logger"
	"listing-generator/internal/common/observability"
	"listing-generator/internal/generator"
	"listing-generator/internal/listing"
	"listing-generator/internal/session"
	"listing-generator/internal/web"
	gl "listing-generator/internal/workers/listing/generate-listing"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(ctx context.Context, operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "listing-server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer func() { _ = zapLog.Sync() }()
	log := logger.NewZapAdapter(zapLog).With(map[string]interface{}{
		"service": cfg.App.Name,
		"env":     cfg.App.Environment,
	})

	zapLog.Info("Starting listing server...", zap.String("version", cfg.App.Version))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		zapLog.Warn("otel metrics disabled", zap.Error(err))
	}
	defer obs.Shutdown()

	// --- Init Redis with retry ---
	var rdb *database.RedisClient
	err = retryWithBackoff(ctx, func() error {
		var err error
		rdb, err = database.NewRedis(ctx, cfg.Redis)
		return err
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		return err
	}
	defer rdb.Close()
	zapLog.Info("Redis connected successfully", zap.String("address", cfg.Redis.Address))

	gen := generator.NewClient(generator.Config{
		BaseURL: cfg.Generator.BaseURL,
		Path:    cfg.Generator.Path,
		Timeout: config.GetDuration(cfg.Generator.Timeout),
	}, log, generator.WithRecorder(obs))

	store := session.NewRedisStore(rdb.Client, session.Options{
		KeyPrefix:     cfg.Session.KeyPrefix,
		TTL:           config.GetSeconds(cfg.Session.TTL),
		SubmitLockTTL: config.GetSeconds(cfg.Session.SubmitLockTTL),
	})

	svc := listing.NewService(&listing.Config{
		ProgressInterval:     config.GetDuration(cfg.Listing.ProgressInterval),
		ClearResultOnFailure: cfg.Listing.ClearResultOnFailure,
	}, gen, store, log)
	defer svc.Close()

	// --- Optional Zeebe worker ---
	var worker *gl.Handler
	if cfg.Camunda.Enabled && config.IsWorkerEnabled(cfg, gl.ConfigKey) {
		var zeebe *camunda.Client
		err = retryWithBackoff(ctx, func() error {
			var err error
			zeebe, err = camunda.NewClient(ctx, camunda.ConfigFromApp(cfg.Camunda))
			return err
		}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
		if err != nil {
			return err
		}
		defer zeebe.Close()

		worker, err = gl.NewHandler(gl.HandlerOptions{
			AppConfig: cfg,
			Camunda:   zeebe,
			Generator: gen,
			Logger:    log,
		})
		if err != nil {
			return fmt.Errorf("failed to create %s handler: %w", gl.ConfigKey, err)
		}
		if err := worker.Register(); err != nil {
			return err
		}
		defer worker.Close()
	}

	ready := func(ctx context.Context) error {
		if err := rdb.Ping(ctx); err != nil {
			return err
		}
		if worker != nil {
			return worker.HealthCheck(ctx)
		}
		return nil
	}

	srv, err := web.NewServer(svc, log, web.Options{
		CookieName:      cfg.Session.CookieName,
		SecureCookies:   cfg.Server.SecureCookies,
		RefreshInterval: config.GetSeconds(cfg.Server.RefreshInterval),
		Ready:           ready,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      srv.Handler(),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		zapLog.Info("Shutdown signal received, stopping server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	zapLog.Info("Listing server stopped gracefully")
	return nil
}
