// cmd/price-server/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"house-price-api/internal/common/config"
	"house-price-api/internal/common/database"
	apphttp "house-price-api/internal/common/http"
	"house-price-api/internal/common/logger"
	"house-price-api/internal/common/metrics"
	"house-price-api/internal/common/observability"
	"house-price-api/internal/common/validation"
	pp "house-price-api/internal/endpoints/prediction/predict-price"
	hc "house-price-api/internal/endpoints/system/health-check"
	si "house-price-api/internal/endpoints/system/service-info"
	"house-price-api/internal/features"
	"house-price-api/internal/model"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
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
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// routes holds everything the mux needs.
type routes struct {
	predict *pp.Handler
	health  *hc.Handler
}

func newMux(r routes) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc(si.Route, si.Handler)
	mux.Handle(pp.Route, r.predict)
	r.health.Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

func main() {
	configPath := flag.String("config", "", "path to a config file (default: configs/config.yaml)")
	flag.Parse()

	var (
		cfg *config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.LoadFromFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		zap.NewExample().Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting price server...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(observability.Options{
		ServiceName:    cfg.Observability.ServiceName,
		MetricsEnabled: cfg.Observability.MetricsEnabled,
		JaegerEndpoint: cfg.Observability.JaegerEndpoint,
	}, log)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Model: a load failure is reported on /health, not fatal ---
	handle := model.Load(cfg.Model.Type, cfg.Model.Path, features.HousePrice)
	if handle.Ready() {
		info := handle.Info()
		metrics.ModelLoaded.Set(1)
		zapLog.Info("Model loaded",
			zap.String("path", info.Path),
			zap.String("modelType", info.ModelType),
			zap.String("version", info.Version),
			zap.String("digest", info.Digest),
		)
	} else {
		metrics.ModelLoaded.Set(0)
		zapLog.Error("Model failed to load", zap.String("path", cfg.Model.Path), zap.Error(handle.Err()))
	}

	deps := pp.ServiceDependencies{
		Model:         handle,
		Logger:        log,
		Observability: obs,
	}

	// --- Optional Redis prediction cache ---
	if cfg.Cache.Enabled {
		var rc *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			rc, err = database.NewRedis(cfg.Cache)
			if err != nil {
				return err
			}
			return rc.Ping(ctx)
		}, 5, time.Second, zapLog, "Redis connection")

		if err != nil {
			zapLog.Error("prediction cache disabled", zap.Error(err))
		} else {
			defer rc.Close()
			deps.Cache = database.NewPredictionCache(rc.Client, cfg.Cache.Prefix, handle.Info().ID(), time.Duration(cfg.Cache.TTL)*time.Second)
			zapLog.Info("Redis connected successfully")
		}
	}

	// --- Optional PostgreSQL audit log ---
	if cfg.Audit.Enabled {
		var pg *database.PostgresClient
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Audit.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 5, 2*time.Second, zapLog, "PostgreSQL connection")

		if err != nil {
			zapLog.Error("prediction audit disabled", zap.Error(err))
		} else {
			defer pg.Close()
			audit := database.NewAuditLog(pg.DB)
			if err := audit.EnsureSchema(ctx); err != nil {
				zapLog.Error("prediction audit disabled", zap.Error(err))
			} else {
				deps.Audit = audit
				zapLog.Info("PostgreSQL connected successfully")
			}
		}
	}

	// --- Strict policy validates records against the JSON schema ---
	if features.ParseMissingPolicy(cfg.Features.MissingPolicy) == features.Strict {
		v, err := validation.NewRecordValidator(features.HousePrice.Names, false)
		if err != nil {
			zapLog.Fatal("feature schema failed to compile", zap.Error(err))
		}
		deps.Validator = v
	}

	predict, err := pp.NewHandler(pp.HandlerOptions{AppConfig: cfg, Deps: deps})
	if err != nil {
		zapLog.Fatal("failed to create predict-price handler", zap.Error(err))
	}

	mux := newMux(routes{
		predict: predict,
		health:  hc.NewHandler(handle, log),
	})
	server := apphttp.NewServer(cfg.Server, mux, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		zapLog.Info("Shutdown signal received, draining requests...", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			zapLog.Error("HTTP server failed", zap.Error(err))
		}
	}

	if err := server.Stop(ctx); err != nil {
		zapLog.Error("Error stopping HTTP server", zap.Error(err))
	}
	zapLog.Info("Price server stopped gracefully")
}
