package observability

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ruphautomations/ruphctl/internal/config"

	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Runtime owns the telemetry providers and the application logger. With
// telemetry disabled (the default for an end-user client) the providers are
// no-ops and the logger writes text to stderr.
type Runtime struct {
	Logger         *slog.Logger
	LoggerProvider *sdklog.LoggerProvider
	MeterProvider  *sdkmetric.MeterProvider
	TracerProvider *sdktrace.TracerProvider
}

// NewRuntime initializes logging, metrics and tracing. The returned cleanup
// flushes and shuts everything down; it is safe to call exactly once.
func NewRuntime(ctx context.Context, cfg *config.Config) (*Runtime, func(), error) {
	logger, lp, err := InitLogging(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	mp, err := InitMetrics(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	tp, err := InitTracing(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	rt := &Runtime{Logger: logger, LoggerProvider: lp, MeterProvider: mp, TracerProvider: tp}
	cleanup := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rt.Shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown", "error", err)
		}
	}
	return rt, cleanup, nil
}

func (r *Runtime) Shutdown(ctx context.Context) error {
	if r == nil {
		return nil
	}
	var errs []error
	if r.MeterProvider != nil {
		if err := r.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if r.TracerProvider != nil {
		if err := r.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if r.LoggerProvider != nil {
		if err := r.LoggerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
