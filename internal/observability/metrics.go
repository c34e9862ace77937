package observability

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/ruphautomations/ruphctl/internal/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/resource"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

type appMetrics struct {
	apiRequestCounter  metric.Int64Counter
	relayToggleCounter metric.Int64Counter
	tokenRotateCounter metric.Int64Counter
}

var (
	metricsMu sync.RWMutex
	metrics   *appMetrics
)

func InitMetrics(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sdkmetric.MeterProvider, error) {
	if !cfg.TelemetryEnabled {
		mp := sdkmetric.NewMeterProvider()
		otel.SetMeterProvider(mp)
		return mp, nil
	}

	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint)}
	if cfg.OTLPInsecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create otlp metric exporter: %w", err)
	}

	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create metric resource: %w", err)
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.MetricsExportInterval))
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	otel.SetMeterProvider(mp)

	meter := mp.Meter(cfg.ServiceName)
	apiCounter, err := meter.Int64Counter("api.client.requests")
	if err != nil {
		return nil, err
	}
	relayCounter, err := meter.Int64Counter("relay.toggle.attempts")
	if err != nil {
		return nil, err
	}
	rotateCounter, err := meter.Int64Counter("session.token.rotations")
	if err != nil {
		return nil, err
	}

	metricsMu.Lock()
	metrics = &appMetrics{
		apiRequestCounter:  apiCounter,
		relayToggleCounter: relayCounter,
		tokenRotateCounter: rotateCounter,
	}
	metricsMu.Unlock()

	logger.Info("otel metrics initialized", "endpoint", cfg.OTLPEndpoint)
	return mp, nil
}

func newResource(ctx context.Context, cfg *config.Config) (*resource.Resource, error) {
	return resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", cfg.ServiceName),
			attribute.String("deployment.environment", cfg.Environment),
		),
	)
}

// RecordAPIRequest counts one backend call by operation, outcome and HTTP
// status class.
func RecordAPIRequest(op, outcome, statusClass string) {
	metricsMu.RLock()
	m := metrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.apiRequestCounter.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String("operation", op),
			attribute.String("outcome", outcome),
			attribute.String("status_class", statusClass),
		),
	)
}

// RecordRelayToggle counts one circuit toggle attempt.
func RecordRelayToggle(circuit int, outcome string) {
	metricsMu.RLock()
	m := metrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.relayToggleCounter.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String("circuit", strconv.Itoa(circuit)),
			attribute.String("outcome", outcome),
		),
	)
}

// RecordTokenRotation counts one opportunistic token-pair persist.
func RecordTokenRotation(outcome string) {
	metricsMu.RLock()
	m := metrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.tokenRotateCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("outcome", outcome)),
	)
}
