package observability

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mswierczewski/socialwall/internal/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

type AppMetrics struct {
	signInCounter          metric.Int64Counter
	signUpCounter          metric.Int64Counter
	signOutCounter         metric.Int64Counter
	tokenValidationCounter metric.Int64Counter
	repositoryOpCounter    metric.Int64Counter
}

var (
	metricsMu  sync.RWMutex
	appMetrics *AppMetrics
)

func InitMetrics(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sdkmetric.MeterProvider, error) {
	if !cfg.OTELMetricsEnabled {
		mp := sdkmetric.NewMeterProvider()
		otel.SetMeterProvider(mp)
		logger.Info("otel metrics disabled")
		return mp, nil
	}

	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.OTELExporterOTLPEndpoint)}
	if cfg.OTELExporterOTLPInsecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create otlp metric exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", cfg.OTELServiceName),
			attribute.String("deployment.environment", cfg.OTELEnvironment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create metric resource: %w", err)
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.OTELMetricsExportInterval))
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	otel.SetMeterProvider(mp)

	meter := mp.Meter("socialwall")
	signInCounter, err := meter.Int64Counter("auth.signin.attempts")
	if err != nil {
		return nil, err
	}
	signUpCounter, err := meter.Int64Counter("auth.signup.attempts")
	if err != nil {
		return nil, err
	}
	signOutCounter, err := meter.Int64Counter("auth.signout.attempts")
	if err != nil {
		return nil, err
	}
	tokenValidationCounter, err := meter.Int64Counter("session.token.validations")
	if err != nil {
		return nil, err
	}
	repositoryOpCounter, err := meter.Int64Counter("repository.operations")
	if err != nil {
		return nil, err
	}

	metricsMu.Lock()
	appMetrics = &AppMetrics{
		signInCounter:          signInCounter,
		signUpCounter:          signUpCounter,
		signOutCounter:         signOutCounter,
		tokenValidationCounter: tokenValidationCounter,
		repositoryOpCounter:    repositoryOpCounter,
	}
	metricsMu.Unlock()

	logger.Info("otel metrics initialized", "endpoint", cfg.OTELExporterOTLPEndpoint)
	return mp, nil
}

func load() *AppMetrics {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	return appMetrics
}

func RecordSignIn(status string) {
	m := load()
	if m == nil {
		return
	}
	m.signInCounter.Add(context.Background(), 1, metric.WithAttributes(attribute.String("status", status)))
}

func RecordSignUp(status string) {
	m := load()
	if m == nil {
		return
	}
	m.signUpCounter.Add(context.Background(), 1, metric.WithAttributes(attribute.String("status", status)))
}

// RecordSignOut scope is "one" or "all_devices".
func RecordSignOut(scope, status string) {
	m := load()
	if m == nil {
		return
	}
	m.signOutCounter.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String("scope", scope),
			attribute.String("status", status),
		),
	)
}

// RecordTokenValidation outcome names the first failed check (malformed,
// revoked, principal_not_found, fingerprint_mismatch) or "valid". This is
// where failure kinds stay distinguishable; clients only ever see 401.
func RecordTokenValidation(ctx context.Context, outcome string) {
	m := load()
	if m == nil {
		return
	}
	m.tokenValidationCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func RecordRepositoryOperation(ctx context.Context, entity, operation, outcome string) {
	m := load()
	if m == nil {
		return
	}
	m.repositoryOpCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("entity", entity),
			attribute.String("operation", operation),
			attribute.String("outcome", outcome),
		),
	)
}
