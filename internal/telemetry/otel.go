// Package telemetry configures OpenTelemetry tracing for the service.
package telemetry

import (
	"context"
	"fmt"

	"github.com/benvon/smart-auth/internal/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.20.0"
	"go.uber.org/zap"
)

const (
	// ServiceName is reported as service.name on every span
	ServiceName = "smart-auth"
	// DefaultEndpoint is the OTLP/HTTP collector used when none is configured
	DefaultEndpoint = "localhost:4318"
)

// Setup installs a tracer provider when tracing is enabled in cfg.
// It returns nil when tracing is disabled; Shutdown accepts that.
func Setup(ctx context.Context, cfg *config.Config, log *zap.Logger) (*sdktrace.TracerProvider, error) {
	if !cfg.OTELEnabled {
		log.Info("tracing_disabled")
		return nil, nil
	}

	endpoint := cfg.OTELEndpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	tp, err := InitTracer(ctx, ServiceName, endpoint)
	if err != nil {
		return nil, err
	}
	log.Info("tracing_enabled", zap.String("endpoint", endpoint))
	return tp, nil
}

// InitTracer initializes the OpenTelemetry tracer provider
func InitTracer(ctx context.Context, serviceName, endpoint string) (*sdktrace.TracerProvider, error) {
	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(), // collector runs as a local sidecar
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tp, nil
}

// Shutdown flushes and stops the tracer provider
func Shutdown(ctx context.Context, tp *sdktrace.TracerProvider) error {
	if tp == nil {
		return nil
	}
	return tp.Shutdown(ctx)
}
