// Package observability wires an OpenTelemetry tracer provider, grounded on
// the teacher's pkg/observability/tracer.go. Only cmd/ai-gateway installs
// it; the worker binaries do not. Unlike the teacher, this package carries
// no metrics/Prometheus surface (nothing in this system's spec calls for one).
package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// TracerConfig carries the exporter parameters a binary's startup needs.
type TracerConfig struct {
	Enabled      bool
	EndpointURL  string
	SamplingRate float64
	ServiceName  string
}

// InitGlobalTracer installs a global TracerProvider exporting spans to an
// OTLP gRPC collector, or a no-op provider when tracing is disabled
// (spec.md §6: OTEL_EXPORTER_ENDPOINT, off by default in development).
func InitGlobalTracer(ctx context.Context, cfg TracerConfig) (trace.TracerProvider, error) {
	if !cfg.Enabled {
		return noop.NewTracerProvider(), nil
	}

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.EndpointURL),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("observability: create OTLP exporter: %w", err)
	}

	samplingRate := cfg.SamplingRate
	if samplingRate == 0 {
		samplingRate = 1.0
	}

	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(cfg.ServiceName)))
	if err != nil {
		return nil, fmt.Errorf("observability: build resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(samplingRate)),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	return tp, nil
}

// GetTracer returns a named tracer from the global provider.
func GetTracer(name string) trace.Tracer {
	return otel.Tracer(name)
}

// Shutdown flushes and stops an *sdktrace.TracerProvider returned by
// InitGlobalTracer. A no-op provider (tracing disabled) is ignored.
func Shutdown(ctx context.Context, tp trace.TracerProvider) error {
	if sdktp, ok := tp.(*sdktrace.TracerProvider); ok {
		return sdktp.Shutdown(ctx)
	}
	return nil
}
