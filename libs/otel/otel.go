// Package otelx sets up tracing and carries trace context through rows that
// outlive a request, such as outbox events.
package otelx

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/md-rashed-zaman/glamflow/libs/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

type Config struct {
	Enabled      bool
	ServiceName  string
	Environment  string
	OTLPEndpoint string // host:port, e.g. jaeger:4317
	SampleRatio  float64
}

// ConfigFromEnv enables export only when an OTLP endpoint is configured,
// unless OTEL_ENABLED says otherwise.
func ConfigFromEnv(serviceName string) Config {
	endpoint := config.String("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	return Config{
		Enabled:      config.Bool("OTEL_ENABLED", endpoint != "") && endpoint != "",
		ServiceName:  serviceName,
		Environment:  config.String("DEPLOYMENT_ENV", "development"),
		OTLPEndpoint: endpoint,
		SampleRatio:  sampleRatio(os.Getenv("OTEL_SAMPLING_RATIO")),
	}
}

func sampleRatio(raw string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || f < 0 || f > 1 {
		return 1
	}
	return f
}

// Setup configures the global tracer provider and propagators. Propagators
// are installed even when export is disabled so trace headers still flow.
// Call the returned shutdown func during graceful shutdown.
func Setup(ctx context.Context, cfg Config) (func(context.Context) error, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	exp, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
		otlptracegrpc.WithInsecure(),
		otlptracegrpc.WithTimeout(3*time.Second),
	)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			attribute.String("deployment.environment", cfg.Environment),
		),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

// TraceContext is the W3C trace context stored next to an outbox event.
type TraceContext struct {
	Parent string
	State  string
}

// CaptureTraceContext records the trace context active in ctx.
func CaptureTraceContext(ctx context.Context) TraceContext {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	return TraceContext{Parent: carrier["traceparent"], State: carrier["tracestate"]}
}

// Into returns ctx continuing the captured trace. An empty TraceContext
// leaves ctx untouched.
func (tc TraceContext) Into(ctx context.Context) context.Context {
	if tc.Parent == "" && tc.State == "" {
		return ctx
	}
	carrier := propagation.MapCarrier{
		"traceparent": tc.Parent,
		"tracestate":  tc.State,
	}
	return otel.GetTextMapPropagator().Extract(ctx, carrier)
}
