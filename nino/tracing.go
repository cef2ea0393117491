package nino

import (
	"context"
	"time"

	"github.com/aws-observability/aws-otel-go/exporters/xrayudp"
	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/contrib/propagators/aws/xray"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/fx"
)

const tracingInitTimeout = 5 * time.Second

// NewTracerProvider builds the provider that every connection and action span is started from.
// NINO_OTEL_EXPORTER picks where spans go: "stdout" (default), "xrayudp" (X-Ray daemon) or
// "none". The provider shuts down with the app.
func NewTracerProvider(lc fx.Lifecycle, env Environment) (trace.TracerProvider, error) {
	exporterType := env.otelExporter()
	if exporterType == "none" {
		return noop.NewTracerProvider(), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), tracingInitTimeout)
	defer cancel()

	exporter, err := newExporter(ctx, exporterType)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)),
		sdktrace.WithResource(newResource(env.serviceName())),
	)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return tp.Shutdown(ctx)
		},
	})

	return tp, nil
}

// NewPropagator reads the trace context that arrives in request headers. NINO_PROPAGATOR=xray
// understands X-Amzn-Trace-Id and is implied by the xrayudp exporter, anything else gets W3C
// traceparent plus baggage.
func NewPropagator(env Environment) (propagation.TextMapPropagator, error) {
	prop := env.propagator()
	if prop == "" && env.otelExporter() == "xrayudp" {
		prop = "xray"
	}

	switch prop {
	case "xray":
		return xray.Propagator{}, nil
	case "tracecontext", "":
		return propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		), nil
	default:
		return nil, errors.Errorf("unsupported NINO_PROPAGATOR: %q (supported: tracecontext, xray)", env.propagator())
	}
}

// newExporter never sees "none", NewTracerProvider handles it.
func newExporter(ctx context.Context, exporterType string) (sdktrace.SpanExporter, error) {
	switch exporterType {
	case "stdout", "":
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	case "xrayudp":
		return xrayudp.NewSpanExporter(ctx)
	default:
		return nil, errors.Errorf("unsupported NINO_OTEL_EXPORTER: %q (supported: stdout, xrayudp, none)", exporterType)
	}
}

func newResource(serviceName string) *resource.Resource {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
	)
}
