package nino

import (
	"context"

	"github.com/advdv/bwalk"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type ctxKey int

const (
	ctxKeyRequestDep ctxKey = iota
)

// requestDep is what every action can reach through its context.
type requestDep struct {
	logger *zap.Logger
}

// withRequestDep injects dependencies into the context of every node action.
func withRequestDep(d *requestDep) bwalk.Middleware[Body] {
	return func(next bwalk.Action[Body]) bwalk.Action[Body] {
		return func(ctx context.Context, r *bwalk.Request[Body], s bwalk.Store, w bwalk.ResponseWriter) error {
			return next(context.WithValue(ctx, ctxKeyRequestDep, d), r, s, w)
		}
	}
}

func requestDepFromContext(ctx context.Context) *requestDep {
	d, ok := ctx.Value(ctxKeyRequestDep).(*requestDep)
	if !ok {
		panic("nino: requestDep not found in context; is the middleware configured?")
	}
	return d
}

// Log returns a zap logger from the context, correlated with the connection, the hop of the walk
// and the trace.
func Log(ctx context.Context) *zap.Logger {
	d := requestDepFromContext(ctx)

	fields := traceFields(ctx)
	if id := bwalk.ConnID(ctx); id != "" {
		fields = append(fields, zap.String("conn_id", id))
	}

	if hop, ok := bwalk.HopFromContext(ctx); ok {
		fields = append(fields, zap.String("hop", hop.Path))
	}

	return d.logger.With(fields...)
}

// Span is the span of the action that is running.
func Span(ctx context.Context) trace.Span {
	return trace.SpanFromContext(ctx)
}

// traceFields is empty when ctx carries no valid span.
func traceFields(ctx context.Context) []zap.Field {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return nil
	}
	sc := span.SpanContext()
	return []zap.Field{
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	}
}
