// Package example implements example middleware in an outside package.
package example

import (
	"context"
	"log/slog"

	"github.com/advdv/bwalk"
)

// ctxKey type scopes middleware values.
type ctxKey string

// Middleware provides an example for middleware that adds a logger to the context of every
// action, scoped to the method of the request and the hop of the walk.
func Middleware[T any](logs *slog.Logger) bwalk.Middleware[T] {
	return func(next bwalk.Action[T]) bwalk.Action[T] {
		return func(ctx context.Context, r *bwalk.Request[T], s bwalk.Store, w bwalk.ResponseWriter) error {
			logs := logs.With(slog.String("method", string(r.Method())))
			if hop, ok := bwalk.HopFromContext(ctx); ok {
				logs = logs.With(slog.String("hop", hop.Path))
			}

			return next(context.WithValue(ctx, ctxKey("slog"), logs), r, s, w)
		}
	}
}

func Log(ctx context.Context) *slog.Logger {
	v, _ := ctx.Value(ctxKey("slog")).(*slog.Logger)

	return v
}
