package bwalk_test

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/advdv/bwalk"
	"github.com/advdv/bwalk/internal/example"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapOrder(t *testing.T) {
	var res string
	inner := bwalk.Action[any](func(context.Context, *bwalk.Request[any], bwalk.Store, bwalk.ResponseWriter) error {
		res += "inner"
		return nil
	})

	mw := func(name string) bwalk.Middleware[any] {
		return func(next bwalk.Action[any]) bwalk.Action[any] {
			return func(ctx context.Context, r *bwalk.Request[any], s bwalk.Store, w bwalk.ResponseWriter) error {
				res += name + "("
				err := next(ctx, r, s, w)
				res += ")"

				return err
			}
		}
	}

	require.Equal(t, fmt.Sprint(inner), fmt.Sprint(bwalk.Wrap(inner))) // compare addrs

	require.NoError(t, bwalk.Wrap(inner, mw("1"), mw("2"))(t.Context(), nil, nil, nil))
	assert.Equal(t, "1(2(inner))", res)
}

func TestWalkerMiddlewareSeesHops(t *testing.T) {
	var hops []bwalk.Hop
	record := func(next bwalk.Action[any]) bwalk.Action[any] {
		return func(ctx context.Context, r *bwalk.Request[any], s bwalk.Store, w bwalk.ResponseWriter) error {
			hop, ok := bwalk.HopFromContext(ctx)
			require.True(t, ok)
			hops = append(hops, hop)

			return next(ctx, r, s, w)
		}
	}

	var tr trail
	_, _, err := walk(t, &bwalk.Walker[any]{Middleware: []bwalk.Middleware[any]{record}}, testTree(&tr), "project", "add")
	require.NoError(t, err)

	assert.Equal(t, []bwalk.Hop{
		{Path: "/", Depth: 0, Node: "root"},
		{Path: "/project", Depth: 1, Node: "branch:project"},
		{Path: "/project/add", Depth: 2, Node: "leaf:project_add"},
	}, hops)
	assert.Equal(t, []string{"root", "project", "add"}, []string(tr))
}

func TestHopFromContextWithoutWalk(t *testing.T) {
	_, ok := bwalk.HopFromContext(t.Context())
	assert.False(t, ok)
	assert.Empty(t, bwalk.ConnID(t.Context()))
}

func TestOutsideMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logs := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	}))

	root := bwalk.Root(func(ctx context.Context, _ *bwalk.Request[any], _ bwalk.Store, _ bwalk.ResponseWriter) error {
		example.Log(ctx).Info("visited")
		return nil
	}, bwalk.Leaf("hey", func(ctx context.Context, _ *bwalk.Request[any], _ bwalk.Store, _ bwalk.ResponseWriter) error {
		example.Log(ctx).Info("visited")
		return nil
	}))

	wk := &bwalk.Walker[any]{Middleware: []bwalk.Middleware[any]{example.Middleware[any](logs)}}
	_, _, err := walk(t, wk, root, "hey")
	require.NoError(t, err)

	assert.Equal(t, "level=INFO msg=visited method=GET hop=/\n"+
		"level=INFO msg=visited method=GET hop=/hey\n", buf.String())
	assert.Nil(t, example.Log(t.Context()))
}
