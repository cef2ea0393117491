package bwalk

import (
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// Walker walks dispatch trees. The zero value is ready to use.
type Walker[T any] struct {
	// Middleware wraps the action of every node the walk passes through.
	Middleware []Middleware[T]

	// LegacyHops selects the older hop accounting: the front segment is consumed before the
	// resolver is consulted, so the resolver sees what is left after it, and a node resolved
	// once no segment is left does not get its action run unless it is the not-found leaf. A
	// consumed empty segment that was the last one ends the walk. By default the resolver
	// matches the front segment, which is consumed when the walk descends, and the node reached
	// with the last segment still runs its action.
	//
	// Only nodes written against this accounting can be walked with it. A [Route] resolves on
	// the front segment, so route trees are rejected.
	LegacyHops bool
}

// Walk walks the tree below root with the default [Walker].
func Walk[T any](
	ctx context.Context, root Node[T], req *Request[T], store Store, w ResponseWriter, segments []string,
) (Node[T], error) {
	var wk Walker[T]
	return wk.Walk(ctx, root, req, store, w, segments)
}

// Walk runs the action of root and descends one segment at a time until the segments run out or
// a resolver ends the walk. It returns the last node whose action ran. Segments are never
// modified: the walk only advances an index into them, so a walk takes at most
// len(segments)+1 steps. An action error ends the walk as a [DispatchError]; actions that ran
// before it are not compensated.
func (wk *Walker[T]) Walk(
	ctx context.Context, root Node[T], req *Request[T], store Store, w ResponseWriter, segments []string,
) (Node[T], error) {
	if _, ok := root.(*Route[T]); ok && wk.LegacyHops {
		return root, newDispatchError("/", "legacy hop accounting cannot walk a route tree", errRouteLegacyHops)
	}

	node, i := root, 0

	for {
		hop := Hop{Path: "/" + strings.Join(segments[:i], "/"), Depth: i, Node: describe(node)}

		act := Wrap(node.Action, wk.Middleware...)
		if err := act(withHop(ctx, hop), req, store, w); err != nil {
			return node, newDispatchError(hop.Path, "action of "+hop.Node+" failed", err)
		}

		if i >= len(segments) {
			return node, nil
		}

		if wk.LegacyHops {
			i++
			if i >= len(segments) && segments[i-1] == "" {
				return node, nil
			}
		}

		next, ok := node.Resolve(segments[i:])
		if !ok || next == nil {
			return node, nil
		}

		if !wk.LegacyHops {
			i++
		} else if i >= len(segments) && !isNotFound(next) {
			return node, nil
		}

		node = next
	}
}

var errRouteLegacyHops = errors.New("route trees resolve on the front segment")

func isNotFound[T any](n Node[T]) bool {
	r, ok := n.(*Route[T])
	return ok && r.kind == RouteNotFound
}

func describe(n any) string {
	if s, ok := n.(fmt.Stringer); ok {
		return s.String()
	}

	return fmt.Sprintf("%T", n)
}
