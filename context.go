package bwalk

import "context"

type ctxKey int

const (
	ctxKeyConnID ctxKey = iota
	ctxKeyHop
)

// Hop describes where the walk is while a node action runs.
type Hop struct {
	// Path is made of the segments consumed to reach the node, "/" for the root.
	Path string
	// Depth is the number of segments consumed to reach the node.
	Depth int
	// Node describes the node, see [Route.String].
	Node string
}

// HopFromContext returns the hop of the action that is running with ctx.
func HopFromContext(ctx context.Context) (Hop, bool) {
	h, ok := ctx.Value(ctxKeyHop).(Hop)
	return h, ok
}

// ConnID returns the id the server assigned to the connection being served, or the empty string.
func ConnID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyConnID).(string)
	return id
}

func withConnID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyConnID, id)
}

func withHop(ctx context.Context, h Hop) context.Context {
	return context.WithValue(ctx, ctxKeyHop, h)
}
