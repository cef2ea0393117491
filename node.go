package bwalk

import (
	"context"
	"net/http"
)

// Store is the shared handle to the relational store. It is owned by the caller: the router only
// passes it through to node actions, never closes it and leaves concurrent use to the store.
type Store interface {
	Exec(ctx context.Context, statement string, args ...any) error
}

// Action is the side effect of a node. It may use the store and may write a response to w.
type Action[T any] func(ctx context.Context, req *Request[T], store Store, w ResponseWriter) error

// Node is one step of the dispatch tree. Resolve receives the segments that are left to walk and
// returns the node to descend into, or false to end the walk with the current node. Resolve must
// only look at what it is given.
type Node[T any] interface {
	Action(ctx context.Context, req *Request[T], store Store, w ResponseWriter) error
	Resolve(remaining []string) (Node[T], bool)
}

// NotFoundBody is the body written by the canonical not-found leaf.
const NotFoundBody = "No endpoint available."

// NotFound returns the canonical not-found leaf. Its action writes a 404 response and it never
// resolves to another node.
func NotFound[T any]() *Route[T] {
	return &Route[T]{kind: RouteNotFound, action: respondNotFound[T]}
}

func respondNotFound[T any](_ context.Context, _ *Request[T], _ Store, w ResponseWriter) error {
	return Respond(w, http.StatusNotFound, NotFoundBody)
}
