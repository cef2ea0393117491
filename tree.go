package bwalk

import (
	"context"
	"slices"
	"strings"

	"github.com/samber/lo"
)

// RouteKind tags the variant of a [Route].
type RouteKind int

const (
	RouteRoot RouteKind = iota
	RouteBranch
	RouteLeaf
	RouteNotFound
)

func (k RouteKind) String() string {
	switch k {
	case RouteRoot:
		return "root"
	case RouteBranch:
		return "branch"
	case RouteLeaf:
		return "leaf"
	case RouteNotFound:
		return "not-found"
	default:
		return "unknown"
	}
}

// Route is a node of an explicit dispatch tree. Trees are built once, before serving, and are
// then shared read-only by every connection.
type Route[T any] struct {
	kind     RouteKind
	segment  string
	name     string
	action   Action[T]
	children map[string]*Route[T]
	notFound Node[T]
}

// Root creates the root of a tree. The action may be nil.
func Root[T any](action Action[T], children ...*Route[T]) *Route[T] {
	r := &Route[T]{kind: RouteRoot, action: action}
	r.add(children...)

	return r
}

// Branch creates a node that matches segment and has children of its own.
func Branch[T any](segment string, action Action[T], children ...*Route[T]) *Route[T] {
	r := &Route[T]{kind: RouteBranch, segment: segment, action: action}
	r.add(children...)

	return r
}

// Leaf creates a node that matches segment and has no children: any further non-empty segment
// resolves to the not-found leaf. A leaf with the empty segment is the index of its parent.
func Leaf[T any](segment string, action Action[T]) *Route[T] {
	return &Route[T]{kind: RouteLeaf, segment: segment, action: action}
}

// Named names the route so its path can be looked up with [Reverse].
func (r *Route[T]) Named(name string) *Route[T] {
	r.name = name
	return r
}

// WithNotFound sets the node unmatched segments resolve to, for r and every descendant that has
// none set yet.
func (r *Route[T]) WithNotFound(n Node[T]) *Route[T] {
	r.notFound = n
	for _, c := range r.children {
		if c.notFound == nil {
			c.WithNotFound(n)
		}
	}

	return r
}

func (r *Route[T]) Kind() RouteKind { return r.kind }
func (r *Route[T]) Segment() string { return r.segment }
func (r *Route[T]) Name() string    { return r.name }

// Children returns the children of r ordered by segment.
func (r *Route[T]) Children() []*Route[T] {
	keys := lo.Keys(r.children)
	slices.Sort(keys)

	return lo.Map(keys, func(k string, _ int) *Route[T] { return r.children[k] })
}

// Action runs the action of the route, if it has one.
func (r *Route[T]) Action(ctx context.Context, req *Request[T], store Store, w ResponseWriter) error {
	if r.action == nil {
		return nil
	}

	return r.action(ctx, req, store, w)
}

// Resolve matches the front of remaining against the children of r. An empty segment without an
// explicit index child ends the walk. Any other unmatched segment resolves to the not-found leaf.
func (r *Route[T]) Resolve(remaining []string) (Node[T], bool) {
	if r.kind == RouteNotFound || len(remaining) == 0 {
		return nil, false
	}

	seg := remaining[0]
	if child, ok := r.children[seg]; ok {
		return child, true
	}

	if seg == "" {
		return nil, false
	}

	if r.notFound != nil {
		return r.notFound, true
	}

	return NotFound[T](), true
}

func (r *Route[T]) String() string {
	switch {
	case r.name != "":
		return r.kind.String() + ":" + r.name
	case r.kind == RouteRoot, r.kind == RouteNotFound:
		return r.kind.String()
	default:
		return r.kind.String() + ":" + r.segment
	}
}

func (r *Route[T]) add(children ...*Route[T]) {
	for _, c := range children {
		switch {
		case c.kind == RouteRoot || c.kind == RouteNotFound:
			panic("bwalk: cannot add a " + c.kind.String() + " route as a child")
		case strings.Contains(c.segment, "/"):
			panic("bwalk: segment " + quote(c.segment) + " contains a slash")
		case r.kind == RouteLeaf || r.kind == RouteNotFound:
			panic("bwalk: a " + r.kind.String() + " route cannot have children")
		}

		if _, exists := r.children[c.segment]; exists {
			panic("bwalk: duplicate segment " + quote(c.segment))
		}

		if r.children == nil {
			r.children = make(map[string]*Route[T], len(children))
		}

		if c.notFound == nil && r.notFound != nil {
			c.WithNotFound(r.notFound)
		}

		r.children[c.segment] = c
	}
}

var _ Node[any] = &Route[any]{}
