package bwalk

import (
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

type routeEntry[T any] struct {
	path  string
	route *Route[T]
}

// Reverse returns the path of the route named name in the tree below root.
func Reverse[T any](root *Route[T], name string) (string, error) {
	named := lo.Filter(collect(root), func(e routeEntry[T], _ int) bool { return e.route.name != "" })
	paths := make(map[string]string, len(named))

	for _, e := range named {
		if _, exists := paths[e.route.name]; exists {
			return "", errors.Errorf("bwalk: route name %q is used more than once", e.route.name)
		}

		paths[e.route.name] = e.path
	}

	path, ok := paths[name]
	if !ok {
		names := lo.Keys(paths)
		slices.Sort(names)

		return "", errors.Errorf("bwalk: no route named %q, got: %v", name, names)
	}

	return path, nil
}

// Paths lists the path of every route in the tree below root, root included, in lexical order.
func Paths[T any](root *Route[T]) []string {
	paths := lo.Map(collect(root), func(e routeEntry[T], _ int) string { return e.path })
	slices.Sort(paths)

	return paths
}

func collect[T any](root *Route[T]) []routeEntry[T] {
	var entries []routeEntry[T]

	var visit func(r *Route[T], path string)
	visit = func(r *Route[T], path string) {
		entries = append(entries, routeEntry[T]{path: path, route: r})
		for _, c := range r.Children() {
			if path == "/" {
				visit(c, "/"+c.segment)
			} else {
				visit(c, path+"/"+c.segment)
			}
		}
	}
	visit(root, "/")

	return entries
}
