package bwalk

// Mount grafts sub below r at the given path prefix. Missing intermediate segments become
// branches without an action. The last segment of the prefix replaces the segment of sub and a
// mounted root becomes a branch, so its action runs when the walk passes through it.
func (r *Route[T]) Mount(prefix string, sub *Route[T]) *Route[T] {
	segs := Segments(prefix)
	if len(segs) == 1 && segs[0] == "" {
		panic("bwalk: cannot mount on the root path")
	}

	parent := r
	for _, seg := range segs[:len(segs)-1] {
		child, ok := parent.children[seg]
		if !ok {
			child = Branch[T](seg, nil)
			parent.add(child)
		}

		parent = child
	}

	if sub.kind == RouteRoot {
		sub.kind = RouteBranch
	}

	sub.segment = segs[len(segs)-1]
	parent.add(sub)

	return r
}
