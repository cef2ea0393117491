package bwalk

import "strings"

// Segments splits a request path into the sequence the router walks. One leading slash is
// stripped and the rest is split on "/". The root path yields a single empty segment, which
// resolvers treat as the index of the node they belong to.
func Segments(path string) []string {
	return strings.Split(strings.TrimPrefix(path, "/"), "/")
}
