// Package bwalk serves requests over raw TCP connections by walking a tree of dispatch nodes one
// path segment at a time, running the action of every node it passes.
//
// # Overview
//
// A connection carries exactly one request. The [Server] reads it with a single read, parses it
// with the wire codec, splits its path into segments and walks the dispatch tree with them.
// Every node on the way gets to run its action against the request, the shared [Store] and the
// output stream. The connection is closed when the walk ends.
//
//	root := bwalk.Root(logRequest,
//	    bwalk.Branch("project", nil,
//	        bwalk.Leaf("add", addProject).Named("project_add"),
//	    ),
//	)
//
//	srv := bwalk.NewServer[json.RawMessage](root, store)
//	err := srv.Serve(ctx, ln)
//
// # Wire Codec
//
// [ParseRequest] understands a small subset of HTTP/1.x: a request line, header lines and, for
// POST requests only, a JSON body that is decoded into the body type T of the [Request]. A body
// that fails to decode leaves the zero value of T. Requests are never reassembled from more than
// one read, see [ReadRequest].
//
// Responses are written with [Respond] (or [WriteResponse]). They consist of a "HTTP/1.1 <code>"
// status line, the headers in sorted order and a JSON body. No Content-Length or Content-Type
// header is added.
//
// # Dispatch Tree
//
// Trees are built from [Route] values with [Root], [Branch] and [Leaf], they are built once and
// shared by all connections. Sub-trees can be grafted with [Route.Mount] and named routes looked
// up with [Reverse].
//
// The walk runs the action of the root, then asks the node's resolver for the node that matches
// the next segment, consumes that segment and repeats. For N segments that all match, N+1
// actions run. An empty segment without an index child (a leaf with the empty segment) ends the
// walk. Any other segment without a match resolves to the not-found leaf, which answers 404 with
// the body "No endpoint available.". Set [Walker.LegacyHops] for the older accounting in which
// the resolver is handed the segments after the one being consumed. It only suits nodes written
// for it, route trees are refused.
//
// When the walk ends without error and no action wrote anything, the server answers 200 with an
// empty JSON object.
//
// # Errors
//
// Every failure is one of [ParseError], [IOError], [DispatchError] or [EncodeError], use [KindOf]
// to classify it. Failures end the connection they happened on and nothing else: they are
// reported to the [Logger] and the server keeps accepting. Actions that ran before a failing one
// are not undone.
//
// # Middleware
//
// [Middleware] wraps the action of every node a walk passes, [HopFromContext] tells it where in
// the tree it is. Register it with [Server.Use] before serving.
package bwalk
