package bwalk

import (
	"maps"
	"slices"
	"strings"
)

// Method is the request method. Only the methods listed below are accepted by the codec.
type Method string

const (
	MethodGet     Method = "GET"
	MethodHead    Method = "HEAD"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodPatch   Method = "PATCH"
	MethodDelete  Method = "DELETE"
	MethodOptions Method = "OPTIONS"
	MethodConnect Method = "CONNECT"
	MethodTrace   Method = "TRACE"
)

var methods = []Method{
	MethodGet, MethodHead, MethodPost, MethodPut, MethodPatch,
	MethodDelete, MethodOptions, MethodConnect, MethodTrace,
}

// ParseMethod parses a request method token. Tokens are case-sensitive.
func ParseMethod(s string) (Method, error) {
	if m := Method(s); slices.Contains(methods, m) {
		return m, nil
	}

	return "", newParseError(PhaseMethod, "unsupported method "+quote(s), nil)
}

// Version is the protocol version of a request.
type Version int

const (
	Version10 Version = 10
	Version11 Version = 11
)

func (v Version) String() string {
	switch v {
	case Version10:
		return "HTTP/1.0"
	case Version11:
		return "HTTP/1.1"
	default:
		return "HTTP/?"
	}
}

// ParseVersion parses the version token of a request line. Only HTTP/1.0 and HTTP/1.1 are
// supported.
func ParseVersion(s string) (Version, error) {
	switch s {
	case "HTTP/1.1":
		return Version11, nil
	case "HTTP/1.0":
		return Version10, nil
	default:
		return 0, newParseError(PhaseVersion, "unsupported version "+quote(s), nil)
	}
}

// Header is a multimap of header names to values. Names are stored lower-cased.
type Header map[string][]string

// Add appends a value to the values of name.
func (h Header) Add(name, value string) {
	name = strings.ToLower(name)
	h[name] = append(h[name], value)
}

// Set replaces all values of name.
func (h Header) Set(name, value string) {
	h[strings.ToLower(name)] = []string{value}
}

// Get returns the first value of name, or the empty string.
func (h Header) Get(name string) string {
	if vs := h[strings.ToLower(name)]; len(vs) > 0 {
		return vs[0]
	}

	return ""
}

// Values returns all values of name.
func (h Header) Values(name string) []string {
	return h[strings.ToLower(name)]
}

// Len returns the number of name/value pairs.
func (h Header) Len() (n int) {
	for _, vs := range h {
		n += len(vs)
	}

	return n
}

// Clone returns a deep copy of h.
func (h Header) Clone() Header {
	if h == nil {
		return nil
	}

	c := make(Header, len(h))
	for k, vs := range h {
		c[k] = slices.Clone(vs)
	}

	return c
}

// Keys returns the header names in sorted order. With Get and Set it makes a Header usable as a
// trace propagation carrier.
func (h Header) Keys() []string { return h.names() }

func (h Header) names() []string {
	return slices.Sorted(maps.Keys(h))
}

// Request is a parsed request whose body was decoded into T. It is not modified after
// construction.
type Request[T any] struct {
	method  Method
	uri     string
	path    string
	query   string
	version Version
	header  Header
	body    T
}

// NewRequest builds a request from its parts. The uri is parsed the same way the codec parses
// the request target.
func NewRequest[T any](method Method, uri string, version Version, header Header, body T) (*Request[T], error) {
	path, query, err := parseRequestURI(uri)
	if err != nil {
		return nil, err
	}

	if header == nil {
		header = Header{}
	}

	return &Request[T]{
		method:  method,
		uri:     uri,
		path:    path,
		query:   query,
		version: version,
		header:  header,
		body:    body,
	}, nil
}

func (r *Request[T]) Method() Method   { return r.method }
func (r *Request[T]) URI() string      { return r.uri }
func (r *Request[T]) Path() string     { return r.path }
func (r *Request[T]) Query() string    { return r.query }
func (r *Request[T]) Version() Version { return r.version }
func (r *Request[T]) Body() T          { return r.body }

// Header returns the request headers. Callers must not modify the returned map.
func (r *Request[T]) Header() Header { return r.header }
