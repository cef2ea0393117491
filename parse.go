package bwalk

import (
	"encoding/json"
	"io"
	"net/url"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
)

// DefaultReadBufferSize is the size of the single read a request must fit in.
const DefaultReadBufferSize = 1024

// ReadRequest reads a request from r with exactly one call to Read into a buffer of size bytes.
// Requests that do not arrive in that one read are not reassembled: a request that fills the
// whole buffer is reported as a [ParseError] in [PhaseSize] and a request missing the end of
// its header block as a [ParseError] in [PhaseHeader].
func ReadRequest[T any](r io.Reader, size int) (*Request[T], error) {
	if size <= 0 {
		size = DefaultReadBufferSize
	}

	buf := make([]byte, size)

	n, err := r.Read(buf)
	if n == 0 {
		if err == nil {
			err = io.ErrNoProgress
		}

		return nil, newIOError("read", "reading request", err)
	}

	if n == size {
		return nil, newParseError(PhaseSize, "request does not fit in "+strconv.Itoa(size)+" bytes", nil)
	}

	return ParseRequest[T](buf[:n])
}

// ParseRequest parses buf as a complete request. The body is only considered for POST requests
// and decoded as JSON into T. A body that is absent or does not decode leaves the zero value
// of T in place.
func ParseRequest[T any](buf []byte) (*Request[T], error) {
	if !utf8.Valid(buf) {
		return nil, newParseError(PhaseEncoding, "request is not valid utf-8", nil)
	}

	head, rest, terminated := strings.Cut(string(buf), "\r\n\r\n")
	lines := strings.Split(head, "\r\n")

	method, uri, version, err := parseRequestLine(lines[0])
	if err != nil {
		return nil, err
	}

	if !terminated {
		return nil, newParseError(PhaseHeader, "header block is not terminated by an empty line", nil)
	}

	header, err := parseHeaders(lines[1:])
	if err != nil {
		return nil, err
	}

	var body T
	if method == MethodPost {
		body = parseBody[T](rest)
	}

	return NewRequest(method, uri, version, header, body)
}

func parseRequestLine(line string) (method Method, uri string, version Version, err error) {
	parts := strings.Fields(line)
	if len(parts) != 3 {
		return "", "", 0, newParseError(PhaseRequestLine,
			"expected method, uri and version, got "+strconv.Itoa(len(parts))+" tokens", nil)
	}

	if method, err = ParseMethod(parts[0]); err != nil {
		return "", "", 0, err
	}

	if _, _, err = parseRequestURI(parts[1]); err != nil {
		return "", "", 0, err
	}

	if version, err = ParseVersion(parts[2]); err != nil {
		return "", "", 0, err
	}

	return method, parts[1], version, nil
}

func parseRequestURI(uri string) (path, query string, err error) {
	u, err := url.ParseRequestURI(uri)
	if err != nil {
		return "", "", newParseError(PhaseURI, "invalid request uri "+quote(uri), errors.WithStack(err))
	}

	path = u.EscapedPath()
	if path == "" {
		path = "/"
	}

	return path, u.RawQuery, nil
}

func parseHeaders(lines []string) (Header, error) {
	header := make(Header, len(lines))
	for _, line := range lines {
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, newParseError(PhaseHeader, "missing colon in header line "+quote(line), nil)
		}

		if !validHeaderName(name) {
			return nil, newParseError(PhaseHeader, "invalid header name "+quote(name), nil)
		}

		value = strings.Trim(value, " \t")
		if !validHeaderValue(value) {
			return nil, newParseError(PhaseHeader, "invalid value for header "+quote(name), nil)
		}

		header.Add(name, value)
	}

	return header, nil
}

func parseBody[T any](rest string) (body T) {
	raw := strings.TrimFunc(rest, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsControl(r)
	})
	if raw == "" {
		return body
	}

	if err := json.Unmarshal([]byte(raw), &body); err != nil {
		var zero T
		return zero
	}

	return body
}

// validHeaderName reports whether name is an RFC 9110 token.
func validHeaderName(name string) bool {
	if name == "" {
		return false
	}

	for i := range len(name) {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case strings.IndexByte("!#$%&'*+-.^_`|~", c) >= 0:
		default:
			return false
		}
	}

	return true
}

func validHeaderValue(value string) bool {
	for i := range len(value) {
		if c := value[i]; (c < ' ' && c != '\t') || c == 0x7f {
			return false
		}
	}

	return true
}

func quote(s string) string { return strconv.Quote(s) }
