package bwalk

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Kind classifies the failures that end the handling of a connection. Every kind is terminal for
// the connection it happened on and for that connection only.
type Kind int

const (
	KindUnknown  Kind = iota
	KindParse         // malformed request line, headers or buffer
	KindIO            // socket read, write or flush failure
	KindDispatch      // a node action failed during the walk
	KindEncode        // response serialization failure
)

func (k Kind) String() string {
	switch k {
	case KindParse:
		return "parse"
	case KindIO:
		return "io"
	case KindDispatch:
		return "dispatch"
	case KindEncode:
		return "encode"
	default:
		return "unknown"
	}
}

// Phase names the part of the request that failed to parse.
type Phase string

const (
	PhaseSize        Phase = "size"
	PhaseEncoding    Phase = "encoding"
	PhaseRequestLine Phase = "request-line"
	PhaseMethod      Phase = "method"
	PhaseURI         Phase = "uri"
	PhaseVersion     Phase = "version"
	PhaseHeader      Phase = "header"
)

// ParseError is returned when raw bytes could not be turned into a request.
type ParseError struct {
	Phase  Phase
	Detail string
	err    error
}

func newParseError(phase Phase, detail string, cause error) *ParseError {
	return &ParseError{Phase: phase, Detail: detail, err: cause}
}

func (e *ParseError) Error() string {
	return formatError("parse "+string(e.Phase), e.Detail, e.err)
}

func (e *ParseError) Unwrap() error { return e.err }

// IOError is returned when reading from or writing to the socket failed.
type IOError struct {
	Operation string
	Detail    string
	err       error
}

func newIOError(op, detail string, cause error) *IOError {
	return &IOError{Operation: op, Detail: detail, err: cause}
}

func (e *IOError) Error() string {
	return formatError("io "+e.Operation, e.Detail, e.err)
}

func (e *IOError) Unwrap() error { return e.err }

// DispatchError is returned when a node action failed. Node describes where in the tree the walk
// was when the action failed.
type DispatchError struct {
	Node   string
	Detail string
	err    error
}

func newDispatchError(node, detail string, cause error) *DispatchError {
	return &DispatchError{Node: node, Detail: detail, err: cause}
}

func (e *DispatchError) Error() string {
	return formatError("dispatch "+e.Node, e.Detail, e.err)
}

func (e *DispatchError) Unwrap() error { return e.err }

// EncodeError is returned when a response could not be serialized.
type EncodeError struct {
	Detail string
	err    error
}

func newEncodeError(detail string, cause error) *EncodeError {
	return &EncodeError{Detail: detail, err: cause}
}

func (e *EncodeError) Error() string {
	return formatError("encode", e.Detail, e.err)
}

func (e *EncodeError) Unwrap() error { return e.err }

func formatError(prefix, detail string, cause error) string {
	if cause == nil {
		return fmt.Sprintf("bwalk: %s: %s", prefix, detail)
	}

	return fmt.Sprintf("bwalk: %s: %s: %s", prefix, detail, cause)
}

// KindOf returns the kind of the outermost taxonomy error in err's chain and [KindUnknown]
// otherwise. A dispatch error wrapping an io error is a dispatch error: the walk is what failed.
func KindOf(err error) Kind {
	for err != nil {
		switch err.(type) {
		case *ParseError:
			return KindParse
		case *IOError:
			return KindIO
		case *DispatchError:
			return KindDispatch
		case *EncodeError:
			return KindEncode
		}

		err = errors.UnwrapOnce(err)
	}

	return KindUnknown
}
