package bwalk

import (
	"encoding/json"
	"io"
	"strconv"
)

// Response is a status, headers and a body that is rendered as JSON.
type Response[T any] struct {
	Status int
	Header Header
	Body   T
}

// NewResponse inits a response without headers.
func NewResponse[T any](status int, body T) *Response[T] {
	return &Response[T]{Status: status, Header: Header{}, Body: body}
}

// AppendResponse renders resp and appends it to dst: the status line, one line per header value
// in sorted name order, an empty line and the JSON body. No Content-Length or Content-Type is
// added.
func AppendResponse[T any](dst []byte, resp *Response[T]) ([]byte, error) {
	if resp.Status < 100 || resp.Status > 999 {
		return dst, newEncodeError("invalid status code "+strconv.Itoa(resp.Status), nil)
	}

	dst = append(dst, "HTTP/1.1 "...)
	dst = strconv.AppendInt(dst, int64(resp.Status), 10)
	dst = append(dst, "\r\n"...)

	for _, name := range resp.Header.names() {
		if !validHeaderName(name) {
			return dst, newEncodeError("invalid header name "+quote(name), nil)
		}

		for _, value := range resp.Header[name] {
			if !validHeaderValue(value) {
				return dst, newEncodeError("invalid value for header "+quote(name), nil)
			}

			dst = append(dst, name...)
			dst = append(dst, ": "...)
			dst = append(dst, value...)
			dst = append(dst, "\r\n"...)
		}
	}

	dst = append(dst, "\r\n"...)

	body, err := json.Marshal(resp.Body)
	if err != nil {
		return dst, newEncodeError("serializing body", err)
	}

	return append(dst, body...), nil
}

// WriteResponse renders resp, writes it to w in one call and flushes w when it can be flushed.
// A failed write is not retried.
func WriteResponse[T any](w io.Writer, resp *Response[T]) error {
	buf, err := AppendResponse(nil, resp)
	if err != nil {
		return err
	}

	n, err := w.Write(buf)
	if err == nil && n < len(buf) {
		err = io.ErrShortWrite
	}

	if err != nil {
		return newIOError("write", "writing response", err)
	}

	if f, ok := w.(interface{ Flush() error }); ok {
		if err := f.Flush(); err != nil {
			return newIOError("flush", "flushing response", err)
		}
	}

	return nil
}

// Respond writes a response with the given status and body to w. It is what node actions use to
// answer a request.
func Respond[B any](w ResponseWriter, status int, body B) error {
	w.RecordStatus(status)
	return WriteResponse(w, NewResponse(status, body))
}
