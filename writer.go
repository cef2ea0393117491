package bwalk

import (
	"bufio"
	"io"
)

// ResponseWriter is the output stream node actions write responses to. Writes go straight to the
// connection, there is no way to take back what an earlier action wrote.
type ResponseWriter interface {
	io.Writer
	Flush() error

	// RecordStatus remembers the status of the response that is about to be written. Only the
	// first recorded status is kept.
	RecordStatus(code int)

	// Status returns the first recorded status, or 0 when nothing was recorded.
	Status() int

	// Written returns the number of bytes written so far.
	Written() int
}

type responseWriter struct {
	buf     *bufio.Writer
	status  int
	written int
}

// NewResponseWriter wraps w, usually a connection, into a [ResponseWriter].
func NewResponseWriter(w io.Writer) ResponseWriter {
	return &responseWriter{buf: bufio.NewWriter(w)}
}

func (w *responseWriter) Write(p []byte) (int, error) {
	n, err := w.buf.Write(p)
	w.written += n

	return n, err
}

func (w *responseWriter) Flush() error { return w.buf.Flush() }

func (w *responseWriter) RecordStatus(code int) {
	if w.status == 0 {
		w.status = code
	}
}

func (w *responseWriter) Status() int  { return w.status }
func (w *responseWriter) Written() int { return w.written }
