package bwalk_test

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/advdv/bwalk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendResponse(t *testing.T) {
	resp := bwalk.NewResponse(404, bwalk.NotFoundBody)
	resp.Header.Add("X-B", "2")
	resp.Header.Add("X-A", "1")
	resp.Header.Add("X-A", "3")

	buf, err := bwalk.AppendResponse([]byte("prefix:"), resp)
	require.NoError(t, err)
	assert.Equal(t, "prefix:HTTP/1.1 404\r\nx-a: 1\r\nx-a: 3\r\nx-b: 2\r\n\r\n\"No endpoint available.\"", string(buf))
}

func TestResponseBodyRoundTrip(t *testing.T) {
	for _, body := range []project{
		{},
		{Name: "New Project", Description: "Project Description"},
		{Name: "ünïcode \"quoted\"", Description: "line\r\nbreak"},
	} {
		buf, err := bwalk.AppendResponse(nil, bwalk.NewResponse(200, body))
		require.NoError(t, err)

		_, payload, ok := strings.Cut(string(buf), "\r\n\r\n")
		require.True(t, ok)

		var got project
		require.NoError(t, json.Unmarshal([]byte(payload), &got))
		assert.Equal(t, body, got)
	}
}

func TestAppendResponseErrors(t *testing.T) {
	for name, resp := range map[string]*bwalk.Response[any]{
		"status too low":        {Status: 99},
		"status too high":       {Status: 1000},
		"body not serializable": {Status: 200, Body: func() {}},
		"header value with crlf": {Status: 200, Header: bwalk.Header{
			"x-injected": {"a\r\nset-cookie: b"},
		}},
		"invalid header name": {Status: 200, Header: bwalk.Header{"x y": {"a"}}},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := bwalk.AppendResponse(nil, resp)

			var eerr *bwalk.EncodeError
			require.ErrorAs(t, err, &eerr)
			assert.Equal(t, bwalk.KindEncode, bwalk.KindOf(err))
		})
	}
}

type shortWriter struct{}

func (shortWriter) Write(p []byte) (int, error) { return len(p) / 2, nil }

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, io.ErrClosedPipe }

func TestWriteResponse(t *testing.T) {
	t.Run("writes the whole response", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, bwalk.WriteResponse(&buf, bwalk.NewResponse(200, "Hey there!")))
		assert.Equal(t, "HTTP/1.1 200\r\n\r\n\"Hey there!\"", buf.String())
	})

	t.Run("short write", func(t *testing.T) {
		err := bwalk.WriteResponse(shortWriter{}, bwalk.NewResponse(200, "Hey there!"))
		require.ErrorIs(t, err, io.ErrShortWrite)
		assert.Equal(t, bwalk.KindIO, bwalk.KindOf(err))
	})

	t.Run("failed write", func(t *testing.T) {
		err := bwalk.WriteResponse(failingWriter{}, bwalk.NewResponse(200, "Hey there!"))
		require.ErrorIs(t, err, io.ErrClosedPipe)

		var ioerr *bwalk.IOError
		require.ErrorAs(t, err, &ioerr)
		assert.Equal(t, "write", ioerr.Operation)
	})

	t.Run("flush failure", func(t *testing.T) {
		w := bwalk.NewResponseWriter(failingWriter{})
		err := bwalk.WriteResponse(w, bwalk.NewResponse(200, "Hey there!"))
		require.ErrorIs(t, err, io.ErrClosedPipe)

		var ioerr *bwalk.IOError
		require.ErrorAs(t, err, &ioerr)
		assert.Equal(t, "flush", ioerr.Operation)
	})
}

func TestRespondRecordsFirstStatus(t *testing.T) {
	var buf bytes.Buffer
	w := bwalk.NewResponseWriter(&buf)
	assert.Equal(t, 0, w.Status())

	require.NoError(t, bwalk.Respond(w, 201, map[string]string{"id": "1"}))
	require.NoError(t, bwalk.Respond(w, 500, "second"))

	assert.Equal(t, 201, w.Status())
	assert.Equal(t, buf.Len(), w.Written())
	assert.Equal(t, "HTTP/1.1 201\r\n\r\n{\"id\":\"1\"}HTTP/1.1 500\r\n\r\n\"second\"", buf.String())
}
