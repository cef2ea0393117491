package bwalk_test

import (
	"io"
	"testing"

	"github.com/advdv/bwalk"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	_, perr := bwalk.ParseRequest[any]([]byte("GET / HTTP/2.0\r\n\r\n"))
	require.EqualError(t, perr, `bwalk: parse version: unsupported version "HTTP/2.0"`)

	_, ioerr := bwalk.ReadRequest[any](errReader{}, 16)
	require.EqualError(t, ioerr, "bwalk: io read: reading request: unexpected EOF")

	_, eerr := bwalk.AppendResponse(nil, bwalk.NewResponse(42, "x"))
	require.EqualError(t, eerr, "bwalk: encode: invalid status code 42")

	for _, tt := range []struct {
		err  error
		kind bwalk.Kind
	}{
		{perr, bwalk.KindParse},
		{ioerr, bwalk.KindIO},
		{eerr, bwalk.KindEncode},
		{errors.Wrap(perr, "serving"), bwalk.KindParse},
		{errors.New("other"), bwalk.KindUnknown},
		{nil, bwalk.KindUnknown},
	} {
		assert.Equal(t, tt.kind, bwalk.KindOf(tt.err), "%v", tt.err)
	}

	assert.Equal(t, "parse", bwalk.KindParse.String())
	assert.Equal(t, "io", bwalk.KindIO.String())
	assert.Equal(t, "dispatch", bwalk.KindDispatch.String())
	assert.Equal(t, "encode", bwalk.KindEncode.String())
	assert.Equal(t, "unknown", bwalk.KindUnknown.String())
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, io.ErrUnexpectedEOF }
