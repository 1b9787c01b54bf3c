package stresstest

import (
	"bytes"
	"errors"
	"io"
	"math"
	"os"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const okResponse = "HTTP/1.1 200 OK\r\nContent-Length: 5\r\nContent-Type: text/plain\r\n\r\nhello"

func TestParseContentLength(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   int
		ok     bool
	}{
		{"canonical", "HTTP/1.1 200 OK\r\nContent-Length: 42", 42, true},
		{"lowercase", "HTTP/1.1 200 OK\r\ncontent-length:13", 13, true},
		{"mixed case", "HTTP/1.1 200 OK\r\nCONTENT-length: 7", 7, true},
		{"tab and spaces", "HTTP/1.1 200 OK\r\nContent-Length:\t  99", 99, true},
		{"zero", "HTTP/1.1 204 No Content\r\nContent-Length: 0", 0, true},
		{"missing", "HTTP/1.1 200 OK\r\nServer: x", 0, false},
		{"no digits", "HTTP/1.1 200 OK\r\nContent-Length: abc", 0, false},
		{"first valid wins", "X: 1\r\nContent-Length: nope\r\nContent-Length: 8", 8, true},
		{"trailing text", "HTTP/1.1 200 OK\r\nContent-Length: 12abc", 12, true},
		{"max int", "HTTP/1.1 200 OK\r\nContent-Length: 9223372036854775807", math.MaxInt, true},
		{"saturates past max int", "HTTP/1.1 200 OK\r\nContent-Length: 18446744073709551615", math.MaxInt, true},
		{"many digits", "HTTP/1.1 200 OK\r\nContent-Length: " + strings.Repeat("9", 40), math.MaxInt, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseContentLength([]byte(tt.header))
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadResponse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"complete", okResponse, nil},
		{"lowercase header", "HTTP/1.1 200 OK\r\ncontent-length: 13\r\n\r\nHello, World!", nil},
		{"no content length means empty body", "HTTP/1.1 200 OK\r\nServer: x\r\n\r\n", nil},
		{"surplus bytes are dropped", okResponse + "HTTP/1.1 200 OK\r\n", nil},
		{"closed mid body", "HTTP/1.1 200 OK\r\nContent-Length: 10\r\n\r\nabc", ErrConnectionClosed},
		{"closed mid header", "HTTP/1.1 200 OK\r\nContent-Len", ErrConnectionClosed},
		{"closed immediately", "", ErrConnectionClosed},
		{"oversized length then close", "HTTP/1.1 200 OK\r\nContent-Length: 18446744073709551615\r\n\r\nabc", ErrConnectionClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ReadResponse(strings.NewReader(tt.input))
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestReadResponse_ChunkBoundaries(t *testing.T) {
	body := strings.Repeat("x", 3*readChunkSize)
	resp := "HTTP/1.1 200 OK\r\nContent-Length: 12288\r\n\r\n" + body

	// The same bytes must frame identically however the reads are split
	readers := map[string]io.Reader{
		"one byte":   iotest.OneByteReader(strings.NewReader(resp)),
		"half reads": iotest.HalfReader(strings.NewReader(resp)),
		"data + eof": iotest.DataErrReader(strings.NewReader(resp)),
		"whole":      strings.NewReader(resp),
	}
	for name, r := range readers {
		t.Run(name, func(t *testing.T) {
			assert.NoError(t, ReadResponse(r))
		})
	}
}

func TestReadResponse_LeavesNextResponseUnread(t *testing.T) {
	// One byte at a time: the framer must stop right at the end of the first response
	stream := bytes.NewBufferString(okResponse + okResponse)
	r := iotest.OneByteReader(stream)

	require.NoError(t, ReadResponse(r))
	assert.Equal(t, okResponse, stream.String())
	require.NoError(t, ReadResponse(r))
	assert.ErrorIs(t, ReadResponse(r), ErrConnectionClosed)
}

func TestReadResponse_PropagatesReadError(t *testing.T) {
	err := ReadResponse(iotest.TimeoutReader(iotest.OneByteReader(strings.NewReader(okResponse))))
	require.Error(t, err)
	assert.ErrorIs(t, err, iotest.ErrTimeout)
	assert.NotErrorIs(t, err, ErrConnectionClosed)

	err = ReadResponse(iotest.ErrReader(os.ErrDeadlineExceeded))
	assert.ErrorIs(t, err, os.ErrDeadlineExceeded)
}

func TestReadUntilEOF(t *testing.T) {
	assert.NoError(t, ReadUntilEOF(strings.NewReader(okResponse)))
	assert.NoError(t, ReadUntilEOF(iotest.OneByteReader(strings.NewReader(okResponse))))

	// Bytes without a complete response still count: only the close matters
	assert.NoError(t, ReadUntilEOF(strings.NewReader("HTTP/1.1 5")))

	assert.ErrorIs(t, ReadUntilEOF(strings.NewReader("")), ErrConnectionClosed)

	boom := errors.New("reset by peer")
	err := ReadUntilEOF(io.MultiReader(strings.NewReader("HTTP"), iotest.ErrReader(boom)))
	assert.ErrorIs(t, err, boom)
}
