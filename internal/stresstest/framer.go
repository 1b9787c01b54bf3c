package stresstest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
)

const readChunkSize = 4096

var (
	// ErrConnectionClosed is returned when the peer closes the stream before a
	// complete response was received
	ErrConnectionClosed = errors.New("server closed connection")

	headerSeparator    = []byte("\r\n\r\n")
	contentLengthField = []byte("content-length:")
)

// ReadUntilEOF consumes a close-mode response: it reads until the server closes
// the stream. The bytes are discarded. A stream that ends without a single byte
// is reported as ErrConnectionClosed.
func ReadUntilEOF(r io.Reader) error {
	buf := make([]byte, readChunkSize)
	received := 0
	for {
		n, err := r.Read(buf)
		received += n
		if err == io.EOF || (n == 0 && err == nil) {
			if received == 0 {
				return ErrConnectionClosed
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}
	}
}

// ReadResponse consumes exactly one keep-alive response framed by Content-Length.
// Any bytes past the end of the response are dropped.
func ReadResponse(r io.Reader) error {
	chunk := make([]byte, readChunkSize)
	var buf []byte
	headerEnd := -1
	contentLength := 0

	for {
		n, err := r.Read(chunk)
		if n == 0 {
			if err == nil || err == io.EOF {
				return ErrConnectionClosed
			}
			return fmt.Errorf("read response: %w", err)
		}
		buf = append(buf, chunk[:n]...)

		if headerEnd == -1 {
			headerEnd = bytes.Index(buf, headerSeparator)
			if headerEnd != -1 {
				if length, ok := ParseContentLength(buf[:headerEnd]); ok {
					contentLength = length
				}
			}
		}

		if headerEnd != -1 && len(buf)-headerEnd-len(headerSeparator) >= contentLength {
			return nil
		}

		// Data and an error may arrive together; the data has been consumed above.
		if err == io.EOF {
			return ErrConnectionClosed
		}
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}
	}
}

// ParseContentLength finds the first case-insensitive "Content-Length:" in the
// header block that is followed by optional whitespace and at least one digit.
// Values beyond math.MaxInt saturate at math.MaxInt.
func ParseContentLength(header []byte) (int, bool) {
	for start := 0; start+len(contentLengthField) <= len(header); start++ {
		if !hasFoldPrefix(header[start:], contentLengthField) {
			continue
		}

		i := start + len(contentLengthField)
		for i < len(header) && isSpace(header[i]) {
			i++
		}

		digits := 0
		value := 0
		for i < len(header) && header[i] >= '0' && header[i] <= '9' {
			d := int(header[i] - '0')
			if value > (math.MaxInt-d)/10 {
				value = math.MaxInt // saturate: such a body can only end in a close
			} else {
				value = value*10 + d
			}
			digits++
			i++
		}
		if digits > 0 {
			return value, true
		}
	}
	return 0, false
}

// hasFoldPrefix reports whether b starts with the lowercase ASCII prefix,
// ignoring case.
func hasFoldPrefix(b, prefix []byte) bool {
	if len(b) < len(prefix) {
		return false
	}
	for i, c := range prefix {
		if lower(b[i]) != c {
			return false
		}
	}
	return true
}

func lower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '\f', '\v':
		return true
	}
	return false
}
