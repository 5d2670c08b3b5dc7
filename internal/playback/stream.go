// Package playback streams library clips over HTTP with byte-range
// support, so the overlay's trim scrubber can seek without downloading
// whole recordings.
package playback

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrMalformedRange is returned for headers that do not parse; the
	// caller serves the whole file instead, matching browser behavior.
	ErrMalformedRange = errors.New("malformed range header")
	// ErrUnsatisfiable is returned when the requested window lies
	// entirely outside the file.
	ErrUnsatisfiable = errors.New("requested range not satisfiable")
)

// ByteWindow is a resolved, inclusive byte range within a file of a
// known size.
type ByteWindow struct {
	Offset int64
	Length int64
}

// ContentRange renders the Content-Range response header value.
func (w ByteWindow) ContentRange(size int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", w.Offset, w.Offset+w.Length-1, size)
}

// ResolveRange interprets a Range request header against a file size.
// A nil window with nil error means the whole file was requested. Only
// the first range of a multi-range header is honored.
func ResolveRange(header string, size int64) (*ByteWindow, error) {
	if header == "" {
		return nil, nil
	}

	spec, ok := strings.CutPrefix(header, "bytes=")
	if !ok {
		return nil, ErrMalformedRange
	}
	if first, _, multi := strings.Cut(spec, ","); multi {
		spec = strings.TrimSpace(first)
	}

	startStr, endStr, ok := strings.Cut(spec, "-")
	if !ok {
		return nil, ErrMalformedRange
	}

	// Suffix form: the last N bytes.
	if startStr == "" {
		n, err := strconv.ParseInt(endStr, 10, 64)
		if err != nil || n <= 0 {
			return nil, ErrMalformedRange
		}
		if n > size {
			n = size
		}
		return &ByteWindow{Offset: size - n, Length: n}, nil
	}

	start, err := strconv.ParseInt(startStr, 10, 64)
	if err != nil || start < 0 {
		return nil, ErrMalformedRange
	}

	end := size - 1
	if endStr != "" {
		end, err = strconv.ParseInt(endStr, 10, 64)
		if err != nil {
			return nil, ErrMalformedRange
		}
		if end >= size {
			end = size - 1
		}
	}

	if start >= size || start > end {
		return nil, ErrUnsatisfiable
	}
	return &ByteWindow{Offset: start, Length: end - start + 1}, nil
}
