package core

// streaming.go holds the readers CSV content passes through before it
// reaches encoding/csv:
//
//   - BOMSkippingReader drops a leading UTF-8 BOM written by Excel on Windows
//   - StreamingUTF8Sanitizer replaces invalid UTF-8 bytes with '?'
//
// Use WrapForStreaming to apply both in the correct order.

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// sanitizeChunk is the read size of StreamingUTF8Sanitizer.
const sanitizeChunk = 32 * 1024

// BOMSkippingReader wraps an io.Reader and skips the UTF-8 BOM if present.
type BOMSkippingReader struct {
	br      *bufio.Reader
	checked bool
}

// NewBOMSkippingReader creates a new BOM-skipping reader.
func NewBOMSkippingReader(r io.Reader) *BOMSkippingReader {
	return &BOMSkippingReader{br: bufio.NewReader(r)}
}

func (r *BOMSkippingReader) Read(p []byte) (int, error) {
	if !r.checked {
		r.checked = true
		if head, err := r.br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
			_, _ = r.br.Discard(len(utf8BOM))
		}
	}
	return r.br.Read(p)
}

// StreamingUTF8Sanitizer wraps an io.Reader and replaces each byte that is
// not part of a valid UTF-8 sequence with '?'. A multi-byte sequence split
// across two reads of the underlying reader is carried over, not replaced.
type StreamingUTF8Sanitizer struct {
	r       io.Reader
	pending []byte // incomplete trailing sequence from the last chunk
	out     []byte // sanitized bytes not yet returned
	err     error
}

// NewStreamingUTF8Sanitizer creates a new streaming UTF-8 sanitizer.
func NewStreamingUTF8Sanitizer(r io.Reader) *StreamingUTF8Sanitizer {
	return &StreamingUTF8Sanitizer{r: r}
}

func (s *StreamingUTF8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for len(s.out) == 0 && s.err == nil {
		s.fill()
	}
	if len(s.out) > 0 {
		n := copy(p, s.out)
		s.out = s.out[n:]
		return n, nil
	}
	return 0, s.err
}

func (s *StreamingUTF8Sanitizer) fill() {
	chunk := make([]byte, sanitizeChunk)
	n, err := s.r.Read(chunk)
	s.err = err

	data := append(s.pending, chunk[:n]...)
	s.pending = nil
	s.out = s.out[:0]

	if utf8.Valid(data) {
		s.out = append(s.out, data...)
		return
	}

	atEOF := err != nil
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size <= 1 {
			if !atEOF && !utf8.FullRune(data) {
				s.pending = append(s.pending, data...)
				return
			}
			s.out = append(s.out, '?')
			data = data[1:]
			continue
		}
		s.out = append(s.out, data[:size]...)
		data = data[size:]
	}
}

// WrapForStreaming strips the BOM first, then sanitizes what remains.
func WrapForStreaming(r io.Reader) io.Reader {
	return NewStreamingUTF8Sanitizer(NewBOMSkippingReader(r))
}
