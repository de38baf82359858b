package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupportedFormat is returned for files whose extension is neither
	// .csv nor .xlsx, and for unknown export formats.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrEmptyFile is returned when a file has no header row.
	ErrEmptyFile = errors.New("empty file")

	// ErrNoFiles is returned when an upload request carries no files.
	ErrNoFiles = errors.New("no file provided")

	// ErrTooManyFiles is returned when a batch exceeds the configured file count.
	ErrTooManyFiles = errors.New("too many files in one upload")

	// ErrSessionNotFound is returned when a FileID is unknown or its held
	// upload has expired.
	ErrSessionNotFound = errors.New("upload not found")

	// ErrRateLimited is returned when one client sends requests too fast.
	ErrRateLimited = errors.New("rate limit exceeded")
)

// DecodingError reports content that could not be parsed as its format.
type DecodingError struct {
	File   string
	Format Format
	Line   int // 1-based; 0 when unknown
	Err    error
}

func (e *DecodingError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("decode %s file %q: line %d: %v", e.Format, e.File, e.Line, e.Err)
	}
	return fmt.Sprintf("decode %s file %q: %v", e.Format, e.File, e.Err)
}

func (e *DecodingError) Unwrap() error { return e.Err }

// ColumnSelectionError reports selected column names that are not in the
// dataset or that appear more than once.
type ColumnSelectionError struct {
	Unknown  []string
	Repeated []string
}

func (e *ColumnSelectionError) Error() string {
	var parts []string
	if len(e.Unknown) > 0 {
		parts = append(parts, "unknown columns "+quoteJoin(e.Unknown))
	}
	if len(e.Repeated) > 0 {
		parts = append(parts, "repeated columns "+quoteJoin(e.Repeated))
	}
	return "column selection: " + strings.Join(parts, "; ")
}

// SerializationError reports an encoder failure during export. No artifact
// is produced when it is returned.
type SerializationError struct {
	Format Format
	Err    error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("serialize %s: %v", e.Format, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

// SelectionError reports invalid processing options.
type SelectionError struct {
	Fields []string // field: reason
}

func (e *SelectionError) Error() string {
	return "invalid selection: " + strings.Join(e.Fields, ", ")
}

func quoteJoin(names []string) string {
	q := make([]string, len(names))
	for i, n := range names {
		q[i] = fmt.Sprintf("%q", n)
	}
	return strings.Join(q, ", ")
}
