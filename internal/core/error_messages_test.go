package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{
			name:     "nil error returns empty",
			err:      nil,
			wantCode: "",
		},
		{
			name:     "unsupported format",
			err:      fmt.Errorf("%w: %q", ErrUnsupportedFormat, "notes.txt"),
			wantCode: "FILE002",
		},
		{
			name:     "decoding error",
			err:      &DecodingError{File: "a.csv", Format: FormatCSV, Line: 3, Err: errors.New("bare quote")},
			wantCode: "FILE003",
		},
		{
			name:     "wrapped decoding error",
			err:      fmt.Errorf("process: %w", &DecodingError{File: "a.xlsx", Format: FormatXLSX, Err: errors.New("zip")}),
			wantCode: "FILE003",
		},
		{
			name:     "empty file",
			err:      fmt.Errorf("a.csv: %w", ErrEmptyFile),
			wantCode: "FILE005",
		},
		{
			name:     "request body too large",
			err:      &http.MaxBytesError{Limit: 10},
			wantCode: "FILE001",
		},
		{
			name:     "no files",
			err:      ErrNoFiles,
			wantCode: "FILE004",
		},
		{
			name:     "too many files",
			err:      fmt.Errorf("%w: 30 files", ErrTooManyFiles),
			wantCode: "FILE006",
		},
		{
			name:     "column selection",
			err:      &ColumnSelectionError{Unknown: []string{"z"}},
			wantCode: "COL001",
		},
		{
			name:     "invalid selection",
			err:      &SelectionError{Fields: []string{"export_format"}},
			wantCode: "SEL001",
		},
		{
			name:     "serialization",
			err:      &SerializationError{Format: FormatXLSX, Err: errors.New("disk full")},
			wantCode: "EXP001",
		},
		{
			name:     "busy",
			err:      ErrTooManyUploads,
			wantCode: "UPL002",
		},
		{
			name:     "session expired",
			err:      ErrSessionNotFound,
			wantCode: "UPL003",
		},
		{
			name:     "context canceled",
			err:      fmt.Errorf("step: %w", context.Canceled),
			wantCode: "UPL004",
		},
		{
			name:     "deadline exceeded",
			err:      context.DeadlineExceeded,
			wantCode: "UPL005",
		},
		{
			name:     "untyped text falls back to patterns",
			err:      errors.New("record on line 2: wrong number of fields"),
			wantCode: "FILE003",
		},
		{
			name:     "rate limited",
			err:      ErrRateLimited,
			wantCode: "RATE001",
		},
		{
			name:     "case insensitive pattern",
			err:      errors.New("RATE LIMIT exceeded"),
			wantCode: "RATE001",
		},
		{
			name:     "unknown error returns default",
			err:      errors.New("some random internal error"),
			wantCode: "ERR000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantCode, MapError(tt.err).Code)
		})
	}
}

func TestMapError_UserErrorPassesThrough(t *testing.T) {
	custom := UserMessage{Message: "m", Action: "a", Code: "X1"}
	err := fmt.Errorf("outer: %w", &UserError{Technical: errors.New("inner"), User: custom})

	assert.Equal(t, custom, MapError(err))
}

func TestFormatUserError(t *testing.T) {
	got := FormatUserError(fmt.Errorf("a.csv: %w", ErrEmptyFile))
	assert.Equal(t, "The uploaded file is empty (Code: FILE005). Upload a file with a header row", got)

	assert.Empty(t, FormatUserError(nil))
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error is not user facing", nil, false},
		{"typed error is user facing", ErrSessionNotFound, true},
		{"unknown error is not user facing", errors.New("random internal error xyz"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsUserFacing(tt.err))
		})
	}
}

func TestNewUserError(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		assert.Nil(t, NewUserError(nil))
	})

	t.Run("wraps technical error with user message", func(t *testing.T) {
		techErr := &ColumnSelectionError{Repeated: []string{"a"}}
		userErr := NewUserError(techErr)

		assert.Equal(t, "One or more selected columns do not exist", userErr.Error())
		assert.Equal(t, "COL001", userErr.User.Code)
		assert.ErrorIs(t, userErr, techErr)
	})
}

func TestErrorStrings(t *testing.T) {
	sel := &ColumnSelectionError{Unknown: []string{"x"}, Repeated: []string{"a"}}
	assert.Equal(t, `column selection: unknown columns "x"; repeated columns "a"`, sel.Error())

	dec := &DecodingError{File: "a.csv", Format: FormatCSV, Line: 4, Err: errors.New("bare quote")}
	assert.Equal(t, `decode csv file "a.csv": line 4: bare quote`, dec.Error())

	ser := &SerializationError{Format: FormatXLSX, Err: errors.New("boom")}
	assert.Equal(t, "serialize xlsx: boom", ser.Error())
}
