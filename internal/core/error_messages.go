package core

// error_messages.go maps technical errors to messages a user can act on.
// Each message carries a code users can quote when reporting a problem.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: the upload exceeds the size limit
//	FILE002 - Unsupported format: the file is not .csv or .xlsx
//	FILE003 - Unreadable file: the content could not be parsed
//	FILE004 - No file: the upload form was submitted without files
//	FILE005 - Empty file: the file has no header row
//	FILE006 - Too many files: the batch exceeds the file count limit
//
// # Selection Errors (COL001-COL099, SEL001-SEL099)
//
//	COL001 - Unknown column: a selected column is not in the file
//	SEL001 - Invalid options: the processing options are malformed
//
// # Export Errors (EXP001-EXP099)
//
//	EXP001 - Export failed: the cleaned data could not be serialized
//
// # Upload Errors (UPL001-UPL099)
//
//	UPL002 - System busy: every processing slot is taken
//	UPL003 - Upload expired: the held upload is gone
//	UPL004 - Request cancelled
//	UPL005 - Request timed out
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests from one client
//
// # Default (ERR000)
//
//	ERR000 - Anything else. Check the logs for the technical error.
//
// Typed errors are matched first with errors.Is/errors.As. Errors that
// arrive as plain text (from libraries or across a process boundary) fall
// back to case-insensitive substring patterns; the first match wins.

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Error code for support reference
}

var (
	msgFileTooLarge = UserMessage{
		Message: "File exceeds the maximum upload size",
		Action:  "Split the file into smaller parts and upload them separately",
		Code:    "FILE001",
	}
	msgUnsupported = UserMessage{
		Message: "Unsupported file format",
		Action:  "Upload a .csv or .xlsx file",
		Code:    "FILE002",
	}
	msgUnreadable = UserMessage{
		Message: "The file could not be read",
		Action:  "Check that it is a comma-separated CSV or an Excel workbook with consistent columns",
		Code:    "FILE003",
	}
	msgNoFiles = UserMessage{
		Message: "No files uploaded yet",
		Action:  "Select one or more CSV or Excel files to upload",
		Code:    "FILE004",
	}
	msgEmptyFile = UserMessage{
		Message: "The uploaded file is empty",
		Action:  "Upload a file with a header row",
		Code:    "FILE005",
	}
	msgTooManyFiles = UserMessage{
		Message: "Too many files in one upload",
		Action:  "Upload fewer files at a time",
		Code:    "FILE006",
	}
	msgUnknownColumn = UserMessage{
		Message: "One or more selected columns do not exist",
		Action:  "Choose columns from the file's header, each at most once",
		Code:    "COL001",
	}
	msgBadSelection = UserMessage{
		Message: "The processing options are invalid",
		Action:  "Pick an export format of CSV or Excel and non-empty column names",
		Code:    "SEL001",
	}
	msgExportFailed = UserMessage{
		Message: "The cleaned data could not be exported",
		Action:  "Try the other export format",
		Code:    "EXP001",
	}
	msgBusy = UserMessage{
		Message: "System is busy processing other uploads",
		Action:  "Please wait a moment and try again",
		Code:    "UPL002",
	}
	msgExpired = UserMessage{
		Message: "Upload not found",
		Action:  "The upload may have expired. Please upload the file again",
		Code:    "UPL003",
	}
	msgCancelled = UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "UPL004",
	}
	msgTimeout = UserMessage{
		Message: "Request timed out",
		Action:  "Try a smaller file or check your connection",
		Code:    "UPL005",
	}
	msgRateLimited = UserMessage{
		Message: "Too many requests",
		Action:  "Please wait a moment before trying again",
		Code:    "RATE001",
	}
)

// typedError matches an error by identity or type.
type typedError struct {
	match func(error) bool
	msg   UserMessage
}

func is(target error) func(error) bool {
	return func(err error) bool { return errors.Is(err, target) }
}

func as[T error]() func(error) bool {
	return func(err error) bool {
		var target T
		return errors.As(err, &target)
	}
}

// typedErrors is checked in order. ErrEmptyFile comes before the decoding
// error because an empty file can be reported either way.
var typedErrors = []typedError{
	{is(ErrEmptyFile), msgEmptyFile},
	{is(ErrUnsupportedFormat), msgUnsupported},
	{as[*http.MaxBytesError](), msgFileTooLarge},
	{as[*DecodingError](), msgUnreadable},
	{is(ErrNoFiles), msgNoFiles},
	{is(ErrTooManyFiles), msgTooManyFiles},
	{as[*ColumnSelectionError](), msgUnknownColumn},
	{as[*SelectionError](), msgBadSelection},
	{as[*SerializationError](), msgExportFailed},
	{is(ErrTooManyUploads), msgBusy},
	{is(ErrSessionNotFound), msgExpired},
	{is(ErrRateLimited), msgRateLimited},
	{is(context.Canceled), msgCancelled},
	{is(context.DeadlineExceeded), msgTimeout},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns catch errors that lost their type. More specific patterns
// come before general ones.
var errorPatterns = []errorPattern{
	{"request body too large", msgFileTooLarge},
	{"file too large", msgFileTooLarge},
	{"unsupported file format", msgUnsupported},
	{"empty file", msgEmptyFile},
	{"no file provided", msgNoFiles},
	{"too many files", msgTooManyFiles},
	{"invalid utf-8", msgUnreadable},
	{"zip: not a valid zip file", msgUnreadable},
	{"wrong number of fields", msgUnreadable},
	{"too many concurrent uploads", msgBusy},
	{"upload not found", msgExpired},
	{"context canceled", msgCancelled},
	{"context deadline exceeded", msgTimeout},
	{"timeout", msgTimeout},
	{"rate limit", msgRateLimited},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message. A nil
// error maps to the zero UserMessage.
//
//	msg := MapError(fmt.Errorf("ingest: %w", ErrEmptyFile))
//	// msg.Code == "FILE005"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var ue *UserError
	if errors.As(err, &ue) {
		return ue.User
	}

	for _, te := range typedErrors {
		if te.match(err) {
			return te.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display:
// "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error, kept for logging, with the message
// shown to the user.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err and wraps it. It returns nil for a nil err.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
