package core

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format is a tabular file format the cleaner can read and write.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// MIME types sent with exported artifacts.
const (
	MIMETypeCSV  = "text/csv"
	MIMETypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Formats lists the supported formats in display order.
var Formats = []Format{FormatCSV, FormatXLSX}

// ParseFormat maps a user-supplied name ("csv", "XLSX", "excel") to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// FormatFromFilename determines the format from the trailing extension of
// name. Matching is case-insensitive; anything other than .csv or .xlsx
// fails with ErrUnsupportedFormat.
func FormatFromFilename(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
}

// Valid reports whether f is one of the supported formats.
func (f Format) Valid() bool {
	return f == FormatCSV || f == FormatXLSX
}

// MIMEType returns the content type for f, or an empty string if f is invalid.
func (f Format) MIMEType() string {
	switch f {
	case FormatCSV:
		return MIMETypeCSV
	case FormatXLSX:
		return MIMETypeXLSX
	}
	return ""
}

// Label is the human-readable name shown next to the export choice.
func (f Format) Label() string {
	switch f {
	case FormatCSV:
		return "CSV"
	case FormatXLSX:
		return "Excel"
	}
	return string(f)
}

// ExportFilename replaces only the trailing extension of original with the
// extension of f: "csv_report.csv" becomes "csv_report.xlsx". A name without
// an extension gets one appended.
func ExportFilename(original string, f Format) string {
	base := filepath.Base(original)
	if base == "." || base == string(filepath.Separator) {
		base = "export"
	}
	return strings.TrimSuffix(base, filepath.Ext(base)) + "." + string(f)
}
