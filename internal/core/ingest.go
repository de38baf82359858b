package core

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Ingest parses an uploaded file into a Dataset. The format comes from the
// trailing extension of file.Name: .csv is read as comma-separated text with
// the first record as header, .xlsx reads the first worksheet with the first
// row as header. Anything else fails with ErrUnsupportedFormat.
func Ingest(file UploadedFile) (*Dataset, error) {
	format, err := FormatFromFilename(file.Name)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(file.Content)) == 0 {
		return nil, fmt.Errorf("%s: %w", file.Name, ErrEmptyFile)
	}

	var header []string
	var records [][]string
	switch format {
	case FormatCSV:
		header, records, err = readCSV(file.Name, bytes.NewReader(file.Content))
	case FormatXLSX:
		header, records, err = readXLSX(file.Name, bytes.NewReader(file.Content))
	}
	if err != nil {
		return nil, err
	}

	return newDataset(header, records), nil
}

// readCSV returns the header and the data records padded to the header
// width. A record wider than the header is a decoding error.
func readCSV(name string, r io.Reader) ([]string, [][]string, error) {
	reader := csv.NewReader(WrapForStreaming(r))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, fmt.Errorf("%s: %w", name, ErrEmptyFile)
	}
	if err != nil {
		return nil, nil, csvDecodingError(name, err)
	}

	width := len(header)
	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, csvDecodingError(name, err)
		}
		if len(record) > width {
			line, _ := reader.FieldPos(0)
			return nil, nil, &DecodingError{
				File:   name,
				Format: FormatCSV,
				Line:   line,
				Err:    fmt.Errorf("expected %d fields, saw %d", width, len(record)),
			}
		}
		records = append(records, padRecord(record, width))
	}

	return header, records, nil
}

func csvDecodingError(name string, err error) error {
	de := &DecodingError{File: name, Format: FormatCSV, Err: err}
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		de.Line = pe.Line
		de.Err = pe.Err
	}
	return de
}

// readXLSX reads the first worksheet. Blank rows are skipped. Trailing
// empty cells are trimmed by excelize, so the width is the widest row and a
// short header is extended with unnamed columns.
func readXLSX(name string, r io.Reader) ([]string, [][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, &DecodingError{File: name, Format: FormatXLSX, Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, &DecodingError{File: name, Format: FormatXLSX, Err: errors.New("workbook has no sheets")}
	}

	rows, err := readSheetValues(f, sheets[0])
	if err != nil {
		return nil, nil, &DecodingError{File: name, Format: FormatXLSX, Err: err}
	}

	var nonBlank [][]string
	width := 0
	for _, row := range rows {
		if isBlankRow(row) {
			continue
		}
		nonBlank = append(nonBlank, row)
		width = max(width, len(row))
	}
	if len(nonBlank) == 0 {
		return nil, nil, fmt.Errorf("%s: %w", name, ErrEmptyFile)
	}

	header := padRecord(nonBlank[0], width)
	records := make([][]string, 0, len(nonBlank)-1)
	for _, row := range nonBlank[1:] {
		records = append(records, padRecord(row, width))
	}
	return header, records, nil
}

// readSheetValues returns the cell values of sheet. Numbers come back
// unformatted ("1234.5", not "1,234.50") so number formats do not turn
// numeric columns into text. Booleans and date-formatted numbers keep their
// displayed value.
func readSheetValues(f *excelize.File, sheet string) ([][]string, error) {
	shown, err := f.GetRows(sheet)
	if err != nil {
		return nil, err
	}
	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}

	for i, row := range shown {
		if i >= len(raw) {
			break
		}
		for j, v := range row {
			if j >= len(raw[i]) || raw[i][j] == v {
				continue
			}
			if _, ok := parseNumber(raw[i][j]); !ok {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return nil, err
			}
			keep, err := keepDisplayed(f, sheet, cell)
			if err != nil {
				return nil, err
			}
			if !keep {
				row[j] = raw[i][j]
			}
		}
	}
	return shown, nil
}

// keepDisplayed reports whether cell should be read as displayed rather
// than as its raw value: booleans ("TRUE", not "1") and dates.
func keepDisplayed(f *excelize.File, sheet, cell string) (bool, error) {
	typ, err := f.GetCellType(sheet, cell)
	if err != nil {
		return false, err
	}
	if typ == excelize.CellTypeBool || typ == excelize.CellTypeDate {
		return true, nil
	}

	styleID, err := f.GetCellStyle(sheet, cell)
	if err != nil || styleID == 0 {
		return false, err
	}
	style, err := f.GetStyle(styleID)
	if err != nil {
		return false, err
	}
	var custom string
	if style.CustomNumFmt != nil {
		custom = *style.CustomNumFmt
	}
	return isDateFormat(style.NumFmt, custom), nil
}

// isDateFormat reports whether a built-in number format ID or a custom
// format code renders a date or time.
func isDateFormat(id int, custom string) bool {
	switch {
	case id >= 14 && id <= 22, id >= 27 && id <= 36, id >= 45 && id <= 47, id >= 50 && id <= 58:
		return true
	}
	if custom == "" {
		return false
	}

	// Quoted literals, bracketed sections ([Red], [$€-407], [h]) and
	// escaped characters are not date tokens.
	var code strings.Builder
	inQuote, inBracket, escaped := false, false, false
	for _, r := range custom {
		switch {
		case escaped:
			escaped = false
		case inQuote:
			inQuote = r != '"'
		case inBracket:
			if r == ']' {
				inBracket = false
			}
		case r == '"':
			inQuote = true
		case r == '[':
			inBracket = true
		case r == '\\':
			escaped = true
		default:
			code.WriteRune(r)
		}
	}
	return strings.ContainsAny(strings.ToLower(code.String()), "ydmhs")
}

func isBlankRow(row []string) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}

// padRecord extends record with empty (missing) cells up to width.
func padRecord(record []string, width int) []string {
	if len(record) >= width {
		return record
	}
	out := make([]string, width)
	copy(out, record)
	return out
}
