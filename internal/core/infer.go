package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// naTokens are the cell values read as missing, matching the defaults of the
// common dataframe readers so a file round-trips the way users expect.
var naTokens = map[string]struct{}{
	"": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {}, "N/A": {},
	"NA": {}, "NULL": {}, "NaN": {}, "None": {}, "n/a": {}, "nan": {}, "null": {},
}

func isMissing(s string) bool {
	_, ok := naTokens[s]
	return ok
}

func parseBool(s string) (bool, bool) {
	switch s {
	case "True", "TRUE", "true":
		return true, true
	case "False", "FALSE", "false":
		return false, true
	}
	return false, false
}

func parseNumber(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f, err == nil
}

// uniqueHeaders names empty header cells "Unnamed: <i>" and suffixes
// repeated names with ".1", ".2", ... so every column name is unique.
func uniqueHeaders(header []string) []string {
	out := make([]string, len(header))
	counts := make(map[string]int, len(header))

	for i, name := range header {
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		n := counts[name]
		for n > 0 {
			counts[name] = n + 1
			name = fmt.Sprintf("%s.%d", name, n)
			n = counts[name]
		}
		out[i] = name
		counts[name] = n + 1
	}
	return out
}

// inferKind decides the column kind from its raw values. A column whose
// values are all missing is numeric; a column with no rows at all is text.
func inferKind(values []string) Kind {
	if len(values) == 0 {
		return KindText
	}

	isBool, isNum := true, true
	for _, v := range values {
		if isMissing(v) {
			continue
		}
		if isBool {
			_, isBool = parseBool(v)
		}
		if isNum {
			_, isNum = parseNumber(v)
		}
		if !isBool && !isNum {
			return KindText
		}
	}
	if isBool && !isNum {
		return KindBool
	}
	return KindNumeric
}

func toCell(raw string, k Kind) Cell {
	if isMissing(raw) {
		return Missing
	}
	switch k {
	case KindNumeric:
		f, _ := parseNumber(raw)
		if math.IsNaN(f) {
			return Missing
		}
		return NumberCell(f)
	case KindBool:
		b, _ := parseBool(raw)
		return BoolCell(b)
	default:
		return TextCell(raw)
	}
}

// newDataset builds a typed Dataset from a header and records that have
// already been padded to the header width.
func newDataset(header []string, records [][]string) *Dataset {
	names := uniqueHeaders(header)
	ds := &Dataset{
		Columns: make([]Column, len(names)),
		Rows:    make([][]Cell, len(records)),
	}

	column := make([]string, len(records))
	for j, name := range names {
		for i, rec := range records {
			column[i] = rec[j]
		}
		ds.Columns[j] = Column{Name: name, Kind: inferKind(column)}
	}

	for i, rec := range records {
		row := make([]Cell, len(names))
		for j := range names {
			row[j] = toCell(rec[j], ds.Columns[j].Kind)
		}
		ds.Rows[i] = row
	}
	return ds
}
