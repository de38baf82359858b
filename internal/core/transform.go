package core

import (
	"strconv"
	"strings"
)

// RemoveDuplicates drops every row that is identical, cell for cell, to an
// earlier row. The first occurrence is kept and row order is preserved. A
// missing cell equals a missing cell in the same position. It returns the
// number of rows removed.
func RemoveDuplicates(ds *Dataset) int {
	seen := make(map[string]struct{}, len(ds.Rows))
	kept := ds.Rows[:0]

	for _, row := range ds.Rows {
		key := rowKey(ds.Columns, row)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, row)
	}

	removed := len(ds.Rows) - len(kept)
	clear(ds.Rows[len(kept):])
	ds.Rows = kept
	return removed
}

// rowKey encodes a row so that equal rows, and only equal rows, share a key.
// Each cell is length-prefixed so no value can imitate a separator.
func rowKey(cols []Column, row []Cell) string {
	var b strings.Builder
	for j, c := range row {
		if !c.Valid {
			b.WriteString("-;")
			continue
		}
		if cols[j].Kind == KindNumeric && c.Num == 0 {
			c.Num = 0 // -0 and 0 are the same value
		}
		v := c.Format(cols[j].Kind)
		b.WriteString(strconv.Itoa(len(v)))
		b.WriteByte(':')
		b.WriteString(v)
	}
	return b.String()
}

// FillMissingValues replaces the missing cells of every numeric column with
// the arithmetic mean of that column's present values, computed before any
// cell is filled. Bool and text columns are left alone. A numeric column with
// no present values stays missing. It returns the number of cells filled.
func FillMissingValues(ds *Dataset) int {
	filled := 0
	for _, j := range ds.NumericColumns() {
		var sum float64
		var n int
		for _, row := range ds.Rows {
			if row[j].Valid {
				sum += row[j].Num
				n++
			}
		}
		if n == 0 {
			continue
		}
		mean := sum / float64(n)
		for _, row := range ds.Rows {
			if !row[j].Valid {
				row[j] = NumberCell(mean)
				filled++
			}
		}
	}
	return filled
}

// SelectColumns projects ds onto names, in the order given. A nil names
// keeps every column; an empty, non-nil names keeps none. Unknown or
// repeated names fail with *ColumnSelectionError and leave ds unchanged.
func SelectColumns(ds *Dataset, names []string) error {
	if names == nil {
		return nil
	}

	idx := make([]int, 0, len(names))
	seen := make(map[string]bool, len(names))
	var selErr ColumnSelectionError
	for _, name := range names {
		if seen[name] {
			selErr.Repeated = append(selErr.Repeated, name)
			continue
		}
		seen[name] = true
		j, ok := ds.ColumnIndex(name)
		if !ok {
			selErr.Unknown = append(selErr.Unknown, name)
			continue
		}
		idx = append(idx, j)
	}
	if len(selErr.Unknown) > 0 || len(selErr.Repeated) > 0 {
		return &selErr
	}

	cols := make([]Column, len(idx))
	for k, j := range idx {
		cols[k] = ds.Columns[j]
	}
	for i, row := range ds.Rows {
		projected := make([]Cell, len(idx))
		for k, j := range idx {
			projected[k] = row[j]
		}
		ds.Rows[i] = projected
	}
	ds.Columns = cols
	return nil
}
