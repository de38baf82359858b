package core

import (
	"strconv"

	"github.com/google/uuid"
)

// FileID identifies one uploaded file for as long as its bytes are held.
// Two uploads with the same name get different IDs.
type FileID string

// NewFileID returns a fresh random FileID.
func NewFileID() FileID {
	return FileID(uuid.NewString())
}

// ParseFileID validates s as a FileID.
func ParseFileID(s string) (FileID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return "", ErrSessionNotFound
	}
	return FileID(id.String()), nil
}

func (id FileID) String() string { return string(id) }

// UploadedFile is a named byte blob received from the user.
type UploadedFile struct {
	ID      FileID
	Name    string
	Format  Format
	Content []byte
}

// NewUploadedFile assigns a fresh FileID to name and content. The file is
// returned even when its extension is unsupported, with an empty Format
// and an error wrapping ErrUnsupportedFormat.
func NewUploadedFile(name string, content []byte) (UploadedFile, error) {
	format, err := FormatFromFilename(name)
	return UploadedFile{ID: NewFileID(), Name: name, Format: format, Content: content}, err
}

// Kind is the inferred type of a column.
type Kind string

const (
	KindNumeric Kind = "numeric"
	KindBool    Kind = "bool"
	KindText    Kind = "text"
)

// Column is a named, typed column of a Dataset.
type Column struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
}

// Cell is one value of a Dataset. Which of Text, Num or Bool is meaningful
// depends on the kind of the column the cell belongs to. Valid is false for
// missing cells.
type Cell struct {
	Text  string
	Num   float64
	Bool  bool
	Valid bool
}

// Missing is the missing cell.
var Missing = Cell{}

// TextCell returns a present cell holding s.
func TextCell(s string) Cell { return Cell{Text: s, Valid: true} }

// NumberCell returns a present cell holding f.
func NumberCell(f float64) Cell { return Cell{Num: f, Valid: true} }

// BoolCell returns a present cell holding b.
func BoolCell(b bool) Cell { return Cell{Bool: b, Valid: true} }

// Format renders c as it appears in previews and CSV output for a column of
// kind k. Missing cells render as the empty string.
func (c Cell) Format(k Kind) string {
	if !c.Valid {
		return ""
	}
	switch k {
	case KindNumeric:
		return strconv.FormatFloat(c.Num, 'f', -1, 64)
	case KindBool:
		if c.Bool {
			return "True"
		}
		return "False"
	default:
		return c.Text
	}
}

// Dataset is an in-memory table: an ordered list of uniquely named columns
// and rows of cells aligned to them.
type Dataset struct {
	Columns []Column
	Rows    [][]Cell
}

// Shape returns the number of rows and columns.
func (d *Dataset) Shape() (rows, cols int) {
	return len(d.Rows), len(d.Columns)
}

// ColumnNames returns the column names in order.
func (d *Dataset) ColumnNames() []string {
	names := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		names[i] = c.Name
	}
	return names
}

// ColumnIndex returns the position of the named column.
func (d *Dataset) ColumnIndex(name string) (int, bool) {
	for i, c := range d.Columns {
		if c.Name == name {
			return i, true
		}
	}
	return -1, false
}

// NumericColumns returns the positions of numeric columns in order.
func (d *Dataset) NumericColumns() []int {
	var idx []int
	for i, c := range d.Columns {
		if c.Kind == KindNumeric {
			idx = append(idx, i)
		}
	}
	return idx
}

// Value returns the display string of the cell at (row, col).
func (d *Dataset) Value(row, col int) string {
	return d.Rows[row][col].Format(d.Columns[col].Kind)
}

// MissingCount returns the number of missing cells.
func (d *Dataset) MissingCount() int {
	n := 0
	for _, row := range d.Rows {
		for _, c := range row {
			if !c.Valid {
				n++
			}
		}
	}
	return n
}

// Clone returns a deep copy of d.
func (d *Dataset) Clone() *Dataset {
	out := &Dataset{
		Columns: append([]Column(nil), d.Columns...),
		Rows:    make([][]Cell, len(d.Rows)),
	}
	for i, row := range d.Rows {
		out.Rows[i] = append([]Cell(nil), row...)
	}
	return out
}

// DefaultPreviewRows is the preview length used when none is configured.
const DefaultPreviewRows = 5

// Preview is a read-only snapshot of the first rows of a Dataset.
type Preview struct {
	Columns   []Column   `json:"columns"`
	Rows      [][]string `json:"rows"`
	TotalRows int        `json:"total_rows"`
	Missing   int        `json:"missing"`
}

// Preview returns the first n rows rendered as strings. n <= 0 uses
// DefaultPreviewRows.
func (d *Dataset) Preview(n int) Preview {
	if n <= 0 {
		n = DefaultPreviewRows
	}
	n = min(n, len(d.Rows))

	p := Preview{
		Columns:   append([]Column(nil), d.Columns...),
		Rows:      make([][]string, n),
		TotalRows: len(d.Rows),
		Missing:   d.MissingCount(),
	}
	for i := 0; i < n; i++ {
		p.Rows[i] = make([]string, len(d.Columns))
		for j := range d.Columns {
			p.Rows[i][j] = d.Value(i, j)
		}
	}
	return p
}
