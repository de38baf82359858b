package core

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// exportSheet is the name of the single worksheet written to XLSX exports.
const exportSheet = "Sheet1"

// ExportArtifact is a serialized dataset ready to be downloaded.
type ExportArtifact struct {
	FileName string
	MIMEType string
	Format   Format
	Data     []byte
}

// Export serializes ds as format. Both formats write a header row followed
// by the data rows with no index column. The artifact name is originalName
// with its trailing extension replaced. Encoder failures are returned as
// *SerializationError and no artifact is produced.
func Export(ds *Dataset, format Format, originalName string) (*ExportArtifact, error) {
	var data []byte
	var err error

	switch format {
	case FormatCSV:
		data, err = encodeCSV(ds)
	case FormatXLSX:
		data, err = encodeXLSX(ds)
	default:
		return nil, fmt.Errorf("export: %w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, &SerializationError{Format: format, Err: err}
	}

	return &ExportArtifact{
		FileName: ExportFilename(originalName, format),
		MIMEType: format.MIMEType(),
		Format:   format,
		Data:     data,
	}, nil
}

func encodeCSV(ds *Dataset) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(ds.ColumnNames()); err != nil {
		return nil, err
	}
	record := make([]string, len(ds.Columns))
	for i := range ds.Rows {
		for j := range ds.Columns {
			record[j] = ds.Value(i, j)
		}
		// A lone empty field would be written as a blank line, which
		// readers skip. Quote it so the row survives.
		if len(record) == 1 && record[0] == "" {
			w.Flush()
			buf.WriteString("\"\"\n")
			continue
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeXLSX(ds *Dataset) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sw, err := f.NewStreamWriter(exportSheet)
	if err != nil {
		return nil, err
	}

	header := make([]interface{}, len(ds.Columns))
	for j, c := range ds.Columns {
		header[j] = c.Name
	}
	if err := sw.SetRow("A1", header); err != nil {
		return nil, err
	}

	for i, row := range ds.Rows {
		values := make([]interface{}, len(row))
		for j, c := range row {
			values[j] = xlsxValue(c, ds.Columns[j].Kind)
		}
		axis, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := sw.SetRow(axis, values); err != nil {
			return nil, err
		}
	}

	if err := sw.Flush(); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// xlsxValue returns the typed value excelize should write for c. Missing
// cells are left empty.
func xlsxValue(c Cell, k Kind) interface{} {
	if !c.Valid {
		return nil
	}
	switch k {
	case KindNumeric:
		return c.Num
	case KindBool:
		return c.Bool
	default:
		return c.Text
	}
}
