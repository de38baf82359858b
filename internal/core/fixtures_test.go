package core

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// ingestCSV parses content as a CSV upload named name.
func ingestCSV(t *testing.T, content string) *Dataset {
	t.Helper()
	ds, err := Ingest(UploadedFile{ID: NewFileID(), Name: "test.csv", Content: []byte(content)})
	require.NoError(t, err)
	return ds
}

// xlsxFixture builds a workbook whose first sheet holds rows.
func xlsxFixture(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

// column returns the display values of the named column.
func column(t *testing.T, ds *Dataset, name string) []string {
	t.Helper()
	j, ok := ds.ColumnIndex(name)
	require.True(t, ok, "column %q not found", name)
	out := make([]string, len(ds.Rows))
	for i := range ds.Rows {
		out[i] = ds.Value(i, j)
	}
	return out
}
