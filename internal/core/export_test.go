package core

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExport_CSV(t *testing.T) {
	ds := ingestCSV(t, "name,score,ok\n\"Smith, J\",1.50,True\nLee,,False\n")

	art, err := Export(ds, FormatCSV, "people.xlsx")
	require.NoError(t, err)

	assert.Equal(t, "people.csv", art.FileName)
	assert.Equal(t, "text/csv", art.MIMEType)
	assert.Equal(t, FormatCSV, art.Format)
	assert.Equal(t, "name,score,ok\n\"Smith, J\",1.5,True\nLee,,False\n", string(art.Data))
}

func TestExport_CSVRoundTrip(t *testing.T) {
	inputs := []string{
		"a,b,c\n1,x,True\n2,y,False\n",
		"id,amount,note\n1,2.5,\"quoted, comma\"\n2,,plain\n3,-7,\"line\nbreak\"\n",
		"k\nNA\n5\n",
	}

	for _, in := range inputs {
		ds := ingestCSV(t, in)

		art, err := Export(ds, FormatCSV, "round.csv")
		require.NoError(t, err)

		again, err := Ingest(UploadedFile{Name: art.FileName, Content: art.Data})
		require.NoError(t, err)
		assert.Equal(t, ds, again)
	}
}

func TestExport_XLSX(t *testing.T) {
	ds := ingestCSV(t, "city,pop,capital\nOslo,709000,True\nBergen,,False\n")

	art, err := Export(ds, FormatXLSX, "report.csv")
	require.NoError(t, err)

	assert.Equal(t, "report.xlsx", art.FileName)
	assert.Equal(t, MIMETypeXLSX, art.MIMEType)

	f, err := excelize.OpenReader(bytes.NewReader(art.Data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Sheet1"}, f.GetSheetList())
	rows, err := f.GetRows("Sheet1")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"city", "pop", "capital"}, rows[0])
	assert.Equal(t, "Oslo", rows[1][0])
	assert.Equal(t, "709000", rows[1][1])

	again, err := Ingest(UploadedFile{Name: art.FileName, Content: art.Data})
	require.NoError(t, err)
	assert.Equal(t, ds.Columns, again.Columns)
	assert.Equal(t, column(t, ds, "pop"), column(t, again, "pop"))
	assert.Equal(t, column(t, ds, "capital"), column(t, again, "capital"))
}

func TestExport_NameReplacesOnlyTrailingExtension(t *testing.T) {
	ds := ingestCSV(t, "a\n1\n")

	art, err := Export(ds, FormatXLSX, "csv_report.csv")
	require.NoError(t, err)
	assert.Equal(t, "csv_report.xlsx", art.FileName)
}

func TestExport_ZeroColumns(t *testing.T) {
	ds := ingestCSV(t, "a\n1\n")
	require.NoError(t, SelectColumns(ds, []string{}))

	for _, f := range Formats {
		art, err := Export(ds, f, "x.csv")
		require.NoError(t, err, f)
		assert.NotNil(t, art.Data, f)
	}
}

func TestExport_UnsupportedFormat(t *testing.T) {
	ds := ingestCSV(t, "a\n1\n")

	art, err := Export(ds, Format("pdf"), "x.csv")
	assert.Nil(t, art)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
