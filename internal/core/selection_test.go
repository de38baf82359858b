package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransformSelection_Validate(t *testing.T) {
	tests := []struct {
		name    string
		sel     TransformSelection
		wantErr string
	}{
		{name: "zero value", sel: TransformSelection{}},
		{name: "all options", sel: TransformSelection{RemoveDuplicates: true, FillMissing: true, Columns: []string{"a"}, ShowChart: true, ExportFormat: FormatXLSX}},
		{name: "empty column list", sel: TransformSelection{Columns: []string{}}},
		{name: "bad format", sel: TransformSelection{ExportFormat: "pdf"}, wantErr: "export_format"},
		{name: "blank column name", sel: TransformSelection{Columns: []string{"a", ""}}, wantErr: "columns[1]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.sel.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			var se *SelectionError
			require.ErrorAs(t, err, &se)
			assert.Contains(t, se.Error(), tt.wantErr)
		})
	}
}

func TestTransformSelection_Format(t *testing.T) {
	assert.Equal(t, FormatCSV, TransformSelection{}.Format())
	assert.Equal(t, FormatXLSX, TransformSelection{ExportFormat: FormatXLSX}.Format())
}

func TestTransformSelection_JSONColumnsNilVersusEmpty(t *testing.T) {
	var absent, empty TransformSelection
	require.NoError(t, json.Unmarshal([]byte(`{"remove_duplicates":true}`), &absent))
	require.NoError(t, json.Unmarshal([]byte(`{"columns":[]}`), &empty))

	assert.True(t, absent.RemoveDuplicates)
	assert.Nil(t, absent.Columns)
	assert.NotNil(t, empty.Columns)
	assert.Empty(t, empty.Columns)
}
