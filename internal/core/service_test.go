package core

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, *Metrics) {
	t.Helper()
	m := NewMetrics()
	return NewService(Options{PreviewRows: 2, ChartMaxBars: 100, MaxFiles: 3}, m), m
}

func csvUpload(name, content string) UploadedFile {
	return UploadedFile{ID: NewFileID(), Name: name, Format: FormatCSV, Content: []byte(content)}
}

func stepNames(res *FileResult) []Step {
	out := make([]Step, len(res.Steps))
	for i, s := range res.Steps {
		out[i] = s.Step
	}
	return out
}

// ============================================================================
// Process
// ============================================================================

func TestService_Process_DefaultSelection(t *testing.T) {
	svc, _ := newTestService(t)
	file := csvUpload("a.csv", "a,b\n1,2\n1,2\n3,\n")

	res, err := svc.Process(context.Background(), file, TransformSelection{})
	require.NoError(t, err)

	assert.Equal(t, []Step{StepIngest, StepSelectColumns}, stepNames(res))
	assert.Equal(t, 3, res.Rows)
	assert.Equal(t, 2, res.Columns)
	assert.Nil(t, res.Chart)
	assert.Len(t, res.Steps[0].Preview.Rows, 2, "preview is capped")
	assert.Equal(t, 3, res.Steps[0].Preview.TotalRows)
}

func TestService_Process_FixedOrder(t *testing.T) {
	svc, _ := newTestService(t)
	// Dedup must run before fill: filling first would turn (1,NA) into
	// (1,3) and collide with the explicit (1,3) row.
	file := csvUpload("a.csv", "k,v\n1,\n1,3\n2,\n")

	res, err := svc.Process(context.Background(), file, TransformSelection{
		RemoveDuplicates: true,
		FillMissing:      true,
		Columns:          []string{"v", "k"},
		ShowChart:        true,
	})
	require.NoError(t, err)

	assert.Equal(t, []Step{StepIngest, StepRemoveDuplicates, StepFillMissing, StepSelectColumns}, stepNames(res))
	assert.Equal(t, NoticeDuplicatesRemoved, res.Steps[1].Notice)
	assert.Equal(t, NoticeMissingFilled, res.Steps[2].Notice)
	assert.Equal(t, 0, res.DuplicatesRemoved)
	assert.Equal(t, 2, res.CellsFilled)
	assert.Equal(t, 3, res.Rows)
	assert.Equal(t, []string{"v", "k"}, res.Dataset.ColumnNames())
	assert.Equal(t, []string{"3", "3", "3"}, column(t, res.Dataset, "v"))

	require.NotNil(t, res.Chart)
	assert.Equal(t, "v", res.Chart.Series[0].Name)
}

func TestService_Process_DedupScenario(t *testing.T) {
	svc, _ := newTestService(t)
	file := csvUpload("a.csv", "a,b\n1,2\n1,2\n3,4\n")

	res, err := svc.Process(context.Background(), file, TransformSelection{RemoveDuplicates: true})
	require.NoError(t, err)

	assert.Equal(t, 1, res.DuplicatesRemoved)
	assert.Equal(t, [][]string{{"1", "2"}, {"3", "4"}}, res.Last().Preview.Rows)
}

func TestService_Process_ChartWithoutNumericColumns(t *testing.T) {
	svc, _ := newTestService(t)
	file := csvUpload("t.csv", "name,city\na,Oslo\n")

	res, err := svc.Process(context.Background(), file, TransformSelection{ShowChart: true})
	require.NoError(t, err)
	assert.Nil(t, res.Chart)
}

func TestService_Process_Errors(t *testing.T) {
	tests := []struct {
		name      string
		file      UploadedFile
		sel       TransformSelection
		wantCode  string
		wantSteps int
	}{
		{
			name:     "unsupported extension",
			file:     UploadedFile{ID: NewFileID(), Name: "notes.txt", Content: []byte("x")},
			wantCode: "FILE002",
		},
		{
			name:     "empty file",
			file:     csvUpload("e.csv", ""),
			wantCode: "FILE005",
		},
		{
			name:     "malformed csv",
			file:     csvUpload("m.csv", "a,b\n1,2,3\n"),
			wantCode: "FILE003",
		},
		{
			name:      "unknown column",
			file:      csvUpload("c.csv", "a\n1\n"),
			sel:       TransformSelection{Columns: []string{"zzz"}},
			wantCode:  "COL001",
			wantSteps: 1,
		},
		{
			name:     "invalid selection",
			file:     csvUpload("s.csv", "a\n1\n"),
			sel:      TransformSelection{ExportFormat: "pdf"},
			wantCode: "SEL001",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t)

			res, err := svc.Process(context.Background(), tt.file, tt.sel)
			require.Error(t, err)
			require.NotNil(t, res)
			assert.Equal(t, err, res.Err)
			assert.Equal(t, tt.wantCode, MapError(err).Code)
			assert.Len(t, res.Steps, tt.wantSteps)
			assert.Nil(t, res.Dataset)
		})
	}
}

func TestService_Process_CancelledContext(t *testing.T) {
	svc, _ := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Process(ctx, csvUpload("a.csv", "a\n1\n"), TransformSelection{})
	assert.ErrorIs(t, err, context.Canceled)
}

// ============================================================================
// Convert
// ============================================================================

func TestService_Convert(t *testing.T) {
	svc, m := newTestService(t)
	file := csvUpload("report.csv", "x,y\n1,a\n,b\n3,c\n")

	art, res, err := svc.Convert(context.Background(), file, TransformSelection{FillMissing: true, ExportFormat: FormatXLSX})
	require.NoError(t, err)

	assert.Equal(t, "report.xlsx", art.FileName)
	assert.Equal(t, MIMETypeXLSX, art.MIMEType)
	assert.Equal(t, 1, res.CellsFilled)

	back, err := Ingest(UploadedFile{Name: art.FileName, Content: art.Data})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, column(t, back, "x"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.exports.WithLabelValues("xlsx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cellsFilled))
}

func TestService_Convert_NoArtifactOnFailure(t *testing.T) {
	svc, _ := newTestService(t)

	art, _, err := svc.Convert(context.Background(), csvUpload("a.csv", "a\n1\n"), TransformSelection{Columns: []string{"b"}})
	assert.Error(t, err)
	assert.Nil(t, art)
}

// ============================================================================
// Batches and held uploads
// ============================================================================

func TestService_ProcessBatch_ContinuesPastFailures(t *testing.T) {
	svc, m := newTestService(t)
	files := []UploadedFile{
		csvUpload("good1.csv", "a\n1\n"),
		{ID: NewFileID(), Name: "bad.txt", Content: []byte("x")},
		csvUpload("good2.csv", "b\n2\n"),
	}

	batch, err := svc.ProcessBatch(context.Background(), files, TransformSelection{})
	require.NoError(t, err)

	require.Len(t, batch.Files, 3)
	assert.Equal(t, 1, batch.Failed)
	assert.Equal(t, []string{"bad.txt"}, batch.FailedNames())
	assert.NoError(t, batch.Files[0].Err)
	assert.Error(t, batch.Files[1].Err)
	assert.NoError(t, batch.Files[2].Err)
	assert.Equal(t, "good2.csv", batch.Files[2].Name)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.files.WithLabelValues("csv", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.files.WithLabelValues("", "error")))
}

func TestService_ProcessBatch_Limits(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.ProcessBatch(context.Background(), nil, TransformSelection{})
	assert.ErrorIs(t, err, ErrNoFiles)

	files := make([]UploadedFile, 4)
	for i := range files {
		files[i] = csvUpload("f.csv", "a\n1\n")
	}
	_, err = svc.ProcessBatch(context.Background(), files, TransformSelection{})
	assert.ErrorIs(t, err, ErrTooManyFiles)
}

func TestService_UploadAndDiscard(t *testing.T) {
	svc, m := newTestService(t)

	file, err := svc.Upload("Data.CSV", []byte("a\n1\n"))
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, file.Format)
	assert.NotEmpty(t, file.ID)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.heldUploads))

	held, err := svc.File(file.ID)
	require.NoError(t, err)
	assert.Equal(t, file, held)

	assert.True(t, svc.Discard(file.ID))
	_, err = svc.File(file.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.heldUploads))
}

func TestService_UploadUnsupportedIsNotHeld(t *testing.T) {
	svc, _ := newTestService(t)

	file, err := svc.Upload("notes.txt", []byte("x"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.NotEmpty(t, file.ID)

	_, err = svc.File(file.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMetrics_Handler(t *testing.T) {
	svc, m := newTestService(t)
	_, err := svc.Process(context.Background(), csvUpload("a.csv", "a\n1\n"), TransformSelection{})
	require.NoError(t, err)

	expected := `
# HELP datacleaner_files_processed_total Files run through the pipeline, by input format and outcome.
# TYPE datacleaner_files_processed_total counter
datacleaner_files_processed_total{format="csv",outcome="ok"} 1
`
	assert.NoError(t, testutil.CollectAndCompare(m.files, strings.NewReader(expected)))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	svc := NewService(Options{}, nil)

	_, err := svc.Process(context.Background(), csvUpload("a.csv", "a\n1\n"), TransformSelection{RemoveDuplicates: true})
	assert.NoError(t, err)
}

func TestSetupTracing(t *testing.T) {
	shutdown, err := SetupTracing(TracingOptions{Enabled: false})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))

	var buf bytes.Buffer
	shutdown, err = SetupTracing(TracingOptions{Enabled: true, SampleRatio: 1, Writer: &buf})
	require.NoError(t, err)

	svc, _ := newTestService(t)
	_, err = svc.Process(context.Background(), csvUpload("traced.csv", "a\n1\n"), TransformSelection{})
	require.NoError(t, err)

	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), "pipeline.ingest")
	assert.Contains(t, buf.String(), "traced.csv")
}

func TestNewUploadedFile(t *testing.T) {
	file, err := NewUploadedFile("Sheet.XLSX", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, file.Format)
	assert.NotEmpty(t, file.ID)

	file, err = NewUploadedFile("notes.txt", []byte("x"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.Empty(t, file.Format)
	assert.NotEmpty(t, file.ID)
}
