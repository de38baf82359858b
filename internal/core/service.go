package core

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/codes"

	"github.com/JonMunkholm/datacleaner/internal/logging"
)

// Step names one stage of the per-file pipeline.
type Step string

const (
	StepIngest           Step = "ingest"
	StepRemoveDuplicates Step = "remove_duplicates"
	StepFillMissing      Step = "fill_missing"
	StepSelectColumns    Step = "select_columns"
	StepChart            Step = "chart"
	StepExport           Step = "export"
)

// Notices shown after a step changed the data.
const (
	NoticeDuplicatesRemoved = "Duplicates removed successfully!"
	NoticeMissingFilled     = "Missing values filled!"
)

// Options holds the Service settings. Zero fields take defaults.
type Options struct {
	PreviewRows     int
	ChartMaxBars    int
	MaxFiles        int
	SessionTTL      time.Duration
	MaxSessions     int
	MaxConcurrent   int
	MaxWait         time.Duration
	CleanupInterval time.Duration
}

func (o Options) withDefaults() Options {
	if o.PreviewRows <= 0 {
		o.PreviewRows = DefaultPreviewRows
	}
	if o.SessionTTL <= 0 {
		o.SessionTTL = 30 * time.Minute
	}
	if o.CleanupInterval <= 0 {
		o.CleanupInterval = time.Minute
	}
	return o
}

// Service runs the cleaning pipeline and holds uploads between requests.
type Service struct {
	opts     Options
	sessions *SessionStore
	limiter  *UploadLimiter
	metrics  *Metrics
}

// NewService creates a Service. metrics may be nil.
func NewService(opts Options, metrics *Metrics) *Service {
	opts = opts.withDefaults()
	return &Service{
		opts:     opts,
		sessions: NewSessionStore(opts.SessionTTL, opts.MaxSessions),
		limiter:  NewUploadLimiter(opts.MaxConcurrent, opts.MaxWait),
		metrics:  metrics,
	}
}

// Options returns the effective settings.
func (s *Service) Options() Options { return s.opts }

// Limiter returns the processing limiter.
func (s *Service) Limiter() *UploadLimiter { return s.limiter }

// Acquire takes a processing slot. Call release when the batch is done.
func (s *Service) Acquire(ctx context.Context) (release func(), err error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	return s.limiter.Release, nil
}

// StartSweeper expires held uploads in the background until ctx ends.
func (s *Service) StartSweeper(ctx context.Context) {
	go s.sessions.Run(ctx, s.opts.CleanupInterval)
}

// Upload assigns a FileID to name/content and holds it for re-processing.
// A file with an unsupported extension is returned with its ID and the
// error but is not held.
func (s *Service) Upload(name string, content []byte) (UploadedFile, error) {
	file, err := NewUploadedFile(name, content)
	if err != nil {
		return file, err
	}

	s.sessions.Put(file)
	s.metrics.setHeld(s.sessions.Len())
	return file, nil
}

// File returns a held upload.
func (s *Service) File(id FileID) (UploadedFile, error) {
	return s.sessions.Get(id)
}

// Held returns the number of uploads currently held.
func (s *Service) Held() int { return s.sessions.Len() }

// Discard drops a held upload and reports whether it was held.
func (s *Service) Discard(id FileID) bool {
	ok := s.sessions.Delete(id)
	s.metrics.setHeld(s.sessions.Len())
	return ok
}

// StepResult is the state of the data after one step.
type StepResult struct {
	Step    Step    `json:"step"`
	Notice  string  `json:"notice,omitempty"`
	Preview Preview `json:"preview"`
}

// FileResult is the outcome of running the pipeline on one file.
type FileResult struct {
	ID     FileID `json:"file_id"`
	Name   string `json:"file_name"`
	Format Format `json:"format"`

	Steps             []StepResult `json:"steps"`
	Chart             *Chart       `json:"chart,omitempty"`
	DuplicatesRemoved int          `json:"duplicates_removed"`
	CellsFilled       int          `json:"cells_filled"`
	Rows              int          `json:"rows"`
	Columns           int          `json:"columns"`

	// Dataset is the cleaned data, ready for Export.
	Dataset *Dataset `json:"-"`

	// Err is the error that stopped this file, if any.
	Err error `json:"-"`
}

// Last returns the result of the final step that ran.
func (r *FileResult) Last() *StepResult {
	if len(r.Steps) == 0 {
		return nil
	}
	return &r.Steps[len(r.Steps)-1]
}

// Process runs the pipeline on one file in fixed order: ingest, remove
// duplicates, fill missing values, select columns, chart. Toggles that are
// off skip their step. A preview is taken after every step that ran. The
// returned result is non-nil even on error and holds the steps completed.
func (s *Service) Process(ctx context.Context, file UploadedFile, sel TransformSelection) (res *FileResult, err error) {
	logger := logging.WithFile(ctx, string(file.ID), file.Name)
	res = &FileResult{ID: file.ID, Name: file.Name, Format: file.Format}
	start := time.Now()

	defer func() {
		res.Err = err
		s.metrics.fileProcessed(file.Format, err)
		if err != nil {
			logger.Warn("file processing failed", "error", err)
			return
		}
		logger.Info("file processed",
			"rows", res.Rows,
			"columns", res.Columns,
			"duplicates_removed", res.DuplicatesRemoved,
			"cells_filled", res.CellsFilled,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}()

	if err := sel.Validate(); err != nil {
		return res, err
	}

	var ds *Dataset
	err = s.step(ctx, StepIngest, file, func() error {
		var err error
		ds, err = Ingest(file)
		if err != nil {
			return err
		}
		s.metrics.ingested(len(file.Content))
		res.record(StepIngest, "", ds, s.opts.PreviewRows)
		return nil
	})
	if err != nil {
		return res, err
	}

	if sel.RemoveDuplicates {
		err = s.step(ctx, StepRemoveDuplicates, file, func() error {
			res.DuplicatesRemoved = RemoveDuplicates(ds)
			s.metrics.duplicates(res.DuplicatesRemoved)
			res.record(StepRemoveDuplicates, NoticeDuplicatesRemoved, ds, s.opts.PreviewRows)
			return nil
		})
		if err != nil {
			return res, err
		}
	}

	if sel.FillMissing {
		err = s.step(ctx, StepFillMissing, file, func() error {
			res.CellsFilled = FillMissingValues(ds)
			s.metrics.filled(res.CellsFilled)
			res.record(StepFillMissing, NoticeMissingFilled, ds, s.opts.PreviewRows)
			return nil
		})
		if err != nil {
			return res, err
		}
	}

	err = s.step(ctx, StepSelectColumns, file, func() error {
		if err := SelectColumns(ds, sel.Columns); err != nil {
			return err
		}
		res.record(StepSelectColumns, "", ds, s.opts.PreviewRows)
		return nil
	})
	if err != nil {
		return res, err
	}

	if sel.ShowChart {
		err = s.step(ctx, StepChart, file, func() error {
			res.Chart = BuildChart(ds, s.opts.ChartMaxBars)
			return nil
		})
		if err != nil {
			return res, err
		}
	}

	res.Dataset = ds
	res.Rows, res.Columns = ds.Shape()
	return res, nil
}

// Convert processes file and exports the result in sel's format.
func (s *Service) Convert(ctx context.Context, file UploadedFile, sel TransformSelection) (*ExportArtifact, *FileResult, error) {
	res, err := s.Process(ctx, file, sel)
	if err != nil {
		return nil, res, err
	}

	var art *ExportArtifact
	err = s.step(ctx, StepExport, file, func() error {
		var err error
		art, err = Export(res.Dataset, sel.Format(), file.Name)
		return err
	})
	if err != nil {
		logging.WithFile(ctx, string(file.ID), file.Name).Warn("export failed", "format", sel.Format(), "error", err)
		return nil, res, err
	}
	s.metrics.exported(art.Format)
	return art, res, nil
}

// BatchResult holds the per-file results of one upload, in upload order.
type BatchResult struct {
	Files  []*FileResult `json:"files"`
	Failed int           `json:"failed"`
}

// FailedNames returns the names of the files that did not process.
func (b *BatchResult) FailedNames() []string {
	var names []string
	for _, f := range b.Files {
		if f.Err != nil {
			names = append(names, f.Name)
		}
	}
	return names
}

// ProcessBatch runs Process over files one after another, applying sel to
// each. A failing file is recorded in its result and does not stop the
// others. Only a cancelled ctx ends the batch early.
func (s *Service) ProcessBatch(ctx context.Context, files []UploadedFile, sel TransformSelection) (*BatchResult, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	if s.opts.MaxFiles > 0 && len(files) > s.opts.MaxFiles {
		return nil, fmt.Errorf("%w: %d files, limit is %d", ErrTooManyFiles, len(files), s.opts.MaxFiles)
	}

	batch := &BatchResult{Files: make([]*FileResult, 0, len(files))}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return batch, err
		}
		res, err := s.Process(ctx, f, sel)
		if err != nil {
			batch.Failed++
		}
		batch.Files = append(batch.Files, res)
	}

	logging.FromContext(ctx).Info("batch processed", "files", len(files), "failed", batch.Failed)
	return batch, nil
}

func (r *FileResult) record(step Step, notice string, ds *Dataset, previewRows int) {
	r.Steps = append(r.Steps, StepResult{Step: step, Notice: notice, Preview: ds.Preview(previewRows)})
}

// step runs fn inside a span, after checking that ctx is still live.
func (s *Service) step(ctx context.Context, step Step, file UploadedFile, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, span := startStep(ctx, step, file)
	defer span.End()

	start := time.Now()
	err := fn()
	s.metrics.observeStep(step, time.Since(start))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
