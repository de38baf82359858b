package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/datacleaner/internal/core"
	"github.com/JonMunkholm/datacleaner/internal/logging"
)

type cleanOptions struct {
	dedup   bool
	fill    bool
	chart   bool
	columns []string
	format  string
	outDir  string
	preview bool
	output  string
}

// cleanRecord is one file's line in the JSON report.
type cleanRecord struct {
	Input  string            `json:"input"`
	Output string            `json:"output,omitempty"`
	Result *core.FileResult  `json:"result,omitempty"`
	Error  *core.UserMessage `json:"error,omitempty"`
}

func newCleanCmd(configFile *string) *cobra.Command {
	var opts cleanOptions

	cmd := &cobra.Command{
		Use:   "clean [flags] FILE...",
		Short: "Clean files on disk and write the results",
		Long: `Run every FILE through the cleaning pipeline and write the result to the
output directory. Steps run in a fixed order: remove duplicates, fill missing
numeric values with the column mean, then keep only the selected columns.`,
		Example: `  datacleaner clean --dedup --fill sales.csv
  datacleaner clean --columns region,amount --format xlsx --out reports q1.xlsx q2.xlsx`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.output != "text" && opts.output != "json" {
				return fmt.Errorf("unsupported output format %q: use 'text' or 'json'", opts.output)
			}

			sel := core.TransformSelection{
				RemoveDuplicates: opts.dedup,
				FillMissing:      opts.fill,
				ShowChart:        opts.chart,
			}
			if cmd.Flags().Changed("columns") {
				sel.Columns = append([]string{}, opts.columns...)
			}
			if opts.format != "" {
				f, err := core.ParseFormat(opts.format)
				if err != nil {
					return err
				}
				sel.ExportFormat = f
			}

			cfg, err := loadConfig(*configFile)
			if err != nil {
				return err
			}
			// Data goes to stdout, logs to stderr.
			logging.SetupWriter(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)

			service := core.NewService(serviceOptions(cfg), nil)

			return runClean(cmd.Context(), service, sel, args, opts, cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.BoolVar(&opts.dedup, "dedup", false, "Remove duplicate rows")
	f.BoolVar(&opts.fill, "fill", false, "Fill missing numeric values with the column mean")
	f.BoolVar(&opts.chart, "chart", false, "Include chart data in the report")
	f.StringSliceVar(&opts.columns, "columns", nil, "Columns to keep, comma-separated (default all; empty keeps none)")
	f.StringVarP(&opts.format, "format", "f", "", "Export format: csv or xlsx (default csv)")
	f.StringVar(&opts.outDir, "out", "cleaned", "Directory for the cleaned files")
	f.BoolVar(&opts.preview, "preview", false, "Print the first rows of each result")
	f.StringVarP(&opts.output, "output", "o", "text", "Report format (text, json)")
	return cmd
}

// runClean converts every path and writes the artifacts to opts.outDir. A
// failing file is reported and does not stop the others; the command fails
// if any file did. Inputs sharing a base name get numbered outputs
// (report.csv, report-1.csv) instead of overwriting each other.
func runClean(ctx context.Context, service *core.Service, sel core.TransformSelection, paths []string, opts cleanOptions, out io.Writer) error {
	if err := sel.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	records := make([]cleanRecord, 0, len(paths))
	taken := make(map[string]bool, len(paths))
	failed := 0
	for _, path := range paths {
		rec := cleanFile(ctx, service, sel, path, opts.outDir, taken)
		if rec.Error != nil {
			failed++
		}
		records = append(records, rec)

		if opts.output == "text" {
			printRecord(out, rec, opts.preview)
		}
	}

	if opts.output == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(records); err != nil {
			return err
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(paths))
	}
	return nil
}

func cleanFile(ctx context.Context, service *core.Service, sel core.TransformSelection, path, outDir string, taken map[string]bool) cleanRecord {
	rec := cleanRecord{Input: path}
	fail := func(err error) cleanRecord {
		msg := core.MapError(err)
		rec.Error = &msg
		slog.Warn("clean failed", "file", path, "error", err)
		return rec
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return fail(err)
	}

	// Unsupported files still go through Convert, which reports them.
	file, _ := core.NewUploadedFile(filepath.Base(path), content)
	art, res, err := service.Convert(ctx, file, sel)
	rec.Result = res
	if err != nil {
		return fail(err)
	}

	target := uniqueTarget(outDir, art.FileName, taken)
	if samePath(target, path) {
		return fail(fmt.Errorf("output %s would overwrite the input", target))
	}
	taken[target] = true
	if err := os.WriteFile(target, art.Data, 0o644); err != nil {
		return fail(err)
	}
	rec.Output = target
	return rec
}

// uniqueTarget joins name to dir, numbering the name until it is not in taken.
func uniqueTarget(dir, name string, taken map[string]bool) string {
	target := filepath.Join(dir, name)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for n := 1; taken[target]; n++ {
		target = filepath.Join(dir, fmt.Sprintf("%s-%d%s", stem, n, ext))
	}
	return target
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}

func printRecord(w io.Writer, rec cleanRecord, preview bool) {
	if rec.Error != nil {
		fmt.Fprintf(w, "%s: %s (%s). %s\n", rec.Input, rec.Error.Message, rec.Error.Code, rec.Error.Action)
		return
	}

	res := rec.Result
	fmt.Fprintf(w, "%s -> %s: %d rows × %d columns", rec.Input, rec.Output, res.Rows, res.Columns)
	if res.DuplicatesRemoved > 0 {
		fmt.Fprintf(w, ", %d duplicates removed", res.DuplicatesRemoved)
	}
	if res.CellsFilled > 0 {
		fmt.Fprintf(w, ", %d cells filled", res.CellsFilled)
	}
	fmt.Fprintln(w)

	if res.Chart != nil {
		names := make([]string, len(res.Chart.Series))
		for i, s := range res.Chart.Series {
			names[i] = s.Name
		}
		fmt.Fprintf(w, "  chart: %s over %d rows\n", strings.Join(names, ", "), len(res.Chart.Labels))
	}

	if preview {
		if last := res.Last(); last != nil {
			printPreview(w, last.Preview)
		}
	}
}

// printPreview writes p as an aligned table, with missing cells as NaN.
func printPreview(w io.Writer, p core.Preview) {
	if len(p.Columns) == 0 {
		fmt.Fprintf(w, "  (no columns, %d rows)\n", p.TotalRows)
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	names := make([]string, len(p.Columns))
	for j, col := range p.Columns {
		names[j] = col.Name
	}
	fmt.Fprintf(tw, "  %s\n", strings.Join(names, "\t"))
	for _, row := range p.Rows {
		cells := make([]string, len(row))
		for j, v := range row {
			if v == "" {
				v = "NaN"
			}
			cells[j] = v
		}
		fmt.Fprintf(tw, "  %s\n", strings.Join(cells, "\t"))
	}
	tw.Flush()
	fmt.Fprintf(w, "  showing %d of %d rows, %d missing values\n", len(p.Rows), p.TotalRows, p.Missing)
}
