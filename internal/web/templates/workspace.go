package templates

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	g "maragu.dev/gomponents"
	data "maragu.dev/gomponents-datastar"
	h "maragu.dev/gomponents/html"

	"github.com/JonMunkholm/datacleaner/internal/core"
)

// Form field names. Per-file controls are namespaced as "<fileID>.<field>"
// so every card can live in one form.
const (
	FieldFile       = "f"
	FieldDedup      = "dedup"
	FieldFill       = "fill"
	FieldChart      = "chart"
	FieldFormat     = "format"
	FieldColumns    = "cols"
	FieldColumnsSet = "cols_set"
)

// Messages shown above the cards.
const (
	NoticeNoFiles     = "No files uploaded yet"
	NoticeAllFilesOK  = "All files processed successfully!"
	noticeIntro       = "Upload one or more CSV or Excel files to preview and clean them."
	noticeSomeFailed  = "Processing finished, but %d of %d files failed: %s"
	noticeNoNumeric   = "No numeric columns to chart."
	noticeApplyToDraw = "Apply to draw the chart."
)

// FieldName returns the form field name of field for file id.
func FieldName(id core.FileID, field string) string {
	return string(id) + "." + field
}

// Workspace is the state of the results page.
type Workspace struct {
	Cards  []FileCard
	Notice string
}

// FileCard is one uploaded file with the selection it was processed with.
type FileCard struct {
	Result    *core.FileResult
	Selection core.TransformSelection
	// Held is true when the upload is still in the session store and can
	// be re-processed or downloaded.
	Held bool
}

// Failed returns the names of the cards whose processing failed.
func (w Workspace) Failed() []string {
	var names []string
	for _, c := range w.Cards {
		if c.Result.Err != nil {
			names = append(names, c.Result.Name)
		}
	}
	return names
}

// WorkspacePage renders the upload form followed by one card per file.
func WorkspacePage(meta PageMeta, ws Workspace) templ.Component {
	return component(page(meta, workspace(ws)))
}

func workspace(ws Workspace) g.Node {
	if len(ws.Cards) == 0 {
		if ws.Notice != "" {
			return alert("info", g.Text(ws.Notice))
		}
		return muted(noticeIntro)
	}

	cards := make([]g.Node, len(ws.Cards))
	for i, c := range ws.Cards {
		cards[i] = fileCard(i, c)
	}

	return h.Form(
		h.ID("workspace"),
		h.Method("get"),
		h.Action("/files"),
		g.Group(cards),
		summary(ws),
	)
}

func summary(ws Workspace) g.Node {
	failed := ws.Failed()
	if len(failed) == 0 {
		return alert("success", g.Text(NoticeAllFilesOK))
	}
	return alert("warning", g.Text(fmt.Sprintf(noticeSomeFailed, len(failed), len(ws.Cards), strings.Join(failed, ", "))))
}

func fileCard(idx int, c FileCard) g.Node {
	res := c.Result
	id := res.ID

	var body []g.Node
	if res.Err == nil {
		body = append(body, muted(fmt.Sprintf("%d rows × %d columns", res.Rows, res.Columns)))
	}
	for i, step := range res.Steps {
		body = append(body, stepPreview(step, i == len(res.Steps)-1))
	}
	if res.Err != nil {
		msg := core.MapError(res.Err)
		body = append(body, errorAlert(msg.Message, msg.Action, msg.Code))
	}

	chartSignal := "chart" + strconv.Itoa(idx)
	if c.Selection.ShowChart {
		body = append(body, chartSection(res, chartSignal))
	}

	return h.Section(
		h.Class("card file"),
		h.ID("file-"+string(id)),
		data.Signals(map[string]any{
			"q" + strconv.Itoa(idx): "",
			chartSignal:             c.Selection.ShowChart,
		}),
		h.H2(g.Text(res.Name)),
		g.Group(body),
		g.If(c.Held && len(res.Steps) > 0, controls(idx, c)),
	)
}

func stepPreview(step core.StepResult, open bool) g.Node {
	return h.Details(
		h.Class("step"),
		g.If(open, g.Attr("open")),
		h.Summary(g.Text(stepTitle(step.Step))),
		g.If(step.Notice != "", alert("success", g.Text(step.Notice))),
		previewTable(step.Preview),
	)
}

func stepTitle(s core.Step) string {
	switch s {
	case core.StepIngest:
		return "Preview"
	case core.StepRemoveDuplicates:
		return "After removing duplicates"
	case core.StepFillMissing:
		return "After filling missing values"
	case core.StepSelectColumns:
		return "Selected columns"
	default:
		return string(s)
	}
}

func previewTable(p core.Preview) g.Node {
	if len(p.Columns) == 0 {
		return muted(fmt.Sprintf("No columns selected (%d rows).", p.TotalRows))
	}

	head := make([]g.Node, len(p.Columns))
	for j, col := range p.Columns {
		head[j] = h.Th(g.Text(col.Name), h.Small(h.Class("kind"), g.Text(string(col.Kind))))
	}

	rows := make([]g.Node, len(p.Rows))
	for i, row := range p.Rows {
		cells := make([]g.Node, len(row))
		for j, v := range row {
			if v == "" {
				cells[j] = h.Td(h.Class("missing"), g.Text("NaN"))
				continue
			}
			cells[j] = h.Td(g.Text(v))
		}
		rows[i] = h.Tr(g.Group(cells))
	}

	return h.Div(
		h.Class("table-wrap"),
		h.Table(
			h.THead(h.Tr(g.Group(head))),
			h.TBody(g.Group(rows)),
		),
		muted(fmt.Sprintf("Showing %d of %d rows, %d missing values.", len(p.Rows), p.TotalRows, p.Missing)),
	)
}

func chartSection(res *core.FileResult, signal string) g.Node {
	var content g.Node
	switch {
	case res.Chart != nil:
		content = barChart(res.Chart)
	case res.Err == nil:
		content = muted(noticeNoNumeric)
	default:
		return nil
	}
	return h.Div(h.Class("chart-wrap"), data.Show("$"+signal), content)
}

func controls(idx int, c FileCard) g.Node {
	id := c.Result.ID
	sel := c.Selection
	filter := "q" + strconv.Itoa(idx)

	columns := c.Result.Steps[0].Preview.Columns
	boxes := make([]g.Node, len(columns))
	for j, col := range columns {
		checked := sel.Columns == nil || slices.Contains(sel.Columns, col.Name)
		boxes[j] = h.Label(
			h.Class("check"),
			data.Show(containsExpr(filter, col.Name)),
			h.Input(h.Type("checkbox"), h.Name(FieldName(id, FieldColumns)), h.Value(col.Name), g.If(checked, h.Checked())),
			g.Text(col.Name),
		)
	}

	formats := make([]g.Node, len(core.Formats))
	for i, f := range core.Formats {
		formats[i] = h.Option(h.Value(string(f)), g.If(f == sel.Format(), h.Selected()), g.Text(f.Label()))
	}

	return h.Div(
		h.Class("controls"),
		h.Input(h.Type("hidden"), h.Name(FieldFile), h.Value(string(id))),
		h.Input(h.Type("hidden"), h.Name(FieldName(id, FieldColumnsSet)), h.Value("1")),
		h.FieldSet(
			h.Legend(g.Text("Cleaning")),
			toggle(FieldName(id, FieldDedup), "Remove duplicates", sel.RemoveDuplicates),
			toggle(FieldName(id, FieldFill), "Fill missing values with column mean", sel.FillMissing),
		),
		h.FieldSet(
			h.Legend(g.Text("Columns")),
			h.Input(h.Type("search"), h.Placeholder("Filter columns"), data.Bind(filter), h.AutoComplete("off")),
			h.Div(h.Class("columns"), g.Group(boxes)),
		),
		h.FieldSet(
			h.Legend(g.Text("Output")),
			h.Label(
				h.Class("check"),
				h.Input(h.Type("checkbox"), h.Name(FieldName(id, FieldChart)), h.Value("on"), data.Bind("chart"+strconv.Itoa(idx)), g.If(sel.ShowChart, h.Checked())),
				g.Text("Show chart"),
			),
			g.If(!sel.ShowChart, h.P(h.Class("muted"), data.Show("$chart"+strconv.Itoa(idx)), g.Text(noticeApplyToDraw))),
			h.Label(g.Text("Download as "), h.Select(h.Name(FieldName(id, FieldFormat)), g.Group(formats))),
		),
		h.Div(
			h.Class("button-row"),
			h.Button(h.Type("submit"), h.Class("btn btn-primary"), g.Text("Apply")),
			h.Button(h.Type("submit"), h.Class("btn"), g.Attr("formaction", "/files/"+string(id)+"/download"), g.Text("Download")),
			h.Button(h.Type("submit"), h.Class("btn btn-danger"), g.Attr("formaction", "/files/"+string(id)+"/discard"), g.Attr("formmethod", "post"), g.Text("Discard")),
		),
	)
}

func toggle(name, label string, on bool) g.Node {
	return h.Label(
		h.Class("check"),
		h.Input(h.Type("checkbox"), h.Name(name), h.Value("on"), g.If(on, h.Checked())),
		g.Text(label),
	)
}

func containsExpr(signal, value string) string {
	return "$" + signal + " === '' || " + strconv.Quote(strings.ToLower(value)) + ".includes($" + signal + ".toLowerCase())"
}
