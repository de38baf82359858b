package templates

import (
	"fmt"
	"strconv"

	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"

	"github.com/JonMunkholm/datacleaner/internal/core"
)

// Chart geometry in SVG user units.
const (
	chartWidth   = 800.0
	chartHeight  = 260.0
	chartPadLeft = 56.0
	chartPadTop  = 12.0
	chartPadBot  = 24.0
	chartGroup   = 0.8
)

// barChart draws c as a grouped bar chart, one group per row.
func barChart(c *core.Chart) g.Node {
	lo, hi := c.Bounds()
	span := hi - lo
	if span == 0 {
		span = 1
	}

	plotW := chartWidth - chartPadLeft
	plotH := chartHeight - chartPadTop - chartPadBot
	y := func(v float64) float64 {
		return chartPadTop + (hi-v)/span*plotH
	}

	groupW := plotW / float64(max(len(c.Labels), 1))
	barW := groupW * chartGroup / float64(len(c.Series))

	var bars []g.Node
	for s, series := range c.Series {
		for i, v := range series.Values {
			if v == nil {
				continue
			}
			top, bottom := y(max(*v, 0)), y(min(*v, 0))
			x := chartPadLeft + float64(i)*groupW + groupW*(1-chartGroup)/2 + float64(s)*barW
			bars = append(bars, svgEl("rect",
				g.Attr("class", "bar series-"+strconv.Itoa(s)),
				g.Attr("x", num(x)),
				g.Attr("y", num(top)),
				g.Attr("width", num(barW)),
				g.Attr("height", num(max(bottom-top, 0.5))),
				svgEl("title", g.Text(fmt.Sprintf("row %s: %s = %s", c.Labels[i], series.Name, strconv.FormatFloat(*v, 'g', -1, 64)))),
			))
		}
	}

	axis := []g.Node{
		svgEl("line",
			g.Attr("class", "axis"),
			g.Attr("x1", num(chartPadLeft)), g.Attr("x2", num(chartWidth)),
			g.Attr("y1", num(y(0))), g.Attr("y2", num(y(0))),
		),
		axisLabel(chartPadLeft-6, y(hi)+4, hi),
		axisLabel(chartPadLeft-6, y(0)+4, 0),
	}
	if lo < 0 {
		axis = append(axis, axisLabel(chartPadLeft-6, y(lo)+4, lo))
	}

	legend := make([]g.Node, len(c.Series))
	for s, series := range c.Series {
		legend[s] = h.Li(h.Span(h.Class("swatch series-"+strconv.Itoa(s))), g.Text(series.Name))
	}

	return h.Figure(
		h.Class("chart"),
		svgEl("svg",
			g.Attr("viewBox", fmt.Sprintf("0 0 %s %s", num(chartWidth), num(chartHeight))),
			g.Attr("role", "img"),
			g.Attr("aria-label", "Bar chart of numeric columns"),
			g.Group(axis),
			g.Group(bars),
		),
		h.FigCaption(
			h.Ul(h.Class("legend"), g.Group(legend)),
			g.If(c.Truncated, muted(fmt.Sprintf("Showing the first %d of %d rows.", len(c.Labels), c.TotalRows))),
		),
	)
}

func axisLabel(x, y, v float64) g.Node {
	return svgEl("text",
		g.Attr("class", "tick"),
		g.Attr("x", num(x)),
		g.Attr("y", num(y)),
		g.Attr("text-anchor", "end"),
		g.Text(strconv.FormatFloat(v, 'g', 4, 64)),
	)
}

func svgEl(name string, children ...g.Node) g.Node {
	return g.El(name, children...)
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}
