package core

import (
	"math"
	"strconv"
)

// chartSeriesLimit is how many numeric columns a chart plots.
const chartSeriesLimit = 2

// Chart is a grouped bar chart of up to two numeric columns, one group per
// row, labelled by row position.
type Chart struct {
	Labels    []string      `json:"labels"`
	Series    []ChartSeries `json:"series"`
	TotalRows int           `json:"total_rows"`
	Truncated bool          `json:"truncated"`
}

// ChartSeries is one numeric column. A nil value is a gap.
type ChartSeries struct {
	Name   string     `json:"name"`
	Values []*float64 `json:"values"`
}

// BuildChart plots the first two numeric columns of ds. It returns nil when
// ds has no numeric column. At most maxBars rows are plotted; maxBars <= 0
// plots every row.
func BuildChart(ds *Dataset, maxBars int) *Chart {
	numeric := ds.NumericColumns()
	if len(numeric) == 0 {
		return nil
	}
	if len(numeric) > chartSeriesLimit {
		numeric = numeric[:chartSeriesLimit]
	}

	n := len(ds.Rows)
	if maxBars > 0 && n > maxBars {
		n = maxBars
	}

	c := &Chart{
		Labels:    make([]string, n),
		Series:    make([]ChartSeries, len(numeric)),
		TotalRows: len(ds.Rows),
		Truncated: n < len(ds.Rows),
	}
	for i := 0; i < n; i++ {
		c.Labels[i] = strconv.Itoa(i)
	}
	for s, j := range numeric {
		series := ChartSeries{Name: ds.Columns[j].Name, Values: make([]*float64, n)}
		for i := 0; i < n; i++ {
			cell := ds.Rows[i][j]
			if !cell.Valid || math.IsInf(cell.Num, 0) {
				continue
			}
			v := cell.Num
			series.Values[i] = &v
		}
		c.Series[s] = series
	}
	return c
}

// Bounds returns the value range to scale bars against. The range always
// includes zero so bars grow from a common baseline.
func (c *Chart) Bounds() (lo, hi float64) {
	for _, s := range c.Series {
		for _, v := range s.Values {
			if v == nil {
				continue
			}
			lo = min(lo, *v)
			hi = max(hi, *v)
		}
	}
	return lo, hi
}
