package render

import (
	"math"

	"github.com/dustin/go-humanize"

	"github.com/spektr-org/charta/errs"
	"github.com/spektr-org/charta/instruction"
	"github.com/spektr-org/charta/schema"
)

// renderHistogram buckets the numeric value column into equal-width bins.
func renderHistogram(req Request) (*Spec, error) {
	c, ok := req.Instruction.Chart.(instruction.HistogramChart)
	if !ok {
		return nil, &errs.SchemaError{Field: "chart_type", Reason: "expected histogram"}
	}
	if err := req.Data.Require("value_column", c.Value); err != nil {
		return nil, err
	}
	data, err := numericRows(req.Data, c.Value)
	if err != nil {
		return nil, err
	}

	bins := c.Bins
	if bins <= 0 {
		bins = req.Options.DefaultBins
	}
	vals := make([]float64, data.Len())
	for i := range vals {
		vals[i] = data.Value(i, c.Value).(float64)
	}

	return &Spec{
		Kind:    instruction.Histogram,
		Fields:  map[string]string{"value": c.Value},
		XAxis:   schema.DisplayName(c.Value),
		YAxis:   "Count",
		Bins:    Histogram(vals, bins),
		Colors:  assignColors(1),
		Columns: data.Columns(),
		Rows:    data.Records(),
	}, nil
}

// Histogram splits vals into n equal-width bins spanning [min, max]. When all
// values are equal the single range is widened by 0.5 on each side. n is
// capped at instruction.MaxBins.
func Histogram(vals []float64, n int) []Bin {
	if len(vals) == 0 || n <= 0 {
		return nil
	}
	n = min(n, instruction.MaxBins)
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range vals {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}

	width := (hi - lo) / float64(n)
	out := make([]Bin, n)
	for i := range out {
		out[i].Lower = lo + float64(i)*width
		out[i].Upper = lo + float64(i+1)*width
	}
	out[n-1].Upper = hi

	for _, v := range vals {
		i := int((v - lo) / width)
		if i >= n {
			i = n - 1
		}
		if i < 0 {
			i = 0
		}
		out[i].Count++
	}
	for i := range out {
		out[i].Label = humanize.CommafWithDigits(out[i].Lower, 2) + " to " + humanize.CommafWithDigits(out[i].Upper, 2)
	}
	return out
}
