package engine

import (
	"fmt"

	"github.com/spektr-org/charta/dataset"
	"github.com/spektr-org/charta/errs"
	"github.com/spektr-org/charta/instruction"
)

// ============================================================================
// AGGREGATION STAGE — per-category reduction
// ============================================================================
// Groups by the chart's category axis (x_column for bar/line/scatter,
// names_column for pie); without one, groups by the aggregated column
// itself. Missing keys form their own group so counts always add up to the
// input row count.
// ============================================================================

// ApplyAggregation reduces d by a. The chart supplies the grouping key.
// Like ApplyTransform, a returned error is a warning and the returned
// dataset is always usable.
func ApplyAggregation(d *dataset.Dataset, a *instruction.Aggregation, chart instruction.Chart) (*dataset.Dataset, error) {
	if a == nil {
		return d, nil
	}
	fn := instruction.NormalizeAgg(a.Type)
	switch fn {
	case AggCount, AggSum, AggMean, AggMedian:
	default:
		return d, &errs.SchemaError{Field: "aggregation.type", Reason: fmt.Sprintf("unsupported %q", a.Type)}
	}
	if a.Column == "" {
		return d, &errs.SchemaError{Field: "aggregation.column", Reason: "missing"}
	}
	if err := d.Require("aggregation.column", a.Column); err != nil {
		return d, err
	}

	key := ""
	if chart != nil {
		key = instruction.CategoryColumn(chart)
	}
	if key == "" || !d.Has(key) {
		key = a.Column
	}

	var warn error
	src := d
	if fn != AggCount {
		coerced, err := d.CoerceNumeric(a.Column)
		if err != nil {
			warn, fn = err, AggCount
		} else {
			src = coerced
		}
	}

	outCol := a.Column
	switch {
	case fn == AggCount:
		outCol = instruction.CountColumn
	case key == a.Column:
		outCol = a.Column + "_" + fn
	}

	parts := partitionRows(src, []string{key}, false)
	rows := make([]dataset.Row, 0, len(parts))
	for _, p := range parts {
		rows = append(rows, dataset.Row{
			key:    p.Key[0],
			outCol: reduce(src, p.Rows, a.Column, fn),
		})
	}
	return dataset.New([]string{key, outCol}, rows), warn
}
