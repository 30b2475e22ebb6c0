package render

import (
	"github.com/spektr-org/charta/dataset"
	"github.com/spektr-org/charta/errs"
	"github.com/spektr-org/charta/instruction"
	"github.com/spektr-org/charta/schema"
)

// ============================================================================
// XY & PIE RENDERERS
// ============================================================================

// renderXY draws bar, line and scatter charts. The y column is coerced to
// numeric and rows without a numeric y are dropped.
func renderXY(req Request) (*Spec, error) {
	c, ok := req.Instruction.Chart.(instruction.XYChart)
	if !ok {
		return nil, &errs.SchemaError{Field: "chart_type", Reason: "expected bar, line or scatter"}
	}
	if err := req.Data.Require("x_column", c.X); err != nil {
		return nil, err
	}
	if err := req.Data.Require("y_column", c.Y); err != nil {
		return nil, err
	}
	data, err := numericRows(req.Data, c.Y)
	if err != nil {
		return nil, err
	}

	points := make([]Point, 0, data.Len())
	for i := 0; i < data.Len(); i++ {
		x := data.Value(i, c.X)
		points = append(points, Point{
			X:     x,
			Y:     data.Value(i, c.Y).(float64),
			Label: dataset.Format(x),
		})
	}

	return &Spec{
		Kind:    c.ChartKind,
		Fields:  map[string]string{"x": c.X, "y": c.Y},
		XAxis:   schema.DisplayName(c.X),
		YAxis:   schema.DisplayName(c.Y),
		Series:  []Series{{Name: schema.DisplayName(c.Y), Points: points, Color: palette[0]}},
		Colors:  assignColors(1),
		Columns: data.Columns(),
		Rows:    data.Records(),
	}, nil
}

// renderPie sums the value column per distinct name, in first-seen order.
func renderPie(req Request) (*Spec, error) {
	c, ok := req.Instruction.Chart.(instruction.PieChart)
	if !ok {
		return nil, &errs.SchemaError{Field: "chart_type", Reason: "expected pie"}
	}
	if err := req.Data.Require("value_column", c.Values); err != nil {
		return nil, err
	}
	if err := req.Data.Require("names_column", c.Names); err != nil {
		return nil, err
	}
	data, err := numericRows(req.Data, c.Values)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int)
	var points []Point
	for i := 0; i < data.Len(); i++ {
		name := data.Value(i, c.Names)
		label := dataset.Format(name)
		v := data.Value(i, c.Values).(float64)
		if j, seen := index[label]; seen {
			points[j].Y += v
			continue
		}
		index[label] = len(points)
		points = append(points, Point{X: name, Y: v, Label: label})
	}

	return &Spec{
		Kind:    instruction.Pie,
		Fields:  map[string]string{"values": c.Values, "names": c.Names},
		Series:  []Series{{Name: schema.DisplayName(c.Values), Points: points}},
		Colors:  assignColors(len(points)),
		Columns: data.Columns(),
		Rows:    data.Records(),
	}, nil
}

// numericRows coerces col and keeps only rows where it is numeric. Zero
// remaining rows is an error: an empty chart is never rendered.
func numericRows(d *dataset.Dataset, col string) (*dataset.Dataset, error) {
	coerced, err := d.CoerceNumeric(col)
	if err != nil {
		return nil, err
	}
	keep := dataset.NewMask(coerced.Len())
	for i := 0; i < coerced.Len(); i++ {
		if _, ok := coerced.Value(i, col).(float64); ok {
			keep.Set(i)
		}
	}
	out := coerced.Select(keep)
	if out.Len() == 0 {
		return nil, &errs.EmptyResultError{Stage: "dispatch"}
	}
	return out, nil
}
