package engine

import (
	"fmt"

	"github.com/spektr-org/charta/dataset"
	"github.com/spektr-org/charta/errs"
	"github.com/spektr-org/charta/instruction"
)

// ============================================================================
// TRANSFORM ENGINE — group / pivot / melt
// ============================================================================
// A malformed or partially specified transform is a no-op: the input comes
// back unchanged with an error describing what was missing. Callers treat
// that error as a warning.
// ============================================================================

// ApplyTransform reshapes d according to t.
func ApplyTransform(d *dataset.Dataset, t instruction.Transform) (*dataset.Dataset, error) {
	switch tr := t.(type) {
	case nil:
		return d, nil
	case instruction.GroupTransform:
		return groupBy(d, tr)
	case instruction.PivotTransform:
		return pivot(d, tr)
	case instruction.MeltTransform:
		return melt(d, tr)
	case instruction.UnknownTransform:
		return d, &errs.SchemaError{Field: "transform.type", Reason: fmt.Sprintf("unsupported transform %q", tr.Declared)}
	}
	return d, &errs.SchemaError{Field: "transform.type", Reason: fmt.Sprintf("unsupported transform %T", t)}
}

func requireAll(d *dataset.Dataset, field string, cols []string) error {
	for _, c := range cols {
		if err := d.Require(field, c); err != nil {
			return err
		}
	}
	return nil
}

// ── group ──

// groupBy emits one row per distinct key tuple of t.By, sorted by key. Rows
// with a missing key value are dropped.
func groupBy(d *dataset.Dataset, t instruction.GroupTransform) (*dataset.Dataset, error) {
	if len(t.By) == 0 {
		return d, &errs.SchemaError{Field: "transform.by", Reason: "missing"}
	}
	if err := requireAll(d, "transform.by", t.By); err != nil {
		return d, err
	}

	fn := AggCount
	if t.AggFunction != "" {
		if fn = instruction.NormalizeAgg(t.AggFunction); fn == "" {
			return d, &errs.SchemaError{Field: "transform.agg_function", Reason: fmt.Sprintf("unsupported %q", t.AggFunction)}
		}
	}

	var warn error
	src, valueCol, outCol := d, "", instruction.CountColumn
	if fn != AggCount {
		if t.Column == "" {
			return d, &errs.SchemaError{Field: "transform.column", Reason: fmt.Sprintf("required for %s", fn)}
		}
		if err := d.Require("transform.column", t.Column); err != nil {
			return d, err
		}
		coerced, err := d.CoerceNumeric(t.Column)
		if err != nil {
			// not numeric: degrade to a row count
			warn, fn = err, AggCount
		} else {
			src, valueCol, outCol = coerced, t.Column, t.Column
		}
	}

	parts := partitionRows(src, t.By, true)
	columns := append(append([]string{}, t.By...), outCol)
	rows := make([]dataset.Row, 0, len(parts))
	for _, p := range parts {
		row := make(dataset.Row, len(columns))
		for j, c := range t.By {
			row[c] = p.Key[j]
		}
		row[outCol] = reduce(src, p.Rows, valueCol, fn)
		rows = append(rows, row)
	}
	return dataset.New(columns, rows), warn
}

// ── pivot ──

// pivot spreads t.Values across one column per distinct t.Columns value.
// Output columns are the index columns followed by the distinct values in
// sorted order; combinations with no rows are absent cells.
func pivot(d *dataset.Dataset, t instruction.PivotTransform) (*dataset.Dataset, error) {
	switch {
	case len(t.Index) == 0:
		return d, &errs.SchemaError{Field: "transform.index", Reason: "missing"}
	case t.Columns == "":
		return d, &errs.SchemaError{Field: "transform.columns", Reason: "missing"}
	case t.Values == "":
		return d, &errs.SchemaError{Field: "transform.values", Reason: "missing"}
	}
	if err := requireAll(d, "transform.index", t.Index); err != nil {
		return d, err
	}
	if err := d.Require("transform.columns", t.Columns); err != nil {
		return d, err
	}
	if err := d.Require("transform.values", t.Values); err != nil {
		return d, err
	}

	fn := AggSum
	if t.AggFunction != "" {
		if fn = instruction.NormalizeAgg(t.AggFunction); fn == "" {
			return d, &errs.SchemaError{Field: "transform.agg_function", Reason: fmt.Sprintf("unsupported %q", t.AggFunction)}
		}
	}
	src := d
	if fn != AggCount {
		coerced, err := d.CoerceNumeric(t.Values)
		if err != nil {
			return d, err
		}
		src = coerced
	}

	// distinct spread values, sorted
	spread := partitionRows(src, []string{t.Columns}, true)
	columns := append([]string{}, t.Index...)
	labels := make([]string, len(spread))
	for i, p := range spread {
		labels[i] = dataset.Format(p.Key[0])
		columns = append(columns, labels[i])
	}

	keyCols := append(append([]string{}, t.Index...), t.Columns)
	cells := partitionRows(src, keyCols, true)
	byIndex := make(map[uint64][]*partition)
	for _, c := range cells {
		h := hashKey(c.Key[:len(t.Index)])
		byIndex[h] = append(byIndex[h], c)
	}

	groups := partitionRows(src, t.Index, true)
	rows := make([]dataset.Row, 0, len(groups))
	for _, g := range groups {
		row := make(dataset.Row, len(columns))
		for j, c := range t.Index {
			row[c] = g.Key[j]
		}
		for _, c := range byIndex[hashKey(g.Key)] {
			if !keysEqual(c.Key[:len(t.Index)], g.Key) {
				continue
			}
			if v := reduce(src, c.Rows, t.Values, fn); v != nil && (fn == AggCount || hasNumber(src, c.Rows, t.Values)) {
				row[dataset.Format(c.Key[len(t.Index)])] = v
			}
		}
		rows = append(rows, row)
	}
	return dataset.New(columns, rows), nil
}

func hasNumber(d *dataset.Dataset, rows []int, col string) bool {
	for _, i := range rows {
		if _, ok := d.Value(i, col).(float64); ok {
			return true
		}
	}
	return false
}

// ── melt ──

// melt turns each t.ValueVars column into rows of (id_vars..., variable,
// value), one block of rows per value column.
func melt(d *dataset.Dataset, t instruction.MeltTransform) (*dataset.Dataset, error) {
	if len(t.IDVars) == 0 {
		return d, &errs.SchemaError{Field: "transform.id_vars", Reason: "missing"}
	}
	if len(t.ValueVars) == 0 {
		return d, &errs.SchemaError{Field: "transform.value_vars", Reason: "missing"}
	}
	if err := requireAll(d, "transform.id_vars", t.IDVars); err != nil {
		return d, err
	}
	if err := requireAll(d, "transform.value_vars", t.ValueVars); err != nil {
		return d, err
	}

	columns := append(append([]string{}, t.IDVars...), instruction.MeltVariable, instruction.MeltValue)
	rows := make([]dataset.Row, 0, d.Len()*len(t.ValueVars))
	for _, vv := range t.ValueVars {
		for i := 0; i < d.Len(); i++ {
			row := make(dataset.Row, len(columns))
			for _, id := range t.IDVars {
				if v := d.Value(i, id); v != nil {
					row[id] = v
				}
			}
			row[instruction.MeltVariable] = vv
			if v := d.Value(i, vv); v != nil {
				row[instruction.MeltValue] = v
			}
			rows = append(rows, row)
		}
	}
	return dataset.New(columns, rows), nil
}
