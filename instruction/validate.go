package instruction

import (
	"fmt"

	"github.com/spektr-org/charta/errs"
)

// ============================================================================
// INSTRUCTION VALIDATOR
// ============================================================================
// Outcomes:
//   nil                      → dispatch as declared
//   *errs.SchemaError        → chart_type or a required field is missing or
//                              unknown; caller falls back to a heuristic chart
//   *errs.MissingColumnError → a required field names a column that neither
//                              the dataset nor the instruction's own
//                              transform/aggregation provides; nothing is
//                              dispatched
// ============================================================================

// Melt output column names.
const (
	MeltVariable = "variable"
	MeltValue    = "value"
)

// CountColumn is the output column of count reductions.
const CountColumn = "count"

// Validate checks inst against the dataset's column list.
func Validate(inst *Instruction, columns []string) error {
	if inst == nil || inst.Chart == nil {
		return &errs.SchemaError{Field: "chart_type", Reason: "missing"}
	}
	if u, ok := inst.Chart.(UnknownChart); ok {
		if u.Declared == "" {
			return &errs.SchemaError{Field: "chart_type", Reason: "missing"}
		}
		return &errs.SchemaError{Field: "chart_type", Reason: fmt.Sprintf("unsupported chart type %q", u.Declared)}
	}

	required := inst.Chart.Required()
	for _, ref := range required {
		if ref.Column == "" {
			return &errs.SchemaError{Field: ref.Field, Reason: fmt.Sprintf("required for %s chart", inst.Chart.Kind())}
		}
	}

	available := make(map[string]bool, len(columns))
	for _, c := range columns {
		available[c] = true
	}
	for _, c := range DerivedColumns(inst) {
		available[c] = true
	}
	_, pivots := inst.Transform.(PivotTransform)

	for _, ref := range required {
		if available[ref.Column] {
			continue
		}
		// pivot output columns are data values, unknown until the pivot runs
		if pivots {
			continue
		}
		return &errs.MissingColumnError{Field: ref.Field, Column: ref.Column}
	}
	return nil
}

// DerivedColumns lists the columns the instruction's own transform and
// aggregation may create. A reduction over a column that turns out not to
// be numeric falls back to a row count, so its count column is listed too.
func DerivedColumns(inst *Instruction) []string {
	var out []string
	switch t := inst.Transform.(type) {
	case GroupTransform:
		switch {
		case len(t.By) == 0:
		case t.AggFunction == "" || NormalizeAgg(t.AggFunction) == AggCount:
			out = append(out, t.By...)
			out = append(out, CountColumn)
		case t.Column != "":
			out = append(out, t.By...)
			out = append(out, t.Column, CountColumn)
		}
	case PivotTransform:
		out = append(out, t.Index...)
	case MeltTransform:
		if len(t.IDVars) > 0 && len(t.ValueVars) > 0 {
			out = append(out, t.IDVars...)
			out = append(out, MeltVariable, MeltValue)
		}
	}
	if a := inst.Aggregation; a != nil {
		switch fn := NormalizeAgg(a.Type); fn {
		case "":
		case AggCount:
			out = append(out, CountColumn)
		default:
			// keyed by the aggregated column itself, the value becomes <column>_<fn>
			out = append(out, CountColumn)
			if a.Column != "" {
				out = append(out, a.Column+"_"+fn)
			}
		}
	}
	return dedupe(out)
}

func dedupe(cols []string) []string {
	seen := make(map[string]bool, len(cols))
	out := cols[:0]
	for _, c := range cols {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}
