package render

import (
	"github.com/spektr-org/charta/dataset"
	"github.com/spektr-org/charta/errs"
	"github.com/spektr-org/charta/instruction"
)

// ============================================================================
// FALLBACK RENDERER — heuristic chart from column kinds alone
// ============================================================================
//   ≥2 numeric columns              → scatter of the first two
//   ≥1 categorical + ≥1 numeric     → bar of the first of each
//   otherwise                       → SchemaError (nothing to draw)
// ============================================================================

// Suggest picks a chart for data from its column kinds, or nil when no
// heuristic applies.
func Suggest(data *dataset.Dataset) instruction.Chart {
	numeric := data.NumericColumns()
	if len(numeric) >= 2 {
		return instruction.XYChart{ChartKind: instruction.Scatter, X: numeric[0], Y: numeric[1]}
	}
	categories := append(data.CategoricalColumns(), data.DateColumns()...)
	if len(numeric) == 1 && len(categories) > 0 {
		return instruction.XYChart{ChartKind: instruction.Bar, X: categories[0], Y: numeric[0]}
	}
	return nil
}

// Fallback renders the heuristic chart for data. reason is why the declared
// chart could not be used; it becomes the spec description when inst has none.
func (d *Dispatcher) Fallback(inst *instruction.Instruction, data *dataset.Dataset, reason error) (*Spec, error) {
	chart := Suggest(data)
	if chart == nil {
		msg := "no fallback chart fits the dataset"
		if reason != nil {
			msg += " (" + reason.Error() + ")"
		}
		return nil, &errs.SchemaError{Field: "chart_type", Reason: msg}
	}

	fb := &instruction.Instruction{Chart: chart}
	if inst != nil {
		fb.ID = inst.ID
		fb.Title = inst.Title
		fb.Description = inst.Description
	}
	if fb.Description == "" && reason != nil {
		fb.Description = "Showing a default chart: " + reason.Error()
	}

	spec, err := d.Dispatch(fb, data)
	if err != nil {
		return nil, err
	}
	spec.Fallback = true
	return spec, nil
}
