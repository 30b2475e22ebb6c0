package engine

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/spektr-org/charta/dataset"
	"github.com/spektr-org/charta/errs"
	"github.com/spektr-org/charta/instruction"
)

// ============================================================================
// FILTER ENGINE — progressive AND narrowing, then top/bottom-N
// ============================================================================
// Each condition is evaluated against the output of the previous one, so a
// column coerced to numeric by an earlier condition stays coerced for the
// later ones. An empty final result reverts to the input dataset.
// ============================================================================

// ApplyFilter runs f's conditions and limit over d. The returned dataset is
// never empty unless d was; warnings describe every skipped condition and
// degraded step.
func ApplyFilter(d *dataset.Dataset, f *instruction.Filter) (*dataset.Dataset, []Warning) {
	if f == nil || (len(f.Conditions) == 0 && f.Limit == nil) {
		return d, nil
	}

	var warnings []Warning
	current := d
	for _, c := range f.Conditions {
		mask, evaluated, err := Evaluate(current, c)
		if err != nil {
			warnings = append(warnings, Warning{Stage: StageFilter, Err: err})
		}
		if mask == nil {
			continue
		}
		current = evaluated.Select(mask)
	}

	if f.Limit != nil {
		limited, err := ApplyLimit(current, f.Limit)
		if err != nil {
			warnings = append(warnings, Warning{Stage: StageLimit, Err: err})
		}
		current = limited
	}

	if current.Len() == 0 && d.Len() > 0 {
		warnings = append(warnings, Warning{Stage: StageFilter, Err: &errs.EmptyResultError{Stage: StageFilter}})
		return d, warnings
	}
	return current, warnings
}

// ============================================================================
// LIMIT
// ============================================================================

// ApplyLimit sorts d by the numeric value of l.SortColumn (descending for
// top, ascending for bottom) and keeps the first N rows. Rows whose sort
// value is not numeric are dropped before ranking. Ties keep input order.
// A limit that cannot be applied leaves d unchanged and returns why.
func ApplyLimit(d *dataset.Dataset, l *instruction.Limit) (*dataset.Dataset, error) {
	n, err := limitCount(l.Value, d.Len())
	if err != nil {
		return d, err
	}

	var descending bool
	switch strings.ToLower(strings.TrimSpace(l.Type)) {
	case "top":
		descending = true
	case "bottom":
	default:
		return d, &errs.SchemaError{Field: "filter.limit.type", Reason: fmt.Sprintf("expected top or bottom, got %q", l.Type)}
	}

	if l.SortColumn == "" {
		return d, &errs.SchemaError{Field: "filter.limit.sort_column", Reason: "missing"}
	}
	coerced, err := d.CoerceNumeric(l.SortColumn)
	if err != nil {
		return d, err
	}

	type ranked struct {
		idx int
		val float64
	}
	rows := make([]ranked, 0, coerced.Len())
	for i := 0; i < coerced.Len(); i++ {
		if v, ok := coerced.Value(i, l.SortColumn).(float64); ok {
			rows = append(rows, ranked{i, v})
		}
	}
	sort.SliceStable(rows, func(a, b int) bool {
		if descending {
			return rows[a].val > rows[b].val
		}
		return rows[a].val < rows[b].val
	})
	if len(rows) > n {
		rows = rows[:n]
	}

	indices := make([]int, len(rows))
	for i, r := range rows {
		indices[i] = r.idx
	}
	return coerced.Take(indices), nil
}

// limitCount coerces the raw limit value to a positive integer no larger
// than rows. Numbers and numeric text follow the same rule: fractions are
// truncated and anything below 1 is rejected.
func limitCount(v any, rows int) (int, error) {
	x, ok := dataset.ToFloat(dataset.Normalize(v))
	if !ok || x < 1 || math.IsInf(x, 0) {
		return 0, &errs.CoercionError{Column: "filter.limit.value", Value: v, Target: "positive integer"}
	}
	if x >= float64(rows) {
		return rows, nil
	}
	return int(x), nil
}
