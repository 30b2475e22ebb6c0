package engine

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	"github.com/spektr-org/charta/dataset"
	"github.com/spektr-org/charta/errs"
	"github.com/spektr-org/charta/instruction"
)

// ============================================================================
// CONDITION EVALUATOR — one {column, operation, value} → row mask
// ============================================================================
// Pure: the input snapshot is never modified. Numeric operations run
// against a copy of the snapshot with the column coerced to numeric; that
// copy is returned so the filter stage can carry the coercion forward.
//
// Return contract:
//   mask == nil  → the condition was skipped; err says why
//   mask != nil  → apply it to the returned snapshot; a non-nil err is a
//                  warning (e.g. the column had no numeric values at all)
// ============================================================================

// Evaluate computes the selection mask of c over d.
func Evaluate(d *dataset.Dataset, c instruction.Condition) (*dataset.Mask, *dataset.Dataset, error) {
	if c.Column == "" {
		return nil, d, fmt.Errorf("%w: condition without a column", errs.ErrSkipped)
	}
	if !d.Has(c.Column) {
		return nil, d, &errs.MissingColumnError{Field: "filter.conditions.column", Column: c.Column}
	}
	c.Value = dataset.Normalize(c.Value)
	if c.Value == nil {
		return nil, d, fmt.Errorf("%w: condition on %q has no value", errs.ErrSkipped, c.Column)
	}
	if !c.Operation.Supported() {
		return nil, d, fmt.Errorf("%w: unsupported operation %q on %q", errs.ErrSkipped, c.Operation, c.Column)
	}

	switch {
	case c.Operation == instruction.OpContains:
		return containsMask(d, c.Column, dataset.Format(c.Value)), d, nil
	case c.Operation == instruction.OpEqual && !isNumberLiteral(c.Value):
		return equalFoldMask(d, c.Column, dataset.Format(c.Value)), d, nil
	default:
		return numericMask(d, c)
	}
}

// isNumberLiteral decides between numeric and textual equality from the
// literal's own type: only an unquoted JSON number compares numerically.
func isNumberLiteral(v any) bool {
	_, ok := v.(float64)
	return ok
}

// ── numeric ──

func numericMask(d *dataset.Dataset, c instruction.Condition) (*dataset.Mask, *dataset.Dataset, error) {
	target, err := numericLiteral(c.Value)
	if err != nil {
		return nil, d, &errs.CoercionError{Column: c.Column, Value: c.Value, Target: "numeric"}
	}

	coerced, err := d.CoerceNumeric(c.Column)
	if err != nil {
		// no numeric values at all: every row is excluded
		return dataset.NewMask(d.Len()), d, err
	}

	mask := dataset.NewMask(coerced.Len())
	for i := 0; i < coerced.Len(); i++ {
		v, ok := coerced.Value(i, c.Column).(float64)
		if !ok {
			continue
		}
		if compare(v, c.Operation, target) {
			mask.Set(i)
		}
	}
	return mask, coerced, nil
}

// numericLiteral parses a condition literal, stripping thousands separators.
func numericLiteral(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(strings.ReplaceAll(x, ",", "")), 64)
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("unsupported literal %T", v)
}

func compare(v float64, op instruction.Operation, target float64) bool {
	switch op {
	case instruction.OpGreater:
		return v > target
	case instruction.OpGreaterEqual:
		return v >= target
	case instruction.OpLess:
		return v < target
	case instruction.OpLessEqual:
		return v <= target
	case instruction.OpEqual:
		return v == target
	}
	return false
}

// ── text ──

// A cases.Caser holds state, so each evaluation folds with its own.

func equalFoldMask(d *dataset.Dataset, col, literal string) *dataset.Mask {
	fold := cases.Fold()
	want := fold.String(literal)
	mask := dataset.NewMask(d.Len())
	for i := 0; i < d.Len(); i++ {
		v := d.Value(i, col)
		if dataset.IsMissing(v) {
			continue
		}
		if fold.String(dataset.Format(v)) == want {
			mask.Set(i)
		}
	}
	return mask
}

func containsMask(d *dataset.Dataset, col, literal string) *dataset.Mask {
	fold := cases.Fold()
	want := fold.String(literal)
	mask := dataset.NewMask(d.Len())
	for i := 0; i < d.Len(); i++ {
		v := d.Value(i, col)
		if dataset.IsMissing(v) {
			continue
		}
		if strings.Contains(fold.String(dataset.Format(v)), want) {
			mask.Set(i)
		}
	}
	return mask
}
