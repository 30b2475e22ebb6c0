package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/charta/dataset"
	"github.com/spektr-org/charta/errs"
	"github.com/spektr-org/charta/instruction"
)

// ============================================================================
// FIXTURES
// ============================================================================

var staffRows = []dataset.Row{
	{"dept": "A", "salary": 100},
	{"dept": "B", "salary": 200},
	{"dept": "A", "salary": 300},
}

func staff() *dataset.Dataset {
	return dataset.New([]string{"dept", "salary"}, staffRows)
}

var productRows = []dataset.Row{
	{"name": "Widget", "price": "500", "city": "Jakarta", "note": "Blue"},
	{"name": "Gadget", "price": "1500", "city": "Bandung", "note": nil},
	{"name": "Gizmo", "price": "2000", "city": "jakarta selatan", "note": "red"},
	{"name": "Doohickey", "price": "n/a", "city": "Surabaya", "note": "BLUE"},
}

func products() *dataset.Dataset {
	return dataset.New([]string{"name", "price", "city", "note"}, productRows)
}

func cond(col string, op instruction.Operation, v any) instruction.Condition {
	return instruction.Condition{Column: col, Operation: op, Value: v}
}

func selected(d *dataset.Dataset, m *dataset.Mask, col string) []any {
	var out []any
	for _, i := range m.Indices() {
		out = append(out, d.Value(i, col))
	}
	return out
}

// ============================================================================
// NUMERIC
// ============================================================================

func TestEvaluate_StripsThousandsSeparators(t *testing.T) {
	d := products()

	mask, coerced, err := Evaluate(d, cond("price", instruction.OpGreater, "1,000"))
	require.NoError(t, err)
	require.NotNil(t, mask)
	assert.Equal(t, []any{1500.0, 2000.0}, selected(coerced, mask, "price"))
	assert.Equal(t, []any{"Gadget", "Gizmo"}, selected(coerced, mask, "name"))

	// the input snapshot keeps its text values
	assert.Equal(t, "1500", d.Value(1, "price"))
}

func TestEvaluate_NumericOperators(t *testing.T) {
	d := staff()
	tests := []struct {
		op   instruction.Operation
		v    any
		want []any
	}{
		{instruction.OpGreater, 100, []any{200.0, 300.0}},
		{instruction.OpGreaterEqual, "200", []any{200.0, 300.0}},
		{instruction.OpLess, 200.0, []any{100.0}},
		{instruction.OpLessEqual, "200", []any{100.0, 200.0}},
		{instruction.OpEqual, 300.0, []any{300.0}},
	}
	for _, tt := range tests {
		mask, coerced, err := Evaluate(d, cond("salary", tt.op, tt.v))
		require.NoError(t, err, tt.op)
		assert.Equal(t, tt.want, selected(coerced, mask, "salary"), tt.op)
	}
}

func TestEvaluate_UnparsableLiteralIsSkipped(t *testing.T) {
	mask, _, err := Evaluate(staff(), cond("salary", instruction.OpGreater, "lots"))
	assert.Nil(t, mask)
	var ce *errs.CoercionError
	assert.ErrorAs(t, err, &ce)
}

func TestEvaluate_NonNumericColumnSelectsNothing(t *testing.T) {
	mask, _, err := Evaluate(products(), cond("name", instruction.OpGreater, 5))
	require.NotNil(t, mask)
	assert.Equal(t, 0, mask.Count())
	var ce *errs.CoercionError
	assert.ErrorAs(t, err, &ce)
}

func TestEvaluate_UncoercibleCellsAreExcluded(t *testing.T) {
	mask, coerced, err := Evaluate(products(), cond("price", instruction.OpLess, 1e9))
	require.NoError(t, err)
	assert.Equal(t, []any{"Widget", "Gadget", "Gizmo"}, selected(coerced, mask, "name"))
}

func TestEvaluate_ExtremeLiterals(t *testing.T) {
	tests := []struct {
		op   instruction.Operation
		v    any
		want []any
	}{
		{instruction.OpGreater, math.MaxFloat64, nil},
		{instruction.OpLess, math.MaxFloat64, []any{100.0, 200.0, 300.0}},
		{instruction.OpGreater, -math.MaxFloat64, []any{100.0, 200.0, 300.0}},
		{instruction.OpLessEqual, "99999999999999999999999", []any{100.0, 200.0, 300.0}},
		{instruction.OpEqual, 1e300, nil},
	}
	for _, tt := range tests {
		mask, coerced, err := Evaluate(staff(), cond("salary", tt.op, tt.v))
		require.NoError(t, err, "%s %v", tt.op, tt.v)
		assert.Equal(t, tt.want, selected(coerced, mask, "salary"), "%s %v", tt.op, tt.v)
	}

	// out of float range: skipped, not clamped
	mask, _, err := Evaluate(staff(), cond("salary", instruction.OpGreater, "1e400"))
	assert.Nil(t, mask)
	assert.Error(t, err)
}

// ============================================================================
// TEXT
// ============================================================================

func TestEvaluate_StringEqualityIsCaseInsensitive(t *testing.T) {
	d := products()
	mask, _, err := Evaluate(d, cond("note", instruction.OpEqual, "blue"))
	require.NoError(t, err)
	assert.Equal(t, []any{"Widget", "Doohickey"}, selected(d, mask, "name"))
}

func TestEvaluate_StringEqualityAgainstNumbers(t *testing.T) {
	// a quoted literal compares text: 200 formats as "200"
	d := staff()
	mask, _, err := Evaluate(d, cond("salary", instruction.OpEqual, "200"))
	require.NoError(t, err)
	assert.Equal(t, []any{"B"}, selected(d, mask, "dept"))
}

func TestEvaluate_Contains(t *testing.T) {
	d := products()
	mask, _, err := Evaluate(d, cond("city", instruction.OpContains, "JAKARTA"))
	require.NoError(t, err)
	assert.Equal(t, []any{"Widget", "Gizmo"}, selected(d, mask, "name"))
}

func TestEvaluate_ContainsNeverMatchesNull(t *testing.T) {
	d := products()
	mask, _, err := Evaluate(d, cond("note", instruction.OpContains, ""))
	require.NoError(t, err)
	assert.Equal(t, 3, mask.Count(), "empty needle matches every present value")
	assert.False(t, mask.Contains(1))
}

// ============================================================================
// SKIPS
// ============================================================================

func TestEvaluate_Skips(t *testing.T) {
	d := staff()
	tests := []struct {
		name string
		c    instruction.Condition
	}{
		{"missing column", cond("bonus", instruction.OpGreater, 1)},
		{"null value", cond("salary", instruction.OpGreater, nil)},
		{"unsupported op", cond("dept", "in", []any{"A"})},
		{"not equal", cond("dept", "!=", "A")},
		{"no column", cond("", instruction.OpEqual, "A")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mask, out, err := Evaluate(d, tt.c)
			assert.Nil(t, mask)
			assert.Same(t, d, out)
			assert.Error(t, err)
		})
	}

	_, _, err := Evaluate(d, cond("bonus", instruction.OpGreater, 1))
	assert.True(t, errs.IsMissingColumn(err))
	_, _, err = Evaluate(d, cond("salary", instruction.OpGreater, nil))
	assert.ErrorIs(t, err, errs.ErrSkipped)
}
