package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/charta/dataset"
	"github.com/spektr-org/charta/errs"
	"github.com/spektr-org/charta/instruction"
)

var quarterlyRows = []dataset.Row{
	{"name": "ana", "q1": 10, "q2": 12.5, "q3": 9},
	{"name": "budi", "q1": 7, "q2": 8, "q3": 11},
	{"name": "citra", "q1": 3, "q2": 0, "q3": 4.25},
}

func quarterly() *dataset.Dataset {
	return dataset.New([]string{"name", "q1", "q2", "q3"}, quarterlyRows)
}

// ============================================================================
// GROUP
// ============================================================================

func TestGroup_SumByDept(t *testing.T) {
	out, err := ApplyTransform(staff(), instruction.GroupTransform{
		By: []string{"dept"}, AggFunction: "sum", Column: "salary",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"dept", "salary"}, out.Columns())
	assert.Equal(t, []map[string]any{
		{"dept": "A", "salary": 400.0},
		{"dept": "B", "salary": 200.0},
	}, out.Records())
}

func TestGroup_DefaultsToCount(t *testing.T) {
	out, err := ApplyTransform(staff(), instruction.GroupTransform{By: []string{"dept"}})
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{
		{"dept": "A", "count": 2.0},
		{"dept": "B", "count": 1.0},
	}, out.Records())
}

func TestGroup_MultipleKeysSortedNumbersFirst(t *testing.T) {
	d := dataset.New([]string{"k", "j", "v"}, []dataset.Row{
		{"k": "x", "j": 2, "v": 1},
		{"k": 10, "j": 1, "v": 2},
		{"k": "x", "j": 1, "v": 3},
		{"k": nil, "j": 1, "v": 4},
		{"k": "x", "j": 2, "v": 5},
	})
	out, err := ApplyTransform(d, instruction.GroupTransform{By: []string{"k", "j"}, AggFunction: "avg", Column: "v"})
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{
		{"k": 10.0, "j": 1.0, "v": 2.0},
		{"k": "x", "j": 1.0, "v": 3.0},
		{"k": "x", "j": 2.0, "v": 3.0},
	}, out.Records(), "missing keys dropped")
}

func TestGroup_MedianMinMax(t *testing.T) {
	d := dataset.New([]string{"g", "v"}, []dataset.Row{
		{"g": "a", "v": 1}, {"g": "a", "v": 9}, {"g": "a", "v": 4}, {"g": "a", "v": 6},
	})
	for fn, want := range map[string]float64{"median": 5, "min": 1, "max": 9, "mean": 5, "sum": 20} {
		out, err := ApplyTransform(d, instruction.GroupTransform{By: []string{"g"}, AggFunction: fn, Column: "v"})
		require.NoError(t, err, fn)
		assert.Equal(t, want, out.Value(0, "v"), fn)
	}
}

func TestGroup_NonNumericColumnDegradesToCount(t *testing.T) {
	out, err := ApplyTransform(products(), instruction.GroupTransform{By: []string{"city"}, AggFunction: "sum", Column: "name"})
	var ce *errs.CoercionError
	assert.ErrorAs(t, err, &ce)
	assert.Equal(t, []string{"city", "count"}, out.Columns())
}

func TestGroup_MalformedIsNoOp(t *testing.T) {
	d := staff()
	for _, tr := range []instruction.GroupTransform{
		{},
		{By: []string{"nope"}},
		{By: []string{"dept"}, AggFunction: "sum"},
		{By: []string{"dept"}, AggFunction: "variance", Column: "salary"},
		{By: []string{"dept"}, AggFunction: "sum", Column: "nope"},
	} {
		out, err := ApplyTransform(d, tr)
		assert.Error(t, err, "%+v", tr)
		assert.Same(t, d, out, "%+v", tr)
	}
}

// ============================================================================
// PIVOT & MELT
// ============================================================================

func TestPivot_AbsentCells(t *testing.T) {
	d := dataset.New([]string{"region", "year", "sales"}, []dataset.Row{
		{"region": "north", "year": 2024, "sales": "1,000"},
		{"region": "north", "year": 2023, "sales": 500},
		{"region": "south", "year": 2024, "sales": 300},
		{"region": "north", "year": 2024, "sales": 250},
	})
	out, err := ApplyTransform(d, instruction.PivotTransform{Index: []string{"region"}, Columns: "year", Values: "sales"})
	require.NoError(t, err)
	assert.Equal(t, []string{"region", "2023", "2024"}, out.Columns())
	assert.Equal(t, []map[string]any{
		{"region": "north", "2023": 500.0, "2024": 1250.0},
		{"region": "south", "2024": 300.0},
	}, out.Records())
}

func TestMelt(t *testing.T) {
	out, err := ApplyTransform(quarterly(), instruction.MeltTransform{IDVars: []string{"name"}, ValueVars: []string{"q1", "q2"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "variable", "value"}, out.Columns())
	require.Equal(t, 6, out.Len())
	assert.Equal(t, map[string]any{"name": "ana", "variable": "q1", "value": 10.0}, out.Records()[0])
	assert.Equal(t, map[string]any{"name": "citra", "variable": "q2", "value": 0.0}, out.Records()[5])
}

func TestMeltThenPivotRoundTrips(t *testing.T) {
	wide := quarterly()
	long, err := ApplyTransform(wide, instruction.MeltTransform{IDVars: []string{"name"}, ValueVars: []string{"q1", "q2", "q3"}})
	require.NoError(t, err)

	back, err := ApplyTransform(long, instruction.PivotTransform{
		Index: []string{"name"}, Columns: instruction.MeltVariable, Values: instruction.MeltValue,
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, wide.Records(), back.Records())
	assert.Equal(t, wide.Columns(), back.Columns())
}

func TestMeltAndPivot_MalformedIsNoOp(t *testing.T) {
	d := quarterly()
	for _, tr := range []instruction.Transform{
		instruction.MeltTransform{IDVars: []string{"name"}},
		instruction.MeltTransform{ValueVars: []string{"q1"}},
		instruction.MeltTransform{IDVars: []string{"name"}, ValueVars: []string{"q9"}},
		instruction.PivotTransform{Index: []string{"name"}, Columns: "q1"},
		instruction.PivotTransform{Columns: "q1", Values: "q2"},
		instruction.PivotTransform{Index: []string{"name"}, Columns: "zz", Values: "q2"},
		instruction.UnknownTransform{Declared: "rolling"},
	} {
		out, err := ApplyTransform(d, tr)
		assert.Error(t, err, "%+v", tr)
		assert.Same(t, d, out, "%+v", tr)
	}

	out, err := ApplyTransform(d, nil)
	assert.NoError(t, err)
	assert.Same(t, d, out)
}
