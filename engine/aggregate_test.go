package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/charta/dataset"
	"github.com/spektr-org/charta/errs"
	"github.com/spektr-org/charta/instruction"
)

func TestAggregation_CountPartitionLaw(t *testing.T) {
	for seed := int64(0); seed < 10; seed++ {
		d := randomDataset(seed, 100)
		for _, chart := range []instruction.Chart{
			instruction.XYChart{ChartKind: instruction.Bar, X: "group", Y: "count"},
			instruction.PieChart{Names: "score", Values: "count"},
			nil,
		} {
			out, err := ApplyAggregation(d, &instruction.Aggregation{Type: "count", Column: "group"}, chart)
			require.NoError(t, err)

			total := 0.0
			for i := 0; i < out.Len(); i++ {
				total += out.Value(i, "count").(float64)
			}
			assert.Equal(t, float64(d.Len()), total)
		}
	}
}

func TestAggregation_MissingKeysFormAGroup(t *testing.T) {
	d := dataset.New([]string{"k"}, []dataset.Row{{"k": "a"}, {"k": nil}, {}, {"k": "a"}})
	out, err := ApplyAggregation(d, &instruction.Aggregation{Type: "count", Column: "k"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{
		{"k": "a", "count": 2.0},
		{"count": 2.0},
	}, out.Records())
}

func TestAggregation_MeanByCategoryAxis(t *testing.T) {
	chart := instruction.XYChart{ChartKind: instruction.Bar, X: "dept", Y: "salary"}
	out, err := ApplyAggregation(staff(), &instruction.Aggregation{Type: "mean", Column: "salary"}, chart)
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{
		{"dept": "A", "salary": 200.0},
		{"dept": "B", "salary": 200.0},
	}, out.Records())
}

func TestAggregation_MedianOverItselfWithoutCategory(t *testing.T) {
	out, err := ApplyAggregation(staff(), &instruction.Aggregation{Type: "median", Column: "salary"}, instruction.HistogramChart{Value: "salary"})
	require.NoError(t, err)
	assert.Equal(t, []string{"salary", "salary_median"}, out.Columns())
	assert.Equal(t, 3, out.Len())
}

func TestAggregation_NonNumericDegradesToCount(t *testing.T) {
	chart := instruction.PieChart{Names: "city", Values: "name"}
	out, err := ApplyAggregation(products(), &instruction.Aggregation{Type: "sum", Column: "name"}, chart)
	var ce *errs.CoercionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, []string{"city", "count"}, out.Columns())
	assert.Equal(t, 4, out.Len())
}

func TestAggregation_InvalidIsNoOp(t *testing.T) {
	d := staff()
	for _, a := range []*instruction.Aggregation{
		{Type: "max", Column: "salary"},
		{Type: "sum"},
		{Type: "sum", Column: "bonus"},
	} {
		out, err := ApplyAggregation(d, a, nil)
		assert.Error(t, err, "%+v", a)
		assert.Same(t, d, out)
	}
	out, err := ApplyAggregation(d, nil, nil)
	assert.NoError(t, err)
	assert.Same(t, d, out)
}
