package engine

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/charta/dataset"
	"github.com/spektr-org/charta/errs"
	"github.com/spektr-org/charta/instruction"
	"github.com/spektr-org/charta/render"
)

func parse(t *testing.T, text string) *instruction.Instruction {
	t.Helper()
	resp := instruction.Parse(text)
	require.Equal(t, instruction.TypeVisualization, resp.Type, resp.Message)
	return resp.Instruction
}

func quiet() Option {
	return WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
}

// ============================================================================
// SCENARIOS
// ============================================================================

func TestExecute_GroupedBar(t *testing.T) {
	inst := parse(t, `{"chart_type":"bar", "transform":{"type":"group", "by":["dept"], "agg_function":"sum", "column":"salary"}, "x_column":"dept", "y_column":"salary"}`)

	res, err := Execute(context.Background(), inst, staff(), quiet())
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{
		{"dept": "A", "salary": 400.0},
		{"dept": "B", "salary": 200.0},
	}, res.Data.Records())

	spec := res.Spec
	require.NotNil(t, spec)
	assert.Equal(t, instruction.Bar, spec.Kind)
	assert.False(t, res.Fallback)
	require.Len(t, spec.Series, 1)
	assert.Equal(t, []render.Point{
		{X: "A", Y: 400, Label: "A"},
		{X: "B", Y: 200, Label: "B"},
	}, spec.Series[0].Points)
	assert.Equal(t, inst.ID.String(), spec.InstructionID)
	assert.Equal(t, []State{StateReceived, StateValidated, StateFiltered, StateTransformed, StateAggregated, StateDispatched, StateRendered}, res.Trace)
}

func TestExecute_TopOneBeforeGrouping(t *testing.T) {
	inst := parse(t, `{"chart_type":"bar", "x_column":"dept", "y_column":"salary", "filter":{"limit":{"type":"top", "value":1, "sort_column":"salary"}}}`)

	res, err := Execute(context.Background(), inst, staff(), quiet())
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{{"dept": "A", "salary": 300.0}}, res.Data.Records())
	assert.Empty(t, res.Warnings)
}

func TestExecute_NonexistentAxisColumnIsTerminal(t *testing.T) {
	inst := parse(t, `{"chart_type":"bar", "x_column":"dept", "y_column":"nonexistent"}`)

	res, err := Execute(context.Background(), inst, staff(), quiet())
	var mc *errs.MissingColumnError
	require.ErrorAs(t, err, &mc)
	assert.Equal(t, "nonexistent", mc.Column)
	assert.Nil(t, res.Spec)
	assert.Equal(t, StateFailed, res.State())
}

func TestExecute_CommaLiteralFilter(t *testing.T) {
	inst := parse(t, `{"chart_type":"bar", "x_column":"name", "y_column":"price", "filter":{"conditions":[{"column":"price", "operation":">", "value":"1,000"}]}}`)

	res, err := Execute(context.Background(), inst, products(), quiet())
	require.NoError(t, err)
	require.Equal(t, 2, res.Data.Len())
	assert.Equal(t, 1500.0, res.Data.Value(0, "price"))
	assert.Equal(t, 2000.0, res.Data.Value(1, "price"))
}

func TestExecute_EmptySelectionRevertsWithWarning(t *testing.T) {
	inst := parse(t, `{"chart_type":"bar", "x_column":"dept", "y_column":"salary", "filter":{"conditions":[{"column":"dept", "operation":"==", "value":"Z"}]}}`)

	d := staff()
	res, err := Execute(context.Background(), inst, d, quiet())
	require.NoError(t, err)
	assert.Equal(t, d.Len(), res.Data.Len())
	require.Len(t, res.Warnings, 1)
	var empty *errs.EmptyResultError
	assert.ErrorAs(t, res.Warnings[0], &empty)
	assert.Len(t, res.Spec.Series[0].Points, 3)
}

// ============================================================================
// FALLBACK & FAILURE
// ============================================================================

func TestExecute_UnknownChartFallsBack(t *testing.T) {
	inst := parse(t, `{"chart_type":"radar", "title":"Pay"}`)

	res, err := Execute(context.Background(), inst, staff(), quiet())
	require.NoError(t, err)
	assert.True(t, res.Fallback)
	assert.True(t, res.Spec.Fallback)
	assert.Equal(t, instruction.Bar, res.Spec.Kind)
	assert.Equal(t, map[string]string{"x": "dept", "y": "salary"}, res.Spec.Fields)
	assert.Equal(t, "Pay", res.Spec.Title)
	require.NotEmpty(t, res.Warnings)
	assert.Equal(t, StageValidate, res.Warnings[0].Stage)
	assert.NotContains(t, res.Trace, StateValidated)
}

func TestExecute_MissingFieldFallsBackToScatter(t *testing.T) {
	d := dataset.New([]string{"height", "weight", "label"}, []dataset.Row{
		{"height": 170, "weight": 65, "label": "a"},
		{"height": 182, "weight": 80, "label": "b"},
	})
	inst := parse(t, `{"chart_type":"line", "x_column":"height"}`)

	res, err := Execute(context.Background(), inst, d, quiet())
	require.NoError(t, err)
	assert.Equal(t, instruction.Scatter, res.Spec.Kind)
	assert.Equal(t, map[string]string{"x": "height", "y": "weight"}, res.Spec.Fields)
}

func TestExecute_NoFallbackFitsIsTerminal(t *testing.T) {
	d := dataset.New([]string{"a", "b"}, []dataset.Row{{"a": "x", "b": "y"}})
	inst := parse(t, `{"chart_type":"radar"}`)

	res, err := Execute(context.Background(), inst, d, quiet())
	assert.True(t, errs.IsSchema(err))
	assert.Equal(t, StateFailed, res.State())
}

func TestExecute_MapWithoutValidPointsIsTerminal(t *testing.T) {
	d := dataset.New([]string{"lat", "lon"}, []dataset.Row{
		{"lat": "unknown", "lon": 106.8},
		{"lat": 95.0, "lon": 106.8},
	})
	inst := parse(t, `{"chart_type":"map", "latitude_column":"lat", "longitude_column":"lon"}`)

	res, err := Execute(context.Background(), inst, d, quiet())
	var empty *errs.EmptyResultError
	require.ErrorAs(t, err, &empty)
	assert.Nil(t, res.Spec)
}

func TestExecute_DoesNotModifyInput(t *testing.T) {
	d := products()
	before := d.Records()
	inst := parse(t, `{"chart_type":"pie", "value_column":"price", "names_column":"city", "filter":{"conditions":[{"column":"price", "operation":">=", "value":0}]}}`)

	_, err := Execute(context.Background(), inst, d, quiet())
	require.NoError(t, err)
	assert.Equal(t, before, d.Records())
}

func TestExecute_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	inst := parse(t, `{"chart_type":"bar", "x_column":"dept", "y_column":"salary"}`)

	res, err := Execute(ctx, inst, staff(), quiet())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateFailed, res.State())
}

func TestExecute_HistogramBinsOption(t *testing.T) {
	inst := parse(t, `{"chart_type":"histogram", "value_column":"salary"}`)

	res, err := Execute(context.Background(), inst, staff(), quiet(), WithHistogramBins(4))
	require.NoError(t, err)
	assert.Len(t, res.Spec.Bins, 4)
}

func TestExecute_LogsInstructionID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	inst := parse(t, `{"chart_type":"bar", "x_column":"dept", "y_column":"salary"}`)

	_, err := Execute(context.Background(), inst, staff(), WithLogger(logger))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "instruction_id="+inst.ID.String())
	assert.Contains(t, buf.String(), "stage=filter")
}

func TestExecute_ExtremeNumericFieldsNeverPanic(t *testing.T) {
	tests := []struct {
		name string
		text string
		kind instruction.ChartKind
	}{
		{"huge limit", `{"chart_type":"bar", "x_column":"dept", "y_column":"salary", "filter":{"limit":{"type":"top", "value":1e20, "sort_column":"salary"}}}`, instruction.Bar},
		{"fractional limit text", `{"chart_type":"bar", "x_column":"dept", "y_column":"salary", "filter":{"limit":{"type":"bottom", "value":"1.5", "sort_column":"salary"}}}`, instruction.Bar},
		{"huge bins", `{"chart_type":"histogram", "value_column":"salary", "bins":4611686018427387904}`, instruction.Histogram},
		{"bins beyond int64", `{"chart_type":"histogram", "value_column":"salary", "bins":1e300}`, instruction.Histogram},
		{"huge condition literal", `{"chart_type":"bar", "x_column":"dept", "y_column":"salary", "filter":{"conditions":[{"column":"salary", "operation":">", "value":1e308}]}}`, instruction.Bar},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst := parse(t, tt.text)
			var (
				res *Result
				err error
			)
			require.NotPanics(t, func() {
				res, err = Execute(context.Background(), inst, staff(), quiet())
			})
			require.NoError(t, err)
			assert.Equal(t, tt.kind, res.Spec.Kind)
			assert.LessOrEqual(t, len(res.Spec.Bins), instruction.MaxBins)
		})
	}
}

func TestExecute_CountSpellings(t *testing.T) {
	for _, fn := range []string{"count", "Count", "size"} {
		t.Run(fn, func(t *testing.T) {
			inst := parse(t, `{"chart_type":"bar", "x_column":"dept", "y_column":"count", "transform":{"type":"group", "by":"dept", "agg_function":"`+fn+`"}}`)

			res, err := Execute(context.Background(), inst, staff(), quiet())
			require.NoError(t, err)
			assert.Equal(t, []map[string]any{
				{"dept": "A", "count": 2.0},
				{"dept": "B", "count": 1.0},
			}, res.Data.Records())
		})
	}
}
