// Package instruction models the visualization instruction produced by the
// instruction source, parses its raw text, and validates it against a dataset.
package instruction

import (
	"github.com/google/uuid"
)

// ============================================================================
// INSTRUCTION — sum types keyed by chart kind
// ============================================================================

// ChartKind is the declared chart type.
type ChartKind string

const (
	Bar       ChartKind = "bar"
	Line      ChartKind = "line"
	Scatter   ChartKind = "scatter"
	Pie       ChartKind = "pie"
	Histogram ChartKind = "histogram"
	Map       ChartKind = "map"
)

// Known reports whether k is one of the supported chart kinds.
func (k ChartKind) Known() bool {
	switch k {
	case Bar, Line, Scatter, Pie, Histogram, Map:
		return true
	}
	return false
}

// FieldRef ties an instruction field name to the column it names.
type FieldRef struct {
	Field  string
	Column string
}

// Chart is one of XYChart, PieChart, HistogramChart, MapChart, UnknownChart.
type Chart interface {
	Kind() ChartKind
	// Required lists the chart's required column fields, in validation order.
	Required() []FieldRef
	chart()
}

// XYChart is a bar, line or scatter chart.
type XYChart struct {
	ChartKind ChartKind
	X         string
	Y         string
}

func (c XYChart) Kind() ChartKind { return c.ChartKind }
func (c XYChart) Required() []FieldRef {
	return []FieldRef{{"x_column", c.X}, {"y_column", c.Y}}
}
func (XYChart) chart() {}

// PieChart sums Values per distinct Names.
type PieChart struct {
	Values string
	Names  string
}

func (PieChart) Kind() ChartKind { return Pie }
func (c PieChart) Required() []FieldRef {
	return []FieldRef{{"value_column", c.Values}, {"names_column", c.Names}}
}
func (PieChart) chart() {}

// HistogramChart bins the numeric Value column. Bins == 0 means the default.
type HistogramChart struct {
	Value string
	Bins  int
}

func (HistogramChart) Kind() ChartKind { return Histogram }
func (c HistogramChart) Required() []FieldRef {
	return []FieldRef{{"value_column", c.Value}}
}
func (HistogramChart) chart() {}

// MapChart plots points; Value optionally weights them.
type MapChart struct {
	Latitude  string
	Longitude string
	Value     string
}

func (MapChart) Kind() ChartKind { return Map }
func (c MapChart) Required() []FieldRef {
	return []FieldRef{{"latitude_column", c.Latitude}, {"longitude_column", c.Longitude}}
}
func (MapChart) chart() {}

// UnknownChart carries a missing or unrecognized chart_type.
type UnknownChart struct {
	Declared string
}

func (c UnknownChart) Kind() ChartKind     { return ChartKind(c.Declared) }
func (UnknownChart) Required() []FieldRef { return nil }
func (UnknownChart) chart()               {}

// CategoryColumn is the chart's category axis, used as the aggregation key.
func CategoryColumn(c Chart) string {
	switch v := c.(type) {
	case XYChart:
		return v.X
	case PieChart:
		return v.Names
	}
	return ""
}

// ── filter ──

// Operation is a condition operator.
type Operation string

const (
	OpGreater      Operation = ">"
	OpGreaterEqual Operation = ">="
	OpLess         Operation = "<"
	OpLessEqual    Operation = "<="
	OpEqual        Operation = "=="
	OpContains     Operation = "contains"
)

// Supported reports whether the evaluator implements op.
func (op Operation) Supported() bool {
	switch op {
	case OpGreater, OpGreaterEqual, OpLess, OpLessEqual, OpEqual, OpContains:
		return true
	}
	return false
}

// Numeric reports whether op compares numbers.
func (op Operation) Numeric() bool {
	switch op {
	case OpGreater, OpGreaterEqual, OpLess, OpLessEqual:
		return true
	}
	return false
}

// Condition is one {column, operation, value} triple. Value is a string,
// float64, bool or nil, exactly as the instruction source wrote it.
type Condition struct {
	Column    string    `mapstructure:"column"`
	Operation Operation `mapstructure:"operation"`
	Value     any       `mapstructure:"value"`
}

// Limit keeps the top or bottom N rows by SortColumn. Value is kept raw and
// coerced when the stage runs.
type Limit struct {
	Type       string `mapstructure:"type"`
	Value      any    `mapstructure:"value"`
	SortColumn string `mapstructure:"sort_column"`
}

// Filter is a conjunction of conditions followed by an optional limit.
type Filter struct {
	Conditions []Condition `mapstructure:"conditions"`
	Limit      *Limit      `mapstructure:"limit"`
}

// ── transform ──

// Transform is one of GroupTransform, PivotTransform, MeltTransform, UnknownTransform.
type Transform interface {
	TransformType() string
}

// GroupTransform partitions by By and reduces each group.
type GroupTransform struct {
	By          []string `mapstructure:"by"`
	AggFunction string   `mapstructure:"agg_function"`
	Column      string   `mapstructure:"column"`
}

func (GroupTransform) TransformType() string { return "group" }

// PivotTransform reshapes long rows into wide ones.
type PivotTransform struct {
	Index       []string `mapstructure:"index"`
	Columns     string   `mapstructure:"columns"`
	Values      string   `mapstructure:"values"`
	AggFunction string   `mapstructure:"agg_function"`
}

func (PivotTransform) TransformType() string { return "pivot" }

// MeltTransform reshapes wide ValueVars into variable/value rows.
type MeltTransform struct {
	IDVars    []string `mapstructure:"id_vars"`
	ValueVars []string `mapstructure:"value_vars"`
}

func (MeltTransform) TransformType() string { return "melt" }

// UnknownTransform carries an unrecognized transform type.
type UnknownTransform struct {
	Declared string
}

func (t UnknownTransform) TransformType() string { return t.Declared }

// ── aggregation ──

// Aggregation reduces rows per category: count|sum|mean|median.
type Aggregation struct {
	Type   string `mapstructure:"type"`
	Column string `mapstructure:"column"`
}

// Instruction is one parsed visualization request.
type Instruction struct {
	ID          uuid.UUID
	Title       string
	Description string
	Chart       Chart
	Filter      *Filter
	Transform   Transform
	Aggregation *Aggregation
}

// ============================================================================
// RESPONSE — what the instruction source answered
// ============================================================================

// ResponseType discriminates Response.
type ResponseType string

const (
	TypeVisualization ResponseType = "visualization"
	TypeAnalysis      ResponseType = "analysis"
	TypeError         ResponseType = "error"
)

// Response is the typed form of raw instruction text. Parse never fails:
// garbage becomes a TypeError response.
type Response struct {
	Type        ResponseType
	Instruction *Instruction // TypeVisualization
	Answer      string       // TypeAnalysis
	Message     string       // TypeError
	Warnings    []error      // sections dropped while decoding
}
