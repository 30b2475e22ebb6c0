// Package render turns a validated instruction and its resolved dataset into
// a renderer-agnostic chart specification.
package render

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/spektr-org/charta/instruction"
)

// ============================================================================
// CHART SPEC — what the rendering layer consumes
// ============================================================================
// Exactly one of Series / Bins / Map is populated, by Kind.
// ============================================================================

// Spec is a fully resolved chart: kind, field bindings, data.
type Spec struct {
	Kind          instruction.ChartKind `json:"kind"`
	Title         string                `json:"title,omitempty"`
	Description   string                `json:"description,omitempty"`
	Summary       string                `json:"summary,omitempty"`
	InstructionID string                `json:"instructionId,omitempty"`
	Fallback      bool                  `json:"fallback,omitempty"`

	// Fields maps a binding ("x", "y", "values", "names", "value",
	// "latitude", "longitude") to the column that feeds it.
	Fields map[string]string `json:"fields"`
	XAxis  string            `json:"xAxis,omitempty"`
	YAxis  string            `json:"yAxis,omitempty"`

	Series []Series `json:"series,omitempty"`
	Colors []string `json:"colors,omitempty"`
	Bins   []Bin    `json:"bins,omitempty"`
	Map    *MapView `json:"map,omitempty"`

	// Columns and Rows are the resolved dataset the chart was drawn from.
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

// Series is one named sequence of points.
type Series struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
	Color  string  `json:"color,omitempty"`
}

// Point is one datum. X is the raw category or numeric x value.
type Point struct {
	X     any     `json:"x"`
	Y     float64 `json:"y"`
	Label string  `json:"label"`
}

// Bin is one equal-width histogram bucket: [Lower, Upper), the last bin
// closed on both ends.
type Bin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
	Label string  `json:"label"`
}

// MapView is a point map with a computed viewport.
type MapView struct {
	Center  orb.Point                  `json:"center"` // [lon, lat]
	Zoom    int                        `json:"zoom"`
	Pitch   int                        `json:"pitch"`
	Bound   orb.Bound                  `json:"bound"`
	Points  []MapPoint                 `json:"points"`
	GeoJSON *geojson.FeatureCollection `json:"geojson"`
}

// MapPoint is one plotted location. Weight is the value normalized to 0..1;
// Elevation is Weight*100.
type MapPoint struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Value     *float64 `json:"value,omitempty"`
	Weight    float64  `json:"weight"`
	Elevation float64  `json:"elevation"`
}
