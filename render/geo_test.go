package render

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/charta/dataset"
	"github.com/spektr-org/charta/errs"
	"github.com/spektr-org/charta/instruction"
)

func stores() *dataset.Dataset {
	return dataset.New([]string{"name", "lat", "lon", "revenue"}, []dataset.Row{
		{"name": "a", "lat": -6.2, "lon": 106.8, "revenue": 10},
		{"name": "b", "lat": "-6.4", "lon": 107.0, "revenue": "30"},
		{"name": "c", "lat": 91, "lon": 107.0, "revenue": 5},
		{"name": "d", "lat": "unknown", "lon": 107.0, "revenue": 5},
		{"name": "e", "lat": -6.3, "lon": 106.9},
	})
}

func TestRenderMap_Viewport(t *testing.T) {
	inst := chartOf(instruction.MapChart{Latitude: "lat", Longitude: "lon"})
	spec, err := NewDispatcher(Options{}).Dispatch(inst, stores())
	require.NoError(t, err)

	view := spec.Map
	require.NotNil(t, view)
	require.Len(t, view.Points, 3)
	assert.Equal(t, 11, view.Zoom)
	assert.Equal(t, 30, view.Pitch)
	assert.InDelta(t, 106.9, view.Center.Lon(), 1e-9)
	assert.InDelta(t, -6.3, view.Center.Lat(), 1e-9)
	assert.Equal(t, orb.Point{106.8, -6.4}, view.Bound.Min)
	assert.Equal(t, orb.Point{107.0, -6.2}, view.Bound.Max)
	assert.Len(t, view.GeoJSON.Features, 3)
	assert.Len(t, spec.Rows, 3)
	assert.Equal(t, "Locations", spec.Title)
	for _, p := range view.Points {
		assert.Equal(t, 1.0, p.Weight)
		assert.Nil(t, p.Value)
	}
}

func TestRenderMap_WeightsFromValueColumn(t *testing.T) {
	inst := chartOf(instruction.MapChart{Latitude: "lat", Longitude: "lon", Value: "revenue"})
	spec, err := NewDispatcher(Options{}).Dispatch(inst, stores())
	require.NoError(t, err)

	points := spec.Map.Points
	require.Len(t, points, 2, "row without a value is dropped")
	assert.Equal(t, 0.0, points[0].Weight)
	assert.Equal(t, 1.0, points[1].Weight)
	assert.Equal(t, 100.0, points[1].Elevation)
	assert.Equal(t, 30.0, *points[1].Value)
	assert.Equal(t, "revenue", spec.Fields["value"])
	assert.Equal(t, 30.0, spec.Map.GeoJSON.Features[1].Properties["value"])
}

func TestRenderMap_SinglePointZoom(t *testing.T) {
	d := dataset.New([]string{"lat", "lon"}, []dataset.Row{{"lat": 1, "lon": 2}})
	spec, err := NewDispatcher(Options{SingleZoom: 15}).Dispatch(chartOf(instruction.MapChart{Latitude: "lat", Longitude: "lon"}), d)
	require.NoError(t, err)
	assert.Equal(t, 15, spec.Map.Zoom)
	assert.Equal(t, orb.Point{2, 1}, spec.Map.Center)
}

func TestRenderMap_NoValidPoints(t *testing.T) {
	d := dataset.New([]string{"lat", "lon"}, []dataset.Row{{"lat": 200, "lon": 2}, {"lat": "x", "lon": 2}})
	_, err := NewDispatcher(Options{}).Dispatch(chartOf(instruction.MapChart{Latitude: "lat", Longitude: "lon"}), d)
	var empty *errs.EmptyResultError
	assert.ErrorAs(t, err, &empty)
}

func TestNormalizeWeights_ConstantValues(t *testing.T) {
	v := 4.0
	points := []MapPoint{{Value: &v}, {Value: &v}}
	normalizeWeights(points)
	assert.Equal(t, 1.0, points[0].Weight)
	assert.Equal(t, 1.0, points[1].Weight)
}
