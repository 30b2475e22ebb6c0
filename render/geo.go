package render

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/spektr-org/charta/dataset"
	"github.com/spektr-org/charta/errs"
	"github.com/spektr-org/charta/instruction"
)

// ============================================================================
// MAP RENDERER
// ============================================================================
// Rows whose latitude or longitude is not numeric, or out of range, are
// dropped; zero valid rows is a terminal error. The viewport is centered on
// the mean point. An optional value column weights each point 0..1.
// ============================================================================

func renderMap(req Request) (*Spec, error) {
	c, ok := req.Instruction.Chart.(instruction.MapChart)
	if !ok {
		return nil, &errs.SchemaError{Field: "chart_type", Reason: "expected map"}
	}
	if err := req.Data.Require("latitude_column", c.Latitude); err != nil {
		return nil, err
	}
	if err := req.Data.Require("longitude_column", c.Longitude); err != nil {
		return nil, err
	}

	lats, latOK := req.Data.Numbers(c.Latitude)
	lons, lonOK := req.Data.Numbers(c.Longitude)
	var vals []float64
	var valOK []bool
	weighted := c.Value != "" && req.Data.Has(c.Value)
	if weighted {
		vals, valOK = req.Data.Numbers(c.Value)
	}

	keep := dataset.NewMask(req.Data.Len())
	var points []MapPoint
	for i := 0; i < req.Data.Len(); i++ {
		if !latOK[i] || !lonOK[i] || lats[i] < -90 || lats[i] > 90 || lons[i] < -180 || lons[i] > 180 {
			continue
		}
		p := MapPoint{Latitude: lats[i], Longitude: lons[i]}
		if weighted {
			if !valOK[i] {
				continue
			}
			v := vals[i]
			p.Value = &v
		}
		keep.Set(i)
		points = append(points, p)
	}
	if len(points) == 0 {
		return nil, &errs.EmptyResultError{Stage: "map"}
	}
	normalizeWeights(points)

	view := &MapView{
		Zoom:    req.Options.MultiZoom,
		Pitch:   req.Options.Pitch,
		Points:  points,
		GeoJSON: geojson.NewFeatureCollection(),
	}
	if len(points) == 1 {
		view.Zoom = req.Options.SingleZoom
	}

	var mp orb.MultiPoint
	var sumLat, sumLon float64
	for _, p := range points {
		pt := orb.Point{p.Longitude, p.Latitude}
		mp = append(mp, pt)
		sumLat += p.Latitude
		sumLon += p.Longitude

		f := geojson.NewFeature(pt)
		f.Properties["weight"] = p.Weight
		f.Properties["elevation"] = p.Elevation
		if p.Value != nil {
			f.Properties["value"] = *p.Value
		}
		view.GeoJSON.Append(f)
	}
	n := float64(len(points))
	view.Center = orb.Point{sumLon / n, sumLat / n}
	view.Bound = mp.Bound()

	fields := map[string]string{"latitude": c.Latitude, "longitude": c.Longitude}
	if weighted {
		fields["value"] = c.Value
	}
	data := req.Data.Select(keep)
	return &Spec{
		Kind:    instruction.Map,
		Fields:  fields,
		Map:     view,
		Columns: data.Columns(),
		Rows:    data.Records(),
	}, nil
}

// normalizeWeights scales values to 0..1 over their min..max. Points without
// a value, or a constant value, get weight 1.
func normalizeWeights(points []MapPoint) {
	lo, hi := 0.0, 0.0
	first := true
	for _, p := range points {
		if p.Value == nil {
			continue
		}
		if first || *p.Value < lo {
			lo = *p.Value
		}
		if first || *p.Value > hi {
			hi = *p.Value
		}
		first = false
	}
	for i := range points {
		w := 1.0
		if v := points[i].Value; v != nil && hi > lo {
			w = (*v - lo) / (hi - lo)
		}
		points[i].Weight = w
		points[i].Elevation = w * 100
	}
}
