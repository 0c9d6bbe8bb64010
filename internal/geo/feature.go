package geo

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"circuitmap/internal/domain"
)

// Stroke weights used by the surface for normal and selected circuits.
const (
	WeightNormal   = 3
	WeightSelected = 6
	WeightHitArea  = 15
)

// CircuitFeature renders a circuit as a GeoJSON feature carrying its style.
func CircuitFeature(c domain.Circuit, selected bool) *geojson.Feature {
	f := geojson.NewFeature(ToOrbLineString(c.Geometry))
	if c.ID != nil {
		f.ID = *c.ID
	}

	weight, opacity := WeightNormal, 0.7
	if selected {
		weight, opacity = WeightSelected, 1.0
	}

	f.Properties = geojson.Properties{
		"label":    c.Label,
		"color":    c.DisplayColor(),
		"weight":   weight,
		"opacity":  opacity,
		"selected": selected,
		"hitWidth": WeightHitArea,
	}
	return f
}

// CircuitCollection renders every circuit, marking the selected one.
func CircuitCollection(circuits []domain.Circuit, selectedID *int64) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, c := range circuits {
		selected := selectedID != nil && c.HasID(*selectedID)
		fc.Append(CircuitFeature(c, selected))
	}
	return fc
}

// MarkerCollection renders markers as point features.
func MarkerCollection(markers []domain.Marker) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, m := range markers {
		p := m.Point.Coordinates
		f := geojson.NewFeature(orb.Point{p.Lng(), p.Lat()})
		if m.ID != nil {
			f.ID = *m.ID
		}
		f.Properties = geojson.Properties{"label": m.Label}
		fc.Append(f)
	}
	return fc
}
