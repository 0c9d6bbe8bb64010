package domain

const (
	GeometryTypePoint      = "Point"
	GeometryTypeLineString = "LineString"
)

// LatLng is a location as the rendering surface reports it.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Position is a GeoJSON coordinate pair in [lng, lat] order.
type Position [2]float64

func (p Position) Lng() float64 { return p[0] }
func (p Position) Lat() float64 { return p[1] }

// Point is a GeoJSON Point geometry.
type Point struct {
	Type        string   `json:"type"`
	Coordinates Position `json:"coordinates"`
}

func NewPoint(p Position) Point {
	return Point{Type: GeometryTypePoint, Coordinates: p}
}

// LineString is a GeoJSON LineString geometry.
type LineString struct {
	Type        string     `json:"type"`
	Coordinates []Position `json:"coordinates"`
}

// NewLineString copies coords into a new LineString.
func NewLineString(coords ...Position) LineString {
	out := make([]Position, len(coords))
	copy(out, coords)
	return LineString{Type: GeometryTypeLineString, Coordinates: out}
}

func (ls LineString) Len() int { return len(ls.Coordinates) }

// Clone returns a LineString that shares no memory with ls.
func (ls LineString) Clone() LineString {
	return NewLineString(ls.Coordinates...)
}

// BoundingBox represents a geographic rectangle
type BoundingBox struct {
	MinLat float64 `json:"minLat"`
	MaxLat float64 `json:"maxLat"`
	MinLon float64 `json:"minLon"`
	MaxLon float64 `json:"maxLon"`
}

// Contains checks if a point is within the bounding box
func (bb *BoundingBox) Contains(lat, lon float64) bool {
	return lat >= bb.MinLat && lat <= bb.MaxLat &&
		lon >= bb.MinLon && lon <= bb.MaxLon
}

// Extend grows the box to include p. A zero box is seeded by its first point.
func (bb *BoundingBox) Extend(p Position, first bool) {
	if first {
		bb.MinLat, bb.MaxLat = p.Lat(), p.Lat()
		bb.MinLon, bb.MaxLon = p.Lng(), p.Lng()
		return
	}
	bb.MinLat = min(bb.MinLat, p.Lat())
	bb.MaxLat = max(bb.MaxLat, p.Lat())
	bb.MinLon = min(bb.MinLon, p.Lng())
	bb.MaxLon = max(bb.MaxLon, p.Lng())
}

// Center returns the middle of the box.
func (bb *BoundingBox) Center() LatLng {
	return LatLng{
		Lat: (bb.MinLat + bb.MaxLat) / 2,
		Lng: (bb.MinLon + bb.MaxLon) / 2,
	}
}
