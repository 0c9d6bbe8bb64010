// Package geo converts between the surface's {lat, lng} points and the
// [lng, lat] GeoJSON geometry stored on circuits and markers. Every code path
// crossing that boundary goes through these helpers.
package geo

import (
	"github.com/paulmach/orb"

	"circuitmap/internal/domain"
)

func LatLngToPosition(ll domain.LatLng) domain.Position {
	return domain.Position{ll.Lng, ll.Lat}
}

func PositionToLatLng(p domain.Position) domain.LatLng {
	return domain.LatLng{Lat: p.Lat(), Lng: p.Lng()}
}

func LatLngToPoint(ll domain.LatLng) domain.Point {
	return domain.NewPoint(LatLngToPosition(ll))
}

func PointToLatLng(p domain.Point) domain.LatLng {
	return PositionToLatLng(p.Coordinates)
}

func LatLngsToLineString(lls []domain.LatLng) domain.LineString {
	coords := make([]domain.Position, len(lls))
	for i, ll := range lls {
		coords[i] = LatLngToPosition(ll)
	}
	return domain.LineString{Type: domain.GeometryTypeLineString, Coordinates: coords}
}

func LineStringToLatLngs(ls domain.LineString) []domain.LatLng {
	out := make([]domain.LatLng, len(ls.Coordinates))
	for i, p := range ls.Coordinates {
		out[i] = PositionToLatLng(p)
	}
	return out
}

// AppendLatLngs returns a new LineString with lls added after the existing
// coordinates. ls is left untouched.
func AppendLatLngs(ls domain.LineString, lls ...domain.LatLng) domain.LineString {
	coords := make([]domain.Position, 0, len(ls.Coordinates)+len(lls))
	coords = append(coords, ls.Coordinates...)
	for _, ll := range lls {
		coords = append(coords, LatLngToPosition(ll))
	}
	return domain.LineString{Type: domain.GeometryTypeLineString, Coordinates: coords}
}

// LatLngToOrb returns the planar point for ll; X is longitude.
func LatLngToOrb(ll domain.LatLng) orb.Point {
	return orb.Point{ll.Lng, ll.Lat}
}

func ToOrbLineString(ls domain.LineString) orb.LineString {
	out := make(orb.LineString, len(ls.Coordinates))
	for i, p := range ls.Coordinates {
		out[i] = orb.Point{p.Lng(), p.Lat()}
	}
	return out
}

func FromOrbLineString(ls orb.LineString) domain.LineString {
	coords := make([]domain.Position, len(ls))
	for i, p := range ls {
		coords[i] = domain.Position{p.X(), p.Y()}
	}
	return domain.LineString{Type: domain.GeometryTypeLineString, Coordinates: coords}
}

// OrbToLatLngs converts planar points coming back from a routing provider.
func OrbToLatLngs(ls orb.LineString) []domain.LatLng {
	out := make([]domain.LatLng, len(ls))
	for i, p := range ls {
		out[i] = domain.LatLng{Lat: p.Y(), Lng: p.X()}
	}
	return out
}
