// Package edit holds the circuit geometry operations. Every operation returns
// a new circuit value and never mutates its input.
package edit

import (
	"fmt"

	"github.com/paulmach/orb/planar"

	"circuitmap/internal/domain"
	"circuitmap/internal/geo"
)

// FindCircuit returns a copy of the circuit with the given id.
func FindCircuit(circuits []domain.Circuit, id int64) (domain.Circuit, error) {
	for _, c := range circuits {
		if c.HasID(id) {
			return c.Clone(), nil
		}
	}
	return domain.Circuit{}, fmt.Errorf("circuit %d: %w", id, domain.ErrNotFound)
}

// NearestSegment returns the index of the segment of ls closest to p, using
// planar lng/lat distance. Ties resolve to the first segment. It returns -1
// when ls has fewer than two vertices.
func NearestSegment(ls domain.LineString, p domain.LatLng) int {
	if ls.Len() < 2 {
		return -1
	}
	_, idx := planar.DistanceFromWithIndex(geo.ToOrbLineString(ls), geo.LatLngToOrb(p))
	return idx
}

// InsertPoint adds click as a new vertex right after the start of the
// segment nearest to it.
func InsertPoint(c domain.Circuit, click domain.LatLng) domain.Circuit {
	out := c.Clone()
	coords := c.Geometry.Coordinates

	at := len(coords)
	if seg := NearestSegment(c.Geometry, click); seg >= 0 {
		at = seg + 1
	}

	next := make([]domain.Position, 0, len(coords)+1)
	next = append(next, coords[:at]...)
	next = append(next, geo.LatLngToPosition(click))
	next = append(next, coords[at:]...)
	out.Geometry = domain.LineString{Type: domain.GeometryTypeLineString, Coordinates: next}
	return out
}

// DeletePoint removes the vertex at index. It fails with
// domain.ErrInvariantViolation when fewer than domain.MinCircuitVertices
// vertices would remain, and with domain.ErrNotFound for an out-of-range index.
func DeletePoint(c domain.Circuit, index int) (domain.Circuit, error) {
	coords := c.Geometry.Coordinates
	if len(coords)-1 < domain.MinCircuitVertices {
		return c, fmt.Errorf("delete vertex %d of %d: %w", index, len(coords), domain.ErrInvariantViolation)
	}
	if index < 0 || index >= len(coords) {
		return c, fmt.Errorf("vertex %d: %w", index, domain.ErrNotFound)
	}

	out := c.Clone()
	next := make([]domain.Position, 0, len(coords)-1)
	next = append(next, coords[:index]...)
	next = append(next, coords[index+1:]...)
	out.Geometry = domain.LineString{Type: domain.GeometryTypeLineString, Coordinates: next}
	return out, nil
}

// ReplaceGeometry swaps the whole path of c for coords.
func ReplaceGeometry(c domain.Circuit, coords []domain.Position) domain.Circuit {
	out := c.Clone()
	out.Geometry = domain.NewLineString(coords...)
	return out
}

// ReplaceLatLngs is ReplaceGeometry for positions coming from the surface.
func ReplaceLatLngs(c domain.Circuit, positions []domain.LatLng) domain.Circuit {
	out := c.Clone()
	out.Geometry = geo.LatLngsToLineString(positions)
	return out
}

// DragPreview returns positions with the vertex at movingIndex moved to
// newPosition. The input slice is not modified.
func DragPreview(positions []domain.LatLng, movingIndex int, newPosition domain.LatLng) []domain.LatLng {
	out := make([]domain.LatLng, len(positions))
	copy(out, positions)
	if movingIndex >= 0 && movingIndex < len(out) {
		out[movingIndex] = newPosition
	}
	return out
}
