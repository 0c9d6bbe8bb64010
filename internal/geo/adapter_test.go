package geo

import (
	"encoding/json"
	"testing"

	"circuitmap/internal/domain"
)

func TestLatLngPositionOrder(t *testing.T) {
	ll := domain.LatLng{Lat: 48.5, Lng: 2.5}

	pos := LatLngToPosition(ll)
	if pos != (domain.Position{2.5, 48.5}) {
		t.Fatalf("LatLngToPosition = %v, want [2.5 48.5]", pos)
	}
	if back := PositionToLatLng(pos); back != ll {
		t.Fatalf("PositionToLatLng = %v, want %v", back, ll)
	}

	pt := LatLngToPoint(ll)
	if pt.Type != domain.GeometryTypePoint {
		t.Fatalf("point type = %q, want %q", pt.Type, domain.GeometryTypePoint)
	}
	if got := PointToLatLng(pt); got != ll {
		t.Fatalf("PointToLatLng = %v, want %v", got, ll)
	}
}

func TestLineStringConversions(t *testing.T) {
	lls := []domain.LatLng{{Lat: 48, Lng: 2}, {Lat: 49, Lng: 3}}

	ls := LatLngsToLineString(lls)
	want := []domain.Position{{2, 48}, {3, 49}}
	if ls.Type != domain.GeometryTypeLineString || len(ls.Coordinates) != 2 {
		t.Fatalf("LatLngsToLineString = %+v", ls)
	}
	for i := range want {
		if ls.Coordinates[i] != want[i] {
			t.Fatalf("coordinate %d = %v, want %v", i, ls.Coordinates[i], want[i])
		}
	}

	back := LineStringToLatLngs(ls)
	for i := range lls {
		if back[i] != lls[i] {
			t.Fatalf("LineStringToLatLngs[%d] = %v, want %v", i, back[i], lls[i])
		}
	}
}

func TestAppendLatLngsDoesNotMutateInput(t *testing.T) {
	ls := domain.NewLineString(domain.Position{2, 48})

	out := AppendLatLngs(ls, domain.LatLng{Lat: 49, Lng: 3})

	if ls.Len() != 1 {
		t.Fatalf("input length = %d, want 1", ls.Len())
	}
	if out.Len() != 2 || out.Coordinates[1] != (domain.Position{3, 49}) {
		t.Fatalf("AppendLatLngs = %v", out.Coordinates)
	}
}

func TestOrbRoundTripKeepsAxisOrder(t *testing.T) {
	ls := domain.NewLineString(domain.Position{2, 48}, domain.Position{3, 49})

	o := ToOrbLineString(ls)
	if o[0].X() != 2 || o[0].Y() != 48 {
		t.Fatalf("orb point = %v, want X=2 Y=48", o[0])
	}
	if got := FromOrbLineString(o); got.Coordinates[1] != ls.Coordinates[1] {
		t.Fatalf("FromOrbLineString = %v, want %v", got.Coordinates, ls.Coordinates)
	}
	if lls := OrbToLatLngs(o); lls[1] != (domain.LatLng{Lat: 49, Lng: 3}) {
		t.Fatalf("OrbToLatLngs = %v", lls)
	}
}

func TestCircuitCollectionMarksSelection(t *testing.T) {
	circuits := []domain.Circuit{
		{ID: domain.Int64Ptr(1), Label: "a", Geometry: domain.NewLineString(domain.Position{2, 48}, domain.Position{3, 49})},
		{ID: domain.Int64Ptr(2), Label: "b", Color: "#ff0000", Geometry: domain.NewLineString(domain.Position{4, 50}, domain.Position{5, 51})},
	}

	fc := CircuitCollection(circuits, domain.Int64Ptr(2))
	if len(fc.Features) != 2 {
		t.Fatalf("features = %d, want 2", len(fc.Features))
	}
	if fc.Features[0].Properties["selected"] != false || fc.Features[0].Properties["color"] != domain.DefaultCircuitColor {
		t.Fatalf("unselected feature props = %v", fc.Features[0].Properties)
	}
	if fc.Features[1].Properties["selected"] != true || fc.Features[1].Properties["weight"] != WeightSelected {
		t.Fatalf("selected feature props = %v", fc.Features[1].Properties)
	}

	data, err := json.Marshal(fc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("empty feature collection encoding")
	}
}
