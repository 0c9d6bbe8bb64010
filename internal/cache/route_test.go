package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"circuitmap/internal/domain"
)

type memBackend struct {
	data map[string][]byte
	ttls map[string]time.Duration
}

func newMemBackend() *memBackend {
	return &memBackend{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memBackend) SetJSONCompressed(_ context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	compressed, err := gzipCompress(raw)
	if err != nil {
		return err
	}
	m.data[key] = compressed
	m.ttls[key] = ttl
	return nil
}

func (m *memBackend) GetJSONCompressed(_ context.Context, key string, dest any) (bool, error) {
	compressed, ok := m.data[key]
	if !ok {
		return false, nil
	}
	raw, err := gzipDecompress(compressed)
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(raw, dest)
}

func TestKeyRoute(t *testing.T) {
	a := []domain.LatLng{{Lat: 48.1, Lng: 2.1}, {Lat: 48.2, Lng: 2.2}}
	b := []domain.LatLng{{Lat: 48.2, Lng: 2.2}, {Lat: 48.1, Lng: 2.1}}

	if KeyRoute("driving", a) != KeyRoute("driving", a) {
		t.Fatal("KeyRoute is not deterministic")
	}
	if KeyRoute("driving", a) == KeyRoute("driving", b) {
		t.Fatal("reversed waypoints share a key")
	}
	if KeyRoute("driving", a) == KeyRoute("cycling", a) {
		t.Fatal("profiles share a key")
	}
	near := []domain.LatLng{{Lat: 48.1000000001, Lng: 2.1}, {Lat: 48.2, Lng: 2.2}}
	if KeyRoute("driving", a) != KeyRoute("driving", near) {
		t.Fatal("sub-precision difference changed the key")
	}
}

func TestRouteCache(t *testing.T) {
	backend := newMemBackend()
	c := NewRouteCache(backend, "driving", time.Hour)
	ctx := context.Background()

	wps := []domain.LatLng{{Lat: 1, Lng: 2}, {Lat: 3, Lng: 4}}
	if _, ok, err := c.GetRoute(ctx, wps); ok || err != nil {
		t.Fatalf("GetRoute on empty cache = %v, %v", ok, err)
	}

	path := []domain.LatLng{{Lat: 1, Lng: 2}, {Lat: 2, Lng: 3}, {Lat: 3, Lng: 4}}
	if err := c.SetRoute(ctx, wps, path); err != nil {
		t.Fatalf("SetRoute: %v", err)
	}
	if ttl := backend.ttls[KeyRoute("driving", wps)]; ttl != time.Hour {
		t.Fatalf("ttl = %v, want 1h", ttl)
	}

	got, ok, err := c.GetRoute(ctx, wps)
	if err != nil || !ok {
		t.Fatalf("GetRoute = %v, %v", ok, err)
	}
	if len(got) != len(path) || got[1] != path[1] {
		t.Fatalf("GetRoute = %v, want %v", got, path)
	}

	hits, misses := c.Stats()
	if hits != 1 || misses != 1 {
		t.Fatalf("Stats = %d/%d, want 1/1", hits, misses)
	}
}

func TestGzipRoundTrip(t *testing.T) {
	in := []byte(`{"lat":1,"lng":2}`)
	compressed, err := gzipCompress(in)
	if err != nil {
		t.Fatalf("gzipCompress: %v", err)
	}
	out, err := gzipDecompress(compressed)
	if err != nil {
		t.Fatalf("gzipDecompress: %v", err)
	}
	if string(out) != string(in) {
		t.Fatalf("round trip = %s, want %s", out, in)
	}
}
