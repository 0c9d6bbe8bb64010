package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"circuitmap/internal/domain"
	"circuitmap/internal/routing"
	"circuitmap/pkg/osrm"
)

type outcomes []string

func (o *outcomes) ObserveRoute(outcome string, _ time.Duration) { *o = append(*o, outcome) }

func TestRouteHandler(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		err      error
		want     int
		observed int
	}{
		{"ok", `{"waypoints":[{"lat":0,"lng":0},{"lat":0,"lng":1}]}`, nil, http.StatusOK, 1},
		{"malformed", `{"waypoints":`, nil, http.StatusBadRequest, 0},
		{"one waypoint", `{"waypoints":[{"lat":0,"lng":0}]}`, nil, http.StatusBadRequest, 0},
		{"no route", `{"waypoints":[{"lat":0,"lng":0},{"lat":0,"lng":1}]}`, fmt.Errorf("wrapped: %w", osrm.ErrNoRoute), http.StatusUnprocessableEntity, 1},
		{"timeout", `{"waypoints":[{"lat":0,"lng":0},{"lat":0,"lng":1}]}`, context.DeadlineExceeded, http.StatusGatewayTimeout, 1},
		{"upstream", `{"waypoints":[{"lat":0,"lng":0},{"lat":0,"lng":1}]}`, errors.New("boom"), http.StatusBadGateway, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := routing.ProviderFunc(func(_ context.Context, wps []domain.LatLng) ([]domain.LatLng, error) {
				if tt.err != nil {
					return nil, tt.err
				}
				return wps, nil
			})
			var obs outcomes
			h := NewRouteHandler(provider, time.Second, &obs, discardLogger())

			rec := httptest.NewRecorder()
			h.Route(rec, httptest.NewRequest(http.MethodPost, "/v1/route", strings.NewReader(tt.body)))
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body)
			}
			if len(obs) != tt.observed {
				t.Fatalf("observed = %v, want %d outcomes", obs, tt.observed)
			}
		})
	}
}

func TestRouteHandlerLength(t *testing.T) {
	provider := routing.ProviderFunc(func(_ context.Context, wps []domain.LatLng) ([]domain.LatLng, error) {
		return wps, nil
	})
	h := NewRouteHandler(provider, time.Second, nil, discardLogger())

	rec := httptest.NewRecorder()
	body := `{"waypoints":[{"lat":0,"lng":0},{"lat":0,"lng":1}]}`
	h.Route(rec, httptest.NewRequest(http.MethodPost, "/v1/route", strings.NewReader(body)))

	var resp RouteResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	// One degree of longitude on the equator is about 111.2 km.
	if resp.Length < 111000 || resp.Length > 111400 {
		t.Fatalf("Length = %v, want about 111200", resp.Length)
	}
	if resp.Geometry.Len() != 2 || resp.Geometry.Coordinates[1] != (domain.Position{1, 0}) {
		t.Fatalf("Geometry = %+v", resp.Geometry)
	}
}
