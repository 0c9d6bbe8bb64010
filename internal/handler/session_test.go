package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"circuitmap/internal/control"
	"circuitmap/internal/domain"
	"circuitmap/internal/host"
	"circuitmap/internal/hub"
	"circuitmap/internal/routing"
	"circuitmap/internal/store"
	"circuitmap/internal/surface"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func straightLine() routing.Provider {
	return routing.ProviderFunc(func(_ context.Context, wps []domain.LatLng) ([]domain.LatLng, error) {
		return wps, nil
	})
}

type wsFixture struct {
	store   *store.Store
	project int64
	server  *httptest.Server
	stats   *Stats
}

func newWSFixture(t *testing.T) *wsFixture {
	t.Helper()
	st := store.New()
	p := st.CreateProject("lyon")

	h := hub.NewHub(discardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)

	stats := NewStats()
	sh := NewSessionHandler(h, st, SessionConfig{
		Provider:       straightLine(),
		RoutingTimeout: time.Second,
		Center:         domain.LatLng{Lat: 45.75, Lng: 4.85},
		Zoom:           12,
	}, stats, nil, discardLogger())

	srv := httptest.NewServer(http.HandlerFunc(sh.ServeWS))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return &wsFixture{store: st, project: *p.ID, server: srv, stats: stats}
}

func (f *wsFixture) dial(t *testing.T, ctx context.Context, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + query
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func write(t *testing.T, ctx context.Context, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	data, _ := json.Marshal(WSMessage{Type: msgType, Payload: raw})
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		t.Fatalf("Write %s: %v", msgType, err)
	}
}

// readUntil returns the payload of the first message of type want that
// satisfies match.
func readUntil(t *testing.T, ctx context.Context, conn *websocket.Conn, want string, match func(json.RawMessage) bool) json.RawMessage {
	t.Helper()
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			t.Fatalf("waiting for %s: %v", want, err)
		}
		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("unmarshal %s: %v", data, err)
		}
		if msg.Type == want && (match == nil || match(msg.Payload)) {
			return msg.Payload
		}
	}
}

func stateWith(cond func(host.State) bool) func(json.RawMessage) bool {
	return func(raw json.RawMessage) bool {
		var st host.State
		return json.Unmarshal(raw, &st) == nil && cond(st)
	}
}

func TestSessionDrawAndSaveCircuit(t *testing.T) {
	f := newWSFixture(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := f.dial(t, ctx, fmt.Sprintf("?project=%d", f.project))

	raw := readUntil(t, ctx, conn, MsgState, nil)
	var st host.State
	if err := json.Unmarshal(raw, &st); err != nil {
		t.Fatalf("unmarshal state: %v", err)
	}
	if st.ProjectID == nil || *st.ProjectID != f.project || st.Mode != domain.ModeView {
		t.Fatalf("initial state = %+v", st)
	}

	write(t, ctx, conn, MsgPress, EventPayload{ControlID: control.IDAddPolyline, Button: control.ButtonStart})
	readUntil(t, ctx, conn, MsgState, stateWith(func(s host.State) bool { return s.Mode == domain.ModeEditMap }))

	write(t, ctx, conn, MsgClick, EventPayload{LatLng: domain.LatLng{Lat: 45.7, Lng: 4.8}})
	write(t, ctx, conn, MsgClick, EventPayload{LatLng: domain.LatLng{Lat: 45.8, Lng: 4.9}})
	write(t, ctx, conn, MsgPress, EventPayload{ControlID: control.IDAddPolyline, Button: control.ButtonValidate})
	readUntil(t, ctx, conn, MsgState, stateWith(func(s host.State) bool {
		return s.Dialog != nil && s.Dialog.Circuit.Geometry.Len() == 2
	}))

	write(t, ctx, conn, MsgSaveCircuit, EventPayload{Label: "river", Color: "blue"})
	readUntil(t, ctx, conn, MsgState, stateWith(func(s host.State) bool {
		return s.Dialog == nil && s.Mode == domain.ModeView
	}))

	p, _ := f.store.Get(f.project)
	if len(p.Circuits) != 1 || p.Circuits[0].Label != "river" || p.Circuits[0].Color != "blue" {
		t.Fatalf("circuits = %+v", p.Circuits)
	}
}

func TestSessionSingleClickDraftIsRejected(t *testing.T) {
	f := newWSFixture(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := f.dial(t, ctx, fmt.Sprintf("?project=%d", f.project))
	readUntil(t, ctx, conn, MsgState, nil)

	write(t, ctx, conn, MsgPress, EventPayload{ControlID: control.IDAddPolyline, Button: control.ButtonStart})
	write(t, ctx, conn, MsgClick, EventPayload{LatLng: domain.LatLng{Lat: 45.7, Lng: 4.8}})
	write(t, ctx, conn, MsgPress, EventPayload{ControlID: control.IDAddPolyline, Button: control.ButtonValidate})
	readUntil(t, ctx, conn, MsgState, stateWith(func(s host.State) bool { return s.Dialog != nil }))

	write(t, ctx, conn, MsgSaveCircuit, EventPayload{Label: "dot"})
	raw := readUntil(t, ctx, conn, MsgError, nil)
	var e errorPayload
	if err := json.Unmarshal(raw, &e); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if e.Message != domain.MessageCircuitMinPoints {
		t.Fatalf("error message = %q, want %q", e.Message, domain.MessageCircuitMinPoints)
	}
	if n := f.store.CircuitCount(); n != 0 {
		t.Fatalf("CircuitCount = %d, want 0", n)
	}
}

func TestSessionWithoutProjectFliesToDefaultCenter(t *testing.T) {
	f := newWSFixture(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := f.dial(t, ctx, "")
	raw := readUntil(t, ctx, conn, surface.CommandFlyTo, nil)
	var cam surface.CameraPayload
	if err := json.Unmarshal(raw, &cam); err != nil {
		t.Fatalf("unmarshal flyTo: %v", err)
	}
	if cam.LatLng != (domain.LatLng{Lat: 45.75, Lng: 4.85}) || cam.Zoom != 12 {
		t.Fatalf("flyTo = %+v", cam)
	}

	write(t, ctx, conn, MsgPing, nil)
	readUntil(t, ctx, conn, MsgPong, nil)

	write(t, ctx, conn, MsgOpenProject, EventPayload{ID: f.project})
	readUntil(t, ctx, conn, MsgState, stateWith(func(s host.State) bool {
		return s.ProjectID != nil && *s.ProjectID == f.project
	}))
	if f.stats.wsMessagesIn.Load() < 2 {
		t.Fatalf("messages in = %d, want at least 2", f.stats.wsMessagesIn.Load())
	}
}

func TestServeWSRejectsBadProject(t *testing.T) {
	f := newWSFixture(t)

	tests := []struct {
		query string
		want  int
	}{
		{"?project=abc", http.StatusBadRequest},
		{"?project=999", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp, err := http.Get(f.server.URL + tt.query)
			if err != nil {
				t.Fatalf("GET: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}
