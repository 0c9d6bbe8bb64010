package host

import (
	"context"
	"errors"
	"testing"

	"circuitmap/internal/control"
	"circuitmap/internal/domain"
	"circuitmap/internal/mapengine"
	"circuitmap/internal/selection"
	"circuitmap/internal/store"
	"circuitmap/internal/surface"
	"circuitmap/internal/surface/surfacetest"
)

type session struct {
	store   *store.Store
	engine  *mapengine.Engine
	host    *Host
	rec     *surfacetest.Recorder
	project int64
	changes []int64
}

func newSession(t *testing.T) *session {
	t.Helper()
	st := store.New()
	p := st.CreateProject("paris")
	if _, err := st.AddCircuit(*p.ID, domain.Circuit{
		Label:    "loop",
		Geometry: domain.NewLineString(domain.Position{2, 48}, domain.Position{3, 49}),
	}); err != nil {
		t.Fatalf("AddCircuit: %v", err)
	}

	s, rec := surfacetest.NewSurface(13)
	e := mapengine.New(context.Background(), mapengine.Options{Surface: s})
	sess := &session{store: st, engine: e, rec: rec, project: *p.ID}
	sess.host = New(st, e, func(id int64) { sess.changes = append(sess.changes, id) }, nil)

	if err := sess.host.OpenProject(*p.ID); err != nil {
		t.Fatalf("OpenProject: %v", err)
	}
	return sess
}

func (s *session) circuits(t *testing.T) []domain.Circuit {
	t.Helper()
	p, ok := s.store.Get(s.project)
	if !ok {
		t.Fatal("project vanished")
	}
	return p.Circuits
}

func TestOpenProjectCentersMap(t *testing.T) {
	s := newSession(t)

	pans := s.rec.OfType(surface.CommandPanTo)
	if len(pans) != 1 {
		t.Fatalf("panTo = %d, want 1", len(pans))
	}
	if got := pans[0].Payload.(surface.CameraPayload).LatLng; got != (domain.LatLng{Lat: 48.5, Lng: 2.5}) {
		t.Fatalf("center = %v, want 48.5, 2.5", got)
	}
	if err := s.host.OpenProject(404); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("OpenProject(404) err = %v, want ErrNotFound", err)
	}
}

func TestDrawAndSaveCircuit(t *testing.T) {
	s := newSession(t)

	s.engine.PressControl(control.IDAddPolyline, control.ButtonStart)
	if s.host.Mode() != domain.ModeEditMap {
		t.Fatalf("host mode = %v, want EDIT_MAP", s.host.Mode())
	}
	s.engine.Click(domain.LatLng{Lat: 50, Lng: 4}, 0, 0)
	s.engine.Click(domain.LatLng{Lat: 51, Lng: 5}, 0, 0)
	s.engine.PressControl(control.IDAddPolyline, control.ButtonValidate)

	d, ok := s.host.Dialog()
	if !ok || d.Mode != domain.ModeCreateCircuit || d.Circuit.Geometry.Len() != 2 {
		t.Fatalf("dialog = %+v, %v", d, ok)
	}
	if s.engine.Mode() != domain.ModeView {
		t.Fatalf("engine mode = %v, want VIEW", s.engine.Mode())
	}

	c, err := s.host.SaveCircuit("new", "green")
	if err != nil {
		t.Fatalf("SaveCircuit: %v", err)
	}
	if c.IsDraft() || c.Color != "green" {
		t.Fatalf("saved = %+v", c)
	}
	if got := len(s.circuits(t)); got != 2 {
		t.Fatalf("circuits = %d, want 2", got)
	}
	if s.host.Mode() != domain.ModeView {
		t.Fatalf("host mode = %v, want VIEW", s.host.Mode())
	}
	if len(s.changes) != 1 || s.changes[0] != s.project {
		t.Fatalf("changes = %v", s.changes)
	}
}

func TestCloseDialogDiscardsDraft(t *testing.T) {
	s := newSession(t)
	s.engine.PressControl(control.IDAddPolyline, control.ButtonStart)
	s.engine.Click(domain.LatLng{Lat: 50, Lng: 4}, 0, 0)
	s.engine.PressControl(control.IDAddPolyline, control.ButtonValidate)

	s.host.CloseDialog()

	if _, ok := s.host.Dialog(); ok {
		t.Fatal("dialog should be closed")
	}
	if got := len(s.circuits(t)); got != 1 {
		t.Fatalf("circuits = %d, want 1", got)
	}
}

func TestSaveSinglePointCircuitFails(t *testing.T) {
	s := newSession(t)
	s.engine.PressControl(control.IDAddPolyline, control.ButtonStart)
	s.engine.Click(domain.LatLng{Lat: 50, Lng: 4}, 0, 0)
	s.engine.PressControl(control.IDAddPolyline, control.ButtonValidate)

	if _, err := s.host.SaveCircuit("x", ""); !errors.Is(err, domain.ErrInvariantViolation) {
		t.Fatalf("err = %v, want ErrInvariantViolation", err)
	}
}

func TestInsertPointIsStored(t *testing.T) {
	s := newSession(t)
	id := *s.circuits(t)[0].ID

	s.engine.CircuitContextMenu(id, domain.LatLng{Lat: 48.5, Lng: 2.5}, 0, 0)
	s.engine.MenuAction(selection.MenuCircuit, selection.ActionAddPoint)

	got := s.circuits(t)[0].Geometry.Coordinates
	if len(got) != 3 || got[1] != (domain.Position{2.5, 48.5}) {
		t.Fatalf("coordinates = %v", got)
	}
}

func TestDeleteKeyRemovesSelectedCircuit(t *testing.T) {
	s := newSession(t)
	id := *s.circuits(t)[0].ID

	s.engine.CircuitClick(id)
	s.engine.KeyDown(selection.KeyDelete)

	if got := len(s.circuits(t)); got != 0 {
		t.Fatalf("circuits = %d, want 0", got)
	}
}

func TestMarkersAddedAndDeleted(t *testing.T) {
	s := newSession(t)

	s.engine.PressControl(control.IDAddMarker, control.ButtonToggle)
	s.engine.Click(domain.LatLng{Lat: 48.1, Lng: 2.1}, 0, 0)
	s.engine.PressControl(control.IDAddMarker, control.ButtonToggle)

	p, _ := s.store.Get(s.project)
	if len(p.Markers) != 1 {
		t.Fatalf("markers = %d, want 1", len(p.Markers))
	}
	if s.host.Mode() != domain.ModeView {
		t.Fatalf("host mode = %v, want VIEW", s.host.Mode())
	}

	s.engine.MarkerContextMenu(*p.Markers[0].ID)
	p, _ = s.store.Get(s.project)
	if len(p.Markers) != 0 {
		t.Fatalf("markers = %d, want 0", len(p.Markers))
	}
}

func TestEditCircuitDialogResetsMapTool(t *testing.T) {
	s := newSession(t)
	id := *s.circuits(t)[0].ID

	s.engine.CircuitContextMenu(id, domain.LatLng{Lat: 48.5, Lng: 2.5}, 0, 0)
	s.engine.MenuAction(selection.MenuCircuit, selection.ActionEditCircuit)

	d, ok := s.host.Dialog()
	if !ok || d.Mode != domain.ModeEditCircuit {
		t.Fatalf("dialog = %+v, %v", d, ok)
	}
	if _, err := s.host.SaveCircuit("renamed", ""); err != nil {
		t.Fatalf("SaveCircuit: %v", err)
	}
	if got := s.circuits(t)[0].Label; got != "renamed" {
		t.Fatalf("Label = %q, want renamed", got)
	}
}

func TestSidebarMenuReopensSidebar(t *testing.T) {
	s := newSession(t)
	s.host.SetSidebarVisible(false)

	if !s.engine.View().Mode.IsMapSubMode() {
		t.Fatal("engine should stay in a map mode")
	}
	s.engine.PressControl(control.IDSidebarMenu, control.ButtonOpen)

	if !s.host.sidebarVisible {
		t.Fatal("sidebar should be visible again")
	}
}

func TestState(t *testing.T) {
	s := newSession(t)

	st := s.host.State()
	if st.ProjectID == nil || *st.ProjectID != s.project || st.ProjectLabel != "paris" {
		t.Fatalf("state project = %v %q", st.ProjectID, st.ProjectLabel)
	}
	if st.Mode != domain.ModeView || !st.SidebarVisible || st.Dialog != nil {
		t.Fatalf("state = %+v", st)
	}

	s.engine.PressControl(control.IDAddPolyline, control.ButtonStart)
	s.engine.Click(domain.LatLng{Lat: 50, Lng: 4}, 0, 0)
	s.engine.Click(domain.LatLng{Lat: 51, Lng: 5}, 0, 0)
	s.engine.PressControl(control.IDAddPolyline, control.ButtonValidate)

	st = s.host.State()
	if st.Dialog == nil || st.Mode != domain.ModeCreateCircuit {
		t.Fatalf("state after draw = %+v", st)
	}
	st.Dialog.Circuit.Geometry.Coordinates[0] = domain.Position{0, 0}
	if d, _ := s.host.Dialog(); d.Circuit.Geometry.Coordinates[0] == (domain.Position{0, 0}) {
		t.Fatal("State shares the dialog geometry")
	}
}
