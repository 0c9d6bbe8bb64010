// Package host is the application around the map engine: it owns the
// host edit mode and the open project of one session, stores what the
// engine reports and re-renders it.
package host

import (
	"errors"
	"fmt"
	"log/slog"

	"circuitmap/internal/domain"
	"circuitmap/internal/mapengine"
	"circuitmap/internal/store"
)

var ErrNoProject = errors.New("no project open")

// Dialog is the circuit form the host shows after a draw or an edit request.
type Dialog struct {
	Mode    domain.EditMode `json:"mode"`
	Circuit domain.Circuit  `json:"circuit"`
}

type Host struct {
	store    *store.Store
	engine   *mapengine.Engine
	onChange func(projectID int64)
	logger   *slog.Logger

	project        *domain.Project
	mode           domain.EditMode
	sidebarVisible bool
	dialog         *Dialog
}

// New returns a host for engine. onChange is called after every write to
// the store with the id of the project that changed.
func New(st *store.Store, engine *mapengine.Engine, onChange func(projectID int64), logger *slog.Logger) *Host {
	if logger == nil {
		logger = slog.Default()
	}
	return &Host{
		store:          st,
		engine:         engine,
		onChange:       onChange,
		logger:         logger.With("component", "host"),
		mode:           domain.ModeView,
		sidebarVisible: true,
	}
}

// State is what a client needs to draw the host UI around the map.
type State struct {
	ProjectID      *int64          `json:"projectId"`
	ProjectLabel   string          `json:"projectLabel,omitempty"`
	Mode           domain.EditMode `json:"mode"`
	SidebarVisible bool            `json:"sidebarVisible"`
	Dialog         *Dialog         `json:"dialog,omitempty"`
}

func (h *Host) Mode() domain.EditMode { return h.mode }

func (h *Host) State() State {
	st := State{Mode: h.mode, SidebarVisible: h.sidebarVisible}
	if id, ok := h.ProjectID(); ok {
		st.ProjectID = &id
		st.ProjectLabel = h.project.Label
	}
	if h.dialog != nil {
		d := *h.dialog
		d.Circuit = d.Circuit.Clone()
		st.Dialog = &d
	}
	return st
}

func (h *Host) Dialog() (Dialog, bool) {
	if h.dialog == nil {
		return Dialog{}, false
	}
	return *h.dialog, true
}

// ProjectID returns the id of the open project.
func (h *Host) ProjectID() (int64, bool) {
	if h.project == nil || h.project.ID == nil {
		return 0, false
	}
	return *h.project.ID, true
}

// OpenProject loads a project and centers the map on it.
func (h *Host) OpenProject(id int64) error {
	p, ok := h.store.Get(id)
	if !ok {
		return fmt.Errorf("open project %d: %w", id, domain.ErrNotFound)
	}
	h.project = p
	h.mode = domain.ModeView
	h.dialog = nil
	h.Render()

	if bb, ok := p.Bounds(); ok {
		h.engine.SidebarPanTo(bb.Center())
	}
	h.logger.Info("project opened", "project_id", id, "circuits", len(p.Circuits), "markers", len(p.Markers))
	return nil
}

// Reload re-reads the open project, e.g. after another session changed it.
func (h *Host) Reload() {
	id, ok := h.ProjectID()
	if !ok {
		return
	}
	p, ok := h.store.Get(id)
	if !ok {
		h.project = nil
	} else {
		h.project = p
	}
	h.Render()
}

// Render pushes the current host state into the engine.
func (h *Host) Render() {
	h.engine.Render(h.props())
}

func (h *Host) props() mapengine.Props {
	props := mapengine.Props{
		Mode:           h.mode,
		SidebarVisible: h.sidebarVisible,
		Callbacks: mapengine.Callbacks{
			OnStartMapEdit:          h.startMapEdit,
			OnEndMapEdit:            h.endMapEdit,
			OnAddPolyline:           h.addPolyline,
			OnEditCircuit:           h.editCircuit,
			OnRemoveCircuit:         h.removeCircuit,
			OnUpdateCircuitGeometry: h.updateCircuitGeometry,
			OnAddMarker:             h.addMarker,
			OnDeleteMarker:          h.deleteMarker,
			OnOpenSidebar:           func() { h.SetSidebarVisible(true) },
		},
	}
	if h.project != nil {
		props.Circuits = h.project.Circuits
		props.Markers = h.project.Markers
	}
	return props
}

func (h *Host) setMode(m domain.EditMode) {
	if h.mode == m {
		return
	}
	h.logger.Debug("host mode changed", "from", h.mode, "to", m)
	h.mode = m
	h.Render()
}

func (h *Host) startMapEdit() { h.setMode(domain.ModeEditMap) }

func (h *Host) endMapEdit() { h.setMode(domain.ModeView) }

func (h *Host) addPolyline(ls domain.LineString) {
	h.dialog = &Dialog{
		Mode:    domain.ModeCreateCircuit,
		Circuit: domain.Circuit{Color: domain.DefaultCircuitColor, Geometry: ls.Clone()},
	}
	h.setMode(domain.ModeCreateCircuit)
}

func (h *Host) editCircuit(c domain.Circuit) {
	h.dialog = &Dialog{Mode: domain.ModeEditCircuit, Circuit: c.Clone()}
	h.setMode(domain.ModeEditCircuit)
}

// SaveCircuit submits the open circuit dialog with the given label and color.
func (h *Host) SaveCircuit(label, color string) (domain.Circuit, error) {
	id, ok := h.ProjectID()
	if !ok {
		return domain.Circuit{}, ErrNoProject
	}
	if h.dialog == nil {
		return domain.Circuit{}, fmt.Errorf("save circuit: no dialog open: %w", domain.ErrNotFound)
	}

	c := h.dialog.Circuit.Clone()
	c.Label = label
	if color != "" {
		c.Color = color
	}

	var err error
	switch h.dialog.Mode {
	case domain.ModeCreateCircuit:
		c, err = h.store.AddCircuit(id, c)
	default:
		err = h.store.UpdateCircuit(id, c)
	}
	if err != nil {
		return domain.Circuit{}, fmt.Errorf("save circuit: %w", err)
	}

	h.dialog = nil
	h.mode = domain.ModeView
	h.changed(id)
	return c, nil
}

// CloseDialog dismisses the circuit dialog without saving.
func (h *Host) CloseDialog() {
	h.dialog = nil
	h.setMode(domain.ModeView)
}

func (h *Host) removeCircuit(c domain.Circuit) {
	id, ok := h.ProjectID()
	if !ok || c.ID == nil {
		return
	}
	if err := h.store.RemoveCircuit(id, *c.ID); err != nil {
		h.logger.Warn("remove circuit failed", "project_id", id, "circuit_id", *c.ID, "error", err)
		return
	}
	h.changed(id)
}

func (h *Host) updateCircuitGeometry(c domain.Circuit) {
	id, ok := h.ProjectID()
	if !ok {
		return
	}
	if err := h.store.UpdateCircuit(id, c); err != nil {
		h.logger.Warn("update circuit failed", "project_id", id, "error", err)
		return
	}
	h.changed(id)
}

func (h *Host) addMarker(p domain.Point) {
	id, ok := h.ProjectID()
	if !ok {
		return
	}
	if _, err := h.store.AddMarker(id, domain.Marker{Point: p}); err != nil {
		h.logger.Warn("add marker failed", "project_id", id, "error", err)
		return
	}
	h.changed(id)
}

func (h *Host) deleteMarker(markerID int64) {
	id, ok := h.ProjectID()
	if !ok {
		return
	}
	if err := h.store.RemoveMarker(id, markerID); err != nil {
		h.logger.Warn("delete marker failed", "project_id", id, "marker_id", markerID, "error", err)
		return
	}
	h.changed(id)
}

// SetSidebarVisible shows or hides the sidebar.
func (h *Host) SetSidebarVisible(visible bool) {
	if h.sidebarVisible == visible {
		return
	}
	h.sidebarVisible = visible
	h.Render()
}

// FocusCircuit centers the map on a circuit of the open project.
func (h *Host) FocusCircuit(circuitID int64) {
	c, ok := h.project.FindCircuit(circuitID)
	if !ok || c.Geometry.Len() == 0 {
		return
	}
	var bb domain.BoundingBox
	for i, p := range c.Geometry.Coordinates {
		bb.Extend(p, i == 0)
	}
	h.engine.SidebarPanTo(bb.Center())
}

func (h *Host) changed(projectID int64) {
	if p, ok := h.store.Get(projectID); ok {
		h.project = p
	}
	h.Render()
	if h.onChange != nil {
		h.onChange(projectID)
	}
}
