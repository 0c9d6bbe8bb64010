// Package mapengine is the interactive editor of one map session. It keeps
// the overlay controls attached to the surface, routes pointer and keyboard
// input according to the current tool, and reports geometry changes to the
// host through callbacks. An Engine is not safe for concurrent use; run it
// on a Loop.
package mapengine

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"circuitmap/internal/control"
	"circuitmap/internal/domain"
	"circuitmap/internal/edit"
	"circuitmap/internal/editmode"
	"circuitmap/internal/geo"
	"circuitmap/internal/routing"
	"circuitmap/internal/selection"
	"circuitmap/internal/surface"
)

// Surface is the rendering surface plus the inbound side the engine drives.
type Surface interface {
	surface.Surface
	Emit(ev surface.Event)
	Press(controlID, button string) bool
	Render(view any)
}

type Options struct {
	Surface Surface
	Router  *routing.Router
	// Post schedules a func on the goroutine owning the engine. Routing
	// results come back through it.
	Post   func(func()) bool
	Logger *slog.Logger
}

type Engine struct {
	ctx     context.Context
	surface Surface
	router  *routing.Router
	post    func(func()) bool
	logger  *slog.Logger

	props      Props
	controller *editmode.Controller
	layer      selection.Layer
	routed     *RoutedPath

	marker    *control.Proxy[control.MarkerBehavior]
	polyline  *control.Proxy[control.PolylineBehavior]
	routingUI *control.Proxy[control.RoutingBehavior]
	location  *control.Proxy[control.LocationBehavior]
	sidebar   *control.Proxy[control.SidebarMenuBehavior]
	search    *control.Proxy[control.AddressSearchBehavior]
}

// RoutedPath is a road-following path shown next to the circuit it was
// computed from. It never replaces the circuit's geometry.
type RoutedPath struct {
	Seq       uint64            `json:"seq"`
	CircuitID int64             `json:"circuitId"`
	Path      domain.LineString `json:"path"`
}

func New(ctx context.Context, opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	post := opts.Post
	if post == nil {
		post = func(fn func()) bool { fn(); return true }
	}

	e := &Engine{
		ctx:       ctx,
		surface:   opts.Surface,
		router:    opts.Router,
		post:      post,
		logger:    logger.With("component", "mapengine"),
		marker:    control.NewProxy(control.NewAddMarker),
		polyline:  control.NewProxy(control.NewAddPolyline),
		routingUI: control.NewProxy(control.NewRoutingMachine),
		location:  control.NewProxy(control.NewLocation),
		sidebar:   control.NewProxy(control.NewSidebarMenu),
		search:    control.NewProxy(control.NewAddressSearch),
	}
	e.controller = editmode.New(notifier{e}, logger)
	return e
}

// Render applies the host's latest props.
func (e *Engine) Render(props Props) {
	e.props = props

	if e.controller.SyncHostMode(props.Mode) {
		e.layer.CancelDrag()
	}
	e.layer.Selection.Prune(props.Circuits)
	if _, ok := e.layer.Selection.Selected(); !ok {
		e.layer.CancelDrag()
		e.routed = nil
	}

	e.refresh()
}

// Mode is the map's own tool mode.
func (e *Engine) Mode() domain.EditMode { return e.controller.Mode() }

// Close detaches every control from the surface.
func (e *Engine) Close() {
	e.marker.Unmount()
	e.polyline.Unmount()
	e.routingUI.Unmount()
	e.location.Unmount()
	e.sidebar.Unmount()
	e.search.Unmount()
}

// refresh re-renders the controls and publishes the view.
func (e *Engine) refresh() {
	e.renderControls()
	e.publish()
}

func (e *Engine) renderControls() {
	mode := e.controller.Mode()

	e.marker.Render(e.surface, control.MarkerBehavior{
		Mode:        mode,
		OnStart:     e.startMarker,
		OnEnd:       e.endMarker,
		OnAddMarker: e.addMarker,
	})
	e.polyline.Render(e.surface, control.PolylineBehavior{
		Mode:       mode,
		OnStart:    e.startPolyline,
		OnDraw:     e.drawPolyline,
		OnValidate: e.validatePolyline,
		OnCancel:   e.cancelPolyline,
	})
	e.routingUI.Render(e.surface, control.RoutingBehavior{
		Mode:          mode,
		OnCreateRoute: e.createRoute,
	})
	e.location.Render(e.surface, control.LocationBehavior{Mode: mode})

	if e.props.SidebarVisible {
		e.sidebar.Unmount()
	} else {
		e.sidebar.Render(e.surface, control.SidebarMenuBehavior{OnOpen: e.props.OnOpenSidebar})
	}
	e.search.Render(e.surface, control.AddressSearchBehavior{
		OnLocationSelected: func(ll domain.LatLng) {
			e.surface.FlyTo(ll, e.surface.CurrentZoom())
		},
	})
}

func (e *Engine) publish() {
	e.surface.Render(e.View())
}

func (e *Engine) startMarker() {
	if err := e.controller.StartMarker(); err != nil {
		e.logger.Debug("marker tool refused", "error", err)
	}
	e.routed = nil
	e.layer.Menus.CloseAll()
	e.refresh()
}

func (e *Engine) endMarker() {
	e.controller.EndMarker()
	e.refresh()
}

func (e *Engine) addMarker(p domain.Point) {
	if fn := e.props.OnAddMarker; fn != nil {
		fn(p)
	}
}

func (e *Engine) startPolyline() {
	if err := e.controller.StartPolyline(); err != nil {
		e.logger.Debug("polyline tool refused", "error", err)
	}
	e.routed = nil
	e.layer.Menus.CloseAll()
	e.refresh()
}

func (e *Engine) drawPolyline(ls domain.LineString) {
	e.controller.Draw(ls)
	e.publish()
}

func (e *Engine) validatePolyline(ls domain.LineString) {
	e.controller.Validate(ls)
	e.refresh()
}

func (e *Engine) cancelPolyline() {
	e.controller.Cancel()
	e.refresh()
}

// createRoute asks the router for a road-following version of the selected
// circuit. The result is applied on the engine's goroutine.
func (e *Engine) createRoute() {
	if e.router == nil {
		return
	}
	id, ok := e.layer.Selection.Selected()
	if !ok {
		return
	}
	c, err := edit.FindCircuit(e.props.Circuits, id)
	if err != nil {
		return
	}

	e.router.Request(e.ctx, geo.LineStringToLatLngs(c.Geometry)).Then(func(r routing.Result) {
		e.post(func() { e.applyRoute(id, r) })
	})
}

func (e *Engine) applyRoute(circuitID int64, r routing.Result) {
	if r.Err != nil {
		e.logger.Warn("route not applied", "circuit_id", circuitID, "seq", r.Seq, "error", r.Err)
		return
	}
	// The user moved on while the request was in flight.
	if !e.layer.Selection.IsSelected(circuitID) || e.controller.Mode() != domain.ModeView {
		e.logger.Debug("stale route dropped", "circuit_id", circuitID, "seq", r.Seq)
		return
	}
	e.routed = &RoutedPath{
		Seq:       r.Seq,
		CircuitID: circuitID,
		Path:      geo.LatLngsToLineString(r.Path),
	}
	e.publish()
}

// Click forwards a map click to the surface subscribers.
func (e *Engine) Click(ll domain.LatLng, x, y float64) {
	e.surface.Emit(surface.Event{Type: surface.EventClick, LatLng: ll, X: x, Y: y})
}

func (e *Engine) LocationFound(ll domain.LatLng) {
	e.surface.Emit(surface.Event{Type: surface.EventLocationFound, LatLng: ll})
}

func (e *Engine) AddressSelected(ll domain.LatLng) {
	e.surface.Emit(surface.Event{Type: surface.EventAddressSelected, LatLng: ll})
}

// PressControl activates a control button. Unknown controls are ignored.
func (e *Engine) PressControl(controlID, button string) {
	if !e.surface.Press(controlID, button) {
		e.logger.Debug("press on unknown control", "control_id", controlID, "button", button)
	}
}

// CircuitClick toggles the selection of a circuit.
func (e *Engine) CircuitClick(id int64) {
	if e.controller.Mode() != domain.ModeView {
		return
	}
	c, err := edit.FindCircuit(e.props.Circuits, id)
	if err != nil {
		return
	}
	if e.layer.Selection.Toggle(c) {
		e.layer.CancelDrag()
		e.routed = nil
		e.publish()
	}
}

// CircuitContextMenu opens the circuit menu at pixel x, y for the clicked
// location ll.
func (e *Engine) CircuitContextMenu(id int64, ll domain.LatLng, x, y float64) {
	if e.controller.Mode() != domain.ModeView {
		return
	}
	if _, err := edit.FindCircuit(e.props.Circuits, id); err != nil {
		return
	}
	e.layer.Menus.Open(selection.Menu{Kind: selection.MenuCircuit, X: x, Y: y, CircuitID: id, LatLng: ll})
	e.publish()
}

// VertexContextMenu opens the point menu. It never opens the circuit menu.
// Only the selected circuit has vertex handles.
func (e *Engine) VertexContextMenu(circuitID int64, index int, x, y float64) {
	if e.controller.Mode() != domain.ModeView || !e.layer.Selection.IsSelected(circuitID) {
		return
	}
	c, err := edit.FindCircuit(e.props.Circuits, circuitID)
	if err != nil || index < 0 || index >= c.Geometry.Len() {
		return
	}
	e.layer.Menus.Open(selection.Menu{
		Kind:      selection.MenuPoint,
		X:         x,
		Y:         y,
		CircuitID: circuitID,
		Index:     index,
		LatLng:    geo.PositionToLatLng(c.Geometry.Coordinates[index]),
	})
	e.publish()
}

// MarkerContextMenu deletes the marker.
func (e *Engine) MarkerContextMenu(id int64) {
	if !e.props.findMarker(id) {
		return
	}
	if fn := e.props.OnDeleteMarker; fn != nil {
		fn(id)
	}
}

// MenuLeave closes the menu the pointer left.
func (e *Engine) MenuLeave(kind selection.MenuKind) {
	if _, ok := e.layer.Menus.Get(kind); !ok {
		return
	}
	e.layer.Menus.Close(kind)
	e.publish()
}

// MenuAction runs action from the open menu of kind and closes it.
func (e *Engine) MenuAction(kind selection.MenuKind, action string) {
	m, ok := e.layer.Menus.Get(kind)
	if !ok || !slices.Contains(m.Actions(), action) {
		return
	}
	e.layer.Menus.Close(kind)
	defer e.publish()

	c, err := edit.FindCircuit(e.props.Circuits, m.CircuitID)
	if err != nil {
		return
	}

	switch action {
	case selection.ActionAddPoint:
		e.updateGeometry(edit.InsertPoint(c, m.LatLng))

	case selection.ActionEditCircuit:
		if fn := e.props.OnEditCircuit; fn != nil {
			fn(c)
		}

	case selection.ActionRemoveCircuit:
		e.removeCircuit(c)

	case selection.ActionDeletePoint:
		next, err := edit.DeletePoint(c, m.Index)
		switch {
		case errors.Is(err, domain.ErrInvariantViolation):
			e.surface.Alert(domain.MessageCircuitMinPoints)
		case err != nil:
			e.logger.Debug("delete point ignored", "circuit_id", m.CircuitID, "error", err)
		default:
			e.updateGeometry(next)
		}

	default:
		e.logger.Debug("unknown menu action", "kind", kind, "action", action)
	}
}

func (e *Engine) updateGeometry(c domain.Circuit) {
	if fn := e.props.OnUpdateCircuitGeometry; fn != nil {
		fn(c)
	}
}

func (e *Engine) removeCircuit(c domain.Circuit) {
	if c.ID != nil && e.layer.Selection.IsSelected(*c.ID) {
		e.layer.Selection.Clear()
		e.layer.CancelDrag()
		e.routed = nil
	}
	if fn := e.props.OnRemoveCircuit; fn != nil {
		fn(c)
	}
}

// DragStart begins dragging a vertex of the selected circuit.
func (e *Engine) DragStart(circuitID int64, index int) {
	if err := e.layer.StartDrag(e.props.Circuits, circuitID, index); err != nil {
		e.logger.Debug("drag ignored", "error", err)
	}
}

// Drag moves the dragged vertex. Only the preview changes.
func (e *Engine) Drag(ll domain.LatLng) {
	if _, ok := e.layer.DragTo(ll); ok {
		e.publish()
	}
}

// DragEnd commits the dragged geometry once.
func (e *Engine) DragEnd() {
	id, positions, ok := e.layer.EndDrag()
	if !ok {
		return
	}
	c, err := edit.FindCircuit(e.props.Circuits, id)
	if err != nil {
		return
	}
	e.updateGeometry(edit.ReplaceLatLngs(c, positions))
	e.publish()
}

// KeyDown handles keyboard shortcuts. Delete removes the selected circuit.
func (e *Engine) KeyDown(key string) {
	id, ok := e.layer.KeyDown(key)
	if !ok {
		return
	}
	c, err := edit.FindCircuit(e.props.Circuits, id)
	if err != nil {
		return
	}
	e.removeCircuit(c)
	e.publish()
}

// SidebarPanTo centers the map on an item picked in the sidebar.
func (e *Engine) SidebarPanTo(ll domain.LatLng) {
	e.surface.PanTo(ll)
}

// Selected returns the selected circuit id.
func (e *Engine) Selected() (int64, bool) { return e.layer.Selection.Selected() }

// Routed returns the last road-following path, if any.
func (e *Engine) Routed() (RoutedPath, bool) {
	if e.routed == nil {
		return RoutedPath{}, false
	}
	return *e.routed, true
}
