package mapengine

import (
	"github.com/paulmach/orb/geojson"

	"circuitmap/internal/domain"
	"circuitmap/internal/geo"
	"circuitmap/internal/selection"
)

// MenuView is an open context menu with the actions it offers.
type MenuView struct {
	selection.Menu
	Actions []string `json:"actions"`
}

// View is the snapshot the surface draws.
type View struct {
	Mode       domain.EditMode            `json:"mode"`
	HostMode   domain.EditMode            `json:"hostMode"`
	Circuits   *geojson.FeatureCollection `json:"circuits"`
	Markers    *geojson.FeatureCollection `json:"markers"`
	SelectedID *int64                     `json:"selectedId"`
	Vertices   []selection.Vertex         `json:"vertices,omitempty"`
	Dragging   bool                       `json:"dragging,omitempty"`
	Draft      *domain.LineString         `json:"draft,omitempty"`
	Route      *RoutedPath                `json:"route,omitempty"`
	Menus      []MenuView                 `json:"menus,omitempty"`
}

func (e *Engine) View() View {
	v := View{
		Mode:       e.controller.Mode(),
		HostMode:   e.controller.HostMode(),
		Circuits:   geo.CircuitCollection(e.props.Circuits, e.layer.Selection.ID()),
		Markers:    geo.MarkerCollection(e.props.Markers),
		SelectedID: e.layer.Selection.ID(),
		Vertices:   e.layer.Vertices(e.props.Circuits),
		Dragging:   e.layer.Dragging(),
	}
	if d, ok := e.controller.Draft(); ok {
		v.Draft = &d
	}
	if e.routed != nil {
		r := *e.routed
		r.Path = r.Path.Clone()
		v.Route = &r
	}
	for _, m := range e.layer.Menus.List() {
		v.Menus = append(v.Menus, MenuView{Menu: m, Actions: m.Actions()})
	}
	return v
}
