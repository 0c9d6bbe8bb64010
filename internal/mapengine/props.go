package mapengine

import "circuitmap/internal/domain"

// Callbacks are the host notifications. Every field may be nil.
type Callbacks struct {
	OnStartMapEdit          func()
	OnEndMapEdit            func()
	OnAddPolyline           func(domain.LineString)
	OnEditCircuit           func(domain.Circuit)
	OnRemoveCircuit         func(domain.Circuit)
	OnUpdateCircuitGeometry func(domain.Circuit)
	OnAddMarker             func(domain.Point)
	OnDeleteMarker          func(id int64)
	OnOpenSidebar           func()
}

// Props is everything the host passes on each render.
type Props struct {
	Mode           domain.EditMode
	Circuits       []domain.Circuit
	Markers        []domain.Marker
	SidebarVisible bool
	Callbacks
}

func (p Props) findMarker(id int64) bool {
	for _, m := range p.Markers {
		if m.ID != nil && *m.ID == id {
			return true
		}
	}
	return false
}

// notifier forwards mode transitions to the latest host callbacks.
type notifier struct{ e *Engine }

func (n notifier) StartMapEdit() {
	if fn := n.e.props.OnStartMapEdit; fn != nil {
		fn()
	}
}

func (n notifier) EndMapEdit() {
	if fn := n.e.props.OnEndMapEdit; fn != nil {
		fn()
	}
}

func (n notifier) AddPolyline(ls domain.LineString) {
	if fn := n.e.props.OnAddPolyline; fn != nil {
		fn(ls)
	}
}
