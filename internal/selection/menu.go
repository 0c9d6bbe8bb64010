package selection

import "circuitmap/internal/domain"

type MenuKind string

const (
	MenuCircuit MenuKind = "circuit"
	MenuPoint   MenuKind = "point"
)

// Menu actions.
const (
	ActionAddPoint      = "addPoint"
	ActionEditCircuit   = "editCircuit"
	ActionRemoveCircuit = "removeCircuit"
	ActionDeletePoint   = "deletePoint"
)

// Menu is an open context menu anchored at viewport pixel X, Y.
type Menu struct {
	Kind      MenuKind      `json:"kind"`
	X         float64       `json:"x"`
	Y         float64       `json:"y"`
	CircuitID int64         `json:"circuitId"`
	Index     int           `json:"index,omitempty"`
	LatLng    domain.LatLng `json:"latlng"`
}

// Actions lists what the menu offers.
func (m Menu) Actions() []string {
	if m.Kind == MenuPoint {
		return []string{ActionDeletePoint}
	}
	return []string{ActionAddPoint, ActionEditCircuit, ActionRemoveCircuit}
}

// Menus holds one circuit menu slot and one point menu slot.
type Menus struct {
	circuit *Menu
	point   *Menu
}

// Open shows m, replacing whatever menu of the same kind was open.
func (ms *Menus) Open(m Menu) {
	switch m.Kind {
	case MenuCircuit:
		ms.circuit = &m
	case MenuPoint:
		ms.point = &m
	}
}

func (ms *Menus) Get(kind MenuKind) (Menu, bool) {
	var m *Menu
	switch kind {
	case MenuCircuit:
		m = ms.circuit
	case MenuPoint:
		m = ms.point
	}
	if m == nil {
		return Menu{}, false
	}
	return *m, true
}

// Close hides the menu of kind. Leaving the menu region closes it too.
func (ms *Menus) Close(kind MenuKind) {
	switch kind {
	case MenuCircuit:
		ms.circuit = nil
	case MenuPoint:
		ms.point = nil
	}
}

func (ms *Menus) CloseAll() {
	ms.circuit = nil
	ms.point = nil
}

// List returns the open menus, circuit menu first.
func (ms *Menus) List() []Menu {
	var out []Menu
	if ms.circuit != nil {
		out = append(out, *ms.circuit)
	}
	if ms.point != nil {
		out = append(out, *ms.point)
	}
	return out
}
