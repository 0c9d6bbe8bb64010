package selection

import (
	"fmt"

	"circuitmap/internal/domain"
	"circuitmap/internal/edit"
	"circuitmap/internal/geo"
)

// Keys the layer reacts to.
const (
	KeyDelete = "Delete"
)

// Vertex is a draggable handle on the selected circuit.
type Vertex struct {
	CircuitID int64         `json:"circuitId"`
	Index     int           `json:"index"`
	LatLng    domain.LatLng `json:"latlng"`
}

// Layer combines the selection, the context menus and the vertex drag of
// the selected circuit.
type Layer struct {
	Selection Selection
	Menus     Menus

	drag *edit.Drag
}

// Vertices returns the handles of the selected circuit. While a drag is in
// progress they follow the drag preview.
func (l *Layer) Vertices(circuits []domain.Circuit) []Vertex {
	id, ok := l.Selection.Selected()
	if !ok {
		return nil
	}
	c, err := edit.FindCircuit(circuits, id)
	if err != nil {
		return nil
	}

	positions := geo.LineStringToLatLngs(c.Geometry)
	if l.drag != nil && l.drag.CircuitID() == id {
		positions = l.drag.Positions()
	}

	out := make([]Vertex, len(positions))
	for i, ll := range positions {
		out[i] = Vertex{CircuitID: id, Index: i, LatLng: ll}
	}
	return out
}

// StartDrag begins moving vertex index of the selected circuit.
func (l *Layer) StartDrag(circuits []domain.Circuit, circuitID int64, index int) error {
	if !l.Selection.IsSelected(circuitID) {
		return fmt.Errorf("drag circuit %d: not selected: %w", circuitID, domain.ErrNotFound)
	}
	c, err := edit.FindCircuit(circuits, circuitID)
	if err != nil {
		return err
	}
	if index < 0 || index >= c.Geometry.Len() {
		return fmt.Errorf("drag vertex %d: %w", index, domain.ErrNotFound)
	}
	l.drag = edit.StartDrag(circuitID, index, geo.LineStringToLatLngs(c.Geometry))
	return nil
}

func (l *Layer) Dragging() bool { return l.drag != nil }

// DragTo moves the dragged vertex and returns the preview positions.
func (l *Layer) DragTo(to domain.LatLng) ([]domain.LatLng, bool) {
	if l.drag == nil {
		return nil, false
	}
	return l.drag.Move(to), true
}

// EndDrag finishes the drag and returns the positions to commit. It returns
// ok=false when no drag was in progress.
func (l *Layer) EndDrag() (circuitID int64, positions []domain.LatLng, ok bool) {
	if l.drag == nil {
		return 0, nil, false
	}
	d := l.drag
	l.drag = nil
	positions, ok = d.End()
	return d.CircuitID(), positions, ok
}

// CancelDrag drops an in-progress drag without committing it.
func (l *Layer) CancelDrag() { l.drag = nil }

// KeyDown returns the circuit a key press removes, if any.
func (l *Layer) KeyDown(key string) (int64, bool) {
	if key != KeyDelete {
		return 0, false
	}
	return l.Selection.Selected()
}
