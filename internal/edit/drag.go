package edit

import "circuitmap/internal/domain"

// Drag buffers the positions of one circuit while a vertex is being moved.
// Previews only touch the buffer; End hands back the final positions once.
type Drag struct {
	circuitID int64
	index     int
	positions []domain.LatLng
	ended     bool
}

// StartDrag snapshots positions for circuitID before vertex index moves.
func StartDrag(circuitID int64, index int, positions []domain.LatLng) *Drag {
	buf := make([]domain.LatLng, len(positions))
	copy(buf, positions)
	return &Drag{circuitID: circuitID, index: index, positions: buf}
}

func (d *Drag) CircuitID() int64 { return d.circuitID }
func (d *Drag) Index() int       { return d.index }

// Move records a new position for the dragged vertex and returns the preview.
func (d *Drag) Move(to domain.LatLng) []domain.LatLng {
	if d.ended {
		return d.Positions()
	}
	d.positions = DragPreview(d.positions, d.index, to)
	return d.Positions()
}

// Positions returns a copy of the buffered positions.
func (d *Drag) Positions() []domain.LatLng {
	out := make([]domain.LatLng, len(d.positions))
	copy(out, d.positions)
	return out
}

// End closes the drag. The second return value is false when End was
// already called.
func (d *Drag) End() ([]domain.LatLng, bool) {
	if d.ended {
		return nil, false
	}
	d.ended = true
	return d.Positions(), true
}
