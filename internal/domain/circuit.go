package domain

// MinCircuitVertices is the smallest vertex count a persisted circuit may have.
const MinCircuitVertices = 2

// DefaultCircuitColor is used to draw circuits that carry no colour.
const DefaultCircuitColor = "black"

// Circuit is a labelled path drawn on the map. A circuit without an ID is a
// draft that only exists while it is being created.
type Circuit struct {
	ID       *int64     `json:"id,omitempty"`
	Label    string     `json:"label"`
	Color    string     `json:"color"`
	Geometry LineString `json:"geometry"`
}

func (c Circuit) IsDraft() bool { return c.ID == nil }

// HasID reports whether c is the persisted circuit id.
func (c Circuit) HasID(id int64) bool {
	return c.ID != nil && *c.ID == id
}

func (c Circuit) DisplayColor() string {
	if c.Color == "" {
		return DefaultCircuitColor
	}
	return c.Color
}

func (c Circuit) Clone() Circuit {
	out := c
	if c.ID != nil {
		id := *c.ID
		out.ID = &id
	}
	out.Geometry = c.Geometry.Clone()
	return out
}

// Marker is a labelled point placed on the map.
type Marker struct {
	ID    *int64 `json:"id,omitempty"`
	Label string `json:"label"`
	Point Point  `json:"point"`
}

func (m Marker) Clone() Marker {
	out := m
	if m.ID != nil {
		id := *m.ID
		out.ID = &id
	}
	return out
}

// Project groups the circuits and markers a user edits together.
type Project struct {
	ID       *int64    `json:"id,omitempty"`
	Label    string    `json:"label"`
	Circuits []Circuit `json:"circuits"`
	Markers  []Marker  `json:"markers"`
}

func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}
	out := &Project{Label: p.Label}
	if p.ID != nil {
		id := *p.ID
		out.ID = &id
	}
	out.Circuits = make([]Circuit, len(p.Circuits))
	for i, c := range p.Circuits {
		out.Circuits[i] = c.Clone()
	}
	out.Markers = make([]Marker, len(p.Markers))
	for i, m := range p.Markers {
		out.Markers[i] = m.Clone()
	}
	return out
}

// FindCircuit returns a copy of the circuit with the given id.
func (p *Project) FindCircuit(id int64) (Circuit, bool) {
	if p == nil {
		return Circuit{}, false
	}
	for _, c := range p.Circuits {
		if c.HasID(id) {
			return c.Clone(), true
		}
	}
	return Circuit{}, false
}

// FindMarker returns a copy of the marker with the given id.
func (p *Project) FindMarker(id int64) (Marker, bool) {
	if p == nil {
		return Marker{}, false
	}
	for _, m := range p.Markers {
		if m.ID != nil && *m.ID == id {
			return m.Clone(), true
		}
	}
	return Marker{}, false
}

// Bounds returns the box covering every circuit vertex and marker.
func (p *Project) Bounds() (BoundingBox, bool) {
	var bb BoundingBox
	if p == nil {
		return bb, false
	}
	seeded := false
	for _, c := range p.Circuits {
		for _, pos := range c.Geometry.Coordinates {
			bb.Extend(pos, !seeded)
			seeded = true
		}
	}
	for _, m := range p.Markers {
		bb.Extend(m.Point.Coordinates, !seeded)
		seeded = true
	}
	return bb, seeded
}

// ProjectIDLabel is the summary listed when opening a project.
type ProjectIDLabel struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
}

// Int64Ptr is a helper for building circuits and markers with ids.
func Int64Ptr(v int64) *int64 { return &v }
