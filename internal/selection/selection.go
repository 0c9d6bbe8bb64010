// Package selection tracks the selected circuit, the open context menus and
// the vertex handles drawn on the selected circuit.
package selection

import "circuitmap/internal/domain"

// Selection holds at most one selected circuit id.
type Selection struct {
	id *int64
}

// Toggle selects c, or clears the selection when c is already selected.
// Drafts and circuits without vertices cannot be selected. It reports
// whether the selection changed.
func (s *Selection) Toggle(c domain.Circuit) bool {
	if c.ID == nil || c.Geometry.Len() == 0 {
		return false
	}
	if s.id != nil && *s.id == *c.ID {
		s.id = nil
		return true
	}
	id := *c.ID
	s.id = &id
	return true
}

// Selected returns the selected circuit id.
func (s *Selection) Selected() (int64, bool) {
	if s.id == nil {
		return 0, false
	}
	return *s.id, true
}

// ID returns a copy of the selected id, nil when nothing is selected.
func (s *Selection) ID() *int64 {
	if s.id == nil {
		return nil
	}
	id := *s.id
	return &id
}

func (s *Selection) IsSelected(id int64) bool {
	return s.id != nil && *s.id == id
}

func (s *Selection) Clear() { s.id = nil }

// Prune clears the selection when the selected circuit is no longer in
// circuits or has lost its vertices.
func (s *Selection) Prune(circuits []domain.Circuit) {
	if s.id == nil {
		return
	}
	for _, c := range circuits {
		if c.HasID(*s.id) && c.Geometry.Len() > 0 {
			return
		}
	}
	s.id = nil
}
