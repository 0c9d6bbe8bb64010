package store

import (
	"fmt"
	"slices"
	"sync"

	"circuitmap/internal/domain"
)

// Store is the in-memory project repository. Reads return copies; callers
// never share memory with what is stored.
type Store struct {
	mu       sync.RWMutex
	projects map[int64]*domain.Project

	nextProject int64
	nextCircuit int64
	nextMarker  int64
}

func New() *Store {
	return &Store{projects: make(map[int64]*domain.Project)}
}

func notFound(kind string, id int64) error {
	return fmt.Errorf("%s %d: %w", kind, id, domain.ErrNotFound)
}

func (s *Store) CreateProject(label string) *domain.Project {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextProject++
	p := &domain.Project{
		ID:       domain.Int64Ptr(s.nextProject),
		Label:    label,
		Circuits: []domain.Circuit{},
		Markers:  []domain.Marker{},
	}
	s.projects[s.nextProject] = p
	return p.Clone()
}

func (s *Store) Get(id int64) (*domain.Project, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[id]
	if !ok {
		return nil, false
	}
	return p.Clone(), true
}

// List returns every project id and label, ordered by id.
func (s *Store) List() []domain.ProjectIDLabel {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.ProjectIDLabel, 0, len(s.projects))
	for id, p := range s.projects {
		result = append(result, domain.ProjectIDLabel{ID: id, Label: p.Label})
	}
	slices.SortFunc(result, func(a, b domain.ProjectIDLabel) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return result
}

func (s *Store) RenameProject(id int64, label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return notFound("project", id)
	}
	p.Label = label
	return nil
}

func (s *Store) DeleteProject(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[id]; !ok {
		return notFound("project", id)
	}
	delete(s.projects, id)
	return nil
}

// AddCircuit persists a draft circuit and returns it with its new id.
func (s *Store) AddCircuit(projectID int64, c domain.Circuit) (domain.Circuit, error) {
	if c.Geometry.Len() < domain.MinCircuitVertices {
		return domain.Circuit{}, fmt.Errorf("circuit with %d vertices: %w", c.Geometry.Len(), domain.ErrInvariantViolation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[projectID]
	if !ok {
		return domain.Circuit{}, notFound("project", projectID)
	}

	s.nextCircuit++
	stored := c.Clone()
	stored.ID = domain.Int64Ptr(s.nextCircuit)
	stored.Geometry.Type = domain.GeometryTypeLineString
	p.Circuits = append(p.Circuits, stored)
	return stored.Clone(), nil
}

// UpdateCircuit replaces the stored circuit carrying c's id.
func (s *Store) UpdateCircuit(projectID int64, c domain.Circuit) error {
	if c.ID == nil {
		return fmt.Errorf("update draft circuit: %w", domain.ErrNotFound)
	}
	if c.Geometry.Len() < domain.MinCircuitVertices {
		return fmt.Errorf("circuit %d with %d vertices: %w", *c.ID, c.Geometry.Len(), domain.ErrInvariantViolation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[projectID]
	if !ok {
		return notFound("project", projectID)
	}
	for i := range p.Circuits {
		if p.Circuits[i].HasID(*c.ID) {
			p.Circuits[i] = c.Clone()
			return nil
		}
	}
	return notFound("circuit", *c.ID)
}

func (s *Store) RemoveCircuit(projectID, circuitID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[projectID]
	if !ok {
		return notFound("project", projectID)
	}
	for i := range p.Circuits {
		if p.Circuits[i].HasID(circuitID) {
			p.Circuits = slices.Delete(p.Circuits, i, i+1)
			return nil
		}
	}
	return notFound("circuit", circuitID)
}

func (s *Store) AddMarker(projectID int64, m domain.Marker) (domain.Marker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[projectID]
	if !ok {
		return domain.Marker{}, notFound("project", projectID)
	}

	s.nextMarker++
	stored := m.Clone()
	stored.ID = domain.Int64Ptr(s.nextMarker)
	stored.Point.Type = domain.GeometryTypePoint
	p.Markers = append(p.Markers, stored)
	return stored.Clone(), nil
}

func (s *Store) RemoveMarker(projectID, markerID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[projectID]
	if !ok {
		return notFound("project", projectID)
	}
	for i, m := range p.Markers {
		if m.ID != nil && *m.ID == markerID {
			p.Markers = slices.Delete(p.Markers, i, i+1)
			return nil
		}
	}
	return notFound("marker", markerID)
}

// Snapshot returns a copy of every project.
func (s *Store) Snapshot() []*domain.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Project, 0, len(s.projects))
	for _, p := range s.projects {
		result = append(result, p.Clone())
	}
	return result
}

func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.projects)
}

// CircuitCount returns the number of circuits across all projects.
func (s *Store) CircuitCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, p := range s.projects {
		n += len(p.Circuits)
	}
	return n
}
