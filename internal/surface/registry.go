package surface

import "sync"

// Registry tracks the controls attached to one surface instance. It is owned
// by whoever builds the surface; nothing about it is process-wide.
type Registry struct {
	mu       sync.RWMutex
	controls []Control
	added    map[string]int
	removed  map[string]int
}

func NewRegistry() *Registry {
	return &Registry{
		added:   make(map[string]int),
		removed: make(map[string]int),
	}
}

// Add attaches c. It returns false if c is already attached.
func (r *Registry) Add(c Control) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.added[c.ID()]++
	for _, existing := range r.controls {
		if existing == c {
			return false
		}
	}
	r.controls = append(r.controls, c)
	return true
}

// Remove detaches c. It returns false if c was not attached.
func (r *Registry) Remove(c Control) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.removed[c.ID()]++
	for i, existing := range r.controls {
		if existing == c {
			r.controls = append(r.controls[:i], r.controls[i+1:]...)
			return true
		}
	}
	return false
}

// Lookup returns the attached control with the given id.
func (r *Registry) Lookup(id string) (Control, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.controls {
		if c.ID() == id {
			return c, true
		}
	}
	return nil, false
}

func (r *Registry) Controls() []Control {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Control, len(r.controls))
	copy(out, r.controls)
	return out
}

// AddCount returns how many times a control with id was registered.
func (r *Registry) AddCount(id string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.added[id]
}

// RemoveCount returns how many times a control with id was deregistered.
func (r *Registry) RemoveCount(id string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.removed[id]
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.controls)
}

// Reset drops every control and counter.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.controls = nil
	r.added = make(map[string]int)
	r.removed = make(map[string]int)
}
