// Package control implements the overlay controls of the map. A control is
// attached to a surface once and keeps its identity across re-renders of
// its owner; what it does when clicked is read at call time from a Cell that
// the owner overwrites on every render.
package control

import (
	"sync"

	"circuitmap/internal/surface"
)

// Cell is a mutable indirection slot. Handlers created once read through it
// so they always see the latest value.
type Cell[T any] struct {
	mu sync.RWMutex
	v  T
}

func NewCell[T any](v T) *Cell[T] {
	return &Cell[T]{v: v}
}

func (c *Cell[T]) Load() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.v
}

func (c *Cell[T]) Store(v T) {
	c.mu.Lock()
	c.v = v
	c.mu.Unlock()
}

// Overlay is a control with attachment and re-render hooks.
type Overlay interface {
	surface.Control
	// Attached runs right after the control was added to s.
	Attached(s surface.Surface)
	// Detached runs right before the control is removed from its surface.
	Detached()
	// Sync applies the behavior currently in the cell (visibility, resets).
	Sync()
}

// Factory builds the overlay for one surface instance.
type Factory[B any] func(behavior *Cell[B]) Overlay

// Proxy gives an overlay a stable identity while its behavior changes.
type Proxy[B any] struct {
	factory  Factory[B]
	behavior *Cell[B]
	surface  surface.Surface
	overlay  Overlay
	mounts   int
}

func NewProxy[B any](factory Factory[B]) *Proxy[B] {
	var zero B
	return &Proxy[B]{factory: factory, behavior: NewCell(zero)}
}

// Render stores b as the current behavior and makes sure exactly one overlay
// is attached to s. A new overlay is only built when s differs from the
// surface of the previous render.
func (p *Proxy[B]) Render(s surface.Surface, b B) {
	p.behavior.Store(b)

	if p.overlay != nil && p.surface != s {
		p.Unmount()
	}
	if p.overlay == nil {
		if s == nil {
			return
		}
		o := p.factory(p.behavior)
		s.AddOverlayControl(o)
		o.Attached(s)
		p.overlay = o
		p.surface = s
		p.mounts++
	}
	p.overlay.Sync()
}

// Unmount removes the overlay from its surface. Calling it again is a no-op.
func (p *Proxy[B]) Unmount() {
	if p.overlay == nil {
		return
	}
	p.overlay.Detached()
	p.surface.RemoveOverlayControl(p.overlay)
	p.overlay = nil
	p.surface = nil
}

// Control returns the attached overlay, or nil when unmounted.
func (p *Proxy[B]) Control() Overlay { return p.overlay }

// Behavior returns the behavior stored by the last Render.
func (p *Proxy[B]) Behavior() B { return p.behavior.Load() }

// Mounts counts how many overlays this proxy has built.
func (p *Proxy[B]) Mounts() int { return p.mounts }
