package control

import (
	"circuitmap/internal/domain"
	"circuitmap/internal/geo"
	"circuitmap/internal/surface"
)

// MarkerBehavior is what the add-marker control does.
//
// Mode is the map mode; OnStart and OnEnd fire when the tool is toggled;
// OnAddMarker fires for each surface click while the tool is active.
type MarkerBehavior struct {
	Mode        domain.EditMode
	OnStart     func()
	OnEnd       func()
	OnAddMarker func(domain.Point)
}

const ButtonToggle = "toggle"

// AddMarker toggles marker placement.
type AddMarker struct {
	base
	behavior *Cell[MarkerBehavior]
	lastMode domain.EditMode
}

func NewAddMarker(behavior *Cell[MarkerBehavior]) Overlay {
	c := &AddMarker{
		base: newBase(IDAddMarker, "Add marker", surface.TopLeft,
			surface.Button{Name: ButtonToggle, Icon: "pi pi-thumbtack", Title: "Add marker"}),
		behavior: behavior,
	}
	c.self = c
	return c
}

func (c *AddMarker) Attached(s surface.Surface) {
	c.base.Attached(s)
	c.subscribe(surface.EventClick, c.onClick)
}

func (c *AddMarker) onClick(ev surface.Event) {
	b := c.behavior.Load()
	if b.Mode != domain.ModeAddMarker || b.OnAddMarker == nil {
		return
	}
	b.OnAddMarker(geo.LatLngToPoint(ev.LatLng))
}

func (c *AddMarker) Press(button string) {
	if button != ButtonToggle || !c.visible {
		return
	}
	b := c.behavior.Load()
	if c.lastMode == domain.ModeAddMarker {
		c.apply(func() { c.setActive(false) })
		if b.OnEnd != nil {
			b.OnEnd()
		}
		return
	}
	c.apply(func() { c.setActive(true) })
	if b.OnStart != nil {
		b.OnStart()
	}
}

func (c *AddMarker) Sync() {
	mode := c.behavior.Load().Mode
	c.apply(func() {
		c.setActive(mode == domain.ModeAddMarker)
		c.visible = shownIn(mode, domain.ModeAddMarker)
	})
	c.lastMode = mode
}

func (c *AddMarker) setActive(on bool) {
	if btn := c.button(ButtonToggle); btn != nil {
		btn.Active = on
	}
}
