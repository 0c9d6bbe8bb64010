package control

import (
	"circuitmap/internal/domain"
	"circuitmap/internal/geo"
	"circuitmap/internal/surface"
)

// PolylineBehavior is what the add-polyline control does.
type PolylineBehavior struct {
	Mode       domain.EditMode
	OnStart    func()
	OnDraw     func(domain.LineString)
	OnValidate func(domain.LineString)
	OnCancel   func()
}

const (
	ButtonStart    = "start"
	ButtonValidate = "validate"
	ButtonCancel   = "cancel"
)

// AddPolyline accumulates clicked points into a draft path.
type AddPolyline struct {
	base
	behavior *Cell[PolylineBehavior]
	lastMode domain.EditMode
	draft    *domain.LineString
}

func NewAddPolyline(behavior *Cell[PolylineBehavior]) Overlay {
	c := &AddPolyline{
		base: newBase(IDAddPolyline, "Draw shape", surface.TopLeft,
			surface.Button{Name: ButtonStart, Icon: "pi pi-pen-to-square", Title: "Draw shape"},
			surface.Button{Name: ButtonValidate, Icon: "pi pi-check", Title: "Validate shape", Hidden: true},
			surface.Button{Name: ButtonCancel, Icon: "pi pi-times", Title: "Cancel shape", Hidden: true},
		),
		behavior: behavior,
	}
	c.self = c
	return c
}

func (c *AddPolyline) Attached(s surface.Surface) {
	c.base.Attached(s)
	c.subscribe(surface.EventClick, c.onClick)
}

// Draft returns a copy of the path drawn so far.
func (c *AddPolyline) Draft() (domain.LineString, bool) {
	if c.draft == nil {
		return domain.LineString{}, false
	}
	return c.draft.Clone(), true
}

func (c *AddPolyline) onClick(ev surface.Event) {
	if c.lastMode != domain.ModeAddPolyline {
		return
	}
	var next domain.LineString
	if c.draft == nil {
		next = geo.LatLngsToLineString([]domain.LatLng{ev.LatLng})
	} else {
		next = geo.AppendLatLngs(*c.draft, ev.LatLng)
	}
	c.draft = &next

	if b := c.behavior.Load(); b.OnDraw != nil {
		b.OnDraw(next.Clone())
	}
}

func (c *AddPolyline) Press(button string) {
	if !c.visible {
		return
	}
	b := c.behavior.Load()

	switch button {
	case ButtonStart:
		if c.lastMode == domain.ModeAddPolyline {
			return
		}
		c.apply(func() { c.setDrawing(true) })
		if b.OnStart != nil {
			b.OnStart()
		}

	case ButtonValidate:
		if c.lastMode != domain.ModeAddPolyline {
			return
		}
		draft := c.draft
		c.draft = nil
		c.apply(func() { c.setDrawing(false) })
		if draft != nil && draft.Len() > 0 {
			if b.OnValidate != nil {
				b.OnValidate(draft.Clone())
			}
		} else if b.OnCancel != nil {
			b.OnCancel()
		}

	case ButtonCancel:
		if c.lastMode != domain.ModeAddPolyline {
			return
		}
		c.draft = nil
		c.apply(func() { c.setDrawing(false) })
		if b.OnCancel != nil {
			b.OnCancel()
		}
	}
}

func (c *AddPolyline) Sync() {
	mode := c.behavior.Load().Mode
	entering := mode == domain.ModeAddPolyline && c.lastMode != domain.ModeAddPolyline
	leaving := c.lastMode == domain.ModeAddPolyline && mode != domain.ModeAddPolyline
	if entering || leaving {
		c.draft = nil
	}
	c.apply(func() {
		c.setDrawing(mode == domain.ModeAddPolyline)
		c.visible = shownIn(mode, domain.ModeAddPolyline)
	})
	c.lastMode = mode
}

func (c *AddPolyline) setDrawing(on bool) {
	if btn := c.button(ButtonStart); btn != nil {
		btn.Disabled = on
	}
	if btn := c.button(ButtonValidate); btn != nil {
		btn.Hidden = !on
	}
	if btn := c.button(ButtonCancel); btn != nil {
		btn.Hidden = !on
	}
}
