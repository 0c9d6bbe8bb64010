package control

import (
	"circuitmap/internal/domain"
	"circuitmap/internal/surface"
)

// Control ids, shared with the browser widget.
const (
	IDAddMarker      = "add-marker-control"
	IDAddPolyline    = "add-polyline-control"
	IDRoutingMachine = "routing-machine-control"
	IDLocation       = "location-control"
	IDSidebarMenu    = "sidebar-menu-control"
	IDAddressSearch  = "address-search-control"
)

type base struct {
	self     surface.Control
	id       string
	label    string
	position surface.Position
	visible  bool
	buttons  []surface.Button

	surface surface.Surface
	unsubs  []func()
}

func newBase(id, label string, pos surface.Position, buttons ...surface.Button) base {
	return base{id: id, label: label, position: pos, visible: true, buttons: buttons}
}

func (b *base) ID() string { return b.id }

func (b *base) Element() surface.Element {
	buttons := make([]surface.Button, len(b.buttons))
	copy(buttons, b.buttons)
	return surface.Element{
		ID:       b.id,
		Label:    b.label,
		Position: b.position,
		Visible:  b.visible,
		Buttons:  buttons,
	}
}

func (b *base) Attached(s surface.Surface) {
	b.surface = s
}

func (b *base) Detached() {
	for _, off := range b.unsubs {
		off()
	}
	b.unsubs = nil
	b.surface = nil
}

func (b *base) subscribe(t surface.EventType, h surface.Handler) {
	if b.surface == nil {
		return
	}
	b.unsubs = append(b.unsubs, b.surface.On(t, h))
}

func (b *base) button(name string) *surface.Button {
	for i := range b.buttons {
		if b.buttons[i].Name == name {
			return &b.buttons[i]
		}
	}
	return nil
}

// apply runs mutate and publishes the element if it changed.
func (b *base) apply(mutate func()) {
	before := b.Element()
	mutate()
	if b.surface != nil && !before.Equal(b.Element()) {
		b.surface.RefreshOverlayControl(b.self)
	}
}

// shownIn reports whether a control owned by own is visible in mode.
func shownIn(mode, own domain.EditMode) bool {
	return mode == domain.ModeView || mode == own
}
