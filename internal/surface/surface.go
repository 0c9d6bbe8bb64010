// Package surface describes the map rendering surface the editing engine
// drives: overlay control registration, camera moves, user location and the
// surface events the engine subscribes to.
package surface

import (
	"slices"

	"circuitmap/internal/domain"
)

type EventType string

const (
	EventClick           EventType = "click"
	EventLocationFound   EventType = "locationfound"
	EventAddressSelected EventType = "addressselected"
)

// Event is a surface event. X and Y are viewport pixel coordinates when the
// event comes from a pointer.
type Event struct {
	Type   EventType     `json:"type"`
	LatLng domain.LatLng `json:"latlng"`
	X      float64       `json:"x,omitempty"`
	Y      float64       `json:"y,omitempty"`
}

type Handler func(Event)

// Position is the corner of the surface a control is docked to.
type Position string

const (
	TopLeft  Position = "topleft"
	TopRight Position = "topright"
)

// Button is one clickable element of a control.
type Button struct {
	Name     string `json:"name"`
	Icon     string `json:"icon"`
	Title    string `json:"title"`
	Hidden   bool   `json:"hidden,omitempty"`
	Disabled bool   `json:"disabled,omitempty"`
	Active   bool   `json:"active,omitempty"`
}

// Element is the visual state of a control as the surface renders it.
type Element struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Position Position `json:"position"`
	Visible  bool     `json:"visible"`
	Buttons  []Button `json:"buttons"`
}

func (e Element) Equal(o Element) bool {
	return e.ID == o.ID && e.Label == o.Label && e.Position == o.Position &&
		e.Visible == o.Visible && slices.Equal(e.Buttons, o.Buttons)
}

// Control is an overlay widget attached to the surface.
type Control interface {
	ID() string
	Element() Element
	// Press is invoked by the surface when one of the control's buttons is
	// activated.
	Press(button string)
}

// Surface is the rendering-surface collaborator.
type Surface interface {
	AddOverlayControl(c Control)
	RemoveOverlayControl(c Control)
	// RefreshOverlayControl publishes a control's changed Element.
	RefreshOverlayControl(c Control)

	PanTo(ll domain.LatLng)
	FlyTo(ll domain.LatLng, zoom float64)
	CurrentZoom() float64
	LocateUser()

	// Alert shows a blocking message to the user.
	Alert(message string)

	// On subscribes h to events of type t until the returned func is called.
	On(t EventType, h Handler) (unsubscribe func())
}
