package control

import (
	"circuitmap/internal/domain"
	"circuitmap/internal/surface"
)

// RoutingBehavior binds the snap-to-roads button.
type RoutingBehavior struct {
	Mode          domain.EditMode
	OnCreateRoute func()
}

const ButtonRoute = "route"

// RoutingMachine asks for the selected circuit to follow the roads.
type RoutingMachine struct {
	base
	behavior *Cell[RoutingBehavior]
}

func NewRoutingMachine(behavior *Cell[RoutingBehavior]) Overlay {
	c := &RoutingMachine{
		base: newBase(IDRoutingMachine, "Make selection follow the paths", surface.TopLeft,
			surface.Button{Name: ButtonRoute, Icon: "pi pi-map", Title: "Make selection follow the paths"}),
		behavior: behavior,
	}
	c.self = c
	return c
}

func (c *RoutingMachine) Press(button string) {
	if button != ButtonRoute || !c.visible {
		return
	}
	if b := c.behavior.Load(); b.OnCreateRoute != nil {
		b.OnCreateRoute()
	}
}

func (c *RoutingMachine) Sync() {
	mode := c.behavior.Load().Mode
	c.apply(func() { c.visible = mode == domain.ModeView })
}

// LocationBehavior only carries the mode; the control talks to the surface
// directly.
type LocationBehavior struct {
	Mode domain.EditMode
}

const ButtonLocate = "locate"

// Location centers the map on the user.
type Location struct {
	base
	behavior *Cell[LocationBehavior]
}

func NewLocation(behavior *Cell[LocationBehavior]) Overlay {
	c := &Location{
		base: newBase(IDLocation, "Center on your position", surface.TopLeft,
			surface.Button{Name: ButtonLocate, Icon: "pi pi-map-marker", Title: "Center on your position"}),
		behavior: behavior,
	}
	c.self = c
	return c
}

func (c *Location) Attached(s surface.Surface) {
	c.base.Attached(s)
	c.subscribe(surface.EventLocationFound, func(ev surface.Event) {
		if c.surface != nil {
			c.surface.FlyTo(ev.LatLng, c.surface.CurrentZoom())
		}
	})
}

func (c *Location) Press(button string) {
	if button != ButtonLocate || !c.visible || c.surface == nil {
		return
	}
	c.surface.LocateUser()
}

func (c *Location) Sync() {
	mode := c.behavior.Load().Mode
	c.apply(func() { c.visible = mode == domain.ModeView })
}

// SidebarMenuBehavior binds the button reopening the sidebar.
type SidebarMenuBehavior struct {
	OnOpen func()
}

const ButtonOpen = "open"

// SidebarMenu is mounted while the sidebar is closed.
type SidebarMenu struct {
	base
	behavior *Cell[SidebarMenuBehavior]
}

func NewSidebarMenu(behavior *Cell[SidebarMenuBehavior]) Overlay {
	c := &SidebarMenu{
		base: newBase(IDSidebarMenu, "Open sidebar", surface.TopLeft,
			surface.Button{Name: ButtonOpen, Icon: "pi pi-bars", Title: "Open sidebar"}),
		behavior: behavior,
	}
	c.self = c
	return c
}

func (c *SidebarMenu) Press(button string) {
	if button != ButtonOpen {
		return
	}
	if b := c.behavior.Load(); b.OnOpen != nil {
		b.OnOpen()
	}
}

func (c *SidebarMenu) Sync() {}

// AddressSearchBehavior receives the location picked in the search widget.
type AddressSearchBehavior struct {
	OnLocationSelected func(domain.LatLng)
}

// AddressSearch hosts the geocoder widget. Only its selection event is used.
type AddressSearch struct {
	base
	behavior *Cell[AddressSearchBehavior]
}

func NewAddressSearch(behavior *Cell[AddressSearchBehavior]) Overlay {
	c := &AddressSearch{
		base:     newBase(IDAddressSearch, "Enter an address", surface.TopRight),
		behavior: behavior,
	}
	c.self = c
	return c
}

func (c *AddressSearch) Attached(s surface.Surface) {
	c.base.Attached(s)
	c.subscribe(surface.EventAddressSelected, func(ev surface.Event) {
		if b := c.behavior.Load(); b.OnLocationSelected != nil {
			b.OnLocationSelected(ev.LatLng)
		}
	})
}

func (c *AddressSearch) Press(string) {}

func (c *AddressSearch) Sync() {}
