package surface

import (
	"sync"

	"circuitmap/internal/domain"
)

// Command types sent to a remote surface.
const (
	CommandAddControl    = "addControl"
	CommandRemoveControl = "removeControl"
	CommandUpdateControl = "updateControl"
	CommandPanTo         = "panTo"
	CommandFlyTo         = "flyTo"
	CommandLocate        = "locate"
	CommandAlert         = "alert"
	CommandRender        = "render"
)

// Command is one instruction for the browser-side map widget.
type Command struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type CameraPayload struct {
	LatLng domain.LatLng `json:"latlng"`
	Zoom   float64       `json:"zoom,omitempty"`
}

type ControlRefPayload struct {
	ID string `json:"id"`
}

type AlertPayload struct {
	Message string `json:"message"`
}

// Sink receives the commands a Remote produces.
type Sink func(Command)

type subscription struct {
	id int
	h  Handler
}

// Remote is a Surface whose widget lives on the other end of a connection.
// Calls become Commands on the sink; inbound events are fed through Emit.
type Remote struct {
	registry *Registry
	sink     Sink

	mu     sync.RWMutex
	zoom   float64
	nextID int
	subs   map[EventType][]subscription
}

func NewRemote(registry *Registry, sink Sink, zoom float64) *Remote {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Remote{
		registry: registry,
		sink:     sink,
		zoom:     zoom,
		subs:     make(map[EventType][]subscription),
	}
}

func (r *Remote) Registry() *Registry { return r.registry }

func (r *Remote) send(cmd Command) {
	if r.sink != nil {
		r.sink(cmd)
	}
}

func (r *Remote) AddOverlayControl(c Control) {
	if r.registry.Add(c) {
		r.send(Command{Type: CommandAddControl, Payload: c.Element()})
	}
}

func (r *Remote) RemoveOverlayControl(c Control) {
	if r.registry.Remove(c) {
		r.send(Command{Type: CommandRemoveControl, Payload: ControlRefPayload{ID: c.ID()}})
	}
}

func (r *Remote) RefreshOverlayControl(c Control) {
	if _, ok := r.registry.Lookup(c.ID()); !ok {
		return
	}
	r.send(Command{Type: CommandUpdateControl, Payload: c.Element()})
}

func (r *Remote) PanTo(ll domain.LatLng) {
	r.send(Command{Type: CommandPanTo, Payload: CameraPayload{LatLng: ll}})
}

func (r *Remote) FlyTo(ll domain.LatLng, zoom float64) {
	r.send(Command{Type: CommandFlyTo, Payload: CameraPayload{LatLng: ll, Zoom: zoom}})
}

func (r *Remote) CurrentZoom() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.zoom
}

// SetZoom records the zoom level the widget last reported.
func (r *Remote) SetZoom(z float64) {
	r.mu.Lock()
	r.zoom = z
	r.mu.Unlock()
}

func (r *Remote) LocateUser() {
	r.send(Command{Type: CommandLocate})
}

func (r *Remote) Alert(message string) {
	r.send(Command{Type: CommandAlert, Payload: AlertPayload{Message: message}})
}

// Render pushes an arbitrary view snapshot to the widget.
func (r *Remote) Render(view any) {
	r.send(Command{Type: CommandRender, Payload: view})
}

func (r *Remote) On(t EventType, h Handler) func() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	id := r.nextID
	r.subs[t] = append(r.subs[t], subscription{id: id, h: h})

	var once sync.Once
	return func() {
		once.Do(func() { r.off(t, id) })
	}
}

func (r *Remote) off(t EventType, id int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	subs := r.subs[t]
	for i, s := range subs {
		if s.id == id {
			r.subs[t] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(r.subs[t]) == 0 {
		delete(r.subs, t)
	}
}

// Emit dispatches ev to its subscribers in subscription order.
func (r *Remote) Emit(ev Event) {
	r.mu.RLock()
	subs := make([]subscription, len(r.subs[ev.Type]))
	copy(subs, r.subs[ev.Type])
	r.mu.RUnlock()

	for _, s := range subs {
		s.h(ev)
	}
}

// SubscriberCount returns how many handlers listen for t.
func (r *Remote) SubscriberCount(t EventType) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs[t])
}

// Press activates a button on an attached control. It reports whether the
// control exists.
func (r *Remote) Press(controlID, button string) bool {
	c, ok := r.registry.Lookup(controlID)
	if !ok {
		return false
	}
	c.Press(button)
	return true
}
