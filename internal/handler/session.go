package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/coder/websocket"

	"circuitmap/internal/domain"
	"circuitmap/internal/host"
	"circuitmap/internal/hub"
	"circuitmap/internal/mapengine"
	"circuitmap/internal/observability"
	"circuitmap/internal/routing"
	"circuitmap/internal/selection"
	"circuitmap/internal/store"
	"circuitmap/internal/surface"
)

// Inbound message types.
const (
	MsgClick              = "click"
	MsgLocationFound      = "locationfound"
	MsgAddressSelected    = "addressselected"
	MsgZoom               = "zoom"
	MsgPress              = "press"
	MsgCircuitClick       = "circuitclick"
	MsgCircuitContextMenu = "circuitcontextmenu"
	MsgVertexContextMenu  = "vertexcontextmenu"
	MsgMarkerContextMenu  = "markercontextmenu"
	MsgMenuAction         = "menuaction"
	MsgMenuLeave          = "menuleave"
	MsgDragStart          = "dragstart"
	MsgDrag               = "drag"
	MsgDragEnd            = "dragend"
	MsgKeyDown            = "keydown"
	MsgOpenProject        = "openProject"
	MsgSaveCircuit        = "saveCircuit"
	MsgCloseDialog        = "closeDialog"
	MsgSidebar            = "sidebar"
	MsgFocusCircuit       = "focusCircuit"
	MsgPing               = "ping"
)

// Outbound message types besides the surface commands.
const (
	MsgState = "state"
	MsgError = "error"
	MsgPong  = "pong"
)

type WSMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// EventPayload carries the fields of every inbound message type; each type
// reads the ones it needs.
type EventPayload struct {
	LatLng    domain.LatLng      `json:"latlng"`
	X         float64            `json:"x"`
	Y         float64            `json:"y"`
	Zoom      float64            `json:"zoom"`
	ControlID string             `json:"controlId"`
	Button    string             `json:"button"`
	ID        int64              `json:"id"`
	CircuitID int64              `json:"circuitId"`
	Index     int                `json:"index"`
	Kind      selection.MenuKind `json:"kind"`
	Action    string             `json:"action"`
	Key       string             `json:"key"`
	Label     string             `json:"label"`
	Color     string             `json:"color"`
	Visible   bool               `json:"visible"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// SessionConfig holds what every map session shares.
type SessionConfig struct {
	Provider       routing.Provider
	RoutingTimeout time.Duration
	SendBuffer     int
	Center         domain.LatLng
	Zoom           float64
	// OnChange, if set, is called after a session writes to the store.
	OnChange func(projectID int64)
}

type SessionHandler struct {
	hub     *hub.Hub
	store   *store.Store
	cfg     SessionConfig
	stats   *Stats
	metrics *observability.Collector
	logger  *slog.Logger
}

func NewSessionHandler(h *hub.Hub, st *store.Store, cfg SessionConfig, stats *Stats, metrics *observability.Collector, logger *slog.Logger) *SessionHandler {
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 256
	}
	if stats == nil {
		stats = NewStats()
	}
	return &SessionHandler{
		hub:     h,
		store:   st,
		cfg:     cfg,
		stats:   stats,
		metrics: metrics,
		logger:  logger.With("component", "session_handler"),
	}
}

// mapSession is the per-connection engine stack. Everything except the
// fields set at construction is touched only on loop.
type mapSession struct {
	handler *SessionHandler
	client  *hub.Session
	remote  *surface.Remote
	loop    *mapengine.Loop
	engine  *mapengine.Engine
	host    *host.Host
	logger  *slog.Logger
}

func (h *SessionHandler) newMapSession(ctx context.Context, projectID int64) *mapSession {
	s := &mapSession{handler: h}
	s.client = hub.NewSession(projectID, h.cfg.SendBuffer, func() {
		if !s.loop.TryPost(func() {
			s.host.Reload()
			s.sendState()
		}) {
			s.logger.Warn("engine loop busy, dropping reload")
		}
	})
	s.logger = h.logger.With("session_id", s.client.ID)
	s.remote = surface.NewRemote(nil, func(cmd surface.Command) { s.send(cmd.Type, cmd) }, h.cfg.Zoom)
	s.loop = mapengine.NewLoop(64, s.logger)

	var observer routing.Observer
	if h.metrics != nil {
		observer = h.metrics
	}
	router := routing.NewRouter(h.cfg.Provider, h.cfg.RoutingTimeout, observer, s.logger)

	s.engine = mapengine.New(ctx, mapengine.Options{
		Surface: s.remote,
		Router:  router,
		Post:    s.loop.Post,
		Logger:  s.logger,
	})
	s.host = host.New(h.store, s.engine, func(pid int64) {
		h.hub.NotifyProjectChanged(pid, s.client.ID)
		if h.cfg.OnChange != nil {
			h.cfg.OnChange(pid)
		}
	}, s.logger)
	return s
}

func (h *SessionHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	var projectID int64
	if raw := r.URL.Query().Get("project"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid project parameter")
			return
		}
		if _, ok := h.store.Get(id); !ok {
			respondError(w, http.StatusNotFound, "project not found")
			return
		}
		projectID = id
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.logger.Error("websocket accept failed", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	s := h.newMapSession(ctx, projectID)
	loopCtx, stopLoop := context.WithCancel(ctx)
	go s.loop.Run(loopCtx)

	s.loop.Post(func() {
		if projectID != 0 {
			if err := s.host.OpenProject(projectID); err != nil {
				s.sendError(err)
			}
		} else {
			s.host.Render()
			s.remote.FlyTo(h.cfg.Center, h.cfg.Zoom)
		}
		s.sendState()
	})

	h.hub.Register(s.client)
	h.stats.IncWSConnections()
	s.logger.Info("session opened", "project_id", projectID)

	go h.writeLoop(ctx, conn, s.client)

	h.readLoop(ctx, conn, s)

	// Stop the engine before the hub closes the send buffer.
	closeCtx, cancelClose := context.WithTimeout(context.Background(), time.Second)
	s.loop.Do(closeCtx, s.engine.Close)
	cancelClose()
	stopLoop()
	<-s.loop.Stopped()
	h.hub.Unregister(s.client)
	h.stats.DecWSConnections()
	conn.Close(websocket.StatusNormalClosure, "")
	s.logger.Info("session closed")
}

func (h *SessionHandler) readLoop(ctx context.Context, conn *websocket.Conn, s *mapSession) {
	for {
		msgType, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure {
				s.logger.Debug("websocket read error", "error", err)
			}
			return
		}

		if msgType != websocket.MessageText {
			continue
		}

		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.logger.Debug("invalid message format", "error", err)
			continue
		}
		var p EventPayload
		if len(msg.Payload) > 0 {
			if err := json.Unmarshal(msg.Payload, &p); err != nil {
				s.logger.Debug("invalid payload", "type", msg.Type, "error", err)
				continue
			}
		}
		h.stats.IncWSMessagesIn()
		h.metrics.ObserveMessage("in", msg.Type)

		if msg.Type == MsgPing {
			s.send(MsgPong, WSMessage{Type: MsgPong})
			continue
		}
		if !s.loop.Post(func() { s.dispatch(msg.Type, p) }) {
			return
		}
	}
}

// dispatch runs one inbound message on the loop.
func (s *mapSession) dispatch(msgType string, p EventPayload) {
	e := s.engine
	switch msgType {
	case MsgClick:
		e.Click(p.LatLng, p.X, p.Y)
	case MsgLocationFound:
		e.LocationFound(p.LatLng)
	case MsgAddressSelected:
		e.AddressSelected(p.LatLng)
	case MsgZoom:
		s.remote.SetZoom(p.Zoom)
		return
	case MsgPress:
		e.PressControl(p.ControlID, p.Button)
	case MsgCircuitClick:
		e.CircuitClick(p.ID)
	case MsgCircuitContextMenu:
		e.CircuitContextMenu(p.ID, p.LatLng, p.X, p.Y)
	case MsgVertexContextMenu:
		e.VertexContextMenu(p.CircuitID, p.Index, p.X, p.Y)
	case MsgMarkerContextMenu:
		e.MarkerContextMenu(p.ID)
	case MsgMenuAction:
		e.MenuAction(p.Kind, p.Action)
	case MsgMenuLeave:
		e.MenuLeave(p.Kind)
	case MsgDragStart:
		e.DragStart(p.CircuitID, p.Index)
	case MsgDrag:
		e.Drag(p.LatLng)
	case MsgDragEnd:
		e.DragEnd()
	case MsgKeyDown:
		e.KeyDown(p.Key)
	case MsgOpenProject:
		if err := s.host.OpenProject(p.ID); err != nil {
			s.sendError(err)
			return
		}
		s.handler.hub.Move(s.client, p.ID)
	case MsgSaveCircuit:
		if _, err := s.host.SaveCircuit(p.Label, p.Color); err != nil {
			s.sendError(err)
		}
	case MsgCloseDialog:
		s.host.CloseDialog()
	case MsgSidebar:
		s.host.SetSidebarVisible(p.Visible)
	case MsgFocusCircuit:
		s.host.FocusCircuit(p.ID)
	default:
		s.logger.Debug("unknown message type", "type", msgType)
		return
	}
	s.sendState()
}

func (s *mapSession) sendState() {
	s.send(MsgState, struct {
		Type    string     `json:"type"`
		Payload host.State `json:"payload"`
	}{MsgState, s.host.State()})
}

func (s *mapSession) sendError(err error) {
	msg := err.Error()
	switch {
	case errors.Is(err, domain.ErrInvariantViolation):
		msg = domain.MessageCircuitMinPoints
	case errors.Is(err, host.ErrNoProject):
		msg = "Open a project first."
	}
	s.send(MsgError, struct {
		Type    string       `json:"type"`
		Payload errorPayload `json:"payload"`
	}{MsgError, errorPayload{Message: msg}})
}

func (s *mapSession) send(msgType string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("marshal outbound message", "type", msgType, "error", err)
		return
	}
	if !s.client.Deliver(data) {
		s.logger.Debug("send buffer full, dropping message", "type", msgType)
		return
	}
	s.handler.stats.IncWSMessagesOut()
	s.handler.metrics.ObserveMessage("out", msgType)
}

func (h *SessionHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *hub.Session) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case msg, ok := <-client.Send:
			if !ok {
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := conn.Write(writeCtx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}
