package hub

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Session is one connected map editor. Reload is called from the hub
// goroutine when another session changes the project this one shows, so it
// must not block.
type Session struct {
	ID     string
	Send   chan []byte
	Reload func()

	projectID atomic.Int64

	mu     sync.Mutex
	closed bool
}

func NewSession(projectID int64, bufferSize int, reload func()) *Session {
	s := &Session{
		ID:     uuid.NewString(),
		Send:   make(chan []byte, bufferSize),
		Reload: reload,
	}
	s.projectID.Store(projectID)
	return s
}

func (s *Session) ProjectID() int64 { return s.projectID.Load() }

// Deliver queues data for the writer without blocking. It reports false when
// the buffer is full or the session is closed.
func (s *Session) Deliver(data []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.Send <- data:
		return true
	default:
		return false
	}
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.Send)
	}
}

type change struct {
	projectID int64
	origin    string
}

// Hub tracks open sessions per project and fans project changes out to
// every other session on the same project.
type Hub struct {
	mu       sync.RWMutex
	sessions map[*Session]struct{}
	projects map[int64]map[*Session]struct{}

	register   chan *Session
	unregister chan *Session
	move       chan moveRequest
	changes    chan change
	done       chan struct{}

	onCount func(int)
	logger  *slog.Logger
}

type moveRequest struct {
	session   *Session
	projectID int64
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		sessions:   make(map[*Session]struct{}),
		projects:   make(map[int64]map[*Session]struct{}),
		register:   make(chan *Session, 16),
		unregister: make(chan *Session, 16),
		move:       make(chan moveRequest, 16),
		changes:    make(chan change, 256),
		done:       make(chan struct{}),
		logger:     logger.With("component", "hub"),
	}
}

// OnSessionCount registers fn to receive the session count after every
// register and unregister. Call before Run.
func (h *Hub) OnSessionCount(fn func(int)) {
	h.onCount = fn
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAllSessions()
			return

		case s := <-h.register:
			h.addSession(s)

		case s := <-h.unregister:
			h.removeSession(s)

		case m := <-h.move:
			h.moveSession(m.session, m.projectID)

		case c := <-h.changes:
			h.fanout(c)
		}
	}
}

func (h *Hub) Register(s *Session) {
	select {
	case h.register <- s:
	case <-h.done:
	}
}

func (h *Hub) Unregister(s *Session) {
	select {
	case h.unregister <- s:
	case <-h.done:
	}
}

// Move switches s to another project.
func (h *Hub) Move(s *Session, projectID int64) {
	select {
	case h.move <- moveRequest{session: s, projectID: projectID}:
	case <-h.done:
	}
}

// NotifyProjectChanged asks every session on projectID except origin to
// reload. origin may be empty.
func (h *Hub) NotifyProjectChanged(projectID int64, origin string) {
	select {
	case h.changes <- change{projectID: projectID, origin: origin}:
	default:
		h.logger.Warn("change channel full, dropping notification", "project_id", projectID)
	}
}

func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// ProjectSessions returns how many sessions show projectID.
func (h *Hub) ProjectSessions(projectID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.projects[projectID])
}

func (h *Hub) addSession(s *Session) {
	h.mu.Lock()
	h.sessions[s] = struct{}{}
	h.join(s, s.ProjectID())
	n := len(h.sessions)
	h.mu.Unlock()

	h.logger.Debug("session registered", "session_id", s.ID, "project_id", s.ProjectID(), "total", n)
	h.reportCount(n)
}

func (h *Hub) join(s *Session, projectID int64) {
	if h.projects[projectID] == nil {
		h.projects[projectID] = make(map[*Session]struct{})
	}
	h.projects[projectID][s] = struct{}{}
}

func (h *Hub) leave(s *Session, projectID int64) {
	if set := h.projects[projectID]; set != nil {
		delete(set, s)
		if len(set) == 0 {
			delete(h.projects, projectID)
		}
	}
}

func (h *Hub) moveSession(s *Session, projectID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.sessions[s]; !ok {
		return
	}
	h.leave(s, s.ProjectID())
	s.projectID.Store(projectID)
	h.join(s, projectID)
}

func (h *Hub) fanout(c change) {
	h.mu.RLock()
	targets := make([]*Session, 0, len(h.projects[c.projectID]))
	for s := range h.projects[c.projectID] {
		if s.ID != c.origin {
			targets = append(targets, s)
		}
	}
	h.mu.RUnlock()

	for _, s := range targets {
		if s.Reload != nil {
			s.Reload()
		}
	}
	if len(targets) > 0 {
		h.logger.Debug("project change fanned out", "project_id", c.projectID, "sessions", len(targets))
	}
}

func (h *Hub) removeSession(s *Session) {
	h.mu.Lock()
	if _, ok := h.sessions[s]; !ok {
		h.mu.Unlock()
		return
	}
	h.leave(s, s.ProjectID())
	delete(h.sessions, s)
	s.close()
	n := len(h.sessions)
	h.mu.Unlock()

	h.logger.Debug("session unregistered", "session_id", s.ID, "total", n)
	h.reportCount(n)
}

func (h *Hub) reportCount(n int) {
	if h.onCount != nil {
		h.onCount(n)
	}
}

func (h *Hub) closeAllSessions() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for s := range h.sessions {
		s.close()
	}
	h.sessions = make(map[*Session]struct{})
	h.projects = make(map[int64]map[*Session]struct{})
}
