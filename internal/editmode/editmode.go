// Package editmode is the map's tool state machine. The map owns a narrow
// mode (VIEW, ADD_MARKER, ADD_POLYLINE) that it keeps consistent with the
// wider mode owned by the host.
package editmode

import (
	"fmt"
	"log/slog"

	"circuitmap/internal/domain"
)

// Notifier receives the host notifications a transition produces.
type Notifier interface {
	StartMapEdit()
	EndMapEdit()
	AddPolyline(domain.LineString)
}

type Controller struct {
	mode     domain.EditMode
	hostMode domain.EditMode
	draft    *domain.LineString
	notifier Notifier
	logger   *slog.Logger
}

func New(notifier Notifier, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		mode:     domain.ModeView,
		notifier: notifier,
		logger:   logger.With("component", "editmode"),
	}
}

func (c *Controller) Mode() domain.EditMode { return c.mode }

func (c *Controller) HostMode() domain.EditMode { return c.hostMode }

// SyncHostMode records the host's mode. When it changed to anything other
// than EDIT_MAP the map mode is forced back to VIEW and the draft dropped.
// It reports whether a reset happened.
func (c *Controller) SyncHostMode(host domain.EditMode) bool {
	if host == c.hostMode {
		return false
	}
	c.hostMode = host
	if host == domain.ModeEditMap || c.mode == domain.ModeView {
		return false
	}
	c.logger.Debug("host left map editing, resetting", "host_mode", host, "mode", c.mode)
	c.mode = domain.ModeView
	c.draft = nil
	return true
}

func (c *Controller) enter(next domain.EditMode) error {
	switch c.mode {
	case next:
		return nil
	case domain.ModeView:
	default:
		return fmt.Errorf("enter %s from %s: %w", next, c.mode, domain.ErrModeBusy)
	}
	c.mode = next
	c.draft = nil
	c.logger.Debug("mode changed", "mode", next)
	if c.notifier != nil {
		c.notifier.StartMapEdit()
	}
	return nil
}

func (c *Controller) leave(from domain.EditMode) bool {
	if c.mode != from {
		return false
	}
	c.mode = domain.ModeView
	c.draft = nil
	c.logger.Debug("mode changed", "mode", domain.ModeView)
	return true
}

// StartMarker activates the marker tool.
func (c *Controller) StartMarker() error {
	return c.enter(domain.ModeAddMarker)
}

// EndMarker deactivates the marker tool.
func (c *Controller) EndMarker() {
	if c.leave(domain.ModeAddMarker) && c.notifier != nil {
		c.notifier.EndMapEdit()
	}
}

// ToggleMarker flips the marker tool.
func (c *Controller) ToggleMarker() error {
	if c.mode == domain.ModeAddMarker {
		c.EndMarker()
		return nil
	}
	return c.StartMarker()
}

// StartPolyline activates the polyline tool with an empty draft.
func (c *Controller) StartPolyline() error {
	return c.enter(domain.ModeAddPolyline)
}

// Draw records the path drawn so far.
func (c *Controller) Draw(ls domain.LineString) {
	if c.mode != domain.ModeAddPolyline {
		return
	}
	d := ls.Clone()
	c.draft = &d
}

// Draft returns a copy of the current draft.
func (c *Controller) Draft() (domain.LineString, bool) {
	if c.draft == nil {
		return domain.LineString{}, false
	}
	return c.draft.Clone(), true
}

// Validate ends the polyline tool. A draft with at least one point is handed
// to the host; an empty one is treated as Cancel.
func (c *Controller) Validate(ls domain.LineString) {
	if ls.Len() == 0 {
		c.Cancel()
		return
	}
	if !c.leave(domain.ModeAddPolyline) {
		return
	}
	if c.notifier != nil {
		c.notifier.AddPolyline(ls.Clone())
	}
}

// Cancel ends the polyline tool and drops the draft.
func (c *Controller) Cancel() {
	if c.leave(domain.ModeAddPolyline) && c.notifier != nil {
		c.notifier.EndMapEdit()
	}
}
