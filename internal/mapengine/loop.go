package mapengine

import (
	"context"
	"errors"
	"log/slog"
)

var ErrLoopStopped = errors.New("engine loop stopped")

// Loop runs engine work on a single goroutine. Everything touching an Engine
// goes through Post or Do.
type Loop struct {
	tasks   chan func()
	stopped chan struct{}
	logger  *slog.Logger
}

func NewLoop(buffer int, logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		tasks:   make(chan func(), buffer),
		stopped: make(chan struct{}),
		logger:  logger.With("component", "engine_loop"),
	}
}

func (l *Loop) Run(ctx context.Context) {
	defer close(l.stopped)
	for {
		select {
		case <-ctx.Done():
			l.logger.Debug("loop stopped", "pending", len(l.tasks))
			return
		case fn := <-l.tasks:
			fn()
		}
	}
}

// Post queues fn. It returns false once the loop has stopped.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.stopped:
		return false
	default:
	}
	select {
	case l.tasks <- fn:
		return true
	case <-l.stopped:
		return false
	}
}

// TryPost queues fn only if the queue has room.
func (l *Loop) TryPost(fn func()) bool {
	select {
	case <-l.stopped:
		return false
	default:
	}
	select {
	case l.tasks <- fn:
		return true
	default:
		return false
	}
}

// Do runs fn on the loop and waits for it to finish.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	if !l.Post(func() {
		defer close(done)
		fn()
	}) {
		return ErrLoopStopped
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.stopped:
		select {
		case <-done:
			return nil
		default:
			return ErrLoopStopped
		}
	}
}

// Stopped is closed when Run returns.
func (l *Loop) Stopped() <-chan struct{} { return l.stopped }
