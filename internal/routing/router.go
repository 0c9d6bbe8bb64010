// Package routing turns the vertices of a circuit into a path that follows
// real roads, using an external routing provider.
package routing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"circuitmap/internal/domain"
)

var ErrTooFewWaypoints = errors.New("route needs at least 2 waypoints")

// Provider computes a path through ordered waypoints.
type Provider interface {
	ComputeRoute(ctx context.Context, waypoints []domain.LatLng) ([]domain.LatLng, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, waypoints []domain.LatLng) ([]domain.LatLng, error)

func (f ProviderFunc) ComputeRoute(ctx context.Context, waypoints []domain.LatLng) ([]domain.LatLng, error) {
	return f(ctx, waypoints)
}

// Observer is told about every finished provider call.
type Observer interface {
	ObserveRoute(outcome string, elapsed time.Duration)
}

const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

type Router struct {
	provider Provider
	timeout  time.Duration
	observer Observer
	logger   *slog.Logger
	seq      atomic.Uint64
}

func NewRouter(provider Provider, timeout time.Duration, observer Observer, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		provider: provider,
		timeout:  timeout,
		observer: observer,
		logger:   logger.With("component", "routing"),
	}
}

// Request starts one provider call for waypoints and returns its promise.
// Calls are never retried and an earlier request in flight is left running,
// so results of overlapping requests may arrive in any order.
func (r *Router) Request(ctx context.Context, waypoints []domain.LatLng) *Promise {
	p := newPromise()
	seq := r.seq.Add(1)

	if len(waypoints) < 2 {
		p.resolve(Result{Seq: seq, Err: fmt.Errorf("got %d: %w", len(waypoints), ErrTooFewWaypoints)})
		return p
	}

	wps := make([]domain.LatLng, len(waypoints))
	copy(wps, waypoints)

	go func() {
		callCtx := ctx
		if r.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, r.timeout)
			defer cancel()
		}

		start := time.Now()
		path, err := r.provider.ComputeRoute(callCtx, wps)
		elapsed := time.Since(start)

		outcome := OutcomeOK
		if err != nil {
			outcome = OutcomeError
			err = fmt.Errorf("computing route: %w", err)
			r.logger.Warn("route request failed", "seq", seq, "waypoints", len(wps), "error", err)
		} else {
			r.logger.Debug("route computed", "seq", seq, "waypoints", len(wps), "points", len(path), "elapsed", elapsed)
		}
		if r.observer != nil {
			r.observer.ObserveRoute(outcome, elapsed)
		}

		p.resolve(Result{Seq: seq, Path: path, Err: err})
	}()

	return p
}

// LastSeq returns the sequence number of the most recent request.
func (r *Router) LastSeq() uint64 { return r.seq.Load() }
