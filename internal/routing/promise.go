package routing

import (
	"context"
	"sync"

	"circuitmap/internal/domain"
)

// Result is the outcome of one route request. Seq orders requests made
// through the same Router.
type Result struct {
	Seq  uint64
	Path []domain.LatLng
	Err  error
}

// Promise is a route request in flight. It resolves exactly once.
type Promise struct {
	done chan struct{}

	mu        sync.Mutex
	resolved  bool
	result    Result
	callbacks []func(Result)
}

func newPromise() *Promise {
	return &Promise{done: make(chan struct{})}
}

// Done is closed after the promise resolved and its callbacks ran.
func (p *Promise) Done() <-chan struct{} { return p.done }

// Result returns the outcome once the promise resolved.
func (p *Promise) Result() (Result, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.result, p.resolved
}

// Await blocks until the promise resolves or ctx ends.
func (p *Promise) Await(ctx context.Context) (Result, error) {
	select {
	case <-p.done:
		r, _ := p.Result()
		return r, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Then registers fn to run with the result. On an already resolved promise
// fn runs immediately on the caller's goroutine.
func (p *Promise) Then(fn func(Result)) {
	p.mu.Lock()
	if !p.resolved {
		p.callbacks = append(p.callbacks, fn)
		p.mu.Unlock()
		return
	}
	r := p.result
	p.mu.Unlock()
	fn(r)
}

func (p *Promise) resolve(r Result) {
	p.mu.Lock()
	if p.resolved {
		p.mu.Unlock()
		return
	}
	p.resolved = true
	p.result = r
	callbacks := p.callbacks
	p.callbacks = nil
	p.mu.Unlock()

	for _, fn := range callbacks {
		fn(r)
	}
	close(p.done)
}
