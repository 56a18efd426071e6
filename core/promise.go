package core

import (
	"context"
	"sync"
)

// Promise is the deferred-completion primitive backing the request chain.
// A promise settles exactly once and always carries the owning resource as
// its value; rejection keeps the resource so chained consumers can read
// Status and LastResponse off it. Continuations attached to one promise run
// sequentially in attachment order once it settles.
type Promise struct {
	mu        sync.Mutex
	done      chan struct{}
	settled   bool
	resource  *Resource
	err       error
	callbacks []func()
}

func newPromise() *Promise {
	return &Promise{done: make(chan struct{})}
}

func resolvedPromise(resource *Resource) *Promise {
	p := newPromise()
	p.resolve(resource)
	return p
}

func (p *Promise) resolve(resource *Resource) {
	p.settle(resource, nil)
}

func (p *Promise) reject(resource *Resource, err error) {
	p.settle(resource, err)
}

func (p *Promise) settle(resource *Resource, err error) {
	p.mu.Lock()
	if p.settled {
		p.mu.Unlock()
		return
	}
	p.settled = true
	p.resource = resource
	p.err = err
	pending := p.callbacks
	p.callbacks = nil
	close(p.done)
	p.mu.Unlock()

	if len(pending) == 0 {
		return
	}
	go func() {
		for _, fn := range pending {
			fn()
		}
	}()
}

// onSettled attaches a continuation that runs on both branches. This is the
// primitive the queue uses to chain the next operation after the previous
// one settles, success or failure.
func (p *Promise) onSettled(fn func()) {
	if p == nil || fn == nil {
		return
	}
	p.mu.Lock()
	if !p.settled {
		p.callbacks = append(p.callbacks, fn)
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()
	go fn()
}

// Then attaches success and error continuations and returns a promise for
// their outcome. A nil onError leaves the rejection propagating; a non-nil
// onError that returns nil recovers the chain. The resolved value is always
// the owning resource.
func (p *Promise) Then(onSuccess, onError func(*Resource) error) *Promise {
	next := newPromise()
	p.onSettled(func() {
		resource, err := p.result()
		if err != nil {
			if onError == nil {
				next.reject(resource, err)
				return
			}
			if cbErr := onError(resource); cbErr != nil {
				next.reject(resource, cbErr)
				return
			}
			next.resolve(resource)
			return
		}
		if onSuccess != nil {
			if cbErr := onSuccess(resource); cbErr != nil {
				next.reject(resource, cbErr)
				return
			}
		}
		next.resolve(resource)
	})
	return next
}

// Catch attaches only an error continuation.
func (p *Promise) Catch(onError func(*Resource) error) *Promise {
	return p.Then(nil, onError)
}

// Finally runs fn on either branch, preserving the original outcome.
func (p *Promise) Finally(fn func(*Resource)) *Promise {
	next := newPromise()
	p.onSettled(func() {
		resource, err := p.result()
		if fn != nil {
			fn(resource)
		}
		if err != nil {
			next.reject(resource, err)
			return
		}
		next.resolve(resource)
	})
	return next
}

// Wait blocks until the promise settles or ctx is done.
func (p *Promise) Wait(ctx context.Context) (*Resource, error) {
	if p == nil {
		return nil, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case <-p.done:
		return p.result()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *Promise) result() (*Resource, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.resource, p.err
}
