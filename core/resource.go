package core

import (
	"context"
	"sync"
	"time"
)

// Resource is one lifecycle object: a hook dispatcher plus the serialized
// request queue. Resources are created through a Manager, which supplies
// the transport, logger, metrics, and ledger collaborators.
type Resource struct {
	name      string
	manager   *Manager
	dispatch  *Dispatcher
	transport TransportAdapter

	mu           sync.Mutex
	pending      []*Request
	tail         *Promise
	status       Status
	lastResponse *TransportResponse
	lastErr      error
}

func (r *Resource) Name() string {
	if r == nil {
		return ""
	}
	return r.name
}

// On registers a permanent instance listener for the named hook.
func (r *Resource) On(hook string, fn HookFunc) *Resource {
	if r == nil {
		return r
	}
	r.dispatch.On(hook, fn)
	return r
}

// BindScope wires the parent back-reference used for hook bubbling, e.g.
// the collection a record was built from.
func (r *Resource) BindScope(scope Dispatchable) *Resource {
	if r == nil {
		return r
	}
	r.dispatch.BindScope(scope)
	return r
}

// BindType wires the type-level fallback used when no scope participates.
func (r *Resource) BindType(typeRef Dispatchable) *Resource {
	if r == nil {
		return r
	}
	r.dispatch.BindType(typeRef)
	return r
}

// Dispatch fires a named hook on this resource with the active override.
func (r *Resource) Dispatch(ctx context.Context, hook string, args ...any) error {
	if r == nil {
		return nil
	}
	return r.dispatch.Dispatch(ctx, hook, args...)
}

// DispatchHook implements Dispatchable so resources can serve as bubbling
// targets for other resources.
func (r *Resource) DispatchHook(ctx context.Context, event HookEvent) error {
	if r == nil {
		return nil
	}
	return r.dispatch.DispatchHook(ctx, event)
}

// WithOverride installs a call-scoped hook override around body; see
// Dispatcher.WithOverride.
func (r *Resource) WithOverride(override *Override, body func() error) error {
	if r == nil {
		return nil
	}
	return r.dispatch.WithOverride(override, body)
}

// CurrentOverride captures the active override for later re-application.
func (r *Resource) CurrentOverride() *Override {
	if r == nil {
		return nil
	}
	return r.dispatch.CurrentOverride()
}

// Status reflects the most recently settled operation.
func (r *Resource) Status() Status {
	if r == nil {
		return StatusIdle
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// LastResponse returns the response of the most recent settled operation,
// or nil when the last settlement carried no response.
func (r *Resource) LastResponse() *TransportResponse {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastResponse
}

// LastError returns the error value of the most recent settled operation.
func (r *Resource) LastError() error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

// Pending returns the number of in-flight request descriptors. Zero means
// the resource is idle.
func (r *Resource) Pending() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

func (r *Resource) HasPending() bool {
	return r.Pending() > 0
}

// Snapshot returns the point-in-time status used by the query surface.
func (r *Resource) Snapshot() ResourceStatus {
	if r == nil {
		return ResourceStatus{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := ResourceStatus{
		Resource:     r.name,
		Status:       r.status,
		PendingCount: len(r.pending),
	}
	if r.lastResponse != nil {
		out.StatusCode = r.lastResponse.StatusCode
	}
	if r.lastErr != nil {
		out.LastError = r.lastErr.Error()
	}
	return out
}

func (r *Resource) transportFor(req TransportRequest) (TransportAdapter, error) {
	if r.transport != nil {
		return r.transport, nil
	}
	return r.manager.resolveTransport(req)
}

func (r *Resource) now() time.Time {
	if r == nil || r.manager == nil {
		return time.Now().UTC()
	}
	return r.manager.now()
}

func (r *Resource) removePending(request *Request) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, candidate := range r.pending {
		if candidate == request {
			r.pending = append(r.pending[:i], r.pending[i+1:]...)
			break
		}
	}
	if len(r.pending) == 0 {
		r.pending = nil
	}
}

var _ Dispatchable = (*Resource)(nil)
