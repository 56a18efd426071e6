package core

import (
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
)

// Request is one submitted operation: the transport configuration, a
// cancellation flag checked before the transport call starts and again
// after it settles, and the identity used to remove it from pending.
type Request struct {
	id       string
	config   TransportRequest
	canceled atomic.Bool
}

func newRequest(config TransportRequest) *Request {
	return &Request{
		id:     uuid.NewString(),
		config: config,
	}
}

func (r *Request) ID() string {
	if r == nil {
		return ""
	}
	return r.id
}

func (r *Request) Config() TransportRequest {
	if r == nil {
		return TransportRequest{}
	}
	return r.config
}

// Canceled reports the cooperative cancellation flag. Cancellation never
// aborts an in-flight transport call; it only suppresses the call's
// effects once it resolves.
func (r *Request) Canceled() bool {
	if r == nil {
		return false
	}
	return r.canceled.Load()
}

func (r *Request) markCanceled() {
	if r == nil {
		return
	}
	r.canceled.Store(true)
}

// SubmitReceipt is the synchronous result surface for command handlers
// that wait on a submitted operation.
type SubmitReceipt struct {
	RequestID  string
	Resource   string
	Status     Status
	StatusCode int
	Error      string
}

// ResourceStatus is a point-in-time snapshot used by the query surface.
type ResourceStatus struct {
	Resource     string
	Status       Status
	PendingCount int
	StatusCode   int
	LastError    string
}

func normalizeResourceName(name string) string {
	return strings.TrimSpace(strings.ToLower(name))
}
