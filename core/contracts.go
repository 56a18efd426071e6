package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

// Lifecycle hook names fired by the request queue. The set is open:
// extensions may dispatch arbitrary additional names.
const (
	HookBeforeRequest     = "before-request"
	HookAfterRequest      = "after-request"
	HookAfterRequestError = "after-request-error"
)

// Status reflects the most recently settled operation on a resource.
type Status string

const (
	StatusIdle     Status = ""
	StatusOK       Status = "ok"
	StatusError    Status = "error"
	StatusCanceled Status = "canceled"
)

// HookEvent is the payload delivered to hook listeners. Source is the
// object the event originated on; it is preserved across bubbling so a
// type-level listener can tell which resource fired.
type HookEvent struct {
	Name   string
	Source any
	Args   []any
}

// HookFunc is a hook listener. Returning an error aborts the dispatch and
// propagates to the dispatching caller; listeners are not isolated from
// each other.
type HookFunc func(ctx context.Context, event HookEvent) error

// Dispatchable is the capability bubbling targets must expose. A resource
// bubbles unhandled dispatches to its scope when the scope exposes this
// capability, otherwise to its model type.
type Dispatchable interface {
	DispatchHook(ctx context.Context, event HookEvent) error
}

// TransportRequest is the opaque operation configuration handed to the
// transport collaborator. The queue never inspects it beyond identity.
type TransportRequest struct {
	Method               string
	URL                  string
	Headers              map[string]string
	Query                map[string]string
	Body                 []byte
	Timeout              time.Duration
	MaxResponseBodyBytes int64
	Metadata             map[string]any
}

type TransportResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
	Metadata   map[string]any
}

// TransportAdapter performs one request. Adapters must not retry
// internally; the queue may hand the same configuration in repeatedly.
type TransportAdapter interface {
	Kind() string
	Do(ctx context.Context, req TransportRequest) (TransportResponse, error)
}

// TransportResolver picks the adapter for a request, allowing per-request
// kind selection when a registry of adapters is wired in.
type TransportResolver interface {
	Resolve(req TransportRequest) (TransportAdapter, error)
}

// RequestLedger records settled operations. Record failures are logged and
// never fail the operation that produced the entry.
type RequestLedger interface {
	Record(ctx context.Context, entry LedgerEntry) error
	List(ctx context.Context, filter LedgerFilter) ([]LedgerEntry, error)
}

type LedgerEntry struct {
	ID         string
	Resource   string
	RequestID  string
	Status     Status
	Method     string
	URL        string
	StatusCode int
	Error      string
	Duration   time.Duration
	OccurredAt time.Time
	Metadata   map[string]any
}

type LedgerFilter struct {
	Resource string
	Status   Status
	Limit    int
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

// ReplayMessage describes a queued background submission handed to the job
// queue bridge (adapters/gojob). Request parameters travel as an opaque map
// so the queue contract stays serialization-friendly.
type ReplayMessage struct {
	JobID          string
	Resource       string
	Parameters     map[string]any
	IdempotencyKey string
	DedupPolicy    string
}

type ReplayNackOptions struct {
	Delay      time.Duration
	Requeue    bool
	DeadLetter bool
	Reason     string
}

type ReplayDelivery interface {
	Message() *ReplayMessage
	Ack(ctx context.Context) error
	Nack(ctx context.Context, opts ReplayNackOptions) error
}

type ReplayEnqueuer interface {
	Enqueue(ctx context.Context, msg *ReplayMessage) error
}

type ReplayDequeuer interface {
	Dequeue(ctx context.Context) (ReplayDelivery, error)
}

type ReplayWorkerEvent struct {
	Message   *ReplayMessage
	Attempt   int
	Delay     time.Duration
	Err       error
	StartedAt time.Time
	Duration  time.Duration
}

type ReplayWorkerHook interface {
	OnStart(ctx context.Context, event ReplayWorkerEvent)
	OnSuccess(ctx context.Context, event ReplayWorkerEvent)
	OnFailure(ctx context.Context, event ReplayWorkerEvent)
	OnRetry(ctx context.Context, event ReplayWorkerEvent)
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger
