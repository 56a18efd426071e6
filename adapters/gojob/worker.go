package gojob

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vanchelo/restmod/adapters/gologger"
	"github.com/vanchelo/restmod/core"

	glog "github.com/goliatone/go-logger/glog"
)

// Parameter keys used by the replay and prune job payloads. Values travel
// as an opaque map, so decoding tolerates the numeric widening a JSON
// round trip introduces.
const (
	paramMethod       = "method"
	paramURL          = "url"
	paramHeaders      = "headers"
	paramQuery        = "query"
	paramBody         = "body"
	paramTimeoutMS    = "timeout_ms"
	paramMaxBodyBytes = "max_body_bytes"
	paramTTLSeconds   = "ttl_seconds"
	paramRowCap       = "row_cap"
)

// RequestSubmitter replays a queued request through the lifecycle manager.
type RequestSubmitter interface {
	SubmitRequest(ctx context.Context, resourceName string, config core.TransportRequest) (core.SubmitReceipt, error)
}

// LedgerPruner trims settled-operation storage by TTL and row cap.
type LedgerPruner interface {
	Prune(ctx context.Context, ttl time.Duration, rowCap int) (int, error)
}

// ReplayWorker drains the replay queue and dispatches each delivery to the
// lifecycle manager or the ledger pruner by job id. Successful deliveries
// are acked; failures are reported through the hook and nacked for requeue
// under the worker's retry policy.
type ReplayWorker struct {
	dequeuer  core.ReplayDequeuer
	submitter RequestSubmitter
	pruner    LedgerPruner
	hook      core.ReplayWorkerHook
	logger    glog.Logger
	policy    RetryPolicy
	now       func() time.Time
}

type WorkerOption func(*ReplayWorker)

func WithWorkerHook(hook core.ReplayWorkerHook) WorkerOption {
	return func(w *ReplayWorker) {
		w.hook = hook
	}
}

// WithWorkerLogging resolves the worker's logger on the replay channel with
// the usual provider > logger > nop precedence.
func WithWorkerLogging(provider glog.LoggerProvider, logger glog.Logger) WorkerOption {
	return func(w *ReplayWorker) {
		resolved, _, _ := gologger.ReplayLogging(provider, logger)
		w.logger = resolved
	}
}

func WithWorkerRetryPolicy(policy RetryPolicy) WorkerOption {
	return func(w *ReplayWorker) {
		w.policy = policy
	}
}

func NewReplayWorker(dequeuer core.ReplayDequeuer, submitter RequestSubmitter, pruner LedgerPruner, opts ...WorkerOption) (*ReplayWorker, error) {
	if dequeuer == nil {
		return nil, fmt.Errorf("gojob: replay dequeuer is required")
	}
	if submitter == nil {
		return nil, fmt.Errorf("gojob: request submitter is required")
	}
	if pruner == nil {
		return nil, fmt.Errorf("gojob: ledger pruner is required")
	}
	defaultLogger, _, _ := gologger.ReplayLogging(nil, nil)
	worker := &ReplayWorker{
		dequeuer:  dequeuer,
		submitter: submitter,
		pruner:    pruner,
		logger:    defaultLogger,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(worker)
		}
	}
	return worker, nil
}

// Run drains the queue until the context is canceled, the dequeuer fails,
// or it reports an empty queue with a nil delivery.
func (w *ReplayWorker) Run(ctx context.Context) error {
	if w == nil {
		return fmt.Errorf("gojob: replay worker is not configured")
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		delivery, err := w.dequeuer.Dequeue(ctx)
		if err != nil {
			return err
		}
		if delivery == nil {
			return nil
		}
		w.handle(ctx, delivery)
	}
}

func (w *ReplayWorker) handle(ctx context.Context, delivery core.ReplayDelivery) {
	msg := delivery.Message()
	if msg == nil {
		w.logger.Error("replay delivery carried no message")
		w.nack(ctx, delivery, core.ReplayNackOptions{
			DeadLetter: true,
			Reason:     "empty delivery",
		})
		return
	}

	startedAt := w.now()
	event := core.ReplayWorkerEvent{Message: msg, StartedAt: startedAt}
	if w.hook != nil {
		w.hook.OnStart(ctx, event)
	}

	err := w.dispatch(ctx, msg)
	event.Duration = w.now().Sub(startedAt)
	event.Err = err

	if err == nil {
		if ackErr := delivery.Ack(ctx); ackErr != nil {
			w.logger.Error("ack replay delivery", "job_id", msg.JobID, "error", ackErr)
		}
		if w.hook != nil {
			w.hook.OnSuccess(ctx, event)
		}
		return
	}

	w.logger.Error("replay job failed", "job_id", msg.JobID, "resource", msg.Resource, "error", err)
	if w.hook != nil {
		w.hook.OnFailure(ctx, event)
	}
	w.nack(ctx, delivery, core.ReplayNackOptions{
		Requeue: true,
		Reason:  err.Error(),
	})
}

func (w *ReplayWorker) nack(ctx context.Context, delivery core.ReplayDelivery, opts core.ReplayNackOptions) {
	if err := delivery.Nack(ctx, w.policy.NormalizeAttempt(opts, 0)); err != nil {
		w.logger.Error("nack replay delivery", "reason", opts.Reason, "error", err)
	}
}

func (w *ReplayWorker) dispatch(ctx context.Context, msg *core.ReplayMessage) error {
	switch msg.JobID {
	case JobIDReplayRequest:
		resource := strings.TrimSpace(msg.Resource)
		if resource == "" {
			return fmt.Errorf("gojob: replay request needs a resource")
		}
		config := requestFromParameters(msg.Parameters)
		_, err := w.submitter.SubmitRequest(ctx, resource, config)
		return err
	case JobIDPruneLedger:
		ttl := time.Duration(intParameter(msg.Parameters, paramTTLSeconds)) * time.Second
		rowCap := int(intParameter(msg.Parameters, paramRowCap))
		pruned, err := w.pruner.Prune(ctx, ttl, rowCap)
		if err != nil {
			return err
		}
		w.logger.Info("pruned request ledger", "removed", pruned, "ttl", ttl, "row_cap", rowCap)
		return nil
	default:
		return fmt.Errorf("gojob: unknown job id %q", msg.JobID)
	}
}

// NewReplayRequestMessage packs a transport request into a replay job
// payload for the queue.
func NewReplayRequestMessage(resource string, config core.TransportRequest) *core.ReplayMessage {
	parameters := map[string]any{}
	if method := strings.TrimSpace(config.Method); method != "" {
		parameters[paramMethod] = method
	}
	if url := strings.TrimSpace(config.URL); url != "" {
		parameters[paramURL] = url
	}
	if len(config.Headers) > 0 {
		parameters[paramHeaders] = copyStringMap(config.Headers)
	}
	if len(config.Query) > 0 {
		parameters[paramQuery] = copyStringMap(config.Query)
	}
	if len(config.Body) > 0 {
		parameters[paramBody] = string(config.Body)
	}
	if config.Timeout > 0 {
		parameters[paramTimeoutMS] = config.Timeout.Milliseconds()
	}
	if config.MaxResponseBodyBytes > 0 {
		parameters[paramMaxBodyBytes] = config.MaxResponseBodyBytes
	}
	return &core.ReplayMessage{
		JobID:      JobIDReplayRequest,
		Resource:   strings.TrimSpace(resource),
		Parameters: parameters,
	}
}

// NewPruneMessage builds a ledger prune job payload. Zero values defer to
// the pruner's own defaults.
func NewPruneMessage(ttl time.Duration, rowCap int) *core.ReplayMessage {
	parameters := map[string]any{}
	if ttl > 0 {
		parameters[paramTTLSeconds] = int64(ttl / time.Second)
	}
	if rowCap > 0 {
		parameters[paramRowCap] = rowCap
	}
	return &core.ReplayMessage{
		JobID:      JobIDPruneLedger,
		Parameters: parameters,
	}
}

var (
	_ RequestSubmitter = (*core.Manager)(nil)
	_ LedgerPruner     = (*core.MemoryRequestLedger)(nil)
)

func requestFromParameters(parameters map[string]any) core.TransportRequest {
	return core.TransportRequest{
		Method:               stringParameter(parameters, paramMethod),
		URL:                  stringParameter(parameters, paramURL),
		Headers:              stringMapParameter(parameters, paramHeaders),
		Query:                stringMapParameter(parameters, paramQuery),
		Body:                 bodyParameter(parameters),
		Timeout:              time.Duration(intParameter(parameters, paramTimeoutMS)) * time.Millisecond,
		MaxResponseBodyBytes: intParameter(parameters, paramMaxBodyBytes),
	}
}

func stringParameter(parameters map[string]any, key string) string {
	raw, ok := parameters[key]
	if !ok || raw == nil {
		return ""
	}
	if value, ok := raw.(string); ok {
		return value
	}
	return fmt.Sprint(raw)
}

func bodyParameter(parameters map[string]any) []byte {
	raw, ok := parameters[paramBody]
	if !ok || raw == nil {
		return nil
	}
	switch value := raw.(type) {
	case []byte:
		return append([]byte(nil), value...)
	case string:
		if value == "" {
			return nil
		}
		return []byte(value)
	default:
		return []byte(fmt.Sprint(value))
	}
}

func intParameter(parameters map[string]any, key string) int64 {
	raw, ok := parameters[key]
	if !ok || raw == nil {
		return 0
	}
	switch value := raw.(type) {
	case int:
		return int64(value)
	case int32:
		return int64(value)
	case int64:
		return value
	case float32:
		return int64(value)
	case float64:
		return int64(value)
	default:
		return 0
	}
}

func stringMapParameter(parameters map[string]any, key string) map[string]string {
	raw, ok := parameters[key]
	if !ok || raw == nil {
		return nil
	}
	switch value := raw.(type) {
	case map[string]string:
		return copyStringMap(value)
	case map[string]any:
		out := make(map[string]string, len(value))
		for k, v := range value {
			out[k] = fmt.Sprint(v)
		}
		return out
	default:
		return nil
	}
}

func copyStringMap(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
