package core

import (
	"context"
	"time"
)

// Submit enqueues one transport operation. The dispatch override active at
// submit time is captured here, by value, so lifecycle hooks for this
// operation fire with the caller's context even when execution starts only
// after a prior operation settles. Operations on the same resource execute
// in strict FIFO order, one at a time; a prior failure never blocks a later
// operation because the chain link attaches to both branches of the tail.
//
// The returned promise resolves with the resource on success or
// cancellation, and rejects carrying the resource (status and last
// response populated) on failure.
func (r *Resource) Submit(ctx context.Context, config TransportRequest, onSuccess, onError func(*Resource)) *Promise {
	promise, _ := r.submit(ctx, config, onSuccess, onError)
	return promise
}

func (r *Resource) submit(ctx context.Context, config TransportRequest, onSuccess, onError func(*Resource)) (*Promise, *Request) {
	if r == nil {
		return resolvedPromise(nil), nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	request := newRequest(config)
	captured := r.dispatch.CurrentOverride()

	r.mu.Lock()
	r.pending = append(r.pending, request)
	prev := r.tail
	outcome := newPromise()
	r.tail = outcome
	r.mu.Unlock()

	run := func() {
		r.execute(ctx, request, captured, onSuccess, onError, outcome)
	}
	if prev == nil {
		go run()
		return outcome, request
	}
	prev.onSettled(run)
	return outcome, request
}

// Cancel marks every pending descriptor canceled and resets the chain
// tail, detaching future submissions from this operation set. In-flight
// transport calls are not aborted; their effects are suppressed when they
// resolve. Already-settled operations are unaffected.
func (r *Resource) Cancel() *Resource {
	if r == nil {
		return r
	}
	r.mu.Lock()
	for _, request := range r.pending {
		request.markCanceled()
	}
	r.tail = nil
	r.mu.Unlock()
	return r
}

// Then attaches continuations to the current chain tail and replaces the
// tail with their outcome, so callers keep chaining off the resource.
func (r *Resource) Then(onSuccess, onError func(*Resource) error) *Promise {
	if r == nil {
		return resolvedPromise(nil)
	}
	r.mu.Lock()
	tail := r.tail
	if tail == nil {
		tail = resolvedPromise(r)
	}
	next := tail.Then(onSuccess, onError)
	r.tail = next
	r.mu.Unlock()
	return next
}

// Finally attaches a both-branch continuation to the current chain tail.
func (r *Resource) Finally(fn func(*Resource)) *Promise {
	if r == nil {
		return resolvedPromise(nil)
	}
	r.mu.Lock()
	tail := r.tail
	if tail == nil {
		tail = resolvedPromise(r)
	}
	next := tail.Finally(fn)
	r.tail = next
	r.mu.Unlock()
	return next
}

func (r *Resource) execute(ctx context.Context, request *Request, captured *Override, onSuccess, onError func(*Resource), outcome *Promise) {
	if request.Canceled() {
		r.settleCanceled(ctx, request, r.now(), outcome)
		return
	}

	started := r.now()
	config := request.Config()

	if err := r.dispatch.DispatchWith(ctx, captured, HookBeforeRequest, config); err != nil {
		r.settleHookFailure(ctx, request, started, err, outcome)
		return
	}

	adapter, err := r.transportFor(config)
	if err != nil {
		r.settleError(ctx, request, captured, started, err, onError, outcome)
		return
	}

	response, err := adapter.Do(ctx, config)

	if request.Canceled() {
		r.settleCanceled(ctx, request, started, outcome)
		return
	}
	if err != nil {
		r.settleError(ctx, request, captured, started, err, onError, outcome)
		return
	}
	r.settleSuccess(ctx, request, captured, started, response, onSuccess, outcome)
}

func (r *Resource) settleSuccess(ctx context.Context, request *Request, captured *Override, started time.Time, response TransportResponse, onSuccess func(*Resource), outcome *Promise) {
	r.removePending(request)
	r.mu.Lock()
	r.status = StatusOK
	r.lastResponse = &response
	r.lastErr = nil
	r.mu.Unlock()

	r.record(ctx, request, started, StatusOK, response.StatusCode, nil)

	if hookErr := r.dispatch.DispatchWith(ctx, captured, HookAfterRequest, response); hookErr != nil {
		r.manager.observeRequest(ctx, started, r.name, request.ID(), StatusOK, hookErr)
		outcome.reject(r, r.manager.mapError(hookErr))
		return
	}
	if onSuccess != nil {
		onSuccess(r)
	}
	r.manager.observeRequest(ctx, started, r.name, request.ID(), StatusOK, nil)
	outcome.resolve(r)
}

func (r *Resource) settleError(ctx context.Context, request *Request, captured *Override, started time.Time, cause error, onError func(*Resource), outcome *Promise) {
	r.removePending(request)
	r.mu.Lock()
	r.status = StatusError
	r.lastResponse = nil
	r.lastErr = cause
	r.mu.Unlock()

	r.record(ctx, request, started, StatusError, 0, cause)

	if hookErr := r.dispatch.DispatchWith(ctx, captured, HookAfterRequestError, cause); hookErr != nil {
		r.manager.observeRequest(ctx, started, r.name, request.ID(), StatusError, hookErr)
		outcome.reject(r, r.manager.mapError(hookErr))
		return
	}
	if onError != nil {
		onError(r)
	}
	r.manager.observeRequest(ctx, started, r.name, request.ID(), StatusError, cause)
	outcome.reject(r, r.manager.mapError(cause))
}

// settleHookFailure handles a before-request listener error: the transport
// call never starts, no after hooks fire, no callbacks run, and the chain
// rejects with the listener's error.
func (r *Resource) settleHookFailure(ctx context.Context, request *Request, started time.Time, cause error, outcome *Promise) {
	r.removePending(request)
	r.mu.Lock()
	r.status = StatusError
	r.lastResponse = nil
	r.lastErr = cause
	r.mu.Unlock()

	r.record(ctx, request, started, StatusError, 0, cause)
	r.manager.observeRequest(ctx, started, r.name, request.ID(), StatusError, cause)
	outcome.reject(r, r.manager.mapError(cause))
}

func (r *Resource) settleCanceled(ctx context.Context, request *Request, started time.Time, outcome *Promise) {
	r.removePending(request)
	r.mu.Lock()
	r.status = StatusCanceled
	r.lastErr = nil
	r.mu.Unlock()

	r.record(ctx, request, started, StatusCanceled, 0, nil)
	r.manager.observeRequest(ctx, started, r.name, request.ID(), StatusCanceled, nil)
	outcome.resolve(r)
}

func (r *Resource) record(ctx context.Context, request *Request, started time.Time, status Status, statusCode int, cause error) {
	config := request.Config()
	entry := LedgerEntry{
		Resource:   r.name,
		RequestID:  request.ID(),
		Status:     status,
		Method:     config.Method,
		URL:        config.URL,
		StatusCode: statusCode,
		Duration:   r.now().Sub(started),
		OccurredAt: started,
		Metadata:   config.Metadata,
	}
	if cause != nil {
		entry.Error = cause.Error()
	}
	r.manager.recordLedger(ctx, entry)
}
