package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type stubAdapter struct {
	mu    sync.Mutex
	calls []TransportRequest
	do    func(ctx context.Context, req TransportRequest) (TransportResponse, error)
}

func (a *stubAdapter) Kind() string { return "stub" }

func (a *stubAdapter) Do(ctx context.Context, req TransportRequest) (TransportResponse, error) {
	a.mu.Lock()
	a.calls = append(a.calls, req)
	a.mu.Unlock()
	if a.do != nil {
		return a.do(ctx, req)
	}
	return TransportResponse{StatusCode: 200}, nil
}

func (a *stubAdapter) callCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.calls)
}

func (a *stubAdapter) callURLs() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.calls))
	for _, call := range a.calls {
		out = append(out, call.URL)
	}
	return out
}

func newTestManager(t *testing.T, options ...Option) *Manager {
	t.Helper()
	manager, err := NewManager(DefaultConfig(), options...)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return manager
}

func waitSettled(t *testing.T, promise *Promise) (*Resource, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resource, err := promise.Wait(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("promise did not settle in time")
	}
	return resource, err
}

func TestResource_SubmitResolvesWithResource(t *testing.T) {
	adapter := &stubAdapter{}
	manager := newTestManager(t, WithTransport(adapter))
	resource := manager.Resource("users")

	promise := resource.Submit(context.Background(), TransportRequest{Method: "GET", URL: "http://api.test/users"}, nil, nil)
	settled, err := waitSettled(t, promise)
	if err != nil {
		t.Fatalf("submit settled with error: %v", err)
	}
	if settled != resource {
		t.Fatalf("expected promise to resolve with the owning resource")
	}
	if got := resource.Status(); got != StatusOK {
		t.Fatalf("expected status ok, got %q", got)
	}
	if response := resource.LastResponse(); response == nil || response.StatusCode != 200 {
		t.Fatalf("expected last response with status 200, got %+v", response)
	}
	if resource.HasPending() {
		t.Fatalf("expected no pending requests after settle")
	}
}

func TestResource_OperationsRunInSubmissionOrder(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	adapter := &stubAdapter{
		do: func(_ context.Context, req TransportRequest) (TransportResponse, error) {
			if req.URL == "a" {
				started <- struct{}{}
				<-release
			}
			return TransportResponse{StatusCode: 200}, nil
		},
	}
	manager := newTestManager(t, WithTransport(adapter))
	resource := manager.Resource("users")

	first := resource.Submit(context.Background(), TransportRequest{URL: "a"}, nil, nil)
	<-started
	second := resource.Submit(context.Background(), TransportRequest{URL: "b"}, nil, nil)
	third := resource.Submit(context.Background(), TransportRequest{URL: "c"}, nil, nil)

	if got := resource.Pending(); got != 3 {
		t.Fatalf("expected 3 pending requests, got %d", got)
	}
	if got := adapter.callCount(); got != 1 {
		t.Fatalf("expected only the first request in flight, got %d calls", got)
	}

	close(release)
	for _, promise := range []*Promise{first, second, third} {
		if _, err := waitSettled(t, promise); err != nil {
			t.Fatalf("operation settled with error: %v", err)
		}
	}

	urls := adapter.callURLs()
	if len(urls) != 3 || urls[0] != "a" || urls[1] != "b" || urls[2] != "c" {
		t.Fatalf("expected strict submission order, got %v", urls)
	}
}

func TestResource_FailureDoesNotBlockNextOperation(t *testing.T) {
	adapter := &stubAdapter{
		do: func(_ context.Context, req TransportRequest) (TransportResponse, error) {
			if req.URL == "bad" {
				return TransportResponse{}, errors.New("connection refused")
			}
			return TransportResponse{StatusCode: 200}, nil
		},
	}
	manager := newTestManager(t, WithTransport(adapter))
	resource := manager.Resource("users")

	first := resource.Submit(context.Background(), TransportRequest{URL: "bad"}, nil, nil)
	second := resource.Submit(context.Background(), TransportRequest{URL: "good"}, nil, nil)

	settled, err := waitSettled(t, first)
	if err == nil {
		t.Fatalf("expected first operation to reject")
	}
	if settled != resource {
		t.Fatalf("expected rejection to carry the owning resource")
	}

	if _, err := waitSettled(t, second); err != nil {
		t.Fatalf("expected second operation to run after the failure: %v", err)
	}
	if got := resource.Status(); got != StatusOK {
		t.Fatalf("expected final status ok, got %q", got)
	}
	if got := adapter.callCount(); got != 2 {
		t.Fatalf("expected both operations to reach transport, got %d", got)
	}
}

func TestResource_LifecycleHooksFireAroundTransport(t *testing.T) {
	adapter := &stubAdapter{}
	manager := newTestManager(t, WithTransport(adapter))
	resource := manager.Resource("users")

	var mu sync.Mutex
	events := make([]string, 0, 2)
	resource.On(HookBeforeRequest, func(_ context.Context, event HookEvent) error {
		mu.Lock()
		defer mu.Unlock()
		if len(event.Args) != 1 {
			t.Errorf("expected request config argument, got %v", event.Args)
		}
		events = append(events, event.Name)
		return nil
	})
	resource.On(HookAfterRequest, func(_ context.Context, event HookEvent) error {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, event.Name)
		return nil
	})

	promise := resource.Submit(context.Background(), TransportRequest{URL: "http://api.test/users"}, nil, nil)
	if _, err := waitSettled(t, promise); err != nil {
		t.Fatalf("submit: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(events) != 2 || events[0] != HookBeforeRequest || events[1] != HookAfterRequest {
		t.Fatalf("unexpected hook order: %v", events)
	}
}

func TestResource_ErrorPathFiresErrorHook(t *testing.T) {
	cause := errors.New("boom")
	adapter := &stubAdapter{
		do: func(context.Context, TransportRequest) (TransportResponse, error) {
			return TransportResponse{}, cause
		},
	}
	manager := newTestManager(t, WithTransport(adapter))
	resource := manager.Resource("users")

	var mu sync.Mutex
	var hookCause error
	afterFired := false
	resource.On(HookAfterRequest, func(context.Context, HookEvent) error {
		mu.Lock()
		afterFired = true
		mu.Unlock()
		return nil
	})
	resource.On(HookAfterRequestError, func(_ context.Context, event HookEvent) error {
		mu.Lock()
		defer mu.Unlock()
		if len(event.Args) == 1 {
			hookCause, _ = event.Args[0].(error)
		}
		return nil
	})

	errorCallback := false
	promise := resource.Submit(context.Background(), TransportRequest{URL: "x"}, nil, func(*Resource) {
		errorCallback = true
	})
	if _, err := waitSettled(t, promise); err == nil {
		t.Fatalf("expected rejection")
	}

	mu.Lock()
	defer mu.Unlock()
	if afterFired {
		t.Fatalf("after-request must not fire on the error path")
	}
	if !errors.Is(hookCause, cause) {
		t.Fatalf("expected error hook to receive the transport cause, got %v", hookCause)
	}
	if !errorCallback {
		t.Fatalf("expected the error callback to run")
	}
	if got := resource.Status(); got != StatusError {
		t.Fatalf("expected status error, got %q", got)
	}
	if resource.LastResponse() != nil {
		t.Fatalf("expected no last response on the error path")
	}
}

func TestResource_BeforeRequestHookErrorSkipsTransport(t *testing.T) {
	adapter := &stubAdapter{}
	manager := newTestManager(t, WithTransport(adapter))
	resource := manager.Resource("users")

	resource.On(HookBeforeRequest, func(context.Context, HookEvent) error {
		return errors.New("rejected by listener")
	})
	errorHookFired := false
	resource.On(HookAfterRequestError, func(context.Context, HookEvent) error {
		errorHookFired = true
		return nil
	})

	successCalled := false
	errorCalled := false
	promise := resource.Submit(context.Background(), TransportRequest{URL: "x"},
		func(*Resource) { successCalled = true },
		func(*Resource) { errorCalled = true },
	)
	if _, err := waitSettled(t, promise); err == nil {
		t.Fatalf("expected rejection from before-request listener")
	}

	if adapter.callCount() != 0 {
		t.Fatalf("transport must not start after a before-request failure")
	}
	if errorHookFired {
		t.Fatalf("after hooks must not fire after a before-request failure")
	}
	if successCalled || errorCalled {
		t.Fatalf("callbacks must not run after a before-request failure")
	}
	if got := resource.Status(); got != StatusError {
		t.Fatalf("expected status error, got %q", got)
	}
}

func TestResource_CancelSuppressesQueuedAndInFlight(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	adapter := &stubAdapter{
		do: func(context.Context, TransportRequest) (TransportResponse, error) {
			started <- struct{}{}
			<-release
			return TransportResponse{StatusCode: 200}, nil
		},
	}
	manager := newTestManager(t, WithTransport(adapter))
	resource := manager.Resource("users")

	var mu sync.Mutex
	afterHooks := make([]string, 0, 2)
	for _, hook := range []string{HookAfterRequest, HookAfterRequestError} {
		name := hook
		resource.On(name, func(context.Context, HookEvent) error {
			mu.Lock()
			afterHooks = append(afterHooks, name)
			mu.Unlock()
			return nil
		})
	}
	callbackRuns := 0
	callback := func(*Resource) { callbackRuns++ }

	first := resource.Submit(context.Background(), TransportRequest{URL: "a"}, callback, callback)
	<-started
	second := resource.Submit(context.Background(), TransportRequest{URL: "b"}, callback, callback)

	resource.Cancel()
	close(release)

	if _, err := waitSettled(t, first); err != nil {
		t.Fatalf("canceled operation must resolve, got %v", err)
	}
	if _, err := waitSettled(t, second); err != nil {
		t.Fatalf("queued canceled operation must resolve, got %v", err)
	}

	if got := resource.Status(); got != StatusCanceled {
		t.Fatalf("expected status canceled, got %q", got)
	}
	if resource.LastError() != nil {
		t.Fatalf("cancellation must not record an error")
	}
	if got := adapter.callCount(); got != 1 {
		t.Fatalf("queued canceled operation must not reach transport, got %d calls", got)
	}
	mu.Lock()
	fired := append([]string(nil), afterHooks...)
	mu.Unlock()
	if len(fired) != 0 {
		t.Fatalf("canceled operations must fire no after hooks, got %v", fired)
	}
	if callbackRuns != 0 {
		t.Fatalf("canceled operations must invoke no callbacks, got %d runs", callbackRuns)
	}
	if resource.HasPending() {
		t.Fatalf("expected pending drained after cancellation")
	}
}

func TestResource_SubmitAfterCancelStartsFresh(t *testing.T) {
	adapter := &stubAdapter{}
	manager := newTestManager(t, WithTransport(adapter))
	resource := manager.Resource("users")

	resource.Cancel()
	promise := resource.Submit(context.Background(), TransportRequest{URL: "x"}, nil, nil)
	if _, err := waitSettled(t, promise); err != nil {
		t.Fatalf("submit after cancel: %v", err)
	}
	if got := resource.Status(); got != StatusOK {
		t.Fatalf("expected status ok, got %q", got)
	}
}

func TestResource_SubmitCapturesOverrideAtSubmitTime(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	adapter := &stubAdapter{
		do: func(_ context.Context, req TransportRequest) (TransportResponse, error) {
			if req.URL == "a" {
				started <- struct{}{}
				<-release
			}
			return TransportResponse{StatusCode: 200}, nil
		},
	}
	manager := newTestManager(t, WithTransport(adapter))
	resource := manager.Resource("users")

	var mu sync.Mutex
	overrideHooks := make([]string, 0, 2)
	override := OverrideFunc(func(_ context.Context, event HookEvent) error {
		mu.Lock()
		overrideHooks = append(overrideHooks, event.Name)
		mu.Unlock()
		return nil
	})

	first := resource.Submit(context.Background(), TransportRequest{URL: "a"}, nil, nil)
	<-started

	var second *Promise
	err := resource.WithOverride(override, func() error {
		second = resource.Submit(context.Background(), TransportRequest{URL: "b"}, nil, nil)
		return nil
	})
	if err != nil {
		t.Fatalf("with override: %v", err)
	}
	if resource.CurrentOverride() != nil {
		t.Fatalf("expected override uninstalled after body")
	}

	// The override is gone, but the second operation captured it at submit
	// time; its hooks must still fire through it once the first settles.
	close(release)
	if _, err := waitSettled(t, first); err != nil {
		t.Fatalf("first operation: %v", err)
	}
	if _, err := waitSettled(t, second); err != nil {
		t.Fatalf("second operation: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(overrideHooks) != 2 || overrideHooks[0] != HookBeforeRequest || overrideHooks[1] != HookAfterRequest {
		t.Fatalf("expected captured override to see both lifecycle hooks, got %v", overrideHooks)
	}
}

func TestResource_ThenAndFinallyChainOffTail(t *testing.T) {
	adapter := &stubAdapter{}
	manager := newTestManager(t, WithTransport(adapter))
	resource := manager.Resource("users")

	resource.Submit(context.Background(), TransportRequest{URL: "x"}, nil, nil)

	var mu sync.Mutex
	order := make([]string, 0, 2)
	chained := resource.Then(func(*Resource) error {
		mu.Lock()
		order = append(order, "then")
		mu.Unlock()
		return nil
	}, nil)
	final := resource.Finally(func(*Resource) {
		mu.Lock()
		order = append(order, "finally")
		mu.Unlock()
	})

	if _, err := waitSettled(t, chained); err != nil {
		t.Fatalf("then: %v", err)
	}
	if _, err := waitSettled(t, final); err != nil {
		t.Fatalf("finally: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 2 || order[0] != "then" || order[1] != "finally" {
		t.Fatalf("unexpected continuation order: %v", order)
	}
}

func TestResource_SettledOperationsAreRecorded(t *testing.T) {
	adapter := &stubAdapter{
		do: func(_ context.Context, req TransportRequest) (TransportResponse, error) {
			if req.URL == "bad" {
				return TransportResponse{}, errors.New("boom")
			}
			return TransportResponse{StatusCode: 201}, nil
		},
	}
	manager := newTestManager(t, WithTransport(adapter))
	resource := manager.Resource("users")

	ok := resource.Submit(context.Background(), TransportRequest{Method: "POST", URL: "good"}, nil, nil)
	if _, err := waitSettled(t, ok); err != nil {
		t.Fatalf("submit: %v", err)
	}
	bad := resource.Submit(context.Background(), TransportRequest{Method: "GET", URL: "bad"}, nil, nil)
	if _, err := waitSettled(t, bad); err == nil {
		t.Fatalf("expected rejection")
	}

	entries, err := manager.LedgerEntries(context.Background(), LedgerFilter{Resource: "users"})
	if err != nil {
		t.Fatalf("ledger entries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 ledger entries, got %d", len(entries))
	}
	if entries[0].Status != StatusError || entries[0].Error == "" {
		t.Fatalf("expected newest entry to be the failure, got %+v", entries[0])
	}
	if entries[1].Status != StatusOK || entries[1].StatusCode != 201 {
		t.Fatalf("expected oldest entry to be the success, got %+v", entries[1])
	}
}

func TestManager_SubmitRequestReturnsReceipt(t *testing.T) {
	adapter := &stubAdapter{}
	manager := newTestManager(t, WithTransport(adapter))

	receipt, err := manager.SubmitRequest(context.Background(), "users", TransportRequest{URL: "http://api.test/users"})
	if err != nil {
		t.Fatalf("submit request: %v", err)
	}
	if receipt.RequestID == "" {
		t.Fatalf("expected a request id on the receipt")
	}
	if receipt.Resource != "users" {
		t.Fatalf("expected resource name on the receipt, got %q", receipt.Resource)
	}
	if receipt.Status != StatusOK || receipt.StatusCode != 200 {
		t.Fatalf("unexpected receipt: %+v", receipt)
	}
}

func TestManager_CancelRequestsUnknownResource(t *testing.T) {
	manager := newTestManager(t, WithTransport(&stubAdapter{}))
	if err := manager.CancelRequests(context.Background(), "ghost"); err == nil {
		t.Fatalf("expected unknown resource error")
	}
}

func TestManager_ResourceIsCachedByNormalizedName(t *testing.T) {
	manager := newTestManager(t, WithTransport(&stubAdapter{}))
	first := manager.Resource("  Users ")
	second := manager.Resource("users")
	if first != second {
		t.Fatalf("expected same resource for normalized names")
	}
	if first.Name() != "users" {
		t.Fatalf("expected normalized name, got %q", first.Name())
	}
}

func TestManager_ResourceBindsRegisteredModelType(t *testing.T) {
	adapter := &stubAdapter{}
	manager := newTestManager(t, WithTransport(adapter))

	typeHookFired := false
	manager.Types().Define("users").On(HookBeforeRequest, func(context.Context, HookEvent) error {
		typeHookFired = true
		return nil
	})

	resource := manager.Resource("users")
	if err := resource.Dispatch(context.Background(), HookBeforeRequest); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if !typeHookFired {
		t.Fatalf("expected hook to bubble to the registered model type")
	}
}
