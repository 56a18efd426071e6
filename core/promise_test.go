package core

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPromise_SettlesOnce(t *testing.T) {
	resource := &Resource{name: "users"}
	promise := newPromise()

	promise.resolve(resource)
	promise.reject(nil, errors.New("late rejection"))

	settled, err := promise.Wait(context.Background())
	if err != nil {
		t.Fatalf("expected first settlement to win, got %v", err)
	}
	if settled != resource {
		t.Fatalf("expected resolved resource")
	}
}

func TestPromise_ThenRecoversRejection(t *testing.T) {
	resource := &Resource{name: "users"}
	promise := newPromise()
	promise.reject(resource, errors.New("boom"))

	recovered := promise.Then(nil, func(failed *Resource) error {
		if failed != resource {
			t.Errorf("expected rejection to carry the resource")
		}
		return nil
	})
	if _, err := recovered.Wait(context.Background()); err != nil {
		t.Fatalf("expected recovery, got %v", err)
	}
}

func TestPromise_NilErrorHandlerPropagatesRejection(t *testing.T) {
	promise := newPromise()
	cause := errors.New("boom")
	promise.reject(nil, cause)

	next := promise.Then(func(*Resource) error {
		t.Errorf("success continuation must not run on rejection")
		return nil
	}, nil)

	if _, err := next.Wait(context.Background()); !errors.Is(err, cause) {
		t.Fatalf("expected original rejection, got %v", err)
	}
}

func TestPromise_SuccessHandlerErrorRejectsNext(t *testing.T) {
	promise := resolvedPromise(&Resource{name: "users"})
	cause := errors.New("continuation failed")

	next := promise.Then(func(*Resource) error {
		return cause
	}, nil)
	if _, err := next.Wait(context.Background()); !errors.Is(err, cause) {
		t.Fatalf("expected continuation error, got %v", err)
	}
}

func TestPromise_FinallyPreservesOutcome(t *testing.T) {
	cause := errors.New("boom")
	rejected := newPromise()
	rejected.reject(nil, cause)

	ran := make(chan struct{})
	next := rejected.Finally(func(*Resource) {
		close(ran)
	})
	if _, err := next.Wait(context.Background()); !errors.Is(err, cause) {
		t.Fatalf("expected finally to preserve rejection, got %v", err)
	}
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatalf("finally callback did not run")
	}
}

func TestPromise_CallbacksRunInAttachmentOrder(t *testing.T) {
	promise := newPromise()
	order := make(chan string, 2)

	promise.onSettled(func() { order <- "first" })
	promise.onSettled(func() { order <- "second" })
	promise.resolve(nil)

	if got := <-order; got != "first" {
		t.Fatalf("expected first callback first, got %q", got)
	}
	if got := <-order; got != "second" {
		t.Fatalf("expected second callback second, got %q", got)
	}
}

func TestPromise_OnSettledAfterSettlementStillRuns(t *testing.T) {
	promise := resolvedPromise(nil)
	ran := make(chan struct{})
	promise.onSettled(func() { close(ran) })
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatalf("late callback did not run")
	}
}

func TestPromise_WaitHonorsContext(t *testing.T) {
	promise := newPromise()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := promise.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}
