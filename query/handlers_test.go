package query

import (
	"context"
	"errors"
	"testing"

	"github.com/vanchelo/restmod/core"
)

type stubStatusReader struct {
	status core.ResourceStatus
	err    error
}

func (s stubStatusReader) ResourceStatus(context.Context, string) (core.ResourceStatus, error) {
	return s.status, s.err
}

type stubLedgerReader struct {
	entries []core.LedgerEntry
	filter  core.LedgerFilter
}

func (s *stubLedgerReader) LedgerEntries(_ context.Context, filter core.LedgerFilter) ([]core.LedgerEntry, error) {
	s.filter = filter
	return s.entries, nil
}

type stubTypeReader struct {
	registry *core.TypeRegistry
}

func (s stubTypeReader) Types() *core.TypeRegistry {
	return s.registry
}

func TestResourceStatusQuery_Delegates(t *testing.T) {
	expected := core.ResourceStatus{Resource: "users", Status: core.StatusOK, StatusCode: 200}
	q := NewResourceStatusQuery(stubStatusReader{status: expected})

	got, err := q.Query(context.Background(), ResourceStatusMessage{Resource: "users"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if got.Resource != expected.Resource || got.Status != expected.Status {
		t.Fatalf("unexpected status: %#v", got)
	}
}

func TestResourceStatusQuery_PropagatesError(t *testing.T) {
	cause := errors.New("not found")
	q := NewResourceStatusQuery(stubStatusReader{err: cause})
	if _, err := q.Query(context.Background(), ResourceStatusMessage{Resource: "ghost"}); !errors.Is(err, cause) {
		t.Fatalf("expected reader error, got %v", err)
	}
}

func TestResourceStatusQuery_RequiresReader(t *testing.T) {
	q := NewResourceStatusQuery(nil)
	if _, err := q.Query(context.Background(), ResourceStatusMessage{Resource: "users"}); err == nil {
		t.Fatalf("expected dependency error")
	}
}

func TestListLedgerEntriesQuery_PassesFilter(t *testing.T) {
	reader := &stubLedgerReader{entries: []core.LedgerEntry{{Resource: "users", Status: core.StatusOK}}}
	q := NewListLedgerEntriesQuery(reader)

	filter := core.LedgerFilter{Resource: "users", Status: core.StatusOK, Limit: 10}
	entries, err := q.Query(context.Background(), ListLedgerEntriesMessage{Filter: filter})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if reader.filter != filter {
		t.Fatalf("expected filter passed through, got %#v", reader.filter)
	}
}

func TestListTypesQuery_ListsRegisteredTypes(t *testing.T) {
	registry := core.NewTypeRegistry()
	registry.Define("users")
	registry.Define("posts")

	q := NewListTypesQuery(stubTypeReader{registry: registry})
	types, err := q.Query(context.Background(), ListTypesMessage{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(types) != 2 {
		t.Fatalf("expected 2 types, got %d", len(types))
	}
}

func TestMessages_Validate(t *testing.T) {
	if err := (ResourceStatusMessage{Resource: "users"}).Validate(); err != nil {
		t.Fatalf("valid status message rejected: %v", err)
	}
	if err := (ResourceStatusMessage{}).Validate(); err == nil {
		t.Fatalf("expected resource requirement")
	}
	if err := (ListLedgerEntriesMessage{Filter: core.LedgerFilter{Limit: -1}}).Validate(); err == nil {
		t.Fatalf("expected negative limit rejection")
	}
	if err := (ListTypesMessage{}).Validate(); err != nil {
		t.Fatalf("list types message must validate: %v", err)
	}
}
