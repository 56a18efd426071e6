package query

import (
	"context"

	"github.com/vanchelo/restmod/core"
)

type ResourceStatusReader interface {
	ResourceStatus(ctx context.Context, resourceName string) (core.ResourceStatus, error)
}

type LedgerReader interface {
	LedgerEntries(ctx context.Context, filter core.LedgerFilter) ([]core.LedgerEntry, error)
}

type TypeReader interface {
	Types() *core.TypeRegistry
}

type ResourceStatusQuery struct {
	reader ResourceStatusReader
}

func NewResourceStatusQuery(reader ResourceStatusReader) *ResourceStatusQuery {
	return &ResourceStatusQuery{reader: reader}
}

func (q *ResourceStatusQuery) Query(ctx context.Context, msg ResourceStatusMessage) (core.ResourceStatus, error) {
	if q == nil || q.reader == nil {
		return core.ResourceStatus{}, queryDependencyError("query: resource status reader is required")
	}
	return q.reader.ResourceStatus(ctx, msg.Resource)
}

type ListLedgerEntriesQuery struct {
	reader LedgerReader
}

func NewListLedgerEntriesQuery(reader LedgerReader) *ListLedgerEntriesQuery {
	return &ListLedgerEntriesQuery{reader: reader}
}

func (q *ListLedgerEntriesQuery) Query(
	ctx context.Context,
	msg ListLedgerEntriesMessage,
) ([]core.LedgerEntry, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: ledger reader is required")
	}
	return q.reader.LedgerEntries(ctx, msg.Filter)
}

type ListTypesQuery struct {
	reader TypeReader
}

func NewListTypesQuery(reader TypeReader) *ListTypesQuery {
	return &ListTypesQuery{reader: reader}
}

func (q *ListTypesQuery) Query(ctx context.Context, msg ListTypesMessage) ([]*core.ModelType, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: type reader is required")
	}
	registry := q.reader.Types()
	if registry == nil {
		return []*core.ModelType{}, nil
	}
	return registry.List(), nil
}
