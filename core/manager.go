package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Manager owns the shared collaborators (transport, logger, metrics,
// ledger, type registry) and hands out lifecycle resources. Resources are
// cached by normalized name so command and query surfaces address them by
// string identity.
type Manager struct {
	config            Config
	logger            Logger
	loggerProvider    LoggerProvider
	metrics           MetricsRecorder
	errorMapper       ErrorMapper
	transport         TransportAdapter
	transportResolver TransportResolver
	ledger            RequestLedger
	types             *TypeRegistry
	clock             func() time.Time

	mu        sync.Mutex
	resources map[string]*Resource
}

type ResourceOption func(*Resource)

func WithResourceScope(scope Dispatchable) ResourceOption {
	return func(r *Resource) {
		r.dispatch.BindScope(scope)
	}
}

func WithResourceType(typeRef Dispatchable) ResourceOption {
	return func(r *Resource) {
		r.dispatch.BindType(typeRef)
	}
}

func WithResourceTransport(adapter TransportAdapter) ResourceOption {
	return func(r *Resource) {
		r.transport = adapter
	}
}

// Resource returns the named resource, creating it on first use. A model
// type registered under the same name becomes the bubbling fallback unless
// an option overrides it.
func (m *Manager) Resource(name string, opts ...ResourceOption) *Resource {
	if m == nil {
		return nil
	}
	key := normalizeResourceName(name)

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.resources[key]; ok {
		return existing
	}

	resource := &Resource{name: key, manager: m}
	resource.dispatch = NewDispatcher(resource)
	if modelType, ok := m.types.Get(key); ok {
		resource.dispatch.BindType(modelType)
	}
	for _, opt := range opts {
		if opt != nil {
			opt(resource)
		}
	}
	if m.resources == nil {
		m.resources = map[string]*Resource{}
	}
	m.resources[key] = resource
	return resource
}

// Lookup returns the named resource without creating it.
func (m *Manager) Lookup(name string) (*Resource, bool) {
	if m == nil {
		return nil, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	resource, ok := m.resources[normalizeResourceName(name)]
	return resource, ok
}

func (m *Manager) Types() *TypeRegistry {
	if m == nil {
		return nil
	}
	return m.types
}

func (m *Manager) Config() Config {
	if m == nil {
		return Config{}
	}
	return m.config
}

func (m *Manager) Ledger() RequestLedger {
	if m == nil {
		return nil
	}
	return m.ledger
}

// SubmitRequest submits against the named resource and waits for that
// operation to settle. This is the synchronous surface used by command
// handlers and the background replay worker.
func (m *Manager) SubmitRequest(ctx context.Context, resourceName string, config TransportRequest) (SubmitReceipt, error) {
	if m == nil {
		return SubmitReceipt{}, fmt.Errorf("core: manager is not configured")
	}
	resource := m.Resource(resourceName)

	promise, request := resource.submit(ctx, config, nil, nil)
	settled, waitErr := promise.Wait(ctx)
	if settled == nil {
		settled = resource
	}
	snapshot := settled.Snapshot()
	receipt := SubmitReceipt{
		RequestID:  request.ID(),
		Resource:   snapshot.Resource,
		Status:     snapshot.Status,
		StatusCode: snapshot.StatusCode,
		Error:      snapshot.LastError,
	}
	return receipt, waitErr
}

// CancelRequests cancels every pending operation on the named resource.
func (m *Manager) CancelRequests(ctx context.Context, resourceName string) error {
	if m == nil {
		return fmt.Errorf("core: manager is not configured")
	}
	_ = ctx
	resource, ok := m.Lookup(resourceName)
	if !ok {
		return m.mapError(fmt.Errorf("core: resource %q not found", strings.TrimSpace(resourceName)))
	}
	resource.Cancel()
	return nil
}

// ResourceStatus reports the named resource's lifecycle snapshot.
func (m *Manager) ResourceStatus(ctx context.Context, resourceName string) (ResourceStatus, error) {
	if m == nil {
		return ResourceStatus{}, fmt.Errorf("core: manager is not configured")
	}
	_ = ctx
	resource, ok := m.Lookup(resourceName)
	if !ok {
		return ResourceStatus{}, m.mapError(fmt.Errorf("core: resource %q not found", strings.TrimSpace(resourceName)))
	}
	return resource.Snapshot(), nil
}

// LedgerEntries lists settled operations from the wired ledger.
func (m *Manager) LedgerEntries(ctx context.Context, filter LedgerFilter) ([]LedgerEntry, error) {
	if m == nil || m.ledger == nil {
		return nil, fmt.Errorf("core: request ledger is not configured")
	}
	return m.ledger.List(ctx, filter)
}

func (m *Manager) now() time.Time {
	if m == nil || m.clock == nil {
		return time.Now().UTC()
	}
	return m.clock().UTC()
}

func (m *Manager) resolveTransport(req TransportRequest) (TransportAdapter, error) {
	if m == nil {
		return nil, fmt.Errorf("core: manager is not configured")
	}
	if m.transportResolver != nil {
		return m.transportResolver.Resolve(req)
	}
	if m.transport != nil {
		return m.transport, nil
	}
	return nil, fmt.Errorf("core: no transport adapter configured")
}

func (m *Manager) mapError(err error) error {
	if err == nil {
		return nil
	}
	if m == nil || m.errorMapper == nil {
		return err
	}
	if mapped := m.errorMapper(err); mapped != nil {
		return mapped
	}
	return err
}

func (m *Manager) recordLedger(ctx context.Context, entry LedgerEntry) {
	if m == nil || m.ledger == nil {
		return
	}
	if err := m.ledger.Record(ctx, entry); err != nil {
		m.logError(ctx, "ledger record failed", map[string]any{
			"resource":   entry.Resource,
			"request_id": entry.RequestID,
			"error":      err.Error(),
		})
	}
}
