package transport

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/vanchelo/restmod/core"
)

type AdapterFactory func(config map[string]any) (core.TransportAdapter, error)

type Registry struct {
	mu        sync.RWMutex
	adapters  map[string]core.TransportAdapter
	factories map[string]AdapterFactory
}

func NewRegistry() *Registry {
	return &Registry{
		adapters:  map[string]core.TransportAdapter{},
		factories: map[string]AdapterFactory{},
	}
}

// NewDefaultRegistry registers the REST adapter plus placeholder factories
// for kinds the framework names but this build does not ship.
func NewDefaultRegistry() *Registry {
	return NewConfiguredRegistry(core.TransportConfig{})
}

// NewConfiguredRegistry is NewDefaultRegistry with the REST adapter shaped
// by the manager's transport section.
func NewConfiguredRegistry(cfg core.TransportConfig) *Registry {
	registry := NewRegistry()
	_ = registry.Register(NewRESTAdapterFromConfig(cfg, nil))
	for _, kind := range []string{KindGraphQL, KindStream, KindMock} {
		_ = registry.RegisterFactory(kind, unsupportedFactory(kind))
	}
	return registry
}

// NewResolverFromConfig wires the resolver a manager's transport config
// describes: the configured registry plus the config's default kind.
func NewResolverFromConfig(cfg core.TransportConfig) *Resolver {
	return NewResolver(NewConfiguredRegistry(cfg), cfg.DefaultKind)
}

func (r *Registry) Register(adapter core.TransportAdapter) error {
	if r == nil {
		return fmt.Errorf("transport: registry is nil")
	}
	if adapter == nil {
		return fmt.Errorf("transport: adapter is nil")
	}
	kind := normalizeKind(adapter.Kind())
	if kind == "" {
		return fmt.Errorf("transport: adapter kind is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.adapters[kind]; exists {
		return fmt.Errorf("transport: adapter kind %q already registered", kind)
	}
	r.adapters[kind] = adapter
	return nil
}

func (r *Registry) RegisterFactory(kind string, factory AdapterFactory) error {
	if r == nil {
		return fmt.Errorf("transport: registry is nil")
	}
	kind = normalizeKind(kind)
	if kind == "" {
		return fmt.Errorf("transport: adapter kind is required")
	}
	if factory == nil {
		return fmt.Errorf("transport: adapter factory is nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[kind]; exists {
		return fmt.Errorf("transport: adapter factory kind %q already registered", kind)
	}
	r.factories[kind] = factory
	return nil
}

func (r *Registry) Build(kind string, config map[string]any) (core.TransportAdapter, error) {
	if r == nil {
		return nil, fmt.Errorf("transport: registry is nil")
	}
	kind = normalizeKind(kind)
	if kind == "" {
		return nil, fmt.Errorf("transport: adapter kind is required")
	}

	r.mu.RLock()
	adapter, ok := r.adapters[kind]
	factory := r.factories[kind]
	r.mu.RUnlock()
	if ok {
		return adapter, nil
	}
	if factory == nil {
		return nil, fmt.Errorf("transport: adapter kind %q not registered", kind)
	}
	built, err := factory(cloneConfig(config))
	if err != nil {
		return nil, err
	}
	if built == nil {
		return nil, fmt.Errorf("transport: factory for %q returned nil adapter", kind)
	}
	return built, nil
}

func (r *Registry) Get(kind string) (core.TransportAdapter, bool) {
	if r == nil {
		return nil, false
	}
	kind = normalizeKind(kind)
	r.mu.RLock()
	defer r.mu.RUnlock()
	adapter, ok := r.adapters[kind]
	return adapter, ok
}

func (r *Registry) List() []core.TransportAdapter {
	if r == nil {
		return []core.TransportAdapter{}
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.adapters))
	for kind := range r.adapters {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	result := make([]core.TransportAdapter, 0, len(kinds))
	for _, kind := range kinds {
		result = append(result, r.adapters[kind])
	}
	return result
}

// Resolver adapts the registry to the core.TransportResolver contract:
// the request's metadata can pin a kind, otherwise the default applies.
type Resolver struct {
	Registry    *Registry
	DefaultKind string
}

func NewResolver(registry *Registry, defaultKind string) *Resolver {
	if registry == nil {
		registry = NewDefaultRegistry()
	}
	defaultKind = normalizeKind(defaultKind)
	if defaultKind == "" {
		defaultKind = KindREST
	}
	return &Resolver{Registry: registry, DefaultKind: defaultKind}
}

func (r *Resolver) Resolve(req core.TransportRequest) (core.TransportAdapter, error) {
	if r == nil || r.Registry == nil {
		return nil, fmt.Errorf("transport: resolver is not configured")
	}
	kind := r.DefaultKind
	if raw, ok := req.Metadata["transport_kind"]; ok {
		if requested := normalizeKind(fmt.Sprint(raw)); requested != "" {
			kind = requested
		}
	}
	return r.Registry.Build(kind, nil)
}

func normalizeKind(kind string) string {
	return strings.TrimSpace(strings.ToLower(kind))
}

func unsupportedFactory(kind string) AdapterFactory {
	return func(config map[string]any) (core.TransportAdapter, error) {
		reason := ""
		if raw, ok := config["reason"]; ok {
			reason = strings.TrimSpace(fmt.Sprint(raw))
		}
		return NewUnsupportedAdapter(kind, reason), nil
	}
}

func cloneConfig(config map[string]any) map[string]any {
	if len(config) == 0 {
		return map[string]any{}
	}
	copied := make(map[string]any, len(config))
	for key, value := range config {
		copied[key] = value
	}
	return copied
}

var _ core.TransportResolver = (*Resolver)(nil)
