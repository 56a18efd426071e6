package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ModelType is a type-level dispatchable: hook listeners registered here
// fire for every resource whose dispatch bubbles to this type.
type ModelType struct {
	name     string
	dispatch *Dispatcher
}

func NewModelType(name string) *ModelType {
	modelType := &ModelType{name: normalizeResourceName(name)}
	modelType.dispatch = NewDispatcher(modelType)
	return modelType
}

func (t *ModelType) Name() string {
	if t == nil {
		return ""
	}
	return t.name
}

func (t *ModelType) On(hook string, fn HookFunc) *ModelType {
	if t == nil {
		return t
	}
	t.dispatch.On(hook, fn)
	return t
}

func (t *ModelType) DispatchHook(ctx context.Context, event HookEvent) error {
	if t == nil {
		return nil
	}
	return t.dispatch.DispatchHook(ctx, event)
}

// TypeRegistry holds model types by name; the manager consults it to wire
// the type back-reference when a resource is first created.
type TypeRegistry struct {
	mu    sync.RWMutex
	types map[string]*ModelType
}

func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{types: make(map[string]*ModelType)}
}

func (r *TypeRegistry) Register(modelType *ModelType) error {
	if r == nil {
		return fmt.Errorf("core: type registry is nil")
	}
	if modelType == nil {
		return fmt.Errorf("core: model type is nil")
	}
	name := strings.TrimSpace(modelType.Name())
	if name == "" {
		return fmt.Errorf("core: model type name is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.types[name]; exists {
		return fmt.Errorf("core: model type already registered: %s", name)
	}
	r.types[name] = modelType
	return nil
}

// Define registers a fresh model type under name, returning the existing
// one when already present.
func (r *TypeRegistry) Define(name string) *ModelType {
	if r == nil {
		return nil
	}
	key := normalizeResourceName(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.types[key]; ok {
		return existing
	}
	modelType := NewModelType(key)
	r.types[key] = modelType
	return modelType
}

func (r *TypeRegistry) Get(name string) (*ModelType, bool) {
	if r == nil {
		return nil, false
	}
	key := normalizeResourceName(name)
	if key == "" {
		return nil, false
	}
	r.mu.RLock()
	modelType, ok := r.types[key]
	r.mu.RUnlock()
	return modelType, ok
}

func (r *TypeRegistry) List() []*ModelType {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)

	out := make([]*ModelType, 0, len(names))
	r.mu.RLock()
	for _, name := range names {
		out = append(out, r.types[name])
	}
	r.mu.RUnlock()
	return out
}

var _ Dispatchable = (*ModelType)(nil)
