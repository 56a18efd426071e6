package core

import (
	"context"
	"sync"
)

// Dispatcher is the per-object hook table plus the single active override
// slot. Dispatch visits, in order: the effective override, every instance
// listener in registration order, then bubbles to the scope back-reference
// when it exposes the dispatch capability, otherwise to the type
// back-reference. Scope and type are mutually exclusive hops.
//
// Listener errors are not intercepted: the first error aborts the dispatch
// and propagates to the caller.
type Dispatcher struct {
	owner any

	mu       sync.RWMutex
	hooks    map[string][]HookFunc
	override *Override
	scope    Dispatchable
	typeRef  Dispatchable
}

func NewDispatcher(owner any) *Dispatcher {
	return &Dispatcher{owner: owner}
}

// On appends a listener for the named hook on this object only. Duplicate
// registrations both fire.
func (d *Dispatcher) On(hook string, fn HookFunc) {
	if d == nil || hook == "" || fn == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.hooks == nil {
		d.hooks = map[string][]HookFunc{}
	}
	d.hooks[hook] = append(d.hooks[hook], fn)
}

// BindScope sets the parent back-reference used for bubbling. The reference
// implies no ownership.
func (d *Dispatcher) BindScope(scope Dispatchable) {
	if d == nil {
		return
	}
	d.mu.Lock()
	d.scope = scope
	d.mu.Unlock()
}

// BindType sets the type-level fallback used when no scope participates.
func (d *Dispatcher) BindType(typeRef Dispatchable) {
	if d == nil {
		return
	}
	d.mu.Lock()
	d.typeRef = typeRef
	d.mu.Unlock()
}

// Dispatch fires the named hook with the currently active override.
func (d *Dispatcher) Dispatch(ctx context.Context, hook string, args ...any) error {
	return d.DispatchWith(ctx, d.CurrentOverride(), hook, args...)
}

// DispatchWith fires the named hook with an explicitly supplied override.
// The request queue captures the override at submit time and threads it
// through here so hooks fired after the transport suspension use the
// context active when the operation was submitted, not whatever happens to
// be installed when the continuation resumes.
func (d *Dispatcher) DispatchWith(ctx context.Context, override *Override, hook string, args ...any) error {
	if d == nil || hook == "" {
		return nil
	}
	event := HookEvent{Name: hook, Source: d.owner, Args: args}
	return d.dispatchEvent(ctx, override, event)
}

// DispatchHook implements Dispatchable so the object can serve as a
// bubbling target itself; the incoming event keeps its original source.
func (d *Dispatcher) DispatchHook(ctx context.Context, event HookEvent) error {
	if d == nil {
		return nil
	}
	return d.dispatchEvent(ctx, d.CurrentOverride(), event)
}

func (d *Dispatcher) dispatchEvent(ctx context.Context, override *Override, event HookEvent) error {
	if event.Source == nil {
		event.Source = d.owner
	}

	if override != nil {
		if err := d.invokeShadowed(ctx, override, event); err != nil {
			return err
		}
	}

	for _, fn := range d.listeners(event.Name) {
		if fn == nil {
			continue
		}
		if err := fn(ctx, event); err != nil {
			return err
		}
	}

	scope, typeRef := d.bubbleTargets()
	if scope != nil {
		return scope.DispatchHook(ctx, event)
	}
	if typeRef != nil {
		return typeRef.DispatchHook(ctx, event)
	}
	return nil
}

// invokeShadowed clears the active slot while the currently installed
// override runs so a dispatch fired from inside it cannot recurse into it.
// A captured override that is no longer installed runs without touching the
// slot at all: queue continuations invoke captured overrides on their own
// goroutines, and writing the slot there would clobber an override another
// caller installed in the meantime.
func (d *Dispatcher) invokeShadowed(ctx context.Context, override *Override, event HookEvent) error {
	d.mu.Lock()
	shadowed := d.override == override
	if shadowed {
		d.override = nil
	}
	d.mu.Unlock()

	if shadowed {
		defer func() {
			d.mu.Lock()
			d.override = override
			d.mu.Unlock()
		}()
	}

	return override.invoke(ctx, event)
}

// WithOverride installs the override, composed with any previously active
// one, for the duration of body. The prior override is restored when body
// returns or panics.
func (d *Dispatcher) WithOverride(override *Override, body func() error) error {
	if d == nil {
		return nil
	}
	if body == nil {
		return nil
	}

	d.mu.Lock()
	saved := d.override
	d.override = override.compose(saved)
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.override = saved
		d.mu.Unlock()
	}()

	return body()
}

// CurrentOverride returns the active override for later re-application.
// This is the capture half of the submit-time pinning pattern.
func (d *Dispatcher) CurrentOverride() *Override {
	if d == nil {
		return nil
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.override
}

func (d *Dispatcher) listeners(hook string) []HookFunc {
	d.mu.RLock()
	defer d.mu.RUnlock()
	registered := d.hooks[hook]
	if len(registered) == 0 {
		return nil
	}
	out := make([]HookFunc, len(registered))
	copy(out, registered)
	return out
}

func (d *Dispatcher) bubbleTargets() (Dispatchable, Dispatchable) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.scope, d.typeRef
}

var _ Dispatchable = (*Dispatcher)(nil)
