package core

import "context"

// Override is a call-scoped set of hook handlers that takes precedence over
// permanent instance listeners for the duration of a synchronous body, or —
// once captured — for the span of a submitted operation. Overrides compose:
// the previously active override always fires first, then this one's entry
// for the hook. Values are immutable after construction so a captured
// override stays valid across suspension points.
type Override struct {
	prev  *Override
	hooks map[string]HookFunc
	fn    HookFunc
}

// NewOverride builds an override from a hook-name-to-handler mapping.
func NewOverride(hooks map[string]HookFunc) *Override {
	if len(hooks) == 0 {
		return &Override{}
	}
	copied := make(map[string]HookFunc, len(hooks))
	for name, fn := range hooks {
		copied[name] = fn
	}
	return &Override{hooks: copied}
}

// OverrideFunc builds an override from an arbitrary dispatch function that
// receives every hook fired while the override is active.
func OverrideFunc(fn HookFunc) *Override {
	return &Override{fn: fn}
}

func (o *Override) compose(prev *Override) *Override {
	if o == nil {
		return prev
	}
	if prev == nil {
		return o
	}
	return &Override{prev: prev, hooks: o.hooks, fn: o.fn}
}

func (o *Override) invoke(ctx context.Context, event HookEvent) error {
	if o == nil {
		return nil
	}
	if err := o.prev.invoke(ctx, event); err != nil {
		return err
	}
	if o.fn != nil {
		return o.fn(ctx, event)
	}
	if fn, ok := o.hooks[event.Name]; ok && fn != nil {
		return fn(ctx, event)
	}
	return nil
}
