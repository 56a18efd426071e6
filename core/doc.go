// Package core contains the lifecycle substrate shared by every
// resource-like object in the framework: the hook dispatch engine with
// scope/type bubbling, call-scoped dispatch overrides, and the per-resource
// request queue that serializes transport operations and supports
// cooperative cancellation. Adapters must depend on this package; core must
// not depend on transport-specific or storage-specific adapters.
package core
