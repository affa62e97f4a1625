package tansu

import (
	"fmt"
	"reflect"
	"sync"
)

// Resources is a type-keyed store for per-storage singletons: configuration
// objects, lookup tables, anything global that systems share without
// declaring component access. At most one resource per concrete type.
// Access is guarded, so read-only resources are safe to use from handlers
// running under DispatchPar.
type Resources struct {
	mu    sync.RWMutex
	items map[reflect.Type]any
}

// Add stores res, keyed by its concrete type. Panics on nil or when a
// resource of the same type is already present.
func (r *Resources) Add(res any) {
	if res == nil {
		panic("tansu: cannot add nil resource")
	}
	t := reflect.TypeOf(res)
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.items == nil {
		r.items = make(map[reflect.Type]any)
	}
	if _, ok := r.items[t]; ok {
		panic(fmt.Sprintf("tansu: resource of type %s already exists", t))
	}
	r.items[t] = res
}

// Clear removes all resources.
func (r *Resources) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.items)
}

// HasResource reports whether a *T resource is present.
func HasResource[T any](r *Resources) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.items[reflect.TypeOf((*T)(nil))]
	return ok
}

// GetResource returns the stored *T resource, or nil if absent.
func GetResource[T any](r *Resources) *T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if res, ok := r.items[reflect.TypeOf((*T)(nil))]; ok {
		return res.(*T)
	}
	return nil
}

// RemoveResource drops the stored *T resource if present.
func RemoveResource[T any](r *Resources) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, reflect.TypeOf((*T)(nil)))
}
