// Package tansu is an in-memory, cache-friendly store for heterogeneous
// entity data. Entities are opaque ids; each entity carries an arbitrary
// set of typed component values. Components of the same type are stored
// contiguously in per-archetype columns, so iterating one component type
// walks one dense array instead of chasing per-object pointers.
package tansu

import (
	"fmt"
	"reflect"
	"sync"
	"unsafe"
)

// ComponentID is a unique identifier for a component type.
type ComponentID uint32

const (
	bitsPerWord       = 64
	maskWords         = 4
	maxComponentTypes = maskWords * bitsPerWord

	defaultInitialCapacity = 256
)

// The process-wide component registry. Registration is lazy and guarded;
// once a type has an id the mapping never changes for the rest of the
// process, so lookups after registration are read-only.
var registry = struct {
	mu       sync.RWMutex
	typeToID map[reflect.Type]ComponentID
	idToType [maxComponentTypes]reflect.Type
	sizes    [maxComponentTypes]uintptr
	next     ComponentID
}{
	typeToID: make(map[reflect.Type]ComponentID, maxComponentTypes),
}

// ResetRegistry clears the component registry. Only useful in tests that
// need a fresh id space; never call it while any Storage is alive.
func ResetRegistry() {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.typeToID = make(map[reflect.Type]ComponentID, maxComponentTypes)
	registry.idToType = [maxComponentTypes]reflect.Type{}
	registry.sizes = [maxComponentTypes]uintptr{}
	registry.next = 0
}

// RegisterComponent registers T and returns its ComponentID. Registering an
// already-registered type returns the existing id. Panics once the id space
// is exhausted.
func RegisterComponent[T any]() ComponentID {
	var zero T
	return registerType(reflect.TypeOf(zero), unsafe.Sizeof(zero))
}

func registerType(typ reflect.Type, size uintptr) ComponentID {
	registry.mu.RLock()
	id, ok := registry.typeToID[typ]
	registry.mu.RUnlock()
	if ok {
		return id
	}

	registry.mu.Lock()
	defer registry.mu.Unlock()
	if id, ok := registry.typeToID[typ]; ok {
		return id
	}
	if int(registry.next) >= maxComponentTypes {
		panic(fmt.Sprintf("tansu: cannot register component %s: component type space (%d) exhausted", typ, maxComponentTypes))
	}
	id = registry.next
	registry.typeToID[typ] = id
	registry.idToType[id] = typ
	registry.sizes[id] = size
	registry.next++
	return id
}

// GetID returns the ComponentID of T. Panics if T was never registered.
func GetID[T any]() ComponentID {
	var zero T
	typ := reflect.TypeOf(zero)
	registry.mu.RLock()
	id, ok := registry.typeToID[typ]
	registry.mu.RUnlock()
	if !ok {
		panic(fmt.Sprintf("tansu: component type %s not registered", typ))
	}
	return id
}

// TryGetID returns the ComponentID of T and whether T is registered.
func TryGetID[T any]() (ComponentID, bool) {
	var zero T
	registry.mu.RLock()
	id, ok := registry.typeToID[reflect.TypeOf(zero)]
	registry.mu.RUnlock()
	return id, ok
}

func typeOf(id ComponentID) reflect.Type {
	registry.mu.RLock()
	typ := registry.idToType[id]
	registry.mu.RUnlock()
	return typ
}

func sizeOf(id ComponentID) uintptr {
	registry.mu.RLock()
	size := registry.sizes[id]
	registry.mu.RUnlock()
	return size
}
