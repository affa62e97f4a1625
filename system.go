package tansu

import (
	"fmt"
	"unsafe"
)

// Access is one declared component access of a System: a component type
// plus the mode the system will use it with. Build them with Reads and
// Writes; the mode is always explicit, never defaulted, because the
// correctness of DispatchPar's conflict check depends on it.
type Access struct {
	id    ComponentID
	write bool
}

// Reads declares read access to T, registering T on first use.
func Reads[T any]() Access {
	return Access{id: RegisterComponent[T]()}
}

// Writes declares write access to T, registering T on first use.
func Writes[T any]() Access {
	return Access{id: RegisterComponent[T](), write: true}
}

// SystemHandler is the capability a System runs: one invocation against
// the component data its declarations grant.
type SystemHandler interface {
	Run(access *SystemAccess)
}

// HandlerFunc adapts a plain function to SystemHandler.
type HandlerFunc func(access *SystemAccess)

// Run calls f.
func (f HandlerFunc) Run(access *SystemAccess) { f(access) }

// System is a handler plus its immutable component access set. The access
// set is fixed at construction; it determines both which archetypes the
// handler sees and which systems it may run concurrently with.
type System struct {
	handler  SystemHandler
	declared mask
	writes   mask
}

// NewSystem builds a System from a handler and its access declarations.
// Panics if a component type is declared twice, in either the same or both
// modes; a system has exactly one mode per type.
func NewSystem(handler SystemHandler, accesses ...Access) *System {
	sys := &System{handler: handler}
	for _, a := range accesses {
		if sys.declared.has(a.id) {
			panic(fmt.Sprintf("tansu: system declares component type %s more than once", typeOf(a.id)))
		}
		sys.declared = sys.declared.with(a.id)
		if a.write {
			sys.writes = sys.writes.with(a.id)
		}
	}
	return sys
}

// SystemAccess exposes, for one handler invocation, exactly the component
// data the System declared. It is valid only for the duration of that
// invocation; handlers must not retain it.
type SystemAccess struct {
	sys   *System
	archs []*archetype
	rows  int
}

func newSystemAccess(sys *System, archs []*archetype) *SystemAccess {
	rows := 0
	for _, a := range archs {
		rows += a.len()
	}
	return &SystemAccess{sys: sys, archs: archs, rows: rows}
}

// Len returns the number of rows visible to the system: the summed row
// counts of every archetype matching its full declared set.
func (a *SystemAccess) Len() int {
	return a.rows
}

// segment is one matching archetype's slice of a flattened view.
type segment struct {
	base unsafe.Pointer
	ents []Entity
}

// collect gathers the column segments for id across the matching
// archetypes, in registry order. Every declared type visits the identical
// archetype sequence, which is what keeps the i-th rows of two views of
// the same SystemAccess aligned to the same entity.
func (a *SystemAccess) collect(id ComponentID, write bool) []segment {
	if !a.sys.declared.has(id) {
		panic(fmt.Sprintf("tansu: access to component type %s not declared by system", typeOf(id)))
	}
	if write && !a.sys.writes.has(id) {
		panic(fmt.Sprintf("tansu: component type %s is declared read-only by system", typeOf(id)))
	}
	segs := make([]segment, 0, len(a.archs))
	for _, arch := range a.archs {
		if arch.len() == 0 {
			continue
		}
		segs = append(segs, segment{
			base: arch.columnOf(id).base,
			ents: arch.entities,
		})
	}
	return segs
}

// Components returns the read-only flattened view of T for this
// invocation. Panics if the system did not declare T in either mode.
func Components[T any](a *SystemAccess) View[T] {
	var zero T
	return View[T]{
		segs:   a.collect(GetID[T](), false),
		total:  a.rows,
		stride: unsafe.Sizeof(zero),
	}
}

// ComponentsMut returns the mutable flattened view of T for this
// invocation. Panics if the system did not declare Write access to T.
func ComponentsMut[T any](a *SystemAccess) MutView[T] {
	var zero T
	return MutView[T]{View[T]{
		segs:   a.collect(GetID[T](), true),
		total:  a.rows,
		stride: unsafe.Sizeof(zero),
	}}
}

// View is a read-only sequence of one component type, flattened across
// every archetype the owning system matches. Element i of any two views of
// the same SystemAccess belongs to the same entity.
type View[T any] struct {
	segs   []segment
	total  int
	stride uintptr
}

// Len returns the number of elements in the view.
func (v View[T]) Len() int {
	return v.total
}

func (v View[T]) locate(i int) (unsafe.Pointer, Entity) {
	for _, seg := range v.segs {
		if i < len(seg.ents) {
			return unsafe.Add(seg.base, uintptr(i)*v.stride), seg.ents[i]
		}
		i -= len(seg.ents)
	}
	panic(fmt.Sprintf("tansu: view index %d out of range", i))
}

// At returns the i-th element.
func (v View[T]) At(i int) T {
	p, _ := v.locate(i)
	return *(*T)(p)
}

// Entity returns the entity owning the i-th element.
func (v View[T]) Entity(i int) Entity {
	_, e := v.locate(i)
	return e
}

// Each calls f for every element in view order.
func (v View[T]) Each(f func(e Entity, c T)) {
	for _, seg := range v.segs {
		for i, e := range seg.ents {
			f(e, *(*T)(unsafe.Add(seg.base, uintptr(i)*v.stride)))
		}
	}
}

// MutView is the mutable counterpart of View, handed out only for
// Write-declared component types.
type MutView[T any] struct {
	view View[T]
}

// Len returns the number of elements in the view.
func (v MutView[T]) Len() int {
	return v.view.total
}

// At returns a pointer to the i-th element.
func (v MutView[T]) At(i int) *T {
	p, _ := v.view.locate(i)
	return (*T)(p)
}

// Entity returns the entity owning the i-th element.
func (v MutView[T]) Entity(i int) Entity {
	return v.view.Entity(i)
}

// Each calls f for every element in view order.
func (v MutView[T]) Each(f func(e Entity, c *T)) {
	for _, seg := range v.view.segs {
		for i, e := range seg.ents {
			f(e, (*T)(unsafe.Add(seg.base, uintptr(i)*v.view.stride)))
		}
	}
}
