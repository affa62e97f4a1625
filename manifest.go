package tansu

import (
	"fmt"
	"reflect"
)

// ComponentValue is one typed component value destined for an entity. The
// set of ComponentValues handed to AddEntity is the entity's manifest: it
// fixes the archetype and supplies the initial cell values.
type ComponentValue struct {
	id  ComponentID
	val reflect.Value
}

// ID returns the component type id the value belongs to.
func (v ComponentValue) ID() ComponentID {
	return v.id
}

// C wraps v as a ComponentValue, registering T on first use.
func C[T any](v T) ComponentValue {
	id := RegisterComponent[T]()
	return ComponentValue{id: id, val: reflect.ValueOf(v)}
}

// Manifest derives the component manifest of an aggregate struct: one
// ComponentValue per exported field, in field order, each field type
// registered on first use. It is the runtime stand-in for a generated
// per-aggregate manifest producer.
//
//	type Dog struct {
//		Animal Animal
//		Barks  Barks
//		Eats   Eats
//	}
//	e := storage.AddEntity(tansu.Manifest(Dog{...})...)
//
// Manifest panics if aggregate is not a struct or a pointer to one, or if
// two fields share a component type.
func Manifest(aggregate any) []ComponentValue {
	rv := reflect.ValueOf(aggregate)
	for rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		panic(fmt.Sprintf("tansu: manifest aggregate must be a struct, got %T", aggregate))
	}
	rt := rv.Type()
	out := make([]ComponentValue, 0, rt.NumField())
	seen := mask{}
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if !f.IsExported() {
			continue
		}
		id := registerType(f.Type, f.Type.Size())
		if seen.has(id) {
			panic(fmt.Sprintf("tansu: aggregate %s declares component type %s twice", rt, f.Type))
		}
		seen = seen.with(id)
		out = append(out, ComponentValue{id: id, val: rv.Field(i)})
	}
	return out
}
