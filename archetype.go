package tansu

import (
	"reflect"
	"unsafe"
)

// column is the contiguous storage of one component type within an
// archetype. The backing array is allocated through reflect.MakeSlice so
// the garbage collector sees the element type's pointer map; hot-path cell
// access goes through the raw base pointer with the element-size stride,
// guarded by the owning ComponentID at the call sites.
type column struct {
	id   ComponentID
	typ  reflect.Type
	size uintptr
	data reflect.Value // slice of typ, len == cap == current capacity
	base unsafe.Pointer
}

func newColumn(id ComponentID) column {
	typ := typeOf(id)
	return column{
		id:   id,
		typ:  typ,
		size: sizeOf(id),
		data: reflect.MakeSlice(reflect.SliceOf(typ), 0, 0),
	}
}

// ptr returns the address of the cell at row. The caller must have checked
// that row is within the archetype's row count.
func (c *column) ptr(row int32) unsafe.Pointer {
	return unsafe.Add(c.base, uintptr(row)*c.size)
}

// ensure grows the backing array to hold at least rows cells.
func (c *column) ensure(rows int) {
	if rows <= c.data.Len() {
		return
	}
	newCap := c.data.Len() * 2
	if newCap < rows {
		newCap = rows
	}
	if newCap < 8 {
		newCap = 8
	}
	grown := reflect.MakeSlice(reflect.SliceOf(c.typ), newCap, newCap)
	reflect.Copy(grown, c.data)
	c.data = grown
	c.base = grown.UnsafePointer()
}

// moveCell copies the value at src into dst. Typed copy, so write barriers
// stay intact for pointer-bearing components.
func (c *column) moveCell(dst, src int32) {
	c.data.Index(int(dst)).Set(c.data.Index(int(src)))
}

// clearCell zeroes the cell so the GC can reclaim anything it referenced.
func (c *column) clearCell(row int32) {
	c.data.Index(int(row)).SetZero()
}

// setCell stores v (a value of the column's element type) at row.
func (c *column) setCell(row int32, v reflect.Value) {
	c.data.Index(int(row)).Set(v)
}

// cell returns the value at row as a reflect.Value.
func (c *column) cell(row int32) reflect.Value {
	return c.data.Index(int(row))
}

// archetype is the dense, row-aligned storage for one distinct component
// set. entities[row] owns row in every column; every column holds exactly
// len(entities) live cells.
type archetype struct {
	id       int32
	key      mask
	ids      []ComponentID // ascending, mirrors key
	cols     []column      // parallel to ids
	slots    [maxComponentTypes]int16
	entities []Entity
}

func newArchetype(id int32, key mask) *archetype {
	ids := key.ids()
	a := &archetype{
		id:   id,
		key:  key,
		ids:  ids,
		cols: make([]column, len(ids)),
	}
	for i := range a.slots {
		a.slots[i] = -1
	}
	for i, cid := range ids {
		a.cols[i] = newColumn(cid)
		a.slots[cid] = int16(i)
	}
	return a
}

// columnOf returns the column owned by id, or nil if id is not part of
// this archetype's key.
func (a *archetype) columnOf(id ComponentID) *column {
	s := a.slots[id]
	if s < 0 {
		return nil
	}
	return &a.cols[s]
}

// allocRow appends one zeroed row owned by e to every column and returns
// its index. The caller fills the cells afterwards.
func (a *archetype) allocRow(e Entity) int32 {
	row := len(a.entities)
	for i := range a.cols {
		a.cols[i].ensure(row + 1)
	}
	a.entities = append(a.entities, e)
	return int32(row)
}

// swapRemoveRow removes row by moving the last row's cells and owner into
// its place, keeping the archetype densely packed. It returns the entity
// that moved into row so the caller can fix up that entity's slot location;
// ok is false when row was already the last row and nothing moved.
func (a *archetype) swapRemoveRow(row int32) (moved Entity, ok bool) {
	last := int32(len(a.entities) - 1)
	if row < last {
		for i := range a.cols {
			a.cols[i].moveCell(row, last)
		}
		a.entities[row] = a.entities[last]
		moved, ok = a.entities[row], true
	}
	for i := range a.cols {
		a.cols[i].clearCell(last)
	}
	a.entities = a.entities[:last]
	return moved, ok
}

// len returns the archetype's row count.
func (a *archetype) len() int {
	return len(a.entities)
}
