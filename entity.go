package tansu

import "math"

// Entity is an opaque handle to one stored object. It pairs a recyclable
// slot index with a generation counter so that handles to removed entities
// can never alias the slot's next occupant.
type Entity struct {
	ID      uint32
	Version uint32
}

// slot is the table-side record behind one entity id. archetype/row form
// the entity's location; archetype is -1 while the slot holds no entity.
type slot struct {
	version   uint32
	archetype int32
	row       int32
	occupied  bool
}

// slotTable allocates, validates and recycles entity ids.
type slotTable struct {
	slots []slot
	free  []uint32
}

func newSlotTable(capacity int) slotTable {
	return slotTable{
		slots: make([]slot, 0, capacity),
		free:  make([]uint32, 0, capacity),
	}
}

// allocate returns a fresh entity id. Recycled slots keep the generation
// they were left with on free; new slots start at generation 0. The slot is
// occupied but has no location until setLocation is called.
func (t *slotTable) allocate() Entity {
	if n := len(t.free); n > 0 {
		id := t.free[n-1]
		t.free = t.free[:n-1]
		s := &t.slots[id]
		s.occupied = true
		s.archetype = -1
		s.row = -1
		return Entity{ID: id, Version: s.version}
	}
	if len(t.slots) > math.MaxUint32 {
		panic("tansu: entity slot index space exhausted")
	}
	t.slots = append(t.slots, slot{archetype: -1, row: -1, occupied: true})
	return Entity{ID: uint32(len(t.slots) - 1), Version: 0}
}

// validate resolves e to its archetype and row. A stale generation, an out
// of range index or a freed slot all report the entity as not found.
func (t *slotTable) validate(e Entity) (archetype int32, row int32, err error) {
	if int(e.ID) >= len(t.slots) {
		return 0, 0, ErrEntityNotFound
	}
	s := &t.slots[e.ID]
	if !s.occupied || s.version != e.Version {
		return 0, 0, ErrEntityNotFound
	}
	return s.archetype, s.row, nil
}

func (t *slotTable) setLocation(id uint32, archetype, row int32) {
	s := &t.slots[id]
	s.archetype = archetype
	s.row = row
}

// release frees the slot behind e and bumps its generation so outstanding
// handles go stale. Generation wrap would let a stale handle resolve again,
// so running out of generations is fatal.
func (t *slotTable) release(e Entity) {
	s := &t.slots[e.ID]
	if s.version == math.MaxUint32 {
		panic("tansu: entity generation space exhausted")
	}
	s.version++
	s.occupied = false
	s.archetype = -1
	s.row = -1
	t.free = append(t.free, e.ID)
}

// len returns the number of live entities.
func (t *slotTable) len() int {
	return len(t.slots) - len(t.free)
}
