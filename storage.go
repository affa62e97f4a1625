package tansu

import (
	"fmt"
	"runtime"

	"go.uber.org/zap"
)

// Storage is the entity store: it owns the slot table, the archetype
// registry and every archetype's columns, and exposes the public entity
// lifecycle. A Storage is not safe for concurrent use by multiple
// goroutines except through DispatchPar, which proves its own safety
// before fanning out.
type Storage struct {
	slots      slotTable
	archetypes archetypeRegistry
	resources  Resources
	log        *zap.Logger
	workers    int

	// Set for the duration of a dispatch. Flattened system views alias
	// column memory directly, so structural mutation while a dispatch is
	// running is a programmer error, not a lockable condition.
	dispatching bool
}

// Option configures a Storage.
type Option func(*Storage)

// WithLogger sets the logger used for structural diagnostics. The default
// is a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Storage) { s.log = log }
}

// WithWorkers caps the worker pool DispatchPar fans out to. The default is
// runtime.GOMAXPROCS(0).
func WithWorkers(n int) Option {
	return func(s *Storage) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithInitialCapacity pre-sizes the slot table for n entities, avoiding
// reallocation while the store grows to that size.
func WithInitialCapacity(n int) Option {
	return func(s *Storage) {
		if n > 0 {
			s.slots = newSlotTable(n)
		}
	}
}

// NewStorage creates an empty Storage.
func NewStorage(opts ...Option) *Storage {
	s := &Storage{
		slots:      newSlotTable(defaultInitialCapacity),
		archetypes: newArchetypeRegistry(),
		log:        zap.NewNop(),
		workers:    runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resources returns the storage's type-keyed singleton store.
func (s *Storage) Resources() *Resources {
	return &s.resources
}

// EntityCount returns the number of live entities.
func (s *Storage) EntityCount() int {
	return s.slots.len()
}

// ArchetypeCount returns the number of distinct archetypes created so far.
// Archetypes persist once created, so the count never decreases.
func (s *Storage) ArchetypeCount() int {
	return len(s.archetypes.all)
}

// AddEntity creates an entity from its component manifest and returns its
// id. The manifest fixes the entity's archetype; the archetype is created
// on first use. Panics if the manifest names the same component type twice.
func (s *Storage) AddEntity(values ...ComponentValue) Entity {
	s.guardStructural("AddEntity")
	key := manifestKey(values)
	arch := s.archetypeFor(key)
	e := s.slots.allocate()
	row := arch.allocRow(e)
	for _, v := range values {
		arch.columnOf(v.id).setCell(row, v.val)
	}
	s.slots.setLocation(e.ID, arch.id, row)
	return e
}

// AddEntities creates n entities sharing one manifest and returns their
// ids. Each entity gets its own copy of the component values.
func (s *Storage) AddEntities(n int, values ...ComponentValue) []Entity {
	if n <= 0 {
		return nil
	}
	out := make([]Entity, n)
	for i := range out {
		out[i] = s.AddEntity(values...)
	}
	return out
}

// RemoveEntity destroys e, freeing its slot for reuse under a new
// generation. Any handle to e held after removal reports ErrEntityNotFound
// forever.
func (s *Storage) RemoveEntity(e Entity) error {
	s.guardStructural("RemoveEntity")
	archID, row, err := s.slots.validate(e)
	if err != nil {
		return err
	}
	arch := s.archetypes.at(archID)
	if moved, ok := arch.swapRemoveRow(row); ok {
		s.slots.setLocation(moved.ID, archID, row)
	}
	s.slots.release(e)
	return nil
}

// Get returns a pointer to e's component of type T. The pointer aliases
// column storage directly and is invalidated by any structural mutation of
// the storage; writers must respect the usual single-writer discipline, the
// storage does not arbitrate concurrent callers.
func Get[T any](s *Storage, e Entity) (*T, error) {
	archID, row, err := s.slots.validate(e)
	if err != nil {
		return nil, err
	}
	id, ok := TryGetID[T]()
	if !ok {
		return nil, componentErr[T](ErrComponentMissing)
	}
	col := s.archetypes.at(archID).columnOf(id)
	if col == nil {
		return nil, componentErr[T](ErrComponentMissing)
	}
	return (*T)(col.ptr(row)), nil
}

// AddComponent attaches v to e, migrating the entity to the archetype that
// adds T to its current component set. Existing component values move with
// the entity. Fails with ErrDuplicateComponent if e already has a T.
func AddComponent[T any](s *Storage, e Entity, v T) error {
	s.guardStructural("AddComponent")
	archID, row, err := s.slots.validate(e)
	if err != nil {
		return err
	}
	id := RegisterComponent[T]()
	src := s.archetypes.at(archID)
	if src.key.has(id) {
		return componentErr[T](ErrDuplicateComponent)
	}
	dst := s.archetypeFor(src.key.with(id))
	dstRow := s.migrate(e, src, row, dst)
	*(*T)(dst.columnOf(id).ptr(dstRow)) = v
	s.slots.setLocation(e.ID, dst.id, dstRow)
	return nil
}

// RemoveComponent detaches e's component of type T and returns its value,
// migrating the entity to the archetype without T. Fails with
// ErrComponentMissing if e has no T.
func RemoveComponent[T any](s *Storage, e Entity) (T, error) {
	var out T
	s.guardStructural("RemoveComponent")
	archID, row, err := s.slots.validate(e)
	if err != nil {
		return out, err
	}
	id, ok := TryGetID[T]()
	if !ok {
		return out, componentErr[T](ErrComponentMissing)
	}
	src := s.archetypes.at(archID)
	col := src.columnOf(id)
	if col == nil {
		return out, componentErr[T](ErrComponentMissing)
	}
	out = *(*T)(col.ptr(row))
	dst := s.archetypeFor(src.key.without(id))
	dstRow := s.migrate(e, src, row, dst)
	s.slots.setLocation(e.ID, dst.id, dstRow)
	return out, nil
}

// migrate moves every shared component value of e from src[row] into a new
// row of dst, swap-removes the vacated source row and fixes up the entity
// displaced by the swap. The caller records e's new location afterwards.
func (s *Storage) migrate(e Entity, src *archetype, row int32, dst *archetype) int32 {
	dstRow := dst.allocRow(e)
	for i, cid := range src.ids {
		if dc := dst.columnOf(cid); dc != nil {
			dc.setCell(dstRow, src.cols[i].cell(row))
		}
	}
	if moved, ok := src.swapRemoveRow(row); ok {
		s.slots.setLocation(moved.ID, src.id, row)
	}
	return dstRow
}

// archetypeFor resolves key, creating the archetype on first use.
func (s *Storage) archetypeFor(key mask) *archetype {
	arch, created := s.archetypes.getOrCreate(key)
	if created {
		s.log.Debug("archetype created",
			zap.Int32("id", arch.id),
			zap.Int("components", len(arch.ids)))
	}
	return arch
}

func (s *Storage) guardStructural(op string) {
	if s.dispatching {
		panic("tansu: " + op + " during dispatch would invalidate running system views")
	}
}

func manifestKey(values []ComponentValue) mask {
	var key mask
	for _, v := range values {
		if key.has(v.id) {
			panic(fmt.Sprintf("tansu: manifest names component type %s twice", typeOf(v.id)))
		}
		key = key.with(v.id)
	}
	return key
}

func componentErr[T any](sentinel error) error {
	var zero T
	return fmt.Errorf("%T: %w", zero, sentinel)
}
