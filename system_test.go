package tansu_test

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tansu-ecs/tansu"
)

func TestDispatchSequentialOrdering(t *testing.T) {
	s := tansu.NewStorage()
	s.AddEntity(tansu.C(Position{X: 1}), tansu.C(Velocity{VX: 10}))
	s.AddEntity(tansu.C(Position{X: 2}), tansu.C(Velocity{VX: 20}))

	integrate := tansu.NewSystem(tansu.HandlerFunc(func(a *tansu.SystemAccess) {
		pos := tansu.ComponentsMut[Position](a)
		vel := tansu.Components[Velocity](a)
		for i := 0; i < pos.Len(); i++ {
			pos.At(i).X += vel.At(i).VX
		}
	}), tansu.Writes[Position](), tansu.Reads[Velocity]())

	var seen []float32
	observe := tansu.NewSystem(tansu.HandlerFunc(func(a *tansu.SystemAccess) {
		tansu.Components[Position](a).Each(func(_ tansu.Entity, p Position) {
			seen = append(seen, p.X)
		})
	}), tansu.Reads[Position]())

	// The later system observes the earlier system's writes.
	s.Dispatch(integrate, observe)
	assert.Equal(t, []float32{11, 22}, seen)
}

func TestDispatchSpansArchetypes(t *testing.T) {
	s := tansu.NewStorage()
	s.AddEntity(tansu.C(Position{X: 1}))
	s.AddEntity(tansu.C(Position{X: 2}), tansu.C(Health{}))
	s.AddEntity(tansu.C(Velocity{}))

	var total float32
	rows := 0
	sum := tansu.NewSystem(tansu.HandlerFunc(func(a *tansu.SystemAccess) {
		pos := tansu.Components[Position](a)
		rows = pos.Len()
		pos.Each(func(_ tansu.Entity, p Position) {
			total += p.X
		})
	}), tansu.Reads[Position]())

	s.Dispatch(sum)
	assert.Equal(t, float32(3), total)
	assert.Equal(t, 2, rows)
}

func TestCrossComponentAlignment(t *testing.T) {
	s := tansu.NewStorage()
	// Two archetypes both carrying Position and Velocity.
	for i := 0; i < 4; i++ {
		s.AddEntity(tansu.C(Position{X: float32(i)}), tansu.C(Velocity{VX: float32(i)}))
	}
	for i := 4; i < 8; i++ {
		s.AddEntity(tansu.C(Position{X: float32(i)}), tansu.C(Velocity{VX: float32(i)}), tansu.C(Health{}))
	}

	check := tansu.NewSystem(tansu.HandlerFunc(func(a *tansu.SystemAccess) {
		pos := tansu.Components[Position](a)
		vel := tansu.Components[Velocity](a)
		require.Equal(t, pos.Len(), vel.Len())
		require.Equal(t, 8, pos.Len())
		for i := 0; i < pos.Len(); i++ {
			// The i-th rows of both views belong to the same entity.
			assert.Equal(t, pos.Entity(i), vel.Entity(i))
			assert.Equal(t, pos.At(i).X, vel.At(i).VX)
		}
	}), tansu.Reads[Position](), tansu.Reads[Velocity]())

	s.Dispatch(check)
}

func TestSystemMatchesFullSetOnly(t *testing.T) {
	s := tansu.NewStorage()
	s.AddEntity(tansu.C(Position{X: 1}))
	s.AddEntity(tansu.C(Position{X: 2}), tansu.C(Velocity{}))

	rows := -1
	both := tansu.NewSystem(tansu.HandlerFunc(func(a *tansu.SystemAccess) {
		rows = tansu.Components[Position](a).Len()
	}), tansu.Reads[Position](), tansu.Reads[Velocity]())

	// Only the {Position,Velocity} archetype matches the full set.
	s.Dispatch(both)
	assert.Equal(t, 1, rows)
}

func TestDispatchParConflictRejected(t *testing.T) {
	s := tansu.NewStorage()
	s.AddEntity(tansu.C(Position{X: 1}))

	var ran atomic.Int32
	mark := func(a *tansu.SystemAccess) { ran.Add(1) }

	s1 := tansu.NewSystem(tansu.HandlerFunc(mark), tansu.Writes[Position]())
	s2 := tansu.NewSystem(tansu.HandlerFunc(mark), tansu.Writes[Position]())

	err := s.DispatchPar(s1, s2)
	require.ErrorIs(t, err, tansu.ErrSchedulingConflict)
	// The call is atomic with respect to the failure: no handler ran.
	assert.Equal(t, int32(0), ran.Load())
}

func TestDispatchParReadWriteConflict(t *testing.T) {
	s := tansu.NewStorage()
	s1 := tansu.NewSystem(tansu.HandlerFunc(func(*tansu.SystemAccess) {}), tansu.Writes[Position]())
	s2 := tansu.NewSystem(tansu.HandlerFunc(func(*tansu.SystemAccess) {}), tansu.Reads[Position]())

	assert.ErrorIs(t, s.DispatchPar(s1, s2), tansu.ErrSchedulingConflict)
	assert.ErrorIs(t, s.DispatchPar(s2, s1), tansu.ErrSchedulingConflict)
}

func TestDispatchParDisjointSystems(t *testing.T) {
	s := tansu.NewStorage(tansu.WithWorkers(4))
	for i := 0; i < 64; i++ {
		s.AddEntity(tansu.C(Position{X: 1}), tansu.C(Health{Current: 1}))
	}

	bumpPos := tansu.NewSystem(tansu.HandlerFunc(func(a *tansu.SystemAccess) {
		tansu.ComponentsMut[Position](a).Each(func(_ tansu.Entity, p *Position) {
			p.X += 1
		})
	}), tansu.Writes[Position]())

	bumpHealth := tansu.NewSystem(tansu.HandlerFunc(func(a *tansu.SystemAccess) {
		tansu.ComponentsMut[Health](a).Each(func(_ tansu.Entity, h *Health) {
			h.Current += 1
		})
	}), tansu.Writes[Health]())

	// Reads on a shared third type do not conflict.
	var reads atomic.Int32
	observe := tansu.NewSystem(tansu.HandlerFunc(func(a *tansu.SystemAccess) {
		tansu.Components[Velocity](a).Each(func(tansu.Entity, Velocity) { reads.Add(1) })
	}), tansu.Reads[Velocity]())

	require.NoError(t, s.DispatchPar(bumpPos, bumpHealth, observe))

	check := tansu.NewSystem(tansu.HandlerFunc(func(a *tansu.SystemAccess) {
		pos := tansu.Components[Position](a)
		for i := 0; i < pos.Len(); i++ {
			assert.Equal(t, float32(2), pos.At(i).X)
		}
	}), tansu.Reads[Position]())
	s.Dispatch(check)
}

func TestUndeclaredAccessPanics(t *testing.T) {
	s := tansu.NewStorage()
	s.AddEntity(tansu.C(Position{}))

	sneaky := tansu.NewSystem(tansu.HandlerFunc(func(a *tansu.SystemAccess) {
		tansu.Components[Velocity](a)
	}), tansu.Reads[Position]())

	assert.Panics(t, func() { s.Dispatch(sneaky) })
}

func TestMutableAccessToReadDeclarationPanics(t *testing.T) {
	s := tansu.NewStorage()
	s.AddEntity(tansu.C(Position{}))

	sneaky := tansu.NewSystem(tansu.HandlerFunc(func(a *tansu.SystemAccess) {
		tansu.ComponentsMut[Position](a)
	}), tansu.Reads[Position]())

	assert.Panics(t, func() { s.Dispatch(sneaky) })
}

func TestDoubleDeclarationPanics(t *testing.T) {
	h := tansu.HandlerFunc(func(*tansu.SystemAccess) {})
	assert.Panics(t, func() {
		tansu.NewSystem(h, tansu.Reads[Position](), tansu.Writes[Position]())
	})
	assert.Panics(t, func() {
		tansu.NewSystem(h, tansu.Reads[Position](), tansu.Reads[Position]())
	})
}

func TestStructuralMutationDuringDispatchPanics(t *testing.T) {
	s := tansu.NewStorage()
	s.AddEntity(tansu.C(Position{}))

	rogue := tansu.NewSystem(tansu.HandlerFunc(func(a *tansu.SystemAccess) {
		s.AddEntity(tansu.C(Position{}))
	}), tansu.Reads[Position]())

	assert.Panics(t, func() { s.Dispatch(rogue) })
}
