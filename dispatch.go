package tansu

import (
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Dispatch runs systems strictly in list order on the calling goroutine.
// Each system sees the writes of every system before it; there is no
// isolation between systems within one dispatch. Structural mutation is
// barred for the duration of the call.
func (s *Storage) Dispatch(systems ...*System) {
	s.dispatching = true
	defer func() { s.dispatching = false }()

	for _, sys := range systems {
		sys.handler.Run(newSystemAccess(sys, s.archetypes.matching(sys.declared)))
	}
}

// DispatchPar runs systems concurrently over a bounded worker pool and
// returns once every handler has completed. Before anything runs it checks
// every pair of systems for conflicting access: a shared component type
// where at least one side declared Write. Any conflict rejects the whole
// call with ErrSchedulingConflict and no handler executes. Relative order
// among the systems of a successful call is unspecified.
func (s *Storage) DispatchPar(systems ...*System) error {
	for i := 0; i < len(systems); i++ {
		for j := i + 1; j < len(systems); j++ {
			if id, conflict := systemsConflict(systems[i], systems[j]); conflict {
				s.log.Warn("parallel dispatch rejected",
					zap.Int("system_a", i),
					zap.Int("system_b", j),
					zap.Stringer("component", typeOf(id)))
				return fmt.Errorf("systems %d and %d contend on %s: %w",
					i, j, typeOf(id), ErrSchedulingConflict)
			}
		}
	}

	// Build every access up front; handler goroutines then never touch
	// the registry maps.
	accesses := make([]*SystemAccess, len(systems))
	for i, sys := range systems {
		accesses[i] = newSystemAccess(sys, s.archetypes.matching(sys.declared))
	}

	s.dispatching = true
	defer func() { s.dispatching = false }()

	s.log.Debug("parallel dispatch",
		zap.Int("systems", len(systems)),
		zap.Int("workers", s.workers))

	var g errgroup.Group
	g.SetLimit(s.workers)
	for i, sys := range systems {
		run, access := sys.handler, accesses[i]
		g.Go(func() error {
			run.Run(access)
			return nil
		})
	}
	// Handlers have no error path; Wait is only the join barrier.
	return g.Wait()
}

// systemsConflict reports whether a and b may not run concurrently: they
// share a declared component type and at least one of them writes it.
func systemsConflict(a, b *System) (ComponentID, bool) {
	if a.writes.overlaps(b.declared) {
		return a.writes.intersect(b.declared).ids()[0], true
	}
	if b.writes.overlaps(a.declared) {
		return b.writes.intersect(a.declared).ids()[0], true
	}
	return 0, false
}
