package tansu

import "errors"

// Lookup and mutation failures are reported as wrapped sentinel errors so
// callers can test them with errors.Is. Programmer errors (undeclared
// access, duplicate declarations) and resource exhaustion panic instead;
// they are not recoverable conditions.
var (
	// ErrEntityNotFound reports a stale, freed or out-of-range entity id.
	ErrEntityNotFound = errors.New("entity not found")

	// ErrComponentMissing reports a component type that is not part of the
	// entity's current archetype.
	ErrComponentMissing = errors.New("component not present on entity")

	// ErrDuplicateComponent reports an AddComponent for a type the entity
	// already has.
	ErrDuplicateComponent = errors.New("component already present on entity")

	// ErrSchedulingConflict reports two systems handed to DispatchPar that
	// declare the same component type with at least one Write side. The
	// dispatch is rejected before any handler runs.
	ErrSchedulingConflict = errors.New("conflicting component access between systems")
)
