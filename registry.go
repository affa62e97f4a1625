package tansu

// archetypeRegistry maps canonical component-set masks to archetypes,
// creating them on first request. Archetypes are never destroyed; an
// emptied archetype keeps its id and storage, ready for reuse.
type archetypeRegistry struct {
	byKey map[mask]int32
	all   []*archetype
}

func newArchetypeRegistry() archetypeRegistry {
	return archetypeRegistry{
		byKey: make(map[mask]int32, 16),
		all:   make([]*archetype, 0, 16),
	}
}

// getOrCreate returns the archetype for key, allocating and registering it
// on first request. Idempotent: an existing key is never duplicated.
// created reports whether this call allocated the archetype.
func (r *archetypeRegistry) getOrCreate(key mask) (arch *archetype, created bool) {
	if idx, ok := r.byKey[key]; ok {
		return r.all[idx], false
	}
	arch = newArchetype(int32(len(r.all)), key)
	r.all = append(r.all, arch)
	r.byKey[key] = arch.id
	return arch, true
}

// at returns the archetype with the given id.
func (r *archetypeRegistry) at(id int32) *archetype {
	return r.all[id]
}

// matching returns every archetype whose key is a superset of required, in
// ascending archetype id order. The order is stable for the life of the
// registry; flattened system views rely on it for cross-component row
// alignment.
func (r *archetypeRegistry) matching(required mask) []*archetype {
	out := make([]*archetype, 0, len(r.all))
	for _, a := range r.all {
		if a.key.contains(required) {
			out = append(out, a)
		}
	}
	return out
}
