package tansu

import "math/bits"

// mask represents a set of up to 256 component ids. A mask is the canonical
// key of an archetype: two entities live in the same archetype iff their
// component sets produce the same mask.
type mask [maskWords]uint64

// has reports whether the bit for id is set.
func (m mask) has(id ComponentID) bool {
	return m[id>>6]&(1<<(id&63)) != 0
}

// with returns a copy of m with the bit for id set.
func (m mask) with(id ComponentID) mask {
	m[id>>6] |= 1 << (id & 63)
	return m
}

// without returns a copy of m with the bit for id cleared.
func (m mask) without(id ComponentID) mask {
	m[id>>6] &^= 1 << (id & 63)
	return m
}

// contains reports whether every bit of sub is also set in m.
func (m mask) contains(sub mask) bool {
	return m[0]&sub[0] == sub[0] &&
		m[1]&sub[1] == sub[1] &&
		m[2]&sub[2] == sub[2] &&
		m[3]&sub[3] == sub[3]
}

// overlaps reports whether m and other share at least one bit.
func (m mask) overlaps(other mask) bool {
	return m[0]&other[0] != 0 ||
		m[1]&other[1] != 0 ||
		m[2]&other[2] != 0 ||
		m[3]&other[3] != 0
}

// intersect returns the set of bits present in both masks.
func (m mask) intersect(other mask) mask {
	var out mask
	for i := range m {
		out[i] = m[i] & other[i]
	}
	return out
}

// count returns the number of set bits.
func (m mask) count() int {
	n := 0
	for i := range m {
		n += bits.OnesCount64(m[i])
	}
	return n
}

// ids returns the component ids in the mask in ascending order.
func (m mask) ids() []ComponentID {
	out := make([]ComponentID, 0, m.count())
	for w, word := range m {
		for word != 0 {
			bit := bits.TrailingZeros64(word)
			out = append(out, ComponentID(w*bitsPerWord+bit))
			word &= word - 1
		}
	}
	return out
}

// makeMask builds a mask from a list of component ids.
func makeMask(ids ...ComponentID) mask {
	var m mask
	for _, id := range ids {
		m[id>>6] |= 1 << (id & 63)
	}
	return m
}
