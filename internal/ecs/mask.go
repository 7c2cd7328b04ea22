package ecs

import "math/bits"

// MaxKinds is the number of distinct component kinds a Mask can hold.
const MaxKinds = 32

// Kind identifies a component kind. The catalog of kinds lives in the
// component package; ecs only needs them as bit positions.
type Kind uint8

// Mask is the set of component kinds attached to an entity.
type Mask uint32

// MaskOf builds a mask from kinds.
func MaskOf(kinds ...Kind) Mask {
	var m Mask
	for _, k := range kinds {
		m = m.With(k)
	}
	return m
}

// Has reports whether k is in the mask.
func (m Mask) Has(k Kind) bool { return m&(1<<k) != 0 }

// Contains reports whether every kind in sub is also in m.
func (m Mask) Contains(sub Mask) bool { return m&sub == sub }

// With returns m with k added.
func (m Mask) With(k Kind) Mask { return m | 1<<k }

// Without returns m with k removed.
func (m Mask) Without(k Kind) Mask { return m &^ (1 << k) }

// Len returns the number of kinds in the mask.
func (m Mask) Len() int { return bits.OnesCount32(uint32(m)) }

// Kinds returns the kinds in ascending order.
func (m Mask) Kinds() []Kind {
	out := make([]Kind, 0, m.Len())
	for v := uint32(m); v != 0; v &= v - 1 {
		out = append(out, Kind(bits.TrailingZeros32(v)))
	}
	return out
}
