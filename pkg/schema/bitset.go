package schema

import "math/bits"

const wordSize = 64

// Bitset is an index-based subset of a Universe. Bit i is set when the
// attribute at index i is a member.
//
// Bitsets compared or combined with each other must come from the same
// Universe so that they have the same word length.
type Bitset []uint64

// NewBitset returns an empty bitset able to hold n attributes.
func NewBitset(n int) Bitset {
	return make(Bitset, (n+wordSize-1)/wordSize)
}

// Set adds index i.
func (b Bitset) Set(i int) {
	b[i/wordSize] |= 1 << (uint(i) % wordSize)
}

// Has reports whether index i is a member.
func (b Bitset) Has(i int) bool {
	return b[i/wordSize]&(1<<(uint(i)%wordSize)) != 0
}

// Clone returns an independent copy.
func (b Bitset) Clone() Bitset {
	out := make(Bitset, len(b))
	copy(out, b)
	return out
}

// IsSubsetOf reports whether every member of b is a member of other.
func (b Bitset) IsSubsetOf(other Bitset) bool {
	for i, w := range b {
		if w&^other[i] != 0 {
			return false
		}
	}
	return true
}

// Equal reports whether both bitsets have the same members.
func (b Bitset) Equal(other Bitset) bool {
	for i, w := range b {
		if w != other[i] {
			return false
		}
	}
	return true
}

// UnionWith adds every member of other to b in place and reports whether b grew.
func (b Bitset) UnionWith(other Bitset) bool {
	grew := false
	for i, w := range other {
		next := b[i] | w
		if next != b[i] {
			b[i] = next
			grew = true
		}
	}
	return grew
}

// Count returns the number of members.
func (b Bitset) Count() int {
	n := 0
	for _, w := range b {
		n += bits.OnesCount64(w)
	}
	return n
}

// Indices returns the member indexes in ascending order.
func (b Bitset) Indices() []int {
	out := make([]int, 0, b.Count())
	for wi, w := range b {
		for w != 0 {
			tz := bits.TrailingZeros64(w)
			out = append(out, wi*wordSize+tz)
			w &= w - 1
		}
	}
	return out
}
