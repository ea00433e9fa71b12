// Package schema provides the relational schema types analyzed by relnorm.
//
// This package contains the data structures shared by the parser, the
// analysis engine and the renderers. It has no dependencies beyond the
// standard library so that every other package can import it.
//
// # Key Types
//
// Attribute is an opaque column name. Names are compared byte for byte; no
// case folding is applied. Callers that want case-insensitive analysis
// normalize names before building sets (see parser.WithUpperCase).
//
// AttributeSet is an immutable set of attributes kept sorted, so printing and
// comparing sets is deterministic:
//
//	key := schema.NewAttributeSet("order_id", "line_no")
//	key.String() // "{line_no, order_id}"
//
// FunctionalDependency states that the values of LHS determine the values of
// RHS:
//
//	fd := schema.NewDependency([]schema.Attribute{"order_id"}, []schema.Attribute{"customer_id"})
//
// Universe interns the attributes of one schema into a stable index order and
// Bitset is an index-based subset of a Universe. The analysis engine works on
// bitsets; everything crossing a package boundary uses AttributeSet.
package schema

import (
	"encoding/json"
	"sort"
	"strings"
)

// Attribute is a column name.
type Attribute string

// AttributeSet is an immutable, sorted set of attributes.
// The zero value is the empty set.
type AttributeSet struct {
	attrs []Attribute
}

// NewAttributeSet builds a set from attrs, dropping duplicates.
func NewAttributeSet(attrs ...Attribute) AttributeSet {
	if len(attrs) == 0 {
		return AttributeSet{}
	}
	out := make([]Attribute, len(attrs))
	copy(out, attrs)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	// Compact in place
	n := 1
	for i := 1; i < len(out); i++ {
		if out[i] != out[n-1] {
			out[n] = out[i]
			n++
		}
	}
	return AttributeSet{attrs: out[:n]}
}

// AttributeSetFromStrings builds a set from plain strings.
func AttributeSetFromStrings(names []string) AttributeSet {
	attrs := make([]Attribute, len(names))
	for i, n := range names {
		attrs[i] = Attribute(n)
	}
	return NewAttributeSet(attrs...)
}

// Len returns the number of attributes in the set.
func (s AttributeSet) Len() int {
	return len(s.attrs)
}

// IsEmpty reports whether the set has no attributes.
func (s AttributeSet) IsEmpty() bool {
	return len(s.attrs) == 0
}

// Attributes returns a copy of the members in sorted order.
func (s AttributeSet) Attributes() []Attribute {
	out := make([]Attribute, len(s.attrs))
	copy(out, s.attrs)
	return out
}

// Strings returns the members as sorted strings.
func (s AttributeSet) Strings() []string {
	out := make([]string, len(s.attrs))
	for i, a := range s.attrs {
		out[i] = string(a)
	}
	return out
}

// Contains reports whether a is a member of the set.
func (s AttributeSet) Contains(a Attribute) bool {
	i := sort.Search(len(s.attrs), func(i int) bool { return s.attrs[i] >= a })
	return i < len(s.attrs) && s.attrs[i] == a
}

// IsSubsetOf reports whether every member of s is a member of other.
func (s AttributeSet) IsSubsetOf(other AttributeSet) bool {
	if len(s.attrs) > len(other.attrs) {
		return false
	}
	// Both sides are sorted, so a merge walk is enough.
	j := 0
	for _, a := range s.attrs {
		for j < len(other.attrs) && other.attrs[j] < a {
			j++
		}
		if j == len(other.attrs) || other.attrs[j] != a {
			return false
		}
		j++
	}
	return true
}

// IsProperSubsetOf reports whether s is a subset of other and smaller.
func (s AttributeSet) IsProperSubsetOf(other AttributeSet) bool {
	return len(s.attrs) < len(other.attrs) && s.IsSubsetOf(other)
}

// Equal reports whether both sets have the same members.
func (s AttributeSet) Equal(other AttributeSet) bool {
	if len(s.attrs) != len(other.attrs) {
		return false
	}
	for i := range s.attrs {
		if s.attrs[i] != other.attrs[i] {
			return false
		}
	}
	return true
}

// Union returns a new set holding the members of both sets.
func (s AttributeSet) Union(other AttributeSet) AttributeSet {
	merged := make([]Attribute, 0, len(s.attrs)+len(other.attrs))
	merged = append(merged, s.attrs...)
	merged = append(merged, other.attrs...)
	return NewAttributeSet(merged...)
}

// Difference returns the members of s that are not in other.
func (s AttributeSet) Difference(other AttributeSet) AttributeSet {
	var out []Attribute
	for _, a := range s.attrs {
		if !other.Contains(a) {
			out = append(out, a)
		}
	}
	return AttributeSet{attrs: out}
}

// Compare orders sets by size, then lexicographically by member names.
// It returns -1, 0 or 1.
func (s AttributeSet) Compare(other AttributeSet) int {
	if len(s.attrs) != len(other.attrs) {
		if len(s.attrs) < len(other.attrs) {
			return -1
		}
		return 1
	}
	for i := range s.attrs {
		if c := strings.Compare(string(s.attrs[i]), string(other.attrs[i])); c != 0 {
			return c
		}
	}
	return 0
}

// String formats the set as "{a, b, c}".
func (s AttributeSet) String() string {
	return "{" + strings.Join(s.Strings(), ", ") + "}"
}

// MarshalJSON encodes the set as a sorted array of names.
func (s AttributeSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Strings())
}

// UnmarshalJSON decodes an array of names.
func (s *AttributeSet) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	*s = AttributeSetFromStrings(names)
	return nil
}

// SortSets orders sets by size, then lexicographically.
func SortSets(sets []AttributeSet) {
	sort.SliceStable(sets, func(i, j int) bool {
		return sets[i].Compare(sets[j]) < 0
	})
}
