package schema

// Universe is the interned, immutable attribute set of one schema.
// Attributes are indexed in sorted order, so index order matches the
// iteration order of the equivalent AttributeSet.
type Universe struct {
	attrs []Attribute
	index map[Attribute]int
}

// NewUniverse interns the members of set.
func NewUniverse(set AttributeSet) *Universe {
	u := &Universe{
		attrs: set.Attributes(),
		index: make(map[Attribute]int, set.Len()),
	}
	for i, a := range u.attrs {
		u.index[a] = i
	}
	return u
}

// Len returns the number of attributes.
func (u *Universe) Len() int {
	return len(u.attrs)
}

// Attributes returns the universe as an AttributeSet.
func (u *Universe) Attributes() AttributeSet {
	return NewAttributeSet(u.attrs...)
}

// Attribute returns the attribute at index i.
func (u *Universe) Attribute(i int) Attribute {
	return u.attrs[i]
}

// Index returns the index of a, or false if a is not part of the universe.
func (u *Universe) Index(a Attribute) (int, bool) {
	i, ok := u.index[a]
	return i, ok
}

// Contains reports whether a is part of the universe.
func (u *Universe) Contains(a Attribute) bool {
	_, ok := u.index[a]
	return ok
}

// Unknown returns the members of set that are not part of the universe.
func (u *Universe) Unknown(set AttributeSet) AttributeSet {
	var out []Attribute
	for _, a := range set.attrs {
		if !u.Contains(a) {
			out = append(out, a)
		}
	}
	return AttributeSet{attrs: out}
}

// Empty returns an empty bitset sized for this universe.
func (u *Universe) Empty() Bitset {
	return NewBitset(len(u.attrs))
}

// Full returns the bitset holding every attribute.
func (u *Universe) Full() Bitset {
	b := u.Empty()
	for i := range u.attrs {
		b.Set(i)
	}
	return b
}

// Bitset converts set into a bitset. It returns ErrUnknownAttribute, wrapped
// with the first offending name, when set has members outside the universe.
func (u *Universe) Bitset(set AttributeSet) (Bitset, error) {
	b := u.Empty()
	for _, a := range set.attrs {
		i, ok := u.index[a]
		if !ok {
			return nil, unknownAttributeError(a)
		}
		b.Set(i)
	}
	return b, nil
}

// Set converts b back into an AttributeSet.
func (u *Universe) Set(b Bitset) AttributeSet {
	idx := b.Indices()
	if len(idx) == 0 {
		return AttributeSet{}
	}
	out := make([]Attribute, len(idx))
	for i, j := range idx {
		out[i] = u.attrs[j]
	}
	// Indices ascend and attrs are sorted, so out is already a valid set.
	return AttributeSet{attrs: out}
}
