package schema

import "strings"

// FunctionalDependency states that the values of LHS determine the values of RHS.
//
// LHS and RHS are expected to be non-empty and drawn from the schema's
// universe. The type does not enforce this; analysis.ValidateDependencies
// reports violations.
type FunctionalDependency struct {
	LHS AttributeSet `json:"lhs"`
	RHS AttributeSet `json:"rhs"`
}

// NewDependency builds a dependency from attribute lists.
func NewDependency(lhs, rhs []Attribute) FunctionalDependency {
	return FunctionalDependency{
		LHS: NewAttributeSet(lhs...),
		RHS: NewAttributeSet(rhs...),
	}
}

// Attributes returns LHS ∪ RHS.
func (fd FunctionalDependency) Attributes() AttributeSet {
	return fd.LHS.Union(fd.RHS)
}

// String formats the dependency as "a,b->c".
func (fd FunctionalDependency) String() string {
	return strings.Join(fd.LHS.Strings(), ",") + "->" + strings.Join(fd.RHS.Strings(), ",")
}

// DependencyAttributes returns every attribute named by fds.
func DependencyAttributes(fds []FunctionalDependency) AttributeSet {
	var all []Attribute
	for _, fd := range fds {
		all = append(all, fd.LHS.attrs...)
		all = append(all, fd.RHS.attrs...)
	}
	return NewAttributeSet(all...)
}
