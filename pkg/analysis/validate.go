package analysis

import (
	"fmt"

	"github.com/pthm/relnorm/pkg/schema"
)

// Status tags a Validation as accepted or rejected.
type Status int

const (
	// Accepted means the dependency takes part in the analysis.
	Accepted Status = iota
	// Rejected means the dependency was excluded; Reason says why.
	Rejected
)

func (s Status) String() string {
	switch s {
	case Accepted:
		return "accepted"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Reason explains why a dependency was rejected.
type Reason string

const (
	ReasonEmptyLHS         Reason = "empty-lhs"
	ReasonEmptyRHS         Reason = "empty-rhs"
	ReasonUnknownAttribute Reason = "unknown-attribute"
)

// Validation is the outcome of checking one dependency against a universe.
type Validation struct {
	// Index is the dependency's position in the input list.
	Index      int                         `json:"index"`
	Dependency schema.FunctionalDependency `json:"dependency"`
	Status     Status                      `json:"status"`

	// Reason and Unknown are set only for rejected dependencies. Unknown
	// lists the attributes outside the universe.
	Reason  Reason              `json:"reason,omitempty"`
	Unknown schema.AttributeSet `json:"unknown,omitzero"`
}

// IsAccepted reports whether the dependency passed validation.
func (v Validation) IsAccepted() bool {
	return v.Status == Accepted
}

// Message returns a one-line description of the outcome.
func (v Validation) Message() string {
	switch {
	case v.Status == Accepted:
		return fmt.Sprintf("%s accepted", v.Dependency)
	case v.Reason == ReasonUnknownAttribute:
		return fmt.Sprintf("%s rejected: attributes %s are not in the schema", v.Dependency, v.Unknown)
	case v.Reason == ReasonEmptyLHS:
		return fmt.Sprintf("%s rejected: empty left-hand side", v.Dependency)
	case v.Reason == ReasonEmptyRHS:
		return fmt.Sprintf("%s rejected: empty right-hand side", v.Dependency)
	default:
		return fmt.Sprintf("%s rejected", v.Dependency)
	}
}

// ValidateDependencies checks every dependency against u and returns one
// Validation per input, in input order.
//
// A dependency is rejected when its LHS or RHS is empty or when it names an
// attribute outside u. Rejected dependencies would otherwise fire
// unconditionally (empty LHS) or pull attributes outside the universe into
// closures.
func ValidateDependencies(u *schema.Universe, fds []schema.FunctionalDependency) []Validation {
	out := make([]Validation, len(fds))
	for i, fd := range fds {
		v := Validation{Index: i, Dependency: fd, Status: Accepted}
		switch {
		case fd.LHS.IsEmpty():
			v.Status, v.Reason = Rejected, ReasonEmptyLHS
		case fd.RHS.IsEmpty():
			v.Status, v.Reason = Rejected, ReasonEmptyRHS
		default:
			if unknown := u.Unknown(fd.Attributes()); !unknown.IsEmpty() {
				v.Status, v.Reason, v.Unknown = Rejected, ReasonUnknownAttribute, unknown
			}
		}
		out[i] = v
	}
	return out
}

// AcceptedDependencies returns the dependencies that passed validation, in order.
func AcceptedDependencies(validations []Validation) []schema.FunctionalDependency {
	out := make([]schema.FunctionalDependency, 0, len(validations))
	for _, v := range validations {
		if v.IsAccepted() {
			out = append(out, v.Dependency)
		}
	}
	return out
}

// RejectedCount returns how many validations were rejected.
func RejectedCount(validations []Validation) int {
	n := 0
	for _, v := range validations {
		if !v.IsAccepted() {
			n++
		}
	}
	return n
}
