package analysis

import (
	"errors"
	"fmt"
)

var (
	// ErrUniverseTooLarge is returned when the universe exceeds the attribute
	// ceiling. Key enumeration is exponential in the number of attributes.
	ErrUniverseTooLarge = errors.New("relnorm/analysis: universe too large for key enumeration")

	// ErrNoCandidateKey is returned by Decompose when the candidate key list is
	// empty. This only happens for an empty universe.
	ErrNoCandidateKey = errors.New("relnorm/analysis: no key available to complete decomposition")
)

// CapacityError reports a universe above the configured attribute ceiling.
type CapacityError struct {
	Attributes int
	Limit      int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("%v: %d attributes exceeds limit of %d", ErrUniverseTooLarge, e.Attributes, e.Limit)
}

func (e *CapacityError) Unwrap() error {
	return ErrUniverseTooLarge
}

// IsUniverseTooLargeErr returns true if err is or wraps ErrUniverseTooLarge.
func IsUniverseTooLargeErr(err error) bool {
	return errors.Is(err, ErrUniverseTooLarge)
}

// IsNoCandidateKeyErr returns true if err is or wraps ErrNoCandidateKey.
func IsNoCandidateKeyErr(err error) bool {
	return errors.Is(err, ErrNoCandidateKey)
}
