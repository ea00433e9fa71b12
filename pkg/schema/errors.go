package schema

import (
	"errors"
	"fmt"
)

// ErrUnknownAttribute is returned when an attribute is not part of a Universe.
var ErrUnknownAttribute = errors.New("relnorm/schema: unknown attribute")

// IsUnknownAttributeErr returns true if err is or wraps ErrUnknownAttribute.
func IsUnknownAttributeErr(err error) bool {
	return errors.Is(err, ErrUnknownAttribute)
}

func unknownAttributeError(a Attribute) error {
	return fmt.Errorf("%w: %q", ErrUnknownAttribute, a)
}
