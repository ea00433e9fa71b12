package parser

import "errors"

// ErrInvalidDDL is returned when no column list can be extracted from a
// table definition.
var ErrInvalidDDL = errors.New("relnorm/parser: invalid table definition")

// IsInvalidDDLErr returns true if err is or wraps ErrInvalidDDL.
func IsInvalidDDLErr(err error) bool {
	return errors.Is(err, ErrInvalidDDL)
}
