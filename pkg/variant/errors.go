package variant

import (
	"errors"
	"fmt"
)

var (
	// ErrTypeMismatch is returned when a keyed access targets a variant that
	// holds a non-default value which cannot become a hash.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrMalformedProgram is returned when the instruction stream announces a
	// field access but does not follow it with a string key.
	ErrMalformedProgram = errors.New("malformed program")
)

// typeMismatch wraps ErrTypeMismatch with the offending kind.
func typeMismatch(k Kind) error {
	return fmt.Errorf("keyed access on %s: %w", k, ErrTypeMismatch)
}
