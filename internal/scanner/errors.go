package scanner

import (
	"errors"
	"fmt"
)

// Target validation errors. These are the only run-terminating failures:
// every module assumes a resolvable, well-formed target and does not
// re-validate.
var (
	ErrEmptyHost        = errors.New("target host is empty")
	ErrUnresolvableHost = errors.New("target host does not resolve")
)

// ValidationError reports a target that failed validation before any module
// ran. It wraps one of the sentinel errors above.
type ValidationError struct {
	Target string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid target %q: %v", e.Target, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }
