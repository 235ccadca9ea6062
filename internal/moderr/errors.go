package moderr

import (
	"errors"
)

// Error kinds shared across layers. Wrap with fmt.Errorf("...: %w", Err...)
// so callers can classify failures with errors.Is.
var (
	ErrConfig     = errors.New("invalid configuration")
	ErrStorage    = errors.New("storage error")
	ErrValidation = errors.New("invalid input")
	ErrNotFound   = errors.New("not found")
)
