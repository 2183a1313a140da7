package sanity

import "errors"

// Sentinel errors returned by the checker.
var (
	ErrInvalidFormat = errors.New("invalid prediction format")
	ErrInvalidUnit   = errors.New("invalid prediction unit")
)
