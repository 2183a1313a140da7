package scoring

import "errors"

// Sentinel kinds for scoring errors.
var (
	ErrLengthMismatch = errors.New("ground truth and prediction lengths differ")
)
