package fetcher

import "errors"

// Sentinel kinds for fetch errors.
var (
	ErrBadURI    = errors.New("invalid image uri")
	ErrBadStatus = errors.New("unexpected http status")
)
