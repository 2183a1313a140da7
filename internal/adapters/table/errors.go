package table

import "errors"

// Sentinel kinds for table errors.
var (
	ErrNotFound      = errors.New("table not found")
	ErrNotCSV        = errors.New("only csv files are allowed")
	ErrMissingColumn = errors.New("missing column")
	ErrEmptyTable    = errors.New("table has no header")
)
