package scoring

import "errors"

// Sentinel error kinds for this package.
var (
	ErrEmptyHistory     = errors.New("empty match history")
	ErrUnknownMode      = errors.New("unknown scoring mode")
	ErrUnknownSelection = errors.New("unknown metric selection")
)
