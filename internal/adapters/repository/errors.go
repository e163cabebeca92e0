package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidSource = errors.New("invalid data source")
	ErrInvalidTable  = errors.New("invalid rank baseline table")
)
