package service

import (
	"errors"
	"fmt"
)

// Sentinel kinds for service errors. Every lookup miss wraps ErrNotFound.
var (
	ErrNotFound             = errors.New("not found")
	ErrUserHistoryNotFound  = fmt.Errorf("user history %w", ErrNotFound)
	ErrUserRankNotFound     = fmt.Errorf("user rank %w", ErrNotFound)
	ErrRankBaselineNotFound = fmt.Errorf("rank baseline %w", ErrNotFound)
	ErrNotStarted           = errors.New("service not started")
	ErrInvalidRequest       = errors.New("invalid request")
)

// LookupError reports a missing history, rank or baseline together with the
// identifier that was looked up.
type LookupError struct {
	Kind error
	ID   string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("%v: %s", e.Kind, e.ID)
}

// Unwrap returns the kind so errors.Is matches the sentinels.
func (e *LookupError) Unwrap() error { return e.Kind }

// NotFound reports whether the error is a lookup miss.
func (e *LookupError) NotFound() bool { return errors.Is(e.Kind, ErrNotFound) }

// RequestError reports input the service cannot score. It wraps
// ErrInvalidRequest.
type RequestError struct {
	Reason string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%v: %s", ErrInvalidRequest, e.Reason)
}

func (e *RequestError) Unwrap() error { return ErrInvalidRequest }

// BadRequest reports that the caller supplied the faulty input.
func (e *RequestError) BadRequest() bool { return true }

func invalidRequest(format string, args ...any) error {
	return &RequestError{Reason: fmt.Sprintf(format, args...)}
}

func lookupKind(err error) string {
	switch {
	case errors.Is(err, ErrUserHistoryNotFound):
		return "user_history"
	case errors.Is(err, ErrUserRankNotFound):
		return "user_rank"
	case errors.Is(err, ErrRankBaselineNotFound):
		return "rank_baseline"
	default:
		return "other"
	}
}
