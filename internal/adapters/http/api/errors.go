package api

import (
	"errors"
	"fmt"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest    = errors.New("bad request")
	ErrMissingFields = errors.New("Missing player, score, or playTime")
	ErrRateLimited   = errors.New("rate limit exceeded")
	ErrUpstream      = errors.New("upstream failure")
)

// Error ties a failure to the handler operation that produced it. Kind is
// one of the sentinels above and is what errors.Is matches against.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil:
		return e.Err.Error()
	case e.Kind != nil:
		return e.Kind.Error()
	}
	return e.Op
}

// Unwrap exposes both the kind and the cause.
func (e *Error) Unwrap() []error {
	var errs []error
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// WrapKind attaches op and kind to err.
func WrapKind(op string, kind, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// NewKind returns an error of kind raised by op.
func NewKind(op string, kind error) error {
	return &Error{Op: op, Kind: kind}
}

// Errorf is WrapKind with a formatted cause.
func Errorf(op string, kind error, format string, args ...any) error {
	return WrapKind(op, kind, fmt.Errorf(format, args...))
}
