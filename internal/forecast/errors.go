package forecast

import (
	"errors"
	"fmt"
	"time"
)

// Engine errors
var (
	ErrPrecondition = errors.New("forecast precondition violated")
	ErrModel        = errors.New("regressor failed")
	ErrNonNumeric   = errors.New("regressor returned non-numeric value")
)

// PreconditionError describes an input that cannot be forecast.
type PreconditionError struct {
	Index  int // day index, -1 when not tied to a single day
	Date   time.Time
	Field  string
	Reason string
}

func (e *PreconditionError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%v: %s: %s", ErrPrecondition, e.Field, e.Reason)
	}
	return fmt.Sprintf("%v: day %d (%s): %s: %s",
		ErrPrecondition, e.Index, e.Date.Format("2006-01-02"), e.Field, e.Reason)
}

func (e *PreconditionError) Unwrap() error { return ErrPrecondition }

// ModelError wraps a regressor failure with the day it happened on.
type ModelError struct {
	Index int
	Date  time.Time
	Err   error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("day %d (%s): %v", e.Index, e.Date.Format("2006-01-02"), e.Err)
}

func (e *ModelError) Unwrap() error { return e.Err }
