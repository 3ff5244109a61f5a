package rig

import (
	"errors"
	"fmt"

	"github.com/chaz8081/turntable-remote/internal/ble/attr"
)

// Link-level conditions. They are logged and reflected in the snapshot,
// never returned from the setter operations.
var (
	ErrLinkUnavailable     = errors.New("rig: link unavailable")
	ErrDiscoveryIncomplete = errors.New("rig: discovery incomplete")
	ErrPeripheralNotFound  = errors.New("rig: peripheral not found")
)

// ErrStopped is returned by operations issued after Run has returned.
var ErrStopped = errors.New("rig: controller stopped")

// ParseError reports input text that does not convert to the field's type.
type ParseError struct {
	Field attr.ID
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("rig: %s: cannot parse %q", e.Field, e.Input)
}

func (e *ParseError) Unwrap() error { return e.Err }

// RangeError reports a parsed value outside the field's domain.
type RangeError struct {
	Field    attr.ID
	Input    string
	Min, Max float64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("rig: %s: %q outside [%g, %g]", e.Field, e.Input, e.Min, e.Max)
}

// Result is the outcome reported to the user for a setter call.
type Result int

const (
	Success Result = iota
	ValueError
	InvalidValue
)

func (r Result) String() string {
	switch r {
	case Success:
		return "Success"
	case ValueError:
		return "Value error"
	case InvalidValue:
		return "Invalid value"
	}
	return fmt.Sprintf("result(%d)", int(r))
}

// ResultOf classifies a setter error.
func ResultOf(err error) Result {
	var rangeErr *RangeError
	switch {
	case err == nil:
		return Success
	case errors.As(err, &rangeErr):
		return InvalidValue
	default:
		return ValueError
	}
}
