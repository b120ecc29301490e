package optimizer

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is the sentinel wrapped by every *ConfigError.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInconsistent is the sentinel wrapped by every *InternalError.
	ErrInconsistent = errors.New("internal inconsistency")

	// ErrNotConverged is wrapped by every *NotConvergedError.
	ErrNotConverged = errors.New("optimizer did not converge")
)

// NotConvergedError reports why the move/split loop stopped before a
// fixpoint. It is only returned when Params.RequireFixpoint is set.
type NotConvergedError struct {
	Reason string
}

func (e *NotConvergedError) Error() string {
	return fmt.Sprintf("%s: %s", ErrNotConverged, e.Reason)
}

func (e *NotConvergedError) Unwrap() error { return ErrNotConverged }

// ConfigError reports a rejected run parameter.
type ConfigError struct {
	Name   string
	Value  any
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Name, e.Value, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrInvalidConfig }

// InternalError reports a condition the algorithm rules out, such as a
// negative marginal cost or a split that loses records. It always indicates
// a bug in the optimizer or a misbehaving cluster implementation.
type InternalError struct {
	Phase  Phase
	Detail string
	cause  error
}

func (e *InternalError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %s: %v", ErrInconsistent, e.Phase, e.Detail, e.cause)
	}
	return fmt.Sprintf("%s: %s: %s", ErrInconsistent, e.Phase, e.Detail)
}

func (e *InternalError) Unwrap() []error {
	if e.cause != nil {
		return []error{ErrInconsistent, e.cause}
	}
	return []error{ErrInconsistent}
}

func internalf(phase Phase, format string, args ...any) error {
	return &InternalError{Phase: phase, Detail: fmt.Sprintf(format, args...)}
}

func internalErr(phase Phase, detail string, cause error) error {
	return &InternalError{Phase: phase, Detail: detail, cause: cause}
}
