package kanon

import (
	"errors"
	"fmt"

	"github.com/hupe1980/kanon/internal/optimizer"
)

var (
	// ErrInvalidConfig is wrapped by every *ErrInvalidParameter.
	ErrInvalidConfig = errors.New("kanon: invalid configuration")

	// ErrInconsistent is wrapped by every *ErrInternal.
	ErrInconsistent = errors.New("kanon: internal inconsistency")

	// ErrNotConverged is returned when WithRequireFixpoint is set and the
	// round cap, the time budget or the stall check ends the search before a
	// fixpoint.
	ErrNotConverged = errors.New("kanon: optimizer did not converge")
)

// ErrInvalidParameter indicates a rejected run parameter. It is returned
// before any state is modified.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrInvalidParameter struct {
	Name   string
	Value  any
	Reason string
	cause  error
}

func (e *ErrInvalidParameter) Error() string {
	return fmt.Sprintf("kanon: invalid %s %v: %s", e.Name, e.Value, e.Reason)
}

func (e *ErrInvalidParameter) Unwrap() []error {
	if e.cause == nil {
		return []error{ErrInvalidConfig}
	}
	return []error{ErrInvalidConfig, e.cause}
}

// ErrInternal indicates a condition the algorithm rules out, such as a
// negative marginal cost or a split that loses records. It points at a bug
// in kanon or in the cluster implementation of the oracle.
type ErrInternal struct {
	Phase Phase
	cause error
}

func (e *ErrInternal) Error() string {
	return fmt.Sprintf("kanon: %v", e.cause)
}

func (e *ErrInternal) Unwrap() []error {
	return []error{ErrInconsistent, e.cause}
}

// notConverged carries the stop reason of the optimizer without repeating
// its sentinel text.
type notConverged struct {
	reason string
	cause  error
}

func (e *notConverged) Error() string {
	return fmt.Sprintf("%v: %s", ErrNotConverged, e.reason)
}

func (e *notConverged) Unwrap() []error {
	return []error{ErrNotConverged, e.cause}
}

func invalidParameter(name string, value any, reason string) error {
	return &ErrInvalidParameter{Name: name, Value: value, Reason: reason}
}

func translateError(err error) error {
	if err == nil {
		return nil
	}

	var ce *optimizer.ConfigError
	if errors.As(err, &ce) {
		return &ErrInvalidParameter{Name: ce.Name, Value: ce.Value, Reason: ce.Reason, cause: err}
	}
	var ie *optimizer.InternalError
	if errors.As(err, &ie) {
		return &ErrInternal{Phase: ie.Phase, cause: err}
	}
	var nc *optimizer.NotConvergedError
	if errors.As(err, &nc) {
		return &notConverged{reason: nc.Reason, cause: err}
	}
	if errors.Is(err, optimizer.ErrNotConverged) {
		return fmt.Errorf("%w: %w", ErrNotConverged, err)
	}

	return err
}
