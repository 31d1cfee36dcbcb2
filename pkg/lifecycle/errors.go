package lifecycle

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrConfiguration marks invalid input caught before any remote call.
	ErrConfiguration = errors.New("invalid configuration")
	// ErrNotFound is returned when the API response names no instance.
	ErrNotFound = errors.New("instance not found")
	// ErrAmbiguousResult is returned when the API response names more than
	// one reservation or instance for a single identifier.
	ErrAmbiguousResult = errors.New("ambiguous result")
	// ErrIdentityMismatch is returned when the API response names an instance
	// other than the one requested.
	ErrIdentityMismatch = errors.New("wrong instance in response")
	// ErrUnexpectedState is returned when a start or stop request succeeds
	// but leaves the instance in a state the action does not lead to.
	ErrUnexpectedState = errors.New("unexpected instance state")
	// ErrAbnormalTransition matches any *AbnormalTransitionError.
	ErrAbnormalTransition = errors.New("abnormal state transition")
	// ErrTimeout matches any *TimeoutError.
	ErrTimeout = errors.New("timeout")
)

// AbnormalTransitionError reports a poll observation inconsistent with
// progress toward the desired state.
type AbnormalTransitionError struct {
	Current State
	Desired State
}

func (e *AbnormalTransitionError) Error() string {
	return fmt.Sprintf("the instance is in an abnormal state. Current: %s, Desired: %s", e.Current, e.Desired)
}

// Is lets errors.Is match the sentinel.
func (e *AbnormalTransitionError) Is(target error) bool {
	return target == ErrAbnormalTransition
}

// TimeoutError reports that the overall deadline elapsed before the run
// completed.
type TimeoutError struct {
	Action  Action
	Timeout time.Duration
	// Last is the last error seen from the interrupted operation, if any.
	Last error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("failed to %s instance: timeout after %s", e.Action, e.Timeout)
}

// Is lets errors.Is match the sentinel.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

func (e *TimeoutError) Unwrap() error {
	return e.Last
}
