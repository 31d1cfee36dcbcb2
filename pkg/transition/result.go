package transition

import (
	"time"

	"github.com/pkg/errors"
	"github.com/vladvasiliu/aws-start-stop/pkg/lifecycle"
)

// Process exit codes for a finished run.
const (
	ExitOK      = 0
	ExitTimeout = 1
	ExitFailure = 2
)

// Result is the outcome of a run.
type Result struct {
	Action     lifecycle.Action
	InstanceID string
	// Instance is the snapshot that reached the desired state. It is only
	// set on success.
	Instance lifecycle.Instance
	// Err is set when the run failed.
	Err error
	// AgentChecked reports whether the agent wait ran.
	AgentChecked bool
	// AgentErr is set when the agent wait failed. It does not fail the run.
	AgentErr error
	Elapsed  time.Duration
}

// OK reports whether the instance reached the desired state.
func (r Result) OK() bool {
	return r.Err == nil
}

// TimedOut reports whether the run failed by running out of time.
func (r Result) TimedOut() bool {
	return errors.Is(r.Err, lifecycle.ErrTimeout)
}

// ExitCode maps the result to the process exit status.
func (r Result) ExitCode() int {
	switch {
	case r.OK():
		return ExitOK
	case r.TimedOut():
		return ExitTimeout
	}
	return ExitFailure
}
