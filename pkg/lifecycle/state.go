// Package lifecycle models the stages an EC2 instance moves through while it is
// started or stopped, and decides whether an observed stage is progress toward
// the stage a run wants to reach.
//
// Instance lifecycle docs:
// https://docs.aws.amazon.com/AWSEC2/latest/UserGuide/ec2-instance-lifecycle.html
package lifecycle

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// State is an instance lifecycle stage as named by the EC2 API.
type State string

const (
	Pending      State = "pending"
	Running      State = "running"
	ShuttingDown State = "shutting-down"
	Terminated   State = "terminated"
	Stopping     State = "stopping"
	Stopped      State = "stopped"
)

func (s State) String() string {
	if s == "" {
		return "<none>"
	}
	return string(s)
}

// ValidateDesired rejects anything a run cannot wait for.
func ValidateDesired(desired State) error {
	switch desired {
	case Running, Stopped:
		return nil
	}
	return errors.Wrapf(ErrConfiguration, "the desired state (%s) is invalid", desired)
}

// Action is what the operator asked to be done to the instance.
type Action string

const (
	Start Action = "start"
	Stop  Action = "stop"
)

// ParseAction accepts "start" or "stop" in any case.
func ParseAction(s string) (Action, error) {
	switch a := Action(strings.ToLower(strings.TrimSpace(s))); a {
	case Start, Stop:
		return a, nil
	}
	return "", errors.Wrapf(ErrConfiguration, "unknown action %q, expected %q or %q", s, Start, Stop)
}

// Desired is the terminal state the action drives the instance to.
func (a Action) Desired() State {
	switch a {
	case Start:
		return Running
	case Stop:
		return Stopped
	}
	return ""
}

// Accepted lists the states the start or stop request may immediately report
// without the request being considered failed.
func (a Action) Accepted() []State {
	switch a {
	case Start:
		return []State{Pending, Running}
	case Stop:
		return []State{Stopping, Stopped}
	}
	return nil
}

// Accepts reports whether s is an acceptable immediate result of the action.
func (a Action) Accepts(s State) bool {
	for _, accepted := range a.Accepted() {
		if s == accepted {
			return true
		}
	}
	return false
}

// Past is the action in the past tense, for messages.
func (a Action) Past() string {
	switch a {
	case Start:
		return "started"
	case Stop:
		return "stopped"
	}
	return fmt.Sprintf("%s-ed", string(a))
}

// Progressive is the action in the progressive tense, for messages.
func (a Action) Progressive() string {
	switch a {
	case Start:
		return "starting"
	case Stop:
		return "stopping"
	}
	return fmt.Sprintf("%s-ing", string(a))
}

func (a Action) String() string {
	return string(a)
}

// Instance is one snapshot of the instance, as fetched by a single describe
// call. Empty address fields are absent addresses.
type Instance struct {
	ID          string
	State       State
	PublicIPv4  string
	PrivateIPv4 string
	IPv6        string
}
