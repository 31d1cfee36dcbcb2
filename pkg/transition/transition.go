// Package transition sequences a start or stop run: request the action, wait
// for the instance to arrive, and optionally wait for its SSM agent, all under
// one overall deadline.
package transition

import (
	"context"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/vladvasiliu/aws-start-stop/pkg/lifecycle"
	"github.com/vladvasiliu/aws-start-stop/pkg/logging"
)

// Instances is the instance side of a run.
type Instances interface {
	InstanceID() string
	Request(ctx context.Context, action lifecycle.Action) (lifecycle.State, error)
	WaitForState(ctx context.Context, desired lifecycle.State) (lifecycle.Instance, error)
}

// Agent is the optional agent side of a run.
type Agent interface {
	WaitForConnection(ctx context.Context) error
}

// Notifier receives human readable progress messages.
type Notifier func(msg string)

// Request describes one run.
type Request struct {
	Action lifecycle.Action
	// Timeout bounds the whole run. It must be positive.
	Timeout time.Duration
	// WaitForAgent asks for the agent wait after a start. It is ignored for
	// stop.
	WaitForAgent bool
}

// Orchestrator runs requests against one instance.
type Orchestrator struct {
	log       logging.Logger
	instances Instances
	agent     Agent
	notify    Notifier
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithAgent enables the agent wait for requests that ask for it.
func WithAgent(a Agent) Option {
	return func(o *Orchestrator) {
		o.agent = a
	}
}

// WithNotifier sends progress messages to fn.
func WithNotifier(fn Notifier) Option {
	return func(o *Orchestrator) {
		o.notify = fn
	}
}

// New returns an Orchestrator driving instances.
func New(log logging.Logger, instances Instances, opts ...Option) (*Orchestrator, error) {
	if instances == nil {
		return nil, errors.New("instance controller is nil")
	}
	o := &Orchestrator{
		log:       log,
		instances: instances,
		notify:    func(string) {},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

func (o *Orchestrator) validate(req Request) error {
	switch {
	case req.Timeout <= 0:
		return errors.Wrapf(lifecycle.ErrConfiguration, "timeout must be positive, got %s", req.Timeout)
	case req.WaitForAgent && req.Action == lifecycle.Start && o.agent == nil:
		return errors.Wrap(lifecycle.ErrConfiguration, "agent wait requested without an agent client")
	}
	return lifecycle.ValidateDesired(req.Action.Desired())
}

// Run executes req. It never returns an error directly: the outcome, including
// failures, is in the Result.
func (o *Orchestrator) Run(ctx context.Context, req Request) (res Result) {
	began := time.Now()
	res = Result{
		Action:     req.Action,
		InstanceID: o.instances.InstanceID(),
	}
	defer func() {
		res.Elapsed = time.Since(began)
	}()

	log := o.log.WithFields(logrus.Fields{
		"instance": res.InstanceID,
		"action":   req.Action,
	})

	if err := o.validate(req); err != nil {
		res.Err = err
		log.WithError(err).Error("invalid request")
		return res
	}

	ctx, cancel := context.WithTimeout(ctx, req.Timeout)
	defer cancel()

	inst, err := o.transition(ctx, req.Action)
	if err != nil {
		res.Err = deadlineError(ctx, req, err)
		withCode(log, err).WithError(res.Err).Error("transition failed")
		return res
	}
	res.Instance = inst
	log.WithField("state", inst.State).Info("instance " + req.Action.Past())

	if req.Action != lifecycle.Start || !req.WaitForAgent {
		if req.WaitForAgent {
			log.Debug("agent wait only applies to start, skipping")
		}
		return res
	}

	res.AgentChecked = true
	o.notify("Waiting for SSM agent...")
	if err := o.agent.WaitForConnection(ctx); err != nil {
		res.AgentErr = deadlineError(ctx, req, err)
		withCode(log, err).WithError(res.AgentErr).Warn("SSM agent check failed")
		return res
	}
	log.Info("SSM agent connected")
	return res
}

func (o *Orchestrator) transition(ctx context.Context, action lifecycle.Action) (lifecycle.Instance, error) {
	o.notify(capitalize(action.Progressive()) + " instance...")
	state, err := o.instances.Request(ctx, action)
	if err != nil {
		return lifecycle.Instance{}, err
	}
	o.log.WithField("state", state).Debug("request accepted")

	return o.instances.WaitForState(ctx, action.Desired())
}

// deadlineError turns err into a timeout when the run's deadline is why it
// happened. Errors that merely returned after the deadline keep their kind.
func deadlineError(ctx context.Context, req Request, err error) error {
	if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || canceled(err) {
		return &lifecycle.TimeoutError{Action: req.Action, Timeout: req.Timeout, Last: err}
	}
	return err
}

// canceled reports whether the SDK aborted a request because its context
// ended.
func canceled(err error) bool {
	aerr, ok := errors.Cause(err).(awserr.Error)
	return ok && aerr.Code() == request.CanceledErrorCode
}

func withCode(log logrus.FieldLogger, err error) logrus.FieldLogger {
	if aerr, ok := errors.Cause(err).(awserr.Error); ok {
		return log.WithField("code", aerr.Code())
	}
	return log
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
