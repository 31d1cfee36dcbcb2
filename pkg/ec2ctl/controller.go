// Package ec2ctl drives a single EC2 instance through the EC2 API: it requests
// start and stop, and fetches and waits on the instance's state.
//
// Every response is checked against the assumption that an instance ID names
// exactly one instance. Violations are returned as errors, never retried.
package ec2ctl

import (
	"context"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/ec2"
	"github.com/aws/aws-sdk-go/service/ec2/ec2iface"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/vladvasiliu/aws-start-stop/pkg/lifecycle"
	"github.com/vladvasiliu/aws-start-stop/pkg/logging"
	"github.com/vladvasiliu/aws-start-stop/pkg/poll"
)

// Controller operates on one instance.
type Controller struct {
	log  logging.Logger
	ec2  ec2iface.EC2API
	id   string
	poll poll.Config
}

// New returns a Controller for instanceID.
func New(log logging.Logger, api ec2iface.EC2API, instanceID string, pollCfg poll.Config) (*Controller, error) {
	switch {
	case api == nil:
		return nil, errors.New("ec2 client is nil")
	case instanceID == "":
		return nil, errors.Wrap(lifecycle.ErrConfiguration, "instance ID must be provided")
	}
	return &Controller{
		log:  log.WithField("instance", instanceID),
		ec2:  api,
		id:   instanceID,
		poll: pollCfg,
	}, nil
}

// InstanceID is the instance this Controller operates on.
func (c *Controller) InstanceID() string {
	return c.id
}

// Fetch describes the instance and returns a fresh snapshot of it.
func (c *Controller) Fetch(ctx context.Context) (lifecycle.Instance, error) {
	out, err := c.ec2.DescribeInstancesWithContext(ctx, &ec2.DescribeInstancesInput{
		InstanceIds: aws.StringSlice([]string{c.id}),
	})
	if err != nil {
		return lifecycle.Instance{}, errors.Wrap(err, "describe instance")
	}

	// There should be exactly one reservation holding exactly one instance.
	switch {
	case len(out.Reservations) == 0:
		return lifecycle.Instance{}, errors.Wrapf(lifecycle.ErrNotFound, "no reservation for %s", c.id)
	case len(out.Reservations) > 1 || aws.StringValue(out.NextToken) != "":
		return lifecycle.Instance{}, errors.Wrapf(lifecycle.ErrAmbiguousResult, "too many reservations returned for %s", c.id)
	}
	instances := out.Reservations[0].Instances
	switch {
	case len(instances) == 0:
		return lifecycle.Instance{}, errors.Wrapf(lifecycle.ErrNotFound, "no instance in reservation for %s", c.id)
	case len(instances) > 1:
		return lifecycle.Instance{}, errors.Wrapf(lifecycle.ErrAmbiguousResult, "too many instances returned for %s", c.id)
	}

	inst := instances[0]
	if got := aws.StringValue(inst.InstanceId); got != c.id {
		return lifecycle.Instance{}, errors.Wrapf(lifecycle.ErrIdentityMismatch, "described %q instead of %q", got, c.id)
	}
	if inst.State == nil || inst.State.Name == nil {
		return lifecycle.Instance{}, errors.Wrapf(lifecycle.ErrUnexpectedState, "no state reported for %s", c.id)
	}
	return snapshot(inst), nil
}

func snapshot(inst *ec2.Instance) lifecycle.Instance {
	return lifecycle.Instance{
		ID:          aws.StringValue(inst.InstanceId),
		State:       lifecycle.State(aws.StringValue(inst.State.Name)),
		PublicIPv4:  aws.StringValue(inst.PublicIpAddress),
		PrivateIPv4: aws.StringValue(inst.PrivateIpAddress),
		IPv6:        aws.StringValue(inst.Ipv6Address),
	}
}

// Request issues the request for action and returns the state the API
// reported immediately after it.
func (c *Controller) Request(ctx context.Context, action lifecycle.Action) (lifecycle.State, error) {
	switch action {
	case lifecycle.Start:
		return c.RequestStart(ctx)
	case lifecycle.Stop:
		return c.RequestStop(ctx)
	}
	return "", errors.Wrapf(lifecycle.ErrConfiguration, "unknown action %q", action)
}

// RequestStart asks EC2 to start the instance. The reported state must be
// pending or running.
func (c *Controller) RequestStart(ctx context.Context) (lifecycle.State, error) {
	c.log.Debug("requesting start")
	out, err := c.ec2.StartInstancesWithContext(ctx, &ec2.StartInstancesInput{
		InstanceIds: aws.StringSlice([]string{c.id}),
	})
	if err != nil {
		return "", errors.Wrap(err, "start instance")
	}
	return c.checkStateChange(lifecycle.Start, out.StartingInstances)
}

// RequestStop asks EC2 to stop the instance. The reported state must be
// stopping or stopped.
func (c *Controller) RequestStop(ctx context.Context) (lifecycle.State, error) {
	c.log.Debug("requesting stop")
	out, err := c.ec2.StopInstancesWithContext(ctx, &ec2.StopInstancesInput{
		InstanceIds: aws.StringSlice([]string{c.id}),
	})
	if err != nil {
		return "", errors.Wrap(err, "stop instance")
	}
	return c.checkStateChange(lifecycle.Stop, out.StoppingInstances)
}

func (c *Controller) checkStateChange(action lifecycle.Action, changes []*ec2.InstanceStateChange) (lifecycle.State, error) {
	switch {
	case len(changes) == 0:
		return "", errors.Wrapf(lifecycle.ErrNotFound, "no state change returned when trying to %s %s", action, c.id)
	case len(changes) > 1:
		return "", errors.Wrapf(lifecycle.ErrAmbiguousResult, "too many instances changed when trying to %s %s", action, c.id)
	}

	change := changes[0]
	if got := aws.StringValue(change.InstanceId); got != c.id {
		return "", errors.Wrapf(lifecycle.ErrIdentityMismatch, "wrong instance %s: %q instead of %q", action.Past(), got, c.id)
	}

	var state lifecycle.State
	if change.CurrentState != nil {
		state = lifecycle.State(aws.StringValue(change.CurrentState.Name))
	}
	c.log.WithFields(logrus.Fields{
		"action":   action,
		"previous": previousState(change),
		"state":    state,
	}).Debug("state change reported")

	if !action.Accepts(state) {
		return state, errors.Wrapf(lifecycle.ErrUnexpectedState, "failed to %s instance, it is %s", action, state)
	}
	return state, nil
}

func previousState(change *ec2.InstanceStateChange) lifecycle.State {
	if change.PreviousState == nil {
		return ""
	}
	return lifecycle.State(aws.StringValue(change.PreviousState.Name))
}

// WaitForState polls the instance until it reaches desired and returns the
// snapshot that did. Polling stops at the first state inconsistent with
// progress toward desired.
func (c *Controller) WaitForState(ctx context.Context, desired lifecycle.State) (lifecycle.Instance, error) {
	if err := lifecycle.ValidateDesired(desired); err != nil {
		return lifecycle.Instance{}, err
	}
	log := c.log.WithFields(logrus.Fields{
		"desired":  desired,
		"interval": c.poll.Interval,
	})
	log.Debug("waiting for state")

	return poll.Until(ctx, c.poll, c.Fetch, func(inst lifecycle.Instance) (bool, error) {
		log.WithField("state", inst.State).Debug("observed state")
		return lifecycle.Check(inst.State, desired)
	})
}
