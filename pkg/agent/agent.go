package agent

import (
	"context"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/ssm"
	"github.com/aws/aws-sdk-go/service/ssm/ssmiface"
	"github.com/pkg/errors"
	"github.com/vladvasiliu/aws-start-stop/pkg/logging"
	"github.com/vladvasiliu/aws-start-stop/pkg/poll"
)

// Status is the agent's connectivity as reported by SSM.
type Status string

const (
	Connected    Status = ssm.ConnectionStatusConnected
	NotConnected Status = ssm.ConnectionStatusNotconnected
)

var (
	errNoStatus = errors.New("SSM GetConnectionStatus returned nothing")
)

// Waiter watches the SSM agent of one instance.
type Waiter struct {
	log  logging.Logger
	ssm  ssmiface.SSMAPI
	id   string
	poll poll.Config
}

// New returns a Waiter for the agent on instanceID.
func New(log logging.Logger, api ssmiface.SSMAPI, instanceID string, pollCfg poll.Config) (*Waiter, error) {
	switch {
	case api == nil:
		return nil, errors.New("ssm client is nil")
	case instanceID == "":
		return nil, errors.New("instanceID must be provided for the agent to watch")
	}
	return &Waiter{
		log:  log.WithField("instance", instanceID),
		ssm:  api,
		id:   instanceID,
		poll: pollCfg,
	}, nil
}

// ConnectionStatus queries SSM once.
func (w *Waiter) ConnectionStatus(ctx context.Context) (Status, error) {
	out, err := w.ssm.GetConnectionStatusWithContext(ctx, &ssm.GetConnectionStatusInput{
		Target: aws.String(w.id),
	})
	if err != nil {
		return "", errors.Wrap(err, "get SSM connection status")
	}
	if out.Status == nil {
		return "", errNoStatus
	}
	switch status := Status(aws.StringValue(out.Status)); status {
	case Connected, NotConnected:
		return status, nil
	default:
		return "", errors.Errorf("SSM GetConnectionStatus returned an unknown status: %s", status)
	}
}

// WaitForConnection polls until the agent reports Connected. Any failure to
// query ends the wait.
func (w *Waiter) WaitForConnection(ctx context.Context) error {
	log := w.log.WithField("interval", w.poll.Interval)
	log.Debug("waiting for SSM agent")

	_, err := poll.Until(ctx, w.poll, w.ConnectionStatus, func(status Status) (bool, error) {
		log.WithField("status", status).Debug("observed SSM agent status")
		return status == Connected, nil
	})
	if err != nil {
		return err
	}
	log.Debug("SSM agent connected")
	return nil
}
