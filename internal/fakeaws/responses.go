package fakeaws

import (
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/ec2"
	"github.com/aws/aws-sdk-go/service/ssm"
)

// InstanceOpt decorates a fake instance.
type InstanceOpt func(*ec2.Instance)

// WithPublicIPv4 sets the instance's public IPv4 address.
func WithPublicIPv4(ip string) InstanceOpt {
	return func(i *ec2.Instance) { i.PublicIpAddress = aws.String(ip) }
}

// WithPrivateIPv4 sets the instance's private IPv4 address.
func WithPrivateIPv4(ip string) InstanceOpt {
	return func(i *ec2.Instance) { i.PrivateIpAddress = aws.String(ip) }
}

// WithIPv6 sets the instance's IPv6 address.
func WithIPv6(ip string) InstanceOpt {
	return func(i *ec2.Instance) { i.Ipv6Address = aws.String(ip) }
}

// Instance builds an instance in the given state.
func Instance(id, state string, opts ...InstanceOpt) *ec2.Instance {
	i := &ec2.Instance{
		InstanceId: aws.String(id),
		State:      &ec2.InstanceState{Name: aws.String(state)},
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Described wraps instances in a single reservation.
func Described(instances ...*ec2.Instance) *ec2.DescribeInstancesOutput {
	return &ec2.DescribeInstancesOutput{
		Reservations: []*ec2.Reservation{{Instances: instances}},
	}
}

// DescribeSequence returns a DescribeInstances hook reporting each state in
// turn for the instance id, then the last one forever. The options apply only
// to the last state.
func DescribeSequence(id string, states []string, last ...InstanceOpt) func(*ec2.DescribeInstancesInput) (*ec2.DescribeInstancesOutput, error) {
	var (
		mu sync.Mutex
		n  int
	)
	return func(*ec2.DescribeInstancesInput) (*ec2.DescribeInstancesOutput, error) {
		mu.Lock()
		defer mu.Unlock()
		i := n
		if i >= len(states)-1 {
			i = len(states) - 1
			return Described(Instance(id, states[i], last...)), nil
		}
		n++
		return Described(Instance(id, states[i])), nil
	}
}

// StateChange builds the state change record returned by start and stop.
func StateChange(id, previous, current string) *ec2.InstanceStateChange {
	return &ec2.InstanceStateChange{
		InstanceId:    aws.String(id),
		PreviousState: &ec2.InstanceState{Name: aws.String(previous)},
		CurrentState:  &ec2.InstanceState{Name: aws.String(current)},
	}
}

// Started returns a StartInstances hook reporting the given changes.
func Started(changes ...*ec2.InstanceStateChange) func(*ec2.StartInstancesInput) (*ec2.StartInstancesOutput, error) {
	return func(*ec2.StartInstancesInput) (*ec2.StartInstancesOutput, error) {
		return &ec2.StartInstancesOutput{StartingInstances: changes}, nil
	}
}

// Stopped returns a StopInstances hook reporting the given changes.
func Stopped(changes ...*ec2.InstanceStateChange) func(*ec2.StopInstancesInput) (*ec2.StopInstancesOutput, error) {
	return func(*ec2.StopInstancesInput) (*ec2.StopInstancesOutput, error) {
		return &ec2.StopInstancesOutput{StoppingInstances: changes}, nil
	}
}

// ConnectionSequence returns a GetConnectionStatus hook reporting each status
// in turn, then the last one forever.
func ConnectionSequence(statuses ...string) func(*ssm.GetConnectionStatusInput) (*ssm.GetConnectionStatusOutput, error) {
	var (
		mu sync.Mutex
		n  int
	)
	return func(in *ssm.GetConnectionStatusInput) (*ssm.GetConnectionStatusOutput, error) {
		mu.Lock()
		defer mu.Unlock()
		i := n
		if i >= len(statuses)-1 {
			i = len(statuses) - 1
		} else {
			n++
		}
		return &ssm.GetConnectionStatusOutput{
			Target: in.Target,
			Status: aws.String(statuses[i]),
		}, nil
	}
}
