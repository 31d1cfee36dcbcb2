// Package fakeaws provides in-memory stand-ins for the EC2 and SSM clients.
// Unset hooks fall through to the embedded interface and panic, which flags
// calls a test did not expect.
package fakeaws

import (
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/ec2"
	"github.com/aws/aws-sdk-go/service/ec2/ec2iface"
	"github.com/aws/aws-sdk-go/service/ssm"
	"github.com/aws/aws-sdk-go/service/ssm/ssmiface"
)

// EC2 fakes the EC2 calls made while starting and stopping an instance.
type EC2 struct {
	ec2iface.EC2API

	DescribeInstancesFn func(*ec2.DescribeInstancesInput) (*ec2.DescribeInstancesOutput, error)
	StartInstancesFn    func(*ec2.StartInstancesInput) (*ec2.StartInstancesOutput, error)
	StopInstancesFn     func(*ec2.StopInstancesInput) (*ec2.StopInstancesOutput, error)

	mu       sync.Mutex
	describe int
	start    int
	stop     int
}

var _ ec2iface.EC2API = (*EC2)(nil)

func (f *EC2) DescribeInstancesWithContext(ctx aws.Context, in *ec2.DescribeInstancesInput, _ ...request.Option) (*ec2.DescribeInstancesOutput, error) {
	if err := canceled(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.describe++
	f.mu.Unlock()
	return f.DescribeInstancesFn(in)
}

func (f *EC2) StartInstancesWithContext(ctx aws.Context, in *ec2.StartInstancesInput, _ ...request.Option) (*ec2.StartInstancesOutput, error) {
	if err := canceled(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.start++
	f.mu.Unlock()
	return f.StartInstancesFn(in)
}

func (f *EC2) StopInstancesWithContext(ctx aws.Context, in *ec2.StopInstancesInput, _ ...request.Option) (*ec2.StopInstancesOutput, error) {
	if err := canceled(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.stop++
	f.mu.Unlock()
	return f.StopInstancesFn(in)
}

// DescribeCalls is the number of DescribeInstances calls made so far.
func (f *EC2) DescribeCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.describe
}

// StartCalls is the number of StartInstances calls made so far.
func (f *EC2) StartCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.start
}

// StopCalls is the number of StopInstances calls made so far.
func (f *EC2) StopCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stop
}

// SSM fakes the SSM connection status query.
type SSM struct {
	ssmiface.SSMAPI

	GetConnectionStatusFn func(*ssm.GetConnectionStatusInput) (*ssm.GetConnectionStatusOutput, error)

	mu    sync.Mutex
	calls int
}

var _ ssmiface.SSMAPI = (*SSM)(nil)

func (f *SSM) GetConnectionStatusWithContext(ctx aws.Context, in *ssm.GetConnectionStatusInput, _ ...request.Option) (*ssm.GetConnectionStatusOutput, error) {
	if err := canceled(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.GetConnectionStatusFn(in)
}

// Calls is the number of GetConnectionStatus calls made so far.
func (f *SSM) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// canceled mirrors the SDK's behaviour of failing a request whose context is
// already done.
func canceled(ctx aws.Context) error {
	if ctx == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return awserr.New(request.CanceledErrorCode, "request context canceled", err)
	}
	return nil
}
