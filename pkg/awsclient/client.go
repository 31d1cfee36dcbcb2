package awsclient

import (
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ec2"
	"github.com/aws/aws-sdk-go/service/ec2/ec2iface"
	"github.com/aws/aws-sdk-go/service/ssm"
	"github.com/aws/aws-sdk-go/service/ssm/ssmiface"
	"github.com/pkg/errors"
)

// DefaultMaxRetries is how often the SDK itself retries a throttled or
// failed request before handing the error back.
const DefaultMaxRetries = 3

// ClientSet holds the API clients a run needs. They are safe to reuse for the
// whole run.
type ClientSet struct {
	EC2 ec2iface.EC2API
	SSM ssmiface.SSMAPI
}

// Options select where and as whom the clients talk to AWS. Empty values fall
// back to the SDK's environment and shared config resolution.
type Options struct {
	Region  string
	Profile string
	// Endpoint overrides the API endpoint, mostly useful for integration tests
	// against a localstack container.
	Endpoint   string
	MaxRetries int
}

// NewSession builds the session the clients share.
func NewSession(opts Options) (*session.Session, error) {
	config := aws.NewConfig()
	if opts.Region != "" {
		config = config.WithRegion(opts.Region)
	}
	if opts.Endpoint != "" {
		config = config.WithEndpoint(opts.Endpoint)
	}
	retries := opts.MaxRetries
	if retries <= 0 {
		retries = DefaultMaxRetries
	}
	config = config.WithMaxRetries(retries)

	sess, err := session.NewSessionWithOptions(session.Options{
		Config:            *config,
		Profile:           opts.Profile,
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create API session")
	}
	if aws.StringValue(sess.Config.Region) == "" {
		return nil, errors.New("no AWS region configured, set --region or AWS_REGION")
	}
	return sess, nil
}

// New returns a ClientSet for opts.
func New(opts Options) (*ClientSet, error) {
	sess, err := NewSession(opts)
	if err != nil {
		return nil, err
	}
	return &ClientSet{
		EC2: ec2.New(sess),
		SSM: ssm.New(sess),
	}, nil
}
