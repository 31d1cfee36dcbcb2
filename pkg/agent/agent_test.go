package agent

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/ssm"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vladvasiliu/aws-start-stop/internal/fakeaws"
	"github.com/vladvasiliu/aws-start-stop/internal/testoutput"
	"github.com/vladvasiliu/aws-start-stop/pkg/poll"
	"go.uber.org/goleak"
	testingclock "k8s.io/utils/clock/testing"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const (
	instanceID = "i-0123456789abcdef0"
	interval   = 10 * time.Second
)

func testWaiter(t *testing.T) (*Waiter, *fakeaws.SSM, *testingclock.FakeClock) {
	fake := &fakeaws.SSM{}
	fc := testingclock.NewFakeClock(time.Now())
	w, err := New(testoutput.Logger(t, "agent"), fake, instanceID, poll.Config{Interval: interval, Clock: fc})
	require.NoError(t, err)
	return w, fake, fc
}

// wait runs WaitForConnection, advancing the fake clock whenever it sleeps.
func wait(t *testing.T, w *Waiter, fc *testingclock.FakeClock) error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- w.WaitForConnection(context.Background()) }()

	timeout := time.After(5 * time.Second)
	for {
		select {
		case err := <-done:
			return err
		case <-timeout:
			t.Fatal("agent wait did not finish")
		default:
		}
		if fc.HasWaiters() {
			fc.Step(interval)
		} else {
			time.Sleep(time.Millisecond)
		}
	}
}

func TestConnectionStatus(t *testing.T) {
	w, fake, _ := testWaiter(t)
	fake.GetConnectionStatusFn = func(in *ssm.GetConnectionStatusInput) (*ssm.GetConnectionStatusOutput, error) {
		assert.Equal(t, instanceID, aws.StringValue(in.Target))
		return &ssm.GetConnectionStatusOutput{Status: aws.String(ssm.ConnectionStatusNotconnected)}, nil
	}
	status, err := w.ConnectionStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, NotConnected, status)
}

func TestConnectionStatusMalformed(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		w, fake, _ := testWaiter(t)
		fake.GetConnectionStatusFn = func(*ssm.GetConnectionStatusInput) (*ssm.GetConnectionStatusOutput, error) {
			return &ssm.GetConnectionStatusOutput{}, nil
		}
		_, err := w.ConnectionStatus(context.Background())
		assert.Equal(t, errNoStatus, err)
	})
	t.Run("unknown", func(t *testing.T) {
		w, fake, _ := testWaiter(t)
		fake.GetConnectionStatusFn = fakeaws.ConnectionSequence("degraded")
		_, err := w.ConnectionStatus(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown status: degraded")
	})
}

func TestWaitForConnection(t *testing.T) {
	w, fake, fc := testWaiter(t)
	fake.GetConnectionStatusFn = fakeaws.ConnectionSequence(
		ssm.ConnectionStatusNotconnected,
		ssm.ConnectionStatusConnected,
	)
	require.NoError(t, wait(t, w, fc))
	assert.Equal(t, 2, fake.Calls())
}

func TestWaitForConnectionTransportError(t *testing.T) {
	w, fake, fc := testWaiter(t)
	apiErr := awserr.New("AccessDeniedException", "not allowed", nil)
	calls := 0
	fake.GetConnectionStatusFn = func(*ssm.GetConnectionStatusInput) (*ssm.GetConnectionStatusOutput, error) {
		calls++
		if calls == 1 {
			return &ssm.GetConnectionStatusOutput{Status: aws.String(ssm.ConnectionStatusNotconnected)}, nil
		}
		return nil, apiErr
	}
	err := wait(t, w, fc)
	assert.Equal(t, apiErr, errors.Cause(err))
	assert.Equal(t, 2, fake.Calls())
}

func TestWaitForConnectionDeadline(t *testing.T) {
	fake := &fakeaws.SSM{GetConnectionStatusFn: fakeaws.ConnectionSequence(ssm.ConnectionStatusNotconnected)}
	w, err := New(testoutput.Logger(t, "agent"), fake, instanceID, poll.Config{Interval: time.Millisecond})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err = w.WaitForConnection(ctx)
	assert.Error(t, err)
	assert.Error(t, ctx.Err())
}

func TestNew(t *testing.T) {
	log := testoutput.Logger(t, "agent")
	_, err := New(log, nil, instanceID, poll.Config{Interval: interval})
	assert.Error(t, err)
	_, err = New(log, &fakeaws.SSM{}, "", poll.Config{Interval: interval})
	assert.Error(t, err)
}
