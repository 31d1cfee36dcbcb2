package poll

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	testingclock "k8s.io/utils/clock/testing"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const interval = 10 * time.Second

type result[T any] struct {
	value T
	err   error
}

// runUntil runs Until on a fake clock, stepping the clock whenever the loop
// is waiting, and returns what Until returned.
func runUntil[T any](t *testing.T, ctx context.Context, fetch FetchFunc[T], check CheckFunc[T]) (T, error) {
	t.Helper()
	fc := testingclock.NewFakeClock(time.Now())
	done := make(chan result[T], 1)
	go func() {
		v, err := Until(ctx, Config{Interval: interval, Clock: fc}, fetch, check)
		done <- result[T]{v, err}
	}()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case r := <-done:
			return r.value, r.err
		case <-deadline:
			t.Fatal("poll loop did not finish")
		default:
		}
		if fc.HasWaiters() {
			fc.Step(interval)
		} else {
			time.Sleep(time.Millisecond)
		}
	}
}

// sequence fetches the given values in order, failing the test if more are
// requested.
func sequence[T any](t *testing.T, values ...T) (FetchFunc[T], *int) {
	calls := 0
	return func(context.Context) (T, error) {
		calls++
		if calls > len(values) {
			t.Errorf("unexpected fetch %d", calls)
			var zero T
			return zero, errors.New("exhausted")
		}
		return values[calls-1], nil
	}, &calls
}

func isDone(s string) (bool, error) {
	switch s {
	case "done":
		return true, nil
	case "wait":
		return false, nil
	}
	return false, errors.Errorf("abnormal %q", s)
}

func TestUntilReturnsOnDone(t *testing.T) {
	fetch, calls := sequence(t, "wait", "wait", "done")
	v, err := runUntil(t, context.Background(), fetch, isDone)
	require.NoError(t, err)
	assert.Equal(t, "done", v)
	assert.Equal(t, 3, *calls)
}

func TestUntilStopsOnCheckError(t *testing.T) {
	fetch, calls := sequence(t, "wait", "broken", "done")
	_, err := runUntil(t, context.Background(), fetch, isDone)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `abnormal "broken"`)
	assert.Equal(t, 2, *calls)
}

func TestUntilStopsOnFetchError(t *testing.T) {
	fetchErr := errors.New("throttled")
	calls := 0
	fetch := func(context.Context) (string, error) {
		calls++
		return "", fetchErr
	}
	_, err := runUntil(t, context.Background(), fetch, isDone)
	assert.Equal(t, fetchErr, err)
	assert.Equal(t, 1, calls)
}

func TestUntilWaitsBeforeFirstFetch(t *testing.T) {
	fc := testingclock.NewFakeClock(time.Now())
	fetched := make(chan struct{}, 1)
	fetch := func(context.Context) (string, error) {
		fetched <- struct{}{}
		return "done", nil
	}
	done := make(chan error, 1)
	go func() {
		_, err := Until(context.Background(), Config{Interval: interval, Clock: fc}, fetch, isDone)
		done <- err
	}()

	require.Eventually(t, fc.HasWaiters, 5*time.Second, time.Millisecond)
	select {
	case <-fetched:
		t.Fatal("fetched before the first interval elapsed")
	default:
	}

	fc.Step(interval - time.Nanosecond)
	assert.True(t, fc.HasWaiters(), "fired before the full interval")

	fc.Step(time.Nanosecond)
	require.NoError(t, <-done)
	assert.Len(t, fetched, 1)
}

func TestUntilCancelled(t *testing.T) {
	fc := testingclock.NewFakeClock(time.Now())
	ctx, cancel := context.WithCancel(context.Background())
	fetch := func(context.Context) (string, error) {
		t.Error("fetched after cancellation")
		return "", nil
	}
	done := make(chan error, 1)
	go func() {
		_, err := Until(ctx, Config{Interval: interval, Clock: fc}, fetch, isDone)
		done <- err
	}()

	require.Eventually(t, fc.HasWaiters, 5*time.Second, time.Millisecond)
	cancel()
	err := <-done
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
	assert.False(t, fc.HasWaiters())
}

func TestUntilDeadlineOnRealClock(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	calls := 0
	fetch := func(context.Context) (string, error) {
		calls++
		return "wait", nil
	}
	_, err := Until(ctx, Config{Interval: 5 * time.Millisecond}, fetch, isDone)
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
	assert.Greater(t, calls, 0)
}

func TestUntilInvalidInterval(t *testing.T) {
	fetch := func(context.Context) (string, error) { return "done", nil }
	_, err := Until(context.Background(), Config{}, fetch, isDone)
	assert.Equal(t, ErrInvalidInterval, err)
}
