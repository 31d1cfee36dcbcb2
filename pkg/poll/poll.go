// Package poll waits for remotely observed state to reach a goal by checking
// it on a fixed interval.
package poll

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"k8s.io/utils/clock"
)

// Config controls the polling cadence.
type Config struct {
	// Interval is the fixed wait before each fetch. It must be positive.
	Interval time.Duration
	// Clock provides the waits. Defaults to the real clock.
	Clock clock.Clock
}

// FetchFunc retrieves the current observation.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// CheckFunc reports whether an observation is the goal. A non-nil error stops
// polling.
type CheckFunc[T any] func(observed T) (done bool, err error)

// ErrInvalidInterval is returned for a non-positive interval.
var ErrInvalidInterval = errors.New("poll interval must be positive")

// Until waits one interval, fetches, and checks, repeating until check reports
// done or either function fails. There is no iteration limit: callers bound
// the wait with the context.
func Until[T any](ctx context.Context, cfg Config, fetch FetchFunc[T], check CheckFunc[T]) (T, error) {
	var zero T
	if cfg.Interval <= 0 {
		return zero, ErrInvalidInterval
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.RealClock{}
	}

	for attempt := 1; ; attempt++ {
		if err := wait(ctx, clk, cfg.Interval); err != nil {
			return zero, errors.Wrapf(err, "context ended before attempt %d", attempt)
		}
		observed, err := fetch(ctx)
		if err != nil {
			return zero, err
		}
		done, err := check(observed)
		if err != nil {
			return zero, err
		}
		if done {
			return observed, nil
		}
	}
}

func wait(ctx context.Context, clk clock.Clock, d time.Duration) error {
	timer := clk.NewTimer(d)
	select {
	case <-timer.C():
		return nil
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	}
}
