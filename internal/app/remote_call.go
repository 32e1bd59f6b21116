package app

import (
	"context"
	"fmt"
	"time"

	"github.com/example/plotsync/internal/ports/secondary"
)

// DefaultRetryDelay is the pause before the single retry of a transient failure.
const DefaultRetryDelay = 5 * time.Second

// RetryPolicy runs remote calls with at most one retry.
type RetryPolicy struct {
	Delay time.Duration
	sleep func(context.Context, time.Duration) error
}

// NewRetryPolicy creates a policy; a non-positive delay means DefaultRetryDelay.
func NewRetryPolicy(delay time.Duration) RetryPolicy {
	if delay <= 0 {
		delay = DefaultRetryDelay
	}
	return RetryPolicy{Delay: delay, sleep: sleepContext}
}

// remoteCall is one remote request plus the decoding of its response.
type remoteCall[R, T any] struct {
	Name    string
	Request func(ctx context.Context) (R, error)
	Decode  func(R) (T, error)
}

// runCall executes c. A transient request failure is retried exactly once
// after the policy delay; any other failure, including a decode failure,
// is returned as is.
func runCall[R, T any](ctx context.Context, p RetryPolicy, c remoteCall[R, T]) (T, error) {
	var zero T

	resp, err := c.Request(ctx)
	if err != nil && secondary.Transient(err) {
		if serr := p.wait(ctx); serr != nil {
			return zero, fmt.Errorf("%s: %w", c.Name, serr)
		}
		resp, err = c.Request(ctx)
	}
	if err != nil {
		return zero, fmt.Errorf("%s: %w", c.Name, err)
	}

	if c.Decode == nil {
		if out, ok := any(resp).(T); ok {
			return out, nil
		}
		return zero, fmt.Errorf("%s: no decoder for %T", c.Name, resp)
	}
	out, err := c.Decode(resp)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", c.Name, err)
	}
	return out, nil
}

// runWrite is runCall for requests without a response.
func runWrite(ctx context.Context, p RetryPolicy, name string, request func(ctx context.Context) error) error {
	_, err := runCall(ctx, p, remoteCall[struct{}, struct{}]{
		Name: name,
		Request: func(ctx context.Context) (struct{}, error) {
			return struct{}{}, request(ctx)
		},
	})
	return err
}

func (p RetryPolicy) wait(ctx context.Context) error {
	sleep := p.sleep
	if sleep == nil {
		sleep = sleepContext
	}
	return sleep(ctx, p.Delay)
}

func sleepContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
