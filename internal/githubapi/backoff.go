package githubapi

import (
	"context"
	"time"
)

const (
	defaultMaxRetriesConstant     = 5
	defaultPageDelayConstant      = time.Second
	defaultRetryDelayConstant     = time.Minute
	defaultResultsPerPageConstant = 100
)

// BackoffPolicy configures how the Paginator spaces requests and waits out throttling.
type BackoffPolicy struct {
	// MaxRetries bounds the throttled retries of a single page or call.
	MaxRetries int
	// PageDelay separates consecutive page requests that were not throttled.
	PageDelay time.Duration
	// DefaultRetryDelay is used when a throttling response carries no retry hint.
	DefaultRetryDelay time.Duration
	// Notify is invoked with the delay before every throttled sleep.
	Notify func(delay time.Duration)
}

// DefaultBackoffPolicy returns the policy used when configuration does not override it.
func DefaultBackoffPolicy() BackoffPolicy {
	return BackoffPolicy{
		MaxRetries:        defaultMaxRetriesConstant,
		PageDelay:         defaultPageDelayConstant,
		DefaultRetryDelay: defaultRetryDelayConstant,
	}
}

func (policy BackoffPolicy) notify(delay time.Duration) {
	if policy.Notify != nil {
		policy.Notify(delay)
	}
}

// Sleeper blocks for a duration or until the context ends.
type Sleeper interface {
	Sleep(executionContext context.Context, duration time.Duration) error
}

// Clock reports the current time.
type Clock interface {
	Now() time.Time
}

// TimerSleeper sleeps on a real timer.
type TimerSleeper struct{}

// Sleep implements Sleeper.
func (TimerSleeper) Sleep(executionContext context.Context, duration time.Duration) error {
	if duration <= 0 {
		return executionContext.Err()
	}
	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-executionContext.Done():
		return executionContext.Err()
	case <-timer.C:
		return nil
	}
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time {
	return time.Now()
}
