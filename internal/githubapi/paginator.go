package githubapi

import (
	"context"
	"errors"
	"fmt"
	"time"

	gh "github.com/google/go-github/v66/github"
	"go.uber.org/zap"
)

const (
	rateLimitExceededTemplateConstant = "GitHub rate limit persisted after %d retries: %v"
	throttledLogMessageConstant       = "GitHub API throttled request; waiting before retry"
	retryDelayFieldConstant           = "retry_delay"
	attemptFieldConstant              = "attempt"
	pageFieldConstant                 = "page"
)

// RateLimitExceededError reports that throttling outlasted the retry budget.
type RateLimitExceededError struct {
	Retries int
	Cause   error
}

// Error describes the exhausted retry budget.
func (exceeded RateLimitExceededError) Error() string {
	return fmt.Sprintf(rateLimitExceededTemplateConstant, exceeded.Retries, exceeded.Cause)
}

// Unwrap exposes the last throttling error.
func (exceeded RateLimitExceededError) Unwrap() error {
	return exceeded.Cause
}

// PageRequest fetches one page of a listing.
type PageRequest[P any] func(executionContext context.Context, options gh.ListOptions) (P, *gh.Response, error)

// Paginator applies a BackoffPolicy to single calls and paginated listings.
type Paginator struct {
	logger  *zap.Logger
	policy  BackoffPolicy
	sleeper Sleeper
	clock   Clock
}

// NewPaginator constructs a Paginator. Nil collaborators fall back to real time.
func NewPaginator(logger *zap.Logger, policy BackoffPolicy, sleeper Sleeper, clock Clock) *Paginator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sleeper == nil {
		sleeper = TimerSleeper{}
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if policy.MaxRetries < 0 {
		policy.MaxRetries = 0
	}
	return &Paginator{logger: logger, policy: policy, sleeper: sleeper, clock: clock}
}

// Do runs call, retrying it after throttling responses until it succeeds, fails otherwise, or
// the retry budget is exhausted.
func (paginator *Paginator) Do(executionContext context.Context, call func(context.Context) (*gh.Response, error)) error {
	return paginator.retry(executionContext, 0, call)
}

// FetchAll requests every page of a listing and concatenates the extracted items in page order.
func FetchAll[P any, T any](executionContext context.Context, paginator *Paginator, request PageRequest[P], extract func(P) []T) ([]T, error) {
	var collected []T
	options := gh.ListOptions{Page: 1, PerPage: defaultResultsPerPageConstant}
	for {
		var page P
		var response *gh.Response
		retryError := paginator.retry(executionContext, options.Page, func(callContext context.Context) (*gh.Response, error) {
			var requestError error
			page, response, requestError = request(callContext, options)
			return response, requestError
		})
		if retryError != nil {
			return nil, retryError
		}

		collected = append(collected, extract(page)...)
		if response == nil || response.NextPage == 0 {
			return collected, nil
		}
		options.Page = response.NextPage

		if sleepError := paginator.sleeper.Sleep(executionContext, paginator.policy.PageDelay); sleepError != nil {
			return nil, sleepError
		}
	}
}

func (paginator *Paginator) retry(executionContext context.Context, page int, call func(context.Context) (*gh.Response, error)) error {
	for retries := 0; ; retries++ {
		_, callError := call(executionContext)
		if callError == nil {
			return nil
		}

		delay, throttled := paginator.throttleDelay(callError)
		if !throttled {
			return callError
		}
		if retries >= paginator.policy.MaxRetries {
			return RateLimitExceededError{Retries: retries, Cause: callError}
		}

		paginator.logger.Warn(throttledLogMessageConstant,
			zap.Duration(retryDelayFieldConstant, delay),
			zap.Int(attemptFieldConstant, retries+1),
			zap.Int(pageFieldConstant, page),
		)
		paginator.policy.notify(delay)
		if sleepError := paginator.sleeper.Sleep(executionContext, delay); sleepError != nil {
			return sleepError
		}
	}
}

func (paginator *Paginator) throttleDelay(callError error) (time.Duration, bool) {
	var abuseError *gh.AbuseRateLimitError
	if errors.As(callError, &abuseError) {
		if abuseError.RetryAfter != nil && *abuseError.RetryAfter > 0 {
			return *abuseError.RetryAfter, true
		}
		return paginator.policy.DefaultRetryDelay, true
	}

	var rateLimitError *gh.RateLimitError
	if errors.As(callError, &rateLimitError) {
		if rateLimitError.Rate.Reset.IsZero() {
			return paginator.policy.DefaultRetryDelay, true
		}
		delay := rateLimitError.Rate.Reset.Time.Sub(paginator.clock.Now())
		if delay < 0 {
			delay = 0
		}
		return delay, true
	}
	return 0, false
}
