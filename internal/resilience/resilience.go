// Package resilience classifies provider failures and applies the bounded
// retry policy: at most one retry, fixed delay, transient errors only.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"slices"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Outcome is the typed result of a guarded call. Callers branch on this
// instead of inspecting error chains: a soft failure is skippable, a hard
// failure is structural.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeSoftFail Outcome = "soft_fail"
	OutcomeHardFail Outcome = "hard_fail"
)

// Policy is the retry policy. Zero value retries once after one second.
type Policy struct {
	// Delay is the fixed wait before the single retry. Default: 1s.
	Delay time.Duration

	// OnRetry is called once, before the retry sleep.
	OnRetry func(err error)
}

func (p Policy) delay() time.Duration {
	if p.Delay <= 0 {
		return time.Second
	}
	return p.Delay
}

// Do runs fn, retrying exactly once after the fixed delay when the first
// attempt fails with a transient error. Context cancellation stops the
// retry immediately.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) (Outcome, error) {
	_, outcome, err := DoVal(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return outcome, err
}

// DoVal is Do for calls that return a value.
func DoVal[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, Outcome, error) {
	var zero T

	val, err := fn(ctx)
	if err == nil {
		return val, OutcomeSuccess, nil
	}
	if !IsTransient(err) {
		return zero, OutcomeHardFail, err
	}
	if ctx.Err() != nil {
		return zero, OutcomeSoftFail, err
	}

	if p.OnRetry != nil {
		p.OnRetry(err)
	}

	timer := time.NewTimer(p.delay())
	select {
	case <-ctx.Done():
		timer.Stop()
		return zero, OutcomeSoftFail, err
	case <-timer.C:
	}

	val, retryErr := fn(ctx)
	if retryErr == nil {
		return val, OutcomeSuccess, nil
	}
	return zero, OutcomeSoftFail, retryErr
}

// RetryLogger returns an OnRetry callback that logs the retry at warn.
func RetryLogger(service, operation string) func(error) {
	return func(err error) {
		zap.L().Warn("transient failure, retrying once",
			zap.String("service", service),
			zap.String("op", operation),
			zap.Error(err),
		)
	}
}

// TransientError marks a failure worth one more attempt. StatusCode holds
// the HTTP status that triggered it, zero for network-level failures.
type TransientError struct {
	Err        error
	StatusCode int
}

// NewTransientError marks err as transient. Pass statusCode zero when no
// HTTP status applies.
func NewTransientError(err error, statusCode int) *TransientError {
	return &TransientError{Err: err, StatusCode: statusCode}
}

func (e *TransientError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s (status %d)", e.Err, e.StatusCode)
	}
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error { return e.Err }

// connErrnos are the socket-level failures worth retrying.
var connErrnos = []syscall.Errno{
	syscall.ECONNRESET,
	syscall.ECONNREFUSED,
	syscall.ECONNABORTED,
}

// transientPhrases catches transport failures that client SDKs flatten into
// strings before they reach us. UNABLE_TO_LOCK_ROW is Salesforce row
// contention; the lock is gone by the time the retry lands.
var transientPhrases = []string{
	"connection reset by peer",
	"broken pipe",
	"no such host",
	"tls handshake timeout",
	"i/o timeout",
	"unable_to_lock_row",
}

// IsTransient reports whether err is worth the single retry: an explicit
// TransientError mark anywhere in the chain, or a network-level flake.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var te *TransientError
	if errors.As(err, &te) {
		return true
	}
	return isNetworkFlake(err)
}

func isNetworkFlake(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if slices.ContainsFunc(connErrnos, func(errno syscall.Errno) bool {
		return errors.Is(err, errno)
	}) {
		return true
	}

	msg := strings.ToLower(err.Error())
	return slices.ContainsFunc(transientPhrases, func(phrase string) bool {
		return strings.Contains(msg, phrase)
	})
}

// IsTransientHTTPStatus reports whether an HTTP status is safe to retry:
// request timeout, throttling, or the server-side 5xx set.
func IsTransientHTTPStatus(status int) bool {
	switch status {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
