package resilience

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoVal_SuccessFirstTry(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	val, outcome, err := DoVal(context.Background(), Policy{Delay: time.Millisecond}, func(ctx context.Context) (int, error) {
		attempts.Add(1)
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, val)
	assert.Equal(t, OutcomeSuccess, outcome)
	assert.Equal(t, int32(1), attempts.Load())
}

func TestDoVal_TransientRetriesOnce(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	val, outcome, err := DoVal(context.Background(), Policy{Delay: time.Millisecond}, func(ctx context.Context) (string, error) {
		if attempts.Add(1) == 1 {
			return "", NewTransientError(errors.New("service unavailable"), http.StatusServiceUnavailable)
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", val)
	assert.Equal(t, OutcomeSuccess, outcome)
	assert.Equal(t, int32(2), attempts.Load())
}

func TestDoVal_TransientExhaustedIsSoftFail(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	_, outcome, err := DoVal(context.Background(), Policy{Delay: time.Millisecond}, func(ctx context.Context) (int, error) {
		attempts.Add(1)
		return 0, NewTransientError(errors.New("bad gateway"), http.StatusBadGateway)
	})

	assert.Error(t, err)
	assert.Equal(t, OutcomeSoftFail, outcome)
	// Exactly one retry, never more.
	assert.Equal(t, int32(2), attempts.Load())
}

func TestDoVal_NonTransientIsHardFail(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	_, outcome, err := DoVal(context.Background(), Policy{Delay: time.Millisecond}, func(ctx context.Context) (int, error) {
		attempts.Add(1)
		return 0, errors.New("invalid dataset id")
	})

	assert.Error(t, err)
	assert.Equal(t, OutcomeHardFail, outcome)
	assert.Equal(t, int32(1), attempts.Load())
}

func TestDoVal_ContextCancelledSkipsRetry(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	var attempts atomic.Int32
	_, outcome, err := DoVal(ctx, Policy{Delay: time.Minute}, func(ctx context.Context) (int, error) {
		attempts.Add(1)
		cancel()
		return 0, NewTransientError(errors.New("gateway timeout"), http.StatusGatewayTimeout)
	})

	assert.Error(t, err)
	assert.Equal(t, OutcomeSoftFail, outcome)
	assert.Equal(t, int32(1), attempts.Load())
}

func TestDo_OnRetryFires(t *testing.T) {
	t.Parallel()

	var retried atomic.Int32
	outcome, err := Do(context.Background(), Policy{
		Delay:   time.Millisecond,
		OnRetry: func(err error) { retried.Add(1) },
	}, func(ctx context.Context) error {
		return NewTransientError(errors.New("throttled"), http.StatusTooManyRequests)
	})

	assert.Error(t, err)
	assert.Equal(t, OutcomeSoftFail, outcome)
	assert.Equal(t, int32(1), retried.Load())
}

func TestTransientErrorMessage(t *testing.T) {
	t.Parallel()

	withStatus := NewTransientError(errors.New("bad gateway"), http.StatusBadGateway)
	assert.Equal(t, "bad gateway (status 502)", withStatus.Error())

	network := NewTransientError(errors.New("read tcp: broken pipe"), 0)
	assert.Equal(t, "read tcp: broken pipe", network.Error())

	// The mark stays visible through ordinary wrapping.
	wrapped := fmt.Errorf("export notion: %w", withStatus)
	var te *TransientError
	require.True(t, errors.As(wrapped, &te))
	assert.Equal(t, http.StatusBadGateway, te.StatusCode)
}

func TestIsTransient(t *testing.T) {
	t.Parallel()

	transient := []error{
		NewTransientError(errors.New("throttled"), http.StatusTooManyRequests),
		fmt.Errorf("query database: %w", NewTransientError(errors.New("down"), http.StatusInternalServerError)),
		syscall.ECONNRESET,
		syscall.ECONNREFUSED,
		fmt.Errorf("dial: %w", syscall.ECONNABORTED),
		&net.DNSError{IsTimeout: true},
		errors.New("read tcp 10.0.0.4:443: i/o timeout"),
		errors.New("write: broken pipe"),
		errors.New("UNABLE_TO_LOCK_ROW: unable to obtain exclusive access"),
	}
	for _, err := range transient {
		assert.True(t, IsTransient(err), "expected transient: %v", err)
	}

	permanent := []error{
		nil,
		errors.New("INVALID_SESSION_ID: session expired"),
		errors.New("dataset not found"),
		&net.DNSError{IsTimeout: false},
	}
	for _, err := range permanent {
		assert.False(t, IsTransient(err), "expected permanent: %v", err)
	}
}

func TestIsTransientHTTPStatus(t *testing.T) {
	t.Parallel()

	retryable := []int{
		http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout,
	}
	for _, code := range retryable {
		assert.True(t, IsTransientHTTPStatus(code), "status %d", code)
	}

	terminal := []int{
		http.StatusOK,
		http.StatusBadRequest,
		http.StatusUnauthorized,
		http.StatusForbidden,
		http.StatusNotFound,
		http.StatusUnprocessableEntity,
	}
	for _, code := range terminal {
		assert.False(t, IsTransientHTTPStatus(code), "status %d", code)
	}
}
