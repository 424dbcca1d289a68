package httpclient

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"nil", nil, ErrorTypeSuccess},
		{"expired token", errors.New("ExpiredToken: the provided token has expired"), ErrorTypeCredential},
		{"forbidden", errors.New("request failed: 403 Forbidden"), ErrorTypeCredential},
		{"invalid sas", errors.New("Invalid SAS signature"), ErrorTypeCredential},
		{"conn reset", errors.New("read tcp: connection reset by peer"), ErrorTypeNetwork},
		{"io timeout", errors.New("dial tcp: i/o timeout"), ErrorTypeNetwork},
		{"throttled", errors.New("SlowDown: reduce request rate"), ErrorTypeRetryable},
		{"server error", errors.New("unexpected status 503"), ErrorTypeRetryable},
		{"not found", errors.New("404 object not found"), ErrorTypeFatal},
		{"unknown", errors.New("something odd happened"), ErrorTypeFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyError(tt.err); got != tt.want {
				t.Errorf("ClassifyError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestCalculateBackoffBounds(t *testing.T) {
	initial := 100 * time.Millisecond
	max := 2 * time.Second

	if got := CalculateBackoff(0, initial, max); got != 0 {
		t.Errorf("attempt 0 backoff = %v, want 0", got)
	}

	for attempt := 1; attempt <= 10; attempt++ {
		got := CalculateBackoff(attempt, initial, max)
		if got < 0 || got > max {
			t.Errorf("attempt %d backoff = %v, outside [0, %v]", attempt, got, max)
		}
	}
}

func TestExecuteWithRetryFatalStopsImmediately(t *testing.T) {
	calls := 0
	err := ExecuteWithRetry(context.Background(), DefaultRetryConfig(), func() error {
		calls++
		return errors.New("400 bad request: invalid object key")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("fatal error retried %d times, want 1 call", calls)
	}
}

func TestExecuteWithRetryEventualSuccess(t *testing.T) {
	cfg := RetryConfig{
		MaxRetries:   5,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
	}

	calls := 0
	err := ExecuteWithRetry(context.Background(), cfg, func() error {
		calls++
		if calls < 3 {
			return errors.New("connection reset by peer")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("ExecuteWithRetry() error = %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestExecuteWithRetryHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := ExecuteWithRetry(ctx, DefaultRetryConfig(), func() error {
		t.Fatal("operation should not run with cancelled context")
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
