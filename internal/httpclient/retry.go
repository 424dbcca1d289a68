package httpclient

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// ErrorType classifies storage-download errors for retry strategy.
type ErrorType int

const (
	// ErrorTypeSuccess indicates the operation succeeded.
	ErrorTypeSuccess ErrorType = iota
	// ErrorTypeCredential indicates an auth failure (403, expired SAS/token).
	ErrorTypeCredential
	// ErrorTypeNetwork indicates connection-level trouble.
	ErrorTypeNetwork
	// ErrorTypeRetryable indicates server errors worth retrying (5xx, throttling).
	ErrorTypeRetryable
	// ErrorTypeFatal indicates client errors that must not be retried.
	ErrorTypeFatal
)

// RetryConfig holds parameters for ExecuteWithRetry.
type RetryConfig struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	// OnRetry is invoked before each retry attempt.
	OnRetry func(attempt int, err error, errorType ErrorType)
}

// DefaultRetryConfig returns sensible defaults for storage downloads.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   8,
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     15 * time.Second,
	}
}

// ClassifyError maps an error to a retry class. Matching is string-based
// because the S3 and Azure SDKs surface most transport failures as
// opaque wrapped errors.
func ClassifyError(err error) ErrorType {
	if err == nil {
		return ErrorTypeSuccess
	}

	errStr := strings.ToLower(err.Error())

	if strings.Contains(errStr, "expired") ||
		strings.Contains(errStr, "403") ||
		strings.Contains(errStr, "unauthorized") ||
		strings.Contains(errStr, "authentication failed") ||
		strings.Contains(errStr, "invalid sas") ||
		strings.Contains(errStr, "signature not valid") {
		return ErrorTypeCredential
	}

	if strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "i/o timeout") ||
		strings.Contains(errStr, "eof") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "broken pipe") ||
		strings.Contains(errStr, "timeout") {
		return ErrorTypeNetwork
	}

	if strings.Contains(errStr, "requesttimeout") ||
		strings.Contains(errStr, "internalerror") ||
		strings.Contains(errStr, "slowdown") ||
		strings.Contains(errStr, "throttl") ||
		strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "504") ||
		strings.Contains(errStr, "server busy") ||
		strings.Contains(errStr, "service unavailable") {
		return ErrorTypeRetryable
	}

	// Unknown errors are fatal to avoid retry loops on unexpected failures.
	return ErrorTypeFatal
}

// CalculateBackoff returns an exponential backoff duration with full jitter.
func CalculateBackoff(attempt int, initialDelay, maxDelay time.Duration) time.Duration {
	if attempt <= 0 {
		return 0
	}

	base := time.Duration(1<<uint(attempt)) * initialDelay
	if base > maxDelay {
		base = maxDelay
	}

	return time.Duration(rand.Int63n(int64(base)))
}

// ExecuteWithRetry runs an operation with classification-driven retries:
// fatal errors return immediately, credential errors pause briefly,
// network and server errors back off exponentially with jitter.
func ExecuteWithRetry(ctx context.Context, cfg RetryConfig, operation func() error) error {
	var lastErr error

	for attempt := 0; attempt < cfg.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err := operation()
		if err == nil {
			return nil
		}
		lastErr = err

		errType := ClassifyError(err)

		switch errType {
		case ErrorTypeFatal:
			return err

		case ErrorTypeCredential:
			if attempt < cfg.MaxRetries-1 {
				if cfg.OnRetry != nil {
					cfg.OnRetry(attempt+1, err, errType)
				}
				time.Sleep(1 * time.Second)
				continue
			}
			return fmt.Errorf("credential error after %d attempts: %w", cfg.MaxRetries, err)

		case ErrorTypeNetwork, ErrorTypeRetryable:
			if attempt < cfg.MaxRetries-1 {
				backoff := CalculateBackoff(attempt, cfg.InitialDelay, cfg.MaxDelay)
				if cfg.OnRetry != nil {
					cfg.OnRetry(attempt+1, err, errType)
				}
				time.Sleep(backoff)
				continue
			}
		}
	}

	return fmt.Errorf("operation failed after %d attempts: %w", cfg.MaxRetries, lastErr)
}
