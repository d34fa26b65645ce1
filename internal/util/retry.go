package util

import (
	"fmt"
	"time"
)

// RetryConfig holds retry configuration
type RetryConfig struct {
	MaxAttempts int           // Maximum number of attempts
	InitialWait time.Duration // Initial wait duration (doubled each retry)
	MaxWait     time.Duration // Maximum wait duration between retries
	FixedDelay  bool          // When set, wait InitialWait between every attempt (no backoff)
}

// DefaultRetryConfig returns the default retry configuration
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts: 3,
		InitialWait: 100 * time.Millisecond,
		MaxWait:     5 * time.Second,
	}
}

// ImageMoveRetryConfig returns the retry configuration for publishing image
// directories: 3 attempts with a fixed delay, per the acquirer contract.
func ImageMoveRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts: 3,
		InitialWait: 500 * time.Millisecond,
		FixedDelay:  true,
	}
}

// RetryWithBackoff executes a function until it succeeds or attempts are
// exhausted. Waits double between attempts unless FixedDelay is set.
func RetryWithBackoff[T any](cfg *RetryConfig, operation func() (T, error), operationName string) (T, error) {
	var result T
	var err error

	if cfg == nil {
		cfg = DefaultRetryConfig()
	}

	waitDuration := cfg.InitialWait

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		result, err = operation()
		if err == nil {
			if attempt > 1 {
				DebugLog("Retry: %s succeeded on attempt %d/%d",
					operationName, attempt, cfg.MaxAttempts)
			}
			return result, nil
		}

		if attempt == cfg.MaxAttempts {
			WarnLog("Retry: %s failed after %d attempts: %v",
				operationName, cfg.MaxAttempts, err)
			return result, fmt.Errorf("max retries exceeded (%d attempts): %w",
				cfg.MaxAttempts, err)
		}

		DebugLog("Retry: %s failed (attempt %d/%d), retrying in %v: %v",
			operationName, attempt, cfg.MaxAttempts, waitDuration, err)

		time.Sleep(waitDuration)

		if !cfg.FixedDelay {
			waitDuration *= 2
			if waitDuration > cfg.MaxWait {
				waitDuration = cfg.MaxWait
			}
		}
	}

	return result, fmt.Errorf("unexpected retry loop exit: %w", err)
}

// Retry executes a function with retry logic (no return value)
func Retry(cfg *RetryConfig, operation func() error, operationName string) error {
	_, err := RetryWithBackoff(cfg, func() (struct{}, error) {
		return struct{}{}, operation()
	}, operationName)
	return err
}
