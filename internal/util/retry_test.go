package util

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestRetrySucceedsOnLaterAttempt(t *testing.T) {
	attempts := 0
	result, err := RetryWithBackoff(
		&RetryConfig{MaxAttempts: 3, InitialWait: time.Millisecond, MaxWait: time.Millisecond},
		func() (int, error) {
			attempts++
			if attempts < 3 {
				return 0, errors.New("transient")
			}
			return 42, nil
		},
		"test operation",
	)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if result != 42 || attempts != 3 {
		t.Errorf("result=%d attempts=%d", result, attempts)
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	sentinel := errors.New("persistent failure")
	attempts := 0
	_, err := RetryWithBackoff(
		&RetryConfig{MaxAttempts: 3, InitialWait: time.Millisecond, MaxWait: time.Millisecond},
		func() (struct{}, error) {
			attempts++
			return struct{}{}, sentinel
		},
		"test operation",
	)
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
	if !errors.Is(err, sentinel) {
		t.Errorf("expected wrapped original error, got %v", err)
	}
}

func TestRetryFixedDelayDoesNotGrow(t *testing.T) {
	var gaps []time.Duration
	last := time.Now()
	attempts := 0
	_, _ = RetryWithBackoff(
		&RetryConfig{MaxAttempts: 3, InitialWait: 20 * time.Millisecond, FixedDelay: true},
		func() (struct{}, error) {
			now := time.Now()
			if attempts > 0 {
				gaps = append(gaps, now.Sub(last))
			}
			last = now
			attempts++
			return struct{}{}, errors.New("always fails")
		},
		"fixed delay",
	)
	if len(gaps) != 2 {
		t.Fatalf("expected 2 inter-attempt gaps, got %d", len(gaps))
	}
	// With backoff the second gap would be ~2x the first
	if gaps[1] > gaps[0]*3/2 {
		t.Errorf("delay grew under FixedDelay: %v then %v", gaps[0], gaps[1])
	}
}

func TestImageMoveRetryConfig(t *testing.T) {
	cfg := ImageMoveRetryConfig()
	if cfg.MaxAttempts != 3 || !cfg.FixedDelay {
		t.Errorf("unexpected image move retry config: %+v", cfg)
	}
}

func TestRootCause(t *testing.T) {
	root := errors.New("disk full")
	wrapped := fmt.Errorf("failed to process item: %w",
		fmt.Errorf("failed to publish images: %w", root))
	if got := RootCause(wrapped); got != root {
		t.Errorf("expected deepest cause, got %v", got)
	}
	if got := RootCause(nil); got != nil {
		t.Errorf("expected nil for nil error, got %v", got)
	}
}
