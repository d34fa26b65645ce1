package util

import "errors"

// Sentinel errors for common failure modes
var (
	// ErrAlreadyRunning indicates a generation run was requested while one
	// is still active; requests are rejected, never queued
	ErrAlreadyRunning = errors.New("generation already running")

	// ErrUpstream indicates the external metadata source was unreachable or
	// kept erroring after its own retries
	ErrUpstream = errors.New("upstream metadata source failed")

	// ErrImageMove indicates publishing an image set failed after all
	// retries were exhausted
	ErrImageMove = errors.New("image move failed")

	// ErrNotFound indicates a required resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidConfig indicates invalid configuration
	ErrInvalidConfig = errors.New("invalid configuration")
)

// RootCause walks the wrap chain and returns the deepest error. The final
// Failed status records this rather than the outermost wrapper.
func RootCause(err error) error {
	for err != nil {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
	return nil
}
