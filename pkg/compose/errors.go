package compose

import (
	"errors"
	"fmt"
)

// Sentinel errors for pipeline construction. All are configuration errors:
// they are returned by New, never at request time.
var (
	// ErrCacheWithoutPageFetch is returned when caching options are set but
	// no page fetch function is configured.
	ErrCacheWithoutPageFetch = errors.New("compose: caching requires a page fetch function")

	// ErrCacheWithoutHash is returned when a TTL, cache, or coalescing is
	// configured without a hash function.
	ErrCacheWithoutHash = errors.New("compose: caching requires a hash function")

	// ErrCacheWithoutTTL is returned when a hash function is configured
	// without a positive TTL.
	ErrCacheWithoutTTL = errors.New("compose: caching requires a positive TTL")
)

// FetchError wraps an error raised by a fetch stage with pipeline context.
type FetchError struct {
	Stage Stage // stage that failed
	Err   error // underlying error
}

// Error returns the error message with stage context.
func (e *FetchError) Error() string {
	return fmt.Sprintf("compose: %s: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *FetchError) Unwrap() error { return e.Err }

// PanicError wraps a panic recovered at the pipeline boundary.
type PanicError struct {
	Stage Stage  // stage that panicked
	Value any    // recovered panic value
	Stack []byte // stack trace captured at recovery
}

// Error returns the error message.
func (e *PanicError) Error() string {
	return fmt.Sprintf("compose: panic in %s: %v", e.Stage, e.Value)
}
