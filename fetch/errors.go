package fetch

import (
	"errors"
	"fmt"
)

// Transient storage-read failures. Adapters map backend error codes to
// these sentinels; the retry loop treats anything else as fatal.
var (
	// ErrNotFound indicates the pinned object version is not yet visible.
	ErrNotFound = errors.New("object version not found")

	// ErrPreconditionFailed indicates the etag precondition did not match.
	ErrPreconditionFailed = errors.New("etag precondition failed")

	// ErrThrottled indicates the storage backend asked us to slow down.
	ErrThrottled = errors.New("request throttled by storage backend")

	// ErrDeadlineExhausted indicates no attempt could be made before the
	// execution deadline ran out.
	ErrDeadlineExhausted = errors.New("execution deadline exhausted")
)

// Error reports an exhausted fetch: all attempts failed or the deadline
// ran out first.
type Error struct {
	Op       string
	Bucket   string
	Key      string
	Attempts int
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("fetch %s s3://%s/%s failed after %d attempts: %v",
		e.Op, e.Bucket, e.Key, e.Attempts, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsRetryable reports whether err is an eventual-consistency or throttling
// failure worth retrying.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrPreconditionFailed) ||
		errors.Is(err, ErrThrottled)
}
