package fetch

import (
	"context"
	"time"
)

// ByteRange selects a half-open slice of an object's content. End may
// exceed the object's actual size; over-requesting is safe.
type ByteRange struct {
	Start int64
	End   int64
}

// Request names one object read. VersionID pins the read on versioned
// buckets; on unversioned buckets ETag is used as a precondition instead.
type Request struct {
	Bucket    string
	Key       string
	VersionID string
	ETag      string
	Range     *ByteRange
}

// ObjectInfo is the result of a metadata probe.
type ObjectInfo struct {
	Size         int64
	LastModified time.Time
	Metadata     map[string]string
}

// ObjectStore is the storage backend boundary. Implementations map backend
// failures to the package's retryable sentinels where appropriate.
type ObjectStore interface {
	HeadObject(ctx context.Context, req Request) (*ObjectInfo, error)
	GetObject(ctx context.Context, req Request) ([]byte, error)
}
