package queue

import (
	"context"

	"github.com/poiesic/indexfeed/core"
	"github.com/poiesic/indexfeed/deadline"
)

// BulkSink is the search-cluster boundary. Flush submits the documents as
// one bulk operation and returns the number of successfully applied items
// plus per-item error descriptors. The sink retries rate-limit responses
// internally, bounded by the remaining deadline; a non-nil error means the
// transport or session itself failed and none of the per-item outcomes are
// known.
type BulkSink interface {
	Flush(ctx context.Context, tracker deadline.Tracker, docs []*core.Document) (int, []ItemError, error)
}

// DeadLetterer records documents the pipeline gives up on so they can be
// inspected or reprocessed later. Recording is best effort.
type DeadLetterer interface {
	Record(ctx context.Context, doc *core.Document, reason string) error
}
