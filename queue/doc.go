// Package queue implements the transient in-memory document queue at the
// center of the pipeline.
//
// A queue accumulates built documents, tracks their capped payload sizes,
// and flushes them as one bulk operation when the size threshold is
// exceeded or on explicit finalize. Per-item failures returned by the sink
// are classified: structural mapping rejections are replayed exactly once
// with their metadata stripped, everything else is dead-lettered and
// dropped. A replay queue can never spawn another replay queue, so
// permanently malformed documents cannot cause infinite regress.
package queue
