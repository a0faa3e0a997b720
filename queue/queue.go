// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package queue

import (
	"context"
	"log/slog"

	"github.com/poiesic/indexfeed/core"
	"github.com/poiesic/indexfeed/deadline"
)

// maxGeneration caps replay depth. A generation-1 queue exists only as the
// replay target of a generation-0 flush and never spawns a successor.
const maxGeneration = 1

// Queue is a transient in-memory queue of documents awaiting a bulk write.
// One queue is constructed per batch of events and owned by a single
// goroutine for its lifetime; it is not safe for concurrent use.
type Queue struct {
	sink       BulkSink
	tracker    deadline.Tracker
	logger     *slog.Logger
	monitor    FlushMonitor
	deadLetter DeadLetterer
	limitBytes int64
	generation int

	pending []*core.Document
	size    int64
}

// FlushStats summarizes one Flush call, including any replay flush it
// triggered.
type FlushStats struct {
	Indexed  int
	Failed   int
	Replayed int
	Dropped  int
}

func (s *FlushStats) add(other FlushStats) {
	s.Indexed += other.Indexed
	s.Failed += other.Failed
	s.Replayed += other.Replayed
	s.Dropped += other.Dropped
}

// Option configures a Queue.
type Option func(*Queue)

// WithLimitBytes overrides the flush threshold. Default is
// core.QueueLimitBytes.
func WithLimitBytes(limit int64) Option {
	return func(q *Queue) {
		if limit > 0 {
			q.limitBytes = limit
		}
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(q *Queue) {
		if logger != nil {
			q.logger = logger
		}
	}
}

// WithMonitor sets a flush monitor. Default is a no-op.
func WithMonitor(monitor FlushMonitor) Option {
	return func(q *Queue) {
		if monitor != nil {
			q.monitor = monitor
		}
	}
}

// WithDeadLetter sets a recorder for documents the pipeline gives up on.
func WithDeadLetter(dl DeadLetterer) Option {
	return func(q *Queue) {
		q.deadLetter = dl
	}
}

// New creates a first-generation queue.
func New(sink BulkSink, tracker deadline.Tracker, opts ...Option) *Queue {
	q := &Queue{
		sink:       sink,
		tracker:    tracker,
		logger:     slog.Default(),
		monitor:    &noopMonitor{},
		limitBytes: core.QueueLimitBytes,
		generation: 0,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// newReplayQueue derives the one sanctioned error-generation queue. Only
// Flush on a generation-0 queue calls it; the generation counter makes the
// depth bound structural rather than a runtime convention.
func (q *Queue) newReplayQueue() *Queue {
	return &Queue{
		sink:       q.sink,
		tracker:    q.tracker,
		logger:     q.logger,
		monitor:    q.monitor,
		deadLetter: q.deadLetter,
		limitBytes: q.limitBytes,
		generation: q.generation + 1,
	}
}

// Len returns the number of pending documents.
func (q *Queue) Len() int { return len(q.pending) }

// QueuedBytes returns the running total of capped document sizes.
func (q *Queue) QueuedBytes() int64 { return q.size }

// Generation returns 0 for a batch queue and 1 for its replay queue.
func (q *Queue) Generation() int { return q.generation }

// Append queues a document. Each document contributes its capped size to
// the running total; once the total exceeds the queue threshold the queue
// flushes synchronously before returning, so a single oversized batch
// cannot grow without bound.
func (q *Queue) Append(ctx context.Context, doc *core.Document) {
	q.enqueue(doc)
	q.monitor.Appended(doc, q.size)
	if q.size > q.limitBytes {
		q.Flush(ctx)
	}
}

// enqueue adds a document without the threshold check. Used by Append and
// by the replay path, which flushes explicitly after classification.
func (q *Queue) enqueue(doc *core.Document) {
	q.pending = append(q.pending, doc)
	q.size += doc.CappedSize()
}

// Flush submits all pending documents as one bulk operation, classifies
// per-item failures and replays the structurally rejected subset exactly
// once. Flush never fails: a transport-level failure abandons the pending
// documents for this cycle (dead-lettered, logged) rather than poisoning
// the owning execution context.
func (q *Queue) Flush(ctx context.Context) FlushStats {
	var stats FlushStats
	if len(q.pending) == 0 {
		return stats
	}

	docs := q.pending
	// Reset accounting before the send; the byIdentity lookup keeps the
	// documents reachable until error classification completes.
	byIdentity := make(map[string]*core.Document, len(docs))
	for _, doc := range docs {
		byIdentity[doc.Identity()] = doc
	}
	q.pending = nil
	q.size = 0

	q.monitor.FlushStarted(q.generation, len(docs))
	indexed, itemErrs, err := q.sink.Flush(ctx, q.tracker, docs)
	if err != nil {
		q.logger.Error("fatal, unexpected failure during bulk flush",
			"generation", q.generation, "documents", len(docs), "error", err)
		q.monitor.FlushAborted(q.generation, err)
		for _, doc := range docs {
			q.recordDeadLetter(ctx, doc, "bulk flush failed: "+err.Error())
		}
		stats.Dropped = len(docs)
		return stats
	}

	stats.Indexed = indexed
	stats.Failed = len(itemErrs)

	var replay *Queue
	for _, itemErr := range itemErrs {
		q.logger.Warn("bulk item rejected",
			"generation", q.generation, "id", itemErr.Identity,
			"op", itemErr.Op, "status", itemErr.Status, "error", itemErr.Err)

		doc, known := byIdentity[itemErr.Identity]
		if known && q.generation < maxGeneration && Replayable(itemErr.Err) {
			doc.StripMeta()
			if replay == nil {
				replay = q.newReplayQueue()
			}
			replay.enqueue(doc)
			q.monitor.Replayed(itemErr.Identity)
			stats.Replayed++
			continue
		}

		q.monitor.Dropped(itemErr.Identity, itemErr.Err)
		stats.Dropped++
		if known {
			q.recordDeadLetter(ctx, doc, "bulk item rejected: "+itemErr.Err.Error())
		}
	}

	q.monitor.FlushCompleted(q.generation, indexed, len(itemErrs))

	// Recursive, but never more than one level deep: replay is only built
	// on a generation-0 queue.
	if replay != nil {
		stats.add(replay.Flush(ctx))
	}
	return stats
}

func (q *Queue) recordDeadLetter(ctx context.Context, doc *core.Document, reason string) {
	if q.deadLetter == nil {
		return
	}
	if err := q.deadLetter.Record(ctx, doc, reason); err != nil {
		q.logger.Error("failed to record dead letter",
			"id", doc.Identity(), "error", err)
	}
}
