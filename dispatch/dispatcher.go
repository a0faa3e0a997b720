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


package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/indexfeed/core"
	"github.com/poiesic/indexfeed/deadline"
	"github.com/poiesic/indexfeed/document"
	"github.com/poiesic/indexfeed/fetch"
	"github.com/poiesic/indexfeed/queue"
)

const defaultWorkers = 4

// Dispatcher turns batches of change notifications into bulk index writes.
// Messages within a batch are processed concurrently; records within a
// message share one queue and flush together.
type Dispatcher struct {
	store           fetch.ObjectStore
	sink            queue.BulkSink
	builder         *document.Builder
	logger          *slog.Logger
	workers         int
	pool            *ants.Pool
	queueOpts       []queue.Option
	fetchOpts       []fetch.Option
	onRecordFailure func()
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithBuilder overrides the document builder.
func WithBuilder(b *document.Builder) DispatcherOption {
	return func(d *Dispatcher) {
		if b != nil {
			d.builder = b
		}
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithQueueOptions forwards options to each per-message queue.
func WithQueueOptions(opts ...queue.Option) DispatcherOption {
	return func(d *Dispatcher) {
		d.queueOpts = opts
	}
}

// WithFetchOptions forwards options to each per-message fetcher.
func WithFetchOptions(opts ...fetch.Option) DispatcherOption {
	return func(d *Dispatcher) {
		d.fetchOpts = opts
	}
}

// WithRecordFailureHook registers a callback invoked once per skipped
// change record. Used to feed failure counters.
func WithRecordFailureHook(fn func()) DispatcherOption {
	return func(d *Dispatcher) {
		d.onRecordFailure = fn
	}
}

// WithWorkers sets the message-level concurrency. Default is 4.
func WithWorkers(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.workers = n
		}
	}
}

// NewDispatcher creates a Dispatcher over an object store and a bulk sink.
func NewDispatcher(store fetch.ObjectStore, sink queue.BulkSink, opts ...DispatcherOption) (*Dispatcher, error) {
	d := &Dispatcher{
		store:   store,
		sink:    sink,
		builder: document.NewBuilder(),
		logger:  slog.Default(),
		workers: defaultWorkers,
	}
	for _, opt := range opts {
		opt(d)
	}
	pool, err := ants.NewPool(d.workers)
	if err != nil {
		return nil, err
	}
	d.pool = pool
	return d, nil
}

// Close releases the worker pool.
func (d *Dispatcher) Close() {
	d.pool.Release()
}

// Handle processes one delivery of queued messages. It returns non-nil
// only when at least one message body could not be decoded; those
// messages need redelivery, everything else has been dealt with.
func (d *Dispatcher) Handle(ctx context.Context, event events.SQSEvent) error {
	tracker := deadline.FromContext(ctx)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, msg := range event.Records {
		wg.Add(1)
		task := func() {
			defer wg.Done()
			if err := d.handleMessage(ctx, tracker, msg); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}
		if err := d.pool.Submit(task); err != nil {
			// Pool unavailable; degrade to inline execution.
			task()
		}
	}
	wg.Wait()
	return errors.Join(errs...)
}

// handleMessage decodes one message and pushes all of its records through
// a dedicated queue.
func (d *Dispatcher) handleMessage(ctx context.Context, tracker deadline.Tracker, msg events.SQSMessage) error {
	event, err := decodeMessage(msg.Body)
	if err != nil {
		return err
	}
	if event.isTestEvent() {
		d.logger.Debug("consumed subscription test event", "messageID", msg.MessageId)
		return nil
	}
	if len(event.Records) == 0 {
		d.logger.Warn("message with no change records, skipping",
			"messageID", msg.MessageId)
		return nil
	}

	fetcher := fetch.NewFetcher(d.store, tracker, d.fetchOpts...)
	q := queue.New(d.sink, tracker, d.queueOpts...)

	for _, rec := range event.Records {
		if err := d.processRecord(ctx, fetcher, q, rec); err != nil {
			if d.onRecordFailure != nil {
				d.onRecordFailure()
			}
			d.logger.Error("record failed, continuing with remainder",
				"messageID", msg.MessageId, "error", err)
		}
	}

	stats := q.Flush(ctx)
	d.logger.Info("message processed",
		"messageID", msg.MessageId, "records", len(event.Records),
		"indexed", stats.Indexed, "replayed", stats.Replayed,
		"dropped", stats.Dropped)
	return nil
}

// processRecord builds and queues the document for one change record.
// Delete markers skip the metadata probe: the referenced object may no
// longer exist, and a delete carries no body or metadata anyway.
func (d *Dispatcher) processRecord(ctx context.Context, fetcher *fetch.Fetcher, q *queue.Queue, rec events.S3EventRecord) error {
	src, err := parseRecord(rec)
	if err != nil {
		return &RecordError{
			EventName: rec.EventName,
			Bucket:    rec.S3.Bucket.Name,
			Key:       rec.S3.Object.Key,
			Err:       err,
		}
	}

	if src.EventName == core.EventObjectDelete {
		q.Append(ctx, d.builder.Build(document.Source{
			EventName:    src.EventName,
			Bucket:       src.Bucket,
			Key:          src.Key,
			Ext:          src.Ext,
			ETag:         src.ETag,
			VersionID:    src.VersionID,
			Size:         src.Size,
			LastModified: rec.EventTime.UTC(),
		}, ""))
		return nil
	}

	req := fetch.Request{
		Bucket:    src.Bucket,
		Key:       src.Key,
		VersionID: src.VersionID,
		ETag:      src.ETag,
	}
	head, err := fetcher.Head(ctx, req)
	if err != nil {
		return &RecordError{EventName: src.EventName, Bucket: src.Bucket, Key: src.Key, Err: err}
	}

	text := ""
	if document.Indexable(src.Ext) {
		raw, err := fetcher.Content(ctx, req, head.Size, core.DocSizeLimitBytes)
		if err != nil {
			return &RecordError{EventName: src.EventName, Bucket: src.Bucket, Key: src.Key, Err: err}
		}
		text, err = document.ExtractText(src.Ext, raw)
		if err != nil {
			// Metadata still gets indexed; only the body is lost.
			d.logger.Warn("text extraction failed, indexing without body",
				"key", src.Key, "ext", src.Ext, "error", err)
			text = ""
		}
	}

	q.Append(ctx, d.builder.Build(document.Source{
		EventName:    src.EventName,
		Bucket:       src.Bucket,
		Key:          src.Key,
		Ext:          src.Ext,
		ETag:         src.ETag,
		VersionID:    src.VersionID,
		Size:         head.Size,
		LastModified: head.LastModified,
		Meta:         document.DecodeHeadMeta(head.Metadata, d.builder.SystemMetaKey()),
	}, text))
	return nil
}
