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


package fetch

import (
	"context"
	"log/slog"
	"time"

	"github.com/poiesic/indexfeed/core"
	"github.com/poiesic/indexfeed/deadline"
)

const (
	defaultBackoffFloor = 4 * time.Second
	defaultBackoffCeil  = 30 * time.Second
)

// Fetcher retries single read operations against an ObjectStore.
type Fetcher struct {
	store        ObjectStore
	tracker      deadline.Tracker
	maxAttempts  int
	backoffFloor time.Duration
	backoffCeil  time.Duration
	logger       *slog.Logger
	onRetry      func(op string)
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithMaxAttempts overrides the attempt cap. Intended for tests; the
// default is core.MaxFetchAttempts.
func WithMaxAttempts(n int) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxAttempts = n
		}
	}
}

// WithBackoff overrides the backoff floor and ceiling. Intended for tests.
func WithBackoff(floor, ceil time.Duration) Option {
	return func(f *Fetcher) {
		if floor > 0 {
			f.backoffFloor = floor
		}
		if ceil >= floor {
			f.backoffCeil = ceil
		}
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithRetryHook registers a callback invoked once per retried attempt,
// with the operation name. Used to feed retry counters.
func WithRetryHook(fn func(op string)) Option {
	return func(f *Fetcher) {
		f.onRetry = fn
	}
}

// NewFetcher creates a Fetcher bound to a store and a deadline tracker.
func NewFetcher(store ObjectStore, tracker deadline.Tracker, opts ...Option) *Fetcher {
	f := &Fetcher{
		store:        store,
		tracker:      tracker,
		maxAttempts:  core.MaxFetchAttempts,
		backoffFloor: defaultBackoffFloor,
		backoffCeil:  defaultBackoffCeil,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Head probes an object's existence, size, modification time and custom
// metadata, pinned to the supplied version/etag.
func (f *Fetcher) Head(ctx context.Context, req Request) (*ObjectInfo, error) {
	var info *ObjectInfo
	err := f.retry(ctx, "head", req, func() error {
		var callErr error
		info, callErr = f.store.HeadObject(ctx, req)
		return callErr
	})
	return info, err
}

// Content reads the first limit bytes of an object's content, pinned to the
// supplied version/etag. Zero-length objects are read without a byte range:
// byte 0 of an empty object does not exist and a ranged read of it fails.
// Over-requesting past the actual size is safe.
func (f *Fetcher) Content(ctx context.Context, req Request, size, limit int64) ([]byte, error) {
	if size != 0 {
		req.Range = &ByteRange{Start: 0, End: limit}
	}
	var body []byte
	err := f.retry(ctx, "get", req, func() error {
		var callErr error
		body, callErr = f.store.GetObject(ctx, req)
		return callErr
	})
	return body, err
}

// retry runs operation with exponential backoff until it succeeds, fails
// non-retryably, or the attempt/deadline budget is exhausted.
func (f *Fetcher) retry(ctx context.Context, op string, req Request, operation func() error) error {
	var lastErr error
	attempts := 0
	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		if f.tracker() <= 0 {
			break
		}
		select {
		case <-ctx.Done():
			return &Error{Op: op, Bucket: req.Bucket, Key: req.Key, Attempts: attempts, Err: ctx.Err()}
		default:
		}

		attempts++
		lastErr = operation()
		if lastErr == nil {
			if attempt > 1 {
				f.logger.Debug("fetch succeeded after retry",
					"op", op, "key", req.Key, "attempt", attempt)
			}
			return nil
		}
		if !IsRetryable(lastErr) {
			return &Error{Op: op, Bucket: req.Bucket, Key: req.Key, Attempts: attempts, Err: lastErr}
		}

		f.logger.Debug("fetch failed, will retry",
			"op", op, "key", req.Key, "attempt", attempt,
			"maxAttempts", f.maxAttempts, "error", lastErr)

		if attempt == f.maxAttempts {
			break
		}
		if f.onRetry != nil {
			f.onRetry(op)
		}
		if err := f.sleep(ctx, f.backoffFor(attempt)); err != nil {
			return &Error{Op: op, Bucket: req.Bucket, Key: req.Key, Attempts: attempts, Err: err}
		}
	}
	if lastErr == nil {
		lastErr = ErrDeadlineExhausted
	}
	return &Error{Op: op, Bucket: req.Bucket, Key: req.Key, Attempts: attempts, Err: lastErr}
}

func (f *Fetcher) sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	select {
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// backoffFor computes the wait before the next attempt: floor * 2^(n-1),
// capped at the ceiling. The wait is independent of remaining deadline; the
// deadline is consulted before each attempt instead.
func (f *Fetcher) backoffFor(attempt int) time.Duration {
	d := f.backoffFloor
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= f.backoffCeil {
			return f.backoffCeil
		}
	}
	return d
}
