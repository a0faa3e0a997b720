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


package elastic

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/olivere/elastic/v7"
	"golang.org/x/time/rate"

	"github.com/poiesic/indexfeed/core"
	"github.com/poiesic/indexfeed/deadline"
	"github.com/poiesic/indexfeed/queue"
)

// clientTimeout gives the cluster time to respond when under load.
const clientTimeout = 20 * time.Second

// Config holds connection settings for the cluster. Credentials are used
// for the session only and never logged.
type Config struct {
	Host     string
	Username string
	Password string

	// RateLimit bounds physical bulk requests per second. Zero disables
	// the limiter.
	RateLimit rate.Limit
	Burst     int
}

// Sink implements queue.BulkSink on an Elasticsearch cluster.
type Sink struct {
	cfg     Config
	limiter *rate.Limiter
	logger  *slog.Logger
}

var _ queue.BulkSink = (*Sink)(nil)

// Option configures a Sink.
type Option func(*Sink)

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Sink) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSink creates a Sink for the configured cluster.
func NewSink(cfg Config, opts ...Option) *Sink {
	s := &Sink{
		cfg:    cfg,
		logger: slog.Default(),
	}
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(cfg.RateLimit, burst)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Flush submits docs as one bulk operation, split into physical requests
// of at most core.BulkActions items and core.ChunkLimitBytes bytes. The
// session is established fresh per flush with the remaining deadline as
// the 429-retry backoff budget. A transport failure aborts the remainder
// and is returned to the caller; per-item rejections are collected and
// returned, never raised.
func (s *Sink) Flush(ctx context.Context, tracker deadline.Tracker, docs []*core.Document) (int, []queue.ItemError, error) {
	if len(docs) == 0 {
		return 0, nil, nil
	}

	client, err := s.newClient(tracker)
	if err != nil {
		return 0, nil, fmt.Errorf("connecting to search cluster: %w", err)
	}
	defer client.Stop()

	chunks, err := chunkRequests(docs)
	if err != nil {
		return 0, nil, fmt.Errorf("encoding bulk requests: %w", err)
	}

	indexed := 0
	var itemErrs []queue.ItemError
	for _, chunk := range chunks {
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return indexed, itemErrs, err
			}
		}

		resp, err := client.Bulk().Add(chunk...).Do(ctx)
		if err != nil {
			return indexed, itemErrs, fmt.Errorf("bulk request: %w", err)
		}

		// Each item is a single-entry mapping from the operation-type
		// key ("index", "delete") to its outcome.
		for _, item := range resp.Items {
			for op, result := range item {
				if result.Error == nil && result.Status < 300 {
					indexed++
					continue
				}
				itemErrs = append(itemErrs, queue.ItemError{
					Identity: result.Id,
					Op:       op,
					Status:   result.Status,
					Err:      toSinkError(result),
				})
			}
		}
	}
	return indexed, itemErrs, nil
}

func (s *Sink) newClient(tracker deadline.Tracker) (*elastic.Client, error) {
	opts := []elastic.ClientOptionFunc{
		elastic.SetURL(s.cfg.Host),
		elastic.SetSniff(false),
		elastic.SetHealthcheck(false),
		elastic.SetHttpClient(&http.Client{Timeout: clientTimeout}),
		elastic.SetRetrier(newThrottleRetrier(tracker, core.TooManyRequestsRetries)),
		// The retrier is only consulted for status codes registered here;
		// without this a 429 response surfaces directly as an error.
		elastic.SetRetryStatusCodes(http.StatusTooManyRequests),
	}
	if s.cfg.Username != "" {
		opts = append(opts, elastic.SetBasicAuth(s.cfg.Username, s.cfg.Password))
	}
	return elastic.NewClient(opts...)
}

// toSinkError maps an item outcome to the tagged error variants the queue
// classifies. The cluster reports errors as either a structured object or
// a bare string; only the structured form can mark a document replayable.
func toSinkError(result *elastic.BulkResponseItem) error {
	if result.Error != nil {
		return &queue.StructuredError{
			Type:   result.Error.Type,
			Reason: result.Error.Reason,
		}
	}
	return queue.OpaqueError(fmt.Sprintf("rejected with status %d", result.Status))
}

// chunkRequests converts documents to bulk requests and packs them into
// physical request chunks bounded by action count and encoded size.
func chunkRequests(docs []*core.Document) ([][]elastic.BulkableRequest, error) {
	var chunks [][]elastic.BulkableRequest
	var current []elastic.BulkableRequest
	var currentBytes int64

	for _, doc := range docs {
		req := toRequest(doc)
		reqBytes, err := requestBytes(req)
		if err != nil {
			return nil, err
		}

		full := len(current) >= core.BulkActions ||
			(len(current) > 0 && currentBytes+reqBytes > core.ChunkLimitBytes)
		if full {
			chunks = append(chunks, current)
			current = nil
			currentBytes = 0
		}
		current = append(current, req)
		currentBytes += reqBytes
	}
	if len(current) > 0 {
		chunks = append(chunks, current)
	}
	return chunks, nil
}

func toRequest(doc *core.Document) elastic.BulkableRequest {
	if doc.Op == core.OpDelete {
		return elastic.NewBulkDeleteRequest().
			Index(doc.Index).
			Id(doc.Identity())
	}
	return elastic.NewBulkIndexRequest().
		Index(doc.Index).
		Id(doc.Identity()).
		Doc(doc)
}

func requestBytes(req elastic.BulkableRequest) (int64, error) {
	lines, err := req.Source()
	if err != nil {
		return 0, err
	}
	var n int64
	for _, line := range lines {
		n += int64(len(line)) + 1 // trailing newline
	}
	return n, nil
}
