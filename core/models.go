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


package core

import "time"

// Size limits enforced across the pipeline.
const (
	// DocSizeLimitBytes caps the encoded length of a document's text field.
	DocSizeLimitBytes = 10_000

	// QueueLimitBytes is the accumulated capped-size threshold that forces
	// a queue flush before the next append returns.
	QueueLimitBytes = 100_000_000

	// ChunkLimitBytes caps a single physical bulk request. The cluster
	// enforces the same limit on its side, so staying under it keeps bulk
	// calls from being rejected wholesale.
	ChunkLimitBytes = 10_000_000

	// BulkActions caps the number of operations per physical bulk request.
	BulkActions = 100

	// MaxFetchAttempts bounds retries of a single storage read.
	MaxFetchAttempts = 10

	// TooManyRequestsRetries bounds the sink client's internal retry of
	// HTTP 429 responses. All other failures are handled by the queue.
	TooManyRequestsRetries = 5
)

// Storage event types the pipeline reacts to.
const (
	// EventObjectDelete signifies the object is truly deleted. Not to be
	// confused with delete-marker creation on versioned buckets, which
	// still indexes metadata.
	EventObjectDelete = "ObjectRemoved:Delete"

	// EventTest is the sentinel notification the bucket emits when the
	// subscription is first configured. It carries no records and must be
	// consumed silently.
	EventTest = "s3:TestEvent"
)

// OpType selects the bulk operation performed for a document.
type OpType string

const (
	// OpIndex upserts the document, clobbering any existing document with
	// the same identity.
	OpIndex OpType = "index"
	// OpDelete removes the document.
	OpDelete OpType = "delete"
)

// Document is one record destined for the search index. It is created once
// by the builder and treated as immutable afterwards, with one sanctioned
// exception: StripMeta, used by the replay protocol when the sink rejects
// the document for a structural mapping problem.
type Document struct {
	Key       string `json:"key"`
	VersionID string `json:"version_id"`
	Index     string `json:"-"`
	Op        OpType `json:"-"`

	ETag         string    `json:"etag"`
	Ext          string    `json:"ext"`
	Event        string    `json:"event"`
	Size         int64     `json:"size"`
	Text         string    `json:"text"`
	LastModified time.Time `json:"last_modified"`
	Updated      time.Time `json:"updated"`

	SystemMeta map[string]any `json:"system_meta"`
	UserMeta   map[string]any `json:"user_meta"`
	Comment    string         `json:"comment"`
	Target     string         `json:"target"`
	MetaText   string         `json:"meta_text"`
}

// Identity returns the composite document key. The version identifier may
// be empty on unversioned buckets; ':' is legal inside object keys, so the
// version is whatever follows the last colon.
func (d *Document) Identity() string {
	return d.Key + ":" + d.VersionID
}

// CappedSize is the document's contribution to queue size accounting:
// the original payload size bounded by the text limit. Text may be smaller
// after truncation, but accounting against the cap keeps the worst-case
// memory estimate honest.
func (d *Document) CappedSize() int64 {
	if d.Text == "" {
		return 0
	}
	return min(d.Size, DocSizeLimitBytes)
}

// StripMeta empties both metadata sub-objects. Malformed nested metadata is
// the usual cause of structural rejections by the sink, so the replay
// protocol strips it before resubmitting.
func (d *Document) StripMeta() {
	d.SystemMeta = map[string]any{}
	d.UserMeta = map[string]any{}
}
