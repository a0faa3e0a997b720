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


package document

import (
	"strings"
	"time"

	"github.com/poiesic/indexfeed/core"
)

// Source describes one storage event plus the metadata probe that followed
// it. It is everything Build needs apart from the extracted body text.
type Source struct {
	EventName    string
	Bucket       string
	Key          string
	Ext          string
	ETag         string
	VersionID    string
	Size         int64
	LastModified time.Time
	Meta         map[string]any
}

// Builder assembles one indexable document per storage event.
type Builder struct {
	sizeLimit int
	systemKey string
	now       func() time.Time
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithSizeLimit overrides the document text byte limit.
func WithSizeLimit(limit int) BuilderOption {
	return func(b *Builder) {
		if limit > 0 {
			b.sizeLimit = limit
		}
	}
}

// WithSystemMetaKey overrides the metadata key of the nested system block.
func WithSystemMetaKey(key string) BuilderOption {
	return func(b *Builder) {
		if key != "" {
			b.systemKey = key
		}
	}
}

// WithClock overrides the processing-time source. Intended for tests.
func WithClock(now func() time.Time) BuilderOption {
	return func(b *Builder) {
		if now != nil {
			b.now = now
		}
	}
}

// NewBuilder creates a Builder with the default limits.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{
		sizeLimit: core.DocSizeLimitBytes,
		systemKey: DefaultSystemMetaKey,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// SystemMetaKey returns the configured nested-block metadata key.
func (b *Builder) SystemMetaKey() string { return b.systemKey }

// Build assembles the document for one storage event. Delete events carry
// no body regardless of text; everything else gets text trimmed to the
// byte limit. The object key is appended as the final meta_text token so
// the key itself is full-text searchable.
func (b *Builder) Build(src Source, text string) *core.Document {
	op := core.OpIndex
	if src.EventName == core.EventObjectDelete {
		op = core.OpDelete
		text = ""
	}

	meta := TransformMeta(src.Meta, b.systemKey)

	return &core.Document{
		Key:          src.Key,
		VersionID:    src.VersionID,
		Index:        src.Bucket,
		Op:           op,
		ETag:         src.ETag,
		Ext:          strings.ToLower(src.Ext),
		Event:        src.EventName,
		Size:         src.Size,
		Text:         core.TrimToBytes(text, b.sizeLimit),
		LastModified: src.LastModified,
		Updated:      b.now(),
		SystemMeta:   meta.System,
		UserMeta:     meta.User,
		Comment:      meta.Comment,
		Target:       meta.Target,
		MetaText:     strings.Join([]string{meta.Text, src.Key}, " "),
	}
}
