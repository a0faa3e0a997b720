package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentityIncludesEmptyVersion(t *testing.T) {
	doc := &Document{Key: "data/file.csv"}
	assert.Equal(t, "data/file.csv:", doc.Identity())

	doc.VersionID = "v1"
	assert.Equal(t, "data/file.csv:v1", doc.Identity())
}

func TestCappedSize(t *testing.T) {
	doc := &Document{Size: 500, Text: "body"}
	assert.Equal(t, int64(500), doc.CappedSize())

	doc.Size = 50_000
	assert.Equal(t, int64(DocSizeLimitBytes), doc.CappedSize())
}

func TestCappedSizeZeroWithoutText(t *testing.T) {
	// Documents without body text (deletes, unlisted extensions) do not
	// count against the queue threshold.
	doc := &Document{Size: 50_000}
	assert.Zero(t, doc.CappedSize())
}

func TestStripMeta(t *testing.T) {
	doc := &Document{
		SystemMeta: map[string]any{"a": 1},
		UserMeta:   map[string]any{"b": "2"},
		Comment:    "keep me",
	}
	doc.StripMeta()
	assert.Empty(t, doc.SystemMeta)
	assert.NotNil(t, doc.SystemMeta)
	assert.Empty(t, doc.UserMeta)
	assert.NotNil(t, doc.UserMeta)
	assert.Equal(t, "keep me", doc.Comment)
}

func TestIDFromIdentityDeterministic(t *testing.T) {
	a := IDFromIdentity("key:v1")
	b := IDFromIdentity("key:v1")
	c := IDFromIdentity("key:v2")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
