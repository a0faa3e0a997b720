package elastic

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/olivere/elastic/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/indexfeed/core"
	"github.com/poiesic/indexfeed/deadline"
	"github.com/poiesic/indexfeed/queue"
)

func testDoc(key string, op core.OpType) *core.Document {
	return &core.Document{
		Key:        key,
		VersionID:  "v1",
		Index:      "bucket",
		Op:         op,
		Text:       "body",
		SystemMeta: map[string]any{},
		UserMeta:   map[string]any{},
	}
}

func bulkHandler(t *testing.T, hits *int, response string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/_bulk") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		*hits++
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, response)
	}
}

func TestFlushAllSucceed(t *testing.T) {
	hits := 0
	server := httptest.NewServer(bulkHandler(t, &hits, `{
		"took": 3, "errors": false,
		"items": [
			{"index": {"_index": "bucket", "_id": "a:v1", "status": 201}},
			{"delete": {"_index": "bucket", "_id": "b:v1", "status": 200}}
		]
	}`))
	defer server.Close()

	sink := NewSink(Config{Host: server.URL})
	indexed, itemErrs, err := sink.Flush(context.Background(), deadline.Never(),
		[]*core.Document{testDoc("a", core.OpIndex), testDoc("b", core.OpDelete)})

	require.NoError(t, err)
	assert.Equal(t, 2, indexed)
	assert.Empty(t, itemErrs)
	assert.Equal(t, 1, hits)
}

func TestFlushSurfacesItemErrors(t *testing.T) {
	hits := 0
	server := httptest.NewServer(bulkHandler(t, &hits, `{
		"took": 3, "errors": true,
		"items": [
			{"index": {"_index": "bucket", "_id": "a:v1", "status": 201}},
			{"index": {"_index": "bucket", "_id": "b:v1", "status": 400,
				"error": {"type": "mapper_parsing_exception", "reason": "failed to parse field [user_meta.count]"}}}
		]
	}`))
	defer server.Close()

	sink := NewSink(Config{Host: server.URL})
	indexed, itemErrs, err := sink.Flush(context.Background(), deadline.Never(),
		[]*core.Document{testDoc("a", core.OpIndex), testDoc("b", core.OpIndex)})

	require.NoError(t, err)
	assert.Equal(t, 1, indexed)
	require.Len(t, itemErrs, 1)
	assert.Equal(t, "b:v1", itemErrs[0].Identity)
	assert.Equal(t, "index", itemErrs[0].Op)
	assert.Equal(t, 400, itemErrs[0].Status)
	assert.True(t, queue.Replayable(itemErrs[0].Err))
}

func TestFlushRetriesTooManyRequests(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"took": 1, "errors": false,
			"items": [{"index": {"_index": "bucket", "_id": "a:v1", "status": 201}}]}`)
	}))
	defer server.Close()

	sink := NewSink(Config{Host: server.URL})
	indexed, itemErrs, err := sink.Flush(context.Background(), deadline.Never(),
		[]*core.Document{testDoc("a", core.OpIndex)})

	require.NoError(t, err)
	assert.Equal(t, 1, indexed)
	assert.Empty(t, itemErrs)
	assert.Equal(t, 2, attempts)
}

func TestFlushDoesNotRetryOtherStatuses(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	sink := NewSink(Config{Host: server.URL})
	_, _, err := sink.Flush(context.Background(), deadline.Never(),
		[]*core.Document{testDoc("a", core.OpIndex)})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestFlushTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	sink := NewSink(Config{Host: server.URL})
	_, _, err := sink.Flush(context.Background(), deadline.Never(),
		[]*core.Document{testDoc("a", core.OpIndex)})
	assert.Error(t, err)
}

func TestFlushEmptyIsNoop(t *testing.T) {
	sink := NewSink(Config{Host: "http://localhost:0"})
	indexed, itemErrs, err := sink.Flush(context.Background(), deadline.Never(), nil)
	require.NoError(t, err)
	assert.Zero(t, indexed)
	assert.Empty(t, itemErrs)
}

func TestChunkingByActionCount(t *testing.T) {
	docs := make([]*core.Document, 250)
	for i := range docs {
		docs[i] = testDoc(fmt.Sprintf("doc-%d", i), core.OpIndex)
	}
	chunks, err := chunkRequests(docs)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], core.BulkActions)
	assert.Len(t, chunks[1], core.BulkActions)
	assert.Len(t, chunks[2], 50)
}

func TestChunkingByByteSize(t *testing.T) {
	// Each document carries ~4 MB of text, so a 10 MB chunk fits two.
	docs := make([]*core.Document, 4)
	for i := range docs {
		doc := testDoc(fmt.Sprintf("doc-%d", i), core.OpIndex)
		doc.Text = strings.Repeat("x", 4_000_000)
		docs[i] = doc
	}
	chunks, err := chunkRequests(docs)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Len(t, chunks[0], 2)
	assert.Len(t, chunks[1], 2)
}

func TestToSinkErrorVariants(t *testing.T) {
	structured := toSinkError(&elastic.BulkResponseItem{
		Status: 400,
		Error:  &elastic.ErrorDetails{Type: "mapper_parsing_exception", Reason: "nope"},
	})
	assert.True(t, queue.Replayable(structured))

	opaque := toSinkError(&elastic.BulkResponseItem{Status: 413})
	assert.False(t, queue.Replayable(opaque))
	assert.Contains(t, opaque.Error(), "413")
}
