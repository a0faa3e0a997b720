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


// Package metrics exposes pipeline counters as Prometheus collectors.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/poiesic/indexfeed/core"
	"github.com/poiesic/indexfeed/queue"
)

var documentsAppended = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "indexfeed_documents_appended_total",
	Help: "Documents appended to a bulk queue, labelled by operation",
}, []string{"op"})

var queuedBytes = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "indexfeed_queued_bytes",
	Help: "Capped byte total of the most recently observed queue",
})

var flushesStarted = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "indexfeed_flushes_total",
	Help: "Bulk flushes started, labelled by queue generation",
}, []string{"generation"})

var flushesAborted = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "indexfeed_flushes_aborted_total",
	Help: "Bulk flushes that failed at the transport level",
}, []string{"generation"})

var documentsIndexed = promauto.NewCounter(prometheus.CounterOpts{
	Name: "indexfeed_documents_indexed_total",
	Help: "Documents accepted by the search cluster",
})

var documentsFailed = promauto.NewCounter(prometheus.CounterOpts{
	Name: "indexfeed_documents_failed_total",
	Help: "Documents rejected by the search cluster",
})

var documentsReplayed = promauto.NewCounter(prometheus.CounterOpts{
	Name: "indexfeed_documents_replayed_total",
	Help: "Rejected documents requeued with metadata stripped",
})

var documentsDropped = promauto.NewCounter(prometheus.CounterOpts{
	Name: "indexfeed_documents_dropped_total",
	Help: "Documents abandoned after classification or fatal flush",
})

var fetchRetries = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "indexfeed_fetch_retries_total",
	Help: "Object reads retried after a retryable failure, labelled by operation",
}, []string{"op"})

var recordFailures = promauto.NewCounter(prometheus.CounterOpts{
	Name: "indexfeed_record_failures_total",
	Help: "Change records skipped after an unrecoverable processing failure",
})

// FetchRetried counts one retried fetch attempt. Wire it into a fetcher
// with fetch.WithRetryHook.
func FetchRetried(op string) {
	fetchRetries.WithLabelValues(op).Inc()
}

// RecordFailed counts one skipped change record.
func RecordFailed() {
	recordFailures.Inc()
}

// Monitor reports queue activity to the package-level collectors.
type Monitor struct{}

var _ queue.FlushMonitor = (*Monitor)(nil)

// NewMonitor creates a Prometheus-backed flush monitor.
func NewMonitor() *Monitor {
	return &Monitor{}
}

func (m *Monitor) Appended(doc *core.Document, queued int64) {
	documentsAppended.WithLabelValues(string(doc.Op)).Inc()
	queuedBytes.Set(float64(queued))
}

func (m *Monitor) FlushStarted(generation, pending int) {
	flushesStarted.WithLabelValues(strconv.Itoa(generation)).Inc()
}

func (m *Monitor) FlushCompleted(generation, indexed, failed int) {
	documentsIndexed.Add(float64(indexed))
	documentsFailed.Add(float64(failed))
	queuedBytes.Set(0)
}

func (m *Monitor) FlushAborted(generation int, err error) {
	flushesAborted.WithLabelValues(strconv.Itoa(generation)).Inc()
	queuedBytes.Set(0)
}

func (m *Monitor) Replayed(identity string) {
	documentsReplayed.Inc()
}

func (m *Monitor) Dropped(identity string, err error) {
	documentsDropped.Inc()
}
