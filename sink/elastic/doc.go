// Package elastic implements the bulk sink on an Elasticsearch cluster.
//
// Pending documents are split into physical _bulk requests bounded by both
// action count and byte size, rate-limit responses are retried internally
// within the remaining execution deadline, and per-item rejections are
// surfaced to the queue for classification instead of being raised as
// transport errors.
package elastic
