// Package core defines the document model shared by the ingestion pipeline.
//
// A Document is built once per storage event and is destined for a bulk
// write to the search cluster. The package also carries the size limits the
// rest of the pipeline enforces and the byte-safe truncation used to keep
// document text within those limits.
package core
