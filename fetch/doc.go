// Package fetch reads source objects from the storage backend with bounded
// retries.
//
// A read pinned to the version or etag named by a change event can lag the
// event itself (eventual consistency), so not-found and precondition
// failures are retried with exponential backoff until either the attempt
// budget or the execution deadline runs out. This is a race against the
// host's forced termination, not merely an attempt budget.
package fetch
