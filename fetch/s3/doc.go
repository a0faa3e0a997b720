// Package s3 adapts the AWS S3 API to the fetch.ObjectStore interface,
// mapping S3 error codes to the fetch package's retryable sentinels.
package s3
