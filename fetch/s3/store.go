package s3

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/poiesic/indexfeed/fetch"
)

// Store implements fetch.ObjectStore on the AWS S3 API.
type Store struct {
	client *s3.Client
}

var _ fetch.ObjectStore = (*Store)(nil)

// NewStore creates a Store using ambient AWS credentials.
func NewStore(ctx context.Context, region string) (*Store, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return &Store{client: s3.NewFromConfig(cfg)}, nil
}

// NewStoreFromClient wraps an existing client. Useful for tests against
// S3-compatible endpoints.
func NewStoreFromClient(client *s3.Client) *Store {
	return &Store{client: client}
}

// HeadObject probes object metadata pinned to the request's version/etag.
func (s *Store) HeadObject(ctx context.Context, req fetch.Request) (*fetch.ObjectInfo, error) {
	input := &s3.HeadObjectInput{
		Bucket: aws.String(req.Bucket),
		Key:    aws.String(req.Key),
	}
	// Pin to the exact version named by the event; unversioned buckets
	// fall back to an etag precondition.
	if req.VersionID != "" {
		input.VersionId = aws.String(req.VersionID)
	} else if req.ETag != "" {
		input.IfMatch = aws.String(req.ETag)
	}

	out, err := s.client.HeadObject(ctx, input)
	if err != nil {
		return nil, classify(err)
	}
	return &fetch.ObjectInfo{
		Size:         aws.ToInt64(out.ContentLength),
		LastModified: aws.ToTime(out.LastModified),
		Metadata:     out.Metadata,
	}, nil
}

// GetObject reads object content pinned to the request's version/etag.
func (s *Store) GetObject(ctx context.Context, req fetch.Request) ([]byte, error) {
	input := &s3.GetObjectInput{
		Bucket: aws.String(req.Bucket),
		Key:    aws.String(req.Key),
	}
	if req.VersionID != "" {
		input.VersionId = aws.String(req.VersionID)
	} else if req.ETag != "" {
		input.IfMatch = aws.String(req.ETag)
	}
	if req.Range != nil {
		input.Range = aws.String(fmt.Sprintf("bytes=%d-%d", req.Range.Start, req.Range.End))
	}

	out, err := s.client.GetObject(ctx, input)
	if err != nil {
		return nil, classify(err)
	}
	defer out.Body.Close()
	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("reading object body: %w", err)
	}
	return body, nil
}

// classify maps S3 API error codes to the fetch package's retryable
// sentinels, preserving the original error for diagnostics.
func classify(err error) error {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	switch apiErr.ErrorCode() {
	case "NoSuchKey", "NoSuchVersion", "NotFound":
		return fmt.Errorf("%w: %v", fetch.ErrNotFound, err)
	case "PreconditionFailed":
		return fmt.Errorf("%w: %v", fetch.ErrPreconditionFailed, err)
	case "SlowDown", "Throttling", "RequestLimitExceeded":
		return fmt.Errorf("%w: %v", fetch.ErrThrottled, err)
	}
	return err
}
