package artifacts

import (
	"context"
	"errors"
	"time"

	gos3 "rigcheck/pkg/s3"
)

// Blobs is the blob storage surface consumed by the Store.
type Blobs interface {
	Put(ctx context.Context, key string, data []byte, opts gos3.PutOptions) error
	Head(ctx context.Context, key string) error
	Get(ctx context.Context, key string) ([]byte, error)
	// Remove is best-effort; deletes of missing keys succeed.
	Remove(ctx context.Context, keys []string) error
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// S3Blobs implements Blobs on the shared S3 client scoped to one bucket.
type S3Blobs struct {
	client *gos3.Client
	bucket string
}

// NewS3Blobs wraps the provided client and bucket.
func NewS3Blobs(client *gos3.Client, bucket string) (*S3Blobs, error) {
	if client == nil {
		return nil, errors.New("s3 client is required")
	}
	if bucket == "" {
		return nil, errors.New("bucket is required")
	}
	return &S3Blobs{client: client, bucket: bucket}, nil
}

func (b *S3Blobs) Put(ctx context.Context, key string, data []byte, opts gos3.PutOptions) error {
	return b.client.PutObject(ctx, b.bucket, key, data, opts)
}

func (b *S3Blobs) Head(ctx context.Context, key string) error {
	return b.client.HeadObject(ctx, b.bucket, key)
}

func (b *S3Blobs) Get(ctx context.Context, key string) ([]byte, error) {
	return b.client.GetObject(ctx, b.bucket, key)
}

func (b *S3Blobs) Remove(ctx context.Context, keys []string) error {
	return b.client.RemoveObjects(ctx, b.bucket, keys)
}

func (b *S3Blobs) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return b.client.PresignGet(ctx, b.bucket, key, ttl)
}
