package core

import (
	"context"
	"io"
	"time"
)

// BlobStore is any object store holding file blobs by bucket and path.
type BlobStore interface {
	Put(ctx context.Context, bucket, path string, r io.Reader, contentType string) error
	Delete(ctx context.Context, bucket, path string) error
	// PublicURL returns the URL of an object in a public-readable bucket.
	PublicURL(bucket, path string) string
	// SignedURL returns a short-lived URL granting read access to an object.
	SignedURL(ctx context.Context, bucket, path string, expiry time.Duration) (string, error)
}

// Upload is a file provided by a caller along with an operation.
type Upload struct {
	Filename    string
	ContentType string
	Content     io.Reader
}
