package domain

import "context"

// ObjectStore is the boundary to the S3-compatible object store. All
// operations are scoped to a single configured bucket.
type ObjectStore interface {
	// Put writes an object under key.
	Put(ctx context.Context, key string, data []byte) error
	// Get reads the full object at key. Returns a NotFoundError when the
	// key does not exist.
	Get(ctx context.Context, key string) ([]byte, error)
	// List returns the keys under prefix. An empty prefix lists the bucket.
	List(ctx context.Context, prefix string) ([]string, error)
	// Upload copies a local file to key.
	Upload(ctx context.Context, key, localPath string) error
	// Download copies the object at key to a local file.
	Download(ctx context.Context, key, localPath string) error
}
