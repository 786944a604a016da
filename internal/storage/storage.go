// Package storage persists pipeline artifacts in a blob bucket. The bucket
// is addressed by a driver URL (s3://, gs://, file://, mem://), so the same
// code runs against cloud object storage in production and an in-memory
// bucket in tests.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"
)

// ErrArtifactNotFound indicates the requested artifact is not in the bucket.
var ErrArtifactNotFound = errors.New("artifact not found")

// Store reads and writes named artifacts under per-run folders.
type Store struct {
	bucket *blob.Bucket
}

// NewStore wraps an open bucket. The caller owns the bucket's lifecycle.
func NewStore(bucket *blob.Bucket) *Store {
	return &Store{bucket: bucket}
}

// Open opens the bucket at the given driver URL and wraps it in a store.
func Open(ctx context.Context, bucketURL string) (*Store, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, fmt.Errorf("open bucket %s: %w", bucketURL, err)
	}
	return NewStore(bucket), nil
}

// Close releases the underlying bucket.
func (s *Store) Close() error {
	return s.bucket.Close()
}

// Put writes an artifact under folder/name, replacing any existing blob.
func (s *Store) Put(ctx context.Context, folder, name string, data []byte, contentType string) error {
	key := Key(folder, name)
	opts := &blob.WriterOptions{ContentType: contentType}
	if err := s.bucket.WriteAll(ctx, key, data, opts); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// Get reads the artifact at folder/name.
func (s *Store) Get(ctx context.Context, folder, name string) ([]byte, error) {
	key := Key(folder, name)
	data, err := s.bucket.ReadAll(ctx, key)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, key)
		}
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

// Exists reports whether the artifact at folder/name is in the bucket.
func (s *Store) Exists(ctx context.Context, folder, name string) (bool, error) {
	ok, err := s.bucket.Exists(ctx, Key(folder, name))
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", Key(folder, name), err)
	}
	return ok, nil
}

// List returns the artifact names under a folder, without the folder prefix.
func (s *Store) List(ctx context.Context, folder string) ([]string, error) {
	prefix := folder
	if prefix != "" {
		prefix += "/"
	}

	var names []string
	iter := s.bucket.List(&blob.ListOptions{Prefix: prefix})
	for {
		obj, err := iter.Next(ctx)
		if errors.Is(err, io.EOF) {
			return names, nil
		}
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", prefix, err)
		}
		names = append(names, obj.Key[len(prefix):])
	}
}

// Key joins a run folder and an artifact name into a bucket key.
func Key(folder, name string) string {
	return path.Join(folder, name)
}
