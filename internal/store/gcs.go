package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
)

const gcsTimeout = 30 * time.Second

// GCSStore is a Cloud Storage-backed implementation of Store.
type GCSStore struct {
	client *storage.Client
	bucket string
}

// NewGCS creates a new GCSStore with the specified bucket.
func NewGCS(ctx context.Context, bucket string) (*GCSStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}
	return &GCSStore{
		client: client,
		bucket: bucket,
	}, nil
}

// Get retrieves the object named key.
func (s *GCSStore) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, gcsTimeout)
	defer cancel()

	reader, err := s.client.Bucket(s.bucket).Object(key).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("gs://%s/%s: %w", s.bucket, key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("opening gs://%s/%s: %w", s.bucket, key, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading gs://%s/%s: %w", s.bucket, key, err)
	}
	return data, nil
}

// Put writes value to the object named key. Objects are served with
// caching disabled, since the bulletin changes every week.
func (s *GCSStore) Put(ctx context.Context, key, contentType string, value []byte) error {
	ctx, cancel := context.WithTimeout(ctx, gcsTimeout)
	defer cancel()

	writer := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	writer.ContentType = contentType
	writer.CacheControl = "no-store"

	if _, err := writer.Write(value); err != nil {
		writer.Close()
		return fmt.Errorf("writing gs://%s/%s: %w", s.bucket, key, err)
	}
	return writer.Close()
}

// Close closes the GCS client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}
