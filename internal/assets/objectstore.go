package assets

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectStore fetches s3:// artifacts.
type ObjectStore interface {
	// Get opens the object for reading. The caller closes the reader.
	Get(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

// S3Store is an ObjectStore backed by a MinIO/S3 endpoint.
type S3Store struct {
	client *minio.Client
}

// NewS3Store creates an S3-compatible object store client.
func NewS3Store(endpoint, accessKey, secretKey string, useSSL bool) (*S3Store, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("object store endpoint is required")
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object store client: %w", err)
	}
	return &S3Store{client: client}, nil
}

// Get opens the object. Read errors (including missing objects) surface on
// the first Read, per minio-go semantics.
func (s *S3Store) Get(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to open s3://%s/%s: %w", bucket, key, err)
	}
	return obj, nil
}

// DirStore is an ObjectStore over a local directory tree, laid out as
// root/bucket/key. Used by tests and air-gapped builds.
type DirStore struct {
	root string
}

// NewDirStore creates a directory-backed object store.
func NewDirStore(root string) *DirStore {
	return &DirStore{root: root}
}

func (d *DirStore) Get(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(d.root, bucket, filepath.FromSlash(key)))
	if err != nil {
		return nil, fmt.Errorf("failed to open s3://%s/%s: %w", bucket, key, err)
	}
	return f, nil
}
