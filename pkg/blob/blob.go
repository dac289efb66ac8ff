package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"cloud.google.com/go/storage"
)

// Store uploads media blobs and returns a publicly resolvable reference.
type Store interface {
	Upload(ctx context.Context, path string, data []byte, contentType string) (string, error)
}

// FromEnv picks GCS when running on Google Cloud (same detection the upload
// handler uses for files), otherwise the local uploads directory.
func FromEnv(ctx context.Context) (Store, error) {
	useGCS := os.Getenv("USE_GCS") == "true" ||
		os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") != "" ||
		os.Getenv("K_SERVICE") != "" // Cloud Run indicator

	if useGCS {
		bucket := os.Getenv("GCS_BUCKET")
		if bucket == "" {
			bucket = "inspection-media"
		}
		return NewGCSStore(ctx, bucket)
	}
	return NewLocalStore("./uploads"), nil
}

// GCSStore uploads to a Google Cloud Storage bucket.
type GCSStore struct {
	client *storage.Client
	bucket string
}

func NewGCSStore(ctx context.Context, bucket string) (*GCSStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("gcs client: %w", err)
	}
	return &GCSStore{client: client, bucket: bucket}, nil
}

func (s *GCSStore) Upload(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	w := s.client.Bucket(s.bucket).Object(path).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		w.Close()
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, path), nil
}

// LocalStore writes blobs under a local directory and returns a relative URL
// served by the static /uploads/ route. Development only.
type LocalStore struct {
	dir string
}

func NewLocalStore(dir string) *LocalStore {
	return &LocalStore{dir: dir}
}

func (s *LocalStore) Upload(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", err
	}
	full := filepath.Join(s.dir, filepath.Base(path))
	if err := os.WriteFile(full, data, 0644); err != nil {
		return "", err
	}
	return "/uploads/" + filepath.Base(path), nil
}
