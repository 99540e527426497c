package gcp

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

// GCSUploader is the blob upload capability: it copies a local document into
// a fixed bucket and returns the gs:// URI as the opaque upload reference.
type GCSUploader struct {
	client *storage.Client
	bucket string
}

// NewGCSUploader creates an uploader bound to one bucket.
func NewGCSUploader(ctx context.Context, bucket string) (*GCSUploader, error) {
	if bucket == "" {
		return nil, fmt.Errorf("bucket must be provided to create a GCS uploader")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &GCSUploader{client: client, bucket: bucket}, nil
}

// Upload writes the file to GCS only if the object doesn't already exist.
// Documents are immutable once stored, so a precondition failure on a re-run
// means the blob is already there and the existing reference is returned.
func (u *GCSUploader) Upload(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("could not open local file %s: %w", path, err)
	}
	defer f.Close()

	objectName := filepath.Base(path)
	ref := fmt.Sprintf("gs://%s/%s", u.bucket, objectName)

	writer := u.client.Bucket(u.bucket).Object(objectName).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	if _, err := io.Copy(writer, f); err != nil {
		_ = writer.Close()
		if gerr, ok := err.(*googleapi.Error); ok && gerr.Code == 412 {
			slog.Info("Object already uploaded, reusing reference.", "object", objectName)
			return ref, nil
		}
		return "", fmt.Errorf("failed to write to GCS: %w", err)
	}
	if err := writer.Close(); err != nil {
		if gerr, ok := err.(*googleapi.Error); ok && gerr.Code == 412 {
			slog.Info("Object already uploaded, reusing reference.", "object", objectName)
			return ref, nil
		}
		return "", fmt.Errorf("failed to finalize GCS write: %w", err)
	}
	return ref, nil
}

// Close releases the underlying client.
func (u *GCSUploader) Close() error {
	return u.client.Close()
}
