// Package archive keeps the original uploaded CSV files in a GCS
// bucket, so every committed import can be traced back to the exact
// bytes the user sent.
package archive

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
)

const uploadTimeout = 2 * time.Minute

// Archiver writes and reads upload archives in one bucket.
type Archiver struct {
	client *storage.Client
	bucket string
}

// New creates an Archiver using Application Default Credentials.
func New(ctx context.Context, bucket string) (*Archiver, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &Archiver{client: client, bucket: bucket}, nil
}

// Upload stores the raw upload bytes and returns the object's GCS URI.
// Object names are date-prefixed so the bucket browses chronologically.
func (a *Archiver) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	object := ObjectName(filename, time.Now().UTC())

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := a.client.Bucket(a.bucket).Object(object).NewWriter(ctx)
	if _, err := w.Write(data); err != nil {
		w.Close()
		return "", fmt.Errorf("write archive object: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize archive upload: %w", err)
	}

	return fmt.Sprintf("gs://%s/%s", a.bucket, object), nil
}

// Fetch downloads the archived bytes for the given GCS URI.
func (a *Archiver) Fetch(ctx context.Context, uri string) ([]byte, error) {
	bucket, object, err := splitURI(uri)
	if err != nil {
		return nil, err
	}

	rc, err := a.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("read archive object %s/%s: %w", bucket, object, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read archive bytes: %w", err)
	}
	return data, nil
}

func (a *Archiver) Close() error { return a.client.Close() }

// ObjectName builds the archive object name for an upload: a date
// prefix, a short random id, and the sanitized original filename.
func ObjectName(filename string, now time.Time) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "upload.csv"
	}
	return fmt.Sprintf("imports/%s/%s-%s", now.Format("2006/01/02"), uuid.NewString()[:8], base)
}

// Filename extracts the original filename from an archive URI.
func Filename(uri string) string {
	_, object, err := splitURI(uri)
	if err != nil {
		return ""
	}
	base := path.Base(object)
	if i := strings.Index(base, "-"); i >= 0 && i+1 < len(base) {
		return base[i+1:]
	}
	return base
}

func splitURI(uri string) (bucket, object string, err error) {
	if !strings.HasPrefix(uri, "gs://") {
		return "", "", fmt.Errorf("invalid GCS URI: %s", uri)
	}
	parts := strings.SplitN(strings.TrimPrefix(uri, "gs://"), "/", 2)
	if len(parts) != 2 || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", uri)
	}
	return parts[0], parts[1], nil
}
