package output

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"cloud.google.com/go/storage"

	"github.com/Lllllllleong/pdfservicesflow/internal/gcp"
)

// Sink stores one result under name and returns where it ended up.
type Sink interface {
	Save(ctx context.Context, name string, r io.Reader, mediaType string) (string, error)
}

// LocalSink writes files under the names it is given, creating directories
// as needed.
type LocalSink struct{}

func (LocalSink) Save(_ context.Context, name string, r io.Reader, _ string) (string, error) {
	dest := filepath.FromSlash(name)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dest, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("failed to write %s: %w", dest, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", dest, err)
	}
	return dest, nil
}

// GCSSink writes objects into a bucket. Existing objects are left untouched,
// so re-running a job is idempotent.
type GCSSink struct {
	Client *storage.Client
	Bucket string
}

func (s GCSSink) Save(ctx context.Context, name string, r io.Reader, mediaType string) (string, error) {
	if _, err := gcp.SaveToGCSAtomically(ctx, s.Client.Bucket(s.Bucket), name, r, mediaType); err != nil {
		return "", err
	}
	return fmt.Sprintf("gs://%s/%s", s.Bucket, name), nil
}
