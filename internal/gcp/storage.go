package gcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
)

// SaveToGCSAtomically streams r to a GCS object only if it doesn't already
// exist. It reports whether the object was written; an existing object is not
// a failure in an idempotent workflow.
func SaveToGCSAtomically(ctx context.Context, bucket *storage.BucketHandle, objectName string, r io.Reader, contentType string) (bool, error) {
	writer := bucket.Object(objectName).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	writer.ContentType = contentType

	if _, err := io.Copy(writer, r); err != nil {
		_ = writer.Close()
		if isPreconditionFailed(err) {
			slog.Info("Object already exists, skipping.", "gcsObject", objectName)
			return false, nil
		}
		return false, fmt.Errorf("failed to write to GCS: %w", err)
	}

	if err := writer.Close(); err != nil {
		if isPreconditionFailed(err) {
			slog.Info("Object already exists, skipping.", "gcsObject", objectName)
			return false, nil
		}
		return false, fmt.Errorf("failed to finalize GCS write: %w", err)
	}
	return true, nil
}

func isPreconditionFailed(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed
}

// StreamObject copies a GCS object to a local file.
func StreamObject(ctx context.Context, client *storage.Client, bucket, object, destPath string) error {
	gcsReader, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return fmt.Errorf("failed to get GCS object reader for gs://%s/%s: %w", bucket, object, err)
	}
	defer gcsReader.Close()
	localFile, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create temp file at %s: %w", destPath, err)
	}
	defer localFile.Close()
	if _, err := io.Copy(localFile, gcsReader); err != nil {
		return fmt.Errorf("failed to copy GCS object to local file: %w", err)
	}
	return nil
}

// SignedURL returns a V4 pre-signed URL that lets a third party GET or PUT
// one object until ttl elapses. Signing uses the ambient service account.
func SignedURL(bucket *storage.BucketHandle, object, method string, ttl time.Duration) (string, error) {
	opts := &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  method,
		Expires: time.Now().Add(ttl),
	}
	u, err := bucket.SignedURL(object, opts)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s URL for %s: %w", method, object, err)
	}
	return u, nil
}

// ObjectInfo is the listing view of one stored output.
type ObjectInfo struct {
	Name        string
	Size        int64
	ContentType string
	Updated     time.Time
}

// ListObjects returns every object under prefix.
func ListObjects(ctx context.Context, bucket *storage.BucketHandle, prefix string) ([]ObjectInfo, error) {
	it := bucket.Objects(ctx, &storage.Query{Prefix: prefix})
	var out []ObjectInfo
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list objects under %s: %w", prefix, err)
		}
		out = append(out, ObjectInfo{Name: attrs.Name, Size: attrs.Size, ContentType: attrs.ContentType, Updated: attrs.Updated})
	}
	return out, nil
}
