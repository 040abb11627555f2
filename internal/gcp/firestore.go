package gcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Lllllllleong/pdfservicesflow/internal/models"
)

// ErrRecordNotFound is returned by Ledger.Get for unknown document IDs.
var ErrRecordNotFound = errors.New("job record not found")

// NewFirestoreClient creates and returns a new Firestore client for the given project ID.
func NewFirestoreClient(ctx context.Context, projectID string) (*firestore.Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID must be provided to create a firestore client")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	return client, nil
}

// Ledger persists job records in one Firestore collection.
type Ledger struct {
	client     *firestore.Client
	collection string
	now        func() time.Time
}

func NewLedger(client *firestore.Client, collection string) *Ledger {
	return &Ledger{client: client, collection: collection, now: time.Now}
}

// FindByHash returns the ID of a record with the same file hash and
// operation, if one exists.
func (l *Ledger) FindByHash(ctx context.Context, fileHash, operation string) (string, bool, error) {
	docs, err := l.client.Collection(l.collection).
		Where("fileHash", "==", fileHash).
		Where("operation", "==", operation).
		Limit(1).Documents(ctx).GetAll()
	if err != nil {
		return "", false, fmt.Errorf("failed to query for duplicates: %w", err)
	}
	if len(docs) > 0 {
		return docs[0].Ref.ID, true, nil
	}
	return "", false, nil
}

// Create adds rec and returns its document ID.
func (l *Ledger) Create(ctx context.Context, rec models.JobRecord) (string, error) {
	now := l.now()
	rec.CreatedAt, rec.UpdatedAt = now, now
	docRef, _, err := l.client.Collection(l.collection).Add(ctx, rec)
	if err != nil {
		return "", fmt.Errorf("failed to create job record: %w", err)
	}
	return docRef.ID, nil
}

// SetStatus moves a record to status and sets any extra fields alongside.
func (l *Ledger) SetStatus(ctx context.Context, id, status string, fields map[string]any) error {
	updates := []firestore.Update{
		{Path: "status", Value: status},
		{Path: "updatedAt", Value: l.now()},
	}
	for path, value := range fields {
		updates = append(updates, firestore.Update{Path: path, Value: value})
	}
	if _, err := l.client.Collection(l.collection).Doc(id).Update(ctx, updates); err != nil {
		return fmt.Errorf("failed to update job record %s to %s: %w", id, status, err)
	}
	return nil
}

func (l *Ledger) Get(ctx context.Context, id string) (*models.JobRecord, error) {
	snap, err := l.client.Collection(l.collection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read job record %s: %w", id, err)
	}
	var rec models.JobRecord
	if err := snap.DataTo(&rec); err != nil {
		return nil, fmt.Errorf("failed to decode job record %s: %w", id, err)
	}
	return &rec, nil
}
