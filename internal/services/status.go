package services

import (
	"context"
	"fmt"
	"log/slog"

	"cloud.google.com/go/storage"

	"github.com/Lllllllleong/pdfservicesflow/internal/config"
	"github.com/Lllllllleong/pdfservicesflow/internal/gcp"
	"github.com/Lllllllleong/pdfservicesflow/internal/models"
)

// StatusFunction answers "what happened to document X": the ledger record
// plus every object stored under the document's output prefix.
type StatusFunction struct {
	storageClient *storage.Client
	ledger        *gcp.Ledger
	outputBucket  string
}

func NewStatusFunction(ctx context.Context) (*StatusFunction, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.GCP.ProjectID == "" || cfg.GCP.OutputBucket == "" {
		return nil, fmt.Errorf("PROJECT_ID and OUTPUT_BUCKET must be set")
	}
	firestoreClient, err := gcp.NewFirestoreClient(ctx, cfg.GCP.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &StatusFunction{
		storageClient: storageClient,
		ledger:        gcp.NewLedger(firestoreClient, cfg.GCP.FirestoreCollection),
		outputBucket:  cfg.GCP.OutputBucket,
	}, nil
}

// Process looks up req.DocumentID. An unknown ID yields gcp.ErrRecordNotFound.
func (f *StatusFunction) Process(ctx context.Context, req *models.JobStatusRequest) (*models.JobStatusResponse, error) {
	if req.DocumentID == "" {
		return nil, fmt.Errorf("documentId is required")
	}
	logCtx := slog.With("documentId", req.DocumentID)

	rec, err := f.ledger.Get(ctx, req.DocumentID)
	if err != nil {
		logCtx.Warn("Failed to read job record", "error", err)
		return nil, err
	}

	objects, err := gcp.ListObjects(ctx, f.storageClient.Bucket(f.outputBucket), req.DocumentID+"/")
	if err != nil {
		logCtx.Error("Failed to list outputs", "error", err, "bucket", f.outputBucket)
		return nil, err
	}
	outputs := make([]models.OutputObject, 0, len(objects))
	for _, o := range objects {
		outputs = append(outputs, models.OutputObject{
			Name:        o.Name,
			URI:         fmt.Sprintf("gs://%s/%s", f.outputBucket, o.Name),
			Size:        o.Size,
			ContentType: o.ContentType,
		})
	}
	logCtx.Info("Job status served.", "status", rec.Status, "outputCount", len(outputs))
	return &models.JobStatusResponse{DocumentID: req.DocumentID, Record: *rec, Outputs: outputs}, nil
}
