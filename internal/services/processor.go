package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"cloud.google.com/go/storage"

	"github.com/Lllllllleong/pdfservicesflow/internal/config"
	"github.com/Lllllllleong/pdfservicesflow/internal/gcp"
	"github.com/Lllllllleong/pdfservicesflow/internal/models"
	"github.com/Lllllllleong/pdfservicesflow/internal/output"
	"github.com/Lllllllleong/pdfservicesflow/internal/pdfcheck"
	"github.com/Lllllllleong/pdfservicesflow/internal/pdfservices"
)

// ProcessorFunction runs one configured PDF Services operation on every PDF
// uploaded to a bucket and records the job in Firestore.
type ProcessorFunction struct {
	storageClient *storage.Client
	ledger        *gcp.Ledger
	workflow      *gcp.WorkflowTrigger
	client        *pdfservices.Client
	config        config.GCPConfig
}

func NewProcessor(ctx context.Context) (*ProcessorFunction, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.GCP.ProjectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}
	if cfg.GCP.OutputBucket == "" {
		return nil, fmt.Errorf("OUTPUT_BUCKET environment variable must be set")
	}
	if !processorSupports(cfg.GCP.Operation) {
		return nil, fmt.Errorf("PDF_OPERATION %q is not supported", cfg.GCP.Operation)
	}

	firestoreClient, err := gcp.NewFirestoreClient(ctx, cfg.GCP.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Storage client: %w", err)
	}
	client, err := cfg.NewClient(slog.Default())
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF Services client: %w", err)
	}

	f := &ProcessorFunction{
		storageClient: storageClient,
		ledger:        gcp.NewLedger(firestoreClient, cfg.GCP.FirestoreCollection),
		client:        client,
		config:        cfg.GCP,
	}
	if cfg.GCP.WorkflowID != "" {
		f.workflow, err = gcp.NewWorkflowTrigger(ctx, cfg.GCP.ProjectID, cfg.GCP.WorkflowLocation, cfg.GCP.WorkflowID)
		if err != nil {
			return nil, err
		}
	}
	slog.Info("PDF processor initialized.", "operation", cfg.GCP.Operation, "workflowId", cfg.GCP.WorkflowID, "signedUrls", cfg.GCP.UseSignedURLs)
	return f, nil
}

func (f *ProcessorFunction) Process(ctx context.Context, e models.GCSEvent) error {
	op := f.config.Operation
	logCtx := slog.With("gcsBucket", e.Bucket, "gcsObject", e.Name, "operation", op)
	logCtx.Info("Processing new GCS object.")

	if e.ContentType != "" && e.ContentType != string(pdfservices.MediaTypePDF) {
		logCtx.Info("Object is not a PDF. Skipping.", "contentType", e.ContentType)
		return nil
	}

	tempDir, err := os.MkdirTemp("", "pdf-processor-*")
	if err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	sourcePath := filepath.Join(tempDir, "source.pdf")
	if err := gcp.StreamObject(ctx, f.storageClient, e.Bucket, e.Name, sourcePath); err != nil {
		logCtx.Error("Failed to download source PDF", "error", err)
		return err
	}

	fileHash, err := calculateFileHash(sourcePath)
	if err != nil {
		logCtx.Error("Failed to calculate file hash", "error", err)
		return fmt.Errorf("failed to calculate file hash: %w", err)
	}
	logCtx = logCtx.With("fileHash", fileHash)

	existingID, isDuplicate, err := f.ledger.FindByHash(ctx, fileHash, op)
	if err != nil {
		logCtx.Error("Failed to check for duplicate", "error", err)
		return err
	}
	if isDuplicate {
		logCtx.Info("Duplicate file detected. Skipping.", "existingDocId", existingID)
		return nil
	}

	docID, err := f.ledger.Create(ctx, models.JobRecord{
		FileHash:     fileHash,
		SourceBucket: e.Bucket,
		SourceObject: e.Name,
		Operation:    op,
		Status:       models.StatusValidating,
	})
	if err != nil {
		logCtx.Error("Failed to create job record", "error", err)
		return err
	}
	logCtx = logCtx.With("documentId", docID)
	logCtx.Info("Created job record in Firestore.")

	info, err := pdfcheck.Inspect(sourcePath)
	if err != nil {
		return f.handleError(ctx, logCtx, docID, "source is not a usable PDF", err)
	}
	if err := f.ledger.SetStatus(ctx, docID, models.StatusUploading, map[string]any{"pageCount": info.PageCount}); err != nil {
		return f.handleError(ctx, logCtx, docID, "failed to update status to UPLOADING", err)
	}

	in, out, outObject, uploads, err := f.prepareInputs(ctx, logCtx, docID, e, sourcePath)
	if err != nil {
		return f.handleError(ctx, logCtx, docID, "failed to prepare job input", err)
	}
	job, err := BuildJob(op, in, out, JobOptions{CompressionLevel: f.config.CompressionLevel, OCRLocale: f.config.OCRLocale})
	if err != nil {
		return f.handleError(ctx, logCtx, docID, "failed to build job", err)
	}

	runner := &Runner{
		Client:  f.client,
		Sink:    output.GCSSink{Client: f.storageClient, Bucket: f.config.OutputBucket},
		Dir:     docID,
		Logger:  logCtx,
		Cleanup: true,
		Submitted: func(ctx context.Context, h pdfservices.JobHandle) error {
			return f.ledger.SetStatus(ctx, docID, models.StatusSubmitted, map[string]any{"jobLocation": string(h)})
		},
	}
	res, err := runner.Run(ctx, op, job, uploads...)
	if err != nil {
		return f.handleError(ctx, logCtx, docID, "PDF Services job did not complete", err)
	}

	outputs := res.Saved
	if outObject != "" {
		outputs = append(outputs, fmt.Sprintf("gs://%s/%s", f.config.OutputBucket, outObject))
	}
	if err := f.ledger.SetStatus(ctx, docID, models.StatusDone, map[string]any{"outputs": outputs}); err != nil {
		return f.handleError(ctx, logCtx, docID, "failed to update status to DONE", err)
	}
	logCtx.Info("Job complete.", "outputs", outputs)

	return f.triggerWorkflow(ctx, logCtx, docID, outputs, info.PageCount)
}

// prepareInputs either signs URLs for the source object and, when the
// operation can write externally, for the result object; or optimizes the
// source locally and uploads it.
func (f *ProcessorFunction) prepareInputs(ctx context.Context, logCtx *slog.Logger, docID string, e models.GCSEvent, sourcePath string) (pdfservices.Input, *pdfservices.ExternalAsset, string, []pdfservices.Asset, error) {
	if f.config.UseSignedURLs {
		getURL, err := gcp.SignedURL(f.storageClient.Bucket(e.Bucket), e.Name, http.MethodGet, f.config.SignedURLTTL)
		if err != nil {
			return nil, nil, "", nil, err
		}
		in := pdfservices.ExternalAsset{URI: getURL, Storage: pdfservices.StorageGCS}
		if !WritesExternalOutput(f.config.Operation) {
			return in, nil, "", nil, nil
		}
		outObject := output.NewNamer(docID, f.config.Operation, time.Now()).Single(".pdf")
		putURL, err := gcp.SignedURL(f.storageClient.Bucket(f.config.OutputBucket), outObject, http.MethodPut, f.config.SignedURLTTL)
		if err != nil {
			return nil, nil, "", nil, err
		}
		logCtx.Info("Using signed URLs for job input and output.", "outputObject", outObject)
		return in, &pdfservices.ExternalAsset{URI: putURL, Storage: pdfservices.StorageGCS}, outObject, nil, nil
	}

	optimizedPath := filepath.Join(filepath.Dir(sourcePath), "optimized.pdf")
	if err := pdfcheck.Optimize(sourcePath, optimizedPath); err != nil {
		return nil, nil, "", nil, err
	}
	asset, err := f.client.UploadFile(ctx, optimizedPath, pdfservices.MediaTypePDF)
	if err != nil {
		return nil, nil, "", nil, err
	}
	logCtx.Info("Uploaded optimized source.", "assetId", asset.ID)
	return asset, nil, "", []pdfservices.Asset{asset}, nil
}

func (f *ProcessorFunction) triggerWorkflow(ctx context.Context, logCtx *slog.Logger, docID string, outputs []string, pageCount int) error {
	if f.workflow == nil {
		return nil
	}
	logCtx.Info("Triggering workflow.")
	execID, err := f.workflow.Trigger(ctx, models.WorkflowArgument{
		DocumentID: docID,
		Operation:  f.config.Operation,
		Outputs:    outputs,
		PageCount:  pageCount,
	})
	if err != nil {
		return f.handleError(ctx, logCtx, docID, "failed to trigger workflow execution", err)
	}
	if err := f.ledger.SetStatus(ctx, docID, models.StatusDone, map[string]any{"workflowExecutionId": execID}); err != nil {
		logCtx.Warn("Failed to record workflow execution.", "executionId", execID, "error", err)
	}
	logCtx.Info("Hand-off to workflow complete.", "executionId", execID)
	return nil
}

func (f *ProcessorFunction) handleError(ctx context.Context, logCtx *slog.Logger, docID, message string, originalErr error) error {
	fullError := fmt.Sprintf("%s: %v", message, originalErr)
	kind := errorKind(originalErr)
	logCtx.Error(message, "error", originalErr, "errorKind", kind)
	fields := map[string]any{"errorDetails": fullError, "errorKind": kind}
	if err := f.ledger.SetStatus(ctx, docID, models.StatusFailed, fields); err != nil {
		logCtx.Error("CRITICAL: Failed to update Firestore status to FAILED after a processing error.", "updateError", err)
	}
	return fmt.Errorf("%s: %w", message, originalErr)
}

// errorKind names err for the ledger: JobFailed for a job the service
// rejected, otherwise the client's error kind.
func errorKind(err error) string {
	var failed *JobFailedError
	if errors.As(err, &failed) {
		return "JobFailed"
	}
	return pdfservices.KindOf(err).String()
}

func calculateFileHash(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()
	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}
