package commands

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/spf13/cobra"

	"github.com/Lllllllleong/pdfservicesflow/internal/gcp"
	"github.com/Lllllllleong/pdfservicesflow/internal/pdfservices"
	"github.com/Lllllllleong/pdfservicesflow/internal/services"
)

// parseGCSURI splits gs://bucket/object.
func parseGCSURI(uri string) (bucket, object string, err error) {
	rest, ok := strings.CutPrefix(uri, "gs://")
	if ok {
		bucket, object, ok = strings.Cut(rest, "/")
	}
	if !ok || bucket == "" || object == "" {
		return "", "", &pdfservices.Error{Kind: pdfservices.KindValidation, Op: "preflight", Field: "gcs",
			Message: fmt.Sprintf("%q is not a gs://bucket/object URI", uri)}
	}
	return bucket, object, nil
}

// signer signs GCS URLs on demand and closes its client when done.
type signer struct {
	client *storage.Client
	ttl    time.Duration
}

func (s *signer) sign(ctx context.Context, uri, method string) (*pdfservices.ExternalAsset, error) {
	bucket, object, err := parseGCSURI(uri)
	if err != nil {
		return nil, err
	}
	if s.client == nil {
		if s.client, err = storage.NewClient(ctx); err != nil {
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
	}
	u, err := gcp.SignedURL(s.client.Bucket(bucket), object, method, s.ttl)
	if err != nil {
		return nil, err
	}
	return &pdfservices.ExternalAsset{URI: u, Storage: pdfservices.StorageGCS}, nil
}

func (s *signer) close() {
	if s.client != nil {
		s.client.Close()
	}
}

func newExternalCommand(a *app) *cobra.Command {
	var (
		inputURL  string
		outputURL string
		storageT  string
		gcsInput  string
		gcsOutput string
		level     string
		ocrLocale string
	)
	cmd := &cobra.Command{
		Use:   "external <operation>",
		Short: "Run an operation on pre-signed cloud storage URLs without uploading",
		Long: "Runs one of " + strings.Join(services.ExternalOperations(), ", ") +
			" on a source the service reads directly. Operations that support it write the result straight to the output URL.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			op := args[0]
			s := &signer{ttl: a.cfg.GCP.SignedURLTTL}
			defer s.close()

			var in *pdfservices.ExternalAsset
			switch {
			case gcsInput != "":
				var err error
				if in, err = s.sign(ctx, gcsInput, http.MethodGet); err != nil {
					return err
				}
			case inputURL != "":
				in = &pdfservices.ExternalAsset{URI: inputURL, Storage: pdfservices.StorageType(strings.ToUpper(storageT))}
			default:
				return &pdfservices.Error{Kind: pdfservices.KindValidation, Op: "preflight", Field: "input",
					Message: "one of --input-url or --gcs-input is required"}
			}

			var out *pdfservices.ExternalAsset
			switch {
			case gcsOutput != "":
				var err error
				if out, err = s.sign(ctx, gcsOutput, http.MethodPut); err != nil {
					return err
				}
			case outputURL != "":
				out = &pdfservices.ExternalAsset{URI: outputURL, Storage: pdfservices.StorageType(strings.ToUpper(storageT))}
			}
			if out != nil && !services.WritesExternalOutput(op) {
				a.logger.Warn("Operation cannot write to an external output; the result will be saved locally.", "operation", op)
			}

			job, err := services.BuildJob(op, *in, out, services.JobOptions{CompressionLevel: level, OCRLocale: ocrLocale})
			if err != nil {
				return err
			}
			h, err := a.client.Submit(ctx, job)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, h)
			st, err := a.pollLoop(ctx, job.Operation(), h)
			if err != nil {
				return err
			}
			return a.save(ctx, op, h, st)
		},
	}
	f := cmd.Flags()
	f.StringVar(&inputURL, "input-url", "", "pre-signed URL the service reads the input from")
	f.StringVar(&outputURL, "output-url", "", "pre-signed URL the service writes the result to")
	f.StringVar(&storageT, "storage", string(pdfservices.StorageS3), "storage behind --input-url/--output-url: S3, BLOB, DROPBOX, SHAREPOINT or GCS")
	f.StringVar(&gcsInput, "gcs-input", "", "gs://bucket/object to read; a GET URL is signed with ambient credentials")
	f.StringVar(&gcsOutput, "gcs-output", "", "gs://bucket/object to write; a PUT URL is signed with ambient credentials")
	f.StringVar(&level, "level", "", "compression level for compress-pdf")
	f.StringVar(&ocrLocale, "ocr-lang", "", "OCR locale for ocr")
	cmd.MarkFlagsMutuallyExclusive("input-url", "gcs-input")
	cmd.MarkFlagsMutuallyExclusive("output-url", "gcs-output")
	return cmd
}
