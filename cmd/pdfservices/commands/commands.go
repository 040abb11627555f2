package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Lllllllleong/pdfservicesflow/internal/config"
	"github.com/Lllllllleong/pdfservicesflow/internal/output"
	"github.com/Lllllllleong/pdfservicesflow/internal/pdfcheck"
	"github.com/Lllllllleong/pdfservicesflow/internal/pdfservices"
	"github.com/Lllllllleong/pdfservicesflow/internal/services"
)

// app is the state shared by every subcommand once the root command has
// loaded configuration.
type app struct {
	envFile   string
	outputDir string
	region    string
	cleanup   bool

	cfg    *config.Config
	logger *slog.Logger
	client *pdfservices.Client
	stdout io.Writer
}

// Execute runs the CLI. Every error is logged with its kind; the process
// always exits 0.
func Execute() {
	ExecuteContext(context.Background(), os.Args[1:], os.Stdout, os.Stderr)
}

// ExecuteContext runs the CLI with explicit arguments and streams.
func ExecuteContext(ctx context.Context, args []string, stdout, stderr io.Writer) {
	a := &app{stdout: stdout, logger: slog.New(slog.NewTextHandler(stderr, nil))}
	cmd := newRootCommand(a)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.ExecuteContext(ctx); err != nil {
		logError(a.logger, err)
	}
}

// newRootCommand creates the root command with every operation attached.
func newRootCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "pdfservices",
		Short:         "Run PDF Services operations on local files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	flags.StringVarP(&a.outputDir, "output-dir", "o", "", "directory for results (default $OUTPUT_DIR)")
	flags.StringVar(&a.region, "region", "", "service region, US or EU (default $PDF_SERVICES_REGION)")
	flags.BoolVar(&a.cleanup, "cleanup", false, "delete uploaded and result assets from the service afterwards")

	cmd.AddCommand(
		newCreatePDFCommand(a),
		newHTMLToPDFCommand(a),
		newExportPDFCommand(a),
		newExportPDFToImagesCommand(a),
		newExtractPDFCommand(a),
		newDocumentMergeCommand(a),
		newCombinePDFCommand(a),
		newSplitPDFCommand(a),
		newDeletePagesCommand(a),
		newInsertPagesCommand(a),
		newReplacePagesCommand(a),
		newReorderPagesCommand(a),
		newRotatePagesCommand(a),
		newCompressPDFCommand(a),
		newLinearizePDFCommand(a),
		newOCRCommand(a),
		newAutotagCommand(a),
		newPDFPropertiesCommand(a),
		newAccessibilityCheckerCommand(a),
		newWatermarkCommand(a),
		newProtectPDFCommand(a),
		newRemoveProtectionCommand(a),
		newElectronicSealCommand(a),
		newImportFormDataCommand(a),
		newExportFormDataCommand(a),
		newExternalCommand(a),
		newStatusCommand(a),
	)
	return cmd
}

func (a *app) init(cmd *cobra.Command) error {
	envPath, envLoaded := config.LoadDotEnv(a.envFile)
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if a.outputDir != "" {
		cfg.OutputDir = a.outputDir
	}
	if a.region != "" {
		cfg.Region = a.region
	}
	a.cfg = cfg
	a.logger = cfg.NewLogger(cmd.ErrOrStderr())
	if envLoaded {
		a.logger.Debug("Loaded environment file.", "path", envPath)
	}

	client, err := cfg.NewClient(a.logger)
	if err != nil {
		return err
	}
	a.client = client
	return nil
}

func (a *app) runner() *services.Runner {
	return &services.Runner{
		Client:  a.client,
		Sink:    output.LocalSink{},
		Dir:     a.cfg.OutputDir,
		Logger:  a.logger,
		Cleanup: a.cleanup,
	}
}

// jobFunc builds a job from the uploaded inputs, in argument order.
type jobFunc func(inputs []pdfservices.Asset) (pdfservices.Job, error)

// jobSpec describes one operation subcommand.
type jobSpec struct {
	use   string
	short string
	args  cobra.PositionalArgs
	build jobFunc
	// preflight, if set, checks the parsed flags against each input's page
	// count (0 for inputs that are not PDFs).
	preflight func(pageCounts []int) error
}

func (a *app) jobCommand(spec jobSpec) *cobra.Command {
	return &cobra.Command{
		Use:   spec.use,
		Short: spec.short,
		Args:  spec.args,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, spec, args)
		},
	}
}

// run checks the job locally, then uploads, submits, waits and saves.
func (a *app) run(cmd *cobra.Command, spec jobSpec, paths []string) error {
	ctx := cmd.Context()
	label := cmd.Name()

	if err := a.checkLocally(spec, paths); err != nil {
		return err
	}

	r := a.runner()
	assets, err := r.UploadAll(ctx, paths...)
	if err != nil {
		return err
	}
	job, err := spec.build(assets)
	if err != nil {
		return err
	}
	res, err := r.Run(ctx, label, job, assets...)
	if err != nil {
		return err
	}
	return a.report(res)
}

// checkLocally inspects PDF inputs and validates the job with placeholder
// assets so that bad input or parameters fail before any network call.
func (a *app) checkLocally(spec jobSpec, paths []string) error {
	pageCounts := make([]int, len(paths))
	placeholders := make([]pdfservices.Asset, len(paths))
	for i, path := range paths {
		placeholders[i] = pdfservices.Asset{ID: "local:" + filepath.Base(path)}
		if !strings.EqualFold(filepath.Ext(path), ".pdf") {
			continue
		}
		info, err := pdfcheck.Inspect(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		pageCounts[i] = info.PageCount
		placeholders[i].Metadata.Type = string(pdfservices.MediaTypePDF)
	}
	if spec.preflight != nil {
		if err := spec.preflight(pageCounts); err != nil {
			return err
		}
	}
	job, err := spec.build(placeholders)
	if err != nil {
		return err
	}
	return job.Validate()
}

func (a *app) report(res *services.RunResult) error {
	for _, path := range res.Saved {
		fmt.Fprintln(a.stdout, path)
	}
	if res.Status == nil || res.Status.Result == nil || len(res.Status.Result.Properties) == 0 {
		return nil
	}
	var props any
	if err := json.Unmarshal(res.Status.Result.Properties, &props); err != nil {
		return fmt.Errorf("failed to decode properties: %w", err)
	}
	out, err := json.MarshalIndent(props, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode properties: %w", err)
	}
	fmt.Fprintln(a.stdout, string(out))
	return nil
}

// logError logs err with a message chosen by its kind.
func logError(logger *slog.Logger, err error) {
	var failed *services.JobFailedError
	if errors.As(err, &failed) {
		attrs := []any{"operation", failed.Operation, "jobLocation", string(failed.Handle)}
		if failed.Detail != nil {
			attrs = append(attrs, "code", failed.Detail.Code, "message", failed.Detail.Message, "status", failed.Detail.Status)
		}
		logger.Error("The service could not complete the job.", attrs...)
		return
	}

	kind := pdfservices.KindOf(err)
	attrs := []any{"kind", kind.String(), "error", err}
	var perr *pdfservices.Error
	if errors.As(err, &perr) {
		if perr.Field != "" {
			attrs = append(attrs, "field", perr.Field)
		}
		if perr.StatusCode != 0 {
			attrs = append(attrs, "statusCode", perr.StatusCode)
		}
		if perr.RequestID != "" {
			attrs = append(attrs, "requestId", perr.RequestID)
		}
	}

	switch kind {
	case pdfservices.KindAuth:
		logger.Error("Authentication failed. Check PDF_SERVICES_CLIENT_ID and PDF_SERVICES_CLIENT_SECRET.", attrs...)
	case pdfservices.KindQuotaExceeded:
		logger.Error("Service usage limit reached.", attrs...)
	case pdfservices.KindService:
		logger.Error("The service rejected the request.", attrs...)
	case pdfservices.KindSDK:
		logger.Error("The client was used incorrectly.", attrs...)
	case pdfservices.KindTransport:
		logger.Error("Could not reach the service.", attrs...)
	case pdfservices.KindNotFound:
		logger.Error("Asset or job not found. Download locations expire.", attrs...)
	case pdfservices.KindTimeout:
		logger.Error("Gave up waiting for the job.", attrs...)
	case pdfservices.KindValidation:
		logger.Error("Invalid input or parameters.", attrs...)
	default:
		logger.Error("Unexpected error.", attrs...)
	}
}
