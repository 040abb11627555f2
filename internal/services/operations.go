package services

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Lllllllleong/pdfservicesflow/internal/pdfservices"
)

// JobOptions are the knobs the processor exposes through configuration.
type JobOptions struct {
	CompressionLevel string
	OCRLocale        string
}

type jobBuilder struct {
	build func(in pdfservices.Input, out *pdfservices.ExternalAsset, opts JobOptions) pdfservices.Job
	// external reports whether the job can write its result to a
	// caller-supplied location.
	external bool
	// externalOnly operations take non-PDF input, which the processor
	// never receives; they run only on pre-signed URLs.
	externalOnly bool
}

// Operations keyed by the name used in PDF_OPERATION and by the external
// command.
var builders = map[string]jobBuilder{
	"create-pdf": {external: true, externalOnly: true, build: func(in pdfservices.Input, out *pdfservices.ExternalAsset, _ JobOptions) pdfservices.Job {
		return &pdfservices.CreatePDFJob{Input: in, Output: out}
	}},
	"compress-pdf": {external: true, build: func(in pdfservices.Input, out *pdfservices.ExternalAsset, opts JobOptions) pdfservices.Job {
		return &pdfservices.CompressPDFJob{Input: in, Output: out,
			Params: pdfservices.CompressPDFParams{CompressionLevel: pdfservices.CompressionLevel(strings.ToUpper(opts.CompressionLevel))}}
	}},
	"linearize-pdf": {external: true, build: func(in pdfservices.Input, out *pdfservices.ExternalAsset, _ JobOptions) pdfservices.Job {
		return &pdfservices.LinearizePDFJob{Input: in, Output: out}
	}},
	"ocr": {external: true, build: func(in pdfservices.Input, out *pdfservices.ExternalAsset, opts JobOptions) pdfservices.Job {
		return &pdfservices.OCRJob{Input: in, Output: out, Params: pdfservices.OCRParams{OCRLocale: opts.OCRLocale}}
	}},
	"autotag": {build: func(in pdfservices.Input, _ *pdfservices.ExternalAsset, _ JobOptions) pdfservices.Job {
		return &pdfservices.AutotagJob{Input: in, Params: pdfservices.AutotagParams{GenerateReport: true}}
	}},
	"extract-pdf": {build: func(in pdfservices.Input, _ *pdfservices.ExternalAsset, _ JobOptions) pdfservices.Job {
		return &pdfservices.ExtractPDFJob{Input: in, Params: pdfservices.ExtractPDFParams{
			ElementsToExtract: []pdfservices.ExtractElementType{pdfservices.ExtractText, pdfservices.ExtractTables},
		}}
	}},
	"pdf-properties": {build: func(in pdfservices.Input, _ *pdfservices.ExternalAsset, _ JobOptions) pdfservices.Job {
		return &pdfservices.PDFPropertiesJob{Input: in, Params: pdfservices.PDFPropertiesParams{IncludePageLevelProperties: true}}
	}},
	"accessibility-checker": {build: func(in pdfservices.Input, _ *pdfservices.ExternalAsset, _ JobOptions) pdfservices.Job {
		return &pdfservices.AccessibilityCheckerJob{Input: in}
	}},
	"export-pdf-form-data": {build: func(in pdfservices.Input, _ *pdfservices.ExternalAsset, _ JobOptions) pdfservices.Job {
		return &pdfservices.ExportFormDataJob{Input: in}
	}},
}

// ProcessorOperations lists the operations the processor runs on an uploaded PDF.
func ProcessorOperations() []string {
	return operationNames(false)
}

func processorSupports(operation string) bool {
	b, ok := builders[operation]
	return ok && !b.externalOnly
}

// ExternalOperations lists every operation BuildJob accepts.
func ExternalOperations() []string {
	return operationNames(true)
}

func operationNames(withExternalOnly bool) []string {
	names := make([]string, 0, len(builders))
	for name, b := range builders {
		if b.externalOnly && !withExternalOnly {
			continue
		}
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// WritesExternalOutput reports whether operation can deliver its result
// straight to a pre-signed URL.
func WritesExternalOutput(operation string) bool {
	return builders[operation].external
}

// BuildJob returns the job for operation with in as its input. out is only
// used by operations that write external output and may be nil.
func BuildJob(operation string, in pdfservices.Input, out *pdfservices.ExternalAsset, opts JobOptions) (pdfservices.Job, error) {
	b, ok := builders[operation]
	if !ok {
		return nil, fmt.Errorf("unsupported operation %q (supported: %s)", operation, strings.Join(ExternalOperations(), ", "))
	}
	if !b.external {
		out = nil
	}
	job := b.build(in, out, opts)
	if err := job.Validate(); err != nil {
		return nil, err
	}
	return job, nil
}
