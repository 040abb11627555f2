package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/Lllllllleong/pdfservicesflow/internal/pdfservices"
)

func newCompressPDFCommand(a *app) *cobra.Command {
	var level string
	cmd := a.jobCommand(jobSpec{
		use:   "compress-pdf <input.pdf>",
		short: "Reduce the size of a PDF",
		args:  cobra.ExactArgs(1),
		build: func(in []pdfservices.Asset) (pdfservices.Job, error) {
			return &pdfservices.CompressPDFJob{Input: in[0], Params: pdfservices.CompressPDFParams{
				CompressionLevel: pdfservices.CompressionLevel(strings.ToUpper(level)),
			}}, nil
		},
	})
	cmd.Flags().StringVar(&level, "level", "", "compression level: LOW, MEDIUM or HIGH (default chosen by the service)")
	return cmd
}

func newLinearizePDFCommand(a *app) *cobra.Command {
	return a.jobCommand(jobSpec{
		use:   "linearize-pdf <input.pdf>",
		short: "Optimize a PDF for fast web view",
		args:  cobra.ExactArgs(1),
		build: func(in []pdfservices.Asset) (pdfservices.Job, error) {
			return &pdfservices.LinearizePDFJob{Input: in[0]}, nil
		},
	})
}

func newOCRCommand(a *app) *cobra.Command {
	var params pdfservices.OCRParams
	cmd := a.jobCommand(jobSpec{
		use:   "ocr <input.pdf>",
		short: "Make a scanned PDF searchable",
		args:  cobra.ExactArgs(1),
		build: func(in []pdfservices.Asset) (pdfservices.Job, error) {
			return &pdfservices.OCRJob{Input: in[0], Params: params}, nil
		},
	})
	cmd.Flags().StringVar(&params.OCRLocale, "lang", "", "OCR locale (default en-US)")
	cmd.Flags().StringVar((*string)(&params.OCRType), "type", "", "searchable_image or searchable_image_exact (default searchable_image)")
	return cmd
}

func newAutotagCommand(a *app) *cobra.Command {
	var params pdfservices.AutotagParams
	cmd := a.jobCommand(jobSpec{
		use:   "autotag <input.pdf>",
		short: "Add accessibility tags to a PDF",
		args:  cobra.ExactArgs(1),
		build: func(in []pdfservices.Asset) (pdfservices.Job, error) {
			return &pdfservices.AutotagJob{Input: in[0], Params: params}, nil
		},
	})
	cmd.Flags().BoolVar(&params.ShiftHeadings, "shift-headings", false, "shift headings down one level")
	cmd.Flags().BoolVar(&params.GenerateReport, "report", false, "also produce a tagging report")
	return cmd
}

func newPDFPropertiesCommand(a *app) *cobra.Command {
	var params pdfservices.PDFPropertiesParams
	cmd := a.jobCommand(jobSpec{
		use:   "pdf-properties <input.pdf>",
		short: "Print a PDF's properties as JSON",
		args:  cobra.ExactArgs(1),
		build: func(in []pdfservices.Asset) (pdfservices.Job, error) {
			return &pdfservices.PDFPropertiesJob{Input: in[0], Params: params}, nil
		},
	})
	cmd.Flags().BoolVar(&params.IncludePageLevelProperties, "page-level", false, "include per-page properties")
	return cmd
}

func newAccessibilityCheckerCommand(a *app) *cobra.Command {
	var params pdfservices.AccessibilityCheckerParams
	cmd := a.jobCommand(jobSpec{
		use:   "accessibility-checker <input.pdf>",
		short: "Check a PDF for accessibility issues",
		args:  cobra.ExactArgs(1),
		build: func(in []pdfservices.Asset) (pdfservices.Job, error) {
			return &pdfservices.AccessibilityCheckerJob{Input: in[0], Params: params}, nil
		},
	})
	cmd.Flags().IntVar(&params.PageStart, "page-start", 0, "first page to check (default 1)")
	cmd.Flags().IntVar(&params.PageEnd, "page-end", 0, "last page to check (default last page)")
	return cmd
}

func newWatermarkCommand(a *app) *cobra.Command {
	var (
		ranges  string
		opacity int
		params  pdfservices.WatermarkParams
	)
	cmd := a.jobCommand(jobSpec{
		use:   "pdf-watermark <input.pdf> <watermark.pdf>",
		short: "Stamp the first page of a watermark PDF onto a PDF",
		args:  cobra.ExactArgs(2),
		preflight: func(pageCounts []int) error {
			return checkRangesAt("pageRanges", nonEmpty(ranges), pageCounts, 0)
		},
		build: func(in []pdfservices.Asset) (pdfservices.Job, error) {
			p := params
			o := opacity
			p.Opacity = &o
			var err error
			if p.PageRanges, err = pdfservices.ParsePageRanges(ranges); err != nil {
				return nil, err
			}
			return &pdfservices.WatermarkJob{Input: in[0], Watermark: in[1], Params: p}, nil
		},
	})
	cmd.Flags().StringVar(&ranges, "pages", "", "pages to watermark (default all)")
	cmd.Flags().IntVar(&opacity, "opacity", 100, "opacity in percent, 0 is fully transparent")
	cmd.Flags().BoolVar(&params.AppearOnForeground, "foreground", false, "draw the watermark over the content")
	return cmd
}
