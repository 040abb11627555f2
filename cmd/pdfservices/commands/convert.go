package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Lllllllleong/pdfservicesflow/internal/pdfservices"
)

func newCreatePDFCommand(a *app) *cobra.Command {
	var params pdfservices.CreatePDFParams
	cmd := a.jobCommand(jobSpec{
		use:   "create-pdf <document>",
		short: "Convert an office document, text file or image to PDF",
		args:  cobra.ExactArgs(1),
		build: func(in []pdfservices.Asset) (pdfservices.Job, error) {
			return &pdfservices.CreatePDFJob{Input: in[0], Params: params}, nil
		},
	})
	cmd.Flags().StringVar(&params.DocumentLanguage, "language", "", "document language as a BCP 47 tag (default en-US)")
	cmd.Flags().BoolVar(&params.CreateTaggedPDF, "tagged", false, "produce a tagged PDF")
	return cmd
}

func newHTMLToPDFCommand(a *app) *cobra.Command {
	var (
		inputURL     string
		width        float64
		height       float64
		headerFooter bool
		dataFile     string
	)
	cmd := a.jobCommand(jobSpec{
		use:   "html-to-pdf [page.zip|page.html]",
		short: "Render zipped or static HTML, or a public URL, to PDF",
		args:  cobra.MaximumNArgs(1),
		build: func(in []pdfservices.Asset) (pdfservices.Job, error) {
			job := &pdfservices.HTMLToPDFJob{InputURL: inputURL, Params: pdfservices.HTMLToPDFParams{IncludeHeaderFooter: headerFooter}}
			if len(in) > 0 {
				job.Input = in[0]
			}
			if width > 0 || height > 0 {
				job.Params.PageLayout = &pdfservices.PageLayout{PageWidth: width, PageHeight: height}
			}
			if dataFile != "" {
				data, err := os.ReadFile(dataFile)
				if err != nil {
					return nil, fmt.Errorf("failed to read merge data: %w", err)
				}
				job.Params.DataToMerge = json.RawMessage(data)
			}
			return job, nil
		},
	})
	cmd.Flags().StringVar(&inputURL, "url", "", "public page URL to render instead of a file")
	cmd.Flags().Float64Var(&width, "page-width", 0, "page width in inches (default 8.5)")
	cmd.Flags().Float64Var(&height, "page-height", 0, "page height in inches (default 11)")
	cmd.Flags().BoolVar(&headerFooter, "header-footer", false, "include the default header and footer")
	cmd.Flags().StringVar(&dataFile, "data", "", "JSON file merged into the page's template")
	return cmd
}

func newExportPDFCommand(a *app) *cobra.Command {
	var params pdfservices.ExportPDFParams
	cmd := a.jobCommand(jobSpec{
		use:   "export-pdf <input.pdf>",
		short: "Convert a PDF to an office document",
		args:  cobra.ExactArgs(1),
		build: func(in []pdfservices.Asset) (pdfservices.Job, error) {
			return &pdfservices.ExportPDFJob{Input: in[0], Params: params}, nil
		},
	})
	cmd.Flags().StringVar((*string)(&params.TargetFormat), "format", "docx", "target format: doc, docx, pptx, rtf or xlsx")
	cmd.Flags().StringVar(&params.OCRLocale, "ocr-lang", "", "OCR locale for scanned pages (default en-US)")
	return cmd
}

func newExportPDFToImagesCommand(a *app) *cobra.Command {
	var params pdfservices.ExportPDFToImagesParams
	cmd := a.jobCommand(jobSpec{
		use:   "export-pdf-to-images <input.pdf>",
		short: "Render each page of a PDF as an image",
		args:  cobra.ExactArgs(1),
		build: func(in []pdfservices.Asset) (pdfservices.Job, error) {
			return &pdfservices.ExportPDFToImagesJob{Input: in[0], Params: params}, nil
		},
	})
	cmd.Flags().StringVar((*string)(&params.TargetFormat), "format", "jpeg", "image format: jpeg or png")
	cmd.Flags().StringVar((*string)(&params.OutputType), "output-type", string(pdfservices.OutputListOfPageImages),
		"listOfPageImages or zipOfPageImages")
	return cmd
}

func newExtractPDFCommand(a *app) *cobra.Command {
	var (
		elements   []string
		renditions []string
		params     pdfservices.ExtractPDFParams
	)
	cmd := a.jobCommand(jobSpec{
		use:   "extract-pdf <input.pdf>",
		short: "Extract text and tables from a PDF as structured JSON",
		args:  cobra.ExactArgs(1),
		build: func(in []pdfservices.Asset) (pdfservices.Job, error) {
			p := params
			p.ElementsToExtract = nil
			for _, e := range elements {
				p.ElementsToExtract = append(p.ElementsToExtract, pdfservices.ExtractElementType(e))
			}
			p.ElementsToExtractRenditions = nil
			for _, r := range renditions {
				p.ElementsToExtractRenditions = append(p.ElementsToExtractRenditions, pdfservices.ExtractRenditionType(r))
			}
			return &pdfservices.ExtractPDFJob{Input: in[0], Params: p}, nil
		},
	})
	cmd.Flags().StringSliceVar(&elements, "elements", []string{"text"}, "elements to extract: text, tables")
	cmd.Flags().StringSliceVar(&renditions, "renditions", nil, "renditions to extract: tables, figures")
	cmd.Flags().StringVar((*string)(&params.TableOutputFormat), "table-format", "", "table rendition format: csv or xlsx")
	cmd.Flags().BoolVar(&params.AddCharInfo, "char-info", false, "include character bounding boxes")
	cmd.Flags().BoolVar(&params.GetStylingInfo, "styling", false, "include styling information")
	return cmd
}

func newDocumentMergeCommand(a *app) *cobra.Command {
	var (
		dataFile      string
		fragmentsFile string
		format        string
	)
	cmd := a.jobCommand(jobSpec{
		use:   "document-merge <template.docx>",
		short: "Fill a Word template with JSON data",
		args:  cobra.ExactArgs(1),
		build: func(in []pdfservices.Asset) (pdfservices.Job, error) {
			params := pdfservices.DocumentMergeParams{OutputFormat: pdfservices.DocumentMergeOutputFormat(format)}
			var err error
			if params.JSONDataForMerge, err = readOptional(dataFile); err != nil {
				return nil, err
			}
			if params.Fragments, err = readOptional(fragmentsFile); err != nil {
				return nil, err
			}
			return &pdfservices.DocumentMergeJob{Input: in[0], Params: params}, nil
		},
	})
	cmd.Flags().StringVar(&dataFile, "data", "", "JSON file with the merge data")
	cmd.Flags().StringVar(&fragmentsFile, "fragments", "", "JSON file with reusable fragments")
	cmd.Flags().StringVar(&format, "format", "pdf", "output format: pdf or docx")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}

// readOptional returns the contents of path, or nil for an empty path.
func readOptional(path string) (json.RawMessage, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}
