// Package pdfcheck inspects PDF inputs locally before they are uploaded, so
// broken files and out-of-range page selections fail without a network call.
package pdfcheck

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/Lllllllleong/pdfservicesflow/internal/pdfservices"
)

type Info struct {
	PageCount int
}

func relaxedConfig() *model.Configuration {
	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed
	return cfg
}

// Inspect validates the PDF at path and counts its pages.
func Inspect(path string) (Info, error) {
	if err := api.ValidateFile(path, relaxedConfig()); err != nil {
		return Info{}, &pdfservices.Error{Kind: pdfservices.KindValidation, Op: "preflight", Field: "input",
			Message: "not a valid PDF", Err: err}
	}
	pageCount, err := api.PageCountFile(path)
	if err != nil {
		return Info{}, fmt.Errorf("failed to get page count: %w", err)
	}
	return Info{PageCount: pageCount}, nil
}

// CheckPageRanges rejects ranges that reference pages beyond pageCount.
func CheckPageRanges(field string, ranges pdfservices.PageRanges, pageCount int) error {
	if err := ranges.Validate(field); err != nil {
		return err
	}
	if highest := ranges.MaxPage(); highest > pageCount {
		return &pdfservices.Error{Kind: pdfservices.KindValidation, Op: "preflight", Field: field,
			Message: fmt.Sprintf("page %d is beyond the document's %d pages", highest, pageCount)}
	}
	return nil
}

// Optimize rewrites a PDF with pdfcpu's optimizer, dropping redundant objects
// before upload.
func Optimize(inPath, outPath string) error {
	if err := api.OptimizeFile(inPath, outPath, relaxedConfig()); err != nil {
		return fmt.Errorf("failed to validate/optimize PDF: %w", err)
	}
	return nil
}
