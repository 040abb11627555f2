package pdfservices

import "fmt"

const (
	minCombineInputs = 2
	maxCombineInputs = 20
)

// CombineInput is one source document of a combine, with the pages to take
// from it. Nil PageRanges means every page.
type CombineInput struct {
	Input      Input
	PageRanges PageRanges
}

// CombinePDFJob concatenates the selected pages of 2 to 20 PDFs in order.
type CombinePDFJob struct {
	Inputs []CombineInput
	Output *ExternalAsset
}

func (j *CombinePDFJob) Operation() Operation { return OperationCombinePDF }
func (j *CombinePDFJob) Validate() error      { return validateJob(j) }

func (j *CombinePDFJob) request() (*jobRequest, error) {
	if n := len(j.Inputs); n < minCombineInputs || n > maxCombineInputs {
		return nil, validationError("inputs", "combine needs %d to %d inputs, got %d", minCombineInputs, maxCombineInputs, n)
	}
	req := &jobRequest{}
	for i, in := range j.Inputs {
		field := fmt.Sprintf("inputs[%d]", i)
		ref, err := resolveInput(field, in.Input, MediaTypePDF)
		if err != nil {
			return nil, err
		}
		if err := in.PageRanges.Validate(field + ".pageRanges"); err != nil {
			return nil, err
		}
		ref.PageRanges = in.PageRanges
		req.Assets = append(req.Assets, ref)
	}
	if err := req.setOutput(j.Output); err != nil {
		return nil, err
	}
	return req, nil
}

// SplitPDFParams must set exactly one of PageCount, FileCount and PageRanges.
type SplitPDFParams struct {
	PageCount  int        `json:"pageCount,omitempty" validate:"gte=0"`
	FileCount  int        `json:"fileCount,omitempty" validate:"gte=0"`
	PageRanges PageRanges `json:"pageRanges,omitempty"`
}

// SplitPDFJob splits a PDF into several. The result carries Assets.
type SplitPDFJob struct {
	Input  Input
	Params SplitPDFParams
}

func (j *SplitPDFJob) Operation() Operation { return OperationSplitPDF }
func (j *SplitPDFJob) Validate() error      { return validateJob(j) }

func (j *SplitPDFJob) request() (*jobRequest, error) {
	set := 0
	for _, ok := range []bool{j.Params.PageCount > 0, j.Params.FileCount > 0, len(j.Params.PageRanges) > 0} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return nil, validationError("params", "exactly one of pageCount, fileCount and pageRanges is required")
	}
	if err := j.Params.PageRanges.Validate("pageRanges"); err != nil {
		return nil, err
	}
	return singleInput(j.Input, nil, j.Params, MediaTypePDF)
}

type DeletePagesParams struct {
	PageRanges PageRanges `json:"pageRanges"`
}

type DeletePagesJob struct {
	Input  Input
	Params DeletePagesParams
	Output *ExternalAsset
}

func (j *DeletePagesJob) Operation() Operation { return OperationDeletePages }
func (j *DeletePagesJob) Validate() error      { return validateJob(j) }

func (j *DeletePagesJob) request() (*jobRequest, error) {
	if len(j.Params.PageRanges) == 0 {
		return nil, validationError("pageRanges", "is required")
	}
	if err := j.Params.PageRanges.Validate("pageRanges"); err != nil {
		return nil, err
	}
	return singleInput(j.Input, j.Output, j.Params, MediaTypePDF)
}

// PageInsertion places pages from Input at BasePage of the base document.
// For a replacement, the same number of base pages starting at BasePage are
// overwritten. Nil PageRanges means every page of Input.
type PageInsertion struct {
	Input      Input
	BasePage   int
	PageRanges PageRanges
}

func pageLayout(base Input, items []PageInsertion, role string) (*jobRequest, error) {
	ref, err := resolveInput("base", base, MediaTypePDF)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, validationError(role+"s", "at least one entry is required")
	}
	ref.Role = "base"
	req := &jobRequest{Assets: []assetRef{ref}, Layout: role}
	for i, it := range items {
		field := fmt.Sprintf("%ss[%d]", role, i)
		r, err := resolveInput(field, it.Input, MediaTypePDF)
		if err != nil {
			return nil, err
		}
		if it.BasePage < 1 {
			return nil, validationError(field+".basePage", "must be >= 1, got %d", it.BasePage)
		}
		if err := it.PageRanges.Validate(field + ".pageRanges"); err != nil {
			return nil, err
		}
		r.BasePage = it.BasePage
		r.PageRanges = it.PageRanges
		r.Role = role
		req.Assets = append(req.Assets, r)
	}
	return req, nil
}

// InsertPagesJob inserts pages from other PDFs into a base PDF.
type InsertPagesJob struct {
	Base       Input
	Insertions []PageInsertion
	Output     *ExternalAsset
}

func (j *InsertPagesJob) Operation() Operation { return OperationCombinePDF }
func (j *InsertPagesJob) Validate() error      { return validateJob(j) }

func (j *InsertPagesJob) request() (*jobRequest, error) {
	req, err := pageLayout(j.Base, j.Insertions, "insertion")
	if err != nil {
		return nil, err
	}
	return req, req.setOutput(j.Output)
}

// ReplacePagesJob overwrites pages of a base PDF with pages from other PDFs.
type ReplacePagesJob struct {
	Base         Input
	Replacements []PageInsertion
	Output       *ExternalAsset
}

func (j *ReplacePagesJob) Operation() Operation { return OperationCombinePDF }
func (j *ReplacePagesJob) Validate() error      { return validateJob(j) }

func (j *ReplacePagesJob) request() (*jobRequest, error) {
	req, err := pageLayout(j.Base, j.Replacements, "replacement")
	if err != nil {
		return nil, err
	}
	return req, req.setOutput(j.Output)
}

// ReorderPagesJob rewrites a PDF with its pages in the order PageRanges lists them.
type ReorderPagesJob struct {
	Input      Input
	PageRanges PageRanges
	Output     *ExternalAsset
}

func (j *ReorderPagesJob) Operation() Operation { return OperationCombinePDF }
func (j *ReorderPagesJob) Validate() error      { return validateJob(j) }

func (j *ReorderPagesJob) request() (*jobRequest, error) {
	ref, err := resolveInput("input", j.Input, MediaTypePDF)
	if err != nil {
		return nil, err
	}
	if len(j.PageRanges) == 0 {
		return nil, validationError("pageRanges", "is required")
	}
	if err := j.PageRanges.Validate("pageRanges"); err != nil {
		return nil, err
	}
	ref.PageRanges = j.PageRanges
	req := &jobRequest{Assets: []assetRef{ref}}
	return req, req.setOutput(j.Output)
}

type Angle int

const (
	Angle90  Angle = 90
	Angle180 Angle = 180
	Angle270 Angle = 270
)

type PageRotation struct {
	Angle      Angle      `json:"angle" validate:"required,oneof=90 180 270"`
	PageRanges PageRanges `json:"pageRanges"`
}

type RotatePagesParams struct {
	Rotations []PageRotation `json:"pageActions" validate:"required,min=1,dive"`
}

// RotatePagesJob applies one or more rotations, each to its own page ranges.
type RotatePagesJob struct {
	Input  Input
	Params RotatePagesParams
	Output *ExternalAsset
}

func (j *RotatePagesJob) Operation() Operation { return OperationPageManipulation }
func (j *RotatePagesJob) Validate() error      { return validateJob(j) }

func (j *RotatePagesJob) request() (*jobRequest, error) {
	req, err := singleInput(j.Input, j.Output, j.Params, MediaTypePDF)
	if err != nil {
		return nil, err
	}
	for i, r := range j.Params.Rotations {
		field := fmt.Sprintf("pageActions[%d].pageRanges", i)
		if len(r.PageRanges) == 0 {
			return nil, validationError(field, "is required")
		}
		if err := r.PageRanges.Validate(field); err != nil {
			return nil, err
		}
	}
	return req, nil
}
