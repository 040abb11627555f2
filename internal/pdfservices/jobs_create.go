package pdfservices

import "encoding/json"

var createPDFInputs = []MediaType{
	MediaTypeDOC, MediaTypeDOCX, MediaTypePPT, MediaTypePPTX, MediaTypeXLS, MediaTypeXLSX,
	MediaTypeRTF, MediaTypeTXT, MediaTypeBMP, MediaTypeGIF, MediaTypeJPEG, MediaTypePNG, MediaTypeTIFF,
}

// CreatePDFParams tune create-pdf. DocumentLanguage defaults to en-US.
type CreatePDFParams struct {
	DocumentLanguage string `json:"documentLanguage,omitempty" validate:"omitempty,bcp47_language_tag"`
	CreateTaggedPDF  bool   `json:"createTags,omitempty"`
}

// CreatePDFJob converts an office document, text file or image to PDF.
type CreatePDFJob struct {
	Input  Input
	Params CreatePDFParams
	Output *ExternalAsset
}

func (j *CreatePDFJob) Operation() Operation { return OperationCreatePDF }
func (j *CreatePDFJob) Validate() error      { return validateJob(j) }

func (j *CreatePDFJob) request() (*jobRequest, error) {
	params := j.Params
	if params.DocumentLanguage == "" {
		params.DocumentLanguage = "en-US"
	}
	return singleInput(j.Input, j.Output, params, createPDFInputs...)
}

// PageLayout is a page size in inches.
type PageLayout struct {
	PageWidth  float64 `json:"pageWidth" validate:"gt=0"`
	PageHeight float64 `json:"pageHeight" validate:"gt=0"`
}

// DefaultPageLayout is US letter.
var DefaultPageLayout = PageLayout{PageWidth: 8.5, PageHeight: 11}

type HTMLToPDFParams struct {
	PageLayout          *PageLayout     `json:"pageLayout,omitempty"`
	IncludeHeaderFooter bool            `json:"includeHeaderFooter,omitempty"`
	DataToMerge         json.RawMessage `json:"json,omitempty"`
}

// HTMLToPDFJob renders either a zipped/static HTML asset or a public URL.
// Exactly one of Input and InputURL must be set.
type HTMLToPDFJob struct {
	Input    Input
	InputURL string
	Params   HTMLToPDFParams
	Output   *ExternalAsset
}

func (j *HTMLToPDFJob) Operation() Operation { return OperationHTMLToPDF }
func (j *HTMLToPDFJob) Validate() error      { return validateJob(j) }

func (j *HTMLToPDFJob) request() (*jobRequest, error) {
	if (j.Input == nil) == (j.InputURL == "") {
		return nil, validationError("input", "exactly one of an input asset and an input URL is required")
	}
	params := j.Params
	if params.PageLayout == nil {
		layout := DefaultPageLayout
		params.PageLayout = &layout
	}
	if err := validJSON("json", params.DataToMerge, false); err != nil {
		return nil, err
	}
	if j.InputURL != "" {
		if err := validate.Var(j.InputURL, "url"); err != nil {
			return nil, validationError("inputUrl", "must be a valid URL")
		}
		if err := validateStruct(params); err != nil {
			return nil, err
		}
		req := &jobRequest{InputURL: j.InputURL, Params: params}
		if err := req.setOutput(j.Output); err != nil {
			return nil, err
		}
		return req, nil
	}
	return singleInput(j.Input, j.Output, params, MediaTypeZIP, MediaTypeHTML)
}

type DocumentMergeOutputFormat string

const (
	DocumentMergeOutputPDF  DocumentMergeOutputFormat = "pdf"
	DocumentMergeOutputDOCX DocumentMergeOutputFormat = "docx"
)

// DocumentMergeParams carry the merge data for a Word template. Fragments
// are optional reusable snippets referenced from the template.
type DocumentMergeParams struct {
	JSONDataForMerge json.RawMessage           `json:"jsonDataForMerge"`
	OutputFormat     DocumentMergeOutputFormat `json:"outputFormat" validate:"required,oneof=pdf docx"`
	Fragments        json.RawMessage           `json:"fragments,omitempty"`
}

// DocumentMergeJob fills a DOCX template with JSON data.
type DocumentMergeJob struct {
	Input  Input
	Params DocumentMergeParams
	Output *ExternalAsset
}

func (j *DocumentMergeJob) Operation() Operation { return OperationDocumentGeneration }
func (j *DocumentMergeJob) Validate() error      { return validateJob(j) }

func (j *DocumentMergeJob) request() (*jobRequest, error) {
	if err := validJSON("jsonDataForMerge", j.Params.JSONDataForMerge, true); err != nil {
		return nil, err
	}
	if err := validJSON("fragments", j.Params.Fragments, false); err != nil {
		return nil, err
	}
	return singleInput(j.Input, j.Output, j.Params, MediaTypeDOCX)
}
