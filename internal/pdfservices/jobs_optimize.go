package pdfservices

type CompressionLevel string

const (
	CompressionLow    CompressionLevel = "LOW"
	CompressionMedium CompressionLevel = "MEDIUM"
	CompressionHigh   CompressionLevel = "HIGH"
)

// CompressPDFParams leave the level to the service when empty.
type CompressPDFParams struct {
	CompressionLevel CompressionLevel `json:"compressionLevel,omitempty" validate:"omitempty,oneof=LOW MEDIUM HIGH"`
}

type CompressPDFJob struct {
	Input  Input
	Params CompressPDFParams
	Output *ExternalAsset
}

func (j *CompressPDFJob) Operation() Operation { return OperationCompressPDF }
func (j *CompressPDFJob) Validate() error      { return validateJob(j) }

func (j *CompressPDFJob) request() (*jobRequest, error) {
	return singleInput(j.Input, j.Output, j.Params, MediaTypePDF)
}

// LinearizePDFJob optimizes a PDF for fast web view.
type LinearizePDFJob struct {
	Input  Input
	Output *ExternalAsset
}

func (j *LinearizePDFJob) Operation() Operation { return OperationLinearizePDF }
func (j *LinearizePDFJob) Validate() error      { return validateJob(j) }

func (j *LinearizePDFJob) request() (*jobRequest, error) {
	return singleInput(j.Input, j.Output, nil, MediaTypePDF)
}

type OCRType string

const (
	OCRSearchableImage      OCRType = "searchable_image"
	OCRSearchableImageExact OCRType = "searchable_image_exact"
)

// OCRParams default to en-US and searchable_image.
type OCRParams struct {
	OCRLocale string  `json:"ocrLang,omitempty" validate:"omitempty,bcp47_language_tag"`
	OCRType   OCRType `json:"ocrType,omitempty" validate:"omitempty,oneof=searchable_image searchable_image_exact"`
}

type OCRJob struct {
	Input  Input
	Params OCRParams
	Output *ExternalAsset
}

func (j *OCRJob) Operation() Operation { return OperationOCR }
func (j *OCRJob) Validate() error      { return validateJob(j) }

func (j *OCRJob) request() (*jobRequest, error) {
	params := j.Params
	if params.OCRLocale == "" {
		params.OCRLocale = "en-US"
	}
	if params.OCRType == "" {
		params.OCRType = OCRSearchableImage
	}
	return singleInput(j.Input, j.Output, params, MediaTypePDF)
}

type AutotagParams struct {
	ShiftHeadings  bool `json:"shiftHeadings,omitempty"`
	GenerateReport bool `json:"generateReport,omitempty"`
}

// AutotagJob adds accessibility tags. With GenerateReport the result also
// carries an XLSX Report.
type AutotagJob struct {
	Input  Input
	Params AutotagParams
	Output *ExternalAsset
}

func (j *AutotagJob) Operation() Operation { return OperationAutotag }
func (j *AutotagJob) Validate() error      { return validateJob(j) }

func (j *AutotagJob) request() (*jobRequest, error) {
	return singleInput(j.Input, j.Output, j.Params, MediaTypePDF)
}

// AccessibilityCheckerParams bound the checked pages; zero means unbounded.
type AccessibilityCheckerParams struct {
	PageStart int `json:"pageStart,omitempty" validate:"gte=0"`
	PageEnd   int `json:"pageEnd,omitempty" validate:"gte=0"`
}

// AccessibilityCheckerJob produces the annotated PDF and a JSON report
// (Result.Report).
type AccessibilityCheckerJob struct {
	Input  Input
	Params AccessibilityCheckerParams
}

func (j *AccessibilityCheckerJob) Operation() Operation { return OperationAccessibilityChecker }
func (j *AccessibilityCheckerJob) Validate() error      { return validateJob(j) }

func (j *AccessibilityCheckerJob) request() (*jobRequest, error) {
	p := j.Params
	if p.PageStart > 0 && p.PageEnd > 0 && p.PageEnd < p.PageStart {
		return nil, validationError("pageEnd", "must be greater than or equal to pageStart (%d)", p.PageStart)
	}
	return singleInput(j.Input, nil, p, MediaTypePDF)
}

// WatermarkParams default to every page, full opacity, behind the content.
// A nil Opacity means 100; 0 is fully transparent.
type WatermarkParams struct {
	PageRanges         PageRanges `json:"pageRanges,omitempty"`
	Opacity            *int       `json:"opacity,omitempty" validate:"omitempty,gte=0,lte=100"`
	AppearOnForeground bool       `json:"appearOnForeground"`
}

// WatermarkJob stamps the first page of Watermark onto Input.
type WatermarkJob struct {
	Input     Input
	Watermark Input
	Params    WatermarkParams
	Output    *ExternalAsset
}

func (j *WatermarkJob) Operation() Operation { return OperationAddWatermark }
func (j *WatermarkJob) Validate() error      { return validateJob(j) }

func (j *WatermarkJob) request() (*jobRequest, error) {
	params := j.Params
	if params.Opacity == nil {
		opacity := 100
		params.Opacity = &opacity
	}
	if err := params.PageRanges.Validate("pageRanges"); err != nil {
		return nil, err
	}
	req, err := singleInput(j.Input, j.Output, params, MediaTypePDF)
	if err != nil {
		return nil, err
	}
	mark, err := resolveInput("watermark", j.Watermark, MediaTypePDF)
	if err != nil {
		return nil, err
	}
	mark.Role = "watermark"
	req.Assets = []assetRef{mark}
	return req, nil
}
