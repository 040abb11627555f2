package pdfservices

import "encoding/json"

type ExportPDFTargetFormat string

const (
	ExportPDFTargetDOC  ExportPDFTargetFormat = "doc"
	ExportPDFTargetDOCX ExportPDFTargetFormat = "docx"
	ExportPDFTargetPPTX ExportPDFTargetFormat = "pptx"
	ExportPDFTargetRTF  ExportPDFTargetFormat = "rtf"
	ExportPDFTargetXLSX ExportPDFTargetFormat = "xlsx"
)

// ExportPDFParams select the office format. OCRLocale defaults to en-US.
type ExportPDFParams struct {
	TargetFormat ExportPDFTargetFormat `json:"targetFormat" validate:"required,oneof=doc docx pptx rtf xlsx"`
	OCRLocale    string                `json:"ocrLang,omitempty" validate:"omitempty,bcp47_language_tag"`
}

// ExportPDFJob converts a PDF to an office document.
type ExportPDFJob struct {
	Input  Input
	Params ExportPDFParams
	Output *ExternalAsset
}

func (j *ExportPDFJob) Operation() Operation { return OperationExportPDF }
func (j *ExportPDFJob) Validate() error      { return validateJob(j) }

func (j *ExportPDFJob) request() (*jobRequest, error) {
	params := j.Params
	if params.OCRLocale == "" {
		params.OCRLocale = "en-US"
	}
	return singleInput(j.Input, j.Output, params, MediaTypePDF)
}

type ExportPDFToImagesTargetFormat string

const (
	ExportPDFToImagesJPEG ExportPDFToImagesTargetFormat = "jpeg"
	ExportPDFToImagesPNG  ExportPDFToImagesTargetFormat = "png"
)

type ExportPDFToImagesOutputType string

const (
	// OutputListOfPageImages yields one asset per page.
	OutputListOfPageImages ExportPDFToImagesOutputType = "listOfPageImages"
	// OutputZipOfPageImages yields a single zip asset.
	OutputZipOfPageImages ExportPDFToImagesOutputType = "zipOfPageImages"
)

type ExportPDFToImagesParams struct {
	TargetFormat ExportPDFToImagesTargetFormat `json:"targetFormat" validate:"required,oneof=jpeg png"`
	OutputType   ExportPDFToImagesOutputType   `json:"outputType" validate:"required,oneof=listOfPageImages zipOfPageImages"`
}

type ExportPDFToImagesJob struct {
	Input  Input
	Params ExportPDFToImagesParams
	Output *ExternalAsset
}

func (j *ExportPDFToImagesJob) Operation() Operation { return OperationExportPDFToImages }
func (j *ExportPDFToImagesJob) Validate() error      { return validateJob(j) }

func (j *ExportPDFToImagesJob) request() (*jobRequest, error) {
	return singleInput(j.Input, j.Output, j.Params, MediaTypePDF)
}

type ExtractElementType string

const (
	ExtractText   ExtractElementType = "text"
	ExtractTables ExtractElementType = "tables"
)

type ExtractRenditionType string

const (
	RenditionTables  ExtractRenditionType = "tables"
	RenditionFigures ExtractRenditionType = "figures"
)

type TableOutputFormat string

const (
	TableOutputCSV  TableOutputFormat = "csv"
	TableOutputXLSX TableOutputFormat = "xlsx"
)

// ExtractPDFParams choose what the structured extraction returns. The
// result is a zip holding structuredData.json plus any renditions.
type ExtractPDFParams struct {
	ElementsToExtract           []ExtractElementType   `json:"elementsToExtract" validate:"required,min=1,dive,oneof=text tables"`
	ElementsToExtractRenditions []ExtractRenditionType `json:"renditionsToExtract,omitempty" validate:"omitempty,dive,oneof=tables figures"`
	TableOutputFormat           TableOutputFormat      `json:"tableOutputFormat,omitempty" validate:"omitempty,oneof=csv xlsx"`
	AddCharInfo                 bool                   `json:"addCharInfo,omitempty"`
	GetStylingInfo              bool                   `json:"getStylingInfo,omitempty"`
}

type ExtractPDFJob struct {
	Input  Input
	Params ExtractPDFParams
	Output *ExternalAsset
}

func (j *ExtractPDFJob) Operation() Operation { return OperationExtractPDF }
func (j *ExtractPDFJob) Validate() error      { return validateJob(j) }

func (j *ExtractPDFJob) request() (*jobRequest, error) {
	return singleInput(j.Input, j.Output, j.Params, MediaTypePDF)
}

type PDFPropertiesParams struct {
	IncludePageLevelProperties bool `json:"pageLevel,omitempty"`
}

// PDFPropertiesJob reports document metadata. The result carries
// Properties and no asset.
type PDFPropertiesJob struct {
	Input  Input
	Params PDFPropertiesParams
}

func (j *PDFPropertiesJob) Operation() Operation { return OperationPDFProperties }
func (j *PDFPropertiesJob) Validate() error      { return validateJob(j) }

func (j *PDFPropertiesJob) request() (*jobRequest, error) {
	return singleInput(j.Input, nil, j.Params, MediaTypePDF)
}

// ImportFormDataJob fills a PDF form from JSON keyed by field name.
type ImportFormDataJob struct {
	Input    Input
	FormData json.RawMessage
	Output   *ExternalAsset
}

func (j *ImportFormDataJob) Operation() Operation { return OperationSetFormData }
func (j *ImportFormDataJob) Validate() error      { return validateJob(j) }

func (j *ImportFormDataJob) request() (*jobRequest, error) {
	if err := validJSON("jsonFormFieldsData", j.FormData, true); err != nil {
		return nil, err
	}
	req, err := singleInput(j.Input, j.Output, nil, MediaTypePDF)
	if err != nil {
		return nil, err
	}
	req.Params = map[string]json.RawMessage{"jsonFormFieldsData": j.FormData}
	return req, nil
}

// ExportFormDataJob reads a PDF form's field values. The result is a JSON asset.
type ExportFormDataJob struct {
	Input Input
}

func (j *ExportFormDataJob) Operation() Operation { return OperationGetFormData }
func (j *ExportFormDataJob) Validate() error      { return validateJob(j) }

func (j *ExportFormDataJob) request() (*jobRequest, error) {
	return singleInput(j.Input, nil, nil, MediaTypePDF)
}
