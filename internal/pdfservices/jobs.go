package pdfservices

import (
	"encoding/json"
	"slices"
)

// Operation is the service-side name of a remote PDF operation.
type Operation string

const (
	OperationCreatePDF            Operation = "createpdf"
	OperationHTMLToPDF            Operation = "htmltopdf"
	OperationExportPDF            Operation = "exportpdf"
	OperationExportPDFToImages    Operation = "exportpdftoimages"
	OperationCombinePDF           Operation = "combinepdf"
	OperationSplitPDF             Operation = "splitpdf"
	OperationCompressPDF          Operation = "compresspdf"
	OperationLinearizePDF         Operation = "linearizepdf"
	OperationProtectPDF           Operation = "protectpdf"
	OperationRemoveProtection     Operation = "removeprotection"
	OperationDeletePages          Operation = "deletepages"
	OperationPageManipulation     Operation = "pagemanipulation"
	OperationOCR                  Operation = "ocr"
	OperationAutotag              Operation = "autotag"
	OperationExtractPDF           Operation = "extractpdf"
	OperationPDFProperties        Operation = "pdfproperties"
	OperationAddWatermark         Operation = "addwatermark"
	OperationAccessibilityChecker Operation = "accessibilitychecker"
	OperationSetFormData          Operation = "setformdata"
	OperationGetFormData          Operation = "getformdata"
	OperationDocumentGeneration   Operation = "documentgeneration"
	OperationElectronicSeal       Operation = "electronicseal"
)

// Job is one submittable operation: its inputs plus validated parameters.
// Validate reports the first problem as a ValidationError without touching
// the network; Submit calls it before sending anything.
type Job interface {
	Operation() Operation
	Validate() error
	request() (*jobRequest, error)
}

// jobRequest is the JSON body of POST /operation/<name>.
type jobRequest struct {
	AssetID  string         `json:"assetID,omitempty"`
	Input    *ExternalAsset `json:"input,omitempty"`
	InputURL string         `json:"inputUrl,omitempty"`
	Assets   []assetRef     `json:"assets,omitempty"`
	Layout   string         `json:"layout,omitempty"`
	Output   *ExternalAsset `json:"output,omitempty"`
	Params   any            `json:"params,omitempty"`
}

// assetRef names one input of a multi-input job.
type assetRef struct {
	AssetID    string         `json:"assetID,omitempty"`
	Input      *ExternalAsset `json:"input,omitempty"`
	PageRanges PageRanges     `json:"pageRanges,omitempty"`
	BasePage   int            `json:"basePage,omitempty"`
	Role       string         `json:"role,omitempty"`

	mediaType MediaType
}

// resolveInput checks in is present and, when its media type is known,
// among allowed.
func resolveInput(field string, in Input, allowed ...MediaType) (assetRef, error) {
	if in == nil {
		return assetRef{}, validationError(field, "is required")
	}
	ref, err := in.ref(field)
	if err != nil {
		return assetRef{}, err
	}
	if ref.mediaType != "" && len(allowed) > 0 && !slices.Contains(allowed, ref.mediaType) {
		return assetRef{}, validationError(field, "media type %s is not accepted by this operation", ref.mediaType)
	}
	return ref, nil
}

// singleInput builds the request of a one-input job. params is validated by
// its struct tags first.
func singleInput(in Input, out *ExternalAsset, params any, allowed ...MediaType) (*jobRequest, error) {
	ref, err := resolveInput("input", in, allowed...)
	if err != nil {
		return nil, err
	}
	req := &jobRequest{AssetID: ref.AssetID, Input: ref.Input}
	if err := req.setOutput(out); err != nil {
		return nil, err
	}
	if params != nil {
		if err := validateStruct(params); err != nil {
			return nil, err
		}
		req.Params = params
	}
	return req, nil
}

func (r *jobRequest) setOutput(out *ExternalAsset) error {
	if out == nil {
		return nil
	}
	if err := validateStruct(*out); err != nil {
		return prefixField("output", err)
	}
	r.Output = out
	return nil
}

// validJSON rejects non-empty raw values that are not JSON documents.
func validJSON(field string, raw json.RawMessage, required bool) error {
	if len(raw) == 0 {
		if required {
			return validationError(field, "is required")
		}
		return nil
	}
	if !json.Valid(raw) {
		return validationError(field, "must be valid JSON")
	}
	return nil
}

func validateJob(j Job) error {
	_, err := j.request()
	return err
}
