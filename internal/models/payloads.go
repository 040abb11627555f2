package models

// These structs define the JSON payloads exchanged with the job-status
// function and passed to the follow-up workflow.

// GCSEvent is the data of a storage object finalize CloudEvent.
type GCSEvent struct {
	Bucket      string `json:"bucket"`
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
}

// JobStatusRequest is the input for the job-status function.
type JobStatusRequest struct {
	DocumentID string `json:"documentId"`
}

// OutputObject describes one stored result.
type OutputObject struct {
	Name        string `json:"name"`
	URI         string `json:"uri"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType,omitempty"`
}

// JobStatusResponse is the output of the job-status function.
type JobStatusResponse struct {
	DocumentID string         `json:"documentId"`
	Record     JobRecord      `json:"record"`
	Outputs    []OutputObject `json:"outputs"`
}

// WorkflowArgument is the execution argument of the follow-up workflow.
type WorkflowArgument struct {
	DocumentID string   `json:"documentId"`
	Operation  string   `json:"operation"`
	Outputs    []string `json:"outputs"`
	PageCount  int      `json:"pageCount,omitempty"`
}
