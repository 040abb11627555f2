package models

import "time"

// Job statuses recorded in the ledger, in lifecycle order.
const (
	StatusValidating = "VALIDATING"
	StatusUploading  = "UPLOADING"
	StatusSubmitted  = "SUBMITTED"
	StatusDone       = "DONE"
	StatusFailed     = "FAILED"
)

// JobRecord is the Firestore record of one PDF Services job run on an
// uploaded object. It tracks the job's status and where its outputs went.
type JobRecord struct {
	FileHash            string    `firestore:"fileHash,omitempty" json:"fileHash,omitempty"`
	SourceBucket        string    `firestore:"sourceBucket,omitempty" json:"sourceBucket,omitempty"`
	SourceObject        string    `firestore:"sourceObject,omitempty" json:"sourceObject,omitempty"`
	Operation           string    `firestore:"operation,omitempty" json:"operation,omitempty"`
	Status              string    `firestore:"status,omitempty" json:"status,omitempty"`
	ErrorKind           string    `firestore:"errorKind,omitempty" json:"errorKind,omitempty"`
	ErrorDetails        string    `firestore:"errorDetails,omitempty" json:"errorDetails,omitempty"`
	PageCount           int       `firestore:"pageCount,omitempty" json:"pageCount,omitempty"`
	JobLocation         string    `firestore:"jobLocation,omitempty" json:"jobLocation,omitempty"`
	Outputs             []string  `firestore:"outputs,omitempty" json:"outputs,omitempty"`
	WorkflowExecutionID string    `firestore:"workflowExecutionId,omitempty" json:"workflowExecutionId,omitempty"` // For traceability
	CreatedAt           time.Time `firestore:"createdAt,omitempty" json:"createdAt"`
	UpdatedAt           time.Time `firestore:"updatedAt,omitempty" json:"updatedAt"`
}
