package pdfservices

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultRetryAfter is used when a status response carries no Retry-After.
const DefaultRetryAfter = time.Second

// JobHandle is the opaque status location returned by Submit. It is a plain
// URL and may be stored and polled from another process.
type JobHandle string

type JobState string

const (
	JobInProgress JobState = "in progress"
	JobDone       JobState = "done"
	JobFailed     JobState = "failed"
)

func (s JobState) Terminal() bool {
	return s == JobDone || s == JobFailed
}

// JobError is the service's account of why a job failed.
type JobError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func (e *JobError) String() string {
	return fmt.Sprintf("%s (status %d): %s", e.Code, e.Status, e.Message)
}

// JobResult holds whatever a finished job produced. Single-output operations
// set Asset, multi-output ones set Assets. Report and Resource are secondary
// outputs (autotag, accessibility checker). Properties is set by
// pdf-properties.
type JobResult struct {
	Asset      *Asset          `json:"asset,omitempty"`
	Assets     []Asset         `json:"assetList,omitempty"`
	Report     *Asset          `json:"report,omitempty"`
	Resource   *Asset          `json:"resource,omitempty"`
	Properties json.RawMessage `json:"metadata,omitempty"`
}

// All returns the primary output assets in order.
func (r *JobResult) All() []Asset {
	if r == nil {
		return nil
	}
	if r.Asset != nil {
		return append([]Asset{*r.Asset}, r.Assets...)
	}
	return r.Assets
}

type JobStatus struct {
	State      JobState
	RetryAfter time.Duration
	Result     *JobResult
	Error      *JobError
}

type statusResponse struct {
	Status string `json:"status"`
	JobResult
	Error *JobError `json:"error,omitempty"`
}

// Submit validates job and starts it. Nothing is sent when validation fails.
func (c *Client) Submit(ctx context.Context, job Job) (JobHandle, error) {
	if job == nil {
		return "", validationError("job", "is required")
	}
	if err := job.Validate(); err != nil {
		return "", err
	}
	body, err := job.request()
	if err != nil {
		return "", err
	}
	op := job.Operation()
	header, err := c.doJSON(ctx, "submit", http.MethodPost, c.endpoint("/operation/"+string(op)), body, nil)
	if err != nil {
		return "", err
	}
	loc := header.Get("Location")
	if loc == "" {
		return "", &Error{Kind: KindService, Op: "submit", Message: "service returned no job location"}
	}
	base, err := url.Parse(c.baseURL + "/")
	if err != nil {
		return "", sdkError("submit", "invalid base URL %q", c.baseURL)
	}
	abs, err := base.Parse(loc)
	if err != nil {
		return "", &Error{Kind: KindService, Op: "submit", Message: fmt.Sprintf("invalid job location %q", loc), Err: err}
	}
	c.logger.Debug("pdfservices job submitted", "operation", op, "location", abs.String())
	return JobHandle(abs.String()), nil
}

// Poll queries a job's status once. It has no side effects on the job.
func (c *Client) Poll(ctx context.Context, h JobHandle) (*JobStatus, error) {
	if h == "" {
		return nil, validationError("jobHandle", "is required")
	}
	var resp statusResponse
	header, err := c.doJSON(ctx, "poll", http.MethodGet, string(h), nil, &resp)
	if err != nil {
		return nil, err
	}
	st := &JobStatus{RetryAfter: c.retryAfter(header.Get("Retry-After"))}
	switch strings.ToLower(strings.TrimSpace(resp.Status)) {
	case "in progress", "in_progress", "not started":
		st.State = JobInProgress
	case "done":
		st.State = JobDone
		result := resp.JobResult
		st.Result = &result
	case "failed":
		st.State = JobFailed
		st.Error = resp.Error
		if st.Error == nil {
			st.Error = &JobError{Message: "job failed without details"}
		}
	default:
		return nil, &Error{Kind: KindService, Op: "poll", Message: fmt.Sprintf("unknown job status %q", resp.Status)}
	}
	return st, nil
}

func (c *Client) retryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return DefaultRetryAfter
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		return max(at.Sub(c.clock.Now()), 0)
	}
	return DefaultRetryAfter
}

// Await polls until the job is done or failed, sleeping the service's
// Retry-After between polls. It returns the final Poll result unchanged; a
// failed job is a status, not an error. Exceeding the WithMaxWait budget
// yields a TimeoutError.
func (c *Client) Await(ctx context.Context, h JobHandle) (*JobStatus, error) {
	var deadline time.Time
	if c.maxWait > 0 {
		deadline = c.clock.Now().Add(c.maxWait)
	}
	for {
		st, err := c.Poll(ctx, h)
		if err != nil {
			return nil, err
		}
		if st.State.Terminal() {
			return st, nil
		}
		if !deadline.IsZero() && c.clock.Now().Add(st.RetryAfter).After(deadline) {
			return nil, &Error{Kind: KindTimeout, Op: "await", Message: fmt.Sprintf("job still in progress after %s", c.maxWait)}
		}
		if err := c.clock.Sleep(ctx, st.RetryAfter); err != nil {
			return nil, transportError("await", err)
		}
	}
}
