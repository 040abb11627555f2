package pdfservices

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies every error returned by the client.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindAuth
	KindQuotaExceeded
	KindService
	KindSDK
	KindTransport
	KindNotFound
	KindTimeout
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "AuthError"
	case KindQuotaExceeded:
		return "QuotaExceededError"
	case KindService:
		return "ServiceError"
	case KindSDK:
		return "SDKError"
	case KindTransport:
		return "TransportError"
	case KindNotFound:
		return "NotFoundError"
	case KindTimeout:
		return "TimeoutError"
	case KindValidation:
		return "ValidationError"
	default:
		return "UnknownError"
	}
}

// Error is the single error type surfaced by the client. Op names the client
// call that failed ("upload", "submit", "poll", "fetch", ...).
type Error struct {
	Kind       Kind
	Op         string
	StatusCode int
	Code       string
	RequestID  string
	Field      string
	Message    string
	Err        error
}

// Sentinels for errors.Is. They match any *Error of the same Kind.
var (
	ErrAuth          = &Error{Kind: KindAuth}
	ErrQuotaExceeded = &Error{Kind: KindQuotaExceeded}
	ErrService       = &Error{Kind: KindService}
	ErrSDK           = &Error{Kind: KindSDK}
	ErrTransport     = &Error{Kind: KindTransport}
	ErrNotFound      = &Error{Kind: KindNotFound}
	ErrTimeout       = &Error{Kind: KindTimeout}
	ErrValidation    = &Error{Kind: KindValidation}
)

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Op != "" {
		b.WriteString(" during ")
		b.WriteString(e.Op)
	}
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d", e.StatusCode)
		if e.Code != "" {
			fmt.Fprintf(&b, ", code %s", e.Code)
		}
		b.WriteString(")")
	}
	if e.Field != "" {
		fmt.Fprintf(&b, ": field %s", e.Field)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if e.RequestID != "" {
		fmt.Fprintf(&b, " [request %s]", e.RequestID)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is a sentinel (or any *Error) with the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the Kind of the first *Error in err's chain, KindTimeout for
// a bare context deadline and KindUnknown otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindUnknown
}

func validationError(field, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Op: "validate", Field: field, Message: fmt.Sprintf(format, args...)}
}

func sdkError(op, format string, args ...any) *Error {
	return &Error{Kind: KindSDK, Op: op, Message: fmt.Sprintf(format, args...)}
}

func transportError(op string, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Op: op, Err: err}
	}
	return &Error{Kind: KindTransport, Op: op, Err: err}
}

// quotaCodes are error codes the service uses for plan and usage limits,
// whatever the HTTP status.
var quotaCodes = map[string]bool{
	"QUOTA_EXCEEDED":      true,
	"INSUFFICIENT_QUOTA":  true,
	"USAGE_LIMIT_REACHED": true,
	"429001":              true,
}

// serviceErrorBody is the error envelope returned by the service.
type serviceErrorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// classifyStatus maps a non-2xx API response to an *Error. Content downloads
// use classifyContentStatus instead.
func classifyStatus(op string, status int, body serviceErrorBody, requestID string) *Error {
	code, msg := body.Error.Code, body.Error.Message
	if code == "" {
		code = body.Code
	}
	if msg == "" {
		msg = body.Message
	}
	e := &Error{Op: op, StatusCode: status, Code: code, Message: msg, RequestID: requestID}
	switch {
	case quotaCodes[strings.ToUpper(code)] || status == http.StatusTooManyRequests:
		e.Kind = KindQuotaExceeded
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		e.Kind = KindAuth
	case status == http.StatusNotFound || status == http.StatusGone:
		e.Kind = KindNotFound
	case status >= 400:
		e.Kind = KindService
	default:
		e.Kind = KindUnknown
	}
	return e
}

// classifyContentStatus treats every "this URL no longer works" response of a
// pre-signed download as a stale handle.
func classifyContentStatus(status int, requestID string) *Error {
	e := &Error{Op: "fetch", StatusCode: status, RequestID: requestID}
	switch status {
	case http.StatusNotFound, http.StatusGone, http.StatusForbidden:
		e.Kind = KindNotFound
		e.Message = "asset content is no longer available"
	case http.StatusTooManyRequests:
		e.Kind = KindQuotaExceeded
	default:
		e.Kind = KindService
	}
	return e
}
