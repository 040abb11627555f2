// Package pdfservices is a client for the cloud PDF Services API. It drives
// the asynchronous job lifecycle: upload an input, submit an operation, poll
// or await the job, and fetch the result assets.
//
// The client never retries and never logs errors on its own: every failure is
// returned as an *Error whose Kind tells the caller what went wrong.
package pdfservices

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// Clock abstracts time for Await so tests can observe and skip sleeps.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Client talks to one PDF Services endpoint with one set of credentials.
// It is safe for concurrent use.
type Client struct {
	api      *http.Client
	content  *http.Client
	tokens   oauth2.TokenSource
	clientID string
	baseURL  string
	logger   *slog.Logger
	clock    Clock
	maxWait  time.Duration
}

type Option func(*Client)

// WithHTTPClient replaces the HTTP client built from ClientConfig. It is used
// for API calls and for pre-signed content URLs alike.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.api = hc
		c.content = hc
	}
}

// WithLogger sets the sink for debug-level request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func WithClock(clock Clock) Option {
	return func(c *Client) { c.clock = clock }
}

// WithMaxWait bounds the total time Await spends on one job. Zero means no bound.
func WithMaxWait(d time.Duration) Option {
	return func(c *Client) { c.maxWait = d }
}

// New builds a client. It validates credentials and configuration but makes
// no network calls; the first token is fetched lazily.
func New(creds Credentials, cfg ClientConfig, opts ...Option) (*Client, error) {
	if creds == nil {
		return nil, validationError("credentials", "credentials are required")
	}
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	hc := cfg.newHTTPClient()
	c := &Client{
		api:      hc,
		content:  hc,
		clientID: creds.ClientID(),
		baseURL:  cfg.baseURL(),
		logger:   slog.New(slog.DiscardHandler),
		clock:    realClock{},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.tokens = creds.tokenSource(context.Background(), cfg.imsURL(), c.api)
	return c, nil
}

func (c *Client) endpoint(path string) string {
	return c.baseURL + path
}

// authorize attaches the bearer token and API key to req. Token sources are
// bound to the client's lifetime, not to ctx: when ctx ends first the call
// returns at once and the fetch finishes in the background, still refreshing
// the cached token.
func (c *Client) authorize(ctx context.Context, op string, req *http.Request) error {
	type fetched struct {
		tok *oauth2.Token
		err error
	}
	done := make(chan fetched, 1)
	go func() {
		tok, err := c.tokens.Token()
		done <- fetched{tok, err}
	}()
	var f fetched
	select {
	case <-ctx.Done():
		return transportError(op, ctx.Err())
	case f = <-done:
	}
	if f.err != nil {
		return classifyTokenError(op, f.err)
	}
	req.Header.Set("Authorization", "Bearer "+f.tok.AccessToken)
	req.Header.Set("x-api-key", c.clientID)
	return nil
}

func classifyTokenError(op string, err error) error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		kind := KindAuth
		status := 0
		if re.Response != nil {
			status = re.Response.StatusCode
			if status >= 500 {
				kind = KindService
			}
		}
		return &Error{Kind: kind, Op: op, StatusCode: status, Code: re.ErrorCode, Message: re.ErrorDescription, Err: err}
	}
	var ue *url.Error
	if errors.As(err, &ue) {
		return transportError(op, err)
	}
	return &Error{Kind: KindAuth, Op: op, Err: err}
}

// doJSON performs an authenticated API call. in, if non-nil, is sent as JSON;
// out, if non-nil, receives the decoded 2xx body.
func (c *Client) doJSON(ctx context.Context, op, method, target string, in, out any) (http.Header, error) {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return nil, &Error{Kind: KindSDK, Op: op, Message: "failed to encode request", Err: err}
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, &Error{Kind: KindSDK, Op: op, Message: "failed to build request", Err: err}
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	requestID := uuid.NewString()
	req.Header.Set("x-request-id", requestID)
	if err := c.authorize(ctx, op, req); err != nil {
		return nil, err
	}

	started := c.clock.Now()
	resp, err := c.api.Do(req)
	if err != nil {
		return nil, transportError(op, err)
	}
	defer resp.Body.Close()
	c.logger.Debug("pdfservices request", "op", op, "method", method, "url", target,
		"status", resp.StatusCode, "requestId", requestID, "elapsed", c.clock.Now().Sub(started))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var se serviceErrorBody
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		_ = json.Unmarshal(raw, &se)
		if se.Error.Message == "" && se.Message == "" {
			se.Message = strings.TrimSpace(string(raw))
		}
		return resp.Header, classifyStatus(op, resp.StatusCode, se, requestID)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.Header, &Error{Kind: KindService, Op: op, StatusCode: resp.StatusCode, RequestID: requestID,
				Message: "malformed response body", Err: err}
		}
	}
	return resp.Header, nil
}

func (c *Client) String() string {
	return fmt.Sprintf("pdfservices.Client(%s)", c.baseURL)
}
