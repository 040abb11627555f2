// Package pdfservicestest provides an in-memory PDF Services endpoint for
// tests. It speaks the same wire protocol as the real service: IMS token
// endpoints, asset upload/download through pre-signed URLs, and the
// submit/poll job lifecycle.
package pdfservicestest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	DefaultClientID     = "test-client-id"
	DefaultClientSecret = "test-client-secret"
)

// Output is one document produced by a Processor.
type Output struct {
	Content   []byte
	MediaType string
}

// Failure makes a job finish in the failed state.
type Failure struct {
	Code    string
	Message string
	Status  int
}

// Result is what a Processor returns for one job.
type Result struct {
	Outputs []Output
	// List reports Outputs as an asset list even when there is only one.
	List       bool
	Report     *Output
	Resource   *Output
	Properties json.RawMessage
	Failure    *Failure
}

// Input is one resolved job input handed to a Processor.
type Input struct {
	Content   []byte
	MediaType string
	Role      string
}

// Request is a submitted job as the Processor sees it.
type Request struct {
	Operation string
	Inputs    []Input
	Params    json.RawMessage
	Body      json.RawMessage
}

type Processor func(Request) Result

// Echo returns the first input unchanged as the single output.
func Echo(req Request) Result {
	if len(req.Inputs) == 0 {
		return Result{Failure: &Failure{Code: "INVALID_INPUT", Message: "no input", Status: http.StatusBadRequest}}
	}
	in := req.Inputs[0]
	return Result{Outputs: []Output{{Content: in.Content, MediaType: in.MediaType}}}
}

type asset struct {
	id        string
	mediaType string
	content   []byte
	uploaded  bool
	expired   bool
}

type job struct {
	id         string
	operation  string
	pollsLeft  int
	result     Result
	output     *externalRef
	assetIDs   []string
	reportID   string
	resourceID string
	finished   bool
}

type externalRef struct {
	URI     string `json:"uri"`
	Storage string `json:"storage"`
}

type assetRef struct {
	AssetID    string          `json:"assetID"`
	Input      *externalRef    `json:"input"`
	Role       string          `json:"role"`
	PageRanges json.RawMessage `json:"pageRanges"`
}

type jobBody struct {
	AssetID  string          `json:"assetID"`
	Input    *externalRef    `json:"input"`
	InputURL string          `json:"inputUrl"`
	Assets   []assetRef      `json:"assets"`
	Output   *externalRef    `json:"output"`
	Params   json.RawMessage `json:"params"`
}

// Service is a running fake. All methods are safe for concurrent use.
type Service struct {
	*httptest.Server

	ClientID     string
	ClientSecret string

	inProgressPolls int
	retryAfter      string
	processor       Processor
	submitStatus    int
	submitCode      string
	jwtKey          any

	mu       sync.Mutex
	assets   map[string]*asset
	jobs     map[string]*job
	tokens   map[string]bool
	requests map[string]int
}

type Option func(*Service)

// WithInProgressPolls sets how many polls report "in progress" before a job
// finishes. The default is 1; 0 makes jobs complete synchronously.
func WithInProgressPolls(n int) Option {
	return func(s *Service) { s.inProgressPolls = n }
}

// WithRetryAfter sets the Retry-After header of in-progress responses; ""
// omits it.
func WithRetryAfter(v string) Option {
	return func(s *Service) { s.retryAfter = v }
}

func WithProcessor(p Processor) Option {
	return func(s *Service) { s.processor = p }
}

// WithSubmitError makes every submit fail with status and error code.
func WithSubmitError(status int, code string) Option {
	return func(s *Service) {
		s.submitStatus = status
		s.submitCode = code
	}
}

// WithJWTKey enables signature checks on the JWT exchange endpoint.
func WithJWTKey(publicKey any) Option {
	return func(s *Service) { s.jwtKey = publicKey }
}

// NewService starts a fake closed at the end of the test.
func NewService(t testing.TB, opts ...Option) *Service {
	t.Helper()
	s := &Service{
		ClientID:        DefaultClientID,
		ClientSecret:    DefaultClientSecret,
		inProgressPolls: 1,
		retryAfter:      "1",
		processor:       Echo,
		assets:          make(map[string]*asset),
		jobs:            make(map[string]*job),
		tokens:          make(map[string]bool),
		requests:        make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /ims/token/v3", s.handleToken)
	mux.HandleFunc("POST /ims/exchange/jwt", s.handleJWTExchange)
	mux.HandleFunc("POST /assets", s.authorized(s.handleCreateAsset))
	mux.HandleFunc("GET /assets/{id}", s.authorized(s.handleGetAsset))
	mux.HandleFunc("DELETE /assets/{id}", s.authorized(s.handleDeleteAsset))
	mux.HandleFunc("PUT /upload/{id}", s.handleUpload)
	mux.HandleFunc("GET /download/{id}", s.handleDownload)
	mux.HandleFunc("POST /operation/{op}", s.authorized(s.handleSubmit))
	mux.HandleFunc("GET /operation/{op}/{id}/status", s.authorized(s.handleStatus))

	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests["total"]++
		s.requests[r.Method+" "+routeName(r.URL.Path)]++
		s.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(s.Close)
	return s
}

func routeName(path string) string {
	switch {
	case strings.HasPrefix(path, "/ims/"):
		return path
	case strings.HasSuffix(path, "/status"):
		return "status"
	case strings.HasPrefix(path, "/operation/"):
		return "operation"
	case strings.HasPrefix(path, "/upload/"):
		return "upload"
	case strings.HasPrefix(path, "/download/"):
		return "download"
	case strings.HasPrefix(path, "/assets"):
		return "assets"
	}
	return path
}

// Requests returns the number of requests the fake received in total.
func (s *Service) Requests() int {
	return s.Count("total")
}

// Count returns the number of requests for a route such as "GET status",
// "POST operation", "PUT upload" or "GET download".
func (s *Service) Count(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[route]
}

// Content returns the stored bytes of an asset.
func (s *Service) Content(assetID string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assets[assetID]
	if !ok || !a.uploaded {
		return nil, false
	}
	return bytes.Clone(a.content), true
}

// Expire makes an asset's download URI stop working, like a lapsed
// pre-signed URL.
func (s *Service) Expire(assetID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.assets[assetID]; ok {
		a.expired = true
	}
}

// ExpireAll expires every asset known so far.
func (s *Service) ExpireAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.assets {
		a.expired = true
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, map[string]any{"error": map[string]string{"code": code, "message": msg}})
}

func (s *Service) issueToken() string {
	tok := uuid.NewString()
	s.mu.Lock()
	s.tokens[tok] = true
	s.mu.Unlock()
	return tok
}

func (s *Service) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_request"})
		return
	}
	if r.PostForm.Get("grant_type") != "client_credentials" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unsupported_grant_type"})
		return
	}
	if r.PostForm.Get("client_id") != s.ClientID || r.PostForm.Get("client_secret") != s.ClientSecret {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_client", "error_description": "invalid client credentials"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": s.issueToken(),
		"token_type":   "bearer",
		"expires_in":   86400,
	})
}

func (s *Service) handleJWTExchange(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if r.PostForm.Get("client_id") != s.ClientID || r.PostForm.Get("client_secret") != s.ClientSecret {
		writeError(w, http.StatusUnauthorized, "invalid_client", "invalid client credentials")
		return
	}
	raw := r.PostForm.Get("jwt_token")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "invalid_token", "jwt_token is required")
		return
	}
	if s.jwtKey != nil {
		if _, err := jwt.Parse(raw, func(*jwt.Token) (any, error) { return s.jwtKey, nil },
			jwt.WithValidMethods([]string{"RS256"})); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_token", err.Error())
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": s.issueToken(),
		"token_type":   "bearer",
		"expires_in":   86400000,
	})
}

func (s *Service) authorized(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tok, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		s.mu.Lock()
		valid := ok && s.tokens[tok]
		s.mu.Unlock()
		if !valid || r.Header.Get("x-api-key") != s.ClientID {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid credentials")
			return
		}
		next(w, r)
	}
}

func (s *Service) newAsset(mediaType string, content []byte) *asset {
	a := &asset{id: uuid.NewString(), mediaType: mediaType, content: content, uploaded: content != nil}
	s.assets[a.id] = a
	return a
}

func (s *Service) assetJSON(a *asset) map[string]any {
	return map[string]any{
		"assetID":     a.id,
		"downloadUri": s.URL + "/download/" + a.id,
		"metadata":    map[string]any{"type": a.mediaType, "size": len(a.content)},
	}
}

func (s *Service) handleCreateAsset(w http.ResponseWriter, r *http.Request) {
	var body struct {
		MediaType string `json:"mediaType"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.MediaType == "" {
		writeError(w, http.StatusBadRequest, "INVALID_MEDIA_TYPE", "mediaType is required")
		return
	}
	s.mu.Lock()
	a := s.newAsset(body.MediaType, nil)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"assetID": a.id, "uploadUri": s.URL + "/upload/" + a.id})
}

func (s *Service) handleUpload(w http.ResponseWriter, r *http.Request) {
	content, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assets[r.PathValue("id")]
	if !ok {
		http.Error(w, "no such upload", http.StatusNotFound)
		return
	}
	a.content = content
	a.uploaded = true
	w.WriteHeader(http.StatusOK)
}

func (s *Service) handleGetAsset(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	a, ok := s.assets[r.PathValue("id")]
	var out map[string]any
	if ok {
		out = s.assetJSON(a)
	}
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "ASSET_NOT_FOUND", "asset not found")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Service) handleDeleteAsset(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := r.PathValue("id")
	if _, ok := s.assets[id]; !ok {
		writeError(w, http.StatusNotFound, "ASSET_NOT_FOUND", "asset not found")
		return
	}
	delete(s.assets, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleDownload(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	a, ok := s.assets[r.PathValue("id")]
	var content []byte
	var mediaType string
	if ok && !a.expired && a.uploaded {
		content, mediaType = a.content, a.mediaType
	} else {
		ok = false
	}
	s.mu.Unlock()
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", mediaType)
	w.Header().Set("Content-Length", strconv.Itoa(len(content)))
	_, _ = w.Write(content)
}

// resolve reads one input, either a stored asset or an external URL.
func (s *Service) resolve(id string, ext *externalRef, role string) (Input, error) {
	if ext != nil {
		resp, err := s.Client().Get(ext.URI)
		if err != nil {
			return Input{}, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return Input{}, fmt.Errorf("external input returned %s", resp.Status)
		}
		content, err := io.ReadAll(resp.Body)
		if err != nil {
			return Input{}, err
		}
		return Input{Content: content, MediaType: resp.Header.Get("Content-Type"), Role: role}, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assets[id]
	if !ok || !a.uploaded {
		return Input{}, fmt.Errorf("asset %q not found", id)
	}
	return Input{Content: bytes.Clone(a.content), MediaType: a.mediaType, Role: role}, nil
}

func (s *Service) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if s.submitStatus != 0 {
		writeError(w, s.submitStatus, s.submitCode, "submit rejected")
		return
	}
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	var body jobBody
	if err := json.Unmarshal(raw, &body); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	req := Request{Operation: r.PathValue("op"), Params: body.Params, Body: raw}
	if body.AssetID != "" || body.Input != nil {
		in, err := s.resolve(body.AssetID, body.Input, "input")
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
			return
		}
		req.Inputs = append(req.Inputs, in)
	}
	for _, ref := range body.Assets {
		in, err := s.resolve(ref.AssetID, ref.Input, ref.Role)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
			return
		}
		req.Inputs = append(req.Inputs, in)
	}
	if body.InputURL != "" {
		req.Inputs = append(req.Inputs, Input{Content: []byte(body.InputURL), MediaType: "text/uri-list", Role: "url"})
	}

	j := &job{
		id:        uuid.NewString(),
		operation: req.Operation,
		pollsLeft: s.inProgressPolls,
		result:    s.processor(req),
		output:    body.Output,
	}
	s.mu.Lock()
	s.jobs[j.id] = j
	s.mu.Unlock()
	w.Header().Set("Location", "/operation/"+j.operation+"/"+j.id+"/status")
	w.WriteHeader(http.StatusCreated)
}

func (s *Service) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	j, ok := s.jobs[r.PathValue("id")]
	if !ok {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "JOB_NOT_FOUND", "job not found")
		return
	}
	if j.pollsLeft > 0 {
		j.pollsLeft--
		s.mu.Unlock()
		if s.retryAfter != "" {
			w.Header().Set("Retry-After", s.retryAfter)
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "in progress"})
		return
	}
	if !j.finished {
		s.finish(j)
	}
	out := s.statusJSON(j)
	s.mu.Unlock()
	if j.output != nil && j.result.Failure == nil {
		if err := s.writeExternal(j); err != nil {
			writeJSON(w, http.StatusOK, map[string]any{"status": "failed",
				"error": map[string]any{"code": "OUTPUT_ERROR", "message": err.Error(), "status": 500}})
			return
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// finish materializes a job's outputs as assets. s.mu must be held.
func (s *Service) finish(j *job) {
	j.finished = true
	if j.result.Failure != nil || j.output != nil {
		return
	}
	for _, o := range j.result.Outputs {
		j.assetIDs = append(j.assetIDs, s.newAsset(defaultType(o.MediaType), o.Content).id)
	}
	if o := j.result.Report; o != nil {
		j.reportID = s.newAsset(defaultType(o.MediaType), o.Content).id
	}
	if o := j.result.Resource; o != nil {
		j.resourceID = s.newAsset(defaultType(o.MediaType), o.Content).id
	}
}

func defaultType(mediaType string) string {
	if mediaType == "" {
		return "application/pdf"
	}
	return mediaType
}

// statusJSON renders a finished job. s.mu must be held.
func (s *Service) statusJSON(j *job) map[string]any {
	if f := j.result.Failure; f != nil {
		return map[string]any{"status": "failed", "error": map[string]any{"code": f.Code, "message": f.Message, "status": f.Status}}
	}
	out := map[string]any{"status": "done"}
	var list []map[string]any
	for _, id := range j.assetIDs {
		if a, ok := s.assets[id]; ok {
			list = append(list, s.assetJSON(a))
		}
	}
	switch {
	case len(list) == 1 && !j.result.List:
		out["asset"] = list[0]
	case len(list) > 0:
		out["assetList"] = list
	}
	if a, ok := s.assets[j.reportID]; ok {
		out["report"] = s.assetJSON(a)
	}
	if a, ok := s.assets[j.resourceID]; ok {
		out["resource"] = s.assetJSON(a)
	}
	if len(j.result.Properties) > 0 {
		out["metadata"] = j.result.Properties
	}
	return out
}

// writeExternal uploads the first output to the caller's pre-signed URL.
func (s *Service) writeExternal(j *job) error {
	if len(j.result.Outputs) == 0 {
		return nil
	}
	o := j.result.Outputs[0]
	req, err := http.NewRequest(http.MethodPut, j.output.URI, bytes.NewReader(o.Content))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", defaultType(o.MediaType))
	resp, err := s.Client().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("external output returned %s", resp.Status)
	}
	return nil
}
