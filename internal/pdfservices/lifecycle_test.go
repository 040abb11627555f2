package pdfservices_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/Lllllllleong/pdfservicesflow/internal/pdfservices"
	"github.com/Lllllllleong/pdfservicesflow/internal/pdfservices/pdfservicestest"
)

var samplePDF = []byte("%PDF-1.7\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

// recordingClock advances instantly and remembers every sleep.
type recordingClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newRecordingClock() *recordingClock {
	return &recordingClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *recordingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *recordingClock) Sleep(ctx context.Context, d time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return ctx.Err()
}

func (c *recordingClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.sleeps...)
}

func newClient(t *testing.T, svc *pdfservicestest.Service, opts ...pdfservices.Option) *pdfservices.Client {
	t.Helper()
	creds, err := pdfservices.NewServicePrincipalCredentials(svc.ClientID, svc.ClientSecret)
	if err != nil {
		t.Fatalf("NewServicePrincipalCredentials: %v", err)
	}
	client, err := pdfservices.New(creds, pdfservices.ClientConfig{BaseURL: svc.URL, IMSURL: svc.URL}, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client
}

func upload(t *testing.T, client *pdfservices.Client, content []byte) pdfservices.Asset {
	t.Helper()
	asset, err := client.Upload(context.Background(), bytes.NewReader(content), pdfservices.MediaTypePDF)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	return asset
}

func readAll(t *testing.T, client *pdfservices.Client, asset pdfservices.Asset) []byte {
	t.Helper()
	stream, err := client.FetchContent(context.Background(), asset)
	if err != nil {
		t.Fatalf("FetchContent: %v", err)
	}
	defer stream.Body.Close()
	got, err := io.ReadAll(stream.Body)
	if err != nil {
		t.Fatalf("reading content: %v", err)
	}
	return got
}

func TestPollReportsInProgressBeforeDone(t *testing.T) {
	svc := pdfservicestest.NewService(t)
	client := newClient(t, svc)
	ctx := context.Background()

	asset := upload(t, client, samplePDF)
	handle, err := client.Submit(ctx, &pdfservices.CompressPDFJob{Input: asset})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	first, err := client.Poll(ctx, handle)
	if err != nil {
		t.Fatalf("first Poll: %v", err)
	}
	if first.State != pdfservices.JobInProgress {
		t.Fatalf("first poll state = %q, want %q", first.State, pdfservices.JobInProgress)
	}
	if first.RetryAfter != time.Second {
		t.Errorf("RetryAfter = %v, want 1s", first.RetryAfter)
	}
	if first.Result != nil {
		t.Errorf("in-progress status carries a result: %+v", first.Result)
	}

	second, err := client.Poll(ctx, handle)
	if err != nil {
		t.Fatalf("second Poll: %v", err)
	}
	if second.State != pdfservices.JobDone {
		t.Fatalf("second poll state = %q, want %q", second.State, pdfservices.JobDone)
	}
	if second.Result == nil || second.Result.Asset == nil {
		t.Fatalf("done status has no result asset: %+v", second)
	}
}

func TestAwaitSleepsRetryAfterBetweenPolls(t *testing.T) {
	svc := pdfservicestest.NewService(t, pdfservicestest.WithInProgressPolls(2))
	clock := newRecordingClock()
	client := newClient(t, svc, pdfservices.WithClock(clock))
	ctx := context.Background()

	handle, err := client.Submit(ctx, &pdfservices.LinearizePDFJob{Input: upload(t, client, samplePDF)})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	status, err := client.Await(ctx, handle)
	if err != nil {
		t.Fatalf("Await: %v", err)
	}

	if diff := cmp.Diff([]time.Duration{time.Second, time.Second}, clock.Sleeps()); diff != "" {
		t.Errorf("sleeps mismatch (-want +got):\n%s", diff)
	}
	if got := svc.Count("GET status"); got != 3 {
		t.Errorf("status requests = %d, want 3", got)
	}
	if status.State != pdfservices.JobDone {
		t.Fatalf("state = %q, want done", status.State)
	}
	if got := len(status.Result.All()); got != 1 {
		t.Errorf("result assets = %d, want 1", got)
	}
}

func TestAwaitEqualsPollLoop(t *testing.T) {
	ctx := context.Background()
	run := func(t *testing.T, await bool) (*pdfservices.JobStatus, []time.Duration) {
		svc := pdfservicestest.NewService(t, pdfservicestest.WithInProgressPolls(3), pdfservicestest.WithRetryAfter("2"))
		clock := newRecordingClock()
		client := newClient(t, svc, pdfservices.WithClock(clock))
		handle, err := client.Submit(ctx, &pdfservices.OCRJob{Input: upload(t, client, samplePDF)})
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
		if await {
			status, err := client.Await(ctx, handle)
			if err != nil {
				t.Fatalf("Await: %v", err)
			}
			return status, clock.Sleeps()
		}
		for {
			status, err := client.Poll(ctx, handle)
			if err != nil {
				t.Fatalf("Poll: %v", err)
			}
			if status.State.Terminal() {
				return status, clock.Sleeps()
			}
			if err := clock.Sleep(ctx, status.RetryAfter); err != nil {
				t.Fatalf("Sleep: %v", err)
			}
		}
	}

	awaited, awaitSleeps := run(t, true)
	polled, pollSleeps := run(t, false)
	if diff := cmp.Diff(pollSleeps, awaitSleeps); diff != "" {
		t.Errorf("sleep schedule differs (-poll +await):\n%s", diff)
	}
	if awaited.State != polled.State || awaited.RetryAfter != polled.RetryAfter {
		t.Errorf("Await = %+v, poll loop = %+v", awaited, polled)
	}
	if len(awaited.Result.All()) != len(polled.Result.All()) {
		t.Errorf("result sizes differ: %d vs %d", len(awaited.Result.All()), len(polled.Result.All()))
	}
}

func TestUploadIdenticalBytesYieldsDistinctAssets(t *testing.T) {
	svc := pdfservicestest.NewService(t)
	client := newClient(t, svc)

	a := upload(t, client, samplePDF)
	b := upload(t, client, samplePDF)
	if a.ID == b.ID {
		t.Fatalf("both uploads returned asset %q", a.ID)
	}
	for _, asset := range []pdfservices.Asset{a, b} {
		got, ok := svc.Content(asset.ID)
		if !ok || !bytes.Equal(got, samplePDF) {
			t.Errorf("asset %s content mismatch", asset.ID)
		}
	}
}

func TestSubmitValidatesBeforeAnyRequest(t *testing.T) {
	input := pdfservices.Asset{ID: "asset-1", Metadata: pdfservices.AssetMetadata{Type: string(pdfservices.MediaTypePDF)}}
	tests := []struct {
		name  string
		job   pdfservices.Job
		field string
	}{
		{"missing input", &pdfservices.CompressPDFJob{}, "input"},
		{"missing target format", &pdfservices.ExportPDFJob{Input: input}, "targetFormat"},
		{"unknown compression level", &pdfservices.CompressPDFJob{Input: input, Params: pdfservices.CompressPDFParams{CompressionLevel: "EXTREME"}}, "compressionLevel"},
		{"no password", &pdfservices.ProtectPDFJob{Input: input, Params: pdfservices.ProtectPDFParams{EncryptionAlgorithm: pdfservices.AES256}}, "userPassword"},
		{"permissions without owner password", &pdfservices.ProtectPDFJob{Input: input, Params: pdfservices.ProtectPDFParams{
			EncryptionAlgorithm: pdfservices.AES128,
			UserPassword:        "user",
			Permissions:         []pdfservices.Permission{pdfservices.PermissionCopyContent},
		}}, "ownerPassword"},
		{"remove protection without password", &pdfservices.RemoveProtectionJob{Input: input}, "password"},
		{"split without mode", &pdfservices.SplitPDFJob{Input: input}, "params"},
		{"split with two modes", &pdfservices.SplitPDFJob{Input: input, Params: pdfservices.SplitPDFParams{PageCount: 2, FileCount: 3}}, "params"},
		{"combine single input", &pdfservices.CombinePDFJob{Inputs: []pdfservices.CombineInput{{Input: input}}}, "inputs"},
		{"delete pages without ranges", &pdfservices.DeletePagesJob{Input: input}, "pageRanges"},
		{"bad rotation angle", &pdfservices.RotatePagesJob{Input: input, Params: pdfservices.RotatePagesParams{
			Rotations: []pdfservices.PageRotation{{Angle: 45, PageRanges: pdfservices.PageRanges{{Start: 1}}}},
		}}, "pageActions[0].angle"},
		{"watermark opacity", &pdfservices.WatermarkJob{Input: input, Watermark: input, Params: pdfservices.WatermarkParams{Opacity: intPtr(150)}}, "opacity"},
		{"extract nothing", &pdfservices.ExtractPDFJob{Input: input}, "elementsToExtract"},
		{"merge without data", &pdfservices.DocumentMergeJob{
			Input:  pdfservices.Asset{ID: "tpl"},
			Params: pdfservices.DocumentMergeParams{OutputFormat: pdfservices.DocumentMergeOutputPDF},
		}, "jsonDataForMerge"},
		{"html with both inputs", &pdfservices.HTMLToPDFJob{Input: input, InputURL: "https://example.com"}, "input"},
		{"accessibility inverted pages", &pdfservices.AccessibilityCheckerJob{Input: input, Params: pdfservices.AccessibilityCheckerParams{PageStart: 5, PageEnd: 2}}, "pageEnd"},
		{"seal without certificate", &pdfservices.ElectronicSealJob{Input: input, Params: pdfservices.ElectronicSealParams{
			Field: pdfservices.SealField{Name: "Signature1"},
		}}, "certificateCredentials.providerName"},
		{"create pdf from pdf", &pdfservices.CreatePDFJob{Input: input}, "input"},
		{"external input without storage", &pdfservices.CompressPDFJob{Input: pdfservices.ExternalAsset{URI: "https://bucket.example.com/in.pdf"}}, "input.storage"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := pdfservicestest.NewService(t)
			client := newClient(t, svc)

			_, err := client.Submit(context.Background(), tc.job)
			if !errors.Is(err, pdfservices.ErrValidation) {
				t.Fatalf("Submit error = %v, want a validation error", err)
			}
			var perr *pdfservices.Error
			if !errors.As(err, &perr) || perr.Field != tc.field {
				t.Errorf("field = %q, want %q (err: %v)", perr.Field, tc.field, err)
			}
			if got := svc.Requests(); got != 0 {
				t.Errorf("service saw %d requests, want none", got)
			}
		})
	}
}

func TestFetchExpiredAssetIsNotFound(t *testing.T) {
	svc := pdfservicestest.NewService(t, pdfservicestest.WithInProgressPolls(0))
	client := newClient(t, svc)
	ctx := context.Background()

	handle, err := client.Submit(ctx, &pdfservices.CompressPDFJob{Input: upload(t, client, samplePDF)})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	status, err := client.Await(ctx, handle)
	if err != nil {
		t.Fatalf("Await: %v", err)
	}
	svc.ExpireAll()

	_, err = client.FetchContent(ctx, *status.Result.Asset)
	if got := pdfservices.KindOf(err); got != pdfservices.KindNotFound {
		t.Fatalf("KindOf(%v) = %v, want %v", err, got, pdfservices.KindNotFound)
	}
	if errors.Is(err, pdfservices.ErrTransport) {
		t.Errorf("expired handle reported as transport error")
	}
}

func TestEchoRoundTripIsByteIdentical(t *testing.T) {
	svc := pdfservicestest.NewService(t)
	client := newClient(t, svc, pdfservices.WithClock(newRecordingClock()))
	ctx := context.Background()

	handle, err := client.Submit(ctx, &pdfservices.CompressPDFJob{Input: upload(t, client, samplePDF)})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	status, err := client.Await(ctx, handle)
	if err != nil {
		t.Fatalf("Await: %v", err)
	}
	got := readAll(t, client, *status.Result.Asset)
	if !bytes.Equal(got, samplePDF) {
		t.Errorf("round trip changed content:\n%s", cmp.Diff(string(samplePDF), string(got)))
	}
}

func TestFailedJobIsStatusNotError(t *testing.T) {
	svc := pdfservicestest.NewService(t, pdfservicestest.WithProcessor(func(pdfservicestest.Request) pdfservicestest.Result {
		return pdfservicestest.Result{Failure: &pdfservicestest.Failure{Code: "BAD_PDF", Message: "corrupt input", Status: 400}}
	}))
	client := newClient(t, svc, pdfservices.WithClock(newRecordingClock()))
	ctx := context.Background()

	handle, err := client.Submit(ctx, &pdfservices.CompressPDFJob{Input: upload(t, client, samplePDF)})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	status, err := client.Await(ctx, handle)
	if err != nil {
		t.Fatalf("Await: %v", err)
	}
	want := &pdfservices.JobError{Code: "BAD_PDF", Message: "corrupt input", Status: 400}
	if status.State != pdfservices.JobFailed {
		t.Fatalf("state = %q, want failed", status.State)
	}
	if diff := cmp.Diff(want, status.Error); diff != "" {
		t.Errorf("job error mismatch (-want +got):\n%s", diff)
	}
}

func TestSubmitErrorKinds(t *testing.T) {
	tests := []struct {
		status int
		code   string
		want   pdfservices.Kind
	}{
		{http.StatusTooManyRequests, "TOO_MANY", pdfservices.KindQuotaExceeded},
		{http.StatusForbidden, "QUOTA_EXCEEDED", pdfservices.KindQuotaExceeded},
		{http.StatusBadRequest, "BAD_INPUT", pdfservices.KindService},
		{http.StatusInternalServerError, "INTERNAL", pdfservices.KindService},
		{http.StatusForbidden, "FORBIDDEN", pdfservices.KindAuth},
	}
	for _, tc := range tests {
		t.Run(tc.code, func(t *testing.T) {
			svc := pdfservicestest.NewService(t, pdfservicestest.WithSubmitError(tc.status, tc.code))
			client := newClient(t, svc)

			_, err := client.Submit(context.Background(), &pdfservices.CompressPDFJob{Input: upload(t, client, samplePDF)})
			if got := pdfservices.KindOf(err); got != tc.want {
				t.Fatalf("KindOf(%v) = %v, want %v", err, got, tc.want)
			}
			var perr *pdfservices.Error
			if errors.As(err, &perr) && perr.StatusCode != tc.status {
				t.Errorf("StatusCode = %d, want %d", perr.StatusCode, tc.status)
			}
		})
	}
}

func TestBadCredentialsAreAuthErrors(t *testing.T) {
	svc := pdfservicestest.NewService(t)
	creds, err := pdfservices.NewServicePrincipalCredentials(svc.ClientID, "wrong-secret")
	if err != nil {
		t.Fatalf("NewServicePrincipalCredentials: %v", err)
	}
	client, err := pdfservices.New(creds, pdfservices.ClientConfig{BaseURL: svc.URL, IMSURL: svc.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = client.Upload(context.Background(), bytes.NewReader(samplePDF), pdfservices.MediaTypePDF)
	if !errors.Is(err, pdfservices.ErrAuth) {
		t.Fatalf("Upload error = %v, want an auth error", err)
	}
}

func TestUnreachableServiceIsTransportError(t *testing.T) {
	svc := pdfservicestest.NewService(t)
	client := newClient(t, svc)
	svc.Close()

	_, err := client.Upload(context.Background(), bytes.NewReader(samplePDF), pdfservices.MediaTypePDF)
	if got := pdfservices.KindOf(err); got != pdfservices.KindTransport {
		t.Fatalf("KindOf(%v) = %v, want %v", err, got, pdfservices.KindTransport)
	}
}

func TestAwaitMaxWaitIsTimeout(t *testing.T) {
	svc := pdfservicestest.NewService(t, pdfservicestest.WithInProgressPolls(100))
	clock := newRecordingClock()
	client := newClient(t, svc, pdfservices.WithClock(clock), pdfservices.WithMaxWait(3*time.Second))
	ctx := context.Background()

	handle, err := client.Submit(ctx, &pdfservices.CompressPDFJob{Input: upload(t, client, samplePDF)})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	_, err = client.Await(ctx, handle)
	if !errors.Is(err, pdfservices.ErrTimeout) {
		t.Fatalf("Await error = %v, want timeout", err)
	}
	var total time.Duration
	for _, d := range clock.Sleeps() {
		total += d
	}
	if total > 3*time.Second {
		t.Errorf("slept %v, beyond the 3s budget", total)
	}
}

func TestMultipleOutputsAndProperties(t *testing.T) {
	props := json.RawMessage(`{"document":{"pageCount":3,"isEncrypted":false}}`)
	svc := pdfservicestest.NewService(t, pdfservicestest.WithInProgressPolls(0),
		pdfservicestest.WithProcessor(func(req pdfservicestest.Request) pdfservicestest.Result {
			if req.Operation == string(pdfservices.OperationPDFProperties) {
				return pdfservicestest.Result{Properties: props}
			}
			in := req.Inputs[0].Content
			return pdfservicestest.Result{Outputs: []pdfservicestest.Output{
				{Content: in}, {Content: in}, {Content: in},
			}}
		}))
	client := newClient(t, svc)
	ctx := context.Background()
	asset := upload(t, client, samplePDF)

	handle, err := client.Submit(ctx, &pdfservices.SplitPDFJob{Input: asset, Params: pdfservices.SplitPDFParams{FileCount: 3}})
	if err != nil {
		t.Fatalf("Submit split: %v", err)
	}
	status, err := client.Await(ctx, handle)
	if err != nil {
		t.Fatalf("Await split: %v", err)
	}
	if got := len(status.Result.All()); got != 3 {
		t.Errorf("split produced %d assets, want 3", got)
	}

	handle, err = client.Submit(ctx, &pdfservices.PDFPropertiesJob{Input: asset})
	if err != nil {
		t.Fatalf("Submit properties: %v", err)
	}
	status, err = client.Await(ctx, handle)
	if err != nil {
		t.Fatalf("Await properties: %v", err)
	}
	var got, want map[string]any
	if err := json.Unmarshal(status.Result.Properties, &got); err != nil {
		t.Fatalf("properties: %v", err)
	}
	_ = json.Unmarshal(props, &want)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("properties mismatch (-want +got):\n%s", diff)
	}
}

func TestSubmitSendsDefaultsAndInputs(t *testing.T) {
	var captured []pdfservicestest.Request
	var mu sync.Mutex
	svc := pdfservicestest.NewService(t, pdfservicestest.WithProcessor(func(req pdfservicestest.Request) pdfservicestest.Result {
		mu.Lock()
		captured = append(captured, req)
		mu.Unlock()
		return pdfservicestest.Echo(req)
	}))
	client := newClient(t, svc)
	ctx := context.Background()
	a := upload(t, client, samplePDF)
	b := upload(t, client, []byte("%PDF-1.7 second"))

	_, err := client.Submit(ctx, &pdfservices.ProtectPDFJob{Input: a, Params: pdfservices.ProtectPDFParams{
		EncryptionAlgorithm: pdfservices.AES256,
		UserPassword:        "open-sesame",
	}})
	if err != nil {
		t.Fatalf("Submit protect: %v", err)
	}
	_, err = client.Submit(ctx, &pdfservices.CombinePDFJob{Inputs: []pdfservices.CombineInput{
		{Input: a, PageRanges: pdfservices.PageRanges{{Start: 1, End: 1}}},
		{Input: b},
	}})
	if err != nil {
		t.Fatalf("Submit combine: %v", err)
	}

	if len(captured) != 2 {
		t.Fatalf("captured %d requests, want 2", len(captured))
	}
	var params map[string]any
	if err := json.Unmarshal(captured[0].Params, &params); err != nil {
		t.Fatalf("protect params: %v", err)
	}
	want := map[string]any{
		"encryptionAlgorithm": "AES_256",
		"userPassword":        "open-sesame",
		"contentToEncrypt":    "ALL_CONTENT",
	}
	if diff := cmp.Diff(want, params); diff != "" {
		t.Errorf("protect params (-want +got):\n%s", diff)
	}
	combine := captured[1]
	if combine.Operation != string(pdfservices.OperationCombinePDF) || len(combine.Inputs) != 2 {
		t.Fatalf("combine request = %s with %d inputs", combine.Operation, len(combine.Inputs))
	}
	if string(combine.Inputs[1].Content) != "%PDF-1.7 second" {
		t.Errorf("second combine input = %q", combine.Inputs[1].Content)
	}
}

func TestExternalInputAndOutput(t *testing.T) {
	var mu sync.Mutex
	stored := map[string][]byte{"/in.pdf": samplePDF}
	storage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		switch r.Method {
		case http.MethodGet:
			content, ok := stored[r.URL.Path]
			if !ok {
				http.NotFound(w, r)
				return
			}
			w.Header().Set("Content-Type", "application/pdf")
			_, _ = w.Write(content)
		case http.MethodPut:
			content, _ := io.ReadAll(r.Body)
			stored[r.URL.Path] = content
		}
	}))
	defer storage.Close()

	svc := pdfservicestest.NewService(t)
	client := newClient(t, svc, pdfservices.WithClock(newRecordingClock()))
	ctx := context.Background()

	handle, err := client.Submit(ctx, &pdfservices.CompressPDFJob{
		Input:  pdfservices.ExternalAsset{URI: storage.URL + "/in.pdf", Storage: pdfservices.StorageS3},
		Output: &pdfservices.ExternalAsset{URI: storage.URL + "/out.pdf", Storage: pdfservices.StorageS3},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	status, err := client.Await(ctx, handle)
	if err != nil {
		t.Fatalf("Await: %v", err)
	}
	if status.State != pdfservices.JobDone {
		t.Fatalf("state = %q, want done (error %+v)", status.State, status.Error)
	}
	if n := len(status.Result.All()); n != 0 {
		t.Errorf("external output job returned %d internal assets", n)
	}
	mu.Lock()
	defer mu.Unlock()
	if !bytes.Equal(stored["/out.pdf"], samplePDF) {
		t.Errorf("external output = %q, want input bytes", stored["/out.pdf"])
	}
}

func TestDeleteAssetThenRefreshIsNotFound(t *testing.T) {
	svc := pdfservicestest.NewService(t)
	client := newClient(t, svc)
	ctx := context.Background()

	asset := upload(t, client, samplePDF)
	if err := client.DeleteAsset(ctx, asset); err != nil {
		t.Fatalf("DeleteAsset: %v", err)
	}
	_, err := client.RefreshAsset(ctx, asset)
	if !errors.Is(err, pdfservices.ErrNotFound) {
		t.Fatalf("RefreshAsset error = %v, want not found", err)
	}
}

func TestUploadRejectsUnsupportedMediaType(t *testing.T) {
	svc := pdfservicestest.NewService(t)
	client := newClient(t, svc)

	_, err := client.Upload(context.Background(), bytes.NewReader([]byte("x")), "application/x-unknown")
	if !errors.Is(err, pdfservices.ErrValidation) {
		t.Fatalf("Upload error = %v, want validation error", err)
	}
	if got := svc.Requests(); got != 0 {
		t.Errorf("service saw %d requests, want none", got)
	}
}

// putRecorder records the Content-Length of every PUT it forwards.
type putRecorder struct {
	mu      sync.Mutex
	lengths []int64
}

func (p *putRecorder) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method == http.MethodPut {
		p.mu.Lock()
		p.lengths = append(p.lengths, req.ContentLength)
		p.mu.Unlock()
	}
	return http.DefaultTransport.RoundTrip(req)
}

func TestUploadSendsContentLength(t *testing.T) {
	svc := pdfservicestest.NewService(t)
	rec := &putRecorder{}
	client := newClient(t, svc, pdfservices.WithHTTPClient(&http.Client{Transport: rec}))
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "in.pdf")
	if err := os.WriteFile(path, samplePDF, 0o600); err != nil {
		t.Fatal(err)
	}

	sized := upload(t, client, samplePDF)
	unsized, err := client.Upload(ctx, io.MultiReader(bytes.NewReader(samplePDF)), pdfservices.MediaTypePDF)
	if err != nil {
		t.Fatalf("Upload unsized: %v", err)
	}
	fromFile, err := client.UploadFile(ctx, path, "")
	if err != nil {
		t.Fatalf("UploadFile: %v", err)
	}

	n := int64(len(samplePDF))
	if diff := cmp.Diff([]int64{n, n, n}, rec.lengths); diff != "" {
		t.Errorf("PUT Content-Length mismatch (-want +got):\n%s", diff)
	}
	for _, a := range []pdfservices.Asset{sized, unsized, fromFile} {
		got, ok := svc.Content(a.ID)
		if !ok || !bytes.Equal(got, samplePDF) {
			t.Errorf("asset %s content = %q", a.ID, got)
		}
		if a.Metadata.Size != n {
			t.Errorf("asset %s size = %d, want %d", a.ID, a.Metadata.Size, n)
		}
	}
}

func TestWatermarkOpacityZeroIsSent(t *testing.T) {
	var mu sync.Mutex
	var params []json.RawMessage
	svc := pdfservicestest.NewService(t, pdfservicestest.WithProcessor(func(req pdfservicestest.Request) pdfservicestest.Result {
		mu.Lock()
		params = append(params, req.Params)
		mu.Unlock()
		return pdfservicestest.Echo(req)
	}))
	client := newClient(t, svc)
	ctx := context.Background()
	input := upload(t, client, samplePDF)
	zero := 0

	for _, p := range []pdfservices.WatermarkParams{{Opacity: &zero}, {}} {
		if _, err := client.Submit(ctx, &pdfservices.WatermarkJob{Input: input, Watermark: input, Params: p}); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	for i, want := range []float64{0, 100} {
		var got map[string]any
		if err := json.Unmarshal(params[i], &got); err != nil {
			t.Fatalf("params %d: %v", i, err)
		}
		if got["opacity"] != want {
			t.Errorf("params %d opacity = %v, want %v (%s)", i, got["opacity"], want, params[i])
		}
	}
}

func TestCreatePDFExternalInputAndOutput(t *testing.T) {
	docx := []byte("PK\x03\x04 word document")
	var mu sync.Mutex
	stored := map[string][]byte{}
	storage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		switch r.Method {
		case http.MethodGet:
			w.Header().Set("Content-Type", string(pdfservices.MediaTypeDOCX))
			_, _ = w.Write(docx)
		case http.MethodPut:
			stored[r.URL.Path], _ = io.ReadAll(r.Body)
		}
	}))
	defer storage.Close()

	svc := pdfservicestest.NewService(t)
	client := newClient(t, svc, pdfservices.WithClock(newRecordingClock()))
	ctx := context.Background()

	handle, err := client.Submit(ctx, &pdfservices.CreatePDFJob{
		Input:  pdfservices.ExternalAsset{URI: storage.URL + "/report.docx", Storage: pdfservices.StorageS3},
		Output: &pdfservices.ExternalAsset{URI: storage.URL + "/report.pdf", Storage: pdfservices.StorageS3},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	status, err := client.Await(ctx, handle)
	if err != nil {
		t.Fatalf("Await: %v", err)
	}
	if status.State != pdfservices.JobDone {
		t.Fatalf("state = %q, want done (error %+v)", status.State, status.Error)
	}
	if svc.Count("POST assets") != 0 {
		t.Errorf("external job uploaded %d assets", svc.Count("POST assets"))
	}
	mu.Lock()
	defer mu.Unlock()
	if !bytes.Equal(stored["/report.pdf"], docx) {
		t.Errorf("external output = %q, want the converted document", stored["/report.pdf"])
	}
}

func TestTokenFetchHonoursContext(t *testing.T) {
	release := make(chan struct{})
	ims := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
		http.Error(w, "gone", http.StatusServiceUnavailable)
	}))
	t.Cleanup(ims.Close)
	t.Cleanup(func() { close(release) })

	creds, err := pdfservices.NewServicePrincipalCredentials("id", "secret")
	if err != nil {
		t.Fatal(err)
	}
	client, err := pdfservices.New(creds, pdfservices.ClientConfig{BaseURL: ims.URL, IMSURL: ims.URL})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	started := time.Now()
	_, err = client.Submit(ctx, &pdfservices.LinearizePDFJob{Input: pdfservices.Asset{ID: "a",
		Metadata: pdfservices.AssetMetadata{Type: string(pdfservices.MediaTypePDF)}}})
	if kind := pdfservices.KindOf(err); kind != pdfservices.KindTimeout {
		t.Errorf("Submit error = %v (%s), want a timeout", err, kind)
	}
	if elapsed := time.Since(started); elapsed > 5*time.Second {
		t.Errorf("Submit returned after %s, want it to stop at the deadline", elapsed)
	}
}
