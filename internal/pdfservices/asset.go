package pdfservices

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// AssetMetadata describes an asset's content as reported by the service.
type AssetMetadata struct {
	Type string `json:"type"`
	Size int64  `json:"size"`
}

// Asset is the service's handle to a document it holds. It is created by
// Upload or returned inside a job result.
type Asset struct {
	ID          string        `json:"assetID"`
	DownloadURI string        `json:"downloadUri,omitempty"`
	Metadata    AssetMetadata `json:"metadata"`
}

// StorageType names the third-party store behind an ExternalAsset URL.
type StorageType string

const (
	StorageS3         StorageType = "S3"
	StorageBlob       StorageType = "BLOB"
	StorageDropbox    StorageType = "DROPBOX"
	StorageSharePoint StorageType = "SHAREPOINT"
	StorageGCS        StorageType = "GCS"
)

// ExternalAsset is a caller-supplied pre-signed URL used instead of an
// upload (as input) or a download (as output).
type ExternalAsset struct {
	URI     string      `json:"uri" validate:"required,url"`
	Storage StorageType `json:"storage" validate:"required,oneof=S3 BLOB DROPBOX SHAREPOINT GCS"`
}

// Input is anything a job can read from: an uploaded Asset or an ExternalAsset.
type Input interface {
	ref(field string) (assetRef, error)
}

func (a Asset) ref(field string) (assetRef, error) {
	if a.ID == "" {
		return assetRef{}, validationError(field, "asset has no id")
	}
	return assetRef{AssetID: a.ID, mediaType: MediaType(a.Metadata.Type)}, nil
}

func (e ExternalAsset) ref(field string) (assetRef, error) {
	if err := validateStruct(e); err != nil {
		return assetRef{}, prefixField(field, err)
	}
	ext := e
	return assetRef{Input: &ext}, nil
}

type uploadURIRequest struct {
	MediaType MediaType `json:"mediaType"`
}

type uploadURIResponse struct {
	UploadURI string `json:"uploadUri"`
	AssetID   string `json:"assetID"`
}

// Upload sends r's bytes as a new asset. Every call creates a distinct asset,
// even for identical content. Readers that report their length (such as
// *bytes.Reader) are streamed; anything else is buffered so the upload always
// carries a Content-Length.
func (c *Client) Upload(ctx context.Context, r io.Reader, mediaType MediaType) (Asset, error) {
	size := int64(-1)
	if l, ok := r.(interface{ Len() int }); ok {
		size = int64(l.Len())
	}
	return c.upload(ctx, r, size, mediaType)
}

// UploadFile uploads a local file. An empty mediaType is detected from the
// file's content and extension.
func (c *Client) UploadFile(ctx context.Context, path string, mediaType MediaType) (Asset, error) {
	f, err := os.Open(path)
	if err != nil {
		return Asset{}, &Error{Kind: KindTransport, Op: "upload", Message: "failed to open input file", Err: err}
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return Asset{}, &Error{Kind: KindTransport, Op: "upload", Message: "failed to stat input file", Err: err}
	}
	br := bufio.NewReaderSize(f, 4096)
	if mediaType == "" {
		head, _ := br.Peek(3072)
		detected, ok := DetectMediaType(filepath.Base(path), head)
		if !ok {
			return Asset{}, validationError("mediaType", "cannot determine media type of %s", filepath.Base(path))
		}
		mediaType = detected
	}
	return c.upload(ctx, br, info.Size(), mediaType)
}

// upload PUTs size bytes of r to a fresh upload location. A negative size
// means unknown.
func (c *Client) upload(ctx context.Context, r io.Reader, size int64, mediaType MediaType) (Asset, error) {
	if !mediaType.Supported() {
		return Asset{}, validationError("mediaType", "unsupported media type %q", mediaType)
	}
	if size < 0 {
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(r); err != nil {
			return Asset{}, &Error{Kind: KindTransport, Op: "upload", Message: "failed to read upload content", Err: err}
		}
		r, size = &buf, int64(buf.Len())
	}
	var target uploadURIResponse
	if _, err := c.doJSON(ctx, "upload", http.MethodPost, c.endpoint("/assets"), uploadURIRequest{MediaType: mediaType}, &target); err != nil {
		return Asset{}, err
	}
	if target.UploadURI == "" || target.AssetID == "" {
		return Asset{}, &Error{Kind: KindService, Op: "upload", Message: "service returned no upload location"}
	}

	counter := &countingReader{r: io.LimitReader(r, size)}
	var body io.Reader = counter
	if size == 0 {
		body = http.NoBody
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target.UploadURI, body)
	if err != nil {
		return Asset{}, &Error{Kind: KindSDK, Op: "upload", Message: "failed to build upload request", Err: err}
	}
	req.ContentLength = size
	req.Header.Set("Content-Type", string(mediaType))
	resp, err := c.content.Do(req)
	if err != nil {
		return Asset{}, transportError("upload", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Asset{}, classifyStatus("upload", resp.StatusCode, serviceErrorBody{}, "")
	}
	c.logger.Debug("pdfservices asset uploaded", "assetId", target.AssetID, "mediaType", mediaType, "bytes", counter.n)
	return Asset{ID: target.AssetID, Metadata: AssetMetadata{Type: string(mediaType), Size: counter.n}}, nil
}

// RefreshAsset fetches a fresh download URI and metadata for a.
func (c *Client) RefreshAsset(ctx context.Context, a Asset) (Asset, error) {
	if a.ID == "" {
		return Asset{}, validationError("assetID", "asset has no id")
	}
	var out Asset
	if _, err := c.doJSON(ctx, "refresh", http.MethodGet, c.endpoint("/assets/"+url.PathEscape(a.ID)), nil, &out); err != nil {
		return Asset{}, err
	}
	if out.ID == "" {
		out.ID = a.ID
	}
	return out, nil
}

// StreamAsset is downloaded asset content. The caller must close Body.
type StreamAsset struct {
	Body      io.ReadCloser
	MediaType string
	Size      int64
}

// FetchContent streams one asset's bytes. A stale or expired handle yields a
// NotFound error.
func (c *Client) FetchContent(ctx context.Context, a Asset) (*StreamAsset, error) {
	if a.DownloadURI == "" {
		refreshed, err := c.RefreshAsset(ctx, a)
		if err != nil {
			return nil, err
		}
		a = refreshed
	}
	if a.DownloadURI == "" {
		return nil, &Error{Kind: KindNotFound, Op: "fetch", Message: "asset has no download location"}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.DownloadURI, nil)
	if err != nil {
		return nil, &Error{Kind: KindSDK, Op: "fetch", Message: "failed to build download request", Err: err}
	}
	requestID := uuid.NewString()
	req.Header.Set("x-request-id", requestID)
	resp, err := c.content.Do(req)
	if err != nil {
		return nil, transportError("fetch", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		resp.Body.Close()
		return nil, classifyContentStatus(resp.StatusCode, requestID)
	}
	mediaType := a.Metadata.Type
	if ct := resp.Header.Get("Content-Type"); mediaType == "" && ct != "" {
		mediaType, _, _ = strings.Cut(ct, ";")
	}
	size := a.Metadata.Size
	if n, err := strconv.ParseInt(resp.Header.Get("Content-Length"), 10, 64); err == nil {
		size = n
	}
	return &StreamAsset{Body: resp.Body, MediaType: mediaType, Size: size}, nil
}

// DeleteAsset removes an uploaded or result asset from the service.
func (c *Client) DeleteAsset(ctx context.Context, a Asset) error {
	if a.ID == "" {
		return validationError("assetID", "asset has no id")
	}
	_, err := c.doJSON(ctx, "delete", http.MethodDelete, c.endpoint("/assets/"+url.PathEscape(a.ID)), nil, nil)
	return err
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
