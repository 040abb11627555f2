package pdfservices

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// MediaType is a MIME type accepted by the upload endpoint.
type MediaType string

const (
	MediaTypePDF  MediaType = "application/pdf"
	MediaTypeDOC  MediaType = "application/msword"
	MediaTypeDOCX MediaType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MediaTypePPT  MediaType = "application/vnd.ms-powerpoint"
	MediaTypePPTX MediaType = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	MediaTypeXLS  MediaType = "application/vnd.ms-excel"
	MediaTypeXLSX MediaType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MediaTypeRTF  MediaType = "text/rtf"
	MediaTypeTXT  MediaType = "text/plain"
	MediaTypeHTML MediaType = "text/html"
	MediaTypeZIP  MediaType = "application/zip"
	MediaTypeJSON MediaType = "application/json"
	MediaTypeBMP  MediaType = "image/bmp"
	MediaTypeGIF  MediaType = "image/gif"
	MediaTypeJPEG MediaType = "image/jpeg"
	MediaTypePNG  MediaType = "image/png"
	MediaTypeTIFF MediaType = "image/tiff"
)

var extensions = map[MediaType]string{
	MediaTypePDF:  ".pdf",
	MediaTypeDOC:  ".doc",
	MediaTypeDOCX: ".docx",
	MediaTypePPT:  ".ppt",
	MediaTypePPTX: ".pptx",
	MediaTypeXLS:  ".xls",
	MediaTypeXLSX: ".xlsx",
	MediaTypeRTF:  ".rtf",
	MediaTypeTXT:  ".txt",
	MediaTypeHTML: ".html",
	MediaTypeZIP:  ".zip",
	MediaTypeJSON: ".json",
	MediaTypeBMP:  ".bmp",
	MediaTypeGIF:  ".gif",
	MediaTypeJPEG: ".jpeg",
	MediaTypePNG:  ".png",
	MediaTypeTIFF: ".tiff",
}

// Supported reports whether the service accepts uploads of this media type.
func (m MediaType) Supported() bool {
	_, ok := extensions[m]
	return ok
}

// Extension returns the file extension (with dot) for m, or "" if unknown.
func (m MediaType) Extension() string {
	return extensions[m]
}

// MediaTypeFromExtension maps a file name or extension to a supported media type.
func MediaTypeFromExtension(name string) (MediaType, bool) {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		ext = "." + strings.TrimPrefix(strings.ToLower(name), ".")
	}
	if ext == ".jpg" {
		return MediaTypeJPEG, true
	}
	if ext == ".tif" {
		return MediaTypeTIFF, true
	}
	if ext == ".htm" {
		return MediaTypeHTML, true
	}
	for m, e := range extensions {
		if e == ext {
			return m, true
		}
	}
	return "", false
}

// DetectMediaType sniffs content and falls back to the file name's extension
// when the sniffed type is generic (zip containers, plain text) or unsupported.
func DetectMediaType(name string, head []byte) (MediaType, bool) {
	byExt, extOK := MediaTypeFromExtension(name)
	mt := mimetype.Detect(head)
	for m := mt; m != nil; m = m.Parent() {
		candidate := MediaType(m.String())
		if i := strings.IndexByte(string(candidate), ';'); i >= 0 {
			candidate = candidate[:i]
		}
		if !candidate.Supported() {
			continue
		}
		// OOXML, zipped HTML and text-ish files all sniff as their container
		// type; the extension is more precise.
		if extOK && (candidate == MediaTypeZIP || candidate == MediaTypeTXT) {
			return byExt, true
		}
		return candidate, true
	}
	return byExt, extOK
}

// ExtensionFor returns an output file extension for a result's media type.
func ExtensionFor(mediaType, fallback string) string {
	if ext := MediaType(mediaType).Extension(); ext != "" {
		return ext
	}
	if m := mimetype.Lookup(mediaType); m != nil && m.Extension() != "" {
		return m.Extension()
	}
	return fallback
}
