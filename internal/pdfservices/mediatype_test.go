package pdfservices

import "testing"

func TestDetectMediaType(t *testing.T) {
	pdf := []byte("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	zip := []byte("PK\x03\x04\x14\x00\x00\x00\x08\x00")
	tests := []struct {
		name string
		head []byte
		want MediaType
	}{
		{"report.pdf", pdf, MediaTypePDF},
		{"renamed.bin", pdf, MediaTypePDF},
		{"scan.png", png, MediaTypePNG},
		{"letter.docx", zip, MediaTypeDOCX},
		{"site.zip", zip, MediaTypeZIP},
		{"notes.txt", []byte("hello world\n"), MediaTypeTXT},
		{"photo.JPG", nil, MediaTypeJPEG},
	}
	for _, tc := range tests {
		got, ok := DetectMediaType(tc.name, tc.head)
		if !ok || got != tc.want {
			t.Errorf("DetectMediaType(%q) = %q, %v; want %q", tc.name, got, ok, tc.want)
		}
	}
	if _, ok := DetectMediaType("archive.7z", []byte{0x00, 0x01}); ok {
		t.Errorf("DetectMediaType accepted an unsupported file")
	}
}

func TestExtensionFor(t *testing.T) {
	if got := ExtensionFor("application/pdf", ".bin"); got != ".pdf" {
		t.Errorf("ExtensionFor(pdf) = %q", got)
	}
	if got := ExtensionFor("application/x-nothing-known", ".bin"); got != ".bin" {
		t.Errorf("ExtensionFor(unknown) = %q", got)
	}
}
