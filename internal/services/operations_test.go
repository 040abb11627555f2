package services

import (
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Lllllllleong/pdfservicesflow/internal/pdfservices"
)

var uploadedPDF = pdfservices.Asset{ID: "asset-1", Metadata: pdfservices.AssetMetadata{Type: string(pdfservices.MediaTypePDF)}}

func TestBuildJob(t *testing.T) {
	out := &pdfservices.ExternalAsset{URI: "https://storage.example.com/out.pdf?sig=1", Storage: pdfservices.StorageGCS}

	job, err := BuildJob("compress-pdf", uploadedPDF, out, JobOptions{CompressionLevel: "high"})
	if err != nil {
		t.Fatalf("BuildJob: %v", err)
	}
	compress, ok := job.(*pdfservices.CompressPDFJob)
	if !ok {
		t.Fatalf("BuildJob returned %T", job)
	}
	if compress.Params.CompressionLevel != pdfservices.CompressionHigh || compress.Output != out {
		t.Errorf("compress job = %+v", compress)
	}

	job, err = BuildJob("autotag", uploadedPDF, out, JobOptions{})
	if err != nil {
		t.Fatalf("BuildJob: %v", err)
	}
	autotag := job.(*pdfservices.AutotagJob)
	if autotag.Output != nil || !autotag.Params.GenerateReport {
		t.Errorf("autotag job = %+v", autotag)
	}

	docx := pdfservices.ExternalAsset{URI: "https://storage.example.com/in.docx?sig=1", Storage: pdfservices.StorageGCS}
	job, err = BuildJob("create-pdf", docx, out, JobOptions{})
	if err != nil {
		t.Fatalf("BuildJob: %v", err)
	}
	create := job.(*pdfservices.CreatePDFJob)
	if create.Input != docx || create.Output != out {
		t.Errorf("create-pdf job = %+v", create)
	}
}

func TestBuildJobRejects(t *testing.T) {
	if _, err := BuildJob("make-coffee", uploadedPDF, nil, JobOptions{}); err == nil {
		t.Error("BuildJob accepted an unknown operation")
	}
	_, err := BuildJob("compress-pdf", uploadedPDF, nil, JobOptions{CompressionLevel: "extreme"})
	if pdfservices.KindOf(err) != pdfservices.KindValidation {
		t.Errorf("bad compression level error = %v, want validation error", err)
	}
	docx := pdfservices.Asset{ID: "asset-2", Metadata: pdfservices.AssetMetadata{Type: string(pdfservices.MediaTypeDOCX)}}
	_, err = BuildJob("ocr", docx, nil, JobOptions{})
	if pdfservices.KindOf(err) != pdfservices.KindValidation {
		t.Errorf("DOCX input error = %v, want validation error", err)
	}
}

func TestProcessorOperations(t *testing.T) {
	want := []string{
		"accessibility-checker", "autotag", "compress-pdf", "export-pdf-form-data",
		"extract-pdf", "linearize-pdf", "ocr", "pdf-properties",
	}
	if diff := cmp.Diff(want, ProcessorOperations()); diff != "" {
		t.Errorf("ProcessorOperations mismatch (-want +got):\n%s", diff)
	}
	wantExternal := append([]string{"create-pdf"}, want...)
	slices.Sort(wantExternal)
	if diff := cmp.Diff(wantExternal, ExternalOperations()); diff != "" {
		t.Errorf("ExternalOperations mismatch (-want +got):\n%s", diff)
	}
	for op, external := range map[string]bool{"compress-pdf": true, "create-pdf": true, "ocr": true, "pdf-properties": false, "unknown": false} {
		if got := WritesExternalOutput(op); got != external {
			t.Errorf("WritesExternalOutput(%q) = %v", op, got)
		}
	}
	if processorSupports("create-pdf") || !processorSupports("ocr") {
		t.Error("the processor must run PDF operations only")
	}
}
