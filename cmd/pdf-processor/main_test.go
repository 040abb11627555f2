package main

import (
	"testing"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/go-cmp/cmp"

	"github.com/Lllllllleong/pdfservicesflow/internal/models"
)

func storageEvent(t *testing.T, data any) cloudevents.Event {
	t.Helper()
	e := cloudevents.NewEvent()
	e.SetID("evt-1")
	e.SetSource("//storage.googleapis.com/projects/_/buckets/inputs")
	e.SetType("google.cloud.storage.object.v1.finalized")
	if err := e.SetData(cloudevents.ApplicationJSON, data); err != nil {
		t.Fatalf("SetData: %v", err)
	}
	return e
}

func TestDecodeObjectEvent(t *testing.T) {
	want := models.GCSEvent{Bucket: "inputs", Name: "scans/a.pdf", ContentType: "application/pdf"}
	got, err := decodeObjectEvent(storageEvent(t, want))
	if err != nil {
		t.Fatalf("decodeObjectEvent: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("decoded event mismatch (-want +got):\n%s", diff)
	}

	for _, bad := range []any{
		map[string]string{"bucket": "inputs"},
		map[string]string{"name": "a.pdf"},
		[]string{"not", "an", "object"},
	} {
		if _, err := decodeObjectEvent(storageEvent(t, bad)); err == nil {
			t.Errorf("decodeObjectEvent(%v) succeeded, want an error", bad)
		}
	}
}
