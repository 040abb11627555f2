// Command pdf-processor is the Cloud Function that runs one PDF Services
// operation (PDF_OPERATION) on every PDF finalized in the input bucket. It
// records progress in the Firestore job ledger, stores results in the output
// bucket and starts the follow-up workflow when one is configured.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/Lllllllleong/pdfservicesflow/internal/models"
	"github.com/Lllllllleong/pdfservicesflow/internal/services"
)

var (
	processor     *services.ProcessorFunction
	processorOnce sync.Once
	processorErr  error
)

func init() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	functions.CloudEvent("ProcessPDF", processPDF)
}

// main is required by the Go Functions Framework.
func main() {}

// decodeObjectEvent extracts the finalized object from a storage CloudEvent.
func decodeObjectEvent(e cloudevents.Event) (models.GCSEvent, error) {
	var obj models.GCSEvent
	if err := json.Unmarshal(e.Data(), &obj); err != nil {
		return obj, fmt.Errorf("failed to decode storage event: %w", err)
	}
	if obj.Bucket == "" || obj.Name == "" {
		return obj, errors.New("storage event names no bucket or object")
	}
	return obj, nil
}

func processPDF(ctx context.Context, e cloudevents.Event) error {
	processorOnce.Do(func() {
		processor, processorErr = services.NewProcessor(context.Background())
	})
	if processorErr != nil {
		slog.Error("Critical error during function initialization", "error", processorErr)
		return processorErr
	}

	obj, err := decodeObjectEvent(e)
	if err != nil {
		// A malformed event will never succeed; acknowledge it instead of retrying.
		slog.Error("Dropping storage event", "error", err, "eventId", e.ID(), "data", string(e.Data()))
		return nil
	}
	return processor.Process(ctx, obj)
}
