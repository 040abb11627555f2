package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"

	"github.com/Lllllllleong/pdfservicesflow/internal/gcp"
	"github.com/Lllllllleong/pdfservicesflow/internal/models"
	"github.com/Lllllllleong/pdfservicesflow/internal/services"
)

var (
	statusInstance *services.StatusFunction
	once           sync.Once
	initErr        error
)

func init() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	functions.HTTP("HandleJobStatus", handleJobStatus)
}

// main is required by the Go Functions Framework.
func main() {}

// handleJobStatus accepts GET ?documentId=... or a POSTed JobStatusRequest.
func handleJobStatus(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		statusInstance, initErr = services.NewStatusFunction(context.Background())
	})
	if initErr != nil {
		slog.Error("Job status initialization failed", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}

	var req models.JobStatusRequest
	switch r.Method {
	case http.MethodGet:
		req.DocumentID = r.URL.Query().Get("documentId")
	case http.MethodPost:
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			slog.Warn("Could not decode request body", "error", err)
			http.Error(w, "Bad Request: could not parse JSON", http.StatusBadRequest)
			return
		}
	default:
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	if req.DocumentID == "" {
		http.Error(w, "Bad Request: documentId is required", http.StatusBadRequest)
		return
	}

	res, err := statusInstance.Process(r.Context(), &req)
	if errors.Is(err, gcp.ErrRecordNotFound) {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Internal Server Error: lookup failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(res); err != nil {
		slog.Error("Failed to write response", "error", err)
	}
}
