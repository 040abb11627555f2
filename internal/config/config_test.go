package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/Lllllllleong/pdfservicesflow/internal/pdfservices"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PDF_SERVICES_CLIENT_ID", "cid")
	t.Setenv("PDF_SERVICES_CLIENT_SECRET", "secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := &Config{
		ClientID:         "cid",
		ClientSecret:     "secret",
		Region:           "US",
		ConnectTimeout:   10 * time.Second,
		ReadWriteTimeout: 10 * time.Second,
		Proxy:            ProxyConfig{Scheme: "http"},
		OutputDir:        "output",
		LogLevel:         "info",
		LogFormat:        "text",
		GCP: GCPConfig{
			FirestoreCollection: "pdfJobs",
			WorkflowLocation:    "us-central1",
			Operation:           "compress-pdf",
			SignedURLTTL:        15 * time.Minute,
		},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PDF_SERVICES_REGION", "eu")
	t.Setenv("PDF_SERVICES_CONNECT_TIMEOUT", "4000")
	t.Setenv("PDF_SERVICES_MAX_WAIT", "2m")
	t.Setenv("PDF_SERVICES_PROXY_HOST", "proxy.internal")
	t.Setenv("PDF_SERVICES_PROXY_PORT", "3128")
	t.Setenv("COMPRESSION_LEVEL", "high")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ConnectTimeout != 4*time.Second || cfg.MaxWait != 2*time.Minute {
		t.Errorf("durations = %v, %v", cfg.ConnectTimeout, cfg.MaxWait)
	}
	if cfg.GCP.CompressionLevel != "HIGH" {
		t.Errorf("CompressionLevel = %q", cfg.GCP.CompressionLevel)
	}
	cc, err := cfg.ClientConfig()
	if err != nil {
		t.Fatalf("ClientConfig: %v", err)
	}
	if cc.Region != pdfservices.RegionEU {
		t.Errorf("Region = %q", cc.Region)
	}
	if cc.Proxy == nil || cc.Proxy.URL().String() != "http://proxy.internal:3128" {
		t.Errorf("Proxy = %+v", cc.Proxy)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("PDF_SERVICES_READ_WRITE_TIMEOUT", "soon")
	if _, err := Load(); err == nil {
		t.Fatal("Load accepted an invalid duration")
	}
}

func TestCredentialsRequireSecret(t *testing.T) {
	cfg := &Config{ClientID: "cid"}
	_, err := cfg.Credentials()
	if !errors.Is(err, pdfservices.ErrValidation) {
		t.Fatalf("Credentials() error = %v, want validation error", err)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("PDF_SERVICES_CLIENT_ID=from-dotenv\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	// Register the variable so t.Setenv restores the environment afterwards.
	t.Setenv("PDF_SERVICES_CLIENT_ID", "")
	os.Unsetenv("PDF_SERVICES_CLIENT_ID")

	got, ok := LoadDotEnv(filepath.Join(dir, "missing.env"), path)
	if !ok || got != path {
		t.Fatalf("LoadDotEnv = %q, %v", got, ok)
	}
	if id := os.Getenv("PDF_SERVICES_CLIENT_ID"); id != "from-dotenv" {
		t.Errorf("PDF_SERVICES_CLIENT_ID = %q", id)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := (&Config{LogLevel: "warn", LogFormat: "json"}).NewLogger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")
	if bytes.Contains(buf.Bytes(), []byte("hidden")) || !bytes.Contains(buf.Bytes(), []byte(`"msg":"shown"`)) {
		t.Errorf("log output = %s", buf.String())
	}
}
