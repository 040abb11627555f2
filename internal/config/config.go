// Package config loads settings from the environment (optionally seeded from
// a .env file) for the CLI and the cloud functions.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Lllllllleong/pdfservicesflow/internal/pdfservices"
)

type Config struct {
	ClientID        string
	ClientSecret    string
	CredentialsFile string

	Region           string
	BaseURL          string
	IMSURL           string
	ConnectTimeout   time.Duration
	ReadWriteTimeout time.Duration
	MaxWait          time.Duration

	Proxy ProxyConfig

	OutputDir string
	LogLevel  string
	LogFormat string

	GCP GCPConfig
}

type ProxyConfig struct {
	Host     string
	Scheme   string
	Port     int
	Username string
	Password string
}

// GCPConfig drives the cloud functions.
type GCPConfig struct {
	ProjectID           string
	OutputBucket        string
	FirestoreCollection string
	WorkflowID          string
	WorkflowLocation    string
	Operation           string
	CompressionLevel    string
	OCRLocale           string
	// UseSignedURLs hands the service signed GCS URLs instead of uploading
	// the source and downloading the result.
	UseSignedURLs bool
	SignedURLTTL  time.Duration
}

// LoadDotEnv loads the first readable .env file among paths and returns it.
// Variables already set in the environment win.
func LoadDotEnv(paths ...string) (string, bool) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err == nil {
			return path, true
		}
	}
	return "", false
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("PDF_SERVICES_REGION", "US")
	v.SetDefault("PDF_SERVICES_CONNECT_TIMEOUT", "10s")
	v.SetDefault("PDF_SERVICES_READ_WRITE_TIMEOUT", "10s")
	v.SetDefault("PDF_SERVICES_MAX_WAIT", "0")
	v.SetDefault("PDF_SERVICES_PROXY_SCHEME", "http")
	v.SetDefault("OUTPUT_DIR", "output")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("FIRESTORE_COLLECTION", "pdfJobs")
	v.SetDefault("WORKFLOW_LOCATION", "us-central1")
	v.SetDefault("PDF_OPERATION", "compress-pdf")
	v.SetDefault("SIGNED_URL_TTL", "15m")

	cfg := &Config{
		ClientID:        v.GetString("PDF_SERVICES_CLIENT_ID"),
		ClientSecret:    v.GetString("PDF_SERVICES_CLIENT_SECRET"),
		CredentialsFile: v.GetString("PDF_SERVICES_CREDENTIALS_FILE"),
		Region:          v.GetString("PDF_SERVICES_REGION"),
		BaseURL:         v.GetString("PDF_SERVICES_BASE_URL"),
		IMSURL:          v.GetString("PDF_SERVICES_IMS_URL"),
		Proxy: ProxyConfig{
			Host:     v.GetString("PDF_SERVICES_PROXY_HOST"),
			Scheme:   v.GetString("PDF_SERVICES_PROXY_SCHEME"),
			Port:     v.GetInt("PDF_SERVICES_PROXY_PORT"),
			Username: v.GetString("PDF_SERVICES_PROXY_USERNAME"),
			Password: v.GetString("PDF_SERVICES_PROXY_PASSWORD"),
		},
		OutputDir: v.GetString("OUTPUT_DIR"),
		LogLevel:  v.GetString("LOG_LEVEL"),
		LogFormat: v.GetString("LOG_FORMAT"),
		GCP: GCPConfig{
			ProjectID:           v.GetString("PROJECT_ID"),
			OutputBucket:        v.GetString("OUTPUT_BUCKET"),
			FirestoreCollection: v.GetString("FIRESTORE_COLLECTION"),
			WorkflowID:          v.GetString("WORKFLOW_ID"),
			WorkflowLocation:    v.GetString("WORKFLOW_LOCATION"),
			Operation:           v.GetString("PDF_OPERATION"),
			CompressionLevel:    strings.ToUpper(v.GetString("COMPRESSION_LEVEL")),
			OCRLocale:           v.GetString("OCR_LOCALE"),
			UseSignedURLs:       v.GetBool("PDF_SERVICES_USE_SIGNED_URLS"),
		},
	}

	var err error
	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"PDF_SERVICES_CONNECT_TIMEOUT", &cfg.ConnectTimeout},
		{"PDF_SERVICES_READ_WRITE_TIMEOUT", &cfg.ReadWriteTimeout},
		{"PDF_SERVICES_MAX_WAIT", &cfg.MaxWait},
		{"SIGNED_URL_TTL", &cfg.GCP.SignedURLTTL},
	}
	for _, d := range durations {
		if *d.dst, err = parseDuration(v.GetString(d.key)); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", d.key, err)
		}
	}
	return cfg, nil
}

// parseDuration accepts Go durations ("30s") or bare integers in milliseconds.
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	return time.ParseDuration(s)
}

// Credentials builds client credentials, preferring the credentials file
// when one is configured.
func (c *Config) Credentials() (pdfservices.Credentials, error) {
	if c.CredentialsFile != "" {
		return pdfservices.LoadCredentialsFile(c.CredentialsFile)
	}
	creds, err := pdfservices.NewServicePrincipalCredentials(c.ClientID, c.ClientSecret)
	if err != nil {
		return nil, err
	}
	return creds, nil
}

func (c *Config) ClientConfig() (pdfservices.ClientConfig, error) {
	region, err := pdfservices.ParseRegion(c.Region)
	if err != nil {
		return pdfservices.ClientConfig{}, err
	}
	cc := pdfservices.ClientConfig{
		Region:           region,
		BaseURL:          c.BaseURL,
		IMSURL:           c.IMSURL,
		ConnectTimeout:   c.ConnectTimeout,
		ReadWriteTimeout: c.ReadWriteTimeout,
	}
	if c.Proxy.Host != "" {
		cc.Proxy = &pdfservices.ProxyServerConfig{
			Host:     c.Proxy.Host,
			Scheme:   pdfservices.ProxyScheme(strings.ToLower(c.Proxy.Scheme)),
			Port:     c.Proxy.Port,
			Username: c.Proxy.Username,
			Password: c.Proxy.Password,
		}
	}
	return cc, cc.Validate()
}

// NewClient builds a PDF Services client from the configuration.
func (c *Config) NewClient(logger *slog.Logger, opts ...pdfservices.Option) (*pdfservices.Client, error) {
	creds, err := c.Credentials()
	if err != nil {
		return nil, fmt.Errorf("failed to build credentials: %w", err)
	}
	cc, err := c.ClientConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to build client config: %w", err)
	}
	opts = append([]pdfservices.Option{pdfservices.WithLogger(logger), pdfservices.WithMaxWait(c.MaxWait)}, opts...)
	return pdfservices.New(creds, cc, opts...)
}

// NewLogger builds the slog logger selected by LOG_LEVEL and LOG_FORMAT.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
