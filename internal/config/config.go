package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Document backends.
const (
	BackendGoogle = "google"
	BackendMemory = "memory"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Docs API
	DocsBackend           string
	GoogleCredentialsFile string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL time.Duration

	// Conversion
	GenerateAnchors     bool
	DefaultFontFamily   string
	MonospaceFontFamily string
	ImageBaseURL        string
	ValidateFonts       bool

	// PDF
	PDFFallbackPdftotext bool

	// Docs API latency window
	StatsWindow time.Duration
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("GDOCMARK_API_KEY"),

		DocsBackend:           strings.ToLower(envOr("DOCS_BACKEND", BackendGoogle)),
		GoogleCredentialsFile: os.Getenv("GOOGLE_CREDENTIALS_FILE"),

		WorkerCount:  envInt("WORKER_COUNT", 4),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 20971520), // 20MB

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		GenerateAnchors:     envBool("GENERATE_ANCHORS", true),
		DefaultFontFamily:   envOr("DEFAULT_FONT_FAMILY", "Arial"),
		MonospaceFontFamily: envOr("MONOSPACE_FONT_FAMILY", "Courier New"),
		ImageBaseURL:        os.Getenv("IMAGE_BASE_URL"),
		ValidateFonts:       envBool("VALIDATE_FONTS", false),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),

		StatsWindow: envDuration("STATS_WINDOW", 1*time.Hour),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 20971520
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.StatsWindow <= 0 {
		cfg.StatsWindow = 1 * time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("GDOCMARK_API_KEY is required")
	}
	if c.DocsBackend != BackendGoogle && c.DocsBackend != BackendMemory {
		return fmt.Errorf("DOCS_BACKEND must be %q or %q, got %q", BackendGoogle, BackendMemory, c.DocsBackend)
	}
	if c.ImageBaseURL != "" && !strings.HasPrefix(c.ImageBaseURL, "https://") && !strings.HasPrefix(c.ImageBaseURL, "http://") {
		return fmt.Errorf("IMAGE_BASE_URL must be an http(s) URL")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
