package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "GDOCMARK_API_KEY", "DOCS_BACKEND", "GOOGLE_CREDENTIALS_FILE",
		"WORKER_COUNT", "MAX_QUEUE_SIZE", "MAX_UPLOAD_BYTES", "JOB_TTL",
		"GENERATE_ANCHORS", "DEFAULT_FONT_FAMILY", "MONOSPACE_FONT_FAMILY",
		"IMAGE_BASE_URL", "VALIDATE_FONTS", "STATS_WINDOW",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.Port != "8090" {
		t.Errorf("expected port 8090, got %q", cfg.Port)
	}
	if cfg.DocsBackend != BackendGoogle {
		t.Errorf("expected backend %q, got %q", BackendGoogle, cfg.DocsBackend)
	}
	if cfg.WorkerCount != 4 || cfg.MaxQueueSize != 100 {
		t.Errorf("unexpected pool defaults: workers=%d queue=%d", cfg.WorkerCount, cfg.MaxQueueSize)
	}
	if cfg.MaxUploadBytes != 20971520 {
		t.Errorf("expected 20MB upload limit, got %d", cfg.MaxUploadBytes)
	}
	if cfg.JobTTL != time.Hour || cfg.StatsWindow != time.Hour {
		t.Errorf("unexpected durations: ttl=%v window=%v", cfg.JobTTL, cfg.StatsWindow)
	}
	if !cfg.GenerateAnchors || cfg.ValidateFonts {
		t.Errorf("unexpected flags: anchors=%v fonts=%v", cfg.GenerateAnchors, cfg.ValidateFonts)
	}
	if cfg.DefaultFontFamily != "Arial" || cfg.MonospaceFontFamily != "Courier New" {
		t.Errorf("unexpected fonts %q %q", cfg.DefaultFontFamily, cfg.MonospaceFontFamily)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DOCS_BACKEND", "Memory")
	t.Setenv("WORKER_COUNT", "-2")
	t.Setenv("JOB_TTL", "15m")
	t.Setenv("GENERATE_ANCHORS", "false")
	t.Setenv("MAX_QUEUE_SIZE", "not-a-number")

	cfg := Load()
	if cfg.Port != "9000" {
		t.Errorf("expected port 9000, got %q", cfg.Port)
	}
	if cfg.DocsBackend != BackendMemory {
		t.Errorf("expected backend %q, got %q", BackendMemory, cfg.DocsBackend)
	}
	if cfg.WorkerCount != 4 {
		t.Errorf("expected non-positive worker count to fall back to 4, got %d", cfg.WorkerCount)
	}
	if cfg.MaxQueueSize != 100 {
		t.Errorf("expected unparsable queue size to fall back to 100, got %d", cfg.MaxQueueSize)
	}
	if cfg.JobTTL != 15*time.Minute {
		t.Errorf("expected ttl 15m, got %v", cfg.JobTTL)
	}
	if cfg.GenerateAnchors {
		t.Error("expected anchors disabled")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"ok", Config{APIKey: "k", DocsBackend: BackendGoogle}, false},
		{"memory", Config{APIKey: "k", DocsBackend: BackendMemory}, false},
		{"missing key", Config{DocsBackend: BackendGoogle}, true},
		{"bad backend", Config{APIKey: "k", DocsBackend: "s3"}, true},
		{"bad image url", Config{APIKey: "k", DocsBackend: BackendMemory, ImageBaseURL: "ftp://x"}, true},
		{"image url", Config{APIKey: "k", DocsBackend: BackendMemory, ImageBaseURL: "https://img.test/"}, false},
	}
	for _, tt := range tests {
		err := tt.cfg.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: Validate() error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}
