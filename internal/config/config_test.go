package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Unsetenv("API_BASE_URL")
	os.Unsetenv("TENANT_PREFIXES")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.APIBaseURL != "http://localhost:8000" {
		t.Errorf("expected default base url, got %s", cfg.APIBaseURL)
	}
	if cfg.FeedbackDelay != 3*time.Second {
		t.Errorf("expected default feedback delay 3s, got %s", cfg.FeedbackDelay)
	}
	if cfg.DebounceWindow != 500*time.Millisecond {
		t.Errorf("expected default debounce window 500ms, got %s", cfg.DebounceWindow)
	}
	if cfg.DefaultTenant != "default" {
		t.Errorf("expected default tenant 'default', got %s", cfg.DefaultTenant)
	}
	if len(cfg.TenantPrefixes) != 0 {
		t.Errorf("expected no tenant prefixes, got %v", cfg.TenantPrefixes)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	os.Setenv("API_BASE_URL", "https://shop.example.com")
	os.Setenv("TENANT_PREFIXES", "panaderia, vet ,")
	os.Setenv("FEEDBACK_DELAY", "1500ms")
	defer os.Unsetenv("API_BASE_URL")
	defer os.Unsetenv("TENANT_PREFIXES")
	defer os.Unsetenv("FEEDBACK_DELAY")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.APIBaseURL != "https://shop.example.com" {
		t.Errorf("expected base url from env, got %s", cfg.APIBaseURL)
	}
	if len(cfg.TenantPrefixes) != 2 || cfg.TenantPrefixes[0] != "panaderia" || cfg.TenantPrefixes[1] != "vet" {
		t.Errorf("unexpected tenant prefixes: %v", cfg.TenantPrefixes)
	}
	if cfg.FeedbackDelay != 1500*time.Millisecond {
		t.Errorf("expected 1.5s feedback delay, got %s", cfg.FeedbackDelay)
	}
}

func TestLoad_RejectsRelativeBaseURL(t *testing.T) {
	os.Setenv("API_BASE_URL", "/api")
	defer os.Unsetenv("API_BASE_URL")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for relative API_BASE_URL")
	}
}

func TestConfig_Validate(t *testing.T) {
	base := Config{
		APIBaseURL:     "http://localhost:8000",
		Env:            "production",
		FeedbackDelay:  time.Second,
		DebounceWindow: time.Second,
		HTTPTimeout:    time.Second,
	}

	if err := base.Validate(); err == nil {
		t.Error("expected production config without SESSION_SECRET to fail")
	}

	base.SessionSecret = "s3cret"
	if err := base.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	base.DebounceWindow = 0
	if err := base.Validate(); err == nil {
		t.Error("expected zero debounce window to fail")
	}
}

func TestConfig_IsDev(t *testing.T) {
	c := &Config{Env: "development"}
	if !c.IsDev() {
		t.Error("expected IsDev() to return true for development")
	}

	c.Env = "production"
	if c.IsDev() {
		t.Error("expected IsDev() to return false for production")
	}
}
