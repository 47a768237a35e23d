package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	APIBaseURL     string        `mapstructure:"API_BASE_URL"`
	Env            string        `mapstructure:"ENV"`
	LogLevel       string        `mapstructure:"LOG_LEVEL"`
	TenantSlug     string        `mapstructure:"TENANT_SLUG"`
	TenantPrefixes []string      `mapstructure:"TENANT_PREFIXES"`
	SessionFile    string        `mapstructure:"SESSION_FILE"`
	FeedbackDelay  time.Duration `mapstructure:"FEEDBACK_DELAY"`
	DebounceWindow time.Duration `mapstructure:"DEBOUNCE_WINDOW"`
	HTTPTimeout    time.Duration `mapstructure:"HTTP_TIMEOUT"`

	// Sandbox backend settings.
	Port          string   `mapstructure:"PORT"`
	SessionSecret string   `mapstructure:"SESSION_SECRET"`
	DefaultTenant string   `mapstructure:"DEFAULT_TENANT"`
	CORSOrigins   []string `mapstructure:"CORS_ORIGINS"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("API_BASE_URL", "http://localhost:8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("TENANT_PREFIXES", "")
	v.SetDefault("SESSION_FILE", ".storefront-session")
	v.SetDefault("FEEDBACK_DELAY", "3s")
	v.SetDefault("DEBOUNCE_WINDOW", "500ms")
	v.SetDefault("HTTP_TIMEOUT", "15s")
	v.SetDefault("PORT", "8000")
	v.SetDefault("DEFAULT_TENANT", "default")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("API_BASE_URL")
	v.BindEnv("ENV")
	v.BindEnv("LOG_LEVEL")
	v.BindEnv("TENANT_SLUG")
	v.BindEnv("TENANT_PREFIXES")
	v.BindEnv("SESSION_FILE")
	v.BindEnv("FEEDBACK_DELAY")
	v.BindEnv("DEBOUNCE_WINDOW")
	v.BindEnv("HTTP_TIMEOUT")
	v.BindEnv("PORT")
	v.BindEnv("SESSION_SECRET")
	v.BindEnv("DEFAULT_TENANT")
	v.BindEnv("CORS_ORIGINS")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Comma separated lists arrive as a single string from the environment.
	cfg.TenantPrefixes = splitList(v.GetString("TENANT_PREFIXES"))
	cfg.CORSOrigins = splitList(v.GetString("CORS_ORIGINS"))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when running against a production backend.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks the settings that would otherwise fail late, on the first
// request.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("API_BASE_URL must be an absolute URL, got %q", c.APIBaseURL)
	}
	if c.FeedbackDelay <= 0 {
		return fmt.Errorf("FEEDBACK_DELAY must be positive, got %s", c.FeedbackDelay)
	}
	if c.DebounceWindow <= 0 {
		return fmt.Errorf("DEBOUNCE_WINDOW must be positive, got %s", c.DebounceWindow)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got %s", c.HTTPTimeout)
	}
	if c.IsProduction() && c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET is required in production")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
