package config

import (
	"testing"
	"time"

	"github.com/akhmedovh4mid/GoogleAdsParser/internal/errors"
)

func validConfig() *Config {
	return &Config{
		GeminiAPIKey:    "test-key",
		MinConfidence:   0.6,
		MaxIterations:   15,
		BackRetries:     3,
		DeviceAgentPort: 7912,
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"missing api key", func(c *Config) { c.GeminiAPIKey = "" }},
		{"confidence above one", func(c *Config) { c.MinConfidence = 1.5 }},
		{"negative confidence", func(c *Config) { c.MinConfidence = -0.1 }},
		{"zero iterations", func(c *Config) { c.MaxIterations = 0 }},
		{"zero back retries", func(c *Config) { c.BackRetries = 0 }},
		{"port out of range", func(c *Config) { c.DeviceAgentPort = 70000 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			scanErr, ok := err.(*errors.ScanError)
			if !ok {
				t.Fatalf("error type = %T, want *errors.ScanError", err)
			}
			if scanErr.Code != errors.ErrorConfigInvalid {
				t.Errorf("error code = %s, want %s", scanErr.Code, errors.ErrorConfigInvalid)
			}
		})
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("valid configuration rejected: %v", err)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.GeminiModel != "gemini-2.5-flash" {
		t.Errorf("model = %q, want default gemini-2.5-flash", cfg.GeminiModel)
	}
	if cfg.MinConfidence != 0.6 {
		t.Errorf("min confidence = %g, want 0.6", cfg.MinConfidence)
	}
	if cfg.MaxIterations != 15 {
		t.Errorf("max iterations = %d, want 15", cfg.MaxIterations)
	}
	if cfg.WaitInterval != 60*time.Second {
		t.Errorf("wait interval = %v, want 60s", cfg.WaitInterval)
	}
	if cfg.ResultDir != "downloads" {
		t.Errorf("result dir = %q, want downloads", cfg.ResultDir)
	}
}
