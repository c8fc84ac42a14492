//go:build !integration

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
admin:
  api_key: test-key
`)
	cfg, err := LoadConfig(path, false)
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}

	if cfg.Server.Port != 3001 {
		t.Errorf("server.port default = %d, want 3001", cfg.Server.Port)
	}
	if cfg.Admin.Port != 9090 {
		t.Errorf("admin.port default = %d, want 9090", cfg.Admin.Port)
	}
	if cfg.Storage.Driver != "file" {
		t.Errorf("storage.driver default = %q, want file", cfg.Storage.Driver)
	}
	if cfg.Chat.MessageLimit != 10 || cfg.Chat.NotifyAfter != 5 || cfg.Chat.QualifyThreshold != 70 {
		t.Errorf("chat defaults = %+v", cfg.Chat)
	}
	if cfg.AI.Timeout != 15*time.Second {
		t.Errorf("ai.timeout default = %v, want 15s", cfg.AI.Timeout)
	}
	// jwt_secret falls back to the API key when unset
	if cfg.Admin.JWTSecret != "test-key" {
		t.Errorf("admin.jwt_secret = %q, want api key fallback", cfg.Admin.JWTSecret)
	}
}

func TestLoadConfig_ReadsValues(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8080
admin:
  api_key: test-key
  session_ttl: 1h
storage:
  driver: postgres
database:
  url: postgres://localhost/doppelganger
chat:
  message_limit: 3
  rate_limit: 5
  rate_window: 30s
`)
	cfg, err := LoadConfig(path, false)
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("server.port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Admin.SessionTTL != time.Hour {
		t.Errorf("admin.session_ttl = %v, want 1h", cfg.Admin.SessionTTL)
	}
	if cfg.Storage.Driver != "postgres" {
		t.Errorf("storage.driver = %q, want postgres", cfg.Storage.Driver)
	}
	if cfg.Chat.MessageLimit != 3 || cfg.Chat.RateLimit != 5 || cfg.Chat.RateWindow != 30*time.Second {
		t.Errorf("chat = %+v", cfg.Chat)
	}
}

func TestLoadConfig_Validation(t *testing.T) {
	cases := []struct {
		name string
		body string
		dev  bool
	}{
		{"unknown storage driver", "storage:\n  driver: sqlite\nadmin:\n  api_key: k\n", false},
		{"postgres without url", "storage:\n  driver: postgres\nadmin:\n  api_key: k\n", false},
		{"missing admin key outside dev", "server:\n  port: 8080\n", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.body)
			if _, err := LoadConfig(path, tc.dev); err == nil {
				t.Error("expected an error, got nil")
			}
		})
	}
}

func TestLoadConfig_DevModeAllowsMissingAdminKey(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 8080\n")
	cfg, err := LoadConfig(path, true)
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	if !cfg.Runtime.Dev {
		t.Error("expected dev runtime flag to be set")
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), true); err == nil {
		t.Error("expected an error for a missing file")
	}
}
