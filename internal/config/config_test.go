package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadReadsYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
server:
  port: "9090"
  session_idle_ttl: 5m
provider:
  api_key: from-file
  model: test-model
  timeout: 15s
sqlite:
  path: /tmp/results.db
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("GEMINI_API_KEY", "from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.Provider.Model != "test-model" || cfg.SQLite.Path != "/tmp/results.db" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Provider.APIKey != "from-file" {
		t.Fatalf("file key must win over env, got %q", cfg.Provider.APIKey)
	}
	if got := TTLDuration(cfg.Provider.Timeout, time.Minute); got != 15*time.Second {
		t.Fatalf("expected 15s timeout, got %s", got)
	}
}

func TestLoadMissingFileUsesEnv(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", "generic")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("missing file should not fail: %v", err)
	}
	if cfg.Provider.APIKey != "generic" {
		t.Fatalf("expected API_KEY fallback, got %q", cfg.Provider.APIKey)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [unclosed"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestTTLDuration(t *testing.T) {
	cases := []struct {
		raw  string
		want time.Duration
	}{
		{"", time.Minute},
		{"30m", 30 * time.Minute},
		{"soon", time.Minute},
	}
	for _, tc := range cases {
		if got := TTLDuration(tc.raw, time.Minute); got != tc.want {
			t.Fatalf("TTLDuration(%q) = %s, want %s", tc.raw, got, tc.want)
		}
	}
}
