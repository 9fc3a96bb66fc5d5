package config

import (
	"os"
	"path/filepath"
	"strings"
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

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
backend_url: https://backend.example.com/api/v1/agent/
heartbeat_interval: 15
auth_token: secret
report_events: true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.BackendURL != "https://backend.example.com/api/v1/agent" {
		t.Errorf("BackendURL = %q, trailing slash should be trimmed", cfg.BackendURL)
	}
	if cfg.HeartbeatInterval != 15 {
		t.Errorf("HeartbeatInterval = %d, want 15", cfg.HeartbeatInterval)
	}
	if cfg.AuthToken != "secret" {
		t.Errorf("AuthToken = %q, want secret", cfg.AuthToken)
	}
	if !cfg.ReportEvents {
		t.Error("ReportEvents should be true")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, default should survive", cfg.LogLevel)
	}
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, `
backend_url: https://file.example.com
heartbeat_interval: 15
auth_token: from-file
`)
	t.Setenv("AGENT_AUTH_TOKEN", "from-env")
	t.Setenv("AGENT_HEARTBEAT_INTERVAL", "5")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.AuthToken != "from-env" {
		t.Errorf("AuthToken = %q, want from-env", cfg.AuthToken)
	}
	if cfg.HeartbeatInterval != 5 {
		t.Errorf("HeartbeatInterval = %d, want 5", cfg.HeartbeatInterval)
	}
	if cfg.BackendURL != "https://file.example.com" {
		t.Errorf("BackendURL = %q, want file value", cfg.BackendURL)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := DefaultConfig()
		cfg.AuthToken = "token"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults with token", mutate: func(*Config) {}},
		{name: "ftp scheme", mutate: func(c *Config) { c.BackendURL = "ftp://example.com" }, wantErr: "http or https"},
		{name: "no host", mutate: func(c *Config) { c.BackendURL = "https://" }, wantErr: "no host"},
		{name: "zero interval", mutate: func(c *Config) { c.HeartbeatInterval = 0 }, wantErr: "heartbeat_interval"},
		{name: "blank token", mutate: func(c *Config) { c.AuthToken = "  " }, wantErr: "auth_token"},
		{name: "bad level", mutate: func(c *Config) { c.LogLevel = "loud" }, wantErr: "log_level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestIntervalAndScratchRoot(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HeartbeatInterval = 30
	if got := cfg.Interval(); got != 30*time.Second {
		t.Errorf("Interval() = %v, want 30s", got)
	}

	if got := cfg.ScratchRoot(); got != os.TempDir() {
		t.Errorf("ScratchRoot() = %q, want OS temp dir", got)
	}
	cfg.WorkDir = "/var/lib/zldap-agent/work"
	if got := cfg.ScratchRoot(); got != cfg.WorkDir {
		t.Errorf("ScratchRoot() = %q, want %q", got, cfg.WorkDir)
	}
}
