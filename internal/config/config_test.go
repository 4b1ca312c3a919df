package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(EnvTargetEmail, "")
	os.Unsetenv(EnvTargetEmail)
	t.Setenv(EnvLabelName, "")
	os.Unsetenv(EnvLabelName)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Forward.Purpose != "" {
		t.Errorf("purpose should be left to the forwarder default, got %q", cfg.Forward.Purpose)
	}
	if cfg.Auth.TokenStore != "file" {
		t.Errorf("default token store = %q", cfg.Auth.TokenStore)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("default log level = %q", cfg.Log.Level)
	}
	if err := cfg.Forward.Validate(); !errors.Is(err, ErrMissing) {
		t.Errorf("expected ErrMissing for empty forward config, got %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.toml")
	content := `
[forward]
destination = "accounting@example.com"
label = "Invoices"

[schedule]
every = "30m"
metrics_addr = ":9310"

[auth]
token_store = "keyring"
`
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Forward.Destination != "accounting@example.com" || cfg.Forward.Label != "Invoices" {
		t.Errorf("forward = %+v", cfg.Forward)
	}
	if cfg.Schedule.Every.Duration != 30*time.Minute {
		t.Errorf("every = %v", cfg.Schedule.Every)
	}
	if cfg.Auth.TokenStore != "keyring" || cfg.Auth.KeyringAccount != "default" {
		t.Errorf("auth = %+v", cfg.Auth)
	}
	if err := cfg.Forward.Validate(); err != nil {
		t.Errorf("Validate() error: %v", err)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(cfgPath, []byte("[forward]\nlabel = \"Invoices\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvLabelName, " Receipts ")
	t.Setenv(EnvTargetEmail, "finance@example.com")

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Forward.Label != "Receipts" || cfg.Forward.Destination != "finance@example.com" {
		t.Errorf("forward = %+v", cfg.Forward)
	}
}

func TestLoadNonExistentFile(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.toml")
	if err != nil {
		t.Fatalf("Load() should return defaults for missing file, got error: %v", err)
	}
	if cfg.Log.Format != "text" {
		t.Errorf("format = %q, want default", cfg.Log.Format)
	}
}

func TestLoadInvalidFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(cfgPath, []byte("[schedule]\nevery = \"soon\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(cfgPath); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestForwardValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ForwardConfig
		wantErr bool
		missing bool
	}{
		{name: "ok", cfg: ForwardConfig{Destination: "a@example.com", Label: "Invoices"}},
		{name: "no-destination", cfg: ForwardConfig{Label: "Invoices"}, wantErr: true, missing: true},
		{name: "no-label", cfg: ForwardConfig{Destination: "a@example.com"}, wantErr: true, missing: true},
		{name: "bad-address", cfg: ForwardConfig{Destination: "not-an-address", Label: "x"}, wantErr: true},
		{name: "named-address", cfg: ForwardConfig{Destination: "Acct <a@example.com>", Label: "x"}, wantErr: true},
	}
	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr != (err != nil) {
				t.Fatalf("Validate() = %v, wantErr %v", err, tc.wantErr)
			}
			if tc.missing && !errors.Is(err, ErrMissing) {
				t.Fatalf("expected ErrMissing, got %v", err)
			}
		})
	}
}
