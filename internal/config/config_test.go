package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ayyy/internal/config"
)

// clearEnv unsets every AYYY_ variable a developer shell might carry so
// precedence assertions start from a clean slate.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, "AYYY_") {
			key := kv[:strings.Index(kv, "=")]
			t.Setenv(key, "")
			_ = os.Unsetenv(key)
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.LoadFile("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BaseURL != config.DefaultBaseURL {
		t.Errorf("base_url: got %q want %q", cfg.BaseURL, config.DefaultBaseURL)
	}
	if cfg.Model != config.DefaultModel {
		t.Errorf("model: got %q want %q", cfg.Model, config.DefaultModel)
	}
	if cfg.HistoryFile != config.DefaultHistoryFile {
		t.Errorf("history_file: got %q want %q", cfg.HistoryFile, config.DefaultHistoryFile)
	}
	if cfg.CommandTimeout != 20*time.Second {
		t.Errorf("command_timeout: got %s want 20s", cfg.CommandTimeout)
	}
	if !cfg.EnableShell || !cfg.EnableWeb || !cfg.EnableMemory {
		t.Errorf("expected all capabilities enabled by default, got %+v", cfg)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	clearEnv(t)

	dir := t.TempDir()
	p := filepath.Join(dir, "ayyy.yaml")
	yaml := "base_url: http://example.test/v1\nmodel: llama-3.1-8b\ncommand_timeout: 5s\nenable_shell: false\n"
	if err := os.WriteFile(p, []byte(yaml), 0o644); err != nil {
		t.Fatalf("prepare: %v", err)
	}

	cfg, err := config.LoadFile(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BaseURL != "http://example.test/v1" {
		t.Errorf("base_url not taken from file: %q", cfg.BaseURL)
	}
	if cfg.Model != "llama-3.1-8b" {
		t.Errorf("model not taken from file: %q", cfg.Model)
	}
	if cfg.CommandTimeout != 5*time.Second {
		t.Errorf("command_timeout not taken from file: %s", cfg.CommandTimeout)
	}
	if cfg.EnableShell {
		t.Error("enable_shell should be false from file")
	}
	// Untouched keys keep defaults
	if cfg.APIKey != config.DefaultAPIKey {
		t.Errorf("api_key should keep default, got %q", cfg.APIKey)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)

	dir := t.TempDir()
	p := filepath.Join(dir, "ayyy.yaml")
	if err := os.WriteFile(p, []byte("model: from-file\nbase_url: http://file.test/v1\n"), 0o644); err != nil {
		t.Fatalf("prepare: %v", err)
	}

	t.Setenv("AYYY_MODEL", "from-env")

	cfg, err := config.LoadFile(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Model != "from-env" {
		t.Errorf("env should win over file: got %q", cfg.Model)
	}
	// Keys set only in the file still come from the file
	if cfg.BaseURL != "http://file.test/v1" {
		t.Errorf("base_url should come from file: got %q", cfg.BaseURL)
	}
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	clearEnv(t)

	t.Setenv("AYYY_BASE_URL", "http://env.test/v1")
	t.Setenv("AYYY_HISTORY_FILE", "other_history.json")

	cfg, err := config.LoadFile("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BaseURL != "http://env.test/v1" {
		t.Errorf("base_url: got %q", cfg.BaseURL)
	}
	if cfg.HistoryFile != "other_history.json" {
		t.Errorf("history_file: got %q", cfg.HistoryFile)
	}
}

func TestLoad_MissingFileIsNotAnError(t *testing.T) {
	clearEnv(t)

	p := filepath.Join(t.TempDir(), "nope.yaml")
	cfg, err := config.LoadFile(p)
	if err != nil {
		t.Fatalf("missing config file should not fail startup: %v", err)
	}
	if cfg.BaseURL != config.DefaultBaseURL {
		t.Errorf("expected defaults, got %q", cfg.BaseURL)
	}
}

func TestLoad_MalformedFileFails(t *testing.T) {
	clearEnv(t)

	p := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(p, []byte(":\n\t- nope"), 0o644); err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if _, err := config.LoadFile(p); err == nil {
		t.Fatal("expected error for malformed YAML")
	}
}
