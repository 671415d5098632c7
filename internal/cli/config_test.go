package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("loadConfig error: %v", err)
	}
	if cfg.Provider != "gemini" || cfg.OutputDir != "output" {
		t.Errorf("defaults = %+v", cfg)
	}
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
provider = "openrouter"
model = "anthropic/claude-sonnet-4"
output_dir = "/tmp/tutorials"
redis_addr = "localhost:6379"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig error: %v", err)
	}
	if cfg.Provider != "openrouter" {
		t.Errorf("Provider = %q", cfg.Provider)
	}
	if cfg.Model != "anthropic/claude-sonnet-4" {
		t.Errorf("Model = %q", cfg.Model)
	}
	if cfg.OutputDir != "/tmp/tutorials" {
		t.Errorf("OutputDir = %q", cfg.OutputDir)
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Errorf("RedisAddr = %q", cfg.RedisAddr)
	}
	// Unset keys keep their defaults.
	if cfg.Language != "english" {
		t.Errorf("Language = %q, want default", cfg.Language)
	}
}

func TestLoadConfigInvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("provider = [broken"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadConfig(path); err == nil {
		t.Fatal("expected error for invalid TOML")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("CODEPRIMER_PROVIDER", "openai")
	t.Setenv("CODEPRIMER_MODEL", "gpt-4.1-mini")
	t.Setenv("CODEPRIMER_OUTPUT_DIR", "/custom")

	cfg := defaultConfig()
	cfg.applyEnv()
	if cfg.Provider != "openai" || cfg.Model != "gpt-4.1-mini" || cfg.OutputDir != "/custom" {
		t.Errorf("env overlay = %+v", cfg)
	}
	// Unset env keys do not clobber.
	if cfg.Language != "english" {
		t.Errorf("Language = %q", cfg.Language)
	}
}
