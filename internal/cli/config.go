package cli

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds user-level settings read from the config file, overridable
// per-run by flags. Precedence: flags > environment > config file >
// built-in defaults.
type Config struct {
	// Provider and Model are the default gateway selection.
	Provider string `toml:"provider"`
	Model    string `toml:"model"`

	// Language is the default tutorial language.
	Language string `toml:"language"`

	// OutputDir is where generated tutorials land.
	OutputDir string `toml:"output_dir"`

	// OpenAIBaseURL points the openai client at a compatible service.
	OpenAIBaseURL string `toml:"openai_base_url"`

	// Redis, when set, replaces the file-based prompt cache.
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
}

// defaultConfig returns the built-in defaults.
func defaultConfig() *Config {
	return &Config{
		Provider:  "gemini",
		Model:     "gemini-2.5-flash",
		Language:  "english",
		OutputDir: "output",
	}
}

// configPath returns the config file location using XDG standard
// (~/.config/codeprimer/config.toml).
func configPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// loadConfig reads the config file at path over the defaults.
func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadConfigOrDefault loads the user config, falling back to defaults
// when the file is missing or the home directory is unavailable.
func loadConfigOrDefault() *Config {
	path, err := configPath()
	if err != nil {
		return defaultConfig()
	}
	cfg, err := loadConfig(path)
	if err != nil {
		return defaultConfig()
	}
	return cfg
}

// applyEnv overlays environment variables onto the config.
func (c *Config) applyEnv() {
	if v := os.Getenv("CODEPRIMER_PROVIDER"); v != "" {
		c.Provider = v
	}
	if v := os.Getenv("CODEPRIMER_MODEL"); v != "" {
		c.Model = v
	}
	if v := os.Getenv("CODEPRIMER_LANGUAGE"); v != "" {
		c.Language = v
	}
	if v := os.Getenv("CODEPRIMER_OUTPUT_DIR"); v != "" {
		c.OutputDir = v
	}
	if v := os.Getenv("CODEPRIMER_REDIS_ADDR"); v != "" {
		c.RedisAddr = v
	}
}
