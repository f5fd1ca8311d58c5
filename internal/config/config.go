// Package config resolves the flat settings record for a session.
//
// Precedence, lowest to highest: built-in defaults, the optional YAML file
// named by AYYY_CONFIG_FILE, then AYYY_* environment variables. Resolution
// happens once at startup.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultBaseURL     = "http://localhost:1234/v1"
	DefaultAPIKey      = "lm-studio"
	DefaultModel       = "qwen2.5-vl-7b-instruct"
	DefaultHistoryFile = "chat_history.json"
	DefaultMemoryDB    = "memory_store/memories.db"
)

// Config is the resolved settings record.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	HistoryFile string
	MemoryDB    string

	CommandTimeout time.Duration
	FetchMaxBytes  int64
	LogLevel       string

	EnableShell  bool
	EnableWeb    bool
	EnableMemory bool
}

// Defaults returns the built-in settings, untouched by files or environment.
func Defaults() Config {
	return Config{
		BaseURL:        DefaultBaseURL,
		APIKey:         DefaultAPIKey,
		Model:          DefaultModel,
		HistoryFile:    DefaultHistoryFile,
		MemoryDB:       DefaultMemoryDB,
		CommandTimeout: 20 * time.Second,
		FetchMaxBytes:  262144,
		LogLevel:       "info",
		EnableShell:    true,
		EnableWeb:      true,
		EnableMemory:   true,
	}
}

// Load resolves configuration using the YAML file named by AYYY_CONFIG_FILE, if any.
func Load() (*Config, error) {
	return LoadFile(os.Getenv("AYYY_CONFIG_FILE"))
}

// LoadFile resolves configuration, overlaying the YAML file at path (when non-empty)
// over defaults and environment variables over both. A missing file is not an
// error; an unparseable one is.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("base_url", DefaultBaseURL)
	v.SetDefault("api_key", DefaultAPIKey)
	v.SetDefault("model", DefaultModel)
	v.SetDefault("history_file", DefaultHistoryFile)
	v.SetDefault("memory_db", DefaultMemoryDB)
	v.SetDefault("command_timeout", "20s")
	v.SetDefault("fetch_max_bytes", 262144)
	v.SetDefault("log_level", "info")
	v.SetDefault("enable_shell", true)
	v.SetDefault("enable_web", true)
	v.SetDefault("enable_memory", true)

	v.SetEnvPrefix("AYYY")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if os.IsNotExist(err) {
				// Pointing at a file that does not exist yet is fine; defaults apply.
			} else {
				return nil, fmt.Errorf("config file %s: %w", path, err)
			}
		}
	}

	cfg := &Config{
		BaseURL:        v.GetString("base_url"),
		APIKey:         v.GetString("api_key"),
		Model:          v.GetString("model"),
		HistoryFile:    v.GetString("history_file"),
		MemoryDB:       v.GetString("memory_db"),
		CommandTimeout: v.GetDuration("command_timeout"),
		FetchMaxBytes:  v.GetInt64("fetch_max_bytes"),
		LogLevel:       v.GetString("log_level"),
		EnableShell:    v.GetBool("enable_shell"),
		EnableWeb:      v.GetBool("enable_web"),
		EnableMemory:   v.GetBool("enable_memory"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url must not be empty")
	}
	if c.Model == "" {
		return fmt.Errorf("model must not be empty")
	}
	if c.HistoryFile == "" {
		return fmt.Errorf("history_file must not be empty")
	}
	if c.CommandTimeout <= 0 {
		return fmt.Errorf("command_timeout must be positive, got %s", c.CommandTimeout)
	}
	if c.FetchMaxBytes <= 0 {
		return fmt.Errorf("fetch_max_bytes must be positive, got %d", c.FetchMaxBytes)
	}
	return nil
}
