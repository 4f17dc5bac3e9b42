// Package config handles configuration for the multichat CLI: a JSON file
// under the user's home directory with environment overrides.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables overriding the config file.
const (
	EnvAPIURL   = "MULTICHAT_API_URL"
	EnvAPIToken = "MULTICHAT_API_TOKEN"
	EnvModels   = "MULTICHAT_MODELS"
)

// Config represents the user configuration.
type Config struct {
	// APIBaseURL is the multichat backend base URL.
	APIBaseURL string `json:"api_base_url"`
	// APIToken is the bearer token attached to every request.
	APIToken string `json:"api_token,omitempty"`
	// DefaultModels are the model ids addressed when no -m flag is given.
	DefaultModels []string `json:"default_models"`
	// MaxTokens caps the output length per channel; 0 uses the backend default.
	MaxTokens int `json:"max_tokens,omitempty"`
	// Temperature is the sampling temperature. Nil means unset and defers
	// to the backend default; an explicit 0 is sent as 0.
	Temperature *float64 `json:"temperature,omitempty"`
	// Verbose enables debug logging of channel lifecycle and decoding.
	Verbose bool `json:"verbose"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		APIBaseURL:    "http://localhost:8000",
		DefaultModels: []string{"mock"},
	}
}

// GetConfigDir returns the configuration directory path.
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".multichat"), nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist.
func EnsureConfigDir() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	// 0o700: the directory holds the API token.
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return configDir, nil
}

// GetConfigPath returns the path to the config file.
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.json"), nil
}

// LoadConfig loads the configuration from disk and applies environment
// overrides. A missing file yields the defaults; a .env file in the
// working directory is honored for development setups.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	configPath, err := GetConfigPath()
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(configPath)
	switch {
	case os.IsNotExist(err):
		// Defaults apply.
	case err != nil:
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return DefaultConfig(), fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

// applyEnv overlays environment variables onto cfg.
func applyEnv(cfg *Config) {
	_ = godotenv.Load()

	if v := os.Getenv(EnvAPIURL); v != "" {
		cfg.APIBaseURL = v
	}
	if v := os.Getenv(EnvAPIToken); v != "" {
		cfg.APIToken = v
	}
	if v := os.Getenv(EnvModels); v != "" {
		cfg.DefaultModels = SplitModels(v)
	}
}

// SaveConfig saves the configuration to disk.
func SaveConfig(cfg Config) error {
	configDir, err := EnsureConfigDir()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// 0o600: the file contains the API token.
	configPath := filepath.Join(configDir, "config.json")
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SplitModels parses a comma-separated model list, dropping empties.
func SplitModels(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Set assigns a config value by key name, parsing the string form. Used
// by the `config set` command.
func (c *Config) Set(key, value string) error {
	switch key {
	case "api_base_url":
		c.APIBaseURL = value
	case "api_token":
		c.APIToken = value
	case "default_models":
		c.DefaultModels = SplitModels(value)
	case "max_tokens":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("max_tokens must be a non-negative integer")
		}
		c.MaxTokens = n
	case "temperature":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 || f > 2 {
			return fmt.Errorf("temperature must be a number between 0 and 2")
		}
		c.Temperature = &f
	case "verbose":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("verbose must be true or false")
		}
		c.Verbose = b
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}
