// Package config — config file handling.
//
// Settings are stored in ~/.datachat/config.json. The backend URL can
// also be set via the DATACHAT_URL environment variable or the --url
// flag, which both take precedence over the file.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
)

// AppConfig is the top-level config file structure (~/.datachat/config.json).
type AppConfig struct {
	BaseURL              string    `json:"base_url"`
	StreamTimeoutSeconds int       `json:"stream_timeout_seconds"`
	SSH                  SSHConfig `json:"ssh"`
}

// DefaultAppConfig returns sensible defaults.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		BaseURL:              DefaultBaseURL,
		StreamTimeoutSeconds: DefaultStreamTimeoutSeconds,
		SSH: SSHConfig{
			Port: 22,
		},
	}
}

// LoadAppConfig reads ~/.datachat/config.json; returns defaults if not found.
func LoadAppConfig() (*AppConfig, error) {
	cfg := DefaultAppConfig()

	homeDir, err := os.UserHomeDir()
	if err != nil {
		applyEnv(cfg)
		return cfg, nil
	}

	path := filepath.Join(homeDir, ".datachat", "config.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnv(cfg)
			return cfg, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyEnv(cfg)
	return cfg, nil
}

// applyEnv lets environment variables override file config.
func applyEnv(cfg *AppConfig) {
	if envURL := os.Getenv("DATACHAT_URL"); envURL != "" {
		cfg.BaseURL = envURL
	}
	if envTimeout := os.Getenv("DATACHAT_STREAM_TIMEOUT"); envTimeout != "" {
		if secs, err := strconv.Atoi(envTimeout); err == nil && secs >= 0 {
			cfg.StreamTimeoutSeconds = secs
		}
	}
}

// SaveAppConfig writes the config to ~/.datachat/config.json.
func SaveAppConfig(cfg *AppConfig) error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	dir := filepath.Join(homeDir, ".datachat")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0600)
}

// Config converts the file structure into the runtime Config.
func (a *AppConfig) Config() Config {
	return Config{
		BaseURL:              a.BaseURL,
		StreamTimeoutSeconds: a.StreamTimeoutSeconds,
		SSH:                  a.SSH,
	}
}
