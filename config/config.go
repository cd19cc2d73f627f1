// Package config defines the application configuration structures.
//
// Separated from cmd to allow other packages (backend, ssh, tui) to
// depend on config without importing Cobra.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the backend address used when nothing is configured.
const DefaultBaseURL = "http://localhost:8000"

// DefaultStreamTimeoutSeconds bounds a single streamed answer.
// The backend imposes no timeout of its own; without a client-side bound
// a hung connection would block new submissions forever.
const DefaultStreamTimeoutSeconds = 300

// Config holds all settings needed to reach the AI SQL Agent backend.
type Config struct {
	// BaseURL is the backend root, e.g. "http://localhost:8000".
	// The /api prefix is appended by the backend client.
	BaseURL string

	// StreamTimeoutSeconds bounds a single streamed answer. 0 disables
	// the bound entirely.
	StreamTimeoutSeconds int

	SSH SSHConfig
}

// SSHConfig holds SSH tunnel settings for backends that are only
// reachable through a bastion host.
type SSHConfig struct {
	Enabled       bool   `json:"enabled"`
	Host          string `json:"host"`
	Port          int    `json:"port"`
	User          string `json:"user"`
	KeyPath       string `json:"key_path"`
	KeyPassphrase string `json:"key_passphrase,omitempty"`
}

// Normalize validates the base URL and strips a trailing slash.
func (c *Config) Normalize() error {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")

	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid backend URL %q: %w", c.BaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("backend URL %q must be http or https", c.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("backend URL %q has no host", c.BaseURL)
	}
	return nil
}

// StreamTimeout returns the stream bound as a duration; zero means no
// bound.
func (c *Config) StreamTimeout() time.Duration {
	if c.StreamTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.StreamTimeoutSeconds) * time.Second
}

// BackendHostPort returns the host and port of the backend with the
// scheme default filled in. The SSH tunnel uses it as the remote
// endpoint to forward to.
func (c *Config) BackendHostPort() (string, int, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", 0, err
	}
	host := u.Hostname()
	port := 80
	if u.Scheme == "https" {
		port = 443
	}
	if p := u.Port(); p != "" {
		if _, err := fmt.Sscanf(p, "%d", &port); err != nil {
			return "", 0, fmt.Errorf("invalid port in %q: %w", c.BaseURL, err)
		}
	}
	return host, port, nil
}
