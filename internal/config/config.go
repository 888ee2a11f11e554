// Package config handles XDG configuration directory and file paths.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

const (
	// AppName is the application directory name.
	AppName = "todo"

	// TokenFile is the stored session token filename.
	TokenFile = "token.json"

	// ServerFile is the server settings filename.
	ServerFile = "server.json"

	// DefaultBaseURL is used when neither the environment nor server.json
	// names a server.
	DefaultBaseURL = "http://localhost:8000"

	// BaseURLEnv overrides the configured server address when set.
	BaseURLEnv = "TODO_BASE_URL"
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// BaseURL is the remote service address.
	BaseURL string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool
}

// serverSettings is the on-disk shape of server.json.
type serverSettings struct {
	BaseURL string `json:"base_url"`
}

// New creates a new Config with the default or specified config directory
// and resolves the server base URL (environment, then server.json, then
// the built-in default).
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	cfg := &Config{Dir: dir}
	cfg.BaseURL = cfg.resolveBaseURL()
	return cfg, nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

func (c *Config) resolveBaseURL() string {
	if env := os.Getenv(BaseURLEnv); env != "" {
		return env
	}
	data, err := os.ReadFile(c.ServerPath())
	if err == nil {
		var settings serverSettings
		if json.Unmarshal(data, &settings) == nil && settings.BaseURL != "" {
			return settings.BaseURL
		}
	}
	return DefaultBaseURL
}

// TokenPath returns the path to the stored session token file.
func (c *Config) TokenPath() string {
	return filepath.Join(c.Dir, TokenFile)
}

// ServerPath returns the path to the server settings file.
func (c *Config) ServerPath() string {
	return filepath.Join(c.Dir, ServerFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasToken checks if the session token file exists.
func (c *Config) HasToken() bool {
	_, err := os.Stat(c.TokenPath())
	return err == nil
}
