// Package config provides application configuration management for studyroom.
package config

import (
	"encoding/json"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Environment overrides, applied on top of the file by Load.
const (
	EnvHome    = "STUDYROOM_HOME" // replaces ~/.studyroom
	EnvAPIURL  = "STUDYROOM_API_URL"
	EnvLang    = "STUDYROOM_LANG"
	EnvLogFile = "STUDYROOM_LOG_FILE"
)

// Config holds the studyroom configuration.
type Config struct {
	APIURL   string `json:"api_url"`            // Base URL of the upstream REST API
	WSURL    string `json:"ws_url,omitempty"`   // Live feed base URL; derived from APIURL when empty
	Language string `json:"language,omitempty"` // UI language (BCP 47); empty = from environment
	PageSize int    `json:"page_size"`          // Messages requested per history page
	EdgeRows int    `json:"edge_rows"`          // Rows from the top/bottom edge that count as "near"
	Markdown bool   `json:"markdown"`           // Render message bodies as markdown
	LogFile  string `json:"log_file,omitempty"`
	LogLevel string `json:"log_level,omitempty"`
}

// LiveURL returns the WebSocket base URL, deriving ws(s):// from the API URL
// when no explicit one is configured.
func (c Config) LiveURL() string {
	if c.WSURL != "" {
		return strings.TrimRight(c.WSURL, "/")
	}
	u, err := url.Parse(c.APIURL)
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	return strings.TrimRight(u.String(), "/")
}

// Dir returns the path to the .studyroom directory.
func Dir() (string, error) {
	if dir := os.Getenv(EnvHome); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".studyroom"), nil
}

// Path returns the path to the main config file.
func Path() (string, error) {
	configDir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.json"), nil
}

// Load loads the configuration from ~/.studyroom/config.json and applies
// environment overrides.
func Load() (Config, error) {
	configPath, err := Path()
	if err != nil {
		return Config{}, err
	}

	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		cfg := Default()
		// Persist the initial config so users have a file to edit
		_ = Save(cfg)
		return applyEnv(cfg), nil
	} else if err != nil {
		return Config{}, err
	}

	// Start from defaults so keys missing from older files keep sane values.
	config := Default()
	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, err
	}

	if config.PageSize <= 0 {
		config.PageSize = DefaultPageSize
	}
	if config.EdgeRows < 0 {
		config.EdgeRows = 0
	}

	return applyEnv(config), nil
}

func applyEnv(cfg Config) Config {
	if v := os.Getenv(EnvAPIURL); v != "" {
		cfg.APIURL = v
	}
	if v := os.Getenv(EnvLang); v != "" {
		cfg.Language = v
	}
	if v := os.Getenv(EnvLogFile); v != "" {
		cfg.LogFile = v
	}
	return cfg
}

// Defaults for a fresh install.
const (
	DefaultAPIURL   = "http://localhost:7480/api"
	DefaultPageSize = 30
	DefaultEdgeRows = 2
)

// Default returns a default configuration with all defaults set.
func Default() Config {
	return Config{
		APIURL:   DefaultAPIURL,
		PageSize: DefaultPageSize,
		EdgeRows: DefaultEdgeRows,
		Markdown: false,
		LogLevel: "info",
	}
}

// Save saves the configuration to ~/.studyroom/config.json.
func Save(config Config) error {
	configPath, err := Path()
	if err != nil {
		return err
	}

	// Ensure directory exists
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0600)
}
