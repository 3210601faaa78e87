// Package config handles application configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"
)

// Launch modes.
const (
	ModeSearch  = "search"  // probe global CLI / package runner / embedded script
	ModeSidecar = "sidecar" // single pre-bundled companion executable
)

// Config holds the application configuration.
type Config struct {
	Backend BackendConfig `json:"backend" yaml:"backend"`
	Server  ServerConfig  `json:"server" yaml:"server"`
	Launch  LaunchConfig  `json:"launch" yaml:"launch"`
	History HistoryConfig `json:"history" yaml:"history"`
}

// BackendConfig describes where the supervised backend listens.
type BackendConfig struct {
	Host string `json:"host" yaml:"host"`
	Port int    `json:"port" yaml:"port"`
}

// ServerConfig holds the control HTTP server configuration.
type ServerConfig struct {
	Host string `json:"host" yaml:"host"`
	Port int    `json:"port" yaml:"port"`
}

// LaunchConfig selects how the backend executable is obtained.
type LaunchConfig struct {
	Mode    string `json:"mode" yaml:"mode"`
	Sidecar string `json:"sidecar" yaml:"sidecar"`
	CLI     string `json:"cli" yaml:"cli"`
	Runner  string `json:"runner" yaml:"runner"`
	Entry   string `json:"entry" yaml:"entry"`
}

// HistoryConfig holds the launch journal configuration.
type HistoryConfig struct {
	Path  string `json:"path" yaml:"path"`
	Limit int    `json:"limit" yaml:"limit"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	botshellDir := filepath.Join(home, ".botshell")

	return &Config{
		Backend: BackendConfig{
			Host: "127.0.0.1",
			Port: 3721,
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8790,
		},
		Launch: LaunchConfig{
			Mode:   ModeSearch,
			CLI:    "wqbot",
			Runner: "npx",
			Entry:  filepath.Join("packages", "backend", "dist", "index.js"),
		},
		History: HistoryConfig{
			Path:  filepath.Join(botshellDir, "launches.json"),
			Limit: 20,
		},
	}
}

// Load loads configuration from a file (supports JSON and YAML).
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	baseDir := ""

	if path == "" {
		home, _ := os.UserHomeDir()
		yamlPath := filepath.Join(home, ".botshell", "config.yaml")
		jsonPath := filepath.Join(home, ".botshell", "config.json")

		if _, err := os.Stat(yamlPath); err == nil {
			path = yamlPath
			baseDir = filepath.Dir(path)
		} else if _, err := os.Stat(jsonPath); err == nil {
			path = jsonPath
			baseDir = filepath.Dir(path)
		} else {
			// No config file found, return defaults
			return cfg, nil
		}
	} else {
		baseDir = filepath.Dir(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	// Detect format by extension
	isYAML := strings.HasSuffix(strings.ToLower(path), ".yaml") || strings.HasSuffix(strings.ToLower(path), ".yml")

	if isYAML {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	} else {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	}

	// Paths from the config file are expanded (~) and resolved relative to
	// the config file's own directory.
	cfg.History.Path = resolvePath(cfg.History.Path, baseDir)
	cfg.Launch.Sidecar = resolvePath(cfg.Launch.Sidecar, baseDir)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Launch.Mode {
	case ModeSearch, ModeSidecar:
	case "":
		c.Launch.Mode = ModeSearch
	default:
		return fmt.Errorf("invalid launch mode: %q (valid: search, sidecar)", c.Launch.Mode)
	}
	if c.Launch.Mode == ModeSidecar && c.Launch.Sidecar == "" {
		return fmt.Errorf("launch mode %q requires a sidecar path", ModeSidecar)
	}
	return nil
}

// Save saves configuration to a file.
func (c *Config) Save(path string) error {
	if path == "" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, ".botshell", "config.json")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// BackendAddr returns the backend's listen address.
func (c *Config) BackendAddr() string {
	return fmt.Sprintf("%s:%d", c.Backend.Host, c.Backend.Port)
}

// Address returns the control server address.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// expandHome expands ~ to home directory in paths.
func expandHome(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return path
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	// Support "~/..." (and Windows separators just in case)
	if strings.HasPrefix(path, "~/") || strings.HasPrefix(path, "~\\") {
		home, _ := os.UserHomeDir()
		rest := path[2:]
		return filepath.Join(home, rest)
	}
	// We intentionally don't expand "~user/..." forms.
	return path
}

// resolvePath expands ~ and resolves relative paths against baseDir.
// If baseDir is empty, relative paths are returned unchanged.
func resolvePath(value, baseDir string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	p := expandHome(value)
	if filepath.IsAbs(p) {
		return p
	}
	if baseDir == "" {
		return p
	}
	return filepath.Clean(filepath.Join(baseDir, p))
}
