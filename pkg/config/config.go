/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Line endings written by the batch writer.
const (
	LineEndingLF   = "lf"
	LineEndingCRLF = "crlf"
)

// Policies applied to a line that fails to map or aggregate.
const (
	OnErrorReject = "reject"
	OnErrorAbort  = "abort"
	OnErrorSkip   = "skip"
)

// Config represents the flatrec configuration
type Config struct {
	Layouts    string   `yaml:"layouts"`
	Charset    string   `yaml:"charset"`
	LineEnding string   `yaml:"line_ending"`
	OnError    string   `yaml:"on_error"`
	RejectDir  string   `yaml:"reject_dir"`
	Port       int      `yaml:"port"`
	Bind       string   `yaml:"bind"`
	Security   Security `yaml:"security"`
	Logging    Logging  `yaml:"logging"`
}

// Security contains security-related configuration
type Security struct {
	APIKey      string `yaml:"api_key"`
	MaxBodySize int64  `yaml:"max_body_size"`
}

// Logging contains logging configuration
type Logging struct {
	Level       string   `yaml:"level"`
	Format      string   `yaml:"format"`
	Outputs     []string `yaml:"outputs"`
	Development bool     `yaml:"development"`
	Rotation    Rotation `yaml:"rotation"`
}

// Rotation configures rotation of file log outputs
type Rotation struct {
	Enable     bool   `yaml:"enable"`
	Filename   string `yaml:"filename"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Layouts:    "./layouts.yaml",
		Charset:    "utf-8",
		LineEnding: LineEndingLF,
		OnError:    OnErrorReject,
		RejectDir:  "./rejects",
		Port:       8080,
		Bind:       "127.0.0.1",
		Security: Security{
			APIKey:      "",
			MaxBodySize: 1 << 20,
		},
		Logging: Logging{
			Level:   "info",
			Format:  "console",
			Outputs: []string{"stderr"},
		},
	}
}

// Validate reports every invalid setting
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Layouts) == "" {
		errs = append(errs, errors.New("layouts path is required"))
	}
	switch strings.ToLower(c.LineEnding) {
	case LineEndingLF, LineEndingCRLF:
	default:
		errs = append(errs, fmt.Errorf("line_ending must be %q or %q, got %q", LineEndingLF, LineEndingCRLF, c.LineEnding))
	}
	switch strings.ToLower(c.OnError) {
	case OnErrorReject, OnErrorAbort, OnErrorSkip:
	default:
		errs = append(errs, fmt.Errorf("on_error must be %q, %q or %q, got %q", OnErrorReject, OnErrorAbort, OnErrorSkip, c.OnError))
	}
	if strings.ToLower(c.OnError) == OnErrorReject && strings.TrimSpace(c.RejectDir) == "" {
		errs = append(errs, errors.New("reject_dir is required when on_error is reject"))
	}
	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port out of range: %d", c.Port))
	}
	if c.Security.MaxBodySize < 0 {
		errs = append(errs, fmt.Errorf("max_body_size must not be negative: %d", c.Security.MaxBodySize))
	}
	return errors.Join(errs...)
}

// LoadConfig loads configuration from the specified path
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	// Validate path to prevent directory traversal
	if !filepath.IsAbs(configPath) {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		configPath = absPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveConfig saves the configuration to the specified path with secure permissions
func SaveConfig(config *Config, configPath string) error {
	// Ensure config directory exists
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write with secure permissions (0600)
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GenerateSecureKey generates a cryptographically secure random key
func GenerateSecureKey(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate secure key: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// BootstrapConfig creates a new configuration with a generated API key
func BootstrapConfig(configPath string, layoutsPath string) (*Config, error) {
	config := DefaultConfig()
	if layoutsPath != "" {
		config.Layouts = layoutsPath
	}

	apiKey, err := GenerateSecureKey(32) // 256 bits
	if err != nil {
		return nil, fmt.Errorf("failed to generate API key: %w", err)
	}
	config.Security.APIKey = apiKey

	// Save the configuration
	if err := SaveConfig(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save bootstrap config: %w", err)
	}

	return config, nil
}

// GetDefaultConfigPath returns the default configuration path for the current platform
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./flatrec.yaml"
	}

	// For Linux/macOS, use ~/.config/flatrec/config.yaml
	configDir := filepath.Join(homeDir, ".config", "flatrec")
	return filepath.Join(configDir, "config.yaml")
}

// ConfigExists checks if a configuration file exists
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}
