package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/muurk/attrstore/internal/attribute"
)

const (
	appName       = "attrstore"
	configFile    = "config.yaml"
	stateFileName = "state.json"
)

// Environment variables that override the configuration file.
const (
	EnvDeviceServerName      = "DEVICE_SERVER_NAME"
	EnvStateFile             = "STATE_FILE"
	EnvInitDynamicAttributes = "INIT_DYNAMIC_ATTRIBUTES"
	EnvLogLevel              = "ATTRSTORE_LOG_LEVEL"
)

// Mutex for thread-safe file operations
var fileMutex sync.Mutex

// GetConfigDir returns the OS-appropriate configuration directory for the application.
// This follows platform conventions:
//   - Linux: $XDG_CONFIG_HOME/attrstore or $HOME/.config/attrstore
//   - macOS: $HOME/.config/attrstore (following XDG convention on macOS)
//   - Windows: %LOCALAPPDATA%\attrstore
func GetConfigDir() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "windows":
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			// Fallback to USERPROFILE\AppData\Local if LOCALAPPDATA not set
			userProfile := os.Getenv("USERPROFILE")
			if userProfile == "" {
				return "", fmt.Errorf("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
			}
			baseDir = filepath.Join(userProfile, "AppData", "Local", appName)
		} else {
			baseDir = filepath.Join(localAppData, appName)
		}

	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		baseDir = filepath.Join(homeDir, ".config", appName)

	default:
		xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfigHome != "" {
			baseDir = filepath.Join(xdgConfigHome, appName)
		} else {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("cannot determine home directory: %w", err)
			}
			baseDir = filepath.Join(homeDir, ".config", appName)
		}
	}

	return baseDir, nil
}

// GetConfigPath returns the full path to the default configuration file.
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, configFile), nil
}

// DefaultStateFile returns the default state file for a device server
// instance: <config dir>/<name>/state.json
func DefaultStateFile(deviceServerName string) (string, error) {
	if err := checkPathComponent(deviceServerName); err != nil {
		return "", err
	}
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, deviceServerName, stateFileName), nil
}

// checkPathComponent rejects names that do not stay a single directory
// below the config directory.
func checkPathComponent(name string) error {
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("device_server_name %q cannot be used as a directory name", name)
	}
	return nil
}

// Load reads the configuration file at path.
//
// An empty path means the default location; if nothing exists there the
// defaults are returned. An explicitly given path must exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		var err error
		path, err = GetConfigPath()
		if err != nil {
			return nil, fmt.Errorf("failed to get config path: %w", err)
		}
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) && !explicit {
		return NewConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes a YAML configuration document. Fields left out keep their
// default values.
func Parse(data []byte) (*Config, error) {
	cfg := NewConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.Version != 1 {
		return nil, fmt.Errorf("unsupported config version: %d (expected 1)", cfg.Version)
	}

	return cfg, nil
}

// ApplyEnv overrides configuration values from the environment.
// getenv is usually os.Getenv; empty values are ignored.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvDeviceServerName); v != "" {
		c.DeviceServerName = v
	}
	if v := getenv(EnvStateFile); v != "" {
		c.StateFile = v
	}
	if v := getenv(EnvInitDynamicAttributes); v != "" {
		c.InitDynamicAttributes = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
}

// ResolveStateFile fills in the default state file location when none is
// configured and returns the result.
func (c *Config) ResolveStateFile() (string, error) {
	if c.StateFile != "" {
		return c.StateFile, nil
	}
	path, err := DefaultStateFile(c.DeviceServerName)
	if err != nil {
		return "", fmt.Errorf("failed to determine state file location: %w", err)
	}
	c.StateFile = path
	return path, nil
}

// Validate checks the configuration for values the server cannot start with.
func (c *Config) Validate() error {
	var problems []string

	if c.Version != 1 {
		problems = append(problems, fmt.Sprintf("unsupported config version: %d", c.Version))
	}
	if strings.TrimSpace(c.DeviceServerName) == "" {
		problems = append(problems, "device_server_name cannot be empty")
	} else if err := checkPathComponent(c.DeviceServerName); err != nil {
		problems = append(problems, err.Error())
	}
	if c.Listen.Port < 1 || c.Listen.Port > 65535 {
		problems = append(problems, fmt.Sprintf("listen.port must be 1-65535, got %d", c.Listen.Port))
	}
	if (c.TLS.CertFile == "") != (c.TLS.KeyFile == "") {
		problems = append(problems, "tls.cert_file and tls.key_file must be set together")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Save writes the configuration to path.
// Performs an atomic write to prevent corruption on crash.
func (c *Config) Save(path string) error {
	fileMutex.Lock()
	defer fileMutex.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# Attribute Server Configuration File
#
# Attributes may be declared under "attributes" as YAML records, or in
# "init_dynamic_attributes" as a JSON array or comma-separated name list.
# Environment variables DEVICE_SERVER_NAME, STATE_FILE,
# INIT_DYNAMIC_ATTRIBUTES and ATTRSTORE_LOG_LEVEL override this file.

`)
	data = append(header, data...)

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary config file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to save config file: %w", err)
	}

	return nil
}

// ExampleConfig returns a configuration with sample attribute declarations.
// It is what `attrstore-ctl config init` writes.
func ExampleConfig() *Config {
	cfg := NewConfig()
	cfg.Attributes = []attribute.Declaration{
		{Name: "enabled", DataType: attribute.DevBoolean},
		{Name: "setpoint", DataType: attribute.DevDouble, MinValue: "0", MaxValue: "100", Unit: "C", Label: "Setpoint"},
		{Name: "cycles", DataType: attribute.DevLong, WriteType: attribute.WriteTypeRead},
		{Name: "operator_note"},
	}
	return cfg
}
