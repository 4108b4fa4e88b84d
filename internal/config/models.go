package config

import (
	"github.com/muurk/attrstore/internal/attribute"
)

// Default values for a new configuration.
const (
	DefaultDeviceServerName = "storage"
	DefaultHost             = ""
	DefaultPort             = 8080
	DefaultLogLevel         = "info"
)

// Config represents the attribute server configuration file.
type Config struct {
	Version          int          `yaml:"version"`
	DeviceServerName string       `yaml:"device_server_name"`   // Instance name, also names the default state directory
	Listen           ListenConfig `yaml:"listen"`               // Transport listen address
	TLS              TLSConfig    `yaml:"tls,omitempty"`        // Optional TLS certificate for the transport
	StateFile        string       `yaml:"state_file,omitempty"` // Empty = default location in the config directory
	LogLevel         string       `yaml:"log_level,omitempty"`  // debug, info, warn, error

	// InitDynamicAttributes is a declaration payload in the same format as
	// the INIT_DYNAMIC_ATTRIBUTES environment variable: a JSON array of
	// records or a comma-separated list of names.
	InitDynamicAttributes string `yaml:"init_dynamic_attributes,omitempty"`

	// Attributes are declarations written as YAML records.
	Attributes []attribute.Declaration `yaml:"attributes,omitempty"`
}

// ListenConfig is the transport listen address.
type ListenConfig struct {
	Host string `yaml:"host"` // Empty = all interfaces
	Port int    `yaml:"port"`
}

// TLSConfig points at a PEM certificate and key. Both or neither must be set.
type TLSConfig struct {
	CertFile string `yaml:"cert_file,omitempty"`
	KeyFile  string `yaml:"key_file,omitempty"`
}

// Enabled reports whether TLS is configured.
func (t TLSConfig) Enabled() bool {
	return t.CertFile != "" && t.KeyFile != ""
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		Version:          1,
		DeviceServerName: DefaultDeviceServerName,
		Listen: ListenConfig{
			Host: DefaultHost,
			Port: DefaultPort,
		},
		LogLevel: DefaultLogLevel,
	}
}

// Declarations returns every configured attribute declaration: those from
// InitDynamicAttributes first, then the YAML attribute records.
func (c *Config) Declarations() []attribute.Declaration {
	decls := attribute.ParseDeclarations(c.InitDynamicAttributes)
	return append(decls, c.Attributes...)
}
