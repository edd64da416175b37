// Package config provides the server configuration surface and the
// file-based expectation loader.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Defaults for the configuration surface.
const (
	DefaultIP           = "0.0.0.0"
	DefaultPort         = 8086
	DefaultProxyTimeout = 30 // seconds
	DefaultJournalCap   = 1000
	DefaultReadTimeout  = 30 // seconds
	DefaultWriteTimeout = 0  // unlimited; delayed responses may exceed any cap
	DefaultGracePeriod  = 5  // seconds
)

// Config holds the recognized server options.
type Config struct {
	// IP is the bind address.
	IP string `yaml:"ip" json:"ip"`

	// Port is the bind port.
	Port int `yaml:"port" json:"port"`

	// ExpectationsDir is scanned once at boot for *.json expectation files.
	ExpectationsDir string `yaml:"expectations-dir" json:"expectations-dir"`

	// Debug raises log verbosity.
	Debug bool `yaml:"debug" json:"debug"`

	// Certificate, CertificateKey, and CertPassphrase enable TLS.
	Certificate    string `yaml:"certificate" json:"certificate"`
	CertificateKey string `yaml:"certificate-key" json:"certificate-key"`
	CertPassphrase string `yaml:"cert-passphrase" json:"cert-passphrase"`

	// FactoryClass is a dependency-injection hook of the original system.
	// Recognized for compatibility; ignored with a warning.
	FactoryClass string `yaml:"factory-class" json:"factory-class"`

	// ProxyTimeout bounds upstream proxy calls, in seconds.
	ProxyTimeout int `yaml:"proxy-timeout" json:"proxy-timeout"`

	// JournalCapacity bounds the request journal; zero or less keeps
	// everything.
	JournalCapacity int `yaml:"journal-capacity" json:"journal-capacity"`

	// ReadTimeout and WriteTimeout apply to the listener, in seconds.
	ReadTimeout  int `yaml:"read-timeout" json:"read-timeout"`
	WriteTimeout int `yaml:"write-timeout" json:"write-timeout"`

	// ShutdownGrace is how long in-flight requests may finish on shutdown,
	// in seconds.
	ShutdownGrace int `yaml:"shutdown-grace" json:"shutdown-grace"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		IP:              DefaultIP,
		Port:            DefaultPort,
		ProxyTimeout:    DefaultProxyTimeout,
		JournalCapacity: DefaultJournalCap,
		ReadTimeout:     DefaultReadTimeout,
		WriteTimeout:    DefaultWriteTimeout,
		ShutdownGrace:   DefaultGracePeriod,
	}
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.Certificate != "" && c.CertificateKey == "" {
		return fmt.Errorf("certificate requires certificate-key")
	}
	return nil
}

// configFileNames are probed, in order, inside the config-path directory.
var configFileNames = []string{"phiremock.yaml", "phiremock.yml", "phiremock.json"}

// LoadFile reads a YAML (or JSON, a YAML subset) config file over the
// defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Discover looks for a config file inside dir. Returns the defaults when
// none exists; an unreadable or malformed file is an error.
func Discover(dir string) (*Config, error) {
	for _, name := range configFileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return Default(), nil
}
