package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/Noaman7/BluemixPOC/types"
)

// ComponentConfigs holds component instance configurations.
// The map key is the instance name (e.g., "cloudant-orders-out").
// Components are only created if both:
// 1. Their factory has been registered
// 2. They have an entry in this config map with enabled=true
type ComponentConfigs map[string]types.ComponentConfig

// Config represents the complete application configuration
type Config struct {
	Version    string           `json:"version" yaml:"version"` // Semantic version (e.g., "1.0.0")
	Platform   PlatformConfig   `json:"platform" yaml:"platform"`
	NATS       NATSConfig       `json:"nats" yaml:"nats"`
	Metrics    MetricsConfig    `json:"metrics,omitempty" yaml:"metrics,omitempty"`
	Cloudant   CloudantConfig   `json:"cloudant,omitempty" yaml:"cloudant,omitempty"`
	Components ComponentConfigs `json:"components" yaml:"components"` // Map of component instance configs
}

// SafeConfig provides thread-safe access to configuration
type SafeConfig struct {
	mu     sync.RWMutex
	config *Config
}

// NewSafeConfig creates a new thread-safe config wrapper
func NewSafeConfig(cfg *Config) *SafeConfig {
	if cfg == nil {
		cfg = &Config{}
	}
	return &SafeConfig{
		config: cfg,
	}
}

// Get returns a deep copy of the current configuration
func (sc *SafeConfig) Get() *Config {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.config.Clone()
}

// Update atomically updates the configuration after validation
func (sc *SafeConfig) Update(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.config = cfg
	return nil
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	if c == nil {
		return &Config{}
	}

	// JSON round trip for deep copy
	data, err := json.Marshal(c)
	if err != nil {
		copied := *c
		return &copied
	}

	var clone Config
	if err := json.Unmarshal(data, &clone); err != nil {
		copied := *c
		return &copied
	}

	return &clone
}

// PlatformConfig defines platform identity
type PlatformConfig struct {
	Org         string `json:"org" yaml:"org"`                                 // Organization namespace (e.g., "noaman7")
	ID          string `json:"id" yaml:"id"`                                   // Platform identifier (e.g., "bluemix-poc-1")
	Environment string `json:"environment,omitempty" yaml:"environment,omitempty"` // "prod", "dev", "test"
}

// NATSConfig defines NATS connection settings
type NATSConfig struct {
	URLs          []string      `json:"urls,omitempty" yaml:"urls,omitempty"`
	MaxReconnects int           `json:"max_reconnects,omitempty" yaml:"max_reconnects,omitempty"`
	ReconnectWait time.Duration `json:"reconnect_wait,omitempty" yaml:"reconnect_wait,omitempty"`
	Username      string        `json:"username,omitempty" yaml:"username,omitempty"`
	Password      string        `json:"password,omitempty" yaml:"password,omitempty"`
	Token         string        `json:"token,omitempty" yaml:"token,omitempty"`
	TLS           NATSTLSConfig `json:"tls,omitempty" yaml:"tls,omitempty"`
}

// NATSTLSConfig for secure NATS connections
type NATSTLSConfig struct {
	Enabled  bool   `json:"enabled" yaml:"enabled"`
	CertFile string `json:"cert_file,omitempty" yaml:"cert_file,omitempty"`
	KeyFile  string `json:"key_file,omitempty" yaml:"key_file,omitempty"`
	CAFile   string `json:"ca_file,omitempty" yaml:"ca_file,omitempty"`
}

// MetricsConfig defines the Prometheus metrics endpoint
type MetricsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Port    int    `json:"port,omitempty" yaml:"port,omitempty"`
	Path    string `json:"path,omitempty" yaml:"path,omitempty"`
}

// CloudantConfig holds named document store connections available to
// components. Components reference connections by name; credentials can
// alternatively come from bound service descriptors in the environment.
type CloudantConfig struct {
	Connections []ConnectionConfig `json:"connections,omitempty" yaml:"connections,omitempty"`
}

// ConnectionConfig defines a single named document store connection
type ConnectionConfig struct {
	Name     string `json:"name" yaml:"name"`         // Connection name referenced by components
	Account  string `json:"account" yaml:"account"`   // Account/host identifier
	Username string `json:"username,omitempty" yaml:"username,omitempty"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
}

// Validate checks if the config is valid
func (c *Config) Validate() error {
	if c.Platform.Org == "" {
		return errors.New("platform.org is required")
	}

	// Normalize org to lowercase
	c.Platform.Org = strings.ToLower(c.Platform.Org)

	if !isValidNATSSubjectPart(c.Platform.Org) {
		return fmt.Errorf(
			"platform.org '%s' is not valid for NATS subjects (must be alphanumeric with dots, dashes, underscores)",
			c.Platform.Org,
		)
	}

	if c.Platform.ID == "" {
		return errors.New("platform.id is required")
	}

	// Validate Cloudant connections
	seen := make(map[string]bool)
	for i, conn := range c.Cloudant.Connections {
		if conn.Name == "" {
			return fmt.Errorf("cloudant.connections[%d]: name is required", i)
		}
		if seen[conn.Name] {
			return fmt.Errorf("cloudant.connections[%d]: duplicate name '%s'", i, conn.Name)
		}
		seen[conn.Name] = true
		if conn.Account == "" {
			return fmt.Errorf("cloudant connection '%s': account is required", conn.Name)
		}
	}

	// Validate Components
	for instanceName, config := range c.Components {
		if instanceName == "" {
			return errors.New("component instance name cannot be empty")
		}
		if err := config.Validate(); err != nil {
			return fmt.Errorf("component %s: %w", instanceName, err)
		}
	}

	return nil
}

// isValidNATSSubjectPart checks if a string is valid for use in NATS subjects.
// Valid characters are alphanumeric, dots, dashes, and underscores.
func isValidNATSSubjectPart(s string) bool {
	if len(s) == 0 {
		return false
	}

	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) &&
			r != '-' && r != '_' && r != '.' {
			return false
		}
	}
	return true
}

// Connection returns the named Cloudant connection, or false when absent.
func (c *Config) Connection(name string) (ConnectionConfig, bool) {
	for _, conn := range c.Cloudant.Connections {
		if conn.Name == name {
			return conn, true
		}
	}
	return ConnectionConfig{}, false
}

// SaveToFile saves the configuration to a JSON file
func (c *Config) SaveToFile(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return safeWriteFile(path, data)
}

// GetOrg returns the organization from platform config
func (c *Config) GetOrg() string {
	return c.Platform.Org
}

// GetPlatform returns the platform identifier
func (c *Config) GetPlatform() string {
	return c.Platform.ID
}

// String returns a JSON representation of the config
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// UnmarshalJSON implements custom JSON unmarshaling for Config so the NATS
// reconnect wait accepts both duration strings ("2s") and nanosecond numbers.
func (c *Config) UnmarshalJSON(data []byte) error {
	type Alias Config
	aux := &struct {
		NATS struct {
			URLs          []string      `json:"urls"`
			MaxReconnects int           `json:"max_reconnects"`
			ReconnectWait any           `json:"reconnect_wait"`
			Username      string        `json:"username,omitempty"`
			Password      string        `json:"password,omitempty"`
			Token         string        `json:"token,omitempty"`
			TLS           NATSTLSConfig `json:"tls,omitempty"`
		} `json:"nats"`
		*Alias
	}{
		Alias: (*Alias)(c),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	c.NATS.URLs = aux.NATS.URLs
	c.NATS.MaxReconnects = aux.NATS.MaxReconnects
	c.NATS.Username = aux.NATS.Username
	c.NATS.Password = aux.NATS.Password
	c.NATS.Token = aux.NATS.Token
	c.NATS.TLS = aux.NATS.TLS

	switch v := aux.NATS.ReconnectWait.(type) {
	case string:
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		c.NATS.ReconnectWait = d
	case float64:
		c.NATS.ReconnectWait = time.Duration(v)
	}

	return nil
}

// applyEnvOverride copies an environment variable into dst when set and valid
func applyEnvOverride(key string, dst *string) {
	val := os.Getenv(key)
	if val == "" {
		return
	}
	if err := validateEnvVar(key, val); err != nil {
		return
	}
	*dst = val
}
