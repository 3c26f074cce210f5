// Package router implements the sticky L4 TCP router that fronts a fleet
// of coordinator backends. Every connection from the same client address
// lands on the same backend for the lifetime of the router process.
package router

import (
	"fmt"
	"os"
	"time"

	M "github.com/sagernet/sing/common/metadata"
	"gopkg.in/yaml.v3"
)

// Config is the router's YAML configuration file.
type Config struct {
	// Listen is the address the router accepts clients on, host:port.
	Listen string `yaml:"listen"`
	// Backends are the coordinator addresses, host:port. Order matters:
	// the sticky hash indexes into this list.
	Backends []string `yaml:"backends"`
	// Overrides pins a client IP to a backend index, bypassing the hash.
	Overrides map[string]int `yaml:"overrides"`
	// MaxConns caps concurrent accepted connections. 0 means unlimited.
	MaxConns int `yaml:"max_conns"`
	// DialTimeout bounds the backend dial. Defaults to 5s.
	DialTimeout time.Duration `yaml:"dial_timeout"`
	// GeoIPDB is an optional MaxMind mmdb path; when set, connection logs
	// carry the client's country code.
	GeoIPDB string `yaml:"geoip_db"`
}

// LoadConfig reads and validates a router configuration file.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("router config read %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("router config parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("router config %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen is required")
	}
	if len(c.Backends) == 0 {
		return fmt.Errorf("at least one backend is required")
	}
	for i, b := range c.Backends {
		addr := M.ParseSocksaddr(b)
		if !addr.IsValid() || addr.Port == 0 {
			return fmt.Errorf("backends[%d]: %q is not a host:port address", i, b)
		}
	}
	for ip, idx := range c.Overrides {
		if idx < 0 || idx >= len(c.Backends) {
			return fmt.Errorf("overrides[%s]: backend index %d out of range", ip, idx)
		}
	}
	if c.MaxConns < 0 {
		return fmt.Errorf("max_conns must be >= 0")
	}
	if c.DialTimeout < 0 {
		return fmt.Errorf("dial_timeout must be >= 0")
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = 5 * time.Second
	}
	return nil
}
