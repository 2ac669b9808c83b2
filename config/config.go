// Package config handles application configuration.
//
// Configuration is resolved in layers: per-network defaults, then the TOML
// config file, then command-line flags (or their environment variables).
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// NetworkType identifies the Rooch network the tools talk to.
type NetworkType string

const (
	Local   NetworkType = "local"
	Devnet  NetworkType = "dev"
	Testnet NetworkType = "test"
	Mainnet NetworkType = "main"
)

// Networks lists every known network, local first.
var Networks = []NetworkType{Local, Devnet, Testnet, Mainnet}

// =============================================================================
// Configuration
// =============================================================================

// Config holds the runtime configuration of rooch-cli and rooch-localnode.
type Config struct {
	// Core
	Network NetworkType `toml:"network"`
	DataDir string      `toml:"datadir"`

	// Client side of the JSON-RPC façade
	RPC RPCConfig `toml:"rpc"`

	// In-process local node
	Node NodeConfig `toml:"node"`

	// Resolver answer cache
	Cache CacheConfig `toml:"cache"`

	// Encrypted key files
	Keystore KeystoreConfig `toml:"keystore"`

	// Bitcoin display network for derived addresses
	Bitcoin BitcoinConfig `toml:"bitcoin"`

	// Logging
	Log LogConfig `toml:"log"`

	// Prometheus endpoint
	Metrics MetricsConfig `toml:"metrics"`
}

// RPCConfig holds client settings for the node endpoint.
type RPCConfig struct {
	URL       string        `toml:"url"`
	Timeout   time.Duration `toml:"timeout"`
	RateLimit float64       `toml:"rate_limit"` // Requests per second, 0 = unlimited.
	Burst     int           `toml:"burst"`
}

// NodeConfig holds local node server settings.
type NodeConfig struct {
	Addr        string   `toml:"addr"`
	Port        int      `toml:"port"`
	AllowedIPs  []string `toml:"allowed_ips"`
	CORSOrigins []string `toml:"cors"` // Allowed CORS origins ("*" = all).
	InMemory    bool     `toml:"in_memory"`
	Version     string   `toml:"version"` // Reported API version; empty = built-in.
}

// CacheConfig holds resolver cache settings.
type CacheConfig struct {
	Size    int  `toml:"size"`
	Persist bool `toml:"persist"`
}

// KeystoreConfig holds keystore settings.
type KeystoreConfig struct {
	Dir            string `toml:"dir"` // Empty = <datadir>/<network>/keystore.
	DerivationPath string `toml:"derivation_path"`
}

// BitcoinConfig selects how Bitcoin addresses are rendered.
type BitcoinConfig struct {
	Network string `toml:"network"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
	JSON  bool   `toml:"json"`
}

// MetricsConfig holds the Prometheus listener settings.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Addr    string `toml:"addr"`
}

// =============================================================================
// Directory helpers
// =============================================================================

// DefaultDataDir returns the platform-specific default data directory.
//
//	Linux:   ~/.rooch-go
//	macOS:   ~/Library/Application Support/RoochGo
//	Windows: %APPDATA%\RoochGo
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".rooch-go"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "RoochGo")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "RoochGo")
		}
		return filepath.Join(home, "AppData", "Roaming", "RoochGo")
	default:
		return filepath.Join(home, ".rooch-go")
	}
}

// NetworkDataDir returns the network-specific data directory.
func (c *Config) NetworkDataDir() string {
	return filepath.Join(c.DataDir, string(c.Network))
}

// KeystoreDir returns the keystore directory.
func (c *Config) KeystoreDir() string {
	if c.Keystore.Dir != "" {
		return c.Keystore.Dir
	}
	return filepath.Join(c.NetworkDataDir(), "keystore")
}

// CacheDir returns the resolver cache database directory.
func (c *Config) CacheDir() string {
	return filepath.Join(c.NetworkDataDir(), "cache")
}

// NodeDir returns the local node state directory.
func (c *Config) NodeDir() string {
	return filepath.Join(c.NetworkDataDir(), "node")
}

// LogsDir returns the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// ConfigFile returns the config file path.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, "rooch.toml")
}
