package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// LoadFile overlays the TOML file at path onto cfg. A missing file leaves
// cfg untouched. Keys the config does not know are rejected so typos do
// not pass silently.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return ApplyFileConfig(cfg, data)
}

// ApplyFileConfig decodes TOML data onto cfg.
func ApplyFileConfig(cfg *Config, data []byte) error {
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

const fileHeader = `# rooch-go configuration
#
# Values here override the per-network defaults; command-line flags and
# ROOCH_* environment variables override this file.

`

// fileTemplate holds the sections written to a fresh config file. Network
// dependent settings stay with the defaults so --network keeps working.
type fileTemplate struct {
	Cache   CacheConfig   `toml:"cache"`
	Log     LogConfig     `toml:"log"`
	Metrics MetricsConfig `toml:"metrics"`
}

// WriteDefaultConfig writes the network independent sections of cfg as a
// TOML file.
func WriteDefaultConfig(path string, cfg *Config) error {
	var buf bytes.Buffer
	buf.WriteString(fileHeader)
	tmpl := fileTemplate{Cache: cfg.Cache, Log: cfg.Log, Metrics: cfg.Metrics}
	if err := toml.NewEncoder(&buf).Encode(tmpl); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

// EnsureDataDirs creates the data directory structure and a default config
// file if they don't already exist. Idempotent.
func EnsureDataDirs(cfg *Config) error {
	dirs := []string{
		cfg.DataDir,
		cfg.NetworkDataDir(),
		cfg.KeystoreDir(),
		cfg.LogsDir(),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	configPath := cfg.ConfigFile()
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := WriteDefaultConfig(configPath, Default(cfg.Network)); err != nil {
			return fmt.Errorf("writing config file: %w", err)
		}
	}

	return nil
}
