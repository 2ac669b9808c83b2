package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/rooch-network/rooch-go/internal/log"
)

// Validate checks the config for obvious operator mistakes and normalizes
// case-insensitive fields.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	cfg.Network = NetworkType(strings.ToLower(string(cfg.Network)))
	if _, err := NodeURL(cfg.Network); err != nil {
		return fmt.Errorf("network must be one of local, dev, test, main")
	}

	u, err := url.Parse(cfg.RPC.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("rpc.url must be an http(s) URL, got %q", cfg.RPC.URL)
	}
	if cfg.RPC.Timeout < 0 {
		return fmt.Errorf("rpc.timeout must not be negative")
	}
	if cfg.RPC.RateLimit < 0 {
		return fmt.Errorf("rpc.rate_limit must not be negative")
	}
	if cfg.RPC.RateLimit > 0 && cfg.RPC.Burst < 1 {
		cfg.RPC.Burst = 1
	}

	if cfg.Node.Port < 0 || cfg.Node.Port > 65535 {
		return fmt.Errorf("node.port must be in range [0, 65535]")
	}
	if cfg.Cache.Size < 0 {
		return fmt.Errorf("cache.size must not be negative")
	}
	if cfg.Keystore.DerivationPath == "" {
		cfg.Keystore.DerivationPath = DefaultDerivationPath
	}
	if !strings.HasPrefix(cfg.Keystore.DerivationPath, "m/") {
		return fmt.Errorf("keystore.derivation_path must start with m/")
	}

	switch strings.ToLower(cfg.Bitcoin.Network) {
	case "mainnet", "testnet", "signet", "regtest":
		cfg.Bitcoin.Network = strings.ToLower(cfg.Bitcoin.Network)
	default:
		return fmt.Errorf("bitcoin.network must be mainnet, testnet, signet or regtest")
	}

	if _, err := log.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if cfg.Metrics.Enabled && cfg.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr is required when metrics are enabled")
	}
	return nil
}
