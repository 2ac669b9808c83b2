package config

import (
	"fmt"
	"time"
)

// DefaultDerivationPath is the BIP-86 path of the first receiving key.
const DefaultDerivationPath = "m/86'/0'/0'/0/0"

// Node endpoints per network.
const (
	LocalURL   = "http://127.0.0.1:6767"
	DevnetURL  = "https://dev-seed.rooch.network:443"
	TestnetURL = "https://test-seed.rooch.network:443"
	MainnetURL = "https://main-seed.rooch.network:443"
)

// NodeURL returns the default endpoint of network.
func NodeURL(network NetworkType) (string, error) {
	switch network {
	case Local:
		return LocalURL, nil
	case Devnet:
		return DevnetURL, nil
	case Testnet:
		return TestnetURL, nil
	case Mainnet:
		return MainnetURL, nil
	default:
		return "", fmt.Errorf("unknown network %q", network)
	}
}

// DefaultLocal returns the default configuration for a local node.
func DefaultLocal() *Config {
	return &Config{
		Network: Local,
		DataDir: DefaultDataDir(),
		RPC: RPCConfig{
			URL:     LocalURL,
			Timeout: 30 * time.Second,
		},
		Node: NodeConfig{
			Addr:       "127.0.0.1",
			Port:       6767,
			AllowedIPs: []string{"127.0.0.1"},
		},
		Cache: CacheConfig{
			Size:    1024,
			Persist: true,
		},
		Keystore: KeystoreConfig{
			DerivationPath: DefaultDerivationPath,
		},
		Bitcoin: BitcoinConfig{
			Network: "regtest",
		},
		Log: LogConfig{
			Level: "info",
			JSON:  false,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    "127.0.0.1:9184",
		},
	}
}

// Default returns the default configuration for the given network.
// Unknown networks fall back to local.
func Default(network NetworkType) *Config {
	cfg := DefaultLocal()
	url, err := NodeURL(network)
	if err != nil {
		return cfg
	}
	cfg.Network = network
	cfg.RPC.URL = url
	switch network {
	case Mainnet:
		cfg.Bitcoin.Network = "mainnet"
	case Devnet, Testnet:
		cfg.Bitcoin.Network = "testnet"
	}
	if network != Local {
		// Remote seeds are shared; stay polite by default.
		cfg.RPC.RateLimit = 10
		cfg.RPC.Burst = 20
	}
	return cfg
}
