package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/urfave/cli/v2"
)

// EnvVarPrefix prefixes the environment variable of every flag.
const EnvVarPrefix = "ROOCH"

func prefixEnvVars(name string) []string {
	return []string{EnvVarPrefix + "_" + name}
}

// Core
var (
	NetworkFlag = &cli.StringFlag{
		Name:    "network",
		Aliases: []string{"n"},
		Usage:   "Network: local, dev, test or main",
		EnvVars: prefixEnvVars("NETWORK"),
	}
	DataDirFlag = &cli.StringFlag{
		Name:    "datadir",
		Usage:   "Data directory path",
		EnvVars: prefixEnvVars("DATADIR"),
	}
	ConfigFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Config file path (default <datadir>/rooch.toml)",
		EnvVars: prefixEnvVars("CONFIG"),
	}
)

// RPC client
var (
	RPCURLFlag = &cli.StringFlag{
		Name:    "rpc-url",
		Usage:   "Node JSON-RPC endpoint (default per network)",
		EnvVars: prefixEnvVars("RPC_URL"),
	}
	RPCTimeoutFlag = &cli.DurationFlag{
		Name:    "rpc-timeout",
		Usage:   "HTTP timeout per RPC call",
		EnvVars: prefixEnvVars("RPC_TIMEOUT"),
	}
	RPCRateLimitFlag = &cli.Float64Flag{
		Name:    "rpc-rate-limit",
		Usage:   "Maximum RPC requests per second (0 = unlimited)",
		EnvVars: prefixEnvVars("RPC_RATE_LIMIT"),
	}
	RPCBurstFlag = &cli.IntFlag{
		Name:    "rpc-burst",
		Usage:   "RPC rate limiter burst size",
		EnvVars: prefixEnvVars("RPC_BURST"),
	}
)

// Local node
var (
	NodeAddrFlag = &cli.StringFlag{
		Name:    "node-addr",
		Usage:   "Local node listen address",
		EnvVars: prefixEnvVars("NODE_ADDR"),
	}
	NodePortFlag = &cli.IntFlag{
		Name:    "node-port",
		Usage:   "Local node listen port",
		EnvVars: prefixEnvVars("NODE_PORT"),
	}
	NodeAllowedFlag = &cli.StringSliceFlag{
		Name:    "node-allowed",
		Usage:   "Allowed client IPs or CIDRs",
		EnvVars: prefixEnvVars("NODE_ALLOWED"),
	}
	NodeCORSFlag = &cli.StringSliceFlag{
		Name:    "node-cors",
		Usage:   "Allowed CORS origins",
		EnvVars: prefixEnvVars("NODE_CORS"),
	}
	NodeInMemoryFlag = &cli.BoolFlag{
		Name:    "in-memory",
		Usage:   "Keep local node state in memory only",
		EnvVars: prefixEnvVars("NODE_IN_MEMORY"),
	}
	NodeVersionFlag = &cli.StringFlag{
		Name:    "node-version",
		Usage:   "API version reported by the local node",
		EnvVars: prefixEnvVars("NODE_VERSION"),
	}
)

// Cache, keystore and display
var (
	CacheSizeFlag = &cli.IntFlag{
		Name:    "cache-size",
		Usage:   "Resolver cache entries kept in memory",
		EnvVars: prefixEnvVars("CACHE_SIZE"),
	}
	CachePersistFlag = &cli.BoolFlag{
		Name:    "cache-persist",
		Usage:   "Persist resolver answers on disk",
		EnvVars: prefixEnvVars("CACHE_PERSIST"),
	}
	KeystoreDirFlag = &cli.StringFlag{
		Name:    "keystore",
		Usage:   "Keystore directory",
		EnvVars: prefixEnvVars("KEYSTORE"),
	}
	DerivationPathFlag = &cli.StringFlag{
		Name:    "derivation-path",
		Usage:   "BIP-32 path used when importing a mnemonic",
		EnvVars: prefixEnvVars("DERIVATION_PATH"),
	}
	BitcoinNetworkFlag = &cli.StringFlag{
		Name:    "btc-network",
		Usage:   "Bitcoin network for displayed addresses",
		EnvVars: prefixEnvVars("BTC_NETWORK"),
	}
)

// Logging and metrics
var (
	LogLevelFlag = &cli.StringFlag{
		Name:    "log-level",
		Usage:   "Log level (debug, info, warn, error)",
		EnvVars: prefixEnvVars("LOG_LEVEL"),
	}
	LogFileFlag = &cli.StringFlag{
		Name:    "log-file",
		Usage:   "Log file path",
		EnvVars: prefixEnvVars("LOG_FILE"),
	}
	LogJSONFlag = &cli.BoolFlag{
		Name:    "log-json",
		Usage:   "Output logs as JSON",
		EnvVars: prefixEnvVars("LOG_JSON"),
	}
	MetricsFlag = &cli.BoolFlag{
		Name:    "metrics",
		Usage:   "Serve Prometheus metrics",
		EnvVars: prefixEnvVars("METRICS"),
	}
	MetricsAddrFlag = &cli.StringFlag{
		Name:    "metrics-addr",
		Usage:   "Prometheus listen address",
		EnvVars: prefixEnvVars("METRICS_ADDR"),
	}
)

func commonFlags() []cli.Flag {
	return []cli.Flag{
		NetworkFlag, DataDirFlag, ConfigFlag,
		LogLevelFlag, LogFileFlag, LogJSONFlag,
		MetricsFlag, MetricsAddrFlag,
	}
}

// ClientFlags returns the flags of rooch-cli.
func ClientFlags() []cli.Flag {
	return append(commonFlags(),
		RPCURLFlag, RPCTimeoutFlag, RPCRateLimitFlag, RPCBurstFlag,
		CacheSizeFlag, CachePersistFlag,
		KeystoreDirFlag, DerivationPathFlag, BitcoinNetworkFlag,
	)
}

// NodeFlags returns the flags of rooch-localnode.
func NodeFlags() []cli.Flag {
	return append(commonFlags(),
		NodeAddrFlag, NodePortFlag, NodeAllowedFlag, NodeCORSFlag,
		NodeInMemoryFlag, NodeVersionFlag,
	)
}

// ApplyFlags overlays explicitly set flags onto cfg.
func ApplyFlags(cfg *Config, c *cli.Context) {
	// Core
	if c.IsSet(NetworkFlag.Name) {
		cfg.Network = NetworkType(strings.ToLower(c.String(NetworkFlag.Name)))
	}
	if c.IsSet(DataDirFlag.Name) {
		cfg.DataDir = c.String(DataDirFlag.Name)
	}

	// RPC
	if c.IsSet(RPCURLFlag.Name) {
		cfg.RPC.URL = c.String(RPCURLFlag.Name)
	}
	if c.IsSet(RPCTimeoutFlag.Name) {
		cfg.RPC.Timeout = c.Duration(RPCTimeoutFlag.Name)
	}
	if c.IsSet(RPCRateLimitFlag.Name) {
		cfg.RPC.RateLimit = c.Float64(RPCRateLimitFlag.Name)
	}
	if c.IsSet(RPCBurstFlag.Name) {
		cfg.RPC.Burst = c.Int(RPCBurstFlag.Name)
	}

	// Node
	if c.IsSet(NodeAddrFlag.Name) {
		cfg.Node.Addr = c.String(NodeAddrFlag.Name)
	}
	if c.IsSet(NodePortFlag.Name) {
		cfg.Node.Port = c.Int(NodePortFlag.Name)
	}
	if c.IsSet(NodeAllowedFlag.Name) {
		cfg.Node.AllowedIPs = c.StringSlice(NodeAllowedFlag.Name)
	}
	if c.IsSet(NodeCORSFlag.Name) {
		cfg.Node.CORSOrigins = c.StringSlice(NodeCORSFlag.Name)
	}
	if c.IsSet(NodeInMemoryFlag.Name) {
		cfg.Node.InMemory = c.Bool(NodeInMemoryFlag.Name)
	}
	if c.IsSet(NodeVersionFlag.Name) {
		cfg.Node.Version = c.String(NodeVersionFlag.Name)
	}

	// Cache, keystore, display
	if c.IsSet(CacheSizeFlag.Name) {
		cfg.Cache.Size = c.Int(CacheSizeFlag.Name)
	}
	if c.IsSet(CachePersistFlag.Name) {
		cfg.Cache.Persist = c.Bool(CachePersistFlag.Name)
	}
	if c.IsSet(KeystoreDirFlag.Name) {
		cfg.Keystore.Dir = c.String(KeystoreDirFlag.Name)
	}
	if c.IsSet(DerivationPathFlag.Name) {
		cfg.Keystore.DerivationPath = c.String(DerivationPathFlag.Name)
	}
	if c.IsSet(BitcoinNetworkFlag.Name) {
		cfg.Bitcoin.Network = c.String(BitcoinNetworkFlag.Name)
	}

	// Logging and metrics
	if c.IsSet(LogLevelFlag.Name) {
		cfg.Log.Level = c.String(LogLevelFlag.Name)
	}
	if c.IsSet(LogFileFlag.Name) {
		cfg.Log.File = c.String(LogFileFlag.Name)
	}
	if c.IsSet(LogJSONFlag.Name) {
		cfg.Log.JSON = c.Bool(LogJSONFlag.Name)
	}
	if c.IsSet(MetricsFlag.Name) {
		cfg.Metrics.Enabled = c.Bool(MetricsFlag.Name)
	}
	if c.IsSet(MetricsAddrFlag.Name) {
		cfg.Metrics.Addr = c.String(MetricsAddrFlag.Name)
	}
}

// Load builds the configuration in order of precedence:
// 1. Per-network defaults
// 2. Config file
// 3. Command-line flags and ROOCH_* environment variables
//
// Data directories and a default config file are created afterwards.
// The network is taken from the flag if set, then from the config file,
// then defaults to local.
func Load(c *cli.Context) (*Config, error) {
	dataDir := DefaultDataDir()
	if c.IsSet(DataDirFlag.Name) {
		dataDir = c.String(DataDirFlag.Name)
	}

	configPath := c.String(ConfigFlag.Name)
	if configPath == "" {
		configPath = (&Config{DataDir: dataDir}).ConfigFile()
	}

	network := Local
	if c.IsSet(NetworkFlag.Name) {
		network = NetworkType(strings.ToLower(c.String(NetworkFlag.Name)))
	} else if n, err := fileNetwork(configPath); err != nil {
		return nil, fmt.Errorf("loading config file: %w", err)
	} else if n != "" {
		network = n
	}

	cfg := Default(network)
	cfg.Network = network
	cfg.DataDir = dataDir

	if err := LoadFile(configPath, cfg); err != nil {
		return nil, fmt.Errorf("loading config file: %w", err)
	}
	ApplyFlags(cfg, c)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := EnsureDataDirs(cfg); err != nil {
		return nil, fmt.Errorf("ensuring data dirs: %w", err)
	}
	return cfg, nil
}

// fileNetwork peeks at the network key of a config file.
func fileNetwork(path string) (NetworkType, error) {
	var probe struct {
		Network NetworkType `toml:"network"`
	}
	if _, err := toml.DecodeFile(path, &probe); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	return NetworkType(strings.ToLower(string(probe.Network))), nil
}
