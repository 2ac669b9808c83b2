// Package localnode runs an in-process Rooch JSON-RPC endpoint with
// deterministic state, for tests and local development. It serves
// rpc.discover, rooch_getChainID, rooch_getStates and a fixed set of view
// functions; it does not execute Move code.
package localnode

import (
	"fmt"
	"net"
	"strconv"

	"github.com/rooch-network/rooch-go/config"
	klog "github.com/rooch-network/rooch-go/internal/log"
	"github.com/rooch-network/rooch-go/internal/rpc"
	"github.com/rooch-network/rooch-go/internal/storage"
	"github.com/rs/zerolog"
)

// Node is a local node: a Backend served by the JSON-RPC server.
type Node struct {
	cfg     config.NodeConfig
	db      storage.DB
	ownsDB  bool
	backend *Backend
	server  *rpc.Server
	logger  zerolog.Logger
}

// New creates a node on an existing database. The caller keeps ownership
// of db.
func New(cfg config.NodeConfig, db storage.DB) (*Node, error) {
	backend, err := NewBackend(db, cfg.Version)
	if err != nil {
		return nil, err
	}
	addr := net.JoinHostPort(cfg.Addr, strconv.Itoa(cfg.Port))
	return &Node{
		cfg:     cfg,
		db:      db,
		backend: backend,
		server:  rpc.New(addr, backend, cfg),
		logger:  klog.WithComponent("node"),
	}, nil
}

// Open creates a node with its own badger database in dir, or in memory
// when cfg.InMemory is set. Stop closes the database.
func Open(cfg config.NodeConfig, dir string) (*Node, error) {
	var (
		db  *storage.BadgerDB
		err error
	)
	if cfg.InMemory {
		db, err = storage.NewBadgerInMemory()
	} else {
		db, err = storage.NewBadger(dir)
	}
	if err != nil {
		return nil, fmt.Errorf("open node db: %w", err)
	}

	n, err := New(cfg, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	n.ownsDB = true
	return n, nil
}

// NewTestNode starts a node on 127.0.0.1 with a random port and an
// in-memory store.
func NewTestNode(version string) (*Node, error) {
	n, err := New(config.NodeConfig{Addr: "127.0.0.1", Port: 0, Version: version}, storage.NewMemory())
	if err != nil {
		return nil, err
	}
	if err := n.Start(); err != nil {
		return nil, err
	}
	return n, nil
}

// Backend returns the node's state backend.
func (n *Node) Backend() *Backend { return n.backend }

// SetMetrics enables request metrics. Call before Start.
func (n *Node) SetMetrics(m *rpc.ServerMetrics) { n.server.SetMetrics(m) }

// Start binds the listener and serves in the background.
func (n *Node) Start() error {
	if err := n.server.Start(); err != nil {
		return err
	}
	n.logger.Info().
		Str("url", n.URL()).
		Str("version", n.backend.Version()).
		Msg("Local node started")
	return nil
}

// Addr returns the bound listener address.
func (n *Node) Addr() string { return n.server.Addr() }

// URL returns the http endpoint of the node.
func (n *Node) URL() string { return n.server.URL() }

// Stop shuts the server down and closes an owned database.
func (n *Node) Stop() error {
	err := n.server.Stop()
	if n.ownsDB {
		if cerr := n.db.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
