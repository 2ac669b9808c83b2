// Package resolvecache caches the chain's answers for multi-chain address
// resolution.
package resolvecache

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	klog "github.com/rooch-network/rooch-go/internal/log"
	"github.com/rooch-network/rooch-go/internal/storage"
	"github.com/rooch-network/rooch-go/pkg/address"
	"github.com/rooch-network/rooch-go/pkg/types"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// DefaultSize is the number of entries kept in memory.
const DefaultSize = 1024

// keyPrefix namespaces cache entries in a shared database.
var keyPrefix = []byte("resolve/")

// Source answers resolution queries, normally an rpcclient.Client.
type Source interface {
	ResolveAddress(ctx context.Context, env address.MultiChainAddress) (types.Address, error)
}

// Stats counts cache activity.
type Stats struct {
	Hits   uint64
	Misses uint64
	Len    int
}

// Resolver resolves envelopes through Source, remembering answers that
// can never change. Bitcoin and Rooch addresses resolve by derivation, so
// their answers are cached; other chains resolve through a mapping that a
// later binding may replace, and always go to Source.
type Resolver struct {
	src    Source
	mem    *lru.Cache[string, types.Address]
	db     storage.DB // nil = memory only
	group  singleflight.Group
	logger zerolog.Logger

	hits   atomic.Uint64
	misses atomic.Uint64
}

// New creates a resolver with an in-memory LRU of size entries. db, when
// non-nil, persists entries across restarts.
func New(src Source, size int, db storage.DB) (*Resolver, error) {
	if size <= 0 {
		size = DefaultSize
	}
	mem, err := lru.New[string, types.Address](size)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	r := &Resolver{
		src:    src,
		mem:    mem,
		logger: klog.WithComponent("cache"),
	}
	if db != nil {
		r.db = storage.NewPrefixDB(db, keyPrefix)
	}
	return r, nil
}

// Cacheable reports whether answers for env are stable.
func Cacheable(env address.MultiChainAddress) bool {
	return env.ChainID == address.ChainBitcoin || env.ChainID == address.ChainRooch
}

// Resolve returns the Rooch address of env. Concurrent calls for the same
// envelope share one request.
func (r *Resolver) Resolve(ctx context.Context, env address.MultiChainAddress) (types.Address, error) {
	if !Cacheable(env) {
		r.misses.Add(1)
		return r.src.ResolveAddress(ctx, env)
	}

	enc, err := env.Encode()
	if err != nil {
		return types.Address{}, err
	}
	key := string(enc)

	if addr, ok := r.mem.Get(key); ok {
		r.hits.Add(1)
		return addr, nil
	}
	if addr, ok, err := r.load(enc); err != nil {
		return types.Address{}, err
	} else if ok {
		r.hits.Add(1)
		r.mem.Add(key, addr)
		return addr, nil
	}

	r.misses.Add(1)
	v, err, _ := r.group.Do(key, func() (interface{}, error) {
		addr, err := r.src.ResolveAddress(ctx, env)
		if err != nil {
			return nil, err
		}
		r.mem.Add(key, addr)
		if err := r.store(enc, addr); err != nil {
			r.logger.Warn().Err(err).Msg("Failed to persist resolution")
		}
		return addr, nil
	})
	if err != nil {
		return types.Address{}, err
	}
	return v.(types.Address), nil
}

func (r *Resolver) load(enc []byte) (types.Address, bool, error) {
	if r.db == nil {
		return types.Address{}, false, nil
	}
	data, err := r.db.Get(enc)
	if errors.Is(err, storage.ErrNotFound) {
		return types.Address{}, false, nil
	}
	if err != nil {
		return types.Address{}, false, fmt.Errorf("load resolution: %w", err)
	}
	addr, err := types.AddressFromBytes(data)
	if err != nil {
		return types.Address{}, false, fmt.Errorf("corrupt resolution entry: %w", err)
	}
	return addr, true, nil
}

func (r *Resolver) store(enc []byte, addr types.Address) error {
	if r.db == nil {
		return nil
	}
	return r.db.Put(enc, addr.Bytes())
}

// Stats returns hit and miss counts and the in-memory size.
func (r *Resolver) Stats() Stats {
	return Stats{
		Hits:   r.hits.Load(),
		Misses: r.misses.Load(),
		Len:    r.mem.Len(),
	}
}

// Purge drops every cached entry, persisted ones included.
func (r *Resolver) Purge() error {
	r.mem.Purge()
	if p, ok := r.db.(*storage.PrefixDB); ok {
		return p.DeleteAll()
	}
	return nil
}
