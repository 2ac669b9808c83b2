package localnode

import (
	"encoding/json"
	"fmt"
	"sync"

	klog "github.com/rooch-network/rooch-go/internal/log"
	"github.com/rooch-network/rooch-go/internal/rpc"
	"github.com/rooch-network/rooch-go/internal/storage"
	"github.com/rooch-network/rooch-go/pkg/bcs"
	"github.com/rooch-network/rooch-go/pkg/types"
	"github.com/rs/zerolog"
)

// DefaultVersion is the API version a node reports unless configured
// otherwise.
const DefaultVersion = "0.8.4"

// LocalChainID is the chain id of a local Rooch network.
const LocalChainID = 4

// PlaceholderStateRoot is the state root of an object without fields:
// the sparse merkle placeholder "SPARSE_MERKLE_PLACEHOLDER_HASH".
var PlaceholderStateRoot = types.Hash{
	0x53, 0x50, 0x41, 0x52, 0x53, 0x45, 0x5f, 0x4d,
	0x45, 0x52, 0x4b, 0x4c, 0x45, 0x5f, 0x50, 0x4c,
	0x41, 0x43, 0x45, 0x48, 0x4f, 0x4c, 0x44, 0x45,
	0x52, 0x5f, 0x48, 0x41, 0x53, 0x48, 0x00, 0x00,
}

// Well-known object types.
const (
	ModuleStoreType = "0x2::module_store::ModuleStore"
	TimestampType   = "0x2::timestamp::Timestamp"
	ChainIDType     = "0x3::chain_id::ChainID"
	AccountType     = "0x2::account::Account"
)

// objectSchemas maps object types to the schema of their value, for
// decoded output.
var objectSchemas = map[string]bcs.Type{
	ModuleStoreType: bcs.StructType(ModuleStoreType),
	TimestampType: bcs.StructType(TimestampType,
		bcs.FieldType{Name: "milliseconds", Type: bcs.U64Type()},
	),
	ChainIDType: bcs.StructType(ChainIDType,
		bcs.FieldType{Name: "id", Type: bcs.U64Type()},
	),
	AccountType: bcs.StructType(AccountType,
		bcs.FieldType{Name: "sequence_number", Type: bcs.U64Type()},
	),
}

// Backend serves the node's JSON-RPC methods from a Store.
type Backend struct {
	mu      sync.RWMutex
	store   *Store
	version string
	chainID uint64
	views   map[string]*viewFunction
	logger  zerolog.Logger
}

var _ rpc.Backend = (*Backend)(nil)

// NewBackend creates a backend on db, writing the genesis objects if the
// database is empty. An empty version means DefaultVersion.
func NewBackend(db storage.DB, version string) (*Backend, error) {
	if version == "" {
		version = DefaultVersion
	}
	b := &Backend{
		store:   NewStore(db),
		version: version,
		chainID: LocalChainID,
		logger:  klog.WithComponent("node"),
	}
	b.views = b.registerViews()

	if err := b.initGenesis(); err != nil {
		return nil, fmt.Errorf("genesis: %w", err)
	}
	return b, nil
}

// Store returns the backing state store.
func (b *Backend) Store() *Store { return b.store }

func (b *Backend) initGenesis() error {
	root := types.MustParseAddress("0x2")
	exists, err := b.store.HasObject(root)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	records := []*ObjectRecord{
		genesisObject("0x2", ModuleStoreType, bcs.Struct(ModuleStoreType)),
		genesisObject("0x3", TimestampType, bcs.Struct(TimestampType,
			bcs.Field{Name: "milliseconds", Value: bcs.U64(0)},
		)),
		genesisObject("0x4", ChainIDType, bcs.Struct(ChainIDType,
			bcs.Field{Name: "id", Value: bcs.U64(LocalChainID)},
		)),
	}
	if err := b.store.WriteObjects(records); err != nil {
		return err
	}
	b.logger.Info().Int("objects", len(records)).Msg("Genesis state written")
	return nil
}

func genesisObject(id, objectType string, value bcs.Value) *ObjectRecord {
	return &ObjectRecord{
		ID:         types.MustParseAddress(id),
		StateRoot:  PlaceholderStateRoot,
		ObjectType: objectType,
		Value:      bcs.MustEncode(value),
	}
}

// Version returns the reported API version.
func (b *Backend) Version() string { return b.version }

// ChainID returns the chain id of the node.
func (b *Backend) ChainID() uint64 { return b.chainID }

// SetSequenceNumber sets an account's sequence number.
func (b *Backend) SetSequenceNumber(account types.Address, n uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.store.SetSequenceNumber(account, n)
}

// BindAddress maps a multi-chain envelope to a Rooch address, the way a
// first transaction from a foreign account does on chain.
func (b *Backend) BindAddress(envelope []byte, addr types.Address) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.store.PutMapping(envelope, addr)
}

// GetStates returns one entry per object or resource in the path; missing
// entries are nil.
func (b *Backend) GetStates(accessPath string, opts rpc.StateOptions) ([]*rpc.ObjectStateView, error) {
	path, err := types.ParseAccessPath(accessPath)
	if err != nil {
		return nil, &rpc.Error{Code: rpc.CodeInvalidParams, Message: err.Error()}
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	switch path.Kind {
	case types.AccessPathObject:
		out := make([]*rpc.ObjectStateView, len(path.ObjectIDs))
		for i, id := range path.ObjectIDs {
			r, err := b.store.GetObject(id)
			if err != nil {
				return nil, err
			}
			if r == nil {
				continue
			}
			if out[i], err = stateView(r, opts); err != nil {
				return nil, err
			}
		}
		return out, nil

	case types.AccessPathResource:
		out := make([]*rpc.ObjectStateView, len(path.Resources))
		for i, res := range path.Resources {
			r, err := b.resource(path.Account, res)
			if err != nil {
				return nil, err
			}
			if r == nil {
				continue
			}
			if out[i], err = stateView(r, opts); err != nil {
				return nil, err
			}
		}
		return out, nil

	default:
		return nil, &rpc.Error{Code: rpc.CodeInvalidParams, Message: "unsupported access path"}
	}
}

// resource synthesizes account resources. Only 0x2::account::Account
// exists, for accounts with a stored sequence number.
func (b *Backend) resource(account types.Address, resourceType string) (*ObjectRecord, error) {
	if resourceType != AccountType {
		return nil, nil
	}
	seq, err := b.store.SequenceNumber(account)
	if err != nil {
		return nil, err
	}
	if seq == 0 {
		return nil, nil
	}
	value := bcs.Struct(AccountType, bcs.Field{Name: "sequence_number", Value: bcs.U64(seq)})
	return &ObjectRecord{
		ID:         account,
		Owner:      account,
		StateRoot:  PlaceholderStateRoot,
		ObjectType: AccountType,
		Value:      bcs.MustEncode(value),
	}, nil
}

func stateView(r *ObjectRecord, opts rpc.StateOptions) (*rpc.ObjectStateView, error) {
	view := &rpc.ObjectStateView{
		ID:         r.ID.String(),
		Owner:      r.Owner.String(),
		Flag:       r.Flag,
		StateRoot:  "0x" + r.StateRoot.String(),
		Size:       rpc.StrU64(r.Size),
		CreatedAt:  rpc.StrU64(r.CreatedAt),
		UpdatedAt:  rpc.StrU64(r.UpdatedAt),
		ObjectType: r.ObjectType,
		Value:      fmt.Sprintf("0x%x", r.Value),
	}

	if opts.Decode {
		if schema, ok := objectSchemas[r.ObjectType]; ok {
			v, err := bcs.Decode(r.Value, schema)
			if err != nil {
				return nil, fmt.Errorf("decode %s: %w", r.ObjectType, err)
			}
			if view.DecodedValue, err = marshalValue(v); err != nil {
				return nil, err
			}
		}
	}
	if opts.ShowDisplay {
		view.DisplayFields = json.RawMessage("null")
	}
	return view, nil
}
