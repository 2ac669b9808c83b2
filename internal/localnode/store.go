package localnode

import (
	"errors"
	"fmt"

	"github.com/rooch-network/rooch-go/internal/storage"
	"github.com/rooch-network/rooch-go/pkg/bcs"
	"github.com/rooch-network/rooch-go/pkg/types"
)

var (
	prefixObject   = []byte("o/") // o/<objectID(32)> -> ObjectRecord (bcs)
	prefixSequence = []byte("s/") // s/<account(32)> -> u64 (bcs)
	prefixMapping  = []byte("m/") // m/<encoded envelope> -> address(32)
)

// ObjectRecord is an object as the node stores it. Value holds the BCS
// encoding of the object's struct.
type ObjectRecord struct {
	ID         types.Address
	Owner      types.Address
	Flag       uint8
	StateRoot  types.Hash
	Size       uint64
	CreatedAt  uint64
	UpdatedAt  uint64
	ObjectType string
	Value      []byte
}

var objectRecordType = bcs.StructType("ObjectRecord",
	bcs.FieldType{Name: "id", Type: bcs.AddressType()},
	bcs.FieldType{Name: "owner", Type: bcs.AddressType()},
	bcs.FieldType{Name: "flag", Type: bcs.U8Type()},
	bcs.FieldType{Name: "state_root", Type: bcs.AddressType()},
	bcs.FieldType{Name: "size", Type: bcs.U64Type()},
	bcs.FieldType{Name: "created_at", Type: bcs.U64Type()},
	bcs.FieldType{Name: "updated_at", Type: bcs.U64Type()},
	bcs.FieldType{Name: "object_type", Type: bcs.VectorType(bcs.U8Type())},
	bcs.FieldType{Name: "value", Type: bcs.VectorType(bcs.U8Type())},
)

func (r *ObjectRecord) encode() ([]byte, error) {
	return bcs.Encode(bcs.Struct("ObjectRecord",
		bcs.Field{Name: "id", Value: bcs.Address(r.ID)},
		bcs.Field{Name: "owner", Value: bcs.Address(r.Owner)},
		bcs.Field{Name: "flag", Value: bcs.U8(r.Flag)},
		bcs.Field{Name: "state_root", Value: bcs.Address(types.Address(r.StateRoot))},
		bcs.Field{Name: "size", Value: bcs.U64(r.Size)},
		bcs.Field{Name: "created_at", Value: bcs.U64(r.CreatedAt)},
		bcs.Field{Name: "updated_at", Value: bcs.U64(r.UpdatedAt)},
		bcs.Field{Name: "object_type", Value: bcs.Bytes([]byte(r.ObjectType))},
		bcs.Field{Name: "value", Value: bcs.Bytes(r.Value)},
	))
}

func decodeObjectRecord(data []byte) (*ObjectRecord, error) {
	v, err := bcs.Decode(data, objectRecordType)
	if err != nil {
		return nil, err
	}
	f := v.Fields()
	id, _ := f[0].Value.AsAddress()
	owner, _ := f[1].Value.AsAddress()
	flag, _ := f[2].Value.AsUint64()
	root, _ := f[3].Value.AsAddress()
	size, _ := f[4].Value.AsUint64()
	created, _ := f[5].Value.AsUint64()
	updated, _ := f[6].Value.AsUint64()
	objType, _ := f[7].Value.AsBytes()
	value, _ := f[8].Value.AsBytes()
	return &ObjectRecord{
		ID:         id,
		Owner:      owner,
		Flag:       uint8(flag),
		StateRoot:  types.Hash(root),
		Size:       size,
		CreatedAt:  created,
		UpdatedAt:  updated,
		ObjectType: string(objType),
		Value:      value,
	}, nil
}

// Store persists node state: objects, account sequence numbers and the
// multi-chain address mapping.
type Store struct {
	db storage.DB
}

// NewStore creates a state store on db.
func NewStore(db storage.DB) *Store {
	return &Store{db: db}
}

func objectKey(id types.Address) []byte {
	return append(append([]byte{}, prefixObject...), id[:]...)
}

func sequenceKey(account types.Address) []byte {
	return append(append([]byte{}, prefixSequence...), account[:]...)
}

func mappingKey(envelope []byte) []byte {
	return append(append([]byte{}, prefixMapping...), envelope...)
}

// PutObject stores an object record.
func (s *Store) PutObject(r *ObjectRecord) error {
	data, err := r.encode()
	if err != nil {
		return fmt.Errorf("object encode: %w", err)
	}
	return s.db.Put(objectKey(r.ID), data)
}

// GetObject retrieves an object. Missing objects return (nil, nil).
func (s *Store) GetObject(id types.Address) (*ObjectRecord, error) {
	data, err := s.db.Get(objectKey(id))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("object get: %w", err)
	}
	r, err := decodeObjectRecord(data)
	if err != nil {
		return nil, fmt.Errorf("object %s: %w", id.ShortString(), err)
	}
	return r, nil
}

// HasObject checks if an object exists.
func (s *Store) HasObject(id types.Address) (bool, error) {
	return s.db.Has(objectKey(id))
}

// ForEachObject iterates over all objects in id order.
// Return a non-nil error from fn to stop iteration early.
func (s *Store) ForEachObject(fn func(*ObjectRecord) error) error {
	return s.db.ForEach(prefixObject, func(key, value []byte) error {
		// Key layout: "o/" + objectID(32).
		if len(key) != len(prefixObject)+types.AddressSize {
			return nil // Malformed key, skip.
		}
		r, err := decodeObjectRecord(value)
		if err != nil {
			return nil // Skip corrupt entries.
		}
		return fn(r)
	})
}

// SequenceNumber returns the account's sequence number, 0 if the account
// has never been seen.
func (s *Store) SequenceNumber(account types.Address) (uint64, error) {
	data, err := s.db.Get(sequenceKey(account))
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("sequence get: %w", err)
	}
	v, err := bcs.Decode(data, bcs.U64Type())
	if err != nil {
		return 0, fmt.Errorf("sequence %s: %w", account.ShortString(), err)
	}
	n, _ := v.AsUint64()
	return n, nil
}

// SetSequenceNumber stores the account's sequence number.
func (s *Store) SetSequenceNumber(account types.Address, n uint64) error {
	return s.db.Put(sequenceKey(account), bcs.MustEncode(bcs.U64(n)))
}

// Mapping returns the Rooch address bound to an encoded multi-chain
// envelope.
func (s *Store) Mapping(envelope []byte) (types.Address, bool, error) {
	data, err := s.db.Get(mappingKey(envelope))
	if errors.Is(err, storage.ErrNotFound) {
		return types.Address{}, false, nil
	}
	if err != nil {
		return types.Address{}, false, fmt.Errorf("mapping get: %w", err)
	}
	addr, err := types.AddressFromBytes(data)
	if err != nil {
		return types.Address{}, false, fmt.Errorf("mapping value: %w", err)
	}
	return addr, true, nil
}

// PutMapping binds an encoded envelope to a Rooch address.
func (s *Store) PutMapping(envelope []byte, addr types.Address) error {
	return s.db.Put(mappingKey(envelope), addr.Bytes())
}

// WriteObjects stores records atomically when the database supports
// batches, one by one otherwise.
func (s *Store) WriteObjects(records []*ObjectRecord) error {
	batcher, ok := s.db.(storage.Batcher)
	if !ok {
		for _, r := range records {
			if err := s.PutObject(r); err != nil {
				return err
			}
		}
		return nil
	}

	batch := batcher.NewBatch()
	for _, r := range records {
		data, err := r.encode()
		if err != nil {
			return fmt.Errorf("object encode: %w", err)
		}
		if err := batch.Put(objectKey(r.ID), data); err != nil {
			return err
		}
	}
	return batch.Commit()
}
