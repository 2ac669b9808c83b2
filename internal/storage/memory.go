package storage

import (
	"sort"
	"strings"
	"sync"
)

// MemoryDB implements DB using an in-memory map. It is safe for concurrent
// use.
type MemoryDB struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory creates a new in-memory database.
func NewMemory() *MemoryDB {
	return &MemoryDB{
		data: make(map[string][]byte),
	}
}

// Get retrieves a copy of the value stored under key.
func (m *MemoryDB) Get(key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[string(key)]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneBytes(v), nil
}

// Put stores a key-value pair.
func (m *MemoryDB) Put(key, value []byte) error {
	m.mu.Lock()
	m.data[string(key)] = cloneBytes(value)
	m.mu.Unlock()
	return nil
}

// Delete removes a key.
func (m *MemoryDB) Delete(key []byte) error {
	m.mu.Lock()
	delete(m.data, string(key))
	m.mu.Unlock()
	return nil
}

// Has checks if a key exists.
func (m *MemoryDB) Has(key []byte) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[string(key)]
	return ok, nil
}

// ForEach iterates over all keys with the given prefix in key order. The
// callback runs on a snapshot, so it may write to the database.
func (m *MemoryDB) ForEach(prefix []byte, fn func(key, value []byte) error) error {
	p := string(prefix)
	type kv struct {
		k string
		v []byte
	}
	m.mu.RLock()
	var entries []kv
	for k, v := range m.data {
		if strings.HasPrefix(k, p) {
			entries = append(entries, kv{k, cloneBytes(v)})
		}
	}
	m.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].k < entries[j].k })
	for _, e := range entries {
		if err := fn([]byte(e.k), e.v); err != nil {
			return err
		}
	}
	return nil
}

// NewBatch returns a batch applied under a single lock.
func (m *MemoryDB) NewBatch() Batch {
	return &memoryBatch{db: m}
}

// Close closes the database.
func (m *MemoryDB) Close() error {
	return nil
}

type memoryBatch struct {
	db  *MemoryDB
	ops []batchOp
}

type batchOp struct {
	key    []byte
	value  []byte
	delete bool
}

func (b *memoryBatch) Put(key, value []byte) error {
	b.ops = append(b.ops, batchOp{key: cloneBytes(key), value: cloneBytes(value)})
	return nil
}

func (b *memoryBatch) Delete(key []byte) error {
	b.ops = append(b.ops, batchOp{key: cloneBytes(key), delete: true})
	return nil
}

func (b *memoryBatch) Commit() error {
	b.db.mu.Lock()
	defer b.db.mu.Unlock()
	for _, op := range b.ops {
		if op.delete {
			delete(b.db.data, string(op.key))
		} else {
			b.db.data[string(op.key)] = op.value
		}
	}
	b.ops = nil
	return nil
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
