package storage

// PrefixDB wraps a DB and prepends a fixed prefix to all keys, giving the
// resolution cache and the local node's tables their own namespaces in one
// underlying database.
type PrefixDB struct {
	inner  DB
	prefix []byte
}

// NewPrefixDB creates a new PrefixDB wrapping inner with the given prefix.
func NewPrefixDB(inner DB, prefix []byte) *PrefixDB {
	p := make([]byte, len(prefix))
	copy(p, prefix)
	return &PrefixDB{inner: inner, prefix: p}
}

func (p *PrefixDB) prefixed(key []byte) []byte {
	return joinKey(p.prefix, key)
}

func joinKey(prefix, key []byte) []byte {
	out := make([]byte, len(prefix)+len(key))
	copy(out, prefix)
	copy(out[len(prefix):], key)
	return out
}

// Get retrieves a value by key.
func (p *PrefixDB) Get(key []byte) ([]byte, error) {
	return p.inner.Get(p.prefixed(key))
}

// Put stores a key-value pair.
func (p *PrefixDB) Put(key, value []byte) error {
	return p.inner.Put(p.prefixed(key), value)
}

// Delete removes a key.
func (p *PrefixDB) Delete(key []byte) error {
	return p.inner.Delete(p.prefixed(key))
}

// Has checks if a key exists.
func (p *PrefixDB) Has(key []byte) (bool, error) {
	return p.inner.Has(p.prefixed(key))
}

// ForEach iterates over all keys with the given prefix (within the PrefixDB namespace).
// The callback receives keys with the PrefixDB prefix stripped, so callers see only
// their logical keyspace.
func (p *PrefixDB) ForEach(prefix []byte, fn func(key, value []byte) error) error {
	fullPrefix := p.prefixed(prefix)
	return p.inner.ForEach(fullPrefix, func(key, value []byte) error {
		// Strip the PrefixDB prefix so the caller sees only its logical key.
		stripped := key[len(p.prefix):]
		return fn(stripped, value)
	})
}

// DeleteAll removes all keys under this PrefixDB's namespace from the inner DB.
func (p *PrefixDB) DeleteAll() error {
	// Collect all keys first to avoid modifying during iteration.
	var keys [][]byte
	err := p.inner.ForEach(p.prefix, func(key, _ []byte) error {
		k := make([]byte, len(key))
		copy(k, key)
		keys = append(keys, k)
		return nil
	})
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := p.inner.Delete(key); err != nil {
			return err
		}
	}
	return nil
}

// Close is a no-op. The inner DB owns its lifecycle.
func (p *PrefixDB) Close() error {
	return nil
}

// NewBatch creates a batch that prepends the prefix to all keys, delegating
// to the inner DB's batch for atomic commits.
func (p *PrefixDB) NewBatch() Batch {
	batcher, ok := p.inner.(Batcher)
	if !ok {
		// Fallback: non-atomic batch using individual writes.
		return &prefixFallbackBatch{db: p}
	}
	return &prefixBatch{inner: batcher.NewBatch(), prefix: p.prefix}
}

type prefixBatch struct {
	inner  Batch
	prefix []byte
}

func (pb *prefixBatch) Put(key, value []byte) error {
	return pb.inner.Put(joinKey(pb.prefix, key), value)
}

func (pb *prefixBatch) Delete(key []byte) error {
	return pb.inner.Delete(joinKey(pb.prefix, key))
}

func (pb *prefixBatch) Commit() error {
	return pb.inner.Commit()
}

// prefixFallbackBatch buffers writes and applies them one at a time
// when the inner DB doesn't support batching.
type prefixFallbackBatch struct {
	db  *PrefixDB
	ops []batchOp
}

func (fb *prefixFallbackBatch) Put(key, value []byte) error {
	fb.ops = append(fb.ops, batchOp{key: cloneBytes(key), value: cloneBytes(value)})
	return nil
}

func (fb *prefixFallbackBatch) Delete(key []byte) error {
	fb.ops = append(fb.ops, batchOp{key: cloneBytes(key), delete: true})
	return nil
}

func (fb *prefixFallbackBatch) Commit() error {
	for _, op := range fb.ops {
		var err error
		if op.delete {
			err = fb.db.Delete(op.key)
		} else {
			err = fb.db.Put(op.key, op.value)
		}
		if err != nil {
			return err
		}
	}
	fb.ops = nil
	return nil
}
