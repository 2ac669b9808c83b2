package storage

import (
	"errors"
	"testing"
)

func TestPrefixDB_Namespaces(t *testing.T) {
	inner := NewMemory()
	cache := NewPrefixDB(inner, []byte("cache/"))
	node := NewPrefixDB(inner, []byte("node/"))

	if err := cache.Put([]byte("k"), []byte("resolved")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := node.Put([]byte("k"), []byte("state")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	if v, _ := cache.Get([]byte("k")); string(v) != "resolved" {
		t.Errorf("cache.Get = %q", v)
	}
	if v, _ := node.Get([]byte("k")); string(v) != "state" {
		t.Errorf("node.Get = %q", v)
	}
	if v, _ := inner.Get([]byte("cache/k")); string(v) != "resolved" {
		t.Errorf("inner key layout: got %q", v)
	}
	if _, err := cache.Get([]byte("node/k")); !errors.Is(err, ErrNotFound) {
		t.Errorf("cross-namespace Get error = %v, want ErrNotFound", err)
	}

	if err := cache.Delete([]byte("k")); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if ok, _ := cache.Has([]byte("k")); ok {
		t.Error("Has after Delete = true")
	}
	if ok, _ := node.Has([]byte("k")); !ok {
		t.Error("Delete leaked into another namespace")
	}
}

func TestPrefixDB_ForEachStripsPrefix(t *testing.T) {
	inner := NewMemory()
	db := NewPrefixDB(inner, []byte("node/"))
	db.Put([]byte("obj/1"), []byte("a"))
	db.Put([]byte("obj/2"), []byte("b"))
	db.Put([]byte("seq/1"), []byte("c"))
	inner.Put([]byte("obj/1"), []byte("outside"))

	var keys []string
	err := db.ForEach([]byte("obj/"), func(key, value []byte) error {
		keys = append(keys, string(key))
		return nil
	})
	if err != nil {
		t.Fatalf("ForEach: %v", err)
	}
	if len(keys) != 2 || keys[0] != "obj/1" || keys[1] != "obj/2" {
		t.Fatalf("ForEach keys = %v, want [obj/1 obj/2]", keys)
	}
}

func TestPrefixDB_DeleteAll(t *testing.T) {
	inner := NewMemory()
	a := NewPrefixDB(inner, []byte("a/"))
	b := NewPrefixDB(inner, []byte("b/"))
	a.Put([]byte("k1"), []byte("v1"))
	a.Put([]byte("k2"), []byte("v2"))
	b.Put([]byte("k1"), []byte("other"))

	if err := a.DeleteAll(); err != nil {
		t.Fatalf("DeleteAll: %v", err)
	}
	if ok, _ := a.Has([]byte("k1")); ok {
		t.Error("a still has k1 after DeleteAll")
	}
	if v, _ := b.Get([]byte("k1")); string(v) != "other" {
		t.Errorf("b.Get = %q, want other", v)
	}

	empty := NewPrefixDB(inner, []byte("empty/"))
	if err := empty.DeleteAll(); err != nil {
		t.Fatalf("DeleteAll on empty: %v", err)
	}
}

func TestPrefixDB_Batch(t *testing.T) {
	inner := NewMemory()
	db := NewPrefixDB(inner, []byte("n/"))
	b := db.NewBatch()
	b.Put([]byte("x"), []byte("1"))
	b.Put([]byte("y"), []byte("2"))
	if err := b.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if v, _ := inner.Get([]byte("n/y")); string(v) != "2" {
		t.Errorf("inner n/y = %q", v)
	}
}

// plainDB hides MemoryDB's Batcher implementation.
type plainDB struct{ DB }

func TestPrefixDB_FallbackBatch(t *testing.T) {
	inner := NewMemory()
	db := NewPrefixDB(plainDB{inner}, []byte("n/"))
	db.Put([]byte("gone"), []byte("x"))

	b := db.NewBatch()
	b.Put([]byte("x"), []byte("1"))
	b.Delete([]byte("gone"))
	if err := b.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if v, _ := inner.Get([]byte("n/x")); string(v) != "1" {
		t.Errorf("inner n/x = %q", v)
	}
	if ok, _ := inner.Has([]byte("n/gone")); ok {
		t.Error("fallback delete not applied")
	}
}

func TestPrefixDB_CloseIsNoop(t *testing.T) {
	inner := NewMemory()
	db := NewPrefixDB(inner, []byte("x/"))
	db.Put([]byte("key"), []byte("val"))
	if err := db.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if v, err := inner.Get([]byte("x/key")); err != nil || string(v) != "val" {
		t.Fatalf("inner.Get after Close = %q, %v", v, err)
	}
}
