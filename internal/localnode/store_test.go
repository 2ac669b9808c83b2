package localnode

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rooch-network/rooch-go/internal/storage"
	"github.com/rooch-network/rooch-go/pkg/types"
)

func TestStore_ObjectRoundtrip(t *testing.T) {
	s := NewStore(storage.NewMemory())
	r := &ObjectRecord{
		ID:         types.MustParseAddress("0x42"),
		Owner:      types.MustParseAddress("0x7"),
		Flag:       1,
		StateRoot:  PlaceholderStateRoot,
		Size:       3,
		CreatedAt:  100,
		UpdatedAt:  200,
		ObjectType: "0x2::demo::Thing",
		Value:      []byte{1, 2, 3},
	}
	if err := s.PutObject(r); err != nil {
		t.Fatalf("PutObject: %v", err)
	}
	got, err := s.GetObject(r.ID)
	if err != nil {
		t.Fatalf("GetObject: %v", err)
	}
	if diff := cmp.Diff(r, got); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}

	missing, err := s.GetObject(types.MustParseAddress("0x43"))
	if err != nil || missing != nil {
		t.Errorf("GetObject(missing) = %v, %v; want nil, nil", missing, err)
	}
	if ok, _ := s.HasObject(r.ID); !ok {
		t.Error("HasObject = false")
	}
}

func TestStore_ForEachObjectOrdered(t *testing.T) {
	s := NewStore(storage.NewMemory())
	ids := []string{"0x9", "0x1", "0x5"}
	var records []*ObjectRecord
	for _, id := range ids {
		records = append(records, &ObjectRecord{ID: types.MustParseAddress(id), ObjectType: "t"})
	}
	if err := s.WriteObjects(records); err != nil {
		t.Fatalf("WriteObjects: %v", err)
	}
	// Unrelated keys under other prefixes are not visited.
	if err := s.SetSequenceNumber(types.MustParseAddress("0x1"), 4); err != nil {
		t.Fatal(err)
	}

	var got []string
	err := s.ForEachObject(func(r *ObjectRecord) error {
		got = append(got, r.ID.ShortString())
		return nil
	})
	if err != nil {
		t.Fatalf("ForEachObject: %v", err)
	}
	if diff := cmp.Diff([]string{"0x1", "0x5", "0x9"}, got); diff != "" {
		t.Errorf("order (-want +got):\n%s", diff)
	}
}

func TestStore_SequenceNumbers(t *testing.T) {
	s := NewStore(storage.NewMemory())
	acct := types.MustParseAddress("0xabc")
	if n, err := s.SequenceNumber(acct); err != nil || n != 0 {
		t.Fatalf("fresh account = %d, %v; want 0", n, err)
	}
	if err := s.SetSequenceNumber(acct, 17); err != nil {
		t.Fatal(err)
	}
	if n, _ := s.SequenceNumber(acct); n != 17 {
		t.Errorf("sequence = %d, want 17", n)
	}
}

func TestStore_Mapping(t *testing.T) {
	s := NewStore(storage.NewMemory())
	env := []byte{0x3c, 0, 0, 0, 0, 0, 0, 0, 0x14}
	if _, ok, err := s.Mapping(env); ok || err != nil {
		t.Fatalf("unbound mapping = %v, %v", ok, err)
	}
	want := types.MustParseAddress("0x1234")
	if err := s.PutMapping(env, want); err != nil {
		t.Fatal(err)
	}
	got, ok, err := s.Mapping(env)
	if err != nil || !ok || got != want {
		t.Errorf("Mapping() = %s, %v, %v", got, ok, err)
	}
}

func TestStore_Badger(t *testing.T) {
	db, err := storage.NewBadger(t.TempDir())
	if err != nil {
		t.Fatalf("NewBadger: %v", err)
	}
	defer db.Close()

	s := NewStore(db)
	records := []*ObjectRecord{
		{ID: types.MustParseAddress("0x2"), ObjectType: ModuleStoreType},
		{ID: types.MustParseAddress("0x3"), ObjectType: TimestampType, Value: make([]byte, 8)},
	}
	if err := s.WriteObjects(records); err != nil {
		t.Fatalf("WriteObjects: %v", err)
	}
	got, err := s.GetObject(records[1].ID)
	if err != nil || got == nil || got.ObjectType != TimestampType {
		t.Fatalf("GetObject = %+v, %v", got, err)
	}
}
