package vocab

import (
	"testing"

	badger "github.com/dgraph-io/badger/v4"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	opts := badger.DefaultOptions(t.TempDir())
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		t.Fatalf("failed to open badger db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestPersistAndLoadRoundTrip(t *testing.T) {
	db := openTestDB(t)

	v := New(false)
	if err := v.BuildFromWords([]string{"ant", "bee", "cat", `"long text"@fr`}); err != nil {
		t.Fatalf("BuildFromWords: %v", err)
	}
	if err := v.Persist(db); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	loaded := New(false)
	if err := loaded.Load(db); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if loaded.Len() != v.Len() || loaded.ExternalLen() != v.ExternalLen() {
		t.Fatalf("loaded vocabulary shape mismatch: got (%d,%d), want (%d,%d)",
			loaded.Len(), loaded.ExternalLen(), v.Len(), v.ExternalLen())
	}
	for i := 0; i < v.Len(); i++ {
		want, _ := v.At(ID(i))
		got, ok := loaded.At(ID(i))
		if !ok || got != want {
			t.Errorf("At(%d) = %q, want %q", i, got, want)
		}
	}
}
