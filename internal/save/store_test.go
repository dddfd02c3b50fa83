package save

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"listaris/internal/config"
)

func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := store.Get(ctx, DefaultKey); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
	if err := store.Put(ctx, DefaultKey, []byte(`{"coins":1}`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Put(ctx, DefaultKey, []byte(`{"coins":2}`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err := store.Get(ctx, DefaultKey)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != `{"coins":2}` {
		t.Fatalf("expected latest body got %s", got)
	}
	if _, err := store.Get(ctx, "listaris.save.v2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("keys must not collide, got %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStoreCopiesBodies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	body := []byte(`{"coins":1}`)
	if err := store.Put(ctx, "k", body); err != nil {
		t.Fatalf("put: %v", err)
	}
	body[2] = 'X'
	got, _ := store.Get(ctx, "k")
	if string(got) != `{"coins":1}` {
		t.Fatalf("store must not alias caller buffers, got %s", got)
	}
}

func TestFileStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "saves")
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	exerciseStore(t, store)

	info, err := os.Stat(filepath.Join(dir, DefaultKey+".json"))
	if err != nil {
		t.Fatalf("stat save file: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected 0600 save file got %v", info.Mode().Perm())
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("expected temp files to be cleaned up, found %d entries", len(entries))
	}
}

func TestFileStoreRejectsPathKeys(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	if err := store.Put(context.Background(), "../escape", []byte("{}")); err == nil {
		t.Fatalf("expected path-like key to fail")
	}
}

func TestSQLiteStore(t *testing.T) {
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "saves.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer store.Close()
	exerciseStore(t, store)
}

func TestOpenSelectsStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	tests := []struct {
		name string
		cfg  config.Config
	}{
		{name: "memory", cfg: config.Config{Store: config.StoreMemory}},
		{name: "file", cfg: config.Config{Store: config.StoreFile, SaveDir: filepath.Join(dir, "saves")}},
		{name: "sqlite", cfg: config.Config{Store: config.StoreSQLite, SQLitePath: filepath.Join(dir, "listaris.db")}},
	}
	for _, tc := range tests {
		store, closeStore, err := Open(ctx, tc.cfg, nil)
		if err != nil {
			t.Fatalf("%s: open: %v", tc.name, err)
		}
		exerciseStore(t, store)
		closeStore()
	}

	if _, closeStore, err := Open(ctx, config.Config{Store: "redis"}, nil); err == nil {
		t.Fatalf("expected error for unknown store")
	} else {
		closeStore()
	}
}
