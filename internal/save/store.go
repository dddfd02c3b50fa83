package save

import (
	"context"
	"errors"
	"sync"
)

// DefaultKey names the current save-format version. Older formats used other
// keys so saves never collide across versions.
const DefaultKey = "listaris.save.v3"

var (
	ErrNotFound = errors.New("save not found")
	ErrCorrupt  = errors.New("save is not a valid record")
)

// Store is a key/value blob store for serialized saves.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, body []byte) error
}

// MemoryStore keeps saves in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	body, ok := m.blobs[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), body...), nil
}

func (m *MemoryStore) Put(_ context.Context, key string, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = append([]byte(nil), body...)
	return nil
}
