package session

import "sync"

// BestScoreKey is the key under which the best score is persisted.
const BestScoreKey = "topScore2048"

// BestScoreStore is a string-keyed integer store holding the best score.
// storage.Store implements it on top of SQLite.
type BestScoreStore interface {
	GetInt(key string) (int, error)
	SetInt(key string, value int) error
}

// MemoryStore keeps values in a map. A missing key reads as zero.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]int)}
}

// GetInt returns the value stored under key, or 0.
func (m *MemoryStore) GetInt(key string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[key], nil
}

// SetInt stores value under key.
func (m *MemoryStore) SetInt(key string, value int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

var _ BestScoreStore = (*MemoryStore)(nil)
