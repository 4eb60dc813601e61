package store

import (
	"context"
	"sync"
	"time"

	"carriercheck/internal/domain"
	"carriercheck/pkg/platform/sentinel"
	"carriercheck/pkg/requestcontext"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStore keeps encoded documents in process. Expired entries are hidden
// on read and removed by PurgeExpired.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

func NewMemory() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry)}
}

// Put stores r until expiresAt. A zero expiresAt never expires.
func (s *MemoryStore) Put(_ context.Context, id string, r *domain.Result, expiresAt time.Time) error {
	data, err := encode(r)
	if err != nil {
		return err
	}
	entry := memoryEntry{data: data, expiresAt: expiresAt}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[id] = entry
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*domain.Result, error) {
	s.mu.RLock()
	entry, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok || entry.expired(requestcontext.Now(ctx)) {
		return nil, sentinel.ErrNotFound
	}
	return decode(entry.data)
}

// PurgeExpired removes entries expired as of now.
func (s *MemoryStore) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	for id, entry := range s.entries {
		if entry.expired(now) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed, nil
}

func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}
