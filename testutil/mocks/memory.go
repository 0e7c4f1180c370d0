package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/BaSui01/colloquy/memory"
	"github.com/BaSui01/colloquy/types"
)

// RecorderStore is an in-memory memory.Store that records every call. Query
// returns the newest matching entries without any similarity ranking.
type RecorderStore struct {
	mu      sync.Mutex
	entries []types.MemoryEntry
	addErr  error
}

// NewRecorderStore creates an empty store.
func NewRecorderStore() *RecorderStore {
	return &RecorderStore{}
}

// FailAdds makes every subsequent Add return err.
func (s *RecorderStore) FailAdds(err error) *RecorderStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addErr = err
	return s
}

// Add implements memory.Store.
func (s *RecorderStore) Add(ctx context.Context, entry types.MemoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.addErr != nil {
		return s.addErr
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	s.entries = append(s.entries, entry)
	return nil
}

// Query implements memory.Store.
func (s *RecorderStore) Query(ctx context.Context, text string, k int, f memory.Filter) ([]types.MemoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []types.MemoryEntry
	for i := len(s.entries) - 1; i >= 0 && len(out) < k; i-- {
		if f.Matches(s.entries[i]) {
			out = append(out, s.entries[i])
		}
	}
	return out, nil
}

// Clear implements memory.Store.
func (s *RecorderStore) Clear(ctx context.Context, f memory.Filter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f.IsZero() {
		s.entries = nil
		return nil
	}
	kept := s.entries[:0]
	for _, e := range s.entries {
		if !f.Matches(e) {
			kept = append(kept, e)
		}
	}
	s.entries = kept
	return nil
}

// Count implements memory.Store.
func (s *RecorderStore) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries), nil
}

// Entries returns a copy of everything stored so far.
func (s *RecorderStore) Entries() []types.MemoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.MemoryEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// EntriesFor returns stored entries matching the filter, oldest first.
func (s *RecorderStore) EntriesFor(f memory.Filter) []types.MemoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []types.MemoryEntry
	for _, e := range s.entries {
		if f.Matches(e) {
			out = append(out, e)
		}
	}
	return out
}
