// Package memory implements the long-term memory store: semantic retrieval
// over everything the agents have said, namespaced per agent via metadata.
package memory

import (
	"context"

	"github.com/BaSui01/colloquy/types"
)

// Filter narrows queries and deletions by exact metadata match.
// Zero-value fields match everything; a fully zero Filter matches all entries.
type Filter struct {
	SessionID string
	AgentID   string
	Topic     string
}

// Matches reports whether the entry satisfies every set field.
func (f Filter) Matches(e types.MemoryEntry) bool {
	if f.SessionID != "" && e.SessionID != f.SessionID {
		return false
	}
	if f.AgentID != "" && e.AgentID != f.AgentID {
		return false
	}
	if f.Topic != "" && e.Topic != f.Topic {
		return false
	}
	return true
}

// IsZero reports whether no filter field is set.
func (f Filter) IsZero() bool {
	return f == Filter{}
}

// Store is the long-term memory collaborator interface. Implementations must
// be safe for concurrent use; the session loop writes while control callers
// may query or purge.
type Store interface {
	// Add appends one entry. A missing ID is assigned by the store.
	Add(ctx context.Context, entry types.MemoryEntry) error

	// Query returns up to k entries most similar to text, restricted by f.
	Query(ctx context.Context, text string, k int, f Filter) ([]types.MemoryEntry, error)

	// Clear deletes entries matching f; a zero Filter deletes everything.
	Clear(ctx context.Context, f Filter) error

	// Count returns the number of stored entries.
	Count(ctx context.Context) (int, error)
}
