package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/colloquy/llm/embedding"
	"github.com/BaSui01/colloquy/types"
)

// VectorStoreConfig configures the in-memory vector store.
type VectorStoreConfig struct {
	// Dimension validates stored/query vectors when > 0.
	Dimension int

	// Now is for tests. Defaults to time.Now.
	Now func() time.Time
}

type vectorEntry struct {
	entry  types.MemoryEntry
	vector []float64
}

// VectorStore is an in-memory Store using cosine similarity over an Embedder.
// It supports metadata filtering by exact match. Suitable for single-process
// deployments and tests; swap in a remote vector database behind the same
// Store interface for anything larger.
type VectorStore struct {
	mu        sync.RWMutex
	items     map[string]vectorEntry
	embedder  embedding.Embedder
	dimension int
	now       func() time.Time
	logger    *zap.Logger
}

// NewVectorStore creates an embedder-backed in-memory store.
func NewVectorStore(embedder embedding.Embedder, config VectorStoreConfig, logger *zap.Logger) *VectorStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	now := config.Now
	if now == nil {
		now = time.Now
	}
	return &VectorStore{
		items:     make(map[string]vectorEntry),
		embedder:  embedder,
		dimension: config.Dimension,
		now:       now,
		logger:    logger.With(zap.String("component", "memory_vector_store")),
	}
}

func (s *VectorStore) Add(ctx context.Context, entry types.MemoryEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if entry.Text == "" {
		return fmt.Errorf("entry text is required")
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.now()
	}

	vector, err := s.embedder.EmbedQuery(ctx, entry.Text)
	if err != nil {
		return fmt.Errorf("embed memory entry: %w", err)
	}
	if s.dimension > 0 && len(vector) != s.dimension {
		return fmt.Errorf("vector dimension mismatch: got %d want %d", len(vector), s.dimension)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[entry.ID] = vectorEntry{entry: entry, vector: vector}
	return nil
}

func (s *VectorStore) Query(ctx context.Context, text string, k int, f Filter) ([]types.MemoryEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if k <= 0 {
		return []types.MemoryEntry{}, nil
	}

	query, err := s.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	type scored struct {
		entry types.MemoryEntry
		score float64
	}

	s.mu.RLock()
	candidates := make([]scored, 0, len(s.items))
	for _, it := range s.items {
		if !f.Matches(it.entry) {
			continue
		}
		candidates = append(candidates, scored{entry: it.entry, score: cosineSimilarity(query, it.vector)})
	}
	s.mu.RUnlock()

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		// Tie-break on recency so results are deterministic.
		return candidates[i].entry.Timestamp.After(candidates[j].entry.Timestamp)
	})

	if k > len(candidates) {
		k = len(candidates)
	}
	results := make([]types.MemoryEntry, k)
	for i := 0; i < k; i++ {
		results[i] = candidates[i].entry
	}
	return results, nil
}

func (s *VectorStore) Clear(ctx context.Context, f Filter) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if f.IsZero() {
		n := len(s.items)
		s.items = make(map[string]vectorEntry)
		s.logger.Info("memory cleared", zap.Int("removed", n))
		return nil
	}

	removed := 0
	for id, it := range s.items {
		if f.Matches(it.entry) {
			delete(s.items, id)
			removed++
		}
	}
	s.logger.Debug("memory entries removed",
		zap.Int("removed", removed),
		zap.String("agent_id", f.AgentID),
		zap.String("session_id", f.SessionID))
	return nil
}

func (s *VectorStore) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items), nil
}

func cosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
