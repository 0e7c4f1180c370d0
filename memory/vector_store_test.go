package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/colloquy/memory"
	"github.com/BaSui01/colloquy/testutil/mocks"
	"github.com/BaSui01/colloquy/types"
)

// mapEmbedder returns fixed vectors for known texts, making similarity
// rankings explicit in tests.
type mapEmbedder struct {
	vectors map[string][]float64
}

func (m *mapEmbedder) EmbedQuery(ctx context.Context, text string) ([]float64, error) {
	if v, ok := m.vectors[text]; ok {
		return v, nil
	}
	return []float64{0, 0, 1}, nil
}

func (m *mapEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, t := range texts {
		v, err := m.EmbedQuery(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (m *mapEmbedder) Dimensions() int { return 3 }
func (m *mapEmbedder) Name() string    { return "map-embedder" }

func TestQueryRanksBySimilarity(t *testing.T) {
	emb := &mapEmbedder{vectors: map[string][]float64{
		"cats are great":     {1, 0, 0},
		"dogs are loyal":     {0.9, 0.1, 0},
		"tax law is dense":   {0, 1, 0},
		"tell me about cats": {1, 0, 0},
	}}
	store := memory.NewVectorStore(emb, memory.VectorStoreConfig{}, nil)
	ctx := context.Background()

	for _, text := range []string{"cats are great", "dogs are loyal", "tax law is dense"} {
		require.NoError(t, store.Add(ctx, types.MemoryEntry{Text: text, AgentID: "alice"}))
	}

	got, err := store.Query(ctx, "tell me about cats", 2, memory.Filter{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "cats are great", got[0].Text)
	assert.Equal(t, "dogs are loyal", got[1].Text)
}

func TestQueryRespectsFilters(t *testing.T) {
	store := memory.NewVectorStore(mocks.NewFakeEmbedder(8), memory.VectorStoreConfig{}, nil)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, types.MemoryEntry{Text: "alice s1", AgentID: "alice", SessionID: "s1"}))
	require.NoError(t, store.Add(ctx, types.MemoryEntry{Text: "alice s2", AgentID: "alice", SessionID: "s2"}))
	require.NoError(t, store.Add(ctx, types.MemoryEntry{Text: "bob s1", AgentID: "bob", SessionID: "s1"}))

	got, err := store.Query(ctx, "anything", 10, memory.Filter{AgentID: "alice"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, e := range got {
		assert.Equal(t, "alice", e.AgentID)
	}

	got, err = store.Query(ctx, "anything", 10, memory.Filter{AgentID: "alice", SessionID: "s1"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "alice s1", got[0].Text)
}

func TestQueryZeroKReturnsEmpty(t *testing.T) {
	store := memory.NewVectorStore(mocks.NewFakeEmbedder(8), memory.VectorStoreConfig{}, nil)
	ctx := context.Background()
	require.NoError(t, store.Add(ctx, types.MemoryEntry{Text: "something"}))

	got, err := store.Query(ctx, "something", 0, memory.Filter{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAddAssignsIDAndTimestamp(t *testing.T) {
	fixed := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	store := memory.NewVectorStore(mocks.NewFakeEmbedder(8), memory.VectorStoreConfig{
		Now: func() time.Time { return fixed },
	}, nil)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, types.MemoryEntry{Text: "hello", AgentID: "alice"}))

	got, err := store.Query(ctx, "hello", 1, memory.Filter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.NotEmpty(t, got[0].ID)
	assert.Equal(t, fixed, got[0].Timestamp)
}

func TestAddRejectsEmptyText(t *testing.T) {
	store := memory.NewVectorStore(mocks.NewFakeEmbedder(8), memory.VectorStoreConfig{}, nil)
	assert.Error(t, store.Add(context.Background(), types.MemoryEntry{}))
}

func TestAddValidatesDimension(t *testing.T) {
	store := memory.NewVectorStore(mocks.NewFakeEmbedder(8), memory.VectorStoreConfig{Dimension: 16}, nil)
	assert.Error(t, store.Add(context.Background(), types.MemoryEntry{Text: "wrong dims"}))
}

func TestClearSelective(t *testing.T) {
	store := memory.NewVectorStore(mocks.NewFakeEmbedder(8), memory.VectorStoreConfig{}, nil)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, types.MemoryEntry{Text: "a", AgentID: "alice"}))
	require.NoError(t, store.Add(ctx, types.MemoryEntry{Text: "b", AgentID: "bob"}))

	require.NoError(t, store.Clear(ctx, memory.Filter{AgentID: "alice"}))

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := store.Query(ctx, "b", 10, memory.Filter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "bob", got[0].AgentID)
}

func TestClearAll(t *testing.T) {
	store := memory.NewVectorStore(mocks.NewFakeEmbedder(8), memory.VectorStoreConfig{}, nil)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, types.MemoryEntry{Text: "a"}))
	require.NoError(t, store.Add(ctx, types.MemoryEntry{Text: "b"}))

	require.NoError(t, store.Clear(ctx, memory.Filter{}))

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
