package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/colloquy/types"
)

func newRedisStore(t *testing.T, opts RedisTranscriptStoreOptions) (*RedisTranscriptStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisTranscriptStore(client, opts, nil), mr
}

func TestTranscriptAppendAndLoad(t *testing.T) {
	store, _ := newRedisStore(t, RedisTranscriptStoreOptions{})
	ctx := context.Background()

	msgs := []types.Message{
		types.NewMessage("Alice", "hello"),
		types.NewMessage("Bob", "hi there"),
		types.NewSystemMessage("Context switched to: space"),
	}
	for _, m := range msgs {
		require.NoError(t, store.Append(ctx, "sess-1", m))
	}

	loaded, err := store.Load(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, loaded, 3)
	for i, m := range loaded {
		assert.Equal(t, msgs[i].Sender, m.Sender)
		assert.Equal(t, msgs[i].Content, m.Content)
	}

	n, err := store.Len(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestTranscriptSessionsAreIsolated(t *testing.T) {
	store, _ := newRedisStore(t, RedisTranscriptStoreOptions{})
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "sess-1", types.NewMessage("Alice", "one")))
	require.NoError(t, store.Append(ctx, "sess-2", types.NewMessage("Bob", "two")))

	loaded, err := store.Load(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "one", loaded[0].Content)
}

func TestTranscriptDelete(t *testing.T) {
	store, _ := newRedisStore(t, RedisTranscriptStoreOptions{})
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "sess-1", types.NewMessage("Alice", "gone soon")))
	require.NoError(t, store.Delete(ctx, "sess-1"))

	n, err := store.Len(ctx, "sess-1")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestTranscriptLoadSkipsCorruptEntries(t *testing.T) {
	store, mr := newRedisStore(t, RedisTranscriptStoreOptions{})
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "sess-1", types.NewMessage("Alice", "valid")))
	mr.RPush("colloquy:transcript:sess-1", "{not json")

	loaded, err := store.Load(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "valid", loaded[0].Content)
}

func TestTranscriptTTLRefreshedOnAppend(t *testing.T) {
	store, mr := newRedisStore(t, RedisTranscriptStoreOptions{TTL: time.Minute})
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "sess-1", types.NewMessage("Alice", "hello")))
	assert.Equal(t, time.Minute, mr.TTL("colloquy:transcript:sess-1"))
}
