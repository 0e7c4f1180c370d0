package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/BaSui01/colloquy/types"
)

// TranscriptStore persists the full transcript of a session, independent of
// the bounded in-memory history. Appends happen on the loop goroutine; a nil
// store disables persistence.
type TranscriptStore interface {
	// Append adds one message to the session's transcript.
	Append(ctx context.Context, sessionID string, msg types.Message) error

	// Load returns the full transcript in append order.
	Load(ctx context.Context, sessionID string) ([]types.Message, error)

	// Len returns the transcript length.
	Len(ctx context.Context, sessionID string) (int, error)

	// Delete removes the session's transcript.
	Delete(ctx context.Context, sessionID string) error
}

// RedisTranscriptStore keeps each transcript in a Redis list of JSON-encoded
// messages.
type RedisTranscriptStore struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
	logger    *zap.Logger
}

// RedisTranscriptStoreOptions configures the store.
type RedisTranscriptStoreOptions struct {
	// KeyPrefix defaults to "colloquy:transcript:".
	KeyPrefix string

	// TTL expires idle transcripts; zero keeps them forever.
	TTL time.Duration
}

// NewRedisTranscriptStore creates a store on an existing Redis client.
func NewRedisTranscriptStore(client redis.UniversalClient, opts RedisTranscriptStoreOptions, logger *zap.Logger) *RedisTranscriptStore {
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = "colloquy:transcript:"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisTranscriptStore{
		client:    client,
		keyPrefix: opts.KeyPrefix,
		ttl:       opts.TTL,
		logger:    logger.With(zap.String("component", "transcript_store")),
	}
}

func (s *RedisTranscriptStore) key(sessionID string) string {
	return s.keyPrefix + sessionID
}

// Append implements TranscriptStore.
func (s *RedisTranscriptStore) Append(ctx context.Context, sessionID string, msg types.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	key := s.key(sessionID)
	if err := s.client.RPush(ctx, key, data).Err(); err != nil {
		return fmt.Errorf("append transcript: %w", err)
	}
	if s.ttl > 0 {
		if err := s.client.Expire(ctx, key, s.ttl).Err(); err != nil {
			s.logger.Warn("transcript ttl refresh failed", zap.String("session_id", sessionID), zap.Error(err))
		}
	}
	return nil
}

// Load implements TranscriptStore.
func (s *RedisTranscriptStore) Load(ctx context.Context, sessionID string) ([]types.Message, error) {
	raw, err := s.client.LRange(ctx, s.key(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("load transcript: %w", err)
	}

	msgs := make([]types.Message, 0, len(raw))
	for _, item := range raw {
		var m types.Message
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			s.logger.Warn("skipping corrupt transcript entry",
				zap.String("session_id", sessionID),
				zap.Error(err))
			continue
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

// Len implements TranscriptStore.
func (s *RedisTranscriptStore) Len(ctx context.Context, sessionID string) (int, error) {
	n, err := s.client.LLen(ctx, s.key(sessionID)).Result()
	if err != nil {
		return 0, fmt.Errorf("transcript length: %w", err)
	}
	return int(n), nil
}

// Delete implements TranscriptStore.
func (s *RedisTranscriptStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("delete transcript: %w", err)
	}
	return nil
}
