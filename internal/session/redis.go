package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/varsilias/ollama-studio/internal/apperr"
	"github.com/varsilias/ollama-studio/internal/conversation"
)

// RedisStore keeps live sessions in memory and mirrors a snapshot of each one
// to Redis after every committed turn, so a restarted server can pick up where
// it left off. Redis failures on read fall back to a fresh session.
type RedisStore struct {
	*MemoryStore
	rdb *redis.Client
	ttl time.Duration
	log *slog.Logger
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration, log *slog.Logger) *RedisStore {
	return &RedisStore{MemoryStore: NewMemoryStore(), rdb: rdb, ttl: ttl, log: log}
}

func (s *RedisStore) Get(ctx context.Context, id string) (*conversation.Session, error) {
	if id == "" {
		return nil, apperr.Invalid("session id", "empty")
	}
	if cs, ok := s.lookup(id); ok {
		return cs, nil
	}
	cs, err := s.load(ctx, id)
	switch {
	case err == nil:
		return s.adopt(cs), nil
	case errors.Is(err, redis.Nil):
	default:
		s.log.Warn("session restore failed", "session", id, "err", err)
	}
	return s.MemoryStore.Get(ctx, id)
}

func (s *RedisStore) Save(ctx context.Context, cs *conversation.Session) error {
	if err := s.MemoryStore.Save(ctx, cs); err != nil {
		return err
	}
	raw, err := json.Marshal(cs.Snapshot())
	if err != nil {
		return fmt.Errorf("failed to marshal session %s: %w", cs.ID(), err)
	}
	if err := s.rdb.Set(ctx, sessionKey(cs.ID()), raw, s.ttl).Err(); err != nil {
		return apperr.Transport("redis set", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.MemoryStore.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.rdb.Del(ctx, sessionKey(id)).Err(); err != nil {
		return apperr.Transport("redis del", err)
	}
	return nil
}

func (s *RedisStore) load(ctx context.Context, id string) (*conversation.Session, error) {
	raw, err := s.rdb.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		return nil, err
	}
	var snap conversation.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session %s: %w", id, err)
	}
	return conversation.Restore(snap)
}

func sessionKey(id string) string {
	return fmt.Sprintf("session_%v", id)
}
