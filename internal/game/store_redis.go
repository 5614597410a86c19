package game

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionPersistence — абстракция "положить/достать snapshot".
// Реализуем Redis-ом. Живёт только текущая сессия: завершённые игры
// истекают по TTL, архива истории между сессиями нет.
type SessionPersistence interface {
	Save(ctx context.Context, sessionID string, snap SessionSnapshot) error
	Load(ctx context.Context, sessionID string) (SessionSnapshot, bool, error)
}

type RedisSessionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisSessionStore(rdb *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb, ttl: ttl}
}

func (s *RedisSessionStore) key(sessionID string) string {
	return fmt.Sprintf("session:%s:snapshot", sessionID)
}

func (s *RedisSessionStore) Save(ctx context.Context, sessionID string, snap SessionSnapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.key(sessionID), b, s.ttl).Err()
}

func (s *RedisSessionStore) Load(ctx context.Context, sessionID string) (SessionSnapshot, bool, error) {
	val, err := s.rdb.Get(ctx, s.key(sessionID)).Bytes()
	if err == redis.Nil {
		return SessionSnapshot{}, false, nil
	}
	if err != nil {
		return SessionSnapshot{}, false, err
	}

	var snap SessionSnapshot
	if err := json.Unmarshal(val, &snap); err != nil {
		return SessionSnapshot{}, false, err
	}
	return snap, true, nil
}
