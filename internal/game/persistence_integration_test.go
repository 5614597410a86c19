//go:build integration

package game

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newRedisClient(t *testing.T) *redis.Client {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, rdb.Ping(ctx).Err(), "redis is not reachable")
	return rdb
}

func TestRedisPersistence_CreateSaveLoad(t *testing.T) {
	ctx := context.Background()
	rdb := newRedisClient(t)

	// Чистим Redis, чтобы тест был детерминированный
	require.NoError(t, rdb.FlushDB(ctx).Err())

	ttl := 1 * time.Hour
	persist := NewRedisSessionStore(rdb, ttl)

	cfg := Config{}
	svc1 := NewSessionService(cfg, persist)

	sessionID := "s_test_1"

	// 1) Создали сессию и сохранили snapshot
	_, err := svc1.Create(ctx, sessionID)
	require.NoError(t, err)

	// 2) В памяти "поиграли": владелец, пара ходов
	s, ok, err := svc1.GetOrLoad(ctx, sessionID)
	require.NoError(t, err)
	require.True(t, ok)

	code, _ := s.Attach("u1", "Alice", newTestConn())
	require.Empty(t, code)

	require.NoError(t, s.SubmitGuess("0123"))
	require.NoError(t, s.SubmitGuess("4567"))

	s.mu.Lock()
	wantTurn := s.turn
	wantPhase := s.phase
	wantPool := len(s.pool)
	wantSecret := s.secret
	s.mu.Unlock()

	// 3) Симулируем рестарт: новый SessionService с пустым in-memory
	svc2 := NewSessionService(cfg, persist)
	s2, ok, err := svc2.GetOrLoad(ctx, sessionID)
	require.NoError(t, err)
	require.True(t, ok)

	// 4) Проверяем, что состояние восстановилось, включая пересобранный пул
	s2.mu.Lock()
	defer s2.mu.Unlock()

	require.Equal(t, wantPhase, s2.phase)
	require.Equal(t, wantTurn, s2.turn)
	require.Equal(t, wantSecret, s2.secret)
	require.Len(t, s2.history, wantTurn)
	require.Equal(t, wantPool, len(s2.pool))
	require.Equal(t, "u1", s2.playerID)
}

func TestRedisPersistence_RestoreFinishedGame(t *testing.T) {
	ctx := context.Background()
	rdb := newRedisClient(t)
	require.NoError(t, rdb.FlushDB(ctx).Err())

	ttl := 1 * time.Hour
	persist := NewRedisSessionStore(rdb, ttl)

	cfg := Config{}
	svc := NewSessionService(cfg, persist)

	sessionID := "s_test_2"
	s, err := svc.Create(ctx, sessionID)
	require.NoError(t, err)

	code, _ := s.Attach("u1", "Alice", newTestConn())
	require.Empty(t, code)

	// выигрываем, подглядев секрет (это тест, нам можно)
	s.mu.Lock()
	secret := s.secret.String()
	s.mu.Unlock()
	require.NoError(t, s.SubmitGuess(secret))

	// Рестарт:
	svc2 := NewSessionService(cfg, persist)
	s2, ok, err := svc2.GetOrLoad(ctx, sessionID)
	require.NoError(t, err)
	require.True(t, ok)

	s2.mu.Lock()
	defer s2.mu.Unlock()

	require.Equal(t, "finished", s2.phase)
	require.Equal(t, "won", s2.outcome)
	require.Equal(t, 1, s2.gamesPlayed)
	require.Equal(t, 1, s2.gamesWon)
	require.Len(t, s2.pool, 1)
}
