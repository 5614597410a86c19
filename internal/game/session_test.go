package game

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConn() *ClientConn {
	return &ClientConn{
		ws:   nil,
		send: make(chan []byte, 256),
	}
}

func readEnvelopesNonBlocking(c *ClientConn) []Envelope {
	var envs []Envelope
	for {
		select {
		case msg := <-c.send:
			var env Envelope
			if json.Unmarshal(msg, &env) == nil {
				envs = append(envs, env)
			}
		default:
			return envs
		}
	}
}

func findLastState(envs []Envelope) (StatePayload, bool) {
	for i := len(envs) - 1; i >= 0; i-- {
		if envs[i].Type != "state" {
			continue
		}
		var st StatePayload
		if json.Unmarshal(envs[i].Payload, &st) == nil {
			return st, true
		}
	}
	return StatePayload{}, false
}

func newTestSession(t *testing.T, secret string, cfg Config) *Session {
	t.Helper()
	return NewSession("s1", mustCode(t, secret), cfg)
}

func TestSession_Scenarios(t *testing.T) {
	type scenario struct {
		name string
		run  func(t *testing.T)
	}

	cases := []scenario{
		{
			name: "first attach becomes owner and starts the game",
			run: func(t *testing.T) {
				s := newTestSession(t, "1234", Config{})
				code, _ := s.Attach("u1", "Alice", newTestConn())
				if code != "" {
					t.Fatalf("unexpected code: %s", code)
				}

				s.mu.Lock()
				defer s.mu.Unlock()

				if s.phase != "playing" {
					t.Fatalf("phase=%s want playing", s.phase)
				}
				if len(s.pool) != UniverseSize {
					t.Fatalf("pool=%d want full universe", len(s.pool))
				}
			},
		},
		{
			name: "owner may reconnect, stranger is rejected",
			run: func(t *testing.T) {
				s := newTestSession(t, "1234", Config{})
				c1 := newTestConn()
				code, _ := s.Attach("u1", "Alice", c1)
				if code != "" {
					t.Fatalf("attach u1: %s", code)
				}

				code, _ = s.Attach("u2", "Bob", newTestConn())
				if code != "session_taken" {
					t.Fatalf("expected session_taken, got %q", code)
				}

				s.Detach(c1)
				code, _ = s.Attach("u1", "Alice", newTestConn())
				if code != "" {
					t.Fatalf("reconnect u1: %s", code)
				}
			},
		},
		{
			name: "stale detach after reconnect keeps the new connection",
			run: func(t *testing.T) {
				s := newTestSession(t, "1234", Config{})
				c1 := newTestConn()
				s.Attach("u1", "Alice", c1)

				// переподключение: новый сокет вытесняет старый
				c2 := newTestConn()
				code, _ := s.Attach("u1", "Alice", c2)
				if code != "" {
					t.Fatalf("reconnect u1: %s", code)
				}

				// обработчик старого сокета завершается позже и зовёт Detach;
				// свежее соединение не должно от этого онеметь
				s.Detach(c1)

				s.mu.Lock()
				conn, connected := s.conn, s.connected
				s.mu.Unlock()
				if conn != c2 || !connected {
					t.Fatalf("stale detach dropped the live connection")
				}

				s.Detach(c2)
				s.mu.Lock()
				defer s.mu.Unlock()
				if s.conn != nil || s.connected {
					t.Fatalf("detach of the live connection must clear it")
				}
			},
		},
		{
			name: "winning guess finishes the game and reveals the secret",
			run: func(t *testing.T) {
				s := newTestSession(t, "1234", Config{})
				c := newTestConn()
				s.Attach("u1", "Alice", c)

				require.NoError(t, s.SubmitGuess("1234"))

				st, ok := findLastState(readEnvelopesNonBlocking(c))
				require.True(t, ok)
				assert.Equal(t, "finished", st.Phase)
				assert.Equal(t, "won", st.Outcome)
				assert.Equal(t, "1234", st.RevealedSecret)
				assert.Equal(t, 1, st.Series.Played)
				assert.Equal(t, 1, st.Series.Won)

				require.Len(t, st.History, 1)
				assert.Equal(t, 4, st.History[0].Bulls)
				assert.Equal(t, 0, st.History[0].Cows)
			},
		},
		{
			name: "guess records information gain and narrows the pool",
			run: func(t *testing.T) {
				s := newTestSession(t, "1234", Config{})
				c := newTestConn()
				s.Attach("u1", "Alice", c)

				require.NoError(t, s.SubmitGuess("4321")) // (0,4)

				st, ok := findLastState(readEnvelopesNonBlocking(c))
				require.True(t, ok)
				assert.Equal(t, "playing", st.Phase)

				require.Len(t, st.History, 1)
				rec := st.History[0]
				assert.Equal(t, 0, rec.Bulls)
				assert.Equal(t, 4, rec.Cows)
				assert.Less(t, rec.PoolSize, UniverseSize)
				assert.Greater(t, rec.PoolSize, 0)
				assert.InDelta(t, rec.BitsBefore-rec.BitsAfter, rec.BitsGained, 1e-9)
				assert.Greater(t, rec.BitsGained, 0.0)
				assert.Equal(t, rec.PoolSize, st.PoolSize)
			},
		},
		{
			name: "secret is not revealed while playing",
			run: func(t *testing.T) {
				s := newTestSession(t, "1234", Config{})
				c := newTestConn()
				s.Attach("u1", "Alice", c)

				require.NoError(t, s.SubmitGuess("5678"))

				st, ok := findLastState(readEnvelopesNonBlocking(c))
				require.True(t, ok)
				assert.Empty(t, st.RevealedSecret)
			},
		},
		{
			name: "malformed guess is rejected before the oracle",
			run: func(t *testing.T) {
				s := newTestSession(t, "1234", Config{})
				s.Attach("u1", "Alice", newTestConn())

				for _, bad := range []string{"123", "12345", "1a23", "1123"} {
					if err := s.SubmitGuess(bad); err == nil {
						t.Fatalf("SubmitGuess(%q) accepted malformed code", bad)
					}
				}

				s.mu.Lock()
				defer s.mu.Unlock()
				if s.turn != 0 || len(s.history) != 0 {
					t.Fatalf("malformed guess consumed a turn: turn=%d history=%d", s.turn, len(s.history))
				}
			},
		},
		{
			name: "max turns exhausted => lost",
			run: func(t *testing.T) {
				s := newTestSession(t, "1234", Config{MaxTurns: 2})
				c := newTestConn()
				s.Attach("u1", "Alice", c)

				require.NoError(t, s.SubmitGuess("5678"))
				require.NoError(t, s.SubmitGuess("5679"))

				st, ok := findLastState(readEnvelopesNonBlocking(c))
				require.True(t, ok)
				assert.Equal(t, "finished", st.Phase)
				assert.Equal(t, "lost", st.Outcome)
				assert.Equal(t, "1234", st.RevealedSecret)
			},
		},
		{
			name: "turn timeout finishes the game",
			run: func(t *testing.T) {
				s := newTestSession(t, "1234", Config{TurnDuration: 40 * time.Millisecond})
				s.Attach("u1", "Alice", newTestConn())

				time.Sleep(70 * time.Millisecond)

				s.mu.Lock()
				defer s.mu.Unlock()
				assert.Equal(t, "finished", s.phase)
				assert.Equal(t, "timeout", s.outcome)
			},
		},
		{
			name: "new game resets state but keeps the series",
			run: func(t *testing.T) {
				s := newTestSession(t, "1234", Config{})
				c := newTestConn()
				s.Attach("u1", "Alice", c)

				require.NoError(t, s.SubmitGuess("1234"))
				require.Error(t, s.SubmitGuess("5678"), "finished game must not accept guesses")
				require.NoError(t, s.NewGame())

				st, ok := findLastState(readEnvelopesNonBlocking(c))
				require.True(t, ok)
				assert.Equal(t, "playing", st.Phase)
				assert.Empty(t, st.Outcome)
				assert.Equal(t, 0, st.Turn)
				assert.Empty(t, st.History)
				assert.Equal(t, UniverseSize, st.PoolSize)
				assert.Equal(t, 1, st.Series.Played)
				assert.Equal(t, 1, st.Series.Won)
			},
		},
		{
			name: "new game only after finished",
			run: func(t *testing.T) {
				s := newTestSession(t, "1234", Config{})
				s.Attach("u1", "Alice", newTestConn())
				require.Error(t, s.NewGame())
			},
		},
	}

	for _, c := range cases {
		t.Run(c.name, c.run)
	}
}

func TestSession_Hint(t *testing.T) {
	cases := []struct {
		name string
		run  func(t *testing.T)
	}{
		{
			name: "hint on a fresh game is the fixed opening",
			run: func(t *testing.T) {
				s := newTestSession(t, "1234", Config{})
				s.Attach("u1", "Alice", newTestConn())

				h, err := s.RequestHint(context.Background())
				require.NoError(t, err)
				assert.Equal(t, "0123", h.Guess)
			},
		},
		{
			name: "hint stays consistent with observed feedback",
			run: func(t *testing.T) {
				s := newTestSession(t, "1234", Config{})
				s.Attach("u1", "Alice", newTestConn())

				require.NoError(t, s.SubmitGuess("1256")) // (2,0)

				h, err := s.RequestHint(context.Background())
				require.NoError(t, err)

				// предложение обязано пережить уже полученный фидбек
				hinted := mustCode(t, h.Guess)
				fb := Score(hinted, mustCode(t, "1256"))
				assert.Equal(t, Feedback{Bulls: 2, Cows: 0}, fb)
				assert.GreaterOrEqual(t, h.ExpectedBits, 0.0)
			},
		},
		{
			name: "hint is refused outside of play",
			run: func(t *testing.T) {
				s := newTestSession(t, "1234", Config{})
				c := newTestConn()
				s.Attach("u1", "Alice", c)
				require.NoError(t, s.SubmitGuess("1234"))

				_, err := s.RequestHint(context.Background())
				require.Error(t, err)
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, tc.run)
	}
}

func TestSession_SnapshotRestore_RebuildsPool(t *testing.T) {
	s := newTestSession(t, "1234", Config{})
	s.Attach("u1", "Alice", newTestConn())

	require.NoError(t, s.SubmitGuess("4321"))
	require.NoError(t, s.SubmitGuess("5678"))

	s.mu.Lock()
	snap := s.snapshotLocked()
	wantPool := len(s.pool)
	s.mu.Unlock()

	restored := NewSession("s1", Code{}, Config{})
	restored.mu.Lock()
	require.NoError(t, restored.restoreLocked(snap))
	defer restored.mu.Unlock()

	assert.Equal(t, "playing", restored.phase)
	assert.Equal(t, 2, restored.turn)
	assert.Equal(t, mustCode(t, "1234"), restored.secret)
	assert.Len(t, restored.history, 2)
	assert.Equal(t, wantPool, len(restored.pool))
	assert.Equal(t, "u1", restored.playerID)
	assert.Equal(t, "Alice", restored.playerName)
}
