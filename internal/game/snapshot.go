package game

import "time"

// SessionSnapshot — сериализуемое состояние сессии, которое можно положить в Redis.
// Пул кандидатов не сохраняем: он детерминированно восстанавливается повтором
// истории ходов через оракул и фильтр.
type SessionSnapshot struct {
	SessionID string `json:"sessionId"`

	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`

	Phase   string `json:"phase"`
	Outcome string `json:"outcome"`

	Secret string `json:"secret"`
	Turn   int    `json:"turn"`

	History []TurnRecord `json:"history"`

	DeadlineMs int64 `json:"deadlineMs"` // unix millis, 0 если нет дедлайна

	GamesPlayed int `json:"gamesPlayed"`
	GamesWon    int `json:"gamesWon"`
}

func (s *Session) snapshotLocked() SessionSnapshot {
	var deadlineMs int64
	if !s.deadline.IsZero() {
		deadlineMs = s.deadline.UnixMilli()
	}

	return SessionSnapshot{
		SessionID: s.id,

		PlayerID:   s.playerID,
		PlayerName: s.playerName,

		Phase:   s.phase,
		Outcome: s.outcome,

		Secret: s.secret.String(),
		Turn:   s.turn,

		History: append([]TurnRecord(nil), s.history...),

		DeadlineMs: deadlineMs,

		GamesPlayed: s.gamesPlayed,
		GamesWon:    s.gamesWon,
	}
}

func (s *Session) restoreLocked(snap SessionSnapshot) error {
	secret, err := ParseCode(snap.Secret)
	if err != nil {
		return err
	}

	s.playerID = snap.PlayerID
	s.playerName = snap.PlayerName

	s.phase = snap.Phase
	s.outcome = snap.Outcome

	s.secret = secret
	s.turn = snap.Turn
	s.history = append([]TurnRecord(nil), snap.History...)

	if snap.DeadlineMs > 0 {
		s.deadline = time.UnixMilli(snap.DeadlineMs)
	} else {
		s.deadline = time.Time{}
	}

	s.gamesPlayed = snap.GamesPlayed
	s.gamesWon = snap.GamesWon

	// пул пересобираем повтором истории
	pool := NewPool()
	for _, rec := range s.history {
		guess, err := ParseCode(rec.Guess)
		if err != nil {
			return err
		}
		pool = pool.Filter(guess, Feedback{Bulls: rec.Bulls, Cows: rec.Cows})
	}
	s.pool = pool
	return nil
}
