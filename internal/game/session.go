package game

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"
)

type Config struct {
	TurnDuration time.Duration // 0 => таймер выключен
	MaxTurns     int           // 0 => без лимита попыток
	HintTimeout  time.Duration // 0 => подсказка без дедлайна
}

// Session — одна одиночная игра против загаданного сервером секрета.
// Вся советчицкая часть (Suggest/ExpectedEntropy) видит только pool,
// секрет сюда не попадает.
type Session struct {
	id string
	mu sync.Mutex

	phase   string // waiting_player|playing|finished
	outcome string // won|lost|timeout|error|""

	secret Code
	pool   Pool

	turn      int
	history   []TurnRecord
	deadline  time.Time
	turnTimer *time.Timer
	turnToken int64

	cfg Config

	playerID   string
	playerName string
	conn       *ClientConn
	connected  bool

	// серия живёт только в памяти сессии, никуда не сохраняется между сессиями
	gamesPlayed int
	gamesWon    int

	onPersist func(SessionSnapshot)
}

func NewSession(id string, secret Code, cfg Config) *Session {
	return &Session{
		id:     id,
		phase:  "waiting_player",
		secret: secret,
		pool:   NewPool(),
		cfg:    cfg,
	}
}

// Attach binds the first authenticated player as the session owner.
// The owner may reconnect; anyone else is rejected — there is no second slot.
func (s *Session) Attach(userID, displayName string, cc *ClientConn) (errCode, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// reconnect?
	if s.playerID == userID && s.playerID != "" {
		s.conn = cc
		s.connected = true
		return "", ""
	}

	// new join
	if s.playerID == "" {
		s.playerID = userID
		s.playerName = displayName
		s.conn = cc
		s.connected = true
		if s.phase == "waiting_player" {
			s.phase = "playing"
			s.armTurnTimerLocked()
		}
		s.persistLocked()
		return "", ""
	}

	return "session_taken", "session belongs to another player"
}

// Detach clears the connection cc brought in. Если игрок уже переподключился
// и s.conn указывает на новый сокет, поздний Detach старого обработчика
// ничего не трогает.
func (s *Session) Detach(cc *ClientConn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != cc {
		return
	}

	// фаза игры не откатывается: часы хода продолжают тикать без игрока
	s.connected = false
	s.conn = nil
}

// SubmitGuess scores text against the secret, records the attempt with its
// information gain, narrows the pool and decides whether the game is over.
func (s *Session) SubmitGuess(text string) error {
	guess, err := ParseCode(text)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != "playing" {
		return errors.New("game is not in playing phase")
	}

	before := s.pool.Uncertainty()
	fb := Score(s.secret, guess)
	next := s.pool.Filter(guess, fb)
	after := next.Uncertainty()

	s.turn++
	rec := TurnRecord{
		Turn:       s.turn,
		Guess:      guess.String(),
		Bulls:      fb.Bulls,
		Cows:       fb.Cows,
		PoolSize:   len(next),
		BitsBefore: before,
		BitsAfter:  after,
		BitsGained: before - after,
	}
	s.history = append(s.history, rec)
	s.pool = next

	s.sendLocked(Envelope{Type: "guess_result", Payload: mustJSON(rec)})

	switch {
	case fb.Bulls == CodeLen:
		s.finishLocked("won")
	case len(next) == 0:
		// недостижимо, пока оракул и секрет согласованы; на всякий случай
		// не падаем, а закрываем игру как сломанную
		s.sendLocked(Envelope{
			Type:    "error",
			Payload: mustJSON(ErrorPayload{Code: "state_inconsistent", Message: "no candidates remain; session state is corrupt"}),
		})
		s.finishLocked("error")
	case s.cfg.MaxTurns > 0 && s.turn >= s.cfg.MaxTurns:
		s.finishLocked("lost")
	default:
		// часы перезапускаются на каждый ход
		s.armTurnTimerLocked()
	}

	s.sendStateLocked()
	s.persistLocked()
	return nil
}

// RequestHint runs the advisor over the current pool. The mutex is released
// during the scan: pools are immutable values (Filter allocates a new one),
// so the captured slice stays valid while guesses keep arriving.
func (s *Session) RequestHint(ctx context.Context) (HintPayload, error) {
	s.mu.Lock()
	if s.phase != "playing" {
		s.mu.Unlock()
		return HintPayload{}, errors.New("hints are only available during play")
	}
	pool := s.pool
	s.mu.Unlock()

	if s.cfg.HintTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.HintTimeout)
		defer cancel()
	}

	start := time.Now()
	code, err := Suggest(ctx, pool)
	if err != nil {
		return HintPayload{}, err
	}
	return HintPayload{
		Guess:        code.String(),
		ExpectedBits: ExpectedEntropy(code, pool),
		ThinkingMs:   time.Since(start).Milliseconds(),
	}, nil
}

// NewGame starts the next game in the same session once the current one is
// finished: fresh secret, full pool, history wiped, series kept.
func (s *Session) NewGame() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != "finished" {
		return errors.New("new game available only after the current one finished")
	}

	// останавливаем таймер на всякий случай
	if s.turnTimer != nil {
		s.turnTimer.Stop()
	}

	s.secret = RandomCode()
	s.pool = NewPool()
	s.turn = 0
	s.history = nil
	s.outcome = ""
	s.phase = "playing"
	s.armTurnTimerLocked()

	s.sendLocked(Envelope{
		Type:    "new_game_started",
		Payload: mustJSON(map[string]any{"series": s.seriesLocked()}),
	})
	s.sendStateLocked()
	s.persistLocked()
	return nil
}

func (s *Session) SendError(code, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sendLocked(Envelope{
		Type:    "error",
		Payload: mustJSON(ErrorPayload{Code: code, Message: message}),
	})
}

func (s *Session) SendState() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sendStateLocked()
}

func (s *Session) SendHint(h HintPayload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sendLocked(Envelope{Type: "hint", Payload: mustJSON(h)})
}

func (s *Session) armTurnTimerLocked() {
	if s.cfg.TurnDuration <= 0 {
		s.deadline = time.Time{}
		return
	}

	s.deadline = time.Now().Add(s.cfg.TurnDuration)
	s.turnToken++
	token := s.turnToken

	if s.turnTimer != nil {
		s.turnTimer.Stop()
	}
	s.turnTimer = time.AfterFunc(s.cfg.TurnDuration, func() {
		s.onTurnTimeout(token)
	})
}

func (s *Session) onTurnTimeout(token int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != "playing" {
		return
	}
	if token != s.turnToken {
		return // старый таймер
	}

	s.finishLocked("timeout")
	s.sendStateLocked()
	s.persistLocked()
}

func (s *Session) finishLocked(outcome string) {
	s.phase = "finished"
	s.outcome = outcome
	s.deadline = time.Time{}
	if s.turnTimer != nil {
		s.turnTimer.Stop()
	}

	s.gamesPlayed++
	if outcome == "won" {
		s.gamesWon++
	}

	s.sendLocked(Envelope{
		Type: "game_finished",
		Payload: mustJSON(map[string]any{
			"outcome": outcome,
			"secret":  s.secret.String(),
			"turns":   s.turn,
			"series":  s.seriesLocked(),
		}),
	})
}

func (s *Session) seriesLocked() Series {
	return Series{Played: s.gamesPlayed, Won: s.gamesWon}
}

func (s *Session) buildStateLocked() StatePayload {
	st := StatePayload{
		SessionID:       s.id,
		PlayerName:      s.playerName,
		Connected:       s.connected,
		Phase:           s.phase,
		Outcome:         s.outcome,
		Turn:            s.turn,
		MaxTurns:        s.cfg.MaxTurns,
		DeadlineMs:      toMs(s.deadline),
		PoolSize:        len(s.pool),
		UncertaintyBits: s.pool.Uncertainty(),
		History:         s.history,
		Series:          s.seriesLocked(),
	}
	if s.phase == "finished" {
		st.RevealedSecret = s.secret.String()
	}
	return st
}

func (s *Session) sendStateLocked() {
	if s.conn == nil {
		return
	}
	s.sendLocked(Envelope{Type: "state", Payload: mustJSON(s.buildStateLocked())})
}

func (s *Session) sendLocked(env Envelope) {
	if s.conn == nil {
		return
	}
	b, _ := json.Marshal(env)
	select {
	case s.conn.send <- b:
	default:
		// MVP: если клиент не успевает читать, просто дропаем (позже сделаем backpressure)
	}
}

func toMs(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func (s *Session) persistLocked() {
	if s.onPersist == nil {
		return
	}
	s.onPersist(s.snapshotLocked())
}
