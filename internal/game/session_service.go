package game

import (
	"context"
	"sync"
	"time"
)

// SessionService отвечает за:
// - in-memory кэш сессий
// - восстановление сессий из persistent storage (Redis)
type SessionService struct {
	mu sync.Mutex
	in map[string]*Session

	cfg     Config
	persist SessionPersistence
}

func NewSessionService(cfg Config, persist SessionPersistence) *SessionService {
	return &SessionService{
		in:      make(map[string]*Session),
		cfg:     cfg,
		persist: persist,
	}
}

func (s *SessionService) Create(ctx context.Context, sessionID string) (*Session, error) {
	// секрет выбирается один раз на сессию и дальше не меняется
	sess := NewSession(sessionID, RandomCode(), s.cfg)

	// hook: любое изменение сессии будет сохранять snapshot. Сессия живёт
	// дольше HTTP-запроса, который её создал, поэтому внутри хука нельзя
	// использовать ctx запроса — он уже отменён к моменту поздних Save.
	sess.onPersist = func(snap SessionSnapshot) {
		_ = s.persist.Save(context.Background(), sessionID, snap) // MVP: без логирования
	}

	// первичное сохранение
	sess.mu.Lock()
	snap := sess.snapshotLocked()
	sess.mu.Unlock()
	if err := s.persist.Save(ctx, sessionID, snap); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.in[sessionID] = sess
	s.mu.Unlock()

	return sess, nil
}

func (s *SessionService) GetOrLoad(ctx context.Context, sessionID string) (*Session, bool, error) {
	s.mu.Lock()
	sess, ok := s.in[sessionID]
	s.mu.Unlock()
	if ok {
		return sess, true, nil
	}

	snap, found, err := s.persist.Load(ctx, sessionID)
	if err != nil || !found {
		return nil, false, err
	}

	sess = NewSession(sessionID, Code{}, s.cfg)
	sess.mu.Lock()
	if err := sess.restoreLocked(snap); err != nil {
		sess.mu.Unlock()
		return nil, false, err
	}
	sess.mu.Unlock()

	// hook снова навешиваем (тоже без ctx запроса, см. Create)
	sess.onPersist = func(snap SessionSnapshot) {
		_ = s.persist.Save(context.Background(), sessionID, snap)
	}

	// если игра в playing и дедлайн ещё не прошёл — поднимаем таймер заново;
	// если дедлайн истёк, пока сервер лежал, фиксируем таймаут сразу
	sess.mu.Lock()
	if s.cfg.TurnDuration > 0 && sess.phase == "playing" && !sess.deadline.IsZero() {
		if time.Now().Before(sess.deadline) {
			// новый token, чтобы старые таймеры (до рестарта) не влияли
			sess.turnToken++
			token := sess.turnToken

			if sess.turnTimer != nil {
				sess.turnTimer.Stop()
			}

			d := time.Until(sess.deadline)
			sess.turnTimer = time.AfterFunc(d, func() {
				sess.onTurnTimeout(token)
			})
		} else {
			sess.finishLocked("timeout")
			sess.persistLocked()
		}
	}
	sess.mu.Unlock()

	s.mu.Lock()
	s.in[sessionID] = sess
	s.mu.Unlock()

	return sess, true, nil
}
