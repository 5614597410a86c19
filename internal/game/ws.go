package game

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Rohanbagulwar/Entropy-Driven-Bulls-Cows/internal/auth"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true }, // MVP
}

type ClientConn struct {
	ws   *websocket.Conn
	send chan []byte

	closeOnce sync.Once
}

func (c *ClientConn) Close() {
	c.closeOnce.Do(func() {
		close(c.send)
		if c.ws != nil {
			_ = c.ws.Close()
		}
	})
}

// sessionIDFromWSPath достаёт id из /ws/{sessionId}: ровно один сегмент,
// [a-z0-9], не длиннее 64.
func sessionIDFromWSPath(path string) (string, bool) {
	const prefix = "/ws/"
	if !strings.HasPrefix(path, prefix) {
		return "", false
	}
	id := path[len(prefix):]
	if id == "" || len(id) > 64 {
		return "", false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			continue
		}
		return "", false
	}
	return id, true
}

// handleWS — WebSocket вход в сессию: /ws/{sessionId}.
// JWT либо в Authorization: Bearer, либо первым envelope {"type":"auth"}.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionIDFromWSPath(r.URL.Path)
	if !ok {
		http.Error(w, "bad path, want /ws/{sessionId}", http.StatusBadRequest)
		return
	}

	// заголовок проверяем до upgrade, чтобы отдать нормальный 401
	var claims *auth.Claims
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		c, err := s.verifier.Verify(strings.TrimPrefix(h, "Bearer "))
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		claims = c
	}

	// получаем сессию (in-memory или из Redis)
	sess, found, err := s.sessions.GetOrLoad(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}
	if !found {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	cc := &ClientConn{
		ws:   ws,
		send: make(chan []byte, 64),
	}

	// writer loop
	go func() {
		ticker := time.NewTicker(25 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case msg, ok := <-cc.send:
				if !ok {
					return
				}
				_ = ws.WriteMessage(websocket.TextMessage, msg)
			case <-ticker.C:
				_ = ws.WriteMessage(websocket.PingMessage, []byte{})
			}
		}
	}()

	attached := false
	attach := func(c *auth.Claims) bool {
		errCode, errMsg := sess.Attach(c.UserID, c.DisplayName, cc)
		if errCode != "" {
			b, _ := json.Marshal(Envelope{
				Type:    "error",
				Payload: mustJSON(ErrorPayload{Code: errCode, Message: errMsg}),
			})
			select {
			case cc.send <- b:
			default:
			}
			return false
		}
		attached = true
		sess.SendState()
		return true
	}

	if claims != nil && !attach(claims) {
		cc.Close()
		return
	}

	// reader loop
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			break
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			sess.SendError("bad_json", "invalid json")
			continue
		}

		if env.Type == "auth" {
			if attached {
				continue
			}
			var p AuthPayload
			if err := json.Unmarshal(env.Payload, &p); err != nil {
				continue
			}
			c, err := s.verifier.Verify(p.Token)
			if err != nil {
				// соединение без валидного токена ничего не умеет, закрываем
				break
			}
			attach(c)
			continue
		}

		if !attached {
			continue
		}

		switch env.Type {
		case "guess":
			var p SubmitGuessPayload
			if err := json.Unmarshal(env.Payload, &p); err != nil {
				sess.SendError("bad_input", "invalid payload")
				continue
			}
			if err := sess.SubmitGuess(p.Guess); err != nil {
				sess.SendError("bad_input", err.Error())
			}

		case "hint":
			// Suggest может сканировать весь пул, не держим reader loop
			go func() {
				h, err := sess.RequestHint(context.Background())
				if err != nil {
					sess.SendError("hint_failed", err.Error())
					return
				}
				sess.SendHint(h)
			}()

		case "new_game":
			if err := sess.NewGame(); err != nil {
				sess.SendError("bad_input", err.Error())
			}

		default:
			sess.SendError("unknown_type", "unknown message type")
		}
	}

	// disconnect
	if attached {
		sess.Detach(cc)
	}
	cc.Close()
}

func mustJSON(v any) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}
