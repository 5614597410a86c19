package game

import (
	"crypto/rand"
	"encoding/json"
	"net/http"

	"github.com/Rohanbagulwar/Entropy-Driven-Bulls-Cows/internal/auth"
)

// TokenVerifier проверяет JWT и достаёт claims. Реализуется auth.Service;
// в тестах подменяется фейком.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

type Server struct {
	cfg      Config
	sessions *SessionService
	verifier TokenVerifier
}

func NewServer(cfg Config, sessions *SessionService, verifier TokenVerifier) *Server {
	return &Server{
		cfg:      cfg,
		sessions: sessions,
		verifier: verifier,
	}
}

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/session", s.handleCreateSession)
	mux.HandleFunc("/ws/", s.handleWS)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	sessionID := randID(10)

	_, err := s.sessions.Create(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "failed to create session", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"sessionId": sessionID,
	})
}

func randID(n int) string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	b := make([]byte, n)
	_, _ = rand.Read(b)
	for i := range b {
		b[i] = alphabet[int(b[i])%len(alphabet)]
	}
	return string(b)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
