package game

import "encoding/json"

// Envelope WS envelope: {"type":"...","payload":{...}}
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// AuthPayload входящие
type AuthPayload struct {
	Token string `json:"token"`
}

type SubmitGuessPayload struct {
	Guess string `json:"guess"`
}

// TurnRecord — одна попытка: фидбек оракула плюс то, что она дала по информации.
type TurnRecord struct {
	Turn       int     `json:"turn"`
	Guess      string  `json:"guess"`
	Bulls      int     `json:"bulls"`
	Cows       int     `json:"cows"`
	PoolSize   int     `json:"poolSize"`   // кандидатов осталось после фильтра
	BitsBefore float64 `json:"bitsBefore"` // неопределённость до хода
	BitsAfter  float64 `json:"bitsAfter"`
	BitsGained float64 `json:"bitsGained"`
}

// HintPayload исходящие
type HintPayload struct {
	Guess        string  `json:"guess"`
	ExpectedBits float64 `json:"expectedBits"`
	ThinkingMs   int64   `json:"thinkingMs"`
}

type Series struct {
	Played int `json:"played"`
	Won    int `json:"won"`
}

type StatePayload struct {
	SessionID       string       `json:"sessionId"`
	PlayerName      string       `json:"playerName"`
	Connected       bool         `json:"connected"`
	Phase           string       `json:"phase"`   // waiting_player|playing|finished
	Outcome         string       `json:"outcome"` // won|lost|timeout|error|"" (пока игра идёт)
	Turn            int          `json:"turn"`
	MaxTurns        int          `json:"maxTurns"` // 0 => без лимита
	DeadlineMs      int64        `json:"deadlineMs"`
	PoolSize        int          `json:"poolSize"`
	UncertaintyBits float64      `json:"uncertaintyBits"`
	History         []TurnRecord `json:"history"`
	Series          Series       `json:"series"`
	RevealedSecret  string       `json:"revealedSecret,omitempty"` // показываем только после finished
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
