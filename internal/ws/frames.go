package ws

import (
	"encoding/json"
	"fmt"
)

// Wire protocol: JSON text frames {"type": string, "data": object} over a
// persistent websocket connection.

// Inbound frame types.
const (
	TypeHello           = "HELLO"
	TypeStartLevel      = "START_LEVEL"
	TypeRequestQuestion = "REQUEST_QUESTION"
	TypeSubmitAnswer    = "SUBMIT_ANSWER"
	TypeChatUser        = "CHAT_USER"
)

// Outbound frame types.
const (
	TypeWelcome        = "WELCOME"
	TypeLevelReady     = "LEVEL_READY"
	TypeQuestion       = "QUESTION"
	TypeAnswerEval     = "ANSWER_EVAL"
	TypeProgressUpdate = "PROGRESS_UPDATE"
	TypeScoreUpdate    = "SCORE_UPDATE"
	TypeChatAIStart    = "CHAT_AI_START"
	TypeChatAIDelta    = "CHAT_AI_DELTA"
	TypeChatAIEnd      = "CHAT_AI_END"
	TypeError          = "ERROR"
)

// Error codes carried in ERROR frames. None of them close the connection.
const (
	CodeBadFrame    = "BAD_FRAME"
	CodeUnknownType = "UNKNOWN_TYPE"
	CodeNotReady    = "NOT_READY"
	CodeNoQuestion  = "NO_QUESTION"
)

type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Inbound payloads.

type helloData struct {
	Name string `json:"name"`
}

type startLevelData struct {
	Level int `json:"level"`
}

type submitAnswerData struct {
	Index    *int  `json:"index"`
	ClientT0 int64 `json:"clientT0,omitempty"`
}

type chatUserData struct {
	Text string `json:"text"`
}

// Outbound payloads.

type welcomeData struct {
	PlayerID  string `json:"playerId"`
	SessionID string `json:"sessionId"`
}

type levelReadyData struct {
	Level int    `json:"level"`
	At    string `json:"at"`
}

// questionData mirrors the first four options into a/b/c/d for older
// consumers; the options array is the canonical field.
type questionData struct {
	ID          string   `json:"id"`
	Text        string   `json:"text"`
	Options     []string `json:"options"`
	A           string   `json:"a"`
	B           string   `json:"b"`
	C           string   `json:"c"`
	D           string   `json:"d"`
	TimeLimitMs int      `json:"timeLimitMs"`
}

type answerEvalData struct {
	Correct      bool `json:"correct"`
	CorrectIndex int  `json:"correctIndex"`
	DeltaPoints  int  `json:"deltaPoints"`
	TotalPoints  int  `json:"totalPoints"`
}

type progressUpdateData struct {
	MoveBy   int `json:"moveBy"`
	Progress int `json:"progress"`
}

type scoreUpdateData struct {
	TotalPoints int `json:"totalPoints"`
}

type chatStartData struct {
	ID string `json:"id"`
}

type chatDeltaData struct {
	ID    string `json:"id"`
	Chunk string `json:"chunk"`
}

type chatEndData struct {
	ID string `json:"id"`
}

type errorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// EncodeFrame marshals one outbound frame.
func EncodeFrame(frameType string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", frameType, err)
	}
	return json.Marshal(Envelope{Type: frameType, Data: raw})
}
