package ws

import (
	"context"
	"encoding/json"
	"log"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/algo-arena/algoarena-server/internal/auth"
	"github.com/algo-arena/algoarena-server/internal/quiz"
	"github.com/algo-arena/algoarena-server/internal/session"
	"github.com/algo-arena/algoarena-server/internal/store"
)

const (
	correctDelta    = 10
	progressStep    = 10
	questionTimeMs  = 15000
	persistDeadline = 3 * time.Second
)

const (
	fallbackHintReply = "Let's reason about the approach, not the final option."
	fallbackChitchat  = "Hey! I'm your Guide. How can I help?"
)

var greetingRe = regexp.MustCompile(`(?i)(^|\b)(hi|hello|hey|hola|yo|assalam|salam|how are you)\b`)

// Sender emits one frame on the connection. Implementations must be safe
// for use from the connection's processing goroutine.
type Sender interface {
	SendFrame(frameType string, data any)
}

// QuestionSource produces the next question for a session; satisfied by
// *quiz.Supplier.
type QuestionSource interface {
	Next(ctx context.Context, flavor string) quiz.Question
}

// GuideClient produces conversational replies; satisfied by *genai.Client.
// Implementations never fail: they resolve to a safe default string.
type GuideClient interface {
	GenerateGuideReply(ctx context.Context, mode, userText, questionText string, options []string) string
}

// Engine is the per-connection frame dispatcher: it decodes inbound frames,
// drives the session state machine, and emits response frames in order.
// Frames for one connection are handled sequentially; only the cache and
// store behind the engine are shared across connections.
type Engine struct {
	registry *session.Registry
	source   QuestionSource
	guide    GuideClient
	players  store.PlayerDirectory
	attempts store.AttemptLog
	qlog     store.QuestionLog
	tokens   *auth.TokenService

	chatBudget time.Duration
	now        func() time.Time
}

func NewEngine(registry *session.Registry, source QuestionSource, guide GuideClient, st store.Store, tokens *auth.TokenService, chatBudget time.Duration) *Engine {
	return &Engine{
		registry:   registry,
		source:     source,
		guide:      guide,
		players:    st,
		attempts:   st,
		qlog:       st,
		tokens:     tokens,
		chatBudget: chatBudget,
		now:        time.Now,
	}
}

// Connect registers per-connection state; called when the transport opens.
func (e *Engine) Connect(connID string) *session.State {
	return e.registry.Create(connID)
}

// Disconnect releases per-connection state; no frames are processed after.
func (e *Engine) Disconnect(connID string) {
	e.registry.Remove(connID)
}

// HandleFrame processes one inbound frame and emits responses on send.
// Malformed and out-of-order frames produce ERROR frames, never a close.
func (e *Engine) HandleFrame(ctx context.Context, connID string, raw []byte, send Sender) {
	st := e.registry.Get(connID)
	if st == nil {
		// Transport raced a close; nothing to answer to.
		return
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Type == "" {
		send.SendFrame(TypeError, errorData{Code: CodeBadFrame, Message: "frame must be {\"type\", \"data\"}"})
		return
	}

	if env.Type != TypeHello && !st.Initialized() {
		send.SendFrame(TypeError, errorData{Code: CodeNotReady, Message: "say HELLO first"})
		return
	}

	switch env.Type {
	case TypeHello:
		e.onHello(ctx, st, env.Data, send)
	case TypeStartLevel:
		e.onStartLevel(st, env.Data, send)
	case TypeRequestQuestion:
		e.onRequestQuestion(ctx, st, send)
	case TypeSubmitAnswer:
		e.onSubmitAnswer(ctx, st, env.Data, send)
	case TypeChatUser:
		e.onChatUser(ctx, st, env.Data, send)
	default:
		send.SendFrame(TypeError, errorData{Code: CodeUnknownType, Message: "unsupported type: " + env.Type})
	}
}

func (e *Engine) onHello(ctx context.Context, st *session.State, data json.RawMessage, send Sender) {
	var d helloData
	if len(data) > 0 {
		if err := json.Unmarshal(data, &d); err != nil {
			send.SendFrame(TypeError, errorData{Code: CodeBadFrame, Message: "bad HELLO payload"})
			return
		}
	}
	name := d.Name
	if name == "" {
		name = "Player"
	}

	playerID, err := e.players.UpsertByName(ctx, name)
	if err != nil {
		// Directory down: the game still starts, identity just isn't durable.
		log.Printf("ws: player upsert failed for %q: %v", name, err)
		playerID = uuid.NewString()
	}

	token, err := e.tokens.IssueSessionToken(playerID, st.ConnID)
	if err != nil {
		log.Printf("ws: session token mint failed: %v", err)
		token = "s-" + uuid.NewString()
	}

	st.PlayerID = playerID
	st.Name = name
	st.SessionID = token
	st.Level = 1
	st.Progress = 0
	st.TotalPoints = 0
	st.LastQuestion = nil

	send.SendFrame(TypeWelcome, welcomeData{PlayerID: playerID, SessionID: token})
}

func (e *Engine) onStartLevel(st *session.State, data json.RawMessage, send Sender) {
	var d startLevelData
	if len(data) > 0 {
		if err := json.Unmarshal(data, &d); err != nil {
			send.SendFrame(TypeError, errorData{Code: CodeBadFrame, Message: "bad START_LEVEL payload"})
			return
		}
	}
	if d.Level < 1 {
		d.Level = 1
	}
	st.Level = d.Level
	send.SendFrame(TypeLevelReady, levelReadyData{Level: d.Level, At: e.now().UTC().Format(time.RFC3339)})
}

func (e *Engine) onRequestQuestion(ctx context.Context, st *session.State, send Sender) {
	flavor := "Player " + st.Name
	q := e.source.Next(ctx, flavor)
	st.LastQuestion = &q

	go e.persistQuestion(q, st.Level)

	d := questionData{
		ID:          q.ID,
		Text:        q.Text,
		Options:     q.Options,
		TimeLimitMs: questionTimeMs,
	}
	legacy := []*string{&d.A, &d.B, &d.C, &d.D}
	for i, opt := range q.Options {
		if i >= len(legacy) {
			break
		}
		*legacy[i] = opt
	}
	send.SendFrame(TypeQuestion, d)
}

func (e *Engine) onSubmitAnswer(ctx context.Context, st *session.State, data json.RawMessage, send Sender) {
	if st.LastQuestion == nil {
		send.SendFrame(TypeError, errorData{Code: CodeNoQuestion, Message: "ask for a question first"})
		return
	}

	var d submitAnswerData
	if len(data) > 0 {
		if err := json.Unmarshal(data, &d); err != nil {
			send.SendFrame(TypeError, errorData{Code: CodeBadFrame, Message: "bad SUBMIT_ANSWER payload"})
			return
		}
	}
	idx := -1
	if d.Index != nil {
		idx = *d.Index
	}

	q := *st.LastQuestion
	correct := idx == q.CorrectIndex
	delta := 0
	if correct {
		delta = correctDelta
		st.TotalPoints += delta
		st.Progress += progressStep
		go e.persistPoints(st.PlayerID, delta)
	}

	var responseMs int64
	if d.ClientT0 > 0 {
		responseMs = e.now().UnixMilli() - d.ClientT0
	}
	go e.persistAttempt(store.Attempt{
		PlayerID:       st.PlayerID,
		SessionID:      st.SessionID,
		QuestionID:     q.ID,
		AnswerIndex:    idx,
		Correct:        correct,
		DeltaPoints:    delta,
		ResponseTimeMs: responseMs,
	})

	// The pending question is resolved; the next SUBMIT_ANSWER without a
	// fresh REQUEST_QUESTION is a sequencing error.
	st.LastQuestion = nil

	// Fixed emission order: evaluation, then derived updates.
	send.SendFrame(TypeAnswerEval, answerEvalData{
		Correct:      correct,
		CorrectIndex: q.CorrectIndex,
		DeltaPoints:  delta,
		TotalPoints:  st.TotalPoints,
	})
	send.SendFrame(TypeProgressUpdate, progressUpdateData{MoveBy: delta, Progress: st.Progress})
	send.SendFrame(TypeScoreUpdate, scoreUpdateData{TotalPoints: st.TotalPoints})
}

func (e *Engine) onChatUser(ctx context.Context, st *session.State, data json.RawMessage, send Sender) {
	var d chatUserData
	if len(data) > 0 {
		if err := json.Unmarshal(data, &d); err != nil {
			send.SendFrame(TypeError, errorData{Code: CodeBadFrame, Message: "bad CHAT_USER payload"})
			return
		}
	}

	mode := "hint"
	if greetingRe.MatchString(d.Text) && st.LastQuestion == nil {
		mode = "chitchat"
	}

	var questionText string
	var options []string
	if st.LastQuestion != nil {
		questionText = st.LastQuestion.Text
		options = st.LastQuestion.Options
	}

	id := "c-" + uuid.NewString()
	send.SendFrame(TypeChatAIStart, chatStartData{ID: id})

	reply := e.guideReply(ctx, mode, d.Text, questionText, options)
	if reply == "" {
		if mode == "chitchat" {
			reply = fallbackChitchat
		} else {
			reply = fallbackHintReply
		}
	}

	send.SendFrame(TypeChatAIDelta, chatDeltaData{ID: id, Chunk: reply})
	send.SendFrame(TypeChatAIEnd, chatEndData{ID: id})
}

// guideReply races the guide call against the chat budget. A late reply is
// discarded; the caller substitutes the mode-appropriate default.
func (e *Engine) guideReply(ctx context.Context, mode, userText, questionText string, options []string) string {
	ctx, cancel := context.WithTimeout(ctx, e.chatBudget)
	defer cancel()

	ch := make(chan string, 1)
	go func() {
		ch <- e.guide.GenerateGuideReply(ctx, mode, userText, questionText, options)
	}()

	select {
	case reply := <-ch:
		return reply
	case <-ctx.Done():
		return ""
	}
}

func (e *Engine) persistQuestion(q quiz.Question, level int) {
	ctx, cancel := context.WithTimeout(context.Background(), persistDeadline)
	defer cancel()
	if err := e.qlog.SaveQuestion(ctx, q, store.AskedMeta{Level: level, Category: "DSA"}); err != nil {
		log.Printf("ws: question log save failed: %v", err)
	}
}

func (e *Engine) persistPoints(playerID string, delta int) {
	ctx, cancel := context.WithTimeout(context.Background(), persistDeadline)
	defer cancel()
	if err := e.players.AddPoints(ctx, playerID, delta); err != nil {
		log.Printf("ws: add points failed: %v", err)
	}
}

func (e *Engine) persistAttempt(a store.Attempt) {
	ctx, cancel := context.WithTimeout(context.Background(), persistDeadline)
	defer cancel()
	if err := e.attempts.SaveAttempt(ctx, a); err != nil {
		log.Printf("ws: attempt save failed: %v", err)
	}
}
