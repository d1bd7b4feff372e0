package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/algo-arena/algoarena-server/internal/auth"
	"github.com/algo-arena/algoarena-server/internal/quiz"
	"github.com/algo-arena/algoarena-server/internal/session"
	"github.com/algo-arena/algoarena-server/internal/store"
)

/* ---------------- Fakes ---------------- */

type sentFrame struct {
	Type string
	Data any
}

type captureSender struct {
	frames []sentFrame
}

func (c *captureSender) SendFrame(frameType string, data any) {
	c.frames = append(c.frames, sentFrame{Type: frameType, Data: data})
}

func (c *captureSender) reset() { c.frames = nil }

func (c *captureSender) types() []string {
	out := make([]string, len(c.frames))
	for i, f := range c.frames {
		out[i] = f.Type
	}
	return out
}

type fixedSource struct {
	q     quiz.Question
	calls int
}

func (s *fixedSource) Next(context.Context, string) quiz.Question {
	s.calls++
	return s.q
}

type fakeGuide struct {
	lastMode string
	reply    string
	block    bool
}

func (g *fakeGuide) GenerateGuideReply(ctx context.Context, mode, _, _ string, _ []string) string {
	g.lastMode = mode
	if g.block {
		<-ctx.Done()
		time.Sleep(50 * time.Millisecond) // lose the race decisively
		return "too late"
	}
	return g.reply
}

type testRig struct {
	engine *Engine
	store  *store.MemoryStore
	source *fixedSource
	guide  *fakeGuide
	send   *captureSender
	connID string
}

func newTestRig(t *testing.T) *testRig {
	t.Helper()
	st := store.NewMemoryStore()
	source := &fixedSource{q: quiz.NewQuestion("Which is FIFO?", []string{"Stack", "Queue", "Heap"}, 1)}
	guide := &fakeGuide{reply: "think about ordering"}
	engine := NewEngine(session.NewRegistry(), source, guide, st, auth.NewTokenService("test-secret"), 200*time.Millisecond)

	connID := "conn-1"
	engine.Connect(connID)
	t.Cleanup(func() { engine.Disconnect(connID) })

	return &testRig{engine: engine, store: st, source: source, guide: guide, send: &captureSender{}, connID: connID}
}

func (r *testRig) handle(t *testing.T, frameType string, data any) {
	t.Helper()
	raw, err := EncodeFrame(frameType, data)
	if err != nil {
		t.Fatalf("encode %s: %v", frameType, err)
	}
	r.engine.HandleFrame(context.Background(), r.connID, raw, r.send)
}

func (r *testRig) hello(t *testing.T, name string) {
	t.Helper()
	r.handle(t, TypeHello, helloData{Name: name})
	r.send.reset()
}

func lastError(t *testing.T, send *captureSender) errorData {
	t.Helper()
	if len(send.frames) == 0 {
		t.Fatal("no frames emitted")
	}
	f := send.frames[len(send.frames)-1]
	if f.Type != TypeError {
		t.Fatalf("last frame is %s, want ERROR", f.Type)
	}
	return f.Data.(errorData)
}

/* ---------------- Identity ---------------- */

func TestHelloAssignsStablePlayerID(t *testing.T) {
	rig := newTestRig(t)

	rig.handle(t, TypeHello, helloData{Name: "Ada"})
	if got := rig.send.types(); len(got) != 1 || got[0] != TypeWelcome {
		t.Fatalf("frames = %v, want [WELCOME]", got)
	}
	first := rig.send.frames[0].Data.(welcomeData)
	if first.PlayerID == "" || first.SessionID == "" {
		t.Fatalf("welcome has empty ids: %+v", first)
	}

	rig.send.reset()
	rig.handle(t, TypeHello, helloData{Name: "Ada"})
	second := rig.send.frames[0].Data.(welcomeData)
	if second.PlayerID != first.PlayerID {
		t.Errorf("playerId changed across HELLO: %s vs %s", first.PlayerID, second.PlayerID)
	}
	if second.SessionID == first.SessionID {
		t.Error("session token should be fresh per HELLO")
	}
}

func TestHelloDefaultsEmptyName(t *testing.T) {
	rig := newTestRig(t)
	rig.handle(t, TypeHello, helloData{})
	w := rig.send.frames[0].Data.(welcomeData)
	if w.PlayerID == "" {
		t.Fatal("empty name should still bind an identity")
	}
}

func TestGameFramesBeforeHelloAreRejected(t *testing.T) {
	rig := newTestRig(t)

	for _, typ := range []string{TypeStartLevel, TypeRequestQuestion, TypeSubmitAnswer, TypeChatUser} {
		rig.send.reset()
		rig.handle(t, typ, map[string]any{})
		e := lastError(t, rig.send)
		if e.Code != CodeNotReady {
			t.Errorf("%s before HELLO: code = %s, want %s", typ, e.Code, CodeNotReady)
		}
	}
}

/* ---------------- Levels and questions ---------------- */

func TestStartLevelAcknowledges(t *testing.T) {
	rig := newTestRig(t)
	rig.hello(t, "Ada")

	rig.handle(t, TypeStartLevel, startLevelData{Level: 2})
	if got := rig.send.types(); len(got) != 1 || got[0] != TypeLevelReady {
		t.Fatalf("frames = %v", got)
	}
	d := rig.send.frames[0].Data.(levelReadyData)
	if d.Level != 2 || d.At == "" {
		t.Fatalf("level ready = %+v", d)
	}
}

func TestRequestQuestionEmitsQuestionWithLegacyFields(t *testing.T) {
	rig := newTestRig(t)
	rig.hello(t, "Ada")

	rig.handle(t, TypeRequestQuestion, nil)
	if got := rig.send.types(); len(got) != 1 || got[0] != TypeQuestion {
		t.Fatalf("frames = %v", got)
	}
	d := rig.send.frames[0].Data.(questionData)
	if d.ID == "" || d.Text != "Which is FIFO?" {
		t.Fatalf("question = %+v", d)
	}
	if len(d.Options) != 3 {
		t.Fatalf("options = %v", d.Options)
	}
	if d.A != "Stack" || d.B != "Queue" || d.C != "Heap" || d.D != "" {
		t.Errorf("legacy mirror wrong: a=%q b=%q c=%q d=%q", d.A, d.B, d.C, d.D)
	}
	if d.TimeLimitMs <= 0 {
		t.Errorf("timeLimitMs = %d", d.TimeLimitMs)
	}
}

/* ---------------- Answer evaluation ---------------- */

func TestSubmitWithoutQuestionIsSequencingError(t *testing.T) {
	rig := newTestRig(t)
	rig.hello(t, "Ada")

	idx := 1
	rig.handle(t, TypeSubmitAnswer, submitAnswerData{Index: &idx})
	e := lastError(t, rig.send)
	if e.Code != CodeNoQuestion {
		t.Fatalf("code = %s, want %s", e.Code, CodeNoQuestion)
	}
}

func TestCorrectAnswerScoresAndOrdersFrames(t *testing.T) {
	rig := newTestRig(t)
	rig.hello(t, "Ada")
	rig.handle(t, TypeRequestQuestion, nil)
	rig.send.reset()

	idx := 1
	rig.handle(t, TypeSubmitAnswer, submitAnswerData{Index: &idx})

	want := []string{TypeAnswerEval, TypeProgressUpdate, TypeScoreUpdate}
	got := rig.send.types()
	if len(got) != len(want) {
		t.Fatalf("frames = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("frame order = %v, want %v", got, want)
		}
	}

	eval := rig.send.frames[0].Data.(answerEvalData)
	if !eval.Correct || eval.DeltaPoints != correctDelta || eval.TotalPoints != correctDelta {
		t.Fatalf("eval = %+v", eval)
	}
	if eval.CorrectIndex != 1 {
		t.Errorf("correctIndex = %d", eval.CorrectIndex)
	}
	score := rig.send.frames[2].Data.(scoreUpdateData)
	if score.TotalPoints != correctDelta {
		t.Errorf("score = %+v", score)
	}
}

func TestWrongAnswerScoresZero(t *testing.T) {
	rig := newTestRig(t)
	rig.hello(t, "Ada")

	for _, wrong := range []int{0, 2, -1, 99} {
		rig.handle(t, TypeRequestQuestion, nil)
		rig.send.reset()

		idx := wrong
		rig.handle(t, TypeSubmitAnswer, submitAnswerData{Index: &idx})
		eval := rig.send.frames[0].Data.(answerEvalData)
		if eval.Correct || eval.DeltaPoints != 0 {
			t.Errorf("index %d: eval = %+v", wrong, eval)
		}
		rig.send.reset()
	}
}

func TestPendingQuestionResolvedAfterSubmit(t *testing.T) {
	rig := newTestRig(t)
	rig.hello(t, "Ada")
	rig.handle(t, TypeRequestQuestion, nil)
	rig.send.reset()

	idx := 1
	rig.handle(t, TypeSubmitAnswer, submitAnswerData{Index: &idx})
	rig.send.reset()

	rig.handle(t, TypeSubmitAnswer, submitAnswerData{Index: &idx})
	e := lastError(t, rig.send)
	if e.Code != CodeNoQuestion {
		t.Fatalf("second submit: code = %s, want %s", e.Code, CodeNoQuestion)
	}
}

func TestAttemptIsPersisted(t *testing.T) {
	rig := newTestRig(t)
	rig.hello(t, "Ada")
	rig.handle(t, TypeRequestQuestion, nil)

	idx := 1
	rig.handle(t, TypeSubmitAnswer, submitAnswerData{Index: &idx})

	deadline := time.Now().Add(time.Second)
	for {
		if attempts := rig.store.Attempts(); len(attempts) == 1 {
			a := attempts[0]
			if !a.Correct || a.DeltaPoints != correctDelta || a.AnswerIndex != 1 {
				t.Fatalf("attempt = %+v", a)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("attempt was never persisted")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

/* ---------------- Chat ---------------- */

func TestChatGreetingWithoutQuestionIsChitchat(t *testing.T) {
	rig := newTestRig(t)
	rig.hello(t, "Ada")

	rig.handle(t, TypeChatUser, chatUserData{Text: "hello there"})
	if rig.guide.lastMode != "chitchat" {
		t.Fatalf("mode = %q, want chitchat", rig.guide.lastMode)
	}
}

func TestChatGreetingWithPendingQuestionIsHint(t *testing.T) {
	rig := newTestRig(t)
	rig.hello(t, "Ada")
	rig.handle(t, TypeRequestQuestion, nil)
	rig.send.reset()

	rig.handle(t, TypeChatUser, chatUserData{Text: "hello there"})
	if rig.guide.lastMode != "hint" {
		t.Fatalf("mode = %q, want hint", rig.guide.lastMode)
	}
}

func TestChatNonGreetingWithoutQuestionIsHint(t *testing.T) {
	rig := newTestRig(t)
	rig.hello(t, "Ada")

	rig.handle(t, TypeChatUser, chatUserData{Text: "how do I solve this"})
	if rig.guide.lastMode != "hint" {
		t.Fatalf("mode = %q, want hint", rig.guide.lastMode)
	}
}

func TestChatEmitsMarkersWithOneID(t *testing.T) {
	rig := newTestRig(t)
	rig.hello(t, "Ada")

	rig.handle(t, TypeChatUser, chatUserData{Text: "hi"})
	want := []string{TypeChatAIStart, TypeChatAIDelta, TypeChatAIEnd}
	got := rig.send.types()
	if len(got) != 3 {
		t.Fatalf("frames = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("frame order = %v, want %v", got, want)
		}
	}

	start := rig.send.frames[0].Data.(chatStartData)
	delta := rig.send.frames[1].Data.(chatDeltaData)
	end := rig.send.frames[2].Data.(chatEndData)
	if start.ID == "" || start.ID != delta.ID || delta.ID != end.ID {
		t.Fatalf("chat ids diverge: %q %q %q", start.ID, delta.ID, end.ID)
	}
	if delta.Chunk != "think about ordering" {
		t.Errorf("chunk = %q", delta.Chunk)
	}
}

func TestChatTimeoutFallsBackToDefault(t *testing.T) {
	rig := newTestRig(t)
	rig.hello(t, "Ada")
	rig.guide.block = true

	start := time.Now()
	rig.handle(t, TypeChatUser, chatUserData{Text: "hi"})
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("chat blocked for %v despite budget", elapsed)
	}

	delta := rig.send.frames[1].Data.(chatDeltaData)
	if delta.Chunk != fallbackChitchat {
		t.Fatalf("chunk = %q, want the chitchat default", delta.Chunk)
	}
}

/* ---------------- Malformed input ---------------- */

func TestMalformedFrameKeepsConnectionUsable(t *testing.T) {
	rig := newTestRig(t)

	rig.engine.HandleFrame(context.Background(), rig.connID, []byte("{not json"), rig.send)
	e := lastError(t, rig.send)
	if e.Code != CodeBadFrame {
		t.Fatalf("code = %s, want %s", e.Code, CodeBadFrame)
	}
	rig.send.reset()

	// The connection still serves subsequent frames.
	rig.handle(t, TypeHello, helloData{Name: "Ada"})
	if got := rig.send.types(); len(got) != 1 || got[0] != TypeWelcome {
		t.Fatalf("frames after malformed input = %v", got)
	}
}

func TestUnknownFrameTypeIsTypedError(t *testing.T) {
	rig := newTestRig(t)
	rig.hello(t, "Ada")

	rig.handle(t, "TELEPORT", map[string]any{})
	e := lastError(t, rig.send)
	if e.Code != CodeUnknownType {
		t.Fatalf("code = %s, want %s", e.Code, CodeUnknownType)
	}
}

func TestBadPayloadIsTypedError(t *testing.T) {
	rig := newTestRig(t)
	rig.hello(t, "Ada")
	rig.handle(t, TypeRequestQuestion, nil)
	rig.send.reset()

	raw, _ := json.Marshal(Envelope{Type: TypeSubmitAnswer, Data: json.RawMessage(`"not an object"`)})
	rig.engine.HandleFrame(context.Background(), rig.connID, raw, rig.send)
	e := lastError(t, rig.send)
	if e.Code != CodeBadFrame {
		t.Fatalf("code = %s, want %s", e.Code, CodeBadFrame)
	}
}
