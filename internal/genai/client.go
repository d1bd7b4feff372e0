package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/algo-arena/algoarena-server/internal/quiz"
)

// Truncation limits applied after redaction. Chat replies are cut harder
// than hints.
const (
	MaxHintRunes = 400
	MaxChatRunes = 240
)

const (
	fallbackHint     = "Focus on the key property that distinguishes the correct choice, not the exact option."
	fallbackHintChat = "Let's reason about the approach, not the final option."
	fallbackChitchat = "Hey! I'm your Guide. How can I help?"
)

// Client wraps the Gemini generateContent endpoint. No method ever returns
// an error: transport failures, timeouts, non-2xx responses, and malformed
// payloads all resolve to a deterministic safe default for the task.
type Client struct {
	httpc   *http.Client
	baseURL string
	model   string
	apiKey  string
	timeout time.Duration
}

// NewClient builds a client with a hard per-request timeout. The timeout is
// the inner cap; callers race requests against their own shorter budgets.
func NewClient(baseURL, apiKey, model string, timeout time.Duration) *Client {
	return &Client{
		httpc:   &http.Client{Timeout: timeout},
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   model,
		apiKey:  apiKey,
		timeout: timeout,
	}
}

type genPart struct {
	Text string `json:"text"`
}

type genContent struct {
	Parts []genPart `json:"parts"`
}

type genConfig struct {
	Temperature      float64 `json:"temperature"`
	MaxOutputTokens  int     `json:"maxOutputTokens,omitempty"`
	ResponseMIMEType string  `json:"responseMimeType,omitempty"`
}

type genRequest struct {
	Contents         []genContent `json:"contents"`
	GenerationConfig genConfig    `json:"generationConfig"`
}

type genResponse struct {
	Candidates []struct {
		Content genContent `json:"content"`
	} `json:"candidates"`
}

// generateContent posts one prompt and returns the first candidate's text.
func (c *Client) generateContent(ctx context.Context, prompt string, cfg genConfig) (string, error) {
	body, err := json.Marshal(genRequest{
		Contents:         []genContent{{Parts: []genPart{{Text: prompt}}}},
		GenerationConfig: cfg,
	})
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("generateContent status %d", resp.StatusCode)
	}

	var out genResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", err
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("generateContent: empty candidates")
	}
	return strings.TrimSpace(out.Candidates[0].Content.Parts[0].Text), nil
}

// mcqPayload is the strict JSON shape the model is instructed to emit.
type mcqPayload struct {
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
}

// GenerateQuestion asks the model for one MCQ as strict JSON. Any transport
// or validation problem yields the canonical fallback question.
func (c *Client) GenerateQuestion(ctx context.Context, promptContext string) quiz.Question {
	prompt := "You are a DSA (coding/algorithms) MCQ generator and must avoid repeating recent questions.\n" +
		"Return STRICT JSON ONLY with this exact shape:\n" +
		`{"text": string, "options": string[], "correctIndex": number}` + "\n" +
		"Constraints:\n" +
		"- 3-4 options\n" +
		"- exactly one correct answer\n" +
		"- each option < 80 characters\n" +
		"- no additional prose, code fences, or explanation\n" +
		"Theme (flavor only, do not include story text in options): " + promptContext

	text, err := c.generateContent(ctx, prompt, genConfig{
		Temperature:      0.7,
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		log.Printf("genai: question generation failed: %v", err)
		return FallbackQuestion()
	}

	var m mcqPayload
	if err := json.Unmarshal([]byte(stripFences(text)), &m); err != nil {
		log.Printf("genai: question payload not valid JSON: %v", err)
		return FallbackQuestion()
	}
	q := quiz.NewQuestion(m.Text, m.Options, m.CorrectIndex)
	if !q.Valid() {
		log.Printf("genai: question payload rejected (options=%d correctIndex=%d)", len(m.Options), m.CorrectIndex)
		return FallbackQuestion()
	}
	return q
}

// GenerateHint produces one short strategy hint for the current question.
// The reply is redacted before it reaches the caller.
func (c *Client) GenerateHint(ctx context.Context, questionText string, options []string) string {
	prompt := "You are a coding tutor for DSA multiple-choice questions.\n" +
		"Rules:\n" +
		"- NEVER reveal the final answer or option letter.\n" +
		"- Provide a strategy/approach hint in 1-2 sentences.\n" +
		"- Make it specific to the provided question and options.\n" +
		"- Avoid generic advice and avoid restating the options verbatim.\n\n" +
		"Question: " + orNone(questionText) + "\n" +
		"Options: " + joinOrNone(options) + "\n" +
		"Give one strong, targeted hint without revealing the final answer/letter."

	text, err := c.generateContent(ctx, prompt, genConfig{Temperature: 0.4, MaxOutputTokens: 64})
	if err != nil || text == "" {
		if err != nil {
			log.Printf("genai: hint generation failed: %v", err)
		}
		return fallbackHint
	}
	return Sanitize(text, options, MaxHintRunes)
}

// GenerateGuideReply produces a short in-game Guide reply. mode is "hint"
// or "chitchat"; question context is optional and only set in hint mode.
func (c *Client) GenerateGuideReply(ctx context.Context, mode, userText, questionText string, options []string) string {
	hintMode := strings.EqualFold(mode, "hint")

	var b strings.Builder
	b.WriteString("You are a friendly in-game Guide.\n")
	b.WriteString("Global rules:\n")
	b.WriteString("- NEVER reveal the final answer or option letter.\n")
	b.WriteString("- Keep responses brief (1-2 sentences).\n")
	b.WriteString("- Be polite and encouraging.\n")
	if hintMode {
		b.WriteString("- Provide strategy/approach hints only, tailored to the question/options.\n")
		b.WriteString("- Do NOT restate options verbatim; prefer properties (e.g., stability, LIFO/FIFO).\n")
	} else {
		b.WriteString("- This is chit-chat (greetings/small talk). Reply naturally and briefly.\n")
	}
	b.WriteString("\nMode: ")
	if hintMode {
		b.WriteString("hint\n")
	} else {
		b.WriteString("chitchat\n")
	}
	if questionText != "" {
		b.WriteString("Question: " + questionText + "\n")
	}
	if len(options) > 0 {
		b.WriteString("Options: " + strings.Join(options, ", ") + "\n")
	}
	b.WriteString("User said: " + userText + "\n")
	if hintMode {
		b.WriteString("Respond with a helpful strategy without giving the final answer/letter.")
	} else {
		b.WriteString("Respond like a human greeting/small talk. Keep it short.")
	}

	text, err := c.generateContent(ctx, b.String(), genConfig{Temperature: 0.7, MaxOutputTokens: 100})
	if err != nil || text == "" {
		if err != nil {
			log.Printf("genai: guide reply failed: %v", err)
		}
		if hintMode {
			return fallbackHintChat
		}
		return fallbackChitchat
	}
	return Sanitize(text, options, MaxChatRunes)
}

// FallbackQuestion is the canonical question served when generation cannot
// produce a usable one.
func FallbackQuestion() quiz.Question {
	q := quiz.NewQuestion(
		"What is the time complexity of binary search on a sorted array?",
		[]string{"O(n)", "O(log n)", "O(n log n)"},
		1,
	)
	q.Source = quiz.SourceFallback
	return q
}

func stripFences(s string) string {
	s = fenceOpenRe.ReplaceAllString(s, "")
	s = fenceEndRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func joinOrNone(opts []string) string {
	if len(opts) == 0 {
		return "(none)"
	}
	return strings.Join(opts, ", ")
}
