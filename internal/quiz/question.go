package quiz

import (
	"time"

	"github.com/google/uuid"
)

// Source of a question, recorded in the persistent log.
const (
	SourceGenAI    = "genai"
	SourceFallback = "fallback"
)

// Question is an immutable multiple-choice question. CorrectIndex always
// satisfies 0 <= CorrectIndex < len(Options) for questions produced by this
// package or accepted from the generator.
type Question struct {
	ID           string   `json:"id"`
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
	Topic        string   `json:"topic,omitempty"`
	Source       string   `json:"source,omitempty"`
}

func NewQuestion(text string, options []string, correctIndex int) Question {
	return Question{
		ID:           "q-" + uuid.NewString(),
		Text:         text,
		Options:      options,
		CorrectIndex: correctIndex,
	}
}

// Valid reports whether the option list and correct index are coherent.
func (q Question) Valid() bool {
	return q.Text != "" && len(q.Options) > 0 && q.CorrectIndex >= 0 && q.CorrectIndex < len(q.Options)
}

// CacheRecord is what the de-dup cache stores per fingerprint.
type CacheRecord struct {
	Fingerprint string    `json:"fingerprint"`
	Question    Question  `json:"question"`
	CreatedAt   time.Time `json:"createdAt"`
}
