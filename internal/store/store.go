package store

import (
	"context"
	"time"

	"github.com/algo-arena/algoarena-server/internal/quiz"
)

// PlayerDirectory resolves display names to stable player ids and tracks a
// running total. UpsertByName is idempotent: the same name always maps to
// the same id.
type PlayerDirectory interface {
	UpsertByName(ctx context.Context, name string) (string, error)
	AddPoints(ctx context.Context, playerID string, delta int) error
	TotalPoints(ctx context.Context, playerID string) (int, error)
	TopPlayers(ctx context.Context, n int) ([]PlayerRank, error)
}

// QuestionLog persists every issued question. Writes are fire-and-forget
// from the protocol path; failures are logged, never surfaced.
type QuestionLog interface {
	SaveQuestion(ctx context.Context, q quiz.Question, meta AskedMeta) error
}

// AttemptLog persists answer attempts, same fire-and-forget contract.
type AttemptLog interface {
	SaveAttempt(ctx context.Context, a Attempt) error
}

// Store is the full persistence surface backed by one database.
type Store interface {
	PlayerDirectory
	QuestionLog
	AttemptLog
}

type PlayerRank struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	TotalPoints int    `json:"totalPoints"`
}

type AskedMeta struct {
	Level    int
	Category string
}

type Attempt struct {
	ID             string
	PlayerID       string
	SessionID      string
	QuestionID     string
	AnswerIndex    int
	Correct        bool
	DeltaPoints    int
	ResponseTimeMs int64
	CreatedAt      time.Time
}
