package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/algo-arena/algoarena-server/internal/quiz"
)

// SQLStore implements Store against the schema in internal/db. Placeholders
// use the $n form, which both the pgx and modernc sqlite drivers accept.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) UpsertByName(ctx context.Context, name string) (string, error) {
	now := time.Now().UnixMilli()

	var id string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM players WHERE name=$1`, name).Scan(&id)
	switch {
	case err == nil:
		_, err = s.db.ExecContext(ctx, `UPDATE players SET last_seen=$1 WHERE id=$2`, now, id)
		return id, err
	case errors.Is(err, sql.ErrNoRows):
		id = uuid.NewString()
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO players (id, name, total_points, created_at, last_seen) VALUES ($1,$2,0,$3,$3)`,
			id, name, now)
		return id, err
	default:
		return "", err
	}
}

func (s *SQLStore) AddPoints(ctx context.Context, playerID string, delta int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE players SET total_points=total_points+$1, last_seen=$2 WHERE id=$3`,
		delta, time.Now().UnixMilli(), playerID)
	return err
}

func (s *SQLStore) TotalPoints(ctx context.Context, playerID string) (int, error) {
	var total int
	err := s.db.QueryRowContext(ctx, `SELECT total_points FROM players WHERE id=$1`, playerID).Scan(&total)
	return total, err
}

func (s *SQLStore) TopPlayers(ctx context.Context, n int) ([]PlayerRank, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, total_points FROM players ORDER BY total_points DESC, name ASC LIMIT $1`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PlayerRank
	for rows.Next() {
		var r PlayerRank
		if err := rows.Scan(&r.ID, &r.Name, &r.TotalPoints); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLStore) SaveQuestion(ctx context.Context, q quiz.Question, meta AskedMeta) error {
	opts, err := json.Marshal(q.Options)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO question_log (id, text, options_json, correct_index, source, level, category, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		q.ID, q.Text, string(opts), q.CorrectIndex, q.Source, meta.Level, meta.Category, time.Now().UnixMilli())
	return err
}

func (s *SQLStore) SaveAttempt(ctx context.Context, a Attempt) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO attempts (id, player_id, session_id, question_id, answer_index, is_correct, delta_points, response_time_ms, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		a.ID, a.PlayerID, a.SessionID, a.QuestionID, a.AnswerIndex, a.Correct, a.DeltaPoints, a.ResponseTimeMs, a.CreatedAt.UnixMilli())
	return err
}
