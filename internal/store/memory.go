package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/algo-arena/algoarena-server/internal/quiz"
)

type memPlayer struct {
	id     string
	name   string
	points int
}

// MemoryStore is an in-memory Store for tests and db-less development.
type MemoryStore struct {
	mu       sync.RWMutex
	byName   map[string]*memPlayer
	byID     map[string]*memPlayer
	quesLog  []quiz.Question
	attempts []Attempt
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byName: map[string]*memPlayer{},
		byID:   map[string]*memPlayer{},
	}
}

func (m *MemoryStore) UpsertByName(_ context.Context, name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.byName[name]; ok {
		return p.id, nil
	}
	p := &memPlayer{id: uuid.NewString(), name: name}
	m.byName[name] = p
	m.byID[p.id] = p
	return p.id, nil
}

func (m *MemoryStore) AddPoints(_ context.Context, playerID string, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.byID[playerID]; ok {
		p.points += delta
	}
	return nil
}

func (m *MemoryStore) TotalPoints(_ context.Context, playerID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.byID[playerID]; ok {
		return p.points, nil
	}
	return 0, nil
}

func (m *MemoryStore) TopPlayers(_ context.Context, n int) ([]PlayerRank, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ranks := make([]PlayerRank, 0, len(m.byID))
	for _, p := range m.byID {
		ranks = append(ranks, PlayerRank{ID: p.id, Name: p.name, TotalPoints: p.points})
	}
	sort.Slice(ranks, func(i, j int) bool {
		if ranks[i].TotalPoints != ranks[j].TotalPoints {
			return ranks[i].TotalPoints > ranks[j].TotalPoints
		}
		return ranks[i].Name < ranks[j].Name
	})
	if len(ranks) > n {
		ranks = ranks[:n]
	}
	return ranks, nil
}

func (m *MemoryStore) SaveQuestion(_ context.Context, q quiz.Question, _ AskedMeta) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quesLog = append(m.quesLog, q)
	return nil
}

func (m *MemoryStore) SaveAttempt(_ context.Context, a Attempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	m.attempts = append(m.attempts, a)
	return nil
}

// Attempts returns a snapshot of saved attempts; test helper.
func (m *MemoryStore) Attempts() []Attempt {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Attempt, len(m.attempts))
	copy(out, m.attempts)
	return out
}

// Questions returns a snapshot of the question log; test helper.
func (m *MemoryStore) Questions() []quiz.Question {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]quiz.Question, len(m.quesLog))
	copy(out, m.quesLog)
	return out
}
