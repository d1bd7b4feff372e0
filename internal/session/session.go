package session

import (
	"sync"

	"github.com/algo-arena/algoarena-server/internal/quiz"
)

// State is the mutable per-connection game state. It is owned by the one
// goroutine processing that connection's frames, so it carries no lock; the
// registry only guards the map itself.
type State struct {
	ConnID    string
	PlayerID  string
	SessionID string
	Name      string

	Level        int
	Progress     int
	TotalPoints  int
	LastQuestion *quiz.Question
}

// Initialized reports whether the identity frame was processed.
func (s *State) Initialized() bool { return s.PlayerID != "" }

// Registry maps connection ids to session state. Create/Remove are tied to
// the websocket lifecycle.
type Registry struct {
	mu   sync.RWMutex
	byID map[string]*State
}

func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]*State)}
}

func (r *Registry) Create(connID string) *State {
	st := &State{ConnID: connID, Level: 1}
	r.mu.Lock()
	r.byID[connID] = st
	r.mu.Unlock()
	return st
}

func (r *Registry) Get(connID string) *State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byID[connID]
}

func (r *Registry) Remove(connID string) {
	r.mu.Lock()
	delete(r.byID, connID)
	r.mu.Unlock()
}

// Len reports active connections; used by the health endpoint.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
