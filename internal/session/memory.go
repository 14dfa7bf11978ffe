package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/varsilias/ollama-studio/internal/apperr"
	"github.com/varsilias/ollama-studio/internal/conversation"
)

// Store hands out live coding sessions. Get creates a fresh session holding
// only the preamble when the id is unknown.
type Store interface {
	Get(ctx context.Context, id string) (*conversation.Session, error)
	Save(ctx context.Context, s *conversation.Session) error
	Delete(ctx context.Context, id string) error
}

// NewID returns a random session id.
func NewID() string { return uuid.NewString() }

type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]*conversation.Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]*conversation.Session)}
}

func (s *MemoryStore) Get(_ context.Context, id string) (*conversation.Session, error) {
	if id == "" {
		return nil, apperr.Invalid("session id", "empty")
	}
	s.mu.RLock()
	cs, ok := s.data[id]
	s.mu.RUnlock()
	if ok {
		return cs, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if cs, ok := s.data[id]; ok {
		return cs, nil
	}
	cs = conversation.New(id)
	s.data[id] = cs
	return cs, nil
}

// Save registers cs under its id. Live sessions are already held, so this
// only matters for sessions built elsewhere.
func (s *MemoryStore) Save(_ context.Context, cs *conversation.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[cs.ID()] = cs
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

// adopt stores cs unless a live session with the same id exists, and returns
// the one that won.
func (s *MemoryStore) adopt(cs *conversation.Session) *conversation.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if live, ok := s.data[cs.ID()]; ok {
		return live
	}
	s.data[cs.ID()] = cs
	return cs
}

func (s *MemoryStore) lookup(id string) (*conversation.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cs, ok := s.data[id]
	return cs, ok
}

// Summary is what the session switcher shows.
type Summary struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	Turns   int       `json:"turns"`
	Updated time.Time `json:"updated"`
}

// List returns session summaries, most recently updated first.
func (s *MemoryStore) List() []Summary {
	s.mu.RLock()
	out := make([]Summary, 0, len(s.data))
	for id, cs := range s.data {
		out = append(out, Summary{
			ID:      id,
			Title:   cs.Title(),
			Turns:   len(cs.History()),
			Updated: cs.UpdatedAt(),
		})
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Updated.After(out[j].Updated) })
	return out
}

// Prune drops idle sessions that have not been updated within idle. Sessions
// with a turn in flight are kept.
func (s *MemoryStore) Prune(idle time.Duration, now time.Time) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var dropped []string
	for id, cs := range s.data {
		if cs.State() != conversation.StateIdle {
			continue
		}
		if now.Sub(cs.UpdatedAt()) > idle {
			delete(s.data, id)
			dropped = append(dropped, id)
		}
	}
	return dropped
}
