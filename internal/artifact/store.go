// Package artifact keeps generated downloads for a limited time.
package artifact

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("artifact not found or expired")

type Artifact struct {
	ID          string
	Name        string
	ContentType string
	Data        []byte
	CreatedAt   time.Time
}

type Store struct {
	mu    sync.RWMutex
	items map[string]Artifact
	ttl   time.Duration
	now   func() time.Time
}

func NewStore(ttl time.Duration) *Store {
	return &Store{items: make(map[string]Artifact), ttl: ttl, now: time.Now}
}

func (s *Store) Put(name, contentType string, data []byte) Artifact {
	a := Artifact{
		ID:          uuid.NewString(),
		Name:        name,
		ContentType: contentType,
		Data:        data,
		CreatedAt:   s.now(),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[a.ID] = a
	return a
}

func (s *Store) Get(id string) (Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.items[id]
	if !ok || s.expired(a) {
		return Artifact{}, ErrNotFound
	}
	return a, nil
}

// Prune removes expired artifacts and reports how many were dropped.
func (s *Store) Prune() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, a := range s.items {
		if s.expired(a) {
			delete(s.items, id)
			n++
		}
	}
	return n
}

func (s *Store) expired(a Artifact) bool {
	return s.ttl > 0 && s.now().Sub(a.CreatedAt) > s.ttl
}
