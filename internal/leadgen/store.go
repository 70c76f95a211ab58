package leadgen

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store persists submissions.
type Store interface {
	// Create assigns ID and CreatedAt when unset and saves s.
	Create(ctx context.Context, s *Submission) error
	// GetByToken returns the submission of kind stored under tokenHash, or
	// ErrNotFound.
	GetByToken(ctx context.Context, kind Kind, tokenHash string) (*Submission, error)
	// CountByEmail counts submissions from email created at or after since.
	CountByEmail(ctx context.Context, email string, since time.Time) (int, error)
}

// MemoryStore is an in-memory Store for development and tests.
type MemoryStore struct {
	byToken map[string]*Submission
	mu      sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byToken: make(map[string]*Submission)}
}

func (s *MemoryStore) Create(_ context.Context, sub *Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prepare(sub)
	stored := *sub
	stored.Params = maps.Clone(sub.Params)
	s.byToken[sub.TokenHash] = &stored
	return nil
}

func (s *MemoryStore) GetByToken(_ context.Context, kind Kind, tokenHash string) (*Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.byToken[tokenHash]
	if !ok || sub.Kind != kind {
		return nil, ErrNotFound
	}
	out := *sub
	out.Params = maps.Clone(sub.Params)
	return &out, nil
}

func (s *MemoryStore) CountByEmail(_ context.Context, email string, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, sub := range s.byToken {
		if sub.Email == email && !sub.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func prepare(sub *Submission) {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}
	if sub.Params == nil {
		sub.Params = map[string]string{}
	}
}
