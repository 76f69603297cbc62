package session

import (
	"context"
	"sync"

	"github.com/helashop/storefront-go/pkg/types"
)

// MemoryStore keeps the session in process memory. Used for ephemeral CLI
// runs and as the test double across packages.
type MemoryStore struct {
	mu    sync.RWMutex
	token string
	user  *types.UserSnapshot
}

// NewMemoryStore returns an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Token(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, nil
}

func (s *MemoryStore) SetToken(ctx context.Context, token string) error {
	if err := ValidateToken(token); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *MemoryStore) ClearToken(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}

func (s *MemoryStore) CachedUser(ctx context.Context) (*types.UserSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil, nil
	}
	copied := *s.user
	return &copied, nil
}

func (s *MemoryStore) SetCachedUser(ctx context.Context, user *types.UserSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user == nil {
		s.user = nil
		return nil
	}
	copied := *user
	s.user = &copied
	return nil
}

func (s *MemoryStore) ClearUser(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	return nil
}
