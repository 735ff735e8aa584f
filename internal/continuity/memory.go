package continuity

import (
	"context"
	"sync"
)

// MemoryStore is the default, in-process Store implementation. Tokens do not
// survive a restart.
type MemoryStore[T any] struct {
	mu     sync.RWMutex
	tokens map[int64]T
}

func NewMemoryStore[T any]() *MemoryStore[T] {
	return &MemoryStore[T]{
		tokens: make(map[int64]T),
	}
}

func (s *MemoryStore[T]) Get(_ context.Context, chatID int64) (T, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	token, ok := s.tokens[chatID]
	return token, ok, nil
}

func (s *MemoryStore[T]) Set(_ context.Context, chatID int64, token T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens[chatID] = token
	return nil
}

func (s *MemoryStore[T]) Clear(_ context.Context, chatID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tokens, chatID)
	return true, nil
}
