package memstore

import (
	"context"
	"sync"

	"github.com/lfoppiano/stackexchange-dataset/pkg/stackexchange/store"
)

// Store is an in-memory implementation of store.Store. Memory grows with the
// number of concurrently open questions, which is fine for small and medium
// dumps.
type Store struct {
	mu        sync.RWMutex
	questions map[string]store.PendingQuestion
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		questions: make(map[string]store.PendingQuestion),
	}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// Get returns a question by id.
func (s *Store) Get(ctx context.Context, id string) (store.PendingQuestion, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q, ok := s.questions[id]
	if !ok {
		return store.PendingQuestion{}, false, nil
	}
	return copyQuestion(q), true, nil
}

// Put inserts or overwrites a question keyed by its id.
func (s *Store) Put(ctx context.Context, q store.PendingQuestion) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if q.ID == "" {
		return nil
	}
	s.questions[q.ID] = copyQuestion(q)
	return nil
}

// Delete removes a question. Deleting an absent id is a no-op.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.questions, id)
	return nil
}

// Contains reports whether a question is open.
func (s *Store) Contains(ctx context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.questions[id]
	return ok, nil
}

// Count returns the number of open questions.
func (s *Store) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.questions)), nil
}

func copyQuestion(q store.PendingQuestion) store.PendingQuestion {
	answers := make(map[string]store.Answer, len(q.Answers))
	for id, a := range q.Answers {
		answers[id] = a
	}
	q.Answers = answers
	return q
}
