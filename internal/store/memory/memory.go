package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"expenses/internal/core"
)

// Store keeps the expenses of one session in insertion order.
type Store struct {
	mu    sync.Mutex
	today func() core.Date
	items []core.Expense
}

// New returns an empty store. today supplies the upper date bound used to
// validate appended records.
func New(today func() core.Date) *Store {
	return &Store{today: today}
}

// Append stores the expense at the end of the collection and returns its id
// as row reference.
func (s *Store) Append(_ context.Context, e core.Expense) (string, error) {
	if err := e.Validate(s.today()); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.items {
		if existing.ID == e.ID {
			return "", fmt.Errorf("duplicate expense id %s", e.ID)
		}
	}
	s.items = append(s.items, e)
	return e.ID.String(), nil
}

// Remove deletes the expense with the given id, keeping the order of the
// remaining ones.
func (s *Store) Remove(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.items {
		if e.ID == id {
			s.items = append(s.items[:i:i], s.items[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// ListExpenses returns a copy of the collection.
func (s *Store) ListExpenses(_ context.Context) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Expense(nil), s.items...), nil
}

// Len returns the number of stored expenses.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
