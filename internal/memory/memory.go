// Package memory is an in-process table store used for development and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"rateio/internal/core"
	"rateio/internal/ports"
)

var _ ports.Store = (*Store)(nil)

type Store struct {
	mu           sync.Mutex
	nextID       int64
	participants []core.Participant
	expenses     []core.Expense
	items        []core.ShoppingItem
	now          func() time.Time
}

func New() *Store {
	return &Store{now: time.Now}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) CreateParticipant(_ context.Context, p core.Participant) (core.Participant, error) {
	if err := p.Validate(); err != nil {
		return core.Participant{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.id()
	p.CreatedAt = s.now()
	s.participants = append(s.participants, p)
	return p, nil
}

func (s *Store) ListParticipants(context.Context) ([]core.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Participant(nil), s.participants...), nil
}

func (s *Store) DeleteParticipant(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.participants {
		if p.ID == id {
			s.participants = append(s.participants[:i], s.participants[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("participant %d: %w", id, core.ErrNotFound)
}

func (s *Store) CreateExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.Date.IsZero() {
		e.Date = s.now()
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	e.ID = s.id()
	s.expenses = append(s.expenses, e)
	return e, nil
}

func (s *Store) ListExpenses(context.Context) ([]core.Expense, error) {
	s.mu.Lock()
	out := append([]core.Expense(nil), s.expenses...)
	s.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].ID > out[j].ID
		}
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}

func (s *Store) GetExpense(_ context.Context, id int64) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.expenses {
		if e.ID == id {
			return e, nil
		}
	}
	return core.Expense{}, fmt.Errorf("expense %d: %w", id, core.ErrNotFound)
}

func (s *Store) DeleteExpense(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.expenses {
		if e.ID == id {
			s.expenses = append(s.expenses[:i], s.expenses[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("expense %d: %w", id, core.ErrNotFound)
}

func (s *Store) CreateShoppingItem(_ context.Context, it core.ShoppingItem) (core.ShoppingItem, error) {
	if err := it.Validate(); err != nil {
		return core.ShoppingItem{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	it.ID = s.id()
	it.CreatedAt = s.now()
	s.items = append(s.items, it)
	return it, nil
}

func (s *Store) ListShoppingItems(context.Context) ([]core.ShoppingItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.ShoppingItem(nil), s.items...), nil
}

func (s *Store) SetShoppingItemCompleted(_ context.Context, id int64, completed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].Completed = completed
			return nil
		}
	}
	return fmt.Errorf("shopping item %d: %w", id, core.ErrNotFound)
}

func (s *Store) DeleteShoppingItem(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, it := range s.items {
		if it.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("shopping item %d: %w", id, core.ErrNotFound)
}
