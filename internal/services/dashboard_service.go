package services

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"rateio/internal/cache"
	"rateio/internal/core"
	"rateio/internal/ports"
)

const summaryKey = "summary"

// DashboardService computes the overview aggregates. Results are cached
// until the next mutation calls Invalidate or the TTL expires.
type DashboardService struct {
	participants ports.ParticipantStore
	expenses     ports.ExpenseStore
	cache        cache.Cache[core.Summary]

	// generation counts invalidations. A load only fills the cache when no
	// Invalidate happened while it was reading the store.
	mu         sync.Mutex
	generation uint64
}

// NewDashboardService builds the service. A nil cache disables caching.
func NewDashboardService(participants ports.ParticipantStore, expenses ports.ExpenseStore, c cache.Cache[core.Summary]) *DashboardService {
	return &DashboardService{participants: participants, expenses: expenses, cache: c}
}

func (s *DashboardService) Summary(ctx context.Context) (core.Summary, error) {
	if s.cache != nil {
		if sum, ok := s.cache.Get(summaryKey); ok {
			return sum, nil
		}
	}

	s.mu.Lock()
	gen := s.generation
	s.mu.Unlock()

	var (
		ps []core.Participant
		es []core.Expense
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if ps, err = s.participants.ListParticipants(gctx); err != nil {
			return fmt.Errorf("load participants: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if es, err = s.expenses.ListExpenses(gctx); err != nil {
			return fmt.Errorf("load expenses: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return core.Summary{}, err
	}

	sum := core.ComputeSummary(ps, es)
	if s.cache != nil {
		s.mu.Lock()
		if s.generation == gen {
			s.cache.Set(summaryKey, sum)
		}
		s.mu.Unlock()
	}
	return sum, nil
}

// Invalidate drops the cached summary and discards loads still in flight.
func (s *DashboardService) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	if s.cache != nil {
		s.cache.Purge()
	}
}
