package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"rateio/internal/core"
	"rateio/internal/ports"
)

// ExpenseService orchestrates expense writes across the table store and the
// optional AMQP mirror.
type ExpenseService struct {
	store     ports.ExpenseStore
	publisher Publisher
	opts      options
}

// NewExpenseService builds the service. publisher may be nil, in which case
// mirror messages are skipped.
func NewExpenseService(store ports.ExpenseStore, publisher Publisher, opts ...Option) *ExpenseService {
	return &ExpenseService{
		store:     store,
		publisher: publisher,
		opts:      buildOptions(opts),
	}
}

// CreateExpense saves an expense and then publishes a sync message.
// A publish failure is logged and does not fail the call.
func (s *ExpenseService) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	e.Description = strings.TrimSpace(e.Description)
	e.Category = strings.TrimSpace(e.Category)
	if e.Date.IsZero() {
		e.Date = time.Now()
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	saved, err := s.store.CreateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}
	s.opts.invalidator.Invalidate()
	s.opts.recorder.Mutation("expense", "create")

	if s.publisher != nil {
		err := s.publisher.PublishExpenseSync(ctx, saved.ID, 1)
		s.opts.recorder.Published("expense.sync", err)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to publish sync message", "id", saved.ID, "error", err)
		}
	}
	return saved, nil
}

func (s *ExpenseService) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	expenses, err := s.store.ListExpenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, nil
}

// DeleteExpense removes an expense and publishes a delete message.
func (s *ExpenseService) DeleteExpense(ctx context.Context, id int64) error {
	if err := s.store.DeleteExpense(ctx, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	s.opts.invalidator.Invalidate()
	s.opts.recorder.Mutation("expense", "delete")

	if s.publisher != nil {
		err := s.publisher.PublishExpenseDelete(ctx, id)
		s.opts.recorder.Published("expense.delete", err)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to publish delete message", "id", id, "error", err)
		}
	}
	return nil
}
