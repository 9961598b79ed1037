// Package ports declares the table-store interfaces the application depends on.
// Each backend (memory, sqlite, postgres) implements Store.
package ports

import (
	"context"

	"rateio/internal/core"
)

type (
	ParticipantStore interface {
		CreateParticipant(ctx context.Context, p core.Participant) (core.Participant, error)
		// ListParticipants returns participants in insertion order.
		ListParticipants(ctx context.Context) ([]core.Participant, error)
		DeleteParticipant(ctx context.Context, id int64) error
	}

	ExpenseStore interface {
		CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
		// ListExpenses returns expenses newest first.
		ListExpenses(ctx context.Context) ([]core.Expense, error)
		GetExpense(ctx context.Context, id int64) (core.Expense, error)
		DeleteExpense(ctx context.Context, id int64) error
	}

	ShoppingStore interface {
		CreateShoppingItem(ctx context.Context, it core.ShoppingItem) (core.ShoppingItem, error)
		ListShoppingItems(ctx context.Context) ([]core.ShoppingItem, error)
		SetShoppingItemCompleted(ctx context.Context, id int64, completed bool) error
		DeleteShoppingItem(ctx context.Context, id int64) error
	}

	// Store is the full table store. Unknown ids on delete or update yield core.ErrNotFound.
	Store interface {
		ParticipantStore
		ExpenseStore
		ShoppingStore
		Ping(ctx context.Context) error
	}
)
