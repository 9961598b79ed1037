// Package sheets defines the spreadsheet mirror that receives a copy of every
// expense. Implementations live in the google and memory subpackages.
package sheets

import (
	"context"
	"time"

	"rateio/internal/core"
)

// Mirror keeps one spreadsheet row per expense, keyed by expense ID.
// Both operations are idempotent so redelivered messages are harmless.
type Mirror interface {
	UpsertExpense(ctx context.Context, e core.Expense) error
	DeleteExpense(ctx context.Context, id int64) error
}

// Header is the first row of the mirror sheet.
var Header = []any{"ID", "Data", "Descrição", "Valor", "Categoria"}

// ExpenseRow is the mirror row for e: id, local ISO date, description,
// amount in reais, category. Numbers stay numeric so the sheet can sum them.
func ExpenseRow(e core.Expense) []any {
	return []any{
		e.ID,
		e.Date.In(time.Local).Format("2006-01-02"),
		e.Description,
		e.Amount.Reais(),
		e.Category,
	}
}
