package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"rateio/internal/amqp"
	"rateio/internal/core"
	"rateio/internal/ports"
	"rateio/internal/sheets"
)

var _ amqp.Handler = (*SyncWorker)(nil)

// SyncWorker mirrors expenses from the table store into a spreadsheet.
type SyncWorker struct {
	store  ports.ExpenseStore
	mirror sheets.Mirror
}

func NewSyncWorker(store ports.ExpenseStore, mirror sheets.Mirror) *SyncWorker {
	return &SyncWorker{store: store, mirror: mirror}
}

// HandleSync reloads the expense and writes its mirror row. An expense that
// was deleted before the message arrived is skipped; its delete message
// follows on the same queue.
func (w *SyncWorker) HandleSync(ctx context.Context, msg *amqp.ExpenseSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message", "id", msg.ID, "version", msg.Version)

	e, err := w.store.GetExpense(ctx, msg.ID)
	if errors.Is(err, core.ErrNotFound) {
		slog.WarnContext(ctx, "Expense no longer exists, skipping sync", "id", msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get expense from storage: %w", err)
	}

	if err := w.mirror.UpsertExpense(ctx, e); err != nil {
		return fmt.Errorf("mirror expense %d: %w", e.ID, err)
	}
	return nil
}

// HandleDelete removes the mirror row of a deleted expense.
func (w *SyncWorker) HandleDelete(ctx context.Context, msg *amqp.ExpenseDeleteMessage) error {
	slog.InfoContext(ctx, "Processing delete message", "id", msg.ID)

	if err := w.mirror.DeleteExpense(ctx, msg.ID); err != nil {
		return fmt.Errorf("delete mirrored expense %d: %w", msg.ID, err)
	}
	return nil
}

// Resync writes every stored expense to the mirror, recovering from
// messages lost while the worker was down. It returns how many rows were written.
func (w *SyncWorker) Resync(ctx context.Context) (int, error) {
	expenses, err := w.store.ListExpenses(ctx)
	if err != nil {
		return 0, fmt.Errorf("list expenses: %w", err)
	}

	written := 0
	for _, e := range expenses {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		if err := w.mirror.UpsertExpense(ctx, e); err != nil {
			return written, fmt.Errorf("mirror expense %d: %w", e.ID, err)
		}
		written++
	}

	slog.InfoContext(ctx, "Resync complete", "expenses", written)
	return written, nil
}
