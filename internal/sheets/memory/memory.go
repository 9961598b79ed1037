// Package memory is an in-process spreadsheet mirror for development and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"rateio/internal/core"
	"rateio/internal/sheets"
)

var _ sheets.Mirror = (*Mirror)(nil)

type Mirror struct {
	mu   sync.Mutex
	rows map[int64][]any
}

func New() *Mirror {
	return &Mirror{rows: make(map[int64][]any)}
}

func (m *Mirror) UpsertExpense(_ context.Context, e core.Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[e.ID] = sheets.ExpenseRow(e)
	return nil
}

func (m *Mirror) DeleteExpense(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, id)
	return nil
}

// Rows returns the mirrored rows ordered by expense ID.
func (m *Mirror) Rows() [][]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int64, 0, len(m.rows))
	for id := range m.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([][]any, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.rows[id])
	}
	return out
}
