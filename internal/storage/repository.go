package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"rateio/internal/core"
	"rateio/internal/ports"

	_ "modernc.org/sqlite"
)

var _ ports.Store = (*SQLiteRepository)(nil)

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single writer avoids SQLITE_BUSY under concurrent requests.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) CreateParticipant(ctx context.Context, p core.Participant) (core.Participant, error) {
	if err := p.Validate(); err != nil {
		return core.Participant{}, err
	}
	p.CreatedAt = r.now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO participants (name, type, children, created_at) VALUES (?, ?, ?, ?)`,
		p.Name, string(p.Type), p.Children, p.CreatedAt.UnixMilli())
	if err != nil {
		return core.Participant{}, fmt.Errorf("insert participant: %w", err)
	}
	if p.ID, err = res.LastInsertId(); err != nil {
		return core.Participant{}, fmt.Errorf("participant id: %w", err)
	}

	slog.InfoContext(ctx, "Participant saved to SQLite", "id", p.ID, "type", p.Type)
	return p, nil
}

func (r *SQLiteRepository) ListParticipants(ctx context.Context) ([]core.Participant, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, type, children, created_at FROM participants ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query participants: %w", err)
	}
	defer rows.Close()

	var out []core.Participant
	for rows.Next() {
		var (
			p         core.Participant
			typ       string
			createdMs int64
		)
		if err := rows.Scan(&p.ID, &p.Name, &typ, &p.Children, &createdMs); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		p.Type = core.ParticipantType(typ)
		p.CreatedAt = time.UnixMilli(createdMs).Local()
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) DeleteParticipant(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, "participants", id)
}

func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if e.Date.IsZero() {
		e.Date = r.now()
	}
	e.Date = e.Date.UTC()
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (description, amount_cents, category, date) VALUES (?, ?, ?, ?)`,
		e.Description, e.Amount.Cents, e.Category, e.Date.UnixMilli())
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}
	if e.ID, err = res.LastInsertId(); err != nil {
		return core.Expense{}, fmt.Errorf("expense id: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", e.ID,
		"description", e.Description,
		"amount_cents", e.Amount.Cents,
		"category", e.Category)
	return e, nil
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, description, amount_cents, category, date FROM expenses ORDER BY date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, description, amount_cents, category, date FROM expenses WHERE id = ?`, id)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, fmt.Errorf("expense %d: %w", id, core.ErrNotFound)
	}
	return e, err
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, "expenses", id)
}

func (r *SQLiteRepository) CreateShoppingItem(ctx context.Context, it core.ShoppingItem) (core.ShoppingItem, error) {
	if err := it.Validate(); err != nil {
		return core.ShoppingItem{}, err
	}
	it.CreatedAt = r.now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO shopping_list (name, category, quantity, completed, created_at) VALUES (?, ?, ?, ?, ?)`,
		it.Name, string(it.Category), it.Quantity, it.Completed, it.CreatedAt.UnixMilli())
	if err != nil {
		return core.ShoppingItem{}, fmt.Errorf("insert shopping item: %w", err)
	}
	if it.ID, err = res.LastInsertId(); err != nil {
		return core.ShoppingItem{}, fmt.Errorf("shopping item id: %w", err)
	}
	return it, nil
}

func (r *SQLiteRepository) ListShoppingItems(ctx context.Context) ([]core.ShoppingItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, category, quantity, completed, created_at FROM shopping_list ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query shopping list: %w", err)
	}
	defer rows.Close()

	var out []core.ShoppingItem
	for rows.Next() {
		var (
			it        core.ShoppingItem
			cat       string
			createdMs int64
		)
		if err := rows.Scan(&it.ID, &it.Name, &cat, &it.Quantity, &it.Completed, &createdMs); err != nil {
			return nil, fmt.Errorf("scan shopping item: %w", err)
		}
		it.Category = core.ShoppingCategory(cat)
		it.CreatedAt = time.UnixMilli(createdMs).Local()
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) SetShoppingItemCompleted(ctx context.Context, id int64, completed bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE shopping_list SET completed = ? WHERE id = ?`, completed, id)
	if err != nil {
		return fmt.Errorf("update shopping item: %w", err)
	}
	return expectAffected(res, "shopping item", id)
}

func (r *SQLiteRepository) DeleteShoppingItem(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, "shopping_list", id)
}

// deleteByID removes one row; table is always a package constant, never user input.
func (r *SQLiteRepository) deleteByID(ctx context.Context, table string, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	return expectAffected(res, table, id)
}

func expectAffected(res sql.Result, what string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", what, id, core.ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExpense(s scanner) (core.Expense, error) {
	var (
		e      core.Expense
		dateMs int64
	)
	if err := s.Scan(&e.ID, &e.Description, &e.Amount.Cents, &e.Category, &dateMs); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Expense{}, err
		}
		return core.Expense{}, fmt.Errorf("scan expense: %w", err)
	}
	e.Date = time.UnixMilli(dateMs).Local()
	return e, nil
}
