// Package postgres is the hosted table store backend, backed by a pgx pool.
package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"rateio/internal/core"
	"rateio/internal/ports"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var _ ports.Store = (*Store)(nil)

type Store struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := Migrate(pool); err != nil {
		pool.Close()
		return nil, err
	}

	slog.Info("Connected to postgres", "host", cfg.ConnConfig.Host, "database", cfg.ConnConfig.Database)
	return &Store{pool: pool, now: time.Now}, nil
}

// Migrate applies the embedded goose migrations.
func Migrate(pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) CreateParticipant(ctx context.Context, p core.Participant) (core.Participant, error) {
	if err := p.Validate(); err != nil {
		return core.Participant{}, err
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO participants (name, type, children) VALUES ($1, $2, $3) RETURNING id, created_at`,
		p.Name, string(p.Type), p.Children).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return core.Participant{}, fmt.Errorf("insert participant: %w", err)
	}
	return p, nil
}

func (s *Store) ListParticipants(ctx context.Context) ([]core.Participant, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, type, children, created_at FROM participants ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query participants: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.Participant, error) {
		var (
			p   core.Participant
			typ string
		)
		err := row.Scan(&p.ID, &p.Name, &typ, &p.Children, &p.CreatedAt)
		p.Type = core.ParticipantType(typ)
		return p, err
	})
}

func (s *Store) DeleteParticipant(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM participants WHERE id = $1`, id)
	return affected(tag, err, "participant", id)
}

func (s *Store) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if e.Date.IsZero() {
		e.Date = s.now()
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO expenses (description, amount_cents, category, date) VALUES ($1, $2, $3, $4) RETURNING id`,
		e.Description, e.Amount.Cents, e.Category, e.Date).Scan(&e.ID)
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}
	return e, nil
}

func (s *Store) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, description, amount_cents, category, date FROM expenses ORDER BY date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	return pgx.CollectRows(rows, scanExpense)
}

func (s *Store) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, description, amount_cents, category, date FROM expenses WHERE id = $1`, id)
	if err != nil {
		return core.Expense{}, fmt.Errorf("query expense: %w", err)
	}
	e, err := pgx.CollectExactlyOneRow(rows, scanExpense)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Expense{}, fmt.Errorf("expense %d: %w", id, core.ErrNotFound)
	}
	return e, err
}

func (s *Store) DeleteExpense(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	return affected(tag, err, "expense", id)
}

func (s *Store) CreateShoppingItem(ctx context.Context, it core.ShoppingItem) (core.ShoppingItem, error) {
	if err := it.Validate(); err != nil {
		return core.ShoppingItem{}, err
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO shopping_list (name, category, quantity, completed) VALUES ($1, $2, $3, $4) RETURNING id, created_at`,
		it.Name, string(it.Category), it.Quantity, it.Completed).Scan(&it.ID, &it.CreatedAt)
	if err != nil {
		return core.ShoppingItem{}, fmt.Errorf("insert shopping item: %w", err)
	}
	return it, nil
}

func (s *Store) ListShoppingItems(ctx context.Context) ([]core.ShoppingItem, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, category, quantity, completed, created_at FROM shopping_list ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query shopping list: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.ShoppingItem, error) {
		var (
			it  core.ShoppingItem
			cat string
		)
		err := row.Scan(&it.ID, &it.Name, &cat, &it.Quantity, &it.Completed, &it.CreatedAt)
		it.Category = core.ShoppingCategory(cat)
		return it, err
	})
}

func (s *Store) SetShoppingItemCompleted(ctx context.Context, id int64, completed bool) error {
	tag, err := s.pool.Exec(ctx, `UPDATE shopping_list SET completed = $1 WHERE id = $2`, completed, id)
	return affected(tag, err, "shopping item", id)
}

func (s *Store) DeleteShoppingItem(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM shopping_list WHERE id = $1`, id)
	return affected(tag, err, "shopping item", id)
}

func scanExpense(row pgx.CollectableRow) (core.Expense, error) {
	var e core.Expense
	err := row.Scan(&e.ID, &e.Description, &e.Amount.Cents, &e.Category, &e.Date)
	return e, err
}

func affected(tag pgconn.CommandTag, err error, what string, id int64) error {
	if err != nil {
		return fmt.Errorf("write %s %d: %w", what, id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s %d: %w", what, id, core.ErrNotFound)
	}
	return nil
}
