package services

import (
	"context"
	"fmt"
	"strings"

	"rateio/internal/core"
	"rateio/internal/ports"
)

// ShoppingService manages the shared shopping list. The list does not feed
// the dashboard summary, so it never invalidates it.
type ShoppingService struct {
	store ports.ShoppingStore
	opts  options
}

func NewShoppingService(store ports.ShoppingStore, opts ...Option) *ShoppingService {
	return &ShoppingService{store: store, opts: buildOptions(opts)}
}

// AddItem stores a new, not yet completed item. Unknown categories fall back
// to general items.
func (s *ShoppingService) AddItem(ctx context.Context, name, category string, quantity float64) (core.ShoppingItem, error) {
	it := core.ShoppingItem{
		Name:     strings.TrimSpace(name),
		Category: core.NormalizeShoppingCategory(category),
		Quantity: quantity,
	}
	if err := it.Validate(); err != nil {
		return core.ShoppingItem{}, err
	}
	saved, err := s.store.CreateShoppingItem(ctx, it)
	if err != nil {
		return core.ShoppingItem{}, fmt.Errorf("save shopping item: %w", err)
	}
	s.opts.recorder.Mutation("shopping_item", "create")
	return saved, nil
}

// Sections returns the list grouped by category in display order.
func (s *ShoppingService) Sections(ctx context.Context) ([]core.ShoppingSection, error) {
	items, err := s.store.ListShoppingItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("list shopping items: %w", err)
	}
	return core.GroupShoppingItems(items), nil
}

func (s *ShoppingService) SetCompleted(ctx context.Context, id int64, completed bool) error {
	if err := s.store.SetShoppingItemCompleted(ctx, id, completed); err != nil {
		return fmt.Errorf("update shopping item: %w", err)
	}
	s.opts.recorder.Mutation("shopping_item", "toggle")
	return nil
}

func (s *ShoppingService) RemoveItem(ctx context.Context, id int64) error {
	if err := s.store.DeleteShoppingItem(ctx, id); err != nil {
		return fmt.Errorf("delete shopping item: %w", err)
	}
	s.opts.recorder.Mutation("shopping_item", "delete")
	return nil
}
