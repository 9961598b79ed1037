package services

import (
	"context"
	"errors"
	"testing"

	"rateio/internal/core"
	"rateio/internal/memory"
)

func TestShoppingService(t *testing.T) {
	svc := NewShoppingService(memory.New())
	ctx := context.Background()

	rice, err := svc.AddItem(ctx, "Arroz", "alimentos", 2)
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if rice.Completed {
		t.Fatal("new items start not completed")
	}
	soap, err := svc.AddItem(ctx, "Sabão", "limpeza", 1)
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if soap.Category != core.GeneralItems {
		t.Fatalf("unknown category should fall back to itens_gerais, got %q", soap.Category)
	}
	if _, err := svc.AddItem(ctx, " ", "alimentos", 1); !errors.Is(err, core.ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}

	if err := svc.SetCompleted(ctx, rice.ID, true); err != nil {
		t.Fatalf("SetCompleted: %v", err)
	}

	sections, err := svc.Sections(ctx)
	if err != nil {
		t.Fatalf("Sections: %v", err)
	}
	if len(sections) != 2 || sections[0].Category != core.Groceries || sections[1].Category != core.GeneralItems {
		t.Fatalf("unexpected sections %+v", sections)
	}
	if !sections[0].Items[0].Completed {
		t.Fatal("toggle not persisted")
	}

	if err := svc.RemoveItem(ctx, soap.ID); err != nil {
		t.Fatalf("RemoveItem: %v", err)
	}
	if err := svc.SetCompleted(ctx, soap.ID, true); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	sections, _ = svc.Sections(ctx)
	if len(sections) != 1 {
		t.Fatalf("empty sections must be omitted, got %+v", sections)
	}
}
