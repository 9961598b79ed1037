package core

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	Couple     ParticipantType = "casal"
	Individual ParticipantType = "individual"
)

const (
	Groceries    ShoppingCategory = "alimentos"
	GeneralItems ShoppingCategory = "itens_gerais"
)

type (
	ParticipantType  string
	ShoppingCategory string

	Money struct {
		Cents int64
	}

	Participant struct {
		ID        int64
		Name      string
		Type      ParticipantType
		Children  int
		CreatedAt time.Time
	}

	Expense struct {
		ID          int64
		Description string
		Amount      Money
		Category    string
		Date        time.Time
	}

	ShoppingItem struct {
		ID        int64
		Name      string
		Category  ShoppingCategory
		Quantity  float64
		Completed bool
		CreatedAt time.Time
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyName        = errors.New("empty name")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyCategory    = errors.New("empty category")
	ErrInvalidType      = errors.New("invalid participant type")
	ErrInvalidChildren  = errors.New("children must not be negative")
	ErrInvalidQuantity  = errors.New("quantity must be a finite, non-negative number")
	ErrInvalidDate      = errors.New("date cannot be zero")
	ErrTooLong          = errors.New("value too long")
	ErrNotFound         = errors.New("not found")
)

// Adults is the number of cost-bearing adults this participant stands for.
func (t ParticipantType) Adults() int {
	if t == Couple {
		return 2
	}
	return 1
}

func (t ParticipantType) Valid() bool {
	return t == Couple || t == Individual
}

// Label returns the display name used in tables.
func (t ParticipantType) Label() string {
	switch t {
	case Couple:
		return "Casal"
	case Individual:
		return "Individual"
	default:
		return string(t)
	}
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (p Participant) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if utf8.RuneCountInString(p.Name) > 100 {
		return fmt.Errorf("name: %w (max 100 characters)", ErrTooLong)
	}
	if !p.Type.Valid() {
		return ErrInvalidType
	}
	if p.Children < 0 {
		return ErrInvalidChildren
	}
	return nil
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.Description) == "" {
		return ErrEmptyDescription
	}
	if utf8.RuneCountInString(e.Description) > 200 {
		return fmt.Errorf("description: %w (max 200 characters)", ErrTooLong)
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	if e.Date.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (i ShoppingItem) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return ErrEmptyName
	}
	if math.IsNaN(i.Quantity) || math.IsInf(i.Quantity, 0) || i.Quantity < 0 {
		return ErrInvalidQuantity
	}
	return nil
}

// IsValidationError reports whether err comes from one of the Validate methods
// or from amount parsing, as opposed to a storage failure.
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrInvalidAmount, ErrEmptyName, ErrEmptyDescription, ErrEmptyCategory,
		ErrInvalidType, ErrInvalidChildren, ErrInvalidQuantity, ErrInvalidDate, ErrTooLong,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
