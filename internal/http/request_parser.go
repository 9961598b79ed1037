// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data.
// Form values are sanitized and converted into core types; conversion errors
// wrap core sentinels so they map to the same status codes as validation.

package http

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"rateio/internal/core"
)

// DateLayout is the value format of <input type="date">.
const DateLayout = "2006-01-02"

// ErrBadForm marks a request body that could not be decoded.
var ErrBadForm = errors.New("formato de requisição inválido")

func parseForm(r *http.Request) error {
	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("%w: %v", ErrBadForm, err)
	}
	return nil
}

// ParseID reads the {id} path value. Malformed ids cannot exist in any
// table, so they are reported as not found.
func ParseID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("id %q: %w", raw, core.ErrNotFound)
	}
	return id, nil
}

// ParseParticipantForm builds a participant from name, type and children.
// An empty children field counts as zero.
func ParseParticipantForm(r *http.Request) (core.Participant, error) {
	if err := parseForm(r); err != nil {
		return core.Participant{}, err
	}

	p := core.Participant{
		Name: sanitizeInput(r.Form.Get("name")),
		Type: core.ParticipantType(strings.ToLower(sanitizeInput(r.Form.Get("type")))),
	}
	if v := strings.TrimSpace(r.Form.Get("children")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return core.Participant{}, fmt.Errorf("children %q: %w", v, core.ErrInvalidChildren)
		}
		p.Children = n
	}
	return p, p.Validate()
}

// ParseExpenseForm builds an expense from description, amount (pt-BR),
// category and an optional date. A missing date is left zero so the
// store stamps the insertion time.
func ParseExpenseForm(r *http.Request) (core.Expense, error) {
	if err := parseForm(r); err != nil {
		return core.Expense{}, err
	}

	cents, err := core.ParseBRLToCents(r.Form.Get("amount"))
	if err != nil {
		return core.Expense{}, err
	}
	e := core.Expense{
		Description: sanitizeInput(r.Form.Get("description")),
		Amount:      core.Money{Cents: cents},
		Category:    sanitizeInput(r.Form.Get("category")),
	}
	if v := strings.TrimSpace(r.Form.Get("date")); v != "" {
		d, err := time.ParseInLocation(DateLayout, v, time.Local)
		if err != nil {
			return core.Expense{}, fmt.Errorf("date %q: %w", v, core.ErrInvalidDate)
		}
		e.Date = d
	}
	return e, nil
}

// ShoppingForm is the raw add-item submission. Category normalization
// happens in the service.
type ShoppingForm struct {
	Name     string
	Category string
	Quantity float64
}

// ParseShoppingForm reads itemName, itemCategory and quantity. Quantity
// accepts a comma decimal separator and defaults to zero when empty.
func ParseShoppingForm(r *http.Request) (ShoppingForm, error) {
	if err := parseForm(r); err != nil {
		return ShoppingForm{}, err
	}

	f := ShoppingForm{
		Name:     sanitizeInput(r.Form.Get("itemName")),
		Category: sanitizeInput(r.Form.Get("itemCategory")),
	}
	if v := strings.TrimSpace(r.Form.Get("quantity")); v != "" {
		q, err := strconv.ParseFloat(strings.Replace(v, ",", ".", 1), 64)
		if err != nil {
			return ShoppingForm{}, fmt.Errorf("quantity %q: %w", v, core.ErrInvalidQuantity)
		}
		f.Quantity = q
	}
	if f.Name == "" {
		return ShoppingForm{}, core.ErrEmptyName
	}
	if math.IsNaN(f.Quantity) || math.IsInf(f.Quantity, 0) || f.Quantity < 0 {
		return ShoppingForm{}, fmt.Errorf("quantity %q: %w", r.Form.Get("quantity"), core.ErrInvalidQuantity)
	}
	return f, nil
}

// ParseCompleted reads the toggle checkbox. An unchecked box is absent
// from the submission and means false.
func ParseCompleted(r *http.Request) (bool, error) {
	if err := parseForm(r); err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(r.Form.Get("completed"))) {
	case "on", "true", "1":
		return true, nil
	default:
		return false, nil
	}
}

// sanitizeInput removes control characters except tab and newlines and
// trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
