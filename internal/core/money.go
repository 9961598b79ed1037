// Package core provides money parsing and handling utilities.
//
// Amounts are entered and displayed in the Brazilian format (R$ 1.234,56),
// but always stored as integer centavos.
package core

import (
	"strconv"
	"strings"
	"time"
)

// maxMaskDigits bounds the live input mask so the centavo value fits in int64.
const maxMaskDigits = 15

// ParseBRLToCents converts a pt-BR decimal string to centavos with half-up rounding.
//
// Dots are thousands separators and the comma is the decimal separator.
// An optional "R$" prefix is ignored. When no comma is present, a single dot
// followed by one or two digits is read as a decimal point ("12.5").
//
// Examples:
//
//	ParseBRLToCents("1.234,56")   -> 123456, nil
//	ParseBRLToCents("R$ 12,30")   -> 1230, nil
//	ParseBRLToCents("12.5")       -> 1250, nil
//	ParseBRLToCents("12,345")     -> 1235, nil (rounds up)
func ParseBRLToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}

	var intPart, fracPart string
	switch {
	case strings.Count(s, ",") > 1:
		return 0, ErrInvalidAmount
	case strings.Contains(s, ","):
		intPart, fracPart, _ = strings.Cut(s, ",")
		grouped, ok := stripThousands(intPart)
		if !ok {
			return 0, ErrInvalidAmount
		}
		intPart = grouped
	case strings.Count(s, ".") == 1 && len(s)-strings.Index(s, ".") <= 3:
		intPart, fracPart, _ = strings.Cut(s, ".")
	default:
		grouped, ok := stripThousands(s)
		if !ok {
			return 0, ErrInvalidAmount
		}
		intPart = grouped
	}
	if intPart == "" {
		intPart = "0"
	}
	if !isASCIIDigits(intPart) || !isASCIIDigits(fracPart) {
		return 0, ErrInvalidAmount
	}

	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64-1 {
		return 0, ErrInvalidAmount
	}

	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	cents := iv*100 + fracCents
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// MaskAmountInput reformats raw keyboard input as it is typed: every digit is
// kept and the result is read as centavos, so "12345" becomes "123,45".
func MaskAmountInput(raw string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)
	digits = strings.TrimLeft(digits, "0")
	if len(digits) > maxMaskDigits {
		digits = digits[:maxMaskDigits]
	}
	if digits == "" {
		return "0,00"
	}
	cents, _ := strconv.ParseInt(digits, 10, 64)
	return formatDecimal(cents)
}

// FormatBRL renders money as Brazilian real, e.g. "R$ 1.234,56".
func FormatBRL(m Money) string {
	if m.Cents < 0 {
		return "-R$ " + formatDecimal(-m.Cents)
	}
	return "R$ " + formatDecimal(m.Cents)
}

// FormatDateBR renders a date as dd/mm/yyyy in the local time zone.
func FormatDateBR(t time.Time) string {
	return t.In(time.Local).Format("02/01/2006")
}

// stripThousands removes dot thousands separators. Every group after the
// first must have exactly three digits ("1.234.567").
func stripThousands(s string) (string, bool) {
	groups := strings.Split(s, ".")
	if len(groups) == 1 {
		return s, true
	}
	if n := len(groups[0]); n < 1 || n > 3 {
		return "", false
	}
	for _, g := range groups[1:] {
		if len(g) != 3 {
			return "", false
		}
	}
	return strings.Join(groups, ""), true
}

func isASCIIDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Reais returns the value as a float64 for charting; calculations use Cents.
func (m Money) Reais() float64 {
	return float64(m.Cents) / 100.0
}

func formatDecimal(cents int64) string {
	whole := strconv.FormatInt(cents/100, 10)
	rem := cents % 100

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	b.WriteByte(',')
	if rem < 10 {
		b.WriteByte('0')
	}
	b.WriteString(strconv.FormatInt(rem, 10))
	return b.String()
}
