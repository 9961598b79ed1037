package core

import (
	"testing"
	"time"
)

func TestParseBRLToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1,00", 100, true},
		{"1,23", 123, true},
		{"1.234,56", 123456, true},
		{"R$ 1.234,56", 123456, true},
		{"12.5", 1250, true},
		{"12.50", 1250, true},
		{"1.234", 123400, true},
		{"0,01", 1, true},
		{"1,005", 101, true}, // half-up rounding
		{" 2,50 ", 250, true},
		{",5", 50, true},
		{"-1", 0, false},
		{"0", 0, false},
		{"0,00", 0, false},
		{"abc", 0, false},
		{"1,2,3", 0, false},
		{"1.234.567,89", 123456789, true},
		{"1.234.567", 123456700, true},
		{"1.2.3", 0, false},
		{"12.34.56", 0, false},
		{"1.23,45", 0, false},
		{"1234.5678", 0, false},
		{"1,٣", 0, false},
		{"١٢", 0, false},
		{"1,2x", 0, false},
		{"", 0, false},
		{"R$", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseBRLToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error, got %d", tc.in, got)
		}
	}
}

func TestMaskAmountInput(t *testing.T) {
	cases := map[string]string{
		"":           "0,00",
		"abc":        "0,00",
		"5":          "0,05",
		"12345":      "123,45",
		"1.234,5":    "123,45",
		"123456789":  "1.234.567,89",
		"00012":      "0,12",
		"R$ 1.000,0": "100,00",
	}
	for in, want := range cases {
		if got := MaskAmountInput(in); got != want {
			t.Errorf("MaskAmountInput(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatBRL(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{0, "R$ 0,00"},
		{5, "R$ 0,05"},
		{123456, "R$ 1.234,56"},
		{100000000, "R$ 1.000.000,00"},
		{-250, "-R$ 2,50"},
	}
	for _, tc := range cases {
		if got := FormatBRL(Money{Cents: tc.cents}); got != tc.want {
			t.Errorf("FormatBRL(%d) = %q, want %q", tc.cents, got, tc.want)
		}
	}
}

func TestFormatDateBR(t *testing.T) {
	d := time.Date(2024, 3, 7, 15, 0, 0, 0, time.Local)
	if got := FormatDateBR(d); got != "07/03/2024" {
		t.Fatalf("FormatDateBR = %q", got)
	}
}

func TestFormatDateBRUsesLocalZone(t *testing.T) {
	saved := time.Local
	time.Local = time.FixedZone("BRT", -3*60*60)
	t.Cleanup(func() { time.Local = saved })

	// 22:00 local on 09/03 is already 10/03 in UTC.
	entered := time.Date(2024, 3, 9, 22, 0, 0, 0, time.Local)
	if got := FormatDateBR(entered.UTC()); got != "09/03/2024" {
		t.Fatalf("FormatDateBR(UTC) = %q, want 09/03/2024", got)
	}
	if got := FormatDateBR(entered); got != "09/03/2024" {
		t.Fatalf("FormatDateBR(local) = %q, want 09/03/2024", got)
	}
}
