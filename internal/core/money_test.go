package core

import (
	"strings"
	"testing"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{"1.004", 100, true},
		{" 2.50 ", 250, true},
		{"0", 0, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"99999999999999999999", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestCentsFromFloat(t *testing.T) {
	cases := []struct {
		in  float64
		out int64
		ok  bool
	}{
		{12.34, 1234, true},
		{0.1 + 0.2, 30, true},
		{1000, 100000, true},
		{-1, 0, false},
	}
	for _, tc := range cases {
		got, err := CentsFromFloat(tc.in)
		if tc.ok && (err != nil || got != tc.out) {
			t.Fatalf("%v expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%v expected error", tc.in)
		}
	}
}

func TestMoneyDecimalAndFormat(t *testing.T) {
	if got := (Money{Cents: 123450}).Decimal(); got != "1234.50" {
		t.Fatalf("Decimal: got %q", got)
	}
	if got := (Money{Cents: 0}).Decimal(); got != "0.00" {
		t.Fatalf("Decimal zero: got %q", got)
	}
	if got := (Money{Cents: -5}).Decimal(); got != "-0.05" {
		t.Fatalf("Decimal negative: got %q", got)
	}
	formatted := (Money{Cents: 1234}).Format("EUR")
	if !strings.Contains(formatted, "12.34") || !strings.Contains(formatted, "€") {
		t.Fatalf("Format: got %q", formatted)
	}
	if neg := (Money{Cents: -1234}).Format(""); !strings.HasPrefix(neg, "-") {
		t.Fatalf("negative amounts keep their sign: %q", neg)
	}
}
