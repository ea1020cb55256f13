package core

import "testing"

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
		{" 2.50 ", 250, true},
		{"150000", 15000000, true},
		{"-1", 0, false},
		{"0", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
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

func TestMoneyFormat(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{0, "Rp0"},
		{100, "Rp1"},
		{150, "Rp2"},     // half-up at the integer boundary
		{149, "Rp1"},     // below the midpoint rounds down
		{100000, "Rp1.000"},
		{1000000, "Rp10.000"},
		{1234567, "Rp12.346"},
		{123456789, "Rp1.234.568"},
		{-50050, "-Rp501"},
	}
	for _, tc := range cases {
		if got := (Money{Cents: tc.cents}).Format(); got != tc.want {
			t.Fatalf("Format(%d) = %q, want %q", tc.cents, got, tc.want)
		}
	}
}

func TestMoneyArithmetic(t *testing.T) {
	a := Money{Cents: 1500}
	b := Money{Cents: 700}
	if got := a.Add(b); got.Cents != 2200 {
		t.Fatalf("Add = %d, want 2200", got.Cents)
	}
	if got := b.Sub(a); got.Cents != -800 {
		t.Fatalf("Sub = %d, want -800", got.Cents)
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
}
