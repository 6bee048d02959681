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
		{"400", 40000, true},
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

func TestParseOptionalCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"", 0, true},
		{"0", 0, true},
		{"80", 8000, true},
		{"-3", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseOptionalCents(tc.in)
		if tc.ok != (err == nil) || got != tc.out {
			t.Fatalf("%q expected %d ok=%v, got %d err=%v", tc.in, tc.out, tc.ok, got, err)
		}
	}
}

func TestMoneyString(t *testing.T) {
	cases := map[int64]string{
		40000: "400 €",
		1250:  "12,50 €",
		1205:  "12,05 €",
		0:     "0 €",
		-100:  "-1 €",
	}
	for cents, want := range cases {
		if got := (Money{Cents: cents}).String(); got != want {
			t.Errorf("Money{%d}.String() = %q, want %q", cents, got, want)
		}
	}
}

func TestFromEuros(t *testing.T) {
	if got := FromEuros(400).Cents; got != 40000 {
		t.Fatalf("FromEuros(400) = %d", got)
	}
	if got := FromEuros(12.345).Cents; got != 1235 {
		t.Fatalf("FromEuros(12.345) = %d", got)
	}
}
