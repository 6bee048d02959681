package core

import (
	"errors"
	"testing"
)

func TestFormatDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"2004-04-04", "4 Avr. 04"},
		{"2001-01-01", "1 Jan. 01"},
		{"2003-03-03", "3 Mar. 03"},
		{"2002-02-02", "2 Fév. 02"},
		{"2021-08-15", "15 Aoû. 21"},
		{"1999-12-31", "31 Déc. 99"},
		{"2020-07-14", "14 Jui. 20"},
	}
	for _, tc := range cases {
		got, err := FormatDate(tc.in)
		if err != nil {
			t.Fatalf("FormatDate(%q) error: %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("FormatDate(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatDateMalformed(t *testing.T) {
	for _, in := range []string{"", "2004-13-01", "not a date", "04/04/2004"} {
		if _, err := FormatDate(in); !errors.Is(err, ErrInvalidDate) {
			t.Errorf("FormatDate(%q) err = %v, want ErrInvalidDate", in, err)
		}
	}
}
