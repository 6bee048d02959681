package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// frenchShortMonths are the abbreviated month names of the fr locale.
var frenchShortMonths = [12]string{
	"janv.", "févr.", "mars", "avr.", "mai", "juin",
	"juil.", "août", "sept.", "oct.", "nov.", "déc.",
}

var frenchTitle = cases.Title(language.French)

// FormatDate renders a YYYY-MM-DD date for display: "2004-04-04" becomes
// "4 Avr. 04". Malformed input is reported as ErrInvalidDate.
func FormatDate(raw string) (string, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("format date %q: %w", raw, ErrInvalidDate)
	}
	month := []rune(frenchTitle.String(frenchShortMonths[t.Month()-1]))
	if len(month) > 3 {
		month = month[:3]
	}
	year := strconv.Itoa(t.Year())
	if len(year) > 2 {
		year = year[2:]
	}
	return fmt.Sprintf("%d %s. %s", t.Day(), string(month), year), nil
}

// FormatStatus translates a status to its display label.
func FormatStatus(s Status) string {
	return s.Label()
}
