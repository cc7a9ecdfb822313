package xlsxturbo

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateOrder selects how an ambiguous NN-NN-YYYY date is read.
type DateOrder uint8

const (
	// US reads month first: 01-02-2024 is January 2.
	US DateOrder = iota
	// EU reads day first: 01-02-2024 is February 1.
	EU
)

func (o DateOrder) String() string {
	switch o {
	case US:
		return "us"
	case EU:
		return "eu"
	}
	return "DateOrder(" + strconv.Itoa(int(o)) + ")"
}

// ParseDateOrder accepts "us" or "eu", case-insensitive.
func ParseDateOrder(s string) (DateOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "us":
		return US, nil
	case "eu":
		return EU, nil
	}
	return US, configErr("date_order", s, "expected 'us' (month-day-year) or 'eu' (day-month-year)")
}

func (o *DateOrder) UnmarshalText(text []byte) error {
	v, err := ParseDateOrder(string(text))
	if err != nil {
		return err
	}
	*o = v
	return nil
}

func (o DateOrder) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// ResolveDate reads a three-component numeric date. Components are separated
// by '-' or '/'; a four digit first component is read as year-month-day,
// otherwise the year comes last and order decides which of the first two
// components is the month.
func ResolveDate(s string, order DateOrder) (time.Time, error) {
	parts, ok := splitDate(s)
	if !ok {
		return time.Time{}, fmt.Errorf("not a numeric date: %q", s)
	}
	if len(parts[0]) == 4 {
		return civilDate(parts[0], parts[1], parts[2])
	}
	if order == EU {
		return civilDate(parts[2], parts[1], parts[0])
	}
	return civilDate(parts[2], parts[0], parts[1])
}

// splitDate recognizes YYYY-MM-DD and NN-NN-YYYY shapes, either separator,
// one or two digit month and day.
func splitDate(s string) ([3]string, bool) {
	var parts [3]string
	sep := byte('-')
	if strings.IndexByte(s, '/') >= 0 {
		sep = '/'
	}
	fields := strings.Split(s, string(sep))
	if len(fields) != 3 {
		return parts, false
	}
	for i, f := range fields {
		if f == "" || !allDigits(f) {
			return parts, false
		}
		parts[i] = f
	}
	yearFirst := len(parts[0]) == 4 && len(parts[1]) <= 2 && len(parts[2]) <= 2
	yearLast := len(parts[2]) == 4 && len(parts[0]) <= 2 && len(parts[1]) <= 2
	return parts, yearFirst || yearLast
}

func civilDate(year, month, day string) (time.Time, error) {
	y, _ := strconv.Atoi(year)
	m, _ := strconv.Atoi(month)
	d, _ := strconv.Atoi(day)
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if m < 1 || m > 12 || t.Day() != d || t.Month() != time.Month(m) {
		return time.Time{}, fmt.Errorf("invalid calendar date %s-%s-%s", year, month, day)
	}
	return t, nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
