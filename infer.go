package xlsxturbo

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	integerRegex  = regexp.MustCompile(`^[+-]?[0-9]+$`)
	floatRegex    = regexp.MustCompile(`^[+-]?([0-9]+\.?[0-9]*|\.[0-9]+)([eE][+-]?[0-9]+)?$`)
	dateTimeRegex = regexp.MustCompile(`^[0-9]{4}-[0-9]{2}-[0-9]{2}[T ][0-9]{2}:[0-9]{2}:[0-9]{2}(\.[0-9]+)?$`)
)

var emptyWords = map[string]bool{
	"nan": true, "+nan": true, "-nan": true,
	"inf": true, "+inf": true, "-inf": true,
	"infinity": true, "+infinity": true, "-infinity": true,
}

// InferValue classifies one raw CSV field. It never fails: anything that is
// not a number, boolean, date or datetime is kept as a string.
func InferValue(field string, order DateOrder) CellValue {
	s := strings.TrimSpace(field)
	if s == "" || emptyWords[strings.ToLower(s)] {
		return Empty()
	}

	if integerRegex.MatchString(s) {
		if v, err := strconv.ParseInt(s, 10, 64); err == nil {
			return Int(v)
		}
	}

	if floatRegex.MatchString(s) {
		v, err := strconv.ParseFloat(s, 64)
		if err == nil {
			return Float(v)
		}
		if math.IsInf(v, 0) {
			return Empty()
		}
	}

	switch strings.ToLower(s) {
	case "true":
		return Bool(true)
	case "false":
		return Bool(false)
	}

	if t, ok := inferDate(s, order); ok {
		return CellValue{Kind: KindDate, Time: t}
	}

	if dateTimeRegex.MatchString(s) {
		if t, err := time.Parse("2006-01-02T15:04:05.999999999", strings.Replace(s, " ", "T", 1)); err == nil {
			return CellValue{Kind: KindDateTime, Time: t}
		}
	}

	return Str(field)
}

// inferDate tries the preferred reading first and the opposite order second,
// so 13-01-2024 still becomes a date under "us".
func inferDate(s string, order DateOrder) (time.Time, bool) {
	if t, err := ResolveDate(s, order); err == nil {
		return t, true
	}
	parts, ok := splitDate(s)
	if !ok || len(parts[0]) == 4 {
		return time.Time{}, false
	}
	alt := EU
	if order == EU {
		alt = US
	}
	if t, err := ResolveDate(s, alt); err == nil {
		return t, true
	}
	return time.Time{}, false
}
