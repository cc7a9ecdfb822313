package xlsxturbo

import (
	"strconv"
	"time"
)

type CellKind uint8

const (
	KindEmpty CellKind = iota
	KindInteger
	KindFloat
	KindBoolean
	KindDate
	KindDateTime
	KindString
	KindFormula
	KindRichText
)

var cellKindNames = [...]string{"empty", "integer", "float", "boolean", "date", "datetime", "string", "formula", "rich_text"}

func (k CellKind) String() string {
	if int(k) < len(cellKindNames) {
		return cellKindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// TextRun is one segment of a rich text cell.
type TextRun struct {
	Text   string
	Format *Format
}

// CellValue is a typed cell. Only the field matching Kind is meaningful:
// Int for integers, Float for floats, Bool for booleans, Time for dates and
// datetimes, Str for strings and formulas, Runs for rich text.
type CellValue struct {
	Kind  CellKind
	Int   int64
	Float float64
	Bool  bool
	Time  time.Time
	Str   string
	Runs  []TextRun
}

func Empty() CellValue { return CellValue{} }
func Int(v int64) CellValue { return CellValue{Kind: KindInteger, Int: v} }
func Float(v float64) CellValue { return CellValue{Kind: KindFloat, Float: v} }
func Bool(v bool) CellValue { return CellValue{Kind: KindBoolean, Bool: v} }
func Str(v string) CellValue { return CellValue{Kind: KindString, Str: v} }
func Formula(v string) CellValue { return CellValue{Kind: KindFormula, Str: v} }
func RichText(runs []TextRun) CellValue { return CellValue{Kind: KindRichText, Runs: runs} }

// DateOf builds a calendar date cell.
func DateOf(year int, month time.Month, day int) CellValue {
	return CellValue{Kind: KindDate, Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateTimeOf builds a datetime cell, dropping the location.
func DateTimeOf(t time.Time) CellValue {
	return CellValue{Kind: KindDateTime, Time: time.Date(t.Year(), t.Month(), t.Day(),
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)}
}

// Row is one sheet row, one CellValue per column.
type Row []CellValue

// maxSafeInt is the largest integer a float64 holds exactly.
const maxSafeInt = 1 << 53

var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// excelSerial converts a date or datetime to the spreadsheet serial number.
func excelSerial(t time.Time) float64 {
	secs := float64(t.Unix()-excelEpoch.Unix()) + float64(t.Nanosecond())/1e9
	return secs / 86400
}

const (
	dateNumFormat     = "yyyy-mm-dd"
	dateTimeNumFormat = "yyyy-mm-dd hh:mm:ss"
)

// displayText renders a value roughly the way a spreadsheet shows it.
// Autofit widths are measured on this text.
func (v CellValue) displayText() string {
	switch v.Kind {
	case KindInteger:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case KindBoolean:
		if v.Bool {
			return "TRUE"
		}
		return "FALSE"
	case KindDate:
		return v.Time.Format("2006-01-02")
	case KindDateTime:
		return v.Time.Format("2006-01-02 15:04:05")
	case KindString:
		return v.Str
	case KindRichText:
		var s string
		for _, r := range v.Runs {
			s += r.Text
		}
		return s
	}
	return ""
}
