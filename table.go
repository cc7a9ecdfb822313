package xlsxturbo

import (
	"encoding"
	"errors"
	"fmt"
	"math"
	"reflect"
	"time"
)

// Table is a rectangular data source with named columns.
type Table interface {
	Columns() []string
	Len() int
	// Value returns the cell at (row, col), 0-based, data rows only.
	Value(row, col int) (any, error)
}

// XLSXMarshaler lets a field type control the text written for it.
type XLSXMarshaler interface {
	MarshalXLSX() ([]byte, error)
}

// Records is a Table over plain rows. Short rows read as empty cells.
type Records struct {
	Header []string
	Rows   [][]any
}

func (r Records) Columns() []string { return r.Header }
func (r Records) Len() int          { return len(r.Rows) }

func (r Records) Value(row, col int) (any, error) {
	if col >= len(r.Rows[row]) {
		return nil, nil
	}
	return r.Rows[row][col], nil
}

// Schema selects struct columns by name. An empty Schema keeps every column.
type Schema map[string]bool

func (s Schema) keep(name string) bool {
	show, ok := s[name]
	return len(s) == 0 || (show && ok)
}

type structTable struct {
	rows   reflect.Value
	fields []int
	names  []string
}

func getFieldName(field reflect.StructField) string {
	tag := field.Tag.Get("xlsx")
	if tag != "" {
		return tag
	}
	return field.Name
}

// Structs adapts a slice of structs, or a pointer to one. Exported fields
// become columns named by their xlsx tag or field name; `xlsx:"-"` skips a
// field. filter narrows the columns.
func Structs(v any, filter Schema) (Table, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, errors.New("param must be a slice or slice pointer")
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Slice {
		return nil, errors.New("param must be a slice or slice pointer")
	}
	t := rv.Type().Elem()
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, errors.New("slice elements must be structs")
	}
	st := &structTable{rows: rv}
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() || field.Tag.Get("xlsx") == "-" {
			continue
		}
		name := getFieldName(field)
		if !filter.keep(name) {
			continue
		}
		st.fields = append(st.fields, i)
		st.names = append(st.names, name)
	}
	return st, nil
}

func (s *structTable) Columns() []string { return s.names }
func (s *structTable) Len() int          { return s.rows.Len() }

func (s *structTable) Value(row, col int) (any, error) {
	obj := s.rows.Index(row)
	if obj.Kind() == reflect.Pointer {
		if obj.IsNil() {
			return nil, nil
		}
		obj = obj.Elem()
	}
	return obj.Field(s.fields[col]).Interface(), nil
}

var (
	timeType      = reflect.TypeOf(time.Time{})
	cellValueType = reflect.TypeOf(CellValue{})
	xlsxMarshaler = reflect.TypeOf((*XLSXMarshaler)(nil)).Elem()
	textMarshaler = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
	stringerType  = reflect.TypeOf((*fmt.Stringer)(nil)).Elem()
)

// toCellValue converts a Go value to a typed cell. Non-finite floats become
// empty cells; unsigned values above the int64 range become text.
func toCellValue(x any) (CellValue, error) {
	if x == nil {
		return Empty(), nil
	}
	rv := reflect.ValueOf(x)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return Empty(), nil
		}
		if rv.Type().Implements(xlsxMarshaler) {
			break
		}
		rv = rv.Elem()
	}
	t := rv.Type()
	switch {
	case t == cellValueType:
		return rv.Interface().(CellValue), nil
	case t == timeType:
		tm := rv.Interface().(time.Time)
		if tm.IsZero() {
			return Empty(), nil
		}
		return DateTimeOf(tm), nil
	case t.Implements(xlsxMarshaler):
		b, err := rv.Interface().(XLSXMarshaler).MarshalXLSX()
		if err != nil {
			return Empty(), err
		}
		return Str(string(b)), nil
	case t.Implements(textMarshaler):
		b, err := rv.Interface().(encoding.TextMarshaler).MarshalText()
		if err != nil {
			return Empty(), err
		}
		return Str(string(b)), nil
	case t.Implements(stringerType):
		return Str(rv.Interface().(fmt.Stringer).String()), nil
	}

	switch rv.Kind() {
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return Str(fmt.Sprint(u)), nil
		}
		return Int(int64(u)), nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return Empty(), nil
		}
		return Float(f), nil
	case reflect.String:
		return Str(rv.String()), nil
	}
	return Str(toString(rv.Interface())), nil
}

func toString(v interface{}) string {
	if bv, ok := v.([]byte); ok {
		return string(bv)
	}
	return fmt.Sprintf("%v", v)
}
