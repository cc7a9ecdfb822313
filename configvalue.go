package xlsxturbo

import (
	"cmp"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ValueKind tags a loosely typed configuration value.
type ValueKind uint8

const (
	NullValue ValueKind = iota
	BoolValue
	IntValue
	FloatValue
	StringValue
	ListValue
	MapValue
)

var valueKindNames = [...]string{"null", "boolean", "integer", "number", "string", "list", "mapping"}

func (k ValueKind) String() string {
	if int(k) < len(valueKindNames) {
		return valueKindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is a configuration value as read from YAML or built from Go values.
// Mappings keep their declaration order, which is the priority order of
// pattern keyed options.
type Value struct {
	Kind  ValueKind
	Bool  bool
	Int   int64
	Float float64
	Str   string
	List  []Value
	Map   []Entry
}

// Entry is one key of a mapping. Keys are scalars: strings or integers.
type Entry struct {
	Key Value
	Val Value
}

func (v Value) String() string {
	switch v.Kind {
	case BoolValue:
		return strconv.FormatBool(v.Bool)
	case IntValue:
		return strconv.FormatInt(v.Int, 10)
	case FloatValue:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case StringValue:
		return v.Str
	case ListValue:
		return fmt.Sprintf("list of %d", len(v.List))
	case MapValue:
		return fmt.Sprintf("mapping of %d", len(v.Map))
	}
	return "null"
}

// number returns the value of an integer or float.
func (v Value) number() (float64, bool) {
	switch v.Kind {
	case IntValue:
		return float64(v.Int), true
	case FloatValue:
		return v.Float, true
	}
	return 0, false
}

// FromYAML converts a decoded yaml.v3 node tree.
func FromYAML(node *yaml.Node) (Value, error) {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return Value{}, nil
		}
		return FromYAML(node.Content[0])
	case yaml.AliasNode:
		return FromYAML(node.Alias)
	case yaml.SequenceNode:
		list := make([]Value, 0, len(node.Content))
		for _, n := range node.Content {
			v, err := FromYAML(n)
			if err != nil {
				return Value{}, err
			}
			list = append(list, v)
		}
		return Value{Kind: ListValue, List: list}, nil
	case yaml.MappingNode:
		entries := make([]Entry, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			k, err := FromYAML(node.Content[i])
			if err != nil {
				return Value{}, err
			}
			if k.Kind == ListValue || k.Kind == MapValue {
				return Value{}, fmt.Errorf("line %d: mapping keys must be scalars", node.Content[i].Line)
			}
			v, err := FromYAML(node.Content[i+1])
			if err != nil {
				return Value{}, err
			}
			entries = append(entries, Entry{Key: k, Val: v})
		}
		return Value{Kind: MapValue, Map: entries}, nil
	case yaml.ScalarNode:
		return scalarFromYAML(node)
	}
	return Value{}, fmt.Errorf("line %d: unsupported yaml node", node.Line)
}

func scalarFromYAML(node *yaml.Node) (Value, error) {
	switch node.ShortTag() {
	case "!!null":
		return Value{}, nil
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return Value{}, err
		}
		return Value{Kind: BoolValue, Bool: b}, nil
	case "!!int":
		var i int64
		if err := node.Decode(&i); err != nil {
			return Value{}, err
		}
		return Value{Kind: IntValue, Int: i}, nil
	case "!!float":
		var f float64
		if err := node.Decode(&f); err != nil {
			return Value{}, err
		}
		return Value{Kind: FloatValue, Float: f}, nil
	}
	return Value{Kind: StringValue, Str: node.Value}, nil
}

// FromAny converts plain Go values: nil, booleans, numbers, strings, slices
// and maps of those. Go maps have no order, so their keys are sorted.
func FromAny(x any) (Value, error) {
	if v, ok := x.(Value); ok {
		return v, nil
	}
	if x == nil {
		return Value{}, nil
	}
	rv := reflect.ValueOf(x)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Value{}, nil
		}
		return FromAny(rv.Elem().Interface())
	case reflect.Bool:
		return Value{Kind: BoolValue, Bool: rv.Bool()}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Value{Kind: IntValue, Int: rv.Int()}, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return Value{Kind: FloatValue, Float: float64(u)}, nil
		}
		return Value{Kind: IntValue, Int: int64(u)}, nil
	case reflect.Float32, reflect.Float64:
		return Value{Kind: FloatValue, Float: rv.Float()}, nil
	case reflect.String:
		return Value{Kind: StringValue, Str: rv.String()}, nil
	case reflect.Slice, reflect.Array:
		list := make([]Value, 0, rv.Len())
		for i := range rv.Len() {
			v, err := FromAny(rv.Index(i).Interface())
			if err != nil {
				return Value{}, err
			}
			list = append(list, v)
		}
		return Value{Kind: ListValue, List: list}, nil
	case reflect.Map:
		entries := make([]Entry, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k, err := FromAny(iter.Key().Interface())
			if err != nil {
				return Value{}, err
			}
			if k.Kind == ListValue || k.Kind == MapValue || k.Kind == NullValue {
				return Value{}, fmt.Errorf("unsupported mapping key %v", iter.Key())
			}
			v, err := FromAny(iter.Value().Interface())
			if err != nil {
				return Value{}, err
			}
			entries = append(entries, Entry{Key: k, Val: v})
		}
		slices.SortFunc(entries, func(a, b Entry) int {
			if a.Key.Kind == IntValue && b.Key.Kind == IntValue {
				return cmp.Compare(a.Key.Int, b.Key.Int)
			}
			return cmp.Compare(a.Key.String(), b.Key.String())
		})
		return Value{Kind: MapValue, Map: entries}, nil
	}
	return Value{}, fmt.Errorf("unsupported configuration value of type %T", x)
}
