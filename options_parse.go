package xlsxturbo

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseOptionsYAML reads options from a YAML mapping. Mapping order is kept,
// so pattern keyed options match in the order they are written.
func ParseOptionsYAML(data []byte) (*Options, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, configErr("options", "", "invalid yaml: %v", err)
	}
	if doc.Kind == 0 {
		return &Options{}, nil
	}
	v, err := FromYAML(&doc)
	if err != nil {
		return nil, configErr("options", "", "%v", err)
	}
	return ParseOptions(v)
}

// LoadOptionsFile reads a YAML options file.
func LoadOptionsFile(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ResourceError{Path: path, Err: err}
	}
	return ParseOptionsYAML(data)
}

// ParseOptionsMap reads options from Go values. Go maps are unordered, so
// pattern keys given this way match in sorted key order.
func ParseOptionsMap(m map[string]any) (*Options, error) {
	v, err := FromAny(m)
	if err != nil {
		return nil, configErr("options", "", "%v", err)
	}
	return ParseOptions(v)
}

// ParseOptions converts a loosely typed mapping into Options. Wrong container
// types and unknown keys are configuration errors; nothing is coerced.
func ParseOptions(v Value) (*Options, error) {
	opts := &Options{}
	if v.Kind == NullValue {
		return opts, nil
	}
	entries, err := asMap("options", v)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		key := keyString(e.Key)
		if err := parseOption(opts, key, e.Val); err != nil {
			return nil, err
		}
	}
	if err := validate.Struct(opts); err != nil {
		return nil, validationErr("", err)
	}
	return opts, nil
}

func parseOption(opts *Options, key string, v Value) error {
	var err error
	switch key {
	case "header":
		opts.Header, err = optBool(key, v)
	case "autofit":
		opts.Autofit, err = optBool(key, v)
	case "freeze_panes":
		opts.FreezePanes, err = optBool(key, v)
	case "constant_memory":
		opts.ConstantMemory, err = optBool(key, v)
	case "table_style":
		if v.Kind == NullValue {
			return nil
		}
		var s string
		s, err = asString(key, v)
		opts.TableStyle = &s
	case "table_name":
		if v.Kind == NullValue {
			return nil
		}
		var s string
		s, err = asString(key, v)
		opts.TableName = &s
	case "column_widths":
		opts.ColumnWidths, err = parseColumnWidths(key, v)
	case "header_format":
		opts.HeaderFormat, err = parseFormat(key, v)
	case "column_formats":
		opts.ColumnFormats, err = parseColumnFormats(key, v)
	case "conditional_formats":
		opts.ConditionalFormats, err = parseConditionalFormats(key, v)
	case "validations":
		opts.Validations, err = parseValidations(key, v)
	case "formula_columns":
		opts.FormulaColumns, err = parseFormulaColumns(key, v)
	case "merged_ranges":
		opts.MergedRanges, err = parseMergedRanges(key, v)
	case "hyperlinks":
		opts.Hyperlinks, err = parseHyperlinks(key, v)
	case "comments":
		opts.Comments, err = parseComments(key, v)
	case "rich_text":
		opts.RichText, err = parseRichText(key, v)
	case "images":
		opts.Images, err = parseImages(key, v)
	case "row_heights":
		opts.RowHeights, err = parseRowHeights(key, v)
	default:
		return configErr(key, "", "unknown option")
	}
	return err
}

func typeErr(option, want string, v Value) error {
	value := ""
	if v.Kind != ListValue && v.Kind != MapValue {
		value = v.String()
	}
	return configErr(option, value, "expected %s, got %s", want, v.Kind)
}

func keyString(k Value) string {
	if k.Kind == StringValue {
		return k.Str
	}
	return k.String()
}

func asMap(option string, v Value) ([]Entry, error) {
	if v.Kind != MapValue {
		return nil, typeErr(option, "a mapping", v)
	}
	return v.Map, nil
}

func asList(option string, v Value) ([]Value, error) {
	if v.Kind != ListValue {
		return nil, typeErr(option, "a list", v)
	}
	return v.List, nil
}

func asString(option string, v Value) (string, error) {
	if v.Kind != StringValue {
		return "", typeErr(option, "a string", v)
	}
	return v.Str, nil
}

func asBool(option string, v Value) (bool, error) {
	if v.Kind != BoolValue {
		return false, typeErr(option, "a boolean", v)
	}
	return v.Bool, nil
}

func asNumber(option string, v Value) (float64, error) {
	n, ok := v.number()
	if !ok {
		return 0, typeErr(option, "a number", v)
	}
	return n, nil
}

func optBool(option string, v Value) (*bool, error) {
	if v.Kind == NullValue {
		return nil, nil
	}
	b, err := asBool(option, v)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// indexKey reads a 0-based index key given as an integer or a digit string.
func indexKey(option string, k Value) (int, error) {
	switch k.Kind {
	case IntValue:
		if k.Int >= 0 && k.Int <= maxRows {
			return int(k.Int), nil
		}
	case StringValue:
		if n, err := strconv.Atoi(k.Str); err == nil && n >= 0 && n <= maxRows {
			return n, nil
		}
	}
	return 0, configErr(option, k.String(), "expected a non-negative index")
}

// entryOption names a mapping entry for error messages, e.g. comments['A1'].
func entryOption(option, key string) string {
	return fmt.Sprintf("%s['%s']", option, key)
}

func parseColumnWidths(option string, v Value) (*ColumnWidths, error) {
	entries, err := asMap(option, v)
	if err != nil {
		return nil, err
	}
	cw := &ColumnWidths{ByIndex: make(map[int]float64)}
	for _, e := range entries {
		key := keyString(e.Key)
		w, err := asNumber(entryOption(option, key), e.Val)
		if err != nil {
			return nil, err
		}
		if key == AllColumns {
			cw.All = &w
			continue
		}
		idx, err := indexKey(option, e.Key)
		if err != nil {
			return nil, configErr(option, key, "keys must be column indices or '_all'")
		}
		cw.ByIndex[idx] = w
	}
	return cw, nil
}

func parseRowHeights(option string, v Value) (map[int]float64, error) {
	entries, err := asMap(option, v)
	if err != nil {
		return nil, err
	}
	heights := make(map[int]float64, len(entries))
	for _, e := range entries {
		idx, err := indexKey(option, e.Key)
		if err != nil {
			return nil, err
		}
		h, err := asNumber(entryOption(option, keyString(e.Key)), e.Val)
		if err != nil {
			return nil, err
		}
		heights[idx] = h
	}
	return heights, nil
}

func parseFormat(option string, v Value) (*Format, error) {
	entries, err := asMap(option, v)
	if err != nil {
		return nil, err
	}
	f := &Format{}
	for _, e := range entries {
		key := keyString(e.Key)
		name := option + "." + key
		switch key {
		case "bold":
			f.Bold, err = asBool(name, e.Val)
		case "italic":
			f.Italic, err = asBool(name, e.Val)
		case "underline":
			f.Underline, err = asBool(name, e.Val)
		case "border":
			f.Border, err = asBool(name, e.Val)
		case "bg_color":
			f.BgColor, err = asString(name, e.Val)
		case "font_color":
			f.FontColor, err = asString(name, e.Val)
		case "num_format":
			f.NumFormat, err = asString(name, e.Val)
		case "font_size":
			f.FontSize, err = asNumber(name, e.Val)
		default:
			return nil, configErr(name, "", "unknown format option")
		}
		if err != nil {
			return nil, err
		}
	}
	return f, nil
}

func parseColumnFormats(option string, v Value) ([]ColumnFormat, error) {
	entries, err := asMap(option, v)
	if err != nil {
		return nil, err
	}
	out := make([]ColumnFormat, 0, len(entries))
	for _, e := range entries {
		pattern := keyString(e.Key)
		f, err := parseFormat(entryOption(option, pattern), e.Val)
		if err != nil {
			return nil, err
		}
		out = append(out, ColumnFormat{Pattern: pattern, Format: *f})
	}
	return out, nil
}

func parseConditionalFormats(option string, v Value) ([]ConditionalFormat, error) {
	entries, err := asMap(option, v)
	if err != nil {
		return nil, err
	}
	out := make([]ConditionalFormat, 0, len(entries))
	for _, e := range entries {
		pattern := keyString(e.Key)
		name := entryOption(option, pattern)
		fields, err := asMap(name, e.Val)
		if err != nil {
			return nil, err
		}
		var rule CondFormat
		for _, f := range fields {
			key := keyString(f.Key)
			field := name + "." + key
			switch key {
			case "type":
				rule.Type, err = asString(field, f.Val)
			case "min_color":
				rule.MinColor, err = asString(field, f.Val)
			case "mid_color":
				rule.MidColor, err = asString(field, f.Val)
			case "max_color":
				rule.MaxColor, err = asString(field, f.Val)
			case "bar_color":
				rule.BarColor, err = asString(field, f.Val)
			case "border_color":
				rule.BorderColor, err = asString(field, f.Val)
			case "direction":
				rule.Direction, err = asString(field, f.Val)
			case "icon_type":
				rule.IconType, err = asString(field, f.Val)
			case "solid":
				rule.Solid, err = asBool(field, f.Val)
			case "reverse":
				rule.Reverse, err = asBool(field, f.Val)
			case "icons_only":
				rule.IconsOnly, err = asBool(field, f.Val)
			default:
				return nil, configErr(field, "", "unknown conditional format option")
			}
			if err != nil {
				return nil, err
			}
		}
		out = append(out, ConditionalFormat{Pattern: pattern, Rule: rule})
	}
	return out, nil
}

func parseValidations(option string, v Value) ([]Validation, error) {
	entries, err := asMap(option, v)
	if err != nil {
		return nil, err
	}
	out := make([]Validation, 0, len(entries))
	for _, e := range entries {
		pattern := keyString(e.Key)
		name := entryOption(option, pattern)
		fields, err := asMap(name, e.Val)
		if err != nil {
			return nil, err
		}
		var rule ValidationRule
		for _, f := range fields {
			key := keyString(f.Key)
			field := name + "." + key
			switch key {
			case "type":
				rule.Type, err = asString(field, f.Val)
			case "values":
				rule.Values, err = parseListValues(field, f.Val)
			case "min":
				var n float64
				n, err = asNumber(field, f.Val)
				rule.Min = &n
			case "max":
				var n float64
				n, err = asNumber(field, f.Val)
				rule.Max = &n
			case "input_title":
				rule.InputTitle, err = asString(field, f.Val)
			case "input_message":
				rule.InputMessage, err = asString(field, f.Val)
			case "error_title":
				rule.ErrorTitle, err = asString(field, f.Val)
			case "error_message":
				rule.ErrorMessage, err = asString(field, f.Val)
			default:
				return nil, configErr(field, "", "unknown validation option")
			}
			if err != nil {
				return nil, err
			}
		}
		out = append(out, Validation{Pattern: pattern, Rule: rule})
	}
	return out, nil
}

// parseListValues accepts scalars of any kind; lists of numbers are common.
func parseListValues(option string, v Value) ([]string, error) {
	items, err := asList(option, v)
	if err != nil {
		return nil, err
	}
	values := make([]string, 0, len(items))
	for i, item := range items {
		if item.Kind == ListValue || item.Kind == MapValue || item.Kind == NullValue {
			return nil, typeErr(fmt.Sprintf("%s[%d]", option, i), "a scalar", item)
		}
		values = append(values, keyString(item))
	}
	return values, nil
}

func parseFormulaColumns(option string, v Value) ([]FormulaColumn, error) {
	entries, err := asMap(option, v)
	if err != nil {
		return nil, err
	}
	out := make([]FormulaColumn, 0, len(entries))
	for _, e := range entries {
		name := keyString(e.Key)
		tmpl, err := asString(entryOption(option, name), e.Val)
		if err != nil {
			return nil, err
		}
		out = append(out, FormulaColumn{Name: name, Template: tmpl})
	}
	return out, nil
}

// tupleOrMap reads a list item written either positionally, as in
// ["A1:C1", "Title"], or as a mapping with the same field names.
func tupleOrMap(option string, v Value, names []string, required int) (map[string]Value, error) {
	fields := make(map[string]Value, len(names))
	switch v.Kind {
	case ListValue:
		if len(v.List) < required || len(v.List) > len(names) {
			return nil, configErr(option, "", "expected %d to %d elements (%s), got %d",
				required, len(names), strings.Join(names, ", "), len(v.List))
		}
		for i, item := range v.List {
			fields[names[i]] = item
		}
	case MapValue:
		for _, e := range v.Map {
			key := keyString(e.Key)
			known := false
			for _, n := range names {
				known = known || n == key
			}
			if !known {
				return nil, configErr(option+"."+key, "", "unknown key")
			}
			fields[key] = e.Val
		}
		for _, n := range names[:required] {
			if _, ok := fields[n]; !ok {
				return nil, configErr(option, "", "missing '%s'", n)
			}
		}
	default:
		return nil, typeErr(option, "a list or mapping", v)
	}
	for k, item := range fields {
		if item.Kind == NullValue {
			delete(fields, k)
		}
	}
	return fields, nil
}

func parseMergedRanges(option string, v Value) ([]MergedRange, error) {
	items, err := asList(option, v)
	if err != nil {
		return nil, err
	}
	out := make([]MergedRange, 0, len(items))
	for i, item := range items {
		name := fmt.Sprintf("%s[%d]", option, i)
		fields, err := tupleOrMap(name, item, []string{"range", "text", "format"}, 2)
		if err != nil {
			return nil, err
		}
		var m MergedRange
		if m.Range, err = asString(name+".range", fields["range"]); err != nil {
			return nil, err
		}
		if m.Text, err = asString(name+".text", fields["text"]); err != nil {
			return nil, err
		}
		if f, ok := fields["format"]; ok {
			if m.Format, err = parseFormat(name+".format", f); err != nil {
				return nil, err
			}
		}
		out = append(out, m)
	}
	return out, nil
}

func parseHyperlinks(option string, v Value) ([]Hyperlink, error) {
	items, err := asList(option, v)
	if err != nil {
		return nil, err
	}
	out := make([]Hyperlink, 0, len(items))
	for i, item := range items {
		name := fmt.Sprintf("%s[%d]", option, i)
		fields, err := tupleOrMap(name, item, []string{"cell", "url", "text"}, 2)
		if err != nil {
			return nil, err
		}
		var h Hyperlink
		if h.Cell, err = asString(name+".cell", fields["cell"]); err != nil {
			return nil, err
		}
		if h.URL, err = asString(name+".url", fields["url"]); err != nil {
			return nil, err
		}
		if t, ok := fields["text"]; ok {
			if h.Text, err = asString(name+".text", t); err != nil {
				return nil, err
			}
		}
		out = append(out, h)
	}
	return out, nil
}

func parseComments(option string, v Value) ([]Comment, error) {
	entries, err := asMap(option, v)
	if err != nil {
		return nil, err
	}
	out := make([]Comment, 0, len(entries))
	for _, e := range entries {
		ref := keyString(e.Key)
		name := entryOption(option, ref)
		c := Comment{Cell: ref}
		switch e.Val.Kind {
		case StringValue:
			c.Text = e.Val.Str
		case MapValue:
			for _, f := range e.Val.Map {
				key := keyString(f.Key)
				switch key {
				case "text":
					c.Text, err = asString(name+".text", f.Val)
				case "author":
					if f.Val.Kind != NullValue {
						c.Author, err = asString(name+".author", f.Val)
					}
				default:
					err = configErr(name+"."+key, "", "unknown key")
				}
				if err != nil {
					return nil, err
				}
			}
			if c.Text == "" {
				return nil, configErr(name, "", "missing 'text'")
			}
		default:
			return nil, typeErr(name, "a string or mapping", e.Val)
		}
		out = append(out, c)
	}
	return out, nil
}

func parseRichText(option string, v Value) ([]RichTextCell, error) {
	entries, err := asMap(option, v)
	if err != nil {
		return nil, err
	}
	out := make([]RichTextCell, 0, len(entries))
	for _, e := range entries {
		ref := keyString(e.Key)
		name := entryOption(option, ref)
		segments, err := asList(name, e.Val)
		if err != nil {
			return nil, err
		}
		rt := RichTextCell{Cell: ref}
		for i, seg := range segments {
			segName := fmt.Sprintf("%s[%d]", name, i)
			var run TextRun
			switch seg.Kind {
			case StringValue:
				run.Text = seg.Str
			case ListValue, MapValue:
				fields, err := tupleOrMap(segName, seg, []string{"text", "format"}, 1)
				if err != nil {
					return nil, err
				}
				if run.Text, err = asString(segName+".text", fields["text"]); err != nil {
					return nil, err
				}
				if f, ok := fields["format"]; ok {
					if run.Format, err = parseFormat(segName+".format", f); err != nil {
						return nil, err
					}
				}
			default:
				return nil, typeErr(segName, "a string or [text, format] pair", seg)
			}
			rt.Runs = append(rt.Runs, run)
		}
		if len(rt.Runs) > 0 {
			out = append(out, rt)
		}
	}
	return out, nil
}

func parseImages(option string, v Value) ([]Picture, error) {
	entries, err := asMap(option, v)
	if err != nil {
		return nil, err
	}
	out := make([]Picture, 0, len(entries))
	for _, e := range entries {
		ref := keyString(e.Key)
		name := entryOption(option, ref)
		pic := Picture{Cell: ref}
		switch e.Val.Kind {
		case StringValue:
			pic.Path = e.Val.Str
		case MapValue:
			for _, f := range e.Val.Map {
				key := keyString(f.Key)
				field := name + "." + key
				switch key {
				case "path":
					pic.Path, err = asString(field, f.Val)
				case "scale_width":
					pic.Format.ScaleWidth, err = asNumber(field, f.Val)
				case "scale_height":
					pic.Format.ScaleHeight, err = asNumber(field, f.Val)
				case "alt_text":
					pic.Format.AltText, err = asString(field, f.Val)
				default:
					err = configErr(field, "", "unknown image option")
				}
				if err != nil {
					return nil, err
				}
			}
			if pic.Path == "" {
				return nil, configErr(name, "", "missing 'path'")
			}
		default:
			return nil, typeErr(name, "a path or mapping", e.Val)
		}
		out = append(out, pic)
	}
	return out, nil
}
