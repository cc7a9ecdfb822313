package xlsxturbo

import (
	"fmt"
	"log/slog"
	"maps"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"

	excelize "github.com/xuri/excelize/v2"
)

// ColumnSpec is one resolved output column.
type ColumnSpec struct {
	Name  string
	Width WidthPolicy
	// Style, DateStyle and DateTimeStyle index the sheet StylePlan for plain,
	// date and datetime cells of the column.
	Style         int
	DateStyle     int
	DateTimeStyle int
	// Formula is the template of an appended formula column.
	Formula string
}

// sheetPlan is everything decided about a sheet before any row is read.
type sheetPlan struct {
	name        string
	mode        WriteMode
	header      bool
	headerStyle int
	styles      *StylePlan
	columns     []ColumnSpec
	dataCols    int
	directives  []Directive
}

const (
	maxListValidationChars = 255
	maxTableNameChars      = 255
	autofitCeiling         = 255
)

var (
	defaultTwoColor   = [2]string{"#FFEF9C", "#63BE7B"}
	defaultThreeColor = [3]string{"#F8696B", "#FFEB84", "#63BE7B"}
	defaultBarColor   = "#638EC6"
	defaultIconStyle  = "3TrafficLights1"
)

// resolveSheet validates opts against the columns of one sheet and produces
// its plan. tables tracks table names across the workbook.
func resolveSheet(name string, columns []string, opts *Options, tables *nameSet) (*sheetPlan, error) {
	if opts == nil {
		opts = &Options{}
	}
	if err := validate.Struct(opts); err != nil {
		return nil, validationErr("", err)
	}
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		if seen[c] {
			return nil, &DataError{Line: 1, Message: fmt.Sprintf("duplicate column name '%s'", c)}
		}
		seen[c] = true
	}

	plan := &sheetPlan{
		name:     name,
		mode:     opts.writeMode(),
		header:   opts.header(),
		styles:   newStylePlan(),
		dataCols: len(columns),
	}

	headerRec, err := resolveFormat("header_format", opts.HeaderFormat, false)
	if err != nil {
		return nil, err
	}
	plan.headerStyle = plan.styles.Add(headerRec)

	names := append([]string(nil), columns...)
	for _, fc := range opts.FormulaColumns {
		if seen[fc.Name] {
			return nil, configErr("formula_columns", fc.Name, "column already exists")
		}
		seen[fc.Name] = true
		names = append(names, fc.Name)
		plan.directives = append(plan.directives, FormulaColumnDirective{Name: fc.Name, Template: fc.Template})
	}

	if err := plan.resolveColumns(names, opts); err != nil {
		return nil, err
	}
	if err := plan.resolveTable(opts, tables); err != nil {
		return nil, err
	}
	if err := plan.resolveConditionalFormats(opts.ConditionalFormats); err != nil {
		return nil, err
	}
	if err := plan.resolveValidations(opts.Validations); err != nil {
		return nil, err
	}
	if err := plan.resolveCellDirectives(opts); err != nil {
		return nil, err
	}
	if opts.freezePanes() && plan.header {
		plan.directives = append(plan.directives, FreezePanesDirective{Rows: 1})
	}
	return plan, nil
}

func (p *sheetPlan) resolveColumns(names []string, opts *Options) error {
	patterns := make([]string, len(opts.ColumnFormats))
	records := make([]StyleRecord, len(opts.ColumnFormats))
	for i, cf := range opts.ColumnFormats {
		rec, err := resolveFormat(entryOption("column_formats", cf.Pattern), &cf.Format, true)
		if err != nil {
			return err
		}
		patterns[i] = cf.Pattern
		records[i] = rec
	}

	var widths ColumnWidths
	if opts.ColumnWidths != nil {
		widths = *opts.ColumnWidths
	}
	autofit := opts.autofit()

	p.columns = make([]ColumnSpec, len(names))
	for i, name := range names {
		spec := ColumnSpec{Name: name}
		if i >= p.dataCols {
			spec.Formula = opts.FormulaColumns[i-p.dataCols].Template
		}

		var rec StyleRecord
		if m := firstMatch(name, patterns); m >= 0 {
			rec = records[m]
		}
		spec.Style = p.styles.Add(rec)
		dateRec, dateTimeRec := rec, rec
		if dateRec.NumFormat == "" {
			dateRec.NumFormat = dateNumFormat
			dateTimeRec.NumFormat = dateTimeNumFormat
		}
		spec.DateStyle = p.styles.Add(dateRec)
		spec.DateTimeStyle = p.styles.Add(dateTimeRec)

		switch w, ok := widths.ByIndex[i]; {
		case ok:
			spec.Width = WidthPolicy{Kind: WidthExplicit, Value: w}
		case autofit && widths.All != nil:
			spec.Width = WidthPolicy{Kind: WidthAutofitCapped, Value: *widths.All}
		case autofit:
			spec.Width = WidthPolicy{Kind: WidthAutofit}
		case widths.All != nil:
			spec.Width = WidthPolicy{Kind: WidthExplicit, Value: *widths.All}
		}
		spec.Width = spec.Width.degrade(p.mode)
		p.columns[i] = spec
	}
	return nil
}

func (p *sheetPlan) resolveTable(opts *Options, tables *nameSet) error {
	if opts.TableStyle == nil || *opts.TableStyle == "" {
		return nil
	}
	style, err := tableStyleName(*opts.TableStyle)
	if err != nil {
		return err
	}
	if !p.header {
		logger().Debug("table skipped",
			slog.String("sheet", p.name),
			slog.String("reason", "header disabled"))
		return nil
	}
	name := fmt.Sprintf("Table%d", len(tables.used)+1)
	if opts.TableName != nil {
		name = SanitizeTableName(*opts.TableName)
	}
	p.directives = append(p.directives, TableDirective{Name: tables.claim(name, maxTableNameChars), Style: style})
	return nil
}

func (p *sheetPlan) resolveConditionalFormats(rules []ConditionalFormat) error {
	patterns := make([]string, len(rules))
	resolved := make([]excelize.ConditionalFormatOptions, len(rules))
	for i, cf := range rules {
		opt, err := resolveCondFormat(entryOption("conditional_formats", cf.Pattern), cf.Rule)
		if err != nil {
			return err
		}
		patterns[i] = cf.Pattern
		resolved[i] = opt
	}
	for col, spec := range p.columns {
		if m := firstMatch(spec.Name, patterns); m >= 0 {
			p.directives = append(p.directives, ConditionalFormatDirective{Col: col, Rule: resolved[m]})
		}
	}
	return nil
}

func resolveCondFormat(option string, rule CondFormat) (excelize.ConditionalFormatOptions, error) {
	var opt excelize.ConditionalFormatOptions
	if rule.Type == "" {
		return opt, configErr(option, "", "missing 'type'")
	}
	typ, err := parseCondFormatType(option+".type", rule.Type)
	if err != nil {
		return opt, err
	}
	color := func(key, value, fallback string) (string, error) {
		if value == "" {
			return fallback, nil
		}
		return ParseColor(option+"."+key, value)
	}
	opt.Type = string(typ)
	switch typ {
	case TwoColorScale:
		opt.Criteria, opt.MinType, opt.MaxType = "=", "min", "max"
		if opt.MinColor, err = color("min_color", rule.MinColor, defaultTwoColor[0]); err != nil {
			return opt, err
		}
		if opt.MaxColor, err = color("max_color", rule.MaxColor, defaultTwoColor[1]); err != nil {
			return opt, err
		}
	case ThreeColorScale:
		opt.Criteria, opt.MinType, opt.MidType, opt.MaxType = "=", "min", "percentile", "max"
		opt.MidValue = "50"
		if opt.MinColor, err = color("min_color", rule.MinColor, defaultThreeColor[0]); err != nil {
			return opt, err
		}
		if opt.MidColor, err = color("mid_color", rule.MidColor, defaultThreeColor[1]); err != nil {
			return opt, err
		}
		if opt.MaxColor, err = color("max_color", rule.MaxColor, defaultThreeColor[2]); err != nil {
			return opt, err
		}
	case DataBar:
		opt.Criteria, opt.MinType, opt.MaxType = "=", "min", "max"
		if opt.BarColor, err = color("bar_color", rule.BarColor, defaultBarColor); err != nil {
			return opt, err
		}
		if opt.BarBorderColor, err = color("border_color", rule.BorderColor, ""); err != nil {
			return opt, err
		}
		opt.BarSolid = rule.Solid
		if opt.BarDirection, err = barDirection(option+".direction", rule.Direction); err != nil {
			return opt, err
		}
	case IconSet:
		opt.IconStyle = defaultIconStyle
		if rule.IconType != "" {
			if opt.IconStyle, err = iconStyle(option+".icon_type", rule.IconType); err != nil {
				return opt, err
			}
		}
		opt.ReverseIcons = rule.Reverse
		opt.IconsOnly = rule.IconsOnly
	}
	return opt, nil
}

func (p *sheetPlan) resolveValidations(rules []Validation) error {
	patterns := make([]string, len(rules))
	resolved := make([]resolvedValidation, len(rules))
	for i, v := range rules {
		rv, err := resolveValidation(entryOption("validations", v.Pattern), v.Rule)
		if err != nil {
			return err
		}
		patterns[i] = v.Pattern
		resolved[i] = rv
	}
	for col, spec := range p.columns {
		if m := firstMatch(spec.Name, patterns); m >= 0 {
			p.directives = append(p.directives, ValidationDirective{Col: col, Rule: resolved[m]})
		}
	}
	return nil
}

func resolveValidation(option string, rule ValidationRule) (resolvedValidation, error) {
	rv := resolvedValidation{
		InputTitle:   rule.InputTitle,
		InputMessage: rule.InputMessage,
		ErrorTitle:   rule.ErrorTitle,
		ErrorMessage: rule.ErrorMessage,
	}
	if rule.Type == "" {
		return rv, configErr(option, "", "missing 'type'")
	}
	typ, err := parseValidationType(option+".type", rule.Type)
	if err != nil {
		return rv, err
	}
	rv.Type = typ
	bound := func(v *float64, fallback float64) float64 {
		if v == nil {
			return fallback
		}
		return *v
	}
	switch typ {
	case ListValidation:
		if len(rule.Values) == 0 {
			return rv, configErr(option, "", "list type requires 'values'")
		}
		total := len(rule.Values) - 1
		for _, v := range rule.Values {
			total += len(v)
		}
		if total > maxListValidationChars {
			return rv, configErr(option+".values", "",
				"list values exceed Excel's %d character limit (%d chars). Use fewer or shorter values.",
				maxListValidationChars, total)
		}
		rv.Values = rule.Values
	case WholeNumberValidation:
		rv.Min = math.Trunc(bound(rule.Min, math.MinInt32))
		rv.Max = math.Trunc(bound(rule.Max, math.MaxInt32))
	case DecimalValidation:
		rv.Min = bound(rule.Min, -math.MaxFloat32)
		rv.Max = bound(rule.Max, math.MaxFloat32)
		for key, v := range map[string]float64{"min": rv.Min, "max": rv.Max} {
			if math.Abs(v) > math.MaxFloat32 {
				return rv, configErr(option+"."+key, strconv.FormatFloat(v, 'g', -1, 64), "out of range")
			}
		}
	case TextLengthValidation:
		rv.Min = math.Trunc(bound(rule.Min, 0))
		rv.Max = math.Trunc(bound(rule.Max, math.MaxInt32))
	}
	if typ != ListValidation && rv.Min > rv.Max {
		return rv, configErr(option, "", "min must not exceed max")
	}
	return rv, nil
}

// resolveCellDirectives handles the options addressed by cell reference.
func (p *sheetPlan) resolveCellDirectives(opts *Options) error {
	for i, m := range opts.MergedRanges {
		option := fmt.Sprintf("merged_ranges[%d]", i)
		rng, err := ParseCellRange(m.Range)
		if err != nil {
			return configErr(option, m.Range, "%v", err)
		}
		rec, err := resolveFormat(option+".format", m.Format, true)
		if err != nil {
			return err
		}
		rec.Center = true
		p.directives = append(p.directives, MergedRangeDirective{Range: rng, Text: m.Text, StyleID: p.styles.Add(rec)})
	}
	for i, h := range opts.Hyperlinks {
		option := fmt.Sprintf("hyperlinks[%d]", i)
		ref, err := ParseCellRef(h.Cell)
		if err != nil {
			return configErr(option, h.Cell, "%v", err)
		}
		if h.URL == "" {
			return configErr(option+".url", "", "must not be empty")
		}
		p.directives = append(p.directives, HyperlinkDirective{Cell: ref, Link: NewHyperLink(h.URL), Text: h.Text})
	}
	for _, c := range opts.Comments {
		ref, err := ParseCellRef(c.Cell)
		if err != nil {
			return configErr("comments", c.Cell, "%v", err)
		}
		p.directives = append(p.directives, CommentDirective{Cell: ref, Text: c.Text, Author: c.Author})
	}
	for _, rt := range opts.RichText {
		option := entryOption("rich_text", rt.Cell)
		ref, err := ParseCellRef(rt.Cell)
		if err != nil {
			return configErr("rich_text", rt.Cell, "%v", err)
		}
		runs := make([]excelize.RichTextRun, 0, len(rt.Runs))
		for j, run := range rt.Runs {
			font, err := runFont(fmt.Sprintf("%s[%d].format", option, j), run.Format)
			if err != nil {
				return err
			}
			runs = append(runs, excelize.RichTextRun{Text: run.Text, Font: font})
		}
		p.directives = append(p.directives, RichTextDirective{Cell: ref, Runs: runs})
	}
	for _, pic := range opts.Images {
		ref, err := ParseCellRef(pic.Cell)
		if err != nil {
			return configErr("images", pic.Cell, "%v", err)
		}
		if pic.Path == "" && len(pic.File) == 0 {
			return configErr(entryOption("images", pic.Cell), "", "missing 'path'")
		}
		p.directives = append(p.directives, ImageDirective{Cell: ref, Picture: pic})
	}
	for _, row := range slices.Sorted(maps.Keys(opts.RowHeights)) {
		p.directives = append(p.directives, RowHeightDirective{Row: row, Height: opts.RowHeights[row]})
	}
	return nil
}

var tableNameInvalid = regexp.MustCompile(`[^A-Za-z0-9_]`)

// SanitizeTableName makes name a legal table name: characters outside
// [A-Za-z0-9_] become '_', a leading digit or an empty name gets a '_'
// prefix, and the result is cut to 255 characters.
func SanitizeTableName(name string) string {
	s := tableNameInvalid.ReplaceAllString(name, "_")
	if s == "" || (s[0] >= '0' && s[0] <= '9') {
		s = "_" + s
	}
	if len(s) > maxTableNameChars {
		s = s[:maxTableNameChars]
	}
	return s
}

// nameSet hands out case-insensitively unique names, suffixing collisions
// with _2, _3 and so on.
type nameSet struct {
	used map[string]bool
}

func newNameSet() *nameSet {
	return &nameSet{used: make(map[string]bool)}
}

// claim returns name, or the first free suffixed variant of it, trimmed so
// the result has at most limit characters.
func (s *nameSet) claim(name string, limit int) string {
	candidate := truncateRunes(name, limit)
	for n := 2; s.used[strings.ToLower(candidate)]; n++ {
		suffix := "_" + strconv.Itoa(n)
		candidate = truncateRunes(name, limit-len(suffix)) + suffix
	}
	s.used[strings.ToLower(candidate)] = true
	return candidate
}

func truncateRunes(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
