package xlsxturbo

import (
	"bytes"
	"log/slog"
	"math"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func directivesOf[T Directive](ds []Directive) []T {
	var out []T
	for _, d := range ds {
		if v, ok := d.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

func TestResolveSheetDefaults(t *testing.T) {
	plan, err := resolveSheet("Data", []string{"a", "b"}, nil, newNameSet())
	require.NoError(t, err)
	assert.True(t, plan.header)
	assert.Equal(t, Buffered, plan.mode)
	assert.Equal(t, 0, plan.headerStyle)
	require.Len(t, plan.columns, 2)
	for _, spec := range plan.columns {
		assert.Equal(t, WidthPolicy{}, spec.Width)
		assert.Equal(t, 0, spec.Style)
		assert.Equal(t, dateNumFormat, plan.styles.Record(spec.DateStyle).NumFormat)
		assert.Equal(t, dateTimeNumFormat, plan.styles.Record(spec.DateTimeStyle).NumFormat)
	}
	// One date and one datetime record shared by both columns.
	assert.Equal(t, 2, plan.styles.Len())
	assert.Empty(t, plan.directives)
}

func TestResolveSheetDuplicateColumns(t *testing.T) {
	_, err := resolveSheet("Data", []string{"a", "b", "a"}, nil, newNameSet())
	var de *DataError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, 1, de.Line)
	assert.Contains(t, err.Error(), "'a'")
}

func TestResolveColumnWidths(t *testing.T) {
	columns := []string{"a", "b", "c"}
	t.Run("all caps autofit", func(t *testing.T) {
		plan, err := resolveSheet("S", columns, &Options{
			Autofit:      Ptr(true),
			ColumnWidths: &ColumnWidths{All: Ptr(20.0), ByIndex: map[int]float64{1: 50}},
		}, newNameSet())
		require.NoError(t, err)
		assert.Equal(t, WidthPolicy{Kind: WidthAutofitCapped, Value: 20}, plan.columns[0].Width)
		assert.Equal(t, WidthPolicy{Kind: WidthExplicit, Value: 50}, plan.columns[1].Width)
		assert.Equal(t, WidthPolicy{Kind: WidthAutofitCapped, Value: 20}, plan.columns[2].Width)
	})
	t.Run("all without autofit", func(t *testing.T) {
		plan, err := resolveSheet("S", columns, &Options{
			ColumnWidths: &ColumnWidths{All: Ptr(15.0)},
		}, newNameSet())
		require.NoError(t, err)
		assert.Equal(t, WidthPolicy{Kind: WidthExplicit, Value: 15}, plan.columns[0].Width)
	})
	t.Run("autofit only", func(t *testing.T) {
		plan, err := resolveSheet("S", columns, &Options{Autofit: Ptr(true)}, newNameSet())
		require.NoError(t, err)
		assert.Equal(t, WidthPolicy{Kind: WidthAutofit}, plan.columns[0].Width)
	})
	t.Run("streaming degrades", func(t *testing.T) {
		plan, err := resolveSheet("S", columns, &Options{
			Autofit:        Ptr(true),
			ConstantMemory: Ptr(true),
			ColumnWidths:   &ColumnWidths{All: Ptr(20.0), ByIndex: map[int]float64{2: 9}},
		}, newNameSet())
		require.NoError(t, err)
		assert.Equal(t, Streaming, plan.mode)
		assert.Equal(t, WidthPolicy{Kind: WidthExplicit, Value: 20}, plan.columns[0].Width)
		assert.Equal(t, WidthPolicy{Kind: WidthExplicit, Value: 9}, plan.columns[2].Width)
	})
}

func TestResolveColumnFormats(t *testing.T) {
	plan, err := resolveSheet("S", []string{"price_usd", "name", "when"}, &Options{
		ColumnFormats: []ColumnFormat{
			{Pattern: "price_*", Format: Format{NumFormat: "0.00", BgColor: "yellow"}},
			{Pattern: AllColumns, Format: Format{Italic: true}},
			{Pattern: "name", Format: Format{Bold: true}},
		},
	}, newNameSet())
	require.NoError(t, err)

	price := plan.styles.Record(plan.columns[0].Style)
	assert.Equal(t, StyleRecord{NumFormat: "0.00", BgColor: "#FFFF00"}, price)
	// An explicit num_format also applies to date cells.
	assert.Equal(t, plan.columns[0].Style, plan.columns[0].DateStyle)

	// _all wins over the later exact rule.
	name := plan.styles.Record(plan.columns[1].Style)
	assert.Equal(t, StyleRecord{Italic: true}, name)
	assert.Equal(t, plan.columns[1].Style, plan.columns[2].Style)
	assert.Equal(t, StyleRecord{Italic: true, NumFormat: dateNumFormat}, plan.styles.Record(plan.columns[2].DateStyle))
}

func TestResolveSheetErrors(t *testing.T) {
	cases := []struct {
		name     string
		opts     *Options
		option   string
		contains string
	}{
		{
			name:     "short hex",
			opts:     &Options{HeaderFormat: &Format{BgColor: "#FF"}},
			option:   "header_format.bg_color",
			contains: "6",
		},
		{
			name:     "unknown table style",
			opts:     &Options{TableStyle: Ptr("Fancy3")},
			option:   "table_style",
			contains: "Fancy3",
		},
		{
			name:     "table style out of range",
			opts:     &Options{TableStyle: Ptr("Medium29")},
			option:   "table_style",
			contains: "Medium29",
		},
		{
			name: "list too long",
			opts: &Options{Validations: []Validation{{Pattern: "a", Rule: ValidationRule{
				Type: "list", Values: []string{strings.Repeat("x", 200), strings.Repeat("y", 60)},
			}}}},
			option:   "validations['a'].values",
			contains: "255",
		},
		{
			name:     "list without values",
			opts:     &Options{Validations: []Validation{{Pattern: "a", Rule: ValidationRule{Type: "list"}}}},
			option:   "validations['a']",
			contains: "values",
		},
		{
			name: "min above max",
			opts: &Options{Validations: []Validation{{Pattern: "a", Rule: ValidationRule{
				Type: "decimal", Min: Ptr(5.0), Max: Ptr(1.0),
			}}}},
			option:   "validations['a']",
			contains: "min",
		},
		{
			name:     "unknown validation type",
			opts:     &Options{Validations: []Validation{{Pattern: "a", Rule: ValidationRule{Type: "regex"}}}},
			option:   "validations['a'].type",
			contains: "regex",
		},
		{
			name:     "missing conditional format type",
			opts:     &Options{ConditionalFormats: []ConditionalFormat{{Pattern: "a"}}},
			option:   "conditional_formats['a']",
			contains: "type",
		},
		{
			name: "bad bar color",
			opts: &Options{ConditionalFormats: []ConditionalFormat{{Pattern: "a", Rule: CondFormat{
				Type: "data_bar", BarColor: "#12345",
			}}}},
			option:   "conditional_formats['a'].bar_color",
			contains: "got 5",
		},
		{
			name: "unknown icon type",
			opts: &Options{ConditionalFormats: []ConditionalFormat{{Pattern: "a", Rule: CondFormat{
				Type: "icon_set", IconType: "smileys",
			}}}},
			option:   "conditional_formats['a'].icon_type",
			contains: "smileys",
		},
		{
			name:     "formula column collides",
			opts:     &Options{FormulaColumns: []FormulaColumn{{Name: "a", Template: "=1"}}},
			option:   "formula_columns",
			contains: "already exists",
		},
		{
			name:     "bad merged range",
			opts:     &Options{MergedRanges: []MergedRange{{Range: "A1", Text: "x"}}},
			option:   "merged_ranges[0]",
			contains: "A1:B2",
		},
		{
			name:     "bad hyperlink cell",
			opts:     &Options{Hyperlinks: []Hyperlink{{Cell: "1A", URL: "https://x"}}},
			option:   "hyperlinks[0]",
			contains: "1A",
		},
		{
			name: "bad rich text color",
			opts: &Options{RichText: []RichTextCell{{Cell: "A1", Runs: []TextRun{
				{Text: "x", Format: &Format{FontColor: "#XYZXYZ"}},
			}}}},
			option:   "rich_text['A1'][0].format.font_color",
			contains: "hex",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := resolveSheet("S", []string{"a", "b"}, tc.opts, newNameSet())
			var ce *ConfigError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tc.option, ce.Option)
			assert.Contains(t, err.Error(), tc.contains)
		})
	}
}

func TestResolveValidationBounds(t *testing.T) {
	rv, err := resolveValidation("v", ValidationRule{Type: "whole"})
	require.NoError(t, err)
	assert.Equal(t, WholeNumberValidation, rv.Type)
	assert.Equal(t, float64(math.MinInt32), rv.Min)
	assert.Equal(t, float64(math.MaxInt32), rv.Max)

	rv, err = resolveValidation("v", ValidationRule{Type: "number", Min: Ptr(1.5)})
	require.NoError(t, err)
	assert.Equal(t, DecimalValidation, rv.Type)
	assert.Equal(t, 1.5, rv.Min)
	assert.Equal(t, float64(math.MaxFloat32), rv.Max)

	rv, err = resolveValidation("v", ValidationRule{Type: "length", Max: Ptr(10.9)})
	require.NoError(t, err)
	assert.Equal(t, TextLengthValidation, rv.Type)
	assert.Equal(t, 0.0, rv.Min)
	assert.Equal(t, 10.0, rv.Max)

	// Exactly 255 characters once joined with separators.
	values := []string{strings.Repeat("a", 127), strings.Repeat("b", 127)}
	_, err = resolveValidation("v", ValidationRule{Type: "list", Values: values})
	assert.NoError(t, err)
}

func TestResolveCondFormatDefaults(t *testing.T) {
	opt, err := resolveCondFormat("cf", CondFormat{Type: "2_color_scale"})
	require.NoError(t, err)
	assert.Equal(t, "2_color_scale", opt.Type)
	assert.Equal(t, "#FFEF9C", opt.MinColor)
	assert.Equal(t, "#63BE7B", opt.MaxColor)

	opt, err = resolveCondFormat("cf", CondFormat{Type: "3_color_scale", MidColor: "white"})
	require.NoError(t, err)
	assert.Equal(t, "#F8696B", opt.MinColor)
	assert.Equal(t, "#FFFFFF", opt.MidColor)
	assert.Equal(t, "50", opt.MidValue)

	opt, err = resolveCondFormat("cf", CondFormat{Type: "databar", Solid: true, Direction: "left_to_right"})
	require.NoError(t, err)
	assert.Equal(t, "data_bar", opt.Type)
	assert.Equal(t, "#638EC6", opt.BarColor)
	assert.True(t, opt.BarSolid)
	assert.Equal(t, "leftToRight", opt.BarDirection)

	opt, err = resolveCondFormat("cf", CondFormat{Type: "icon_set", IconType: "5_rating", Reverse: true})
	require.NoError(t, err)
	assert.Equal(t, "5Rating", opt.IconStyle)
	assert.True(t, opt.ReverseIcons)
}

func TestResolveTable(t *testing.T) {
	tables := newNameSet()
	plan, err := resolveSheet("S", []string{"a"}, &Options{TableStyle: Ptr("Medium9"), TableName: Ptr("2024 Sales")}, tables)
	require.NoError(t, err)
	got := directivesOf[TableDirective](plan.directives)
	require.Len(t, got, 1)
	assert.Equal(t, TableDirective{Name: "_2024_Sales", Style: "TableStyleMedium9"}, got[0])

	// Same name on another sheet gets a suffix.
	plan, err = resolveSheet("T", []string{"a"}, &Options{TableStyle: Ptr("Light1"), TableName: Ptr("2024 Sales")}, tables)
	require.NoError(t, err)
	assert.Equal(t, "_2024_Sales_2", directivesOf[TableDirective](plan.directives)[0].Name)

	plan, err = resolveSheet("U", []string{"a"}, &Options{TableStyle: Ptr("None")}, tables)
	require.NoError(t, err)
	assert.Equal(t, TableDirective{Name: "Table3"}, directivesOf[TableDirective](plan.directives)[0])

	// table_name alone, an empty style and a disabled header make no table.
	for _, opts := range []*Options{
		{TableName: Ptr("Orphan")},
		{TableStyle: Ptr("")},
		{TableStyle: Ptr("Medium2"), Header: Ptr(false)},
	} {
		plan, err := resolveSheet("V", []string{"a"}, opts, tables)
		require.NoError(t, err)
		assert.Empty(t, directivesOf[TableDirective](plan.directives))
	}
}

func TestResolveCellDirectives(t *testing.T) {
	plan, err := resolveSheet("S", []string{"a", "b"}, &Options{
		FreezePanes:  Ptr(true),
		MergedRanges: []MergedRange{{Range: "A1:B1", Text: "Title", Format: &Format{Bold: true}}},
		Hyperlinks: []Hyperlink{
			{Cell: "C2", URL: "https://example.com"},
			{Cell: "C3", URL: "internal:Other!A1", Text: "Go"},
		},
		Comments:   []Comment{{Cell: "A2", Text: "note", Author: "me"}},
		RowHeights: map[int]float64{5: 30, 1: 20},
		FormulaColumns: []FormulaColumn{
			{Name: "sum", Template: "=A{row}+B{row}"},
		},
	}, newNameSet())
	require.NoError(t, err)

	merged := directivesOf[MergedRangeDirective](plan.directives)
	require.Len(t, merged, 1)
	assert.Equal(t, StyleRecord{Bold: true, Center: true}, plan.styles.Record(merged[0].StyleID))

	links := directivesOf[HyperlinkDirective](plan.directives)
	require.Len(t, links, 2)
	assert.Equal(t, HyperLink{Link: "https://example.com", Type: External}, links[0].Link)
	assert.Equal(t, HyperLink{Link: "Other!A1", Type: Location}, links[1].Link)
	assert.Equal(t, CellRef{Row: 2, Col: 2}, links[1].Cell)

	assert.Equal(t, []CommentDirective{{Cell: CellRef{Row: 1}, Text: "note", Author: "me"}},
		directivesOf[CommentDirective](plan.directives))
	assert.Equal(t, []RowHeightDirective{{Row: 1, Height: 20}, {Row: 5, Height: 30}},
		directivesOf[RowHeightDirective](plan.directives))
	assert.Equal(t, []FreezePanesDirective{{Rows: 1}}, directivesOf[FreezePanesDirective](plan.directives))

	require.Len(t, plan.columns, 3)
	assert.Equal(t, 2, plan.dataCols)
	assert.Equal(t, "=A{row}+B{row}", plan.columns[2].Formula)
}

func TestSanitizeTableName(t *testing.T) {
	valid := regexp.MustCompile(`^_?[A-Za-z0-9_]+$`)
	for in, want := range map[string]string{
		"Sales":        "Sales",
		"Sales Data":   "Sales_Data",
		"2024-Q1":      "_2024_Q1",
		"":             "_",
		"naïve":        "na_ve",
		"a.b/c":        "a_b_c",
		"_leading":     "_leading",
		"9":            "_9",
		"Über Tabelle": "_ber_Tabelle",
	} {
		got := SanitizeTableName(in)
		assert.Equal(t, want, got, in)
		assert.Regexp(t, valid, got)
		assert.Equal(t, got, SanitizeTableName(got), "idempotent for %q", in)
	}
	long := SanitizeTableName(strings.Repeat("x", 300))
	assert.Len(t, long, 255)
	assert.Equal(t, long, SanitizeTableName(long))
}

func TestNameSetClaim(t *testing.T) {
	s := newNameSet()
	assert.Equal(t, "Data", s.claim("Data", 31))
	assert.Equal(t, "data_2", s.claim("data", 31))
	assert.Equal(t, "Data_3", s.claim("Data", 31))

	long := strings.Repeat("n", 31)
	assert.Equal(t, long, s.claim(long, 31))
	assert.Equal(t, strings.Repeat("n", 29)+"_2", s.claim(long, 31))
}

func TestResolveTableWithoutHeader(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { SetLogger(nil) })

	plan, err := resolveSheet("Data", []string{"a"}, &Options{
		Header:     Ptr(false),
		TableStyle: Ptr("Medium2"),
	}, newNameSet())
	require.NoError(t, err)
	assert.Empty(t, directivesOf[TableDirective](plan.directives))
	assert.Contains(t, buf.String(), "table skipped")
	assert.Contains(t, buf.String(), "sheet=Data")
}
