package xlsxturbo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullOptionsYAML = `
header: true
autofit: true
freeze_panes: true
table_style: Medium9
table_name: Sales Data
column_widths:
  _all: 40
  0: 12.5
header_format:
  bold: true
  bg_color: "#4472C4"
  font_color: white
column_formats:
  price_*:
    num_format: "$#,##0.00"
    border: true
  _all:
    italic: true
conditional_formats:
  score:
    type: 3_color_scale
    mid_color: yellow
  progress:
    type: data_bar
    bar_color: "#FF0000"
    direction: rtl
validations:
  status:
    type: list
    values: [Open, Closed, 3]
    error_message: Pick one
  qty:
    type: whole_number
    min: 0
    max: 100
formula_columns:
  Total: "=B{row}*C{row}"
merged_ranges:
  - ["A1:C1", "Title", {bold: true}]
  - {range: "D1:E1", text: Other}
hyperlinks:
  - ["F2", "https://example.com"]
  - {cell: G2, url: "internal:Sheet2!A1", text: Jump}
comments:
  A2: Plain note
  B2: {text: Signed, author: QA}
rich_text:
  H2:
    - Plain
    - [" bold", {bold: true}]
    - {text: " red", format: {font_color: red}}
images:
  J2: logo.png
  K2: {path: chart.png, scale_width: 0.5, alt_text: Chart}
row_heights:
  0: 30
constant_memory: false
`

func TestParseOptionsYAML(t *testing.T) {
	opts, err := ParseOptionsYAML([]byte(fullOptionsYAML))
	require.NoError(t, err)

	assert.True(t, opts.header())
	assert.True(t, opts.autofit())
	assert.True(t, opts.freezePanes())
	assert.Equal(t, Buffered, opts.writeMode())
	assert.Equal(t, "Medium9", *opts.TableStyle)
	assert.Equal(t, "Sales Data", *opts.TableName)
	assert.Equal(t, 40.0, *opts.ColumnWidths.All)
	assert.Equal(t, map[int]float64{0: 12.5}, opts.ColumnWidths.ByIndex)
	assert.Equal(t, &Format{Bold: true, BgColor: "#4472C4", FontColor: "white"}, opts.HeaderFormat)

	require.Len(t, opts.ColumnFormats, 2)
	assert.Equal(t, "price_*", opts.ColumnFormats[0].Pattern)
	assert.Equal(t, Format{NumFormat: "$#,##0.00", Border: true}, opts.ColumnFormats[0].Format)
	assert.Equal(t, AllColumns, opts.ColumnFormats[1].Pattern)

	require.Len(t, opts.ConditionalFormats, 2)
	assert.Equal(t, CondFormat{Type: "3_color_scale", MidColor: "yellow"}, opts.ConditionalFormats[0].Rule)
	assert.Equal(t, "rtl", opts.ConditionalFormats[1].Rule.Direction)

	require.Len(t, opts.Validations, 2)
	assert.Equal(t, []string{"Open", "Closed", "3"}, opts.Validations[0].Rule.Values)
	assert.Equal(t, "Pick one", opts.Validations[0].Rule.ErrorMessage)
	assert.Equal(t, 0.0, *opts.Validations[1].Rule.Min)
	assert.Equal(t, 100.0, *opts.Validations[1].Rule.Max)

	assert.Equal(t, []FormulaColumn{{Name: "Total", Template: "=B{row}*C{row}"}}, opts.FormulaColumns)
	assert.Equal(t, []MergedRange{
		{Range: "A1:C1", Text: "Title", Format: &Format{Bold: true}},
		{Range: "D1:E1", Text: "Other"},
	}, opts.MergedRanges)
	assert.Equal(t, []Hyperlink{
		{Cell: "F2", URL: "https://example.com"},
		{Cell: "G2", URL: "internal:Sheet2!A1", Text: "Jump"},
	}, opts.Hyperlinks)
	assert.Equal(t, []Comment{
		{Cell: "A2", Text: "Plain note"},
		{Cell: "B2", Text: "Signed", Author: "QA"},
	}, opts.Comments)
	assert.Equal(t, []RichTextCell{{Cell: "H2", Runs: []TextRun{
		{Text: "Plain"},
		{Text: " bold", Format: &Format{Bold: true}},
		{Text: " red", Format: &Format{FontColor: "red"}},
	}}}, opts.RichText)
	assert.Equal(t, []Picture{
		{Cell: "J2", Path: "logo.png"},
		{Cell: "K2", Path: "chart.png", Format: PicFormat{ScaleWidth: 0.5, AltText: "Chart"}},
	}, opts.Images)
	assert.Equal(t, map[int]float64{0: 30}, opts.RowHeights)
}

func TestParseOptionsYAMLKeepsOrder(t *testing.T) {
	opts, err := ParseOptionsYAML([]byte("column_formats:\n  z*: {bold: true}\n  a*: {italic: true}\n"))
	require.NoError(t, err)
	require.Len(t, opts.ColumnFormats, 2)
	assert.Equal(t, "z*", opts.ColumnFormats[0].Pattern)
	assert.Equal(t, "a*", opts.ColumnFormats[1].Pattern)
}

func TestParseOptionsErrors(t *testing.T) {
	cases := []struct {
		name   string
		yaml   string
		option string
	}{
		{"unknown key", "colour: red", "colour"},
		{"bool type", "header: yes please", "header"},
		{"mapping expected", "column_formats: [a, b]", "column_formats"},
		{"list expected", "merged_ranges: {A1: x}", "merged_ranges"},
		{"unknown format key", "header_format: {blink: true}", "header_format.blink"},
		{"bad width key", "column_widths: {first: 10}", "column_widths"},
		{"negative width", "column_widths: {0: -1}", "column_widths.by_index[0]"},
		{"width too large", "column_widths: {_all: 300}", "column_widths._all"},
		{"row height too large", "row_heights: {1: 500}", "row_heights[1]"},
		{"tuple too short", "hyperlinks: [[A1]]", "hyperlinks[0]"},
		{"missing comment text", "comments: {A1: {author: me}}", "comments['A1']"},
		{"image without path", "images: {A1: {scale_width: 2}}", "images['A1']"},
		{"negative scale", "images: {A1: {path: x.png, scale_width: -1}}", "images[0].format.scale_width"},
		{"font size", "header_format: {font_size: 1000}", "header_format.font_size"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseOptionsYAML([]byte(tc.yaml))
			var ce *ConfigError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tc.option, ce.Option)
			assert.ErrorIs(t, err, ErrConfig)
		})
	}
}

func TestParseOptionsYAMLInvalid(t *testing.T) {
	_, err := ParseOptionsYAML([]byte("header: [unclosed"))
	assert.ErrorIs(t, err, ErrConfig)

	_, err = ParseOptionsYAML([]byte("- a\n- b\n"))
	assert.ErrorIs(t, err, ErrConfig)

	opts, err := ParseOptionsYAML(nil)
	require.NoError(t, err)
	assert.Equal(t, &Options{}, opts)
}

func TestParseOptionsNullTableStyle(t *testing.T) {
	opts, err := ParseOptionsYAML([]byte("table_style: null\ntable_name: ~\nheader: null"))
	require.NoError(t, err)
	assert.Nil(t, opts.TableStyle)
	assert.Nil(t, opts.TableName)
	assert.Nil(t, opts.Header)

	// A null in a sheet layer keeps the global table.
	global := &Options{TableStyle: Ptr("Medium2")}
	assert.Equal(t, "Medium2", *Merge(global, opts).TableStyle)
}

func TestParseOptionsMap(t *testing.T) {
	opts, err := ParseOptionsMap(map[string]any{
		"header":        false,
		"column_widths": map[any]any{"_all": 20, 2: 8},
		"row_heights":   map[int]float64{0: 25},
		"validations": map[string]any{
			"amount": map[string]any{"type": "decimal", "min": 0.5},
		},
	})
	require.NoError(t, err)
	assert.False(t, opts.header())
	assert.Equal(t, 20.0, *opts.ColumnWidths.All)
	assert.Equal(t, map[int]float64{2: 8}, opts.ColumnWidths.ByIndex)
	assert.Equal(t, map[int]float64{0: 25}, opts.RowHeights)
	require.Len(t, opts.Validations, 1)
	assert.Equal(t, 0.5, *opts.Validations[0].Rule.Min)
	assert.Nil(t, opts.Validations[0].Rule.Max)

	_, err = ParseOptionsMap(map[string]any{"header": "true"})
	assert.ErrorIs(t, err, ErrConfig)
}

func TestLoadOptionsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "opts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("autofit: true\n"), 0o644))
	opts, err := LoadOptionsFile(path)
	require.NoError(t, err)
	assert.True(t, opts.autofit())

	_, err = LoadOptionsFile(filepath.Join(t.TempDir(), "missing.yaml"))
	var re *ResourceError
	require.ErrorAs(t, err, &re)
	assert.ErrorIs(t, err, ErrResource)
	assert.Contains(t, err.Error(), "missing.yaml")
}

func TestMerge(t *testing.T) {
	global := &Options{
		Autofit:       Ptr(true),
		TableStyle:    Ptr("Medium2"),
		ColumnFormats: []ColumnFormat{{Pattern: "a", Format: Format{Bold: true}}},
		RowHeights:    map[int]float64{0: 20, 1: 20},
	}
	sheet := &Options{
		TableStyle: Ptr("Light1"),
		RowHeights: map[int]float64{3: 40},
	}
	got := Merge(global, nil, sheet)
	assert.True(t, got.autofit())
	assert.Equal(t, "Light1", *got.TableStyle)
	assert.Equal(t, global.ColumnFormats, got.ColumnFormats)
	assert.Equal(t, map[int]float64{3: 40}, got.RowHeights)
	assert.Equal(t, &Options{}, Merge())
}
