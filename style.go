package xlsxturbo

import (
	excelize "github.com/xuri/excelize/v2"
)

// Format is a user supplied cell format. Colors accept "#RRGGBB" or a basic
// color name. NumFormat and Border only apply to column formats.
type Format struct {
	Bold      bool    `yaml:"bold"`
	Italic    bool    `yaml:"italic"`
	Underline bool    `yaml:"underline"`
	BgColor   string  `yaml:"bg_color"`
	FontColor string  `yaml:"font_color"`
	FontSize  float64 `yaml:"font_size" validate:"gte=0,lte=409"`
	NumFormat string  `yaml:"num_format"`
	Border    bool    `yaml:"border"`
}

// StyleRecord is a resolved, comparable style. Colors are normalized.
type StyleRecord struct {
	Bold      bool
	Italic    bool
	Underline bool
	FontColor string
	FontSize  float64
	BgColor   string
	Border    bool
	NumFormat string
	Center    bool
}

// StylePlan deduplicates style records. Ids start at 1; 0 is the default
// style and is never stored.
type StylePlan struct {
	records []StyleRecord
	index   map[StyleRecord]int
}

func newStylePlan() *StylePlan {
	return &StylePlan{index: make(map[StyleRecord]int)}
}

// Add returns the id of rec, registering it on first use. The zero record
// maps to 0.
func (p *StylePlan) Add(rec StyleRecord) int {
	if rec == (StyleRecord{}) {
		return 0
	}
	if id, ok := p.index[rec]; ok {
		return id
	}
	p.records = append(p.records, rec)
	id := len(p.records)
	p.index[rec] = id
	return id
}

// Record returns the record for a non-zero id.
func (p *StylePlan) Record(id int) StyleRecord {
	return p.records[id-1]
}

// Len is the number of distinct records.
func (p *StylePlan) Len() int {
	return len(p.records)
}

// resolveFormat validates colors and turns a Format into a StyleRecord.
// withColumnOptions enables num_format and border.
func resolveFormat(option string, f *Format, withColumnOptions bool) (StyleRecord, error) {
	var rec StyleRecord
	if f == nil {
		return rec, nil
	}
	if err := validate.Struct(f); err != nil {
		return rec, validationErr(option, err)
	}
	rec.Bold = f.Bold
	rec.Italic = f.Italic
	rec.Underline = f.Underline
	rec.FontSize = f.FontSize
	if f.BgColor != "" {
		c, err := ParseColor(option+".bg_color", f.BgColor)
		if err != nil {
			return rec, err
		}
		rec.BgColor = c
	}
	if f.FontColor != "" {
		c, err := ParseColor(option+".font_color", f.FontColor)
		if err != nil {
			return rec, err
		}
		rec.FontColor = c
	}
	if withColumnOptions {
		rec.NumFormat = f.NumFormat
		rec.Border = f.Border
	}
	return rec, nil
}

func (rec StyleRecord) font() *excelize.Font {
	if !rec.Bold && !rec.Italic && !rec.Underline && rec.FontColor == "" && rec.FontSize == 0 {
		return nil
	}
	font := &excelize.Font{
		Bold:   rec.Bold,
		Italic: rec.Italic,
		Color:  rec.FontColor,
		Size:   rec.FontSize,
	}
	if rec.Underline {
		font.Underline = "single"
	}
	return font
}

// toExcelize converts the record into the emitter's style description.
func (rec StyleRecord) toExcelize() *excelize.Style {
	style := &excelize.Style{Font: rec.font()}
	if rec.BgColor != "" {
		style.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{rec.BgColor}}
	}
	if rec.Border {
		for _, side := range []string{"left", "top", "right", "bottom"} {
			style.Border = append(style.Border, excelize.Border{Type: side, Color: "#000000", Style: 1})
		}
	}
	if rec.NumFormat != "" {
		numFmt := rec.NumFormat
		style.CustomNumFmt = &numFmt
	}
	if rec.Center {
		style.Alignment = &excelize.Alignment{Horizontal: "center", Vertical: "center"}
	}
	return style
}

// runFont converts an inline rich text format to a font.
func runFont(option string, f *Format) (*excelize.Font, error) {
	rec, err := resolveFormat(option, f, false)
	if err != nil {
		return nil, err
	}
	return rec.font(), nil
}
