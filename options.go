package xlsxturbo

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	return v
}

// validationErr turns the first validator failure into a ConfigError.
func validationErr(option string, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return configErr(option, "", "%v", err)
	}
	fe := verrs[0]
	path := ""
	if _, rest, ok := strings.Cut(fe.Namespace(), "."); ok {
		path = rest
	}
	switch {
	case option == "":
		option = path
	case path != "":
		option += "." + path
	}
	msg := "must satisfy " + fe.Tag()
	if fe.Param() != "" {
		msg += "=" + fe.Param()
	}
	return configErr(option, fmt.Sprint(fe.Value()), "%s", msg)
}

// ColumnWidths sets widths by 0-based column index. All applies to every
// column without an explicit width; combined with autofit it is a ceiling.
type ColumnWidths struct {
	All     *float64        `yaml:"_all" validate:"omitempty,gte=0,lte=255"`
	ByIndex map[int]float64 `yaml:"by_index" validate:"dive,keys,gte=0,endkeys,gte=0,lte=255"`
}

// ColumnFormat applies Format to the columns matching Pattern.
type ColumnFormat struct {
	Pattern string
	Format  Format
}

// CondFormat describes one conditional format rule. Which fields are used
// depends on Type.
type CondFormat struct {
	Type        string `yaml:"type"`
	MinColor    string `yaml:"min_color"`
	MidColor    string `yaml:"mid_color"`
	MaxColor    string `yaml:"max_color"`
	BarColor    string `yaml:"bar_color"`
	BorderColor string `yaml:"border_color"`
	Solid       bool   `yaml:"solid"`
	Direction   string `yaml:"direction"`
	IconType    string `yaml:"icon_type"`
	Reverse     bool   `yaml:"reverse"`
	IconsOnly   bool   `yaml:"icons_only"`
}

type ConditionalFormat struct {
	Pattern string
	Rule    CondFormat
}

// ValidationRule describes one data validation. Values is used by list
// rules, Min and Max by the numeric and text length rules.
type ValidationRule struct {
	Type         string   `yaml:"type"`
	Values       []string `yaml:"values"`
	Min          *float64 `yaml:"min"`
	Max          *float64 `yaml:"max"`
	InputTitle   string   `yaml:"input_title"`
	InputMessage string   `yaml:"input_message"`
	ErrorTitle   string   `yaml:"error_title"`
	ErrorMessage string   `yaml:"error_message"`
}

type Validation struct {
	Pattern string
	Rule    ValidationRule
}

// FormulaColumn appends a computed column. "{row}" in Template is replaced
// by the 1-based row number of each data row.
type FormulaColumn struct {
	Name     string
	Template string
}

type MergedRange struct {
	Range  string
	Text   string
	Format *Format
}

type Hyperlink struct {
	Cell string
	URL  string
	Text string
}

type Comment struct {
	Cell   string
	Text   string
	Author string
}

type RichTextCell struct {
	Cell string
	Runs []TextRun
}

// Options is the per-call or per-sheet configuration. A nil field is unset:
// it falls back to the layer below when merged, then to the default.
type Options struct {
	Header         *bool `yaml:"header"`
	Autofit        *bool `yaml:"autofit"`
	FreezePanes    *bool `yaml:"freeze_panes"`
	ConstantMemory *bool `yaml:"constant_memory"`
	// TableStyle is a preset name; a pointer to "" disables the table. A
	// table needs the header row, so with header false none is added.
	TableStyle         *string             `yaml:"table_style"`
	TableName          *string             `yaml:"table_name"`
	ColumnWidths       *ColumnWidths       `yaml:"column_widths" validate:"omitempty"`
	HeaderFormat       *Format             `yaml:"header_format" validate:"omitempty"`
	ColumnFormats      []ColumnFormat      `yaml:"column_formats" validate:"dive"`
	ConditionalFormats []ConditionalFormat `yaml:"conditional_formats"`
	Validations        []Validation        `yaml:"validations"`
	FormulaColumns     []FormulaColumn     `yaml:"formula_columns"`
	MergedRanges       []MergedRange       `yaml:"merged_ranges" validate:"dive"`
	Hyperlinks         []Hyperlink         `yaml:"hyperlinks"`
	Comments           []Comment           `yaml:"comments"`
	RichText           []RichTextCell      `yaml:"rich_text"`
	Images             []Picture           `yaml:"images" validate:"dive"`
	RowHeights         map[int]float64     `yaml:"row_heights" validate:"dive,keys,gte=0,endkeys,gte=0,lte=409"`
}

// Merge layers options left to right. A field set in a later layer replaces
// the whole field of the earlier one; maps and lists are never deep-merged.
func Merge(layers ...*Options) *Options {
	out := &Options{}
	for _, o := range layers {
		if o == nil {
			continue
		}
		if o.Header != nil {
			out.Header = o.Header
		}
		if o.Autofit != nil {
			out.Autofit = o.Autofit
		}
		if o.FreezePanes != nil {
			out.FreezePanes = o.FreezePanes
		}
		if o.ConstantMemory != nil {
			out.ConstantMemory = o.ConstantMemory
		}
		if o.TableStyle != nil {
			out.TableStyle = o.TableStyle
		}
		if o.TableName != nil {
			out.TableName = o.TableName
		}
		if o.ColumnWidths != nil {
			out.ColumnWidths = o.ColumnWidths
		}
		if o.HeaderFormat != nil {
			out.HeaderFormat = o.HeaderFormat
		}
		if o.ColumnFormats != nil {
			out.ColumnFormats = o.ColumnFormats
		}
		if o.ConditionalFormats != nil {
			out.ConditionalFormats = o.ConditionalFormats
		}
		if o.Validations != nil {
			out.Validations = o.Validations
		}
		if o.FormulaColumns != nil {
			out.FormulaColumns = o.FormulaColumns
		}
		if o.MergedRanges != nil {
			out.MergedRanges = o.MergedRanges
		}
		if o.Hyperlinks != nil {
			out.Hyperlinks = o.Hyperlinks
		}
		if o.Comments != nil {
			out.Comments = o.Comments
		}
		if o.RichText != nil {
			out.RichText = o.RichText
		}
		if o.Images != nil {
			out.Images = o.Images
		}
		if o.RowHeights != nil {
			out.RowHeights = o.RowHeights
		}
	}
	return out
}

func (o *Options) header() bool         { return o.Header == nil || *o.Header }
func (o *Options) autofit() bool        { return o.Autofit != nil && *o.Autofit }
func (o *Options) freezePanes() bool    { return o.FreezePanes != nil && *o.FreezePanes }
func (o *Options) constantMemory() bool { return o.ConstantMemory != nil && *o.ConstantMemory }

func (o *Options) writeMode() WriteMode {
	if o.constantMemory() {
		return Streaming
	}
	return Buffered
}

// Ptr returns a pointer to v, for filling optional fields.
func Ptr[T any](v T) *T {
	return &v
}
