package xlsxturbo

import (
	excelize "github.com/xuri/excelize/v2"
)

// DirectiveKind identifies a sheet feature that is applied outside the cell
// grid.
type DirectiveKind uint8

const (
	TableKind DirectiveKind = iota
	ConditionalFormatKind
	ValidationKind
	MergedRangeKind
	HyperlinkKind
	CommentKind
	ImageKind
	FormulaColumnKind
	RowHeightKind
	RichTextKind
	FreezePanesKind
)

var directiveKindNames = [...]string{
	"table", "conditional_format", "validation", "merged_range", "hyperlink",
	"comment", "image", "formula_column", "row_height", "rich_text", "freeze_panes",
}

func (k DirectiveKind) String() string {
	if int(k) < len(directiveKindNames) {
		return directiveKindNames[k]
	}
	return "directive"
}

// Directive is a coordinate resolved sheet feature. Coordinates are 0-based
// sheet positions, header row included.
type Directive interface {
	Kind() DirectiveKind
}

// TableDirective covers the header row and every data row of the data
// columns. Range is set once the row count is known.
type TableDirective struct {
	Name  string
	Style string
	Range CellRange
}

// ConditionalFormatDirective applies Rule to the data rows of column Col.
type ConditionalFormatDirective struct {
	Col   int
	Rule  excelize.ConditionalFormatOptions
	Range CellRange
}

// ValidationDirective restricts the data rows of column Col.
type ValidationDirective struct {
	Col   int
	Rule  resolvedValidation
	Range CellRange
}

type resolvedValidation struct {
	Type         ValidationType
	Values       []string
	Min, Max     float64
	InputTitle   string
	InputMessage string
	ErrorTitle   string
	ErrorMessage string
}

type MergedRangeDirective struct {
	Range   CellRange
	Text    string
	StyleID int
}

type HyperlinkDirective struct {
	Cell CellRef
	Link HyperLink
	Text string
}

type CommentDirective struct {
	Cell   CellRef
	Text   string
	Author string
}

// ImageDirective places a picture. The file is read after gating, so
// dropped images never touch the filesystem.
type ImageDirective struct {
	Cell    CellRef
	Picture Picture

	data *excelize.Picture
}

// FormulaColumnDirective appends a column whose cells are Template with
// "{row}" replaced by the 1-based row number.
type FormulaColumnDirective struct {
	Name     string
	Template string
}

type RowHeightDirective struct {
	Row    int
	Height float64
}

type RichTextDirective struct {
	Cell CellRef
	Runs []excelize.RichTextRun
}

// FreezePanesDirective keeps the first Rows rows visible while scrolling.
type FreezePanesDirective struct {
	Rows int
}

func (TableDirective) Kind() DirectiveKind             { return TableKind }
func (ConditionalFormatDirective) Kind() DirectiveKind { return ConditionalFormatKind }
func (ValidationDirective) Kind() DirectiveKind        { return ValidationKind }
func (MergedRangeDirective) Kind() DirectiveKind       { return MergedRangeKind }
func (HyperlinkDirective) Kind() DirectiveKind         { return HyperlinkKind }
func (CommentDirective) Kind() DirectiveKind           { return CommentKind }
func (ImageDirective) Kind() DirectiveKind             { return ImageKind }
func (FormulaColumnDirective) Kind() DirectiveKind     { return FormulaColumnKind }
func (RowHeightDirective) Kind() DirectiveKind         { return RowHeightKind }
func (RichTextDirective) Kind() DirectiveKind          { return RichTextKind }
func (FreezePanesDirective) Kind() DirectiveKind       { return FreezePanesKind }
