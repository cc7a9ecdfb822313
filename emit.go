package xlsxturbo

import (
	"context"
	"fmt"
	"io"
	"math"

	excelize "github.com/xuri/excelize/v2"
)

// Emitter writes sheet models into one workbook package, in the order they
// are emitted.
type Emitter struct {
	f      *excelize.File
	sheets int
}

func NewEmitter() *Emitter {
	return &Emitter{f: excelize.NewFile()}
}

// Emit writes one sheet. Streaming sheets pull their rows from the source
// here and record the row count on m.
func (e *Emitter) Emit(ctx context.Context, m *SheetModel) error {
	if err := e.addSheet(m.Name); err != nil {
		return err
	}
	ids, err := styleIDs(e.f, m.Styles)
	if err != nil {
		return err
	}
	if m.Mode == Streaming {
		return e.emitStream(ctx, m, ids)
	}
	return e.emitBuffered(ctx, m, ids)
}

// WriteTo serializes the package.
func (e *Emitter) WriteTo(w io.Writer) (int64, error) {
	return e.f.WriteTo(w)
}

func (e *Emitter) Close() error {
	return e.f.Close()
}

func (e *Emitter) addSheet(name string) error {
	defer func() { e.sheets++ }()
	if e.sheets == 0 {
		if name == defaultSheet {
			return nil
		}
		return e.f.SetSheetName(defaultSheet, name)
	}
	_, err := e.f.NewSheet(name)
	return err
}

func (e *Emitter) emitBuffered(ctx context.Context, m *SheetModel, ids []int) error {
	f := e.f
	line := 1
	if m.Header {
		col := cellGenerator(line)
		for _, spec := range m.Columns {
			ref := col()
			if err := f.SetCellValue(m.Name, ref, spec.Name); err != nil {
				return err
			}
			if err := setStyle(f, m.Name, ref, ref, ids[m.HeaderStyle]); err != nil {
				return err
			}
		}
		line++
	}
	for i, row := range m.Rows {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		col := cellGenerator(line)
		for j, v := range row {
			ref := col()
			c, err := excelizeCell(v, m.Columns[j], ids)
			if err != nil {
				return fmt.Errorf("%s: %w", ref, err)
			}
			if err := setCell(f, m.Name, ref, c); err != nil {
				return fmt.Errorf("%s: %w", ref, err)
			}
		}
		line++
	}
	for i, w := range m.Widths {
		if w <= 0 {
			continue
		}
		name := toTwentySix(i + 1)
		if err := f.SetColWidth(m.Name, name, name, w); err != nil {
			return err
		}
	}
	for _, d := range m.Directives {
		if err := e.applyDirective(m.Name, d, ids); err != nil {
			return fmt.Errorf("%s: %w", d.Kind(), err)
		}
	}
	return nil
}

func setStyle(f *excelize.File, sheet, tl, br string, id int) error {
	if id == 0 {
		return nil
	}
	return f.SetCellStyle(sheet, tl, br, id)
}

func setCell(f *excelize.File, sheet, ref string, c excelize.Cell) error {
	var err error
	switch v := c.Value.(type) {
	case nil:
		if c.Formula == "" {
			return nil
		}
		err = f.SetCellFormula(sheet, ref, c.Formula)
	case []excelize.RichTextRun:
		err = f.SetCellRichText(sheet, ref, v)
	default:
		err = f.SetCellValue(sheet, ref, v)
	}
	if err != nil {
		return err
	}
	return setStyle(f, sheet, ref, ref, c.StyleID)
}

func (e *Emitter) applyDirective(sheet string, d Directive, ids []int) error {
	f := e.f
	switch v := d.(type) {
	case TableDirective:
		return f.AddTable(sheet, &excelize.Table{
			Range:     v.Range.String(),
			Name:      v.Name,
			StyleName: v.Style,
		})
	case ConditionalFormatDirective:
		return f.SetConditionalFormat(sheet, v.Range.String(), []excelize.ConditionalFormatOptions{v.Rule})
	case ValidationDirective:
		dv, err := dataValidation(v.Rule)
		if err != nil {
			return err
		}
		dv.Sqref = v.Range.String()
		return f.AddDataValidation(sheet, dv)
	case MergedRangeDirective:
		first, last := v.Range.First.String(), v.Range.Last.String()
		if err := f.MergeCell(sheet, first, last); err != nil {
			return err
		}
		if v.Text != "" {
			if err := f.SetCellValue(sheet, first, v.Text); err != nil {
				return err
			}
		}
		return setStyle(f, sheet, first, last, ids[v.StyleID])
	case HyperlinkDirective:
		ref := v.Cell.String()
		text := v.Text
		if text == "" {
			text = v.Link.Link
		}
		if err := f.SetCellValue(sheet, ref, text); err != nil {
			return err
		}
		return f.SetCellHyperLink(sheet, ref, v.Link.Link, string(v.Link.Type),
			excelize.HyperlinkOpts{Display: &text})
	case CommentDirective:
		return f.AddComment(sheet, excelize.Comment{
			Cell:   v.Cell.String(),
			Author: v.Author,
			Text:   v.Text,
		})
	case ImageDirective:
		return f.AddPictureFromBytes(sheet, v.Cell.String(), v.data)
	case RowHeightDirective:
		return f.SetRowHeight(sheet, v.Row+1, v.Height)
	case RichTextDirective:
		return f.SetCellRichText(sheet, v.Cell.String(), v.Runs)
	case FreezePanesDirective:
		return f.SetPanes(sheet, &excelize.Panes{
			Freeze:      true,
			YSplit:      v.Rows,
			TopLeftCell: cell(v.Rows+1, 1),
			ActivePane:  "bottomLeft",
		})
	case FormulaColumnDirective:
		// Cells are written with the rows.
		return nil
	}
	return fmt.Errorf("unsupported directive %T", d)
}

func dataValidation(rule resolvedValidation) (*excelize.DataValidation, error) {
	dv := excelize.NewDataValidation(true)
	var err error
	switch rule.Type {
	case ListValidation:
		err = dv.SetDropList(rule.Values)
	case WholeNumberValidation:
		err = dv.SetRange(clampInt(rule.Min), clampInt(rule.Max),
			excelize.DataValidationTypeWhole, excelize.DataValidationOperatorBetween)
	case DecimalValidation:
		err = dv.SetRange(rule.Min, rule.Max,
			excelize.DataValidationTypeDecimal, excelize.DataValidationOperatorBetween)
	case TextLengthValidation:
		err = dv.SetRange(clampInt(rule.Min), clampInt(rule.Max),
			excelize.DataValidationTypeTextLength, excelize.DataValidationOperatorBetween)
	}
	if err != nil {
		return nil, err
	}
	if rule.InputMessage != "" {
		dv.SetInput(rule.InputTitle, rule.InputMessage)
	}
	if rule.ErrorMessage != "" {
		dv.SetError(excelize.DataValidationErrorStyleStop, rule.ErrorTitle, rule.ErrorMessage)
	}
	return dv, nil
}

func clampInt(v float64) int {
	return int(max(min(v, math.MaxInt32), math.MinInt32))
}
