package xlsxturbo

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	excelize "github.com/xuri/excelize/v2"
)

const defaultSheet = "Sheet1"

// RowSource yields typed rows in order. Each may be called once.
type RowSource interface {
	Columns() []string
	Each(ctx context.Context, fn func(Row) error) error
}

type tableSource struct {
	table Table
}

func (s tableSource) Columns() []string {
	return s.table.Columns()
}

func (s tableSource) Each(ctx context.Context, fn func(Row) error) error {
	columns := s.table.Columns()
	n := s.table.Len()
	for i := 0; i < n; i++ {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		row := make(Row, len(columns))
		for j := range columns {
			x, err := s.table.Value(i, j)
			if err != nil {
				return fmt.Errorf("row %d => %s: %w", i+1, columns[j], err)
			}
			if row[j], err = toCellValue(x); err != nil {
				return fmt.Errorf("row %d => %s: %w", i+1, columns[j], err)
			}
		}
		if err := fn(row); err != nil {
			return err
		}
	}
	return nil
}

// SheetModel is a fully described sheet ready to emit. Buffered sheets hold
// their rows; streaming sheets pull them from Source while emitting.
type SheetModel struct {
	Name        string
	Mode        WriteMode
	Header      bool
	HeaderStyle int
	Columns     []ColumnSpec
	Styles      *StylePlan
	Directives  []Directive
	Rows        []Row
	Source      RowSource
	// Widths holds the effective width per column, 0 for the default.
	Widths []float64

	rowCount int
}

// RowCount is the number of written rows, header included. Streaming sheets
// know it only after they are emitted.
func (m *SheetModel) RowCount() int {
	return m.rowCount
}

func (m *SheetModel) headerRows() int {
	if m.Header {
		return 1
	}
	return 0
}

// buildSheet gates the plan's directives for its write mode and assembles
// the sheet. Buffered sheets are read completely here.
func buildSheet(ctx context.Context, plan *sheetPlan, src RowSource) (*SheetModel, error) {
	m := &SheetModel{
		Name:        plan.name,
		Mode:        plan.mode,
		Header:      plan.header && len(plan.columns) > 0,
		HeaderStyle: plan.headerStyle,
		Styles:      plan.styles,
		Directives:  gateDirectives(plan.name, plan.mode, plan.directives),
		Columns:     plan.columns[:plan.dataCols:plan.dataCols],
	}
	for _, d := range m.Directives {
		if fc, ok := d.(FormulaColumnDirective); ok {
			for _, spec := range plan.columns[plan.dataCols:] {
				if spec.Name == fc.Name {
					m.Columns = append(m.Columns, spec)
				}
			}
		}
	}
	m.Widths = make([]float64, len(m.Columns))
	for i, spec := range m.Columns {
		if spec.Width.Kind == WidthExplicit {
			m.Widths[i] = spec.Width.Value
		}
	}

	if m.Mode == Streaming {
		m.Source = src
		return m, nil
	}

	formulas := m.Columns[plan.dataCols:]
	if err := src.Each(ctx, func(r Row) error {
		if m.headerRows()+len(m.Rows) >= maxRows {
			return fmt.Errorf("sheet '%s' exceeds %d rows", m.Name, maxRows)
		}
		rowNum := strconv.Itoa(m.headerRows() + len(m.Rows) + 1)
		for _, spec := range formulas {
			r = append(r, Formula(strings.ReplaceAll(spec.Formula, "{row}", rowNum)))
		}
		m.Rows = append(m.Rows, r)
		return nil
	}); err != nil {
		return nil, err
	}
	m.rowCount = m.headerRows() + len(m.Rows)

	m.autofit()
	if err := m.finalizeDirectives(plan.dataCols); err != nil {
		return nil, err
	}
	logger().Debug("sheet built",
		slog.String("sheet", m.Name),
		slog.Int("rows", m.rowCount),
		slog.Int("columns", len(m.Columns)),
		slog.Int("styles", m.Styles.Len()),
		slog.Int("directives", len(m.Directives)))
	return m, nil
}

// autofit sizes autofit columns from the longest rendered text, header
// included, then applies the column's cap.
func (m *SheetModel) autofit() {
	for i, spec := range m.Columns {
		if spec.Width.Kind != WidthAutofit && spec.Width.Kind != WidthAutofitCapped {
			continue
		}
		longest := 0
		if m.Header {
			longest = utf8.RuneCountInString(spec.Name)
		}
		for _, r := range m.Rows {
			longest = max(longest, utf8.RuneCountInString(r[i].displayText()))
		}
		w := min(float64(longest)*1.1+2, autofitCeiling)
		if spec.Width.Kind == WidthAutofitCapped {
			w = min(w, spec.Width.Value)
		}
		m.Widths[i] = w
	}
}

// finalizeDirectives sets the row ranges that depend on the row count and
// loads pictures. Range directives need at least one data row.
func (m *SheetModel) finalizeDirectives(dataCols int) error {
	first := m.headerRows()
	last := m.rowCount - 1
	kept := m.Directives[:0]
	for _, d := range m.Directives {
		switch v := d.(type) {
		case TableDirective:
			if len(m.Rows) == 0 {
				continue
			}
			v.Range = CellRange{First: CellRef{Row: 0, Col: 0}, Last: CellRef{Row: last, Col: dataCols - 1}}
			d = v
		case ConditionalFormatDirective:
			if len(m.Rows) == 0 {
				continue
			}
			v.Range = CellRange{First: CellRef{Row: first, Col: v.Col}, Last: CellRef{Row: last, Col: v.Col}}
			d = v
		case ValidationDirective:
			if len(m.Rows) == 0 {
				continue
			}
			v.Range = CellRange{First: CellRef{Row: first, Col: v.Col}, Last: CellRef{Row: last, Col: v.Col}}
			d = v
		case ImageDirective:
			pic, err := v.Picture.load()
			if err != nil {
				return err
			}
			v.data = pic
			d = v
		}
		kept = append(kept, d)
	}
	m.Directives = kept
	return nil
}

type column func() string

func cellGenerator(line int) column {
	i := 0
	return func() string {
		i++
		return cell(line, i)
	}
}

// styleIDs registers a sheet's style plan with the file. The result maps
// plan ids to file style ids; index 0 is the default style.
func styleIDs(f *excelize.File, plan *StylePlan) ([]int, error) {
	ids := make([]int, plan.Len()+1)
	for id := 1; id <= plan.Len(); id++ {
		sid, err := f.NewStyle(plan.Record(id).toExcelize())
		if err != nil {
			return nil, err
		}
		ids[id] = sid
	}
	return ids, nil
}

// excelizeCell converts a typed cell for the package writer. Dates become
// serial numbers carrying the column's date style.
func excelizeCell(v CellValue, spec ColumnSpec, ids []int) (excelize.Cell, error) {
	c := excelize.Cell{StyleID: ids[spec.Style]}
	switch v.Kind {
	case KindEmpty:
		return excelize.Cell{}, nil
	case KindInteger:
		if v.Int > maxSafeInt || v.Int < -maxSafeInt {
			c.Value = strconv.FormatInt(v.Int, 10)
		} else {
			c.Value = v.Int
		}
	case KindFloat:
		c.Value = v.Float
	case KindBoolean:
		c.Value = v.Bool
	case KindDate:
		c.StyleID = ids[spec.DateStyle]
		c.Value = excelSerial(v.Time)
	case KindDateTime:
		c.StyleID = ids[spec.DateTimeStyle]
		c.Value = excelSerial(v.Time)
	case KindString:
		c.Value = v.Str
	case KindFormula:
		c.Formula = strings.TrimPrefix(v.Str, "=")
	case KindRichText:
		runs := make([]excelize.RichTextRun, 0, len(v.Runs))
		for _, r := range v.Runs {
			font, err := runFont("rich_text", r.Format)
			if err != nil {
				return c, err
			}
			runs = append(runs, excelize.RichTextRun{Text: r.Text, Font: font})
		}
		c.Value = runs
	}
	return c, nil
}
