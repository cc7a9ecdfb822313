package xlsxturbo

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cuishu/functools"
	excelize "github.com/xuri/excelize/v2"
)

func (e *Emitter) streamExportTitle(writer *excelize.StreamWriter, m *SheetModel, ids []int) error {
	names := functools.Map(func(spec ColumnSpec) string { return spec.Name }, m.Columns)
	return writer.SetRow("A1", functools.Map(func(v string) any {
		return &excelize.Cell{
			StyleID: ids[m.HeaderStyle],
			Value:   v,
		}
	}, names))
}

func (e *Emitter) streamExportRow(writer *excelize.StreamWriter, m *SheetModel, ids []int, row Row, col column) error {
	rowData := make([]any, len(row))
	for j, v := range row {
		c, err := excelizeCell(v, m.Columns[j], ids)
		if err != nil {
			return err
		}
		rowData[j] = c
	}
	return writer.SetRow(col(), rowData)
}

// emitStream writes widths first, then every row as it arrives. The writer
// never holds more than the current row.
func (e *Emitter) emitStream(ctx context.Context, m *SheetModel, ids []int) error {
	writer, err := e.f.NewStreamWriter(m.Name)
	if err != nil {
		return err
	}
	for i, w := range m.Widths {
		if w <= 0 {
			continue
		}
		if err := writer.SetColWidth(i+1, i+1, w); err != nil {
			return err
		}
	}

	rowNum := 0
	if m.Header {
		rowNum++
		if err := e.streamExportTitle(writer, m, ids); err != nil {
			return err
		}
	}
	if err := m.Source.Each(ctx, func(r Row) error {
		rowNum++
		if rowNum > maxRows {
			return fmt.Errorf("sheet '%s' exceeds %d rows", m.Name, maxRows)
		}
		if err := e.streamExportRow(writer, m, ids, r, cellGenerator(rowNum)); err != nil {
			return fmt.Errorf("row %d: %w", rowNum, err)
		}
		return nil
	}); err != nil {
		return err
	}
	m.rowCount = rowNum
	logger().Debug("sheet streamed",
		slog.String("sheet", m.Name),
		slog.Int("rows", rowNum),
		slog.Int("columns", len(m.Columns)))
	return writer.Flush()
}
