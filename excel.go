package xlsxturbo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const maxSheetNameChars = 31

// SheetInput is one sheet of a workbook. Options is layered over the global
// options of the call, replacing whole keys.
type SheetInput struct {
	Table   Table
	Name    string
	Options *Options
}

// CSVOptions configures ConvertCSV.
type CSVOptions struct {
	// SheetName defaults to "Sheet1".
	SheetName string
	DateOrder DateOrder
	Parallel  bool
	Workers   int
	ChunkSize int
	Delimiter rune
	Encoding  string
	// Sheet holds the sheet options, if any.
	Sheet *Options
}

type sheetSource struct {
	name string
	src  RowSource
	opts *Options
}

var sheetNameReplacer = strings.NewReplacer("[", "_", "]", "_", ":", "_", "*", "_", "?", "_", "/", "_", `\`, "_")

// SanitizeSheetName replaces the characters a sheet name cannot hold with
// '_' and cuts it to 31 characters. An empty name becomes "Sheet".
func SanitizeSheetName(name string) string {
	s := truncateRunes(sheetNameReplacer.Replace(name), maxSheetNameChars)
	if strings.HasPrefix(s, "'") {
		s = "_" + s[1:]
	}
	if strings.HasSuffix(s, "'") {
		s = s[:len(s)-1] + "_"
	}
	if s == "" {
		s = "Sheet"
	}
	return s
}

// WriteTables writes every table to its own sheet of the workbook at path.
// rows and cols describe the last sheet: its row count, header included, and
// its column count. The file is replaced only on success.
func WriteTables(ctx context.Context, path string, sheets []SheetInput, global *Options) (rows, cols int, err error) {
	err = writeFile(path, func(w io.Writer) error {
		rows, cols, err = WriteTablesTo(ctx, w, sheets, global)
		return err
	})
	return rows, cols, err
}

// WriteTablesTo is WriteTables for an arbitrary writer.
func WriteTablesTo(ctx context.Context, w io.Writer, sheets []SheetInput, global *Options) (rows, cols int, err error) {
	if len(sheets) == 0 {
		return 0, 0, configErr("sheets", "", "at least one sheet is required")
	}
	sources := make([]sheetSource, len(sheets))
	for i, s := range sheets {
		if s.Table == nil {
			return 0, 0, configErr(fmt.Sprintf("sheets[%d]", i), s.Name, "missing table")
		}
		sources[i] = sheetSource{name: s.Name, src: tableSource{table: s.Table}, opts: Merge(global, s.Options)}
	}
	return writeWorkbook(ctx, w, sources)
}

// WriteTable writes a single table to the workbook at path.
func WriteTable(ctx context.Context, path string, t Table, sheet string, opts *Options) (rows, cols int, err error) {
	if sheet == "" {
		sheet = defaultSheet
	}
	return WriteTables(ctx, path, []SheetInput{{Table: t, Name: sheet}}, opts)
}

// ConvertCSV converts the delimited text file in into a one-sheet workbook
// at out. The first record is the header; every other field is typed.
func ConvertCSV(ctx context.Context, in, out string, opts CSVOptions) (rows, cols int, err error) {
	file, err := os.Open(in)
	if err != nil {
		return 0, 0, &ResourceError{Path: in, Err: err}
	}
	defer file.Close()

	src, err := newCSVSource(file, IngestOptions{
		DateOrder: opts.DateOrder,
		Parallel:  opts.Parallel,
		Workers:   opts.Workers,
		ChunkSize: opts.ChunkSize,
		Delimiter: opts.Delimiter,
		Encoding:  opts.Encoding,
	})
	if err != nil {
		return 0, 0, fmt.Errorf("%s: %w", in, err)
	}
	name := opts.SheetName
	if name == "" {
		name = defaultSheet
	}
	err = writeFile(out, func(w io.Writer) error {
		rows, cols, err = writeWorkbook(ctx, w, []sheetSource{{name: name, src: src, opts: opts.Sheet}})
		return err
	})
	if err != nil {
		var de *DataError
		if errors.As(err, &de) {
			return 0, 0, fmt.Errorf("%s: %w", in, err)
		}
		return 0, 0, err
	}
	return rows, cols, nil
}

// writeWorkbook resolves every sheet before any row is read, so a bad
// option anywhere fails the call before work is done.
func writeWorkbook(ctx context.Context, w io.Writer, sources []sheetSource) (rows, cols int, err error) {
	names := newNameSet()
	tables := newNameSet()
	plans := make([]*sheetPlan, len(sources))
	for i, s := range sources {
		name := names.claim(SanitizeSheetName(s.name), maxSheetNameChars)
		plan, err := resolveSheet(name, s.src.Columns(), s.opts, tables)
		if err != nil {
			return 0, 0, fmt.Errorf("sheet '%s': %w", name, err)
		}
		plans[i] = plan
	}

	e := NewEmitter()
	defer e.Close()
	for i, plan := range plans {
		m, err := buildSheet(ctx, plan, sources[i].src)
		if err != nil {
			return 0, 0, fmt.Errorf("sheet '%s': %w", plan.name, err)
		}
		if err := e.Emit(ctx, m); err != nil {
			return 0, 0, fmt.Errorf("sheet '%s': %w", plan.name, err)
		}
		rows, cols = m.RowCount(), len(m.Columns)
		logger().Debug("sheet written",
			slog.String("sheet", m.Name),
			slog.String("mode", m.Mode.String()),
			slog.Int("rows", m.RowCount()),
			slog.Int("columns", len(m.Columns)))
	}
	if _, err := e.WriteTo(w); err != nil {
		return 0, 0, err
	}
	return rows, cols, nil
}

// writeFile writes through a temporary file next to path and renames it
// into place once write succeeds.
func writeFile(path string, write func(io.Writer) error) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return &ResourceError{Path: path, Err: err}
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()
	if err = write(tmp); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return &ResourceError{Path: path, Err: err}
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return &ResourceError{Path: path, Err: err}
	}
	return nil
}
