package xlsxturbo

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"runtime"
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const defaultChunkSize = 1024

// IngestOptions controls how delimited text is read and typed.
type IngestOptions struct {
	DateOrder DateOrder
	// Parallel infers cell types on a worker pool. The rows produced are
	// identical to the sequential path.
	Parallel bool
	// Workers defaults to GOMAXPROCS, ChunkSize to 1024 rows.
	Workers   int
	ChunkSize int
	// Delimiter defaults to ','.
	Delimiter rune
	// Encoding names the input charset ("utf-8", "windows-1252",
	// "iso-8859-1", ...). Empty means UTF-8. A byte order mark is always
	// honored and stripped.
	Encoding string
}

func (o IngestOptions) workers() int {
	if !o.Parallel {
		return 1
	}
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.GOMAXPROCS(0)
}

func (o IngestOptions) chunkSize() int {
	if o.ChunkSize > 0 {
		return o.ChunkSize
	}
	return defaultChunkSize
}

func decoder(name string) (transform.Transformer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return unicode.BOMOverride(unicode.UTF8.NewDecoder()), nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, configErr("encoding", name, "unsupported encoding")
	}
	return unicode.BOMOverride(enc.NewDecoder()), nil
}

type record struct {
	line   int
	fields []string
}

// csvSource is a RowSource over delimited text. The header record is read
// when the source is created; data rows are inferred when Each runs.
type csvSource struct {
	r       *csv.Reader
	opts    IngestOptions
	columns []string
}

func newCSVSource(r io.Reader, opts IngestOptions) (*csvSource, error) {
	if opts.DateOrder != US && opts.DateOrder != EU {
		return nil, configErr("date_order", opts.DateOrder.String(), "expected 'us' (month-day-year) or 'eu' (day-month-year)")
	}
	dec, err := decoder(opts.Encoding)
	if err != nil {
		return nil, err
	}
	cr := csv.NewReader(transform.NewReader(r, dec))
	cr.FieldsPerRecord = -1
	if opts.Delimiter != 0 {
		if opts.Delimiter == '"' || opts.Delimiter == '\r' || opts.Delimiter == '\n' ||
			opts.Delimiter == utf8.RuneError {
			return nil, configErr("delimiter", string(opts.Delimiter), "invalid delimiter")
		}
		cr.Comma = opts.Delimiter
	}
	s := &csvSource{r: cr, opts: opts}
	header, err := cr.Read()
	switch {
	case errors.Is(err, io.EOF):
		return s, nil
	case err != nil:
		return nil, csvErr(err)
	}
	s.columns = header
	return s, nil
}

func (s *csvSource) Columns() []string {
	return s.columns
}

func csvErr(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &DataError{Line: pe.StartLine, Err: pe.Err}
	}
	return err
}

// Each reads batches of workers x chunkSize records, infers them chunk by
// chunk and hands the rows to fn in input order.
func (s *csvSource) Each(ctx context.Context, fn func(Row) error) error {
	if s.columns == nil {
		return nil
	}
	batchSize := s.opts.workers() * s.opts.chunkSize()
	batch := make([]record, 0, batchSize)
	for {
		batch = batch[:0]
		var readErr error
		for len(batch) < batchSize {
			fields, err := s.r.Read()
			if err != nil {
				readErr = err
				break
			}
			line, _ := s.r.FieldPos(0)
			batch = append(batch, record{line: line, fields: fields})
		}
		rows, err := s.inferBatch(ctx, batch)
		if err != nil {
			return err
		}
		for _, row := range rows {
			if err := fn(row); err != nil {
				return err
			}
		}
		switch {
		case readErr == nil:
		case errors.Is(readErr, io.EOF):
			return nil
		default:
			return csvErr(readErr)
		}
	}
}

// inferBatch types one batch. The error returned is the one of the earliest
// failing record: chunks after a failed chunk are skipped, earlier ones always
// run to completion.
func (s *csvSource) inferBatch(ctx context.Context, batch []record) ([]Row, error) {
	if len(batch) == 0 {
		return nil, nil
	}
	size := s.opts.chunkSize()
	nChunks := (len(batch) + size - 1) / size
	rows := make([]Row, len(batch))
	errs := make([]error, nChunks)
	var minFailed atomic.Int64
	minFailed.Store(math.MaxInt64)

	run := func(i int) {
		if int64(i) > minFailed.Load() {
			return
		}
		start := i * size
		end := min(start+size, len(batch))
		if err := s.inferChunk(batch[start:end], rows[start:end]); err != nil {
			errs[i] = err
			for {
				cur := minFailed.Load()
				if int64(i) >= cur || minFailed.CompareAndSwap(cur, int64(i)) {
					break
				}
			}
		}
	}

	if workers := s.opts.workers(); workers > 1 && nChunks > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for i := range nChunks {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				run(i)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i := range nChunks {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			run(i)
		}
	}
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return rows, nil
}

func (s *csvSource) inferChunk(records []record, out []Row) error {
	width := len(s.columns)
	for i, rec := range records {
		if len(rec.fields) != width {
			return &DataError{
				Line:    rec.line,
				Message: fmt.Sprintf("expected %d fields, got %d", width, len(rec.fields)),
			}
		}
		row := make(Row, width)
		for j, field := range rec.fields {
			row[j] = InferValue(field, s.opts.DateOrder)
		}
		out[i] = row
	}
	return nil
}

// IngestCSV reads delimited text with a header record, infers every data
// field and passes the rows to sink in input order. It returns the header.
func IngestCSV(ctx context.Context, r io.Reader, opts IngestOptions, sink func(Row) error) ([]string, error) {
	src, err := newCSVSource(r, opts)
	if err != nil {
		return nil, err
	}
	return src.Columns(), src.Each(ctx, sink)
}
