// Command xlsxturbo converts CSV files to XLSX workbooks.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"

	"github.com/tstone-1/xlsxturbo"
)

const version = "0.9.0"

var CLI struct {
	Verbose  bool   `short:"v" help:"Log sheet and directive details (same as --log-level=debug)"`
	LogLevel string `name:"log-level" default:"warn" enum:"debug,info,warn,error" help:"Log level"`

	CSV     CSVCmd     `cmd:"" name:"csv" help:"Convert a CSV file to XLSX"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// CSVCmd converts one CSV file into a one-sheet workbook.
type CSVCmd struct {
	Input     string `arg:"" help:"Input CSV file" type:"existingfile"`
	Output    string `arg:"" help:"Output XLSX file" type:"path"`
	SheetName string `name:"sheet-name" short:"s" default:"Sheet1" help:"Name of the worksheet"`
	DateOrder string `name:"date-order" short:"d" default:"us" help:"Ambiguous date order: us (MM-DD-YYYY) or eu (DD-MM-YYYY)"`
	Parallel  bool   `short:"p" help:"Infer cell types on all CPUs"`
	Workers   int    `help:"Worker count for --parallel (default: number of CPUs)"`
	Delimiter string `default:"," help:"Field delimiter"`
	Encoding  string `default:"utf-8" help:"Input encoding, e.g. utf-8, windows-1252, iso-8859-1"`
	Options   string `short:"o" help:"YAML file with sheet options" type:"existingfile"`
}

func (c *CSVCmd) Run(ctx context.Context) error {
	order, err := xlsxturbo.ParseDateOrder(c.DateOrder)
	if err != nil {
		return err
	}
	delim := []rune(c.Delimiter)
	if len(delim) != 1 {
		return fmt.Errorf("delimiter must be a single character, got %q", c.Delimiter)
	}
	var sheet *xlsxturbo.Options
	if c.Options != "" {
		if sheet, err = xlsxturbo.LoadOptionsFile(c.Options); err != nil {
			return err
		}
	}
	rows, cols, err := xlsxturbo.ConvertCSV(ctx, c.Input, c.Output, xlsxturbo.CSVOptions{
		SheetName: c.SheetName,
		DateOrder: order,
		Parallel:  c.Parallel,
		Workers:   c.Workers,
		Delimiter: delim[0],
		Encoding:  c.Encoding,
		Sheet:     sheet,
	})
	if err != nil {
		return err
	}
	fmt.Printf("OK %d %d\n", rows, cols)
	return nil
}

type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("xlsxturbo version %s\n", version)
	return nil
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name("xlsxturbo"),
		kong.Description("High-throughput CSV to XLSX conversion"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	level := xlsxturbo.ParseLevel(CLI.LogLevel)
	if CLI.Verbose {
		level = slog.LevelDebug
	}
	xlsxturbo.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	kctx.BindTo(ctx, (*context.Context)(nil))
	err := kctx.Run()
	kctx.FatalIfErrorf(err)
}
