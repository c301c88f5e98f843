package export

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/ironsheep/chart-ohlc/internal/ohlc"
)

// Output format names.
const (
	FormatJSON        = "json"
	FormatCSV         = "csv"
	FormatTradingView = "tradingview"
	FormatSQLite      = "sqlite"
)

// Formats lists every supported format.
var Formats = []string{FormatJSON, FormatCSV, FormatTradingView, FormatSQLite}

// SQLiteFile is the database name WriteAll uses inside the output directory.
const SQLiteFile = "results.db"

// IsFormat reports whether f names a supported format.
func IsFormat(f string) bool {
	for _, k := range Formats {
		if f == k {
			return true
		}
	}
	return false
}

// Options controls WriteAll.
type Options struct {
	Formats []string

	// DateFormat parses record dates for the TradingView export.
	DateFormat string

	// Source is stored with the SQLite run, normally the input directory.
	Source string

	// Plot writes "<stem>_chart.png" for every image with two or more records.
	Plot bool
}

// WriteAll writes results into dir in every requested format and returns the
// paths written. Failing to create dir is an error; a failing format is
// logged and the remaining formats are still written, with the first
// failure returned.
func WriteAll(ctx context.Context, dir string, results []ohlc.Result, opts Options) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	var (
		written  []string
		firstErr error
	)
	record := func(path string, err error) {
		if err != nil {
			log.Printf("[ERROR] export %s: %v", filepath.Base(path), err)
			if firstErr == nil {
				firstErr = err
			}
			return
		}
		written = append(written, path)
	}

	for _, f := range opts.Formats {
		switch f {
		case FormatJSON:
			path := filepath.Join(dir, "results.json")
			record(path, writeFile(path, func(f *os.File) error { return WriteJSON(f, results) }))
		case FormatCSV:
			path := filepath.Join(dir, "results.csv")
			record(path, writeFile(path, func(f *os.File) error { return WriteCSV(f, results) }))
		case FormatTradingView:
			for _, r := range results {
				if len(r.DataPoints) == 0 {
					continue
				}
				path := filepath.Join(dir, stem(r.ImageName)+"_tradingview.csv")
				record(path, writeFile(path, func(f *os.File) error {
					_, err := WriteTradingView(f, r.DataPoints, opts.DateFormat)
					return err
				}))
			}
		case FormatSQLite:
			path := filepath.Join(dir, SQLiteFile)
			record(path, saveSQLite(ctx, path, opts.Source, results))
		default:
			record(f, fmt.Errorf("unknown output format %q", f))
		}
	}

	if opts.Plot {
		for _, r := range results {
			if len(r.DataPoints) < 2 {
				continue
			}
			path := filepath.Join(dir, stem(r.ImageName)+"_chart.png")
			record(path, writeFile(path, func(f *os.File) error { return PlotPNG(f, r) }))
		}
	}

	return written, firstErr
}

func saveSQLite(ctx context.Context, path, source string, results []ohlc.Result) error {
	store, err := NewSQLiteStore(path)
	if err != nil {
		return err
	}
	defer store.Close()

	id, err := store.SaveRun(ctx, source, results)
	if err != nil {
		return err
	}
	log.Printf("[INFO] stored run %s in %s", id, path)
	return nil
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func stem(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
