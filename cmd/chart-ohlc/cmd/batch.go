package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/ironsheep/chart-ohlc/internal/export"
	"github.com/ironsheep/chart-ohlc/internal/ohlc"
	"github.com/ironsheep/chart-ohlc/internal/pipeline"
	"github.com/spf13/cobra"
)

var batchCmd = &cobra.Command{
	Use:   "batch <dir>",
	Short: "Recognize every screenshot in a directory",
	Long: `Recognize all supported images directly inside a directory using a
worker pool, then write the results in the requested formats.

Formats: json, csv, tradingview, sqlite

Example:
  chart-ohlc batch screenshots/ -o out -f json,csv,sqlite`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

var (
	batchOutputDir string
	batchFormats   string
	batchWorkers   int
)

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringVarP(&batchOutputDir, "output", "o", "", "output directory (default from config)")
	batchCmd.Flags().StringVarP(&batchFormats, "formats", "f", "", "comma separated output formats (default from config)")
	batchCmd.Flags().IntVarP(&batchWorkers, "workers", "w", 0, "number of images processed at once (default from config)")
}

func parseFormats(s string) ([]string, error) {
	var formats []string
	for _, f := range strings.Split(s, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" {
			continue
		}
		if !export.IsFormat(f) {
			return nil, fmt.Errorf("unknown format %q (want one of %s)", f, strings.Join(export.Formats, ", "))
		}
		formats = append(formats, f)
	}
	return formats, nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	dir := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if batchFormats != "" {
		if cfg.Output.Formats, err = parseFormats(batchFormats); err != nil {
			return err
		}
	}
	if batchOutputDir != "" {
		cfg.Output.Dir = batchOutputDir
	}

	rec, err := newRecognizer(cfg)
	if err != nil {
		return err
	}
	opts := cfg.BatchOptions()
	if batchWorkers > 0 {
		opts.MaxWorkers = batchWorkers
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results, err := pipeline.NewBatch(rec, opts).RunDir(ctx, dir)
	if err != nil {
		return err
	}

	written, err := export.WriteAll(ctx, cfg.Output.Dir, results, cfg.ExportOptions(dir))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	s := ohlc.Summarize(results)
	fmt.Fprintf(out, "Processed %d images: %d succeeded, %d failed\n", s.Total, s.Succeeded, s.Failed)
	fmt.Fprintf(out, "  Quality: %d high, %d medium, %d low (mean confidence %.2f)\n", s.High, s.Medium, s.Low, s.MeanConf)
	fmt.Fprintf(out, "  Records: %d\n", s.DataPoints)
	for _, p := range written {
		fmt.Fprintf(out, "  Wrote %s\n", p)
	}
	return nil
}
