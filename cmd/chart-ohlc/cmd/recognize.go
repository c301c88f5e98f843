package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/ironsheep/chart-ohlc/internal/export"
	"github.com/ironsheep/chart-ohlc/internal/imaging"
	"github.com/ironsheep/chart-ohlc/internal/ohlc"
	"github.com/ironsheep/chart-ohlc/internal/pipeline"
	"github.com/spf13/cobra"
)

var recognizeCmd = &cobra.Command{
	Use:   "recognize <image|->",
	Short: "Recognize a single chart screenshot",
	Long: `Recognize one screenshot and print the result as JSON.

With -o the result is also written in the configured output formats, and
--plot adds a PNG preview of the recovered series. Use "-" to read the
image from stdin; OCR sidecars are not consulted in that case.

Examples:
  chart-ohlc recognize screenshots/aapl.png -o out --plot
  xclip -o -selection clipboard -t image/png | chart-ohlc recognize -`,
	Args: cobra.ExactArgs(1),
	RunE: runRecognize,
}

var (
	recOutputDir string
	recPlot      bool
)

func init() {
	rootCmd.AddCommand(recognizeCmd)

	recognizeCmd.Flags().StringVarP(&recOutputDir, "output", "o", "", "also write the result into this directory")
	recognizeCmd.Flags().BoolVar(&recPlot, "plot", false, "write a PNG preview (requires -o)")
}

func runRecognize(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	rec, err := newRecognizer(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if timeout := cfg.BatchOptions().Timeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	source := args[0]
	var res ohlc.Result
	if source == "-" {
		source = stdinName
		res = recognizeReader(ctx, rec, cmd.InOrStdin())
	} else {
		res = rec.RecognizeFile(ctx, source)
	}
	if err := export.WriteJSON(cmd.OutOrStdout(), []ohlc.Result{res}); err != nil {
		return err
	}

	if recOutputDir != "" {
		opts := cfg.ExportOptions(source)
		opts.Plot = opts.Plot || recPlot
		if _, err := export.WriteAll(ctx, recOutputDir, []ohlc.Result{res}, opts); err != nil {
			return err
		}
	}

	if !res.OK() {
		return fmt.Errorf("recognition failed: %s", res.Error)
	}
	return nil
}

// stdinName is the image name given to a frame read from stdin.
const stdinName = "stdin.png"

func recognizeReader(ctx context.Context, rec *pipeline.Recognizer, r io.Reader) ohlc.Result {
	img, err := imaging.Decode(r)
	if err != nil {
		return ohlc.Failed(stdinName, err)
	}
	return rec.RecognizeImage(ctx, stdinName, img)
}
