package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/ironsheep/chart-ohlc/internal/config"
	"github.com/ironsheep/chart-ohlc/internal/pipeline"
	"github.com/spf13/cobra"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var (
	cfgFile   string
	debugMode bool
)

var rootCmd = &cobra.Command{
	Use:   "chart-ohlc",
	Short: "Recover OHLC data from candlestick chart screenshots",
	Long: `chart-ohlc reads screenshots of candlestick charts and reconstructs the
open/high/low/close series they show.

It provides:
  - Single image and directory batch recognition
  - JSON, CSV, TradingView and SQLite output
  - An MCP server exposing the recognizer and its stages over stdio

Text recognition uses Tesseract when the binary is built with cgo. Without
it, candles are still detected and mapped onto a synthetic price scale with
reduced confidence.

Environment variables:
  CHART_OHLC_LOG_LEVEL=debug    Enable debug logging`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// stdout carries results and the MCP protocol
		log.SetOutput(os.Stderr)
		log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
		if verbose() {
			log.Printf("[DEBUG] chart-ohlc %s (built %s, commit %s)", Version, BuildTime, GitCommit)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML or JSON; defaults are used when omitted)")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "enable debug logging and write intermediate images")
}

func verbose() bool {
	return debugMode || os.Getenv("CHART_OHLC_LOG_LEVEL") == "debug"
}

// loadConfig returns the --config file or the defaults, with --debug applied.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if cfgFile != "" {
		var err error
		if cfg, err = config.LoadFromFile(cfgFile); err != nil {
			return nil, err
		}
	}
	if debugMode {
		cfg.Debug.Enabled = true
	}
	return cfg, nil
}

// newRecognizer builds the recognizer described by cfg.
func newRecognizer(cfg *config.Config) (*pipeline.Recognizer, error) {
	opts, err := cfg.PipelineOptions(verbose())
	if err != nil {
		return nil, err
	}
	capability := cfg.OCRCapability()
	if !capability.IsAvailable() {
		log.Printf("[WARN] text recognition unavailable (%s); prices will use the fallback scale", capability.Reason())
	}
	rec, err := pipeline.New(capability, opts)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return rec, nil
}
