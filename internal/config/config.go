// Package config loads chart-ohlc settings from YAML or JSON files.
//
// Every section has a default, so a config file only needs to name the
// values it changes. Stage options are the stage packages' own Options
// types; this package adds the OCR engine, batch, output and debug sections
// and turns the whole thing into pipeline options.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ironsheep/chart-ohlc/internal/axis"
	"github.com/ironsheep/chart-ohlc/internal/detection"
	"github.com/ironsheep/chart-ohlc/internal/export"
	"github.com/ironsheep/chart-ohlc/internal/imaging"
	"github.com/ironsheep/chart-ohlc/internal/mapping"
	"github.com/ironsheep/chart-ohlc/internal/ocr"
	"github.com/ironsheep/chart-ohlc/internal/pipeline"
	"gopkg.in/yaml.v3"
)

// Config is the complete chart-ohlc configuration.
type Config struct {
	OCR        OCRConfig                 `json:"ocr" yaml:"ocr"`
	Preprocess imaging.PreprocessOptions `json:"preprocess" yaml:"preprocess"`
	Detection  detection.Options         `json:"detection" yaml:"detection"`
	Axis       axis.Options              `json:"axis" yaml:"axis"`
	Mapping    mapping.Options           `json:"mapping" yaml:"mapping"`
	Resize     ResizeConfig              `json:"resize" yaml:"resize"`
	Batch      BatchConfig               `json:"batch" yaml:"batch"`
	Output     OutputConfig              `json:"output" yaml:"output"`
	Debug      DebugConfig               `json:"debug" yaml:"debug"`
}

// OCRConfig selects and tunes the text recognition engine.
type OCRConfig struct {
	Enabled       bool    `json:"enabled" yaml:"enabled"`
	Language      string  `json:"language" yaml:"language"`
	TessdataDir   string  `json:"tessdata_dir,omitempty" yaml:"tessdata_dir,omitempty"`
	Scale         float64 `json:"scale" yaml:"scale"`
	MinConfidence float64 `json:"min_confidence" yaml:"min_confidence"`

	// Serialize guards the engine with a mutex so batch workers call it one
	// at a time.
	Serialize bool `json:"serialize" yaml:"serialize"`

	// Sidecars replays "<image>.ocr.json" files; RecordSidecars writes them.
	Sidecars       bool `json:"sidecars" yaml:"sidecars"`
	RecordSidecars bool `json:"record_sidecars" yaml:"record_sidecars"`
}

// ResizeConfig bounds the frame size. Zero disables resizing.
type ResizeConfig struct {
	MaxWidth  int `json:"max_width" yaml:"max_width"`
	MaxHeight int `json:"max_height" yaml:"max_height"`
}

// BatchConfig controls directory runs.
type BatchConfig struct {
	MaxWorkers int    `json:"max_workers" yaml:"max_workers"`
	Timeout    string `json:"timeout" yaml:"timeout"` // e.g. "30s", "2m"
}

// ParseTimeout converts Timeout to a duration. Empty means no deadline.
func (b BatchConfig) ParseTimeout() (time.Duration, error) {
	if b.Timeout == "" {
		return 0, nil
	}
	return time.ParseDuration(b.Timeout)
}

// OutputConfig says where and how results are written. Formats are the
// export package's format names.
type OutputConfig struct {
	Dir     string   `json:"dir" yaml:"dir"`
	Formats []string `json:"formats" yaml:"formats"`

	// Plot writes a PNG preview per recognized image.
	Plot bool `json:"plot" yaml:"plot"`
}

// DebugConfig enables intermediate image artifacts.
type DebugConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Dir     string `json:"dir" yaml:"dir"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		OCR: OCRConfig{
			Enabled:       true,
			Language:      "eng",
			Scale:         2,
			MinConfidence: 0.3,
			Serialize:     true,
		},
		Preprocess: imaging.DefaultPreprocessOptions(),
		Detection:  detection.DefaultOptions(),
		Axis:       axis.DefaultOptions(),
		Mapping:    mapping.DefaultOptions(),
		Batch:      BatchConfig{MaxWorkers: 4, Timeout: "30s"},
		Output:     OutputConfig{Dir: "output", Formats: []string{export.FormatJSON, export.FormatCSV}},
		Debug:      DebugConfig{Dir: "debug_output"},
	}
}

// LoadFromFile loads configuration from a file over the defaults. YAML is
// tried first, then JSON.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		cfg = Default()
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile writes the configuration as YAML for .yaml/.yml paths and as
// indented JSON otherwise.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	if c.OCR.Enabled && c.OCR.Language == "" {
		return fmt.Errorf("ocr.language is required when ocr is enabled")
	}
	if c.OCR.Scale < 0 {
		return fmt.Errorf("ocr.scale must be >= 0")
	}
	if c.OCR.MinConfidence < 0 || c.OCR.MinConfidence > 1 {
		return fmt.Errorf("ocr.min_confidence must be between 0 and 1")
	}
	if err := c.Preprocess.Validate(); err != nil {
		return fmt.Errorf("preprocess: %w", err)
	}
	if err := c.Detection.Validate(); err != nil {
		return fmt.Errorf("detection: %w", err)
	}
	if err := c.Axis.Validate(); err != nil {
		return fmt.Errorf("axis: %w", err)
	}
	if err := c.Mapping.Validate(); err != nil {
		return fmt.Errorf("mapping: %w", err)
	}
	if c.Resize.MaxWidth < 0 || c.Resize.MaxHeight < 0 {
		return fmt.Errorf("resize.max_width and resize.max_height must be >= 0")
	}
	if c.Batch.MaxWorkers < 1 {
		return fmt.Errorf("batch.max_workers must be >= 1")
	}
	if d, err := c.Batch.ParseTimeout(); err != nil {
		return fmt.Errorf("batch.timeout: %w", err)
	} else if d < 0 {
		return fmt.Errorf("batch.timeout must not be negative")
	}
	for _, f := range c.Output.Formats {
		if !export.IsFormat(f) {
			return fmt.Errorf("unknown output format %q (want one of %s)", f, strings.Join(export.Formats, ", "))
		}
	}
	return nil
}

// PipelineOptions builds recognizer options. verbose enables [DEBUG] logging
// in every stage. The debug sink is created here when debug output is on.
func (c *Config) PipelineOptions(verbose bool) (pipeline.Options, error) {
	opts := pipeline.Options{
		Preprocess:     c.Preprocess,
		Axis:           c.Axis,
		Detection:      c.Detection,
		Mapping:        c.Mapping,
		MaxWidth:       c.Resize.MaxWidth,
		MaxHeight:      c.Resize.MaxHeight,
		Sidecars:       c.OCR.Sidecars,
		RecordSidecars: c.OCR.RecordSidecars,
		Verbose:        verbose,
	}
	opts.Axis.MinConfidence = c.OCR.MinConfidence

	if c.Debug.Enabled {
		sink, err := imaging.NewDirSink(c.Debug.Dir)
		if err != nil {
			return pipeline.Options{}, err
		}
		opts.Debug = imaging.DebugConfig{Enabled: true, Sink: sink}
	}
	return opts, nil
}

// BatchOptions builds batch options. Call Validate first; an unparsable
// timeout is treated as no deadline.
func (c *Config) BatchOptions() pipeline.BatchOptions {
	timeout, _ := c.Batch.ParseTimeout()
	return pipeline.BatchOptions{MaxWorkers: c.Batch.MaxWorkers, Timeout: timeout}
}

// OCRCapability returns the configured engine, or Unavailable when OCR is
// disabled or the binary was built without Tesseract.
func (c *Config) OCRCapability() ocr.Capability {
	if !c.OCR.Enabled {
		return ocr.Unavailable("disabled by configuration")
	}
	capability := ocr.NewDefault(c.OCR.Language, c.OCR.TessdataDir, c.OCR.Scale)
	if c.OCR.Serialize {
		capability = capability.WithRecognizer(ocr.Serialize)
	}
	return capability
}

// ExportOptions builds export options for a run over source.
func (c *Config) ExportOptions(source string) export.Options {
	return export.Options{
		Formats:    c.Output.Formats,
		DateFormat: c.Mapping.DateFormat,
		Source:     source,
		Plot:       c.Output.Plot,
	}
}
