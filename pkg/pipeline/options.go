package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/beetlebugorg/shpdump/internal/render"
)

// Mode selects which stages run.
type Mode int

const (
	// ModeDump exports, summarizes, persists, archives and renders a vector
	// dataset.
	ModeDump Mode = iota
	// ModeMerge is ModeDump with a join against a second CSV before the
	// vector dataset is rebuilt and persisted.
	ModeMerge
	// ModeConvert reads a CSV with a WKT column and only persists and
	// archives it.
	ModeConvert
)

func (m Mode) String() string {
	switch m {
	case ModeDump:
		return "dump"
	case ModeMerge:
		return "merge"
	case ModeConvert:
		return "convert"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Options configures a pipeline run.
type Options struct {
	Mode Mode

	// Input is the vector dataset (.shp, directory or .zip), or the CSV in
	// ModeConvert.
	Input string

	// OutputDir must exist. Every output is created inside it.
	OutputDir string

	// Prefix starts every output file name.
	Prefix string

	// RemoveIfEmpty names the fields whose empty value excludes a feature.
	RemoveIfEmpty []string

	// OutputMapping, when set, receives a join mapping template built from
	// the export header. Multi-type datasets get one file per type.
	OutputMapping string

	// Resolution is the width of the rendered image in pixels.
	Resolution int

	// ImageFormat is one of png, jpeg, gif, tiff or bmp.
	ImageFormat string

	// SampleSize bounds the sample values listed per summary column.
	SampleSize int

	// OtherInput and MappingFile drive the join in ModeMerge.
	OtherInput  string
	MappingFile string
	InputPrefix string
	OtherPrefix string

	// WKTField names the geometry column in ModeConvert.
	WKTField string

	// Parallel processes feature-types concurrently on Workers goroutines.
	// If Workers is 0, it defaults to runtime.NumCPU().
	Parallel bool
	Workers  int

	// Progress receives per-feature callbacks. Nil disables progress output.
	Progress Progress

	// Logger defaults to a discarding logger.
	Logger *slog.Logger
}

// DefaultOptions returns options with the defaults of the command line tools.
func DefaultOptions() Options {
	return Options{
		Mode:        ModeDump,
		Prefix:      "shp-debug",
		Resolution:  2048,
		ImageFormat: "png",
		SampleSize:  50,
		WKTField:    "the_geom",
		Workers:     runtime.NumCPU(),
	}
}

// Validate checks that the options are complete and consistent. It does not
// touch the file system; see Run for input checks.
func (o Options) Validate() error {
	var errs []error
	if o.Input == "" {
		errs = append(errs, errors.New("input is required"))
	}
	if o.OutputDir == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if o.Prefix == "" {
		errs = append(errs, errors.New("prefix is required"))
	}
	if o.Mode == ModeMerge {
		if o.OtherInput == "" {
			errs = append(errs, errors.New("other input is required in merge mode"))
		}
		if o.MappingFile == "" {
			errs = append(errs, errors.New("mapping file is required in merge mode"))
		}
	}
	if o.Mode != ModeConvert {
		if o.Resolution <= 0 || o.Resolution > render.MaxDimension {
			errs = append(errs, fmt.Errorf("resolution must be between 1 and %d, got %d", render.MaxDimension, o.Resolution))
		}
		if _, err := render.ParseFormat(o.ImageFormat); err != nil {
			errs = append(errs, err)
		}
	}
	if o.SampleSize < 0 {
		errs = append(errs, fmt.Errorf("sample size must not be negative, got %d", o.SampleSize))
	}
	if o.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", o.Workers))
	}
	switch o.Mode {
	case ModeDump, ModeMerge, ModeConvert:
	default:
		errs = append(errs, fmt.Errorf("unknown mode %v", o.Mode))
	}
	return errors.Join(errs...)
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.Logger
}

func (o Options) workers() int {
	if o.Workers <= 0 {
		return runtime.NumCPU()
	}
	return o.Workers
}
