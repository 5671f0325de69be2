// Package cli holds the flag plumbing shared by the command line tools.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"

	flag "github.com/spf13/pflag"

	"github.com/beetlebugorg/shpdump/internal/logger"
	"github.com/beetlebugorg/shpdump/pkg/pipeline"
)

// UsageError reports bad command line arguments.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string { return e.Err.Error() }

func (e *UsageError) Unwrap() error { return e.Err }

// Common are the flags every tool accepts.
type Common struct {
	Verbose       bool
	Parallel      bool
	Workers       int
	SampleSize    int
	RemoveIfEmpty []string
}

// NewFlagSet returns a flag set that reports errors instead of exiting.
func NewFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.SortFlags = false
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage of %s:\n%s", name, fs.FlagUsages())
	}
	return fs
}

// AddCommon registers the shared flags on fs.
func AddCommon(fs *flag.FlagSet, c *Common) {
	defaults := pipeline.DefaultOptions()
	fs.StringArrayVar(&c.RemoveIfEmpty, "remove-if-empty", nil, "remove features whose value for this field is empty (repeatable)")
	fs.BoolVar(&c.Verbose, "verbose", false, "enable verbose (debug) logging (or set SHPDUMP_VERBOSE=true env var)")
	fs.BoolVar(&c.Parallel, "parallel", false, "process feature types concurrently")
	fs.IntVar(&c.Workers, "workers", defaults.Workers, "number of concurrent feature types with --parallel (or set SHPDUMP_WORKERS env var)")
	fs.IntVar(&c.SampleSize, "sample-size", defaults.SampleSize, "number of sample values listed per summary column")
}

// Parse parses args and applies environment overrides for flags that were
// not given explicitly. Parse failures are returned as UsageError; --help
// returns flag.ErrHelp.
func Parse(fs *flag.FlagSet, c *Common, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return usage(fs, err)
	}
	if fs.NArg() > 0 {
		return usage(fs, fmt.Errorf("unexpected arguments: %v", fs.Args()))
	}

	if env := os.Getenv("SHPDUMP_VERBOSE"); env != "" && !fs.Changed("verbose") {
		v, err := strconv.ParseBool(env)
		if err != nil {
			return usage(fs, fmt.Errorf("SHPDUMP_VERBOSE: %w", err))
		}
		c.Verbose = v
	}
	if env := os.Getenv("SHPDUMP_WORKERS"); env != "" && !fs.Changed("workers") {
		n, err := strconv.Atoi(env)
		if err != nil {
			return usage(fs, fmt.Errorf("SHPDUMP_WORKERS: %w", err))
		}
		c.Workers = n
	}
	return nil
}

// Require fails with a UsageError naming the first required flag left empty.
func Require(fs *flag.FlagSet, names ...string) error {
	for _, name := range names {
		f := fs.Lookup(name)
		if f == nil || f.Value.String() == "" {
			return usage(fs, fmt.Errorf("--%s is required", name))
		}
	}
	return nil
}

func usage(fs *flag.FlagSet, err error) error {
	fmt.Fprintf(fs.Output(), "%v\n", err)
	fs.Usage()
	return &UsageError{Err: err}
}

// Apply copies the shared flags into opts and builds the logger.
func (c *Common) Apply(opts *pipeline.Options, stderr io.Writer) *slog.Logger {
	log := logger.New(stderr, c.Verbose)
	opts.Parallel = c.Parallel
	opts.Workers = c.Workers
	opts.SampleSize = c.SampleSize
	opts.RemoveIfEmpty = c.RemoveIfEmpty
	opts.Logger = log
	return log
}

// EchoFilters prints the filter fields before processing starts.
func EchoFilters(w io.Writer, fields []string) {
	for _, f := range fields {
		fmt.Fprintf(w, "Will filter field if empty value found: %s\n", f)
	}
	if len(fields) > 0 {
		fmt.Fprintf(w, "Full set of filter fields: %v\n", fields)
	}
}

// Exit prints err and returns the process exit code: 0 for --help, 2 for
// usage errors and 1 otherwise.
func Exit(err error, stderr io.Writer) int {
	var ue *UsageError
	switch {
	case err == nil, errors.Is(err, flag.ErrHelp):
		return 0
	case errors.As(err, &ue):
		return 2
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
}

// Run applies the shared flags to opts and runs the pipeline until it
// finishes or the process is interrupted.
func Run(opts pipeline.Options, c *Common, stdout, stderr io.Writer) error {
	log := c.Apply(&opts, stderr)

	EchoFilters(stdout, opts.RemoveIfEmpty)
	opts.Progress = pipeline.NewConsoleProgress(stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	report, err := pipeline.Run(ctx, opts)
	if err != nil {
		return err
	}
	for _, t := range report.Types {
		log.Info("completed", "type", t.TypeName, "features", t.Features, "kept", t.Kept, "files", len(t.Files))
	}
	fmt.Fprintln(stdout, "Done")
	return nil
}
