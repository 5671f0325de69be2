// Package pipeline converts, inspects, filters and merges vector datasets.
//
// For every feature-type of the input, Run validates and normalizes the
// schema, exports the attributes of the kept features to CSV, summarizes the
// export, optionally joins it against a second CSV, writes the result as a
// shapefile, zips it and renders a preview image:
//
//	opts := pipeline.DefaultOptions()
//	opts.Input = "parcels.zip"
//	opts.OutputDir = "out"
//	opts.RemoveIfEmpty = []string{"OWNER"}
//	report, err := pipeline.Run(ctx, opts)
//
// Outputs are never overwritten: every path is checked before the first
// write of a feature-type and an existing one fails the type with an
// OutputConflictError.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/beetlebugorg/shpdump/internal/feature"
	"github.com/beetlebugorg/shpdump/internal/fsutil"
	"github.com/beetlebugorg/shpdump/internal/join"
	"github.com/beetlebugorg/shpdump/internal/render"
	"github.com/beetlebugorg/shpdump/internal/tabular"
)

// TypeReport describes the outputs of one feature-type.
type TypeReport struct {
	TypeName string
	Features int // features read
	Kept     int // features written
	Files    []string
}

// Report lists the feature-types processed successfully, in input order.
type Report struct {
	Types []TypeReport
}

// Run executes the pipeline configured by opts. Sequential runs stop at the
// first failing feature-type; parallel runs process every type and join the
// errors. Outputs of types that completed are left in place either way.
func Run(ctx context.Context, opts Options) (*Report, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	if err := checkInputs(opts); err != nil {
		return nil, err
	}

	log := opts.logger()
	r := &runner{
		opts:   opts,
		log:    log,
		filter: feature.NewFilterSpec(opts.RemoveIfEmpty...),
	}
	if opts.Mode != ModeConvert {
		r.format, _ = render.ParseFormat(opts.ImageFormat)
	}
	if opts.Mode == ModeMerge {
		if err := r.loadJoinInputs(); err != nil {
			return nil, err
		}
	}

	src, err := OpenSource(opts, log)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	names, err := src.TypeNames()
	if err != nil {
		return nil, &FormatError{Path: opts.Input, Err: err}
	}
	r.multi = len(names) > 1
	log.Info("discovered feature types", "input", opts.Input, "types", len(names), "mode", opts.Mode.String())

	if opts.Parallel && len(names) > 1 {
		return r.runParallel(ctx, src, names)
	}

	report := &Report{}
	for _, name := range names {
		tr, err := r.process(ctx, src, name)
		if err != nil {
			return report, err
		}
		report.Types = append(report.Types, tr)
	}
	return report, nil
}

func checkInputs(opts Options) error {
	if !fsutil.Exists(opts.Input) {
		return &MissingInputError{Name: "input", Path: opts.Input}
	}
	if !fsutil.IsDir(opts.OutputDir) {
		return &MissingInputError{Name: "output", Path: opts.OutputDir}
	}
	if opts.Mode == ModeMerge {
		if !fsutil.Exists(opts.OtherInput) {
			return &MissingInputError{Name: "other-input", Path: opts.OtherInput}
		}
		if !fsutil.Exists(opts.MappingFile) {
			return &MissingInputError{Name: "mapping", Path: opts.MappingFile}
		}
	}
	return nil
}

// runner holds the state shared read-only by every feature-type.
type runner struct {
	opts     Options
	log      *slog.Logger
	filter   feature.FilterSpec
	multi    bool
	mappings []join.ValueMapping
	other    *tabular.Table
	format   render.Format
}

func (r *runner) loadJoinInputs() error {
	data, err := os.ReadFile(r.opts.MappingFile)
	if err != nil {
		return &FormatError{Path: r.opts.MappingFile, Err: err}
	}
	r.mappings, err = join.Parse(r.opts.MappingFile, data)
	if err != nil {
		return &FormatError{Path: r.opts.MappingFile, Err: err}
	}
	r.other, err = tabular.ReadFile(r.opts.OtherInput)
	if err != nil {
		return &FormatError{Path: r.opts.OtherInput, Err: err}
	}
	r.log.Info("loaded join inputs", "mappings", len(r.mappings), "rows", len(r.other.Rows))
	return nil
}

// plan holds the output paths of one feature-type. Empty paths are skipped.
type plan struct {
	export  string
	summary string
	mapping string
	merged  string
	dumpDir string
	zip     string
	image   string
}

func (r *runner) plan(typeName string) plan {
	base := filepath.Join(r.opts.OutputDir, r.opts.Prefix+"-"+typeName)
	p := plan{
		dumpDir: base + "-dump",
		zip:     base + "-dump.zip",
	}
	if r.opts.Mode == ModeConvert {
		return p
	}
	p.export = base + ".csv"
	p.summary = base + "-Summary.csv"
	p.image = base + "." + r.format.Ext()
	if r.opts.OutputMapping != "" {
		p.mapping = r.opts.OutputMapping
		if r.multi {
			ext := filepath.Ext(p.mapping)
			p.mapping = strings.TrimSuffix(p.mapping, ext) + "-" + typeName + ext
		}
	}
	if r.opts.Mode == ModeMerge {
		p.merged = base + "-merged.csv"
	}
	return p
}

func (p plan) paths() []string {
	var out []string
	for _, s := range []string{p.export, p.summary, p.mapping, p.merged, p.dumpDir, p.zip, p.image} {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
