package pipeline

import (
	"log/slog"

	"github.com/beetlebugorg/shpdump/internal/csvsource"
	"github.com/beetlebugorg/shpdump/internal/feature"
	"github.com/beetlebugorg/shpdump/internal/shapefile"
)

// Source is a dataset made of named feature-types. Open may be called
// concurrently for different types.
type Source interface {
	TypeNames() ([]string, error)
	Open(typeName string) (*feature.Collection, error)
	Close() error
}

// OpenSource opens the input dataset for the mode of opts: a CSV with a WKT
// column in ModeConvert, a shapefile dataset otherwise.
func OpenSource(opts Options, logger *slog.Logger) (Source, error) {
	var (
		src Source
		err error
	)
	if opts.Mode == ModeConvert {
		src, err = csvsource.Open(opts.Input, opts.WKTField, logger)
	} else {
		src, err = shapefile.Open(opts.Input, logger)
	}
	if err != nil {
		return nil, &FormatError{Path: opts.Input, Err: err}
	}
	return src, nil
}
