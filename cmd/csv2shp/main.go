// Command csv2shp converts a CSV file with a WKT geometry column into a
// zipped shapefile.
package main

import (
	"io"
	"os"

	"github.com/beetlebugorg/shpdump/internal/cli"
	"github.com/beetlebugorg/shpdump/pkg/pipeline"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(cli.Exit(err, os.Stderr))
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	opts := pipeline.DefaultOptions()
	opts.Mode = pipeline.ModeConvert

	fs := cli.NewFlagSet("csv2shp", stderr)
	fs.StringVar(&opts.Input, "input", "", "input CSV file")
	fs.StringVar(&opts.OutputDir, "output", "", "existing directory receiving the outputs")
	fs.StringVar(&opts.Prefix, "prefix", "", "prefix of every output file")
	fs.StringVar(&opts.WKTField, "wkt-field", opts.WKTField, "column holding the geometry as WKT")
	var common cli.Common
	cli.AddCommon(fs, &common)

	if err := cli.Parse(fs, &common, args); err != nil {
		return err
	}
	if err := cli.Require(fs, "input", "output", "prefix"); err != nil {
		return err
	}
	return cli.Run(opts, &common, stdout, stderr)
}
