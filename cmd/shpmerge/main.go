// Command shpmerge joins the attributes of a shapefile dataset with a second
// CSV file through a mapping and writes the merged features as a shapefile.
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
	opts.Mode = pipeline.ModeMerge

	fs := cli.NewFlagSet("shpmerge", stderr)
	fs.StringVar(&opts.Input, "input", "", "input shapefile, directory of shapefiles or zip archive")
	fs.StringVar(&opts.OtherInput, "other-input", "", "CSV file merged with the input")
	fs.StringVar(&opts.MappingFile, "mapping", "", "join mapping file (.csv or .yaml)")
	fs.StringVar(&opts.InputPrefix, "input-prefix", "", "prefix for input columns that clash with other-input columns")
	fs.StringVar(&opts.OtherPrefix, "other-prefix", "", "prefix for other-input columns that clash with input columns")
	fs.StringVar(&opts.OutputDir, "output", "", "existing directory receiving the outputs")
	fs.StringVar(&opts.Prefix, "prefix", opts.Prefix, "prefix of every output file")
	fs.IntVar(&opts.Resolution, "resolution", opts.Resolution, "width of the rendered image in pixels")
	fs.StringVar(&opts.ImageFormat, "format", opts.ImageFormat, "image format: png, jpeg, gif, tiff or bmp")
	fs.StringVar(&opts.OutputMapping, "output-mapping", "", "write a join mapping template to this file")
	var common cli.Common
	cli.AddCommon(fs, &common)

	if err := cli.Parse(fs, &common, args); err != nil {
		return err
	}
	if err := cli.Require(fs, "input", "other-input", "mapping", "output"); err != nil {
		return err
	}
	return cli.Run(opts, &common, stdout, stderr)
}
