package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/beetlebugorg/shpdump/pkg/pipeline"
)

func safeDump(input, outputDir string) error {
	opts := pipeline.DefaultOptions()
	opts.Input = input
	opts.OutputDir = outputDir

	_, err := pipeline.Run(context.Background(), opts)

	var (
		missing  *pipeline.MissingInputError
		invalid  *pipeline.ValidationError
		conflict *pipeline.OutputConflictError
		format   *pipeline.FormatError
	)
	switch {
	case err == nil:
		return nil
	case errors.As(err, &missing):
		return fmt.Errorf("check the %s argument: %s does not exist", missing.Name, missing.Path)
	case errors.As(err, &invalid):
		// Shapefile field names are limited to 10 characters
		return fmt.Errorf("cannot write %s as a shapefile: long names %v", invalid.Schema, invalid.LongNames)
	case errors.As(err, &conflict):
		return fmt.Errorf("refusing to overwrite %s; pick another prefix", conflict.Path)
	case errors.As(err, &format):
		return fmt.Errorf("%s is not a readable dataset: %w", format.Path, format.Err)
	default:
		return err
	}
}

func main() {
	if err := safeDump("parcels.zip", "out"); err != nil {
		log.Printf("Error: %v", err)
	}

	// Running again over the same directory fails instead of overwriting
	if err := safeDump("parcels.zip", "out"); err != nil {
		log.Printf("Expected error: %v", err)
	}
}
