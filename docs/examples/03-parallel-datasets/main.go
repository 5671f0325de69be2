package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/beetlebugorg/shpdump/pkg/pipeline"
)

func main() {
	// A directory of shapefiles, four feature types at a time
	opts := pipeline.DefaultOptions()
	opts.Input = "county-layers/"
	opts.OutputDir = "out"
	opts.Parallel = true
	opts.Workers = 4
	opts.Resolution = 1024
	opts.ImageFormat = "jpeg"
	opts.Logger = slog.New(slog.NewTextHandler(os.Stderr, nil))

	report, err := pipeline.Run(context.Background(), opts)

	// Types that completed are reported even when others failed
	if report != nil {
		for _, t := range report.Types {
			fmt.Printf("done: %s (%d features)\n", t.TypeName, t.Kept)
		}
	}

	var stageErr *pipeline.StageError
	if errors.As(err, &stageErr) {
		log.Fatalf("%s failed during %s: %v", stageErr.TypeName, stageErr.Stage, stageErr.Err)
	}
	if err != nil {
		log.Fatal(err)
	}
}
