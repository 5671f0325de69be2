package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/beetlebugorg/shpdump/pkg/pipeline"
)

// Drop parcels without an owner or a lot number
func dumpOwnedParcels(input, outputDir string) (*pipeline.Report, error) {
	opts := pipeline.DefaultOptions()
	opts.Input = input
	opts.OutputDir = outputDir
	opts.Prefix = "owned"
	opts.RemoveIfEmpty = []string{"OWNER", "LOT"}
	opts.Progress = pipeline.NewConsoleProgress(os.Stdout)

	return pipeline.Run(context.Background(), opts)
}

func main() {
	report, err := dumpOwnedParcels("parcels.shp", "out")
	if err != nil {
		log.Fatal(err)
	}

	for _, t := range report.Types {
		fmt.Printf("%s: kept %d of %d features\n", t.TypeName, t.Kept, t.Features)
	}
}
