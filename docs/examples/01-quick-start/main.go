package main

import (
	"context"
	"fmt"
	"log"

	"github.com/beetlebugorg/shpdump/pkg/pipeline"
)

func main() {
	// Dump every feature type of a zipped dataset into ./out
	opts := pipeline.DefaultOptions()
	opts.Input = "parcels.zip"
	opts.OutputDir = "out"

	report, err := pipeline.Run(context.Background(), opts)
	if err != nil {
		log.Fatal(err)
	}

	for _, t := range report.Types {
		fmt.Printf("Type: %s\n", t.TypeName)
		fmt.Printf("Features: %d\n", t.Features)
		for _, f := range t.Files {
			fmt.Printf("  %s\n", f)
		}
	}
}
