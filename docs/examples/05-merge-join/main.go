package main

import (
	"context"
	"fmt"
	"log"

	"github.com/beetlebugorg/shpdump/pkg/pipeline"
)

// mapping.yaml:
//
//	mappings:
//	  - oldField: the_geom
//	  - oldField: TRACT
//	    language: CsvJoin
//	    mapping: tract_id
//	  - oldField: population
//	    newField: POP
//	    default: "0"
func main() {
	opts := pipeline.DefaultOptions()
	opts.Mode = pipeline.ModeMerge
	opts.Input = "tracts.shp"
	opts.OtherInput = "census.csv"
	opts.MappingFile = "mapping.yaml"
	opts.OutputDir = "out"
	opts.Prefix = "census"

	report, err := pipeline.Run(context.Background(), opts)
	if err != nil {
		log.Fatal(err)
	}

	for _, t := range report.Types {
		fmt.Printf("Merged %d %s features\n", t.Kept, t.TypeName)
		for _, f := range t.Files {
			fmt.Printf("  %s\n", f)
		}
	}
}
