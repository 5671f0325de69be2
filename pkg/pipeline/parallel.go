package pipeline

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

// runParallel processes feature-types concurrently on at most
// Options.Workers goroutines. A failing type does not stop the others; every
// failure is returned joined, and the report lists the types that completed
// in input order.
func (r *runner) runParallel(ctx context.Context, src Source, names []string) (*Report, error) {
	workers := min(r.opts.workers(), len(names))
	r.log.Debug("processing feature types in parallel", "workers", workers)

	type result struct {
		report TypeReport
		err    error
	}
	results := make([]result, len(names))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, name := range names {
		g.Go(func() error {
			tr, err := r.process(ctx, src, name)
			results[i] = result{report: tr, err: err}
			return nil
		})
	}
	g.Wait()

	report := &Report{}
	var errs []error
	for _, res := range results {
		if res.err != nil {
			errs = append(errs, res.err)
			continue
		}
		report.Types = append(report.Types, res.report)
	}
	return report, errors.Join(errs...)
}
