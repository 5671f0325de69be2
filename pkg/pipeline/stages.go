package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/beetlebugorg/shpdump/internal/archive"
	"github.com/beetlebugorg/shpdump/internal/feature"
	"github.com/beetlebugorg/shpdump/internal/fsutil"
	"github.com/beetlebugorg/shpdump/internal/join"
	"github.com/beetlebugorg/shpdump/internal/render"
	"github.com/beetlebugorg/shpdump/internal/shapefile"
	"github.com/beetlebugorg/shpdump/internal/summary"
	"github.com/beetlebugorg/shpdump/internal/tabular"
)

// process runs every stage for one feature-type.
func (r *runner) process(ctx context.Context, src Source, typeName string) (TypeReport, error) {
	fail := func(stage Stage, err error) (TypeReport, error) {
		return TypeReport{}, &StageError{TypeName: typeName, Stage: stage, Err: err}
	}

	c, err := src.Open(typeName)
	if err != nil {
		return fail(StageDiscover, &FormatError{Path: r.opts.Input, Err: err})
	}
	if err := feature.ValidateSchema(c.Schema); err != nil {
		return fail(StageValidate, err)
	}

	schema := feature.Normalize(c.Schema)
	name := schema.TypeName()
	if name != typeName {
		r.log.Info("renamed schema", "from", typeName, "to", name)
	}
	log := r.log.With("type", name)

	p := r.plan(name)
	if err := fsutil.CheckFree(p.paths()...); err != nil {
		return fail(StagePlan, err)
	}

	tr := TypeReport{TypeName: name, Features: c.Len()}
	kept, err := r.project(ctx, c, schema, p.export)
	if err != nil {
		return fail(StageProject, err)
	}
	tr.Kept = kept.Len()
	if p.export != "" {
		tr.Files = append(tr.Files, p.export)
		log.Info("exported features", "path", p.export, "features", tr.Features, "kept", tr.Kept)
	}

	if p.summary != "" {
		if err := summarize(p, r.opts.SampleSize); err != nil {
			return fail(StageSummarize, err)
		}
		tr.Files = append(tr.Files, p.summary)
		if p.mapping != "" {
			tr.Files = append(tr.Files, p.mapping)
		}
		log.Debug("wrote summary", "path", p.summary, "mapping", p.mapping)
	}

	out := kept
	if r.opts.Mode == ModeMerge {
		merged, err := r.join(p)
		if err != nil {
			return fail(StageJoin, err)
		}
		tr.Files = append(tr.Files, p.merged)
		log.Info("joined", "path", p.merged, "columns", len(merged.Header), "rows", len(merged.Rows))

		target := mergedSchema(schema, merged.Header)
		if err := feature.ValidateSchema(target); err != nil {
			return fail(StageValidate, err)
		}
		if out, err = feature.Rebuild(merged, target); err != nil {
			return fail(StageRebuild, err)
		}
	}
	if err := ctx.Err(); err != nil {
		return fail(StagePersist, err)
	}

	if err := fsutil.MkdirNew(p.dumpDir); err != nil {
		return fail(StagePersist, err)
	}
	if _, err := shapefile.Write(out, p.dumpDir); err != nil {
		os.RemoveAll(p.dumpDir)
		return fail(StagePersist, err)
	}
	tr.Files = append(tr.Files, p.dumpDir)
	log.Info("wrote shapefile", "dir", p.dumpDir, "features", out.Len())

	entries, err := archive.Bundle(p.dumpDir, p.zip)
	if err != nil {
		return fail(StageArchive, err)
	}
	tr.Files = append(tr.Files, p.zip)
	log.Debug("wrote archive", "path", p.zip, "entries", len(entries))

	if p.image != "" {
		if err := r.render(out, p.image); err != nil {
			return fail(StageRender, err)
		}
		tr.Files = append(tr.Files, p.image)
		log.Debug("rendered", "path", p.image)
	}
	return tr, nil
}

// project filters the features of c and, when exportPath is set, writes the
// kept rows to it. The kept features are rebound to schema.
func (r *runner) project(ctx context.Context, c *feature.Collection, schema *feature.Schema, exportPath string) (*feature.Collection, error) {
	var w *tabular.Writer
	if exportPath != "" {
		var err error
		if w, err = tabular.Create(exportPath, schema.FieldNames()); err != nil {
			return nil, err
		}
	}

	progress := r.opts.Progress
	if progress != nil {
		progress.TypeStarted(schema.TypeName(), schema)
	}

	kept := &feature.Collection{Schema: schema}
	for i, f := range c.Features {
		if err := ctx.Err(); err != nil {
			return nil, closeWith(w, err)
		}
		if progress != nil {
			progress.Feature(schema.TypeName(), i+1, f)
		}
		row, excluded := feature.Project(f, schema, r.filter)
		if excluded {
			continue
		}
		if w != nil {
			if err := w.Write(row); err != nil {
				return nil, closeWith(w, err)
			}
		}
		nf, err := feature.Reschema(f, schema)
		if err != nil {
			return nil, closeWith(w, err)
		}
		kept.Features = append(kept.Features, nf)
	}

	if progress != nil {
		progress.TypeFinished(schema.TypeName(), c.Len())
	}
	if w != nil {
		if err := w.Close(); err != nil {
			return nil, err
		}
	}
	return kept, nil
}

func closeWith(w *tabular.Writer, err error) error {
	if w == nil {
		return err
	}
	return errors.Join(err, w.Close())
}

func summarize(p plan, sampleSize int) error {
	in, err := os.Open(p.export)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := fsutil.CreateNew(p.summary)
	if err != nil {
		return err
	}
	var mappingOut io.Writer
	if p.mapping != "" {
		m, err := fsutil.CreateNew(p.mapping)
		if err != nil {
			out.Close()
			return err
		}
		defer m.Close()
		mappingOut = m
	}

	if _, err := summary.Summarize(in, out, sampleSize, mappingOut); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func (r *runner) join(p plan) (*join.MergedTable, error) {
	left, err := tabular.ReadFile(p.export)
	if err != nil {
		return nil, err
	}
	merged, err := join.Join(left, r.other, r.mappings, r.opts.InputPrefix, r.opts.OtherPrefix)
	if err != nil {
		return nil, err
	}
	if err := tabular.WriteFile(p.merged, merged); err != nil {
		return nil, err
	}
	return merged, nil
}

// mergedSchema types the merged columns: a column named like a field of the
// export schema keeps that field's type, any other column is text.
func mergedSchema(schema *feature.Schema, header []string) *feature.Schema {
	fields := make([]feature.Field, len(header))
	for i, name := range header {
		if idx := schema.Index(name); idx >= 0 {
			fields[i] = schema.Fields[idx]
			continue
		}
		fields[i] = feature.Field{Name: name, Type: feature.FieldText, Nullable: true}
	}
	return feature.Retype(schema, schema.Name, fields)
}

func (r *runner) render(c *feature.Collection, path string) (err error) {
	f, err := fsutil.CreateNew(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(path)
		}
	}()

	m := render.NewMap(render.NewLayer(c))
	if err := render.Render(m, f, r.opts.Resolution, r.format); err != nil {
		return fmt.Errorf("render %s: %w", filepath.Base(path), err)
	}
	return nil
}
