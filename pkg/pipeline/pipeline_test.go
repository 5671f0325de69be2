package pipeline

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/require"

	"github.com/beetlebugorg/shpdump/internal/render"
	"github.com/beetlebugorg/shpdump/internal/shapefile"
	"github.com/beetlebugorg/shpdump/internal/tabular"
	"github.com/beetlebugorg/shpdump/internal/testutil"
)

func writeParcels(t *testing.T, dir string) string {
	t.Helper()

	path := filepath.Join(dir, "parcels.shp")
	testutil.WriteShapefile(t, path, shp.POLYGON, []shp.Field{
		shp.StringField("name", 20),
		shp.NumberField("rooms", 5),
	}, []testutil.Record{
		{Shape: testutil.Square(0, 0, 1), Attrs: []string{"first", "3"}},
		{Shape: testutil.Square(2, 0, 1), Attrs: []string{"", "4"}},
		{Shape: testutil.Square(4, 0, 1), Attrs: []string{"third", "5"}},
	})
	return path
}

func testOptions(t *testing.T, input string) Options {
	t.Helper()

	opts := DefaultOptions()
	opts.Input = input
	opts.OutputDir = t.TempDir()
	opts.Resolution = 64
	opts.Logger = testutil.NewLogger()
	return opts
}

func readBack(t *testing.T, dir, typeName string) int {
	t.Helper()

	src, err := shapefile.Open(dir, testutil.NewLogger())
	require.NoError(t, err)
	defer src.Close()
	c, err := src.Open(typeName)
	require.NoError(t, err)
	return c.Len()
}

func TestRun_Dump(t *testing.T) {
	t.Parallel()

	opts := testOptions(t, writeParcels(t, t.TempDir()))
	opts.RemoveIfEmpty = []string{"name"}
	opts.OutputMapping = filepath.Join(opts.OutputDir, "mapping.csv")

	report, err := Run(context.Background(), opts)
	require.NoError(t, err)
	require.Len(t, report.Types, 1)

	base := filepath.Join(opts.OutputDir, "shp-debug-parcels")
	tr := report.Types[0]
	require.Equal(t, "parcels", tr.TypeName)
	require.Equal(t, 3, tr.Features)
	require.Equal(t, 2, tr.Kept)
	require.Equal(t, []string{
		base + ".csv",
		base + "-Summary.csv",
		opts.OutputMapping,
		base + "-dump",
		base + "-dump.zip",
		base + ".png",
	}, tr.Files)
	for _, f := range tr.Files {
		if f == base+"-dump" {
			require.DirExists(t, f)
			continue
		}
		require.FileExists(t, f, "missing output")
	}

	entries, err := archiveEntries(base + "-dump.zip")
	require.NoError(t, err)
	require.Equal(t, []string{"parcels.cpg", "parcels.dbf", "parcels.shp", "parcels.shx"}, entries)

	export, err := tabular.ReadFile(base + ".csv")
	require.NoError(t, err)
	require.Equal(t, []string{"the_geom", "name", "rooms"}, export.Header)
	names, _ := export.Column("name")
	require.Equal(t, []string{"first", "third"}, names)

	src, err := shapefile.Open(base+"-dump", testutil.NewLogger())
	require.NoError(t, err)
	defer src.Close()
	c, err := src.Open("parcels")
	require.NoError(t, err)
	require.Equal(t, []string{"the_geom", "name", "rooms"}, c.Schema.FieldNames())
	require.Len(t, c.Features, 2)
	require.Equal(t, "third", c.Features[1].Value(1).String())
	require.Equal(t, "5", c.Features[1].Value(2).String())
}

func archiveEntries(path string) ([]string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	var names []string
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	return names, nil
}

func TestRun_NoFilterKeepsEverything(t *testing.T) {
	t.Parallel()

	opts := testOptions(t, writeParcels(t, t.TempDir()))
	report, err := Run(context.Background(), opts)
	require.NoError(t, err)
	require.Equal(t, 3, report.Types[0].Kept)

	export, err := tabular.ReadFile(filepath.Join(opts.OutputDir, "shp-debug-parcels.csv"))
	require.NoError(t, err)
	require.Len(t, export.Rows, 3)
}

func TestRun_InvalidSchemaWritesNothing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	// DBF truncates names to 11 bytes, which is still too long.
	testutil.WriteShapefile(t, filepath.Join(dir, "roads.shp"), shp.POINT, []shp.Field{
		shp.StringField("this-is-too-long", 10),
	}, []testutil.Record{
		{Shape: &shp.Point{X: 1, Y: 1}, Attrs: []string{"a"}},
	})

	opts := testOptions(t, dir)
	_, err := Run(context.Background(), opts)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "got %v", err)
	var serr *StageError
	require.True(t, errors.As(err, &serr))
	require.Equal(t, StageValidate, serr.Stage)

	entries, err := os.ReadDir(opts.OutputDir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestRun_Merge(t *testing.T) {
	t.Parallel()

	in := t.TempDir()
	var records []testutil.Record
	for i := 1; i <= 6; i++ {
		records = append(records, testutil.Record{
			Shape: &shp.Point{X: float64(i), Y: float64(i)},
			Attrs: []string{fmt.Sprint(i), fmt.Sprintf("town%d", i)},
		})
	}
	testutil.WriteShapefile(t, filepath.Join(in, "towns.shp"), shp.POINT, []shp.Field{
		shp.NumberField("id", 5),
		shp.StringField("name", 20),
	}, records)
	other := testutil.WriteFile(t, in, "census.csv",
		"id,population\n5,500\n4,400\n3,300\n9,900\n2,200\n1,100\n")
	mapping := testutil.WriteFile(t, in, "mapping.csv",
		"OldField,Language,NewField,Mapping,Default\n"+
			"the_geom,,the_geom,,\n"+
			"id,CsvJoin,id,id,\n"+
			"name,,name,,\n"+
			"population,,pop,,\n")

	opts := testOptions(t, filepath.Join(in, "towns.shp"))
	opts.Mode = ModeMerge
	opts.OtherInput = other
	opts.MappingFile = mapping

	report, err := Run(context.Background(), opts)
	require.NoError(t, err)

	base := filepath.Join(opts.OutputDir, "shp-debug-towns")
	require.Contains(t, report.Types[0].Files, base+"-merged.csv")

	merged, err := tabular.ReadFile(base + "-merged.csv")
	require.NoError(t, err)
	require.Equal(t, []string{"the_geom", "id", "name", "pop"}, merged.Header)
	require.Len(t, merged.Rows, 6)
	pops, _ := merged.Column("pop")
	require.Equal(t, []string{"100", "200", "300", "400", "500", ""}, pops)

	src, err := shapefile.Open(base+"-dump", testutil.NewLogger())
	require.NoError(t, err)
	defer src.Close()
	c, err := src.Open("towns")
	require.NoError(t, err)
	require.Equal(t, []string{"the_geom", "id", "name", "pop"}, c.Schema.FieldNames())
	require.Len(t, c.Features, 6)
	require.Equal(t, "100", c.Features[0].Value(3).String())
	require.Empty(t, c.Features[5].Value(3).String())
}

func TestRun_MergeJoinErrorKeepsExport(t *testing.T) {
	t.Parallel()

	in := t.TempDir()
	path := writeParcels(t, in)
	other := testutil.WriteFile(t, in, "other.csv", "code,label\n1,x\n")
	mapping := testutil.WriteFile(t, in, "mapping.csv",
		"OldField,Language,Mapping\nname,CsvJoin,missing\n")

	opts := testOptions(t, path)
	opts.Mode = ModeMerge
	opts.OtherInput = other
	opts.MappingFile = mapping

	_, err := Run(context.Background(), opts)
	var jerr *JoinError
	require.True(t, errors.As(err, &jerr), "got %v", err)

	base := filepath.Join(opts.OutputDir, "shp-debug-parcels")
	require.FileExists(t, base+".csv")
	require.FileExists(t, base+"-Summary.csv")
	require.NoDirExists(t, base+"-dump")
}

func TestRun_OutputConflict(t *testing.T) {
	t.Parallel()

	opts := testOptions(t, writeParcels(t, t.TempDir()))
	_, err := Run(context.Background(), opts)
	require.NoError(t, err)

	export := filepath.Join(opts.OutputDir, "shp-debug-parcels.csv")
	before, err := os.ReadFile(export)
	require.NoError(t, err)
	entries, err := os.ReadDir(opts.OutputDir)
	require.NoError(t, err)

	_, err = Run(context.Background(), opts)
	var cerr *OutputConflictError
	require.True(t, errors.As(err, &cerr), "got %v", err)
	require.Equal(t, export, cerr.Path)

	after, err := os.ReadFile(export)
	require.NoError(t, err)
	require.Equal(t, before, after)
	again, err := os.ReadDir(opts.OutputDir)
	require.NoError(t, err)
	require.Len(t, again, len(entries))
}

func TestRun_MissingInputs(t *testing.T) {
	t.Parallel()

	existing := writeParcels(t, t.TempDir())
	tests := []struct {
		name  string
		setup func(*Options)
		want  string
	}{
		{name: "input", setup: func(o *Options) { o.Input = filepath.Join(o.OutputDir, "nope.shp") }, want: "input"},
		{name: "output", setup: func(o *Options) { o.OutputDir = filepath.Join(o.OutputDir, "nope") }, want: "output"},
		{name: "other", setup: func(o *Options) {
			o.Mode = ModeMerge
			o.OtherInput = filepath.Join(o.OutputDir, "nope.csv")
			o.MappingFile = existing
		}, want: "other-input"},
		{name: "mapping", setup: func(o *Options) {
			o.Mode = ModeMerge
			o.OtherInput = existing
			o.MappingFile = filepath.Join(o.OutputDir, "nope.yaml")
		}, want: "mapping"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			opts := testOptions(t, existing)
			tt.setup(&opts)
			_, err := Run(context.Background(), opts)
			var merr *MissingInputError
			require.True(t, errors.As(err, &merr), "got %v", err)
			require.Equal(t, tt.want, merr.Name)
		})
	}
}

func TestRun_UnreadableInput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.WriteFile(t, dir, "readme.txt", "no shapefiles here")

	_, err := Run(context.Background(), testOptions(t, dir))
	var ferr *FormatError
	require.True(t, errors.As(err, &ferr), "got %v", err)
}

func TestRun_Convert(t *testing.T) {
	t.Parallel()

	in := testutil.WriteFile(t, t.TempDir(), "wells.csv",
		"the_geom,name,depth\nPOINT(1 2),north,12.5\nPOINT(3 4),south,\n")
	opts := testOptions(t, in)
	opts.Mode = ModeConvert

	report, err := Run(context.Background(), opts)
	require.NoError(t, err)

	base := filepath.Join(opts.OutputDir, "shp-debug-wells")
	require.Equal(t, []string{base + "-dump", base + "-dump.zip"}, report.Types[0].Files)
	require.NoFileExists(t, base+".csv")
	require.NoFileExists(t, base+".png")
	require.Equal(t, 2, readBack(t, base+"-dump", "wells"))
}

func TestRun_ConvertMissingGeometry(t *testing.T) {
	t.Parallel()

	in := testutil.WriteFile(t, t.TempDir(), "roads.csv",
		"the_geom,id\n\"LINESTRING (0 0, 1 1)\",1\n,2\n")
	opts := testOptions(t, in)
	opts.Mode = ModeConvert
	opts.Prefix = "out"

	_, err := Run(context.Background(), opts)
	require.NoError(t, err)

	src, err := shapefile.Open(filepath.Join(opts.OutputDir, "out-roads-dump"), testutil.NewLogger())
	require.NoError(t, err)
	defer src.Close()
	c, err := src.Open("roads")
	require.NoError(t, err)
	require.Len(t, c.Features, 2)
	require.False(t, c.Features[0].Geometry().IsNull())
	require.True(t, c.Features[1].Geometry().IsNull())
	require.Equal(t, "2", c.Features[1].Value(1).String())
}

func TestRun_Parallel(t *testing.T) {
	t.Parallel()

	in := t.TempDir()
	for _, name := range []string{"lakes", "buoys", "rivers"} {
		testutil.WriteShapefile(t, filepath.Join(in, name+".shp"), shp.POINT, []shp.Field{
			shp.StringField("label", 10),
		}, []testutil.Record{
			{Shape: &shp.Point{X: 1, Y: 1}, Attrs: []string{name}},
			{Shape: &shp.Point{X: 2, Y: 3}, Attrs: []string{""}},
		})
	}

	var out bytes.Buffer
	opts := testOptions(t, in)
	opts.Parallel = true
	opts.Workers = 2
	opts.RemoveIfEmpty = []string{"label"}
	opts.Progress = NewConsoleProgress(&out)

	report, err := Run(context.Background(), opts)
	require.NoError(t, err)
	require.Len(t, report.Types, 3)
	for i, name := range []string{"buoys", "lakes", "rivers"} {
		require.Equal(t, name, report.Types[i].TypeName)
		require.Equal(t, 1, report.Types[i].Kept)
	}
	require.Contains(t, out.String(), "Type: rivers")
}

func TestRun_ParallelCollectsErrors(t *testing.T) {
	t.Parallel()

	in := t.TempDir()
	for _, field := range []string{"ok", "much-too-long", "also-too-long"} {
		testutil.WriteShapefile(t, filepath.Join(in, field+".shp"), shp.POINT, []shp.Field{
			shp.StringField(field, 10),
		}, []testutil.Record{{Shape: &shp.Point{X: 1, Y: 1}, Attrs: []string{"x"}}})
	}

	opts := testOptions(t, in)
	opts.Parallel = true
	report, err := Run(context.Background(), opts)
	require.Error(t, err)
	require.Len(t, report.Types, 1)
	require.Equal(t, "ok", report.Types[0].TypeName)
	require.Contains(t, err.Error(), "also-too-long")
	require.Contains(t, err.Error(), "much-too-long")
}

func TestRun_Cancelled(t *testing.T) {
	t.Parallel()

	opts := testOptions(t, writeParcels(t, t.TempDir()))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, opts)
	require.ErrorIs(t, err, context.Canceled)
}

func TestOptions_Validate(t *testing.T) {
	t.Parallel()

	require.NoError(t, func() error {
		o := DefaultOptions()
		o.Input, o.OutputDir = "in.shp", "out"
		return o.Validate()
	}())

	tests := []struct {
		name  string
		setup func(*Options)
		want  []string
	}{
		{name: "empty", setup: func(o *Options) { *o = Options{} }, want: []string{
			"input is required", "output directory is required", "prefix is required", "resolution must be between 1 and 16384, got 0",
		}},
		{name: "merge", setup: func(o *Options) { o.Mode = ModeMerge }, want: []string{
			"other input is required", "mapping file is required",
		}},
		{name: "format", setup: func(o *Options) { o.ImageFormat = "webp" }, want: []string{"webp"}},
		{name: "resolution", setup: func(o *Options) { o.Resolution = 20000 }, want: []string{"got 20000"}},
		{name: "negative", setup: func(o *Options) { o.SampleSize, o.Workers = -1, -1 }, want: []string{
			"sample size", "workers",
		}},
		{name: "mode", setup: func(o *Options) { o.Mode = Mode(7) }, want: []string{"Mode(7)"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			o := DefaultOptions()
			o.Input, o.OutputDir = "in.shp", "out"
			tt.setup(&o)
			err := o.Validate()
			require.Error(t, err)
			for _, w := range tt.want {
				require.Contains(t, err.Error(), w)
			}
		})
	}

	o := DefaultOptions()
	o.Input, o.OutputDir, o.Mode = "in.csv", "out", ModeConvert
	o.Resolution, o.ImageFormat = 0, ""
	require.NoError(t, o.Validate(), "convert mode does not render")
}

func TestPlan_MappingPerType(t *testing.T) {
	t.Parallel()

	r := &runner{opts: DefaultOptions(), multi: true}
	r.opts.OutputDir = "out"
	r.opts.OutputMapping = filepath.Join("out", "map.csv")

	p := r.plan("roads")
	require.Equal(t, filepath.Join("out", "map-roads.csv"), p.mapping)
	require.Equal(t, filepath.Join("out", "shp-debug-roads.png"), p.image)
	require.Empty(t, p.merged)

	r.multi = false
	require.Equal(t, filepath.Join("out", "map.csv"), r.plan("roads").mapping)

	r.format = render.JPEG
	require.Equal(t, filepath.Join("out", "shp-debug-roads.jpeg"), r.plan("roads").image)
}
