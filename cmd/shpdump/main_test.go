package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/require"

	"github.com/beetlebugorg/shpdump/internal/cli"
	"github.com/beetlebugorg/shpdump/internal/testutil"
)

func TestRun(t *testing.T) {
	in := filepath.Join(t.TempDir(), "parcels.shp")
	testutil.WriteShapefile(t, in, shp.POLYGON, []shp.Field{shp.StringField("owner", 20)}, []testutil.Record{
		{Shape: testutil.Square(0, 0, 1), Attrs: []string{"ann"}},
		{Shape: testutil.Square(1, 1, 1), Attrs: []string{""}},
	})
	out := t.TempDir()

	var stdout, stderr bytes.Buffer
	err := run([]string{
		"--input", in, "--output", out, "--prefix", "dbg",
		"--resolution", "32", "--format", "jpeg", "--remove-if-empty", "owner",
	}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())

	require.Contains(t, stdout.String(), "Will filter field if empty value found: owner")
	require.Contains(t, stdout.String(), "Type: parcels")
	require.Contains(t, stdout.String(), "Feature count: 2")
	require.Contains(t, stdout.String(), "Done")
	for _, name := range []string{"dbg-parcels.csv", "dbg-parcels-Summary.csv", "dbg-parcels-dump.zip", "dbg-parcels.jpeg"} {
		require.FileExists(t, filepath.Join(out, name))
	}
}

func TestRun_Usage(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "missing input", args: []string{"--output", "out"}},
		{name: "unknown flag", args: []string{"--input", "a.shp", "--output", "out", "--colour"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			err := run(tt.args, &stdout, &stderr)
			require.Equal(t, 2, cli.Exit(err, &stderr))
			require.Contains(t, stderr.String(), "Usage of shpdump:")
		})
	}
}

func TestRun_MissingInput(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run([]string{"--input", filepath.Join(t.TempDir(), "none.shp"), "--output", t.TempDir()}, &stdout, &stderr)
	require.Error(t, err)
	require.Equal(t, 1, cli.Exit(err, &stderr))
	require.Contains(t, stderr.String(), "input not found")
}
