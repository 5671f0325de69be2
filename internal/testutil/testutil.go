// Package testutil holds helpers shared by package tests.
package testutil

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/require"
)

// NewLogger returns a logger for tests. DEBUG=1 shows info, DEBUG=2 debug;
// otherwise only errors are printed.
func NewLogger() *slog.Logger {
	var level slog.Level
	switch os.Getenv("DEBUG") {
	case "2":
		level = slog.LevelDebug
	case "1":
		level = slog.LevelInfo
	default:
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// Record is one shape and its attribute values in field order.
type Record struct {
	Shape shp.Shape
	Attrs []string
}

// WriteShapefile writes a shapefile fixture at path, which must end in .shp.
func WriteShapefile(t testing.TB, path string, st shp.ShapeType, fields []shp.Field, records []Record) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	w, err := shp.Create(path, st)
	require.NoError(t, err)
	if len(fields) > 0 {
		require.NoError(t, w.SetFields(fields))
	}
	for _, rec := range records {
		n := int(w.Write(rec.Shape))
		for i, v := range rec.Attrs {
			require.NoError(t, w.WriteAttribute(n, i, v))
		}
	}
	w.Close()
}

// WriteFile writes content to dir/name and returns the path.
func WriteFile(t testing.TB, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// Square returns a closed clockwise square polygon with its lower-left
// corner at (x, y).
func Square(x, y, size float64) *shp.Polygon {
	poly := shp.Polygon(*shp.NewPolyLine([][]shp.Point{{
		{X: x, Y: y},
		{X: x, Y: y + size},
		{X: x + size, Y: y + size},
		{X: x + size, Y: y},
		{X: x, Y: y},
	}}))
	return &poly
}
