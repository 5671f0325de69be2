// Package csvsource exposes a CSV file with a WKT geometry column as a
// single-type feature dataset.
package csvsource

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/beetlebugorg/shpdump/internal/feature"
	"github.com/beetlebugorg/shpdump/internal/tabular"
)

// DefaultWKTField is the column read as geometry when none is configured.
const DefaultWKTField = "the_geom"

// MissingColumnError reports that the configured WKT column is absent.
type MissingColumnError struct {
	Path   string
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("%s: no %q column", e.Path, e.Column)
}

// Source is a CSV file loaded into memory. Its only feature-type is named
// after the file.
type Source struct {
	path     string
	typeName string
	wktField string
	table    *tabular.Table
	logger   *slog.Logger
}

// Open reads the CSV at path. wktField names the geometry column; empty means
// DefaultWKTField.
func Open(path, wktField string, logger *slog.Logger) (*Source, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if wktField == "" {
		wktField = DefaultWKTField
	}
	t, err := tabular.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if t.Index(wktField) < 0 {
		return nil, &MissingColumnError{Path: path, Column: wktField}
	}
	base := filepath.Base(path)
	return &Source{
		path:     path,
		typeName: strings.TrimSuffix(base, filepath.Ext(base)),
		wktField: wktField,
		table:    t,
		logger:   logger,
	}, nil
}

func (s *Source) TypeNames() ([]string, error) {
	return []string{s.typeName}, nil
}

// Open builds the feature collection. Columns whose non-empty cells all parse
// as numbers are typed Number; the rest are Text.
func (s *Source) Open(typeName string) (*feature.Collection, error) {
	if typeName != s.typeName {
		return nil, fmt.Errorf("unknown feature type %q", typeName)
	}

	schema := &feature.Schema{
		Name:          feature.Name{Local: s.typeName},
		GeometryField: s.wktField,
		Fields:        make([]feature.Field, len(s.table.Header)),
	}
	for i, name := range s.table.Header {
		t := feature.FieldText
		switch {
		case name == s.wktField:
			t = feature.FieldGeometry
		case numeric(s.table.Rows, i):
			t = feature.FieldNumber
		}
		schema.Fields[i] = feature.Field{Name: name, Type: t, Nullable: true}
	}

	c := &feature.Collection{Schema: schema, Features: make([]feature.Feature, 0, len(s.table.Rows))}
	for n, row := range s.table.Rows {
		values := make([]feature.Value, len(schema.Fields))
		for i, fld := range schema.Fields {
			v, err := feature.ParseValue(fld.Type, cell(row, i))
			if err != nil {
				return nil, fmt.Errorf("%s row %d column %s: %w", s.path, n+1, fld.Name, err)
			}
			values[i] = v
		}
		f, err := feature.New(schema, s.typeName+"."+strconv.Itoa(n+1), values)
		if err != nil {
			return nil, err
		}
		c.Features = append(c.Features, f)
	}
	s.logger.Debug("read csv", "path", s.path, "features", c.Len())
	return c, nil
}

func (s *Source) Close() error { return nil }

func numeric(rows [][]string, col int) bool {
	seen := false
	for _, row := range rows {
		v := cell(row, col)
		if v == "" {
			continue
		}
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			return false
		}
		seen = true
	}
	return seen
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
