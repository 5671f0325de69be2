// Package shapefile reads and writes ESRI shapefile datasets as feature
// collections. A dataset is a single .shp file, a directory of them or a zip
// archive of them; each .shp is one feature-type named after its base name.
package shapefile

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/h2non/filetype"
	"github.com/jonas-p/go-shp"

	"github.com/beetlebugorg/shpdump/internal/feature"
)

// GeometryField is the name given to the geometry field of every schema read
// from a shapefile.
const GeometryField = "the_geom"

// Source is a shapefile dataset opened for reading.
type Source struct {
	paths   map[string]string
	names   []string
	tempDir string
	logger  *slog.Logger
}

// Open opens the dataset at path. Zip archives are extracted to a temporary
// directory that is removed by Close.
func Open(path string, logger *slog.Logger) (*Source, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	s := &Source{paths: make(map[string]string), logger: logger}
	root := path
	if !info.IsDir() && isZip(path) {
		dir, err := os.MkdirTemp("", "shpdump-*")
		if err != nil {
			return nil, fmt.Errorf("create temp dir: %w", err)
		}
		s.tempDir = dir
		if err := extractZip(path, dir); err != nil {
			s.Close()
			return nil, fmt.Errorf("extract %s: %w", path, err)
		}
		logger.Debug("extracted archive", "path", path, "dir", dir)
		root = dir
		info, err = os.Stat(dir)
		if err != nil {
			s.Close()
			return nil, err
		}
	}

	if info.IsDir() {
		err = s.scan(root)
	} else {
		err = s.add(root)
	}
	if err != nil {
		s.Close()
		return nil, err
	}
	if len(s.names) == 0 {
		s.Close()
		return nil, fmt.Errorf("no shapefile found in %s", path)
	}
	sort.Strings(s.names)
	return s, nil
}

func isZip(path string) bool {
	if strings.EqualFold(filepath.Ext(path), ".zip") {
		return true
	}
	kind, err := filetype.MatchFile(path)
	return err == nil && kind.Extension == "zip"
}

func (s *Source) scan(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(p), ".shp") {
			return nil
		}
		return s.add(p)
	})
}

func (s *Source) add(p string) error {
	if !strings.EqualFold(filepath.Ext(p), ".shp") {
		return fmt.Errorf("%s is not a shapefile", p)
	}
	name := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
	if _, ok := s.paths[name]; ok {
		s.logger.Warn("duplicate feature type ignored", "type", name, "path", p)
		return nil
	}
	s.paths[name] = p
	s.names = append(s.names, name)
	return nil
}

// TypeNames returns the feature-type names of the dataset in sorted order.
func (s *Source) TypeNames() ([]string, error) {
	return append([]string(nil), s.names...), nil
}

// Open reads every feature of the named type.
func (s *Source) Open(typeName string) (*feature.Collection, error) {
	p, ok := s.paths[typeName]
	if !ok {
		return nil, fmt.Errorf("unknown feature type %q", typeName)
	}
	// go-shp only accepts a lower-case extension.
	if filepath.Ext(p) != ".shp" {
		return nil, fmt.Errorf("%s: extension must be .shp", p)
	}

	r, err := shp.Open(p)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", p, err)
	}
	defer r.Close()

	dbf := r.Fields()
	schema := &feature.Schema{
		Name:          feature.Name{Local: typeName},
		GeometryField: GeometryField,
		CRS:           readSidecar(p, ".prj"),
		Fields:        make([]feature.Field, 0, len(dbf)+1),
	}
	schema.Fields = append(schema.Fields, feature.Field{Name: GeometryField, Type: feature.FieldGeometry, Nullable: true})
	for _, f := range dbf {
		schema.Fields = append(schema.Fields, feature.Field{
			Name:      f.String(),
			Type:      fieldType(f.Fieldtype),
			Nullable:  true,
			Length:    f.Size,
			Precision: f.Precision,
		})
	}

	c := &feature.Collection{Schema: schema}
	for r.Next() {
		n, shape := r.Shape()
		geom, err := toGeometry(shape)
		if err != nil {
			return nil, fmt.Errorf("%s record %d: %w", p, n+1, err)
		}
		values := make([]feature.Value, len(schema.Fields))
		values[0] = feature.Geometry(geom)
		for i := range dbf {
			raw := strings.Trim(r.ReadAttribute(n, i), " \x00")
			values[i+1] = attribute(schema.Fields[i+1].Type, raw)
		}
		f, err := feature.New(schema, typeName+"."+strconv.Itoa(n+1), values)
		if err != nil {
			return nil, err
		}
		c.Features = append(c.Features, f)
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", p, err)
	}
	s.logger.Debug("read shapefile", "type", typeName, "features", c.Len())
	return c, nil
}

// Close removes any temporary extraction directory.
func (s *Source) Close() error {
	if s.tempDir == "" {
		return nil
	}
	err := os.RemoveAll(s.tempDir)
	s.tempDir = ""
	return err
}

func fieldType(t byte) feature.FieldType {
	switch t {
	case 'N', 'F':
		return feature.FieldNumber
	case 'D':
		return feature.FieldDate
	default:
		return feature.FieldText
	}
}

// attribute decodes a DBF cell. Unparseable numbers and dates (overflow
// markers, zero dates) read as null.
func attribute(t feature.FieldType, raw string) feature.Value {
	switch t {
	case feature.FieldNumber:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return feature.Null()
		}
		return feature.Number(n)
	case feature.FieldDate:
		d, err := time.Parse("20060102", raw)
		if err != nil {
			return feature.Null()
		}
		return feature.Date(d)
	default:
		return feature.Text(raw)
	}
}

func readSidecar(shpPath, ext string) string {
	data, err := os.ReadFile(strings.TrimSuffix(shpPath, filepath.Ext(shpPath)) + ext)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// extractZip extracts every file of the archive below destDir.
func extractZip(zipPath, destDir string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if !filepath.IsLocal(f.Name) {
			return fmt.Errorf("invalid file path: %s", f.Name)
		}
		fpath := filepath.Join(destDir, f.Name)
		if err := os.MkdirAll(filepath.Dir(fpath), 0o755); err != nil {
			return err
		}
		if err := extractFile(f, fpath); err != nil {
			return err
		}
	}
	return nil
}

func extractFile(f *zip.File, path string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
