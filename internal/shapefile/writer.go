package shapefile

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"unicode/utf8"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"

	"github.com/beetlebugorg/shpdump/internal/feature"
	"github.com/beetlebugorg/shpdump/internal/fsutil"
)

const (
	defaultTextLength  = 254
	defaultNumberSize  = 24
	defaultNumberScale = 15
	dbfDateLayout      = "20060102"
)

// Write persists c as <dir>/<type>.shp with its .shx, .dbf and .cpg
// companions, plus a .prj when the schema carries a CRS. It returns the
// written file names. Every file is created new; the caller owns cleanup of
// dir on failure.
func Write(c *feature.Collection, dir string) ([]string, error) {
	name := c.Schema.TypeName()
	base := filepath.Join(dir, name)
	shpPath := base + ".shp"
	if err := fsutil.CheckFree(shpPath, base+".shx", base+".dbf", base+".cpg", base+".prj"); err != nil {
		return nil, err
	}

	geomIdx := c.Schema.Index(c.Schema.GeometryField)
	geoms := make([]orb.Geometry, len(c.Features))
	if geomIdx >= 0 {
		for i, f := range c.Features {
			geoms[i], _ = f.Value(geomIdx).AsGeometry()
		}
	}
	st, err := shapeType(geoms)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	var attrs []int
	var fields []shp.Field
	for i, f := range c.Schema.Fields {
		if f.Type == feature.FieldGeometry {
			continue
		}
		attrs = append(attrs, i)
		fields = append(fields, dbfField(f))
	}

	w, err := shp.Create(shpPath, st)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", shpPath, err)
	}
	files := []string{name + ".shp", name + ".shx"}
	if len(fields) > 0 {
		if err := w.SetFields(fields); err != nil {
			w.Close()
			return nil, fmt.Errorf("set fields: %w", err)
		}
		files = append(files, name+".dbf")
	}

	shapes := layerShapes(geoms, st)
	for row, f := range c.Features {
		n := int(w.Write(shapes[row]))
		for col, idx := range attrs {
			v := dbfValue(f.Value(idx), fields[col].Size)
			if err := w.WriteAttribute(n, col, v); err != nil {
				w.Close()
				return nil, fmt.Errorf("%s feature %s field %s: %w", name, f.ID(), c.Schema.Fields[idx].Name, err)
			}
		}
	}
	w.Close()

	if err := writeSidecar(base+".cpg", "UTF-8"); err != nil {
		return nil, err
	}
	files = append(files, name+".cpg")
	if c.Schema.CRS != "" {
		if err := writeSidecar(base+".prj", c.Schema.CRS); err != nil {
			return nil, err
		}
		files = append(files, name+".prj")
	}
	for _, f := range files {
		if !fsutil.Exists(filepath.Join(dir, f)) {
			return nil, fmt.Errorf("%s: expected output %s was not written", name, f)
		}
	}
	return files, nil
}

func dbfField(f feature.Field) shp.Field {
	switch f.Type {
	case feature.FieldNumber:
		if f.Length > 0 && f.Precision == 0 {
			return shp.NumberField(f.Name, f.Length)
		}
		size, scale := f.Length, f.Precision
		if size == 0 {
			size, scale = defaultNumberSize, defaultNumberScale
		}
		return shp.FloatField(f.Name, size, scale)
	case feature.FieldDate:
		return shp.DateField(f.Name)
	default:
		size := f.Length
		if size == 0 {
			size = defaultTextLength
		}
		return shp.StringField(f.Name, size)
	}
}

// dbfValue renders v for a DBF column of the given width. go-shp does not
// bound writes to the column width, so values are fitted here.
func dbfValue(v feature.Value, size uint8) string {
	switch v.Kind() {
	case feature.KindNull:
		return ""
	case feature.KindNumber:
		n, _ := v.AsNumber()
		return fitNumber(n, int(size))
	case feature.KindDate:
		d, _ := v.AsDate()
		return d.Format(dbfDateLayout)
	default:
		return truncate(v.String(), int(size))
	}
}

func fitNumber(n float64, size int) string {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return ""
	}
	s := strconv.FormatFloat(n, 'f', -1, 64)
	for prec := size - 7; len(s) > size && prec >= 0; prec-- {
		s = strconv.FormatFloat(n, 'g', prec, 64)
	}
	if len(s) > size {
		return ""
	}
	return s
}

// truncate cuts s to at most size bytes on a rune boundary.
func truncate(s string, size int) string {
	if len(s) <= size {
		return s
	}
	for size > 0 && !utf8.RuneStart(s[size]) {
		size--
	}
	return s[:size]
}

func writeSidecar(path, content string) error {
	f, err := fsutil.CreateNew(path)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
