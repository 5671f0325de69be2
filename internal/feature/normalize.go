package feature

import (
	"slices"
	"strings"
)

// Normalize returns a copy of s whose local name has spaces and "%20"
// sequences removed. Everything else is preserved. Normalize is idempotent.
func Normalize(s *Schema) *Schema {
	out := s.Clone()
	out.Name.Local = normalizeName(s.Name.Local)
	return out
}

func normalizeName(name string) string {
	// Repeat until stable: removing the space in "a%2 0" yields a new "%20".
	for {
		next := strings.ReplaceAll(strings.ReplaceAll(name, "%20", ""), " ", "")
		if next == name {
			return next
		}
		name = next
	}
}

// Retype returns a schema with s's geometry, abstract, description and CRS
// metadata but a new name and field list.
func Retype(s *Schema, name Name, fields []Field) *Schema {
	out := &Schema{
		Name:        name,
		Fields:      slices.Clone(fields),
		Abstract:    s.Abstract,
		Description: s.Description,
		CRS:         s.CRS,
	}
	if i := out.Index(s.GeometryField); i >= 0 && out.Fields[i].Type == FieldGeometry {
		out.GeometryField = s.GeometryField
		return out
	}
	for _, f := range out.Fields {
		if f.Type == FieldGeometry {
			out.GeometryField = f.Name
			break
		}
	}
	return out
}
