package feature

import (
	"slices"
	"strings"
)

// FilterSpec is the set of field names whose empty value excludes a feature.
type FilterSpec map[string]struct{}

// NewFilterSpec builds a FilterSpec from field names.
func NewFilterSpec(names ...string) FilterSpec {
	fs := make(FilterSpec, len(names))
	for _, n := range names {
		fs[n] = struct{}{}
	}
	return fs
}

// Has reports whether name is in the set.
func (fs FilterSpec) Has(name string) bool {
	_, ok := fs[name]
	return ok
}

// Names returns the field names in sorted order.
func (fs FilterSpec) Names() []string {
	names := make([]string, 0, len(fs))
	for n := range fs {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Project converts f into one string cell per field of s, in schema order.
// Missing and Null values become "". excluded is true when any field named
// in filter projects to a string that is empty after trimming.
func Project(f Feature, s *Schema, filter FilterSpec) (row []string, excluded bool) {
	row = make([]string, len(s.Fields))
	for i, field := range s.Fields {
		v, _ := f.Get(field.Name)
		row[i] = v.String()
		if filter.Has(field.Name) && strings.TrimSpace(row[i]) == "" {
			excluded = true
		}
	}
	return row, excluded
}
