package feature

import (
	"github.com/google/uuid"

	"github.com/beetlebugorg/shpdump/internal/tabular"
)

// Rebuild constructs one feature per row of m, taking values by
// name according to target's field order. The header must contain every
// target field name. Features get generated "fid-" identifiers.
func Rebuild(m *tabular.Table, target *Schema) (*Collection, error) {
	columns := make(map[string]int, len(m.Header))
	for i, h := range m.Header {
		if _, dup := columns[h]; !dup {
			columns[h] = i
		}
	}

	positions := make([]int, len(target.Fields))
	for i, field := range target.Fields {
		col, ok := columns[field.Name]
		if !ok {
			return nil, &RebuildError{Field: field.Name, Row: -1, Reason: "no merged column with this name"}
		}
		positions[i] = col
	}

	out := &Collection{Schema: target, Features: make([]Feature, 0, len(m.Rows))}
	for r, row := range m.Rows {
		values := make([]Value, len(target.Fields))
		for i, field := range target.Fields {
			cell := ""
			if positions[i] < len(row) {
				cell = row[positions[i]]
			}
			v, err := ParseValue(field.Type, cell)
			if err != nil {
				return nil, &RebuildError{Field: field.Name, Row: r, Reason: err.Error()}
			}
			values[i] = v
		}
		f, err := New(target, "fid-"+uuid.NewString(), values)
		if err != nil {
			return nil, err
		}
		out.Features = append(out.Features, f)
	}
	return out, nil
}
