package feature

import (
	"fmt"
	"slices"
)

// Feature is one record of a collection: an identifier plus one value per
// schema field, aligned positionally. Features are immutable; transformations
// build new Feature values.
type Feature struct {
	id     string
	schema *Schema
	values []Value
}

// New builds a feature bound to schema. The values are copied.
func New(schema *Schema, id string, values []Value) (Feature, error) {
	if schema == nil {
		return Feature{}, fmt.Errorf("feature %s: schema is nil", id)
	}
	if len(values) != len(schema.Fields) {
		return Feature{}, fmt.Errorf("feature %s: %d values for %d fields",
			id, len(values), len(schema.Fields))
	}
	return Feature{id: id, schema: schema, values: slices.Clone(values)}, nil
}

// ID returns the feature identifier.
func (f Feature) ID() string { return f.id }

// Schema returns the schema the feature is bound to.
func (f Feature) Schema() *Schema { return f.schema }

// Values returns a copy of the attribute values in schema order.
func (f Feature) Values() []Value { return slices.Clone(f.values) }

// Value returns the i-th attribute value.
func (f Feature) Value(i int) Value { return f.values[i] }

// Get returns the value of the named field.
func (f Feature) Get(name string) (Value, bool) {
	if f.schema == nil {
		return Value{}, false
	}
	i := f.schema.Index(name)
	if i < 0 {
		return Value{}, false
	}
	return f.values[i], true
}

// Geometry returns the value of the schema's geometry field, or Null.
func (f Feature) Geometry() Value {
	if f.schema == nil || f.schema.GeometryField == "" {
		return Null()
	}
	v, _ := f.Get(f.schema.GeometryField)
	return v
}

// Reschema returns a copy of f bound to schema, keeping id and values.
// The target schema must have the same number of fields.
func Reschema(f Feature, schema *Schema) (Feature, error) {
	return New(schema, f.id, f.values)
}

// Collection is an ordered sequence of features sharing one schema.
type Collection struct {
	Schema   *Schema
	Features []Feature
}

// Len returns the number of features.
func (c *Collection) Len() int { return len(c.Features) }
