package feature

import "slices"

// FieldType is the semantic type of a Field.
type FieldType uint8

const (
	FieldText FieldType = iota
	FieldNumber
	FieldDate
	FieldGeometry
)

func (t FieldType) String() string {
	switch t {
	case FieldText:
		return "Text"
	case FieldNumber:
		return "Number"
	case FieldDate:
		return "Date"
	case FieldGeometry:
		return "Geometry"
	default:
		return "Unknown"
	}
}

// Name identifies a schema.
type Name struct {
	Namespace string
	Local     string
}

func (n Name) String() string {
	if n.Namespace == "" {
		return n.Local
	}
	return n.Namespace + ":" + n.Local
}

// Field describes one attribute of a schema.
type Field struct {
	Name     string
	Type     FieldType
	Nullable bool
	// Length and Precision size the DBF column. Zero means writer default.
	Length    uint8
	Precision uint8
}

// Schema is the ordered field definition shared by a feature collection.
//
// A Schema is treated as immutable once features reference it; Normalize and
// Retype return new schemas.
type Schema struct {
	Name   Name
	Fields []Field
	// GeometryField names the Geometry-typed field in Fields, "" when none.
	GeometryField string
	Abstract      bool
	Description   string
	// CRS is the coordinate reference system as opaque WKT (from a .prj).
	CRS string
}

// TypeName returns the local part of the schema name.
func (s *Schema) TypeName() string {
	return s.Name.Local
}

// FieldNames returns the field names in schema order.
func (s *Schema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Index returns the position of the named field, or -1.
func (s *Schema) Index(name string) int {
	for i, f := range s.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the schema.
func (s *Schema) Clone() *Schema {
	c := *s
	c.Fields = slices.Clone(s.Fields)
	return &c
}
