package feature

// Shapefile (DBF) hard limits.
const (
	MaxFieldNameLength = 10
	MaxFieldCount      = 255
)

// ValidateSchema checks s against the shapefile format constraints.
// Returns *ValidationError naming every offending field.
func ValidateSchema(s *Schema) error {
	verr := &ValidationError{Schema: s.Name.String()}

	seen := make(map[string]bool, len(s.Fields))
	for _, f := range s.Fields {
		// bytes, not runes: the DBF header slot is 10 bytes plus a NUL
		if len(f.Name) > MaxFieldNameLength {
			verr.LongNames = append(verr.LongNames, f.Name)
		}
		if seen[f.Name] {
			verr.Duplicates = append(verr.Duplicates, f.Name)
		}
		seen[f.Name] = true
	}
	if len(s.Fields) > MaxFieldCount {
		verr.FieldCount = len(s.Fields)
	}

	if len(verr.LongNames) > 0 || len(verr.Duplicates) > 0 || verr.FieldCount > 0 {
		return verr
	}
	return nil
}
