package feature

import (
	"fmt"
	"strings"
)

// ValidationError indicates a schema that violates shapefile constraints.
// Every offending field name is reported, not just the first.
type ValidationError struct {
	Schema     string
	LongNames  []string // field names longer than MaxFieldNameLength
	Duplicates []string // field names declared more than once
	FieldCount int      // set when the schema exceeds MaxFieldCount
}

func (e *ValidationError) Error() string {
	var reasons []string
	if len(e.LongNames) > 0 {
		reasons = append(reasons, fmt.Sprintf("field names longer than %d characters: %v",
			MaxFieldNameLength, e.LongNames))
	}
	if e.FieldCount > MaxFieldCount {
		reasons = append(reasons, fmt.Sprintf("more than %d fields: %d", MaxFieldCount, e.FieldCount))
	}
	if len(e.Duplicates) > 0 {
		reasons = append(reasons, fmt.Sprintf("duplicate field names: %v", e.Duplicates))
	}
	return fmt.Sprintf("invalid schema %q: %s", e.Schema, strings.Join(reasons, "; "))
}

// RebuildError indicates a merged row that cannot be turned back into a feature.
type RebuildError struct {
	Field  string
	Row    int // -1 when the error concerns the header
	Reason string
}

func (e *RebuildError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("rebuild: field %q: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("rebuild: row %d field %q: %s", e.Row, e.Field, e.Reason)
}
