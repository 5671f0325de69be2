package join

import "fmt"

// JoinError indicates a mapping that cannot be executed against the inputs.
type JoinError struct {
	Mapping int    // zero-based index of the offending mapping, -1 if none
	Column  string // unresolved or duplicated column name
	Reason  string
}

func (e *JoinError) Error() string {
	if e.Mapping < 0 {
		return fmt.Sprintf("join: %s: %q", e.Reason, e.Column)
	}
	return fmt.Sprintf("join: mapping %d: %s: %q", e.Mapping+1, e.Reason, e.Column)
}

// MappingError indicates a malformed mapping file.
type MappingError struct {
	Line   int
	Reason string
}

func (e *MappingError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("mapping line %d: %s", e.Line, e.Reason)
	}
	return fmt.Sprintf("mapping: %s", e.Reason)
}
