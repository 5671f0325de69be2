package join

import (
	"strings"

	"github.com/beetlebugorg/shpdump/internal/tabular"
)

// MergedTable is the result of a join: one column per mapping and one row
// per left row.
type MergedTable = tabular.Table

type side uint8

const (
	sideLeft side = iota
	sideRight
)

type columnRef struct {
	side  side
	index int
	name  string // prefixed when the bare name exists on both sides
}

// namespace resolves column references against both input headers.
type namespace struct {
	headers  [2][]string
	prefixes [2]string
	shared   map[string]bool
}

func newNamespace(left, right []string, leftPrefix, rightPrefix string) *namespace {
	ns := &namespace{
		headers:  [2][]string{left, right},
		prefixes: [2]string{leftPrefix, rightPrefix},
		shared:   make(map[string]bool),
	}
	inLeft := make(map[string]bool, len(left))
	for _, h := range left {
		inLeft[h] = true
	}
	for _, h := range right {
		if inLeft[h] {
			ns.shared[h] = true
		}
	}
	return ns
}

func (ns *namespace) qualified(s side, name string) string {
	if ns.shared[name] && ns.prefixes[s] != "" {
		return ns.prefixes[s] + name
	}
	return name
}

// resolve finds ref on one side, accepting the bare or the prefixed name.
func (ns *namespace) resolve(s side, ref string) (columnRef, bool) {
	for i, h := range ns.headers[s] {
		if h == ref || ns.qualified(s, h) == ref {
			return columnRef{side: s, index: i, name: ns.qualified(s, h)}, true
		}
	}
	return columnRef{}, false
}

// resolveAny prefers an exact prefixed match, then the left side.
func (ns *namespace) resolveAny(ref string) (columnRef, bool) {
	for _, s := range []side{sideLeft, sideRight} {
		for i, h := range ns.headers[s] {
			if ns.shared[h] && ns.prefixes[s] != "" && ns.prefixes[s]+h == ref {
				return columnRef{side: s, index: i, name: ref}, true
			}
		}
	}
	if c, ok := ns.resolve(sideLeft, ref); ok {
		return c, true
	}
	return ns.resolve(sideRight, ref)
}

// column is one resolved output column.
type column struct {
	lang  Language
	src   columnRef
	other columnRef // right-side column for CsvJoin and Coalesce
	def   string
}

func (c column) cell(left, right []string) string {
	var v string
	switch c.lang {
	case LanguageCsvJoin, LanguageCoalesce:
		v = at(left, c.src.index)
		if v == "" && right != nil {
			v = at(right, c.other.index)
		}
	default:
		if c.src.side == sideLeft {
			v = at(left, c.src.index)
		} else if right != nil {
			v = at(right, c.src.index)
		}
	}
	if v == "" {
		return c.def
	}
	return v
}

func at(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

// Join merges left and right according to mappings.
//
// Every left row produces exactly one output row, in left order. When any
// CsvJoin mapping is present, a left row is paired with the first right row
// whose key columns are equal; otherwise rows are paired by position. Right
// columns of unpaired rows are empty. leftPrefix and rightPrefix qualify
// column names that exist in both headers.
func Join(left, right *tabular.Table, mappings []ValueMapping, leftPrefix, rightPrefix string) (*MergedTable, error) {
	ns := newNamespace(left.Header, right.Header, leftPrefix, rightPrefix)

	columns := make([]column, len(mappings))
	header := make([]string, len(mappings))
	seen := make(map[string]bool, len(mappings))
	var leftKeys, rightKeys []int

	for i, m := range mappings {
		c := column{lang: m.Language, def: m.Default}
		switch m.Language {
		case LanguageCsvJoin, LanguageCoalesce:
			l, ok := ns.resolve(sideLeft, m.OldField)
			if !ok {
				return nil, &JoinError{Mapping: i, Column: m.OldField, Reason: "column not found in input"}
			}
			r, ok := ns.resolve(sideRight, m.Mapping)
			if !ok {
				return nil, &JoinError{Mapping: i, Column: m.Mapping, Reason: "column not found in other input"}
			}
			c.src, c.other = l, r
			if m.Language == LanguageCsvJoin {
				leftKeys = append(leftKeys, l.index)
				rightKeys = append(rightKeys, r.index)
			}
		default:
			ref, ok := ns.resolveAny(m.OldField)
			if !ok {
				return nil, &JoinError{Mapping: i, Column: m.OldField, Reason: "column not found in either input"}
			}
			c.src = ref
		}

		name := m.NewField
		if name == "" {
			name = c.src.name
		}
		if seen[name] {
			return nil, &JoinError{Mapping: i, Column: name, Reason: "duplicate output column"}
		}
		seen[name] = true
		header[i] = name
		columns[i] = c
	}

	match := positionalMatcher(right)
	if len(leftKeys) > 0 {
		match = keyMatcher(right, leftKeys, rightKeys)
	}

	out := &MergedTable{Header: header, Rows: make([][]string, 0, len(left.Rows))}
	for li, lrow := range left.Rows {
		rrow := match(li, lrow)
		row := make([]string, len(columns))
		for i, c := range columns {
			row[i] = c.cell(lrow, rrow)
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}

type matcher func(index int, left []string) []string

func positionalMatcher(right *tabular.Table) matcher {
	return func(index int, _ []string) []string {
		if index < len(right.Rows) {
			return right.Rows[index]
		}
		return nil
	}
}

func keyMatcher(right *tabular.Table, leftKeys, rightKeys []int) matcher {
	first := make(map[string]int, len(right.Rows))
	for r, row := range right.Rows {
		k, ok := joinKey(row, rightKeys)
		if !ok {
			continue
		}
		if _, dup := first[k]; !dup {
			first[k] = r
		}
	}
	return func(_ int, left []string) []string {
		k, ok := joinKey(left, leftKeys)
		if !ok {
			return nil
		}
		if r, found := first[k]; found {
			return right.Rows[r]
		}
		return nil
	}
}

// joinKey builds the composite key. Rows whose key cells are all empty
// never match.
func joinKey(row []string, cols []int) (string, bool) {
	parts := make([]string, len(cols))
	empty := true
	for i, c := range cols {
		parts[i] = at(row, c)
		if parts[i] != "" {
			empty = false
		}
	}
	return strings.Join(parts, "\x1f"), !empty
}
