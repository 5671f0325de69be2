// Package join merges a projected feature table with an independent CSV
// table according to a declarative list of value mappings.
//
// A mapping file lists one ValueMapping per output column, in output order:
//
//	Language,OldField,NewField,Mapping,Default
//	CsvJoin,id,id,id,
//	Default,name,name,,
//	Coalesce,pop,pop,population,0
//
// The same list can be written as YAML under a top-level "mappings" key.
package join

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Language selects how a mapping derives its output cell.
type Language string

const (
	// LanguageDefault copies OldField, resolved against the left header
	// first and the right header second.
	LanguageDefault Language = "Default"
	// LanguageCsvJoin matches left column OldField with right column Mapping.
	// All CsvJoin mappings together form the join key.
	LanguageCsvJoin Language = "CsvJoin"
	// LanguageCoalesce emits left OldField, or right Mapping when the left
	// cell is empty.
	LanguageCoalesce Language = "Coalesce"
)

// ParseLanguage maps a mapping-file language name to a Language.
// An empty name means LanguageDefault.
func ParseLanguage(s string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return LanguageDefault, nil
	case "csvjoin":
		return LanguageCsvJoin, nil
	case "coalesce":
		return LanguageCoalesce, nil
	default:
		return "", fmt.Errorf("unknown language %q", s)
	}
}

// ValueMapping is one output column of a join.
type ValueMapping struct {
	Language Language `yaml:"language"`
	OldField string   `yaml:"oldField"`
	NewField string   `yaml:"newField"`
	Mapping  string   `yaml:"mapping"`
	Default  string   `yaml:"default"`
}

func (m ValueMapping) validate() error {
	if m.OldField == "" {
		return errors.New("OldField is required")
	}
	if (m.Language == LanguageCsvJoin || m.Language == LanguageCoalesce) && m.Mapping == "" {
		return fmt.Errorf("%s mapping needs a Mapping column", m.Language)
	}
	return nil
}

var csvColumns = []string{"Language", "OldField", "NewField", "Mapping", "Default"}

// Parse decodes a mapping file, choosing YAML for .yaml/.yml names and CSV
// otherwise.
func Parse(filename string, data []byte) ([]ValueMapping, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return ParseCSV(data)
	}
}

// ParseCSV decodes a CSV mapping file. Columns are matched by header name,
// so their order is free; only OldField is mandatory.
func ParseCSV(data []byte) ([]ValueMapping, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\ufeff"))))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, &MappingError{Reason: "empty mapping file"}
	}
	if err != nil {
		return nil, &MappingError{Line: 1, Reason: err.Error()}
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(h)] = i
	}
	if _, ok := index["OldField"]; !ok {
		return nil, &MappingError{Line: 1, Reason: "header has no OldField column"}
	}

	var mappings []ValueMapping
	for line := 2; ; line++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &MappingError{Line: line, Reason: err.Error()}
		}
		cell := func(name string) string {
			if i, ok := index[name]; ok && i < len(rec) {
				return strings.TrimSpace(rec[i])
			}
			return ""
		}
		lang, err := ParseLanguage(cell("Language"))
		if err != nil {
			return nil, &MappingError{Line: line, Reason: err.Error()}
		}
		m := ValueMapping{
			Language: lang,
			OldField: cell("OldField"),
			NewField: cell("NewField"),
			Mapping:  cell("Mapping"),
			Default:  cell("Default"),
		}
		if err := m.validate(); err != nil {
			return nil, &MappingError{Line: line, Reason: err.Error()}
		}
		mappings = append(mappings, m)
	}
	if len(mappings) == 0 {
		return nil, &MappingError{Reason: "no mappings defined"}
	}
	return mappings, nil
}

// ParseYAML decodes a YAML mapping file.
func ParseYAML(data []byte) ([]ValueMapping, error) {
	var doc struct {
		Mappings []ValueMapping `yaml:"mappings"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &MappingError{Reason: err.Error()}
	}
	if len(doc.Mappings) == 0 {
		return nil, &MappingError{Reason: "no mappings defined"}
	}
	for i := range doc.Mappings {
		lang, err := ParseLanguage(string(doc.Mappings[i].Language))
		if err != nil {
			return nil, &MappingError{Reason: fmt.Sprintf("mapping %d: %v", i+1, err)}
		}
		doc.Mappings[i].Language = lang
		if err := doc.Mappings[i].validate(); err != nil {
			return nil, &MappingError{Reason: fmt.Sprintf("mapping %d: %v", i+1, err)}
		}
	}
	return doc.Mappings, nil
}

// WriteTemplate writes a CSV mapping file with one Default mapping per
// column of header, suitable as a starting point for a join.
func WriteTemplate(w io.Writer, header []string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvColumns); err != nil {
		return err
	}
	for _, h := range header {
		if err := cw.Write([]string{string(LanguageDefault), h, h, "", ""}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
