package codegen

import (
	"fmt"
	"strings"

	json "github.com/goccy/go-json"

	"odf-codegen/internal/schema"
)

// scalarTable maps a JSON type and format tag to a spelling. The empty
// format is the untagged type.
type scalarTable map[string]map[string]string

func (t scalarTable) lookup(s *schema.Scalar) (string, error) {
	if v, ok := t[s.Type][s.Format]; ok {
		return v, nil
	}
	return "", schema.UnsupportedFormat(s)
}

var generatedWarning = []string{
	bannerRule,
	"// WARNING: This file is auto-generated from Open Data Fabric Schemas",
	"// See: http://opendatafabric.org/",
	bannerRule,
	"",
}

func withWarning(lines ...string) []string {
	out := make([]string, 0, len(generatedWarning)+len(lines))
	out = append(out, generatedWarning...)
	return append(out, lines...)
}

// literal renders a schema default or example as compact JSON.
func literal(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

// commentLines renders the description and default of m as line comments.
func commentLines(prefix string, m *schema.Meta) []string {
	if m == nil {
		return nil
	}
	var out []string
	if m.Description != "" {
		for _, l := range splitLines(m.Description) {
			out = append(out, strings.TrimRight(prefix+" "+l, " "))
		}
	}
	if m.Default != nil {
		if len(out) > 0 {
			out = append(out, prefix)
		}
		out = append(out, prefix+" Defaults to: "+literal(m.Default))
	}
	if len(m.Examples) > 0 {
		if len(out) > 0 {
			out = append(out, prefix)
		}
		out = append(out, prefix+" Examples:")
		for _, e := range m.Examples {
			out = append(out, prefix+" - "+literal(e))
		}
	}
	return out
}

func rustDoc(m *schema.Meta) []string { return commentLines("///", m) }
