package codegen

import (
	"testing"

	"github.com/stretchr/testify/require"

	"odf-codegen/internal/schema"
)

const (
	fooSchema = `{
	"$id": "http://open-data-fabric.github.com/schemas/Foo",
	"type": "object",
	"additionalProperties": false,
	"required": ["name"],
	"properties": {
		"name": {"type": "string"},
		"count": {"type": "integer"}
	}
}`
	barSchema = `{
	"$id": "http://open-data-fabric.github.com/schemas/Bar",
	"oneOf": [{"$ref": "/schemas/Foo"}, {"$ref": "#/$defs/Empty"}],
	"$defs": {"Empty": {"type": "object", "additionalProperties": false}}
}`
)

// parseSet parses each file body under its name into one set.
func parseSet(t *testing.T, files map[string]string) *schema.Set {
	t.Helper()
	set := schema.NewSet()
	for name, body := range files {
		doc, err := schema.Parse(name, []byte(body), schema.KindRoot)
		require.NoError(t, err, name)
		set.Add(doc)
	}
	return set
}

func fooBar(t *testing.T) *schema.Set {
	return parseSet(t, map[string]string{"Foo.json": fooSchema, "Bar.json": barSchema})
}

func mustNotation(t *testing.T, name string) Notation {
	t.Helper()
	n, ok := NotationFor(name, Options{})
	require.True(t, ok, name)
	return n
}

func render(t *testing.T, set *schema.Set, notation string) *Output {
	t.Helper()
	out, err := Render(set, mustNotation(t, notation), RenderOptions{})
	require.NoError(t, err)
	return out
}

// unitLines returns the lines of the named unit.
func unitLines(t *testing.T, out *Output, doc, unit string) []string {
	t.Helper()
	s, ok := out.Section(doc)
	require.True(t, ok, "section %s", doc)
	for _, u := range s.Units() {
		if u.Name == unit {
			return u.Lines
		}
	}
	require.Failf(t, "missing unit", "%s in section %s", unit, doc)
	return nil
}
