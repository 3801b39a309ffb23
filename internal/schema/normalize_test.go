package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Shapes(t *testing.T) {
	tests := []struct {
		name  string
		file  string
		data  string
		check func(t *testing.T, doc *Document)
	}{
		{
			name: "object keeps property order and required flags",
			file: "Foo.json",
			data: `{
				"$id": "http://open-data-fabric.github.com/schemas/Foo",
				"type": "object",
				"description": "A foo.",
				"additionalProperties": false,
				"required": ["name"],
				"properties": {
					"name": {"type": "string"},
					"count": {"type": "integer", "format": "int64"},
					"config": {"type": "object"},
					"tags": {"type": "array", "items": {"type": "string"}}
				}
			}`,
			check: func(t *testing.T, doc *Document) {
				obj, ok := doc.Node.(*Object)
				require.True(t, ok)
				assert.Equal(t, "A foo.", doc.Description())
				require.Len(t, obj.Properties, 4)
				assert.Equal(t, "name", obj.Properties[0].Name)
				assert.True(t, obj.Properties[0].Required)
				assert.False(t, obj.Properties[1].Required)

				count := obj.Properties[1].Node.(*Scalar)
				assert.Equal(t, "integer", count.Type)
				assert.Equal(t, "int64", count.Format)
				assert.Equal(t, "#/properties/count", count.Path)

				config := obj.Properties[2].Node.(*Scalar)
				assert.Equal(t, "object", config.Type)

				tags := obj.Properties[3].Node.(*Array)
				assert.Equal(t, ShapeScalar, tags.Items.Shape())
			},
		},
		{
			name: "union with global and inline variants",
			file: "Bar.yaml",
			data: `
$id: http://open-data-fabric.github.com/schemas/Bar
oneOf:
  - $ref: /schemas/Foo
  - $ref: "#/$defs/Empty"
root: true
$defs:
  Empty:
    type: object
    additionalProperties: false
`,
			check: func(t *testing.T, doc *Document) {
				u, ok := doc.Node.(*Union)
				require.True(t, ok)
				assert.True(t, u.Root)
				require.Len(t, u.Variants, 2)
				assert.Equal(t, "Foo", u.Variants[0].Ref)
				assert.False(t, u.Variants[0].IsInline())
				assert.Equal(t, "Empty", u.Variants[1].Name)
				require.True(t, u.Variants[1].IsInline())
				assert.Empty(t, u.Variants[1].Inline.Properties)

				require.Len(t, doc.Defs, 1)
				assert.Same(t, u.Variants[1].Inline, doc.Defs[0].Node)
			},
		},
		{
			name: "top-level enum takes document name",
			file: "State.json",
			data: `{"$id": "/schemas/State.json", "type": "string", "enum": ["open", "closed"]}`,
			check: func(t *testing.T, doc *Document) {
				e, ok := doc.Node.(*StringEnum)
				require.True(t, ok)
				assert.Equal(t, "State", e.Name)
				assert.Equal(t, []string{"open", "closed"}, e.Values)
			},
		},
		{
			name: "nested enum uses enumName",
			file: "Opts.json",
			data: `{"$id": "/schemas/Opts", "type": "object", "properties": {
				"mode": {"type": "string", "enum": ["a", "b"], "enumName": "Mode"}
			}}`,
			check: func(t *testing.T, doc *Document) {
				e := doc.Node.(*Object).Properties[0].Node.(*StringEnum)
				assert.Equal(t, "Mode", e.Name)
			},
		},
		{
			name: "defs may refer to later defs",
			file: "Outer.json",
			data: `{"$id": "/schemas/Outer", "oneOf": [{"$ref": "#/$defs/A"}], "$defs": {
				"A": {"type": "object", "properties": {"b": {"$ref": "#/$defs/B"}}},
				"B": {"type": "object", "properties": {"x": {"type": "boolean"}}}
			}}`,
			check: func(t *testing.T, doc *Document) {
				require.Len(t, doc.Defs, 2)
				a := doc.Defs[0].Node.(*Object)
				ref := a.Properties[0].Node.(*Reference)
				assert.True(t, ref.Local)
				assert.Equal(t, "B", ref.Name)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, mustParse(t, tt.file, tt.data))
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		data    string
		wantErr error
		detail  string
	}{
		{
			name:    "additional properties allowed",
			file:    "A.json",
			data:    `{"$id": "/schemas/A", "type": "object", "additionalProperties": true, "properties": {}}`,
			wantErr: ErrAdditionalProperties,
		},
		{
			name:    "additional properties schema",
			file:    "A.json",
			data:    `{"$id": "/schemas/A", "type": "object", "additionalProperties": {"type": "string"}}`,
			wantErr: ErrAdditionalProperties,
		},
		{
			name:    "inline enum without enumName",
			file:    "A.json",
			data:    `{"$id": "/schemas/A", "type": "object", "properties": {"m": {"type": "string", "enum": ["x"]}}}`,
			wantErr: ErrUnsupportedShape,
			detail:  "enumName",
		},
		{
			name:    "union branch without ref",
			file:    "A.json",
			data:    `{"$id": "/schemas/A", "oneOf": [{"type": "string"}]}`,
			wantErr: ErrUnsupportedShape,
			detail:  "must be a $ref",
		},
		{
			name:    "inline variant that is not an object",
			file:    "A.json",
			data:    `{"$id": "/schemas/A", "oneOf": [{"$ref": "#/$defs/S"}], "$defs": {"S": {"type": "string"}}}`,
			wantErr: ErrUnsupportedShape,
			detail:  "want object",
		},
		{
			name:    "dangling local ref",
			file:    "A.json",
			data:    `{"$id": "/schemas/A", "type": "object", "properties": {"x": {"$ref": "#/$defs/Nope"}}}`,
			wantErr: ErrUnsupportedShape,
			detail:  "no definition",
		},
		{
			name:    "unknown type",
			file:    "A.json",
			data:    `{"$id": "/schemas/A", "type": "null"}`,
			wantErr: ErrUnsupportedShape,
		},
		{
			name:    "no type at all",
			file:    "A.json",
			data:    `{"$id": "/schemas/A", "description": "nothing"}`,
			wantErr: ErrUnsupportedShape,
		},
		{
			name:    "missing id",
			file:    "A.json",
			data:    `{"type": "object"}`,
			wantErr: ErrUnsupportedShape,
			detail:  "missing $id",
		},
		{
			name:    "name mismatch",
			file:    "A.json",
			data:    `{"$id": "/schemas/B", "type": "object"}`,
			wantErr: ErrStructuralMismatch,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.file, []byte(tt.data), KindRoot)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			var se *SchemaError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, "A", se.Name)
			assert.Equal(t, tt.data, string(se.Raw))
			assert.Contains(t, err.Error(), tt.data)
			if tt.detail != "" {
				assert.Contains(t, err.Error(), tt.detail)
			}
		})
	}
}

func TestRefName(t *testing.T) {
	assert.Equal(t, "Foo", RefName("/schemas/Foo"))
	assert.Equal(t, "Foo", RefName("http://open-data-fabric.github.com/schemas/Foo.json"))
	assert.Equal(t, "Foo", RefName("Foo"))
}
