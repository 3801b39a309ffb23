package codegen

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"odf-codegen/internal/schema"
)

func TestRender_FooBarFlatbuffers(t *testing.T) {
	out := render(t, fooBar(t), "flatbuffers")

	var body []string
	for _, s := range out.Sections {
		body = append(body, banner(s.Name)...)
		for _, u := range s.Units() {
			body = append(body, u.Lines...)
			body = append(body, "")
		}
	}
	assert.Equal(t, []string{
		bannerRule,
		"// Foo",
		"// https://github.com/kamu-data/open-data-fabric/blob/master/open-data-fabric.md#foo-schema",
		bannerRule,
		"",
		"table Foo {",
		"  name: string;",
		"  count: int32 = null;",
		"}",
		"",
		bannerRule,
		"// Bar",
		"// https://github.com/kamu-data/open-data-fabric/blob/master/open-data-fabric.md#bar-schema",
		bannerRule,
		"",
		"table BarEmpty {",
		"}",
		"",
		"union Bar {",
		"  Foo,",
		"  BarEmpty,",
		"}",
		"",
	}, body)

	lines := out.Lines()
	assert.Equal(t, "struct Timestamp {", lines[len(generatedWarning)])
	assert.Equal(t, body, lines[len(out.Preamble):])
}

func TestRender_FooBarRustDTOs(t *testing.T) {
	out := render(t, fooBar(t), "rust-dtos")

	require.Len(t, out.Sections, 2)
	assert.Equal(t, "Bar", out.Sections[0].Name, "unordered notations follow name order")
	assert.Empty(t, out.Sections[0].Auxiliary, "empty variant has no payload type")

	assert.Equal(t, []string{
		"#[derive(Clone, PartialEq, Eq, Debug)]",
		"pub struct Foo {",
		"    pub name: String,",
		"    pub count: Option<i32>,",
		"}",
	}, unitLines(t, out, "Foo", "Foo"))

	assert.Equal(t, []string{
		"#[derive(Clone, PartialEq, Eq, Debug)]",
		"pub enum Bar {",
		"    Foo(Foo),",
		"    Empty,",
		"}",
		"",
		"impl_enum_with_variants!(Bar);",
		"impl_enum_variant!(Bar::Foo(Foo));",
	}, unitLines(t, out, "Bar", "Bar"))
}

func TestRender_Deterministic(t *testing.T) {
	files := map[string]string{
		"Foo.json":  fooSchema,
		"Bar.json":  barSchema,
		"Mode.json": `{"$id": "/schemas/Mode", "type": "string", "enum": ["append", "snapshot"]}`,
		"Plan.json": `{"$id": "/schemas/Plan", "type": "object", "required": ["steps", "mode"], "properties": {
			"steps": {"type": "array", "items": {"$ref": "/schemas/Bar"}},
			"mode": {"$ref": "/schemas/Mode"},
			"at": {"type": "string", "format": "date-time"}
		}}`,
	}
	for _, lang := range Languages() {
		t.Run(lang, func(t *testing.T) {
			g, err := Lookup(lang, Options{})
			require.NoError(t, err)
			first, err := g.Generate(parseSet(t, files), RenderOptions{})
			require.NoError(t, err)
			second, err := g.Generate(parseSet(t, files), RenderOptions{})
			require.NoError(t, err)
			assert.True(t, bytes.Equal(first, second))
		})
	}
}

func TestRender_OptionalWrapping(t *testing.T) {
	set := parseSet(t, map[string]string{
		"Rec.json": `{"$id": "/schemas/Rec", "type": "object", "required": ["a", "tags"], "properties": {
			"a": {"type": "integer", "format": "int64"},
			"b": {"type": "integer", "format": "int64"},
			"tags": {"type": "array", "items": {"type": "string"}},
			"labels": {"type": "array", "items": {"type": "string"}},
			"note": {"type": "string"}
		}}`,
	})
	tests := []struct {
		notation string
		want     []string
	}{
		{"flatbuffers", []string{"  a: int64;", "  b: int64 = null;", "  tags: [string];", "  labels: [string];", "  note: string;"}},
		{"rust-dtos", []string{"    pub a: i64,", "    pub b: Option<i64>,", "    pub tags: Vec<String>,", "    pub labels: Option<Vec<String>>,", "    pub note: Option<String>,"}},
		{"scala", []string{"  a: Long,", "  b: Option[Long] = None,", "  tags: Vector[String],", "  labels: Option[Vector[String]] = None,", "  note: Option[String] = None,"}},
	}
	for _, tt := range tests {
		t.Run(tt.notation, func(t *testing.T) {
			lines := unitLines(t, render(t, set, tt.notation), "Rec", "Rec")
			require.Greater(t, len(lines), len(tt.want)+1)
			fields := lines[len(lines)-1-len(tt.want) : len(lines)-1]
			assert.Equal(t, tt.want, fields)
		})
	}
}

func TestRender_InlineVariantPlacement(t *testing.T) {
	set := parseSet(t, map[string]string{
		"Foo.json": fooSchema,
		"Src.json": `{"$id": "/schemas/Src", "oneOf": [{"$ref": "#/$defs/Url"}, {"$ref": "/schemas/Foo"}], "$defs": {
			"Url": {"type": "object", "required": ["url"], "properties": {"url": {"type": "string", "format": "url"}}}
		}}`,
	})

	t.Run("after primary", func(t *testing.T) {
		out := render(t, set, "rust-dtos")
		s, ok := out.Section("Src")
		require.True(t, ok)
		units := s.Units()
		require.Len(t, units, 2)
		assert.Equal(t, "Src", units[0].Name)
		assert.False(t, units[0].Auxiliary)
		assert.Equal(t, "SrcUrl", units[1].Name)
		assert.True(t, units[1].Auxiliary)
		assert.Contains(t, units[0].Lines, "    Url(SrcUrl),")
		assert.Contains(t, units[1].Lines, "    pub url: String,")
	})

	t.Run("before primary when aux first", func(t *testing.T) {
		out := render(t, set, "flatbuffers")
		s, _ := out.Section("Src")
		units := s.Units()
		require.Len(t, units, 2)
		assert.Equal(t, []string{"SrcUrl", "Src"}, []string{units[0].Name, units[1].Name})
	})

	t.Run("scala extends parent", func(t *testing.T) {
		out := render(t, set, "scala")
		assert.Equal(t, []string{"case class SrcUrl (", "  url: URI,", ") extends Src"}, unitLines(t, out, "Src", "SrcUrl"))
		assert.Contains(t, unitLines(t, out, "Src", "Src"), "  type Url = SrcUrl")
	})
}

func TestRender_AuxFirstNestedOrder(t *testing.T) {
	unitNames := func(s *Section) []string {
		var names []string
		for _, u := range s.Units() {
			names = append(names, u.Name)
		}
		return names
	}

	t.Run("enum of an inline variant", func(t *testing.T) {
		set := parseSet(t, map[string]string{
			"Fetch.json": `{"$id": "/schemas/Fetch", "oneOf": [{"$ref": "#/$defs/Glob"}], "$defs": {
				"Glob": {"type": "object", "properties": {
					"order": {"type": "string", "enum": ["byName"], "enumName": "SourceOrdering"}
				}}
			}}`,
		})
		out := render(t, set, "flatbuffers")
		s, ok := out.Section("Fetch")
		require.True(t, ok)
		assert.Equal(t, []string{"SourceOrdering", "FetchGlob", "Fetch"}, unitNames(s))
		assert.Contains(t, unitLines(t, out, "Fetch", "FetchGlob"), "  order: SourceOrdering = null;")
	})

	t.Run("definition already requested by the primary", func(t *testing.T) {
		set := parseSet(t, map[string]string{
			"Read.json": `{"$id": "/schemas/Read", "type": "object", "properties": {
				"opts": {"$ref": "#/$defs/Options"},
				"limits": {"$ref": "#/$defs/Limits"}
			}, "$defs": {
				"Options": {"type": "object", "properties": {"limits": {"$ref": "#/$defs/Limits"}}},
				"Limits": {"type": "object", "properties": {"rows": {"type": "integer"}}}
			}}`,
		})
		s, ok := render(t, set, "flatbuffers").Section("Read")
		require.True(t, ok)
		assert.Equal(t, []string{"ReadLimits", "ReadOptions", "Read"}, unitNames(s))
	})

	t.Run("primary first keeps request order", func(t *testing.T) {
		set := parseSet(t, map[string]string{
			"Fetch.json": `{"$id": "/schemas/Fetch", "oneOf": [{"$ref": "#/$defs/Glob"}], "$defs": {
				"Glob": {"type": "object", "properties": {
					"order": {"type": "string", "enum": ["byName"], "enumName": "SourceOrdering"}
				}}
			}}`,
		})
		s, ok := render(t, set, "rust-dtos").Section("Fetch")
		require.True(t, ok)
		assert.Equal(t, []string{"Fetch", "FetchGlob", "SourceOrdering"}, unitNames(s))
	})
}

func TestRender_EnumCapitalization(t *testing.T) {
	set := parseSet(t, map[string]string{
		"Compression.json": `{"$id": "/schemas/Compression", "type": "string", "enum": ["gzip", "zip", "xZ"]}`,
	})
	lines := unitLines(t, render(t, set, "flatbuffers"), "Compression", "Compression")
	assert.Equal(t, []string{"enum Compression: int32 {", "  Gzip,", "  Zip,", "  XZ,", "}"}, lines)
}

func TestRender_InlineEnumAndLocalDef(t *testing.T) {
	set := parseSet(t, map[string]string{
		"Read.json": `{"$id": "/schemas/Read", "type": "object", "required": ["opts"], "properties": {
			"opts": {"$ref": "#/$defs/Options"},
			"compression": {"type": "string", "enum": ["gzip"], "enumName": "CompressionFormat"}
		}, "$defs": {"Options": {"type": "object", "properties": {"header": {"type": "boolean"}}}}}`,
	})
	out := render(t, set, "rust-dtos")
	s, _ := out.Section("Read")
	var names []string
	for _, u := range s.Auxiliary {
		names = append(names, u.Name)
	}
	assert.Equal(t, []string{"ReadOptions", "CompressionFormat"}, names)

	primary := unitLines(t, out, "Read", "Read")
	assert.Contains(t, primary, "    pub opts: ReadOptions,")
	assert.Contains(t, primary, "    pub compression: Option<CompressionFormat>,")
	assert.Contains(t, unitLines(t, out, "Read", "CompressionFormat"), "    Gzip,")
}

func TestRender_FlatbuffersUnionArraysAndRoots(t *testing.T) {
	set := parseSet(t, map[string]string{
		"Foo.json": fooSchema,
		"Bar.json": strings.Replace(barSchema, `"oneOf"`, `"root": true, "oneOf"`, 1),
		"A.json":   `{"$id": "/schemas/A", "type": "object", "properties": {"bars": {"type": "array", "items": {"$ref": "/schemas/Bar"}}}}`,
		"B.json":   `{"$id": "/schemas/B", "type": "object", "properties": {"bars": {"type": "array", "items": {"$ref": "/schemas/Bar"}}}}`,
	})
	out := render(t, set, "flatbuffers")

	assert.Contains(t, unitLines(t, out, "A", "A"), "  bars: [BarWrapper];")
	assert.Equal(t, []string{"table BarWrapper { value: Bar; }"}, unitLines(t, out, "A", "BarWrapper"))

	b, _ := out.Section("B")
	assert.Empty(t, b.Auxiliary, "wrapper tables are declared once per run")
	assert.Contains(t, unitLines(t, out, "B", "B"), "  bars: [BarWrapper];")

	bar := unitLines(t, out, "Bar", "Bar")
	assert.Equal(t, []string{"}", "", "table BarRoot {", "  value: Bar;", "}"}, bar[len(bar)-5:])
}

func TestRender_SkipIncludeAndOverrides(t *testing.T) {
	set := parseSet(t, map[string]string{
		"Foo.json":      fooSchema,
		"Bar.json":      barSchema,
		"Manifest.json": `{"$id": "/schemas/Manifest", "type": "object", "properties": {"version": {"type": "integer"}}}`,
	})
	n := mustNotation(t, "rust-dtos")

	out, err := Render(set, n, RenderOptions{})
	require.NoError(t, err)
	_, ok := out.Section("Manifest")
	assert.False(t, ok, "Manifest is skipped by default")

	out, err = Render(set, n, RenderOptions{Skip: []string{}, Include: []string{"Manifest", "Foo"}})
	require.NoError(t, err)
	assert.Len(t, out.Sections, 2)

	out, err = Render(set, n, RenderOptions{Overrides: map[string]string{"Foo": "pub type Foo = String;\n"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"pub type Foo = String;"}, unitLines(t, out, "Foo", "Foo"))
}

func TestRender_Errors(t *testing.T) {
	tests := []struct {
		name     string
		files    map[string]string
		notation string
		check    func(t *testing.T, err error)
	}{
		{
			name: "format without mapping",
			files: map[string]string{"Win.json": `{"$id": "/schemas/Win", "type": "object", "properties": {
				"range": {"type": "string", "format": "date-time-interval"}}}`},
			notation: "rust-dtos",
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, schema.ErrUnsupportedFormat)
				assert.Contains(t, err.Error(), "#/properties/range")
			},
		},
		{
			name: "unknown format",
			files: map[string]string{"Win.json": `{"$id": "/schemas/Win", "type": "object", "properties": {
				"x": {"type": "string", "format": "ipv6"}}}`},
			notation: "flatbuffers",
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, schema.ErrUnsupportedFormat)
			},
		},
		{
			name:     "reference to unknown schema",
			files:    map[string]string{"Win.json": `{"$id": "/schemas/Win", "type": "object", "properties": {"x": {"$ref": "/schemas/Nope"}}}`},
			notation: "go",
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, schema.ErrUnsupportedShape)
				assert.Contains(t, err.Error(), `"Nope"`)
			},
		},
		{
			name:     "shape outside the notation",
			files:    map[string]string{"MetadataEvent.json": strings.Replace(fooSchema, "/Foo", "/MetadataEvent", 1)},
			notation: "rust-enum-flags",
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, schema.ErrUnsupportedShape)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Render(parseSet(t, tt.files), mustNotation(t, tt.notation), RenderOptions{})
			require.Error(t, err)
			assert.Nil(t, out)

			var se *schema.SchemaError
			require.ErrorAs(t, err, &se)
			assert.NotEmpty(t, se.Raw)
			tt.check(t, err)
		})
	}
}

func TestOutput_WriteTo(t *testing.T) {
	out := render(t, fooBar(t), "scala")
	var buf bytes.Buffer
	n, err := out.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)
	assert.Equal(t, out.Bytes(), buf.Bytes())
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))
	assert.True(t, strings.HasPrefix(buf.String(), "/*\n"))
}
