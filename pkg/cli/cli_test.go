package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"odf-codegen/internal/schema"
)

func TestCodegen(t *testing.T) {
	dir := schemaDir(t, nil)

	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, stdout string, err error)
	}{
		{
			name: "flatbuffers to stdout",
			args: []string{"codegen", "--language", "flatbuffers", dir},
			check: func(t *testing.T, stdout string, err error) {
				require.NoError(t, err)
				assert.Contains(t, stdout, "table Foo {")
				assert.Contains(t, stdout, "union Bar {")
			},
		},
		{
			name: "go with package override",
			args: []string{"codegen", "-l", "go", "--package", "odfv1", dir},
			check: func(t *testing.T, stdout string, err error) {
				require.NoError(t, err)
				assert.Contains(t, stdout, "package odfv1")
			},
		},
		{
			name: "markdown routes to the doc renderer",
			args: []string{"codegen", "--language", "markdown", dir},
			check: func(t *testing.T, stdout string, err error) {
				require.NoError(t, err)
				assert.Contains(t, stdout, "## Reference Information")
				assert.Contains(t, stdout, "##### Bar::Empty")
			},
		},
		{
			name: "unknown language",
			args: []string{"codegen", "--language", "cobol", dir},
			check: func(t *testing.T, _ string, err error) {
				require.Error(t, err)
				assert.Contains(t, err.Error(), `unknown language "cobol"`)
			},
		},
		{
			name: "language is required",
			args: []string{"codegen", dir},
			check: func(t *testing.T, _ string, err error) {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "language")
			},
		},
		{
			name: "no schema directory",
			args: []string{"codegen", "--language", "scala"},
			check: func(t *testing.T, _ string, err error) {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "no schema directory")
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := runCLI(t, tt.args...)
			tt.check(t, stdout, err)
		})
	}
}

func TestCodegen_OutputFile(t *testing.T) {
	dir := schemaDir(t, nil)
	dest := filepath.Join(t.TempDir(), "gen", "odf.fbs")

	stdout, _, err := runCLI(t, "codegen", "--language", "flatbuffers", "--o-file", dest, dir)
	require.NoError(t, err)
	assert.Empty(t, stdout)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Contains(t, string(data), "table Foo {")
}

func TestCodegen_LoadErrorNamesSchema(t *testing.T) {
	dir := schemaDir(t, map[string]string{"fragments/Baz.json": fooSchema})

	_, _, err := runCLI(t, "codegen", "--language", "flatbuffers", dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, schema.ErrStructuralMismatch)
	var se *schema.SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "Baz", se.Name)
}

func TestGenerate(t *testing.T) {
	dir := schemaDir(t, nil)
	project := t.TempDir()
	cfgPath := writeFile(t, project, "odfgen.yaml", "schemas_dir: "+dir+`
outputs:
  flatbuffers: out/odf.fbs
  markdown: out/reference.md
`)

	stdout, _, err := runCLI(t, "--config", cfgPath, "generate")
	require.NoError(t, err)
	assert.Contains(t, stdout, "flatbuffers")

	fbs, err := os.ReadFile(filepath.Join(project, "out/odf.fbs"))
	require.NoError(t, err)
	assert.Contains(t, string(fbs), "table Foo {")
	md, err := os.ReadFile(filepath.Join(project, "out/reference.md"))
	require.NoError(t, err)
	assert.Contains(t, string(md), "## Reference Information")
}

func TestGenerate_FailureWritesNothing(t *testing.T) {
	dir := schemaDir(t, map[string]string{
		"fragments/Digest.json": `{"$id": "/schemas/Digest", "type": "object", "properties": {"hash": {"type": "string", "format": "sha3-256"}}}`,
	})
	project := t.TempDir()
	cfgPath := writeFile(t, project, "odfgen.yaml", `outputs:
  flatbuffers: odf.fbs
  rust-dtos: dtos.rs
`)

	_, _, err := runCLI(t, "--config", cfgPath, "generate", dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, schema.ErrUnsupportedFormat)
	assert.Contains(t, err.Error(), "generate rust-dtos")

	_, statErr := os.Stat(filepath.Join(project, "odf.fbs"))
	assert.ErrorIs(t, statErr, os.ErrNotExist)
}

func TestGenerate_NoOutputs(t *testing.T) {
	_, _, err := runCLI(t, "generate", schemaDir(t, nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no outputs configured")
}

func TestDocsAndTemplate(t *testing.T) {
	dir := schemaDir(t, nil)
	work := t.TempDir()
	ref := filepath.Join(work, "generated", "reference.md")

	_, _, err := runCLI(t, "docs", dir, ref)
	require.NoError(t, err)

	src := writeFile(t, work, "spec.tpl.md", "# ODF\n\n![reference](generated/reference.md)\n")
	dest := filepath.Join(work, "spec.md")
	_, _, err = runCLI(t, "template", src, dest)
	require.NoError(t, err)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# ODF\n\n<!-- Code generated"))
	assert.Contains(t, string(data), "##### Foo")
}

func TestLint(t *testing.T) {
	tests := []struct {
		name  string
		extra map[string]string
		args  []string
		check func(t *testing.T, stdout string, err error)
	}{
		{
			name: "clean set",
			check: func(t *testing.T, stdout string, err error) {
				require.NoError(t, err)
				assert.Contains(t, stdout, "ok (0 issues)")
			},
		},
		{
			name:  "warnings pass without strict",
			extra: map[string]string{"fragments/Short.json": `{"$id": "/schemas/Short", "type": "object"}`},
			check: func(t *testing.T, stdout string, err error) {
				require.NoError(t, err)
				assert.Contains(t, stdout, "ODF004 warning")
				assert.Contains(t, stdout, "0 error(s), 1 warning(s)")
				assert.NotContains(t, stdout, "\033[", "no color when not a terminal")
			},
		},
		{
			name:  "warnings fail with strict",
			extra: map[string]string{"fragments/Short.json": `{"$id": "/schemas/Short", "type": "object"}`},
			args:  []string{"--strict"},
			check: func(t *testing.T, _ string, err error) {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "lint failed: 0 error(s), 1 warning(s)")
			},
		},
		{
			name:  "dangling reference fails",
			extra: map[string]string{"fragments/Ref.json": `{"$id": "http://open-data-fabric.github.com/schemas/Ref", "type": "object", "properties": {"x": {"$ref": "/schemas/Gone"}}}`},
			check: func(t *testing.T, stdout string, err error) {
				require.Error(t, err)
				assert.Contains(t, stdout, `reference to unknown schema "Gone"`)
			},
		},
		{
			name: "invalid type and dangling local reference are reported",
			extra: map[string]string{
				"fragments/Typo.json": `{"$id": "http://open-data-fabric.github.com/schemas/Typo", "type": "strng"}`,
				"fragments/Loc.json":  `{"$id": "http://open-data-fabric.github.com/schemas/Loc", "type": "object", "properties": {"x": {"$ref": "#/$defs/Missing"}}}`,
			},
			check: func(t *testing.T, stdout string, err error) {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "lint failed: 2 error(s)")
				assert.Contains(t, stdout, "Typo.json: ODF003 error: invalid schema")
				assert.Contains(t, stdout, `Loc.json: ODF002 error: local reference "Missing" at #/properties/x has no definition`)
			},
		},
		{
			name:  "json report",
			extra: map[string]string{"fragments/Short.json": `{"$id": "/schemas/Short", "type": "object"}`},
			args:  []string{"-o", "json"},
			check: func(t *testing.T, stdout string, err error) {
				require.NoError(t, err)
				var report struct {
					Issues []struct {
						Schema string `json:"schema"`
						Rule   string `json:"rule"`
					} `json:"issues"`
				}
				require.NoError(t, json.Unmarshal([]byte(stdout), &report))
				require.Len(t, report.Issues, 1)
				assert.Equal(t, "Short", report.Issues[0].Schema)
				assert.Equal(t, "ODF004", report.Issues[0].Rule)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"lint", schemaDir(t, tt.extra)}, tt.args...)
			stdout, _, err := runCLI(t, args...)
			tt.check(t, stdout, err)
		})
	}
}

func TestListAndOrder(t *testing.T) {
	dir := schemaDir(t, nil)

	stdout, _, err := runCLI(t, "list", dir)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "NAME"))
	assert.True(t, strings.HasPrefix(lines[1], "Bar"))
	assert.Contains(t, lines[1], "union")

	stdout, _, err = runCLI(t, "-o", "json", "list", dir)
	require.NoError(t, err)
	var entries []schemaEntry
	require.NoError(t, json.Unmarshal([]byte(stdout), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, schemaEntry{Name: "Foo", Kind: "fragment", Shape: "object", Path: filepath.Join(dir, "fragments/Foo.json")}, entries[1])

	stdout, _, err = runCLI(t, "order", dir)
	require.NoError(t, err)
	assert.Equal(t, "Foo\nBar\n", stdout)
}

func TestLanguagesVersionConfig(t *testing.T) {
	stdout, _, err := runCLI(t, "languages")
	require.NoError(t, err)
	names := strings.Fields(stdout)
	assert.Contains(t, names, "markdown")
	assert.Contains(t, names, "openapi")
	assert.Contains(t, names, "rust-enum-flags")
	assert.IsIncreasing(t, names)

	stdout, _, err = runCLI(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "odfgen version dev (commit: none)\n", stdout)

	stdout, _, err = runCLI(t, "-o", "json", "version")
	require.NoError(t, err)
	assert.JSONEq(t, `{"version": "dev", "commit": "none"}`, stdout)

	stdout, _, err = runCLI(t, "config", "schema")
	require.NoError(t, err)
	assert.Contains(t, stdout, `"schemas_dir"`)
}

func TestConfigShow(t *testing.T) {
	project := t.TempDir()
	cfgPath := writeFile(t, project, "odfgen.yaml", "layout: flat\nnotations:\n  cobol: {}\n")

	stdout, stderr, err := runCLI(t, "--config", cfgPath, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, stdout, "layout: flat")
	assert.Contains(t, stderr, `notations: unknown language \"cobol\"`)
}

func TestRoot_InvalidOutputFormat(t *testing.T) {
	_, _, err := runCLI(t, "-o", "xml", "languages")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported output format "xml"`)
}

func TestRoot_LogLevelFlagOverridesConfig(t *testing.T) {
	dir := schemaDir(t, nil)
	project := t.TempDir()
	cfgPath := writeFile(t, project, "odfgen.yaml", "log_level: error\n")

	_, stderr, err := runCLI(t, "--config", cfgPath, "--log-level", "debug", "order", dir)
	require.NoError(t, err)
	assert.Contains(t, stderr, "level=DEBUG")

	_, stderr, err = runCLI(t, "--config", cfgPath, "order", dir)
	require.NoError(t, err)
	assert.NotContains(t, stderr, "level=DEBUG")
}

func TestCompletion(t *testing.T) {
	stdout, _, err := runCLI(t, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, stdout, "odfgen")

	_, _, err = runCLI(t, "completion", "tcsh")
	require.Error(t, err)
}
