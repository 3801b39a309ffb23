package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
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

// writeFile writes content to dir/rel, creating parent directories.
func writeFile(t *testing.T, dir, rel, content string) string {
	t.Helper()
	p := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

// schemaDir creates a schema directory holding Foo and Bar plus extra files.
func schemaDir(t *testing.T, extra map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "fragments/Foo.json", fooSchema)
	writeFile(t, dir, "fragments/Bar.json", barSchema)
	for rel, content := range extra {
		writeFile(t, dir, rel, content)
	}
	return dir
}

// runCLI executes a fresh root command in an empty working directory and
// returns stdout and stderr.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	chdir(t, t.TempDir())

	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (testing.T.Chdir is unavailable before Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
