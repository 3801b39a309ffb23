package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeSchema writes content to dir/rel, creating parent directories.
func writeSchema(t *testing.T, dir, rel, content string) string {
	t.Helper()
	p := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func mustParse(t *testing.T, name, content string) *Document {
	t.Helper()
	doc, err := Parse(name, []byte(content), KindFragment)
	require.NoError(t, err)
	return doc
}
