package mdtemplate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, rel, content string) string {
	t.Helper()
	p := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestExpand(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.md", "A")
	writeFile(t, dir, "parts/b.md", "B[![inner](a.md)]")

	tests := []struct {
		name string
		src  string
		want string
	}{
		{"no includes", "plain text", "plain text"},
		{"single include", "x ![a](a.md) y", "x A y"},
		{"nested include", "![b](parts/b.md)", "B[A]"},
		{"several includes on separate lines", "![a](a.md)\n![a](a.md)\n", "A\nA\n"},
		{"other images untouched", "![logo](logo.png)", "![logo](logo.png)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Expand(tt.src, Options{BaseDir: dir})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExpand_Errors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "loop.md", "![self](loop.md)")
	writeFile(t, dir, "x.md", "![y](y.md)")
	writeFile(t, dir, "y.md", "![x](x.md)")

	tests := []struct {
		name  string
		src   string
		check func(t *testing.T, err error)
	}{
		{
			name: "self include",
			src:  "![l](loop.md)",
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrIncludeCycle)
			},
		},
		{
			name: "mutual include",
			src:  "![x](x.md)",
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrIncludeCycle)
				assert.Contains(t, err.Error(), "x.md -> ")
			},
		},
		{
			name: "missing file",
			src:  "![m](missing.md)",
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, os.ErrNotExist)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Expand(tt.src, Options{BaseDir: dir})
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestRender(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "spec.tpl.md", "# Spec\n\n![ref](generated/ref.md)\n")
	writeFile(t, dir, "generated/ref.md", "tables")
	dest := filepath.Join(dir, "out", "spec.md")

	require.NoError(t, Render(src, dest, Options{}))
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "# Spec\n\ntables\n", string(data))
}

func TestRender_FailureWritesNothing(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "spec.tpl.md", "![ref](spec.tpl.md)")
	dest := filepath.Join(dir, "spec.md")

	err := Render(src, dest, Options{})
	require.ErrorIs(t, err, ErrIncludeCycle)
	_, statErr := os.Stat(dest)
	assert.ErrorIs(t, statErr, os.ErrNotExist)
}
