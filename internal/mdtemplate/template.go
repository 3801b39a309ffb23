// Package mdtemplate expands markdown image-style includes of other markdown
// files.
package mdtemplate

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
)

var includeRe = regexp.MustCompile(`!\[.*\]\((.+.md)\)`)

// ErrIncludeCycle is returned when a file includes itself, directly or not.
var ErrIncludeCycle = errors.New("include cycle")

// Options configures expansion.
type Options struct {
	// BaseDir resolves relative include paths. Render defaults it to the
	// directory of the source template.
	BaseDir string
	Logger  *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o.Logger
}

// Expand replaces every include in src with the expanded content of the
// referenced file.
func Expand(src string, opts Options) (string, error) {
	e := &expander{base: opts.BaseDir, logger: opts.logger()}
	return e.expand(src, nil)
}

type expander struct {
	base   string
	logger *slog.Logger
}

func (e *expander) expand(src string, stack []string) (string, error) {
	var b strings.Builder
	last := 0
	for _, m := range includeRe.FindAllStringSubmatchIndex(src, -1) {
		b.WriteString(src[last:m[0]])
		last = m[1]

		p := e.resolve(src[m[2]:m[3]])
		if slices.Contains(stack, p) {
			return "", fmt.Errorf("%w: %s", ErrIncludeCycle, strings.Join(append(stack, p), " -> "))
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return "", fmt.Errorf("read include: %w", err)
		}
		e.logger.Debug("including file", "path", p, "depth", len(stack))

		inner, err := e.expand(string(data), append(slices.Clone(stack), p))
		if err != nil {
			return "", err
		}
		b.WriteString(inner)
	}
	b.WriteString(src[last:])
	return b.String(), nil
}

func (e *expander) resolve(p string) string {
	if !filepath.IsAbs(p) && e.base != "" {
		p = filepath.Join(e.base, p)
	}
	return filepath.Clean(p)
}

// Render expands the template at srcPath and writes the result to destPath.
// Nothing is written when expansion fails.
func Render(srcPath, destPath string, opts Options) error {
	data, err := os.ReadFile(srcPath)
	if err != nil {
		return fmt.Errorf("read template: %w", err)
	}
	if opts.BaseDir == "" {
		opts.BaseDir = filepath.Dir(srcPath)
	}

	e := &expander{base: opts.BaseDir, logger: opts.logger()}
	out, err := e.expand(string(data), []string{filepath.Clean(srcPath)})
	if err != nil {
		return fmt.Errorf("expand %s: %w", srcPath, err)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", filepath.Dir(destPath), err)
	}
	if err := os.WriteFile(destPath, []byte(out), 0o644); err != nil {
		return fmt.Errorf("write %q: %w", destPath, err)
	}
	opts.logger().Info("rendered template", "source", srcPath, "dest", destPath)
	return nil
}
