package schema

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Layout selects how Load walks the schema directory.
type Layout int

const (
	// LayoutKinds reads the root directory as kind root plus one recursive
	// subdirectory per kind.
	LayoutKinds Layout = iota
	// LayoutFlat reads the root directory only.
	LayoutFlat
	// LayoutRecursive reads the whole tree, taking the kind from the first
	// path segment.
	LayoutRecursive
)

// Layouts lists every layout name accepted by ParseLayout.
var Layouts = []string{"kinds", "flat", "recursive"}

func (l Layout) String() string {
	if int(l) >= 0 && int(l) < len(Layouts) {
		return Layouts[l]
	}
	return fmt.Sprintf("Layout(%d)", int(l))
}

// ParseLayout returns the layout with the given name.
func ParseLayout(s string) (Layout, error) {
	for i, name := range Layouts {
		if s == name {
			return Layout(i), nil
		}
	}
	return 0, fmt.Errorf("unknown layout %q: use one of %s", s, strings.Join(Layouts, ", "))
}

// Set implements pflag.Value.
func (l *Layout) Set(s string) error {
	v, err := ParseLayout(s)
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// Type implements pflag.Value.
func (*Layout) Type() string { return "layout" }

// kindDirs maps kind subdirectories to the kind of the documents inside.
var kindDirs = []struct {
	dir  string
	kind Kind
}{
	{"metadata-events", KindMetadataEvent},
	{"engine-ops", KindEngineOp},
	{"fragments", KindFragment},
}

var sourceExts = map[string]bool{
	".json":   true,
	".schema": true,
	".yaml":   true,
	".yml":    true,
}

// LoadOptions configures Load.
type LoadOptions struct {
	Layout Layout
	Logger *slog.Logger
	// Lenient keeps documents that fail normalization, with the failure in
	// Document.Invalid. Decode and identifier errors still abort the load.
	Lenient bool
}

// Set is the name-keyed registry of loaded documents.
type Set struct {
	docs map[string]*Document
	// Shadowed holds documents replaced by a later document of the same name.
	Shadowed []*Document
}

// NewSet builds a set from docs. Later documents shadow earlier ones.
func NewSet(docs ...*Document) *Set {
	s := &Set{docs: map[string]*Document{}}
	for _, d := range docs {
		s.Add(d)
	}
	return s
}

// Add registers doc under its name.
func (s *Set) Add(doc *Document) {
	if prev, ok := s.docs[doc.Name]; ok {
		s.Shadowed = append(s.Shadowed, prev)
	}
	s.docs[doc.Name] = doc
}

// Get returns the document with the given name.
func (s *Set) Get(name string) (*Document, bool) {
	d, ok := s.docs[name]
	return d, ok
}

// Names returns all document names in ascending order.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.docs))
	for n := range s.docs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Documents returns all documents ordered by name.
func (s *Set) Documents() []*Document {
	names := s.Names()
	docs := make([]*Document, len(names))
	for i, n := range names {
		docs[i] = s.docs[n]
	}
	return docs
}

// Len returns the number of distinct names.
func (s *Set) Len() int { return len(s.docs) }

// Load reads every schema document under dir.
func Load(dir string, opts LoadOptions) (*Set, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("schemas directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("schemas directory %q is not a directory", dir)
	}

	l := &loader{set: NewSet(), logger: logger, lenient: opts.Lenient}
	switch opts.Layout {
	case LayoutKinds:
		if err := l.readDir(dir, KindRoot, false); err != nil {
			return nil, err
		}
		for _, kd := range kindDirs {
			sub := filepath.Join(dir, kd.dir)
			if _, err := os.Stat(sub); errors.Is(err, fs.ErrNotExist) {
				logger.Debug("kind directory missing", "dir", sub)
				continue
			}
			if err := l.readDir(sub, kd.kind, true); err != nil {
				return nil, err
			}
		}
	case LayoutFlat:
		if err := l.readDir(dir, KindRoot, false); err != nil {
			return nil, err
		}
	case LayoutRecursive:
		if err := l.readRecursiveRoot(dir); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown layout %v", opts.Layout)
	}
	logger.Debug("schemas loaded", "dir", dir, "layout", opts.Layout.String(), "count", l.set.Len())
	return l.set, nil
}

type loader struct {
	set     *Set
	logger  *slog.Logger
	lenient bool
}

func (l *loader) readDir(dir string, kind Kind, recursive bool) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read %s: %w", dir, err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		p := filepath.Join(dir, e.Name())
		if e.IsDir() {
			if recursive {
				if err := l.readDir(p, kind, true); err != nil {
					return err
				}
			}
			continue
		}
		if err := l.readFile(p, kind); err != nil {
			return err
		}
	}
	return nil
}

func (l *loader) readRecursiveRoot(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read %s: %w", dir, err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		p := filepath.Join(dir, e.Name())
		if !e.IsDir() {
			if err := l.readFile(p, KindRoot); err != nil {
				return err
			}
			continue
		}
		kind := KindRoot
		for _, kd := range kindDirs {
			if kd.dir == e.Name() {
				kind = kd.kind
			}
		}
		if err := l.readDir(p, kind, true); err != nil {
			return err
		}
	}
	return nil
}

func (l *loader) readFile(p string, kind Kind) error {
	if !sourceExts[strings.ToLower(filepath.Ext(p))] {
		return nil
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return fmt.Errorf("read schema: %w", err)
	}
	doc, err := parse(p, data, kind, l.lenient)
	if err != nil {
		return err
	}
	if prev, ok := l.set.Get(doc.Name); ok {
		l.logger.Warn("schema name shadowed", "name", doc.Name, "previous", prev.Path, "path", doc.Path)
	}
	l.set.Add(doc)
	if doc.Invalid != nil {
		l.logger.Warn("schema kept without normalization", "name", doc.Name, "path", p, "error", doc.Invalid)
		return nil
	}
	l.logger.Debug("schema loaded", "name", doc.Name, "kind", string(kind), "shape", doc.Node.Shape().String(), "path", p)
	return nil
}

// LoadFile reads and parses a single schema document.
func LoadFile(p string, kind Kind) (*Document, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	return Parse(p, data, kind)
}

// Parse decodes data, checks that the declared identifier matches the file
// base name and normalizes the tree.
func Parse(p string, data []byte, kind Kind) (*Document, error) {
	return parse(p, data, kind, false)
}

// ParseLenient is Parse, except that a normalization failure is stored in
// Document.Invalid instead of being returned. Node and Defs are nil then.
func ParseLenient(p string, data []byte, kind Kind) (*Document, error) {
	return parse(p, data, kind, true)
}

func parse(p string, data []byte, kind Kind, lenient bool) (*Document, error) {
	base := filepath.Base(p)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	tree, err := Decode(p, data)
	if err != nil {
		return nil, &SchemaError{Name: base, Path: p, Raw: data, Err: err}
	}
	id, err := optString(tree, "$id", "#")
	if err != nil {
		return nil, &SchemaError{Name: base, Path: p, Raw: data, Err: err}
	}
	if id == "" {
		return nil, &SchemaError{Name: base, Path: p, Raw: data, Err: shapeErrorf(ErrUnsupportedShape, "#", "missing $id")}
	}
	name := RefName(id)
	if name != base {
		return nil, &SchemaError{
			Name: base,
			Path: p,
			Raw:  data,
			Err:  fmt.Errorf("%w: file name %q does not match declared name %q", ErrStructuralMismatch, base, name),
		}
	}

	doc := &Document{
		Name: name,
		ID:   id,
		Kind: kind,
		Path: p,
		Raw:  data,
		Tree: tree,
	}
	if err := normalize(doc); err != nil {
		if !lenient {
			return nil, WrapDocument(doc, err)
		}
		doc.Node, doc.Defs, doc.Invalid = nil, nil, err
	}
	return doc, nil
}
