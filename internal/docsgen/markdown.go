// Package docsgen renders the schema reference section of the Open Data
// Fabric specification as markdown.
package docsgen

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"odf-codegen/internal/schema"
)

const (
	defaultSchemaBase      = "schemas"
	defaultFlatbuffersLink = "schemas-generated/flatbuffers/opendatafabric.fbs"

	referenceAnchor = "reference-information"
)

// Options configures markdown rendering.
type Options struct {
	// SchemaDir is the directory the set was loaded from. Source links are
	// relative to it.
	SchemaDir string
	// SchemaBase prefixes the JSON schema badge links.
	SchemaBase string
	// FlatbuffersLink is the target of the flatbuffers badge.
	FlatbuffersLink string
	Logger          *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.SchemaBase == "" {
		o.SchemaBase = defaultSchemaBase
	}
	if o.FlatbuffersLink == "" {
		o.FlatbuffersLink = defaultFlatbuffersLink
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o
}

type group struct {
	title    string
	kind     schema.Kind
	priority string
}

var groups = []group{
	{title: "Manifests", kind: schema.KindRoot, priority: "Manifest"},
	{title: "Metadata Events", kind: schema.KindMetadataEvent, priority: "MetadataEvent"},
	{title: "Engine Protocol", kind: schema.KindEngineOp},
	{title: "Fragments", kind: schema.KindFragment},
}

// section is one documented type: a document or one of its nested types.
type section struct {
	name string
	doc  *schema.Document
	node schema.Node
}

// Render produces the reference markdown for set.
func Render(set *schema.Set, opts Options) ([]byte, error) {
	opts = opts.withDefaults()
	r := &renderer{set: set, opts: opts}

	grouped := map[schema.Kind][]*schema.Document{}
	for _, name := range set.Names() {
		doc, _ := set.Get(name)
		grouped[doc.Kind] = append(grouped[doc.Kind], doc)
	}

	var b strings.Builder
	b.WriteString(generatedHeader())
	b.WriteString(anchor(referenceAnchor))
	b.WriteString("## Reference Information\n\n")

	for _, g := range groups {
		docs := prioritized(grouped[g.kind], g.priority)
		if len(docs) == 0 {
			continue
		}
		b.WriteString("- [")
		b.WriteString(g.title)
		b.WriteString("](#")
		b.WriteString(sectionID(g.title))
		b.WriteString(")\n")
		for _, doc := range docs {
			b.WriteString("  - [")
			b.WriteString(doc.Name)
			b.WriteString("](#")
			b.WriteString(schemaID(doc.Name))
			b.WriteString(")\n")
		}
	}
	b.WriteString("\n")

	for _, g := range groups {
		docs := prioritized(grouped[g.kind], g.priority)
		if len(docs) == 0 {
			continue
		}
		b.WriteString(anchor(sectionID(g.title)))
		b.WriteString("#### ")
		b.WriteString(g.title)
		b.WriteString("\n\n")

		for _, doc := range docs {
			for _, s := range nestedSections(doc) {
				if err := r.writeSection(&b, s); err != nil {
					return nil, schema.WrapDocument(doc, fmt.Errorf("render markdown: %w", err))
				}
			}
		}
	}
	return []byte(b.String()), nil
}

// Generate renders set and writes the result to dest.
func Generate(set *schema.Set, dest string, opts Options) error {
	data, err := Render(set, opts)
	if err != nil {
		return err
	}
	if err := writeFile(dest, string(data)); err != nil {
		return err
	}
	opts.withDefaults().Logger.Info("wrote schema reference", "path", dest, "schemas", set.Len())
	return nil
}

// prioritized sorts docs by name with the priority name first.
func prioritized(docs []*schema.Document, priority string) []*schema.Document {
	out := slices.Clone(docs)
	slices.SortStableFunc(out, func(a, b *schema.Document) int {
		switch {
		case a.Name == priority && b.Name != priority:
			return -1
		case b.Name == priority && a.Name != priority:
			return 1
		}
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

// nestedSections returns the document section followed by its local
// definitions and inline enums as Parent::Name sections.
func nestedSections(doc *schema.Document) []section {
	out := []section{{name: doc.Name, doc: doc, node: doc.Node}}
	seen := map[string]bool{doc.Name: true}
	add := func(name string, n schema.Node) {
		full := doc.Name + "::" + name
		if seen[full] {
			return
		}
		seen[full] = true
		out = append(out, section{name: full, doc: doc, node: n})
	}
	for _, def := range doc.Defs {
		switch def.Node.(type) {
		case *schema.Object, *schema.Union, *schema.StringEnum:
			add(def.Name, def.Node)
		}
	}
	schema.WalkDocument(doc, func(n schema.Node) {
		if e, ok := n.(*schema.StringEnum); ok && n != doc.Node && !isDef(doc, n) {
			add(e.Name, e)
		}
	})
	return out
}

func isDef(doc *schema.Document, n schema.Node) bool {
	for _, def := range doc.Defs {
		if def.Node == n {
			return true
		}
	}
	return false
}

type renderer struct {
	set  *schema.Set
	opts Options
}

func (r *renderer) writeSection(b *strings.Builder, s section) error {
	b.WriteString(anchor(schemaID(s.name)))
	b.WriteString("##### ")
	b.WriteString(s.name)
	b.WriteString("\n")
	if desc := s.node.Info().Description; desc != "" {
		b.WriteString(desc)
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch n := s.node.(type) {
	case *schema.Object:
		b.WriteString("| Property | Type | Required | Format | Description |\n")
		b.WriteString("| :---: | :---: | :---: | :---: | --- |\n")
		for _, p := range n.Properties {
			typ, err := r.typeCell(s.doc, p.Node)
			if err != nil {
				return fmt.Errorf("%s.%s: %w", s.name, p.Name, err)
			}
			format, err := formatCell(p.Node)
			if err != nil {
				return fmt.Errorf("%s.%s: %w", s.name, p.Name, err)
			}
			required := ""
			if p.Required {
				required = "V"
			}
			writeRow(b, "`"+p.Name+"`", typ, required, format, cell(p.Node.Info().Description))
		}
	case *schema.Union:
		b.WriteString("| Union Type | Description |\n")
		b.WriteString("| :---: | --- |\n")
		for _, v := range n.Variants {
			if v.IsInline() {
				name := s.doc.Name + "::" + v.Name
				writeRow(b, link(name), cell(v.Inline.Description))
				continue
			}
			desc := ""
			if target, ok := r.set.Get(v.Ref); ok {
				desc = target.Description()
			}
			writeRow(b, link(v.Ref), cell(desc))
		}
	case *schema.StringEnum:
		b.WriteString("| Enum Value |\n")
		b.WriteString("| :---: |\n")
		for _, v := range n.Values {
			writeRow(b, "`"+v+"`")
		}
	default:
		return schema.NewShapeError(schema.ErrUnsupportedShape, s.node.Info().Path, "cannot document a top-level %s", s.node.Shape())
	}
	b.WriteString("\n")

	// Nested sections link the file of the document that declares them.
	b.WriteString("[![JSON Schema](https://img.shields.io/badge/schema-JSON-orange)](")
	b.WriteString(r.sourceLink(s.doc))
	b.WriteString(")\n")
	b.WriteString("[![Flatbuffers Schema](https://img.shields.io/badge/schema-flatbuffers-blue)](")
	b.WriteString(r.opts.FlatbuffersLink)
	b.WriteString(")\n")
	b.WriteString("[^](#" + referenceAnchor + ")\n\n")
	return nil
}

func (r *renderer) sourceLink(doc *schema.Document) string {
	rel := filepath.Base(doc.Path)
	if r.opts.SchemaDir != "" {
		if p, err := filepath.Rel(r.opts.SchemaDir, doc.Path); err == nil {
			rel = p
		}
	}
	return path.Join(r.opts.SchemaBase, filepath.ToSlash(rel))
}

func (r *renderer) typeCell(doc *schema.Document, n schema.Node) (string, error) {
	switch n := n.(type) {
	case *schema.Scalar:
		return "`" + n.Type + "`", nil
	case *schema.Array:
		inner, err := r.typeCell(doc, n.Items)
		if err != nil {
			return "", err
		}
		return "array(" + inner + ")", nil
	case *schema.Reference:
		if n.Local {
			return link(doc.Name + "::" + n.Name), nil
		}
		if _, ok := r.set.Get(n.Name); !ok {
			return "", schema.NewShapeError(schema.ErrUnsupportedShape, n.Path, "reference to unknown schema %q", n.Name)
		}
		return link(n.Name), nil
	case *schema.StringEnum:
		return link(doc.Name + "::" + n.Name), nil
	default:
		return "", schema.NewShapeError(schema.ErrUnsupportedShape, n.Info().Path, "nested %s must be declared in $defs", n.Shape())
	}
}

var formatLinks = map[string]string{
	"date-time":       "[date-time](https://json-schema.org/draft/2019-09/json-schema-validation.html#rfc.section.7.3.1)",
	"multihash":       "[multihash](https://github.com/multiformats/multihash)",
	"multicodec":      "[multicodec](https://github.com/multiformats/multicodec)",
	"dataset-id":      "[dataset-id](#dataset-identity)",
	"dataset-name":    "[dataset-name](#dataset-identity)",
	"dataset-alias":   "[dataset-alias](#dataset-identity)",
	"dataset-ref":     "[dataset-ref](#dataset-identity)",
	"dataset-ref-any": "[dataset-ref-any](#dataset-identity)",
}

var plainFormats = []string{
	"int16", "int32", "int64", "uint16", "uint32", "uint64",
	"url", "regex", "path", "flatbuffers", "sha3-256", "date-time-interval",
}

func formatCell(n schema.Node) (string, error) {
	if a, ok := n.(*schema.Array); ok {
		n = a.Items
	}
	s, ok := n.(*schema.Scalar)
	if !ok || s.Format == "" {
		return "", nil
	}
	if l, ok := formatLinks[s.Format]; ok {
		return l, nil
	}
	if slices.Contains(plainFormats, s.Format) {
		return "`" + s.Format + "`", nil
	}
	return "", schema.UnsupportedFormat(s)
}

func writeRow(b *strings.Builder, cells ...string) {
	b.WriteString("|")
	for _, c := range cells {
		if c != "" {
			b.WriteString(" ")
			b.WriteString(c)
		}
		b.WriteString(" |")
	}
	b.WriteString("\n")
}

func cell(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", "<br/>")
}

func link(name string) string {
	return "[" + name + "](#" + schemaID(name) + ")"
}

func anchor(id string) string {
	return "<a name=\"" + id + "\"></a>\n"
}

// sectionID is the anchor of a group heading.
func sectionID(title string) string {
	return "reference-" + strings.ReplaceAll(strings.ToLower(title), " ", "-")
}

// schemaID is the anchor of a type heading.
func schemaID(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), "::", "-") + "-schema"
}

func generatedHeader() string {
	return "<!-- Code generated by odfgen docs. DO NOT EDIT. -->\n\n"
}

func writeFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %q: %w", path, err)
	}
	return nil
}
