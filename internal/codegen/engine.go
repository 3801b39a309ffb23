package codegen

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"odf-codegen/internal/schema"
)

const (
	bannerRule = "////////////////////////////////////////////////////////////////////////////////"
	docsURL    = "https://github.com/kamu-data/open-data-fabric/blob/master/open-data-fabric.md"
)

// RenderOptions adjusts one rendering run.
type RenderOptions struct {
	// Skip replaces the notation's skip list when non-nil.
	Skip []string
	// Include replaces the notation's include list when non-nil.
	Include []string
	// Overrides maps a document name to text that replaces its primary unit.
	Overrides map[string]string
	Logger    *slog.Logger
}

func (o RenderOptions) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o.Logger
}

// Unit is one emitted declaration.
type Unit struct {
	Name      string
	Lines     []string
	Auxiliary bool
}

// Section is everything emitted for one document.
type Section struct {
	Name      string
	Primary   *Unit
	Auxiliary []*Unit
	auxFirst  bool
}

// Units returns the section units in emission order.
func (s *Section) Units() []*Unit {
	if s.auxFirst {
		return append(slices.Clone(s.Auxiliary), s.Primary)
	}
	return append([]*Unit{s.Primary}, s.Auxiliary...)
}

// Output is a rendered notation held in memory.
type Output struct {
	Notation string
	Preamble []string
	Sections []*Section
	Footer   []string
}

// Section returns the section of the named document.
func (o *Output) Section(name string) (*Section, bool) {
	for _, s := range o.Sections {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}

// Lines assembles the final line sequence.
func (o *Output) Lines() []string {
	var lines []string
	lines = append(lines, o.Preamble...)
	for _, s := range o.Sections {
		lines = append(lines, banner(s.Name)...)
		for _, u := range s.Units() {
			lines = append(lines, u.Lines...)
			lines = append(lines, "")
		}
	}
	return append(lines, o.Footer...)
}

// Bytes joins the lines with a trailing newline.
func (o *Output) Bytes() []byte {
	var buf bytes.Buffer
	for _, l := range o.Lines() {
		buf.WriteString(l)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// WriteTo writes the assembled output to w.
func (o *Output) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(o.Bytes())
	return int64(n), err
}

func banner(name string) []string {
	return []string{
		bannerRule,
		"// " + name,
		fmt.Sprintf("// %s#%s-schema", docsURL, strings.ToLower(name)),
		bannerRule,
		"",
	}
}

// Render renders every selected document of set in notation n. Nothing is
// written; the first error aborts the run.
func Render(set *schema.Set, n Notation, opts RenderOptions) (*Output, error) {
	info := n.Info()
	log := opts.logger()

	skip := info.Skip
	if opts.Skip != nil {
		skip = opts.Skip
	}
	include := info.Include
	if opts.Include != nil {
		include = opts.Include
	}

	names := set.Names()
	if info.Ordered {
		names = schema.DependencyOrder(set)
	}

	out := &Output{Notation: info.Name, Preamble: info.Preamble, Footer: info.Footer}
	ctx := newContext(set, n, log)
	for _, name := range names {
		if slices.Contains(skip, name) {
			continue
		}
		if len(include) > 0 && !slices.Contains(include, name) {
			continue
		}
		doc, _ := set.Get(name)

		section, err := ctx.renderDocument(doc, opts.Overrides)
		if err != nil {
			return nil, schema.WrapDocument(doc, fmt.Errorf("render %s: %w", info.Name, err))
		}
		for _, u := range section.Units() {
			log.Debug("emitted unit", "notation", info.Name, "unit", u.Name, "auxiliary", u.Auxiliary, "lines", len(u.Lines))
		}
		out.Sections = append(out.Sections, section)
	}
	return out, nil
}

// Generate renders set and applies the notation's formatter, if any.
func Generate(set *schema.Set, n Notation, opts RenderOptions) ([]byte, error) {
	out, err := Render(set, n, opts)
	if err != nil {
		return nil, err
	}
	src := out.Bytes()
	if f, ok := n.(Formatter); ok {
		formatted, err := f.Format(src)
		if err != nil {
			return nil, fmt.Errorf("format %s output: %w", n.Info().Name, err)
		}
		return formatted, nil
	}
	return src, nil
}

func (c *Context) renderDocument(doc *schema.Document, overrides map[string]string) (*Section, error) {
	c.reset(doc)
	section := &Section{Name: doc.Name, auxFirst: c.info.AuxFirst}

	if text, ok := overrides[doc.Name]; ok {
		section.Primary = &Unit{Name: doc.Name, Lines: splitLines(text)}
		return section, nil
	}
	if !c.info.accepts(doc.Node.Shape()) {
		return nil, schema.NewShapeError(schema.ErrUnsupportedShape, doc.Node.Info().Path, "%s does not render top-level %s", c.info.Name, doc.Node.Shape())
	}

	primary, err := c.render(&pending{name: doc.Name, node: doc.Node})
	if err != nil {
		return nil, err
	}
	section.Primary = primary

	if c.info.AuxFirst {
		c.placed[doc.Name] = true
		units, err := c.place(c.requested)
		if err != nil {
			return nil, err
		}
		section.Auxiliary = units
		return section, nil
	}

	// Rendering an auxiliary may enqueue more.
	for i := 0; i < len(c.queue); i++ {
		u, err := c.render(c.queue[i])
		if err != nil {
			return nil, err
		}
		u.Auxiliary = true
		section.Auxiliary = append(section.Auxiliary, u)
	}
	return section, nil
}

// place renders the named auxiliaries in request order. Each one is
// preceded by the auxiliaries it requests itself, so a declaration always
// comes before its first use.
func (c *Context) place(names []string) ([]*Unit, error) {
	var units []*Unit
	for _, name := range names {
		if c.placed[name] {
			continue
		}
		c.placed[name] = true

		c.requested = nil
		u, err := c.render(c.byName[name])
		if err != nil {
			return nil, err
		}
		u.Auxiliary = true

		deps, err := c.place(c.requested)
		if err != nil {
			return nil, err
		}
		units = append(units, deps...)
		units = append(units, u)
	}
	return units, nil
}

func (c *Context) render(p *pending) (*Unit, error) {
	if p.lines != nil {
		return &Unit{Name: p.name, Lines: p.lines}, nil
	}

	prev := c.owner
	c.owner = p.name
	defer func() { c.owner = prev }()

	d := &Decl{
		Name:      p.name,
		Parent:    p.parent,
		Tag:       p.tag,
		Auxiliary: p.parent != "",
		Doc:       c.doc,
		Node:      p.node,
		Ctx:       c,
	}
	n := c.notation
	ind := c.info.Indent

	var lines []string
	switch node := p.node.(type) {
	case *schema.Object:
		for i, prop := range node.Properties {
			t, err := c.TypeOf(prop.Node, prop.Required)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", p.name, prop.Name, err)
			}
			d.Fields = append(d.Fields, &Field{
				Name:     prop.Name,
				Type:     t,
				Required: prop.Required,
				Meta:     prop.Node.Info(),
				Index:    i,
			})
		}
		if err := c.check(d); err != nil {
			return nil, err
		}
		lines = append(lines, n.AggregateHeader(d)...)
		for _, f := range d.Fields {
			lines = append(lines, indentLines(ind, n.FieldLine(d, f))...)
		}
		lines = append(lines, n.AggregateFooter(d)...)

	case *schema.Union:
		for i, v := range node.Variants {
			rv, err := c.variant(p.name, v, i)
			if err != nil {
				return nil, err
			}
			d.Variants = append(d.Variants, rv)
		}
		if err := c.check(d); err != nil {
			return nil, err
		}
		lines = append(lines, n.UnionHeader(d)...)
		for _, v := range d.Variants {
			lines = append(lines, indentLines(ind, n.VariantLine(d, v))...)
		}
		lines = append(lines, n.UnionFooter(d)...)

	case *schema.StringEnum:
		d.Values = node.Values
		if err := c.check(d); err != nil {
			return nil, err
		}
		lines = append(lines, n.EnumHeader(d)...)
		for _, v := range node.Values {
			lines = append(lines, indentLines(ind, n.EnumCase(d, v))...)
		}
		lines = append(lines, n.EnumFooter(d)...)

	default:
		return nil, schema.NewShapeError(schema.ErrUnsupportedShape, p.node.Info().Path, "cannot declare a top-level %s", p.node.Shape())
	}
	return &Unit{Name: p.name, Lines: lines}, nil
}

func (c *Context) check(d *Decl) error {
	if ch, ok := c.notation.(Checker); ok {
		return ch.Check(d)
	}
	return nil
}

func (c *Context) variant(parent string, v *schema.Variant, index int) (*Variant, error) {
	if !v.IsInline() {
		kind, ok := c.KindOf(v.Ref)
		if !ok {
			return nil, schema.NewShapeError(schema.ErrUnsupportedShape, c.doc.Node.Info().Path, "union variant %q refers to an unknown or undeclarable schema", v.Ref)
		}
		meta := &schema.Meta{}
		if doc, found := c.set.Get(v.Ref); found {
			meta = doc.Node.Info()
		}
		return &Variant{Tag: v.Ref, TypeName: v.Ref, Kind: kind, Payload: true, Index: index, Meta: meta}, nil
	}

	rv := &Variant{
		Tag:      v.Name,
		TypeName: parent + v.Name,
		Kind:     TypeStruct,
		Inline:   true,
		Empty:    len(v.Inline.Properties) == 0,
		Index:    index,
		Meta:     v.Inline.Info(),
	}
	rv.Payload = !rv.Empty || c.info.EmptyVariantTypes
	if rv.Payload && !c.info.SkipVariantTypes {
		c.enqueue(&pending{name: rv.TypeName, parent: parent, tag: v.Name, node: v.Inline})
	}
	return rv, nil
}
