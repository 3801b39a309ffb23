package codegen

import (
	"log/slog"

	"odf-codegen/internal/schema"
)

// pending is an auxiliary declaration waiting to be rendered. Either node or
// lines is set.
type pending struct {
	name   string
	parent string
	tag    string
	node   schema.Node
	lines  []string
}

// Context carries the state of one rendering run: the schema set, the
// document being rendered and the auxiliary queue of the current primary.
type Context struct {
	set      *schema.Set
	notation Notation
	info     Info
	log      *slog.Logger

	doc   *schema.Document
	owner string

	queue  []*pending
	queued map[string]bool
	byName map[string]*pending
	// requested lists the auxiliary names asked for since the last render
	// started, duplicates included.
	requested []string
	placed    map[string]bool
	// synthesized tracks line-only auxiliaries across the whole run.
	synthesized map[string]bool
}

func newContext(set *schema.Set, n Notation, log *slog.Logger) *Context {
	return &Context{
		set:         set,
		notation:    n,
		info:        n.Info(),
		log:         log,
		queued:      map[string]bool{},
		synthesized: map[string]bool{},
	}
}

// Set returns the schema set being rendered.
func (c *Context) Set() *schema.Set { return c.set }

// Document returns the document whose units are being rendered.
func (c *Context) Document() *schema.Document { return c.doc }

// Logger returns the run logger.
func (c *Context) Logger() *slog.Logger { return c.log }

// Owner returns the name of the declaration currently being rendered.
func (c *Context) Owner() string { return c.owner }

// Lookup returns the named document.
func (c *Context) Lookup(name string) (*schema.Document, bool) {
	return c.set.Get(name)
}

func (c *Context) reset(doc *schema.Document) {
	c.doc = doc
	c.owner = doc.Name
	c.queue = nil
	c.queued = map[string]bool{doc.Name: true}
	c.byName = map[string]*pending{}
	c.requested = nil
	c.placed = map[string]bool{}
}

// Enqueue schedules node to be rendered as an auxiliary declaration of the
// current owner. A name already queued for this primary is ignored.
func (c *Context) Enqueue(name string, node schema.Node) {
	c.enqueue(&pending{name: name, parent: c.owner, node: node})
}

// EnqueueLines schedules verbatim lines as an auxiliary unit. Names are
// deduplicated across the whole run.
func (c *Context) EnqueueLines(name string, lines []string) {
	if c.synthesized[name] {
		return
	}
	c.synthesized[name] = true
	c.enqueue(&pending{name: name, parent: c.owner, lines: lines})
}

func (c *Context) enqueue(p *pending) {
	c.requested = append(c.requested, p.name)
	if c.queued[p.name] {
		return
	}
	c.queued[p.name] = true
	c.byName[p.name] = p
	c.queue = append(c.queue, p)
}

// KindOf classifies a declared document by its top-level shape.
func (c *Context) KindOf(name string) (TypeKind, bool) {
	doc, ok := c.set.Get(name)
	if !ok {
		return 0, false
	}
	return declKind(doc.Node)
}

func declKind(n schema.Node) (TypeKind, bool) {
	switch n.(type) {
	case *schema.Object:
		return TypeStruct, true
	case *schema.Union:
		return TypeUnion, true
	case *schema.StringEnum:
		return TypeEnum, true
	default:
		return 0, false
	}
}

// TypeOf maps a property or item node to a notation type. Nested enums and
// local definitions are enqueued as auxiliaries on the way.
func (c *Context) TypeOf(n schema.Node, required bool) (*Type, error) {
	t, err := c.bareType(n)
	if err != nil {
		return nil, err
	}
	t.Bare = t.Expr
	if !required {
		t.Optional = true
		t.Expr = c.notation.MapOptional(c, t)
	}
	return t, nil
}

func (c *Context) bareType(n schema.Node) (*Type, error) {
	switch n := n.(type) {
	case *schema.Scalar:
		expr, err := c.notation.MapScalar(n)
		if err != nil {
			return nil, err
		}
		return &Type{Expr: expr, Kind: TypeScalar, Scalar: n}, nil

	case *schema.Reference:
		if n.Local {
			return c.localType(n)
		}
		kind, ok := c.KindOf(n.Name)
		if !ok {
			if _, known := c.set.Get(n.Name); known {
				return nil, schema.NewShapeError(schema.ErrUnsupportedShape, n.Path, "reference to %q which is not an object, union or enum", n.Name)
			}
			return nil, schema.NewShapeError(schema.ErrUnsupportedShape, n.Path, "reference to unknown schema %q", n.Name)
		}
		return c.declared(n.Name, kind), nil

	case *schema.StringEnum:
		c.Enqueue(n.Name, n)
		return c.declared(n.Name, TypeEnum), nil

	case *schema.Array:
		item, err := c.bareType(n.Items)
		if err != nil {
			return nil, err
		}
		item.Bare = item.Expr
		return &Type{Expr: c.notation.MapArray(c, item), Kind: TypeArray, Item: item}, nil

	default:
		return nil, schema.NewShapeError(schema.ErrUnsupportedShape, n.Info().Path, "nested %s must be declared in $defs", n.Shape())
	}
}

// localType resolves a reference into the current document's $defs. Object,
// union and enum definitions become auxiliaries named after the document.
func (c *Context) localType(ref *schema.Reference) (*Type, error) {
	def, ok := c.doc.Def(ref.Name)
	if !ok {
		return nil, schema.NewShapeError(schema.ErrUnsupportedShape, ref.Path, "no definition %q", ref.Name)
	}
	kind, ok := declKind(def)
	if !ok {
		return c.bareType(def)
	}
	name := c.doc.Name + ref.Name
	if e, isEnum := def.(*schema.StringEnum); isEnum && e.Name != "" && e.Name != ref.Name {
		name = e.Name
	}
	c.Enqueue(name, def)
	return c.declared(name, kind), nil
}

func (c *Context) declared(name string, kind TypeKind) *Type {
	expr := name
	if m, ok := c.notation.(ReferenceMapper); ok {
		expr = m.MapReference(name, kind)
	}
	return &Type{Expr: expr, Kind: kind, Name: name}
}
