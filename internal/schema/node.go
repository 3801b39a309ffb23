package schema

import "fmt"

// Shape identifies the variant of a normalized schema node.
type Shape int

const (
	ShapeObject Shape = iota
	ShapeUnion
	ShapeStringEnum
	ShapeArray
	ShapeReference
	ShapeScalar
)

func (s Shape) String() string {
	switch s {
	case ShapeObject:
		return "object"
	case ShapeUnion:
		return "union"
	case ShapeStringEnum:
		return "enum"
	case ShapeArray:
		return "array"
	case ShapeReference:
		return "reference"
	case ShapeScalar:
		return "scalar"
	default:
		return fmt.Sprintf("Shape(%d)", int(s))
	}
}

// Node is a normalized schema node. The set of implementations is closed:
// *Object, *Union, *StringEnum, *Array, *Reference and *Scalar.
type Node interface {
	Shape() Shape
	Info() *Meta
	node()
}

// Meta carries the annotations every node may have.
type Meta struct {
	// Path is a JSON pointer to the node inside its document.
	Path        string
	Description string
	Default     any
	Examples    []any
}

// Info returns the node annotations.
func (m *Meta) Info() *Meta { return m }

func (*Meta) node() {}

// Object is a record with named properties in declaration order.
type Object struct {
	Meta
	Properties []*Property
}

// Property is one named field of an Object.
type Property struct {
	Name     string
	Node     Node
	Required bool
}

// Union is a tagged sum over referenced or inline variants.
type Union struct {
	Meta
	Variants []*Variant
	// Root marks unions used as a top-level message.
	Root bool
}

// Variant is one branch of a Union. Exactly one of Ref and Inline is set.
type Variant struct {
	Name string
	// Ref is the name of another document.
	Ref string
	// Inline is the variant body from the owning document's $defs.
	Inline *Object
}

// IsInline reports whether the variant owns its body.
func (v *Variant) IsInline() bool { return v.Inline != nil }

// StringEnum is a closed set of string values.
type StringEnum struct {
	Meta
	// Name is the declared type name: the document name at top level or
	// the enumName annotation when nested.
	Name   string
	Values []string
}

// Array is a homogeneous list.
type Array struct {
	Meta
	Items Node
}

// Reference points at another document or at a local $defs entry.
type Reference struct {
	Meta
	Name  string
	Local bool
}

// Scalar is a primitive value with an optional format tag.
type Scalar struct {
	Meta
	// Type is one of "string", "integer", "boolean" or "object"
	// for free-form objects.
	Type   string
	Format string
}

func (*Object) Shape() Shape     { return ShapeObject }
func (*Union) Shape() Shape      { return ShapeUnion }
func (*StringEnum) Shape() Shape { return ShapeStringEnum }
func (*Array) Shape() Shape      { return ShapeArray }
func (*Reference) Shape() Shape  { return ShapeReference }
func (*Scalar) Shape() Shape     { return ShapeScalar }

// Property returns the named property.
func (o *Object) Property(name string) (*Property, bool) {
	for _, p := range o.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

// Kind classifies a document by the directory it was loaded from.
type Kind string

const (
	KindRoot          Kind = "root"
	KindMetadataEvent Kind = "metadata-event"
	KindEngineOp      Kind = "engine-op"
	KindFragment      Kind = "fragment"
)

// Def is a named entry of a document's $defs.
type Def struct {
	Name string
	Node Node
}

// Document is one loaded schema file.
type Document struct {
	Name string
	ID   string
	Kind Kind
	Path string
	Raw  []byte
	Tree *Map
	Node Node
	Defs []*Def
	// Invalid is the normalization failure of a leniently parsed document.
	Invalid error
}

// Def returns the named local definition.
func (d *Document) Def(name string) (Node, bool) {
	for _, def := range d.Defs {
		if def.Name == name {
			return def.Node, true
		}
	}
	return nil, false
}

// Description returns the top-level description.
func (d *Document) Description() string {
	if d.Node == nil {
		return ""
	}
	return d.Node.Info().Description
}
