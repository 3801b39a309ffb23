package codegen

import (
	"slices"

	"odf-codegen/internal/schema"
)

// Notation describes how one output language spells the structural shapes.
// The engine owns traversal, naming and auxiliary bookkeeping; a notation only
// maps types and produces lines.
type Notation interface {
	Info() Info
	MapScalar(s *schema.Scalar) (string, error)
	MapArray(ctx *Context, item *Type) string
	MapOptional(ctx *Context, t *Type) string
	AggregateHeader(d *Decl) []string
	FieldLine(d *Decl, f *Field) []string
	AggregateFooter(d *Decl) []string
	UnionHeader(d *Decl) []string
	VariantLine(d *Decl, v *Variant) []string
	UnionFooter(d *Decl) []string
	EnumHeader(d *Decl) []string
	EnumCase(d *Decl, value string) []string
	EnumFooter(d *Decl) []string
}

// Formatter is implemented by notations whose assembled output needs a
// final source-level pass.
type Formatter interface {
	Format(src []byte) ([]byte, error)
}

// Checker is implemented by notations with limits beyond the shared shapes.
// Check runs once per declaration, before any of its lines are produced.
type Checker interface {
	Check(d *Decl) error
}

// ReferenceMapper is implemented by notations that spell a declared type
// differently from its name.
type ReferenceMapper interface {
	MapReference(name string, kind TypeKind) string
}

// Info holds the static settings of a notation.
type Info struct {
	Name string
	// Indent prefixes field, variant and enum case lines.
	Indent   string
	Preamble []string
	Footer   []string
	// Ordered selects dependency order instead of name order.
	Ordered bool
	// AuxFirst emits auxiliary units before the primary one.
	AuxFirst bool
	// EmptyVariantTypes keeps a type for inline variants without properties.
	EmptyVariantTypes bool
	// SkipVariantTypes never enqueues inline variant structs.
	SkipVariantTypes bool
	// Shapes lists the accepted top-level shapes. Nil accepts all three.
	Shapes  []schema.Shape
	Skip    []string
	Include []string
}

func (i Info) accepts(s schema.Shape) bool {
	return len(i.Shapes) == 0 || slices.Contains(i.Shapes, s)
}

// TypeKind classifies a mapped type.
type TypeKind int

const (
	TypeScalar TypeKind = iota
	TypeStruct
	TypeUnion
	TypeEnum
	TypeArray
)

func (k TypeKind) String() string {
	switch k {
	case TypeStruct:
		return "struct"
	case TypeUnion:
		return "union"
	case TypeEnum:
		return "enum"
	case TypeArray:
		return "array"
	default:
		return "scalar"
	}
}

// Type is a mapped field type.
type Type struct {
	// Expr is the final spelling, optional wrapping included.
	Expr string
	// Bare is the spelling before optional wrapping.
	Bare string
	Kind TypeKind
	// Name is the declared type name for struct, union and enum kinds.
	Name string
	// Scalar is set for scalar kinds.
	Scalar *schema.Scalar
	// Item is the element type of an array.
	Item     *Type
	Optional bool
}

// Format returns the scalar format tag, or "" for non-scalars.
func (t *Type) Format() string {
	if t.Scalar == nil {
		return ""
	}
	return t.Scalar.Format
}

// IsCustom reports whether the type is a declared struct, union or enum.
func (t *Type) IsCustom() bool {
	return t.Kind == TypeStruct || t.Kind == TypeUnion || t.Kind == TypeEnum
}

// Decl is the declaration being rendered.
type Decl struct {
	Name string
	// Parent is the declaration that caused an auxiliary to be enqueued.
	Parent string
	// Tag is the variant name when the declaration is an inline union variant.
	Tag       string
	Auxiliary bool
	Doc       *schema.Document
	Node      schema.Node
	Ctx       *Context

	Fields   []*Field
	Variants []*Variant
	Values   []string
}

// Meta returns the annotations of the rendered node.
func (d *Decl) Meta() *schema.Meta { return d.Node.Info() }

// Description returns the node description.
func (d *Decl) Description() string { return d.Node.Info().Description }

// Field is one rendered object property.
type Field struct {
	Name     string
	Type     *Type
	Required bool
	Meta     *schema.Meta
	Index    int
}

// Variant is one rendered union branch.
type Variant struct {
	Tag string
	// TypeName is the payload type: the referenced name or parent plus tag.
	TypeName string
	// Kind is the payload kind for reference variants.
	Kind   TypeKind
	Inline bool
	// Empty marks an inline variant without properties.
	Empty bool
	// Payload is false when the variant carries no type.
	Payload bool
	Index   int
	Meta    *schema.Meta
}

// Base provides empty renderings for notations that do not support every
// shape.
type Base struct{}

func (Base) AggregateHeader(*Decl) []string       { return nil }
func (Base) FieldLine(*Decl, *Field) []string     { return nil }
func (Base) AggregateFooter(*Decl) []string       { return nil }
func (Base) UnionHeader(*Decl) []string           { return nil }
func (Base) VariantLine(*Decl, *Variant) []string { return nil }
func (Base) UnionFooter(*Decl) []string           { return nil }
func (Base) EnumHeader(*Decl) []string            { return nil }
func (Base) EnumCase(*Decl, string) []string      { return nil }
func (Base) EnumFooter(*Decl) []string            { return nil }

// MapArray spells arrays as-is.
func (Base) MapArray(_ *Context, item *Type) string { return item.Expr }

// MapOptional leaves optional types unwrapped.
func (Base) MapOptional(_ *Context, t *Type) string { return t.Bare }
