package codegen

import (
	"fmt"
	"slices"

	"odf-codegen/internal/schema"
)

var flatbuffersScalars = scalarTable{
	"boolean": {"": "bool"},
	"integer": {
		"":       "int32",
		"int16":  "int16",
		"int32":  "int32",
		"int64":  "int64",
		"uint16": "uint16",
		"uint32": "uint32",
		"uint64": "uint64",
	},
	"string": {
		"":                "string",
		"url":             "string",
		"regex":           "string",
		"path":            "string",
		"date-time":       "Timestamp",
		"sha3-256":        "[ubyte]",
		"multihash":       "[ubyte]",
		"multicodec":      "int64",
		"dataset-id":      "[ubyte]",
		"dataset-name":    "string",
		"dataset-alias":   "string",
		"dataset-ref":     "string",
		"dataset-ref-any": "string",
		"flatbuffers":     "[ubyte]",
	},
	"object": {"": "[ubyte]"},
}

// flatbuffers emits a .fbs IDL. The IDL is read in one forward pass, so
// documents follow dependency order and auxiliaries precede their user.
type flatbuffers struct{ Base }

func (flatbuffers) Info() Info {
	return Info{
		Name:   "flatbuffers",
		Indent: "  ",
		Preamble: withWarning(
			"struct Timestamp {",
			"  year: int32;",
			"  ordinal: uint16;",
			"  seconds_from_midnight: uint32;",
			"  nanoseconds: uint32;",
			"}",
			"",
		),
		Ordered:           true,
		AuxFirst:          true,
		EmptyVariantTypes: true,
		Skip:              []string{"Manifest"},
	}
}

func (flatbuffers) MapScalar(s *schema.Scalar) (string, error) { return flatbuffersScalars.lookup(s) }

// MapArray wraps union items in a table because vectors of unions are not
// portable across flatbuffers targets.
func (flatbuffers) MapArray(ctx *Context, item *Type) string {
	if item.Kind == TypeUnion {
		wrapper := item.Name + "Wrapper"
		ctx.EnqueueLines(wrapper, []string{fmt.Sprintf("table %s { value: %s; }", wrapper, item.Name)})
		return "[" + wrapper + "]"
	}
	return "[" + item.Expr + "]"
}

func (flatbuffers) MapOptional(_ *Context, t *Type) string {
	switch {
	case t.Kind == TypeEnum:
		return t.Bare + " = null"
	case t.Kind == TypeScalar && !slices.Contains([]string{"string", "[ubyte]", "Timestamp"}, t.Bare):
		return t.Bare + " = null"
	}
	return t.Bare
}

func (flatbuffers) AggregateHeader(d *Decl) []string {
	return []string{"table " + d.Name + " {"}
}

func (flatbuffers) FieldLine(_ *Decl, f *Field) []string {
	return []string{fmt.Sprintf("%s: %s;", SnakeCase(f.Name), f.Type.Expr)}
}

func (flatbuffers) AggregateFooter(*Decl) []string { return []string{"}"} }

func (flatbuffers) UnionHeader(d *Decl) []string {
	return []string{"union " + d.Name + " {"}
}

func (flatbuffers) VariantLine(_ *Decl, v *Variant) []string {
	return []string{v.TypeName + ","}
}

func (flatbuffers) UnionFooter(d *Decl) []string {
	lines := []string{"}"}
	if u, ok := d.Node.(*schema.Union); ok && u.Root {
		lines = append(lines,
			"",
			"table "+d.Name+"Root {",
			"  value: "+d.Name+";",
			"}",
		)
	}
	return lines
}

func (flatbuffers) EnumHeader(d *Decl) []string {
	return []string{"enum " + d.Name + ": int32 {"}
}

func (flatbuffers) EnumCase(_ *Decl, value string) []string {
	return []string{Capitalize(value) + ","}
}

func (flatbuffers) EnumFooter(*Decl) []string { return []string{"}"} }
