package codegen

import (
	"fmt"
	"strings"

	"odf-codegen/internal/schema"
)

var rustTraitScalars = scalarTable{
	"boolean": {"": "bool"},
	"integer": {
		"":       "i32",
		"int16":  "i16",
		"int32":  "i32",
		"int64":  "i64",
		"uint16": "u16",
		"uint32": "u32",
		"uint64": "u64",
	},
	"string": {
		"":                   "&str",
		"url":                "&str",
		"regex":              "&str",
		"path":               "&Path",
		"date-time":          "DateTime<Utc>",
		"date-time-interval": "TimeInterval",
		"sha3-256":           "&Sha3_256",
		"multihash":          "&Multihash",
		"multicodec":         "Multicodec",
		"dataset-id":         "&DatasetID",
		"dataset-name":       "&DatasetName",
		"dataset-alias":      "&DatasetAlias",
		"dataset-ref":        "&DatasetRef",
		"dataset-ref-any":    "&DatasetRefAny",
		"flatbuffers":        "&[u8]",
	},
}

// rustTraits emits borrowing accessor traits over the DTOs, so consumers can
// read metadata without owning it.
type rustTraits struct{ Base }

func (rustTraits) Info() Info {
	return Info{
		Name:   "rust-traits",
		Indent: "    ",
		Preamble: withWarning(
			"#![allow(unused_variables)]",
			"#![allow(clippy::all)]",
			"#![allow(clippy::pedantic)]",
			"",
			"use std::path::Path;",
			"",
			"use chrono::{DateTime, Utc};",
			"",
			"use super::{DatasetAlias, DatasetID, DatasetName, DatasetRef, DatasetRefAny, Multicodec, Multihash};",
			"",
		),
		Skip: []string{"Manifest"},
	}
}

func (rustTraits) MapScalar(s *schema.Scalar) (string, error) { return rustTraitScalars.lookup(s) }

func (rustTraits) MapReference(name string, kind TypeKind) string {
	if kind == TypeStruct {
		return "&dyn " + name
	}
	return name
}

func (rustTraits) MapArray(_ *Context, item *Type) string {
	return "Box<dyn Iterator<Item = " + item.Expr + "> + '_>"
}

func (rustTraits) MapOptional(_ *Context, t *Type) string { return "Option<" + t.Bare + ">" }

func (rustTraits) AggregateHeader(d *Decl) []string {
	return append(rustDoc(d.Meta()), "pub trait "+d.Name+" {")
}

func (rustTraits) FieldLine(_ *Decl, f *Field) []string {
	return []string{fmt.Sprintf("fn %s(&self) -> %s;", rustField(f.Name), f.Type.Expr)}
}

func (rustTraits) AggregateFooter(d *Decl) []string {
	lines := []string{"}", "", fmt.Sprintf("impl %s for super::%s {", d.Name, d.Name)}
	for _, f := range d.Fields {
		name := rustField(f.Name)
		lines = append(lines,
			fmt.Sprintf("    fn %s(&self) -> %s {", name, f.Type.Expr),
			"        "+traitAccess("self."+name, false, f.Type),
			"    }",
		)
	}
	lines = append(lines,
		"}",
		"",
		fmt.Sprintf("impl Into<super::%s> for &dyn %s {", d.Name, d.Name),
		fmt.Sprintf("    fn into(self) -> super::%s {", d.Name),
		"        super::"+d.Name+" {",
	)
	for _, f := range d.Fields {
		name := rustField(f.Name)
		lines = append(lines, fmt.Sprintf("            %s: %s,", name, traitOwned("self."+name+"()", f.Type)))
	}
	return append(lines, "        }", "    }", "}")
}

func (rustTraits) UnionHeader(d *Decl) []string {
	return append(rustDoc(d.Meta()), "pub enum "+d.Name+"<'a> {")
}

func (rustTraits) VariantLine(_ *Decl, v *Variant) []string {
	switch {
	case !v.Payload:
		return []string{v.Tag + ","}
	case v.Kind == TypeStruct:
		return []string{fmt.Sprintf("%s(&'a dyn %s),", v.Tag, v.TypeName)}
	default:
		return []string{fmt.Sprintf("%s(%s),", v.Tag, v.TypeName)}
	}
}

func (rustTraits) UnionFooter(d *Decl) []string {
	borrows := false
	for _, v := range d.Variants {
		if v.Payload && v.Kind == TypeStruct {
			borrows = true
		}
	}
	var lines []string
	if !borrows {
		lines = append(lines, "    _Phantom(std::marker::PhantomData<&'a ()>),")
	}
	lines = append(lines,
		"}",
		"",
		fmt.Sprintf("impl<'a> From<&'a super::%s> for %s<'a> {", d.Name, d.Name),
		fmt.Sprintf("    fn from(other: &'a super::%s) -> Self {", d.Name),
		"        match other {",
	)
	for _, v := range d.Variants {
		var arm string
		switch {
		case !v.Payload:
			arm = fmt.Sprintf("super::%s::%s => %s::%s,", d.Name, v.Tag, d.Name, v.Tag)
		case v.Kind == TypeStruct:
			arm = fmt.Sprintf("super::%s::%s(v) => %s::%s(v),", d.Name, v.Tag, d.Name, v.Tag)
		default:
			arm = fmt.Sprintf("super::%s::%s(v) => %s::%s(*v),", d.Name, v.Tag, d.Name, v.Tag)
		}
		lines = append(lines, "            "+arm)
	}
	lines = append(lines,
		"        }",
		"    }",
		"}",
		"",
		fmt.Sprintf("impl Into<super::%s> for %s<'_> {", d.Name, d.Name),
		fmt.Sprintf("    fn into(self) -> super::%s {", d.Name),
		"        match self {",
	)
	for _, v := range d.Variants {
		var arm string
		switch {
		case !v.Payload:
			arm = fmt.Sprintf("%s::%s => super::%s::%s,", d.Name, v.Tag, d.Name, v.Tag)
		case v.Kind == TypeStruct:
			arm = fmt.Sprintf("%s::%s(v) => super::%s::%s(v.into()),", d.Name, v.Tag, d.Name, v.Tag)
		default:
			arm = fmt.Sprintf("%s::%s(v) => super::%s::%s(v),", d.Name, v.Tag, d.Name, v.Tag)
		}
		lines = append(lines, "            "+arm)
	}
	if !borrows {
		lines = append(lines, fmt.Sprintf("            %s::_Phantom(_) => unreachable!(),", d.Name))
	}
	return append(lines, "        }", "    }", "}")
}

// Enums are plain Copy values; the DTO type is re-exported as is.
func (rustTraits) EnumHeader(d *Decl) []string {
	return []string{"pub use super::" + d.Name + ";"}
}

// traitAccess returns an expression reading x as the trait type t. ref
// reports whether x is already a reference.
func traitAccess(x string, ref bool, t *Type) string {
	if t.Optional {
		inner := *t
		inner.Optional = false
		inner.Expr = t.Bare
		return fmt.Sprintf("%s.as_ref().map(|v| -> %s { %s })", x, t.Bare, traitAccess("v", true, &inner))
	}
	switch t.Kind {
	case TypeArray:
		return fmt.Sprintf("Box::new(%s.iter().map(|i| -> %s { %s }))", x, t.Item.Expr, traitAccess("i", true, t.Item))
	case TypeUnion:
		if ref {
			return t.Name + "::from(" + x + ")"
		}
		return t.Name + "::from(&" + x + ")"
	case TypeStruct:
		if ref {
			return x
		}
		return "&" + x
	default:
		borrowed := strings.HasPrefix(t.Expr, "&")
		switch {
		case borrowed && ref:
			return x
		case borrowed:
			return "&" + x
		case ref:
			return "*" + x
		default:
			return x
		}
	}
}

// traitOwned converts the trait value x back into the owned DTO field.
func traitOwned(x string, t *Type) string {
	if t.Optional {
		inner := *t
		inner.Optional = false
		inner.Expr = t.Bare
		return fmt.Sprintf("%s.map(|v| %s)", x, traitOwned("v", &inner))
	}
	switch t.Kind {
	case TypeArray:
		return fmt.Sprintf("%s.map(|i| %s).collect()", x, traitOwned("i", t.Item))
	case TypeStruct, TypeUnion:
		return x + ".into()"
	case TypeEnum:
		return x
	default:
		if strings.HasPrefix(t.Expr, "&") {
			return x + ".to_owned()"
		}
		return x
	}
}
