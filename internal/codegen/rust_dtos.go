package codegen

import (
	"fmt"

	"odf-codegen/internal/schema"
)

var rustDTOScalars = scalarTable{
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
		"":                "String",
		"url":             "String",
		"regex":           "String",
		"path":            "PathBuf",
		"date-time":       "DateTime<Utc>",
		"multihash":       "Multihash",
		"multicodec":      "Multicodec",
		"dataset-id":      "DatasetID",
		"dataset-name":    "DatasetName",
		"dataset-alias":   "DatasetAlias",
		"dataset-ref":     "DatasetRef",
		"dataset-ref-any": "DatasetRefAny",
		"flatbuffers":     "Vec<u8>",
	},
}

// rustVec spells the owned Rust collection types shared by the DTO family.
type rustVec struct{ Base }

func (rustVec) MapArray(_ *Context, item *Type) string { return "Vec<" + item.Expr + ">" }

func (rustVec) MapOptional(_ *Context, t *Type) string { return "Option<" + t.Bare + ">" }

// rustDTOs emits the plain Rust data types every other Rust notation
// converts to or from.
type rustDTOs struct{ rustVec }

func (rustDTOs) Info() Info {
	return Info{
		Name:   "rust-dtos",
		Indent: "    ",
		Preamble: withWarning(
			"#![allow(clippy::all)]",
			"#![allow(clippy::pedantic)]",
			"",
			"use std::path::PathBuf;",
			"",
			"use chrono::{DateTime, Utc};",
			"",
			"use crate::enum_variants::*;",
			"use crate::formats::*;",
			"use crate::identity::*;",
			"",
		),
		Skip: []string{"Manifest"},
	}
}

func (rustDTOs) MapScalar(s *schema.Scalar) (string, error) { return rustDTOScalars.lookup(s) }

func (rustDTOs) AggregateHeader(d *Decl) []string {
	return append(rustDoc(d.Meta()),
		"#[derive(Clone, PartialEq, Eq, Debug)]",
		"pub struct "+d.Name+" {",
	)
}

func (rustDTOs) FieldLine(_ *Decl, f *Field) []string {
	return append(rustDoc(f.Meta), fmt.Sprintf("pub %s: %s,", rustField(f.Name), f.Type.Expr))
}

func (rustDTOs) AggregateFooter(*Decl) []string { return []string{"}"} }

func (rustDTOs) UnionHeader(d *Decl) []string {
	return append(rustDoc(d.Meta()),
		"#[derive(Clone, PartialEq, Eq, Debug)]",
		"pub enum "+d.Name+" {",
	)
}

func (rustDTOs) VariantLine(_ *Decl, v *Variant) []string {
	if !v.Payload {
		return []string{v.Tag + ","}
	}
	return []string{fmt.Sprintf("%s(%s),", v.Tag, v.TypeName)}
}

func (rustDTOs) UnionFooter(d *Decl) []string {
	lines := []string{"}", "", fmt.Sprintf("impl_enum_with_variants!(%s);", d.Name)}
	for _, v := range d.Variants {
		if v.Payload {
			lines = append(lines, fmt.Sprintf("impl_enum_variant!(%s::%s(%s));", d.Name, v.Tag, v.TypeName))
		}
	}
	return lines
}

func (rustDTOs) EnumHeader(d *Decl) []string {
	return append(rustDoc(d.Meta()),
		"#[derive(Clone, Copy, PartialEq, Eq, Debug)]",
		"pub enum "+d.Name+" {",
	)
}

func (rustDTOs) EnumCase(_ *Decl, value string) []string {
	return []string{Capitalize(value) + ","}
}

func (rustDTOs) EnumFooter(*Decl) []string { return []string{"}"} }
