package codegen

import (
	"fmt"

	"odf-codegen/internal/schema"
)

var rustGraphQLScalars = scalarTable{
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
		"path":            "OSPath",
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

// rustGraphQL emits async-graphql output types with From conversions from
// the DTOs. A GraphQL union member must be an object, so empty variants keep
// a placeholder struct.
type rustGraphQL struct{ rustVec }

func (rustGraphQL) Info() Info {
	return Info{
		Name:   "rust-graphql",
		Indent: "    ",
		Preamble: withWarning(
			"#![allow(unused_variables)]",
			"",
			"use async_graphql::*;",
			"use chrono::{DateTime, Utc};",
			"use opendatafabric as odf;",
			"",
			"use crate::prelude::*;",
			"use crate::scalars::*;",
			"",
		),
		EmptyVariantTypes: true,
		Skip:              []string{"Manifest"},
	}
}

func (rustGraphQL) MapScalar(s *schema.Scalar) (string, error) { return rustGraphQLScalars.lookup(s) }

func (rustGraphQL) AggregateHeader(d *Decl) []string {
	return append(rustDoc(d.Meta()),
		"#[derive(SimpleObject, Debug, Clone, PartialEq, Eq)]",
		"pub struct "+d.Name+" {",
	)
}

func (rustGraphQL) FieldLine(_ *Decl, f *Field) []string {
	return append(rustDoc(f.Meta), fmt.Sprintf("pub %s: %s,", rustField(f.Name), f.Type.Expr))
}

func (rustGraphQL) AggregateFooter(d *Decl) []string {
	if len(d.Fields) == 0 {
		lines := []string{"    pub _dummy: Option<String>,", "}"}
		if d.Tag != "" {
			// Built by the parent union conversion; the DTO variant has no payload.
			return lines
		}
		return append(lines,
			"",
			fmt.Sprintf("impl From<odf::%s> for %s {", d.Name, d.Name),
			fmt.Sprintf("    fn from(_: odf::%s) -> Self {", d.Name),
			"        Self { _dummy: None }",
			"    }",
			"}",
		)
	}

	lines := []string{
		"}",
		"",
		fmt.Sprintf("impl From<odf::%s> for %s {", d.Name, d.Name),
		fmt.Sprintf("    fn from(v: odf::%s) -> Self {", d.Name),
		"        Self {",
	}
	for _, f := range d.Fields {
		name := rustField(f.Name)
		var conv string
		switch {
		case f.Type.Kind == TypeArray && f.Required:
			conv = fmt.Sprintf("v.%s.into_iter().map(Into::into).collect()", name)
		case f.Type.Kind == TypeArray:
			conv = fmt.Sprintf("v.%s.map(|v| v.into_iter().map(Into::into).collect())", name)
		case f.Required:
			conv = fmt.Sprintf("v.%s.into()", name)
		default:
			conv = fmt.Sprintf("v.%s.map(Into::into)", name)
		}
		lines = append(lines, fmt.Sprintf("            %s: %s,", name, conv))
	}
	return append(lines, "        }", "    }", "}")
}

func (rustGraphQL) UnionHeader(d *Decl) []string {
	return append(rustDoc(d.Meta()),
		"#[derive(Union, Debug, Clone, PartialEq, Eq)]",
		"pub enum "+d.Name+" {",
	)
}

func (rustGraphQL) VariantLine(_ *Decl, v *Variant) []string {
	return []string{fmt.Sprintf("%s(%s),", v.Tag, v.TypeName)}
}

func (rustGraphQL) UnionFooter(d *Decl) []string {
	lines := []string{
		"}",
		"",
		fmt.Sprintf("impl From<odf::%s> for %s {", d.Name, d.Name),
		fmt.Sprintf("    fn from(v: odf::%s) -> Self {", d.Name),
		"        match v {",
	}
	for _, v := range d.Variants {
		if v.Empty {
			lines = append(lines, fmt.Sprintf("            odf::%s::%s => Self::%s(%s { _dummy: None }),", d.Name, v.Tag, v.Tag, v.TypeName))
			continue
		}
		lines = append(lines, fmt.Sprintf("            odf::%s::%s(v) => Self::%s(v.into()),", d.Name, v.Tag, v.Tag))
	}
	return append(lines, "        }", "    }", "}")
}

func (rustGraphQL) EnumHeader(d *Decl) []string {
	return append(rustDoc(d.Meta()),
		"#[derive(Enum, Debug, Clone, Copy, PartialEq, Eq)]",
		"pub enum "+d.Name+" {",
	)
}

func (rustGraphQL) EnumCase(_ *Decl, value string) []string {
	return []string{Capitalize(value) + ","}
}

func (rustGraphQL) EnumFooter(d *Decl) []string {
	lines := []string{
		"}",
		"",
		fmt.Sprintf("impl From<odf::%s> for %s {", d.Name, d.Name),
		fmt.Sprintf("    fn from(v: odf::%s) -> Self {", d.Name),
		"        match v {",
	}
	for _, value := range d.Values {
		c := Capitalize(value)
		lines = append(lines, fmt.Sprintf("            odf::%s::%s => Self::%s,", d.Name, c, c))
	}
	lines = append(lines,
		"        }",
		"    }",
		"}",
		"",
		fmt.Sprintf("impl Into<odf::%s> for %s {", d.Name, d.Name),
		fmt.Sprintf("    fn into(self) -> odf::%s {", d.Name),
		"        match self {",
	)
	for _, value := range d.Values {
		c := Capitalize(value)
		lines = append(lines, fmt.Sprintf("            Self::%s => odf::%s::%s,", c, d.Name, c))
	}
	return append(lines, "        }", "    }", "}")
}
