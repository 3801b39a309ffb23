package codegen

import (
	"fmt"

	"odf-codegen/internal/schema"
)

// Every string format collapses to String in the serde-only model.
var rustPlainScalars = scalarTable{
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
		"":                   "String",
		"url":                "String",
		"regex":              "String",
		"path":               "String",
		"date-time":          "DateTime<Utc>",
		"date-time-interval": "String",
		"sha3-256":           "String",
		"multihash":          "String",
		"multicodec":         "String",
		"dataset-id":         "String",
		"dataset-name":       "String",
		"dataset-alias":      "String",
		"dataset-ref":        "String",
		"dataset-ref-any":    "String",
		"flatbuffers":        "String",
	},
}

// rustPlain emits self-contained serde types with no dependency on the
// identity and format crates.
type rustPlain struct{ rustVec }

func (rustPlain) Info() Info {
	return Info{
		Name:   "rust",
		Indent: "    ",
		Preamble: withWarning(
			"use chrono::{DateTime, Utc};",
			"use serde::{Deserialize, Serialize};",
			"",
		),
		Skip: []string{"Manifest"},
	}
}

func (rustPlain) MapScalar(s *schema.Scalar) (string, error) { return rustPlainScalars.lookup(s) }

func (rustPlain) AggregateHeader(d *Decl) []string {
	return []string{
		"#[derive(Debug, Clone, PartialEq, Eq, Serialize, Deserialize)]",
		`#[serde(deny_unknown_fields, rename_all = "camelCase")]`,
		"pub struct " + d.Name + " {",
	}
}

func (rustPlain) FieldLine(_ *Decl, f *Field) []string {
	lines := []string{}
	if !f.Required {
		lines = append(lines, "#[serde(default)]")
	}
	return append(lines, fmt.Sprintf("pub %s: %s,", rustField(f.Name), f.Type.Expr))
}

func (rustPlain) AggregateFooter(*Decl) []string { return []string{"}"} }

func (rustPlain) UnionHeader(d *Decl) []string {
	return []string{
		"#[derive(Debug, Clone, PartialEq, Eq, Serialize, Deserialize)]",
		`#[serde(deny_unknown_fields, tag = "kind")]`,
		"pub enum " + d.Name + " {",
	}
}

func (rustPlain) VariantLine(_ *Decl, v *Variant) []string {
	if !v.Payload {
		return []string{v.Tag + ","}
	}
	return []string{fmt.Sprintf("%s(%s),", v.Tag, v.TypeName)}
}

func (rustPlain) UnionFooter(*Decl) []string { return []string{"}"} }

func (rustPlain) EnumHeader(d *Decl) []string {
	return []string{
		"#[derive(Debug, Clone, Copy, PartialEq, Eq, Serialize, Deserialize)]",
		"pub enum " + d.Name + " {",
	}
}

func (rustPlain) EnumCase(_ *Decl, value string) []string {
	return []string{Capitalize(value) + ","}
}

func (rustPlain) EnumFooter(*Decl) []string { return []string{"}"} }
