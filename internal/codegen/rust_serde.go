package codegen

import (
	"fmt"
	"slices"
	"strings"

	"odf-codegen/internal/schema"
)

const serdeMacro = `macro_rules! implement_serde_as {
    ($dto:ty, $impl:ty, $impl_name:literal) => {
        impl ::serde_with::SerializeAs<$dto> for $impl {
            fn serialize_as<S>(source: &$dto, serializer: S) -> Result<S::Ok, S::Error>
            where
                S: Serializer,
            {
                <$impl>::serialize(source, serializer)
            }
        }

        impl<'de> serde_with::DeserializeAs<'de, $dto> for $impl {
            fn deserialize_as<D>(deserializer: D) -> Result<$dto, D::Error>
            where
                D: Deserializer<'de>,
            {
                <$impl>::deserialize(deserializer)
            }
        }
    };
}`

// rustSerde emits remote serde definitions (XDef) mirroring the DTOs, so the
// wire casing and aliases stay out of the data types themselves.
type rustSerde struct{ rustVec }

func (rustSerde) Info() Info {
	preamble := withWarning(
		"#![allow(unused_variables)]",
		"#![allow(clippy::all)]",
		"#![allow(clippy::pedantic)]",
		"",
		"use std::path::PathBuf;",
		"",
		"use chrono::{DateTime, Utc};",
		"use serde::{Deserialize, Deserializer, Serialize, Serializer};",
		"use serde_with::{serde_as, skip_serializing_none};",
		"",
		"use super::formats::{base64, datetime_rfc3339, datetime_rfc3339_opt};",
		"use crate::*;",
		"",
	)
	preamble = append(preamble, splitLines(serdeMacro)...)
	return Info{
		Name:     "rust-serde",
		Indent:   "  ",
		Preamble: append(preamble, ""),
		Skip:     []string{"Manifest"},
	}
}

func (rustSerde) MapScalar(s *schema.Scalar) (string, error) { return rustDTOScalars.lookup(s) }

func (rustSerde) AggregateHeader(d *Decl) []string {
	return []string{
		"#[serde_as]",
		"#[skip_serializing_none]",
		"#[derive(Debug, Clone, PartialEq, Eq, Serialize, Deserialize)]",
		fmt.Sprintf("#[serde(remote = %q)]", d.Name),
		`#[serde(deny_unknown_fields, rename_all = "camelCase")]`,
		"pub struct " + d.Name + "Def {",
	}
}

func (rustSerde) FieldLine(_ *Decl, f *Field) []string {
	var lines []string
	t := f.Type
	bare := t
	if t.Kind == TypeArray {
		bare = t.Item
	}
	switch {
	case t.Kind == TypeScalar && t.Format() == "date-time":
		if f.Required {
			lines = append(lines, `#[serde(with = "datetime_rfc3339")]`)
		} else {
			lines = append(lines, `#[serde(default, with = "datetime_rfc3339_opt")]`)
		}
	case t.Kind == TypeScalar && t.Format() == "flatbuffers":
		lines = append(lines, `#[serde(with = "base64")]`)
	case bare.IsCustom():
		as := bare.Name + "Def"
		if t.Kind == TypeArray {
			as = "Vec<" + as + ">"
		}
		if !f.Required {
			as = "Option<" + as + ">"
		}
		lines = append(lines, fmt.Sprintf("#[serde_as(as = %q)]", as))
		if !f.Required {
			lines = append(lines, "#[serde(default)]")
		}
	}
	return append(lines, fmt.Sprintf("pub %s: %s,", rustField(f.Name), t.Expr))
}

func (rustSerde) AggregateFooter(d *Decl) []string { return serdeClose(d.Name) }

func (rustSerde) UnionHeader(d *Decl) []string {
	return []string{
		"#[serde_as]",
		"#[derive(Debug, Clone, PartialEq, Eq, Serialize, Deserialize)]",
		fmt.Sprintf("#[serde(remote = %q)]", d.Name),
		`#[serde(deny_unknown_fields, tag = "kind")]`,
		"pub enum " + d.Name + "Def {",
	}
}

func (rustSerde) VariantLine(_ *Decl, v *Variant) []string {
	lines := []string{serdeAliases(v.Tag)}
	if !v.Payload {
		return append(lines, v.Tag+",")
	}
	return append(lines, fmt.Sprintf("%s(#[serde_as(as = %q)] %s),", v.Tag, v.TypeName+"Def", v.TypeName))
}

func (rustSerde) UnionFooter(d *Decl) []string { return serdeClose(d.Name) }

func (rustSerde) EnumHeader(d *Decl) []string {
	return []string{
		"#[derive(Debug, Clone, Copy, PartialEq, Eq, Serialize, Deserialize)]",
		fmt.Sprintf("#[serde(remote = %q)]", d.Name),
		"#[serde(deny_unknown_fields)]",
		"pub enum " + d.Name + "Def {",
	}
}

func (rustSerde) EnumCase(_ *Decl, value string) []string {
	name := Capitalize(value)
	return []string{serdeAliases(name), name + ","}
}

func (rustSerde) EnumFooter(d *Decl) []string { return serdeClose(d.Name) }

func serdeClose(name string) []string {
	return []string{"}", "", fmt.Sprintf("implement_serde_as!(%s, %sDef, %q);", name, name, name+"Def")}
}

// serdeAliases accepts the lower-case and lower-camel spellings of name.
func serdeAliases(name string) string {
	aliases := []string{strings.ToLower(name), LowerFirst(name)}
	slices.Sort(aliases)
	aliases = slices.Compact(aliases)
	parts := make([]string, len(aliases))
	for i, a := range aliases {
		parts[i] = fmt.Sprintf("alias = %q", a)
	}
	return "#[serde(" + strings.Join(parts, ", ") + ")]"
}
