package codegen

import (
	"fmt"

	"odf-codegen/internal/schema"
)

const rustFlatbuffersPrelude = `#![allow(unused_variables)]
#![allow(clippy::all)]
#![allow(clippy::pedantic)]

use std::convert::TryFrom;
use std::path::PathBuf;

use ::flatbuffers::{FlatBufferBuilder, Table, TableFinishedWIPOffset, UnionWIPOffset, WIPOffset};
use chrono::prelude::*;

use super::proxies_generated as fb;
mod odf {
    pub use crate::dtos::*;
    pub use crate::formats::*;
    pub use crate::identity::*;
}

pub trait FlatbuffersSerializable<'fb> {
    type OffsetT;
    fn serialize(&self, fb: &mut FlatBufferBuilder<'fb>) -> Self::OffsetT;
}

pub trait FlatbuffersDeserializable<T> {
    fn deserialize(fb: T) -> Self;
}

trait FlatbuffersEnumSerializable<'fb, E> {
    fn serialize(&self, fb: &mut FlatBufferBuilder<'fb>) -> (E, WIPOffset<UnionWIPOffset>);
}

trait FlatbuffersEnumDeserializable<'fb, E> {
    fn deserialize(table: Table<'fb>, t: E) -> Self
    where
        Self: Sized;
}
`

const rustFlatbuffersHelpers = `fn datetime_to_fb(dt: &DateTime<Utc>) -> fb::Timestamp {
    fb::Timestamp::new(
        dt.year(),
        dt.ordinal() as u16,
        dt.num_seconds_from_midnight(),
        dt.nanosecond(),
    )
}

fn fb_to_datetime(dt: &fb::Timestamp) -> DateTime<Utc> {
    let naive_date_time = NaiveDate::from_yo_opt(dt.year(), dt.ordinal() as u32)
        .unwrap()
        .and_time(
            NaiveTime::from_num_seconds_from_midnight_opt(
                dt.seconds_from_midnight(),
                dt.nanoseconds(),
            )
            .unwrap(),
        );
    Utc.from_local_datetime(&naive_date_time).unwrap()
}

fn empty_table<'fb>(fb: &mut FlatBufferBuilder<'fb>) -> WIPOffset<TableFinishedWIPOffset> {
    let wip = fb.start_table();
    fb.end_table(wip)
}`

// rustFlatbuffers emits the glue between the DTOs and the flatc-generated
// proxies. It mirrors the rust-dtos shape, so empty variants carry no
// payload on the DTO side and an empty table on the wire.
type rustFlatbuffers struct{ rustVec }

func (rustFlatbuffers) Info() Info {
	return Info{
		Name:     "rust-flatbuffers",
		Indent:   "            ",
		Preamble: withWarning(splitLines(rustFlatbuffersPrelude + "\n")...),
		Footer:   splitLines(rustFlatbuffersHelpers),
		Skip:     []string{"Manifest", "DatasetSnapshot"},
	}
}

func (rustFlatbuffers) MapScalar(s *schema.Scalar) (string, error) { return rustDTOScalars.lookup(s) }

func (rustFlatbuffers) AggregateHeader(*Decl) []string { return nil }

func (rustFlatbuffers) AggregateFooter(d *Decl) []string {
	lines := []string{
		fmt.Sprintf("impl<'fb> FlatbuffersSerializable<'fb> for odf::%s {", d.Name),
		fmt.Sprintf("    type OffsetT = WIPOffset<fb::%s<'fb>>;", d.Name),
		"",
		"    fn serialize(&self, fb: &mut FlatBufferBuilder<'fb>) -> Self::OffsetT {",
	}
	for _, f := range d.Fields {
		if l := fbPreSerialize(f); l != "" {
			lines = append(lines, "        "+l)
		}
	}
	lines = append(lines, fmt.Sprintf("        let mut builder = fb::%sBuilder::new(fb);", d.Name))
	for _, f := range d.Fields {
		lines = append(lines, "        "+fbBuilderAdd(f))
	}
	lines = append(lines,
		"        builder.finish()",
		"    }",
		"}",
		"",
		fmt.Sprintf("impl<'fb> FlatbuffersDeserializable<fb::%s<'fb>> for odf::%s {", d.Name, d.Name),
		fmt.Sprintf("    fn deserialize(proxy: fb::%s<'fb>) -> Self {", d.Name),
		"        odf::"+d.Name+" {",
	)
	for _, f := range d.Fields {
		lines = append(lines, fmt.Sprintf("            %s: %s,", rustField(f.Name), fbDeserializeField(f)))
	}
	return append(lines, "        }", "    }", "}")
}

func (rustFlatbuffers) UnionHeader(d *Decl) []string {
	return []string{
		fmt.Sprintf("impl<'fb> FlatbuffersEnumSerializable<'fb, fb::%s> for odf::%s {", d.Name, d.Name),
		fmt.Sprintf("    fn serialize(&self, fb: &mut FlatBufferBuilder<'fb>) -> (fb::%s, WIPOffset<UnionWIPOffset>) {", d.Name),
		"        match self {",
	}
}

func (rustFlatbuffers) VariantLine(d *Decl, v *Variant) []string {
	if !v.Payload {
		return []string{fmt.Sprintf("odf::%s::%s => (fb::%s::%s, empty_table(fb).as_union_value()),", d.Name, v.Tag, d.Name, v.TypeName)}
	}
	return []string{fmt.Sprintf("odf::%s::%s(v) => (fb::%s::%s, v.serialize(fb).as_union_value()),", d.Name, v.Tag, d.Name, v.TypeName)}
}

func (rustFlatbuffers) UnionFooter(d *Decl) []string {
	lines := []string{
		"        }",
		"    }",
		"}",
		"",
		fmt.Sprintf("impl<'fb> FlatbuffersEnumDeserializable<'fb, fb::%s> for odf::%s {", d.Name, d.Name),
		fmt.Sprintf("    fn deserialize(table: Table<'fb>, t: fb::%s) -> Self {", d.Name),
		"        match t {",
	}
	for _, v := range d.Variants {
		if !v.Payload {
			lines = append(lines, fmt.Sprintf("            fb::%s::%s => odf::%s::%s,", d.Name, v.TypeName, d.Name, v.Tag))
			continue
		}
		lines = append(lines, fmt.Sprintf(
			"            fb::%s::%s => odf::%s::%s(odf::%s::deserialize(unsafe { fb::%s::init_from_table(table) })),",
			d.Name, v.TypeName, d.Name, v.Tag, v.TypeName, v.TypeName))
	}
	return append(lines,
		`            _ => panic!("Invalid enum value: {}", t.0),`,
		"        }",
		"    }",
		"}",
	)
}

func (rustFlatbuffers) EnumHeader(d *Decl) []string {
	return []string{
		fmt.Sprintf("impl From<odf::%s> for fb::%s {", d.Name, d.Name),
		fmt.Sprintf("    fn from(v: odf::%s) -> Self {", d.Name),
		"        match v {",
	}
}

func (rustFlatbuffers) EnumCase(d *Decl, value string) []string {
	c := Capitalize(value)
	return []string{fmt.Sprintf("odf::%s::%s => fb::%s::%s,", d.Name, c, d.Name, c)}
}

func (rustFlatbuffers) EnumFooter(d *Decl) []string {
	lines := []string{
		"        }",
		"    }",
		"}",
		"",
		fmt.Sprintf("impl Into<odf::%s> for fb::%s {", d.Name, d.Name),
		fmt.Sprintf("    fn into(self) -> odf::%s {", d.Name),
		"        match self {",
	}
	for _, value := range d.Values {
		c := Capitalize(value)
		lines = append(lines, fmt.Sprintf("            fb::%s::%s => odf::%s::%s,", d.Name, c, d.Name, c))
	}
	return append(lines,
		`            _ => panic!("Invalid enum value: {}", self.0),`,
		"        }",
		"    }",
		"}",
	)
}

// fbInline reports whether a value is stored in the table itself rather than
// behind an offset.
func fbInline(t *Type) bool {
	switch t.Kind {
	case TypeEnum:
		return true
	case TypeScalar:
		switch t.Scalar.Type {
		case "boolean", "integer":
			return true
		case "string":
			return t.Format() == "multicodec" || t.Format() == "date-time"
		}
	}
	return false
}

// fbOffset returns the expression creating the offset of the referenced
// value v.
func fbOffset(v string, t *Type) string {
	switch t.Kind {
	case TypeStruct, TypeUnion:
		return v + ".serialize(fb)"
	case TypeArray:
		return fbVector(v, t.Item)
	}
	switch t.Format() {
	case "dataset-alias", "dataset-name", "dataset-ref", "dataset-ref-any":
		return fmt.Sprintf("fb.create_string(&%s.to_string())", v)
	case "dataset-id", "multihash":
		return fmt.Sprintf("fb.create_vector(&%s.as_bytes().as_slice())", v)
	case "flatbuffers":
		return fmt.Sprintf("fb.create_vector(&%s[..])", v)
	case "path":
		return fmt.Sprintf("fb.create_string(%s.to_str().unwrap())", v)
	default:
		return fmt.Sprintf("fb.create_string(&%s)", v)
	}
}

func fbVector(v string, item *Type) string {
	switch {
	case item.Kind == TypeUnion:
		return fmt.Sprintf("{ let offsets: Vec<_> = %s.iter().map(|i| { let (value_type, value_offset) = i.serialize(fb); let mut builder = fb::%sWrapperBuilder::new(fb); builder.add_value_type(value_type); builder.add_value(value_offset); builder.finish() }).collect(); fb.create_vector(&offsets) }", v, item.Name)
	case item.Kind == TypeEnum:
		return fmt.Sprintf("{ let values: Vec<fb::%s> = %s.iter().map(|i| (*i).into()).collect(); fb.create_vector(&values) }", item.Name, v)
	case item.Format() == "date-time":
		return fmt.Sprintf("{ let values: Vec<fb::Timestamp> = %s.iter().map(datetime_to_fb).collect(); fb.create_vector(&values) }", v)
	case fbInline(item):
		return fmt.Sprintf("fb.create_vector(&%s[..])", v)
	default:
		return fmt.Sprintf("{ let offsets: Vec<_> = %s.iter().map(|i| %s).collect(); fb.create_vector(&offsets) }", v, fbOffset("i", item))
	}
}

func fbPreSerialize(f *Field) string {
	bare := fbBare(f.Type)
	if fbInline(bare) {
		return ""
	}
	name := rustField(f.Name)
	if f.Required {
		return fmt.Sprintf("let %s_offset = { let v = &self.%s; %s };", name, name, fbOffset("v", bare))
	}
	return fmt.Sprintf("let %s_offset = self.%s.as_ref().map(|v| %s);", name, name, fbOffset("v", bare))
}

func fbBuilderAdd(f *Field) string {
	bare := fbBare(f.Type)
	name := rustField(f.Name)
	if !fbInline(bare) {
		switch {
		case bare.Kind == TypeUnion && f.Required:
			return fmt.Sprintf("builder.add_%s_type(%s_offset.0); builder.add_%s(%s_offset.1);", name, name, name, name)
		case bare.Kind == TypeUnion:
			return fmt.Sprintf("%s_offset.map(|(e, v)| { builder.add_%s_type(e); builder.add_%s(v) });", name, name, name)
		case f.Required:
			return fmt.Sprintf("builder.add_%s(%s_offset);", name, name)
		default:
			return fmt.Sprintf("%s_offset.map(|v| builder.add_%s(v));", name, name)
		}
	}
	value := func(v string) string {
		switch {
		case bare.Kind == TypeEnum:
			return v + ".into()"
		case bare.Format() == "date-time":
			return "&datetime_to_fb(&" + v + ")"
		case bare.Format() == "multicodec":
			return v + " as i64"
		default:
			return v
		}
	}
	if f.Required {
		return fmt.Sprintf("builder.add_%s(%s);", name, value("self."+name))
	}
	return fmt.Sprintf("self.%s.map(|v| builder.add_%s(%s));", name, name, value("v"))
}

func fbDeserializeField(f *Field) string {
	bare := fbBare(f.Type)
	name := rustField(f.Name)
	accessor := "proxy." + name + "()"

	var conv string
	if bare.Kind == TypeUnion {
		conv = fmt.Sprintf("%s.map(|v| odf::%s::deserialize(v, proxy.%s_type()))", accessor, bare.Name, name)
	} else {
		conv = fmt.Sprintf("%s.map(|v| %s)", accessor, fbValue("v", bare))
	}

	// Required inline scalars are read directly; everything else is optional
	// in the proxy.
	if fbInline(bare) && bare.Format() != "date-time" {
		if f.Required {
			return fbValue(accessor, bare)
		}
		return conv
	}
	if f.Required {
		return conv + ".unwrap()"
	}
	return conv
}

// fbValue converts the proxy value x into the DTO type.
func fbValue(x string, t *Type) string {
	switch t.Kind {
	case TypeEnum:
		return x + ".into()"
	case TypeStruct:
		return fmt.Sprintf("odf::%s::deserialize(%s)", t.Name, x)
	case TypeUnion:
		return fmt.Sprintf("odf::%s::deserialize(%s.value().unwrap(), %s.value_type())", t.Name, x, x)
	case TypeArray:
		return fmt.Sprintf("%s.iter().map(|i| %s).collect()", x, fbValue("i", t.Item))
	}
	switch t.Format() {
	case "dataset-alias":
		return fmt.Sprintf("odf::DatasetAlias::try_from(%s).unwrap()", x)
	case "dataset-name":
		return fmt.Sprintf("odf::DatasetName::try_from(%s).unwrap()", x)
	case "dataset-ref":
		return fmt.Sprintf("odf::DatasetRef::try_from(%s).unwrap()", x)
	case "dataset-ref-any":
		return fmt.Sprintf("odf::DatasetRefAny::try_from(%s).unwrap()", x)
	case "dataset-id":
		return fmt.Sprintf("odf::DatasetID::from_bytes(%s.bytes()).unwrap()", x)
	case "multihash":
		return fmt.Sprintf("odf::Multihash::from_bytes(%s.bytes()).unwrap()", x)
	case "multicodec":
		return fmt.Sprintf("odf::Multicodec::try_from(%s as u32).unwrap()", x)
	case "date-time":
		return fmt.Sprintf("fb_to_datetime(%s)", x)
	case "flatbuffers":
		return x + ".bytes().to_vec()"
	case "path":
		return fmt.Sprintf("PathBuf::from(%s)", x)
	}
	if t.Scalar != nil && t.Scalar.Type == "string" {
		return x + ".to_owned()"
	}
	return x
}

// fbBare strips optional wrapping.
func fbBare(t *Type) *Type {
	if !t.Optional {
		return t
	}
	inner := *t
	inner.Optional = false
	inner.Expr = t.Bare
	return &inner
}
