package codegen

import (
	"fmt"

	"odf-codegen/internal/schema"
)

const defaultScalaPackage = "dev.kamu.core.manifests"

var scalaScalars = scalarTable{
	"boolean": {"": "Boolean"},
	"integer": {
		"":       "Int",
		"int16":  "Short",
		"int32":  "Int",
		"int64":  "Long",
		"uint16": "Int",
		"uint32": "Long",
		"uint64": "Long",
	},
	"string": {
		"":                   "String",
		"url":                "URI",
		"regex":              "String",
		"path":               "String",
		"date-time":          "Instant",
		"date-time-interval": "Interval[Instant]",
		"sha3-256":           "String",
		"multihash":          "Multihash",
		"multicodec":         "Multicodec",
		"dataset-id":         "DatasetID",
		"dataset-name":       "DatasetName",
		"dataset-alias":      "DatasetAlias",
		"dataset-ref":        "DatasetRef",
		"dataset-ref-any":    "DatasetRefAny",
		"flatbuffers":        "Array[Byte]",
	},
	"object": {"": "ConfigObject"},
}

var scalaKeywords = map[string]bool{
	"abstract": true, "case": true, "catch": true, "class": true, "def": true,
	"do": true, "else": true, "extends": true, "false": true, "final": true,
	"finally": true, "for": true, "forSome": true, "if": true, "implicit": true,
	"import": true, "lazy": true, "match": true, "new": true, "null": true,
	"object": true, "override": true, "package": true, "private": true,
	"protected": true, "return": true, "sealed": true, "super": true,
	"this": true, "throw": true, "trait": true, "true": true, "try": true,
	"type": true, "val": true, "var": true, "while": true, "with": true,
	"yield": true,
}

func scalaIdent(name string) string {
	if scalaKeywords[name] {
		return "`" + name + "`"
	}
	return name
}

// scala emits case classes and sealed traits. Reference variants are
// wrapped inside the union's companion object because an existing class
// cannot be made to extend the union trait afterwards.
type scala struct {
	Base
	pkg string
}

func newScala(pkg string) *scala {
	if pkg == "" {
		pkg = defaultScalaPackage
	}
	return &scala{pkg: pkg}
}

func (n *scala) Info() Info {
	return Info{
		Name:   "scala",
		Indent: "  ",
		Preamble: append([]string{
			"/*",
			" * Copyright 2018 kamu.dev",
			" *",
			" * This Source Code Form is subject to the terms of the Mozilla Public",
			" * License, v. 2.0. If a copy of the MPL was not distributed with this",
			" * file, You can obtain one at http://mozilla.org/MPL/2.0/.",
			" */",
			"",
			"package " + n.pkg,
			"",
			"import java.net.URI",
			"import java.time.Instant",
			"",
			"import com.typesafe.config.ConfigObject",
			"import spire.math.Interval",
			"",
		}, withWarning(
			"case class DatasetID(s: String) extends AnyVal {",
			"  override def toString: String = s",
			"}",
			"",
		)...),
		Skip: []string{"Manifest"},
	}
}

func (*scala) MapScalar(s *schema.Scalar) (string, error) { return scalaScalars.lookup(s) }

func (*scala) MapArray(_ *Context, item *Type) string { return "Vector[" + item.Expr + "]" }

func (*scala) MapOptional(_ *Context, t *Type) string { return "Option[" + t.Bare + "]" }

func (*scala) AggregateHeader(d *Decl) []string {
	return []string{"case class " + d.Name + " ("}
}

func (*scala) FieldLine(_ *Decl, f *Field) []string {
	if f.Type.Optional {
		return []string{fmt.Sprintf("%s: %s = None,", scalaIdent(f.Name), f.Type.Expr)}
	}
	return []string{fmt.Sprintf("%s: %s,", scalaIdent(f.Name), f.Type.Expr)}
}

func (*scala) AggregateFooter(d *Decl) []string {
	if d.Tag != "" {
		return []string{") extends " + d.Parent}
	}
	return []string{")"}
}

func (*scala) UnionHeader(d *Decl) []string {
	return []string{"sealed trait " + d.Name, "", "object " + d.Name + " {"}
}

func (n *scala) VariantLine(d *Decl, v *Variant) []string {
	switch {
	case !v.Payload:
		return []string{fmt.Sprintf("case object %s extends %s", v.Tag, d.Name)}
	case v.Inline:
		return []string{fmt.Sprintf("type %s = %s", v.Tag, v.TypeName)}
	default:
		return []string{fmt.Sprintf("case class %s(value: _root_.%s.%s) extends %s", v.Tag, n.pkg, v.TypeName, d.Name)}
	}
}

func (*scala) UnionFooter(*Decl) []string { return []string{"}"} }

func (*scala) EnumHeader(d *Decl) []string {
	return []string{"sealed trait " + d.Name, "", "object " + d.Name + " {"}
}

func (*scala) EnumCase(d *Decl, value string) []string {
	return []string{fmt.Sprintf("case object %s extends %s", Capitalize(value), d.Name)}
}

func (*scala) EnumFooter(*Decl) []string { return []string{"}"} }
