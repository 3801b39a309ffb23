package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/tools/imports"

	"odf-codegen/internal/schema"
)

const defaultGoPackage = "odf"

var goScalars = scalarTable{
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
		"date-time":       "time.Time",
		"multihash":       "string",
		"multicodec":      "int64",
		"dataset-id":      "string",
		"dataset-name":    "string",
		"dataset-alias":   "string",
		"dataset-ref":     "string",
		"dataset-ref-any": "string",
		"flatbuffers":     "[]byte",
	},
	"object": {"": "json.RawMessage"},
}

var goInitialisms = []string{"Id", "Url", "Sql", "Json", "Http"}

// goIdent exports a property name, upper-casing common initialisms at the
// end of the name.
func goIdent(name string) string {
	s := Capitalize(name)
	for _, w := range goInitialisms {
		if strings.HasSuffix(s, w) && len(s) > len(w) {
			return strings.TrimSuffix(s, w) + strings.ToUpper(w)
		}
	}
	return s
}

// golang emits Go structs with json tags. Unions are sealed interfaces:
// every member implements an unexported marker method.
type golang struct {
	Base
	pkg string
}

func newGolang(pkg string) *golang {
	if pkg == "" {
		pkg = defaultGoPackage
	}
	return &golang{pkg: pkg}
}

func (n *golang) Info() Info {
	return Info{
		Name:   "go",
		Indent: "\t",
		Preamble: []string{
			"// Code generated by odfgen from Open Data Fabric schemas. DO NOT EDIT.",
			"",
			"package " + n.pkg,
			"",
		},
		EmptyVariantTypes: true,
		Skip:              []string{"Manifest"},
	}
}

func (*golang) MapScalar(s *schema.Scalar) (string, error) { return goScalars.lookup(s) }

func (*golang) MapArray(_ *Context, item *Type) string { return "[]" + item.Expr }

func (*golang) MapOptional(_ *Context, t *Type) string {
	switch {
	case t.Kind == TypeArray, t.Kind == TypeUnion:
		return t.Bare
	case t.Bare == "json.RawMessage", t.Bare == "[]byte":
		return t.Bare
	}
	return "*" + t.Bare
}

// Format resolves the time and encoding/json imports and gofmts the file.
func (*golang) Format(src []byte) ([]byte, error) {
	return imports.Process("odf_generated.go", src, nil)
}

func goDoc(name string, m *schema.Meta) []string {
	if m == nil || m.Description == "" {
		return nil
	}
	lines := splitLines(m.Description)
	lines[0] = name + ": " + lines[0]
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = strings.TrimRight("// "+l, " ")
	}
	return out
}

func (*golang) AggregateHeader(d *Decl) []string {
	return append(goDoc(d.Name, d.Meta()), "type "+d.Name+" struct {")
}

func (*golang) FieldLine(_ *Decl, f *Field) []string {
	tag := f.Name
	if !f.Required {
		tag += ",omitempty"
	}
	line := fmt.Sprintf("%s %s `json:%s`", goIdent(f.Name), f.Type.Expr, strconv.Quote(tag))
	return append(goDoc(goIdent(f.Name), f.Meta), line)
}

func (*golang) AggregateFooter(*Decl) []string { return []string{"}"} }

func (*golang) UnionHeader(d *Decl) []string {
	return append(goDoc(d.Name, d.Meta()),
		"type "+d.Name+" interface {",
		"\tis"+d.Name+"()",
		"}",
		"",
	)
}

// VariantLine attaches the marker method. A union member that is itself an
// interface cannot carry methods and is skipped.
func (*golang) VariantLine(d *Decl, v *Variant) []string {
	if v.Kind == TypeUnion {
		d.Ctx.Logger().Debug("skipping union member", "union", d.Name, "member", v.TypeName, "reason", "member is an interface")
		return nil
	}
	return []string{fmt.Sprintf("func (%s) is%s() {}", v.TypeName, d.Name)}
}

func (*golang) EnumHeader(d *Decl) []string {
	return append(goDoc(d.Name, d.Meta()),
		"type "+d.Name+" string",
		"",
		"const (",
	)
}

func (*golang) EnumCase(d *Decl, value string) []string {
	return []string{fmt.Sprintf("%s%s %s = %s", d.Name, Capitalize(value), d.Name, strconv.Quote(value))}
}

func (*golang) EnumFooter(*Decl) []string { return []string{")"} }
