package codegen

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	json "github.com/goccy/go-json"

	"odf-codegen/internal/schema"
)

// Spellings are "type" or "type/format".
var openapiScalars = scalarTable{
	"boolean": {"": "boolean"},
	"integer": {
		"":       "integer/int32",
		"int16":  "integer/int32",
		"int32":  "integer/int32",
		"int64":  "integer/int64",
		"uint16": "integer",
		"uint32": "integer",
		"uint64": "integer",
	},
	"string": {
		"":                "string",
		"url":             "string/uri",
		"regex":           "string/regex",
		"path":            "string",
		"date-time":       "string/date-time",
		"multihash":       "string",
		"multicodec":      "integer",
		"dataset-id":      "string",
		"dataset-name":    "string",
		"dataset-alias":   "string",
		"dataset-ref":     "string",
		"dataset-ref-any": "string",
		"flatbuffers":     "string/byte",
	},
	"object": {"": "object"},
}

// OpenAPI renders the schema set as the components section of an OpenAPI
// 3 document. Unlike the line notations it builds a typed model and lets
// kin-openapi validate it before encoding.
type OpenAPI struct {
	Title   string
	Version string
}

func (*OpenAPI) Name() string { return "openapi" }

// Generate implements Generator.
func (g *OpenAPI) Generate(set *schema.Set, opts RenderOptions) ([]byte, error) {
	doc, err := g.Document(set, opts)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode openapi document: %w", err)
	}
	return append(data, '\n'), nil
}

// Document builds and validates the OpenAPI model.
func (g *OpenAPI) Document(set *schema.Set, opts RenderOptions) (*openapi3.T, error) {
	title, version := g.Title, g.Version
	if title == "" {
		title = "Open Data Fabric"
	}
	if version == "" {
		version = "0.0.0"
	}
	skip := opts.Skip
	if skip == nil {
		skip = []string{"Manifest"}
	}

	b := &openapiBuilder{set: set, components: openapi3.Schemas{}}
	for _, name := range set.Names() {
		if slices.Contains(skip, name) || (len(opts.Include) > 0 && !slices.Contains(opts.Include, name)) {
			continue
		}
		doc, _ := set.Get(name)
		b.doc = doc
		if err := b.declare(name, doc.Node); err != nil {
			return nil, schema.WrapDocument(doc, fmt.Errorf("render openapi: %w", err))
		}
	}
	if err := b.resolve(opts.logger()); err != nil {
		return nil, err
	}

	doc := &openapi3.T{
		OpenAPI:    "3.0.3",
		Info:       &openapi3.Info{Title: title, Version: version},
		Paths:      openapi3.NewPaths(),
		Components: &openapi3.Components{Schemas: b.components},
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("validate openapi document: %w", err)
	}
	return doc, nil
}

type openapiBuilder struct {
	set        *schema.Set
	doc        *schema.Document
	components openapi3.Schemas
	// refs are filled in once every component exists.
	refs []componentUse
}

// componentUse is a reference and the document it appears in.
type componentUse struct {
	ref  *openapi3.SchemaRef
	from *schema.Document
}

func componentRef(name string) string { return "#/components/schemas/" + name }

func (b *openapiBuilder) ref(name string) *openapi3.SchemaRef {
	r := &openapi3.SchemaRef{Ref: componentRef(name)}
	b.refs = append(b.refs, componentUse{ref: r, from: b.doc})
	return r
}

// resolve points every reference at its component. A document left out by
// Skip or Include is still declared when something refers to it, so the
// output stays self-contained.
func (b *openapiBuilder) resolve(log *slog.Logger) error {
	// Declaring a filtered document may append more references.
	for i := 0; i < len(b.refs); i++ {
		use := b.refs[i]
		name := strings.TrimPrefix(use.ref.Ref, componentRef(""))
		target, ok := b.components[name]
		if !ok {
			doc, known := b.set.Get(name)
			if !known {
				err := fmt.Errorf("%w: component %q is referenced but not declared", schema.ErrUnsupportedShape, name)
				return schema.WrapDocument(use.from, fmt.Errorf("render openapi: %w", err))
			}
			log.Debug("declaring filtered schema", "schema", name, "referenced_by", use.from.Name)
			b.doc = doc
			if err := b.declare(name, doc.Node); err != nil {
				return schema.WrapDocument(doc, fmt.Errorf("render openapi: %w", err))
			}
			target = b.components[name]
		}
		use.ref.Value = target.Value
	}
	return nil
}

// declare adds a named component for an object, union or enum node.
func (b *openapiBuilder) declare(name string, n schema.Node) error {
	if _, exists := b.components[name]; exists {
		return nil
	}
	s := &openapi3.Schema{Description: n.Info().Description}
	b.components[name] = openapi3.NewSchemaRef("", s)

	switch n := n.(type) {
	case *schema.Object:
		s.Type = &openapi3.Types{openapi3.TypeObject}
		s.Properties = openapi3.Schemas{}
		no := false
		s.AdditionalProperties = openapi3.AdditionalProperties{Has: &no}
		for _, p := range n.Properties {
			ps, err := b.inline(p.Node)
			if err != nil {
				return fmt.Errorf("%s.%s: %w", name, p.Name, err)
			}
			s.Properties[p.Name] = ps
			if p.Required {
				s.Required = append(s.Required, p.Name)
			}
		}
	case *schema.Union:
		for _, v := range n.Variants {
			target := v.Ref
			if v.IsInline() {
				target = name + v.Name
				if err := b.declare(target, v.Inline); err != nil {
					return err
				}
			}
			s.OneOf = append(s.OneOf, b.ref(target))
		}
	case *schema.StringEnum:
		s.Type = &openapi3.Types{openapi3.TypeString}
		for _, v := range n.Values {
			s.Enum = append(s.Enum, v)
		}
	default:
		return schema.NewShapeError(schema.ErrUnsupportedShape, n.Info().Path, "cannot declare a top-level %s", n.Shape())
	}
	return nil
}

// inline returns the schema of a property or item node, declaring
// components for enums and local definitions on the way.
func (b *openapiBuilder) inline(n schema.Node) (*openapi3.SchemaRef, error) {
	switch n := n.(type) {
	case *schema.Scalar:
		spelling, err := openapiScalars.lookup(n)
		if err != nil {
			return nil, err
		}
		typ, format, _ := strings.Cut(spelling, "/")
		s := &openapi3.Schema{Type: &openapi3.Types{typ}, Format: format, Description: n.Description}
		return openapi3.NewSchemaRef("", s), nil

	case *schema.Reference:
		if !n.Local {
			if _, ok := b.set.Get(n.Name); !ok {
				return nil, schema.NewShapeError(schema.ErrUnsupportedShape, n.Path, "reference to unknown schema %q", n.Name)
			}
			return b.ref(n.Name), nil
		}
		def, ok := b.doc.Def(n.Name)
		if !ok {
			return nil, schema.NewShapeError(schema.ErrUnsupportedShape, n.Path, "no definition %q", n.Name)
		}
		if _, declarable := declKind(def); !declarable {
			return b.inline(def)
		}
		name := b.doc.Name + n.Name
		if e, isEnum := def.(*schema.StringEnum); isEnum && e.Name != "" && e.Name != n.Name {
			name = e.Name
		}
		if err := b.declare(name, def); err != nil {
			return nil, err
		}
		return b.ref(name), nil

	case *schema.StringEnum:
		if err := b.declare(n.Name, n); err != nil {
			return nil, err
		}
		return b.ref(n.Name), nil

	case *schema.Array:
		items, err := b.inline(n.Items)
		if err != nil {
			return nil, err
		}
		s := &openapi3.Schema{Type: &openapi3.Types{openapi3.TypeArray}, Items: items, Description: n.Description}
		return openapi3.NewSchemaRef("", s), nil

	default:
		return nil, schema.NewShapeError(schema.ErrUnsupportedShape, n.Info().Path, "nested %s must be declared in $defs", n.Shape())
	}
}
