package schema

import (
	"fmt"
	"path"
	"strings"
)

type position int

const (
	posTop position = iota
	posDef
	posNested
)

const localDefsPrefix = "#/$defs/"

// normalizer turns the raw tree of one document into the closed node variant.
type normalizer struct {
	doc     *Document
	rawDefs *Map
	defs    map[string]Node
	pending map[string]bool
}

func normalize(doc *Document) error {
	n := &normalizer{
		doc:     doc,
		defs:    map[string]Node{},
		pending: map[string]bool{},
	}
	if v, ok := doc.Tree.Get("$defs"); ok {
		defs, ok := v.(*Map)
		if !ok {
			return shapeErrorf(ErrUnsupportedShape, "#/$defs", "want object, got %s", describe(v))
		}
		n.rawDefs = defs
	}
	for _, name := range n.rawDefs.Keys() {
		node, err := n.def(name)
		if err != nil {
			return err
		}
		doc.Defs = append(doc.Defs, &Def{Name: name, Node: node})
	}
	node, err := n.node(doc.Tree, "#", posTop)
	if err != nil {
		return err
	}
	doc.Node = node
	return nil
}

// def normalizes a $defs entry on first use so that definitions may refer to
// each other regardless of declaration order.
func (n *normalizer) def(name string) (Node, error) {
	if node, ok := n.defs[name]; ok {
		return node, nil
	}
	raw, ok := n.rawDefs.Get(name)
	if !ok {
		return nil, nil
	}
	p := localDefsPrefix + pointerEscape(name)
	if n.pending[name] {
		return nil, shapeErrorf(ErrUnsupportedShape, p, "definition %q contains itself", name)
	}
	n.pending[name] = true
	defer delete(n.pending, name)

	node, err := n.node(raw, p, posDef)
	if err != nil {
		return nil, err
	}
	n.defs[name] = node
	return node, nil
}

func (n *normalizer) node(raw any, p string, pos position) (Node, error) {
	m, ok := raw.(*Map)
	if !ok {
		return nil, shapeErrorf(ErrUnsupportedShape, p, "want schema object, got %s", describe(raw))
	}
	meta, err := readMeta(m, p)
	if err != nil {
		return nil, err
	}

	if v, ok := m.Get("$ref"); ok {
		ref, ok := v.(string)
		if !ok {
			return nil, shapeErrorf(ErrUnsupportedShape, p, "$ref must be a string")
		}
		return n.reference(ref, meta)
	}
	if m.Has("oneOf") {
		return n.union(m, meta)
	}

	typ, err := optString(m, "type", p)
	if err != nil {
		return nil, err
	}
	format, err := optString(m, "format", p)
	if err != nil {
		return nil, err
	}

	switch typ {
	case "object":
		if pos == posNested && !m.Has("properties") {
			return &Scalar{Meta: meta, Type: "object", Format: format}, nil
		}
		return n.object(m, meta)
	case "array":
		items, ok := m.Get("items")
		if !ok {
			return nil, shapeErrorf(ErrUnsupportedShape, p, "array without items")
		}
		item, err := n.node(items, p+"/items", posNested)
		if err != nil {
			return nil, err
		}
		return &Array{Meta: meta, Items: item}, nil
	case "string":
		if m.Has("enum") {
			return n.stringEnum(m, meta, pos)
		}
		return &Scalar{Meta: meta, Type: typ, Format: format}, nil
	case "integer", "boolean":
		return &Scalar{Meta: meta, Type: typ, Format: format}, nil
	case "":
		return nil, shapeErrorf(ErrUnsupportedShape, p, "no $ref, oneOf or type")
	default:
		return nil, shapeErrorf(ErrUnsupportedShape, p, "type %q", typ)
	}
}

func (n *normalizer) reference(ref string, meta Meta) (Node, error) {
	if strings.HasPrefix(ref, localDefsPrefix) {
		name := pointerUnescape(strings.TrimPrefix(ref, localDefsPrefix))
		if !n.rawDefs.Has(name) {
			return nil, shapeErrorf(ErrUnsupportedShape, meta.Path, "local reference %q has no definition", ref)
		}
		return &Reference{Meta: meta, Name: name, Local: true}, nil
	}
	if strings.HasPrefix(ref, "#") {
		return nil, shapeErrorf(ErrUnsupportedShape, meta.Path, "reference %q is neither global nor under $defs", ref)
	}
	name := RefName(ref)
	if name == "" {
		return nil, shapeErrorf(ErrUnsupportedShape, meta.Path, "empty reference %q", ref)
	}
	return &Reference{Meta: meta, Name: name}, nil
}

func (n *normalizer) union(m *Map, meta Meta) (Node, error) {
	v, _ := m.Get("oneOf")
	branches, ok := v.([]any)
	if !ok {
		return nil, shapeErrorf(ErrUnsupportedShape, meta.Path, "oneOf must be an array")
	}
	u := &Union{Meta: meta}
	if r, ok := m.Get("root"); ok {
		b, ok := r.(bool)
		if !ok {
			return nil, shapeErrorf(ErrUnsupportedShape, meta.Path, "root must be a boolean")
		}
		u.Root = b
	}
	for i, b := range branches {
		bp := fmt.Sprintf("%s/oneOf/%d", meta.Path, i)
		bm, ok := b.(*Map)
		if !ok {
			return nil, shapeErrorf(ErrUnsupportedShape, bp, "want schema object, got %s", describe(b))
		}
		ref, err := optString(bm, "$ref", bp)
		if err != nil {
			return nil, err
		}
		switch {
		case ref == "":
			return nil, shapeErrorf(ErrUnsupportedShape, bp, "union branch must be a $ref")
		case strings.HasPrefix(ref, localDefsPrefix):
			name := pointerUnescape(strings.TrimPrefix(ref, localDefsPrefix))
			def, err := n.def(name)
			if err != nil {
				return nil, err
			}
			if def == nil {
				return nil, shapeErrorf(ErrUnsupportedShape, bp, "local reference %q has no definition", ref)
			}
			obj, ok := def.(*Object)
			if !ok {
				return nil, shapeErrorf(ErrUnsupportedShape, bp, "inline variant %q is a %s, want object", name, def.Shape())
			}
			u.Variants = append(u.Variants, &Variant{Name: name, Inline: obj})
		case strings.HasPrefix(ref, "#"):
			return nil, shapeErrorf(ErrUnsupportedShape, bp, "reference %q is neither global nor under $defs", ref)
		default:
			name := RefName(ref)
			u.Variants = append(u.Variants, &Variant{Name: name, Ref: name})
		}
	}
	return u, nil
}

func (n *normalizer) object(m *Map, meta Meta) (Node, error) {
	if v, ok := m.Get("additionalProperties"); ok {
		if b, isBool := v.(bool); !isBool || b {
			return nil, shapeErrorf(ErrAdditionalProperties, meta.Path, "additionalProperties must be false")
		}
	}
	required := map[string]bool{}
	if v, ok := m.Get("required"); ok {
		list, ok := v.([]any)
		if !ok {
			return nil, shapeErrorf(ErrUnsupportedShape, meta.Path, "required must be an array")
		}
		for _, r := range list {
			s, ok := r.(string)
			if !ok {
				return nil, shapeErrorf(ErrUnsupportedShape, meta.Path, "required entries must be strings")
			}
			required[s] = true
		}
	}
	obj := &Object{Meta: meta}
	v, ok := m.Get("properties")
	if !ok {
		return obj, nil
	}
	props, ok := v.(*Map)
	if !ok {
		return nil, shapeErrorf(ErrUnsupportedShape, meta.Path, "properties must be an object")
	}
	for _, name := range props.Keys() {
		raw, _ := props.Get(name)
		node, err := n.node(raw, meta.Path+"/properties/"+pointerEscape(name), posNested)
		if err != nil {
			return nil, err
		}
		obj.Properties = append(obj.Properties, &Property{Name: name, Node: node, Required: required[name]})
	}
	return obj, nil
}

func (n *normalizer) stringEnum(m *Map, meta Meta, pos position) (Node, error) {
	v, _ := m.Get("enum")
	list, ok := v.([]any)
	if !ok || len(list) == 0 {
		return nil, shapeErrorf(ErrUnsupportedShape, meta.Path, "enum must be a non-empty array")
	}
	e := &StringEnum{Meta: meta}
	for _, item := range list {
		s, ok := item.(string)
		if !ok || s == "" {
			return nil, shapeErrorf(ErrUnsupportedShape, meta.Path, "enum values must be non-empty strings")
		}
		e.Values = append(e.Values, s)
	}
	name, err := optString(m, "enumName", meta.Path)
	if err != nil {
		return nil, err
	}
	switch {
	case name != "":
		e.Name = name
	case pos == posTop:
		e.Name = n.doc.Name
	case pos == posDef:
		e.Name = lastSegment(meta.Path)
	default:
		return nil, shapeErrorf(ErrUnsupportedShape, meta.Path, "inline enum requires enumName")
	}
	return e, nil
}

func readMeta(m *Map, p string) (Meta, error) {
	meta := Meta{Path: p}
	desc, err := optString(m, "description", p)
	if err != nil {
		return meta, err
	}
	meta.Description = desc
	if v, ok := m.Get("default"); ok {
		meta.Default = v
	}
	if v, ok := m.Get("examples"); ok {
		list, ok := v.([]any)
		if !ok {
			return meta, shapeErrorf(ErrUnsupportedShape, p, "examples must be an array")
		}
		meta.Examples = list
	}
	return meta, nil
}

func optString(m *Map, key, p string) (string, error) {
	v, ok := m.Get(key)
	if !ok {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", shapeErrorf(ErrUnsupportedShape, p, "%s must be a string, got %s", key, describe(v))
	}
	return s, nil
}

// RefName returns the type name a global $ref or $id points at: the last
// path segment with its extension stripped.
func RefName(ref string) string {
	seg := ref[strings.LastIndex(ref, "/")+1:]
	return strings.TrimSuffix(seg, path.Ext(seg))
}

func lastSegment(p string) string {
	return pointerUnescape(p[strings.LastIndex(p, "/")+1:])
}

func pointerEscape(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "~", "~0"), "/", "~1")
}

func pointerUnescape(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "~1", "/"), "~0", "~")
}
