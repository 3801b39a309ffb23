package lint

import (
	"fmt"
	"strings"

	"odf-codegen/internal/schema"
)

const localDefsPrefix = "#/$defs/"

var (
	pointerEscaper   = strings.NewReplacer("~", "~0", "/", "~1")
	pointerUnescaper = strings.NewReplacer("~1", "/", "~0", "~")
)

// valueKeys hold instance data rather than subschemas.
var valueKeys = map[string]bool{
	"default":  true,
	"examples": true,
	"enum":     true,
	"const":    true,
}

type rawRef struct {
	ref  string
	path string
}

// rawRefs collects every $ref of the decoded document with the JSON pointer
// of the schema holding it. It works on the raw tree, so documents that
// failed normalization are covered too.
func rawRefs(doc *schema.Document) []rawRef {
	var out []rawRef
	var walk func(v any, p string)
	walk = func(v any, p string) {
		switch v := v.(type) {
		case *schema.Map:
			for _, k := range v.Keys() {
				child, _ := v.Get(k)
				if k == "$ref" {
					if ref, ok := child.(string); ok {
						out = append(out, rawRef{ref: ref, path: p})
					}
					continue
				}
				if valueKeys[k] {
					continue
				}
				walk(child, p+"/"+pointerEscaper.Replace(k))
			}
		case []any:
			for i, item := range v {
				walk(item, fmt.Sprintf("%s/%d", p, i))
			}
		}
	}
	if doc.Tree != nil {
		walk(doc.Tree, "#")
	}
	return out
}

// globalRefs returns the document names doc refers to, in document order and
// without duplicates.
func globalRefs(doc *schema.Document) []string {
	var out []string
	seen := map[string]bool{}
	for _, r := range rawRefs(doc) {
		if strings.HasPrefix(r.ref, "#") {
			continue
		}
		name := schema.RefName(r.ref)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

// badLocalRefs returns the fragment references of doc that do not name a
// $defs entry.
func badLocalRefs(doc *schema.Document) []rawRef {
	var defs *schema.Map
	if doc.Tree != nil {
		if v, ok := doc.Tree.Get("$defs"); ok {
			defs, _ = v.(*schema.Map)
		}
	}
	var out []rawRef
	for _, r := range rawRefs(doc) {
		if !strings.HasPrefix(r.ref, "#") {
			continue
		}
		name, ok := strings.CutPrefix(r.ref, localDefsPrefix)
		if ok && defs != nil && defs.Has(pointerUnescaper.Replace(name)) {
			continue
		}
		out = append(out, r)
	}
	return out
}
