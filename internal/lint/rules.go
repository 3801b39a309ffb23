package lint

import (
	"bytes"
	"fmt"
	"io"
	"slices"
	"strings"

	json "github.com/goccy/go-json"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"odf-codegen/internal/schema"
)

// CanonicalBase is the identifier prefix every document is expected to use.
const CanonicalBase = "http://open-data-fabric.github.com/schemas/"

func init() {
	register(&danglingRefRule{})
	register(&localRefRule{})
	register(&metaSchemaRule{})
	register(&idConventionRule{})
	register(&unusedRule{})
	register(&shadowedRule{})
	register(&shapeRule{})
}

// ODF001: every global $ref must name a loaded document.
type danglingRefRule struct{}

func (*danglingRefRule) ID() string                { return "ODF001" }
func (*danglingRefRule) Description() string       { return "global $ref names a loaded schema" }
func (*danglingRefRule) DefaultSeverity() Severity { return SeverityError }

func (r *danglingRefRule) Check(c *Context) ([]Issue, error) {
	var out []Issue
	for _, doc := range c.Set.Documents() {
		for _, name := range globalRefs(doc) {
			if _, ok := c.Set.Get(name); !ok {
				out = append(out, c.Issue(doc, r.ID(), r.DefaultSeverity(), "reference to unknown schema %q", name))
			}
		}
	}
	return out, nil
}

// ODF002: every local $ref must name a $defs entry of the same document.
type localRefRule struct{}

func (*localRefRule) ID() string                { return "ODF002" }
func (*localRefRule) Description() string       { return "local $ref names a definition of the same schema" }
func (*localRefRule) DefaultSeverity() Severity { return SeverityError }

func (r *localRefRule) Check(c *Context) ([]Issue, error) {
	var out []Issue
	for _, doc := range c.Set.Documents() {
		for _, ref := range badLocalRefs(doc) {
			if name, ok := strings.CutPrefix(ref.ref, localDefsPrefix); ok {
				out = append(out, c.Issue(doc, r.ID(), r.DefaultSeverity(), "local reference %q at %s has no definition", pointerUnescaper.Replace(name), ref.path))
				continue
			}
			out = append(out, c.Issue(doc, r.ID(), r.DefaultSeverity(), "reference %q at %s is neither global nor under $defs", ref.ref, ref.path))
		}
	}
	return out, nil
}

// ODF003: every document compiles against its JSON Schema meta-schema.
type metaSchemaRule struct{}

func (*metaSchemaRule) ID() string                { return "ODF003" }
func (*metaSchemaRule) Description() string       { return "schema compiles against the JSON Schema meta-schema" }
func (*metaSchemaRule) DefaultSeverity() Severity { return SeverityError }

func (r *metaSchemaRule) Check(c *Context) ([]Issue, error) {
	errs, err := c.metaSchemaErrors()
	if err != nil {
		return nil, err
	}
	var out []Issue
	for _, doc := range c.Set.Documents() {
		if err, ok := errs[doc.Name]; ok {
			out = append(out, c.Issue(doc, r.ID(), r.DefaultSeverity(), "invalid schema: %v", err))
		}
	}
	return out, nil
}

// metaSchemaErrors compiles every document once and caches the failures by
// name. Documents that reach a dangling reference are not compiled, so the
// referential rules report them alone.
func (c *Context) metaSchemaErrors() (map[string]error, error) {
	if c.compiled != nil {
		return c.compiled, nil
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	compiler.LoadURL = func(s string) (io.ReadCloser, error) {
		return nil, fmt.Errorf("%s is not part of the schema set", s)
	}

	docs := c.Set.Documents()
	urls := make(map[string]string, len(docs))
	for _, doc := range docs {
		if doc.Tree == nil {
			continue
		}
		data, err := json.Marshal(doc.Tree)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", doc.Name, err)
		}
		url := resourceURL(doc)
		if err := compiler.AddResource(url, bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("add resource %s: %w", url, err)
		}
		urls[doc.Name] = url
	}

	broken := c.brokenDocuments()
	errs := map[string]error{}
	for _, doc := range docs {
		url, ok := urls[doc.Name]
		if !ok {
			continue
		}
		if broken[doc.Name] {
			c.Logger.Debug("skipping meta-schema check", "schema", doc.Name, "reason", "dangling reference")
			continue
		}
		if _, err := compiler.Compile(url); err != nil {
			errs[doc.Name] = err
		}
	}
	c.compiled = errs
	return errs, nil
}

func resourceURL(doc *schema.Document) string {
	if strings.Contains(doc.ID, "://") {
		return doc.ID
	}
	return CanonicalBase + doc.Name
}

// brokenDocuments returns the documents that reach a dangling global or
// local reference.
func (c *Context) brokenDocuments() map[string]bool {
	dangling := map[string]bool{}
	for _, doc := range c.Set.Documents() {
		if len(badLocalRefs(doc)) > 0 {
			dangling[doc.Name] = true
			continue
		}
		for _, name := range globalRefs(doc) {
			if _, ok := c.Set.Get(name); !ok {
				dangling[doc.Name] = true
			}
		}
	}

	broken := map[string]bool{}
	for _, doc := range c.Set.Documents() {
		for name := range reachable(c.Set, []string{doc.Name}) {
			if dangling[name] {
				broken[doc.Name] = true
				break
			}
		}
	}
	return broken
}

// reachable returns the names reachable from roots, roots included. Unknown
// names are not followed.
func reachable(set *schema.Set, roots []string) map[string]bool {
	seen := map[string]bool{}
	stack := slices.Clone(roots)
	for len(stack) > 0 {
		name := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[name] {
			continue
		}
		doc, ok := set.Get(name)
		if !ok {
			continue
		}
		seen[name] = true
		stack = append(stack, globalRefs(doc)...)
	}
	return seen
}

// ODF004: $id follows the canonical URL convention.
type idConventionRule struct{}

func (*idConventionRule) ID() string                { return "ODF004" }
func (*idConventionRule) Description() string       { return "$id uses the canonical schema URL" }
func (*idConventionRule) DefaultSeverity() Severity { return SeverityWarning }

func (r *idConventionRule) Check(c *Context) ([]Issue, error) {
	var out []Issue
	for _, doc := range c.Set.Documents() {
		if want := CanonicalBase + doc.Name; doc.ID != want {
			out = append(out, c.Issue(doc, r.ID(), r.DefaultSeverity(), "$id %q should be %q", doc.ID, want))
		}
	}
	return out, nil
}

// ODF005: every document is reachable from a root.
type unusedRule struct{}

func (*unusedRule) ID() string                { return "ODF005" }
func (*unusedRule) Description() string       { return "schema is reachable from a root schema" }
func (*unusedRule) DefaultSeverity() Severity { return SeverityWarning }

func (r *unusedRule) Check(c *Context) ([]Issue, error) {
	var roots []string
	for _, name := range c.Roots {
		if _, ok := c.Set.Get(name); ok {
			roots = append(roots, name)
		}
	}
	if len(roots) == 0 {
		c.Logger.Debug("no root schemas present, skipping reachability")
		return nil, nil
	}

	used := reachable(c.Set, roots)
	var out []Issue
	for _, doc := range c.Set.Documents() {
		if !used[doc.Name] {
			out = append(out, c.Issue(doc, r.ID(), r.DefaultSeverity(), "Schema %s is never used", doc.Name))
		}
	}
	return out, nil
}

// ODF006: no two files declare the same name.
type shadowedRule struct{}

func (*shadowedRule) ID() string                { return "ODF006" }
func (*shadowedRule) Description() string       { return "schema names are unique" }
func (*shadowedRule) DefaultSeverity() Severity { return SeverityWarning }

func (r *shadowedRule) Check(c *Context) ([]Issue, error) {
	var out []Issue
	for _, doc := range c.Set.Shadowed {
		winner, _ := c.Set.Get(doc.Name)
		out = append(out, c.Issue(doc, r.ID(), r.DefaultSeverity(), "shadowed by %s", winner.Path))
	}
	return out, nil
}

// ODF007: every document normalizes into a shape the generators support.
type shapeRule struct{}

func (*shapeRule) ID() string                { return "ODF007" }
func (*shapeRule) Description() string       { return "schema uses only supported shapes" }
func (*shapeRule) DefaultSeverity() Severity { return SeverityError }

func (r *shapeRule) Check(c *Context) ([]Issue, error) {
	errs, err := c.metaSchemaErrors()
	if err != nil {
		return nil, err
	}
	broken := c.brokenDocuments()

	var out []Issue
	for _, doc := range c.Set.Documents() {
		if doc.Invalid == nil {
			continue
		}
		if _, invalid := errs[doc.Name]; invalid || broken[doc.Name] {
			continue
		}
		out = append(out, c.Issue(doc, r.ID(), r.DefaultSeverity(), "unsupported schema: %v", doc.Invalid))
	}
	return out, nil
}
