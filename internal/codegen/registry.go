package codegen

import (
	"fmt"
	"slices"
	"strings"

	"odf-codegen/internal/schema"
)

// Generator produces one output artifact from a schema set.
type Generator interface {
	Name() string
	Generate(set *schema.Set, opts RenderOptions) ([]byte, error)
}

// Options configures a generator at lookup time.
type Options struct {
	// Package is the target package for the go and scala notations.
	Package string
	// Title and Version describe the openapi document.
	Title   string
	Version string
}

type notationGenerator struct{ n Notation }

func (g notationGenerator) Name() string { return g.n.Info().Name }

func (g notationGenerator) Generate(set *schema.Set, opts RenderOptions) ([]byte, error) {
	return Generate(set, g.n, opts)
}

var notations = map[string]func(Options) Notation{
	"flatbuffers":      func(Options) Notation { return flatbuffers{} },
	"rust":             func(Options) Notation { return rustPlain{} },
	"rust-dtos":        func(Options) Notation { return rustDTOs{} },
	"rust-serde":       func(Options) Notation { return rustSerde{} },
	"rust-flatbuffers": func(Options) Notation { return rustFlatbuffers{} },
	"rust-graphql":     func(Options) Notation { return rustGraphQL{} },
	"rust-traits":      func(Options) Notation { return rustTraits{} },
	"rust-enum-flags":  func(Options) Notation { return rustEnumFlags{} },
	"scala":            func(o Options) Notation { return newScala(o.Package) },
	"go":               func(o Options) Notation { return newGolang(o.Package) },
}

// NotationFor returns the line notation registered under name.
func NotationFor(name string, opts Options) (Notation, bool) {
	f, ok := notations[name]
	if !ok {
		return nil, false
	}
	return f(opts), true
}

// Lookup returns the generator registered under name.
func Lookup(name string, opts Options) (Generator, error) {
	if name == "openapi" {
		return &OpenAPI{Title: opts.Title, Version: opts.Version}, nil
	}
	n, ok := NotationFor(name, opts)
	if !ok {
		return nil, fmt.Errorf("unknown language %q (known: %s)", name, strings.Join(Languages(), ", "))
	}
	return notationGenerator{n: n}, nil
}

// Languages lists every registered generator name in ascending order.
func Languages() []string {
	names := make([]string, 0, len(notations)+1)
	for name := range notations {
		names = append(names, name)
	}
	names = append(names, "openapi")
	slices.Sort(names)
	return names
}
