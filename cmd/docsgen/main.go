// Package main generates the markdown schema reference without the full CLI.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"odf-codegen/internal/docsgen"
	"odf-codegen/internal/schema"
)

func main() {
	schemasDir := flag.String("schemas", "schemas", "path to the schema directory")
	out := flag.String("out", "docs/generated/reference.md", "output markdown file")
	schemaBase := flag.String("schema-base", "", "link prefix for JSON schema badges (default \"schemas\")")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	set, err := schema.Load(*schemasDir, schema.LoadOptions{Logger: logger})
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: load schemas: %v\n", err)
		os.Exit(1)
	}
	opts := docsgen.Options{SchemaDir: *schemasDir, SchemaBase: *schemaBase, Logger: logger}
	if err := docsgen.Generate(set, *out, opts); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: generate reference docs: %v\n", err)
		os.Exit(1)
	}
}
