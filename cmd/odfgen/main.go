// Package main is the entry point for the odfgen binary.
package main

import (
	"os"

	cli "odf-codegen/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
