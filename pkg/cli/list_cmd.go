package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"odf-codegen/internal/schema"
)

// schemaEntry is one row of the list command.
type schemaEntry struct {
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Shape string `json:"shape"`
	Path  string `json:"path"`
}

func newListCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "list [schemas_dir]",
		Short: "List the loaded schemas",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, _, err := s.loadSet(args)
			if err != nil {
				return err
			}

			entries := make([]schemaEntry, 0, set.Len())
			for _, doc := range set.Documents() {
				entries = append(entries, schemaEntry{
					Name:  doc.Name,
					Kind:  string(doc.Kind),
					Shape: doc.Node.Shape().String(),
					Path:  doc.Path,
				})
			}

			if getOutputFormat(cmd) == "json" {
				return PrintJSON(cmd.OutOrStdout(), entries)
			}
			rows := make([][]string, len(entries))
			for i, e := range entries {
				rows[i] = []string{e.Name, e.Kind, e.Shape, e.Path}
			}
			PrintTable(cmd.OutOrStdout(), []string{"name", "kind", "shape", "path"}, rows)
			return nil
		},
	}
}

func newOrderCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "order [schemas_dir]",
		Short: "Print the dependency order, referenced schemas first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, _, err := s.loadSet(args)
			if err != nil {
				return err
			}
			order := schema.DependencyOrder(set)
			if getOutputFormat(cmd) == "json" {
				return PrintJSON(cmd.OutOrStdout(), order)
			}
			for _, name := range order {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}
