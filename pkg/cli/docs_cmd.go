package cli

import (
	"github.com/spf13/cobra"

	"odf-codegen/internal/docsgen"
	"odf-codegen/internal/mdtemplate"
)

func newDocsCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "docs <schemas_dir> <dest>",
		Short: "Render the schema reference as markdown",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			set, dir, err := s.loadSet(args[:1])
			if err != nil {
				return err
			}
			return docsgen.Generate(set, args[1], s.docsOptions(dir))
		},
	}
}

func (s *session) docsOptions(dir string) docsgen.Options {
	return docsgen.Options{
		SchemaDir:       dir,
		SchemaBase:      s.cfg.Docs.SchemaBase,
		FlatbuffersLink: s.cfg.Docs.FlatbuffersLink,
		Logger:          s.logger,
	}
}

func newTemplateCmd(s *session) *cobra.Command {
	var baseDir string

	cmd := &cobra.Command{
		Use:   "template <source> <dest>",
		Short: "Expand markdown includes of the form ![title](file.md)",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			return mdtemplate.Render(args[0], args[1], mdtemplate.Options{BaseDir: baseDir, Logger: s.logger})
		},
	}

	cmd.Flags().StringVar(&baseDir, "base-dir", "", "Directory includes resolve against (default: the source's directory)")

	return cmd
}
