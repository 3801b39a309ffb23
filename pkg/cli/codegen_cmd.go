package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"odf-codegen/internal/codegen"
	"odf-codegen/internal/config"
	"odf-codegen/internal/docsgen"
	"odf-codegen/internal/schema"
)

// languageValue is a pflag.Value restricted to the known output languages.
type languageValue string

var (
	_ pflag.Value = (*languageValue)(nil)
	_ pflag.Value = (*schema.Layout)(nil)
)

func (l *languageValue) String() string { return string(*l) }

func (l *languageValue) Set(s string) error {
	if !config.KnownLanguage(s) {
		return fmt.Errorf("unknown language %q: use one of %s", s, strings.Join(languageNames(), ", "))
	}
	*l = languageValue(s)
	return nil
}

func (*languageValue) Type() string { return "language" }

// languageNames lists every generator plus the markdown reference output.
func languageNames() []string {
	names := append(codegen.Languages(), config.MarkdownLanguage)
	slices.Sort(names)
	return names
}

func newCodegenCmd(s *session) *cobra.Command {
	var (
		lang    languageValue
		outFile string
		pkg     string
	)

	cmd := &cobra.Command{
		Use:   "codegen [schemas_dir]",
		Short: "Generate code for one language",
		Long:  "Renders the schema set in a single language and prints it to stdout, or to --o-file.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, dir, err := s.loadSet(args)
			if err != nil {
				return err
			}
			data, err := s.render(set, dir, string(lang), pkg)
			if err != nil {
				return err
			}
			if outFile == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			return s.writeOutput(outFile, data)
		},
	}

	cmd.Flags().VarP(&lang, "language", "l", "Target language ("+strings.Join(languageNames(), ", ")+")")
	cmd.Flags().StringVar(&outFile, "o-file", "", "Write output to a file instead of stdout")
	cmd.Flags().StringVar(&pkg, "package", "", "Target package for go and scala (overrides config)")
	_ = cmd.MarkFlagRequired("language")
	_ = cmd.RegisterFlagCompletionFunc("language", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return languageNames(), cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func newGenerateCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "generate [schemas_dir]",
		Short: "Generate every output listed in the project file",
		Long:  "Renders each outputs entry of odfgen.yaml in memory and writes the files only when all of them succeed.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(s.cfg.Outputs) == 0 {
				return fmt.Errorf("no outputs configured in %s", config.DefaultFile)
			}
			set, dir, err := s.loadSet(args)
			if err != nil {
				return err
			}

			langs := make([]string, 0, len(s.cfg.Outputs))
			for lang := range s.cfg.Outputs {
				langs = append(langs, lang)
			}
			slices.Sort(langs)

			rendered := make(map[string][]byte, len(langs))
			for _, lang := range langs {
				if !config.KnownLanguage(lang) {
					return fmt.Errorf("outputs: unknown language %q", lang)
				}
				data, err := s.render(set, dir, lang, "")
				if err != nil {
					return fmt.Errorf("generate %s: %w", lang, err)
				}
				rendered[lang] = data
			}

			var rows [][]string
			for _, lang := range langs {
				path := s.cfg.Resolve(s.cfg.Outputs[lang])
				if err := s.writeOutput(path, rendered[lang]); err != nil {
					return err
				}
				rows = append(rows, []string{lang, path, fmt.Sprint(len(rendered[lang]))})
			}

			if getOutputFormat(cmd) == "json" {
				out := make([]map[string]any, 0, len(rows))
				for _, r := range rows {
					out = append(out, map[string]any{"language": r[0], "path": r[1], "bytes": len(rendered[r[0]])})
				}
				return PrintJSON(cmd.OutOrStdout(), out)
			}
			PrintTable(cmd.OutOrStdout(), []string{"language", "path", "bytes"}, rows)
			return nil
		},
	}
}

// render produces the output of one language, applying the project file's
// notation settings. pkg overrides the configured package when set.
func (s *session) render(set *schema.Set, dir, lang, pkg string) ([]byte, error) {
	if lang == config.MarkdownLanguage {
		return docsgen.Render(set, s.docsOptions(dir))
	}

	nc := s.cfg.Notation(lang)
	if pkg != "" {
		nc.Package = pkg
	}
	gen, err := codegen.Lookup(lang, codegen.Options{Package: nc.Package, Title: nc.Title, Version: nc.Version})
	if err != nil {
		return nil, err
	}
	overrides, err := s.cfg.ReadOverrides(lang)
	if err != nil {
		return nil, err
	}
	return gen.Generate(set, codegen.RenderOptions{
		Skip:      s.cfg.Skip,
		Overrides: overrides,
		Logger:    s.logger,
	})
}

func newLanguagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List the supported output languages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			names := languageNames()
			if getOutputFormat(cmd) == "json" {
				return PrintJSON(cmd.OutOrStdout(), names)
			}
			for _, n := range names {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	}
}
