package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"odf-codegen/internal/lint"
)

func newLintCmd(s *session) *cobra.Command {
	var (
		strict  bool
		noColor bool
	)

	cmd := &cobra.Command{
		Use:   "lint [schemas_dir]",
		Short: "Check the schema set for meta-schema and reference problems",
		Long:  "Compiles every schema against its JSON Schema meta-schema and checks $id conventions, references, reachability, shadowed names and shapes the generators cannot render.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, dir, err := s.load(args, true)
			if err != nil {
				return err
			}
			report, err := lint.Run(set, lint.Options{
				Roots:      s.cfg.Roots,
				Severities: s.cfg.Lint.Rules,
				Logger:     s.logger,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if getOutputFormat(cmd) == "json" {
				if err := PrintJSON(out, report); err != nil {
					return err
				}
			} else {
				formatReport(out, dir, report, colorEnabled(out, noColor))
			}

			errs, warns := report.Count(lint.SeverityError), report.Count(lint.SeverityWarning)
			if errs > 0 || (strict && warns > 0) {
				return fmt.Errorf("lint failed: %d error(s), %d warning(s)", errs, warns)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Treat warnings as failures")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	return cmd
}

// formatReport writes one line per issue followed by a summary.
func formatReport(w io.Writer, dir string, report *lint.Report, color bool) {
	c := func(code string) string {
		if !color {
			return ""
		}
		return code
	}

	if len(report.Issues) == 0 {
		fmt.Fprintf(w, "%s%s: ok (0 issues)%s\n", c(colorGreen), dir, c(colorReset))
		return
	}
	for _, i := range report.Issues {
		sevColor := colorYellow
		if i.Severity == lint.SeverityError {
			sevColor = colorRed
		}
		fmt.Fprintf(w, "%s%s%s\n", c(sevColor), i, c(colorReset))
	}
	fmt.Fprintf(w, "\n%s%d error(s), %d warning(s)%s\n",
		c(colorDim), report.Count(lint.SeverityError), report.Count(lint.SeverityWarning), c(colorReset))
}
