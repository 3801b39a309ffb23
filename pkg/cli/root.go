// Package cli implements the odfgen command tree.
package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"odf-codegen/internal/config"
	"odf-codegen/internal/schema"
)

var (
	version = "dev"
	commit  = "none"
)

// Execute runs the CLI.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		output, _ := rootCmd.PersistentFlags().GetString("output")
		if output == "json" {
			errObj := map[string]any{
				"error": err.Error(),
			}
			var schemaErr *schema.SchemaError
			if errors.As(err, &schemaErr) {
				errObj["schema"] = schemaErr.Name
				errObj["path"] = schemaErr.Path
			}
			_ = PrintJSON(os.Stdout, errObj)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

// session carries the resolved configuration and logger to every command.
type session struct {
	configPath string
	logLevel   string
	layout     schema.Layout

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	s := &session{}
	var output string

	rootCmd := &cobra.Command{
		Use:           "odfgen",
		Short:         "Open Data Fabric schema code generator",
		Long:          "Generates code, reference documentation and lint reports from the Open Data Fabric JSON schemas.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateOutputFormat(output); err != nil {
				return err
			}
			return s.init(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&s.configPath, "config", "", "Project file (default ./"+config.DefaultFile+" when present)")
	rootCmd.PersistentFlags().StringVar(&s.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	rootCmd.PersistentFlags().Var(&s.layout, "layout", "Schema directory layout: kinds, flat, recursive")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "Output format (table, json)")

	rootCmd.AddCommand(newCodegenCmd(s))
	rootCmd.AddCommand(newGenerateCmd(s))
	rootCmd.AddCommand(newDocsCmd(s))
	rootCmd.AddCommand(newTemplateCmd(s))
	rootCmd.AddCommand(newLintCmd(s))
	rootCmd.AddCommand(newListCmd(s))
	rootCmd.AddCommand(newOrderCmd(s))
	rootCmd.AddCommand(newLanguagesCmd())
	rootCmd.AddCommand(newConfigCmd(s))
	rootCmd.AddCommand(newVersionCmd())

	// Shell completions
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

// init loads the project file and builds the logger. Precedence is
// flag > config file > default.
func (s *session) init(cmd *cobra.Command) error {
	cfg, err := config.Load(s.configPath)
	if err != nil {
		return err
	}
	s.cfg = cfg

	level := cfg.SlogLevel()
	if s.logLevel != "" {
		level = config.ParseLevel(s.logLevel)
	}
	s.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	for _, w := range cfg.Warnings {
		s.logger.Warn(w, "config", cfg.Path)
	}

	if !cmd.Flags().Changed("layout") {
		s.layout = cfg.LayoutOrDefault()
	}
	return nil
}

// schemasDir returns the schema directory from the first argument, falling
// back to schemas_dir in the project file.
func (s *session) schemasDir(args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	if s.cfg.SchemasDir != "" {
		return s.cfg.Resolve(s.cfg.SchemasDir), nil
	}
	return "", errors.New("no schema directory: pass it as an argument or set schemas_dir in " + config.DefaultFile)
}

func (s *session) loadSet(args []string) (*schema.Set, string, error) {
	return s.load(args, false)
}

// load reads the schema set. A lenient load keeps documents that fail
// normalization so lint can report them.
func (s *session) load(args []string, lenient bool) (*schema.Set, string, error) {
	dir, err := s.schemasDir(args)
	if err != nil {
		return nil, "", err
	}
	set, err := schema.Load(dir, schema.LoadOptions{Layout: s.layout, Logger: s.logger, Lenient: lenient})
	if err != nil {
		return nil, "", err
	}
	s.logger.Debug("loaded schemas", "dir", dir, "count", set.Len(), "layout", s.layout.String())
	return set, dir, nil
}

// writeOutput writes data to path, creating parent directories.
func (s *session) writeOutput(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %q: %w", path, err)
	}
	s.logger.Info("wrote output", "path", path, "bytes", len(data))
	return nil
}

func newCompletionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			default:
				return fmt.Errorf("unsupported shell: %s", args[0])
			}
		},
	}
	return cmd
}
