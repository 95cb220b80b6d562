package app

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/slink-ws/asciidoc2confluence/internal/cmd/completion"
	"github.com/slink-ws/asciidoc2confluence/internal/cmd/output"
	"github.com/slink-ws/asciidoc2confluence/pkg/errors"
	"github.com/slink-ws/asciidoc2confluence/pkg/logging"
)

// Execute runs the a2c CLI application with the given arguments.
// This is the main entry point called from main.go.
func (a *App) Execute(ctx context.Context, args []string) error {
	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

// createRootCommand creates the root cobra command. The root command itself
// publishes; subcommands are utilities.
func (a *App) createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "a2c",
		Short:   "Publish AsciiDoc and Markdown documents to Confluence",
		Version: a.version,
		Long: `a2c converts AsciiDoc and Markdown documents into Confluence storage
format and publishes them as wiki pages.

Each document names its space and title through directive lines. Documents
are created, updated, renamed, or removed when marked hidden, and with --dir
pages that no longer have a source document are swept from their space.

Without --url the documents are converted and printed instead of published.`,
		Args:              cobra.NoArgs,
		PersistentPreRunE: a.setupCommand,
		RunE:              a.runPublish,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}
	rootCmd.SetOut(a.stdout)

	c := a.config

	// Global flags
	rootCmd.PersistentFlags().StringVar(&c.ConfigFile, "config", c.ConfigFile, "config file (default is $HOME/.a2c.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&c.Verbose, "verbose", "v", c.Verbose, "verbose output (shortcut for --log-level=debug)")
	rootCmd.PersistentFlags().BoolVarP(&c.Quiet, "quiet", "q", c.Quiet, "minimal output (shortcut for --log-level=warn)")
	rootCmd.PersistentFlags().BoolVar(&c.NoColor, "no-color", c.NoColor, "disable colored output")
	rootCmd.PersistentFlags().StringVarP(&c.Format, "format", "o", c.Format, "report format: table, json, yaml")
	rootCmd.PersistentFlags().StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level: trace, debug, info, warn, error (overrides -v/-q)")

	// Publish flags
	flags := rootCmd.Flags()
	flags.StringVar(&c.Input, "input", c.Input, "file or directory to publish without a stale page sweep")
	flags.StringVar(&c.Dir, "dir", c.Dir, "directory to publish; stale pages are swept afterwards")
	flags.StringSliceVar(&c.Clean, "clean", c.Clean, "comma separated spaces to empty before publishing")
	flags.BoolVar(&c.Force, "force", c.Force, "let --clean delete pages with protected labels")
	flags.StringVar(&c.URL, "url", c.URL, "Confluence base URL")
	flags.StringVar(&c.User, "user", c.User, "Confluence user")
	flags.StringVar(&c.Pass, "pass", c.Pass, "Confluence password")
	flags.StringVar(&c.Token, "token", c.Token, "Confluence personal access token (replaces --user/--pass)")
	flags.StringVar(&c.Space, "space", c.Space, "override the space of every document")
	flags.BoolVar(&c.Debug, "dbg", c.Debug, "print the converted body of failed pages")
	flags.BoolVar(&c.Dry, "dry", c.Dry, "publish to an in-memory wiki and print the plan")
	flags.IntVar(&c.Parallel, "parallel", c.Parallel, "documents processed concurrently")
	flags.StringSliceVar(&c.ProtectedLabels, "protected-label", c.ProtectedLabels, "label exempting a page from sweeps (repeatable)")
	flags.StringVar(&c.Convert.Asciidoctor, "asciidoctor", c.Convert.Asciidoctor, "asciidoctor binary")

	rootCmd.SetVersionTemplate("a2c {{.Version}}\n")

	a.registerCommands(rootCmd)

	return rootCmd
}

// setupCommand is called before any command runs.
func (a *App) setupCommand(cmd *cobra.Command, _ []string) error {
	// Flags write straight into the config. A --config file was not known
	// when the config was first loaded, so it is read now and the explicit
	// flags are applied on top of it.
	if cmd.Flags().Changed("config") {
		if err := a.reloadConfig(cmd.Flags(), a.config.ConfigFile); err != nil {
			return err
		}
	}
	logger := NewLogger(a.config)
	a.logger = &logger
	return nil
}

// reloadConfig replaces the config with the one read from path, keeping the
// values of flags set on the command line.
func (a *App) reloadConfig(flags *pflag.FlagSet, path string) error {
	type setting struct {
		value string
		slice []string
	}
	explicit := make(map[string]setting)
	flags.Visit(func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			explicit[f.Name] = setting{slice: sv.GetSlice()}
			return
		}
		explicit[f.Name] = setting{value: f.Value.String()}
	})

	fresh, err := LoadConfigFile(path)
	if err != nil {
		return err
	}
	*a.config = *fresh

	for name, s := range explicit {
		f := flags.Lookup(name)
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			if err := sv.Replace(s.slice); err != nil {
				return errors.NewConfigError("cli", "invalid --"+name, err)
			}
			continue
		}
		if err := f.Value.Set(s.value); err != nil {
			return errors.NewConfigError("cli", "invalid --"+name, err)
		}
	}
	return nil
}

// runPublish validates the configuration, runs the publisher and prints the report.
func (a *App) runPublish(cmd *cobra.Command, _ []string) error {
	a.config.Clean = splitList(a.config.Clean)
	a.config.ProtectedLabels = splitList(a.config.ProtectedLabels)

	if err := a.config.Validate(); err != nil {
		_ = cmd.Usage()
		return err
	}
	format, err := output.ParseFormat(a.config.Format)
	if err != nil {
		_ = cmd.Usage()
		return errors.NewConfigError("cli", err.Error(), err)
	}

	p, err := a.Publisher()
	if err != nil {
		if errors.IsValidationError(err) {
			_ = cmd.Usage()
		}
		return err
	}

	ctx := logging.WithLogger(cmd.Context(), a.logger)
	rep, runErr := p.Run(ctx)
	if rep == nil {
		return runErr
	}

	formatter := output.NewFormatter(output.DetectFormat(string(format)))
	if err := formatter.Format(cmd.OutOrStdout(), rep); err != nil {
		return err
	}
	return runErr
}

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(a.NewVersionCommand())
	rootCmd.AddCommand(completion.NewCommand())
}

// ExitOnError is a helper that prints an error and exits with status 1.
// This is meant to be used in main.go for top-level error handling.
func ExitOnError(err error) {
	if err != nil {
		//nolint:errcheck // Ignoring write error since we're exiting anyway
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}
