package app

import (
	"runtime"

	"github.com/spf13/cobra"
)

// NewVersionCommand creates the version command.
func (a *App) NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.Printf("a2c %s\n", a.version)
			cmd.Printf("  commit:   %s\n", a.commit)
			cmd.Printf("  built:    %s\n", a.date)
			cmd.Printf("  built by: %s\n", a.builtBy)
			if a.config.Verbose {
				cmd.Printf("  go:       %s\n", runtime.Version())
				cmd.Printf("  platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
			}
			return nil
		},
	}
}
