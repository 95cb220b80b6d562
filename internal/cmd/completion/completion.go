// Package completion generates shell completion scripts for the CLI.
package completion

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// Shell type constants for completion commands.
const (
	ShellBash       = "bash"
	ShellZsh        = "zsh"
	ShellFish       = "fish"
	ShellPowerShell = "powershell"
)

// Shells lists the supported shells in help order.
func Shells() []string {
	return []string{ShellBash, ShellZsh, ShellFish, ShellPowerShell}
}

// Generate writes the completion script of root for shell to w.
func Generate(root *cobra.Command, shell string, w io.Writer) error {
	var err error
	switch shell {
	case ShellBash:
		err = root.GenBashCompletionV2(w, true)
	case ShellZsh:
		err = root.GenZshCompletion(w)
	case ShellFish:
		err = root.GenFishCompletion(w, true)
	case ShellPowerShell:
		err = root.GenPowerShellCompletionWithDesc(w)
	default:
		return fmt.Errorf("unsupported shell %q: must be one of %v", shell, Shells())
	}
	if err != nil {
		return fmt.Errorf("failed to generate %s completion: %w", shell, err)
	}
	return nil
}

// NewCommand returns the completion subcommand.
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "completion [bash|zsh|fish|powershell]",
		Short:     "Generate shell completion scripts",
		Args:      cobra.ExactArgs(1),
		ValidArgs: Shells(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return Generate(cmd.Root(), args[0], cmd.OutOrStdout())
		},
	}
}
