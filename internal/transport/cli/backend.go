package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dioko-ai/bob/internal/capability"
	"github.com/dioko-ai/bob/internal/config"
)

// newBackendCmd shows or changes the process-wide active backend. Since
// the scripted transport is a one-shot process, "set" only has effect for
// the remainder of the same invocation — it exists mainly so the same
// Deps.Backend selector is exercised here as by the interactive
// transport's /backend command.
func newBackendCmd(deps Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backend",
		Short: "Show or change the active backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), deps.Backend.Backend())
			return nil
		},
	}
	cmd.AddCommand(newBackendSetCmd(deps))
	return cmd
}

func newBackendSetCmd(deps Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "set <backend>",
		Short: "Change the active backend for the rest of this process",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.ValidateBackend(args[0]); err != nil {
				return &exitError{code: capability.CodeInvalidRequest, msg: err.Error()}
			}
			if err := deps.Backend.SetBackend(args[0]); err != nil {
				return &exitError{code: capability.CodeInvalidRequest, msg: err.Error()}
			}
			fmt.Fprintln(cmd.OutOrStdout(), deps.Backend.Backend())
			return nil
		},
	}
}
