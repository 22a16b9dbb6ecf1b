package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/dioko-ai/bob/internal/transport/repl"
)

// newReplCmd launches the interactive slash-command transport on stdin.
func newReplCmd(deps Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start the interactive slash-command transport",
		RunE: func(cmd *cobra.Command, args []string) error {
			return repl.Run(cmd.Context(), repl.Deps{Config: deps.Config, Backend: deps.Backend}, os.Stdin, cmd.OutOrStdout())
		},
	}
}
