package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/dioko-ai/bob/internal/capability"
	"github.com/dioko-ai/bob/internal/orchestrator"
)

// newGraphCmd wraps orchestrator.Service.ApplyCommand directly: the six
// split/merge/add/remove graph edits are deliberately absent from the
// capability surface, alongside advance (see newAdvanceCmd). Unlike
// advance, ApplyCommand never touches an AgentRunner, so this command
// tree needs no Deps.
func newGraphCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Apply a structural edit to a session's task graph",
	}
	cmd.AddCommand(
		newGraphEditCmd("split-audits", orchestrator.CommandSplitAudits, false),
		newGraphEditCmd("merge-audits", orchestrator.CommandMergeAudits, false),
		newGraphEditCmd("split-tests", orchestrator.CommandSplitTests, false),
		newGraphEditCmd("merge-tests", orchestrator.CommandMergeTests, false),
		newGraphEditCmd("add-final-audit", orchestrator.CommandAddFinalAudit, true),
		newGraphEditCmd("remove-final-audit", orchestrator.CommandRemoveFinalAudit, false),
	)
	return cmd
}

// newGraphEditCmd builds one graph-edit subcommand. needsTitle is set only
// for add-final-audit, the one command that synthesizes a new task rather
// than restructuring existing ones.
func newGraphEditCmd(use, command string, needsTitle bool) *cobra.Command {
	var id, title string
	c := &cobra.Command{
		Use:   use + " <session-id> <parent-id>",
		Short: "Apply /" + use + " to a session's task graph",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, svc, err := openService(args[0], nil, nil)
			if err != nil {
				return err
			}
			defer h.Close()
			defer svc.Close()

			g, err := svc.ApplyCommand(command, args[1], id, title)
			if err != nil {
				return translateApplyCommandErr(err)
			}

			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), g.Tasks())
			}
			renderTasks(cmd.OutOrStdout(), g.Tasks())
			return nil
		},
	}
	if needsTitle {
		c.Flags().StringVar(&id, "id", "", "ID for the new final-audit task (required)")
		c.Flags().StringVar(&title, "title", "", "title for the new final-audit task (required)")
		_ = c.MarkFlagRequired("id")
		_ = c.MarkFlagRequired("title")
	}
	return c
}

// translateApplyCommandErr maps an ApplyCommand error to the scripted
// transport's exit codes. An unrecognized command name is a caller
// mistake (invalid_request); anything else ApplyCommand returns —
// including a failed re-validation of the mutated graph — reflects a
// graph the requested edit cannot be applied to (validation_failed).
func translateApplyCommandErr(err error) error {
	var unknown *orchestrator.ErrUnknownCommand
	if errors.As(err, &unknown) {
		return &exitError{code: capability.CodeInvalidRequest, msg: err.Error()}
	}
	return &exitError{code: capability.CodeValidationFailed, msg: err.Error()}
}
