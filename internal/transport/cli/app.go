package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dioko-ai/bob/internal/capability"
)

func newAppCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Build the prompts the interactive transport sends an agent",
	}
	cmd.AddCommand(
		newAppPrepareMasterPromptCmd(),
		newAppPreparePlannerPromptCmd(),
		newAppPrepareAttachDocsPromptCmd(),
	)
	return cmd
}

func newAppPrepareMasterPromptCmd() *cobra.Command {
	var message string
	cmd := &cobra.Command{
		Use:   "master-prompt <session-id>",
		Short: "Compose the master planning prompt for a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp := dispatch(cmd.Context(), "app.prepare_master_prompt", capability.AppPrepareMasterPromptPayload{
				SessionID: args[0], Message: message,
			})
			return printResult(cmd.OutOrStdout(), jsonOutput, resp, renderText)
		},
	}
	cmd.Flags().StringVar(&message, "message", "", "user message to fold into the prompt")
	return cmd
}

func newAppPreparePlannerPromptCmd() *cobra.Command {
	var message string
	cmd := &cobra.Command{
		Use:   "planner-prompt <session-id>",
		Short: "Compose the collaborative planner prompt for a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp := dispatch(cmd.Context(), "app.prepare_planner_prompt", capability.AppPreparePlannerPromptPayload{
				SessionID: args[0], Message: message,
			})
			return printResult(cmd.OutOrStdout(), jsonOutput, resp, renderText)
		},
	}
	cmd.Flags().StringVar(&message, "message", "", "user message to fold into the prompt")
	return cmd
}

func newAppPrepareAttachDocsPromptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "attach-docs-prompt <session-id>",
		Short: "Compose the attach-docs prompt for a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp := dispatch(cmd.Context(), "app.prepare_attach_docs_prompt", capability.SessionIDPayload{SessionID: args[0]})
			return printResult(cmd.OutOrStdout(), jsonOutput, resp, renderText)
		},
	}
}

func renderText(w io.Writer, resp capability.ResponseEnvelope) error {
	fmt.Fprintln(w, resp.Result.Data.(capability.TextResult).Text)
	return nil
}
