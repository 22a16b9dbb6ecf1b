package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/dioko-ai/bob/internal/capability"
	"github.com/dioko-ai/bob/internal/orchestrator"
	"github.com/dioko-ai/bob/internal/tracing"
	"github.com/dioko-ai/bob/internal/workflow"
)

// newAdvanceCmd wraps orchestrator.Service.Advance directly: advance is
// deliberately absent from the capability surface, since it is the one
// operation that spawns a real backend process rather than performing a
// bounded read or write against a session.
func newAdvanceCmd(deps Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "advance <session-id>",
		Short: "Drive one logical workflow step for a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, err := tracing.NewProvider(tracing.Config{
				Enabled:  deps.Config.Tracing.Enabled,
				FilePath: deps.Config.Tracing.FilePath,
				Debug:    deps.Config.Tracing.Debug,
			})
			if err != nil {
				return &exitError{code: capability.CodeInternal, msg: err.Error()}
			}
			defer provider.Shutdown(cmd.Context())

			runner := orchestrator.NewProcessRunner(deps.Backend.Backend())
			h, svc, err := openService(args[0], runner, provider)
			if err != nil {
				return err
			}
			defer h.Close()
			defer svc.Close()

			action, err := svc.Advance(cmd.Context(), time.Now().UTC().Format(time.RFC3339))
			if err != nil {
				return &exitError{code: capability.CodeExternalFailure, msg: err.Error()}
			}
			return renderAction(cmd.OutOrStdout(), jsonOutput, action)
		},
	}
}

// renderAction prints action either as a bare JSON value or as a short
// human summary; advance does not go through capability.Dispatch so there
// is no ResponseEnvelope to reuse printResult against.
func renderAction(w io.Writer, jsonOutput bool, action workflow.Action) error {
	if jsonOutput {
		return printJSON(w, action)
	}
	switch action.Kind {
	case workflow.ActionRunTask:
		fmt.Fprintf(w, "%s\n", styleOK.Render(fmt.Sprintf("running %s on %s (attempt %d/%d)", action.Role, action.TaskID, action.PromptContext.Attempt+1, action.PromptContext.MaxAttempts)))
	case workflow.ActionDone:
		fmt.Fprintf(w, "%s\n", styleOK.Render(fmt.Sprintf("done: %s", action.Overall)))
	case workflow.ActionBlocked:
		fmt.Fprintln(w, styleErr.Render("blocked: "+action.Reason))
	}
	return nil
}
