package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dioko-ai/bob/internal/capability"
	"github.com/dioko-ai/bob/internal/sessionstore"
	"github.com/dioko-ai/bob/internal/taskgraph"
)

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Create, open, and inspect sessions",
	}
	cmd.AddCommand(
		newSessionInitCmd(),
		newSessionOpenCmd(),
		newSessionListCmd(),
		newSessionReadTasksCmd(),
		newSessionReadPlannerCmd(),
		newSessionReadProjectInfoCmd(),
		newSessionReadRollingContextCmd(),
		newSessionReadTaskFailsCmd(),
		newSessionReadMetaCmd(),
	)
	return cmd
}

func newSessionInitCmd() *cobra.Command {
	var cwd, title, testCommand, backend string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a new session directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp := dispatch(cmd.Context(), "session.init", capability.SessionInitPayload{
				Cwd: cwd, Title: title, TestCommand: testCommand, Backend: backend,
			})
			return printResult(cmd.OutOrStdout(), jsonOutput, resp, func(w io.Writer, resp capability.ResponseEnvelope) error {
				meta := resp.Result.Data.(sessionstore.SessionMeta)
				renderSessionMeta(w, meta)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&cwd, "cwd", "", "project working directory (required)")
	cmd.Flags().StringVar(&title, "title", "", "short human title for the session (required)")
	cmd.Flags().StringVar(&testCommand, "test-command", "", "shell command test_run tasks invoke")
	cmd.Flags().StringVar(&backend, "backend", "", "backend to record in session_meta (defaults to the configured backend)")
	_ = cmd.MarkFlagRequired("cwd")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newSessionOpenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open <session-id>",
		Short: "Open a session and print its metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp := dispatch(cmd.Context(), "session.open", capability.SessionOpenPayload{SessionID: args[0]})
			return printResult(cmd.OutOrStdout(), jsonOutput, resp, func(w io.Writer, resp capability.ResponseEnvelope) error {
				meta := resp.Result.Data.(sessionstore.SessionMeta)
				renderSessionMeta(w, meta)
				return nil
			})
		},
	}
}

func newSessionListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every known session, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp := dispatch(cmd.Context(), "session.list", nil)
			return printResult(cmd.OutOrStdout(), jsonOutput, resp, func(w io.Writer, resp capability.ResponseEnvelope) error {
				summaries := resp.Result.Data.([]sessionstore.Summary)
				if len(summaries) == 0 {
					fmt.Fprintln(w, "no sessions")
					return nil
				}
				for _, s := range summaries {
					fmt.Fprintf(w, "%s  %-30s %s\n", s.SessionID, s.Title, s.CreatedAt)
				}
				return nil
			})
		},
	}
}

func newSessionReadTasksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read-tasks <session-id>",
		Short: "Print a session's task graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp := dispatch(cmd.Context(), "session.read_tasks", capability.SessionIDPayload{SessionID: args[0]})
			return printResult(cmd.OutOrStdout(), jsonOutput, resp, func(w io.Writer, resp capability.ResponseEnvelope) error {
				tasks := resp.Result.Data.([]taskgraph.Task)
				renderTasks(w, tasks)
				return nil
			})
		},
	}
}

func newSessionReadPlannerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read-planner <session-id>",
		Short: "Print a session's planner.md",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp := dispatch(cmd.Context(), "session.read_planner", capability.SessionIDPayload{SessionID: args[0]})
			return printResult(cmd.OutOrStdout(), jsonOutput, resp, func(w io.Writer, resp capability.ResponseEnvelope) error {
				return renderMarkdown(w, resp.Result.Data.(string))
			})
		},
	}
}

func newSessionReadProjectInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read-project-info <session-id>",
		Short: "Print a session's project_info.md",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp := dispatch(cmd.Context(), "session.read_project_info", capability.SessionIDPayload{SessionID: args[0]})
			return printResult(cmd.OutOrStdout(), jsonOutput, resp, func(w io.Writer, resp capability.ResponseEnvelope) error {
				return renderMarkdown(w, resp.Result.Data.(string))
			})
		},
	}
}

func newSessionReadRollingContextCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read-rolling-context <session-id>",
		Short: "Print a session's rolling context entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp := dispatch(cmd.Context(), "session.read_rolling_context", capability.SessionIDPayload{SessionID: args[0]})
			return printResult(cmd.OutOrStdout(), jsonOutput, resp, func(w io.Writer, resp capability.ResponseEnvelope) error {
				entries := resp.Result.Data.([]sessionstore.RollingEntry)
				for _, e := range entries {
					fmt.Fprintf(w, "%s  %s  %s\n", e.Timestamp, e.TaskID, e.Summary)
				}
				return nil
			})
		},
	}
}

func newSessionReadTaskFailsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read-task-fails <session-id>",
		Short: "Print a session's failure ledger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp := dispatch(cmd.Context(), "session.read_task_fails", capability.SessionIDPayload{SessionID: args[0]})
			return printResult(cmd.OutOrStdout(), jsonOutput, resp, func(w io.Writer, resp capability.ResponseEnvelope) error {
				entries := resp.Result.Data.([]taskgraph.FailureEntry)
				for _, e := range entries {
					fmt.Fprintf(w, "%s  attempt %d  %s\n", e.TaskID, e.Attempt, e.VerdictSummary)
				}
				return nil
			})
		},
	}
}

func newSessionReadMetaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read-meta <session-id>",
		Short: "Print a session's session_meta.json",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp := dispatch(cmd.Context(), "session.read_session_meta", capability.SessionIDPayload{SessionID: args[0]})
			return printResult(cmd.OutOrStdout(), jsonOutput, resp, func(w io.Writer, resp capability.ResponseEnvelope) error {
				renderSessionMeta(w, resp.Result.Data.(sessionstore.SessionMeta))
				return nil
			})
		},
	}
}

func renderSessionMeta(w io.Writer, meta sessionstore.SessionMeta) {
	label(w, "Session", meta.SessionID)
	label(w, "Title", meta.Title)
	label(w, "Created", meta.CreatedAt)
	label(w, "Cwd", meta.Cwd)
	label(w, "Backend", meta.Backend)
	if meta.TestCommand != "" {
		label(w, "Test command", meta.TestCommand)
	}
}

func renderTasks(w io.Writer, tasks []taskgraph.Task) {
	for _, t := range tasks {
		indent := ""
		if t.HasParent() {
			indent = "  "
		}
		fmt.Fprintf(w, "%s%-12s %-8s %-12s attempt %d/%d  %s\n", indent, t.ID, t.Kind, t.Status, t.Attempt, t.MaxAttempts, t.Title)
	}
}
