package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dioko-ai/bob/internal/capability"
	"github.com/dioko-ai/bob/internal/taskgraph"
)

func newTasksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Validate and project a raw task list, independent of any session",
	}
	cmd.AddCommand(newTasksValidateCmd(), newTasksViewCmd())
	return cmd
}

func readTasksFile(path string) ([]taskgraph.Task, error) {
	var r io.Reader = os.Stdin
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	var tasks []taskgraph.Task
	if err := json.NewDecoder(r).Decode(&tasks); err != nil {
		return nil, fmt.Errorf("decoding tasks JSON: %w", err)
	}
	return tasks, nil
}

func newTasksValidateCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a JSON task list (file, or stdin when --file is omitted)",
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, err := readTasksFile(file)
			if err != nil {
				return err
			}
			resp := dispatch(cmd.Context(), "workflow.validate_tasks", capability.WorkflowValidateTasksPayload{Tasks: tasks})
			return printResult(cmd.OutOrStdout(), jsonOutput, resp, func(w io.Writer, resp capability.ResponseEnvelope) error {
				result := resp.Result.Data.(capability.WorkflowValidateTasksResult)
				fmt.Fprintf(w, "valid: %d tasks\n", len(result.Tasks))
				renderTasks(w, result.Tasks)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "path to a JSON task list (default: stdin)")
	return cmd
}

func newTasksViewCmd() *cobra.Command {
	var file string
	var width int
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Render the right-pane text projection for a JSON task list",
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, err := readTasksFile(file)
			if err != nil {
				return err
			}
			resp := dispatch(cmd.Context(), "workflow.right_pane_view", capability.WorkflowRightPaneViewPayload{Tasks: tasks, Width: width})
			return printResult(cmd.OutOrStdout(), jsonOutput, resp, func(w io.Writer, resp capability.ResponseEnvelope) error {
				result := resp.Result.Data.(capability.WorkflowRightPaneViewResult)
				fmt.Fprintln(w, strings.Join(result.Lines, "\n"))
				if len(result.Toggles) > 0 {
					fmt.Fprintf(w, "\ntoggleable: %s\n", strings.Join(result.Toggles, ", "))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "path to a JSON task list (default: stdin)")
	cmd.Flags().IntVar(&width, "width", 80, "render width")
	return cmd
}
