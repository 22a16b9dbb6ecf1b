package orchestrator

import (
	"fmt"
	"strings"

	"github.com/dioko-ai/bob/internal/sessionstore"
	"github.com/dioko-ai/bob/internal/taskgraph"
	"github.com/dioko-ai/bob/internal/workflow"
)

// BuildMasterPrompt composes the text handed to the master planning agent.
// It is a pure projection over already-loaded session state: no I/O, no
// clock reads. Service.PrepareMasterPrompt is the I/O-performing wrapper
// that loads this state from the store and caches the result.
func BuildMasterPrompt(meta sessionstore.SessionMeta, tasks []taskgraph.Task, rolling []workflow.RollingEntry, projectInfoMD, message string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Session: %s\n", meta.Title)
	fmt.Fprintf(&b, "cwd: %s\n", meta.Cwd)
	if meta.TestCommand != "" {
		fmt.Fprintf(&b, "test command: %s\n", meta.TestCommand)
	}
	b.WriteString("\n")

	if projectInfoMD != "" {
		b.WriteString("## Project\n")
		b.WriteString(projectInfoMD)
		b.WriteString("\n\n")
	}

	if len(tasks) > 0 {
		b.WriteString("## Current task graph\n")
		for _, line := range taskgraph.RightPaneView(taskgraph.NewGraph(tasks).CanonicalOrder(), 100) {
			b.WriteString(line)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if len(rolling) > 0 {
		b.WriteString("## Recent activity\n")
		for _, e := range rolling {
			fmt.Fprintf(&b, "- [%s] %s: %s\n", e.Timestamp, e.TaskID, e.Summary)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Request\n")
	b.WriteString(message)
	b.WriteString("\n")
	return b.String()
}

// BuildPlannerPrompt composes the text handed to the collaborative planner
// agent. Unlike BuildMasterPrompt, the caller supplies plannerMD and
// projectInfoMD directly rather than the function reading them.
func BuildPlannerPrompt(message, plannerMD, projectInfoMD string) string {
	var b strings.Builder

	if projectInfoMD != "" {
		b.WriteString("## Project\n")
		b.WriteString(projectInfoMD)
		b.WriteString("\n\n")
	}

	b.WriteString("## Current plan\n")
	if plannerMD == "" {
		b.WriteString("(no plan yet)\n")
	} else {
		b.WriteString(plannerMD)
		b.WriteString("\n")
	}
	b.WriteString("\n## Request\n")
	b.WriteString(message)
	b.WriteString("\n")
	return b.String()
}

// BuildAttachDocsPrompt composes a prompt asking an agent to attach
// reference documentation to the given tasks.
func BuildAttachDocsPrompt(tasks []taskgraph.Task) string {
	var b strings.Builder
	b.WriteString("Attach any reference documentation relevant to the following tasks:\n\n")
	for _, t := range tasks {
		label := t.Title
		if label == "" {
			label = t.ID
		}
		fmt.Fprintf(&b, "- %s (%s): %s\n", t.ID, t.Kind, label)
	}
	return b.String()
}

// BuildTaskPrompt composes the per-attempt prompt for a single RunTask
// action: the task itself plus its bounded retry/history context.
func BuildTaskPrompt(task taskgraph.Task, pc workflow.PromptContext) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s: %s\n", task.Kind, task.Title)
	if task.Body != "" {
		b.WriteString(task.Body)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\nAttempt %d of %d.\n", pc.Attempt+1, pc.MaxAttempts)

	if len(pc.RecentFailures) > 0 {
		b.WriteString("\n## Prior attempts on this task\n")
		for _, f := range pc.RecentFailures {
			fmt.Fprintf(&b, "- attempt %d: %s", f.Attempt, f.VerdictSummary)
			if f.Details != "" {
				fmt.Fprintf(&b, " (%s)", f.Details)
			}
			b.WriteString("\n")
		}
	}

	if len(pc.RollingContext) > 0 {
		b.WriteString("\n## Recent activity\n")
		for _, e := range pc.RollingContext {
			fmt.Fprintf(&b, "- [%s] %s: %s\n", e.Timestamp, e.TaskID, e.Summary)
		}
	}

	return b.String()
}
