// Package repl is the Transport Adapter Contract's interactive transport:
// a line-oriented loop reading slash-commands from stdin, dispatching
// each through internal/capability (or, for advance and the graph-edit
// commands, directly through internal/orchestrator), and rendering the
// result to stdout. Like internal/transport/cli, nothing here performs
// orchestration logic; every command here is parse-build-dispatch-render.
package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/dioko-ai/bob/internal/capability"
	"github.com/dioko-ai/bob/internal/config"
	"github.com/dioko-ai/bob/internal/orchestrator"
	"github.com/dioko-ai/bob/internal/sessionstore"
	"github.com/dioko-ai/bob/internal/taskgraph"
	"github.com/dioko-ai/bob/internal/tracing"
	"github.com/dioko-ai/bob/internal/ui/markdown"
	"github.com/dioko-ai/bob/internal/workflow"
)

var (
	styleLabel  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	styleErr    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	styleOK     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	stylePrompt = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
)

// Deps is everything the loop needs beyond the commands it reads.
type Deps struct {
	Config  config.Config
	Backend *config.BackendSelector
}

// session is the REPL's notion of "the currently open session": a held
// Handle plus the skip-plan flag /skip-plan sets. /start does not read
// the flag and never requires a prior /convert.
type session struct {
	id       string
	handle   *sessionstore.Handle
	skipPlan bool
}

// Run reads slash-commands from in, one per line, until /quit, /exit, or
// EOF, writing output to out. It builds its own tracing provider from
// deps.Config.Tracing.
func Run(ctx context.Context, deps Deps, in io.Reader, out io.Writer) error {
	provider, err := tracing.NewProvider(tracing.Config{
		Enabled:  deps.Config.Tracing.Enabled,
		FilePath: deps.Config.Tracing.FilePath,
		Debug:    deps.Config.Tracing.Debug,
	})
	if err != nil {
		return fmt.Errorf("building tracing provider: %w", err)
	}
	defer provider.Shutdown(ctx)

	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var cur *session
	defer func() {
		if cur != nil && cur.handle != nil {
			cur.handle.Close()
		}
	}()

	fmt.Fprint(out, stylePrompt.Render("bob> "))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			fmt.Fprint(out, stylePrompt.Render("bob> "))
			continue
		}

		cmd, rest := splitCommand(line)
		switch cmd {
		case "/quit", "/exit":
			return nil
		case "/newmaster":
			cur = handleNewmaster(ctx, out, cur, rest)
		case "/resume":
			cur = handleResume(out, cur, rest)
		case "/backend":
			handleBackend(out, deps, rest)
		case "/planner":
			handlePrompt(ctx, out, cur, "app.prepare_planner_prompt", rest)
		case "/attach-docs":
			handlePrompt(ctx, out, cur, "app.prepare_attach_docs_prompt", "")
		case "/convert":
			handleConvert(ctx, out, cur)
		case "/skip-plan":
			if cur != nil {
				cur.skipPlan = true
			}
			fmt.Fprintln(out, styleOK.Render("planner step will be skipped for this session"))
		case "/start":
			handleStart(ctx, out, deps, provider, cur)
		case "/split-audits", "/merge-audits", "/split-tests", "/merge-tests", "/remove-final-audit":
			handleGraphEdit(out, cur, cmd, rest, "", "")
		case "/add-final-audit":
			parentID, id, title := splitAddFinalAudit(rest)
			handleGraphEdit(out, cur, cmd, parentID, id, title)
		default:
			fmt.Fprintln(out, styleErr.Render("unrecognized command: "+cmd))
		}

		fmt.Fprint(out, stylePrompt.Render("bob> "))
	}
	return sc.Err()
}

func splitCommand(line string) (cmd, rest string) {
	fields := strings.SplitN(line, " ", 2)
	cmd = fields[0]
	if len(fields) == 2 {
		rest = strings.TrimSpace(fields[1])
	}
	return cmd, rest
}

// splitAddFinalAudit parses "<parent-id> <id> <title...>" for
// /add-final-audit, the one graph edit that synthesizes a new task.
func splitAddFinalAudit(rest string) (parentID, id, title string) {
	fields := strings.SplitN(rest, " ", 3)
	if len(fields) > 0 {
		parentID = fields[0]
	}
	if len(fields) > 1 {
		id = fields[1]
	}
	if len(fields) > 2 {
		title = fields[2]
	}
	return parentID, id, title
}

func dispatch(ctx context.Context, capabilityName string, payload any) capability.ResponseEnvelope {
	return capability.Dispatch(ctx, capability.RequestEnvelope{
		RequestID:  uuid.NewString(),
		Capability: capabilityName,
		Metadata:   capability.Metadata{Transport: "repl", Actor: "repl"},
		Payload:    payload,
	})
}

func printErr(out io.Writer, err *capability.Error) {
	fmt.Fprintln(out, styleErr.Render(fmt.Sprintf("%s: %s", err.Code, err.Message)))
}

func renderMarkdown(out io.Writer, md string) {
	if strings.TrimSpace(md) == "" {
		return
	}
	r, err := markdown.New(100)
	if err != nil {
		fmt.Fprintln(out, md)
		return
	}
	text, err := r.Render(md)
	if err != nil {
		fmt.Fprintln(out, md)
		return
	}
	fmt.Fprint(out, text)
}

func handleNewmaster(ctx context.Context, out io.Writer, cur *session, rest string) *session {
	fields := strings.SplitN(rest, " ", 2)
	if len(fields) < 2 || fields[0] == "" || fields[1] == "" {
		fmt.Fprintln(out, styleErr.Render("usage: /newmaster <cwd> <title>"))
		return cur
	}
	if cur != nil && cur.handle != nil {
		cur.handle.Close()
	}

	resp := dispatch(ctx, "session.init", capability.SessionInitPayload{Cwd: fields[0], Title: fields[1]})
	if resp.Result.Err != nil {
		printErr(out, resp.Result.Err)
		return nil
	}
	meta := resp.Result.Data.(sessionstore.SessionMeta)

	h, err := sessionstore.Open(meta.SessionID)
	if err != nil {
		fmt.Fprintln(out, styleErr.Render(err.Error()))
		return nil
	}
	fmt.Fprintln(out, styleOK.Render("session "+meta.SessionID+" created"))
	return &session{id: meta.SessionID, handle: h}
}

func handleResume(out io.Writer, cur *session, sessionID string) *session {
	if sessionID == "" {
		fmt.Fprintln(out, styleErr.Render("usage: /resume <session-id>"))
		return cur
	}
	if cur != nil && cur.handle != nil {
		cur.handle.Close()
	}
	h, err := sessionstore.Open(sessionID)
	if err != nil {
		fmt.Fprintln(out, styleErr.Render(err.Error()))
		return nil
	}
	fmt.Fprintln(out, styleOK.Render("resumed session "+sessionID))
	return &session{id: sessionID, handle: h}
}

func handleBackend(out io.Writer, deps Deps, rest string) {
	if rest == "" {
		fmt.Fprintln(out, deps.Backend.Backend())
		return
	}
	if err := deps.Backend.SetBackend(rest); err != nil {
		fmt.Fprintln(out, styleErr.Render(err.Error()))
		return
	}
	fmt.Fprintln(out, styleOK.Render("backend set to "+deps.Backend.Backend()))
}

func handlePrompt(ctx context.Context, out io.Writer, cur *session, capabilityName, message string) {
	if cur == nil {
		fmt.Fprintln(out, styleErr.Render("no session open; /newmaster or /resume first"))
		return
	}
	var resp capability.ResponseEnvelope
	if capabilityName == "app.prepare_attach_docs_prompt" {
		resp = dispatch(ctx, capabilityName, capability.SessionIDPayload{SessionID: cur.id})
	} else {
		resp = dispatch(ctx, capabilityName, capability.AppPreparePlannerPromptPayload{SessionID: cur.id, Message: message})
	}
	if resp.Result.Err != nil {
		printErr(out, resp.Result.Err)
		return
	}
	renderMarkdown(out, resp.Result.Data.(capability.TextResult).Text)
}

// handleConvert re-validates the session's current tasks.json through
// workflow.validate_tasks. The source spec names no separate
// planner-output-to-task-graph parser capability, so /convert's role
// here is the one capability that can plausibly follow a planning
// conversation: normalizing whatever tasks a caller has already written
// to the session (e.g. from an upstream planner integration) before
// /start begins driving them.
func handleConvert(ctx context.Context, out io.Writer, cur *session) {
	if cur == nil {
		fmt.Fprintln(out, styleErr.Render("no session open; /newmaster or /resume first"))
		return
	}
	tasksResp := dispatch(ctx, "session.read_tasks", capability.SessionIDPayload{SessionID: cur.id})
	if tasksResp.Result.Err != nil {
		printErr(out, tasksResp.Result.Err)
		return
	}
	tasks := tasksResp.Result.Data.([]taskgraph.Task)

	resp := dispatch(ctx, "workflow.validate_tasks", capability.WorkflowValidateTasksPayload{Tasks: tasks})
	if resp.Result.Err != nil {
		printErr(out, resp.Result.Err)
		return
	}
	fmt.Fprintln(out, styleOK.Render(fmt.Sprintf("converted: %d tasks valid", len(resp.Result.Data.(capability.WorkflowValidateTasksResult).Tasks))))
}

func handleStart(ctx context.Context, out io.Writer, deps Deps, provider *tracing.Provider, cur *session) {
	if cur == nil {
		fmt.Fprintln(out, styleErr.Render("no session open; /newmaster or /resume first"))
		return
	}
	runner := orchestrator.NewProcessRunner(deps.Backend.Backend())
	svc := orchestrator.NewService(cur.handle, runner, provider)
	defer svc.Close()

	for {
		action, err := svc.Advance(ctx, time.Now().UTC().Format(time.RFC3339))
		if err != nil {
			fmt.Fprintln(out, styleErr.Render(err.Error()))
			return
		}
		printAction(out, action)
		if action.Kind != workflow.ActionRunTask {
			return
		}
	}
}

func printAction(out io.Writer, action workflow.Action) {
	switch action.Kind {
	case workflow.ActionRunTask:
		fmt.Fprintf(out, "%s\n", styleOK.Render(fmt.Sprintf("running %s on %s (attempt %d/%d)", action.Role, action.TaskID, action.PromptContext.Attempt+1, action.PromptContext.MaxAttempts)))
	case workflow.ActionDone:
		fmt.Fprintf(out, "%s\n", styleOK.Render("done: "+action.Overall))
	case workflow.ActionBlocked:
		fmt.Fprintln(out, styleErr.Render("blocked: "+action.Reason))
	}
}

func handleGraphEdit(out io.Writer, cur *session, slashCmd, parentID, id, title string) {
	if cur == nil {
		fmt.Fprintln(out, styleErr.Render("no session open; /newmaster or /resume first"))
		return
	}
	if parentID == "" {
		fmt.Fprintln(out, styleErr.Render("usage: "+slashCmd+" <parent-id>"))
		return
	}
	svc := orchestrator.NewService(cur.handle, nil, nil)
	defer svc.Close()
	g, err := svc.ApplyCommand(slashCmd, parentID, id, title)
	if err != nil {
		fmt.Fprintln(out, styleErr.Render(err.Error()))
		return
	}
	for _, t := range g.Tasks() {
		fmt.Fprintf(out, "%-12s %-8s %-12s attempt %d/%d  %s\n", t.ID, t.Kind, t.Status, t.Attempt, t.MaxAttempts, t.Title)
	}
}
