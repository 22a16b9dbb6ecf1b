// Package cli is the Transport Adapter Contract's scripted transport: a
// cobra command tree that builds one RequestEnvelope per invocation,
// dispatches it through internal/capability (or, for the two operations
// the capability surface deliberately omits, directly through
// internal/orchestrator), and renders the ResponseEnvelope as JSON or as
// human-readable text. Nothing in this package performs orchestration
// logic; every command's RunE is parse-build-dispatch-render.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dioko-ai/bob/internal/capability"
	"github.com/dioko-ai/bob/internal/ui/markdown"
)

var (
	styleLabel = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	styleErr   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	styleOK    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

// exitError carries a capability error code through cobra's RunE return
// so main can map it to the exit codes the scripted transport promises,
// without cobra's own argument-parsing errors (which have no Code) being
// forced through the same mapping.
type exitError struct {
	code capability.Code
	msg  string
}

func (e *exitError) Error() string { return e.msg }

// ExitCode implements the interface main.go type-asserts for, after
// cobra's Execute returns a non-nil error.
func (e *exitError) ExitCode() int { return e.code.ExitCode() }

func asExitError(resp capability.ResponseEnvelope) error {
	if resp.Result.Err == nil {
		return nil
	}
	return &exitError{code: resp.Result.Err.Code, msg: resp.Result.Err.Message}
}

// printResult renders resp to w: as a JSON envelope when jsonOutput is
// set, otherwise via human, which formats resp.Result.Data for a
// terminal. An envelope carrying an error renders the error either way
// and printResult returns it as a Go error so RunE can propagate it.
func printResult(w io.Writer, jsonOutput bool, resp capability.ResponseEnvelope, human func(io.Writer, capability.ResponseEnvelope) error) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(resp); err != nil {
			return err
		}
		return asExitError(resp)
	}

	if resp.Result.Err != nil {
		fmt.Fprintln(w, styleErr.Render(fmt.Sprintf("%s: %s", resp.Result.Err.Code, resp.Result.Err.Message)))
		return asExitError(resp)
	}
	if human != nil {
		if err := human(w, resp); err != nil {
			return err
		}
	}
	return nil
}

// renderMarkdown renders md through glamour at a width appropriate for a
// terminal, falling back to the raw text if the renderer cannot be built
// (e.g. no terminal width is available).
func renderMarkdown(w io.Writer, md string) error {
	if strings.TrimSpace(md) == "" {
		return nil
	}
	r, err := markdown.New(100)
	if err != nil {
		fmt.Fprintln(w, md)
		return nil
	}
	out, err := r.Render(md)
	if err != nil {
		fmt.Fprintln(w, md)
		return nil
	}
	fmt.Fprint(w, out)
	return nil
}

// label prints a styled "Name: value" line.
func label(w io.Writer, name, value string) {
	fmt.Fprintf(w, "%s %s\n", styleLabel.Render(name+":"), value)
}

// printJSON encodes v as indented JSON, for the handful of commands (the
// two that call internal/orchestrator directly rather than through
// capability.Dispatch) with no ResponseEnvelope to render.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
