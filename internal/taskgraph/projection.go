package taskgraph

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/wordwrap"
)

// statusIcon returns the single-glyph icon used in the right-pane outline
// for a given status.
func statusIcon(s Status) string {
	switch s {
	case StatusPending:
		return "○"
	case StatusRunning:
		return "◐"
	case StatusPassed:
		return "●"
	case StatusFailed:
		return "✗"
	case StatusSkipped:
		return "—"
	default:
		return "?"
	}
}

// RightPaneView returns a deterministic plain-text outline of the graph:
// one line per task, indented by depth, prefixed with a status icon, and
// wrapped to width. It is used both as the UI's right-pane content and as
// a golden-output snapshot in tests.
func RightPaneView(g Graph, width int) []string {
	if width <= 0 {
		width = 80
	}

	var lines []string
	var walk func(parentID string, depth int)
	walk = func(parentID string, depth int) {
		for _, t := range g.Children(parentID) {
			indent := strings.Repeat("  ", depth)
			label := t.Title
			if label == "" {
				label = t.ID
			}
			head := indent + statusIcon(t.Status) + " " + label

			avail := width - runewidth.StringWidth(indent)
			if avail < 10 {
				avail = 10
			}
			wrapped := wordwrap.String(head, avail)
			for _, wline := range strings.Split(wrapped, "\n") {
				lines = append(lines, wline)
			}
			walk(t.ID, depth+1)
		}
	}
	walk("", 0)
	return lines
}
