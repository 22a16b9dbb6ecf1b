package orchestrator

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// summarizePlannerDiff returns a short human-readable description of the
// change from oldMD to newMD, or "" if they are identical. Uses a
// character-level diff with semantic cleanup, reduced to a count of the
// words in the inserted and deleted runs, since the consumer is a
// one-line rolling context entry, not a rendered hunk view.
func summarizePlannerDiff(oldMD, newMD string) string {
	if oldMD == newMD {
		return ""
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(oldMD, newMD, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	var added, removed int
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			added += len(strings.Fields(d.Text))
		case diffmatchpatch.DiffDelete:
			removed += len(strings.Fields(d.Text))
		}
	}
	return fmt.Sprintf("planner updated: +%d/-%d words", added, removed)
}
