package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSummarizePlannerDiff_Identical(t *testing.T) {
	require.Equal(t, "", summarizePlannerDiff("# Plan\n\n- step one\n", "# Plan\n\n- step one\n"))
}

func TestSummarizePlannerDiff_ReportsWordCounts(t *testing.T) {
	old := "# Plan\n\n- step one\n"
	next := "# Plan\n\n- step one\n- step two added\n"

	summary := summarizePlannerDiff(old, next)
	require.Contains(t, summary, "planner updated:")
	require.Contains(t, summary, "+")
}

func TestSummarizePlannerDiff_EmptyToContent(t *testing.T) {
	summary := summarizePlannerDiff("", "# Plan\n\n- first step\n")
	require.Contains(t, summary, "planner updated:")
}
