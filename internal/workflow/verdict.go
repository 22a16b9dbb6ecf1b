package workflow

// VerdictKind tags the outcome of one agent run.
type VerdictKind int

const (
	VerdictPass VerdictKind = iota
	VerdictFail
)

// Verdict is the outcome the AgentRunner capability reports back for a
// RunTask action. The engine never constructs a Verdict itself; it is
// supplied by the caller (internal/orchestrator, or a scripted verdict
// stream in tests).
type Verdict struct {
	Kind    VerdictKind
	Summary string // required when Kind == VerdictFail
	Details string
}

// Pass is a convenience constructor for a passing verdict.
func Pass() Verdict {
	return Verdict{Kind: VerdictPass}
}

// Fail is a convenience constructor for a failing verdict.
func Fail(summary, details string) Verdict {
	return Verdict{Kind: VerdictFail, Summary: summary, Details: details}
}
