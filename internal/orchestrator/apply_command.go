package orchestrator

import (
	"fmt"

	"github.com/dioko-ai/bob/internal/taskgraph"
)

// Supported command names for ApplyCommand.
const (
	CommandSplitAudits      = "/split-audits"
	CommandMergeAudits      = "/merge-audits"
	CommandSplitTests       = "/split-tests"
	CommandMergeTests       = "/merge-tests"
	CommandAddFinalAudit    = "/add-final-audit"
	CommandRemoveFinalAudit = "/remove-final-audit"
)

// ErrUnknownCommand is returned by ApplyCommand for any command name
// outside the fixed set above.
type ErrUnknownCommand struct {
	Command string
}

func (e *ErrUnknownCommand) Error() string {
	return fmt.Sprintf("orchestrator: unknown command %q", e.Command)
}

// ApplyCommand loads the session's current task graph, applies the named
// split/merge mutation rooted at parentID, re-validates the result, and
// persists it. Re-validation happens before persistence: a mutation that
// would leave the graph invalid (e.g. an orphaned test_run) is rejected
// and the on-disk graph is left untouched, per the "result must re-pass
// validation" rule governing every structural mutation.
//
// id and title are only consulted for CommandAddFinalAudit, where a new
// task must be synthesized; every other command derives its output
// entirely from the existing graph.
func (s *Service) ApplyCommand(command, parentID, id, title string) (taskgraph.Graph, error) {
	tasks, err := s.store.ReadTasks()
	if err != nil {
		return taskgraph.Graph{}, err
	}
	g := taskgraph.NewGraph(tasks).CanonicalOrder()

	var mutated taskgraph.Graph
	switch command {
	case CommandSplitAudits:
		mutated = taskgraph.SplitAudits(g, parentID)
	case CommandMergeAudits:
		mutated = taskgraph.MergeAudits(g, parentID)
	case CommandSplitTests:
		mutated = taskgraph.SplitTests(g, parentID)
	case CommandMergeTests:
		mutated = taskgraph.MergeTests(g, parentID)
	case CommandAddFinalAudit:
		mutated = taskgraph.AddFinalAudit(g, parentID, id, title)
	case CommandRemoveFinalAudit:
		mutated = taskgraph.RemoveFinalAudit(g, parentID)
	default:
		return taskgraph.Graph{}, &ErrUnknownCommand{Command: command}
	}

	validated, err := taskgraph.Validate(mutated.Tasks())
	if err != nil {
		return taskgraph.Graph{}, err
	}

	fails, err := s.store.ReadTaskFails()
	if err != nil {
		return taskgraph.Graph{}, err
	}
	if err := s.persist(validated, taskgraph.NewLedger(fails)); err != nil {
		return taskgraph.Graph{}, err
	}

	return validated, nil
}
