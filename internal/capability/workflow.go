package capability

import (
	"context"

	"github.com/dioko-ai/bob/internal/taskgraph"
)

// Both capabilities in this file operate purely on their payload's tasks;
// neither opens a session. workflow.validate_tasks and
// workflow.right_pane_view are payload-in, payload-out operations
// independent of any particular session's state.

type WorkflowValidateTasksPayload struct {
	Tasks []taskgraph.Task `json:"tasks"`
}

type WorkflowValidateTasksResult struct {
	Tasks []taskgraph.Task `json:"tasks"`
}

type workflowValidateTasksCapability struct{}

func (workflowValidateTasksCapability) Name() string          { return "workflow.validate_tasks" }
func (workflowValidateTasksCapability) Operation() OperationType { return OpPure }
func (workflowValidateTasksCapability) Handle(_ context.Context, req RequestEnvelope) ResponseEnvelope {
	p, ok := req.Payload.(WorkflowValidateTasksPayload)
	if !ok {
		return Err(req, InvalidRequest("workflow.validate_tasks requires a WorkflowValidateTasksPayload"))
	}
	g, err := taskgraph.Validate(p.Tasks)
	if err != nil {
		return Err(req, ValidationFailed(err.Error()))
	}
	return Ok(req, WorkflowValidateTasksResult{Tasks: g.Tasks()})
}

type WorkflowRightPaneViewPayload struct {
	Tasks []taskgraph.Task `json:"tasks"`
	Width int              `json:"width"`
}

type WorkflowRightPaneViewResult struct {
	Lines   []string `json:"lines"`
	Toggles []string `json:"toggles"`
}

type workflowRightPaneViewCapability struct{}

func (workflowRightPaneViewCapability) Name() string          { return "workflow.right_pane_view" }
func (workflowRightPaneViewCapability) Operation() OperationType { return OpPure }
func (workflowRightPaneViewCapability) Handle(_ context.Context, req RequestEnvelope) ResponseEnvelope {
	p, ok := req.Payload.(WorkflowRightPaneViewPayload)
	if !ok {
		return Err(req, InvalidRequest("workflow.right_pane_view requires a WorkflowRightPaneViewPayload"))
	}
	g := taskgraph.NewGraph(p.Tasks).CanonicalOrder()
	lines := taskgraph.RightPaneView(g, p.Width)
	return Ok(req, WorkflowRightPaneViewResult{Lines: lines, Toggles: toggleableTaskIDs(g)})
}

// toggleableTaskIDs returns the IDs of tasks whose split/merge toggle is
// meaningful in the right pane: implementation parents of an audit or
// test pair, which /split-audits, /merge-audits, /split-tests, and
// /merge-tests operate on.
func toggleableTaskIDs(g taskgraph.Graph) []string {
	var out []string
	for _, t := range g.Tasks() {
		if t.Kind != taskgraph.KindImplementation {
			continue
		}
		for _, c := range g.Children(t.ID) {
			if c.Kind == taskgraph.KindAudit || c.Kind == taskgraph.KindTestWrite {
				out = append(out, t.ID)
				break
			}
		}
	}
	return out
}

// RegisterWorkflowCapabilities registers workflow.validate_tasks and
// workflow.right_pane_view.
func RegisterWorkflowCapabilities() {
	Register(workflowValidateTasksCapability{})
	Register(workflowRightPaneViewCapability{})
}
