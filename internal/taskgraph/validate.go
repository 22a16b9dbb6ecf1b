package taskgraph

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ValidationError is returned by Validate/ValidateJSON when raw task input
// fails any step of the normalization pipeline. The Reason distinguishes
// the failing step for callers that map it to the capability error
// taxonomy (validation_failed vs invalid_request).
type ValidationError struct {
	Reason string
	TaskID string
}

func (e *ValidationError) Error() string {
	if e.TaskID != "" {
		return fmt.Sprintf("validation failed: %s (task %s)", e.Reason, e.TaskID)
	}
	return fmt.Sprintf("validation failed: %s", e.Reason)
}

// ValidateJSON parses raw as a JSON array of task records and runs it
// through Validate. Malformed JSON is reported as a ValidationError with
// reason "malformed_json", matching step 1 of the normalization pipeline.
func ValidateJSON(raw []byte) (Graph, error) {
	var tasks []Task
	if err := json.Unmarshal(raw, &tasks); err != nil {
		return Graph{}, &ValidationError{Reason: "malformed_json: " + err.Error()}
	}
	return Validate(tasks)
}

// Validate runs the seven-step normalization pipeline over raw tasks and
// returns a canonically-ordered Graph, or a ValidationError naming the
// first failing step.
//
//  1. (caller already parsed JSON into raw Task values)
//  2. every task has a non-empty id; duplicates are rejected.
//  3. parent_id references resolve or are absent.
//  4. the parent graph contains no cycles.
//  5. status defaults to pending, attempt to 0, max_attempts to the
//     policy table unless the raw record already set a stricter value.
//  6. siblings are ordered canonically.
//  7. every test_run has a matching test_write sibling with the same
//     concern.
func Validate(raw []Task) (Graph, error) {
	if err := checkIDs(raw); err != nil {
		return Graph{}, err
	}
	if err := checkParents(raw); err != nil {
		return Graph{}, err
	}
	if err := checkCycles(raw); err != nil {
		return Graph{}, err
	}

	normalized := make([]Task, len(raw))
	for i, t := range raw {
		normalized[i] = normalize(t)
	}

	g := NewGraph(normalized).CanonicalOrder()

	if err := checkTestPairing(g); err != nil {
		return Graph{}, err
	}
	return g, nil
}

func checkIDs(raw []Task) error {
	seen := make(map[string]bool, len(raw))
	for _, t := range raw {
		if t.ID == "" {
			return &ValidationError{Reason: "task has empty id"}
		}
		if seen[t.ID] {
			return &ValidationError{Reason: "duplicate task id", TaskID: t.ID}
		}
		seen[t.ID] = true
	}
	return nil
}

func checkParents(raw []Task) error {
	ids := make(map[string]bool, len(raw))
	for _, t := range raw {
		ids[t.ID] = true
	}
	for _, t := range raw {
		if !t.HasParent() {
			continue
		}
		if t.ParentID == t.ID {
			return &ValidationError{Reason: "task is its own parent", TaskID: t.ID}
		}
		if !ids[t.ParentID] {
			return &ValidationError{Reason: "dangling parent_id", TaskID: t.ID}
		}
	}
	return nil
}

// checkCycles runs a depth-first walk from every task, following
// parent_id links, rejecting any task whose ancestor chain revisits
// itself.
func checkCycles(raw []Task) error {
	byID := make(map[string]Task, len(raw))
	for _, t := range raw {
		byID[t.ID] = t
	}

	for _, start := range raw {
		visited := make(map[string]bool)
		cur := start
		for cur.HasParent() {
			if visited[cur.ID] {
				return &ValidationError{Reason: "cycle detected", TaskID: start.ID}
			}
			visited[cur.ID] = true
			parent, ok := byID[cur.ParentID]
			if !ok {
				break // dangling parent already rejected by checkParents
			}
			if parent.ID == start.ID {
				return &ValidationError{Reason: "cycle detected", TaskID: start.ID}
			}
			cur = parent
		}
	}
	return nil
}

func normalize(t Task) Task {
	if t.Status == "" {
		t.Status = StatusPending
	}
	if t.Attempt == 0 {
		t.Attempt = 0
	}
	policy, ok := DefaultMaxAttempts[t.Kind]
	if !ok {
		policy = 1
	}
	if t.MaxAttempts <= 0 || t.MaxAttempts > policy {
		t.MaxAttempts = policy
	}
	t.Concern = normalizeConcern(t.Concern)
	return t
}

// normalizeConcern case-folds and trims a concern tag so that "Docs" and
// "docs " land in the same split/merge bucket.
func normalizeConcern(concern string) string {
	return strings.ToLower(strings.TrimSpace(concern))
}

// checkTestPairing enforces invariant 6: every test_run has a sibling
// test_write with the same concern that precedes it in canonical order.
func checkTestPairing(g Graph) error {
	for _, t := range g.Tasks() {
		if t.Kind != KindTestRun {
			continue
		}
		found := false
		for _, sib := range g.Siblings(t) {
			if sib.Kind == KindTestWrite && sib.Concern == t.Concern {
				found = true
				break
			}
		}
		if !found {
			return &ValidationError{
				Reason: fmt.Sprintf("test_run has no matching test_write for concern %q", t.Concern),
				TaskID: t.ID,
			}
		}
	}
	return nil
}
