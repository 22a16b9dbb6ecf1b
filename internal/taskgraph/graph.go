package taskgraph

import "sort"

// Graph is an immutable-by-convention value wrapping a forest of tasks.
// All mutation methods return a new Graph; callers never observe a Graph
// changing out from under them. Construct one via NewGraph or Validate.
type Graph struct {
	tasks []Task
}

// NewGraph wraps tasks as-is, without validating or normalizing them.
// Most callers want Validate instead.
func NewGraph(tasks []Task) Graph {
	cp := make([]Task, len(tasks))
	copy(cp, tasks)
	return Graph{tasks: cp}
}

// Tasks returns a defensive copy of the graph's tasks in their current
// stored order.
func (g Graph) Tasks() []Task {
	out := make([]Task, len(g.tasks))
	copy(out, g.tasks)
	return out
}

// Len returns the number of tasks in the graph.
func (g Graph) Len() int {
	return len(g.tasks)
}

// Get returns the task with the given id and true, or the zero Task and
// false if no such task exists.
func (g Graph) Get(id string) (Task, bool) {
	for _, t := range g.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return Task{}, false
}

// Children returns the direct children of parentID in canonical order.
// An empty parentID selects the root-level tasks.
func (g Graph) Children(parentID string) []Task {
	var out []Task
	for _, t := range g.tasks {
		if t.ParentID == parentID {
			out = append(out, t)
		}
	}
	return out
}

// Siblings returns every task sharing t's ParentID, including t itself,
// in canonical order.
func (g Graph) Siblings(t Task) []Task {
	return g.Children(t.ParentID)
}

// With returns a new Graph with the task matching replacement.ID replaced
// by replacement. If no task with that ID exists, replacement is left
// out: callers that intend to insert a task use Insert.
func (g Graph) With(replacement Task) Graph {
	next := make([]Task, len(g.tasks))
	copy(next, g.tasks)
	for i, t := range next {
		if t.ID == replacement.ID {
			next[i] = replacement
			return Graph{tasks: next}
		}
	}
	return Graph{tasks: next}
}

// Insert returns a new Graph with t appended, then re-sorted into
// canonical order.
func (g Graph) Insert(t Task) Graph {
	next := make([]Task, len(g.tasks), len(g.tasks)+1)
	copy(next, g.tasks)
	next = append(next, t)
	return Graph{tasks: next}.CanonicalOrder()
}

// Remove returns a new Graph with the task matching id removed.
func (g Graph) Remove(id string) Graph {
	next := make([]Task, 0, len(g.tasks))
	for _, t := range g.tasks {
		if t.ID != id {
			next = append(next, t)
		}
	}
	return Graph{tasks: next}
}

// CanonicalOrder returns a new Graph with tasks sorted depth-first: roots
// in their sibling order, each followed immediately by its own ordered
// subtree. Sibling order is implementation first, then audits grouped by
// concern (first-seen order), then test_write, then test_run, then
// final_audit last; ties keep stable original order.
func (g Graph) CanonicalOrder() Graph {
	byParent := make(map[string][]Task)
	for _, t := range g.tasks {
		byParent[t.ParentID] = append(byParent[t.ParentID], t)
	}
	for parent, kids := range byParent {
		byParent[parent] = orderSiblings(kids)
	}

	var out []Task
	var walk func(parentID string)
	walk = func(parentID string) {
		for _, t := range byParent[parentID] {
			out = append(out, t)
			walk(t.ID)
		}
	}
	walk("")
	return Graph{tasks: out}
}

// orderSiblings sorts one parent's children per the canonical ordering
// rule, using a stable sort so ties preserve original relative order.
func orderSiblings(kids []Task) []Task {
	concernFirstSeen := make(map[string]int)
	for i, t := range kids {
		if t.Kind != KindAudit {
			continue
		}
		if _, ok := concernFirstSeen[t.Concern]; !ok {
			concernFirstSeen[t.Concern] = i
		}
	}

	sorted := make([]Task, len(kids))
	copy(sorted, kids)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		ra, rb := a.Kind.orderRank(), b.Kind.orderRank()
		if ra != rb {
			return ra < rb
		}
		if a.Kind == KindAudit && b.Kind == KindAudit {
			return concernFirstSeen[a.Concern] < concernFirstSeen[b.Concern]
		}
		return false
	})
	return sorted
}

// Roots returns the top-level tasks (no parent) in canonical order.
func (g Graph) Roots() []Task {
	return g.Children("")
}
