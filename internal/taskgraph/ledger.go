package taskgraph

// FailureEntry is one record in the append-only failure ledger.
type FailureEntry struct {
	TaskID        string `json:"task_id"`
	Attempt       int    `json:"attempt"`
	Kind          Kind   `json:"kind"`
	VerdictSummary string `json:"verdict_summary"`
	Details       string `json:"details,omitempty"`
	Timestamp     string `json:"timestamp"`
	SkippedDueTo  string `json:"skipped_due_to,omitempty"`
}

// Ledger is the append-only failure ledger. The zero value is an empty,
// usable ledger. Entries are never reordered or removed once appended;
// indices referenced from Task.LinkedFailureRefs remain stable.
type Ledger struct {
	entries []FailureEntry
}

// NewLedger builds a Ledger from a slice of entries already read from
// disk, preserving their order and indices.
func NewLedger(entries []FailureEntry) Ledger {
	cp := make([]FailureEntry, len(entries))
	copy(cp, entries)
	return Ledger{entries: cp}
}

// Append returns a new Ledger with entry appended and the index it was
// assigned. The receiver is left unmodified.
func (l Ledger) Append(entry FailureEntry) (Ledger, int) {
	next := make([]FailureEntry, len(l.entries), len(l.entries)+1)
	copy(next, l.entries)
	next = append(next, entry)
	return Ledger{entries: next}, len(next) - 1
}

// Len returns the number of entries in the ledger.
func (l Ledger) Len() int {
	return len(l.entries)
}

// Entries returns a defensive copy of the ledger's entries in order.
func (l Ledger) Entries() []FailureEntry {
	out := make([]FailureEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// EntriesForTask returns, in order, every entry in the ledger whose
// TaskID matches id.
func (l Ledger) EntriesForTask(id string) []FailureEntry {
	var out []FailureEntry
	for _, e := range l.entries {
		if e.TaskID == id {
			out = append(out, e)
		}
	}
	return out
}

// LastNForTask returns up to n most recent entries for id, oldest first,
// for use as bounded retry prompt context.
func (l Ledger) LastNForTask(id string, n int) []FailureEntry {
	all := l.EntriesForTask(id)
	if len(all) <= n {
		return all
	}
	return all[len(all)-n:]
}

// HasPrefix reports whether other is a prefix of l's entries, i.e. the
// first len(other) entries are identical. Used to assert the append-only
// property across observations taken at different times.
func (l Ledger) HasPrefix(other Ledger) bool {
	if len(other.entries) > len(l.entries) {
		return false
	}
	for i, e := range other.entries {
		if l.entries[i] != e {
			return false
		}
	}
	return true
}
