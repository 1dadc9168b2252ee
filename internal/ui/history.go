package ui

import "github.com/piwi3910/CoverCut/internal/model"

const defaultMaxDepth = 50

// Snapshot is the cover list as it was before an edit. Label names that
// edit (e.g. "Add cover").
type Snapshot struct {
	Covers []model.Cover
	Pieces []model.ItemInput
	Label  string
}

// MakeSnapshot copies the cover list into a snapshot. Nil slices stay nil.
func MakeSnapshot(covers []model.Cover, pieces []model.ItemInput, label string) Snapshot {
	s := Snapshot{Label: label}
	if covers != nil {
		s.Covers = append([]model.Cover(nil), covers...)
	}
	if pieces != nil {
		s.Pieces = append([]model.ItemInput(nil), pieces...)
	}
	return s
}

type snapshotStack []Snapshot

func (s *snapshotStack) push(v Snapshot, limit int) {
	*s = append(*s, v)
	if limit > 0 && len(*s) > limit {
		*s = append((*s)[:0], (*s)[len(*s)-limit:]...)
	}
}

func (s *snapshotStack) pop() (Snapshot, bool) {
	n := len(*s)
	if n == 0 {
		return Snapshot{}, false
	}
	v := (*s)[n-1]
	*s = (*s)[:n-1]
	return v, true
}

func (s snapshotStack) topLabel() string {
	if len(s) == 0 {
		return ""
	}
	return s[len(s)-1].Label
}

// History keeps bounded undo and redo stacks of cover list edits.
// Call Push before applying an edit.
type History struct {
	undo     snapshotStack
	redo     snapshotStack
	maxDepth int
}

func NewHistory() *History {
	return &History{maxDepth: defaultMaxDepth}
}

// Push records the state before an edit and drops anything redoable.
func (h *History) Push(s Snapshot) {
	h.undo.push(s, h.maxDepth)
	h.redo = nil
}

// Undo returns the state before the last edit. current is kept for Redo
// under the same label.
func (h *History) Undo(current Snapshot) (Snapshot, bool) {
	prev, ok := h.undo.pop()
	if !ok {
		return Snapshot{}, false
	}
	current.Label = prev.Label
	h.redo.push(current, 0)
	return prev, true
}

// Redo reapplies the last undone edit.
func (h *History) Redo(current Snapshot) (Snapshot, bool) {
	next, ok := h.redo.pop()
	if !ok {
		return Snapshot{}, false
	}
	current.Label = next.Label
	h.undo.push(current, h.maxDepth)
	return next, true
}

func (h *History) CanUndo() bool { return len(h.undo) > 0 }
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// UndoLabel names the edit Undo would revert, or "".
func (h *History) UndoLabel() string { return h.undo.topLabel() }

// RedoLabel names the edit Redo would reapply, or "".
func (h *History) RedoLabel() string { return h.redo.topLabel() }

func (h *History) Clear() {
	h.undo = nil
	h.redo = nil
}
