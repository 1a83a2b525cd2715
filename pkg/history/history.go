// Package history provides a generic undo/redo command stack. It is
// deliberately semantics-agnostic: it never inspects the states it holds,
// and applying a state is delegated to a caller-supplied function, so the
// same manager works for mask snapshots or any future reversible edit.
package history

// Command pairs the state before an edit with the state after it. The
// manager moves commands between its two stacks; interpreting Before/After
// is entirely the caller's business.
type Command[T any] struct {
	Before T
	After  T
}

// DefaultMaxDepth bounds the undo stack when no explicit limit is given.
const DefaultMaxDepth = 10

// Manager is an undo/redo stack over opaque states.
//
// Invariants:
//   - Do is the only operation that clears the redo stack (a new edit
//     invalidates the redo future).
//   - If an apply function returns an error, neither stack is mutated, so
//     the recorded history always matches the last successfully applied state.
//
// Manager is not safe for concurrent use; the owning edit sequence must
// serialize calls.
type Manager[T any] struct {
	maxDepth  int
	undoStack []Command[T]
	redoStack []Command[T]
}

// NewManager creates a manager keeping at most maxDepth undo entries.
// Values < 1 fall back to DefaultMaxDepth.
func NewManager[T any](maxDepth int) *Manager[T] {
	if maxDepth < 1 {
		maxDepth = DefaultMaxDepth
	}
	return &Manager[T]{maxDepth: maxDepth}
}

// CanUndo reports whether an undo entry is available.
func (m *Manager[T]) CanUndo() bool {
	return len(m.undoStack) > 0
}

// CanRedo reports whether a redo entry is available.
func (m *Manager[T]) CanRedo() bool {
	return len(m.redoStack) > 0
}

// Depth returns the current number of undo entries.
func (m *Manager[T]) Depth() int {
	return len(m.undoStack)
}

// Clear drops both stacks.
func (m *Manager[T]) Clear() {
	m.undoStack = nil
	m.redoStack = nil
}

// Do applies cmd.After and records cmd on the undo stack, discarding any
// redo entries and trimming the oldest undo entry past the depth limit.
func (m *Manager[T]) Do(cmd Command[T], apply func(T) error) error {
	if err := apply(cmd.After); err != nil {
		return err
	}
	m.undoStack = append(m.undoStack, cmd)
	if len(m.undoStack) > m.maxDepth {
		// Zero the trimmed slot: it stays in the backing array, and the
		// depth limit exists to bound the state it references.
		m.undoStack[0] = Command[T]{}
		m.undoStack = m.undoStack[1:]
	}
	m.redoStack = nil
	return nil
}

// Undo applies the Before state of the most recent command and moves it to
// the redo stack. It returns false with no error when there is nothing to
// undo.
func (m *Manager[T]) Undo(apply func(T) error) (bool, error) {
	if len(m.undoStack) == 0 {
		return false, nil
	}
	cmd := m.undoStack[len(m.undoStack)-1]
	if err := apply(cmd.Before); err != nil {
		return false, err
	}
	m.undoStack = m.undoStack[:len(m.undoStack)-1]
	m.redoStack = append(m.redoStack, cmd)
	return true, nil
}

// Redo applies the After state of the most recently undone command and moves
// it back to the undo stack. It returns false with no error when there is
// nothing to redo.
func (m *Manager[T]) Redo(apply func(T) error) (bool, error) {
	if len(m.redoStack) == 0 {
		return false, nil
	}
	cmd := m.redoStack[len(m.redoStack)-1]
	if err := apply(cmd.After); err != nil {
		return false, err
	}
	m.redoStack = m.redoStack[:len(m.redoStack)-1]
	m.undoStack = append(m.undoStack, cmd)
	return true, nil
}
