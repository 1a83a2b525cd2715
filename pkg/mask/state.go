package mask

import "bytes"

// State is an immutable point in mask history: either the empty sentinel
// (all voxels visible, no backing bytes) or a compressed encoding of a mask
// buffer. States are compared by value, never by buffer identity, and are
// the only thing the history stack retains between edits.
type State struct {
	compressed []byte
}

// EmptyState returns the sentinel state meaning "no mask applied".
func EmptyState() State {
	return State{}
}

// IsEmpty reports whether the state is the all-visible sentinel.
func (s State) IsEmpty() bool {
	return s.compressed == nil
}

// CompressedSize returns the number of bytes held by the state.
func (s State) CompressedSize() int {
	return len(s.compressed)
}

// Equal reports whether two states encode the same mask contents.
func (s State) Equal(o State) bool {
	return bytes.Equal(s.compressed, o.compressed)
}
