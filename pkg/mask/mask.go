// Package mask implements the per-voxel visibility mask and its compressed
// snapshot states. The mask is a dense byte array with the same shape as the
// source volume; it only ever accumulates hidden voxels, so successive clips
// narrow the visible set until an undo restores an earlier snapshot.
package mask

import (
	"bytes"
	"errors"
	"fmt"
)

// Keep marks a voxel as visible, Hide as suppressed. These are the only two
// legal byte values in a mask; the polarity (255 = visible) follows the
// binary-mask convention of the imaging stencil pipeline this replaces and
// is pinned by tests rather than assumed.
const (
	Keep byte = 0xFF
	Hide byte = 0x00
)

var (
	// ErrDimensionMismatch indicates a shape disagreement between the mask
	// and a region or decoded snapshot. It is fatal: it means a loading or
	// versioning bug, never a condition to paper over.
	ErrDimensionMismatch = errors.New("mask dimension mismatch")

	// ErrCorruptSnapshot indicates a snapshot that failed to decompress or
	// decompressed to the wrong length.
	ErrCorruptSnapshot = errors.New("corrupt mask snapshot")
)

// Region is a one-shot keep/hide mask produced by rasterizing a user-drawn
// boundary. It is consumed by Buffer.Accumulate and then discarded.
type Region struct {
	Nx, Ny, Nz int
	Data       []byte
}

// NewRegion creates a region mask with every voxel set to fill.
func NewRegion(nx, ny, nz int, fill byte) *Region {
	data := make([]byte, nx*ny*nz)
	if fill != 0 {
		for i := range data {
			data[i] = fill
		}
	}
	return &Region{Nx: nx, Ny: ny, Nz: nz, Data: data}
}

// Index returns the flat index for voxel (x, y, z).
func (r *Region) Index(x, y, z int) int {
	return z*r.Nx*r.Ny + y*r.Nx + x
}

// Buffer is the running visibility mask for one source volume. It is created
// all-Keep at volume load time and mutated in place for the rest of the
// session, either by Accumulate or by Restore during undo/redo.
type Buffer struct {
	nx, ny, nz int
	data       []byte
}

// NewBuffer creates an all-Keep mask for a volume of the given dimensions.
func NewBuffer(nx, ny, nz int) (*Buffer, error) {
	if nx <= 0 || ny <= 0 || nz <= 0 {
		return nil, fmt.Errorf("mask dimensions must be positive, got %dx%dx%d", nx, ny, nz)
	}
	b := &Buffer{nx: nx, ny: ny, nz: nz, data: make([]byte, nx*ny*nz)}
	b.fillKeep()
	return b, nil
}

func (b *Buffer) fillKeep() {
	for i := range b.data {
		b.data[i] = Keep
	}
}

// Dimensions returns the mask shape.
func (b *Buffer) Dimensions() (nx, ny, nz int) {
	return b.nx, b.ny, b.nz
}

// VoxelCount returns the number of voxels covered by the mask.
func (b *Buffer) VoxelCount() int {
	return b.nx * b.ny * b.nz
}

// At returns the mask byte at voxel (x, y, z).
func (b *Buffer) At(x, y, z int) byte {
	return b.data[z*b.nx*b.ny+y*b.nx+x]
}

// Accumulate merges a region mask into the running mask. The combination is
// monotonic: a voxel hidden by either side stays hidden, so accumulation can
// only grow the hidden set. The region shape is validated before any byte is
// written, leaving the buffer untouched on error.
func (b *Buffer) Accumulate(region *Region) error {
	if region.Nx != b.nx || region.Ny != b.ny || region.Nz != b.nz {
		return fmt.Errorf("region is %dx%dx%d, mask is %dx%dx%d: %w",
			region.Nx, region.Ny, region.Nz, b.nx, b.ny, b.nz, ErrDimensionMismatch)
	}
	if len(region.Data) != len(b.data) {
		return fmt.Errorf("region has %d voxels, mask has %d: %w",
			len(region.Data), len(b.data), ErrDimensionMismatch)
	}
	for i, rv := range region.Data {
		if rv == Hide {
			b.data[i] = Hide
		}
	}
	return nil
}

// HiddenCount returns the number of voxels currently hidden.
func (b *Buffer) HiddenCount() int {
	n := 0
	for _, v := range b.data {
		if v == Hide {
			n++
		}
	}
	return n
}

// IsAllKeep reports whether no voxel is hidden.
func (b *Buffer) IsAllKeep() bool {
	for _, v := range b.data {
		if v != Keep {
			return false
		}
	}
	return true
}

// Equal reports whether two buffers have identical shape and contents.
func (b *Buffer) Equal(o *Buffer) bool {
	return b.nx == o.nx && b.ny == o.ny && b.nz == o.nz && bytes.Equal(b.data, o.data)
}

// Bytes exposes the raw mask array. Callers must treat it as read-only;
// it is shared with the compositor to avoid per-edit copies.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Snapshot captures the current mask contents as an immutable state. The
// all-Keep mask compresses to the empty sentinel state so that a pristine
// session costs no memory at all.
func (b *Buffer) Snapshot() (State, error) {
	if b.IsAllKeep() {
		return EmptyState(), nil
	}
	enc, err := encodeBytes(b.data)
	if err != nil {
		return State{}, fmt.Errorf("encoding mask snapshot: %w", err)
	}
	return State{compressed: enc}, nil
}

// Restore overwrites the mask contents from a snapshot state. The decoded
// length is validated against the voxel count before the mask is touched;
// a mismatch means the snapshot belongs to a different volume and is fatal.
func (b *Buffer) Restore(s State) error {
	if s.IsEmpty() {
		b.fillKeep()
		return nil
	}
	decoded, err := decodeBytes(s.compressed, len(b.data))
	if err != nil {
		return err
	}
	copy(b.data, decoded)
	return nil
}
