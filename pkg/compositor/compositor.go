// Package compositor derives the volume handed to rendering from the
// immutable source volume and the current visibility mask. The derived
// volume is a stable handle whose backing array is overwritten in place on
// every refresh; downstream consumers keep their reference and are poked
// through a change callback instead of being rebuilt per edit.
package compositor

import (
	"fmt"
	"math"

	"volclip/pkg/mask"
	"volclip/pkg/volume"
)

// ClippedScalar replaces every hidden voxel in the derived volume. It sits
// below any clinically meaningful intensity so renderers can treat it as
// transparent/absent.
const ClippedScalar int16 = math.MinInt16

// Compositor owns the derived volume for one source volume.
type Compositor struct {
	source   *volume.Volume
	derived  *volume.Volume
	onChange []func()
}

// New creates a compositor for source. The derived volume starts as an
// exact copy (an all-Keep mask is source-equivalent, so no sweep is needed
// until the first edit).
func New(source *volume.Volume) *Compositor {
	return &Compositor{
		source:  source,
		derived: source.Clone(),
	}
}

// Derived returns the stable derived-volume handle. The pointer stays valid
// for the whole session; only its Data contents change.
func (c *Compositor) Derived() *volume.Volume {
	return c.derived
}

// OnChange registers a callback fired after every refresh. Callbacks run on
// the goroutine calling Refresh.
func (c *Compositor) OnChange(fn func()) {
	c.onChange = append(c.onChange, fn)
}

// Refresh recomputes the derived volume from the source and the mask: kept
// voxels copy the source value, hidden voxels become ClippedScalar. The
// source is never written. Shape mismatches are rejected before any voxel
// is touched.
func (c *Compositor) Refresh(m *mask.Buffer) error {
	nx, ny, nz := m.Dimensions()
	if nx != c.source.Nx || ny != c.source.Ny || nz != c.source.Nz {
		return fmt.Errorf("mask is %dx%dx%d, source is %dx%dx%d: %w",
			nx, ny, nz, c.source.Nx, c.source.Ny, c.source.Nz, mask.ErrDimensionMismatch)
	}

	src := c.source.Data
	dst := c.derived.Data
	for i, mv := range m.Bytes() {
		if mv == mask.Keep {
			dst[i] = src[i]
		} else {
			dst[i] = ClippedScalar
		}
	}

	for _, fn := range c.onChange {
		fn()
	}
	return nil
}
