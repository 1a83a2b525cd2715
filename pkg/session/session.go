// Package session ties the masking engine together for one loaded volume:
// it owns the visibility mask, the undo/redo history over compressed mask
// snapshots, and the derived volume handed to display code. All mutation
// funnels through one mutex, matching the interactive one-edit-at-a-time
// model; rasterization stays outside the lock so slow edits never block
// readers of the previous state.
package session

import (
	"errors"
	"fmt"
	"sync"

	"volclip/pkg/clipping"
	"volclip/pkg/compositor"
	"volclip/pkg/history"
	"volclip/pkg/mask"
	"volclip/pkg/volume"
)

// ErrEditPending is returned when an edit is requested while an asynchronous
// edit is still in flight. Edits are never interleaved: callers retry after
// the pending edit commits.
var ErrEditPending = errors.New("another edit is already in flight")

// Session is the single mutating entry point over a loaded volume.
type Session struct {
	mu      sync.Mutex
	source  *volume.Volume
	mask    *mask.Buffer
	hist    *history.Manager[mask.State]
	comp    *compositor.Compositor
	window  WindowSettings
	pending bool
}

// New creates a session for source with an all-visible mask, an empty
// history bounded to maxUndo entries, and a window derived from the source
// scalar range.
func New(source *volume.Volume, maxUndo int) (*Session, error) {
	buf, err := mask.NewBuffer(source.Nx, source.Ny, source.Nz)
	if err != nil {
		return nil, err
	}
	lo, hi := source.ScalarRange()
	return &Session{
		source: source,
		mask:   buf,
		hist:   history.NewManager[mask.State](maxUndo),
		comp:   compositor.New(source),
		window: windowFromScalarRange(float64(lo), float64(hi)),
	}, nil
}

// Source returns the immutable source volume.
func (s *Session) Source() *volume.Volume {
	return s.source
}

// Derived returns the stable derived-volume handle consumed by display code.
func (s *Session) Derived() *volume.Volume {
	return s.comp.Derived()
}

// OnChange registers a callback fired after every recomposite. Callbacks
// run while the session lock is held and must not call back into the
// session; they should only schedule a re-render.
func (s *Session) OnChange(fn func()) {
	s.comp.OnChange(fn)
}

// restoreState is the apply function handed to the history manager: it
// rewrites the mask from a snapshot and recomposites the derived volume.
// Must be called with the session lock held.
func (s *Session) restoreState(st mask.State) error {
	if err := s.mask.Restore(st); err != nil {
		return err
	}
	return s.comp.Refresh(s.mask)
}

// ApplyRegion rasterizes the boundary, accumulates it into the mask and
// records a reversible history entry. At most one edit may be in flight,
// synchronous or asynchronous: a request arriving while another edit is
// still rasterizing is rejected with ErrEditPending, never interleaved.
// On any error the mask, the derived volume and both history stacks are
// left exactly as they were.
func (s *Session) ApplyRegion(b clipping.Boundary, mode clipping.Mode) error {
	s.mu.Lock()
	if s.pending {
		s.mu.Unlock()
		return ErrEditPending
	}
	s.pending = true
	s.mu.Unlock()

	region, err := clipping.Rasterize(s.source, b, mode)

	s.mu.Lock()
	if err == nil {
		err = s.commitRegion(region)
	}
	s.pending = false
	s.mu.Unlock()
	return err
}

// commitRegion accumulates a rasterized region under the lock.
func (s *Session) commitRegion(region *mask.Region) error {
	before, err := s.mask.Snapshot()
	if err != nil {
		return fmt.Errorf("snapshotting mask before edit: %w", err)
	}
	if err := s.mask.Accumulate(region); err != nil {
		return err
	}
	after, err := s.mask.Snapshot()
	if err != nil {
		// The accumulate cannot be recorded; roll the mask back so the
		// observable state still matches the history.
		_ = s.mask.Restore(before)
		return fmt.Errorf("snapshotting mask after edit: %w", err)
	}

	cmd := history.Command[mask.State]{Before: before, After: after}
	if err := s.hist.Do(cmd, s.restoreState); err != nil {
		_ = s.mask.Restore(before)
		return fmt.Errorf("recording edit: %w", err)
	}
	return nil
}

// ApplyRegionAsync runs rasterization on its own goroutine and commits the
// result through the same serialized path as ApplyRegion, under the same
// single-pending-edit rule, so two edits can never commit out of order.
// done is invoked with the edit outcome once the edit has committed or
// failed.
func (s *Session) ApplyRegionAsync(b clipping.Boundary, mode clipping.Mode, done func(error)) error {
	s.mu.Lock()
	if s.pending {
		s.mu.Unlock()
		return ErrEditPending
	}
	s.pending = true
	s.mu.Unlock()

	go func() {
		region, err := clipping.Rasterize(s.source, b, mode)

		s.mu.Lock()
		if err == nil {
			err = s.commitRegion(region)
		}
		s.pending = false
		s.mu.Unlock()

		if done != nil {
			done(err)
		}
	}()
	return nil
}

// Undo reverts the most recent edit. It returns false when there is nothing
// to undo. A snapshot that fails to decode aborts the undo and leaves the
// mask and both stacks unchanged.
func (s *Session) Undo() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hist.Undo(s.restoreState)
}

// Redo reapplies the most recently undone edit; false when there is nothing
// to redo.
func (s *Session) Redo() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hist.Redo(s.restoreState)
}

// CanUndo reports whether an undo entry is available. Used by UI layers to
// enable controls; never mutates anything.
func (s *Session) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hist.CanUndo()
}

// CanRedo reports whether a redo entry is available.
func (s *Session) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hist.CanRedo()
}

// HiddenVoxels returns the number of currently suppressed voxels.
func (s *Session) HiddenVoxels() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mask.HiddenCount()
}

// Window returns the current display window settings.
func (s *Session) Window() WindowSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.window
}

// SetWindow replaces the window settings, clamped to the source scalar range.
func (s *Session) SetWindow(w WindowSettings) {
	lo, hi := s.source.ScalarRange()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.window = w.Clamp(float64(lo), float64(hi))
}

// AdjustWindow shifts the window settings by the given deltas, clamped to
// the source scalar range.
func (s *Session) AdjustWindow(deltaLevel, deltaWidth float64) WindowSettings {
	lo, hi := s.source.ScalarRange()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.window = s.window.Adjust(deltaLevel, deltaWidth, float64(lo), float64(hi))
	return s.window
}
