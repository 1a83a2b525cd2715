package session

import "math"

// MinWindowWidth is the smallest legal display window width.
const MinWindowWidth = 1.0

// WindowSettings is an immutable window/level pair for scalar display.
// The displayed range is [Level - Width/2, Level + Width/2].
type WindowSettings struct {
	// Level is the center value of the displayed range.
	Level float64

	// Width is the extent of the displayed range.
	Width float64
}

// Range returns the minimum and maximum displayed values.
func (w WindowSettings) Range() (float64, float64) {
	return w.Level - w.Width/2, w.Level + w.Width/2
}

// Clamp returns settings constrained to the given scalar range.
func (w WindowSettings) Clamp(lo, hi float64) WindowSettings {
	maxWidth := hi - lo
	width := math.Max(MinWindowWidth, math.Min(maxWidth, w.Width))
	level := math.Max(lo, math.Min(hi, w.Level))
	return WindowSettings{Level: level, Width: width}
}

// Adjust returns settings shifted by the given deltas, clamped to the scalar
// range. The width never drops below MinWindowWidth.
func (w WindowSettings) Adjust(deltaLevel, deltaWidth, lo, hi float64) WindowSettings {
	adjusted := WindowSettings{
		Level: w.Level + deltaLevel,
		Width: math.Max(MinWindowWidth, w.Width+deltaWidth),
	}
	return adjusted.Clamp(lo, hi)
}

// windowFromScalarRange derives the initial window the way the viewer does
// at volume load: level halfway into the range capped at 4096, width half
// the level capped at 1024.
func windowFromScalarRange(lo, hi float64) WindowSettings {
	level := math.Round(math.Min(4096.0, (lo+hi)/2.0))
	width := math.Round(math.Min(level/2.0, 1024.0))
	if width < MinWindowWidth {
		width = MinWindowWidth
	}
	return WindowSettings{Level: level, Width: width}
}
