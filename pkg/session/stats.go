package session

import (
	"gonum.org/v1/gonum/stat"

	"volclip/pkg/mask"
)

// VisibleStats summarizes the intensity distribution of the voxels that are
// currently visible. It backs histogram displays and automatic window/level
// suggestions in UI layers.
type VisibleStats struct {
	// Count is the number of visible voxels.
	Count int

	// Mean and StdDev describe the visible intensity distribution.
	Mean   float64
	StdDev float64

	// Min and Max are the extreme visible intensities.
	Min, Max int16
}

// Stats computes VisibleStats over the voxels the mask currently keeps.
// With everything hidden it returns the zero value.
func (s *Session) Stats() VisibleStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	src := s.source.Data
	visible := make([]float64, 0, len(src))

	var vs VisibleStats
	for i, mv := range s.mask.Bytes() {
		if mv != mask.Keep {
			continue
		}
		v := src[i]
		if vs.Count == 0 {
			vs.Min, vs.Max = v, v
		} else {
			if v < vs.Min {
				vs.Min = v
			}
			if v > vs.Max {
				vs.Max = v
			}
		}
		vs.Count++
		visible = append(visible, float64(v))
	}

	if vs.Count == 0 {
		return VisibleStats{}
	}
	vs.Mean = stat.Mean(visible, nil)
	if vs.Count > 1 {
		vs.StdDev = stat.StdDev(visible, nil)
	}
	return vs
}
