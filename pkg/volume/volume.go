// Package volume provides the shared source volume data model.
// A volume is loaded once per session and never mutated afterwards;
// every consumer (masking, compositing, visualization) reads the same
// backing array without copying it.
package volume

import (
	"fmt"
	"math"
	"math/rand"
)

// Spacing is the physical size of a voxel along each axis in mm.
type Spacing struct {
	X, Y, Z float64
}

// Origin is the physical position of voxel (0,0,0) in mm.
type Origin struct {
	X, Y, Z float64
}

// Volume is a 3D scalar field stored as a flat int16 array in x-fastest
// order: index = z*Nx*Ny + y*Nx + x. Int16 matches the CT/MRI value range
// produced by DICOM series.
type Volume struct {
	// Data is the voxel array. Treat as read-only for source volumes.
	Data []int16

	// Nx, Ny, Nz are the dimensions of the volume in voxels.
	Nx, Ny, Nz int

	// Spacing is the physical voxel size in mm.
	Spacing Spacing

	// Origin is the physical position of the first voxel in mm.
	Origin Origin
}

// New creates a volume of the given dimensions with all voxels set to zero.
func New(nx, ny, nz int, spacing Spacing, origin Origin) (*Volume, error) {
	if nx <= 0 || ny <= 0 || nz <= 0 {
		return nil, fmt.Errorf("volume dimensions must be positive, got %dx%dx%d", nx, ny, nz)
	}
	return &Volume{
		Data:    make([]int16, nx*ny*nz),
		Nx:      nx,
		Ny:      ny,
		Nz:      nz,
		Spacing: spacing,
		Origin:  origin,
	}, nil
}

// VoxelCount returns the total number of voxels.
func (v *Volume) VoxelCount() int {
	return v.Nx * v.Ny * v.Nz
}

// Index returns the flat array index for voxel (x, y, z).
// Bounds are not checked.
func (v *Volume) Index(x, y, z int) int {
	return z*v.Nx*v.Ny + y*v.Nx + x
}

// At returns the scalar value at voxel (x, y, z).
func (v *Volume) At(x, y, z int) int16 {
	return v.Data[v.Index(x, y, z)]
}

// WorldPosition returns the physical position of the center of voxel (x, y, z).
func (v *Volume) WorldPosition(x, y, z int) (float64, float64, float64) {
	return v.Origin.X + float64(x)*v.Spacing.X,
		v.Origin.Y + float64(y)*v.Spacing.Y,
		v.Origin.Z + float64(z)*v.Spacing.Z
}

// Center returns the physical center of the volume.
func (v *Volume) Center() (float64, float64, float64) {
	return v.Origin.X + 0.5*float64(v.Nx-1)*v.Spacing.X,
		v.Origin.Y + 0.5*float64(v.Ny-1)*v.Spacing.Y,
		v.Origin.Z + 0.5*float64(v.Nz-1)*v.Spacing.Z
}

// ScalarRange returns the minimum and maximum voxel values.
func (v *Volume) ScalarRange() (int16, int16) {
	if len(v.Data) == 0 {
		return 0, 0
	}
	lo, hi := v.Data[0], v.Data[0]
	for _, s := range v.Data {
		if s < lo {
			lo = s
		}
		if s > hi {
			hi = s
		}
	}
	return lo, hi
}

// SameShape reports whether o has identical dimensions.
func (v *Volume) SameShape(o *Volume) bool {
	return v.Nx == o.Nx && v.Ny == o.Ny && v.Nz == o.Nz
}

// Clone returns a deep copy of the volume.
func (v *Volume) Clone() *Volume {
	data := make([]int16, len(v.Data))
	copy(data, v.Data)
	return &Volume{
		Data:    data,
		Nx:      v.Nx,
		Ny:      v.Ny,
		Nz:      v.Nz,
		Spacing: v.Spacing,
		Origin:  v.Origin,
	}
}

// NewDemo generates a synthetic CT-like volume for use when no DICOM series
// is available: random tissue-like background with two nested spheres at
// soft-tissue and bone intensities. The z spacing is anisotropic to mimic
// a real acquisition.
func NewDemo(size int) (*Volume, error) {
	v, err := New(size, size, size, Spacing{X: 1.0, Y: 1.0, Z: 2.0}, Origin{})
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(1))
	for i := range v.Data {
		v.Data[i] = int16(rng.Intn(400) - 200)
	}

	center := float64(size) / 2
	for z := 0; z < size; z++ {
		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				dx := float64(x) - center
				dy := float64(y) - center
				dz := float64(z) - center
				dist := math.Sqrt(dx*dx + dy*dy + dz*dz)
				switch {
				case dist < float64(size)/8:
					v.Data[v.Index(x, y, z)] = 2000 // bone
				case dist < float64(size)/4:
					v.Data[v.Index(x, y, z)] = 1000 // soft tissue
				}
			}
		}
	}
	return v, nil
}
