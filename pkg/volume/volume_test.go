package volume

import (
	"testing"
)

func TestNewValidatesDimensions(t *testing.T) {
	if _, err := New(0, 4, 4, Spacing{X: 1, Y: 1, Z: 1}, Origin{}); err == nil {
		t.Error("Expected error for zero dimension")
	}
	if _, err := New(4, -1, 4, Spacing{X: 1, Y: 1, Z: 1}, Origin{}); err == nil {
		t.Error("Expected error for negative dimension")
	}

	v, err := New(3, 4, 5, Spacing{X: 1, Y: 1, Z: 1}, Origin{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if v.VoxelCount() != 60 {
		t.Errorf("VoxelCount = %d, want 60", v.VoxelCount())
	}
	if len(v.Data) != 60 {
		t.Errorf("len(Data) = %d, want 60", len(v.Data))
	}
}

func TestIndexOrder(t *testing.T) {
	v, err := New(3, 4, 5, Spacing{X: 1, Y: 1, Z: 1}, Origin{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	// x-fastest order: walking x, then y, then z must visit consecutive indices
	idx := 0
	for z := 0; z < v.Nz; z++ {
		for y := 0; y < v.Ny; y++ {
			for x := 0; x < v.Nx; x++ {
				if got := v.Index(x, y, z); got != idx {
					t.Fatalf("Index(%d,%d,%d) = %d, want %d", x, y, z, got, idx)
				}
				idx++
			}
		}
	}
}

func TestWorldPosition(t *testing.T) {
	v, err := New(4, 4, 4, Spacing{X: 0.5, Y: 2.0, Z: 3.0}, Origin{X: 10, Y: -5, Z: 1})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	x, y, z := v.WorldPosition(2, 1, 3)
	if x != 11.0 || y != -3.0 || z != 10.0 {
		t.Errorf("WorldPosition(2,1,3) = (%v,%v,%v), want (11,-3,10)", x, y, z)
	}
}

func TestScalarRange(t *testing.T) {
	v, err := New(2, 2, 1, Spacing{X: 1, Y: 1, Z: 1}, Origin{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	v.Data[0] = -300
	v.Data[3] = 1500

	lo, hi := v.ScalarRange()
	if lo != -300 || hi != 1500 {
		t.Errorf("ScalarRange = (%d, %d), want (-300, 1500)", lo, hi)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	v, err := New(2, 2, 2, Spacing{X: 1, Y: 1, Z: 1}, Origin{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	v.Data[0] = 42

	c := v.Clone()
	if !v.SameShape(c) || c.Data[0] != 42 {
		t.Fatal("Clone does not match source")
	}

	c.Data[0] = 7
	if v.Data[0] != 42 {
		t.Error("Mutating clone changed the source volume")
	}
}

func TestNewDemo(t *testing.T) {
	v, err := NewDemo(16)
	if err != nil {
		t.Fatalf("NewDemo failed: %v", err)
	}
	if v.Nx != 16 || v.Ny != 16 || v.Nz != 16 {
		t.Fatalf("demo volume has shape %dx%dx%d, want 16x16x16", v.Nx, v.Ny, v.Nz)
	}
	if v.Spacing.Z == v.Spacing.X {
		t.Error("demo volume should have anisotropic z spacing")
	}

	// The center voxel sits inside the inner sphere.
	if got := v.At(8, 8, 8); got != 2000 {
		t.Errorf("center voxel = %d, want 2000", got)
	}

	lo, hi := v.ScalarRange()
	if lo >= hi {
		t.Errorf("ScalarRange = (%d, %d), want a spread of values", lo, hi)
	}
}
