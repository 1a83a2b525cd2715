package clipping

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"volclip/pkg/mask"
	"volclip/pkg/volume"
)

func testVolume(t *testing.T, nx, ny, nz int) *volume.Volume {
	t.Helper()
	v, err := volume.New(nx, ny, nz, volume.Spacing{X: 1, Y: 1, Z: 1}, volume.Origin{})
	if err != nil {
		t.Fatalf("volume.New failed: %v", err)
	}
	return v
}

// leftHalfLoop covers voxel centers with x < 2 of a 4-wide volume,
// drawn on the xy plane looking along +z.
func leftHalfLoop() Boundary {
	return Boundary{
		Points: []mgl64.Vec3{
			{-0.5, -0.5, 0},
			{1.5, -0.5, 0},
			{1.5, 3.5, 0},
			{-0.5, 3.5, 0},
		},
		Normal: mgl64.Vec3{0, 0, 1},
	}
}

func TestRasterizeRemoveInsidePolarity(t *testing.T) {
	vol := testVolume(t, 4, 4, 1)

	region, err := Rasterize(vol, leftHalfLoop(), RemoveInside)
	if err != nil {
		t.Fatalf("Rasterize failed: %v", err)
	}

	// The canonical contract: inside the loop is Hide, outside is Keep.
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			want := mask.Keep
			if x < 2 {
				want = mask.Hide
			}
			if got := region.Data[region.Index(x, y, 0)]; got != want {
				t.Errorf("RemoveInside region[%d,%d] = %#x, want %#x", x, y, got, want)
			}
		}
	}
}

func TestRasterizeRemoveOutsidePolarity(t *testing.T) {
	vol := testVolume(t, 4, 4, 1)

	region, err := Rasterize(vol, leftHalfLoop(), RemoveOutside)
	if err != nil {
		t.Fatalf("Rasterize failed: %v", err)
	}

	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			want := mask.Hide
			if x < 2 {
				want = mask.Keep
			}
			if got := region.Data[region.Index(x, y, 0)]; got != want {
				t.Errorf("RemoveOutside region[%d,%d] = %#x, want %#x", x, y, got, want)
			}
		}
	}
}

func TestModesAreExactComplements(t *testing.T) {
	vol := testVolume(t, 8, 8, 4)
	b := Boundary{
		Points: []mgl64.Vec3{
			{1.2, 0.8, 0},
			{6.3, 1.1, 0},
			{5.9, 6.4, 0},
			{2.1, 5.2, 0},
			{0.4, 3.3, 0},
		},
		Normal: mgl64.Vec3{0, 0, 1},
	}

	inside, err := Rasterize(vol, b, RemoveInside)
	if err != nil {
		t.Fatalf("Rasterize RemoveInside failed: %v", err)
	}
	outside, err := Rasterize(vol, b, RemoveOutside)
	if err != nil {
		t.Fatalf("Rasterize RemoveOutside failed: %v", err)
	}

	for i := range inside.Data {
		a, o := inside.Data[i], outside.Data[i]
		if (a == mask.Hide) == (o == mask.Hide) {
			t.Fatalf("voxel %d: RemoveInside=%#x RemoveOutside=%#x, want complements", i, a, o)
		}
	}
}

func TestRasterizeExtrudesAlongNormal(t *testing.T) {
	// The loop is drawn at z=0 but must clip every slice of the volume:
	// classification happens in the projected plane, not at one depth.
	vol := testVolume(t, 4, 4, 5)

	region, err := Rasterize(vol, leftHalfLoop(), RemoveInside)
	if err != nil {
		t.Fatalf("Rasterize failed: %v", err)
	}

	for z := 0; z < 5; z++ {
		if got := region.Data[region.Index(0, 0, z)]; got != mask.Hide {
			t.Errorf("slice %d not clipped: region[0,0,%d] = %#x, want Hide", z, z, got)
		}
		if got := region.Data[region.Index(3, 0, z)]; got != mask.Keep {
			t.Errorf("slice %d over-clipped: region[3,0,%d] = %#x, want Keep", z, z, got)
		}
	}
}

func TestRasterizeIsDeterministic(t *testing.T) {
	vol := testVolume(t, 6, 6, 2)
	b := leftHalfLoop()

	first, err := Rasterize(vol, b, RemoveInside)
	if err != nil {
		t.Fatalf("Rasterize failed: %v", err)
	}
	second, err := Rasterize(vol, b, RemoveInside)
	if err != nil {
		t.Fatalf("Rasterize failed: %v", err)
	}
	for i := range first.Data {
		if first.Data[i] != second.Data[i] {
			t.Fatalf("voxel %d differs between identical rasterizations", i)
		}
	}
}

func TestValidateRejectsDegenerateBoundaries(t *testing.T) {
	cases := []struct {
		name string
		b    Boundary
	}{
		{
			name: "TooFewPoints",
			b: Boundary{
				Points: []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}},
				Normal: mgl64.Vec3{0, 0, 1},
			},
		},
		{
			name: "ZeroNormal",
			b: Boundary{
				Points: []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
				Normal: mgl64.Vec3{},
			},
		},
		{
			name: "CollinearLoop",
			b: Boundary{
				Points: []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}},
				Normal: mgl64.Vec3{0, 0, 1},
			},
		},
		{
			name: "SelfIntersectingBowTie",
			b: Boundary{
				Points: []mgl64.Vec3{{0, 0, 0}, {2, 2, 0}, {2, 0, 0}, {0, 3, 0}},
				Normal: mgl64.Vec3{0, 0, 1},
			},
		},
	}

	vol := &volume.Volume{}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.b.Validate(); !errors.Is(err, ErrInvalidRegionGeometry) {
				t.Errorf("Validate error = %v, want ErrInvalidRegionGeometry", err)
			}
			if _, err := Rasterize(vol, tc.b, RemoveInside); !errors.Is(err, ErrInvalidRegionGeometry) {
				t.Errorf("Rasterize error = %v, want ErrInvalidRegionGeometry", err)
			}
		})
	}
}

func TestParseMode(t *testing.T) {
	for _, want := range []Mode{RemoveInside, RemoveOutside} {
		got, err := ParseMode(want.String())
		if err != nil || got != want {
			t.Errorf("ParseMode(%q) = %v, %v", want.String(), got, err)
		}
	}
	if _, err := ParseMode("sideways"); err == nil {
		t.Error("ParseMode accepted an unknown mode")
	}
}
