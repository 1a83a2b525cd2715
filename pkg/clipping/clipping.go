// Package clipping converts a user-drawn closed boundary into a keep/hide
// region mask over a volume. The boundary is an ordered loop of world-space
// points together with a plane normal (the view direction it was drawn
// along); every voxel is projected onto that plane and classified against
// the loop polygon.
package clipping

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"volclip/pkg/mask"
	"volclip/pkg/volume"
)

// Mode selects which side of the boundary gets hidden.
type Mode int

const (
	// RemoveInside hides voxels whose plane projection falls inside the loop.
	RemoveInside Mode = iota

	// RemoveOutside hides voxels whose plane projection falls outside the loop.
	RemoveOutside
)

// String returns the mode name used in scripts and logs.
func (m Mode) String() string {
	switch m {
	case RemoveInside:
		return "remove-inside"
	case RemoveOutside:
		return "remove-outside"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode converts a script string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "remove-inside":
		return RemoveInside, nil
	case "remove-outside":
		return RemoveOutside, nil
	}
	return 0, fmt.Errorf("unknown clip mode %q", s)
}

// ErrInvalidRegionGeometry indicates a malformed boundary: too few points,
// a zero-length normal, a degenerate (zero-area) loop, or a self-intersecting
// loop. The mask must not be modified when this is returned.
var ErrInvalidRegionGeometry = errors.New("invalid region geometry")

// Boundary describes one closed selection loop.
type Boundary struct {
	// Points is the ordered loop of world-space vertices. The loop is
	// implicitly closed from the last point back to the first.
	Points []mgl64.Vec3

	// Normal is the projection direction, typically the camera view vector
	// the loop was drawn along. It does not need to be unit length.
	Normal mgl64.Vec3
}

const epsilon = 1e-9

// planeBasis returns two orthonormal vectors spanning the plane with the
// given unit normal.
func planeBasis(n mgl64.Vec3) (u, v mgl64.Vec3) {
	ref := mgl64.Vec3{1, 0, 0}
	if math.Abs(n.Dot(ref)) > 0.9 {
		ref = mgl64.Vec3{0, 1, 0}
	}
	u = n.Cross(ref).Normalize()
	v = n.Cross(u)
	return u, v
}

type point2 struct {
	x, y float64
}

// project flattens the boundary loop into plane coordinates.
func (b Boundary) project(u, v mgl64.Vec3) []point2 {
	poly := make([]point2, len(b.Points))
	for i, p := range b.Points {
		poly[i] = point2{x: p.Dot(u), y: p.Dot(v)}
	}
	return poly
}

// Validate checks the boundary for degenerate geometry without rasterizing.
func (b Boundary) Validate() error {
	if len(b.Points) < 3 {
		return fmt.Errorf("%w: need at least 3 points, got %d",
			ErrInvalidRegionGeometry, len(b.Points))
	}
	if b.Normal.Len() < epsilon {
		return fmt.Errorf("%w: zero-length plane normal", ErrInvalidRegionGeometry)
	}

	n := b.Normal.Normalize()
	u, v := planeBasis(n)
	poly := b.project(u, v)

	if math.Abs(signedArea(poly)) < epsilon {
		return fmt.Errorf("%w: loop has zero area", ErrInvalidRegionGeometry)
	}
	if selfIntersects(poly) {
		return fmt.Errorf("%w: loop is self-intersecting", ErrInvalidRegionGeometry)
	}
	return nil
}

// Rasterize produces a region mask for vol. The polarity contract is fixed:
// with RemoveInside the voxels inside the loop are Hide and the rest Keep;
// RemoveOutside produces the exact complement. Rasterization is deterministic
// and leaves no state behind; a geometry error yields no mask at all.
func Rasterize(vol *volume.Volume, b Boundary, mode Mode) (*mask.Region, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	n := b.Normal.Normalize()
	u, v := planeBasis(n)
	poly := b.project(u, v)

	region := mask.NewRegion(vol.Nx, vol.Ny, vol.Nz, mask.Keep)
	for z := 0; z < vol.Nz; z++ {
		for y := 0; y < vol.Ny; y++ {
			for x := 0; x < vol.Nx; x++ {
				wx, wy, wz := vol.WorldPosition(x, y, z)
				w := mgl64.Vec3{wx, wy, wz}
				inside := pointInPolygon(point2{x: w.Dot(u), y: w.Dot(v)}, poly)

				hide := inside
				if mode == RemoveOutside {
					hide = !inside
				}
				if hide {
					region.Data[region.Index(x, y, z)] = mask.Hide
				}
			}
		}
	}
	return region, nil
}

// signedArea returns twice the signed area of the polygon.
func signedArea(poly []point2) float64 {
	area := 0.0
	for i := range poly {
		j := (i + 1) % len(poly)
		area += poly[i].x*poly[j].y - poly[j].x*poly[i].y
	}
	return area
}

// pointInPolygon is the even-odd crossing test.
func pointInPolygon(p point2, poly []point2) bool {
	inside := false
	for i := range poly {
		j := (i + len(poly) - 1) % len(poly)
		pi, pj := poly[i], poly[j]
		if (pi.y > p.y) != (pj.y > p.y) {
			xCross := (pj.x-pi.x)*(p.y-pi.y)/(pj.y-pi.y) + pi.x
			if p.x < xCross {
				inside = !inside
			}
		}
	}
	return inside
}

// selfIntersects reports whether any two non-adjacent edges of the closed
// loop cross. O(n^2), fine for interactively drawn loops.
func selfIntersects(poly []point2) bool {
	n := len(poly)
	for i := 0; i < n; i++ {
		a1 := poly[i]
		a2 := poly[(i+1)%n]
		for j := i + 1; j < n; j++ {
			// Skip edges sharing a vertex with edge i.
			if j == i || (j+1)%n == i || j == (i+1)%n {
				continue
			}
			b1 := poly[j]
			b2 := poly[(j+1)%n]
			if segmentsCross(a1, a2, b1, b2) {
				return true
			}
		}
	}
	return false
}

func segmentsCross(a1, a2, b1, b2 point2) bool {
	d1 := cross2(b1, b2, a1)
	d2 := cross2(b1, b2, a2)
	d3 := cross2(a1, a2, b1)
	d4 := cross2(a1, a2, b2)
	return ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0))
}

func cross2(o, a, b point2) float64 {
	return (a.x-o.x)*(b.y-o.y) - (a.y-o.y)*(b.x-o.x)
}
