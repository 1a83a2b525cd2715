// Package visualization renders slices of the derived volume for export.
// It sits on the display side of the masking engine: it only ever reads the
// derived volume, mapping intensities through window/level settings and
// rendering clipped voxels as black.
package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"

	"volclip/pkg/compositor"
	"volclip/pkg/session"
	"volclip/pkg/volume"
)

// Viewer extracts displayable 2D slices from a volume.
type Viewer struct {
	// vol is the volume being viewed, normally the session's derived volume.
	vol *volume.Volume

	// window maps scalar intensities to display gray levels.
	window session.WindowSettings

	// quality is the JPEG encoding quality for saved slices.
	quality int
}

// NewViewer creates a viewer over vol with the given window settings.
func NewViewer(vol *volume.Volume, window session.WindowSettings, quality int) *Viewer {
	return &Viewer{vol: vol, window: window, quality: quality}
}

// SetWindow replaces the window settings used for intensity mapping.
func (v *Viewer) SetWindow(window session.WindowSettings) {
	v.window = window
}

// gray maps a scalar value to a 16-bit gray level through the window.
// Clipped voxels always map to black regardless of the window.
func (v *Viewer) gray(s int16) color.Gray16 {
	if s == compositor.ClippedScalar {
		return color.Gray16{Y: 0}
	}
	lo, hi := v.window.Range()
	val := float64(s)
	switch {
	case val <= lo:
		return color.Gray16{Y: 0}
	case val >= hi:
		return color.Gray16{Y: 65535}
	}
	return color.Gray16{Y: uint16((val - lo) / (hi - lo) * 65535)}
}

// ExtractSlice extracts a 2D slice from the volume along the specified axis.
func (v *Viewer) ExtractSlice(axis string, position int) (image.Image, error) {
	if position < 0 {
		return nil, fmt.Errorf("position must be non-negative")
	}

	var img *image.Gray16

	switch axis {
	case "x", "X":
		// Slice along the YZ plane
		if position >= v.vol.Nx {
			return nil, fmt.Errorf("position %d exceeds width %d", position, v.vol.Nx)
		}
		img = image.NewGray16(image.Rect(0, 0, v.vol.Nz, v.vol.Ny))
		for y := 0; y < v.vol.Ny; y++ {
			for z := 0; z < v.vol.Nz; z++ {
				img.SetGray16(z, y, v.gray(v.vol.At(position, y, z)))
			}
		}

	case "y", "Y":
		// Slice along the XZ plane
		if position >= v.vol.Ny {
			return nil, fmt.Errorf("position %d exceeds height %d", position, v.vol.Ny)
		}
		img = image.NewGray16(image.Rect(0, 0, v.vol.Nx, v.vol.Nz))
		for z := 0; z < v.vol.Nz; z++ {
			for x := 0; x < v.vol.Nx; x++ {
				img.SetGray16(x, z, v.gray(v.vol.At(x, position, z)))
			}
		}

	case "z", "Z":
		// Slice along the XY plane
		if position >= v.vol.Nz {
			return nil, fmt.Errorf("position %d exceeds depth %d", position, v.vol.Nz)
		}
		img = image.NewGray16(image.Rect(0, 0, v.vol.Nx, v.vol.Ny))
		for y := 0; y < v.vol.Ny; y++ {
			for x := 0; x < v.vol.Nx; x++ {
				img.SetGray16(x, y, v.gray(v.vol.At(x, y, position)))
			}
		}

	default:
		return nil, fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	return img, nil
}

// SaveSlice saves an extracted slice as a JPEG image
func (v *Viewer) SaveSlice(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return jpeg.Encode(file, img, &jpeg.Options{Quality: v.quality})
}

// SaveSliceSequence extracts and saves a sequence of slices along the specified axis
func (v *Viewer) SaveSliceSequence(axis string, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	var maxPos int
	switch axis {
	case "x", "X":
		maxPos = v.vol.Nx
	case "y", "Y":
		maxPos = v.vol.Ny
	case "z", "Z":
		maxPos = v.vol.Nz
	default:
		return fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	for pos := 0; pos < maxPos; pos++ {
		img, err := v.ExtractSlice(axis, pos)
		if err != nil {
			return err
		}

		filename := filepath.Join(outputDir, fmt.Sprintf("slice_%s_%03d.jpg", axis, pos))
		if err := v.SaveSlice(img, filename); err != nil {
			return err
		}
	}

	return nil
}
