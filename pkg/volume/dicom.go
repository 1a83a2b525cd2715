package volume

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/GoogleCloudPlatform/go-dicom-parser/dicom"
)

// sliceData holds one parsed DICOM slice before the series is stacked.
type sliceData struct {
	name        string
	instance    int
	hasInstance bool
	rows        int
	cols        int
	pixels      []int16
	spacing     [2]float64 // row spacing, column spacing
	thick       float64
}

// LoadDICOMSeries loads every DICOM file in dir, orders the slices by
// instance number and stacks them into a single volume. All slices must
// share the same rows/columns; a mismatch indicates a broken series and is
// rejected rather than padded.
func LoadDICOMSeries(dir string) (*Volume, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading DICOM directory: %w", err)
	}

	var slices []sliceData
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		sd, err := loadSliceFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", name, err)
		}
		slices = append(slices, sd)
	}

	if len(slices) == 0 {
		return nil, fmt.Errorf("no DICOM slices found in %s", dir)
	}

	if err := orderSlices(slices); err != nil {
		return nil, err
	}

	first := slices[0]
	for i, sd := range slices {
		if sd.rows != first.rows || sd.cols != first.cols {
			return nil, fmt.Errorf("slice %d has shape %dx%d, series is %dx%d: dimension mismatch",
				i, sd.cols, sd.rows, first.cols, first.rows)
		}
	}

	zSpacing := first.thick
	if zSpacing <= 0 {
		zSpacing = 1.0
	}
	vol, err := New(first.cols, first.rows, len(slices),
		Spacing{X: first.spacing[1], Y: first.spacing[0], Z: zSpacing}, Origin{})
	if err != nil {
		return nil, err
	}

	perSlice := first.rows * first.cols
	for z, sd := range slices {
		if len(sd.pixels) != perSlice {
			return nil, fmt.Errorf("slice %d has %d pixels, want %d: dimension mismatch",
				z, len(sd.pixels), perSlice)
		}
		copy(vol.Data[z*perSlice:(z+1)*perSlice], sd.pixels)
	}
	return vol, nil
}

// orderSlices sorts the series into stacking order by instance number.
// Instance numbers are the only ordering signal, so every slice must carry
// one; duplicates keep their directory order.
func orderSlices(slices []sliceData) error {
	for _, sd := range slices {
		if !sd.hasInstance {
			return fmt.Errorf("slice %s has no instance number, series order is undefined", sd.name)
		}
	}
	sort.SliceStable(slices, func(i, j int) bool {
		return slices[i].instance < slices[j].instance
	})
	return nil
}

func loadSliceFile(path string) (sliceData, error) {
	f, err := os.Open(path)
	if err != nil {
		return sliceData{}, err
	}
	defer f.Close()

	ds, err := dicom.Parse(f)
	if err != nil {
		return sliceData{}, fmt.Errorf("dicom parse: %w", err)
	}

	sd := sliceData{
		name:    filepath.Base(path),
		spacing: [2]float64{1.0, 1.0},
		thick:   1.0,
	}

	rows, err := uint16Value(ds, dicom.RowsTag)
	if err != nil {
		return sliceData{}, err
	}
	cols, err := uint16Value(ds, dicom.ColumnsTag)
	if err != nil {
		return sliceData{}, err
	}
	sd.rows = int(rows)
	sd.cols = int(cols)

	if vals := stringValues(ds, dicom.PixelSpacingTag); len(vals) == 2 {
		if r, err := strconv.ParseFloat(strings.TrimSpace(vals[0]), 64); err == nil {
			sd.spacing[0] = r
		}
		if c, err := strconv.ParseFloat(strings.TrimSpace(vals[1]), 64); err == nil {
			sd.spacing[1] = c
		}
	}
	if vals := stringValues(ds, dicom.SliceThicknessTag); len(vals) == 1 {
		if t, err := strconv.ParseFloat(strings.TrimSpace(vals[0]), 64); err == nil {
			sd.thick = t
		}
	}
	if vals := stringValues(ds, dicom.InstanceNumberTag); len(vals) == 1 {
		if n, err := strconv.Atoi(strings.TrimSpace(vals[0])); err == nil {
			sd.instance = n
			sd.hasInstance = true
		}
	}

	sd.pixels, err = pixelValues(ds, sd.rows*sd.cols)
	if err != nil {
		return sliceData{}, err
	}
	return sd, nil
}

func uint16Value(ds *dicom.DataSet, tag dicom.DataElementTag) (uint16, error) {
	elem, ok := ds.Elements[tag]
	if !ok {
		return 0, fmt.Errorf("missing element %08X", uint32(tag))
	}
	switch v := elem.ValueField.(type) {
	case []uint16:
		if len(v) > 0 {
			return v[0], nil
		}
	case []int16:
		if len(v) > 0 {
			return uint16(v[0]), nil
		}
	}
	return 0, fmt.Errorf("element %08X has unexpected type %T", uint32(tag), elem.ValueField)
}

func stringValues(ds *dicom.DataSet, tag dicom.DataElementTag) []string {
	elem, ok := ds.Elements[tag]
	if !ok {
		return nil
	}
	if v, ok := elem.ValueField.([]string); ok {
		return v
	}
	return nil
}

// pixelValues extracts the pixel data as int16 samples. Native OW pixel data
// arrives as raw little-endian fragments; some parsers hand back decoded
// sample slices, so both forms are accepted.
func pixelValues(ds *dicom.DataSet, want int) ([]int16, error) {
	elem, ok := ds.Elements[dicom.PixelDataTag]
	if !ok {
		return nil, fmt.Errorf("missing pixel data")
	}

	switch v := elem.ValueField.(type) {
	case []int16:
		return v, nil
	case []uint16:
		out := make([]int16, len(v))
		for i, s := range v {
			out[i] = int16(s)
		}
		return out, nil
	case dicom.BulkDataBuffer:
		var raw []byte
		for _, frag := range v.Data() {
			raw = append(raw, frag...)
		}
		return decodePixelBytes(raw, want)
	case [][]byte:
		var raw []byte
		for _, frag := range v {
			raw = append(raw, frag...)
		}
		return decodePixelBytes(raw, want)
	}
	return nil, fmt.Errorf("pixel data has unexpected type %T", elem.ValueField)
}

func decodePixelBytes(raw []byte, want int) ([]int16, error) {
	if len(raw) < want*2 {
		return nil, fmt.Errorf("pixel data has %d bytes, want %d", len(raw), want*2)
	}
	out := make([]int16, want)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(raw[i*2:]))
	}
	return out, nil
}
