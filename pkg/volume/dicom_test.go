package volume

import "testing"

func TestOrderSlicesByInstanceNumber(t *testing.T) {
	slices := []sliceData{
		{name: "b.dcm", instance: 2, hasInstance: true, rows: 10},
		{name: "a.dcm", instance: 1, hasInstance: true, rows: 20},
		{name: "c.dcm", instance: 2, hasInstance: true, rows: 30},
	}

	if err := orderSlices(slices); err != nil {
		t.Fatalf("orderSlices failed: %v", err)
	}

	if slices[0].name != "a.dcm" {
		t.Errorf("first slice = %s, want a.dcm", slices[0].name)
	}
	// Duplicate instance numbers must keep their directory order.
	if slices[1].name != "b.dcm" || slices[2].name != "c.dcm" {
		t.Errorf("duplicate instances reordered: got %s, %s", slices[1].name, slices[2].name)
	}
}

func TestOrderSlicesRejectsMissingInstanceNumber(t *testing.T) {
	slices := []sliceData{
		{name: "a.dcm", instance: 1, hasInstance: true},
		{name: "b.dcm"},
	}

	if err := orderSlices(slices); err == nil {
		t.Error("orderSlices accepted a slice without an instance number")
	}
}
