package models

import (
	"image"
)

// Slice is a single 2D image plane loaded from disk, before it is stacked
// into a Volume.
type Slice struct {
	// Image is the decoded plane
	Image image.Image

	// Index is the position of this slice in the sorted sequence
	Index int

	// Filename is the file the plane was read from
	Filename string
}

// Axis names an orthogonal axis of a volume.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// ParseAxis accepts "x", "y" or "z" in either case.
func ParseAxis(s string) (Axis, bool) {
	switch s {
	case "x", "X":
		return AxisX, true
	case "y", "Y":
		return AxisY, true
	case "z", "Z":
		return AxisZ, true
	}
	return 0, false
}

func (a Axis) String() string {
	return string("xyz"[a])
}
