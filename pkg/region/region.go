// Package region provides the index-space geometry used by the smoothing filter:
// 3-D indices, axis-aligned boxes, and the interior/face decomposition that lets
// the interior of a volume be convolved without boundary checks.
package region

import (
	"fmt"
)

// Index is a 3-D voxel index ordered (x, y, z).
type Index [3]int

// Add returns the component-wise sum of two indices.
func (p Index) Add(q Index) Index {
	return Index{p[0] + q[0], p[1] + q[1], p[2] + q[2]}
}

func (p Index) String() string {
	return fmt.Sprintf("(%d,%d,%d)", p[0], p[1], p[2])
}

// Kind tells whether a region needs boundary handling.
type Kind int

const (
	// Interior regions never need out-of-bounds handling for the decomposition radius.
	Interior Kind = iota

	// Face regions touch the outer boundary of the full extent.
	Face
)

func (k Kind) String() string {
	switch k {
	case Interior:
		return "interior"
	case Face:
		return "face"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Side identifies the low or high end of an axis.
type Side int

const (
	Low Side = iota
	High
)

func (s Side) String() string {
	if s == Low {
		return "low"
	}
	return "high"
}

// Region is an axis-aligned box in index space described by its first index
// and its size along each axis.
type Region struct {
	// Start is the first voxel index of the box.
	Start Index

	// Size is the number of voxels along x, y and z.
	Size [3]int

	// Kind is Interior or Face. Regions built directly with New are Interior.
	Kind Kind

	// Axis and Side locate a face region on the boundary. They are
	// meaningless for interior regions.
	Axis int
	Side Side
}

// New returns an interior-kind region with the given start and size.
func New(start Index, size [3]int) Region {
	return Region{Start: start, Size: size}
}

// FromDims returns the region starting at the origin with the given dimensions.
func FromDims(width, height, depth int) Region {
	return New(Index{}, [3]int{width, height, depth})
}

// End returns the index one past the last voxel on every axis.
func (r Region) End() Index {
	return Index{r.Start[0] + r.Size[0], r.Start[1] + r.Size[1], r.Start[2] + r.Size[2]}
}

// Empty reports whether the region holds no voxels.
func (r Region) Empty() bool {
	return r.Size[0] <= 0 || r.Size[1] <= 0 || r.Size[2] <= 0
}

// NumVoxels returns the number of voxels in the region, 0 when empty.
func (r Region) NumVoxels() int64 {
	if r.Empty() {
		return 0
	}
	return int64(r.Size[0]) * int64(r.Size[1]) * int64(r.Size[2])
}

// Contains reports whether p lies inside the region.
func (r Region) Contains(p Index) bool {
	for a := 0; a < 3; a++ {
		if p[a] < r.Start[a] || p[a] >= r.Start[a]+r.Size[a] {
			return false
		}
	}
	return true
}

// ContainsRegion reports whether every voxel of o lies inside r.
// An empty o is contained by anything.
func (r Region) ContainsRegion(o Region) bool {
	if o.Empty() {
		return true
	}
	end, oEnd := r.End(), o.End()
	for a := 0; a < 3; a++ {
		if o.Start[a] < r.Start[a] || oEnd[a] > end[a] {
			return false
		}
	}
	return true
}

// Intersect returns the overlap of two regions and whether it is non-empty.
func (r Region) Intersect(o Region) (Region, bool) {
	var out Region
	end, oEnd := r.End(), o.End()
	for a := 0; a < 3; a++ {
		lo := max(r.Start[a], o.Start[a])
		hi := min(end[a], oEnd[a])
		if hi <= lo {
			return Region{}, false
		}
		out.Start[a] = lo
		out.Size[a] = hi - lo
	}
	return out, true
}

// Each calls fn for every voxel in the region, x fastest.
func (r Region) Each(fn func(p Index)) {
	end := r.End()
	var p Index
	for p[2] = r.Start[2]; p[2] < end[2]; p[2]++ {
		for p[1] = r.Start[1]; p[1] < end[1]; p[1]++ {
			for p[0] = r.Start[0]; p[0] < end[0]; p[0]++ {
				fn(p)
			}
		}
	}
}

func (r Region) String() string {
	label := r.Kind.String()
	if r.Kind == Face {
		label = fmt.Sprintf("%s %s-%c", label, r.Side, "xyz"[r.Axis])
	}
	return fmt.Sprintf("%s %dx%dx%d at %s", label, r.Size[0], r.Size[1], r.Size[2], r.Start)
}
