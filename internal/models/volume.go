package models

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"unsafe"

	"boxsmooth3d/pkg/region"
)

// ErrAllocationFailure is returned when a volume buffer cannot be allocated at
// the requested shape.
var ErrAllocationFailure = errors.New("volume allocation failed")

// Scalar is the set of sample types a Volume can hold.
type Scalar interface {
	~uint8 | ~int8 | ~uint16 | ~int16 | ~uint32 | ~int32 | ~float32 | ~float64
}

// Grid is the capability a volume-like type needs to be filtered: an extent
// and indexed read/write of samples.
type Grid[T Scalar] interface {
	// Extent returns the full index range of the grid.
	Extent() region.Region

	// At returns the sample at p. p must lie within Extent.
	At(p region.Index) T

	// Set stores v at p. p must lie within Extent.
	Set(p region.Index, v T)
}

// Volume is a 3D grid of scalar samples with its physical placement.
type Volume[T Scalar] struct {
	// Data holds the samples in x-fastest order: x + width*(y + height*z),
	// with coordinates taken relative to Bounds.Start.
	Data []T

	// Bounds is the index range covered by the volume. The start may be non-zero.
	Bounds region.Region

	// Spacing is the physical size of each voxel in mm along x, y and z.
	Spacing [3]float64

	// Origin is the physical position of the first voxel.
	Origin [3]float64
}

// NewVolume allocates a zero-filled volume over the given extent with unit
// spacing and zero origin.
func NewVolume[T Scalar](extent region.Region) (*Volume[T], error) {
	if err := extent.Validate(); err != nil {
		return nil, err
	}
	data, err := allocate[T](extent.Size)
	if err != nil {
		return nil, err
	}
	return &Volume[T]{
		Data:    data,
		Bounds:  extent,
		Spacing: [3]float64{1, 1, 1},
	}, nil
}

// FromData wraps existing samples in a volume. The slice is not copied.
func FromData[T Scalar](data []T, extent region.Region) (*Volume[T], error) {
	if err := extent.Validate(); err != nil {
		return nil, err
	}
	if int64(len(data)) != extent.NumVoxels() {
		return nil, fmt.Errorf("%w: %d samples for %s", region.ErrInvalidExtent, len(data), extent)
	}
	return &Volume[T]{
		Data:    data,
		Bounds:  extent,
		Spacing: [3]float64{1, 1, 1},
	}, nil
}

// NewLike allocates a zero-filled volume with the same extent, spacing and
// origin as v.
func NewLike[T Scalar](v *Volume[T]) (*Volume[T], error) {
	out, err := NewVolume[T](v.Bounds)
	if err != nil {
		return nil, err
	}
	out.Spacing = v.Spacing
	out.Origin = v.Origin
	return out, nil
}

// allocate makes a buffer for a box of the given size, reporting shapes the
// platform cannot hold as ErrAllocationFailure instead of panicking.
func allocate[T Scalar](size [3]int) (data []T, err error) {
	n := int64(1)
	for _, s := range size {
		if int64(s) > math.MaxInt64/n {
			return nil, fmt.Errorf("%w: %dx%dx%d voxels overflows", ErrAllocationFailure, size[0], size[1], size[2])
		}
		n *= int64(s)
	}
	if n > math.MaxInt {
		return nil, fmt.Errorf("%w: %d voxels", ErrAllocationFailure, n)
	}
	defer func() {
		if r := recover(); r != nil {
			if rerr, ok := r.(runtime.Error); ok {
				err = fmt.Errorf("%w: %d voxels: %v", ErrAllocationFailure, n, rerr)
				return
			}
			panic(r)
		}
	}()
	return make([]T, int(n)), nil
}

// Extent returns the index range covered by the volume.
func (v *Volume[T]) Extent() region.Region {
	return v.Bounds
}

// Width, Height and Depth return the number of voxels along x, y and z.
func (v *Volume[T]) Width() int  { return v.Bounds.Size[0] }
func (v *Volume[T]) Height() int { return v.Bounds.Size[1] }
func (v *Volume[T]) Depth() int  { return v.Bounds.Size[2] }

// Strides returns the distance in Data between neighbors along x, y and z.
func (v *Volume[T]) Strides() [3]int {
	return [3]int{1, v.Bounds.Size[0], v.Bounds.Size[0] * v.Bounds.Size[1]}
}

// Offset returns the position in Data of index p.
func (v *Volume[T]) Offset(p region.Index) int {
	s := v.Bounds.Start
	return (p[0] - s[0]) + v.Bounds.Size[0]*((p[1]-s[1])+v.Bounds.Size[1]*(p[2]-s[2]))
}

// At returns the sample at p.
func (v *Volume[T]) At(p region.Index) T {
	return v.Data[v.Offset(p)]
}

// Set stores val at p.
func (v *Volume[T]) Set(p region.Index, val T) {
	v.Data[v.Offset(p)] = val
}

// SizeBytes returns the memory held by the samples.
func (v *Volume[T]) SizeBytes() uint64 {
	var zero T
	return uint64(len(v.Data)) * uint64(unsafe.Sizeof(zero))
}

// SharesData reports whether the sample buffers of v and o overlap in memory.
func (v *Volume[T]) SharesData(o *Volume[T]) bool {
	if v == o {
		return true
	}
	if len(v.Data) == 0 || len(o.Data) == 0 {
		return false
	}
	size := unsafe.Sizeof(v.Data[0])
	vLo := uintptr(unsafe.Pointer(&v.Data[0]))
	oLo := uintptr(unsafe.Pointer(&o.Data[0]))
	vHi := vLo + uintptr(len(v.Data))*size
	oHi := oLo + uintptr(len(o.Data))*size
	return vLo < oHi && oLo < vHi
}

// Center returns the physical center of the volume, the point a reslicing
// viewer would pass through by default.
func (v *Volume[T]) Center() [3]float64 {
	var c [3]float64
	for a := 0; a < 3; a++ {
		first := float64(v.Bounds.Start[a])
		last := float64(v.Bounds.Start[a] + v.Bounds.Size[a] - 1)
		c[a] = v.Origin[a] + v.Spacing[a]*0.5*(first+last)
	}
	return c
}

// SameShape reports whether two volumes share extent, spacing and origin.
func SameShape[T, U Scalar](a *Volume[T], b *Volume[U]) bool {
	return a.Bounds.Start == b.Bounds.Start &&
		a.Bounds.Size == b.Bounds.Size &&
		a.Spacing == b.Spacing &&
		a.Origin == b.Origin
}

// ToFloat64 converts any volume to float64 samples, keeping its placement.
func ToFloat64[T Scalar](v *Volume[T]) *Volume[float64] {
	data := make([]float64, len(v.Data))
	for i, s := range v.Data {
		data[i] = float64(s)
	}
	return &Volume[float64]{
		Data:    data,
		Bounds:  v.Bounds,
		Spacing: v.Spacing,
		Origin:  v.Origin,
	}
}
