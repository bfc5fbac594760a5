package smoothing

import (
	"boxsmooth3d/internal/models"
	"boxsmooth3d/pkg/region"
)

// Sampler fills the neighborhood of a voxel.
type Sampler[T models.Scalar] interface {
	Sample(p region.Index, n *Neighborhood[T])
}

// NewInteriorSampler returns a sampler that reads neighbors without any range
// checks. It must only be used for voxels of the interior region.
// Volumes get the linear-offset fast path.
func NewInteriorSampler[T models.Scalar](in models.Grid[T]) Sampler[T] {
	if v, ok := in.(*models.Volume[T]); ok {
		return newVolumeSampler(v)
	}
	return gridSampler[T]{grid: in}
}

// NewClampSampler returns a sampler that replaces out-of-range coordinates by
// the nearest in-range index on each axis, replicating edge values.
func NewClampSampler[T models.Scalar](in models.Grid[T]) Sampler[T] {
	ext := in.Extent()
	return clampSampler[T]{grid: in, lo: ext.Start, hi: ext.End()}
}

// volumeSampler reads neighbors straight from the flat sample buffer.
type volumeSampler[T models.Scalar] struct {
	vol   *models.Volume[T]
	delta [NeighborhoodSize]int
}

func newVolumeSampler[T models.Scalar](v *models.Volume[T]) *volumeSampler[T] {
	s := &volumeSampler[T]{vol: v}
	strides := v.Strides()
	for i, o := range offsets {
		s.delta[i] = o[0]*strides[0] + o[1]*strides[1] + o[2]*strides[2]
	}
	return s
}

func (s *volumeSampler[T]) Sample(p region.Index, n *Neighborhood[T]) {
	base := s.vol.Offset(p)
	data := s.vol.Data
	for i := range s.delta {
		n[i] = data[base+s.delta[i]]
	}
}

// gridSampler reads neighbors through the Grid interface.
type gridSampler[T models.Scalar] struct {
	grid models.Grid[T]
}

func (s gridSampler[T]) Sample(p region.Index, n *Neighborhood[T]) {
	for i, o := range offsets {
		n[i] = s.grid.At(p.Add(o))
	}
}

type clampSampler[T models.Scalar] struct {
	grid   models.Grid[T]
	lo, hi region.Index // hi is exclusive
}

func (s clampSampler[T]) Sample(p region.Index, n *Neighborhood[T]) {
	for i, o := range offsets {
		q := p.Add(o)
		for a := 0; a < 3; a++ {
			if q[a] < s.lo[a] {
				q[a] = s.lo[a]
			} else if q[a] >= s.hi[a] {
				q[a] = s.hi[a] - 1
			}
		}
		n[i] = s.grid.At(q)
	}
}
