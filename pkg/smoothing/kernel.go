// Package smoothing implements a parallel 3x3x3 box (mean) filter for
// volumetric data.
//
// A volume is decomposed into one interior region, where every neighbor of
// every voxel is in bounds, and thin face regions along the outer boundary.
// Interior voxels are sampled through precomputed offsets without bounds
// checks; face voxels follow the configured BoundaryPolicy. Regions are
// disjoint, so workers write the output concurrently without locking while
// sharing the read-only input.
package smoothing

import (
	"boxsmooth3d/internal/models"
	"boxsmooth3d/pkg/region"
)

// Radius is the kernel radius of the box filter.
const Radius = 1

// NeighborhoodSize is the number of samples averaged per voxel.
const NeighborhoodSize = (2*Radius + 1) * (2*Radius + 1) * (2*Radius + 1)

// Neighborhood holds the samples around one voxel, x fastest, starting at
// offset (-1,-1,-1).
type Neighborhood[T models.Scalar] [NeighborhoodSize]T

// offsets lists the relative positions in Neighborhood order.
var offsets = func() [NeighborhoodSize]region.Index {
	var out [NeighborhoodSize]region.Index
	i := 0
	for dz := -Radius; dz <= Radius; dz++ {
		for dy := -Radius; dy <= Radius; dy++ {
			for dx := -Radius; dx <= Radius; dx++ {
				out[i] = region.Index{dx, dy, dz}
				i++
			}
		}
	}
	return out
}()

// Offsets returns the relative position of each Neighborhood slot.
func Offsets() [NeighborhoodSize]region.Index {
	return offsets
}

// Average returns the arithmetic mean of the neighborhood. The sum is
// accumulated in float64, divided by NeighborhoodSize regardless of how many
// samples were replicated edge values, and converted to T, so integer types
// truncate toward zero.
func Average[T models.Scalar](n *Neighborhood[T]) T {
	var sum float64
	for _, s := range n {
		sum += float64(s)
	}
	return T(sum / NeighborhoodSize)
}
