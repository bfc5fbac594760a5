package region

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidExtent is returned when an extent has a non-positive size on
	// some axis or a decomposition is requested with a negative radius.
	ErrInvalidExtent = errors.New("invalid extent")

	// ErrRegionOverlap signals that a set of regions is not an exact partition
	// of its extent. Seeing it means a decomposition bug, and writing through
	// such a set would race.
	ErrRegionOverlap = errors.New("regions do not partition extent")
)

// Validate returns ErrInvalidExtent unless every axis has a positive size.
func (r Region) Validate() error {
	if r.Empty() {
		return fmt.Errorf("%w: size %dx%dx%d", ErrInvalidExtent, r.Size[0], r.Size[1], r.Size[2])
	}
	return nil
}

// Decompose splits full into the interior region for the given kernel radius
// followed by the face regions that surround it.
//
// The interior is full shrunk by radius on every side and is omitted when it
// would be empty. Faces come in the order low-x, high-x, low-y, high-y, low-z,
// high-z; each is a slab up to radius thick that excludes the slabs already
// claimed on earlier axes, so the corners and edges are assigned exactly once.
// Empty faces are omitted. The result always partitions full, including
// volumes narrower than 2*radius+1 on some axis where only faces remain.
func Decompose(full Region, radius int) ([]Region, error) {
	if err := full.Validate(); err != nil {
		return nil, err
	}
	if radius < 0 {
		return nil, fmt.Errorf("%w: negative radius %d", ErrInvalidExtent, radius)
	}

	regions := make([]Region, 1, 7)

	// lo and hi close in as faces are peeled off; what is left is the interior.
	lo, hi := full.Start, full.End()
	for axis := 0; axis < 3; axis++ {
		for _, side := range []Side{Low, High} {
			thickness := min(radius, hi[axis]-lo[axis])
			if thickness <= 0 {
				continue
			}
			face := Region{Kind: Face, Axis: axis, Side: side}
			for a := 0; a < 3; a++ {
				face.Start[a] = lo[a]
				face.Size[a] = hi[a] - lo[a]
			}
			face.Size[axis] = thickness
			if side == Low {
				lo[axis] += thickness
			} else {
				face.Start[axis] = hi[axis] - thickness
				hi[axis] -= thickness
			}
			if !face.Empty() {
				regions = append(regions, face)
			}
		}
	}

	interior := Region{Kind: Interior, Start: lo}
	for a := 0; a < 3; a++ {
		interior.Size[a] = hi[a] - lo[a]
	}
	if interior.Empty() {
		return regions[1:], nil
	}
	regions[0] = interior
	return regions, nil
}

// Split divides r into at most parts slabs along its longest axis. Slab sizes
// differ by at most one voxel and the slabs keep r's Kind, Axis and Side.
// A parts value below 2 or an empty r returns r unchanged.
func Split(r Region, parts int) []Region {
	if parts < 2 || r.Empty() {
		return []Region{r}
	}

	// Longest axis, ties going to the slowest-varying (z) axis so slabs stay
	// contiguous in memory.
	axis := 2
	for a := 1; a >= 0; a-- {
		if r.Size[a] > r.Size[axis] {
			axis = a
		}
	}

	n := r.Size[axis]
	if parts > n {
		parts = n
	}
	base, extra := n/parts, n%parts

	out := make([]Region, 0, parts)
	offset := r.Start[axis]
	for i := 0; i < parts; i++ {
		slab := r
		slab.Start[axis] = offset
		slab.Size[axis] = base
		if i < extra {
			slab.Size[axis]++
		}
		offset += slab.Size[axis]
		out = append(out, slab)
	}
	return out
}

// VerifyPartition checks that regions cover full exactly once: every region
// lies within full, no two regions share a voxel, and the voxel counts add up.
// Empty regions are ignored.
func VerifyPartition(full Region, regions []Region) error {
	var total int64
	for i, r := range regions {
		if r.Empty() {
			continue
		}
		if !full.ContainsRegion(r) {
			return fmt.Errorf("%w: region %d (%s) outside %s", ErrRegionOverlap, i, r, full)
		}
		for j := i + 1; j < len(regions); j++ {
			if overlap, ok := r.Intersect(regions[j]); ok {
				return fmt.Errorf("%w: regions %d and %d share %d voxels",
					ErrRegionOverlap, i, j, overlap.NumVoxels())
			}
		}
		total += r.NumVoxels()
	}
	if total != full.NumVoxels() {
		return fmt.Errorf("%w: regions hold %d voxels, extent holds %d",
			ErrRegionOverlap, total, full.NumVoxels())
	}
	return nil
}
