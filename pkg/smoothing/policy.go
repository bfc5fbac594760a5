package smoothing

import (
	"fmt"
	"strings"
)

// BoundaryPolicy selects how face regions are handled.
type BoundaryPolicy int

const (
	// Extend smooths face voxels too, clamping out-of-range neighbor
	// coordinates to the nearest edge voxel. The divisor stays 27.
	Extend BoundaryPolicy = iota

	// Exclude leaves face voxels unsmoothed: the outer shell of the output is
	// copied from the input.
	Exclude
)

// ParseBoundaryPolicy accepts "extend" (also "clamp") or "exclude".
// The empty string selects Extend.
func ParseBoundaryPolicy(s string) (BoundaryPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "extend", "clamp":
		return Extend, nil
	case "exclude":
		return Exclude, nil
	}
	return 0, fmt.Errorf("unknown boundary policy %q (must be extend or exclude)", s)
}

func (p BoundaryPolicy) String() string {
	switch p {
	case Extend:
		return "extend"
	case Exclude:
		return "exclude"
	}
	return fmt.Sprintf("policy(%d)", int(p))
}
