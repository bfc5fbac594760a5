package smoothing

import (
	"boxsmooth3d/internal/models"
	"boxsmooth3d/pkg/region"
)

// Worker convolves whole regions of one input into one output. A Worker holds
// a single Neighborhood buffer, so it must not be shared between goroutines;
// make one per goroutine with NewWorker.
type Worker[T models.Scalar] struct {
	in       models.Grid[T]
	out      models.Grid[T]
	interior Sampler[T]
	boundary Sampler[T]
	policy   BoundaryPolicy
	n        Neighborhood[T]
}

// NewWorker returns a worker reading in and writing out under policy.
func NewWorker[T models.Scalar](in, out models.Grid[T], policy BoundaryPolicy) *Worker[T] {
	return &Worker[T]{
		in:       in,
		out:      out,
		interior: NewInteriorSampler(in),
		boundary: NewClampSampler(in),
		policy:   policy,
	}
}

// Process writes the filtered value of every voxel in r to the output. Only
// voxels inside r are written. Interior regions skip range checks; face
// regions are smoothed with clamped sampling or copied, depending on the policy.
func (w *Worker[T]) Process(r region.Region) {
	if r.Empty() {
		return
	}
	if r.Kind == region.Face && w.policy == Exclude {
		r.Each(func(p region.Index) {
			w.out.Set(p, w.in.At(p))
		})
		return
	}

	sampler := w.interior
	if r.Kind == region.Face {
		sampler = w.boundary
	}

	if out, ok := w.out.(*models.Volume[T]); ok {
		w.processVolume(r, sampler, out)
		return
	}
	r.Each(func(p region.Index) {
		sampler.Sample(p, &w.n)
		w.out.Set(p, Average(&w.n))
	})
}

// processVolume walks r row by row, writing straight into the output buffer.
func (w *Worker[T]) processVolume(r region.Region, sampler Sampler[T], out *models.Volume[T]) {
	end := r.End()
	var p region.Index
	for p[2] = r.Start[2]; p[2] < end[2]; p[2]++ {
		for p[1] = r.Start[1]; p[1] < end[1]; p[1]++ {
			p[0] = r.Start[0]
			start := out.Offset(p)
			row := out.Data[start : start+r.Size[0]]
			for i := range row {
				sampler.Sample(p, &w.n)
				row[i] = Average(&w.n)
				p[0]++
			}
		}
	}
}

// Process filters one region of in into out. It is a convenience for a
// single call; loops over many regions should reuse a Worker.
func Process[T models.Scalar](r region.Region, in, out models.Grid[T], policy BoundaryPolicy) {
	NewWorker(in, out, policy).Process(r)
}
