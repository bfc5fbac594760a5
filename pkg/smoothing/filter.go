package smoothing

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"boxsmooth3d/internal/models"
	"boxsmooth3d/pkg/region"
)

// ErrAliasedOutput is returned when the output grid shares storage with the
// input, which would let workers read samples that were already smoothed.
var ErrAliasedOutput = errors.New("output grid aliases input")

// DefaultChunksPerWorker is how many interior slabs each worker gets when
// Params.ChunksPerWorker is unset.
const DefaultChunksPerWorker = 4

// Params holds the construction-time settings of a Filter.
type Params struct {
	// Workers is the number of goroutines filtering in parallel.
	// Zero or negative uses runtime.NumCPU().
	Workers int

	// ChunksPerWorker sets how finely the interior region is split for load
	// balancing. Zero or negative uses DefaultChunksPerWorker.
	ChunksPerWorker int

	// Policy selects how the one-voxel outer shell is handled.
	Policy BoundaryPolicy

	// Radius must be 0 (meaning Radius) or Radius; the box is always 3x3x3.
	Radius int

	// MaxVoxels rejects volumes larger than this many voxels with
	// models.ErrAllocationFailure. Zero means no limit.
	MaxVoxels int64

	// Logger receives progress and timing. The zero value discards output.
	Logger *zerolog.Logger
}

// Stats describes one filter invocation.
type Stats struct {
	// Elapsed is the wall-clock time of output allocation plus all region processing.
	Elapsed time.Duration

	Voxels  int64
	Regions int
	Jobs    int
	Workers int
	Policy  BoundaryPolicy
}

// Filter is a 3x3x3 box smoothing filter for volumes of T. A Filter holds no
// per-run state and may be used from several goroutines.
type Filter[T models.Scalar] struct {
	params Params
	log    zerolog.Logger
}

// NewFilter validates params, fills in defaults, and returns a filter.
func NewFilter[T models.Scalar](params Params) (*Filter[T], error) {
	if params.Radius != 0 && params.Radius != Radius {
		return nil, fmt.Errorf("unsupported kernel radius %d (box filter is fixed at %d)", params.Radius, Radius)
	}
	params.Radius = Radius
	if params.Policy != Extend && params.Policy != Exclude {
		return nil, fmt.Errorf("unsupported boundary policy %s", params.Policy)
	}
	if params.Workers <= 0 {
		params.Workers = runtime.NumCPU()
	}
	if params.ChunksPerWorker <= 0 {
		params.ChunksPerWorker = DefaultChunksPerWorker
	}
	if params.MaxVoxels < 0 {
		return nil, fmt.Errorf("negative voxel limit %d", params.MaxVoxels)
	}

	log := zerolog.Nop()
	if params.Logger != nil {
		log = params.Logger.With().Str("component", "smoothing").Logger()
	}
	return &Filter[T]{params: params, log: log}, nil
}

// Params returns the effective settings after defaults were applied.
func (f *Filter[T]) Params() Params {
	return f.params
}

// Apply smooths in and returns a newly allocated output volume with the same
// extent, spacing and origin. On error no volume is returned.
func (f *Filter[T]) Apply(ctx context.Context, in *models.Volume[T]) (*models.Volume[T], Stats, error) {
	start := time.Now()
	stats := Stats{Workers: f.params.Workers, Policy: f.params.Policy}

	if err := f.checkExtent(in.Extent()); err != nil {
		return nil, stats, err
	}
	if int64(len(in.Data)) != in.Bounds.NumVoxels() {
		return nil, stats, fmt.Errorf("%w: %d samples for %s", region.ErrInvalidExtent, len(in.Data), in.Bounds)
	}

	out, err := models.NewLike(in)
	if err != nil {
		return nil, stats, fmt.Errorf("allocating output: %w", err)
	}
	f.log.Debug().
		Str("extent", in.Bounds.String()).
		Str("bytes", humanize.Bytes(out.SizeBytes())).
		Msg("output allocated")

	if err := f.run(ctx, in, out, &stats); err != nil {
		return nil, stats, err
	}
	stats.Elapsed = time.Since(start)
	f.report(stats)
	return out, stats, nil
}

// ApplyGrid smooths in into a caller-provided out of identical extent. Any
// Grid works; *models.Volume takes the faster paths. out must not share
// storage with in, or ErrAliasedOutput is returned before any voxel is written.
func (f *Filter[T]) ApplyGrid(ctx context.Context, in, out models.Grid[T]) (Stats, error) {
	start := time.Now()
	stats := Stats{Workers: f.params.Workers, Policy: f.params.Policy}

	if err := f.checkExtent(in.Extent()); err != nil {
		return stats, err
	}
	if in.Extent().Start != out.Extent().Start || in.Extent().Size != out.Extent().Size {
		return stats, fmt.Errorf("%w: output %s does not match input %s",
			region.ErrInvalidExtent, out.Extent(), in.Extent())
	}
	if aliased(in, out) {
		return stats, ErrAliasedOutput
	}

	if err := f.run(ctx, in, out, &stats); err != nil {
		return stats, err
	}
	stats.Elapsed = time.Since(start)
	f.report(stats)
	return stats, nil
}

// aliased reports whether in and out are the same grid or two volumes over
// overlapping sample buffers.
func aliased[T models.Scalar](in, out models.Grid[T]) bool {
	if vin, ok := in.(*models.Volume[T]); ok {
		if vout, ok := out.(*models.Volume[T]); ok {
			return vin.SharesData(vout)
		}
	}
	t := reflect.TypeOf(in)
	return t == reflect.TypeOf(out) && t.Comparable() && any(in) == any(out)
}

func (f *Filter[T]) checkExtent(extent region.Region) error {
	if err := extent.Validate(); err != nil {
		return err
	}
	if f.params.MaxVoxels > 0 && extent.NumVoxels() > f.params.MaxVoxels {
		return fmt.Errorf("%w: %s voxels exceeds limit of %s", models.ErrAllocationFailure,
			humanize.Comma(extent.NumVoxels()), humanize.Comma(f.params.MaxVoxels))
	}
	return nil
}

// run decomposes the extent, checks the job list is a partition, and
// dispatches it.
func (f *Filter[T]) run(ctx context.Context, in, out models.Grid[T], stats *Stats) error {
	extent := in.Extent()
	regions, err := region.Decompose(extent, f.params.Radius)
	if err != nil {
		return err
	}
	if err := region.VerifyPartition(extent, regions); err != nil {
		return fmt.Errorf("decomposition: %w", err)
	}

	jobs := PlanJobs(regions, f.params.Workers, f.params.ChunksPerWorker)
	if err := region.VerifyPartition(extent, jobs); err != nil {
		return fmt.Errorf("job plan: %w", err)
	}

	stats.Voxels = extent.NumVoxels()
	stats.Regions = len(regions)
	stats.Jobs = len(jobs)
	f.log.Debug().
		Int("regions", len(regions)).
		Int("jobs", len(jobs)).
		Int("workers", f.params.Workers).
		Str("policy", f.params.Policy.String()).
		Msg("dispatching")

	return Run(ctx, jobs, in, out, f.params.Workers, f.params.Policy)
}

func (f *Filter[T]) report(stats Stats) {
	f.log.Info().
		Dur("elapsed", stats.Elapsed).
		Str("voxels", humanize.Comma(stats.Voxels)).
		Int("jobs", stats.Jobs).
		Int("workers", stats.Workers).
		Msg("smoothing complete")
}
