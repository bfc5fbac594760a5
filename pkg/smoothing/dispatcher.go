package smoothing

import (
	"context"

	"golang.org/x/sync/errgroup"

	"boxsmooth3d/internal/models"
	"boxsmooth3d/pkg/region"
)

// PlanJobs turns a decomposition into the job list handed to workers. Each
// interior region is cut into workers*chunksPerWorker slabs for load
// balancing; faces are kept whole since they are thin.
func PlanJobs(regions []region.Region, workers, chunksPerWorker int) []region.Region {
	if workers < 1 {
		workers = 1
	}
	if chunksPerWorker < 1 {
		chunksPerWorker = 1
	}
	jobs := make([]region.Region, 0, len(regions)+workers*chunksPerWorker)
	for _, r := range regions {
		if r.Kind == region.Interior {
			jobs = append(jobs, region.Split(r, workers*chunksPerWorker)...)
			continue
		}
		jobs = append(jobs, r)
	}
	return jobs
}

// Run filters every job region of in into out using up to workers goroutines
// and returns once all of them finished. Jobs must partition the output;
// nothing synchronizes writes between them.
//
// The context is checked before each job starts. A cancelled run returns the
// context error and leaves out partially written.
func Run[T models.Scalar](ctx context.Context, jobs []region.Region, in, out models.Grid[T], workers int, policy BoundaryPolicy) error {
	if workers < 1 {
		workers = 1
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}
	if workers == 0 {
		return ctx.Err()
	}

	// Workers pull from a shared queue so each goroutine reuses one
	// neighborhood buffer across all of its jobs.
	queue := make(chan region.Region)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers + 1)

	g.Go(func() error {
		defer close(queue)
		for _, job := range jobs {
			select {
			case queue <- job:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for i := 0; i < workers; i++ {
		g.Go(func() error {
			w := NewWorker(in, out, policy)
			for job := range queue {
				if err := gctx.Err(); err != nil {
					return err
				}
				w.Process(job)
			}
			return nil
		})
	}
	return g.Wait()
}
