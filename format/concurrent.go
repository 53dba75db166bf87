package format

import (
	"context"

	"github.com/janelia-flyem/bioio/bio"

	"golang.org/x/sync/errgroup"
)

// ReadPlanes reads full planes of one series with up to workers duplicates of r
// and returns them in request order.  r itself is not used for reading, so its
// series and file state are left as they were.
func ReadPlanes(ctx context.Context, r Reader, series int, planes []int, workers int) ([][]byte, error) {
	if workers < 1 {
		workers = 1
	}
	if workers > len(planes) {
		workers = len(planes)
	}
	out := make([][]byte, len(planes))
	if len(planes) == 0 {
		return out, nil
	}
	timedLog := bio.NewTimeLog()

	jobs := make(chan int)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(jobs)
		for i := range planes {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			dup, err := r.Duplicate()
			if err != nil {
				return err
			}
			defer dup.Close(false)
			if err := dup.SetSeries(series); err != nil {
				return err
			}
			for i := range jobs {
				plane, err := ReadFullPlane(dup, planes[i])
				if err != nil {
					return err
				}
				out[i] = plane
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	timedLog.Debugf("Read %d planes of series %d with %d workers", len(planes), series, workers)
	return out, nil
}
