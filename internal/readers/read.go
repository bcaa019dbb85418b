package readers

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ProgressFunc receives the number of files read so far and the total.
type ProgressFunc func(done, total int)

// ReadAll reads every file in the resolution using at most workers concurrent
// reads (runtime.NumCPU when workers <= 0). Results are keyed by path; the
// first failure cancels the remaining reads and is returned.
func ReadAll(ctx context.Context, res Resolution, workers int, progress ProgressFunc) (map[string]Content, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	total := res.Files()
	results := make(map[string]Content, total)
	if total == 0 {
		return results, nil
	}

	for _, ext := range res.Groups.Extensions() {
		if _, ok := res.Readers[ext]; !ok {
			return nil, fmt.Errorf("no reader resolved for extension %q", ext)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var mu sync.Mutex
	done := 0

	for _, ext := range res.Groups.Extensions() {
		reader := res.Readers[ext]
		for _, path := range res.Groups[ext] {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				content, err := reader.Read(path)
				if err != nil {
					return err
				}
				mu.Lock()
				defer mu.Unlock()
				results[path] = content
				done++
				if progress != nil {
					progress(done, total)
				}
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
